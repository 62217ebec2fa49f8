// Package registry maps listing sites to the strategy that extracts their
// listing count. A Registry is immutable once built and is passed to the
// runner explicitly.
package registry

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/byteowlz/lstcnt/internal/extractor"
)

// DefaultKeywords are the localized words for "listings", "ads" and "real
// estate" used for sites without a dedicated entry.
var DefaultKeywords = []string{
	"listings", "properties", "results", "real estate",
	"oglasa", "oglasi", "oglas", "nekretnin",
	"nepremičnin", "oglasov", "zadetkov",
	"обяви", "оферти", "имоти", "огласи",
	"immobilien", "annonces", "annunci", "inzerát",
}

// Source is one site to count.
type Source struct {
	URL      string
	Label    string
	Strategy extractor.Strategy
}

// ID is the canonical identifier used for lookups and result keys.
func (s Source) ID() string {
	return Canonical(s.URL)
}

// Name returns the label when one is set, the URL otherwise.
func (s Source) Name() string {
	if s.Label != "" {
		return s.Label
	}
	return s.URL
}

type Registry struct {
	sources         []Source
	byID            map[string]int
	byHost          map[string]int
	defaultKeywords []string
}

// New validates sources and builds a registry. Sources keep their order;
// defaultKeywords apply to identifiers with no entry and fall back to
// DefaultKeywords when empty.
func New(sources []Source, defaultKeywords []string) (*Registry, error) {
	if len(defaultKeywords) == 0 {
		defaultKeywords = DefaultKeywords
	}

	r := &Registry{
		sources:         make([]Source, 0, len(sources)),
		byID:            make(map[string]int, len(sources)),
		byHost:          make(map[string]int, len(sources)),
		defaultKeywords: slices.Clone(defaultKeywords),
	}

	for i, src := range sources {
		if err := validate(src); err != nil {
			return nil, fmt.Errorf("site %d (%s): %w", i, src.URL, err)
		}

		id := src.ID()
		if prev, dup := r.byID[id]; dup {
			return nil, fmt.Errorf("site %d (%s): duplicates site %d", i, src.URL, prev)
		}

		if src.Strategy.Kind == extractor.StrategyKeywords {
			src.Strategy = extractor.KeywordProximity(src.Strategy.Keywords...)
		}

		r.byID[id] = len(r.sources)
		if host := hostOf(id); host != "" {
			if _, seen := r.byHost[host]; !seen {
				r.byHost[host] = len(r.sources)
			}
		}
		r.sources = append(r.sources, src)
	}

	return r, nil
}

func validate(src Source) error {
	if strings.TrimSpace(src.URL) == "" {
		return fmt.Errorf("missing url")
	}
	u, err := url.Parse(src.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}

	s := src.Strategy
	switch s.Kind {
	case extractor.StrategySelector:
		if _, err := extractor.CompileLocator(s.Locator); err != nil {
			return err
		}
	case extractor.StrategyKeywords:
		if len(s.Keywords) == 0 {
			return fmt.Errorf("keyword strategy without keywords")
		}
	case extractor.StrategyUnsupported, extractor.StrategyUnset:
	default:
		return fmt.Errorf("unknown strategy kind %d", s.Kind)
	}
	return nil
}

// Sources returns a copy of the registered sources in registration order.
// Unset strategies are resolved.
func (r *Registry) Sources() []Source {
	out := make([]Source, len(r.sources))
	for i, src := range r.sources {
		if src.Strategy.IsZero() {
			src.Strategy = r.defaultStrategy()
		}
		src.Strategy.Keywords = slices.Clone(src.Strategy.Keywords)
		out[i] = src
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.sources)
}

func (r *Registry) DefaultKeywords() []string {
	return slices.Clone(r.defaultKeywords)
}

// Resolve returns the strategy for a site identifier (a domain or URL).
// An exact match wins, then the entry whose path is the nearest ancestor of
// the identifier's path. A bare domain matches the first entry on that
// host. Anything else gets a keyword strategy with the default keywords.
func (r *Registry) Resolve(id string) extractor.Strategy {
	if src, ok := r.lookup(id); ok && !src.Strategy.IsZero() {
		s := src.Strategy
		s.Keywords = slices.Clone(s.Keywords)
		return s
	}
	return r.defaultStrategy()
}

// Source builds a Source for an ad-hoc URL, reusing the label and strategy
// of a matching entry.
func (r *Registry) Source(rawURL string) Source {
	rawURL = strings.TrimSpace(rawURL)
	src := Source{URL: rawURL, Strategy: r.Resolve(rawURL)}
	if known, ok := r.lookup(rawURL); ok {
		src.Label = known.Label
	}
	return src
}

func (r *Registry) lookup(id string) (Source, bool) {
	canonical := Canonical(id)
	if i, ok := r.byID[canonical]; ok {
		return r.sources[i], true
	}

	host := hostOf(canonical)
	if host == "" {
		return Source{}, false
	}
	if canonical == host {
		if i, ok := r.byHost[host]; ok {
			return r.sources[i], true
		}
		return Source{}, false
	}

	// A path under a registered entry shares its page layout.
	for parent := canonical; parent != host; {
		parent = parent[:strings.LastIndex(parent, "/")]
		if i, ok := r.byID[parent]; ok {
			return r.sources[i], true
		}
	}
	return Source{}, false
}

func (r *Registry) defaultStrategy() extractor.Strategy {
	return extractor.KeywordProximity(r.defaultKeywords...)
}

// Canonical normalizes a site identifier: scheme, a leading "www.", host
// case, query, fragment and trailing slashes are ignored.
// "https://www.Nekretnine.rs/" and "nekretnine.rs" are the same site.
func Canonical(id string) string {
	id = strings.TrimSpace(id)
	if !strings.Contains(id, "://") {
		id = "https://" + id
	}

	u, err := url.Parse(id)
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimRight(id, "/"))
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	return host + strings.TrimRight(u.EscapedPath(), "/")
}

func hostOf(canonical string) string {
	if strings.Contains(canonical, "://") {
		return ""
	}
	host, _, _ := strings.Cut(canonical, "/")
	return host
}
