package extractor

import (
	"fmt"
	"slices"
	"strings"
)

// StrategyKind tags the variant held by a Strategy.
type StrategyKind int

const (
	// StrategyUnset is the zero value: the registry decides.
	StrategyUnset StrategyKind = iota
	StrategySelector
	StrategyKeywords
	StrategyUnsupported
)

func (k StrategyKind) String() string {
	switch k {
	case StrategySelector:
		return "selector"
	case StrategyKeywords:
		return "keywords"
	case StrategyUnsupported:
		return "unsupported"
	default:
		return "unset"
	}
}

// Strategy describes how a listing count is derived from one site's page.
// Only the fields of the active Kind are meaningful.
type Strategy struct {
	Kind StrategyKind

	// Selector
	Locator    string
	TextFilter string

	// Keywords
	Keywords []string
}

// Selector returns a strategy reading the first element matching locator,
// optionally restricted to elements whose text contains textFilter.
func Selector(locator, textFilter string) Strategy {
	return Strategy{Kind: StrategySelector, Locator: locator, TextFilter: textFilter}
}

// KeywordProximity returns a strategy scanning text blocks near keywords.
func KeywordProximity(keywords ...string) Strategy {
	return Strategy{Kind: StrategyKeywords, Keywords: slices.Clone(keywords)}
}

// Unsupported marks a site the fetch layer cannot serve.
func Unsupported() Strategy {
	return Strategy{Kind: StrategyUnsupported}
}

func (s Strategy) IsZero() bool {
	return s.Kind == StrategyUnset
}

func (s Strategy) Equal(o Strategy) bool {
	if s.Kind != o.Kind {
		return false
	}
	switch s.Kind {
	case StrategySelector:
		return s.Locator == o.Locator && s.TextFilter == o.TextFilter
	case StrategyKeywords:
		return slices.Equal(s.Keywords, o.Keywords)
	default:
		return true
	}
}

func (s Strategy) String() string {
	switch s.Kind {
	case StrategySelector:
		if s.TextFilter != "" {
			return fmt.Sprintf("selector(%s, text=%q)", s.Locator, s.TextFilter)
		}
		return fmt.Sprintf("selector(%s)", s.Locator)
	case StrategyKeywords:
		return fmt.Sprintf("keywords(%s)", strings.Join(s.Keywords, ", "))
	default:
		return s.Kind.String()
	}
}

const hasTextPseudo = ":has-text("

// ParseLocator splits a locator written with the browser-automation
// pseudo-class, e.g. "h1:has-text('oglasa')", into a plain CSS selector and
// a text filter. Locators without the pseudo-class are returned unchanged.
func ParseLocator(raw string) (locator, textFilter string) {
	raw = strings.TrimSpace(raw)
	idx := strings.LastIndex(raw, hasTextPseudo)
	if idx == -1 || !strings.HasSuffix(raw, ")") {
		return raw, ""
	}

	arg := strings.TrimSpace(raw[idx+len(hasTextPseudo) : len(raw)-1])
	if len(arg) >= 2 && (arg[0] == '\'' || arg[0] == '"') && arg[len(arg)-1] == arg[0] {
		arg = arg[1 : len(arg)-1]
	}

	locator = strings.TrimSpace(raw[:idx])
	if locator == "" {
		locator = "*"
	}
	return locator, arg
}
