// Package counter runs a batch of listing sources through fetch and
// extraction and collects one result per source.
package counter

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/byteowlz/lstcnt/internal/extractor"
	"github.com/byteowlz/lstcnt/internal/fetcher"
	"github.com/byteowlz/lstcnt/internal/registry"
)

// DefaultTimeout bounds a single page fetch.
const DefaultTimeout = 30 * time.Second

// ProgressFunc is called after each source completes. Calls are serialized.
type ProgressFunc func(done, total int, e Entry)

type Runner struct {
	fetcher     fetcher.Fetcher
	registry    *registry.Registry
	engine      *extractor.Engine
	fetchOpts   fetcher.FetchOptions
	timeout     time.Duration
	concurrency int
	progress    ProgressFunc
	logger      zerolog.Logger
}

type Option func(*Runner)

func WithEngine(e *extractor.Engine) Option {
	return func(r *Runner) {
		if e != nil {
			r.engine = e
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithConcurrency allows up to n sources in flight. The default of 1
// processes sources strictly in order.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

func WithFetchOptions(opts fetcher.FetchOptions) Option {
	return func(r *Runner) { r.fetchOpts = opts }
}

func WithProgress(fn ProgressFunc) Option {
	return func(r *Runner) { r.progress = fn }
}

func WithLogger(l zerolog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// New creates a runner. reg resolves sources whose strategy is unset and
// may be nil, in which case such sources use the default keywords.
func New(f fetcher.Fetcher, reg *registry.Registry, opts ...Option) *Runner {
	r := &Runner{
		fetcher:     f,
		registry:    reg,
		engine:      extractor.NewEngine(),
		timeout:     DefaultTimeout,
		concurrency: 1,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunRegistry runs every registered source.
func (r *Runner) RunRegistry(ctx context.Context) ResultSet {
	if r.registry == nil {
		return NewResultSet(nil)
	}
	return r.Run(ctx, r.registry.Sources())
}

// Run processes sources and returns exactly one entry per source, in input
// order. A failing source never stops the batch.
func (r *Runner) Run(ctx context.Context, sources []registry.Source) ResultSet {
	entries := make([]Entry, len(sources))
	for i, src := range sources {
		entries[i] = Entry{Source: src, State: StatePending}
	}

	var (
		mu   sync.Mutex
		done int
	)
	report := func(i int) {
		if r.progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		done++
		r.progress(done, len(entries), entries[i])
	}

	r.logger.Debug().Int("sources", len(sources)).Int("concurrency", r.concurrency).Msg("run started")

	if r.concurrency <= 1 {
		for i, src := range sources {
			entries[i] = r.process(ctx, src)
			report(i)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(r.concurrency)
		for i, src := range sources {
			g.Go(func() error {
				// Each goroutine owns entries[i]; no other writer touches it.
				entries[i] = r.process(ctx, src)
				report(i)
				return nil
			})
		}
		_ = g.Wait()
	}

	rs := NewResultSet(entries)
	sum := rs.Summary()
	r.logger.Info().
		Int("sources", sum.Sources).
		Int("counted", sum.Counted).
		Int("not_found", sum.NotFound).
		Int("errors", sum.Errors).
		Msg("run finished")
	return rs
}

func (r *Runner) process(ctx context.Context, src registry.Source) (entry Entry) {
	start := time.Now()
	entry = Entry{Source: src, State: StatePending}
	log := r.logger.With().Str("site", src.Name()).Logger()

	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic", p).Msg("extraction panicked")
			entry.Result = extractor.Errorf("internal error: %v", p)
		}
		entry.Duration = time.Since(start)
	}()

	strategy := src.Strategy
	if strategy.IsZero() {
		strategy = r.resolve(src.URL)
		entry.Source.Strategy = strategy
	}

	if strategy.Kind == extractor.StrategyUnsupported {
		log.Debug().Str("state", string(StateSkipped)).Msg("strategy unsupported, not fetching")
		entry.State = StateSkipped
		entry.Result = extractor.Errorf(extractor.MsgDynamicRendering)
		return entry
	}

	if ctx.Err() != nil {
		entry.State = StateFetchFailed
		entry.Result = extractor.Errorf("canceled")
		return entry
	}

	entry.State = StateFetching
	log.Debug().Str("state", string(entry.State)).Str("url", src.URL).Msg("fetching")

	fetchCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.fetcher.Fetch(fetchCtx, src.URL, r.fetchOpts)
	if err != nil {
		entry.State = StateFetchFailed
		entry.Result = r.fetchFailure(ctx, err)
		log.Warn().Err(err).Str("state", string(entry.State)).Msg("fetch failed")
		return entry
	}

	entry.State = StateFetched
	entry.UsedJS = res.UsedJS

	doc := extractor.Document{URL: src.URL, HTML: res.HTML, Text: res.Text}
	entry.Result = r.engine.Extract(doc, strategy)
	entry.State = StateExtracted

	log.Debug().
		Str("state", string(entry.State)).
		Str("strategy", strategy.Kind.String()).
		Str("result", entry.Result.String()).
		Bool("js", res.UsedJS).
		Msg("extracted")
	return entry
}

func (r *Runner) resolve(url string) extractor.Strategy {
	if r.registry == nil {
		return extractor.KeywordProximity(registry.DefaultKeywords...)
	}
	return r.registry.Resolve(url)
}

func (r *Runner) fetchFailure(parent context.Context, err error) extractor.Result {
	if parent.Err() != nil {
		return extractor.Errorf("canceled")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return extractor.Errorf("timeout after %s", r.timeout)
	}
	return extractor.Errorf("fetch failed: %v", err)
}
