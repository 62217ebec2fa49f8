// Package listings is the embeddable entry point: it assembles the fetch
// backend, site registry, extraction engine and runner from a Config.
package listings

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/byteowlz/lstcnt/internal/browser"
	"github.com/byteowlz/lstcnt/internal/config"
	"github.com/byteowlz/lstcnt/internal/counter"
	"github.com/byteowlz/lstcnt/internal/extractor"
	"github.com/byteowlz/lstcnt/internal/fetcher"
	"github.com/byteowlz/lstcnt/internal/processor"
	"github.com/byteowlz/lstcnt/internal/registry"
)

type Counter struct {
	registry *registry.Registry
	runner   *counter.Runner
}

type Options struct {
	Logger   zerolog.Logger
	Progress counter.ProgressFunc
	// Fetcher replaces the backend selected by cfg.Fetch.Backend.
	Fetcher fetcher.Fetcher
}

func New(cfg *config.Config, opts Options) (*Counter, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	reg, err := cfg.Registry()
	if err != nil {
		return nil, err
	}

	f := opts.Fetcher
	if f == nil {
		f, err = NewFetcher(cfg, opts.Logger)
		if err != nil {
			return nil, err
		}
	}

	engine := extractor.NewEngine(
		extractor.WithMinDigits(cfg.Extraction.MinDigits),
		extractor.WithTextMode(processor.TextMode(cfg.Extraction.TextMode)),
	)

	runner := counter.New(f, reg,
		counter.WithEngine(engine),
		counter.WithTimeout(cfg.Timeout()),
		counter.WithConcurrency(cfg.Parallel.MaxConcurrency),
		counter.WithFetchOptions(fetchOptions(cfg)),
		counter.WithProgress(opts.Progress),
		counter.WithLogger(opts.Logger),
	)

	return &Counter{registry: reg, runner: runner}, nil
}

func (c *Counter) Registry() *registry.Registry {
	return c.registry
}

// CountAll runs every configured site.
func (c *Counter) CountAll(ctx context.Context) counter.ResultSet {
	return c.runner.RunRegistry(ctx)
}

// Count runs the given URLs. Each URL uses its registry strategy when one
// is configured and the default keywords otherwise.
func (c *Counter) Count(ctx context.Context, urls []string) counter.ResultSet {
	sources := make([]registry.Source, 0, len(urls))
	for _, u := range urls {
		sources = append(sources, c.registry.Source(u))
	}
	return c.runner.Run(ctx, sources)
}

// NewFetcher builds the backend named by cfg.Fetch.Backend, wrapped with
// browser cookies when they are enabled.
func NewFetcher(cfg *config.Config, logger zerolog.Logger) (fetcher.Fetcher, error) {
	static := fetcher.NewSimpleFetcher()
	static.SetFollowRedirects(cfg.Fetch.FollowRedirects)
	if cfg.Fetch.MaxRedirects > 0 {
		static.SetMaxRedirects(cfg.Fetch.MaxRedirects)
	}

	var f fetcher.Fetcher
	switch cfg.Fetch.Backend {
	case "http":
		f = static
	case "chrome":
		f = fetcher.NewContentFetcher(fetcher.FetchMode(cfg.Fetch.Mode), static)
	case "reader":
		f = fetcher.NewReaderFetcher(cfg.Fetch.ReaderAPIKey, cfg.Timeout())
	default:
		return nil, fmt.Errorf("unknown fetch backend: %s (available: http, chrome, reader)", cfg.Fetch.Backend)
	}

	if cfg.Browser.Cookies.Enabled {
		logger.Debug().Str("browser", cfg.Browser.Default).Strs("domains", cfg.Browser.Cookies.Domains).Msg("injecting browser cookies")
		f = fetcher.WithCookies(f, browser.NewCookieExtractor(
			browser.BrowserType(cfg.Browser.Default),
			cfg.Browser.Cookies.Domains,
			cfg.Browser.Cookies.Exclude,
		))
	}
	return f, nil
}

func fetchOptions(cfg *config.Config) fetcher.FetchOptions {
	return fetcher.FetchOptions{
		UserAgent:       cfg.Fetch.UserAgent,
		BrowserAgent:    cfg.Fetch.BrowserAgent,
		AcceptLanguage:  cfg.Fetch.AcceptLanguage,
		WaitForSelector: cfg.Fetch.WaitForSelector,
		SettleDelay:     cfg.SettleDelay(),
	}
}
