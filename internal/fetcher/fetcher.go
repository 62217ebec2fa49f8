package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/byteowlz/lstcnt/internal/processor"
)

type FetchMode string

const (
	FetchModeAuto   FetchMode = "auto"
	FetchModeStatic FetchMode = "static"
	FetchModeJS     FetchMode = "javascript"
)

// Fetcher retrieves one page. Implementations must honour ctx cancellation
// and release every connection or browser they acquire before returning.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts FetchOptions) (*FetchResult, error)
}

type FetchOptions struct {
	UserAgent       string
	BrowserAgent    string
	AcceptLanguage  string
	Cookies         []*http.Cookie
	WaitForSelector string
	SettleDelay     time.Duration
}

type FetchResult struct {
	URL        string
	FinalURL   string
	StatusCode int
	HTML       string
	Text       string // set by text-only backends
	UsedJS     bool
}

// StatusError is returned for non-success HTTP responses.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("HTTP error: %s", e.Status)
	}
	return fmt.Sprintf("HTTP error: %d", e.Code)
}

// ContentFetcher fetches statically, through headless Chrome, or picks one
// per page in auto mode.
type ContentFetcher struct {
	static    *SimpleFetcher
	mode      FetchMode
	processor *processor.ContentProcessor
	allocOpts []chromedp.ExecAllocatorOption
}

func NewContentFetcher(mode FetchMode, static *SimpleFetcher) *ContentFetcher {
	if mode == "" {
		mode = FetchModeAuto
	}
	if static == nil {
		static = NewSimpleFetcher()
	}
	return &ContentFetcher{
		static:    static,
		mode:      mode,
		processor: processor.NewContentProcessor(),
		allocOpts: chromedp.DefaultExecAllocatorOptions[:],
	}
}

func (cf *ContentFetcher) Mode() FetchMode {
	return cf.mode
}

func (cf *ContentFetcher) Fetch(ctx context.Context, url string, opts FetchOptions) (*FetchResult, error) {
	if cf.mode == FetchModeStatic {
		return cf.static.Fetch(ctx, url, opts)
	}

	if cf.mode == FetchModeJS {
		return cf.fetchWithJS(ctx, url, opts)
	}

	// Auto mode: try static first, then JS if needed
	result, err := cf.static.Fetch(ctx, url, opts)
	if err != nil {
		return nil, err
	}

	if cf.needsJSRendering(result.HTML) {
		return cf.fetchWithJS(ctx, url, opts)
	}

	return result, nil
}

func (cf *ContentFetcher) fetchWithJS(ctx context.Context, target string, opts FetchOptions) (*FetchResult, error) {
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = cf.static.userAgentSelect.GetUserAgent(opts.BrowserAgent)
	}

	allocOpts := append([]chromedp.ExecAllocatorOption{}, cf.allocOpts...)
	allocOpts = append(allocOpts, chromedp.UserAgent(userAgent))

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	chromeCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	var html, location string

	var tasks chromedp.Tasks
	if len(opts.Cookies) > 0 {
		tasks = append(tasks, setCookies(target, opts.Cookies))
	}

	tasks = append(tasks, chromedp.Navigate(target))

	// Wait for specific selector if provided
	if opts.WaitForSelector != "" {
		tasks = append(tasks, chromedp.WaitVisible(opts.WaitForSelector))
	} else {
		tasks = append(tasks, chromedp.WaitReady("body"))
	}

	// Counters are often filled in by XHR after the load event.
	if opts.SettleDelay > 0 {
		tasks = append(tasks, chromedp.Sleep(opts.SettleDelay))
	}

	tasks = append(tasks,
		chromedp.OuterHTML("html", &html),
		chromedp.Location(&location),
	)

	if err := chromedp.Run(chromeCtx, tasks); err != nil {
		return nil, fmt.Errorf("failed to run Chrome tasks: %w", err)
	}

	return &FetchResult{
		URL:      target,
		FinalURL: location,
		HTML:     html,
		UsedJS:   true,
	}, nil
}

func setCookies(target string, cookies []*http.Cookie) chromedp.Action {
	host := ""
	if u, err := url.Parse(target); err == nil {
		host = u.Hostname()
	}

	return chromedp.ActionFunc(func(ctx context.Context) error {
		for _, c := range cookies {
			domain := c.Domain
			if domain == "" {
				domain = host
			}
			path := c.Path
			if path == "" {
				path = "/"
			}
			err := network.SetCookie(c.Name, c.Value).
				WithDomain(domain).
				WithPath(path).
				WithSecure(c.Secure).
				WithHTTPOnly(c.HttpOnly).
				Do(ctx)
			if err != nil {
				return fmt.Errorf("failed to set cookie %s: %w", c.Name, err)
			}
		}
		return nil
	})
}

var emptyMountPoint = regexp.MustCompile(`(?i)<div[^>]+id=["'](root|app|__next|__nuxt)["'][^>]*>\s*</div>`)

// needsJSRendering reports whether markup looks like a client-rendered
// shell that holds no listing text until scripts run.
func (cf *ContentFetcher) needsJSRendering(html string) bool {
	lowerHTML := strings.ToLower(html)

	if emptyMountPoint.MatchString(html) {
		return true
	}

	for _, marker := range []string{"ng-app", "data-reactroot", "v-app"} {
		if strings.Contains(lowerHTML, marker) {
			return true
		}
	}

	text, err := cf.processor.ToText(html, "", processor.TextModeFull)
	if err != nil {
		return false
	}
	text = strings.TrimSpace(text)

	// Check for minimal content with loading indicators
	if strings.Contains(strings.ToLower(text), "loading") && len(text) < 2000 {
		return true
	}

	// Check for heavy script usage
	scriptCount := strings.Count(lowerHTML, "<script")
	return scriptCount > 5 && len(text) < 1000
}
