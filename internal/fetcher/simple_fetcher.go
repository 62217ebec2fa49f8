package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultMaxBodyBytes caps how much of a response is read.
const DefaultMaxBodyBytes = 8 << 20

type SimpleFetcher struct {
	client          *http.Client
	userAgentSelect *UserAgentSelector
	maxBodyBytes    int64
	noFollow        bool
	maxRedirects    int
}

func NewSimpleFetcher() *SimpleFetcher {
	return &SimpleFetcher{
		client: &http.Client{
			// Per-request deadlines come from the caller's context.
			Timeout: 2 * time.Minute,
		},
		userAgentSelect: NewUserAgentSelector(),
		maxBodyBytes:    DefaultMaxBodyBytes,
	}
}

// SetFollowRedirects controls whether 3xx responses are followed. When
// disabled the redirect response itself is returned, whatever the
// redirect limit.
func (sf *SimpleFetcher) SetFollowRedirects(follow bool) {
	sf.noFollow = !follow
	sf.applyRedirectPolicy()
}

// SetMaxRedirects limits the redirect chain length while redirects are
// followed.
func (sf *SimpleFetcher) SetMaxRedirects(n int) {
	if n <= 0 {
		return
	}
	sf.maxRedirects = n
	sf.applyRedirectPolicy()
}

func (sf *SimpleFetcher) applyRedirectPolicy() {
	switch {
	case sf.noFollow:
		sf.client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	case sf.maxRedirects > 0:
		n := sf.maxRedirects
		sf.client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= n {
				return fmt.Errorf("stopped after %d redirects", n)
			}
			return nil
		}
	default:
		sf.client.CheckRedirect = nil
	}
}

func (sf *SimpleFetcher) SetMaxBodyBytes(n int64) {
	if n > 0 {
		sf.maxBodyBytes = n
	}
}

func (sf *SimpleFetcher) Fetch(ctx context.Context, url string, opts FetchOptions) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set user agent (custom takes precedence, then browser agent, then random)
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = sf.userAgentSelect.GetUserAgent(opts.BrowserAgent)
	}
	req.Header.Set("User-Agent", userAgent)

	acceptLanguage := opts.AcceptLanguage
	if acceptLanguage == "" {
		acceptLanguage = "en-US,en;q=0.9"
	}

	// Add headers that make the request look more like a real browser
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", acceptLanguage)
	// Don't set Accept-Encoding - let Go's http client handle compression automatically
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	req.Header.Set("Sec-Fetch-User", "?1")

	for _, cookie := range opts.Cookies {
		req.AddCookie(cookie)
	}

	resp, err := sf.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, sf.maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &FetchResult{
		URL:        url,
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		HTML:       string(body),
		UsedJS:     false,
	}, nil
}
