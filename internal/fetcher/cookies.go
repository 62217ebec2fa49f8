package fetcher

import (
	"context"
	"net/http"
)

// CookieSource supplies cookies to send with a request for rawURL.
type CookieSource interface {
	Cookies(ctx context.Context, rawURL string) ([]*http.Cookie, error)
}

type cookieFetcher struct {
	next    Fetcher
	cookies CookieSource
}

// WithCookies wraps next so every request carries the cookies src holds for
// the target URL. Cookie lookup failures are not fatal; the page is fetched
// without cookies.
func WithCookies(next Fetcher, src CookieSource) Fetcher {
	if src == nil {
		return next
	}
	return &cookieFetcher{next: next, cookies: src}
}

func (cf *cookieFetcher) Fetch(ctx context.Context, url string, opts FetchOptions) (*FetchResult, error) {
	if len(opts.Cookies) == 0 {
		if cookies, err := cf.cookies.Cookies(ctx, url); err == nil {
			opts.Cookies = cookies
		}
	}
	return cf.next.Fetch(ctx, url, opts)
}
