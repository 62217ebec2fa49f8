package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/all" // Import all browser support
)

type BrowserType string

const (
	BrowserAuto    BrowserType = "auto"
	BrowserChrome  BrowserType = "chrome"
	BrowserFirefox BrowserType = "firefox"
	BrowserSafari  BrowserType = "safari"
	BrowserZen     BrowserType = "zen"
)

// CookieExtractor reads cookies from local browser profiles so portals
// behind consent walls serve the same page a logged-in visitor sees.
type CookieExtractor struct {
	browserType BrowserType
	domains     []string
	exclude     []string
}

// NewCookieExtractor limits extraction to hosts matching one of domains
// ("*" matches every host) and none of exclude.
func NewCookieExtractor(browserType BrowserType, domains, exclude []string) *CookieExtractor {
	if browserType == "" {
		browserType = BrowserAuto
	}
	return &CookieExtractor{
		browserType: browserType,
		domains:     domains,
		exclude:     exclude,
	}
}

// Cookies returns the cookies stored for rawURL's host.
func (ce *CookieExtractor) Cookies(ctx context.Context, rawURL string) ([]*http.Cookie, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	host := parsedURL.Hostname()
	if !ce.Allowed(host) {
		return nil, nil
	}

	var cookies []*http.Cookie
	for cookie, err := range kooky.TraverseCookies(ctx, kooky.Valid) {
		if err != nil {
			continue
		}
		if !ce.matchesBrowserType(cookie.Browser) || !matchesDomain(cookie.Domain, host) {
			continue
		}
		cookies = append(cookies, &http.Cookie{
			Name:     cookie.Name,
			Value:    cookie.Value,
			Path:     cookie.Path,
			Domain:   cookie.Domain,
			Expires:  cookie.Expires,
			Secure:   cookie.Secure,
			HttpOnly: cookie.HttpOnly,
		})
	}

	return cookies, nil
}

// Allowed reports whether cookies may be injected for host.
func (ce *CookieExtractor) Allowed(host string) bool {
	for _, pattern := range ce.exclude {
		if matchesPattern(pattern, host) {
			return false
		}
	}
	for _, pattern := range ce.domains {
		if matchesPattern(pattern, host) {
			return true
		}
	}
	return false
}

func (ce *CookieExtractor) matchesBrowserType(browser kooky.BrowserInfo) bool {
	if ce.browserType == BrowserAuto || browser == nil {
		return ce.browserType == BrowserAuto
	}

	browserName := strings.ToLower(browser.Browser())
	switch ce.browserType {
	case BrowserChrome:
		return strings.Contains(browserName, "chrome") || strings.Contains(browserName, "chromium")
	case BrowserFirefox:
		return strings.Contains(browserName, "firefox")
	case BrowserSafari:
		return strings.Contains(browserName, "safari")
	case BrowserZen:
		return strings.Contains(browserName, "zen") ||
			(strings.Contains(browserName, "firefox") && strings.Contains(browser.FilePath(), "zen"))
	}

	return false
}

func matchesPattern(pattern, host string) bool {
	pattern = strings.TrimSpace(strings.ToLower(pattern))
	if pattern == "*" {
		return true
	}
	return matchesDomain(strings.TrimPrefix(pattern, "*."), strings.ToLower(host))
}

func matchesDomain(cookieDomain, targetDomain string) bool {
	if cookieDomain == "" || targetDomain == "" {
		return false
	}

	cookieDomain = strings.TrimPrefix(cookieDomain, ".")

	if cookieDomain == targetDomain {
		return true
	}

	// Subdomain match
	return strings.HasSuffix(targetDomain, "."+cookieDomain)
}
