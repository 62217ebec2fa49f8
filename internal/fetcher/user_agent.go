package fetcher

import (
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"
)

type UserAgentType string

const (
	UserAgentAuto    UserAgentType = "auto"
	UserAgentChrome  UserAgentType = "chrome"
	UserAgentFirefox UserAgentType = "firefox"
	UserAgentSafari  UserAgentType = "safari"
	UserAgentEdge    UserAgentType = "edge"
)

var userAgents = map[UserAgentType][]string{
	UserAgentChrome: {
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	},
	UserAgentFirefox: {
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:133.0) Gecko/20100101 Firefox/133.0",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 14.5; rv:133.0) Gecko/20100101 Firefox/133.0",
		"Mozilla/5.0 (X11; Linux x86_64; rv:133.0) Gecko/20100101 Firefox/133.0",
	},
	UserAgentSafari: {
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_5) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
	},
	UserAgentEdge: {
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36 Edg/131.0.0.0",
	},
}

// UserAgentSelector picks user agent strings. It is safe for concurrent use.
type UserAgentSelector struct {
	mu  sync.Mutex
	rng *rand.Rand
	all []string
}

func NewUserAgentSelector() *UserAgentSelector {
	types := make([]string, 0, len(userAgents))
	for t := range userAgents {
		types = append(types, string(t))
	}
	// Map order is random; keep the pool stable so seeded runs repeat.
	sort.Strings(types)

	var all []string
	for _, t := range types {
		all = append(all, userAgents[UserAgentType(t)]...)
	}

	return &UserAgentSelector{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		all: all,
	}
}

// GetUserAgent returns a user agent for uaType. "auto" or empty picks from
// every browser, a known browser name picks from that browser, and any
// other value is returned as-is so callers can pass a literal string.
func (uas *UserAgentSelector) GetUserAgent(uaType string) string {
	normalized := strings.ToLower(strings.TrimSpace(uaType))
	if normalized == "" {
		normalized = string(UserAgentAuto)
	}

	switch UserAgentType(normalized) {
	case UserAgentAuto:
		return uas.pick(uas.all)
	case UserAgentChrome, UserAgentFirefox, UserAgentSafari, UserAgentEdge:
		return uas.pick(userAgents[UserAgentType(normalized)])
	default:
		return strings.TrimSpace(uaType)
	}
}

func (uas *UserAgentSelector) pick(pool []string) string {
	if len(pool) == 0 {
		pool = uas.all
	}
	uas.mu.Lock()
	defer uas.mu.Unlock()
	return pool[uas.rng.Intn(len(pool))]
}
