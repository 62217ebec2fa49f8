package counter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byteowlz/lstcnt/internal/extractor"
	"github.com/byteowlz/lstcnt/internal/fetcher"
	"github.com/byteowlz/lstcnt/internal/registry"
)

// mockFetcher serves canned pages keyed by URL and counts calls.
type mockFetcher struct {
	mu    sync.Mutex
	pages map[string]*fetcher.FetchResult
	errs  map[string]error
	delay map[string]time.Duration
	calls map[string]int
}

func newMockFetcher() *mockFetcher {
	return &mockFetcher{
		pages: map[string]*fetcher.FetchResult{},
		errs:  map[string]error{},
		delay: map[string]time.Duration{},
		calls: map[string]int{},
	}
}

func (m *mockFetcher) html(url, body string) *mockFetcher {
	m.pages[url] = &fetcher.FetchResult{URL: url, HTML: body}
	return m
}

func (m *mockFetcher) text(url, body string) *mockFetcher {
	m.pages[url] = &fetcher.FetchResult{URL: url, Text: body}
	return m
}

func (m *mockFetcher) Fetch(ctx context.Context, url string, opts fetcher.FetchOptions) (*fetcher.FetchResult, error) {
	m.mu.Lock()
	m.calls[url]++
	delay := m.delay[url]
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to fetch URL: %w", ctx.Err())
		}
	}
	if err := m.errs[url]; err != nil {
		return nil, err
	}
	if page, ok := m.pages[url]; ok {
		return page, nil
	}
	return nil, &fetcher.StatusError{Code: 404, Status: "404 Not Found"}
}

func (m *mockFetcher) callCount(url string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[url]
}

const (
	siteA = "https://a.example/"
	siteB = "https://b.example/"
	siteC = "https://c.example/"
)

func scenarioRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.New([]registry.Source{
		{URL: siteA, Label: "A", Strategy: extractor.Selector("span.count", "")},
		{URL: siteB, Label: "B", Strategy: extractor.Unsupported()},
		{URL: siteC, Label: "C", Strategy: extractor.KeywordProximity("listings")},
	}, nil)
	require.NoError(t, err)
	return reg
}

func TestRun_Scenario(t *testing.T) {
	f := newMockFetcher().
		html(siteA, "<html><body><span class='count'>1.234</span></body></html>").
		text(siteC, "Browse 500 listings today")

	rs := New(f, scenarioRegistry(t)).RunRegistry(context.Background())
	require.Equal(t, 3, rs.Len())

	a, ok := rs.Get(siteA)
	require.True(t, ok)
	assert.Equal(t, extractor.Count(1234), a)

	b, ok := rs.Get("b.example")
	require.True(t, ok)
	assert.Equal(t, extractor.Errorf("requires dynamic rendering"), b)

	c, ok := rs.Get(siteC)
	require.True(t, ok)
	assert.Equal(t, extractor.Count(500), c)

	entries := rs.Entries()
	assert.Equal(t, "A", entries[0].Source.Label)
	assert.Equal(t, "B", entries[1].Source.Label)
	assert.Equal(t, "C", entries[2].Source.Label)
	assert.Equal(t, StateExtracted, entries[0].State)
	assert.Equal(t, StateSkipped, entries[1].State)

	assert.Equal(t, Summary{Sources: 3, Counted: 2, Errors: 1, Skipped: 1, Total: 1734}, rs.Summary())
}

func TestRun_UnsupportedNeverFetches(t *testing.T) {
	f := newMockFetcher()
	rs := New(f, scenarioRegistry(t)).Run(context.Background(), []registry.Source{
		{URL: siteB, Strategy: extractor.Unsupported()},
		{URL: siteB + "other", Strategy: extractor.Unsupported()},
	})

	assert.Equal(t, 0, f.callCount(siteB))
	assert.Equal(t, 0, f.callCount(siteB+"other"))
	for _, e := range rs.Entries() {
		assert.Equal(t, extractor.Errorf(extractor.MsgDynamicRendering), e.Result)
	}
}

func TestRun_FailureIsolation(t *testing.T) {
	f := newMockFetcher().
		html(siteA, "<span class='count'>1.234</span>").
		text(siteC, "Browse 500 listings today")
	f.errs[siteB] = errors.New("dial tcp: connection refused")

	sources := []registry.Source{
		{URL: siteA, Strategy: extractor.Selector("span.count", "")},
		{URL: siteB, Strategy: extractor.KeywordProximity("listings")},
		{URL: siteC, Strategy: extractor.KeywordProximity("listings")},
	}
	entries := New(f, nil).Run(context.Background(), sources).Entries()
	require.Len(t, entries, 3)

	assert.Equal(t, extractor.Count(1234), entries[0].Result)
	assert.Equal(t, extractor.ResultError, entries[1].Result.Kind)
	assert.Contains(t, entries[1].Result.Message, "fetch failed: dial tcp: connection refused")
	assert.Equal(t, StateFetchFailed, entries[1].State)
	assert.Equal(t, extractor.Count(500), entries[2].Result)
}

func TestRun_StatusErrorAndNotFound(t *testing.T) {
	f := newMockFetcher().html(siteA, "<p>no counter here</p>")
	entries := New(f, nil).Run(context.Background(), []registry.Source{
		{URL: siteA, Strategy: extractor.Selector("span.count", "")},
		{URL: "https://missing.example/", Strategy: extractor.Selector("span.count", "")},
	}).Entries()

	assert.Equal(t, extractor.NotFound(), entries[0].Result)
	assert.Equal(t, extractor.Errorf("fetch failed: HTTP error: 404 Not Found"), entries[1].Result)
}

func TestRun_Timeout(t *testing.T) {
	f := newMockFetcher().text(siteA, "500 listings").text(siteC, "700 listings")
	f.delay[siteA] = time.Second

	sources := []registry.Source{
		{URL: siteA, Strategy: extractor.KeywordProximity("listings")},
		{URL: siteC, Strategy: extractor.KeywordProximity("listings")},
	}
	entries := New(f, nil, WithTimeout(20*time.Millisecond)).Run(context.Background(), sources).Entries()

	assert.Equal(t, extractor.Errorf("timeout after 20ms"), entries[0].Result)
	assert.Equal(t, extractor.Count(700), entries[1].Result)
}

func TestRun_CanceledContext(t *testing.T) {
	f := newMockFetcher().text(siteA, "500 listings")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rs := New(f, nil).Run(ctx, []registry.Source{{URL: siteA, Strategy: extractor.KeywordProximity("listings")}})
	r, _ := rs.Get(siteA)
	assert.Equal(t, extractor.Errorf("canceled"), r)
	assert.Equal(t, 0, f.callCount(siteA))
}

func TestRun_ResolvesUnsetStrategy(t *testing.T) {
	f := newMockFetcher().html("https://www.a.example", "<span class='count'>42.000</span>").text("https://unknown.example/", "Pronađeno 9.876 oglasa")

	entries := New(f, scenarioRegistry(t)).Run(context.Background(), []registry.Source{
		{URL: "https://www.a.example"},
		{URL: "https://unknown.example/"},
	}).Entries()

	assert.Equal(t, extractor.Count(42000), entries[0].Result)
	assert.Equal(t, extractor.StrategySelector, entries[0].Source.Strategy.Kind)
	assert.Equal(t, extractor.Count(9876), entries[1].Result)
	assert.Equal(t, extractor.StrategyKeywords, entries[1].Source.Strategy.Kind)
}

func TestRun_ConcurrentKeepsOrder(t *testing.T) {
	f := newMockFetcher()
	var sources []registry.Source
	for i := 0; i < 8; i++ {
		url := fmt.Sprintf("https://site%d.example/", i)
		f.text(url, fmt.Sprintf("%d listings", 1000+i))
		// Earlier sources finish last.
		f.delay[url] = time.Duration(8-i) * 5 * time.Millisecond
		sources = append(sources, registry.Source{URL: url, Strategy: extractor.KeywordProximity("listings")})
	}

	var progressCalls atomic.Int32
	rs := New(f, nil,
		WithConcurrency(4),
		WithProgress(func(done, total int, e Entry) {
			progressCalls.Add(1)
			assert.Equal(t, 8, total)
		}),
	).Run(context.Background(), sources)

	entries := rs.Entries()
	require.Len(t, entries, 8)
	for i, e := range entries {
		assert.Equal(t, sources[i].URL, e.Source.URL)
		assert.Equal(t, extractor.Count(int64(1000+i)), e.Result)
	}
	assert.Equal(t, int32(8), progressCalls.Load())
}

type panickingFetcher struct{}

func (panickingFetcher) Fetch(ctx context.Context, url string, opts fetcher.FetchOptions) (*fetcher.FetchResult, error) {
	panic("boom")
}

func TestRun_PanicIsContained(t *testing.T) {
	entries := New(panickingFetcher{}, nil).Run(context.Background(), []registry.Source{
		{URL: siteA, Strategy: extractor.KeywordProximity("listings")},
		{URL: siteB, Strategy: extractor.Unsupported()},
	}).Entries()

	require.Len(t, entries, 2)
	assert.Equal(t, extractor.Errorf("internal error: boom"), entries[0].Result)
	assert.Equal(t, extractor.Errorf(extractor.MsgDynamicRendering), entries[1].Result)
}

func TestRunRegistry_NilRegistry(t *testing.T) {
	rs := New(newMockFetcher(), nil).RunRegistry(context.Background())
	assert.Equal(t, 0, rs.Len())
}

func TestResultSet_EntriesIsACopy(t *testing.T) {
	f := newMockFetcher().text(siteA, "500 listings")
	rs := New(f, nil).Run(context.Background(), []registry.Source{{URL: siteA, Strategy: extractor.KeywordProximity("listings")}})

	entries := rs.Entries()
	entries[0].Result = extractor.NotFound()

	r, _ := rs.Get(siteA)
	assert.Equal(t, extractor.Count(500), r)

	_, ok := rs.Get("https://nowhere.example")
	assert.False(t, ok)
}
