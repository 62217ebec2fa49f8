package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byteowlz/lstcnt/internal/extractor"
)

func testSources() []Source {
	return []Source{
		{URL: "https://www.njuskalo.hr/nekretnine", Label: "Njuškalo", Strategy: extractor.Selector("span.page-title-num-adverts", "")},
		{URL: "https://www.nekretnine.rs/", Strategy: extractor.Selector("h1", "oglasa")},
		{URL: "https://www.4zida.rs/", Strategy: extractor.Unsupported()},
		{URL: "https://www.nekretnine.ba/", Strategy: extractor.KeywordProximity("nekretnine", "oglasa")},
		{URL: "https://homes.bg/"},
	}
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://www.nekretnine.rs/", "nekretnine.rs"},
		{"http://NEKRETNINE.rs", "nekretnine.rs"},
		{"nekretnine.rs", "nekretnine.rs"},
		{"www.njuskalo.hr/nekretnine/", "njuskalo.hr/nekretnine"},
		{"https://www.njuskalo.hr/nekretnine?page=2#top", "njuskalo.hr/nekretnine"},
		{"https://imot.bg:8443/", "imot.bg:8443"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Canonical(tt.in), "Canonical(%q)", tt.in)
	}
}

func TestNew_KeepsOrder(t *testing.T) {
	r, err := New(testSources(), nil)
	require.NoError(t, err)

	sources := r.Sources()
	require.Len(t, sources, 5)
	assert.Equal(t, 5, r.Len())
	assert.Equal(t, "https://www.njuskalo.hr/nekretnine", sources[0].URL)
	assert.Equal(t, "https://homes.bg/", sources[4].URL)

	// Entries without a strategy get the default keyword strategy.
	assert.True(t, sources[4].Strategy.Equal(extractor.KeywordProximity(DefaultKeywords...)))
}

func TestNew_SourcesIsACopy(t *testing.T) {
	r, err := New(testSources(), nil)
	require.NoError(t, err)

	sources := r.Sources()
	sources[0].Label = "changed"
	sources[3].Strategy.Keywords[0] = "changed"

	again := r.Sources()
	assert.Equal(t, "Njuškalo", again[0].Label)
	assert.Equal(t, "nekretnine", again[3].Strategy.Keywords[0])
}

func TestResolve(t *testing.T) {
	r, err := New(testSources(), []string{"listings"})
	require.NoError(t, err)

	tests := []struct {
		name string
		id   string
		want extractor.Strategy
	}{
		{"exact url", "https://www.njuskalo.hr/nekretnine", extractor.Selector("span.page-title-num-adverts", "")},
		{"bare domain", "nekretnine.rs", extractor.Selector("h1", "oglasa")},
		{"path under an entry", "https://www.njuskalo.hr/nekretnine/prodaja-stanova", extractor.Selector("span.page-title-num-adverts", "")},
		{"bare domain of a path entry", "njuskalo.hr", extractor.Selector("span.page-title-num-adverts", "")},
		{"sibling path on a known host", "https://www.njuskalo.hr/auti", extractor.KeywordProximity("listings")},
		{"path prefix is not a segment", "https://www.njuskalo.hr/nekretnine-novogradnja", extractor.KeywordProximity("listings")},
		{"deeper path under a root entry", "https://nekretnine.rs/stanovi/beograd", extractor.Selector("h1", "oglasa")},
		{"unsupported", "4zida.rs", extractor.Unsupported()},
		{"keywords", "https://nekretnine.ba", extractor.KeywordProximity("nekretnine", "oglasa")},
		{"entry without strategy", "homes.bg", extractor.KeywordProximity("listings")},
		{"unknown site", "https://www.example.com/listings", extractor.KeywordProximity("listings")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(tt.id)
			assert.True(t, got.Equal(tt.want), "Resolve(%q) = %v, want %v", tt.id, got, tt.want)
		})
	}
}

func TestSource_AdHoc(t *testing.T) {
	r, err := New(testSources(), nil)
	require.NoError(t, err)

	known := r.Source(" https://njuskalo.hr/nekretnine ")
	assert.Equal(t, "https://njuskalo.hr/nekretnine", known.URL)
	assert.Equal(t, "Njuškalo", known.Label)
	assert.Equal(t, extractor.StrategySelector, known.Strategy.Kind)

	sibling := r.Source("https://www.njuskalo.hr/auti")
	assert.Empty(t, sibling.Label)
	assert.Equal(t, extractor.KeywordProximity(DefaultKeywords...), sibling.Strategy)

	unknown := r.Source("https://example.com")
	assert.Empty(t, unknown.Label)
	assert.Equal(t, extractor.StrategyKeywords, unknown.Strategy.Kind)
	assert.Equal(t, "https://example.com", unknown.Name())
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		sources []Source
		errMsg  string
	}{
		{"missing url", []Source{{URL: " "}}, "missing url"},
		{"bad scheme", []Source{{URL: "ftp://example.com"}}, "unsupported url scheme"},
		{"invalid selector", []Source{{URL: "https://a.com", Strategy: extractor.Selector("div[", "")}}, "invalid selector"},
		{"empty selector", []Source{{URL: "https://a.com", Strategy: extractor.Selector("", "")}}, "empty selector"},
		{"keywords without words", []Source{{URL: "https://a.com", Strategy: extractor.KeywordProximity()}}, "without keywords"},
		{"duplicate", []Source{{URL: "https://a.com/"}, {URL: "http://www.a.com"}}, "duplicates site 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.sources, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestDefaultKeywords_Copied(t *testing.T) {
	kws := []string{"listings"}
	r, err := New(nil, kws)
	require.NoError(t, err)

	kws[0] = "changed"
	assert.Equal(t, []string{"listings"}, r.DefaultKeywords())
}
