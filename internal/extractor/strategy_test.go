package extractor

import "testing"

func TestStrategyEqual(t *testing.T) {
	tests := []struct {
		a, b Strategy
		want bool
	}{
		{Selector("h1", "oglasa"), Selector("h1", "oglasa"), true},
		{Selector("h1", "oglasa"), Selector("h1", ""), false},
		{KeywordProximity("a", "b"), KeywordProximity("a", "b"), true},
		{KeywordProximity("a", "b"), KeywordProximity("b", "a"), false},
		{Unsupported(), Unsupported(), true},
		{Unsupported(), Selector("h1", ""), false},
		{Strategy{}, Strategy{}, true},
	}
	for _, tt := range tests {
		if got := tt.a.Equal(tt.b); got != tt.want {
			t.Errorf("%v.Equal(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestKeywordProximity_CopiesInput(t *testing.T) {
	kws := []string{"listings"}
	s := KeywordProximity(kws...)
	kws[0] = "changed"
	if s.Keywords[0] != "listings" {
		t.Errorf("strategy shares caller slice: %v", s.Keywords)
	}
}

func TestResultString(t *testing.T) {
	tests := []struct {
		r    Result
		want string
	}{
		{Count(1234), "1234"},
		{NotFound(), "not found"},
		{Errorf("fetch failed: %s", "boom"), "error: fetch failed: boom"},
		{Result{}, "pending"},
	}
	for _, tt := range tests {
		if got := tt.r.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
