package processor

import (
	"strings"
	"testing"
)

func TestToText_BlocksAndInline(t *testing.T) {
	page := `<!DOCTYPE html>
<html>
<head><title>Nekretnine</title><style>.x{color:red}</style></head>
<body>
  <nav><a href="/">Home</a> <a href="/stan">Stanovi</a></nav>
  <h1 class="title"><span>12.045</span>
     oglasa</h1>
  <script>var total = 999999;</script>
  <ul><li>3 sobe</li><li>Cena 150.000 EUR</li></ul>
  <p>Line one<br>line two</p>
</body>
</html>`

	cp := NewContentProcessor()
	text, err := cp.ToText(page, "https://example.com", TextModeFull)
	if err != nil {
		t.Fatalf("ToText failed: %v", err)
	}

	want := []string{
		"Home Stanovi",
		"12.045 oglasa",
		"3 sobe",
		"Cena 150.000 EUR",
		"Line one",
		"line two",
	}
	got := strings.Split(text, "\n")
	if len(got) != len(want) {
		t.Fatalf("expected %d lines, got %d:\n%s", len(want), len(got), text)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}

	if strings.Contains(text, "999999") {
		t.Error("script content leaked into text")
	}
	if strings.Contains(text, "Nekretnine") {
		t.Error("head content leaked into text")
	}
}

func TestToText_ReadabilityFallsBackToFullPage(t *testing.T) {
	page := `<html><body><div><span>500</span> listings</div></body></html>`

	cp := NewContentProcessor()
	text, err := cp.ToText(page, "", TextModeReadability)
	if err != nil {
		t.Fatalf("ToText failed: %v", err)
	}
	if !strings.Contains(text, "500 listings") {
		t.Errorf("expected text to contain '500 listings', got %q", text)
	}
}

func TestToTextFromReader(t *testing.T) {
	cp := NewContentProcessor()
	text, err := cp.ToTextFromReader(strings.NewReader("<p>Browse 500 listings today</p>"), "", TextModeFull)
	if err != nil {
		t.Fatalf("ToTextFromReader failed: %v", err)
	}
	if text != "Browse 500 listings today" {
		t.Errorf("unexpected text: %q", text)
	}
}

func TestCleanLines(t *testing.T) {
	in := "  a   b \r\n\r\n\tc\n\n  \n d  "
	if got := CleanLines(in); got != "a b\nc\nd" {
		t.Errorf("CleanLines = %q", got)
	}
}
