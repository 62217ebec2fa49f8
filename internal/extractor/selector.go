package extractor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/byteowlz/lstcnt/internal/numeric"
)

// CompileLocator parses a CSS selector group. The registry calls it at
// startup so typos surface before any page is fetched.
func CompileLocator(locator string) (cascadia.SelectorGroup, error) {
	if strings.TrimSpace(locator) == "" {
		return nil, fmt.Errorf("empty selector")
	}
	group, err := cascadia.ParseGroup(locator)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", locator, err)
	}
	return group, nil
}

// ExtractBySelector reads the first element matching locator (and, when
// textFilter is set, containing textFilter) and normalizes the number in
// its text. A missing element or a number-free element is NotFound.
func (e *Engine) ExtractBySelector(doc Document, locator, textFilter string) Result {
	if strings.TrimSpace(doc.HTML) == "" {
		return Errorf("document has no markup")
	}

	matcher, err := CompileLocator(locator)
	if err != nil {
		return Errorf("%v", err)
	}

	root, err := goquery.NewDocumentFromReader(strings.NewReader(doc.HTML))
	if err != nil {
		return Errorf("failed to parse HTML: %v", err)
	}

	matches := root.FindMatcher(matcher)
	if textFilter != "" {
		matches = matches.FilterFunction(func(_ int, s *goquery.Selection) bool {
			return strings.Contains(s.Text(), textFilter)
		})
	}
	if matches.Length() == 0 {
		return NotFound()
	}

	text := strings.Join(strings.Fields(matches.First().Text()), " ")
	if n, ok := numeric.Normalize(text); ok {
		return Count(n)
	}
	return NotFound()
}
