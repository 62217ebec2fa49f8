package extractor

import (
	"github.com/byteowlz/lstcnt/internal/processor"
)

// DefaultMinDigits is the smallest number of significant digits a keyword
// candidate needs. Smaller numbers are mostly room counts, ratings and
// page links.
const DefaultMinDigits = 3

// Document is a fetched page. HTML is empty for text-only fetch backends;
// Text is empty unless the backend already rendered the page to text.
type Document struct {
	URL  string
	HTML string
	Text string
}

// Engine runs extraction strategies against fetched documents. It holds no
// per-call state and is safe for concurrent use.
type Engine struct {
	minDigits int
	textMode  processor.TextMode
	processor *processor.ContentProcessor
}

type Option func(*Engine)

// WithMinDigits overrides DefaultMinDigits. Values below 1 are ignored.
func WithMinDigits(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.minDigits = n
		}
	}
}

// WithTextMode selects how markup is turned into text for keyword scans.
func WithTextMode(mode processor.TextMode) Option {
	return func(e *Engine) {
		if mode != "" {
			e.textMode = mode
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		minDigits: DefaultMinDigits,
		textMode:  processor.TextModeFull,
		processor: processor.NewContentProcessor(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) MinDigits() int {
	return e.minDigits
}

// Extract dispatches doc to the extractor named by s.
func (e *Engine) Extract(doc Document, s Strategy) Result {
	switch s.Kind {
	case StrategySelector:
		return e.ExtractBySelector(doc, s.Locator, s.TextFilter)
	case StrategyKeywords:
		text, err := e.documentText(doc)
		if err != nil {
			return Errorf("%v", err)
		}
		return e.ExtractByKeywords(text, s.Keywords)
	case StrategyUnsupported:
		return Errorf(MsgDynamicRendering)
	default:
		return Errorf("no extraction strategy")
	}
}

func (e *Engine) documentText(doc Document) (string, error) {
	if doc.Text != "" {
		return processor.CleanLines(doc.Text), nil
	}
	return e.processor.ToText(doc.HTML, doc.URL, e.textMode)
}
