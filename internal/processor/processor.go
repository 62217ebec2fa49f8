package processor

import (
	"fmt"
	"io"
	nurl "net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type TextMode string

const (
	// TextModeFull renders every visible text node of the page.
	TextModeFull TextMode = "full"
	// TextModeReadability renders only the main content detected by readability.
	TextModeReadability TextMode = "readability"
)

// Elements whose boundaries start a new text block.
var blockTags = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true,
	atom.Fieldset: true, atom.Figcaption: true, atom.Figure: true, atom.Footer: true,
	atom.Form: true, atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true, atom.Header: true,
	atom.Hr: true, atom.Li: true, atom.Main: true, atom.Nav: true,
	atom.Ol: true, atom.Option: true, atom.P: true, atom.Pre: true,
	atom.Section: true, atom.Table: true, atom.Td: true, atom.Th: true,
	atom.Tr: true, atom.Ul: true, atom.Button: true, atom.Label: true,
}

// Elements that never contribute visible text.
var skipTags = map[atom.Atom]bool{
	atom.Head: true, atom.Script: true, atom.Style: true, atom.Noscript: true,
	atom.Template: true, atom.Svg: true, atom.Iframe: true, atom.Object: true,
}

var whitespaceRun = regexp.MustCompile(`\s+`)

type ContentProcessor struct {
}

func NewContentProcessor() *ContentProcessor {
	return &ContentProcessor{}
}

// ToText renders markup as plain text with one line per block-level element.
// Inline elements stay on the line of their enclosing block, so
// "<h1><span>1.234</span> oglasa</h1>" becomes the single line "1.234 oglasa".
func (cp *ContentProcessor) ToText(markup, pageURL string, mode TextMode) (string, error) {
	if mode == TextModeReadability {
		text, err := cp.readabilityText(markup, pageURL)
		if err == nil && text != "" {
			return text, nil
		}
		// Listing pages rarely look like articles; fall back to the whole page.
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	return cp.renderSelection(doc.Selection), nil
}

// ToTextFromReader is ToText for a streamed body.
func (cp *ContentProcessor) ToTextFromReader(r io.Reader, pageURL string, mode TextMode) (string, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read HTML: %w", err)
	}
	return cp.ToText(string(body), pageURL, mode)
}

func (cp *ContentProcessor) readabilityText(markup, pageURL string) (string, error) {
	var u *nurl.URL
	if pageURL != "" {
		if parsed, err := nurl.Parse(pageURL); err == nil {
			u = parsed
		}
	}

	article, err := readability.FromReader(strings.NewReader(markup), u)
	if err != nil {
		return "", fmt.Errorf("failed to process with readability: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return "", fmt.Errorf("failed to parse readability content: %w", err)
	}
	return cp.renderSelection(doc.Selection), nil
}

func (cp *ContentProcessor) renderSelection(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		cp.renderNode(&b, n)
	}
	return CleanLines(b.String())
}

func (cp *ContentProcessor) renderNode(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(whitespaceRun.ReplaceAllString(n.Data, " "))
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		if skipTags[n.DataAtom] {
			return
		}
		if n.DataAtom == atom.Br {
			b.WriteByte('\n')
			return
		}
		if blockTags[n.DataAtom] {
			b.WriteByte('\n')
			defer b.WriteByte('\n')
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		cp.renderNode(b, c)
	}
}

// CleanLines collapses whitespace inside each line and drops empty lines.
func CleanLines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	cleaned := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
