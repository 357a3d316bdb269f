package browser

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document is a parsed HTML snapshot shared by both backends.
type Document struct {
	doc *goquery.Document
}

// NewDocument parses HTML from r.
func NewDocument(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Document{doc: doc}, nil
}

// QueryAll returns every match of selector in document order.
func (d *Document) QueryAll(selector string) []Element {
	sel := d.doc.Find(selector)
	elements := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, &node{sel: s})
	})
	return elements
}

// Query returns the first match of selector or ErrNoElement.
func (d *Document) Query(selector string) (Element, error) {
	sel := d.doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoElement, selector)
	}
	return &node{sel: sel}, nil
}

type node struct {
	sel *goquery.Selection
}

// Text approximates the rendered text of the element: script, style and
// hidden subtrees are dropped, block elements start new lines, and runs of
// whitespace collapse to one space.
func (n *node) Text() string {
	var b strings.Builder
	writeVisibleText(&b, n.sel)
	return normalizeLines(b.String())
}

// Elements whose content is never rendered as text.
var unrenderedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
	"iframe":   true,
	"svg":      true,
}

// Elements rendered as blocks, which break lines around their text.
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "details": true, "div": true, "dl": true, "dt": true,
	"fieldset": true, "figcaption": true, "figure": true, "footer": true,
	"form": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true,
	"h6": true, "header": true, "hr": true, "li": true, "main": true,
	"nav": true, "ol": true, "p": true, "pre": true, "section": true,
	"summary": true, "table": true, "tr": true, "ul": true,
}

func writeVisibleText(b *strings.Builder, sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, child *goquery.Selection) {
		name := goquery.NodeName(child)
		switch {
		case name == "#text":
			// Source line breaks are whitespace, not rendered breaks.
			b.WriteString(strings.Map(func(r rune) rune {
				if r == '\n' || r == '\r' || r == '\t' {
					return ' '
				}
				return r
			}, child.Text()))
		case strings.HasPrefix(name, "#"):
		case unrenderedElements[name], isHidden(child):
		case name == "br":
			b.WriteString("\n")
		case blockElements[name]:
			b.WriteString("\n")
			writeVisibleText(b, child)
			b.WriteString("\n")
		case name == "td" || name == "th":
			writeVisibleText(b, child)
			b.WriteString(" ")
		default:
			writeVisibleText(b, child)
		}
	})
}

func isHidden(sel *goquery.Selection) bool {
	if _, ok := sel.Attr("hidden"); ok {
		return true
	}
	style := strings.ToLower(strings.ReplaceAll(sel.AttrOr("style", ""), " ", ""))
	return strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden")
}

// normalizeLines collapses whitespace within each line and drops blank lines.
func normalizeLines(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func (n *node) Attr(name string) (string, bool) {
	return n.sel.Attr(name)
}
