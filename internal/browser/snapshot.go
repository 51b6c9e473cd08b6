// File: internal/browser/snapshot.go
package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	xhtml "golang.org/x/net/html"

	"github.com/seekwell-dev/seekwell/api/schemas"
)

// Caps keeping snapshots inside a single LLM context window.
const (
	maxSnapshotChars = 60000
	maxNodeTextChars = 120
)

// Snapshot serializes the current page into the condensed form consumed by
// binding discovery and repair.
func (d *ChromeDriver) Snapshot(ctx context.Context) (schemas.DOMSnapshot, error) {
	var url, title, html string
	err := d.run(ctx,
		chromedp.Location(&url),
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return schemas.DOMSnapshot{}, fmt.Errorf("page serialization failed: %w", err)
	}
	return CondenseHTML(url, title, html)
}

// CondenseHTML reduces a full HTML document to an indented structural outline:
// one line per element carrying its tag, id, leading classes, link target and
// own text. Non-content subtrees are stripped and the output is capped so a
// pathological page cannot blow the model's context.
func CondenseHTML(url, title, html string) (schemas.DOMSnapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return schemas.DOMSnapshot{}, fmt.Errorf("failed to parse page HTML: %w", err)
	}
	doc.Find("script, style, noscript, svg, iframe, link, meta, template").Remove()

	var b strings.Builder
	count := 0
	truncated := false

	var walk func(sel *goquery.Selection, depth int)
	walk = func(sel *goquery.Selection, depth int) {
		sel.Each(func(_ int, s *goquery.Selection) {
			node := s.Get(0)
			if node == nil || node.Type != xhtml.ElementNode {
				return
			}
			if b.Len() >= maxSnapshotChars {
				truncated = true
				return
			}
			count++
			if line := describeNode(s, node); line != "" {
				b.WriteString(strings.Repeat("  ", depth))
				b.WriteString(line)
				b.WriteByte('\n')
			}
			walk(s.Children(), depth+1)
		})
	}

	body := doc.Find("body")
	if body.Length() == 0 {
		walk(doc.Selection.Children(), 0)
	} else {
		walk(body.Children(), 0)
	}
	if truncated {
		b.WriteString("... [truncated]\n")
	}

	return schemas.DOMSnapshot{
		URL:          url,
		Title:        strings.TrimSpace(title),
		Text:         b.String(),
		ElementCount: count,
	}, nil
}

// describeNode renders one element as a selector-ish line, e.g.
// <li.job-card.clickable href=/jobs/123> Senior Gopher
func describeNode(s *goquery.Selection, node *xhtml.Node) string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(node.Data)

	if id, ok := s.Attr("id"); ok && id != "" {
		b.WriteByte('#')
		b.WriteString(id)
	}
	if class, ok := s.Attr("class"); ok && class != "" {
		classes := strings.Fields(class)
		if len(classes) > 3 {
			classes = classes[:3]
		}
		for _, c := range classes {
			b.WriteByte('.')
			b.WriteString(c)
		}
	}
	for _, attr := range []string{"href", "data-id", "data-item-id", "name", "placeholder", "aria-label", "role", "type"} {
		if v, ok := s.Attr(attr); ok && v != "" {
			fmt.Fprintf(&b, " %s=%s", attr, clampText(v, 60))
		}
	}
	b.WriteByte('>')

	if text := ownText(node); text != "" {
		b.WriteByte(' ')
		b.WriteString(clampText(text, maxNodeTextChars))
	}
	return b.String()
}

// ownText collects the element's direct text children, not its descendants'.
func ownText(node *xhtml.Node) string {
	var parts []string
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xhtml.TextNode {
			if t := strings.TrimSpace(c.Data); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, " ")
}

func clampText(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
