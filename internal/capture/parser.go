package capture

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode/utf16"

	"github.com/PuerkitoBio/goquery"
	"github.com/nao1215/phishscan/internal/model"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// hiddenElements never contribute visible text.
var hiddenElements = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Iframe:   true,
	atom.Object:   true,
	atom.Svg:      true,
	atom.Canvas:   true,
}

// blockElements start a new line of visible text.
var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true,
	atom.Blockquote: true, atom.Br: true, atom.Dd: true, atom.Div: true,
	atom.Dl: true, atom.Dt: true, atom.Fieldset: true, atom.Figcaption: true,
	atom.Figure: true, atom.Footer: true, atom.Form: true, atom.H1: true,
	atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Header: true, atom.Hr: true, atom.Li: true, atom.Main: true,
	atom.Nav: true, atom.Ol: true, atom.P: true, atom.Pre: true,
	atom.Section: true, atom.Table: true, atom.Tr: true, atom.Ul: true,
	atom.Option: true, atom.Label: true, atom.Button: true,
}

// Parse builds a snapshot from an HTML document served at pageURL.
// Relative favicon and anchor targets are resolved against pageURL, or
// against the document's <base href> when it declares one.
//
// Visible text and markup are cut to model.MaxContentLength UTF-16 code units.
func Parse(pageURL string, body io.Reader) (model.Snapshot, error) {
	u, err := parsePageURL(pageURL)
	if err != nil {
		return model.Snapshot{}, err
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}

	base := documentBase(doc, u)

	markup, err := goquery.OuterHtml(doc.Find("html").First())
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}

	snap := model.Snapshot{
		URL:         u.String(),
		Hostname:    u.Hostname(),
		DOMText:     truncate(visibleText(doc), model.MaxContentLength),
		HTMLContent: truncate(markup, model.MaxContentLength),
		Title:       documentTitle(doc),
		Favicon:     favicon(doc, base),
		Links:       links(doc, base),
	}
	return snap.Normalize(), nil
}

// documentBase returns the URL relative references are resolved against.
func documentBase(doc *goquery.Document, pageURL *url.URL) *url.URL {
	href, ok := doc.Find("base[href]").First().Attr("href")
	if !ok {
		return pageURL
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return pageURL
	}
	return pageURL.ResolveReference(ref)
}

// documentTitle returns the title with whitespace collapsed, the way
// document.title reports it.
func documentTitle(doc *goquery.Document) string {
	return strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")
}

// favicon returns the resolved href of the first icon link, or "".
func favicon(doc *goquery.Document, base *url.URL) string {
	href, ok := doc.Find(`link[rel~="icon"]`).First().Attr("href")
	if !ok {
		return ""
	}
	return resolve(base, href)
}

// links returns the resolved targets of all anchors in document order.
func links(doc *goquery.Document, base *url.URL) []string {
	var out []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if resolved := resolve(base, href); resolved != "" {
			out = append(out, resolved)
		}
	})
	return out
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// visibleText approximates the body's rendered text: text of hidden elements
// is skipped, whitespace runs collapse to one space, block elements break
// lines and blank lines are dropped.
func visibleText(doc *goquery.Document) string {
	var b strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if text := strings.Join(strings.Fields(n.Data), " "); text != "" {
				if b.Len() > 0 && !endsWithSpace(b.String()) && startsWithSpace(n.Data) {
					b.WriteByte(' ')
				}
				b.WriteString(text)
				if endsWithSpace(n.Data) {
					b.WriteByte(' ')
				}
			} else if n.Data != "" && b.Len() > 0 && !endsWithSpace(b.String()) {
				b.WriteByte(' ')
			}
			return
		case html.ElementNode:
			if hiddenElements[n.DataAtom] || hasHiddenAttr(n) {
				return
			}
		}

		block := n.Type == html.ElementNode && blockElements[n.DataAtom]
		if block {
			b.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			b.WriteByte('\n')
		}
	}

	for _, n := range doc.Find("body").Nodes {
		walk(n)
	}

	lines := strings.Split(b.String(), "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func hasHiddenAttr(n *html.Node) bool {
	for _, a := range n.Attr {
		if a.Key == "hidden" {
			return true
		}
		if a.Key == "type" && n.DataAtom == atom.Input && strings.EqualFold(a.Val, "hidden") {
			return true
		}
	}
	return false
}

func startsWithSpace(s string) bool {
	return s != "" && isSpace(s[0])
}

func endsWithSpace(s string) bool {
	return s != "" && isSpace(s[len(s)-1])
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

// truncate cuts s to at most n UTF-16 code units, the unit page scripts
// measure strings in. A character that would straddle the limit is dropped.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	units := 0
	for i, r := range s {
		l := utf16.RuneLen(r)
		if l < 0 {
			l = 1
		}
		if units+l > n {
			return s[:i]
		}
		units += l
	}
	return s
}
