// Package discovery finds the example pages linked from the demo site's index.
package discovery

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/entrhq/uiaudit/pkg/browser"
)

// MarkerAttribute is the attribute whose value tags an index link.
const MarkerAttribute = "data-nri-description"

// Marker values distinguishing the kinds of index links.
const (
	MarkerComponent    = "doodad-link"
	MarkerUsageExample = "usage-example-link"
)

// Link is one discovered example page.
type Link struct {
	Name     string
	Location string
}

// Discover returns the links tagged with marker on the page's current
// document, in document order. No matches is not an error.
func Discover(page browser.Page, marker string) ([]Link, error) {
	content, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to read index page: %w", err)
	}

	base, err := url.Parse(page.URL())
	if err != nil {
		return nil, fmt.Errorf("invalid index page URL %q: %w", page.URL(), err)
	}

	return Parse(strings.NewReader(content), base, marker)
}

// Parse extracts the links tagged with marker from an HTML document.
// Relative hrefs are resolved against base.
func Parse(r io.Reader, base *url.URL, marker string) ([]Link, error) {
	if marker == "" {
		return nil, fmt.Errorf("empty %s marker", MarkerAttribute)
	}

	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("error parsing HTML document: %w", err)
	}

	links := []Link{}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if v, ok := attr(n, MarkerAttribute); ok && v == marker {
				href, _ := attr(n, "href")
				links = append(links, Link{
					Name:     textContent(n),
					Location: resolve(base, href),
				})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return links, nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// textContent mirrors the DOM text property of an anchor: every descendant
// text node, concatenated without normalization.
func textContent(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return b.String()
}

func resolve(base *url.URL, href string) string {
	if base == nil {
		return href
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
