package enricher

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/net/html"
)

// PageMeta is what we keep from a destination page: the link-preview title
// and description, plus the page's primary heading (the book catalog uses
// the h1 as the canonical book title).
type PageMeta struct {
	Title       string
	Description string
	Heading     string
}

// transientStatus reports whether an HTTP status suggests the fetch may
// succeed on a later run (rate limit or server-side trouble).
func transientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// errTransient marks fetch failures that should leave the record unwritten
// so the next full run retries it.
type errTransient struct{ err error }

func (e errTransient) Error() string { return e.err.Error() }
func (e errTransient) Unwrap() error { return e.err }

// fetchPageMeta downloads and parses the destination page. Transport errors
// and retryable HTTP statuses come back as errTransient; a page that parses
// to nothing yields an empty PageMeta, not an error.
func (e *Enricher) fetchPageMeta(ctx context.Context, pageURL string) (PageMeta, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return PageMeta{}, err
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return PageMeta{}, errTransient{err}
	}
	defer resp.Body.Close()

	if transientStatus(resp.StatusCode) {
		return PageMeta{}, errTransient{fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, pageURL)}
	}
	if resp.StatusCode != http.StatusOK {
		return PageMeta{}, fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, pageURL)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return PageMeta{}, fmt.Errorf("failed to parse page: %w", err)
	}

	return parsePageMeta(doc), nil
}

// parsePageMeta walks the document once, collecting title candidates in
// priority order (og:title > twitter:title > <title>), the meta description,
// and the first h1.
func parsePageMeta(doc *html.Node) PageMeta {
	var ogTitle, twitterTitle, htmlTitle, description, heading string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "meta":
				var property, name, content string
				for _, attr := range n.Attr {
					switch attr.Key {
					case "property":
						property = strings.ToLower(attr.Val)
					case "name":
						name = strings.ToLower(attr.Val)
					case "content":
						content = attr.Val
					}
				}
				switch {
				case property == "og:title" && ogTitle == "":
					ogTitle = content
				case name == "twitter:title" && twitterTitle == "":
					twitterTitle = content
				case (name == "description" || property == "og:description") && description == "":
					description = content
				}
			case "title":
				if htmlTitle == "" && n.FirstChild != nil {
					htmlTitle = n.FirstChild.Data
				}
			case "h1":
				if heading == "" {
					heading = nodeText(n)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	title := ogTitle
	if title == "" {
		title = twitterTitle
	}
	if title == "" {
		title = htmlTitle
	}

	return PageMeta{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Heading:     strings.TrimSpace(heading),
	}
}

// nodeText flattens the text content of a node and its children.
func nodeText(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(parts, " ")
}
