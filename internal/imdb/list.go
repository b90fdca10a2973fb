package imdb

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var titlePathPattern = regexp.MustCompile(`/title/(tt\d+)/?`)

// ListedTitle is one title found on a list page.
type ListedTitle struct {
	IMDbID string
	Name   string
}

// ParseList extracts titles from a list page. JSON-LD itemListElement
// entries are preferred; title anchors are used when the page has none.
func ParseList(r io.Reader) ([]ListedTitle, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse imdb list: %w", err)
	}
	if titles := listFromJSONLD(doc); len(titles) > 0 {
		return titles, nil
	}
	return listFromAnchors(doc), nil
}

type ldItemList struct {
	Type            any `json:"@type"`
	ItemListElement []struct {
		URL  string `json:"url"`
		Name string `json:"name"`
		Item *struct {
			URL  string `json:"url"`
			Name string `json:"name"`
		} `json:"item"`
	} `json:"itemListElement"`
}

func listFromJSONLD(doc *html.Node) []ListedTitle {
	var (
		out  []ListedTitle
		seen = map[string]struct{}{}
	)
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.DataAtom != atom.Script || attr(n, "type") != "application/ld+json" {
			return true
		}
		var list ldItemList
		if err := json.Unmarshal([]byte(textContent(n)), &list); err != nil {
			return false
		}
		for _, el := range list.ItemListElement {
			link, name := el.URL, el.Name
			if el.Item != nil {
				link, name = el.Item.URL, el.Item.Name
			}
			m := titlePathPattern.FindStringSubmatch(link)
			if m == nil {
				continue
			}
			if _, dup := seen[m[1]]; dup {
				continue
			}
			seen[m[1]] = struct{}{}
			out = append(out, ListedTitle{IMDbID: m[1], Name: strings.TrimSpace(html.UnescapeString(name))})
		}
		return false
	})
	return out
}

var rankPrefix = regexp.MustCompile(`^\d+\.\s*`)

func listFromAnchors(doc *html.Node) []ListedTitle {
	var (
		out   []ListedTitle
		index = map[string]int{}
	)
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.DataAtom != atom.A {
			return true
		}
		m := titlePathPattern.FindStringSubmatch(attr(n, "href"))
		if m == nil {
			return true
		}
		name := rankPrefix.ReplaceAllString(collapse(textContent(n)), "")
		if i, ok := index[m[1]]; ok {
			if out[i].Name == "" {
				out[i].Name = name
			}
			return false
		}
		index[m[1]] = len(out)
		out = append(out, ListedTitle{IMDbID: m[1], Name: name})
		return false
	})
	return out
}
