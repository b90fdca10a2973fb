package imdb

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"realitease/internal/services"
)

// ErrCrewOnly is returned when the person appears on the credits page only
// in crew sections.
var ErrCrewOnly = errors.New("person listed only as crew")

var (
	episodesPattern = regexp.MustCompile(`(?i)(\d+)\s+(?:episodes?|eps)\b`)
	seasonPatterns  = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bS(\d{1,2})\.E\d+`),
		regexp.MustCompile(`(?i)\bSeason\s+(\d{1,2})\b`),
	}
)

// Appearance is what the credits page says about one person.
type Appearance struct {
	Episodes int
	Seasons  []int
	Section  string
}

type creditRow struct {
	section string
	text    string
}

// ParseCredits finds personID on a full-credits page. It returns
// services.ErrNotFound when the person is absent and ErrCrewOnly when they
// appear only outside the cast sections.
func ParseCredits(r io.Reader, personID string) (Appearance, error) {
	personID = strings.TrimSpace(personID)
	if personID == "" {
		return Appearance{}, errors.New("person id required")
	}
	doc, err := html.Parse(r)
	if err != nil {
		return Appearance{}, fmt.Errorf("parse imdb credits: %w", err)
	}

	needle := "/name/" + personID + "/"
	var (
		section string
		rows    []creditRow
	)
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		if heading := sectionHeading(n); heading != "" {
			section = heading
			return false
		}
		if n.DataAtom != atom.Tr && n.DataAtom != atom.Li {
			return true
		}
		if !containsLink(n, needle) {
			return true
		}
		if nestedRow(n, needle) {
			return true
		}
		rows = append(rows, creditRow{section: section, text: collapse(textContent(n))})
		return false
	})

	var cast, crew []creditRow
	for _, row := range rows {
		if isCastSection(row.section) {
			cast = append(cast, row)
		} else {
			crew = append(crew, row)
		}
	}
	switch {
	case len(cast) > 0:
		return summarize(cast), nil
	case len(crew) > 0:
		return Appearance{Section: crew[0].section}, fmt.Errorf("%w: %s", ErrCrewOnly, personID)
	default:
		return Appearance{}, fmt.Errorf("%w: %s not on credits page", services.ErrNotFound, personID)
	}
}

func summarize(rows []creditRow) Appearance {
	app := Appearance{Section: rows[0].section}
	seasons := map[int]struct{}{}
	for _, row := range rows {
		best := 0
		for _, m := range episodesPattern.FindAllStringSubmatch(row.text, -1) {
			if n, err := strconv.Atoi(m[1]); err == nil && n > best {
				best = n
			}
		}
		app.Episodes += best
		for _, pattern := range seasonPatterns {
			for _, m := range pattern.FindAllStringSubmatch(row.text, -1) {
				if n, err := strconv.Atoi(m[1]); err == nil {
					seasons[n] = struct{}{}
				}
			}
		}
	}
	for n := range seasons {
		app.Seasons = append(app.Seasons, n)
	}
	sort.Ints(app.Seasons)
	return app
}

// sectionHeading returns the text of a credits section heading element.
func sectionHeading(n *html.Node) string {
	switch n.DataAtom {
	case atom.H3, atom.H4:
		return collapse(textContent(n))
	}
	if strings.Contains(attr(n, "class"), "ipc-title__text") {
		return collapse(textContent(n))
	}
	return ""
}

func isCastSection(heading string) bool {
	h := strings.ToLower(heading)
	if h == "" {
		return true
	}
	if strings.Contains(h, "casting") {
		return false
	}
	return strings.Contains(h, "cast") || strings.Contains(h, "self") || strings.Contains(h, "host")
}

func containsLink(n *html.Node, needle string) bool {
	found := false
	walk(n, func(c *html.Node) bool {
		if found {
			return false
		}
		if c.Type == html.ElementNode && c.DataAtom == atom.A && strings.Contains(attr(c, "href"), needle) {
			found = true
			return false
		}
		return true
	})
	return found
}

// nestedRow reports whether a descendant row also links to the person, in
// which case the innermost row is used.
func nestedRow(n *html.Node, needle string) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		found := false
		walk(c, func(d *html.Node) bool {
			if found {
				return false
			}
			if d.Type == html.ElementNode && (d.DataAtom == atom.Tr || d.DataAtom == atom.Li) && containsLink(d, needle) {
				found = true
				return false
			}
			return true
		})
		if found {
			return true
		}
	}
	return false
}
