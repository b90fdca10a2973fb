// Package wikidata finds Wikidata entity IDs for shows by name.
package wikidata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"realitease/internal/httpretry"
	"realitease/internal/services"
)

// Entity is a wbsearchentities hit.
type Entity struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// IsShow reports whether the entity description reads like a TV series.
func (e Entity) IsShow() bool {
	d := strings.ToLower(e.Description)
	for _, marker := range []string{"tv series", "television series", "reality"} {
		if strings.Contains(d, marker) {
			return true
		}
	}
	return false
}

// Client queries the Wikidata action API.
type Client struct {
	baseURL string
	http    *httpretry.Client
}

// New returns a client for the api.php endpoint at baseURL.
func New(baseURL string, retry *httpretry.Client) *Client {
	if retry == nil {
		retry = httpretry.New(httpretry.Policy{MaxRetries: 3})
	}
	return &Client{baseURL: strings.TrimSpace(baseURL), http: retry}
}

// Search returns entities matching name.
func (c *Client) Search(ctx context.Context, name string) ([]Entity, error) {
	params := url.Values{
		"action":   {"wbsearchentities"},
		"search":   {strings.TrimSpace(name)},
		"language": {"en"},
		"type":     {"item"},
		"limit":    {"10"},
		"format":   {"json"},
	}
	target := c.baseURL + "?" + params.Encode()
	var payload struct {
		Search []Entity `json:"search"`
	}
	err := c.http.GetJSON(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "realitease/0.1 (metadata pipeline)")
		return req, nil
	}, &payload)
	if err != nil {
		return nil, fmt.Errorf("wikidata search %q: %w", name, err)
	}
	return payload.Search, nil
}

// FindShow returns the ID of the first hit that looks like a TV series.
func (c *Client) FindShow(ctx context.Context, name string) (string, error) {
	hits, err := c.Search(ctx, name)
	if err != nil {
		return "", err
	}
	for _, hit := range hits {
		if hit.IsShow() {
			return hit.ID, nil
		}
	}
	return "", fmt.Errorf("%w: wikidata show %q", services.ErrNotFound, name)
}
