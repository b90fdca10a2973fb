// Package tvdb looks up series identifiers on TheTVDB v4 API.
package tvdb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"realitease/internal/httpretry"
	"realitease/internal/services"
)

// Series is a search hit.
type Series struct {
	TVDBID    string     `json:"tvdb_id"`
	Name      string     `json:"name"`
	Year      string     `json:"year"`
	Type      string     `json:"type"`
	RemoteIDs []RemoteID `json:"remote_ids"`
}

// RemoteID links a series to another database.
type RemoteID struct {
	ID         string `json:"id"`
	SourceName string `json:"sourceName"`
}

// IMDbID returns the series' IMDb identifier, if listed.
func (s Series) IMDbID() string {
	for _, r := range s.RemoteIDs {
		if strings.EqualFold(r.SourceName, "imdb") {
			return r.ID
		}
	}
	return ""
}

// Client authenticates with an API key and caches the session token.
type Client struct {
	apiKey  string
	baseURL string
	http    *httpretry.Client

	mu    sync.Mutex
	token string
}

// New returns a client; retry may be nil.
func New(apiKey, baseURL string, retry *httpretry.Client) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tvdb api key required")
	}
	if retry == nil {
		retry = httpretry.New(httpretry.Policy{MaxRetries: 3})
	}
	return &Client{apiKey: apiKey, baseURL: strings.TrimRight(baseURL, "/"), http: retry}, nil
}

// SearchSeries searches series by name.
func (c *Client) SearchSeries(ctx context.Context, name string) ([]Series, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("series name required")
	}
	target := fmt.Sprintf("%s/search?%s", c.baseURL, url.Values{"query": {name}, "type": {"series"}}.Encode())
	var payload struct {
		Data []Series `json:"data"`
	}
	err := c.authorized(ctx, func(token string) error {
		return c.http.GetJSON(ctx, func(ctx context.Context) (*http.Request, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
			if err != nil {
				return nil, err
			}
			req.Header.Set("Authorization", "Bearer "+token)
			return req, nil
		}, &payload)
	})
	if err != nil {
		return nil, fmt.Errorf("tvdb search %q: %w", name, err)
	}
	return payload.Data, nil
}

// FindSeriesID returns the TVDB ID of the series named name, preferring a hit
// whose IMDb remote ID equals imdbID.
func (c *Client) FindSeriesID(ctx context.Context, name, imdbID string) (string, error) {
	hits, err := c.SearchSeries(ctx, name)
	if err != nil {
		return "", err
	}
	if len(hits) == 0 {
		return "", fmt.Errorf("%w: tvdb series %q", services.ErrNotFound, name)
	}
	if imdbID != "" {
		for _, hit := range hits {
			if hit.IMDbID() == imdbID {
				return hit.TVDBID, nil
			}
		}
	}
	return hits[0].TVDBID, nil
}

// authorized runs call with a token, logging in again once if it was rejected.
func (c *Client) authorized(ctx context.Context, call func(token string) error) error {
	token, err := c.session(ctx, false)
	if err != nil {
		return err
	}
	err = call(token)
	if !errors.Is(err, services.ErrConfiguration) {
		return err
	}
	token, err = c.session(ctx, true)
	if err != nil {
		return err
	}
	return call(token)
}

func (c *Client) session(ctx context.Context, refresh bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && !refresh {
		return c.token, nil
	}
	body, err := json.Marshal(map[string]string{"apikey": c.apiKey})
	if err != nil {
		return "", err
	}
	var payload struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	err = c.http.GetJSON(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}, &payload)
	if err != nil {
		return "", fmt.Errorf("tvdb login: %w", err)
	}
	if payload.Data.Token == "" {
		return "", services.Wrap(services.ErrConfiguration, "", "tvdb", "login returned no token", nil)
	}
	c.token = payload.Data.Token
	return c.token, nil
}
