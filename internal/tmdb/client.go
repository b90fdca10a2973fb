package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"realitease/internal/config"
	"realitease/internal/httpretry"
)

// Client provides access to the TMDb API.
type Client struct {
	apiKey    string
	bearer    string
	baseURL   string
	baseURLV4 string
	language  string
	http      *httpretry.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBearerToken sets the v4 read access token used for list reads.
func WithBearerToken(token string) Option {
	return func(c *Client) { c.bearer = strings.TrimSpace(token) }
}

// WithV4BaseURL overrides the v4 API root.
func WithV4BaseURL(base string) Option {
	return func(c *Client) {
		if base = strings.TrimSpace(base); base != "" {
			c.baseURLV4 = strings.TrimRight(base, "/")
		}
	}
}

// WithRetryClient overrides the HTTP client.
func WithRetryClient(client *httpretry.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// New creates a TMDb client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		language: strings.TrimSpace(language),
		http:     httpretry.New(httpretry.Policy{MaxRetries: 3}),
	}
	client.baseURLV4 = strings.TrimSuffix(client.baseURL, "/3") + "/4"
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// NewFromConfig builds a client with the configured pacing and retries.
func NewFromConfig(cfg *config.Config, opts ...httpretry.Option) (*Client, error) {
	retry := httpretry.New(httpretry.Policy{
		MaxRetries:     cfg.TMDB.MaxRetries,
		InitialBackoff: time.Duration(cfg.TMDB.RetryBackoffMS) * time.Millisecond,
		MinInterval:    time.Duration(cfg.TMDB.RequestDelayMS) * time.Millisecond,
	}, append([]httpretry.Option{
		httpretry.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.TMDB.TimeoutSeconds) * time.Second}),
	}, opts...)...)
	return New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language,
		WithBearerToken(cfg.TMDB.BearerToken),
		WithV4BaseURL(cfg.TMDB.BaseURLV4),
		WithRetryClient(retry),
	)
}

// List fetches one page of a v4 list. Requires a bearer token.
func (c *Client) List(ctx context.Context, listID string, page int) (*ListPage, error) {
	listID = strings.TrimSpace(listID)
	if listID == "" {
		return nil, errors.New("list id required")
	}
	if c.bearer == "" {
		return nil, errors.New("tmdb bearer token required for v4 lists")
	}
	if page <= 0 {
		page = 1
	}
	endpoint := fmt.Sprintf("%s/list/%s?page=%d", c.baseURLV4, url.PathEscape(listID), page)
	if c.language != "" {
		endpoint += "&language=" + url.QueryEscape(c.language)
	}
	var payload ListPage
	err := c.http.GetJSON(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.bearer)
		req.Header.Set("Accept", "application/json")
		return req, nil
	}, &payload)
	if err != nil {
		return nil, fmt.Errorf("tmdb list %s page %d: %w", listID, page, err)
	}
	return &payload, nil
}

// FindByIMDb resolves an IMDb ID to TMDb records.
func (c *Client) FindByIMDb(ctx context.Context, imdbID string) (*FindResponse, error) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return nil, errors.New("imdb id required")
	}
	var payload FindResponse
	if err := c.get(ctx, "/find/"+url.PathEscape(imdbID), url.Values{"external_source": {"imdb_id"}}, &payload); err != nil {
		return nil, fmt.Errorf("tmdb find %s: %w", imdbID, err)
	}
	return &payload, nil
}

// SearchTV searches shows by name.
func (c *Client) SearchTV(ctx context.Context, query string) (*SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	var payload SearchResponse
	if err := c.get(ctx, "/search/tv", url.Values{"query": {query}}, &payload); err != nil {
		return nil, fmt.Errorf("tmdb tv search %q: %w", query, err)
	}
	return &payload, nil
}

// TVDetails fetches show details.
func (c *Client) TVDetails(ctx context.Context, showID int64) (*TVDetails, error) {
	if showID <= 0 {
		return nil, errors.New("show id must be positive")
	}
	var payload TVDetails
	if err := c.get(ctx, fmt.Sprintf("/tv/%d", showID), nil, &payload); err != nil {
		return nil, fmt.Errorf("tmdb tv details %d: %w", showID, err)
	}
	return &payload, nil
}

// SeasonDetails fetches a season with its episodes.
func (c *Client) SeasonDetails(ctx context.Context, showID int64, season int) (*SeasonDetails, error) {
	if showID <= 0 {
		return nil, errors.New("show id must be positive")
	}
	var payload SeasonDetails
	if err := c.get(ctx, fmt.Sprintf("/tv/%d/season/%d", showID, season), nil, &payload); err != nil {
		return nil, fmt.Errorf("tmdb season %d/%d: %w", showID, season, err)
	}
	return &payload, nil
}

// TVExternalIDs fetches a show's IMDb, TVDB and Wikidata identifiers.
func (c *Client) TVExternalIDs(ctx context.Context, showID int64) (*ExternalIDs, error) {
	if showID <= 0 {
		return nil, errors.New("show id must be positive")
	}
	var payload ExternalIDs
	if err := c.get(ctx, fmt.Sprintf("/tv/%d/external_ids", showID), nil, &payload); err != nil {
		return nil, fmt.Errorf("tmdb external ids %d: %w", showID, err)
	}
	return &payload, nil
}

// AggregateCredits fetches the show-wide cast with episode totals.
func (c *Client) AggregateCredits(ctx context.Context, showID int64) (*AggregateCredits, error) {
	if showID <= 0 {
		return nil, errors.New("show id must be positive")
	}
	var payload AggregateCredits
	if err := c.get(ctx, fmt.Sprintf("/tv/%d/aggregate_credits", showID), nil, &payload); err != nil {
		return nil, fmt.Errorf("tmdb aggregate credits %d: %w", showID, err)
	}
	return &payload, nil
}

// SeasonAggregateCredits fetches the cast of one season.
func (c *Client) SeasonAggregateCredits(ctx context.Context, showID int64, season int) (*AggregateCredits, error) {
	if showID <= 0 {
		return nil, errors.New("show id must be positive")
	}
	var payload AggregateCredits
	if err := c.get(ctx, fmt.Sprintf("/tv/%d/season/%d/aggregate_credits", showID, season), nil, &payload); err != nil {
		return nil, fmt.Errorf("tmdb season credits %d/%d: %w", showID, season, err)
	}
	return &payload, nil
}

// Person fetches person details.
func (c *Client) Person(ctx context.Context, personID int64) (*Person, error) {
	if personID <= 0 {
		return nil, errors.New("person id must be positive")
	}
	var payload Person
	if err := c.get(ctx, fmt.Sprintf("/person/%d", personID), nil, &payload); err != nil {
		return nil, fmt.Errorf("tmdb person %d: %w", personID, err)
	}
	return &payload, nil
}

// PersonTVCredits fetches a person's show credits.
func (c *Client) PersonTVCredits(ctx context.Context, personID int64) (*TVCredits, error) {
	if personID <= 0 {
		return nil, errors.New("person id must be positive")
	}
	var payload TVCredits
	if err := c.get(ctx, fmt.Sprintf("/person/%d/tv_credits", personID), nil, &payload); err != nil {
		return nil, fmt.Errorf("tmdb tv credits %d: %w", personID, err)
	}
	return &payload, nil
}

// Credit fetches the episode and season detail of one credit.
func (c *Client) Credit(ctx context.Context, creditID string) (*Credit, error) {
	creditID = strings.TrimSpace(creditID)
	if creditID == "" {
		return nil, errors.New("credit id required")
	}
	var payload Credit
	if err := c.get(ctx, "/credit/"+url.PathEscape(creditID), nil, &payload); err != nil {
		return nil, fmt.Errorf("tmdb credit %s: %w", creditID, err)
	}
	return &payload, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dst any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse tmdb url: %w", err)
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()
	target := endpoint.String()
	return c.http.GetJSON(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}, dst)
}

// ParseID parses a TMDb numeric identifier from a worksheet cell.
func ParseID(value string) (int64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
