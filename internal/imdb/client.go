package imdb

import (
	"bytes"
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

// maxListPages bounds list pagination.
const maxListPages = 40

// Client fetches IMDb pages.
type Client struct {
	baseURL   string
	userAgent string
	http      *httpretry.Client
}

// New builds a client for baseURL.
func New(baseURL, userAgent string, retry *httpretry.Client) *Client {
	if retry == nil {
		retry = httpretry.New(httpretry.Policy{MaxRetries: 3})
	}
	return &Client{
		baseURL:   strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		userAgent: strings.TrimSpace(userAgent),
		http:      retry,
	}
}

// NewFromConfig builds a client paced by imdb.request_delay_ms.
func NewFromConfig(cfg *config.Config, opts ...httpretry.Option) *Client {
	retry := httpretry.New(httpretry.Policy{
		MaxRetries:     cfg.TMDB.MaxRetries,
		InitialBackoff: time.Duration(cfg.TMDB.RetryBackoffMS) * time.Millisecond,
		MinInterval:    time.Duration(cfg.IMDb.RequestDelayMS) * time.Millisecond,
	}, opts...)
	return New(cfg.IMDb.BaseURL, cfg.IMDb.UserAgent, retry)
}

// List reads every page of the list at listURL.
func (c *Client) List(ctx context.Context, listURL string) ([]ListedTitle, error) {
	listURL = strings.TrimSpace(listURL)
	if listURL == "" {
		return nil, errors.New("imdb list url required")
	}
	base, err := url.Parse(listURL)
	if err != nil {
		return nil, fmt.Errorf("parse imdb list url: %w", err)
	}

	var (
		out  []ListedTitle
		seen = map[string]struct{}{}
	)
	for page := 1; page <= maxListPages; page++ {
		pageURL := *base
		q := pageURL.Query()
		q.Set("page", strconv.Itoa(page))
		pageURL.RawQuery = q.Encode()

		body, err := c.fetch(ctx, pageURL.String())
		if err != nil {
			return nil, fmt.Errorf("imdb list page %d: %w", page, err)
		}
		titles, err := ParseList(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		added := 0
		for _, title := range titles {
			if _, dup := seen[title.IMDbID]; dup {
				continue
			}
			seen[title.IMDbID] = struct{}{}
			out = append(out, title)
			added++
		}
		if added == 0 {
			break
		}
	}
	return out, nil
}

// FullCredits locates personID on the full-credits page of titleID.
func (c *Client) FullCredits(ctx context.Context, titleID, personID string) (Appearance, error) {
	titleID = strings.TrimSpace(titleID)
	if !strings.HasPrefix(titleID, "tt") {
		return Appearance{}, fmt.Errorf("invalid imdb title id %q", titleID)
	}
	body, err := c.fetch(ctx, fmt.Sprintf("%s/title/%s/fullcredits", c.baseURL, titleID))
	if err != nil {
		return Appearance{}, fmt.Errorf("imdb full credits %s: %w", titleID, err)
	}
	return ParseCredits(bytes.NewReader(body), personID)
}

func (c *Client) fetch(ctx context.Context, target string) ([]byte, error) {
	return c.http.GetBody(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		return req, nil
	})
}
