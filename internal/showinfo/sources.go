package showinfo

import (
	"context"
	"fmt"
	"strings"

	"realitease/internal/imdb"
	"realitease/internal/tmdb"
)

// ListedShow is one show named by a list source.
type ListedShow struct {
	Name   string
	TMDbID int64
	IMDbID string
	Source string
}

// Source yields the shows of one external list.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]ListedShow, error)
}

// ListClient reads TMDb v4 list pages.
type ListClient interface {
	List(ctx context.Context, listID string, page int) (*tmdb.ListPage, error)
}

// TMDbListSource reads every page of a TMDb v4 list, keeping tv items.
type TMDbListSource struct {
	Client ListClient
	ListID string
}

func (s TMDbListSource) Name() string { return "tmdb_list" }

func (s TMDbListSource) Fetch(ctx context.Context) ([]ListedShow, error) {
	var shows []ListedShow
	for page := 1; ; page++ {
		resp, err := s.Client.List(ctx, s.ListID, page)
		if err != nil {
			return nil, fmt.Errorf("tmdb list %s page %d: %w", s.ListID, page, err)
		}
		for _, item := range resp.Results {
			if item.MediaType != "" && item.MediaType != "tv" {
				continue
			}
			name := strings.TrimSpace(item.Name)
			if name == "" {
				name = strings.TrimSpace(item.Title)
			}
			shows = append(shows, ListedShow{Name: name, TMDbID: item.ID, Source: s.Name()})
		}
		if resp.TotalPages <= page || len(resp.Results) == 0 {
			return shows, nil
		}
	}
}

// IMDbLister reads an IMDb list page set.
type IMDbLister interface {
	List(ctx context.Context, listURL string) ([]imdb.ListedTitle, error)
}

// IMDbListSource reads a public IMDb list.
type IMDbListSource struct {
	Client IMDbLister
	URL    string
}

func (s IMDbListSource) Name() string { return "imdb_list" }

func (s IMDbListSource) Fetch(ctx context.Context) ([]ListedShow, error) {
	titles, err := s.Client.List(ctx, s.URL)
	if err != nil {
		return nil, fmt.Errorf("imdb list: %w", err)
	}
	shows := make([]ListedShow, 0, len(titles))
	for _, title := range titles {
		shows = append(shows, ListedShow{Name: title.Name, IMDbID: title.IMDbID, Source: s.Name()})
	}
	return shows, nil
}
