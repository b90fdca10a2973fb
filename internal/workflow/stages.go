package workflow

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"realitease/internal/castinfo"
	"realitease/internal/enrich"
	"realitease/internal/episodes"
	"realitease/internal/realitease"
	"realitease/internal/services"
	"realitease/internal/showinfo"
	"realitease/internal/stage"
	"realitease/internal/updateinfo"
	"realitease/internal/viablecast"
)

// Order lists every stage in pipeline order.
var Order = []string{
	showinfo.Name,
	castinfo.Name,
	enrich.Name,
	updateinfo.Name,
	viablecast.Name,
	episodes.Name,
	realitease.Name,
}

// Overrides carries per-invocation settings that take precedence over config.
type Overrides struct {
	// CastAppendOnly adds new cast pairs without updating existing rows.
	CastAppendOnly bool
	// CastStartRow skips ShowInfo rows numbered below it.
	CastStartRow int
	Rows         episodes.Range
	Direction    episodes.Direction
	Workers      int
	Strategy     string
	Owner        string
}

// Select returns the stage names from..to inclusive. Empty bounds default to
// the ends of Order. The enricher is dropped unless includeEnrich is set and
// it was not named as a bound.
func Select(from, to string, includeEnrich bool) ([]string, error) {
	start, end := 0, len(Order)-1
	if from = strings.TrimSpace(from); from != "" {
		start = slices.Index(Order, from)
		if start < 0 {
			return nil, unknownStage(from)
		}
	}
	if to = strings.TrimSpace(to); to != "" {
		end = slices.Index(Order, to)
		if end < 0 {
			return nil, unknownStage(to)
		}
	}
	if start > end {
		return nil, services.Wrap(services.ErrValidation, "workflow", "select",
			fmt.Sprintf("stage %s runs after %s", from, to), nil)
	}
	var names []string
	for _, name := range Order[start : end+1] {
		if name == enrich.Name && !includeEnrich && from != enrich.Name && to != enrich.Name {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func unknownStage(name string) error {
	return services.Wrap(services.ErrValidation, "workflow", "select",
		fmt.Sprintf("unknown stage %q (want one of %s)", name, strings.Join(Order, ", ")), nil)
}

// LockPath returns the per-stage lock file, or "" for the partitioned
// extractor whose processes coordinate through row leases.
func (d *Dependencies) LockPath(name string) string {
	if name == episodes.Name {
		return ""
	}
	return d.Config.LockPath(name)
}

// BuildAll builds the named stages in order.
func (d *Dependencies) BuildAll(names []string, o Overrides) ([]stage.Handler, error) {
	handlers := make([]stage.Handler, 0, len(names))
	for _, name := range names {
		h, err := d.Build(name, o)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, h)
	}
	return handlers, nil
}

// Build returns the configured handler for one stage.
func (d *Dependencies) Build(name string, o Overrides) (stage.Handler, error) {
	cfg := d.Config
	batch := cfg.Sheet.BatchSize
	switch name {
	case showinfo.Name:
		opts := showinfo.Options{
			Store:           d.Sheets,
			TMDB:            d.TMDB,
			Sources:         d.listSources(),
			Checkpoints:     d.State,
			Logger:          d.Logger,
			BatchSize:       batch,
			MarkMissingSkip: cfg.Shows.MarkMissingSkip,
		}
		// Leave the interfaces nil rather than wrapping a nil pointer.
		if d.TVDB != nil {
			opts.TVDB = d.TVDB
		}
		if d.Wikidata != nil {
			opts.Wikidata = d.Wikidata
		}
		return showinfo.New(opts), nil
	case castinfo.Name:
		return castinfo.New(castinfo.Options{
			Store:           d.Sheets,
			TMDB:            d.TMDB,
			Checkpoints:     d.State,
			Logger:          d.Logger,
			BatchSize:       batch,
			MinEpisodes:     cfg.Cast.MinEpisodes,
			SeasonLookup:    cfg.Cast.SeasonLookup,
			RefreshEpisodes: cfg.Cast.RefreshEpisodeCounts,
			AppendOnly:      o.CastAppendOnly,
			StartRow:        o.CastStartRow,
		}), nil
	case enrich.Name:
		return enrich.New(enrich.Options{
			Store:       d.Sheets,
			TMDB:        d.TMDB,
			Checkpoints: d.State,
			Logger:      d.Logger,
			BatchSize:   batch,
		}), nil
	case updateinfo.Name:
		return updateinfo.New(updateinfo.Options{Store: d.Sheets, Logger: d.Logger, BatchSize: batch}), nil
	case viablecast.Name:
		return viablecast.New(viablecast.Options{Store: d.Sheets, Logger: d.Logger, BatchSize: batch}), nil
	case episodes.Name:
		strategyName := cfg.Extract.Strategy
		if o.Strategy != "" {
			strategyName = o.Strategy
		}
		strategy, err := episodes.NewStrategy(strategyName, d.TMDB, d.IMDb)
		if err != nil {
			return nil, err
		}
		workers := cfg.Extract.Workers
		if o.Workers > 0 {
			workers = o.Workers
		}
		return episodes.New(episodes.Options{
			Store:       d.Sheets,
			Strategy:    strategy,
			Leases:      d.State,
			Checkpoints: d.State,
			Logger:      d.Logger,
			BatchSize:   batch,
			Rows:        o.Rows,
			Direction:   o.Direction,
			Workers:     workers,
			LeaseTTL:    time.Duration(cfg.Extract.LeaseTTLSeconds) * time.Second,
			Heartbeat:   time.Duration(cfg.Extract.HeartbeatSeconds) * time.Second,
			Owner:       o.Owner,
		}), nil
	case realitease.Name:
		return realitease.New(realitease.Options{Store: d.Sheets, Logger: d.Logger, BatchSize: batch}), nil
	default:
		return nil, unknownStage(name)
	}
}

func (d *Dependencies) listSources() []showinfo.Source {
	var sources []showinfo.Source
	if id := strings.TrimSpace(d.Config.TMDB.ListID); id != "" && d.TMDB != nil {
		sources = append(sources, showinfo.TMDbListSource{Client: d.TMDB, ListID: id})
	}
	if url := strings.TrimSpace(d.Config.IMDb.ListURL); url != "" && d.IMDb != nil {
		sources = append(sources, showinfo.IMDbListSource{Client: d.IMDb, URL: url})
	}
	return sources
}
