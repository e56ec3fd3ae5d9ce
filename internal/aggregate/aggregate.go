// Package aggregate merges discovery results from the web-search and
// statistics-agency collaborators into a single list.
package aggregate

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/datalode/assetscout/internal/asset"
)

// Source labels attached to discovery items.
const (
	SourceWeb   = "web"
	SourceStats = "stats"
)

// Aggregator fans a query out to both collaborators in parallel.
type Aggregator struct {
	search asset.SearchProvider
	stats  asset.StatsProvider
	logger *zap.Logger
}

// New creates an aggregator. Either provider may be nil; that side is skipped.
func New(search asset.SearchProvider, stats asset.StatsProvider, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{search: search, stats: stats, logger: logger}
}

// Discover queries both providers concurrently and merges the hits, web
// results first. A failure on one side is logged and the other side's
// results are still returned; only when every consulted provider fails
// does Discover return an error.
func (a *Aggregator) Discover(ctx context.Context, query string, limit int) ([]asset.DiscoveryItem, error) {
	if query == "" {
		return nil, fmt.Errorf("discovery query is required")
	}

	var (
		webItems   []asset.DiscoveryItem
		statsItems []asset.DiscoveryItem
		webErr     error
		statsErr   error
	)

	g, gctx := errgroup.WithContext(ctx)

	if a.search != nil {
		g.Go(func() error {
			hits, err := a.search.Search(gctx, query, limit)
			if err != nil {
				webErr = err
				a.logger.Warn("web search failed", zap.String("query", query), zap.Error(err))
				return nil
			}
			for _, h := range hits {
				webItems = append(webItems, asset.DiscoveryItem{
					Source:  SourceWeb,
					Title:   h.Title,
					URL:     h.URL,
					Snippet: h.Snippet,
				})
			}
			return nil
		})
	}

	if a.stats != nil {
		g.Go(func() error {
			flows, err := a.stats.ListDataflows(gctx, query)
			if err != nil {
				statsErr = err
				a.logger.Warn("dataflow lookup failed", zap.String("query", query), zap.Error(err))
				return nil
			}
			for _, df := range flows {
				statsItems = append(statsItems, asset.DiscoveryItem{
					Source:  SourceStats,
					Title:   df.Name,
					URL:     dataflowURN(df),
					Snippet: df.Description,
				})
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	consulted := 0
	failed := 0
	if a.search != nil {
		consulted++
		if webErr != nil {
			failed++
		}
	}
	if a.stats != nil {
		consulted++
		if statsErr != nil {
			failed++
		}
	}
	if consulted == 0 {
		return nil, fmt.Errorf("no discovery providers configured")
	}
	if failed == consulted {
		return nil, fmt.Errorf("all discovery providers failed: web=%v stats=%v", webErr, statsErr)
	}

	items := make([]asset.DiscoveryItem, 0, len(webItems)+len(statsItems))
	items = append(items, webItems...)
	items = append(items, statsItems...)
	return items, nil
}

// dataflowURN is a stable identifier for a dataflow in SDMX URN form.
func dataflowURN(df asset.Dataflow) string {
	return fmt.Sprintf("urn:sdmx:dataflow:%s:%s(%s)", df.AgencyID, df.ID, df.Version)
}
