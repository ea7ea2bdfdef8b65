package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/registryscout/registryscout/internal/registry"
)

// upstreamIndexCap is the deepest start index the registry will serve for a
// single query; paging past it returns 416.
const upstreamIndexCap = 10000

const defaultMaxResults = 10000

// RegistryClient is the upstream capability the pipeline depends on, kept
// small so tests can substitute a stub.
type RegistryClient interface {
	FetchPage(ctx context.Context, query registry.Query, startIndex int) (registry.Page, error)
	Officers(ctx context.Context, companyNumber string) ([]registry.Officer, error)
	PSCs(ctx context.Context, companyNumber string) ([]registry.PSC, error)
}

// Result is one completed aggregation. Truncated is set when the result cap
// was reached or the request deadline expired before upstream pages ran out.
type Result struct {
	Companies []CompanyRecord `json:"companies"`
	Count     int             `json:"count"`
	Truncated bool            `json:"truncated"`
}

// Aggregator drives pagination against the registry, filters each page,
// deduplicates by company number and optionally enriches the survivors.
type Aggregator struct {
	registry   RegistryClient
	enricher   *Enricher
	logger     *slog.Logger
	maxResults int
}

// NewAggregator constructs an aggregator. A non-positive maxResults falls
// back to the 10,000-record cap.
func NewAggregator(client RegistryClient, enricher *Enricher, logger *slog.Logger, maxResults int) *Aggregator {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	return &Aggregator{registry: client, enricher: enricher, logger: logger, maxResults: maxResults}
}

// Search runs the full pipeline for one criteria. Upstream order of first
// appearance is preserved; the aggregator never re-sorts. An upstream
// failure mid-flight aborts and discards partial results; hitting the
// request deadline instead returns what was collected, marked truncated.
func (a *Aggregator) Search(ctx context.Context, criteria Criteria) (Result, error) {
	if err := criteria.Validate(); err != nil {
		return Result{}, err
	}

	queries := buildQueries(criteria)
	seen := make(map[string]struct{})
	var out []CompanyRecord
	truncated := false
	pages := 0

collect:
	for _, q := range queries {
		startIndex := 0
		for {
			if ctx.Err() != nil {
				truncated = true
				break collect
			}
			page, err := a.registry.FetchPage(ctx, q, startIndex)
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
					truncated = true
					break collect
				}
				return Result{}, fmt.Errorf("aggregation aborted after %d pages and %d records: %w", pages, len(out), err)
			}
			pages++
			if len(page.Items) == 0 {
				break
			}
			for _, item := range page.Items {
				if item.CompanyNumber == "" || !Matches(item, criteria) {
					continue
				}
				if _, dup := seen[item.CompanyNumber]; dup {
					continue
				}
				seen[item.CompanyNumber] = struct{}{}
				out = append(out, NewRecord(item))
				if len(out) >= a.maxResults {
					truncated = true
					break collect
				}
			}
			startIndex += len(page.Items)
			if startIndex >= page.TotalHits || startIndex >= upstreamIndexCap {
				break
			}
		}
	}

	if criteria.IncludePeople && a.enricher != nil {
		a.enricher.EnrichAll(ctx, out)
		if ctx.Err() != nil {
			truncated = true
		}
	}

	a.logger.Info("search aggregated",
		slog.Int("pages", pages),
		slog.Int("count", len(out)),
		slog.Bool("truncated", truncated))
	return Result{Companies: out, Count: len(out), Truncated: truncated}, nil
}

// buildQueries expands criteria into upstream queries: one per SIC code plus
// one per include keyword. Keyword queries are needed even when SIC codes are
// present because the two filters combine with OR.
func buildQueries(c Criteria) []registry.Query {
	queries := make([]registry.Query, 0, len(c.SICCodes)+len(c.IncludeKeywords))
	for _, code := range c.SICCodes {
		queries = append(queries, registry.Query{SICCode: code, ActiveOnly: c.ActiveOnly})
	}
	for _, kw := range c.IncludeKeywords {
		queries = append(queries, registry.Query{NameContains: kw, ActiveOnly: c.ActiveOnly})
	}
	return queries
}
