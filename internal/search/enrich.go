package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/registryscout/registryscout/internal/registry"
)

const (
	defaultEnrichConcurrency = 5
	defaultMaxNames          = 10
)

// corporateKeywords flag a PSC name as a corporate entity rather than an
// individual, which usually marks the company as part of a chain.
var corporateKeywords = []string{
	"ltd", "limited", "plc", "group", "holdings",
	"llp", "inc", "corporation", "corp", "partners",
	"capital", "investments", "enterprises",
}

// Enricher adds officer and PSC summary fields to matched companies. Every
// company costs two further registry calls, so enrichment is opt-in and runs
// with bounded parallelism under the upstream rate ceiling.
type Enricher struct {
	registry    RegistryClient
	logger      *slog.Logger
	concurrency int
	maxNames    int
}

// NewEnricher constructs an enricher. Non-positive limits fall back to
// defaults (5 in flight, 10 names per display string).
func NewEnricher(client RegistryClient, logger *slog.Logger, concurrency, maxNames int) *Enricher {
	if concurrency <= 0 {
		concurrency = defaultEnrichConcurrency
	}
	if maxNames <= 0 {
		maxNames = defaultMaxNames
	}
	return &Enricher{registry: client, logger: logger, concurrency: concurrency, maxNames: maxNames}
}

// EnrichAll fills people data for every record in place. A failed fetch for
// one company leaves that company's fields empty and never fails the batch.
func (e *Enricher) EnrichAll(ctx context.Context, records []CompanyRecord) {
	if e == nil || len(records) == 0 {
		return
	}
	g := new(errgroup.Group)
	g.SetLimit(e.concurrency)
	for i := range records {
		rec := &records[i]
		g.Go(func() error {
			e.enrich(ctx, rec)
			return nil
		})
	}
	_ = g.Wait()
}

func (e *Enricher) enrich(ctx context.Context, rec *CompanyRecord) {
	officers, err := e.registry.Officers(ctx, rec.CompanyNumber)
	if err != nil {
		e.logger.Warn("officers fetch failed",
			slog.String("company_number", rec.CompanyNumber),
			slog.Any("error", err))
	} else {
		names := directorNames(officers)
		rec.DirectorsCount = len(names)
		rec.DirectorsNames = e.joinNames(names)
	}

	pscs, err := e.registry.PSCs(ctx, rec.CompanyNumber)
	if err != nil {
		e.logger.Warn("psc fetch failed",
			slog.String("company_number", rec.CompanyNumber),
			slog.Any("error", err))
		return
	}
	names, controls := pscSummary(pscs)
	rec.PSCCount = len(names)
	rec.PSCNames = e.joinNames(names)
	rec.PSCControl = strings.Join(controls, "; ")
	rec.LikelyChain = likelyChain(names)
}

// directorNames returns the names of currently appointed directors.
func directorNames(officers []registry.Officer) []string {
	var names []string
	for _, o := range officers {
		if o.ResignedOn != "" {
			continue
		}
		if !strings.Contains(strings.ToLower(o.Role), "director") {
			continue
		}
		names = append(names, o.Name)
	}
	return names
}

// pscSummary returns active PSC names and the ordered union of their
// natures of control.
func pscSummary(pscs []registry.PSC) (names, controls []string) {
	seen := map[string]struct{}{}
	for _, p := range pscs {
		if p.CeasedOn != "" {
			continue
		}
		names = append(names, p.Name)
		for _, nature := range p.NaturesOfControl {
			if _, dup := seen[nature]; dup {
				continue
			}
			seen[nature] = struct{}{}
			controls = append(controls, nature)
		}
	}
	return names, controls
}

// joinNames renders a semicolon-separated display string, truncated past the
// configured limit with a count of the omitted names.
func (e *Enricher) joinNames(names []string) string {
	if len(names) <= e.maxNames {
		return strings.Join(names, "; ")
	}
	shown := strings.Join(names[:e.maxNames], "; ")
	return fmt.Sprintf("%s (+%d more)", shown, len(names)-e.maxNames)
}

// likelyChain classifies ownership from PSC names: corporate owners usually
// mean the company belongs to a chain.
func likelyChain(pscNames []string) string {
	if len(pscNames) == 0 {
		return "Unknown"
	}
	for _, name := range pscNames {
		lower := strings.ToLower(name)
		for _, kw := range corporateKeywords {
			if strings.Contains(lower, kw) {
				return "Yes"
			}
		}
	}
	return "No"
}
