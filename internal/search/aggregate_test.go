package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/registryscout/registryscout/internal/platform/httpx"
	"github.com/registryscout/registryscout/internal/registry"
)

// stubRegistry serves canned pages per query and canned people data per
// company number.
type stubRegistry struct {
	pages       map[string][]registry.Page
	cursors     map[string]int
	fetchErr    error
	officers    map[string][]registry.Officer
	officersErr map[string]error
	pscs        map[string][]registry.PSC
	pscsErr     map[string]error
	fetchCalls  int
}

func queryKey(q registry.Query) string {
	return q.SICCode + "|" + q.NameContains
}

func (s *stubRegistry) FetchPage(ctx context.Context, q registry.Query, startIndex int) (registry.Page, error) {
	s.fetchCalls++
	if s.fetchErr != nil {
		return registry.Page{}, s.fetchErr
	}
	if s.cursors == nil {
		s.cursors = map[string]int{}
	}
	key := queryKey(q)
	pages := s.pages[key]
	cursor := s.cursors[key]
	if cursor >= len(pages) {
		return registry.Page{}, nil
	}
	s.cursors[key] = cursor + 1
	return pages[cursor], nil
}

func (s *stubRegistry) Officers(ctx context.Context, number string) ([]registry.Officer, error) {
	if err := s.officersErr[number]; err != nil {
		return nil, err
	}
	return s.officers[number], nil
}

func (s *stubRegistry) PSCs(ctx context.Context, number string) ([]registry.PSC, error) {
	if err := s.pscsErr[number]; err != nil {
		return nil, err
	}
	return s.pscs[number], nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAggregator(stub *stubRegistry, maxResults int) *Aggregator {
	logger := testLogger()
	return NewAggregator(stub, NewEnricher(stub, logger, 2, 10), logger, maxResults)
}

func TestSearchRequiresCriteria(t *testing.T) {
	agg := newTestAggregator(&stubRegistry{}, 0)
	_, err := agg.Search(context.Background(), Criteria{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestSearchPaginatesAndFiltersActive(t *testing.T) {
	stub := &stubRegistry{pages: map[string][]registry.Page{
		"22110|": {
			{TotalHits: 4, Items: []registry.Company{
				company("TYRE ONE LTD", "01", "active", "22110"),
				company("TYRE TWO LTD", "02", "active", "22110"),
				company("OLD TYRES LTD", "03", "dissolved", "22110"),
			}},
			{TotalHits: 4, Items: []registry.Company{
				company("TYRE THREE LTD", "04", "active", "22110"),
			}},
		},
	}}
	agg := newTestAggregator(stub, 0)

	result, err := agg.Search(context.Background(), Criteria{SICCodes: []string{"22110"}, ActiveOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Count)
	assert.False(t, result.Truncated)
	require.Len(t, result.Companies, 3)
	for _, rec := range result.Companies {
		assert.Equal(t, "active", rec.CompanyStatus)
	}
	assert.Equal(t, []string{"TYRE ONE LTD", "TYRE TWO LTD", "TYRE THREE LTD"},
		[]string{result.Companies[0].CompanyName, result.Companies[1].CompanyName, result.Companies[2].CompanyName},
		"upstream order preserved")
}

func TestSearchKeywordIncludeExclude(t *testing.T) {
	stub := &stubRegistry{pages: map[string][]registry.Page{
		"|truck": {
			{TotalHits: 3, Items: []registry.Company{
				company("Truck Co", "01", "active"),
				company("Truck & Car Ltd", "02", "active"),
				company("Cartruck Ltd", "03", "active"),
			}},
		},
	}}
	agg := newTestAggregator(stub, 0)

	result, err := agg.Search(context.Background(), Criteria{
		IncludeKeywords: []string{"truck"},
		ExcludeKeywords: []string{"car"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.Count)
	assert.Equal(t, "Truck Co", result.Companies[0].CompanyName)
}

func TestSearchDeduplicatesAcrossQueries(t *testing.T) {
	shared := company("TYRE DEPOT LTD", "01", "active", "22110")
	stub := &stubRegistry{pages: map[string][]registry.Page{
		"22110|": {{TotalHits: 1, Items: []registry.Company{shared}}},
		"|tyre":  {{TotalHits: 2, Items: []registry.Company{shared, company("TYRE WORLD LTD", "02", "active", "45320")}}},
	}}
	agg := newTestAggregator(stub, 0)

	result, err := agg.Search(context.Background(), Criteria{
		SICCodes:        []string{"22110"},
		IncludeKeywords: []string{"tyre"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, "TYRE DEPOT LTD", result.Companies[0].CompanyName)
	assert.Equal(t, "TYRE WORLD LTD", result.Companies[1].CompanyName)
}

func TestSearchStopsAtResultCap(t *testing.T) {
	items := make([]registry.Company, 5)
	for i := range items {
		items[i] = company(fmt.Sprintf("TYRE %d LTD", i), fmt.Sprintf("%02d", i+1), "active", "22110")
	}
	stub := &stubRegistry{pages: map[string][]registry.Page{
		"22110|": {{TotalHits: 5, Items: items}},
	}}
	agg := newTestAggregator(stub, 3)

	result, err := agg.Search(context.Background(), Criteria{SICCodes: []string{"22110"}})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Count)
	assert.True(t, result.Truncated)
}

func TestSearchUpstreamFailureDiscardsPartials(t *testing.T) {
	stub := &stubRegistry{fetchErr: fmt.Errorf("%w: status 503", httpx.ErrUpstream)}
	agg := newTestAggregator(stub, 0)

	_, err := agg.Search(context.Background(), Criteria{SICCodes: []string{"22110"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrUpstream))
	assert.Contains(t, err.Error(), "aborted")
}

func TestSearchDeadlineReturnsCollectedTruncated(t *testing.T) {
	stub := &stubRegistry{fetchErr: context.DeadlineExceeded}
	agg := newTestAggregator(stub, 0)

	result, err := agg.Search(context.Background(), Criteria{SICCodes: []string{"22110"}})
	require.NoError(t, err)
	assert.True(t, result.Truncated)
	assert.Zero(t, result.Count)
}

func TestSearchEnrichmentFailureIsolation(t *testing.T) {
	stub := &stubRegistry{
		pages: map[string][]registry.Page{
			"22110|": {{TotalHits: 3, Items: []registry.Company{
				company("ALPHA TYRES LTD", "01", "active", "22110"),
				company("BETA TYRES LTD", "02", "active", "22110"),
				company("GAMMA TYRES LTD", "03", "active", "22110"),
			}}},
		},
		officers: map[string][]registry.Officer{
			"01": {{Name: "SMITH, Anna", Role: "director"}},
			"03": {{Name: "JONES, Raj", Role: "director"}},
		},
		officersErr: map[string]error{"02": fmt.Errorf("%w: status 503", httpx.ErrUpstream)},
		pscs: map[string][]registry.PSC{
			"01": {{Name: "SMITH, Anna", NaturesOfControl: []string{"ownership-of-shares-75-to-100-percent"}}},
			"03": {{Name: "TYRE HOLDINGS LTD", NaturesOfControl: []string{"ownership-of-shares-75-to-100-percent"}}},
		},
		pscsErr: map[string]error{"02": fmt.Errorf("%w: status 503", httpx.ErrUpstream)},
	}
	agg := newTestAggregator(stub, 0)

	result, err := agg.Search(context.Background(), Criteria{
		SICCodes:      []string{"22110"},
		IncludePeople: true,
	})
	require.NoError(t, err, "one company's enrichment failure must not fail the batch")
	require.Equal(t, 3, result.Count)

	byNumber := map[string]CompanyRecord{}
	for _, rec := range result.Companies {
		byNumber[rec.CompanyNumber] = rec
	}
	assert.Equal(t, 1, byNumber["01"].DirectorsCount)
	assert.Equal(t, "SMITH, Anna", byNumber["01"].DirectorsNames)
	assert.Equal(t, "No", byNumber["01"].LikelyChain)
	assert.Equal(t, "Yes", byNumber["03"].LikelyChain)

	assert.Zero(t, byNumber["02"].DirectorsCount)
	assert.Empty(t, byNumber["02"].DirectorsNames)
	assert.Empty(t, byNumber["02"].PSCNames)
}
