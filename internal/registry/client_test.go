package registry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/registryscout/registryscout/internal/platform/httpx"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	return NewClient(Config{
		BaseURL:      baseURL,
		APIKey:       "test-key",
		PageSize:     50,
		RateLimit:    1000,
		RateWindow:   time.Second,
		MaxAttempts:  3,
		RetryBackoff: time.Millisecond,
		RateBackoff:  time.Millisecond,
		Timeout:      5 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
}

func TestFetchPageDecodesItemsAndAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok, "expected basic auth")
		assert.Equal(t, "test-key", user)
		assert.Empty(t, pass)

		assert.Equal(t, "/advanced-search/companies", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "22110", q.Get("sic_codes"))
		assert.Equal(t, "active", q.Get("company_status"))
		assert.Equal(t, "50", q.Get("size"))
		assert.Equal(t, "0", q.Get("start_index"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"hits": 2,
			"items": [
				{"company_number": "01234567", "company_name": "TYRE CO LTD", "company_status": "active", "sic_codes": ["22110"]},
				{"company_number": "07654321", "company_name": "RUBBER LTD", "company_status": "active", "sic_codes": ["22110"]}
			]
		}`))
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)
	page, err := client.FetchPage(context.Background(), Query{SICCode: "22110", ActiveOnly: true}, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalHits)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "TYRE CO LTD", page.Items[0].CompanyName)
	assert.Equal(t, []string{"22110"}, page.Items[0].SICCodes)
}

func TestFetchPageEndOfResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
	}))
	defer srv.Close()

	page, err := testClient(t, srv.URL).FetchPage(context.Background(), Query{SICCode: "22110"}, 20000)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestGetRetriesRateLimitThenSucceeds(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"hits": 0, "items": []}`))
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).FetchPage(context.Background(), Query{SICCode: "22110"}, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestGetRateLimitExhaustsAsUpstreamError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).FetchPage(context.Background(), Query{SICCode: "22110"}, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrUpstream))
	assert.Equal(t, 3, calls)
}

func TestGetAuthRejectionFailsFast(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).FetchPage(context.Background(), Query{SICCode: "22110"}, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrAuth))
	assert.Equal(t, 1, calls, "auth failures must not retry")
}

func TestGetServerErrorRetriesThenFails(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).FetchPage(context.Background(), Query{SICCode: "22110"}, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrUpstream))
	assert.Equal(t, 3, calls)
}

func TestOfficersAndPSCPaths(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/company/01234567/officers":
			_, _ = w.Write([]byte(`{"items": [{"name": "DOE, Jane", "officer_role": "director"}]}`))
		case "/company/01234567/persons-with-significant-control":
			_, _ = w.Write([]byte(`{"items": [{"name": "HOLDCO LTD", "natures_of_control": ["ownership-of-shares-75-to-100-percent"]}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)
	officers, err := client.Officers(context.Background(), "01234567")
	require.NoError(t, err)
	require.Len(t, officers, 1)
	assert.Equal(t, "director", officers[0].Role)

	pscs, err := client.PSCs(context.Background(), "01234567")
	require.NoError(t, err)
	require.Len(t, pscs, 1)
	assert.Equal(t, "HOLDCO LTD", pscs[0].Name)

	_, err = client.Officers(context.Background(), "99999999")
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}
