package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/registryscout/registryscout/internal/search"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// chatServer returns canned completion contents, one per request, and records
// the request bodies it saw.
func chatServer(t *testing.T, replies ...string) (*httptest.Server, *[]chatRequest) {
	t.Helper()
	var seen []chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		seen = append(seen, req)
		require.NotEmpty(t, replies, "unexpected extra request")
		reply := replies[0]
		replies = replies[1:]
		resp := map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": reply}}},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func records(n int) []search.CompanyRecord {
	out := make([]search.CompanyRecord, n)
	for i := range out {
		out[i] = search.CompanyRecord{
			CompanyNumber: fmt.Sprintf("%08d", i+1),
			CompanyName:   fmt.Sprintf("COMPANY %d LTD", i+1),
			CompanyStatus: "active",
		}
	}
	return out
}

func TestClassifyBatchAppliesLabels(t *testing.T) {
	srv, seen := chatServer(t,
		`[{"index": 1, "shop_type": "Tyre Fitter", "channel": "Trade", "confidence": 0.9},
		  {"index": 2, "shop_type": "Garage", "channel": "Retail", "confidence": 0.7}]`)
	client := &Client{BaseURL: srv.URL, Model: "test-model", Logger: testLogger()}

	out, err := client.ClassifyBatch(context.Background(), records(2), "")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Tyre Fitter", out[0].ShopType)
	assert.Equal(t, "Trade", out[0].Channel)
	assert.InDelta(t, 0.9, out[0].AIConfidence, 1e-9)
	assert.Equal(t, "Garage", out[1].ShopType)
	assert.Equal(t, "COMPANY 2 LTD", out[1].CompanyName, "record fields carried through")

	require.Len(t, *seen, 1)
	assert.Equal(t, "test-model", (*seen)[0].Model)
	require.Len(t, (*seen)[0].Messages, 2)
	assert.Contains(t, (*seen)[0].Messages[1].Content, "COMPANY 1 LTD")
}

func TestClassifyBatchStripsCodeFences(t *testing.T) {
	srv, _ := chatServer(t,
		"```json\n[{\"index\": 1, \"shop_type\": \"Garage\", \"channel\": \"Retail\", \"confidence\": 0.5}]\n```")
	client := &Client{BaseURL: srv.URL, Model: "test-model", Logger: testLogger()}

	out, err := client.ClassifyBatch(context.Background(), records(1), "")
	require.NoError(t, err)
	assert.Equal(t, "Garage", out[0].ShopType)
}

func TestClassifyBatchSplitsIntoBatchesOfTen(t *testing.T) {
	reply := func(n int) string {
		parts := make([]string, n)
		for i := range parts {
			parts[i] = fmt.Sprintf(`{"index": %d, "shop_type": "Garage", "channel": "Retail", "confidence": 0.5}`, i+1)
		}
		return "[" + strings.Join(parts, ",") + "]"
	}
	srv, seen := chatServer(t, reply(10), reply(3))
	client := &Client{BaseURL: srv.URL, Model: "test-model", Logger: testLogger()}

	out, err := client.ClassifyBatch(context.Background(), records(13), "")
	require.NoError(t, err)
	require.Len(t, out, 13)
	assert.Len(t, *seen, 2)
	for _, company := range out {
		assert.Equal(t, "Garage", company.ShopType)
	}
}

func TestClassifyBatchFailedBatchMarkedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"message": "overloaded"}})
	}))
	defer srv.Close()
	client := &Client{BaseURL: srv.URL, Model: "test-model", Logger: testLogger()}

	out, err := client.ClassifyBatch(context.Background(), records(2), "")
	require.NoError(t, err, "a failed batch does not fail the run")
	assert.Equal(t, "Error", out[0].ShopType)
	assert.Equal(t, "Error", out[0].Channel)
	assert.Equal(t, "Error", out[1].ShopType)
}

func TestClassifyBatchIgnoresOutOfRangeIndexes(t *testing.T) {
	srv, _ := chatServer(t,
		`[{"index": 0, "shop_type": "Bad", "channel": "Bad", "confidence": 1},
		  {"index": 5, "shop_type": "Bad", "channel": "Bad", "confidence": 1},
		  {"index": 1, "shop_type": "Garage", "channel": "Retail", "confidence": 0.5}]`)
	client := &Client{BaseURL: srv.URL, Model: "test-model", Logger: testLogger()}

	out, err := client.ClassifyBatch(context.Background(), records(1), "")
	require.NoError(t, err)
	assert.Equal(t, "Garage", out[0].ShopType)
}

func TestClassifyBatchCancelledContextAborts(t *testing.T) {
	client := &Client{BaseURL: "http://unused", Model: "test-model", Logger: testLogger()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ClassifyBatch(ctx, records(1), "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAvailable(t *testing.T) {
	assert.False(t, (*Client)(nil).Available())
	assert.False(t, (&Client{Model: "m"}).Available())
	assert.False(t, (&Client{BaseURL: "http://x"}).Available())
	assert.True(t, (&Client{BaseURL: "http://x", Model: "m"}).Available())
}

func TestHandleClassifyUnconfigured(t *testing.T) {
	h := NewHandler(testLogger(), &Client{})
	r := chi.NewRouter()
	h.MountRoutes(r)

	req := httptest.NewRequest(http.MethodPost, "/api/classify", strings.NewReader(`{"companies": []}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleClassifyEndToEnd(t *testing.T) {
	srv, _ := chatServer(t,
		`[{"index": 1, "shop_type": "Tyre Fitter", "channel": "Trade", "confidence": 0.8}]`)
	h := NewHandler(testLogger(), &Client{BaseURL: srv.URL, Model: "test-model", Logger: testLogger()})
	r := chi.NewRouter()
	h.MountRoutes(r)

	body := `{"companies": [{"company_number": "00000001", "company_name": "COMPANY 1 LTD"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/classify", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp classifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Companies, 1)
	assert.Equal(t, "Tyre Fitter", resp.Companies[0].ShopType)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/classify", strings.NewReader(`{"companies": []}`))
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
