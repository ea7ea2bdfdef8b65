// Package registry implements the Companies House API client.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/registryscout/registryscout/internal/observability"
	"github.com/registryscout/registryscout/internal/platform/httpx"
)

const (
	defaultPageSize     = 500
	defaultMaxAttempts  = 3
	defaultRetryBackoff = 5 * time.Second
	defaultRateBackoff  = 60 * time.Second
	defaultTimeout      = 30 * time.Second
	defaultRateLimit    = 600
	defaultRateWindow   = 5 * time.Minute
)

// endOfResults signals a 416 from the registry: the start index ran past the
// last available result.
var errEndOfResults = errors.New("end of results")

// Config carries the knobs for the registry client.
type Config struct {
	BaseURL      string
	APIKey       string
	PageSize     int
	RateLimit    int
	RateWindow   time.Duration
	MaxAttempts  int
	RetryBackoff time.Duration
	RateBackoff  time.Duration
	Timeout      time.Duration
}

// Client issues authenticated, rate-paced requests against the registry API.
type Client struct {
	baseURL      string
	apiKey       string
	pageSize     int
	maxAttempts  int
	retryBackoff time.Duration
	rateBackoff  time.Duration
	httpClient   *http.Client
	limiter      *rate.Limiter
	logger       *slog.Logger
	metrics      *observability.Metrics
}

// NewClient constructs a registry client. Zero config fields fall back to the
// documented registry defaults (500-item pages, 600 requests per 5 minutes).
func NewClient(cfg Config, logger *slog.Logger, metrics *observability.Metrics) *Client {
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	if cfg.RateBackoff <= 0 {
		cfg.RateBackoff = defaultRateBackoff
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = defaultRateWindow
	}
	perSecond := float64(cfg.RateLimit) / cfg.RateWindow.Seconds()
	return &Client{
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		pageSize:     cfg.PageSize,
		maxAttempts:  cfg.MaxAttempts,
		retryBackoff: cfg.RetryBackoff,
		rateBackoff:  cfg.RateBackoff,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		limiter:      rate.NewLimiter(rate.Limit(perSecond), 5),
		logger:       logger,
		metrics:      metrics,
	}
}

// PageSize reports the page size the client requests from the registry.
func (c *Client) PageSize() int {
	return c.pageSize
}

type searchResponse struct {
	Items []Company `json:"items"`
	Hits  int       `json:"hits"`
}

type officersResponse struct {
	Items []Officer `json:"items"`
}

type pscResponse struct {
	Items []PSC `json:"items"`
}

// FetchPage requests one page of advanced-search results starting at
// startIndex. A start index past the end of the result set returns an empty
// page, not an error.
func (c *Client) FetchPage(ctx context.Context, query Query, startIndex int) (Page, error) {
	params := url.Values{}
	params.Set("size", strconv.Itoa(c.pageSize))
	params.Set("start_index", strconv.Itoa(startIndex))
	if query.SICCode != "" {
		params.Set("sic_codes", query.SICCode)
	}
	if query.NameContains != "" {
		params.Set("q", query.NameContains)
	}
	if query.ActiveOnly {
		params.Set("company_status", "active")
	}

	var payload searchResponse
	err := c.get(ctx, "advanced-search", "/advanced-search/companies", params, &payload)
	if errors.Is(err, errEndOfResults) {
		return Page{}, nil
	}
	if err != nil {
		return Page{}, err
	}
	return Page{Items: payload.Items, TotalHits: payload.Hits}, nil
}

// Officers fetches the officer list for one company.
func (c *Client) Officers(ctx context.Context, companyNumber string) ([]Officer, error) {
	var payload officersResponse
	path := fmt.Sprintf("/company/%s/officers", url.PathEscape(companyNumber))
	if err := c.get(ctx, "officers", path, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// PSCs fetches the persons-with-significant-control list for one company.
func (c *Client) PSCs(ctx context.Context, companyNumber string) ([]PSC, error) {
	var payload pscResponse
	path := fmt.Sprintf("/company/%s/persons-with-significant-control", url.PathEscape(companyNumber))
	if err := c.get(ctx, "psc", path, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// get performs one authenticated GET with bounded retries. Rate-limit
// responses back off and retry; auth rejections and missing resources fail
// immediately; everything else retries and eventually surfaces as an
// upstream failure.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, target any) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return err
		}
		// The registry uses HTTP Basic with the key as username and no password.
		req.SetBasicAuth(c.apiKey, "")

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			c.logger.Warn("registry request failed",
				slog.String("endpoint", endpoint),
				slog.Int("attempt", attempt),
				slog.Any("error", err))
			if attempt < c.maxAttempts {
				if err := sleep(ctx, c.retryBackoff); err != nil {
					return err
				}
			}
			continue
		}
		c.metrics.ObserveUpstream(endpoint, resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode == http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(target)
			closeBody(resp)
			if err != nil {
				return fmt.Errorf("decode %s response: %w", endpoint, err)
			}
			return nil
		case resp.StatusCode == http.StatusRequestedRangeNotSatisfiable:
			closeBody(resp)
			return errEndOfResults
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			closeBody(resp)
			return fmt.Errorf("%w: status %d", httpx.ErrAuth, resp.StatusCode)
		case resp.StatusCode == http.StatusNotFound:
			closeBody(resp)
			return fmt.Errorf("%w: %s", httpx.ErrNotFound, path)
		case resp.StatusCode == http.StatusTooManyRequests:
			closeBody(resp)
			lastErr = fmt.Errorf("rate limited on attempt %d", attempt)
			c.logger.Warn("registry rate limited",
				slog.String("endpoint", endpoint),
				slog.Duration("backoff", c.rateBackoff))
			if attempt < c.maxAttempts {
				if err := sleep(ctx, c.rateBackoff); err != nil {
					return err
				}
			}
			continue
		default:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			closeBody(resp)
			lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, body)
			c.logger.Warn("registry error response",
				slog.String("endpoint", endpoint),
				slog.Int("status", resp.StatusCode),
				slog.Int("attempt", attempt))
			if attempt < c.maxAttempts {
				if err := sleep(ctx, c.retryBackoff); err != nil {
					return err
				}
			}
			continue
		}
	}
	return fmt.Errorf("%w: %s failed after %d attempts: %v", httpx.ErrUpstream, endpoint, c.maxAttempts, lastErr)
}

func closeBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
