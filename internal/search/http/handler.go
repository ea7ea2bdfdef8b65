// Package searchhttp exposes the search pipeline over HTTP.
package searchhttp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/registryscout/registryscout/internal/platform/httpx"
	"github.com/registryscout/registryscout/internal/search"
	"github.com/registryscout/registryscout/internal/sic"
)

// SearchService runs one aggregation for validated criteria.
type SearchService interface {
	Search(ctx context.Context, criteria search.Criteria) (search.Result, error)
}

// Handler coordinates HTTP requests for company search.
type Handler struct {
	logger    *slog.Logger
	service   SearchService
	validator *validator.Validate
}

// NewHandler constructs the search HTTP handler.
func NewHandler(logger *slog.Logger, service SearchService) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers the search endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/api/search", h.handleSearch)
	r.Get("/api/sic-codes", h.handleSICCodes)
}

type searchRequest struct {
	SICCodes        []string `json:"sic_codes" validate:"omitempty,dive,len=5,numeric"`
	IncludeKeywords []string `json:"include_keywords" validate:"omitempty,dive,min=1"`
	ExcludeKeywords []string `json:"exclude_keywords"`
	// Booleans are pointers so an omitted field keeps its default: active-only
	// and the Northern Ireland exclusion default on, people data defaults off.
	ActiveOnly             *bool `json:"active_only"`
	ExcludeNorthernIreland *bool `json:"exclude_northern_ireland"`
	IncludePeople          bool  `json:"include_people"`
}

func (req searchRequest) criteria() search.Criteria {
	orDefault := func(v *bool, def bool) bool {
		if v == nil {
			return def
		}
		return *v
	}
	return search.Criteria{
		SICCodes:               req.SICCodes,
		IncludeKeywords:        req.IncludeKeywords,
		ExcludeKeywords:        req.ExcludeKeywords,
		ActiveOnly:             orDefault(req.ActiveOnly, true),
		ExcludeNorthernIreland: orDefault(req.ExcludeNorthernIreland, true),
		IncludePeople:          req.IncludePeople,
	}
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed request body", httpx.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: SIC codes must be 5-digit strings and keywords non-empty", httpx.ErrValidation))
		return
	}
	criteria := req.criteria()
	if err := criteria.Validate(); err != nil {
		httpx.RespondError(w, err)
		return
	}

	logger := h.logger.With(slog.String("search_id", uuid.NewString()))
	logger.Info("search started",
		slog.Int("sic_codes", len(criteria.SICCodes)),
		slog.Int("include_keywords", len(criteria.IncludeKeywords)),
		slog.Bool("include_people", criteria.IncludePeople))

	result, err := h.service.Search(r.Context(), criteria)
	if err != nil {
		logger.Error("search failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	logger.Info("search finished",
		slog.Int("count", result.Count),
		slog.Bool("truncated", result.Truncated))
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleSICCodes(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, sic.All())
}
