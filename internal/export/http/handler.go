// Package exporthttp exposes CSV and XLSX downloads of search results.
package exporthttp

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/registryscout/registryscout/internal/export"
	"github.com/registryscout/registryscout/internal/platform/httpx"
)

const (
	csvContentType  = "text/csv; charset=utf-8"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	csvFilename  = "uk_companies.csv"
	xlsxFilename = "uk_companies.xlsx"
)

// Handler coordinates HTTP requests for result export.
type Handler struct {
	logger *slog.Logger
}

// NewHandler constructs the export HTTP handler.
func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger}
}

// MountRoutes registers the export endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/api/export/csv", h.handleCSV)
	r.Post("/api/export/excel", h.handleExcel)
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	spec, ok := h.decodeSpec(w, r)
	if !ok {
		return
	}
	// Render to a buffer first so formatter errors still produce a clean
	// problem response instead of a half-written download.
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, spec); err != nil {
		h.respondExportError(w, "csv", err)
		return
	}
	httpx.Attachment(w, csvContentType, csvFilename, buf.Bytes())
}

func (h *Handler) handleExcel(w http.ResponseWriter, r *http.Request) {
	spec, ok := h.decodeSpec(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, spec); err != nil {
		h.respondExportError(w, "xlsx", err)
		return
	}
	httpx.Attachment(w, xlsxContentType, xlsxFilename, buf.Bytes())
}

func (h *Handler) decodeSpec(w http.ResponseWriter, r *http.Request) (export.Spec, bool) {
	var spec export.Spec
	if err := httpx.DecodeJSON(r, &spec); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed export request", httpx.ErrValidation))
		return export.Spec{}, false
	}
	return spec, true
}

func (h *Handler) respondExportError(w http.ResponseWriter, format string, err error) {
	if !errors.Is(err, httpx.ErrEmptyExport) {
		h.logger.Error("export failed", slog.String("format", format), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
