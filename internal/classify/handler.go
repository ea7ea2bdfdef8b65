package classify

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/registryscout/registryscout/internal/platform/httpx"
	"github.com/registryscout/registryscout/internal/search"
)

// Handler coordinates HTTP requests for AI classification.
type Handler struct {
	logger *slog.Logger
	client *Client
}

// NewHandler constructs the classify HTTP handler.
func NewHandler(logger *slog.Logger, client *Client) *Handler {
	return &Handler{logger: logger, client: client}
}

// MountRoutes registers the classification endpoint.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/api/classify", h.handleClassify)
}

type classifyRequest struct {
	Companies          []search.CompanyRecord `json:"companies"`
	ChannelDefinitions string                 `json:"channel_definitions"`
}

type classifyResponse struct {
	Companies []ClassifiedCompany `json:"companies"`
	Count     int                 `json:"count"`
}

func (h *Handler) handleClassify(w http.ResponseWriter, r *http.Request) {
	if !h.client.Available() {
		httpx.Problem(w, http.StatusServiceUnavailable, "Classifier Not Configured",
			"set LLM_BASE_URL and LLM_MODEL to enable AI classification")
		return
	}
	var req classifyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed request body", httpx.ErrValidation))
		return
	}
	if len(req.Companies) == 0 {
		httpx.RespondError(w, fmt.Errorf("%w: no companies to classify", httpx.ErrValidation))
		return
	}

	classified, err := h.client.ClassifyBatch(r.Context(), req.Companies, req.ChannelDefinitions)
	if err != nil {
		h.logger.Error("classification failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, classifyResponse{Companies: classified, Count: len(classified)})
}
