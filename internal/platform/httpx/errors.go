// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for the search and export pipeline.
var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("resource not found")
	ErrAuth        = errors.New("registry rejected credentials")
	ErrUpstream    = errors.New("registry unavailable")
	ErrEmptyExport = errors.New("nothing to export")
)

// RespondError maps pipeline errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrEmptyExport):
		Problem(w, http.StatusBadRequest, "Empty Export", err.Error())
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrAuth):
		Problem(w, http.StatusBadGateway, "Registry Auth Failed", err.Error())
	case errors.Is(err, ErrUpstream):
		Problem(w, http.StatusBadGateway, "Registry Unavailable", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
