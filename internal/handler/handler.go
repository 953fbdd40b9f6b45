// Package handler provides the HTTP surface of the checkout bridge.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"checkout-bridge/internal/bridge"
	"checkout-bridge/internal/index"
	"checkout-bridge/internal/model"
	"checkout-bridge/internal/resolver"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	service  *bridge.Service
	resolver resolver.Resolver
	index    *index.Manager // nil in on-demand deployments
	logger   *slog.Logger
}

// New creates a Handler. The index manager may be nil when the deployment
// uses on-demand resolution; the refresh endpoint is then not registered.
func New(service *bridge.Service, res resolver.Resolver, idx *index.Manager, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		resolver: res,
		index:    idx,
		logger:   logger,
	}
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /checkout-bridge", h.handleBridge)
	mux.HandleFunc("GET /debug/{sku}", h.handleDebug)

	if h.index != nil {
		mux.HandleFunc("GET /refresh", h.handleRefresh)
	}

	// Liveness
	mux.HandleFunc("GET /{$}", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// === Response Helpers ===

// writeJSON sends a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError sends an error response, extracting status/code from APIError
// if present. Uses errors.As() to unwrap error chains.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError

	if errors.As(err, &apiErr) {
		// Found APIError in error chain - use it
	} else {
		apiErr = &model.APIError{
			Code:       "INTERNAL_ERROR",
			Message:    "an internal error occurred",
			StatusCode: http.StatusInternalServerError,
		}
		h.logger.Error("internal error", slog.String("error", err.Error()))
	}

	h.writeJSON(w, apiErr.StatusCode, errorResponse{
		Error: errorBody{
			Code:    apiErr.Code,
			Message: apiErr.Message,
		},
	})
}

// errorResponse is the JSON structure for error responses.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MaxRequestBodySize limits JSON request bodies to 1MB to prevent DoS.
const MaxRequestBodySize = 1 << 20 // 1MB

// decodeJSON reads JSON from request body into v.
// Limits body size to MaxRequestBodySize to prevent memory exhaustion.
// Returns an APIError if decoding fails.
func decodeJSON(r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Don't expose internal error details to client
		return model.NewValidationError("body", "invalid JSON")
	}
	return nil
}
