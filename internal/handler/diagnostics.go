package handler

import (
	"log/slog"
	"net/http"
	"time"

	"checkout-bridge/internal/model"
)

// debugResponse reports one SKU's resolution state.
type debugResponse struct {
	SKU          string `json:"sku"`
	Source       string `json:"source"`
	Found        bool   `json:"found"`
	VariantID    string `json:"variant_id,omitempty"`
	ProductTitle string `json:"product_title,omitempty"`
	VariantTitle string `json:"variant_title,omitempty"`
}

// handleDebug resolves a single SKU through the active strategy.
// GET /debug/{sku}
func (h *Handler) handleDebug(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sku := r.PathValue("sku")

	if sku == "" {
		h.writeError(w, model.NewValidationError("sku", "required"))
		return
	}

	match, err := h.resolver.LookupSKU(ctx, sku)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := debugResponse{
		SKU:    sku,
		Source: h.resolver.Source(),
	}
	if match != nil {
		resp.Found = true
		resp.VariantID = match.VariantID
		resp.ProductTitle = match.ProductTitle
		resp.VariantTitle = match.VariantTitle
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// refreshResponse reports the size of a freshly rebuilt index.
type refreshResponse struct {
	Size int `json:"size"`
}

// handleRefresh forces an immediate index rebuild and returns the new
// snapshot's size. Only registered in cached deployments.
// GET /refresh
func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	size, err := h.index.Rebuild(ctx)
	if err != nil {
		h.logger.Error("manual index rebuild failed", slog.String("error", err.Error()))
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, refreshResponse{Size: size})
}

// healthResponse is the liveness payload. Index fields appear only in
// cached deployments.
type healthResponse struct {
	Status       string `json:"status"`
	Timestamp    string `json:"timestamp"`
	Strategy     string `json:"strategy"`
	IndexSize    *int   `json:"index_size,omitempty"`
	IndexBuiltAt string `json:"index_built_at,omitempty"`
}

// handleHealth returns liveness plus index freshness.
// GET /, GET /healthz
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Strategy:  h.resolver.Source(),
	}

	if h.index != nil {
		snap := h.index.Current()
		size := snap.Size()
		resp.IndexSize = &size
		if !snap.BuiltAt().IsZero() {
			resp.IndexBuiltAt = snap.BuiltAt().UTC().Format(time.RFC3339)
		}
	}

	h.writeJSON(w, http.StatusOK, resp)
}
