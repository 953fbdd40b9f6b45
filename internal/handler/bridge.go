package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"checkout-bridge/internal/model"
)

// bridgeRequest is the POST /checkout-bridge body. Items accepts both a
// JSON array and a JSON-serialized string (the shape storefront cart
// forms post).
type bridgeRequest struct {
	Items model.CartItems `json:"items"`
}

// handleBridge runs one bridge request end to end.
// POST /checkout-bridge
func (h *Handler) handleBridge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	items, err := h.parseItems(r)
	if err != nil {
		h.logger.Info("unparseable bridge payload", slog.String("error", err.Error()))
		// Malformed payloads take the same path as an empty item list:
		// the service turns it into the policy's caller-error outcome.
		items = nil
	}

	h.logger.InfoContext(ctx, "bridging cart",
		slog.Int("items", len(items)),
	)

	outcome := h.service.Bridge(ctx, items)
	h.writeOutcome(w, r, outcome)
}

// parseItems extracts the requested items from a form post or JSON body.
func (h *Handler) parseItems(r *http.Request) ([]model.CartItem, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(contentType, "multipart/form-data") {
		raw := r.FormValue("items")
		if raw == "" {
			return nil, model.NewValidationError("items", "missing form field")
		}
		var items []model.CartItem
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return nil, model.NewValidationError("items", "invalid JSON in form field")
		}
		return items, nil
	}

	var req bridgeRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}
	return req.Items, nil
}

// writeOutcome translates a terminal outcome into the HTTP response.
func (h *Handler) writeOutcome(w http.ResponseWriter, r *http.Request, outcome *model.Outcome) {
	switch outcome.Kind {
	case model.OutcomeRedirected:
		// Keep the checkout URL out of referrer headers and caches.
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		http.Redirect(w, r, outcome.URL, http.StatusFound)

	case model.OutcomeFallback:
		http.Redirect(w, r, outcome.URL, http.StatusFound)

	case model.OutcomeRejected:
		h.writeError(w, outcome.Err)

	default:
		h.writeError(w, model.NewInternalError(nil))
	}
}
