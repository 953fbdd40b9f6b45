// Package catalog defines the interface to the destination store's
// product catalog and cart API. Implementations translate these calls to
// the platform's wire protocol; the resolver and index stay protocol-free.
package catalog

import (
	"context"

	"checkout-bridge/internal/model"
)

// Client abstracts the destination store's catalog operations.
//
// All methods are pure request/response; the client holds no cart or
// session state between calls.
type Client interface {
	// FindBySKU searches the catalog for a variant whose SKU exactly equals
	// sku. Returns (nil, nil) when no variant matches - a miss is not an
	// error. When several variants carry the same SKU, the first in the
	// platform's response order is returned; that ordering is not a
	// guaranteed tie-break.
	FindBySKU(ctx context.Context, sku string) (*model.VariantMatch, error)

	// EnumeratePage fetches one page of the full catalog. Pass an empty
	// cursor for the first page; subsequent pages use the cursor from the
	// previous result. Pages include every variant, including those with
	// blank SKUs - filtering is the caller's concern.
	EnumeratePage(ctx context.Context, cursor string) (*Page, error)

	// CreateCart creates a cart on the destination store with all line
	// items in a single mutation and returns its checkout URL. Platform
	// validation failures come back in Result.UserErrors, not as an error;
	// the error return is reserved for transport and protocol failures.
	CreateCart(ctx context.Context, lines []model.ResolvedLineItem) (*Result, error)
}

// PageEntry is one variant from a catalog enumeration page. SKU is the
// raw platform value and may be blank or padded with whitespace.
type PageEntry struct {
	SKU          string
	VariantID    string
	ProductTitle string
}

// Page is one page of catalog enumeration.
type Page struct {
	Entries []PageEntry

	// HasNextPage reports whether another page follows.
	HasNextPage bool

	// EndCursor is the continuation token for the next page. Only
	// meaningful when HasNextPage is true.
	EndCursor string
}

// UserError is a platform-side validation failure for a cart mutation.
type UserError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Result is the outcome of a cart creation call.
type Result struct {
	// CheckoutURL is the buyer-facing checkout URL. Empty when the
	// platform rejected the cart.
	CheckoutURL string

	// UserErrors holds platform validation messages. Non-empty UserErrors
	// with an empty CheckoutURL means the cart was rejected.
	UserErrors []UserError
}
