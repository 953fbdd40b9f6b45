// Package model defines the domain types shared across the bridge:
// incoming cart items, catalog entries, resolved line items, and the
// terminal outcome of a bridge request.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ItemProperty is free-form key-value metadata attached to a cart line item.
// Properties are passed through to the destination cart unchanged; the
// bridge assigns them no meaning. Order is preserved.
type ItemProperty struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CartItem is a single requested line from the calling storefront.
type CartItem struct {
	SKU        string         `json:"sku"`
	Quantity   int            `json:"quantity"`
	Properties []ItemProperty `json:"properties,omitempty"`
}

// Validate checks caller-supplied fields. Quantity below 1 and blank SKUs
// are caller errors, not resolution misses.
func (i CartItem) Validate() error {
	if strings.TrimSpace(i.SKU) == "" {
		return NewValidationError("sku", "must not be empty")
	}
	if i.Quantity < 1 {
		return NewValidationError("quantity", fmt.Sprintf("must be at least 1, got %d", i.Quantity))
	}
	return nil
}

// CartItems decodes from either a JSON array or a JSON string containing a
// serialized array. Shopify cart forms post the latter shape
// (items="[{...}]"), fetch-based callers post the former.
type CartItems []CartItem

func (c *CartItems) UnmarshalJSON(data []byte) error {
	// String form: unwrap, then decode the embedded array.
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		var items []CartItem
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return fmt.Errorf("parsing serialized items: %w", err)
		}
		*c = items
		return nil
	}

	var items []CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*c = items
	return nil
}

// CatalogEntry is one SKU's resolution target, produced by full catalog
// enumeration. Entries are immutable; a rebuild replaces the whole set.
type CatalogEntry struct {
	SKU          string `json:"sku"`
	VariantID    string `json:"variant_id"`
	ProductTitle string `json:"product_title"`
}

// VariantMatch is the result of a live per-SKU catalog search.
type VariantMatch struct {
	VariantID    string `json:"variant_id"`
	ProductTitle string `json:"product_title"`
	VariantTitle string `json:"variant_title,omitempty"`
}

// ResolvedLineItem is the input to cart creation: a platform variant ID,
// the requested quantity, and any pass-through attributes.
type ResolvedLineItem struct {
	VariantID  string         `json:"variant_id"`
	Quantity   int            `json:"quantity"`
	Attributes []ItemProperty `json:"attributes,omitempty"`
}

// MatchedItem is the human-readable summary entry used only by the
// notification message.
type MatchedItem struct {
	ProductTitle string `json:"product_title"`
	Quantity     int    `json:"quantity"`
}
