// Package resolver turns requested cart items into destination-store line
// items. Two strategies exist - one per deployment, selected by config:
//
//   - OnDemand queries the catalog per SKU, one sequential round trip
//     each. No warm-up, but latency grows linearly with item count.
//   - Cached looks SKUs up in the in-memory index, no network per item.
//
// Both drop unmatched SKUs from the line items without failing the
// request; misses are reported back for diagnostics and the "all missed"
// decision is the assembler's.
package resolver

import (
	"context"
	"log/slog"

	"checkout-bridge/internal/catalog"
	"checkout-bridge/internal/index"
	"checkout-bridge/internal/model"
)

// Strategy names, used in config and in /debug output.
const (
	SourceLive  = "live"
	SourceCache = "cache"
)

// Resolution is the outcome of resolving one request's items.
type Resolution struct {
	// LineItems holds one entry per matched input item, in input order,
	// with quantity and properties passed through.
	LineItems []model.ResolvedLineItem

	// Matched summarizes the resolved items for notification.
	Matched []model.MatchedItem

	// Unmatched lists requested SKUs with no catalog match.
	Unmatched []string
}

// Resolver resolves requested items against the destination catalog.
type Resolver interface {
	Resolve(ctx context.Context, items []model.CartItem) (*Resolution, error)

	// LookupSKU resolves a single SKU for diagnostics.
	// Returns (nil, nil) on a miss.
	LookupSKU(ctx context.Context, sku string) (*model.VariantMatch, error)

	// Source identifies the strategy in health and debug responses.
	Source() string
}

// OnDemand resolves each SKU with a live catalog search.
type OnDemand struct {
	catalog catalog.Client
	logger  *slog.Logger
}

// NewOnDemand creates the per-request lookup strategy.
func NewOnDemand(client catalog.Client, logger *slog.Logger) *OnDemand {
	return &OnDemand{catalog: client, logger: logger}
}

// Resolve looks each SKU up against the catalog, sequentially. A search
// failure aborts the whole request (the bridge converts it to a terminal
// outcome); a plain miss only drops that item.
func (r *OnDemand) Resolve(ctx context.Context, items []model.CartItem) (*Resolution, error) {
	res := &Resolution{}
	for _, item := range items {
		match, err := r.catalog.FindBySKU(ctx, item.SKU)
		if err != nil {
			return nil, err
		}
		if match == nil {
			res.miss(r.logger, item.SKU)
			continue
		}
		res.add(item, match.VariantID, match.ProductTitle)
	}
	return res, nil
}

// LookupSKU performs a single live search.
func (r *OnDemand) LookupSKU(ctx context.Context, sku string) (*model.VariantMatch, error) {
	return r.catalog.FindBySKU(ctx, sku)
}

// Source returns the strategy name.
func (r *OnDemand) Source() string { return SourceLive }

// Cached resolves SKUs against the in-memory index. No network per item.
type Cached struct {
	index  *index.Manager
	logger *slog.Logger
}

// NewCached creates the index-lookup strategy.
func NewCached(idx *index.Manager, logger *slog.Logger) *Cached {
	return &Cached{index: idx, logger: logger}
}

// Resolve looks each SKU up in the current index snapshot. The snapshot
// reference is taken once so every item in one request resolves against
// the same catalog view, even if a rebuild completes mid-request.
func (r *Cached) Resolve(ctx context.Context, items []model.CartItem) (*Resolution, error) {
	snap := r.index.Current()
	res := &Resolution{}
	for _, item := range items {
		entry, ok := snap.Lookup(item.SKU)
		if !ok {
			res.miss(r.logger, item.SKU)
			continue
		}
		res.add(item, entry.VariantID, entry.ProductTitle)
	}
	return res, nil
}

// LookupSKU resolves a single SKU from the current snapshot.
func (r *Cached) LookupSKU(ctx context.Context, sku string) (*model.VariantMatch, error) {
	entry, ok := r.index.Lookup(sku)
	if !ok {
		return nil, nil
	}
	return &model.VariantMatch{
		VariantID:    entry.VariantID,
		ProductTitle: entry.ProductTitle,
	}, nil
}

// Source returns the strategy name.
func (r *Cached) Source() string { return SourceCache }

// add records a successful match, passing quantity and any properties
// through unchanged.
func (res *Resolution) add(item model.CartItem, variantID, productTitle string) {
	line := model.ResolvedLineItem{
		VariantID: variantID,
		Quantity:  item.Quantity,
	}
	if len(item.Properties) > 0 {
		line.Attributes = item.Properties
	}
	res.LineItems = append(res.LineItems, line)
	res.Matched = append(res.Matched, model.MatchedItem{
		ProductTitle: productTitle,
		Quantity:     item.Quantity,
	})
}

// miss records an unmatched SKU. Misses never fail the request by
// themselves.
func (res *Resolution) miss(logger *slog.Logger, sku string) {
	logger.Debug("sku not matched", slog.String("sku", sku))
	res.Unmatched = append(res.Unmatched, sku)
}

// Verify both strategies implement Resolver at compile time.
var (
	_ Resolver = (*OnDemand)(nil)
	_ Resolver = (*Cached)(nil)
)
