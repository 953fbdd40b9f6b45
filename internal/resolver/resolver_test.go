package resolver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"checkout-bridge/internal/catalog"
	"checkout-bridge/internal/index"
	"checkout-bridge/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixtureCatalog serves a small fixed catalog for both live search and
// enumeration.
func fixtureCatalog() *catalog.Mock {
	variants := map[string]*model.VariantMatch{
		"XVA": {VariantID: "gid://1", ProductTitle: "Vanilla", VariantTitle: "10ml"},
		"XVB": {VariantID: "gid://2", ProductTitle: "Bergamot"},
	}
	return &catalog.Mock{
		FindBySKUFunc: func(ctx context.Context, sku string) (*model.VariantMatch, error) {
			return variants[sku], nil
		},
		EnumeratePageFunc: func(ctx context.Context, cursor string) (*catalog.Page, error) {
			return &catalog.Page{
				Entries: []catalog.PageEntry{
					{SKU: "XVA", VariantID: "gid://1", ProductTitle: "Vanilla"},
					{SKU: "XVB", VariantID: "gid://2", ProductTitle: "Bergamot"},
				},
			}, nil
		},
	}
}

func TestOnDemandResolveAllMatch(t *testing.T) {
	r := NewOnDemand(fixtureCatalog(), testLogger())

	props := []model.ItemProperty{{Name: "Engraving", Value: "AB"}}
	items := []model.CartItem{
		{SKU: "XVA", Quantity: 2, Properties: props},
		{SKU: "XVB", Quantity: 1},
	}

	res, err := r.Resolve(context.Background(), items)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	if len(res.LineItems) != 2 {
		t.Fatalf("len(LineItems) = %d, want 2 (one per input item)", len(res.LineItems))
	}
	want := model.ResolvedLineItem{VariantID: "gid://1", Quantity: 2, Attributes: props}
	if !reflect.DeepEqual(res.LineItems[0], want) {
		t.Errorf("LineItems[0] = %+v, want %+v", res.LineItems[0], want)
	}
	if res.LineItems[1].Attributes != nil {
		t.Errorf("LineItems[1].Attributes = %+v, want nil for item without properties", res.LineItems[1].Attributes)
	}
	if len(res.Unmatched) != 0 {
		t.Errorf("Unmatched = %v, want empty", res.Unmatched)
	}
	if len(res.Matched) != 2 || res.Matched[0].ProductTitle != "Vanilla" || res.Matched[0].Quantity != 2 {
		t.Errorf("Matched = %+v", res.Matched)
	}
}

func TestOnDemandResolveDropsMisses(t *testing.T) {
	r := NewOnDemand(fixtureCatalog(), testLogger())

	items := []model.CartItem{
		{SKU: "XVA", Quantity: 1},
		{SKU: "UNKNOWN", Quantity: 3},
	}

	res, err := r.Resolve(context.Background(), items)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	if len(res.LineItems) != 1 {
		t.Errorf("len(LineItems) = %d, want 1", len(res.LineItems))
	}
	if !reflect.DeepEqual(res.Unmatched, []string{"UNKNOWN"}) {
		t.Errorf("Unmatched = %v, want [UNKNOWN]", res.Unmatched)
	}
}

func TestOnDemandResolveAllMiss(t *testing.T) {
	r := NewOnDemand(fixtureCatalog(), testLogger())

	res, err := r.Resolve(context.Background(), []model.CartItem{{SKU: "UNKNOWN", Quantity: 1}})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if len(res.LineItems) != 0 {
		t.Errorf("len(LineItems) = %d, want 0", len(res.LineItems))
	}
}

func TestOnDemandResolveSearchError(t *testing.T) {
	mock := &catalog.Mock{
		FindBySKUFunc: func(ctx context.Context, sku string) (*model.VariantMatch, error) {
			return nil, model.NewUpstreamError("Shopify", errors.New("timeout"))
		},
	}
	r := NewOnDemand(mock, testLogger())

	if _, err := r.Resolve(context.Background(), []model.CartItem{{SKU: "XVA", Quantity: 1}}); err == nil {
		t.Error("Resolve() error = nil, want upstream error")
	}
}

func cachedResolver(t *testing.T) *Cached {
	t.Helper()
	idx := index.New(fixtureCatalog(), 0, testLogger())
	if _, err := idx.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild() error: %v", err)
	}
	return NewCached(idx, testLogger())
}

func TestCachedResolve(t *testing.T) {
	r := cachedResolver(t)

	items := []model.CartItem{
		{SKU: "XVA", Quantity: 2},
		{SKU: "UNKNOWN", Quantity: 1},
	}

	res, err := r.Resolve(context.Background(), items)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	if len(res.LineItems) != 1 || res.LineItems[0].VariantID != "gid://1" {
		t.Errorf("LineItems = %+v, want single gid://1 line", res.LineItems)
	}
	if res.LineItems[0].Quantity != 2 {
		t.Errorf("Quantity = %d, want 2", res.LineItems[0].Quantity)
	}
	if !reflect.DeepEqual(res.Unmatched, []string{"UNKNOWN"}) {
		t.Errorf("Unmatched = %v, want [UNKNOWN]", res.Unmatched)
	}
}

func TestCachedLookupSKU(t *testing.T) {
	r := cachedResolver(t)

	match, err := r.LookupSKU(context.Background(), "XVB")
	if err != nil {
		t.Fatalf("LookupSKU() error: %v", err)
	}
	if match == nil || match.VariantID != "gid://2" {
		t.Errorf("match = %+v, want gid://2", match)
	}

	miss, err := r.LookupSKU(context.Background(), "UNKNOWN")
	if err != nil {
		t.Fatalf("LookupSKU() error: %v", err)
	}
	if miss != nil {
		t.Errorf("miss = %+v, want nil", miss)
	}
}

func TestSourceNames(t *testing.T) {
	if got := NewOnDemand(&catalog.Mock{}, testLogger()).Source(); got != SourceLive {
		t.Errorf("OnDemand.Source() = %s, want %s", got, SourceLive)
	}
	if got := cachedResolver(t).Source(); got != SourceCache {
		t.Errorf("Cached.Source() = %s, want %s", got, SourceCache)
	}
}
