package catalog

import (
	"context"

	"checkout-bridge/internal/model"
)

// Mock implements Client for testing.
// Each method can be configured via function fields.
type Mock struct {
	FindBySKUFunc     func(ctx context.Context, sku string) (*model.VariantMatch, error)
	EnumeratePageFunc func(ctx context.Context, cursor string) (*Page, error)
	CreateCartFunc    func(ctx context.Context, lines []model.ResolvedLineItem) (*Result, error)
}

// FindBySKU calls the configured FindBySKUFunc or reports a miss.
func (m *Mock) FindBySKU(ctx context.Context, sku string) (*model.VariantMatch, error) {
	if m.FindBySKUFunc != nil {
		return m.FindBySKUFunc(ctx, sku)
	}
	return nil, nil
}

// EnumeratePage calls the configured EnumeratePageFunc or returns an
// empty final page.
func (m *Mock) EnumeratePage(ctx context.Context, cursor string) (*Page, error) {
	if m.EnumeratePageFunc != nil {
		return m.EnumeratePageFunc(ctx, cursor)
	}
	return &Page{}, nil
}

// CreateCart calls the configured CreateCartFunc or returns an error.
func (m *Mock) CreateCart(ctx context.Context, lines []model.ResolvedLineItem) (*Result, error) {
	if m.CreateCartFunc != nil {
		return m.CreateCartFunc(ctx, lines)
	}
	return nil, model.NewInternalError(nil)
}

// Verify Mock implements Client interface at compile time.
var _ Client = (*Mock)(nil)
