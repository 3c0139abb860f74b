package gateway

import (
	"context"

	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/model"
)

// Mock implements Gateway for testing.
// Each method can be configured via function fields.
type Mock struct {
	FetchCartFunc    func(ctx context.Context) ([]model.CartItem, error)
	AddProductFunc   func(ctx context.Context, req AddProductRequest) (*model.CartItem, error)
	RemoveItemFunc   func(ctx context.Context, remoteLineID int64) error
	SyncCartFunc     func(ctx context.Context, items []SyncItem) error
	LookupPricesFunc func(ctx context.Context, q PriceQuery) (*PriceBatch, error)
}

// FetchCart calls the configured FetchCartFunc or returns an empty cart.
func (m *Mock) FetchCart(ctx context.Context) ([]model.CartItem, error) {
	if m.FetchCartFunc != nil {
		return m.FetchCartFunc(ctx)
	}
	return nil, nil
}

// AddProduct calls the configured AddProductFunc or returns an error.
func (m *Mock) AddProduct(ctx context.Context, req AddProductRequest) (*model.CartItem, error) {
	if m.AddProductFunc != nil {
		return m.AddProductFunc(ctx, req)
	}
	return nil, model.NewNotFoundError("product")
}

// RemoveItem calls the configured RemoveItemFunc or succeeds.
func (m *Mock) RemoveItem(ctx context.Context, remoteLineID int64) error {
	if m.RemoveItemFunc != nil {
		return m.RemoveItemFunc(ctx, remoteLineID)
	}
	return nil
}

// SyncCart calls the configured SyncCartFunc or succeeds.
func (m *Mock) SyncCart(ctx context.Context, items []SyncItem) error {
	if m.SyncCartFunc != nil {
		return m.SyncCartFunc(ctx, items)
	}
	return nil
}

// LookupPrices calls the configured LookupPricesFunc or returns an empty batch.
func (m *Mock) LookupPrices(ctx context.Context, q PriceQuery) (*PriceBatch, error) {
	if m.LookupPricesFunc != nil {
		return m.LookupPricesFunc(ctx, q)
	}
	return &PriceBatch{}, nil
}

// Verify Mock implements Gateway interface at compile time.
var _ Gateway = (*Mock)(nil)
