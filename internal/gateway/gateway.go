// Package gateway is the boundary to the storefront backend's cart and
// pricing endpoints. It owns the wire shapes, the HTTP client, and the
// typed error mapping; everything above it works in domain types.
package gateway

import (
	"context"

	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/model"
)

// Gateway abstracts the remote cart operations the engine performs.
// The HTTP Client is the production implementation; Mock serves tests.
type Gateway interface {
	// FetchCart retrieves the authoritative cart. Rows referencing
	// products the engine cannot interpret are skipped, not fatal.
	FetchCart(ctx context.Context) ([]model.CartItem, error)

	// AddProduct creates or increments a cart row and returns the row in
	// domain form, including its authoritative backend ID.
	AddProduct(ctx context.Context, req AddProductRequest) (*model.CartItem, error)

	// RemoveItem deletes a cart row by its backend ID.
	RemoveItem(ctx context.Context, remoteLineID int64) error

	// SyncCart replaces the backend cart wholesale with the given lines.
	SyncCart(ctx context.Context, items []SyncItem) error

	// LookupPrices resolves canonical product snapshots for the given
	// IDs, batched per product type.
	LookupPrices(ctx context.Context, q PriceQuery) (*PriceBatch, error)
}

// AddProductRequest identifies the product (and optional variant) to add.
type AddProductRequest struct {
	Type     model.ProductType
	ID       int64
	Quantity int
	Variant  model.VariantSelection
}

// SyncItem is one line of a wholesale cart replacement.
type SyncItem struct {
	ProductType    model.ProductType `json:"product_type"`
	ProductID      int64             `json:"product_id"`
	Quantity       int               `json:"quantity"`
	VolumeOptionID int64             `json:"volume_option_id"`
	WeightOptionID int64             `json:"weight_option_id"`
}

// SyncItemsFromCart projects cart lines into sync payload form: identity,
// quantity, and variant selection only — the backend re-derives everything
// else from its catalog.
func SyncItemsFromCart(items []model.CartItem) []SyncItem {
	out := make([]SyncItem, len(items))
	for i, it := range items {
		out[i] = SyncItem{
			ProductType:    it.Type,
			ProductID:      it.Snapshot.ID,
			Quantity:       it.Quantity,
			VolumeOptionID: it.Variant.VolumeOptionID,
			WeightOptionID: it.Variant.WeightOptionID,
		}
	}
	return out
}

// PriceQuery lists the product IDs to revalidate, partitioned by type.
type PriceQuery struct {
	Perfumes []int64 `json:"perfumes"`
	Pigments []int64 `json:"pigments"`
}

// IsEmpty reports whether the query names no products.
func (q PriceQuery) IsEmpty() bool {
	return len(q.Perfumes) == 0 && len(q.Pigments) == 0
}

// PriceBatch carries the canonical snapshots the backend returned,
// partitioned the same way as the query.
type PriceBatch struct {
	Perfumes []model.ProductSnapshot
	Pigments []model.ProductSnapshot
}
