// Package model holds the shared domain types for the cart engine:
// product snapshots, cart lines, money helpers, and typed errors.
package model

import (
	"fmt"
	"strconv"
)

// ProductType distinguishes the two catalog families the storefront sells.
// The backend keys its cart and price endpoints by this tag.
type ProductType string

const (
	ProductPerfume ProductType = "perfume"
	ProductPigment ProductType = "pigment"
)

// ParseProductType validates a product type tag from wire data.
func ParseProductType(s string) (ProductType, error) {
	switch ProductType(s) {
	case ProductPerfume, ProductPigment:
		return ProductType(s), nil
	}
	return "", fmt.Errorf("unknown product type %q", s)
}

// VolumeOption is a perfume packaging size with its own price point.
type VolumeOption struct {
	ID            int64  `json:"id"`
	Volume        string `json:"volume"` // display label, e.g. "50ml"
	Price         int64  `json:"price"`
	DiscountPrice int64  `json:"discount_price"` // 0 = no discount
}

// WeightOption is a pigment packaging size with its own price point.
type WeightOption struct {
	ID            int64  `json:"id"`
	Weight        string `json:"weight"` // display label, e.g. "100g"
	Price         int64  `json:"price"`
	DiscountPrice int64  `json:"discount_price"` // 0 = no discount
}

// ProductSnapshot is the catalog state cached on a cart line at the moment
// the item was added. All amounts are minor currency units.
//
// A snapshot can go stale the moment the catalog changes; the price
// reconciler replaces stale snapshots with canonical ones from the backend.
type ProductSnapshot struct {
	ID            int64          `json:"id"`
	Name          string         `json:"name"`
	Price         int64          `json:"price"`
	DiscountPrice int64          `json:"discount_price"` // 0 = no discount
	Available     bool           `json:"available"`
	VolumeOptions []VolumeOption `json:"volumes,omitempty"`
	WeightOptions []WeightOption `json:"weights,omitempty"`
}

// VolumeOption returns the volume option with the given ID, or nil.
func (p *ProductSnapshot) VolumeOption(id int64) *VolumeOption {
	for i := range p.VolumeOptions {
		if p.VolumeOptions[i].ID == id {
			return &p.VolumeOptions[i]
		}
	}
	return nil
}

// WeightOption returns the weight option with the given ID, or nil.
func (p *ProductSnapshot) WeightOption(id int64) *WeightOption {
	for i := range p.WeightOptions {
		if p.WeightOptions[i].ID == id {
			return &p.WeightOptions[i]
		}
	}
	return nil
}

// VariantSelection identifies an optional packaging choice on a cart line.
// At most one of the two fields is set; zero means no variant selected.
type VariantSelection struct {
	VolumeOptionID int64 `json:"volume_option_id,omitempty"`
	WeightOptionID int64 `json:"weight_option_id,omitempty"`
}

// IsZero reports whether no variant is selected.
func (v VariantSelection) IsZero() bool {
	return v.VolumeOptionID == 0 && v.WeightOptionID == 0
}

// IdentityKey is the single canonical rule for deciding which cart line an
// add or update targets: product type + product ID + variant selection.
// Two lines with the same key must never coexist.
func IdentityKey(pt ProductType, productID int64, sel VariantSelection) string {
	key := string(pt) + ":" + strconv.FormatInt(productID, 10)
	switch {
	case sel.VolumeOptionID != 0:
		key += ":v" + strconv.FormatInt(sel.VolumeOptionID, 10)
	case sel.WeightOptionID != 0:
		key += ":w" + strconv.FormatInt(sel.WeightOptionID, 10)
	}
	return key
}
