// Package pricing derives the chargeable unit price for a cart line from
// its cached product snapshot and variant selection.
package pricing

import (
	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/model"
)

// PriceInfo is the resolved price state of one line.
// All amounts are minor currency units.
type PriceInfo struct {
	Current    int64 // price actually charged per unit
	Reference  int64 // listed price before discount
	Discounted bool
}

// Resolve computes the current chargeable unit price for a snapshot and an
// optional variant selection. A selected variant's own price and discount
// fields take precedence over the parent product's; without a variant the
// product's own fields apply. Never fails: absent discounts resolve to the
// listed price.
func Resolve(snap *model.ProductSnapshot, sel model.VariantSelection) PriceInfo {
	if snap == nil {
		return PriceInfo{}
	}

	price, discount := snap.Price, snap.DiscountPrice

	if sel.VolumeOptionID != 0 {
		if opt := snap.VolumeOption(sel.VolumeOptionID); opt != nil {
			price, discount = opt.Price, opt.DiscountPrice
		}
	} else if sel.WeightOptionID != 0 {
		if opt := snap.WeightOption(sel.WeightOptionID); opt != nil {
			price, discount = opt.Price, opt.DiscountPrice
		}
	}

	if discount > 0 && discount < price {
		return PriceInfo{Current: discount, Reference: price, Discounted: true}
	}
	return PriceInfo{Current: price, Reference: price}
}

// LineTotal returns the resolved price of an item multiplied by its quantity.
func LineTotal(it model.CartItem) int64 {
	return Resolve(&it.Snapshot, it.Variant).Current * int64(it.Quantity)
}
