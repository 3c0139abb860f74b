// Package reconcile provides the pure merge and price-drift logic for cart
// state. The session coordinator uses it to combine a guest cart with the
// authoritative remote cart at login, and to fold canonical catalog prices
// back into in-cart snapshots.
package reconcile

import (
	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/model"
	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/pricing"
)

// MergeItems combines the remote item set with the locally held guest set.
//
// Matching is by identity key. Remote items seed the result first,
// preserving their backend row IDs; local items fold in afterwards — on a
// key collision the quantities sum into the existing remote-anchored entry,
// otherwise the local item becomes a new line. Output order is
// deterministic: remote items in input order, then new local lines in
// input order.
//
// The second return value reports whether local contributed anything beyond
// what the remote set already held (new lines or added quantity); it drives
// the decision to push the merged set back to the backend.
func MergeItems(remote, local []model.CartItem) ([]model.CartItem, bool) {
	merged := make([]model.CartItem, 0, len(remote)+len(local))
	index := make(map[string]int, len(remote))

	for _, it := range remote {
		index[it.Key()] = len(merged)
		merged = append(merged, it)
	}

	localContributed := false
	for _, it := range local {
		if i, ok := index[it.Key()]; ok {
			merged[i].Quantity += it.Quantity
			localContributed = true
			continue
		}
		index[it.Key()] = len(merged)
		merged = append(merged, it)
		localContributed = true
	}

	return merged, localContributed
}

// FilterPurchasable drops items whose cached snapshot reports the product
// no longer purchasable. Used when hydrating from either source so dead
// catalog entries never reach the state store.
func FilterPurchasable(items []model.CartItem) []model.CartItem {
	out := make([]model.CartItem, 0, len(items))
	for _, it := range items {
		if it.Snapshot.Available {
			out = append(out, it)
		}
	}
	return out
}

// CanonicalKey identifies a canonical snapshot in a price batch response.
type CanonicalKey struct {
	Type model.ProductType
	ID   int64
}

// PriceUpdate is the outcome of comparing in-cart snapshots against a
// canonical price batch.
type PriceUpdate struct {
	// Items is the full item list with canonical snapshots applied.
	// Only meaningful when Changed is true.
	Items []model.CartItem

	// Changed is true when at least one line's resolved price drifted
	// from its canonical value.
	Changed bool

	// Missing lists products the batch response did not cover. Those
	// lines keep their stale snapshots; callers surface the anomaly.
	Missing []CanonicalKey
}

// ApplyPriceUpdates compares every line's resolved current price against
// the canonical snapshot for its product. If any line drifted, every line
// with a canonical snapshot gets the fresh snapshot (unchanged ones too,
// for consistency). Lines whose product is absent from the batch are left
// untouched and reported in Missing.
func ApplyPriceUpdates(items []model.CartItem, canon map[CanonicalKey]model.ProductSnapshot) PriceUpdate {
	upd := PriceUpdate{Items: make([]model.CartItem, len(items))}
	copy(upd.Items, items)

	seenMissing := make(map[CanonicalKey]bool)
	for i, it := range upd.Items {
		key := CanonicalKey{Type: it.Type, ID: it.Snapshot.ID}
		snap, ok := canon[key]
		if !ok {
			if !seenMissing[key] {
				seenMissing[key] = true
				upd.Missing = append(upd.Missing, key)
			}
			continue
		}

		was := pricing.Resolve(&it.Snapshot, it.Variant).Current
		now := pricing.Resolve(&snap, it.Variant).Current
		if was != now {
			upd.Changed = true
		}
		upd.Items[i].Snapshot = snap
	}

	return upd
}
