// Package cartstate holds the in-memory cart as a single state value driven
// by a pure reducer over a closed action set. Total and item count are
// derived from the item list on every transition, never stored
// independently, so they cannot drift from the lines they summarize.
package cartstate

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/model"
	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/pricing"
)

// State is the full cart state at one point in time.
//
// IsHydrated is true only once the state has been populated from an
// authoritative source (local cache for guests, remote cart for
// authenticated users). It gates outbound synchronization so an empty
// initial state can never overwrite a populated remote cart.
type State struct {
	Items      []model.CartItem
	Total      int64 // minor units, Σ resolved price × quantity
	ItemCount  int   // Σ quantity
	IsHydrated bool
}

// Find returns the item with the given local line ID, or nil.
func (s State) Find(lineID string) *model.CartItem {
	for i := range s.Items {
		if s.Items[i].LineID == lineID {
			return &s.Items[i]
		}
	}
	return nil
}

// reduce applies one action and returns the resulting state. It is total:
// every action yields a valid state, unknown line IDs are no-ops, and no
// resulting state carries a zero-quantity line or two lines sharing an
// identity key (assuming the incoming state upholds the same).
func reduce(s State, a Action) State {
	switch act := a.(type) {
	case AddItem:
		return finalize(addItem(s, act), s.IsHydrated)

	case RemoveItem:
		items := make([]model.CartItem, 0, len(s.Items))
		for _, it := range s.Items {
			if it.LineID != act.LineID {
				items = append(items, it)
			}
		}
		return finalize(items, s.IsHydrated)

	case UpdateQuantity:
		items := make([]model.CartItem, 0, len(s.Items))
		for _, it := range s.Items {
			if it.LineID == act.LineID {
				if act.Quantity <= 0 {
					continue // dropping to zero removes the line
				}
				it.Quantity = act.Quantity
			}
			items = append(items, it)
		}
		return finalize(items, s.IsHydrated)

	case ClearCart:
		return State{}

	case LoadCart:
		return finalize(copyItems(act.Items), true)

	case SyncPrices:
		return finalize(copyItems(act.Items), s.IsHydrated)

	case SetHydrated:
		s.IsHydrated = act.Hydrated
		return s

	default:
		panic(fmt.Sprintf("cartstate: unhandled action %T", a))
	}
}

// addItem implements the three-stage line matching for AddItem:
// identity key, then remote row ID, then insert.
func addItem(s State, act AddItem) []model.CartItem {
	qty := act.Quantity
	if qty < 1 {
		qty = 1
	}

	items := copyItems(s.Items)
	key := model.IdentityKey(act.Type, act.Snapshot.ID, act.Variant)

	for i := range items {
		if items[i].Key() == key {
			items[i].Quantity += qty
			if items[i].RemoteLineID == 0 && act.RemoteLineID != 0 {
				// The backend persisted this line during the add; anchor it.
				items[i].RemoteLineID = act.RemoteLineID
				items[i].LineID = model.RemoteLineIDString(act.RemoteLineID)
			}
			return items
		}
	}

	if act.RemoteLineID != 0 {
		for i := range items {
			if items[i].RemoteLineID == act.RemoteLineID {
				items[i].Quantity += qty
				return items
			}
		}
	}

	lineID := uuid.NewString()
	if act.RemoteLineID != 0 {
		lineID = model.RemoteLineIDString(act.RemoteLineID)
	}
	return append(items, model.CartItem{
		LineID:       lineID,
		Snapshot:     act.Snapshot,
		Quantity:     qty,
		Type:         act.Type,
		Variant:      act.Variant,
		RemoteLineID: act.RemoteLineID,
	})
}

// finalize recomputes the derived fields from the item list.
func finalize(items []model.CartItem, hydrated bool) State {
	st := State{Items: items, IsHydrated: hydrated}
	for _, it := range items {
		st.Total += pricing.LineTotal(it)
		st.ItemCount += it.Quantity
	}
	return st
}

func copyItems(items []model.CartItem) []model.CartItem {
	out := make([]model.CartItem, len(items))
	copy(out, items)
	return out
}
