package cartstate

import (
	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/model"
)

// Action is the closed set of state transitions the cart store accepts.
// The reducer switches exhaustively over these types; adding a new action
// without handling it makes the reducer panic rather than silently no-op.
type Action interface {
	isAction()
}

// AddItem puts a product into the cart. If a line with the same identity
// key already exists its quantity is increased; failing that, a line with a
// matching RemoteLineID absorbs the quantity (defensive path for rows the
// backend already created); otherwise a new line is inserted.
type AddItem struct {
	Snapshot model.ProductSnapshot
	Type     model.ProductType
	Variant  model.VariantSelection

	// RemoteLineID, when non-zero, is the backend row returned for this add.
	RemoteLineID int64

	// Quantity to add; values < 1 are treated as 1.
	Quantity int
}

// RemoveItem deletes the line with the given local line ID.
type RemoveItem struct {
	LineID string
}

// UpdateQuantity sets the quantity of a line. A quantity of zero or less
// removes the line entirely.
type UpdateQuantity struct {
	LineID   string
	Quantity int
}

// ClearCart resets to the empty initial state, hydration cleared.
type ClearCart struct{}

// LoadCart replaces the item set wholesale and marks the state hydrated.
// Dispatched once per hydration event by the session coordinator.
type LoadCart struct {
	Items []model.CartItem
}

// SyncPrices replaces the item set wholesale without touching the
// hydration flag: price corrections are not a fresh hydration.
type SyncPrices struct {
	Items []model.CartItem
}

// SetHydrated overrides the hydration flag, used when a session leaves a
// hydrated state (logout) without discarding displayed items immediately.
type SetHydrated struct {
	Hydrated bool
}

func (AddItem) isAction()        {}
func (RemoveItem) isAction()     {}
func (UpdateQuantity) isAction() {}
func (ClearCart) isAction()      {}
func (LoadCart) isAction()       {}
func (SyncPrices) isAction()     {}
func (SetHydrated) isAction()    {}
