package model

import "strconv"

// CartItem is one line of the in-memory cart.
//
// LineID is the local handle UI actions address the line by. Once the line
// has been persisted remotely it equals the backend row ID in decimal form;
// before that it is a freshly generated transient ID.
type CartItem struct {
	LineID   string           `json:"line_id"`
	Snapshot ProductSnapshot  `json:"product"`
	Quantity int              `json:"quantity"`
	Type     ProductType      `json:"product_type"`
	Variant  VariantSelection `json:"variant"`

	// RemoteLineID is the authoritative backend row ID, 0 until the line
	// has been persisted remotely.
	RemoteLineID int64 `json:"remote_line_id,omitempty"`
}

// Key returns the line's identity key.
func (it CartItem) Key() string {
	return IdentityKey(it.Type, it.Snapshot.ID, it.Variant)
}

// RemoteLineIDString formats a backend row ID as a local line ID.
func RemoteLineIDString(id int64) string {
	return strconv.FormatInt(id, 10)
}
