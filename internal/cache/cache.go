// Package cache implements the local persistent cart cache: a single-key
// store holding the guest cart as a JSON-serialized array of cart records,
// surviving page reloads until an identity transition clears it.
package cache

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/model"
)

// ErrCacheMiss is returned when no cart is persisted for the session.
var ErrCacheMiss = errors.New("cart cache miss")

// Store abstracts the persistent guest-cart slot. Implementations: Memory
// (tests, single-process dev) and Redis (server-rendered storefront
// sessions). The session coordinator is the sole writer during identity
// transitions; while anonymous, every state mutation writes through.
type Store interface {
	// Get returns the persisted cart items, or ErrCacheMiss when nothing
	// (or nothing readable) is stored.
	Get(ctx context.Context) ([]model.CartItem, error)

	// Put replaces the persisted cart wholesale.
	Put(ctx context.Context, items []model.CartItem) error

	// Delete removes the persisted cart. Deleting an absent entry is not
	// an error.
	Delete(ctx context.Context) error
}

// encodeItems serializes cart records for storage.
func encodeItems(items []model.CartItem) ([]byte, error) {
	return json.Marshal(items)
}

// decodeItems parses a stored payload. A payload that does not parse is
// treated as absent: the guest cart is disposable and a corrupt entry must
// not block hydration.
func decodeItems(data []byte) ([]model.CartItem, error) {
	var items []model.CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, ErrCacheMiss
	}
	return items, nil
}
