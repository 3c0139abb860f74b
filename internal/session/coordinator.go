// Package session owns the per-session orchestration around the cart state
// store: ownership transitions between guest and authenticated identities,
// the price reconciliation pass after hydration, and the debounced sync
// scheduler that keeps the backend cart authoritative.
//
// All coordination flags live as fields on the Coordinator, created at
// session start and reset on identity transitions. There is no package
// level mutable state.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/cache"
	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/cartstate"
	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/gateway"
	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/model"
)

// defaultDebounce is the window outbound syncs wait for further changes.
const defaultDebounce = 300 * time.Millisecond

// CredentialCarrier is implemented by gateways that manage their own
// session credentials (the HTTP client does). The coordinator installs the
// bearer token on login and drops all credentials on logout.
type CredentialCarrier interface {
	SetAuthToken(token string)
	ClearGuestSession()
}

// Options tunes a Coordinator. The zero value is usable.
type Options struct {
	// Debounce is the sync scheduler's settle window. Zero means 300ms.
	Debounce time.Duration
	Logger   *slog.Logger
}

// Coordinator ties the cart state store to the backend gateway and the
// guest cart cache for one session.
//
// Concurrency: the reducer itself is synchronous and totally ordered; the
// coordinator linearizes the asynchronous edges around it with explicit
// guard flags. skipNextSync suppresses the echo push right after a
// hydration load; syncInFlight keeps wholesale pushes from overlapping;
// epoch stamps every async operation so a response that arrives after the
// authentication state flipped again is dropped instead of applied.
type Coordinator struct {
	store    *cartstate.Store
	gw       gateway.Gateway
	cache    cache.Store
	logger   *slog.Logger
	debounce time.Duration

	mu            sync.Mutex
	authenticated bool
	epoch         int
	skipNextSync  bool
	syncInFlight  bool
	// touched is set once a user action has mutated the hydrated state.
	// Until then an empty item list is never pushed, so an empty initial
	// state cannot wipe a populated backend cart.
	touched     bool
	timer       *time.Timer
	unsubscribe func()
	closed      bool
}

// New creates a coordinator and subscribes it to the store. Callers must
// Close it when the session ends.
func New(store *cartstate.Store, gw gateway.Gateway, c cache.Store, opts Options) *Coordinator {
	debounce := opts.Debounce
	if debounce == 0 {
		debounce = defaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	co := &Coordinator{
		store:    store,
		gw:       gw,
		cache:    c,
		logger:   logger,
		debounce: debounce,
	}
	co.unsubscribe = store.Subscribe(co.onStateChange)
	return co
}

// Close detaches the coordinator from the store and stops any pending
// sync. An in-flight push is not cancelled; its result is discarded.
func (co *Coordinator) Close() {
	co.mu.Lock()
	co.closed = true
	co.epoch++
	if co.timer != nil {
		co.timer.Stop()
		co.timer = nil
	}
	unsub := co.unsubscribe
	co.unsubscribe = nil
	co.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// Snapshot returns the current cart state.
func (co *Coordinator) Snapshot() cartstate.State {
	return co.store.State()
}

// Authenticated reports the coordinator's view of the session identity.
func (co *Coordinator) Authenticated() bool {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.authenticated
}

// === User actions ===

// AddItem puts a product into the cart. While authenticated the backend
// row is created first so the new line carries its authoritative ID; a
// gateway failure abandons the add and the state stays last-known-good.
func (co *Coordinator) AddItem(ctx context.Context, snap model.ProductSnapshot, pt model.ProductType, sel model.VariantSelection, qty int) error {
	if qty < 1 {
		qty = 1
	}

	act := cartstate.AddItem{Snapshot: snap, Type: pt, Variant: sel, Quantity: qty}
	if co.Authenticated() {
		row, err := co.gw.AddProduct(ctx, gateway.AddProductRequest{
			Type:     pt,
			ID:       snap.ID,
			Quantity: qty,
			Variant:  sel,
		})
		if err != nil {
			co.logger.Warn("remote add failed, cart unchanged",
				slog.Int64("product_id", snap.ID),
				slog.String("error", err.Error()))
			return err
		}
		act.Snapshot = row.Snapshot
		act.RemoteLineID = row.RemoteLineID
	}

	co.markTouched()
	co.store.Dispatch(act)
	return nil
}

// RemoveItem deletes a cart line. While authenticated the backend row is
// deleted first; a gateway failure abandons the removal.
func (co *Coordinator) RemoveItem(ctx context.Context, lineID string) error {
	state := co.store.State()
	line := state.Find(lineID)
	if line == nil {
		return model.NewNotFoundError("cart line")
	}

	if co.Authenticated() && line.RemoteLineID != 0 {
		if err := co.gw.RemoveItem(ctx, line.RemoteLineID); err != nil {
			co.logger.Warn("remote remove failed, cart unchanged",
				slog.Int64("remote_line_id", line.RemoteLineID),
				slog.String("error", err.Error()))
			return err
		}
	}

	co.markTouched()
	co.store.Dispatch(cartstate.RemoveItem{LineID: lineID})
	return nil
}

// SetQuantity sets a line's quantity locally; the sync scheduler carries
// the change to the backend. A quantity of zero or less removes the line.
func (co *Coordinator) SetQuantity(lineID string, qty int) {
	co.markTouched()
	co.store.Dispatch(cartstate.UpdateQuantity{LineID: lineID, Quantity: qty})
}

// ClearCart empties the cart and clears hydration. For a guest session the
// cached cart is removed too; clearing resets hydration, so the persistence
// listener would otherwise never write the emptied state and a reload
// would resurrect the old cart.
func (co *Coordinator) ClearCart(ctx context.Context) {
	co.markTouched()
	co.store.Dispatch(cartstate.ClearCart{})
	if !co.Authenticated() {
		if err := co.cache.Delete(ctx); err != nil {
			co.logger.Warn("guest cart cache clear failed", slog.String("error", err.Error()))
		}
	}
}

func (co *Coordinator) markTouched() {
	co.mu.Lock()
	co.touched = true
	co.mu.Unlock()
}

// === Sync scheduler ===

// onStateChange runs after every dispatch. While anonymous it persists the
// hydrated guest cart; while authenticated it schedules a debounced
// wholesale push, subject to the guard flags.
func (co *Coordinator) onStateChange(s cartstate.State) {
	co.mu.Lock()

	if co.closed {
		co.mu.Unlock()
		return
	}

	if !co.authenticated {
		hydrated := s.IsHydrated
		co.mu.Unlock()
		if hydrated {
			if err := co.cache.Put(context.Background(), s.Items); err != nil {
				co.logger.Warn("guest cart persist failed", slog.String("error", err.Error()))
			}
		}
		return
	}

	// Guard order matters. The skip flag is consumed even when a later
	// guard would have skipped anyway: it belongs to exactly one cycle.
	if co.skipNextSync {
		co.skipNextSync = false
		co.mu.Unlock()
		return
	}
	if !s.IsHydrated {
		co.mu.Unlock()
		return
	}
	if co.syncInFlight {
		// No queuing. The next state change triggers a fresh attempt.
		co.mu.Unlock()
		return
	}

	epoch := co.epoch
	if co.timer != nil {
		co.timer.Stop()
	}
	co.timer = time.AfterFunc(co.debounce, func() { co.flush(epoch) })
	co.mu.Unlock()
}

// flush pushes the full current item list to the backend. Runs on the
// debounce timer's goroutine.
func (co *Coordinator) flush(epoch int) {
	state := co.store.State()

	co.mu.Lock()
	if co.closed || epoch != co.epoch || !co.authenticated || co.syncInFlight {
		co.mu.Unlock()
		return
	}
	if !state.IsHydrated {
		co.mu.Unlock()
		return
	}
	if len(state.Items) == 0 && !co.touched {
		co.mu.Unlock()
		return
	}
	co.syncInFlight = true
	co.mu.Unlock()

	err := co.gw.SyncCart(context.Background(), gateway.SyncItemsFromCart(state.Items))

	co.mu.Lock()
	co.syncInFlight = false
	co.mu.Unlock()

	if err != nil {
		co.logger.Warn("cart sync failed, will retry on next change",
			slog.Int("items", len(state.Items)),
			slog.String("error", err.Error()))
	}
}

// currentEpoch reports whether an async operation started at epoch is
// still the live one.
func (co *Coordinator) currentEpoch(epoch int) bool {
	co.mu.Lock()
	defer co.mu.Unlock()
	return epoch == co.epoch && !co.closed
}

// readCache loads the guest cart, mapping a miss or a discarded corrupt
// entry to an empty cart.
func (co *Coordinator) readCache(ctx context.Context) []model.CartItem {
	items, err := co.cache.Get(ctx)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			co.logger.Warn("guest cart read failed", slog.String("error", err.Error()))
		}
		return nil
	}
	return items
}
