package session

import (
	"context"
	"log/slog"

	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/cartstate"
	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/gateway"
	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/model"
	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/reconcile"
)

// SetAuthenticated runs the ownership transition into an authenticated
// session: fetch the remote cart, merge the guest cart into it, load the
// merged set, push it back if the guest contributed anything, and retire
// the guest cache. Safe to call again while already authenticated (no-op).
//
// On a fetch failure the cart is forced to empty and the guest cache is
// cleared. That policy is deliberately conservative and loses the guest
// cart; it is logged at Error level so the loss is visible.
func (co *Coordinator) SetAuthenticated(ctx context.Context, token string) error {
	co.mu.Lock()
	if co.closed || co.authenticated {
		co.mu.Unlock()
		return nil
	}
	co.authenticated = true
	co.epoch++
	epoch := co.epoch
	co.mu.Unlock()

	if cc, ok := co.gw.(CredentialCarrier); ok {
		cc.SetAuthToken(token)
	}

	remote, err := co.gw.FetchCart(ctx)
	if err != nil {
		co.logger.Error("authenticated cart fetch failed, forcing empty cart; any guest cart is lost",
			slog.String("error", err.Error()))
		if co.currentEpoch(epoch) {
			co.loadHydrated(nil)
			co.clearCache(ctx)
		}
		return err
	}
	remote = reconcile.FilterPurchasable(remote)

	local := reconcile.FilterPurchasable(co.readCache(ctx))

	merged, localContributed := reconcile.MergeItems(remote, local)

	if !co.currentEpoch(epoch) {
		co.logger.Debug("dropping stale login transition result")
		return nil
	}

	co.loadHydrated(merged)

	// The guest contributed quantity the backend does not know about, so
	// the merged set replaces the backend cart wholesale.
	if localContributed && len(merged) > 0 {
		if err := co.gw.SyncCart(ctx, gateway.SyncItemsFromCart(merged)); err != nil {
			co.logger.Warn("merged cart push failed, backend is behind until next sync",
				slog.String("error", err.Error()))
		}
	}

	// The guest cache is no longer the source of truth, populated or not.
	co.clearCache(ctx)

	co.reconcilePrices(ctx, epoch)
	return nil
}

// SetAnonymous runs the logout transition: drop credentials, clear the
// cached cart so an authenticated snapshot cannot leak into the next guest
// session, and clear hydration so the next guest action re-hydrates clean.
func (co *Coordinator) SetAnonymous(ctx context.Context) {
	co.mu.Lock()
	if co.closed {
		co.mu.Unlock()
		return
	}
	co.authenticated = false
	co.epoch++
	co.touched = false
	co.skipNextSync = false
	if co.timer != nil {
		co.timer.Stop()
		co.timer = nil
	}
	co.mu.Unlock()

	if cc, ok := co.gw.(CredentialCarrier); ok {
		cc.SetAuthToken("")
		cc.ClearGuestSession()
	}

	co.clearCache(ctx)
	co.store.Dispatch(cartstate.SetHydrated{Hydrated: false})
}

// HydrateGuest populates the state from the guest cache for a session that
// starts anonymous. Items whose snapshot reports the product gone are
// dropped before loading.
func (co *Coordinator) HydrateGuest(ctx context.Context) {
	co.mu.Lock()
	if co.closed || co.authenticated {
		co.mu.Unlock()
		return
	}
	epoch := co.epoch
	co.mu.Unlock()

	items := reconcile.FilterPurchasable(co.readCache(ctx))

	if !co.currentEpoch(epoch) {
		return
	}
	co.loadHydrated(items)
	co.reconcilePrices(ctx, epoch)
}

// loadHydrated dispatches LoadCart with the echo-push guard raised: the
// state being loaded came from an authoritative source, so pushing it
// straight back would be a feedback loop.
func (co *Coordinator) loadHydrated(items []model.CartItem) {
	co.mu.Lock()
	co.skipNextSync = true
	co.touched = false
	co.mu.Unlock()
	co.store.Dispatch(cartstate.LoadCart{Items: items})
}

func (co *Coordinator) clearCache(ctx context.Context) {
	if err := co.cache.Delete(ctx); err != nil {
		co.logger.Warn("guest cart cache clear failed", slog.String("error", err.Error()))
	}
}

// reconcilePrices revalidates every in-cart snapshot against the catalog.
// Runs once per hydration when the cart is non-empty. Only a detected
// drift dispatches; an unchanged batch is a no-op.
func (co *Coordinator) reconcilePrices(ctx context.Context, epoch int) {
	items := co.store.State().Items
	if len(items) == 0 {
		return
	}

	query := buildPriceQuery(items)
	batch, err := co.gw.LookupPrices(ctx, query)
	if err != nil {
		co.logger.Warn("price lookup failed, keeping cached prices",
			slog.String("error", err.Error()))
		return
	}

	canon := make(map[reconcile.CanonicalKey]model.ProductSnapshot, len(batch.Perfumes)+len(batch.Pigments))
	for _, snap := range batch.Perfumes {
		canon[reconcile.CanonicalKey{Type: model.ProductPerfume, ID: snap.ID}] = snap
	}
	for _, snap := range batch.Pigments {
		canon[reconcile.CanonicalKey{Type: model.ProductPigment, ID: snap.ID}] = snap
	}

	upd := reconcile.ApplyPriceUpdates(items, canon)
	for _, key := range upd.Missing {
		// Stale line kept on purpose; removal is a catalog decision, not ours.
		co.logger.Warn("product missing from price batch, line left stale",
			slog.String("product_type", string(key.Type)),
			slog.Int64("product_id", key.ID))
	}
	if !upd.Changed {
		return
	}
	if !co.currentEpoch(epoch) {
		co.logger.Debug("dropping stale price reconciliation result")
		return
	}

	co.logger.Info("price drift detected, refreshing cart snapshots",
		slog.Int("items", len(upd.Items)))
	co.store.Dispatch(cartstate.SyncPrices{Items: upd.Items})
}

// buildPriceQuery partitions the cart's product IDs by type, deduplicated.
func buildPriceQuery(items []model.CartItem) gateway.PriceQuery {
	var q gateway.PriceQuery
	seen := make(map[reconcile.CanonicalKey]bool, len(items))
	for _, it := range items {
		key := reconcile.CanonicalKey{Type: it.Type, ID: it.Snapshot.ID}
		if seen[key] {
			continue
		}
		seen[key] = true
		switch it.Type {
		case model.ProductPerfume:
			q.Perfumes = append(q.Perfumes, it.Snapshot.ID)
		case model.ProductPigment:
			q.Pigments = append(q.Pigments, it.Snapshot.ID)
		}
	}
	return q
}
