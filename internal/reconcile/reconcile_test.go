package reconcile

import (
	"reflect"
	"testing"

	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/model"
)

func perfumeItem(id int64, qty int, remoteID int64) model.CartItem {
	it := model.CartItem{
		Snapshot:     model.ProductSnapshot{ID: id, Price: 1000, Available: true},
		Quantity:     qty,
		Type:         model.ProductPerfume,
		RemoteLineID: remoteID,
	}
	if remoteID != 0 {
		it.LineID = model.RemoteLineIDString(remoteID)
	} else {
		it.LineID = "local-" + model.RemoteLineIDString(id)
	}
	return it
}

func pigmentItem(id int64, qty int, remoteID int64) model.CartItem {
	it := perfumeItem(id, qty, remoteID)
	it.Type = model.ProductPigment
	it.Snapshot.Price = 1200
	return it
}

func keys(items []model.CartItem) map[string]int {
	out := make(map[string]int, len(items))
	for _, it := range items {
		out[it.Key()] = it.Quantity
	}
	return out
}

func TestMergeItems_BothEmpty(t *testing.T) {
	merged, contributed := MergeItems(nil, nil)
	if len(merged) != 0 {
		t.Errorf("merged = %v, want empty", merged)
	}
	if contributed {
		t.Error("empty local must not count as a contribution")
	}
}

func TestMergeItems_RemoteOnly(t *testing.T) {
	remote := []model.CartItem{pigmentItem(5, 1, 11)}
	merged, contributed := MergeItems(remote, nil)

	if !reflect.DeepEqual(merged, remote) {
		t.Errorf("merged = %+v, want remote set unchanged", merged)
	}
	if contributed {
		t.Error("remote-only merge must not report a local contribution")
	}
}

func TestMergeItems_LocalOnly(t *testing.T) {
	local := []model.CartItem{perfumeItem(1, 2, 0)}
	merged, contributed := MergeItems(nil, local)

	if !reflect.DeepEqual(merged, local) {
		t.Errorf("merged = %+v, want local set", merged)
	}
	if !contributed {
		t.Error("local-only merge must report a contribution")
	}
}

// Guest cart holds perfume#1 ×2, server cart holds perfume#1 ×1: the merge
// sums to ×3 on the remote-anchored line.
func TestMergeItems_CollisionSumsIntoRemoteLine(t *testing.T) {
	remote := []model.CartItem{perfumeItem(1, 1, 42)}
	local := []model.CartItem{perfumeItem(1, 2, 0)}

	merged, contributed := MergeItems(remote, local)

	if len(merged) != 1 {
		t.Fatalf("merged lines = %d, want 1", len(merged))
	}
	if merged[0].Quantity != 3 {
		t.Errorf("quantity = %d, want 3", merged[0].Quantity)
	}
	if merged[0].RemoteLineID != 42 {
		t.Errorf("RemoteLineID = %d, want 42 (remote entry anchors)", merged[0].RemoteLineID)
	}
	if !contributed {
		t.Error("collision adds local quantity, must report contribution")
	}
}

func TestMergeItems_DisjointSetsUnion(t *testing.T) {
	remote := []model.CartItem{pigmentItem(5, 1, 11)}
	local := []model.CartItem{perfumeItem(1, 2, 0)}

	merged, contributed := MergeItems(remote, local)

	if len(merged) != 2 {
		t.Fatalf("merged lines = %d, want 2", len(merged))
	}
	// Remote order first, local additions after.
	if merged[0].RemoteLineID != 11 || merged[1].Snapshot.ID != 1 {
		t.Errorf("merge order wrong: %+v", merged)
	}
	if !contributed {
		t.Error("new local line must report contribution")
	}
}

// Merging the result with the same local set again must not double-count
// lines: the set of identity keys is stable.
func TestMergeItems_MembershipIdempotence(t *testing.T) {
	remote := []model.CartItem{perfumeItem(1, 1, 42), pigmentItem(5, 2, 43)}
	local := []model.CartItem{perfumeItem(1, 2, 0), perfumeItem(7, 1, 0)}

	once, _ := MergeItems(remote, local)
	twice, _ := MergeItems(once, local)

	if !reflect.DeepEqual(keysOnly(once), keysOnly(twice)) {
		t.Errorf("repeated merge changed membership: %v vs %v", keysOnly(once), keysOnly(twice))
	}
	if len(twice) != len(once) {
		t.Errorf("repeated merge grew the set: %d vs %d lines", len(twice), len(once))
	}
}

// The set of identity keys after a merge is the union of both input key
// sets, regardless of which side a key came from.
func TestMergeItems_MembershipIsUnion(t *testing.T) {
	remote := []model.CartItem{perfumeItem(1, 1, 42), pigmentItem(5, 2, 43)}
	local := []model.CartItem{perfumeItem(1, 2, 0), perfumeItem(7, 1, 0)}

	merged, _ := MergeItems(remote, local)

	want := make(map[string]bool)
	for _, it := range append(append([]model.CartItem{}, remote...), local...) {
		want[it.Key()] = true
	}
	got := make(map[string]bool)
	for _, it := range merged {
		if got[it.Key()] {
			t.Fatalf("duplicate identity key %q in merge result", it.Key())
		}
		got[it.Key()] = true
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("merged keys = %v, want union %v", got, want)
	}
}

func keysOnly(items []model.CartItem) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, it := range items {
		out[it.Key()] = true
	}
	return out
}

func TestFilterPurchasable(t *testing.T) {
	gone := perfumeItem(2, 1, 0)
	gone.Snapshot.Available = false

	items := []model.CartItem{perfumeItem(1, 1, 0), gone, pigmentItem(5, 2, 0)}
	kept := FilterPurchasable(items)

	if len(kept) != 2 {
		t.Fatalf("kept = %d lines, want 2", len(kept))
	}
	for _, it := range kept {
		if !it.Snapshot.Available {
			t.Errorf("unavailable item survived the filter: %+v", it)
		}
	}
}

func TestApplyPriceUpdates_Drift(t *testing.T) {
	// Cart holds perfume#2 at cached price 1000; canonical price is 850.
	items := []model.CartItem{
		{LineID: "1", Snapshot: model.ProductSnapshot{ID: 2, Price: 1000, Available: true}, Quantity: 1, Type: model.ProductPerfume},
		{LineID: "2", Snapshot: model.ProductSnapshot{ID: 3, Price: 500, Available: true}, Quantity: 2, Type: model.ProductPerfume},
	}
	canon := map[CanonicalKey]model.ProductSnapshot{
		{Type: model.ProductPerfume, ID: 2}: {ID: 2, Price: 850, Available: true},
		{Type: model.ProductPerfume, ID: 3}: {ID: 3, Price: 500, Available: true},
	}

	upd := ApplyPriceUpdates(items, canon)

	if !upd.Changed {
		t.Fatal("drifted price must report Changed")
	}
	if upd.Items[0].Snapshot.Price != 850 {
		t.Errorf("drifted line price = %d, want 850", upd.Items[0].Snapshot.Price)
	}
	// Even the unchanged line carries the canonical snapshot afterwards.
	if upd.Items[1].Snapshot.Price != 500 {
		t.Errorf("unchanged line snapshot lost: %+v", upd.Items[1].Snapshot)
	}
	if len(upd.Missing) != 0 {
		t.Errorf("Missing = %v, want none", upd.Missing)
	}
}

func TestApplyPriceUpdates_NoDriftIsIdempotent(t *testing.T) {
	items := []model.CartItem{
		{LineID: "1", Snapshot: model.ProductSnapshot{ID: 2, Price: 1000, Available: true}, Quantity: 1, Type: model.ProductPerfume},
	}
	canon := map[CanonicalKey]model.ProductSnapshot{
		{Type: model.ProductPerfume, ID: 2}: {ID: 2, Price: 1000, Available: true},
	}

	upd := ApplyPriceUpdates(items, canon)
	if upd.Changed {
		t.Error("identical prices must not report Changed")
	}
}

func TestApplyPriceUpdates_VariantDrift(t *testing.T) {
	// Product-level price is stable but the selected volume option drifted.
	cached := model.ProductSnapshot{
		ID: 2, Price: 1000, Available: true,
		VolumeOptions: []model.VolumeOption{{ID: 7, Volume: "50ml", Price: 6500}},
	}
	canonical := cached
	canonical.VolumeOptions = []model.VolumeOption{{ID: 7, Volume: "50ml", Price: 6500, DiscountPrice: 5900}}

	items := []model.CartItem{{
		LineID: "1", Snapshot: cached, Quantity: 1,
		Type: model.ProductPerfume, Variant: model.VariantSelection{VolumeOptionID: 7},
	}}
	canon := map[CanonicalKey]model.ProductSnapshot{
		{Type: model.ProductPerfume, ID: 2}: canonical,
	}

	upd := ApplyPriceUpdates(items, canon)
	if !upd.Changed {
		t.Error("variant-level drift must report Changed")
	}
}

func TestApplyPriceUpdates_MissingProductLeftStale(t *testing.T) {
	items := []model.CartItem{
		{LineID: "1", Snapshot: model.ProductSnapshot{ID: 2, Price: 1000, Available: true}, Quantity: 1, Type: model.ProductPerfume},
		{LineID: "2", Snapshot: model.ProductSnapshot{ID: 9, Price: 700, Available: true}, Quantity: 1, Type: model.ProductPigment},
	}
	canon := map[CanonicalKey]model.ProductSnapshot{
		{Type: model.ProductPerfume, ID: 2}: {ID: 2, Price: 850, Available: true},
	}

	upd := ApplyPriceUpdates(items, canon)

	if len(upd.Missing) != 1 || upd.Missing[0] != (CanonicalKey{Type: model.ProductPigment, ID: 9}) {
		t.Errorf("Missing = %v, want [pigment#9]", upd.Missing)
	}
	// The uncovered line keeps its stale snapshot, it is not removed.
	if upd.Items[1].Snapshot.Price != 700 {
		t.Errorf("stale line was altered: %+v", upd.Items[1])
	}
	if len(upd.Items) != 2 {
		t.Errorf("line count changed: %d", len(upd.Items))
	}
}

func TestMergeItems_QuantitiesAfterMerge(t *testing.T) {
	remote := []model.CartItem{perfumeItem(1, 1, 42)}
	local := []model.CartItem{perfumeItem(1, 2, 0)}

	merged, _ := MergeItems(remote, local)
	got := keys(merged)
	if got["perfume:1"] != 3 {
		t.Errorf("perfume:1 quantity = %d, want 3", got["perfume:1"])
	}
}
