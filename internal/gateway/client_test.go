package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/model"
)

// newTestClient points a client at the test server, bypassing the Chrome
// TLS transport (the test server speaks plain HTTP).
func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(Config{
		BaseURL: srv.URL,
		Logger:  slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	c.httpClient = srv.Client()
	return c
}

func TestClient_FetchCart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/v1/cart/" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"items": [
				{
					"id": 17,
					"quantity": 2,
					"volume_option": 3,
					"weight_option": null,
					"product_data": {
						"id": 9,
						"name": "Oud Royale",
						"product_type": "perfume",
						"price": "1540.00",
						"discount_price": "",
						"available": true,
						"volumes": [
							{"id": 3, "volume": "50ml", "price": "1540.00", "discount_price": "1299.00"}
						]
					}
				},
				{
					"id": 18,
					"quantity": 1,
					"product_data": {
						"id": 10,
						"name": "Mystery",
						"product_type": "gift_card",
						"price": "10.00",
						"available": true
					}
				}
			]
		}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	items, err := c.FetchCart(context.Background())
	if err != nil {
		t.Fatalf("FetchCart() error = %v", err)
	}

	// The gift_card row is unreadable and must be skipped, not fatal.
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	it := items[0]
	if it.RemoteLineID != 17 || it.LineID != "17" {
		t.Errorf("line identity = (%d, %q), want (17, \"17\")", it.RemoteLineID, it.LineID)
	}
	if it.Type != model.ProductPerfume {
		t.Errorf("Type = %q, want perfume", it.Type)
	}
	if it.Quantity != 2 {
		t.Errorf("Quantity = %d, want 2", it.Quantity)
	}
	if it.Variant.VolumeOptionID != 3 || it.Variant.WeightOptionID != 0 {
		t.Errorf("Variant = %+v, want volume 3 only", it.Variant)
	}
	if it.Snapshot.Price != 154000 {
		t.Errorf("Snapshot.Price = %d, want 154000", it.Snapshot.Price)
	}
	if len(it.Snapshot.VolumeOptions) != 1 || it.Snapshot.VolumeOptions[0].DiscountPrice != 129900 {
		t.Errorf("volume options not mapped: %+v", it.Snapshot.VolumeOptions)
	}
}

func TestClient_AddProduct(t *testing.T) {
	var gotBody addProductBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/cart-items/add_product/" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": 41,
			"quantity": 1,
			"weight_option": 7,
			"product_data": {
				"id": 12,
				"name": "Carmine",
				"product_type": "pigment",
				"price": "300.00",
				"available": true,
				"weights": [{"id": 7, "weight": "25g", "price": "300.00"}]
			}
		}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	it, err := c.AddProduct(context.Background(), AddProductRequest{
		Type:    model.ProductPigment,
		ID:      12,
		Variant: model.VariantSelection{WeightOptionID: 7},
	})
	if err != nil {
		t.Fatalf("AddProduct() error = %v", err)
	}

	if gotBody.ProductType != "pigment" || gotBody.ProductID != 12 {
		t.Errorf("request body = %+v", gotBody)
	}
	if gotBody.Quantity != 1 {
		t.Errorf("Quantity defaulted to %d, want 1", gotBody.Quantity)
	}
	if gotBody.WeightOptionID != 7 || gotBody.VolumeOptionID != 0 {
		t.Errorf("variant in body = (%d, %d), want (0, 7)", gotBody.VolumeOptionID, gotBody.WeightOptionID)
	}
	if it.RemoteLineID != 41 || it.Variant.WeightOptionID != 7 {
		t.Errorf("mapped item = %+v", it)
	}
}

func TestClient_AddProduct_InvalidID(t *testing.T) {
	c, err := New(Config{BaseURL: "http://unused.invalid"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := c.AddProduct(context.Background(), AddProductRequest{Type: model.ProductPerfume}); !errors.Is(err, model.ErrInvalidRequest) {
		t.Errorf("error = %v, want ErrInvalidRequest", err)
	}
}

func TestClient_RemoveItem(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	if err := c.RemoveItem(context.Background(), 41); err != nil {
		t.Fatalf("RemoveItem() error = %v", err)
	}
	if gotPath != "DELETE /api/v1/cart-items/41/" {
		t.Errorf("request = %q", gotPath)
	}
}

func TestClient_SyncCart_NilItemsSendsEmptyArray(t *testing.T) {
	var raw []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := new(bytes.Buffer)
		buf.ReadFrom(r.Body)
		raw = buf.Bytes()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	if err := c.SyncCart(context.Background(), nil); err != nil {
		t.Fatalf("SyncCart() error = %v", err)
	}
	if !strings.Contains(string(raw), `"items":[]`) {
		t.Errorf("body = %s, want empty items array", raw)
	}
}

func TestClient_LookupPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/sync/prices/" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var q PriceQuery
		json.NewDecoder(r.Body).Decode(&q)
		if len(q.Perfumes) != 2 || len(q.Pigments) != 1 {
			t.Errorf("query = %+v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"perfumes": [{"id": 9, "name": "Oud Royale", "product_type": "perfume", "price": "1299.00", "available": true}],
			"pigments": [{"id": 12, "name": "Carmine", "product_type": "pigment", "price": "310.00", "available": true}]
		}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	batch, err := c.LookupPrices(context.Background(), PriceQuery{
		Perfumes: []int64{9, 14},
		Pigments: []int64{12},
	})
	if err != nil {
		t.Fatalf("LookupPrices() error = %v", err)
	}
	if len(batch.Perfumes) != 1 || batch.Perfumes[0].Price != 129900 {
		t.Errorf("Perfumes = %+v", batch.Perfumes)
	}
	if len(batch.Pigments) != 1 || batch.Pigments[0].Price != 31000 {
		t.Errorf("Pigments = %+v", batch.Pigments)
	}
}

func TestClient_LookupPrices_EmptyQuerySkipsRequest(t *testing.T) {
	c, err := New(Config{BaseURL: "http://unused.invalid"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	batch, err := c.LookupPrices(context.Background(), PriceQuery{})
	if err != nil {
		t.Fatalf("LookupPrices() error = %v", err)
	}
	if len(batch.Perfumes) != 0 || len(batch.Pigments) != 0 {
		t.Errorf("batch = %+v, want empty", batch)
	}
}

func TestClient_GuestSessionChaining(t *testing.T) {
	var sessionHeaders []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionHeaders = append(sessionHeaders, r.Header.Get("Cart-Session"))
		w.Header().Set("Cart-Session", `token="guest-abc";ttl=14400`)
		w.Write([]byte(`{"items": []}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	ctx := context.Background()

	if _, err := c.FetchCart(ctx); err != nil {
		t.Fatalf("first FetchCart() error = %v", err)
	}
	if _, err := c.FetchCart(ctx); err != nil {
		t.Fatalf("second FetchCart() error = %v", err)
	}

	if sessionHeaders[0] != "" {
		t.Errorf("first request sent Cart-Session %q, want none", sessionHeaders[0])
	}
	if !strings.Contains(sessionHeaders[1], `token="guest-abc"`) {
		t.Errorf("second request Cart-Session = %q, want captured token", sessionHeaders[1])
	}
	if sess := c.GuestSession(); sess.Token != "guest-abc" || sess.TTL != 14400 {
		t.Errorf("GuestSession() = %+v", sess)
	}
}

func TestClient_BearerSupersedesGuestSession(t *testing.T) {
	var gotAuth, gotSession string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotSession = r.Header.Get("Cart-Session")
		w.Write([]byte(`{"items": []}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	c.mu.Lock()
	c.guestSession = GuestSession{Token: "guest-abc"}
	c.mu.Unlock()
	c.SetAuthToken("user-token")

	if _, err := c.FetchCart(context.Background()); err != nil {
		t.Fatalf("FetchCart() error = %v", err)
	}
	if gotAuth != "Bearer user-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotSession != "" {
		t.Errorf("Cart-Session = %q, want none alongside bearer auth", gotSession)
	}
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"not found", 404, `{"detail": "No CartItem matches the given query."}`, model.ErrNotFound},
		{"unauthorized", 401, `{"detail": "Invalid token."}`, model.ErrUnauthorized},
		{"forbidden", 403, `{"detail": "Forbidden."}`, model.ErrUnauthorized},
		{"bad request", 400, `{"detail": "quantity must be positive"}`, model.ErrInvalidRequest},
		{"rate limited", 429, ``, model.ErrRateLimited},
		{"server error", 500, `{"code": "internal", "message": "boom"}`, model.ErrUpstreamError},
		{"unparseable body", 502, `<html>bad gateway</html>`, model.ErrUpstreamError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := newTestClient(t, srv)
			_, err := c.FetchCart(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Errorf("error %v is not an *model.APIError", err)
			}
		})
	}
}

func TestClient_APIVersionWarning(t *testing.T) {
	var logBuf bytes.Buffer
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("API-Version", "1.4.0")
		w.Write([]byte(`{"items": []}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	c.logger = slog.New(slog.NewTextHandler(&logBuf, nil))

	ctx := context.Background()
	c.FetchCart(ctx)
	c.FetchCart(ctx)

	warnings := strings.Count(logBuf.String(), "older than supported minimum")
	if warnings != 1 {
		t.Errorf("got %d version warnings, want exactly 1", warnings)
	}
}

func TestParseCartSessionHeader(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    GuestSession
		wantErr bool
	}{
		{"token only", `token="abc123"`, GuestSession{Token: "abc123"}, false},
		{"token with ttl", `token="abc123";ttl=14400`, GuestSession{Token: "abc123", TTL: 14400}, false},
		{"empty", ``, GuestSession{}, true},
		{"missing token key", `session="abc"`, GuestSession{}, true},
		{"non-string token", `token=42`, GuestSession{}, true},
		{"malformed", `token=`, GuestSession{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCartSessionHeader(tt.header)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFormatCartSessionHeader_RoundTrip(t *testing.T) {
	in := GuestSession{Token: "abc123", TTL: 900}
	header, err := FormatCartSessionHeader(in)
	if err != nil {
		t.Fatalf("FormatCartSessionHeader() error = %v", err)
	}
	got, err := ParseCartSessionHeader(header)
	if err != nil {
		t.Fatalf("ParseCartSessionHeader(%q) error = %v", header, err)
	}
	if got != in {
		t.Errorf("round trip = %+v, want %+v", got, in)
	}
}

func TestSyncItemsFromCart(t *testing.T) {
	items := []model.CartItem{
		{
			Snapshot: model.ProductSnapshot{ID: 9},
			Quantity: 3,
			Type:     model.ProductPerfume,
			Variant:  model.VariantSelection{VolumeOptionID: 3},
		},
		{
			Snapshot: model.ProductSnapshot{ID: 12},
			Quantity: 1,
			Type:     model.ProductPigment,
		},
	}
	got := SyncItemsFromCart(items)
	want := []SyncItem{
		{ProductType: model.ProductPerfume, ProductID: 9, Quantity: 3, VolumeOptionID: 3},
		{ProductType: model.ProductPigment, ProductID: 12, Quantity: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d items, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}
