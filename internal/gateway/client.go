package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/mod/semver"

	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/model"
	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/transport"
)

// apiPath is the base path for the storefront cart API.
const apiPath = "/api/v1"

// userAgent identifies this client to the storefront.
// Required: the CDN rate-limits requests without a User-Agent.
const userAgent = "NP-Pigments-Frontend/1.0"

// minAPIVersion is the lowest backend API version this client understands.
// The backend advertises its version in the API-Version response header;
// anything older gets a loud warning because wire shapes may have drifted.
const minAPIVersion = "v2.0.0"

// Config holds the backend connection settings.
type Config struct {
	// BaseURL is the storefront origin, e.g. https://shop.example.com.
	BaseURL string
	// Timeout bounds each request. Zero means 30s.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Client implements Gateway over the storefront's HTTP/JSON API.
//
// Session handling: authenticated requests carry a bearer token set via
// SetAuthToken. Guest requests carry the Cart-Session token the backend
// issued on a previous response; the client captures it from every
// response automatically, so callers never manage it.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger

	mu            sync.Mutex
	bearerToken   string
	guestSession  GuestSession
	versionWarned bool
}

// New creates a storefront API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Chrome TLS fingerprint transport avoids JA3-based rate limiting.
	// See internal/transport for rationale.
	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport.NewChromeTransport(timeout),
		},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		logger:  logger,
	}, nil
}

// SetAuthToken installs the bearer token for an authenticated session.
// An empty token reverts the client to guest mode.
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	c.bearerToken = token
	c.mu.Unlock()
}

// ClearGuestSession drops the captured Cart-Session token. Called after
// logout so a new guest session starts clean.
func (c *Client) ClearGuestSession() {
	c.mu.Lock()
	c.guestSession = GuestSession{}
	c.mu.Unlock()
}

// GuestSession returns the currently captured guest session.
func (c *Client) GuestSession() GuestSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.guestSession
}

// FetchCart implements Gateway.
func (c *Client) FetchCart(ctx context.Context) ([]model.CartItem, error) {
	var envelope cartEnvelope
	if err := c.do(ctx, http.MethodGet, "/cart/", nil, &envelope); err != nil {
		return nil, err
	}

	items := make([]model.CartItem, 0, len(envelope.Items))
	for _, row := range envelope.Items {
		it, err := row.toCartItem()
		if err != nil {
			// A single malformed row must not lose the whole cart.
			c.logger.Warn("skipping unreadable cart row",
				slog.Int64("row_id", row.ID),
				slog.String("error", err.Error()))
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

// AddProduct implements Gateway.
func (c *Client) AddProduct(ctx context.Context, req AddProductRequest) (*model.CartItem, error) {
	if req.ID <= 0 {
		return nil, model.NewValidationError("product_id", "must be positive")
	}
	qty := req.Quantity
	if qty < 1 {
		qty = 1
	}

	body := addProductBody{
		ProductType:    string(req.Type),
		ProductID:      req.ID,
		Quantity:       qty,
		VolumeOptionID: req.Variant.VolumeOptionID,
		WeightOptionID: req.Variant.WeightOptionID,
	}
	var row cartRow
	if err := c.do(ctx, http.MethodPost, "/cart-items/add_product/", body, &row); err != nil {
		return nil, err
	}
	it, err := row.toCartItem()
	if err != nil {
		return nil, model.NewUpstreamError("storefront", err)
	}
	return &it, nil
}

// RemoveItem implements Gateway.
func (c *Client) RemoveItem(ctx context.Context, remoteLineID int64) error {
	path := fmt.Sprintf("/cart-items/%d/", remoteLineID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// SyncCart implements Gateway.
func (c *Client) SyncCart(ctx context.Context, items []SyncItem) error {
	if items == nil {
		items = []SyncItem{}
	}
	return c.do(ctx, http.MethodPost, "/cart/sync/", syncBody{Items: items}, nil)
}

// LookupPrices implements Gateway.
func (c *Client) LookupPrices(ctx context.Context, q PriceQuery) (*PriceBatch, error) {
	if q.IsEmpty() {
		return &PriceBatch{}, nil
	}

	var envelope priceBatchEnvelope
	if err := c.do(ctx, http.MethodPost, "/sync/prices/", q, &envelope); err != nil {
		return nil, err
	}

	return &PriceBatch{
		Perfumes: snapshotsFromWire(envelope.Perfumes),
		Pigments: snapshotsFromWire(envelope.Pigments),
	}, nil
}

func snapshotsFromWire(rows []productData) []model.ProductSnapshot {
	if len(rows) == 0 {
		return nil
	}
	out := make([]model.ProductSnapshot, len(rows))
	for i := range rows {
		out[i] = rows[i].toSnapshot()
	}
	return out
}

// do executes one API request. Marshals body (if any), sets session
// headers, captures the returned Cart-Session, maps error statuses to
// APIError, and decodes the response into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPath+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NewUpstreamError("storefront", err)
	}
	defer resp.Body.Close()

	c.captureSession(resp)
	c.checkAPIVersion(resp)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return c.parseErrorResponse(resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
	}
	return nil
}

// setHeaders sets content and session headers. Bearer auth wins over the
// guest session; the backend ignores Cart-Session on authenticated calls
// anyway, so we never send both.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.mu.Lock()
	bearer := c.bearerToken
	guest := c.guestSession
	c.mu.Unlock()

	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
		return
	}
	if guest.Token != "" {
		header, err := FormatCartSessionHeader(guest)
		if err == nil {
			req.Header.Set("Cart-Session", header)
		}
	}
}

// captureSession records the guest session the backend returned, if any.
func (c *Client) captureSession(resp *http.Response) {
	header := resp.Header.Get("Cart-Session")
	if header == "" {
		return
	}
	sess, err := ParseCartSessionHeader(header)
	if err != nil {
		c.logger.Warn("ignoring malformed Cart-Session header",
			slog.String("error", err.Error()))
		return
	}
	c.mu.Lock()
	c.guestSession = sess
	c.mu.Unlock()
}

// checkAPIVersion warns once per client if the backend reports an API
// version older than minAPIVersion.
func (c *Client) checkAPIVersion(resp *http.Response) {
	raw := resp.Header.Get("API-Version")
	if raw == "" {
		return
	}
	v := raw
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) || semver.Compare(v, minAPIVersion) >= 0 {
		return
	}

	c.mu.Lock()
	warned := c.versionWarned
	c.versionWarned = true
	c.mu.Unlock()
	if !warned {
		c.logger.Warn("backend API older than supported minimum",
			slog.String("reported", raw),
			slog.String("minimum", minAPIVersion))
	}
}

// parseErrorResponse converts a backend error to an APIError.
func (c *Client) parseErrorResponse(statusCode int, body []byte) error {
	var apiErr errorBody
	json.Unmarshal(body, &apiErr) // Best effort parse

	switch statusCode {
	case 404:
		return model.NewNotFoundError("cart resource")
	case 401, 403:
		msg := apiErr.text()
		if msg == "" {
			msg = "storefront authentication failed"
		}
		return model.NewUnauthorizedError(msg)
	case 400:
		msg := apiErr.text()
		if msg == "" {
			msg = "invalid request"
		}
		return model.NewValidationError("request", msg)
	case 429:
		return model.NewRateLimitError("storefront")
	default:
		return model.NewUpstreamError("storefront",
			fmt.Errorf("status %d: %s - %s", statusCode, apiErr.Code, apiErr.text()))
	}
}
