// Package agent exposes a live cart session as MCP tools, using the
// official MCP Go SDK. Agent clients drive the same coordinator the
// storefront UI would, so every guard (hydration gating, debounced sync,
// identity transitions) applies to agent traffic too.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/cartstate"
	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/model"
	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/pricing"
	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/session"
)

// Server wires the cart coordinator to MCP tool handlers.
type Server struct {
	co     *session.Coordinator
	logger *slog.Logger
}

// New creates an agent server over a session coordinator.
func New(co *session.Coordinator, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{co: co, logger: logger}
}

// === Tool Input/Output Types ===

// AddItemInput is the input schema for the add_item tool.
type AddItemInput struct {
	ProductType    string `json:"product_type" jsonschema:"product type: perfume or pigment,required"`
	ProductID      int64  `json:"product_id" jsonschema:"catalog product ID,required"`
	Quantity       int    `json:"quantity,omitempty" jsonschema:"quantity to add, default 1"`
	VolumeOptionID int64  `json:"volume_option_id,omitempty" jsonschema:"perfume volume option ID"`
	WeightOptionID int64  `json:"weight_option_id,omitempty" jsonschema:"pigment weight option ID"`

	// Guest sessions have no backend round trip on add, so the caller
	// supplies the catalog snapshot fields it is looking at.
	Name  string `json:"name,omitempty" jsonschema:"product name as listed"`
	Price int64  `json:"price,omitempty" jsonschema:"listed unit price in minor units"`
}

// RemoveItemInput is the input schema for the remove_item tool.
type RemoveItemInput struct {
	LineID string `json:"line_id" jsonschema:"cart line ID,required"`
}

// SetQuantityInput is the input schema for the set_quantity tool.
type SetQuantityInput struct {
	LineID   string `json:"line_id" jsonschema:"cart line ID,required"`
	Quantity int    `json:"quantity" jsonschema:"new quantity; zero removes the line,required"`
}

// LoginInput is the input schema for the login tool.
type LoginInput struct {
	Token string `json:"token" jsonschema:"storefront bearer token,required"`
}

// EmptyInput is used by tools that take no arguments.
type EmptyInput struct{}

// LineView is one cart line as presented to agents.
type LineView struct {
	LineID         string `json:"line_id"`
	ProductType    string `json:"product_type"`
	ProductID      int64  `json:"product_id"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPrice      int64  `json:"unit_price"`
	UnitPriceText  string `json:"unit_price_text"`
	Discounted     bool   `json:"discounted"`
	LineTotal      int64  `json:"line_total"`
	VolumeOptionID int64  `json:"volume_option_id,omitempty"`
	WeightOptionID int64  `json:"weight_option_id,omitempty"`
}

// CartView is the cart state as presented to agents.
type CartView struct {
	Items         []LineView `json:"items"`
	Total         int64      `json:"total"`
	TotalText     string     `json:"total_text"`
	ItemCount     int        `json:"item_count"`
	Hydrated      bool       `json:"hydrated"`
	Authenticated bool       `json:"authenticated"`
}

// NewMCPServer creates an MCP server with the cart tools registered.
func (s *Server) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "np-pigments-cart",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "Shopping cart for the NP Pigments storefront. " +
				"Use these tools to inspect and modify the cart; login merges " +
				"the guest cart into the account cart.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "view_cart",
		Description: "Show the current cart: lines, quantities, prices, and totals.",
	}, s.mcpViewCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_item",
		Description: "Add a product to the cart, or increase the quantity of the matching line.",
	}, s.mcpAddItem)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_item",
		Description: "Remove a cart line by its line ID.",
	}, s.mcpRemoveItem)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_quantity",
		Description: "Set a cart line's quantity. Zero removes the line.",
	}, s.mcpSetQuantity)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "clear_cart",
		Description: "Empty the cart.",
	}, s.mcpClearCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "login",
		Description: "Authenticate the session. The guest cart merges into the account cart.",
	}, s.mcpLogin)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "logout",
		Description: "Return the session to anonymous. The account cart stops syncing.",
	}, s.mcpLogout)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (s *Server) NewMCPHandler() http.Handler {
	server := s.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (s *Server) mcpViewCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input EmptyInput,
) (*mcp.CallToolResult, *CartView, error) {
	return nil, s.view(), nil
}

func (s *Server) mcpAddItem(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input AddItemInput,
) (*mcp.CallToolResult, *CartView, error) {
	pt, err := model.ParseProductType(input.ProductType)
	if err != nil {
		return nil, nil, err
	}
	if input.ProductID <= 0 {
		return nil, nil, fmt.Errorf("product_id must be positive")
	}

	snap := model.ProductSnapshot{
		ID:        input.ProductID,
		Name:      input.Name,
		Price:     input.Price,
		Available: true,
	}
	sel := model.VariantSelection{
		VolumeOptionID: input.VolumeOptionID,
		WeightOptionID: input.WeightOptionID,
	}
	if err := s.co.AddItem(ctx, snap, pt, sel, input.Quantity); err != nil {
		return nil, nil, s.mcpError(err)
	}
	return nil, s.view(), nil
}

func (s *Server) mcpRemoveItem(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input RemoveItemInput,
) (*mcp.CallToolResult, *CartView, error) {
	if input.LineID == "" {
		return nil, nil, fmt.Errorf("line_id is required")
	}
	if err := s.co.RemoveItem(ctx, input.LineID); err != nil {
		return nil, nil, s.mcpError(err)
	}
	return nil, s.view(), nil
}

func (s *Server) mcpSetQuantity(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SetQuantityInput,
) (*mcp.CallToolResult, *CartView, error) {
	if input.LineID == "" {
		return nil, nil, fmt.Errorf("line_id is required")
	}
	s.co.SetQuantity(input.LineID, input.Quantity)
	return nil, s.view(), nil
}

func (s *Server) mcpClearCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input EmptyInput,
) (*mcp.CallToolResult, *CartView, error) {
	s.co.ClearCart(ctx)
	return nil, s.view(), nil
}

func (s *Server) mcpLogin(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input LoginInput,
) (*mcp.CallToolResult, *CartView, error) {
	if input.Token == "" {
		return nil, nil, fmt.Errorf("token is required")
	}
	if err := s.co.SetAuthenticated(ctx, input.Token); err != nil {
		return nil, nil, s.mcpError(err)
	}
	return nil, s.view(), nil
}

func (s *Server) mcpLogout(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input EmptyInput,
) (*mcp.CallToolResult, *CartView, error) {
	s.co.SetAnonymous(ctx)
	return nil, s.view(), nil
}

// view projects the current state into the agent-facing shape.
func (s *Server) view() *CartView {
	state := s.co.Snapshot()
	return s.viewOf(state)
}

func (s *Server) viewOf(state cartstate.State) *CartView {
	v := &CartView{
		Items:         make([]LineView, len(state.Items)),
		Total:         state.Total,
		TotalText:     model.FormatCents(state.Total),
		ItemCount:     state.ItemCount,
		Hydrated:      state.IsHydrated,
		Authenticated: s.co.Authenticated(),
	}
	for i, it := range state.Items {
		price := pricing.Resolve(&it.Snapshot, it.Variant)
		v.Items[i] = LineView{
			LineID:         it.LineID,
			ProductType:    string(it.Type),
			ProductID:      it.Snapshot.ID,
			Name:           it.Snapshot.Name,
			Quantity:       it.Quantity,
			UnitPrice:      price.Current,
			UnitPriceText:  model.FormatCents(price.Current),
			Discounted:     price.Discounted,
			LineTotal:      pricing.LineTotal(it),
			VolumeOptionID: it.Variant.VolumeOptionID,
			WeightOptionID: it.Variant.WeightOptionID,
		}
	}
	return v
}

// mcpError converts engine errors to MCP-friendly errors.
func (s *Server) mcpError(err error) error {
	if apiErr, ok := err.(*model.APIError); ok {
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	// Don't leak internal error details
	s.logger.Error("mcp internal error", slog.String("error", err.Error()))
	return fmt.Errorf("internal error")
}
