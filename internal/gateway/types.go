package gateway

import (
	"fmt"

	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/model"
)

// Wire shapes for the storefront backend. The backend serializes money as
// decimal strings ("1540.00"); everything here converts to minor units at
// the boundary via model.ParseCents.

// cartEnvelope is the body of GET /cart/.
type cartEnvelope struct {
	Items []cartRow `json:"items"`
}

// cartRow is one backend cart line. VolumeOption and WeightOption are
// nullable foreign keys, hence the pointers.
type cartRow struct {
	ID           int64        `json:"id"`
	ProductData  *productData `json:"product_data"`
	Quantity     int          `json:"quantity"`
	VolumeOption *int64       `json:"volume_option"`
	WeightOption *int64       `json:"weight_option"`
}

// productData mirrors the backend's product serializer.
type productData struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	ProductType   string       `json:"product_type"`
	Price         string       `json:"price"`
	DiscountPrice string       `json:"discount_price"`
	Available     bool         `json:"available"`
	Volumes       []optionData `json:"volumes"`
	Weights       []optionData `json:"weights"`
}

// optionData is one packaging option row. The backend names the display
// label after the option kind, so both fields appear here and exactly one
// is populated per row.
type optionData struct {
	ID            int64  `json:"id"`
	Volume        string `json:"volume,omitempty"`
	Weight        string `json:"weight,omitempty"`
	Price         string `json:"price"`
	DiscountPrice string `json:"discount_price"`
}

// addProductBody is the body of POST /cart-items/add_product/.
type addProductBody struct {
	ProductType    string `json:"product_type"`
	ProductID      int64  `json:"product_id"`
	Quantity       int    `json:"quantity"`
	VolumeOptionID int64  `json:"volume_option_id,omitempty"`
	WeightOptionID int64  `json:"weight_option_id,omitempty"`
}

// syncBody is the body of POST /cart/sync/.
type syncBody struct {
	Items []SyncItem `json:"items"`
}

// priceBatchEnvelope is the body of POST /sync/prices/ responses, keyed
// the same way as the request.
type priceBatchEnvelope struct {
	Perfumes []productData `json:"perfumes"`
	Pigments []productData `json:"pigments"`
}

// errorBody is the backend's error shape. DRF-style endpoints send
// "detail"; older ones send "code"/"message".
type errorBody struct {
	Detail  string `json:"detail"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e errorBody) text() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Message
}

// toSnapshot converts a wire product into the domain snapshot.
func (p *productData) toSnapshot() model.ProductSnapshot {
	snap := model.ProductSnapshot{
		ID:            p.ID,
		Name:          p.Name,
		Price:         model.ParseCents(p.Price),
		DiscountPrice: model.ParseCents(p.DiscountPrice),
		Available:     p.Available,
	}
	if len(p.Volumes) > 0 {
		snap.VolumeOptions = make([]model.VolumeOption, len(p.Volumes))
		for i, o := range p.Volumes {
			snap.VolumeOptions[i] = model.VolumeOption{
				ID:            o.ID,
				Volume:        o.Volume,
				Price:         model.ParseCents(o.Price),
				DiscountPrice: model.ParseCents(o.DiscountPrice),
			}
		}
	}
	if len(p.Weights) > 0 {
		snap.WeightOptions = make([]model.WeightOption, len(p.Weights))
		for i, o := range p.Weights {
			snap.WeightOptions[i] = model.WeightOption{
				ID:            o.ID,
				Weight:        o.Weight,
				Price:         model.ParseCents(o.Price),
				DiscountPrice: model.ParseCents(o.DiscountPrice),
			}
		}
	}
	return snap
}

// toCartItem converts a backend row into a domain line. The backend ID
// becomes both the RemoteLineID and the line's stable identity.
func (r *cartRow) toCartItem() (model.CartItem, error) {
	if r.ProductData == nil {
		return model.CartItem{}, fmt.Errorf("row %d: missing product_data", r.ID)
	}
	pt, err := model.ParseProductType(r.ProductData.ProductType)
	if err != nil {
		return model.CartItem{}, fmt.Errorf("row %d: %w", r.ID, err)
	}

	var sel model.VariantSelection
	if r.VolumeOption != nil {
		sel.VolumeOptionID = *r.VolumeOption
	}
	if r.WeightOption != nil {
		sel.WeightOptionID = *r.WeightOption
	}

	qty := r.Quantity
	if qty < 1 {
		qty = 1
	}
	return model.CartItem{
		LineID:       model.RemoteLineIDString(r.ID),
		Snapshot:     r.ProductData.toSnapshot(),
		Quantity:     qty,
		Type:         pt,
		Variant:      sel,
		RemoteLineID: r.ID,
	}, nil
}
