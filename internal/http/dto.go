package http

import (
	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/feed"
	"github.com/fjod/storefront/internal/notify"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/status"
)

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
}

// FilterRequestDTO changes only the fields that are present.
type FilterRequestDTO struct {
	Query      *string `json:"query,omitempty"`
	CategoryID *string `json:"category_id,omitempty"`
	Sort       *string `json:"sort,omitempty"`
}

type CostsDTO struct {
	Items    decimal.Decimal `json:"items"`
	Delivery decimal.Decimal `json:"delivery"`
	Total    decimal.Decimal `json:"total"`
}

type FormattedCostsDTO struct {
	Items    string `json:"items"`
	Delivery string `json:"delivery"`
	Total    string `json:"total"`
}

type CartResponse struct {
	CartID        string             `json:"cart_id,omitempty"`
	Items         []domain.CartItem  `json:"items"`
	TotalQuantity int                `json:"total_quantity"`
	Costs         CostsDTO           `json:"costs"`
	Formatted     *FormattedCostsDTO `json:"formatted,omitempty"`
	Open          bool               `json:"open"`
	Error         string             `json:"error,omitempty"`
}

type FilterDTO struct {
	Category domain.Category `json:"category"`
	Slug     string          `json:"slug"`
	Query    string          `json:"query,omitempty"`
	Sort     string          `json:"sort,omitempty"`
}

type CatalogResponse struct {
	Items    []domain.Product `json:"items"`
	State    feed.State       `json:"state"`
	Filter   FilterDTO        `json:"filter"`
	Offset   int              `json:"offset"`
	Quantity int              `json:"quantity"`
	Loading  bool             `json:"loading"`
	Error    string           `json:"error,omitempty"`
}

type SessionResponse struct {
	UserID  string          `json:"user_id"`
	Cart    CartResponse    `json:"cart"`
	Catalog CatalogResponse `json:"catalog"`
}

type ScrollResponse struct {
	Fetched bool            `json:"fetched"`
	Catalog CatalogResponse `json:"catalog"`
}

type ProductResponse struct {
	Product  *domain.Product `json:"product,omitempty"`
	Redirect string          `json:"redirect,omitempty"`
}

type NoticesResponse struct {
	Notices []notify.Notice `json:"notices"`
}

func (h *Handler) cartResponse(snap cart.Snapshot) CartResponse {
	resp := CartResponse{
		CartID:        snap.CartID,
		Items:         snap.Items,
		TotalQuantity: snap.TotalQuantity,
		Costs: CostsDTO{
			Items:    snap.ItemsCost,
			Delivery: snap.DeliveryCost,
			Total:    snap.TotalCost,
		},
		Open:  snap.Open,
		Error: errorMessage(snap.Err),
	}
	if resp.Items == nil {
		resp.Items = []domain.CartItem{}
	}
	if h.money != nil {
		resp.Formatted = &FormattedCostsDTO{
			Items:    h.money.Format(snap.ItemsCost),
			Delivery: h.money.Format(snap.DeliveryCost),
			Total:    h.money.Format(snap.TotalCost),
		}
	}
	return resp
}

func catalogResponse(snap feed.Snapshot) CatalogResponse {
	resp := CatalogResponse{
		Items: snap.Items,
		State: snap.State,
		Filter: FilterDTO{
			Category: snap.Filter.Category,
			Slug:     snap.Filter.Category.Slug(),
			Query:    snap.Filter.Query,
			Sort:     string(snap.Filter.Sort),
		},
		Offset:   snap.Offset,
		Quantity: snap.Quantity,
		Loading:  snap.Loading,
		Error:    errorMessage(snap.Err),
	}
	if resp.Items == nil {
		resp.Items = []domain.Product{}
	}
	return resp
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return status.Convert(err).Message()
}
