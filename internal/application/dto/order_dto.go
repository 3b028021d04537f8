package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/sucursal-pos/internal/domain/entity"
)

// OrderItemRequest línea de un pedido nuevo. UnitPrice es el precio que el
// cliente vio; el servidor lo valida contra el precio vigente antes de aceptar.
type OrderItemRequest struct {
	ProductID string          `json:"product_id"`
	VarietyID string          `json:"variety_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateOrderRequest body para POST /api/orders.
type CreateOrderRequest struct {
	BranchID     string             `json:"branch_id"`
	CustomerName string             `json:"customer_name"`
	Items        []OrderItemRequest `json:"items"`
}

// ReturnOrderRequest body para POST /api/orders/:id/return.
type ReturnOrderRequest struct {
	Reason string `json:"reason"`
}

// OrderItemResponse línea de pedido en respuestas.
type OrderItemResponse struct {
	ProductID  string          `json:"product_id"`
	VarietyID  string          `json:"variety_id"`
	Quantity   int64           `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	OnSale     bool            `json:"on_sale"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// OrderResponse pedido en respuestas.
type OrderResponse struct {
	ID           string              `json:"id"`
	BranchID     string              `json:"branch_id"`
	CustomerName string              `json:"customer_name"`
	Items        []OrderItemResponse `json:"items"`
	TotalPrice   decimal.Decimal     `json:"total_price"`
	Status       string              `json:"status"`
	CreatedAt    time.Time           `json:"created_at"`
	CompletedAt  *time.Time          `json:"completed_at,omitempty"`
	ReturnReason string              `json:"return_reason,omitempty"`
}

// OrderFromEntity arma la respuesta a partir de la entidad.
func OrderFromEntity(o *entity.Order) OrderResponse {
	resp := OrderResponse{
		ID:           o.ID,
		BranchID:     o.BranchID,
		CustomerName: o.CustomerName,
		Items:        make([]OrderItemResponse, 0, len(o.Items)),
		TotalPrice:   o.TotalPrice,
		Status:       o.Status,
		CreatedAt:    o.CreatedAt,
		CompletedAt:  o.CompletedAt,
		ReturnReason: o.ReturnReason,
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ProductID:  it.ProductID,
			VarietyID:  it.VarietyID,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			OnSale:     it.OnSale,
			TotalPrice: it.TotalPrice,
		})
	}
	return resp
}
