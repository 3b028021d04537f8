package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del ciclo de vida de un pedido.
const (
	OrderStatusPending   = "PENDING"   // inicial; el stock aún no se toca
	OrderStatusCompleted = "COMPLETED" // aprobado; stock descontado
	OrderStatusVoided    = "VOIDED"    // anulado desde PENDING; sin efecto en stock
	OrderStatusReturned  = "RETURNED"  // devuelto desde COMPLETED; stock restituido
)

// legalTransitions grafo de transiciones permitidas del pedido.
// PENDING -> COMPLETED | VOIDED; COMPLETED -> RETURNED. Nada sale de un estado terminal.
var legalTransitions = map[string]map[string]bool{
	OrderStatusPending:   {OrderStatusCompleted: true, OrderStatusVoided: true},
	OrderStatusCompleted: {OrderStatusReturned: true},
}

// CanTransition indica si el cambio de estado from -> to es legal.
func CanTransition(from, to string) bool {
	return legalTransitions[from][to]
}

// OrderItem línea de un pedido. UnitPrice se captura al crear el pedido y es
// inmutable después (snapshot de precio, no referencia viva al catálogo).
type OrderItem struct {
	ProductID  string          `json:"product_id"`
	VarietyID  string          `json:"variety_id"`
	Quantity   int64           `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	OnSale     bool            `json:"on_sale"`
	TotalPrice decimal.Decimal `json:"total_price"` // UnitPrice * Quantity
}

// Order pedido de una sucursal con sus ítems embebidos (propiedad exclusiva).
// Invariante: TotalPrice == Σ Items[].TotalPrice.
type Order struct {
	ID           string
	BranchID     string
	CustomerName string
	Items        []OrderItem
	TotalPrice   decimal.Decimal
	Status       string
	CreatedBy    string
	CreatedAt    time.Time
	CompletedAt  *time.Time
	ReturnReason string
}
