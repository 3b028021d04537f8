package entity

import "time"

// Tipos de acción registrados en la bitácora de inventario.
const (
	ActionAddStock      = "ADD_STOCK"
	ActionDeductStock   = "DEDUCT_STOCK"
	ActionRejectStock   = "REJECT_STOCK"
	ActionTransferStock = "TRANSFER_STOCK"
	ActionAdjustStock   = "ADJUST_STOCK"
	ActionOrderApprove  = "ORDER_APPROVE"
	ActionOrderReturn   = "ORDER_RETURN"
)

// Tipos de acción de la bitácora de actividad (pedidos).
const (
	ActivityOrderCreate  = "ORDER_CREATE"
	ActivityOrderApprove = "ORDER_APPROVE"
	ActivityOrderVoid    = "ORDER_VOID"
	ActivityOrderReturn  = "ORDER_RETURN"
	ActivityOrderDelete  = "ORDER_DELETE"
)

// InventoryLogEntry registro inmutable de una mutación de stock.
// Se inserta en la misma transacción que la mutación; nunca se edita ni borra.
type InventoryLogEntry struct {
	ID         string    `json:"id"`
	ActionType string    `json:"action_type"`
	ActorID    string    `json:"actor_id"`
	BranchID   string    `json:"branch_id"`
	ProductID  string    `json:"product_id,omitempty"`
	VarietyID  string    `json:"variety_id,omitempty"`
	BeforeQty  int64     `json:"before_qty"`
	AfterQty   int64     `json:"after_qty"`
	Detail     string    `json:"detail"` // JSON con lotes afectados, pedido de origen, etc.
	CreatedAt  time.Time `json:"created_at"`
}

// ActivityLogEntry registro inmutable de una transición u operación sobre un pedido.
type ActivityLogEntry struct {
	ID         string    `json:"id"`
	ActionType string    `json:"action_type"`
	ActorID    string    `json:"actor_id"`
	OrderID    string    `json:"order_id"`
	BranchID   string    `json:"branch_id"`
	Before     string    `json:"before,omitempty"` // estado anterior ("" al crear)
	After      string    `json:"after"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
