package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrInvalidArgument     = errors.New("entrada inválida")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrPriceMismatch       = errors.New("precio desactualizado")
	ErrInvalidTransition   = errors.New("transición de estado inválida")
	ErrConcurrencyConflict = errors.New("conflicto de concurrencia: reintentos agotados")

	// ErrTxConflict lo emite la capa de transacciones cuando la BD aborta por
	// serialización o deadlock; el motor lo reintenta antes de rendirse con
	// ErrConcurrencyConflict. Nunca debe llegar al caller HTTP.
	ErrTxConflict = errors.New("transacción abortada por conflicto")
)

// ShortItem identifica un ítem con stock insuficiente y cuánto falta.
type ShortItem struct {
	ProductID string          `json:"product_id"`
	VarietyID string          `json:"variety_id"`
	Requested int64           `json:"requested"`
	Available int64           `json:"available"`
	UnitPrice decimal.Decimal `json:"-"`
}

// InsufficientStockError reporta TODOS los ítems deficientes de una operación
// (nunca solo el primero). errors.Is(err, ErrInsufficientStock) == true.
type InsufficientStockError struct {
	Items []ShortItem
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Items))
	for _, it := range e.Items {
		parts = append(parts, fmt.Sprintf("%s/%s solicitado=%d disponible=%d",
			it.ProductID, it.VarietyID, it.Requested, it.Available))
	}
	return "stock insuficiente: " + strings.Join(parts, "; ")
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// PriceMismatchError indica que el precio enviado por el cliente difiere del
// precio vigente calculado en el servidor más allá del epsilon permitido.
type PriceMismatchError struct {
	ProductID string
	VarietyID string
	Expected  decimal.Decimal
	Submitted decimal.Decimal
}

func (e *PriceMismatchError) Error() string {
	return fmt.Sprintf("precio desactualizado para %s/%s: esperado %s, recibido %s",
		e.ProductID, e.VarietyID, e.Expected.StringFixed(2), e.Submitted.StringFixed(2))
}

func (e *PriceMismatchError) Is(target error) bool {
	return target == ErrPriceMismatch
}

// InvalidTransitionError indica un cambio de estado ilegal sobre un pedido.
type InvalidTransitionError struct {
	OrderID string
	From    string
	To      string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("pedido %s: transición %s -> %s no permitida", e.OrderID, e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
