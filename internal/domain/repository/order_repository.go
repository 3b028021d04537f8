package repository

import "github.com/tu-usuario/sucursal-pos/internal/domain/entity"

// OrderRepository persistencia de pedidos con sus ítems embebidos.
type OrderRepository interface {
	// GetByID devuelve nil, nil si el pedido no existe.
	GetByID(id string) (*entity.Order, error)
	// GetForUpdate bloquea la fila del pedido hasta el commit (serializa
	// transiciones concurrentes sobre el mismo pedido).
	GetForUpdate(id string) (*entity.Order, error)
	Create(order *entity.Order) error
	Update(order *entity.Order) error
	Delete(id string) error
	List(branchID, status string, limit, offset int) ([]*entity.Order, error)
}
