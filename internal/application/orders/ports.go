package orders

import (
	"context"

	"github.com/tu-usuario/sucursal-pos/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción que incluye el
// repositorio de pedidos además del libro de stock y la bitácora. Lo usa el
// ciclo de vida del pedido: approve descuenta stock de varios registros y
// cambia el estado del pedido como una sola unidad atómica.
type TxRunner interface {
	RunOrder(ctx context.Context, fn func(
		orderRepo repository.OrderRepository,
		stockRepo repository.StockRepository,
		auditRepo repository.AuditRepository,
	) error) error
}
