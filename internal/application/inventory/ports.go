package inventory

import (
	"context"

	"github.com/tu-usuario/sucursal-pos/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad para el motor de stock:
// o se aplican todas las escrituras del callback o ninguna.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		stockRepo repository.StockRepository,
		auditRepo repository.AuditRepository,
	) error) error
}
