// Package ports define los puertos de salida de la capa de aplicación.
package ports

import (
	"context"

	"github.com/tu-usuario/sucursal-pos/internal/domain/entity"
)

// Publisher canal de suscripción del lado de lectura: tras un commit exitoso
// el motor publica el nuevo estado del registro o del pedido. Los suscriptores
// (dashboards, vistas de stock) reciben snapshots eventualmente consistentes;
// nunca estados intermedios de una transacción.
type Publisher interface {
	StockChanged(ctx context.Context, record *entity.BranchStockRecord) error
	OrderChanged(ctx context.Context, order *entity.Order) error
}

// NoopPublisher implementación nula para cuando Redis está deshabilitado.
type NoopPublisher struct{}

func (NoopPublisher) StockChanged(_ context.Context, _ *entity.BranchStockRecord) error {
	return nil
}

func (NoopPublisher) OrderChanged(_ context.Context, _ *entity.Order) error {
	return nil
}
