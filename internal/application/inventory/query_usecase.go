package inventory

import (
	"context"

	"github.com/tu-usuario/sucursal-pos/internal/domain"
	"github.com/tu-usuario/sucursal-pos/internal/domain/entity"
	"github.com/tu-usuario/sucursal-pos/internal/domain/repository"
)

// QueryUseCase lecturas del libro de stock y de su bitácora. No abre
// transacciones: son vistas del último estado confirmado.
type QueryUseCase struct {
	stockRepo repository.StockRepository
	auditRepo repository.AuditRepository
}

// NewQueryUseCase construye la vista de lectura.
func NewQueryUseCase(stockRepo repository.StockRepository, auditRepo repository.AuditRepository) *QueryUseCase {
	return &QueryUseCase{stockRepo: stockRepo, auditRepo: auditRepo}
}

// GetRecord devuelve el registro de una variedad en una sucursal. Un registro
// que nunca se tocó se reporta vacío, no como error.
func (uc *QueryUseCase) GetRecord(ctx context.Context, branchID, productID, varietyID string) (*entity.BranchStockRecord, error) {
	if branchID == "" || productID == "" || varietyID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return uc.stockRepo.Get(branchID, productID, varietyID)
}

// ListByBranch devuelve todos los registros de una sucursal.
func (uc *QueryUseCase) ListByBranch(ctx context.Context, branchID string) ([]*entity.BranchStockRecord, error) {
	if branchID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return uc.stockRepo.ListByBranch(branchID)
}

// ListLog devuelve la bitácora de inventario de una sucursal, reciente primero.
func (uc *QueryUseCase) ListLog(ctx context.Context, branchID string, limit, offset int) ([]*entity.InventoryLogEntry, error) {
	if branchID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return uc.auditRepo.ListInventory(branchID, limit, offset)
}
