package repository

import "github.com/tu-usuario/sucursal-pos/internal/domain/entity"

// StockRepository acceso al libro de stock por (sucursal, producto, variedad).
// Upsert solo puede invocarse dentro de una transacción del motor de stock:
// es la única vía de escritura que preserva el invariante de suma.
type StockRepository interface {
	// Get devuelve el registro; si no existe retorna uno vacío direccionable
	// (Quantity 0, sin lotes), nunca nil.
	Get(branchID, productID, varietyID string) (*entity.BranchStockRecord, error)
	// GetForUpdate igual que Get pero bloqueando la fila hasta el commit.
	GetForUpdate(branchID, productID, varietyID string) (*entity.BranchStockRecord, error)
	Upsert(record *entity.BranchStockRecord) error
	// ListByBranch vista de lectura de todos los registros de una sucursal.
	ListByBranch(branchID string) ([]*entity.BranchStockRecord, error)
}
