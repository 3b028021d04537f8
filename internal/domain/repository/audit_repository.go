package repository

import "github.com/tu-usuario/sucursal-pos/internal/domain/entity"

// AuditRepository bitácoras append-only. Las entradas nunca se editan ni borran.
type AuditRepository interface {
	AppendInventory(entry *entity.InventoryLogEntry) error
	AppendActivity(entry *entity.ActivityLogEntry) error
	ListInventory(branchID string, limit, offset int) ([]*entity.InventoryLogEntry, error)
	ListActivity(orderID string, limit, offset int) ([]*entity.ActivityLogEntry, error)
}
