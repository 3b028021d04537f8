package postgres

import (
	"context"
	"fmt"

	"github.com/tu-usuario/sucursal-pos/internal/domain/entity"
	"github.com/tu-usuario/sucursal-pos/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditRepo)(nil)

// AuditRepo bitácoras append-only sobre PostgreSQL. Solo INSERT y SELECT:
// no existe UPDATE ni DELETE sobre estas tablas.
type AuditRepo struct {
	q Querier
}

// NewAuditRepository construye el adaptador de bitácoras. Pasar pool o tx (Querier).
func NewAuditRepository(q Querier) *AuditRepo {
	return &AuditRepo{q: q}
}

// AppendInventory agrega una entrada a la bitácora de inventario.
func (r *AuditRepo) AppendInventory(entry *entity.InventoryLogEntry) error {
	query := `
		INSERT INTO inventory_log (id, action_type, actor_id, branch_id, product_id, variety_id, before_qty, after_qty, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(context.Background(), query,
		entry.ID, entry.ActionType, entry.ActorID, entry.BranchID,
		nullIfEmpty(entry.ProductID), nullIfEmpty(entry.VarietyID),
		entry.BeforeQty, entry.AfterQty, entry.Detail, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append inventory log: %w", err)
	}
	return nil
}

// AppendActivity agrega una entrada a la bitácora de actividad de pedidos.
func (r *AuditRepo) AppendActivity(entry *entity.ActivityLogEntry) error {
	query := `
		INSERT INTO activity_log (id, action_type, actor_id, order_id, branch_id, before_status, after_status, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(context.Background(), query,
		entry.ID, entry.ActionType, entry.ActorID, entry.OrderID, entry.BranchID,
		nullIfEmpty(entry.Before), entry.After, entry.Detail, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append activity log: %w", err)
	}
	return nil
}

// ListInventory lista entradas de inventario de una sucursal, recientes primero.
func (r *AuditRepo) ListInventory(branchID string, limit, offset int) ([]*entity.InventoryLogEntry, error) {
	query := `
		SELECT id, action_type, actor_id, branch_id, COALESCE(product_id, ''), COALESCE(variety_id, ''), before_qty, after_qty, detail, created_at
		FROM inventory_log WHERE branch_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, branchID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list inventory log: %w", err)
	}
	defer rows.Close()

	var out []*entity.InventoryLogEntry
	for rows.Next() {
		var e entity.InventoryLogEntry
		if err := rows.Scan(&e.ID, &e.ActionType, &e.ActorID, &e.BranchID, &e.ProductID,
			&e.VarietyID, &e.BeforeQty, &e.AfterQty, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("list inventory log: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// ListActivity lista entradas de actividad de un pedido, recientes primero.
func (r *AuditRepo) ListActivity(orderID string, limit, offset int) ([]*entity.ActivityLogEntry, error) {
	query := `
		SELECT id, action_type, actor_id, order_id, branch_id, COALESCE(before_status, ''), after_status, detail, created_at
		FROM activity_log WHERE order_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, orderID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list activity log: %w", err)
	}
	defer rows.Close()

	var out []*entity.ActivityLogEntry
	for rows.Next() {
		var e entity.ActivityLogEntry
		if err := rows.Scan(&e.ID, &e.ActionType, &e.ActorID, &e.OrderID, &e.BranchID,
			&e.Before, &e.After, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("list activity log: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
