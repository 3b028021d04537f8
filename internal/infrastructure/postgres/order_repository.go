package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/sucursal-pos/internal/domain/entity"
	"github.com/tu-usuario/sucursal-pos/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo implementación de OrderRepository sobre PostgreSQL. Los ítems son
// propiedad exclusiva del pedido y se guardan embebidos como JSONB.
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador de pedidos. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

const orderColumns = `id, branch_id, customer_name, items, total_price, status, created_by, created_at, completed_at, return_reason`

// GetByID obtiene un pedido por ID; nil, nil si no existe.
func (r *OrderRepo) GetByID(id string) (*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return r.scanOne(query, id, "get order")
}

// GetForUpdate bloquea la fila del pedido hasta el commit.
func (r *OrderRepo) GetForUpdate(id string) (*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`
	return r.scanOne(query, id, "get order for update")
}

func (r *OrderRepo) scanOne(query, id, op string) (*entity.Order, error) {
	var o entity.Order
	var itemsJSON []byte
	var returnReason *string
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&o.ID, &o.BranchID, &o.CustomerName, &itemsJSON, &o.TotalPrice,
		&o.Status, &o.CreatedBy, &o.CreatedAt, &o.CompletedAt, &returnReason,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("%s: decodificar items: %w", op, err)
	}
	if returnReason != nil {
		o.ReturnReason = *returnReason
	}
	return &o, nil
}

// Create persiste un pedido nuevo con sus ítems.
func (r *OrderRepo) Create(order *entity.Order) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("create order: codificar items: %w", err)
	}
	query := `
		INSERT INTO orders (id, branch_id, customer_name, items, total_price, status, created_by, created_at, completed_at, return_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = r.q.Exec(context.Background(), query,
		order.ID, order.BranchID, order.CustomerName, itemsJSON, order.TotalPrice,
		order.Status, order.CreatedBy, order.CreatedAt, order.CompletedAt, nullIfEmpty(order.ReturnReason),
	)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

// Update actualiza estado, completed_at y return_reason (los ítems son inmutables).
func (r *OrderRepo) Update(order *entity.Order) error {
	query := `
		UPDATE orders
		SET status = $2, completed_at = $3, return_reason = $4
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		order.ID, order.Status, order.CompletedAt, nullIfEmpty(order.ReturnReason),
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	return nil
}

// Delete elimina el pedido (solo limpieza administrativa de pedidos PENDING).
func (r *OrderRepo) Delete(id string) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

// List lista pedidos filtrando por sucursal y estado (vacío = sin filtro).
func (r *OrderRepo) List(branchID, status string, limit, offset int) ([]*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE 1=1`
	args := []any{}
	pos := 1
	if branchID != "" {
		query += fmt.Sprintf(" AND branch_id = $%d", pos)
		args = append(args, branchID)
		pos++
	}
	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", pos)
		args = append(args, status)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []*entity.Order
	for rows.Next() {
		var o entity.Order
		var itemsJSON []byte
		var returnReason *string
		if err := rows.Scan(&o.ID, &o.BranchID, &o.CustomerName, &itemsJSON, &o.TotalPrice,
			&o.Status, &o.CreatedBy, &o.CreatedAt, &o.CompletedAt, &returnReason); err != nil {
			return nil, fmt.Errorf("list orders: %w", err)
		}
		if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
			return nil, fmt.Errorf("list orders: decodificar items: %w", err)
		}
		if returnReason != nil {
			o.ReturnReason = *returnReason
		}
		out = append(out, &o)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
