package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/sucursal-pos/internal/domain/entity"
	"github.com/tu-usuario/sucursal-pos/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con
// pool o tx). Los lotes se guardan como JSONB; quantity es la columna
// desnormalizada que siempre iguala la suma de los lotes.
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

const stockColumns = `branch_id, product_id, variety_id, lots, quantity, updated_at`

// Get obtiene el registro; si la fila no existe devuelve un registro vacío
// direccionable (la creación real ocurre en el primer Upsert).
func (r *StockRepo) Get(branchID, productID, varietyID string) (*entity.BranchStockRecord, error) {
	query := `
		SELECT ` + stockColumns + `
		FROM branch_stock WHERE branch_id = $1 AND product_id = $2 AND variety_id = $3`
	rec, found, err := r.scanOne(query, branchID, productID, varietyID, "get stock")
	if err != nil {
		return nil, err
	}
	if !found {
		return emptyRecord(branchID, productID, varietyID), nil
	}
	return rec, nil
}

// GetForUpdate igual que Get pero bloqueando la fila hasta el commit (SELECT
// FOR UPDATE). Si la fila no existe todavía, la materializa vacía y reintenta
// el bloqueo: un FOR UPDATE sobre una fila inexistente no retiene nada, y dos
// altas concurrentes del mismo registro nuevo se pisarían el upsert entre sí.
func (r *StockRepo) GetForUpdate(branchID, productID, varietyID string) (*entity.BranchStockRecord, error) {
	query := `
		SELECT ` + stockColumns + `
		FROM branch_stock WHERE branch_id = $1 AND product_id = $2 AND variety_id = $3
		FOR UPDATE`
	rec, found, err := r.scanOne(query, branchID, productID, varietyID, "get stock for update")
	if err != nil {
		return nil, err
	}
	if found {
		return rec, nil
	}
	if err := r.insertEmpty(branchID, productID, varietyID); err != nil {
		return nil, err
	}
	rec, found, err = r.scanOne(query, branchID, productID, varietyID, "get stock for update")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("get stock for update: la fila materializada no es visible")
	}
	return rec, nil
}

// insertEmpty materializa la fila vacía de un registro nuevo para que el FOR
// UPDATE tenga qué bloquear. Si otra transacción la está insertando, DO
// NOTHING espera su desenlace y el reintento del SELECT ya la encuentra.
func (r *StockRepo) insertEmpty(branchID, productID, varietyID string) error {
	query := `
		INSERT INTO branch_stock (branch_id, product_id, variety_id, lots, quantity, updated_at)
		VALUES ($1, $2, $3, '[]'::jsonb, 0, $4)
		ON CONFLICT (branch_id, product_id, variety_id) DO NOTHING`
	if _, err := r.q.Exec(context.Background(), query, branchID, productID, varietyID, time.Now()); err != nil {
		return fmt.Errorf("materializar fila de stock: %w", err)
	}
	return nil
}

func (r *StockRepo) scanOne(query, branchID, productID, varietyID, op string) (*entity.BranchStockRecord, bool, error) {
	var rec entity.BranchStockRecord
	var lotsJSON []byte
	err := r.q.QueryRow(context.Background(), query, branchID, productID, varietyID).Scan(
		&rec.BranchID, &rec.ProductID, &rec.VarietyID, &lotsJSON, &rec.Quantity, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	if err := json.Unmarshal(lotsJSON, &rec.Lots); err != nil {
		return nil, false, fmt.Errorf("%s: decodificar lotes: %w", op, err)
	}
	return &rec, true, nil
}

func emptyRecord(branchID, productID, varietyID string) *entity.BranchStockRecord {
	return &entity.BranchStockRecord{
		BranchID:  branchID,
		ProductID: productID,
		VarietyID: varietyID,
	}
}

// Upsert inserta o actualiza el registro completo (lotes + cantidad).
func (r *StockRepo) Upsert(record *entity.BranchStockRecord) error {
	lotsJSON, err := json.Marshal(record.Lots)
	if err != nil {
		return fmt.Errorf("upsert stock: codificar lotes: %w", err)
	}
	query := `
		INSERT INTO branch_stock (branch_id, product_id, variety_id, lots, quantity, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (branch_id, product_id, variety_id)
		DO UPDATE SET lots = EXCLUDED.lots, quantity = EXCLUDED.quantity, updated_at = EXCLUDED.updated_at`
	updatedAt := record.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	_, err = r.q.Exec(context.Background(), query,
		record.BranchID, record.ProductID, record.VarietyID, lotsJSON, record.Quantity, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert stock: %w", err)
	}
	return nil
}

// ListByBranch vista de lectura de los registros de una sucursal.
func (r *StockRepo) ListByBranch(branchID string) ([]*entity.BranchStockRecord, error) {
	query := `
		SELECT ` + stockColumns + `
		FROM branch_stock WHERE branch_id = $1
		ORDER BY product_id, variety_id`
	rows, err := r.q.Query(context.Background(), query, branchID)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	defer rows.Close()

	var records []*entity.BranchStockRecord
	for rows.Next() {
		var rec entity.BranchStockRecord
		var lotsJSON []byte
		if err := rows.Scan(&rec.BranchID, &rec.ProductID, &rec.VarietyID, &lotsJSON, &rec.Quantity, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("list stock: %w", err)
		}
		if err := json.Unmarshal(lotsJSON, &rec.Lots); err != nil {
			return nil, fmt.Errorf("list stock: decodificar lotes: %w", err)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
