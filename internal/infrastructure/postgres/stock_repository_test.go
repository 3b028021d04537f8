package postgres_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/sucursal-pos/internal/domain/entity"
	"github.com/tu-usuario/sucursal-pos/internal/infrastructure/postgres"
)

// ──────────────────────────────────────────────────────────────────────────────
// Querier guionado: simula la tabla branch_stock con una sola fila opcional
// para verificar la secuencia de sentencias sin una base de datos viva.
// ──────────────────────────────────────────────────────────────────────────────

type scriptedQuerier struct {
	record *entity.BranchStockRecord // nil = la fila no existe
	stmts  []string                  // sentencias ejecutadas, en orden
}

func (q *scriptedQuerier) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	q.stmts = append(q.stmts, sql)
	// El INSERT ... ON CONFLICT DO NOTHING materializa la fila vacía.
	if strings.Contains(sql, "INSERT INTO branch_stock") && strings.Contains(sql, "DO NOTHING") && q.record == nil {
		q.record = &entity.BranchStockRecord{
			BranchID:  "b1",
			ProductID: "p1",
			VarietyID: "v1",
			Lots:      []entity.StockLot{},
			UpdatedAt: time.Now(),
		}
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (q *scriptedQuerier) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	q.stmts = append(q.stmts, sql)
	panic("Query no participa en estos escenarios")
}

func (q *scriptedQuerier) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	q.stmts = append(q.stmts, sql)
	return scriptedRow{record: q.record}
}

type scriptedRow struct {
	record *entity.BranchStockRecord
}

func (r scriptedRow) Scan(dest ...any) error {
	if r.record == nil {
		return pgx.ErrNoRows
	}
	lotsJSON, _ := json.Marshal(r.record.Lots)
	*dest[0].(*string) = r.record.BranchID
	*dest[1].(*string) = r.record.ProductID
	*dest[2].(*string) = r.record.VarietyID
	*dest[3].(*[]byte) = lotsJSON
	*dest[4].(*int64) = r.record.Quantity
	*dest[5].(*time.Time) = r.record.UpdatedAt
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests GetForUpdate: una fila inexistente no se puede bloquear; el registro
// nuevo debe materializarse y volver a seleccionarse con FOR UPDATE para que
// dos altas concurrentes del mismo registro queden serializadas.
// ──────────────────────────────────────────────────────────────────────────────

func TestGetForUpdate_FilaInexistente_MaterializaYRebloquea(t *testing.T) {
	q := &scriptedQuerier{}
	repo := postgres.NewStockRepository(q)

	rec, err := repo.GetForUpdate("b1", "p1", "v1")
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "b1", rec.BranchID)
	assert.Equal(t, "p1", rec.ProductID)
	assert.Equal(t, "v1", rec.VarietyID)
	assert.Zero(t, rec.Quantity)
	assert.False(t, rec.UpdatedAt.IsZero(),
		"el registro devuelto proviene de la fila materializada, no de un vacío sin bloquear")

	require.Len(t, q.stmts, 3, "SELECT FOR UPDATE, INSERT DO NOTHING, SELECT FOR UPDATE")
	assert.Contains(t, q.stmts[0], "FOR UPDATE")
	assert.Contains(t, q.stmts[1], "ON CONFLICT (branch_id, product_id, variety_id) DO NOTHING")
	assert.Contains(t, q.stmts[2], "FOR UPDATE",
		"tras materializar la fila se reintenta el bloqueo")
}

func TestGetForUpdate_FilaExistente_NoInsertaNada(t *testing.T) {
	existing := &entity.BranchStockRecord{
		BranchID:  "b1",
		ProductID: "p1",
		VarietyID: "v1",
		Lots:      []entity.StockLot{{Quantity: 7}},
		Quantity:  7,
		UpdatedAt: time.Now(),
	}
	q := &scriptedQuerier{record: existing}
	repo := postgres.NewStockRepository(q)

	rec, err := repo.GetForUpdate("b1", "p1", "v1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), rec.Quantity)

	require.Len(t, q.stmts, 1, "la fila existente se bloquea en un solo SELECT")
	assert.Contains(t, q.stmts[0], "FOR UPDATE")
}

func TestGet_FilaInexistente_DevuelveVacioSinInsertar(t *testing.T) {
	q := &scriptedQuerier{}
	repo := postgres.NewStockRepository(q)

	rec, err := repo.Get("b1", "p1", "v1")
	require.NoError(t, err)
	assert.Zero(t, rec.Quantity)
	assert.Empty(t, rec.Lots)

	require.Len(t, q.stmts, 1, "la lectura sin bloqueo no materializa filas")
	assert.NotContains(t, q.stmts[0], "FOR UPDATE")
}
