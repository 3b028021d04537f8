package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/sucursal-pos/internal/domain/entity"
	"github.com/tu-usuario/sucursal-pos/internal/domain/repository"
	"github.com/tu-usuario/sucursal-pos/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tests de las escrituras por etapas: el buffer se aplica completo en el commit
// o se descarta sin dejar efectos parciales.
// ──────────────────────────────────────────────────────────────────────────────

func baseRecord(qty int64) *entity.BranchStockRecord {
	return &entity.BranchStockRecord{
		BranchID:  "b1",
		ProductID: "p1",
		VarietyID: "v1",
		Lots:      []entity.StockLot{{Quantity: qty}},
		Quantity:  qty,
		UpdatedAt: time.Now(),
	}
}

func TestRun_ErrorDescartaTodoElBuffer(t *testing.T) {
	store := memory.NewStore()
	store.SeedStock(baseRecord(5))
	runner := memory.NewTxRunner(store)

	boom := errors.New("falla simulada")
	err := runner.Run(context.Background(), func(stockRepo repository.StockRepository, auditRepo repository.AuditRepository) error {
		record, err := stockRepo.GetForUpdate("b1", "p1", "v1")
		require.NoError(t, err)
		record.Quantity = 0
		record.Lots = nil
		require.NoError(t, stockRepo.Upsert(record))
		require.NoError(t, auditRepo.AppendInventory(&entity.InventoryLogEntry{ID: "e1", BranchID: "b1"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	record, _ := store.Get("b1", "p1", "v1")
	assert.Equal(t, int64(5), record.Quantity, "la transacción fallida no deja mutación parcial")

	entries, _ := store.ListInventory("b1", 10, 0)
	assert.Empty(t, entries, "la bitácora tampoco conserva entradas de la transacción fallida")
}

func TestRun_CommitAplicaElBufferCompleto(t *testing.T) {
	store := memory.NewStore()
	store.SeedStock(baseRecord(5))
	runner := memory.NewTxRunner(store)

	err := runner.Run(context.Background(), func(stockRepo repository.StockRepository, auditRepo repository.AuditRepository) error {
		record, err := stockRepo.GetForUpdate("b1", "p1", "v1")
		require.NoError(t, err)
		record.Quantity = 8
		record.Lots = []entity.StockLot{{Quantity: 8}}
		if err := stockRepo.Upsert(record); err != nil {
			return err
		}
		return auditRepo.AppendInventory(&entity.InventoryLogEntry{ID: "e1", BranchID: "b1"})
	})
	require.NoError(t, err)

	record, _ := store.Get("b1", "p1", "v1")
	assert.Equal(t, int64(8), record.Quantity)

	entries, _ := store.ListInventory("b1", 10, 0)
	assert.Len(t, entries, 1)
}

func TestRun_LaTransaccionLeeSusPropiasEscrituras(t *testing.T) {
	store := memory.NewStore()
	runner := memory.NewTxRunner(store)

	err := runner.Run(context.Background(), func(stockRepo repository.StockRepository, _ repository.AuditRepository) error {
		record, err := stockRepo.Get("b1", "p1", "v1")
		require.NoError(t, err)
		record.Quantity = 3
		record.Lots = []entity.StockLot{{Quantity: 3}}
		if err := stockRepo.Upsert(record); err != nil {
			return err
		}
		reread, err := stockRepo.Get("b1", "p1", "v1")
		require.NoError(t, err)
		assert.Equal(t, int64(3), reread.Quantity, "la lectura dentro de la tx ve lo escrito en la tx")
		return nil
	})
	require.NoError(t, err)
}

func TestRunOrder_DeleteEnTransaccion(t *testing.T) {
	store := memory.NewStore()
	orders := store.Orders()
	require.NoError(t, orders.Create(&entity.Order{ID: "o1", BranchID: "b1", Status: entity.OrderStatusPending, CreatedAt: time.Now()}))
	runner := memory.NewTxRunner(store)

	err := runner.RunOrder(context.Background(), func(orderRepo repository.OrderRepository, _ repository.StockRepository, _ repository.AuditRepository) error {
		if err := orderRepo.Delete("o1"); err != nil {
			return err
		}
		gone, err := orderRepo.GetByID("o1")
		require.NoError(t, err)
		assert.Nil(t, gone, "el pedido borrado en la tx ya no es visible dentro de ella")
		return nil
	})
	require.NoError(t, err)

	gone, err := orders.GetByID("o1")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestStore_LasLecturasDevuelvenCopias(t *testing.T) {
	store := memory.NewStore()
	store.SeedStock(baseRecord(5))

	record, _ := store.Get("b1", "p1", "v1")
	record.Lots[0].Quantity = 999
	record.Quantity = 999

	fresh, _ := store.Get("b1", "p1", "v1")
	assert.Equal(t, int64(5), fresh.Quantity, "mutar lo devuelto no afecta el estado del store")
	assert.Equal(t, int64(5), fresh.Lots[0].Quantity)
}
