package memory

import (
	"context"

	"github.com/tu-usuario/sucursal-pos/internal/application/inventory"
	"github.com/tu-usuario/sucursal-pos/internal/application/orders"
	"github.com/tu-usuario/sucursal-pos/internal/domain/entity"
	"github.com/tu-usuario/sucursal-pos/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)
var _ orders.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks transaccionales sobre el store en memoria.
// El mutex del store se retiene durante todo el callback, de modo que las
// transacciones quedan serializadas y nunca hay conflictos que reintentar.
type TxRunner struct {
	store *Store
}

// NewTxRunner construye el runner sobre un store.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

// txView buffer de escrituras de una transacción. Las lecturas consultan
// primero lo escrito en la propia transacción y después el estado base.
type txView struct {
	store         *Store
	stagedStock   map[string]*entity.BranchStockRecord
	stagedOrders  map[string]*entity.Order
	deletedOrders map[string]bool
	stagedInvLog  []*entity.InventoryLogEntry
	stagedActLog  []*entity.ActivityLogEntry
}

func newTxView(store *Store) *txView {
	return &txView{
		store:         store,
		stagedStock:   make(map[string]*entity.BranchStockRecord),
		stagedOrders:  make(map[string]*entity.Order),
		deletedOrders: make(map[string]bool),
	}
}

// commit aplica el buffer al estado base. Se llama con el mutex retenido.
func (tx *txView) commit() {
	for k, r := range tx.stagedStock {
		tx.store.stock[k] = r
	}
	for k, o := range tx.stagedOrders {
		tx.store.orders[k] = o
	}
	for k := range tx.deletedOrders {
		delete(tx.store.orders, k)
	}
	tx.store.invLog = append(tx.store.invLog, tx.stagedInvLog...)
	tx.store.actLog = append(tx.store.actLog, tx.stagedActLog...)
}

// Run ejecuta una mutación de stock. Si fn falla, el buffer se descarta y el
// estado base queda intacto.
func (t *TxRunner) Run(ctx context.Context, fn func(stockRepo repository.StockRepository, auditRepo repository.AuditRepository) error) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	tx := newTxView(t.store)
	if err := fn(&txStockRepo{tx}, &txAuditRepo{tx}); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// RunOrder ejecuta una operación del ciclo de vida de pedidos.
func (t *TxRunner) RunOrder(ctx context.Context, fn func(orderRepo repository.OrderRepository, stockRepo repository.StockRepository, auditRepo repository.AuditRepository) error) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	tx := newTxView(t.store)
	if err := fn(&txOrderRepo{tx}, &txStockRepo{tx}, &txAuditRepo{tx}); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// ── Repos ligados a la transacción (el mutex ya está retenido) ───────────────

type txStockRepo struct {
	tx *txView
}

func (r *txStockRepo) Get(branchID, productID, varietyID string) (*entity.BranchStockRecord, error) {
	if rec, ok := r.tx.stagedStock[stockKey(branchID, productID, varietyID)]; ok {
		return copyRecord(rec), nil
	}
	return r.tx.store.getRecordLocked(branchID, productID, varietyID), nil
}

func (r *txStockRepo) GetForUpdate(branchID, productID, varietyID string) (*entity.BranchStockRecord, error) {
	return r.Get(branchID, productID, varietyID)
}

func (r *txStockRepo) Upsert(record *entity.BranchStockRecord) error {
	r.tx.stagedStock[record.Key()] = copyRecord(record)
	return nil
}

func (r *txStockRepo) ListByBranch(branchID string) ([]*entity.BranchStockRecord, error) {
	merged := make(map[string]*entity.BranchStockRecord)
	for k, rec := range r.tx.store.stock {
		merged[k] = rec
	}
	for k, rec := range r.tx.stagedStock {
		merged[k] = rec
	}
	var out []*entity.BranchStockRecord
	for _, rec := range merged {
		if rec.BranchID == branchID {
			out = append(out, copyRecord(rec))
		}
	}
	sortRecords(out)
	return out, nil
}

type txOrderRepo struct {
	tx *txView
}

func (r *txOrderRepo) GetByID(id string) (*entity.Order, error) {
	if r.tx.deletedOrders[id] {
		return nil, nil
	}
	if o, ok := r.tx.stagedOrders[id]; ok {
		return copyOrder(o), nil
	}
	if o, ok := r.tx.store.orders[id]; ok {
		return copyOrder(o), nil
	}
	return nil, nil
}

func (r *txOrderRepo) GetForUpdate(id string) (*entity.Order, error) {
	return r.GetByID(id)
}

func (r *txOrderRepo) Create(order *entity.Order) error {
	r.tx.stagedOrders[order.ID] = copyOrder(order)
	return nil
}

func (r *txOrderRepo) Update(order *entity.Order) error {
	r.tx.stagedOrders[order.ID] = copyOrder(order)
	return nil
}

func (r *txOrderRepo) Delete(id string) error {
	delete(r.tx.stagedOrders, id)
	r.tx.deletedOrders[id] = true
	return nil
}

func (r *txOrderRepo) List(branchID, status string, limit, offset int) ([]*entity.Order, error) {
	merged := make(map[string]*entity.Order)
	for k, o := range r.tx.store.orders {
		merged[k] = o
	}
	for k, o := range r.tx.stagedOrders {
		merged[k] = o
	}
	var out []*entity.Order
	for id, o := range merged {
		if r.tx.deletedOrders[id] {
			continue
		}
		if branchID != "" && o.BranchID != branchID {
			continue
		}
		if status != "" && o.Status != status {
			continue
		}
		out = append(out, copyOrder(o))
	}
	sortOrders(out)
	return page(out, limit, offset), nil
}

type txAuditRepo struct {
	tx *txView
}

func (r *txAuditRepo) AppendInventory(entry *entity.InventoryLogEntry) error {
	e := *entry
	r.tx.stagedInvLog = append(r.tx.stagedInvLog, &e)
	return nil
}

func (r *txAuditRepo) AppendActivity(entry *entity.ActivityLogEntry) error {
	e := *entry
	r.tx.stagedActLog = append(r.tx.stagedActLog, &e)
	return nil
}

func (r *txAuditRepo) ListInventory(branchID string, limit, offset int) ([]*entity.InventoryLogEntry, error) {
	var out []*entity.InventoryLogEntry
	for i := len(r.tx.store.invLog) - 1; i >= 0; i-- {
		if r.tx.store.invLog[i].BranchID == branchID {
			e := *r.tx.store.invLog[i]
			out = append(out, &e)
		}
	}
	return page(out, limit, offset), nil
}

func (r *txAuditRepo) ListActivity(orderID string, limit, offset int) ([]*entity.ActivityLogEntry, error) {
	var out []*entity.ActivityLogEntry
	for i := len(r.tx.store.actLog) - 1; i >= 0; i-- {
		if r.tx.store.actLog[i].OrderID == orderID {
			e := *r.tx.store.actLog[i]
			out = append(out, &e)
		}
	}
	return page(out, limit, offset), nil
}
