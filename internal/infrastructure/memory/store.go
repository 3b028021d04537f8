// Package memory implementa los repositorios del dominio sobre mapas en
// memoria, con transacciones de escritura por etapas: el callback escribe en
// un buffer que se aplica completo en el commit o se descarta ante error.
// Se usa en tests y en desarrollo local (STORE_DRIVER=memory).
package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tu-usuario/sucursal-pos/internal/domain/entity"
	"github.com/tu-usuario/sucursal-pos/internal/domain/repository"
)

var _ repository.StockRepository = (*Store)(nil)
var _ repository.AuditRepository = (*Store)(nil)
var _ repository.OrderRepository = (*orderView)(nil)
var _ repository.BranchRepository = (*branchView)(nil)
var _ repository.ProductRepository = (*productView)(nil)

// Store contenedor de todos los agregados. Un único mutex serializa las
// transacciones completas: equivale al aislamiento que da la BD con
// SELECT FOR UPDATE, sin estados intermedios observables.
type Store struct {
	mu        sync.Mutex
	branches  map[string]*entity.Branch
	products  map[string]*entity.Product
	varieties map[string]*entity.Variety // productID + "/" + varietyID
	stock     map[string]*entity.BranchStockRecord
	orders    map[string]*entity.Order
	invLog    []*entity.InventoryLogEntry
	actLog    []*entity.ActivityLogEntry
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		branches:  make(map[string]*entity.Branch),
		products:  make(map[string]*entity.Product),
		varieties: make(map[string]*entity.Variety),
		stock:     make(map[string]*entity.BranchStockRecord),
		orders:    make(map[string]*entity.Order),
	}
}

// SeedBranch carga una sucursal (catálogo externo al núcleo).
func (s *Store) SeedBranch(b *entity.Branch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.branches[b.ID] = b
}

// SeedProduct carga un producto.
func (s *Store) SeedProduct(p *entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// SeedVariety carga una variedad de un producto.
func (s *Store) SeedVariety(v *entity.Variety) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.varieties[v.ProductID+"/"+v.ID] = v
}

func stockKey(branchID, productID, varietyID string) string {
	return branchID + "/" + productID + "/" + varietyID
}

func sortRecords(records []*entity.BranchStockRecord) {
	sort.Slice(records, func(i, j int) bool { return records[i].Key() < records[j].Key() })
}

func sortOrders(orders []*entity.Order) {
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
}

// copyRecord copia profunda: los callers nunca comparten slices de lotes con el store.
func copyRecord(r *entity.BranchStockRecord) *entity.BranchStockRecord {
	out := *r
	out.Lots = make([]entity.StockLot, len(r.Lots))
	copy(out.Lots, r.Lots)
	return &out
}

func copyOrder(o *entity.Order) *entity.Order {
	out := *o
	out.Items = make([]entity.OrderItem, len(o.Items))
	copy(out.Items, o.Items)
	if o.CompletedAt != nil {
		t := *o.CompletedAt
		out.CompletedAt = &t
	}
	return &out
}

// ── Lecturas fuera de transacción ─────────────────────────────────────────────

// Get devuelve el registro de stock o uno vacío direccionable.
func (s *Store) Get(branchID, productID, varietyID string) (*entity.BranchStockRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getRecordLocked(branchID, productID, varietyID), nil
}

// GetForUpdate fuera de transacción equivale a Get (el mutex ya serializa).
func (s *Store) GetForUpdate(branchID, productID, varietyID string) (*entity.BranchStockRecord, error) {
	return s.Get(branchID, productID, varietyID)
}

func (s *Store) getRecordLocked(branchID, productID, varietyID string) *entity.BranchStockRecord {
	if r, ok := s.stock[stockKey(branchID, productID, varietyID)]; ok {
		return copyRecord(r)
	}
	return &entity.BranchStockRecord{BranchID: branchID, ProductID: productID, VarietyID: varietyID}
}

// Upsert escribe el registro (fuera de transacción; los usecases usan la vía transaccional).
func (s *Store) Upsert(record *entity.BranchStockRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stock[record.Key()] = copyRecord(record)
	return nil
}

// ListByBranch lista los registros de una sucursal ordenados por clave.
func (s *Store) ListByBranch(branchID string) ([]*entity.BranchStockRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.BranchStockRecord
	for k, r := range s.stock {
		if strings.HasPrefix(k, branchID+"/") {
			out = append(out, copyRecord(r))
		}
	}
	sortRecords(out)
	return out, nil
}

// Orders devuelve la vista OrderRepository del store. Los pedidos van en una
// vista aparte porque sus firmas chocan con las del libro de stock.
type orderView struct{ s *Store }

func (s *Store) Orders() *orderView { return &orderView{s} }

func (v *orderView) GetByID(id string) (*entity.Order, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if o, ok := v.s.orders[id]; ok {
		return copyOrder(o), nil
	}
	return nil, nil
}

func (v *orderView) GetForUpdate(id string) (*entity.Order, error) {
	return v.GetByID(id)
}

func (v *orderView) Create(order *entity.Order) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	v.s.orders[order.ID] = copyOrder(order)
	return nil
}

func (v *orderView) Update(order *entity.Order) error {
	return v.Create(order)
}

func (v *orderView) Delete(id string) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	delete(v.s.orders, id)
	return nil
}

func (v *orderView) List(branchID, status string, limit, offset int) ([]*entity.Order, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var all []*entity.Order
	for _, o := range v.s.orders {
		if branchID != "" && o.BranchID != branchID {
			continue
		}
		if status != "" && o.Status != status {
			continue
		}
		all = append(all, copyOrder(o))
	}
	sortOrders(all)
	return page(all, limit, offset), nil
}

// ListInventory lista la bitácora de inventario de una sucursal, reciente primero.
func (s *Store) ListInventory(branchID string, limit, offset int) ([]*entity.InventoryLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []*entity.InventoryLogEntry
	for i := len(s.invLog) - 1; i >= 0; i-- {
		if s.invLog[i].BranchID == branchID {
			e := *s.invLog[i]
			all = append(all, &e)
		}
	}
	return page(all, limit, offset), nil
}

// ListActivity lista la bitácora de actividad de un pedido, reciente primero.
func (s *Store) ListActivity(orderID string, limit, offset int) ([]*entity.ActivityLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []*entity.ActivityLogEntry
	for i := len(s.actLog) - 1; i >= 0; i-- {
		if s.actLog[i].OrderID == orderID {
			e := *s.actLog[i]
			all = append(all, &e)
		}
	}
	return page(all, limit, offset), nil
}

func page[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all
}

// GetByID (sucursal) — BranchRepository.
type branchView struct{ s *Store }

// Branches devuelve la vista BranchRepository del store.
func (s *Store) Branches() *branchView { return &branchView{s} }

func (v *branchView) GetByID(id string) (*entity.Branch, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if b, ok := v.s.branches[id]; ok {
		out := *b
		return &out, nil
	}
	return nil, nil
}

func (v *branchView) List() ([]*entity.Branch, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var out []*entity.Branch
	for _, b := range v.s.branches {
		c := *b
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Products devuelve la vista ProductRepository del store.
type productView struct{ s *Store }

func (s *Store) Products() *productView { return &productView{s} }

func (v *productView) GetByID(id string) (*entity.Product, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if p, ok := v.s.products[id]; ok {
		out := *p
		return &out, nil
	}
	return nil, nil
}

func (v *productView) GetVariety(productID, varietyID string) (*entity.Variety, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if vv, ok := v.s.varieties[productID+"/"+varietyID]; ok {
		out := *vv
		if vv.Sale != nil {
			sale := *vv.Sale
			out.Sale = &sale
		}
		return &out, nil
	}
	return nil, nil
}

// AppendInventory / AppendActivity fuera de transacción (solo tests de lectura).
func (s *Store) AppendInventory(entry *entity.InventoryLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := *entry
	s.invLog = append(s.invLog, &e)
	return nil
}

func (s *Store) AppendActivity(entry *entity.ActivityLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := *entry
	s.actLog = append(s.actLog, &e)
	return nil
}

// SeedStock carga un registro de stock inicial (tests y fixtures de desarrollo).
func (s *Store) SeedStock(record *entity.BranchStockRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now()
	}
	s.stock[record.Key()] = copyRecord(record)
}
