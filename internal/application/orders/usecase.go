package orders

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/sucursal-pos/internal/application/ports"
	"github.com/tu-usuario/sucursal-pos/internal/domain"
	"github.com/tu-usuario/sucursal-pos/internal/domain/entity"
	domaininv "github.com/tu-usuario/sucursal-pos/internal/domain/inventory"
	"github.com/tu-usuario/sucursal-pos/internal/domain/pricing"
	"github.com/tu-usuario/sucursal-pos/internal/domain/repository"
)

// ItemInput línea de un pedido nuevo tal como la envía el cliente.
type ItemInput struct {
	ProductID string
	VarietyID string
	Quantity  int64
	UnitPrice decimal.Decimal
}

// CreateInput datos para crear un pedido.
type CreateInput struct {
	BranchID     string
	CustomerName string
	Items        []ItemInput
}

// OrderUseCase máquina de estados del pedido: PENDING -> COMPLETED | VOIDED,
// COMPLETED -> RETURNED. Approve valida y descuenta stock de todos los
// registros involucrados dentro de una única transacción; nunca se observa un
// pedido parcialmente aprobado.
type OrderUseCase struct {
	txRunner    TxRunner
	orderRepo   repository.OrderRepository
	branchRepo  repository.BranchRepository
	productRepo repository.ProductRepository
	auditRepo   repository.AuditRepository
	publisher   ports.Publisher
	epsilon     decimal.Decimal
	maxRetries  int
}

// NewOrderUseCase construye el caso de uso. epsilon es la tolerancia del
// validador de precios; maxRetries acota los reintentos por conflicto.
func NewOrderUseCase(
	txRunner TxRunner,
	orderRepo repository.OrderRepository,
	branchRepo repository.BranchRepository,
	productRepo repository.ProductRepository,
	auditRepo repository.AuditRepository,
	publisher ports.Publisher,
	epsilon decimal.Decimal,
	maxRetries int,
) *OrderUseCase {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &OrderUseCase{
		txRunner:    txRunner,
		orderRepo:   orderRepo,
		branchRepo:  branchRepo,
		productRepo: productRepo,
		auditRepo:   auditRepo,
		publisher:   publisher,
		epsilon:     epsilon,
		maxRetries:  maxRetries,
	}
}

func (uc *OrderUseCase) runTx(ctx context.Context, fn func(
	orderRepo repository.OrderRepository,
	stockRepo repository.StockRepository,
	auditRepo repository.AuditRepository,
) error) error {
	var err error
	for attempt := 0; attempt <= uc.maxRetries; attempt++ {
		err = uc.txRunner.RunOrder(ctx, fn)
		if !errors.Is(err, domain.ErrTxConflict) {
			return err
		}
	}
	return domain.ErrConcurrencyConflict
}

func (uc *OrderUseCase) publishOrder(ctx context.Context, order *entity.Order) {
	if err := uc.publisher.OrderChanged(ctx, order); err != nil {
		log.Warn().Err(err).Str("order_id", order.ID).Msg("publicar snapshot de pedido")
	}
}

func (uc *OrderUseCase) publishStock(ctx context.Context, record *entity.BranchStockRecord) {
	if err := uc.publisher.StockChanged(ctx, record); err != nil {
		log.Warn().Err(err).Str("record", record.Key()).Msg("publicar snapshot de stock")
	}
}

// Create valida precios contra el catálogo vigente y crea el pedido en
// PENDING. No toca stock: la deducción ocurre recién en Approve. El precio
// unitario aceptado queda capturado en el ítem y es inmutable después.
func (uc *OrderUseCase) Create(ctx context.Context, actorID string, in CreateInput) (*entity.Order, error) {
	if in.BranchID == "" || len(in.Items) == 0 {
		return nil, domain.ErrInvalidArgument
	}
	branch, err := uc.branchRepo.GetByID(in.BranchID)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, domain.ErrNotFound
	}

	now := time.Now()
	order := &entity.Order{
		ID:           uuid.New().String(),
		BranchID:     in.BranchID,
		CustomerName: in.CustomerName,
		Items:        make([]entity.OrderItem, 0, len(in.Items)),
		TotalPrice:   decimal.Zero,
		Status:       entity.OrderStatusPending,
		CreatedBy:    actorID,
		CreatedAt:    now,
	}
	for _, it := range in.Items {
		if it.Quantity < 1 {
			return nil, domain.ErrInvalidArgument
		}
		variety, err := uc.productRepo.GetVariety(it.ProductID, it.VarietyID)
		if err != nil {
			return nil, err
		}
		if variety == nil {
			return nil, domain.ErrNotFound
		}
		// Recalcular el precio vigente en el servidor: precios obsoletos o
		// manipulados se rechazan con el precio esperado en la respuesta.
		if err := pricing.ValidateUnitPrice(variety, it.UnitPrice, now, uc.epsilon); err != nil {
			return nil, err
		}
		item := entity.OrderItem{
			ProductID:  it.ProductID,
			VarietyID:  it.VarietyID,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			OnSale:     pricing.IsOnSale(variety, now),
			TotalPrice: it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity)),
		}
		order.Items = append(order.Items, item)
		order.TotalPrice = order.TotalPrice.Add(item.TotalPrice)
	}

	err = uc.runTx(ctx, func(orderRepo repository.OrderRepository, _ repository.StockRepository, auditRepo repository.AuditRepository) error {
		if err := orderRepo.Create(order); err != nil {
			return err
		}
		return auditRepo.AppendActivity(newActivityEntry(entity.ActivityOrderCreate, actorID, order, "", entity.OrderStatusPending, ""))
	})
	if err != nil {
		return nil, err
	}
	uc.publishOrder(ctx, order)
	return order, nil
}

// Approve transición PENDING -> COMPLETED. En una sola unidad atómica: lee el
// pedido con bloqueo, valida TODO el stock (reportando todos los ítems
// deficientes, no solo el primero), aplica la deducción FEFO a cada registro,
// marca el pedido COMPLETED y escribe una única entrada de bitácora con todos
// los deltas. Si cualquier ítem falta, ningún registro se modifica.
func (uc *OrderUseCase) Approve(ctx context.Context, actorID, orderID string) (*entity.Order, error) {
	var approved *entity.Order
	var touched []*entity.BranchStockRecord

	err := uc.runTx(ctx, func(orderRepo repository.OrderRepository, stockRepo repository.StockRepository, auditRepo repository.AuditRepository) error {
		touched = touched[:0]
		order, err := orderRepo.GetForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if !entity.CanTransition(order.Status, entity.OrderStatusCompleted) {
			return &domain.InvalidTransitionError{OrderID: orderID, From: order.Status, To: entity.OrderStatusCompleted}
		}

		// Cantidades agregadas por variedad; las filas se bloquean en orden
		// estable de clave para no cruzar bloqueos con otras aprobaciones.
		needs := aggregateItems(order)
		keys := make([]string, 0, len(needs))
		for k := range needs {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		records := make(map[string]*entity.BranchStockRecord, len(keys))
		var shortages []domain.ShortItem
		for _, k := range keys {
			need := needs[k]
			record, err := stockRepo.GetForUpdate(order.BranchID, need.productID, need.varietyID)
			if err != nil {
				return err
			}
			records[k] = record
			if record.Quantity < need.qty {
				shortages = append(shortages, domain.ShortItem{
					ProductID: need.productID,
					VarietyID: need.varietyID,
					Requested: need.qty,
					Available: record.Quantity,
				})
			}
		}
		// La validación es exhaustiva antes de cualquier escritura: la
		// aprobación parcial no existe.
		if len(shortages) > 0 {
			return &domain.InsufficientStockError{Items: shortages}
		}

		now := time.Now()
		deltas := make([]stockDelta, 0, len(keys))
		for _, k := range keys {
			need := needs[k]
			record := records[k]
			remaining, consumed, err := domaininv.ConsumeFEFO(record.Lots, need.qty)
			if err != nil {
				return err
			}
			before := record.Quantity
			record.Lots = remaining
			record.Quantity = record.LotsTotal()
			record.UpdatedAt = now
			if err := stockRepo.Upsert(record); err != nil {
				return err
			}
			touched = append(touched, record)
			deltas = append(deltas, stockDelta{
				ProductID: need.productID,
				VarietyID: need.varietyID,
				Before:    before,
				After:     record.Quantity,
				Lots:      consumed,
			})
		}

		order.Status = entity.OrderStatusCompleted
		order.CompletedAt = &now
		if err := orderRepo.Update(order); err != nil {
			return err
		}
		approved = order

		detail, _ := json.Marshal(map[string]interface{}{"order_id": order.ID, "deltas": deltas})
		entry := &entity.InventoryLogEntry{
			ID:         uuid.New().String(),
			ActionType: entity.ActionOrderApprove,
			ActorID:    actorID,
			BranchID:   order.BranchID,
			BeforeQty:  sumBefore(deltas),
			AfterQty:   sumAfter(deltas),
			Detail:     string(detail),
			CreatedAt:  now,
		}
		if err := auditRepo.AppendInventory(entry); err != nil {
			return err
		}
		return auditRepo.AppendActivity(newActivityEntry(entity.ActivityOrderApprove, actorID, order, entity.OrderStatusPending, entity.OrderStatusCompleted, ""))
	})
	if err != nil {
		return nil, err
	}
	uc.publishOrder(ctx, approved)
	for _, r := range touched {
		uc.publishStock(ctx, r)
	}
	return approved, nil
}

// Void transición PENDING -> VOIDED. Sin efecto en stock: nada se dedujo aún.
func (uc *OrderUseCase) Void(ctx context.Context, actorID, orderID string) (*entity.Order, error) {
	var voided *entity.Order
	err := uc.runTx(ctx, func(orderRepo repository.OrderRepository, _ repository.StockRepository, auditRepo repository.AuditRepository) error {
		order, err := orderRepo.GetForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if !entity.CanTransition(order.Status, entity.OrderStatusVoided) {
			return &domain.InvalidTransitionError{OrderID: orderID, From: order.Status, To: entity.OrderStatusVoided}
		}
		order.Status = entity.OrderStatusVoided
		if err := orderRepo.Update(order); err != nil {
			return err
		}
		voided = order
		return auditRepo.AppendActivity(newActivityEntry(entity.ActivityOrderVoid, actorID, order, entity.OrderStatusPending, entity.OrderStatusVoided, ""))
	})
	if err != nil {
		return nil, err
	}
	uc.publishOrder(ctx, voided)
	return voided, nil
}

// Return transición COMPLETED -> RETURNED. Restituye las mismas cantidades al
// libro de la sucursal como lote de devolución sin vencimiento (los lotes
// originales se consumieron FEFO y pudieron abarcar varias fechas; un lote sin
// fecha ordena al final y no puede adelantarse al stock fechado).
func (uc *OrderUseCase) Return(ctx context.Context, actorID, orderID, reason string) (*entity.Order, error) {
	if reason == "" {
		return nil, domain.ErrInvalidArgument
	}
	var returned *entity.Order
	var touched []*entity.BranchStockRecord

	err := uc.runTx(ctx, func(orderRepo repository.OrderRepository, stockRepo repository.StockRepository, auditRepo repository.AuditRepository) error {
		touched = touched[:0]
		order, err := orderRepo.GetForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if !entity.CanTransition(order.Status, entity.OrderStatusReturned) {
			return &domain.InvalidTransitionError{OrderID: orderID, From: order.Status, To: entity.OrderStatusReturned}
		}

		needs := aggregateItems(order)
		keys := make([]string, 0, len(needs))
		for k := range needs {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		now := time.Now()
		for _, k := range keys {
			need := needs[k]
			record, err := stockRepo.GetForUpdate(order.BranchID, need.productID, need.varietyID)
			if err != nil {
				return err
			}
			before := record.Quantity
			record.Lots = domaininv.Merge(record.Lots, []entity.StockLot{{Quantity: need.qty}})
			record.Quantity = record.LotsTotal()
			record.UpdatedAt = now
			if err := stockRepo.Upsert(record); err != nil {
				return err
			}
			touched = append(touched, record)

			detail, _ := json.Marshal(map[string]interface{}{"order_id": order.ID, "returned": need.qty})
			entry := &entity.InventoryLogEntry{
				ID:         uuid.New().String(),
				ActionType: entity.ActionOrderReturn,
				ActorID:    actorID,
				BranchID:   record.BranchID,
				ProductID:  record.ProductID,
				VarietyID:  record.VarietyID,
				BeforeQty:  before,
				AfterQty:   record.Quantity,
				Detail:     string(detail),
				CreatedAt:  now,
			}
			if err := auditRepo.AppendInventory(entry); err != nil {
				return err
			}
		}

		order.Status = entity.OrderStatusReturned
		order.ReturnReason = reason
		if err := orderRepo.Update(order); err != nil {
			return err
		}
		returned = order
		return auditRepo.AppendActivity(newActivityEntry(entity.ActivityOrderReturn, actorID, order, entity.OrderStatusCompleted, entity.OrderStatusReturned, reason))
	})
	if err != nil {
		return nil, err
	}
	uc.publishOrder(ctx, returned)
	for _, r := range touched {
		uc.publishStock(ctx, r)
	}
	return returned, nil
}

// Delete elimina un pedido PENDING de forma irreversible (limpieza
// administrativa, distinto de anular). Nunca es legal sobre estados terminales.
func (uc *OrderUseCase) Delete(ctx context.Context, actorID, orderID string) error {
	return uc.runTx(ctx, func(orderRepo repository.OrderRepository, _ repository.StockRepository, auditRepo repository.AuditRepository) error {
		order, err := orderRepo.GetForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if order.Status != entity.OrderStatusPending {
			return &domain.InvalidTransitionError{OrderID: orderID, From: order.Status, To: "DELETED"}
		}
		if err := orderRepo.Delete(orderID); err != nil {
			return err
		}
		return auditRepo.AppendActivity(newActivityEntry(entity.ActivityOrderDelete, actorID, order, entity.OrderStatusPending, "DELETED", ""))
	})
}

// GetByID lectura de un pedido.
func (uc *OrderUseCase) GetByID(ctx context.Context, orderID string) (*entity.Order, error) {
	order, err := uc.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

// List lectura de pedidos por sucursal y estado.
func (uc *OrderUseCase) List(ctx context.Context, branchID, status string, limit, offset int) ([]*entity.Order, error) {
	return uc.orderRepo.List(branchID, status, limit, offset)
}

// ListActivity bitácora de actividad de un pedido, reciente primero.
func (uc *OrderUseCase) ListActivity(ctx context.Context, orderID string, limit, offset int) ([]*entity.ActivityLogEntry, error) {
	if orderID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return uc.auditRepo.ListActivity(orderID, limit, offset)
}

// itemNeed cantidad agregada de una variedad dentro de un pedido.
type itemNeed struct {
	productID string
	varietyID string
	qty       int64
}

// aggregateItems suma las líneas que repiten variedad: el libro se bloquea y
// valida una sola vez por registro.
func aggregateItems(order *entity.Order) map[string]itemNeed {
	needs := make(map[string]itemNeed, len(order.Items))
	for _, it := range order.Items {
		k := it.ProductID + "/" + it.VarietyID
		n := needs[k]
		n.productID = it.ProductID
		n.varietyID = it.VarietyID
		n.qty += it.Quantity
		needs[k] = n
	}
	return needs
}

// stockDelta delta de un registro dentro de una aprobación (para la bitácora).
type stockDelta struct {
	ProductID string            `json:"product_id"`
	VarietyID string            `json:"variety_id"`
	Before    int64             `json:"before"`
	After     int64             `json:"after"`
	Lots      []entity.StockLot `json:"lots"`
}

func sumBefore(deltas []stockDelta) int64 {
	var total int64
	for _, d := range deltas {
		total += d.Before
	}
	return total
}

func sumAfter(deltas []stockDelta) int64 {
	var total int64
	for _, d := range deltas {
		total += d.After
	}
	return total
}

func newActivityEntry(action, actorID string, order *entity.Order, before, after, detail string) *entity.ActivityLogEntry {
	return &entity.ActivityLogEntry{
		ID:         uuid.New().String(),
		ActionType: action,
		ActorID:    actorID,
		OrderID:    order.ID,
		BranchID:   order.BranchID,
		Before:     before,
		After:      after,
		Detail:     detail,
		CreatedAt:  time.Now(),
	}
}
