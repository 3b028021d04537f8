package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tu-usuario/sucursal-pos/internal/application/ports"
	"github.com/tu-usuario/sucursal-pos/internal/domain"
	"github.com/tu-usuario/sucursal-pos/internal/domain/entity"
	domaininv "github.com/tu-usuario/sucursal-pos/internal/domain/inventory"
	"github.com/tu-usuario/sucursal-pos/internal/domain/repository"
)

// StockUseCase motor de mutación de stock: add, deduct, reject, transfer y
// adjust contra el libro por sucursal/variedad. Toda mutación corre en una
// transacción con la fila bloqueada (SELECT FOR UPDATE), escribe su entrada de
// bitácora en la misma transacción y publica el snapshot al confirmar.
type StockUseCase struct {
	txRunner    TxRunner
	branchRepo  repository.BranchRepository
	productRepo repository.ProductRepository
	publisher   ports.Publisher
	maxRetries  int
}

// NewStockUseCase construye el motor. maxRetries acota los reintentos ante
// conflictos de serialización antes de reportar ConcurrencyConflict.
func NewStockUseCase(
	txRunner TxRunner,
	branchRepo repository.BranchRepository,
	productRepo repository.ProductRepository,
	publisher ports.Publisher,
	maxRetries int,
) *StockUseCase {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &StockUseCase{
		txRunner:    txRunner,
		branchRepo:  branchRepo,
		productRepo: productRepo,
		publisher:   publisher,
		maxRetries:  maxRetries,
	}
}

// runTx ejecuta fn reintentando ante abortos por serialización/deadlock.
// Agotados los reintentos, el caller recibe ErrConcurrencyConflict.
func (uc *StockUseCase) runTx(ctx context.Context, fn func(
	stockRepo repository.StockRepository,
	auditRepo repository.AuditRepository,
) error) error {
	var err error
	for attempt := 0; attempt <= uc.maxRetries; attempt++ {
		err = uc.txRunner.Run(ctx, fn)
		if !errors.Is(err, domain.ErrTxConflict) {
			return err
		}
	}
	return domain.ErrConcurrencyConflict
}

// validateTarget verifica que sucursal, producto y variedad existan.
func (uc *StockUseCase) validateTarget(branchID, productID, varietyID string) error {
	if branchID == "" || productID == "" || varietyID == "" {
		return domain.ErrInvalidArgument
	}
	branch, err := uc.branchRepo.GetByID(branchID)
	if err != nil {
		return err
	}
	if branch == nil {
		return domain.ErrNotFound
	}
	variety, err := uc.productRepo.GetVariety(productID, varietyID)
	if err != nil {
		return err
	}
	if variety == nil {
		return domain.ErrNotFound
	}
	return nil
}

// publishStock publica el snapshot del registro; un fallo del canal de lectura
// no revierte la mutación ya confirmada, solo se registra.
func (uc *StockUseCase) publishStock(ctx context.Context, record *entity.BranchStockRecord) {
	if err := uc.publisher.StockChanged(ctx, record); err != nil {
		log.Warn().Err(err).Str("record", record.Key()).Msg("publicar snapshot de stock")
	}
}

// AddStock agrega lotes al registro, fusionando los que comparten fecha de
// vencimiento, y recalcula la cantidad total. Crea el registro si no existe.
func (uc *StockUseCase) AddStock(ctx context.Context, actorID, branchID, productID, varietyID string, lots []entity.StockLot) (*entity.BranchStockRecord, error) {
	if err := domaininv.ValidateLots(lots); err != nil {
		return nil, err
	}
	if err := uc.validateTarget(branchID, productID, varietyID); err != nil {
		return nil, err
	}

	var result *entity.BranchStockRecord
	err := uc.runTx(ctx, func(stockRepo repository.StockRepository, auditRepo repository.AuditRepository) error {
		record, err := stockRepo.GetForUpdate(branchID, productID, varietyID)
		if err != nil {
			return err
		}
		before := record.Quantity
		record.Lots = domaininv.Merge(record.Lots, lots)
		record.Quantity = record.LotsTotal()
		record.UpdatedAt = time.Now()
		if err := stockRepo.Upsert(record); err != nil {
			return err
		}
		result = record
		return auditRepo.AppendInventory(newInventoryEntry(entity.ActionAddStock, actorID, record, before, lotsDetail("added", lots)))
	})
	if err != nil {
		return nil, err
	}
	uc.publishStock(ctx, result)
	return result, nil
}

// DeductStock descuenta qty con consumo FEFO. Si el total disponible no
// alcanza, el registro queda intacto y se retorna InsufficientStock.
func (uc *StockUseCase) DeductStock(ctx context.Context, actorID, branchID, productID, varietyID string, qty int64) (*entity.BranchStockRecord, error) {
	if qty <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if err := uc.validateTarget(branchID, productID, varietyID); err != nil {
		return nil, err
	}

	var result *entity.BranchStockRecord
	err := uc.runTx(ctx, func(stockRepo repository.StockRepository, auditRepo repository.AuditRepository) error {
		record, err := stockRepo.GetForUpdate(branchID, productID, varietyID)
		if err != nil {
			return err
		}
		before := record.Quantity
		remaining, consumed, err := domaininv.ConsumeFEFO(record.Lots, qty)
		if err != nil {
			if errors.Is(err, domain.ErrInsufficientStock) {
				return &domain.InsufficientStockError{Items: []domain.ShortItem{{
					ProductID: productID, VarietyID: varietyID, Requested: qty, Available: record.Quantity,
				}}}
			}
			return err
		}
		record.Lots = remaining
		record.Quantity = record.LotsTotal()
		record.UpdatedAt = time.Now()
		if err := stockRepo.Upsert(record); err != nil {
			return err
		}
		result = record
		return auditRepo.AppendInventory(newInventoryEntry(entity.ActionDeductStock, actorID, record, before, lotsDetail("consumed", consumed)))
	})
	if err != nil {
		return nil, err
	}
	uc.publishStock(ctx, result)
	return result, nil
}

// RejectStock remueve exactamente los lotes nombrados (mercancía dañada o
// vencida). Falla sin mutación parcial si algún lote excede lo presente.
func (uc *StockUseCase) RejectStock(ctx context.Context, actorID, branchID, productID, varietyID string, lots []entity.StockLot) (*entity.BranchStockRecord, error) {
	if err := domaininv.ValidateLots(lots); err != nil {
		return nil, err
	}
	if err := uc.validateTarget(branchID, productID, varietyID); err != nil {
		return nil, err
	}

	var result *entity.BranchStockRecord
	err := uc.runTx(ctx, func(stockRepo repository.StockRepository, auditRepo repository.AuditRepository) error {
		record, err := stockRepo.GetForUpdate(branchID, productID, varietyID)
		if err != nil {
			return err
		}
		before := record.Quantity
		remaining, err := domaininv.ConsumeExact(record.Lots, lots)
		if err != nil {
			if errors.Is(err, domain.ErrInsufficientStock) {
				return &domain.InsufficientStockError{Items: []domain.ShortItem{{
					ProductID: productID, VarietyID: varietyID, Requested: lotsTotal(lots), Available: record.Quantity,
				}}}
			}
			return err
		}
		record.Lots = remaining
		record.Quantity = record.LotsTotal()
		record.UpdatedAt = time.Now()
		if err := stockRepo.Upsert(record); err != nil {
			return err
		}
		result = record
		return auditRepo.AppendInventory(newInventoryEntry(entity.ActionRejectStock, actorID, record, before, lotsDetail("rejected", lots)))
	})
	if err != nil {
		return nil, err
	}
	uc.publishStock(ctx, result)
	return result, nil
}

// TransferStock mueve los lotes nombrados de una sucursal a otra en una sola
// transacción: o se actualizan ambos registros o ninguno. Las filas se
// bloquean en orden estable de clave para no cruzar bloqueos entre traslados.
func (uc *StockUseCase) TransferStock(ctx context.Context, actorID, sourceBranchID, destBranchID, productID, varietyID string, lots []entity.StockLot) (source, dest *entity.BranchStockRecord, err error) {
	if sourceBranchID == destBranchID {
		return nil, nil, domain.ErrInvalidArgument
	}
	if err := domaininv.ValidateLots(lots); err != nil {
		return nil, nil, err
	}
	if err := uc.validateTarget(sourceBranchID, productID, varietyID); err != nil {
		return nil, nil, err
	}
	if err := uc.validateTarget(destBranchID, productID, varietyID); err != nil {
		return nil, nil, err
	}

	err = uc.runTx(ctx, func(stockRepo repository.StockRepository, auditRepo repository.AuditRepository) error {
		lockFirst, lockSecond := sourceBranchID, destBranchID
		if lockSecond < lockFirst {
			lockFirst, lockSecond = lockSecond, lockFirst
		}
		first, err := stockRepo.GetForUpdate(lockFirst, productID, varietyID)
		if err != nil {
			return err
		}
		second, err := stockRepo.GetForUpdate(lockSecond, productID, varietyID)
		if err != nil {
			return err
		}
		src, dst := first, second
		if src.BranchID != sourceBranchID {
			src, dst = second, first
		}

		srcBefore := src.Quantity
		dstBefore := dst.Quantity
		remaining, err := domaininv.ConsumeExact(src.Lots, lots)
		if err != nil {
			if errors.Is(err, domain.ErrInsufficientStock) {
				return &domain.InsufficientStockError{Items: []domain.ShortItem{{
					ProductID: productID, VarietyID: varietyID, Requested: lotsTotal(lots), Available: src.Quantity,
				}}}
			}
			return err
		}
		now := time.Now()
		src.Lots = remaining
		src.Quantity = src.LotsTotal()
		src.UpdatedAt = now
		dst.Lots = domaininv.Merge(dst.Lots, lots)
		dst.Quantity = dst.LotsTotal()
		dst.UpdatedAt = now

		if err := stockRepo.Upsert(src); err != nil {
			return err
		}
		if err := stockRepo.Upsert(dst); err != nil {
			return err
		}
		source, dest = src, dst

		detail := lotsDetail("transferred", lots)
		if err := auditRepo.AppendInventory(newInventoryEntry(entity.ActionTransferStock, actorID, src, srcBefore, detail)); err != nil {
			return err
		}
		return auditRepo.AppendInventory(newInventoryEntry(entity.ActionTransferStock, actorID, dst, dstBefore, detail))
	})
	if err != nil {
		return nil, nil, err
	}
	uc.publishStock(ctx, source)
	uc.publishStock(ctx, dest)
	return source, dest, nil
}

// AdjustStock corrección manual tras conteo físico. Delta positivo agrega
// (lotes explícitos o un lote sin vencimiento); delta negativo descuenta
// (lotes explícitos si se nombran, FEFO en caso contrario).
func (uc *StockUseCase) AdjustStock(ctx context.Context, actorID, branchID, productID, varietyID string, delta int64, lots []entity.StockLot) (*entity.BranchStockRecord, error) {
	if delta == 0 {
		return nil, domain.ErrInvalidArgument
	}
	if len(lots) > 0 {
		if err := domaininv.ValidateLots(lots); err != nil {
			return nil, err
		}
		if lotsTotal(lots) != abs(delta) {
			return nil, domain.ErrInvalidArgument
		}
	}
	if err := uc.validateTarget(branchID, productID, varietyID); err != nil {
		return nil, err
	}

	var result *entity.BranchStockRecord
	err := uc.runTx(ctx, func(stockRepo repository.StockRepository, auditRepo repository.AuditRepository) error {
		record, err := stockRepo.GetForUpdate(branchID, productID, varietyID)
		if err != nil {
			return err
		}
		before := record.Quantity

		switch {
		case delta > 0 && len(lots) > 0:
			record.Lots = domaininv.Merge(record.Lots, lots)
		case delta > 0:
			record.Lots = domaininv.Merge(record.Lots, []entity.StockLot{{Quantity: delta}})
		case len(lots) > 0:
			remaining, err := domaininv.ConsumeExact(record.Lots, lots)
			if err != nil {
				return adjustShortage(err, productID, varietyID, abs(delta), record.Quantity)
			}
			record.Lots = remaining
		default:
			remaining, _, err := domaininv.ConsumeFEFO(record.Lots, -delta)
			if err != nil {
				return adjustShortage(err, productID, varietyID, -delta, record.Quantity)
			}
			record.Lots = remaining
		}

		record.Quantity = record.LotsTotal()
		record.UpdatedAt = time.Now()
		if err := stockRepo.Upsert(record); err != nil {
			return err
		}
		result = record
		detail, _ := json.Marshal(map[string]interface{}{"delta": delta})
		return auditRepo.AppendInventory(newInventoryEntry(entity.ActionAdjustStock, actorID, record, before, string(detail)))
	})
	if err != nil {
		return nil, err
	}
	uc.publishStock(ctx, result)
	return result, nil
}

// adjustShortage envuelve el faltante de un ajuste negativo con el detalle del ítem.
func adjustShortage(err error, productID, varietyID string, requested, available int64) error {
	if errors.Is(err, domain.ErrInsufficientStock) {
		return &domain.InsufficientStockError{Items: []domain.ShortItem{{
			ProductID: productID, VarietyID: varietyID, Requested: requested, Available: available,
		}}}
	}
	return err
}

// newInventoryEntry arma la entrada de bitácora de una mutación.
func newInventoryEntry(action, actorID string, record *entity.BranchStockRecord, before int64, detail string) *entity.InventoryLogEntry {
	return &entity.InventoryLogEntry{
		ID:         uuid.New().String(),
		ActionType: action,
		ActorID:    actorID,
		BranchID:   record.BranchID,
		ProductID:  record.ProductID,
		VarietyID:  record.VarietyID,
		BeforeQty:  before,
		AfterQty:   record.Quantity,
		Detail:     detail,
		CreatedAt:  time.Now(),
	}
}

// lotsDetail serializa los lotes afectados para la bitácora.
func lotsDetail(key string, lots []entity.StockLot) string {
	b, err := json.Marshal(map[string][]entity.StockLot{key: lots})
	if err != nil {
		return ""
	}
	return string(b)
}

func lotsTotal(lots []entity.StockLot) int64 {
	var total int64
	for _, l := range lots {
		total += l.Quantity
	}
	return total
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
