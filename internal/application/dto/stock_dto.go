package dto

import (
	"time"

	"github.com/tu-usuario/sucursal-pos/internal/domain"
	"github.com/tu-usuario/sucursal-pos/internal/domain/entity"
)

// dateLayout formato de fecha de vencimiento en la API (granularidad de día).
const dateLayout = "2006-01-02"

// LotDTO lote en la API: fecha de vencimiento opcional (YYYY-MM-DD) y cantidad.
type LotDTO struct {
	ExpirationDate *string `json:"expiration_date"`
	Quantity       int64   `json:"quantity"`
}

// ToEntity convierte el DTO a entidad validando el formato de fecha.
func (l LotDTO) ToEntity() (entity.StockLot, error) {
	lot := entity.StockLot{Quantity: l.Quantity}
	if l.ExpirationDate != nil && *l.ExpirationDate != "" {
		t, err := time.ParseInLocation(dateLayout, *l.ExpirationDate, time.UTC)
		if err != nil {
			return entity.StockLot{}, domain.ErrInvalidArgument
		}
		lot.ExpirationDate = &t
	}
	return lot, nil
}

// LotsToEntity convierte una lista de lotes DTO a entidades.
func LotsToEntity(in []LotDTO) ([]entity.StockLot, error) {
	out := make([]entity.StockLot, 0, len(in))
	for _, l := range in {
		lot, err := l.ToEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, lot)
	}
	return out, nil
}

// LotsFromEntity convierte lotes de entidad a DTO.
func LotsFromEntity(in []entity.StockLot) []LotDTO {
	out := make([]LotDTO, 0, len(in))
	for _, l := range in {
		d := LotDTO{Quantity: l.Quantity}
		if l.ExpirationDate != nil {
			s := l.ExpirationDate.Format(dateLayout)
			d.ExpirationDate = &s
		}
		out = append(out, d)
	}
	return out
}

// AddStockRequest body para POST /api/stock/add.
type AddStockRequest struct {
	BranchID  string   `json:"branch_id"`
	ProductID string   `json:"product_id"`
	VarietyID string   `json:"variety_id"`
	Lots      []LotDTO `json:"lots"`
}

// DeductStockRequest body para POST /api/stock/deduct (consumo FEFO).
type DeductStockRequest struct {
	BranchID  string `json:"branch_id"`
	ProductID string `json:"product_id"`
	VarietyID string `json:"variety_id"`
	Quantity  int64  `json:"quantity"`
}

// RejectStockRequest body para POST /api/stock/reject (lotes dañados/vencidos).
type RejectStockRequest struct {
	BranchID  string   `json:"branch_id"`
	ProductID string   `json:"product_id"`
	VarietyID string   `json:"variety_id"`
	Lots      []LotDTO `json:"lots"`
}

// TransferStockRequest body para POST /api/stock/transfer.
type TransferStockRequest struct {
	SourceBranchID string   `json:"source_branch_id"`
	DestBranchID   string   `json:"dest_branch_id"`
	ProductID      string   `json:"product_id"`
	VarietyID      string   `json:"variety_id"`
	Lots           []LotDTO `json:"lots"`
}

// AdjustStockRequest body para POST /api/stock/adjust (conciliación tras
// conteo físico). Delta positivo agrega, negativo descuenta; Lots es opcional
// y nombra lotes exactos para deltas negativos.
type AdjustStockRequest struct {
	BranchID  string   `json:"branch_id"`
	ProductID string   `json:"product_id"`
	VarietyID string   `json:"variety_id"`
	Delta     int64    `json:"delta"`
	Lots      []LotDTO `json:"lots,omitempty"`
}

// StockRecordResponse registro de stock en respuestas.
type StockRecordResponse struct {
	BranchID  string    `json:"branch_id"`
	ProductID string    `json:"product_id"`
	VarietyID string    `json:"variety_id"`
	Quantity  int64     `json:"quantity"`
	Lots      []LotDTO  `json:"lots"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StockRecordFromEntity arma la respuesta a partir de la entidad.
func StockRecordFromEntity(r *entity.BranchStockRecord) StockRecordResponse {
	return StockRecordResponse{
		BranchID:  r.BranchID,
		ProductID: r.ProductID,
		VarietyID: r.VarietyID,
		Quantity:  r.Quantity,
		Lots:      LotsFromEntity(r.Lots),
		UpdatedAt: r.UpdatedAt,
	}
}
