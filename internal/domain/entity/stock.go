package entity

import "time"

// StockLot es una cantidad de una variedad que comparte una misma fecha de
// vencimiento. ExpirationDate nil significa sin vencimiento (ordena al final
// en el consumo FEFO). Las fechas se comparan a granularidad de día.
type StockLot struct {
	ExpirationDate *time.Time `json:"expiration_date"`
	Quantity       int64      `json:"quantity"`
}

// BranchStockRecord es el registro de inventario de una variedad en una
// sucursal: clave (BranchID, ProductID, VarietyID). Quantity es la suma
// desnormalizada de los lotes y debe cumplir Quantity == Σ Lots[].Quantity.
// Un registro con Quantity == 0 sigue siendo direccionable; nunca se borra.
type BranchStockRecord struct {
	BranchID  string
	ProductID string
	VarietyID string
	Lots      []StockLot
	Quantity  int64
	UpdatedAt time.Time
}

// Key identifica el registro de forma estable (se usa para ordenar bloqueos).
func (r *BranchStockRecord) Key() string {
	return r.BranchID + "/" + r.ProductID + "/" + r.VarietyID
}

// LotsTotal suma las cantidades de todos los lotes.
func (r *BranchStockRecord) LotsTotal() int64 {
	var total int64
	for _, l := range r.Lots {
		total += l.Quantity
	}
	return total
}
