package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product agrupa variedades (SKUs) bajo un mismo nombre comercial.
// Su CRUD vive fuera del núcleo; aquí solo se lee para validar.
type Product struct {
	ID        string
	Name      string
	Category  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SaleWindow rango de fechas durante el cual el precio de la variedad se
// reemplaza por SalePrice. El rango es semiabierto: [StartDate, EndDate).
type SaleWindow struct {
	StartDate time.Time
	EndDate   time.Time
	SalePrice decimal.Decimal
}

// Variety representa una variedad vendible de un producto, con su unidad,
// precio base y ventana de oferta opcional.
type Variety struct {
	ID        string
	ProductID string
	Name      string
	Unit      string // kg, pieza, docena, etc.
	Price     decimal.Decimal
	OnSale    bool
	Sale      *SaleWindow
	CreatedAt time.Time
	UpdatedAt time.Time
}
