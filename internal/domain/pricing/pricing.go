// Package pricing valida precios al momento de enviar un pedido: precio base
// del catálogo u oferta vigente, con tolerancia epsilon contra el precio que
// declara el cliente. Evita que se honren precios obsoletos o manipulados.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/sucursal-pos/internal/domain"
	"github.com/tu-usuario/sucursal-pos/internal/domain/entity"
)

// DefaultEpsilon tolerancia por defecto entre precio enviado y precio vigente.
var DefaultEpsilon = decimal.NewFromFloat(0.01)

// IsOnSale indica si la variedad está en oferta en el instante now.
// El rango de la ventana es semiabierto: [StartDate, EndDate).
func IsOnSale(v *entity.Variety, now time.Time) bool {
	if v == nil || !v.OnSale || v.Sale == nil {
		return false
	}
	return !now.Before(v.Sale.StartDate) && now.Before(v.Sale.EndDate)
}

// CurrentPrice devuelve el precio vigente de la variedad: el de oferta si la
// ventana está activa, el precio base en caso contrario.
func CurrentPrice(v *entity.Variety, now time.Time) decimal.Decimal {
	if IsOnSale(v, now) {
		return v.Sale.SalePrice
	}
	return v.Price
}

// ValidateUnitPrice recalcula el precio vigente en el servidor y lo compara con
// el precio enviado. Si la diferencia absoluta supera epsilon retorna
// PriceMismatchError con el precio esperado.
func ValidateUnitPrice(v *entity.Variety, submitted decimal.Decimal, now time.Time, epsilon decimal.Decimal) error {
	expected := CurrentPrice(v, now)
	if expected.Sub(submitted).Abs().GreaterThan(epsilon) {
		return &domain.PriceMismatchError{
			ProductID: v.ProductID,
			VarietyID: v.ID,
			Expected:  expected,
			Submitted: submitted,
		}
	}
	return nil
}
