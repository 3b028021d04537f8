package pricing_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/sucursal-pos/internal/domain"
	"github.com/tu-usuario/sucursal-pos/internal/domain/entity"
	"github.com/tu-usuario/sucursal-pos/internal/domain/pricing"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var (
	saleStart = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	saleEnd   = time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
)

func varietyConOferta() *entity.Variety {
	return &entity.Variety{
		ID:        "var-1",
		ProductID: "prod-1",
		Name:      "Media libra",
		Price:     decimal.NewFromFloat(12.50),
		OnSale:    true,
		Sale: &entity.SaleWindow{
			StartDate: saleStart,
			EndDate:   saleEnd,
			SalePrice: decimal.NewFromFloat(9.99),
		},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests IsOnSale / CurrentPrice
// ──────────────────────────────────────────────────────────────────────────────

func TestIsOnSale_DentroDeLaVentana(t *testing.T) {
	v := varietyConOferta()
	assert.True(t, pricing.IsOnSale(v, saleStart), "el inicio de la ventana está incluido")
	assert.True(t, pricing.IsOnSale(v, saleStart.Add(72*time.Hour)))
}

func TestIsOnSale_VentanaSemiabierta(t *testing.T) {
	v := varietyConOferta()
	assert.False(t, pricing.IsOnSale(v, saleEnd), "el fin de la ventana está excluido")
	assert.False(t, pricing.IsOnSale(v, saleStart.Add(-time.Second)))
}

func TestIsOnSale_FlagApagadoIgnoraLaVentana(t *testing.T) {
	v := varietyConOferta()
	v.OnSale = false
	assert.False(t, pricing.IsOnSale(v, saleStart.Add(time.Hour)),
		"sin el flag OnSale la ventana no aplica")
}

func TestIsOnSale_SinVentanaDefinida(t *testing.T) {
	v := varietyConOferta()
	v.Sale = nil
	assert.False(t, pricing.IsOnSale(v, saleStart.Add(time.Hour)))
}

func TestCurrentPrice_OfertaVigenteYPrecioBase(t *testing.T) {
	v := varietyConOferta()

	enOferta := pricing.CurrentPrice(v, saleStart.Add(time.Hour))
	assert.True(t, enOferta.Equal(decimal.NewFromFloat(9.99)), "dentro de la ventana rige el precio de oferta")

	fuera := pricing.CurrentPrice(v, saleEnd.Add(time.Hour))
	assert.True(t, fuera.Equal(decimal.NewFromFloat(12.50)), "fuera de la ventana rige el precio base")
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests ValidateUnitPrice
// ──────────────────────────────────────────────────────────────────────────────

func TestValidateUnitPrice_DentroDelEpsilonPasa(t *testing.T) {
	v := varietyConOferta()
	now := saleEnd.Add(time.Hour) // precio base 12.50

	err := pricing.ValidateUnitPrice(v, decimal.NewFromFloat(12.51), now, pricing.DefaultEpsilon)
	assert.NoError(t, err, "una diferencia igual al epsilon debe aceptarse")

	err = pricing.ValidateUnitPrice(v, decimal.NewFromFloat(12.50), now, pricing.DefaultEpsilon)
	assert.NoError(t, err)
}

func TestValidateUnitPrice_FueraDelEpsilonRetornaMismatch(t *testing.T) {
	v := varietyConOferta()
	now := saleEnd.Add(time.Hour)

	err := pricing.ValidateUnitPrice(v, decimal.NewFromFloat(11.00), now, pricing.DefaultEpsilon)
	require.Error(t, err)

	var mismatch *domain.PriceMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.True(t, mismatch.Expected.Equal(decimal.NewFromFloat(12.50)),
		"el error debe traer el precio vigente esperado")
	assert.True(t, mismatch.Submitted.Equal(decimal.NewFromFloat(11.00)))
	assert.ErrorIs(t, err, domain.ErrPriceMismatch)
}

func TestValidateUnitPrice_PrecioObsoletoTrasExpirarLaOferta(t *testing.T) {
	v := varietyConOferta()
	// El cliente envía el precio de oferta pero la ventana ya cerró.
	err := pricing.ValidateUnitPrice(v, decimal.NewFromFloat(9.99), saleEnd.Add(time.Minute), pricing.DefaultEpsilon)

	var mismatch *domain.PriceMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.True(t, mismatch.Expected.Equal(decimal.NewFromFloat(12.50)))
}

func TestValidateUnitPrice_OfertaVigenteAceptaPrecioDeOferta(t *testing.T) {
	v := varietyConOferta()
	err := pricing.ValidateUnitPrice(v, decimal.NewFromFloat(9.99), saleStart.Add(time.Hour), pricing.DefaultEpsilon)
	assert.NoError(t, err)
}
