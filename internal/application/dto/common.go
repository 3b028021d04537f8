package dto

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// DefaultPage aplica valores por defecto si Limit/Offset son cero.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// ErrorResponse cuerpo de error HTTP. Shortages solo se llena en respuestas
// INSUFFICIENT_STOCK (lista exhaustiva de ítems deficientes) y Expected en
// respuestas PRICE_MISMATCH.
type ErrorResponse struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Shortages []ShortItemDTO `json:"shortages,omitempty"`
	Expected  string         `json:"expected_price,omitempty"`
}

// ShortItemDTO un ítem con stock insuficiente.
type ShortItemDTO struct {
	ProductID string `json:"product_id"`
	VarietyID string `json:"variety_id"`
	Requested int64  `json:"requested"`
	Available int64  `json:"available"`
}
