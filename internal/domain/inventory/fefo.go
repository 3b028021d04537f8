// Package inventory contiene el álgebra pura de lotes del motor de stock:
// fusión de lotes, consumo FEFO (First-Expired-First-Out) y consumo exacto
// por lote. No toca persistencia; opera sobre copias y nunca muta la entrada.
package inventory

import (
	"sort"
	"time"

	"github.com/tu-usuario/sucursal-pos/internal/domain"
	"github.com/tu-usuario/sucursal-pos/internal/domain/entity"
)

// DayOf trunca un instante a medianoche UTC. Todas las comparaciones de
// vencimiento se hacen a granularidad de día: dos lotes del mismo día son el
// mismo lote aunque difieran en hora.
func DayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// sameDay compara dos fechas de vencimiento opcionales a granularidad de día.
func sameDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return DayOf(*a).Equal(DayOf(*b))
}

// expiresBefore ordena a antes que b en el consumo FEFO. Los lotes sin
// vencimiento ordenan al final.
func expiresBefore(a, b *time.Time) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	return DayOf(*a).Before(DayOf(*b))
}

// SortFEFO devuelve una copia de los lotes ordenada por vencimiento ascendente,
// con los lotes sin vencimiento al final.
func SortFEFO(lots []entity.StockLot) []entity.StockLot {
	out := cloneLots(lots)
	sort.SliceStable(out, func(i, j int) bool {
		return expiresBefore(out[i].ExpirationDate, out[j].ExpirationDate)
	})
	return out
}

// ValidateLots verifica que cada lote entrante tenga cantidad positiva.
func ValidateLots(lots []entity.StockLot) error {
	if len(lots) == 0 {
		return domain.ErrInvalidArgument
	}
	for _, l := range lots {
		if l.Quantity <= 0 {
			return domain.ErrInvalidArgument
		}
	}
	return nil
}

// Merge agrega lotes entrantes a los existentes, fusionando los que comparten
// fecha de vencimiento (mismo día) y normalizando las fechas a medianoche UTC.
// Devuelve el resultado ordenado FEFO.
func Merge(existing, incoming []entity.StockLot) []entity.StockLot {
	out := cloneLots(existing)
	for _, in := range incoming {
		lot := entity.StockLot{Quantity: in.Quantity}
		if in.ExpirationDate != nil {
			day := DayOf(*in.ExpirationDate)
			lot.ExpirationDate = &day
		}
		merged := false
		for i := range out {
			if sameDay(out[i].ExpirationDate, lot.ExpirationDate) {
				out[i].Quantity += lot.Quantity
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, lot)
		}
	}
	return SortFEFO(out)
}

// ConsumeFEFO descuenta qty consumiendo primero los lotes más próximos a
// vencer. Un lote agotado desaparece; uno parcialmente consumido conserva su
// fecha con la cantidad reducida. Si la suma disponible no alcanza, no se
// consume nada y se retorna ErrInsufficientStock (todo o nada sobre el registro).
// Devuelve los lotes restantes y los efectivamente consumidos.
func ConsumeFEFO(lots []entity.StockLot, qty int64) (remaining, consumed []entity.StockLot, err error) {
	if qty <= 0 {
		return nil, nil, domain.ErrInvalidArgument
	}
	ordered := SortFEFO(lots)
	var available int64
	for _, l := range ordered {
		available += l.Quantity
	}
	if available < qty {
		return nil, nil, domain.ErrInsufficientStock
	}

	pending := qty
	for _, l := range ordered {
		if pending == 0 {
			remaining = append(remaining, l)
			continue
		}
		take := l.Quantity
		if take > pending {
			take = pending
		}
		consumed = append(consumed, entity.StockLot{ExpirationDate: l.ExpirationDate, Quantity: take})
		if rest := l.Quantity - take; rest > 0 {
			remaining = append(remaining, entity.StockLot{ExpirationDate: l.ExpirationDate, Quantity: rest})
		}
		pending -= take
	}
	return remaining, consumed, nil
}

// ConsumeExact descuenta exactamente los lotes nombrados (por fecha de
// vencimiento, granularidad de día). Se usa para rechazos de mercancía dañada
// o vencida y para traslados. Si algún lote nombrado no existe o su cantidad
// excede lo presente, no se consume nada.
func ConsumeExact(lots, requested []entity.StockLot) (remaining []entity.StockLot, err error) {
	if err := ValidateLots(requested); err != nil {
		return nil, err
	}
	remaining = cloneLots(lots)
	for _, req := range requested {
		found := false
		for i := range remaining {
			if !sameDay(remaining[i].ExpirationDate, req.ExpirationDate) {
				continue
			}
			found = true
			if remaining[i].Quantity < req.Quantity {
				return nil, domain.ErrInsufficientStock
			}
			remaining[i].Quantity -= req.Quantity
			break
		}
		if !found {
			return nil, domain.ErrInsufficientStock
		}
	}
	return compact(remaining), nil
}

// compact elimina los lotes con cantidad cero preservando el orden.
func compact(lots []entity.StockLot) []entity.StockLot {
	out := lots[:0]
	for _, l := range lots {
		if l.Quantity > 0 {
			out = append(out, l)
		}
	}
	return out
}

func cloneLots(lots []entity.StockLot) []entity.StockLot {
	out := make([]entity.StockLot, len(lots))
	copy(out, lots)
	return out
}
