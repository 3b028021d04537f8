package entity

import "time"

// Branch representa una sucursal con su propio libro de inventario independiente.
type Branch struct {
	ID        string
	Name      string
	Address   string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
