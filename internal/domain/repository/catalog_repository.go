package repository

import "github.com/tu-usuario/sucursal-pos/internal/domain/entity"

// BranchRepository lectura de sucursales (su CRUD vive fuera del núcleo).
type BranchRepository interface {
	// GetByID devuelve nil, nil si la sucursal no existe.
	GetByID(id string) (*entity.Branch, error)
	List() ([]*entity.Branch, error)
}

// ProductRepository lectura de productos y variedades para validación.
type ProductRepository interface {
	// GetByID devuelve nil, nil si el producto no existe.
	GetByID(id string) (*entity.Product, error)
	// GetVariety devuelve nil, nil si la variedad no existe o no pertenece al producto.
	GetVariety(productID, varietyID string) (*entity.Variety, error)
}
