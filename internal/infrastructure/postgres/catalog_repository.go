package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/sucursal-pos/internal/domain/entity"
	"github.com/tu-usuario/sucursal-pos/internal/domain/repository"
)

var _ repository.BranchRepository = (*BranchRepo)(nil)
var _ repository.ProductRepository = (*ProductRepo)(nil)

// BranchRepo lectura de sucursales sobre PostgreSQL. El CRUD del catálogo vive
// fuera del núcleo; aquí solo se consulta para validar.
type BranchRepo struct {
	q Querier
}

// NewBranchRepository construye el adaptador de sucursales.
func NewBranchRepository(q Querier) *BranchRepo {
	return &BranchRepo{q: q}
}

// GetByID obtiene una sucursal por ID; nil, nil si no existe.
func (r *BranchRepo) GetByID(id string) (*entity.Branch, error) {
	query := `
		SELECT id, name, address, active, created_at, updated_at
		FROM branches WHERE id = $1`
	var b entity.Branch
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&b.ID, &b.Name, &b.Address, &b.Active, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get branch: %w", err)
	}
	return &b, nil
}

// List lista todas las sucursales.
func (r *BranchRepo) List() ([]*entity.Branch, error) {
	rows, err := r.q.Query(context.Background(), `
		SELECT id, name, address, active, created_at, updated_at
		FROM branches ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	defer rows.Close()

	var out []*entity.Branch
	for rows.Next() {
		var b entity.Branch
		if err := rows.Scan(&b.ID, &b.Name, &b.Address, &b.Active, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("list branches: %w", err)
		}
		out = append(out, &b)
	}
	return out, rows.Err()
}

// ProductRepo lectura de productos y variedades sobre PostgreSQL.
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de productos.
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// GetByID obtiene un producto por ID; nil, nil si no existe.
func (r *ProductRepo) GetByID(id string) (*entity.Product, error) {
	query := `
		SELECT id, name, category, created_at, updated_at
		FROM products WHERE id = $1`
	var p entity.Product
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&p.ID, &p.Name, &p.Category, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// GetVariety obtiene una variedad verificando que pertenezca al producto;
// nil, nil si no existe. La ventana de oferta viaja en columnas opcionales.
func (r *ProductRepo) GetVariety(productID, varietyID string) (*entity.Variety, error) {
	query := `
		SELECT id, product_id, name, unit, price, on_sale, sale_start, sale_end, sale_price, created_at, updated_at
		FROM varieties WHERE id = $1 AND product_id = $2`
	var v entity.Variety
	var saleStart, saleEnd *time.Time
	var salePrice *decimal.Decimal
	err := r.q.QueryRow(context.Background(), query, varietyID, productID).Scan(
		&v.ID, &v.ProductID, &v.Name, &v.Unit, &v.Price, &v.OnSale,
		&saleStart, &saleEnd, &salePrice, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get variety: %w", err)
	}
	if saleStart != nil && saleEnd != nil && salePrice != nil {
		v.Sale = &entity.SaleWindow{StartDate: *saleStart, EndDate: *saleEnd, SalePrice: *salePrice}
	}
	return &v, nil
}
