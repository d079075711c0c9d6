package repo

import (
	"context"

	"github.com/ovaphlow/pitchfork/service-retail-go/internal/product/entity"
	"github.com/ovaphlow/pitchfork/service-retail-go/pkg/database"
)

// Filters is the set of field selectors a product listing accepts.
var Filters = database.Filters{
	"name":        {Column: "name"},
	"category_id": {Column: "category_id", Numeric: true},
	"brand_id":    {Column: "brand_id", Numeric: true},
}

const selectProduct = `SELECT id, name, image, unit_price, stock_quantity, category_id, brand_id, active FROM products`

type ProductRepo struct {
	exec *database.Executor
}

func NewProductRepo(exec *database.Executor) *ProductRepo { return &ProductRepo{exec: exec} }

// List returns active products ordered by id, optionally narrowed by one filter.
func (r *ProductRepo) List(ctx context.Context, keyword, filter string) ([]entity.Product, error) {
	if filter == "" || keyword == "" {
		return database.Select[entity.Product](ctx, r.exec, selectProduct+` WHERE active = TRUE ORDER BY id`, nil)
	}
	pred, params, err := Filters.Predicate(filter, keyword)
	if err != nil {
		return nil, err
	}
	return database.Select[entity.Product](ctx, r.exec, selectProduct+` WHERE active = TRUE AND `+pred+` ORDER BY id`, params)
}

// ListForOrder returns the active products whose name contains keyword.
func (r *ProductRepo) ListForOrder(ctx context.Context, keyword string) ([]entity.OrderProduct, error) {
	q := `SELECT id, name, unit_price, stock_quantity FROM products
		  WHERE active = TRUE AND LOWER(name) LIKE :keyword ORDER BY id`
	return database.Select[entity.OrderProduct](ctx, r.exec, q, map[string]any{"keyword": database.Contains(keyword)})
}

// GetByID returns the product whether or not it is active.
func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	return database.Get[entity.Product](ctx, r.exec, selectProduct+` WHERE id = :id`, map[string]any{"id": id})
}

func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) (int64, error) {
	q := `INSERT INTO products (name, image, unit_price, stock_quantity, category_id, brand_id, active)
		  VALUES (:name, :image, :unit_price, :stock_quantity, :category_id, :brand_id, :active) RETURNING id`
	return r.exec.ExecuteReturning(ctx, q, p)
}

// Update rewrites every mutable column of one product.
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) (int64, error) {
	q := `UPDATE products SET name = :name, image = :image, unit_price = :unit_price, stock_quantity = :stock_quantity,
		  category_id = :category_id, brand_id = :brand_id, active = :active WHERE id = :id`
	return r.exec.Execute(ctx, q, p)
}

func (r *ProductRepo) SetActive(ctx context.Context, id int64, active bool) (int64, error) {
	return r.exec.Execute(ctx, `UPDATE products SET active = :active WHERE id = :id`, map[string]any{"id": id, "active": active})
}

func (r *ProductRepo) SetImage(ctx context.Context, id int64, image string) (int64, error) {
	return r.exec.Execute(ctx, `UPDATE products SET image = :image WHERE id = :id`, map[string]any{"id": id, "image": image})
}

// DecrementStock takes quantity units out of stock. It matches no row, and
// returns 0, when the product is unknown, inactive or holds fewer than
// quantity units.
func (r *ProductRepo) DecrementStock(ctx context.Context, id, quantity int64) (int64, error) {
	q := `UPDATE products SET stock_quantity = stock_quantity - :quantity
		  WHERE id = :id AND active = TRUE AND stock_quantity >= :quantity`
	return r.exec.Execute(ctx, q, map[string]any{"id": id, "quantity": quantity})
}
