package repo

import (
	"context"

	"github.com/ovaphlow/pitchfork/service-retail-go/internal/order/entity"
	"github.com/ovaphlow/pitchfork/service-retail-go/pkg/database"
)

// Filters is the set of field selectors an order listing accepts. All of them
// match by id.
var Filters = database.Filters{
	"id":          {Column: "id", Numeric: true},
	"customer_id": {Column: "customer_id", Numeric: true},
	"employee_id": {Column: "employee_id", Numeric: true},
}

const selectOrder = `SELECT id, customer_id, employee_id, order_datetime FROM orders`

type OrderRepo struct {
	exec *database.Executor
}

func NewOrderRepo(exec *database.Executor) *OrderRepo { return &OrderRepo{exec: exec} }

// List returns orders newest first, optionally narrowed by one filter.
func (r *OrderRepo) List(ctx context.Context, keyword, filter string) ([]entity.Order, error) {
	if filter == "" || keyword == "" {
		return database.Select[entity.Order](ctx, r.exec, selectOrder+` ORDER BY order_datetime DESC, id DESC`, nil)
	}
	pred, params, err := Filters.Predicate(filter, keyword)
	if err != nil {
		return nil, err
	}
	return database.Select[entity.Order](ctx, r.exec, selectOrder+` WHERE `+pred+` ORDER BY order_datetime DESC, id DESC`, params)
}

func (r *OrderRepo) GetByID(ctx context.Context, id int64) (*entity.Order, error) {
	return database.Get[entity.Order](ctx, r.exec, selectOrder+` WHERE id = :id`, map[string]any{"id": id})
}

func (r *OrderRepo) Create(ctx context.Context, o *entity.Order) (int64, error) {
	q := `INSERT INTO orders (customer_id, employee_id, order_datetime)
		  VALUES (:customer_id, :employee_id, :order_datetime) RETURNING id`
	return r.exec.ExecuteReturning(ctx, q, o)
}

func (r *OrderRepo) CreateDetail(ctx context.Context, d *entity.Detail) (int64, error) {
	q := `INSERT INTO order_details (order_id, product_id, unit_price, quantity)
		  VALUES (:order_id, :product_id, :unit_price, :quantity) RETURNING id`
	return r.exec.ExecuteReturning(ctx, q, d)
}

// ListDetails returns the lines of one order in insertion order.
func (r *OrderRepo) ListDetails(ctx context.Context, orderID int64) ([]entity.DetailView, error) {
	q := `SELECT d.id, d.order_id, d.product_id, d.unit_price, d.quantity,
		  p.name AS product_name, d.unit_price * d.quantity AS subtotal
		  FROM order_details d JOIN products p ON p.id = d.product_id
		  WHERE d.order_id = :order_id ORDER BY d.id`
	return database.Select[entity.DetailView](ctx, r.exec, q, map[string]any{"order_id": orderID})
}
