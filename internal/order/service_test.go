package order_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-retail-go/internal/order"
	"github.com/ovaphlow/pitchfork/service-retail-go/internal/order/entity"
	"github.com/ovaphlow/pitchfork/service-retail-go/internal/product"
	productentity "github.com/ovaphlow/pitchfork/service-retail-go/internal/product/entity"
	"github.com/ovaphlow/pitchfork/service-retail-go/internal/session/sessiontest"
	"github.com/ovaphlow/pitchfork/service-retail-go/pkg/database"
)

type fixture struct {
	orders   *order.Service
	products *product.Service
	exec     *database.Executor
	shoe     int64
	bag      int64
}

func setup(t *testing.T) fixture {
	t.Helper()
	sess := sessiontest.Open(t)
	ctx := context.Background()
	exec := sess.Executor()

	_, err := exec.Execute(ctx, `INSERT INTO customers (name, phone_number) VALUES ('Alice', '0901000001')`, nil)
	require.NoError(t, err)
	_, err = exec.Execute(ctx, `INSERT INTO employees (name, username, role) VALUES ('Bob', 'bob', 'EMPLOYEE')`, nil)
	require.NoError(t, err)

	products := product.NewService(sess, nil, nil)
	shoe, err := products.Create(ctx, &productentity.Product{Name: "Shoe", UnitPrice: 500, StockQuantity: 10, Active: true})
	require.NoError(t, err)
	bag, err := products.Create(ctx, &productentity.Product{Name: "Bag", UnitPrice: 1200, StockQuantity: 2, Active: true})
	require.NoError(t, err)

	return fixture{orders: order.NewService(sess, nil), products: products, exec: exec, shoe: shoe, bag: bag}
}

func (f fixture) stock(t *testing.T, id int64) int64 {
	t.Helper()
	p, err := f.products.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.StockQuantity
}

func TestCreateDetailDecrementsStock(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	orderID, err := f.orders.Create(ctx, &entity.Order{CustomerID: 1, EmployeeID: 1}, nil)
	require.NoError(t, err)

	id, err := f.orders.CreateDetail(ctx, &entity.Detail{OrderID: orderID, ProductID: f.shoe, UnitPrice: 500, Quantity: 3})
	require.NoError(t, err)
	assert.Positive(t, id)
	assert.EqualValues(t, 7, f.stock(t, f.shoe))
}

func TestCreateWritesHeaderAndLines(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	lines := []entity.Detail{
		{ProductID: f.shoe, Quantity: 2},
		{ProductID: f.bag, UnitPrice: 1000, Quantity: 1},
	}
	o := entity.Order{CustomerID: 1, EmployeeID: 1}
	id, err := f.orders.Create(ctx, &o, lines)
	require.NoError(t, err)
	assert.Equal(t, id, o.ID)
	assert.False(t, o.OrderDateTime.IsZero())

	got, err := f.orders.GetByID(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.CustomerID)
	assert.True(t, o.OrderDateTime.Equal(got.OrderDateTime))

	details, err := f.orders.ListDetails(ctx, id)
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.Equal(t, "Shoe", details[0].ProductName)
	assert.EqualValues(t, 500, details[0].UnitPrice, "price snapshotted from product")
	assert.EqualValues(t, 1000, details[0].Subtotal)
	assert.Equal(t, "Bag", details[1].ProductName)
	assert.EqualValues(t, 1000, details[1].Subtotal)
	assert.Equal(t, id, details[1].OrderID)

	assert.EqualValues(t, 8, f.stock(t, f.shoe))
	assert.EqualValues(t, 1, f.stock(t, f.bag))
}

func TestCreateRollsBackOnInsufficientStock(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.orders.Create(ctx, &entity.Order{CustomerID: 1, EmployeeID: 1}, []entity.Detail{
		{ProductID: f.shoe, Quantity: 4},
		{ProductID: f.bag, Quantity: 3},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, order.ErrInsufficientStock)
	assert.ErrorIs(t, err, database.ErrConstraint)

	orders, err := f.orders.List(ctx, "", "")
	require.NoError(t, err)
	assert.Empty(t, orders)
	rows, err := f.exec.FetchAll(ctx, `SELECT id FROM order_details`, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.EqualValues(t, 10, f.stock(t, f.shoe))
	assert.EqualValues(t, 2, f.stock(t, f.bag))
}

func TestCreateRejectsDeactivatedProduct(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.products.Deactivate(ctx, f.shoe))

	_, err := f.orders.Create(ctx, &entity.Order{CustomerID: 1, EmployeeID: 1}, []entity.Detail{
		{ProductID: f.shoe, Quantity: 2},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, order.ErrProductUnavailable)
	assert.ErrorIs(t, err, database.ErrConstraint)

	orders, err := f.orders.List(ctx, "", "")
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.EqualValues(t, 10, f.stock(t, f.shoe))

	orderID, err := f.orders.Create(ctx, &entity.Order{CustomerID: 1, EmployeeID: 1}, nil)
	require.NoError(t, err)
	_, err = f.orders.CreateDetail(ctx, &entity.Detail{OrderID: orderID, ProductID: f.shoe, UnitPrice: 500, Quantity: 1})
	assert.ErrorIs(t, err, order.ErrProductUnavailable)
	_, err = f.orders.CreateDetail(ctx, &entity.Detail{OrderID: orderID, ProductID: 404, Quantity: 1})
	assert.ErrorIs(t, err, order.ErrProductUnavailable)
	assert.EqualValues(t, 10, f.stock(t, f.shoe))

	details, err := f.orders.ListDetails(ctx, orderID)
	require.NoError(t, err)
	assert.Empty(t, details)
}

func TestCreateLeavesInputsUntouchedOnFailure(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	o := entity.Order{CustomerID: 1, EmployeeID: 1}
	lines := []entity.Detail{
		{ProductID: f.shoe, Quantity: 2},
		{ProductID: f.bag, Quantity: 3},
	}
	_, err := f.orders.Create(ctx, &o, lines)
	require.ErrorIs(t, err, order.ErrInsufficientStock)
	assert.Equal(t, entity.Order{CustomerID: 1, EmployeeID: 1}, o)
	assert.Equal(t, []entity.Detail{
		{ProductID: f.shoe, Quantity: 2},
		{ProductID: f.bag, Quantity: 3},
	}, lines)

	lines[1].Quantity = 1
	id, err := f.orders.Create(ctx, &o, lines)
	require.NoError(t, err)
	assert.Equal(t, id, o.ID)
	for _, d := range lines {
		assert.Equal(t, id, d.OrderID)
		assert.Positive(t, d.ID)
	}
	assert.EqualValues(t, 500, lines[0].UnitPrice)
	assert.EqualValues(t, 1200, lines[1].UnitPrice)

	d := entity.Detail{OrderID: id, ProductID: f.bag, Quantity: 5}
	_, err = f.orders.CreateDetail(ctx, &d)
	require.ErrorIs(t, err, order.ErrInsufficientStock)
	assert.Equal(t, entity.Detail{OrderID: id, ProductID: f.bag, Quantity: 5}, d)
}

func TestCreateDetailRejectsNonPositiveQuantity(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	orderID, err := f.orders.Create(ctx, &entity.Order{CustomerID: 1, EmployeeID: 1}, nil)
	require.NoError(t, err)

	_, err = f.orders.CreateDetail(ctx, &entity.Detail{OrderID: orderID, ProductID: f.shoe, UnitPrice: 500, Quantity: 0})
	assert.ErrorIs(t, err, database.ErrConstraint)
	assert.EqualValues(t, 10, f.stock(t, f.shoe))
}

func TestListFiltersAndOrdering(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.exec.Execute(ctx, `INSERT INTO customers (name, phone_number) VALUES ('Carol', '0901000002')`, nil)
	require.NoError(t, err)

	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	for i, customer := range []int64{1, 2, 1} {
		_, err := f.orders.Create(ctx, &entity.Order{CustomerID: customer, EmployeeID: 1, OrderDateTime: base.Add(time.Duration(i) * time.Hour)}, nil)
		require.NoError(t, err)
	}

	all, err := f.orders.List(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.EqualValues(t, 3, all[0].ID)
	assert.EqualValues(t, 1, all[2].ID)

	mine, err := f.orders.List(ctx, "1", "customer_id")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.EqualValues(t, 3, mine[0].ID)
	assert.EqualValues(t, 1, mine[1].ID)

	_, err = f.orders.List(ctx, "abc", "id")
	assert.ErrorIs(t, err, database.ErrInvalidFilter)
	_, err = f.orders.List(ctx, "1", "total")
	assert.ErrorIs(t, err, database.ErrInvalidFilter)

	_, err = f.orders.GetByID(ctx, 77)
	assert.ErrorIs(t, err, database.ErrNotFound)
}
