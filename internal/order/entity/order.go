package entity

import "time"

// Order is an order header. It does not change after creation; its lines do
// the work.
type Order struct {
	ID            int64     `db:"id" json:"id"`
	CustomerID    int64     `db:"customer_id" json:"customer_id"`
	EmployeeID    int64     `db:"employee_id" json:"employee_id"`
	OrderDateTime time.Time `db:"order_datetime" json:"order_datetime"`
}

// Detail is one order line. UnitPrice is the price at the time of sale.
type Detail struct {
	ID        int64 `db:"id" json:"id"`
	OrderID   int64 `db:"order_id" json:"order_id"`
	ProductID int64 `db:"product_id" json:"product_id"`
	UnitPrice int64 `db:"unit_price" json:"unit_price"`
	Quantity  int64 `db:"quantity" json:"quantity"`
}

// DetailView is an order line joined with its product name.
type DetailView struct {
	Detail
	ProductName string `db:"product_name" json:"product_name"`
	Subtotal    int64  `db:"subtotal" json:"subtotal"`
}
