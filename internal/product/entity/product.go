package entity

// Product is a row of the products table. Prices are in the smallest currency
// unit. Inactive products are hidden from listings but stay addressable by id.
type Product struct {
	ID            int64  `db:"id" json:"id"`
	Name          string `db:"name" json:"name"`
	Image         string `db:"image" json:"image"`
	UnitPrice     int64  `db:"unit_price" json:"unit_price"`
	StockQuantity int64  `db:"stock_quantity" json:"stock_quantity"`
	CategoryID    *int64 `db:"category_id" json:"category_id,omitempty"`
	BrandID       *int64 `db:"brand_id" json:"brand_id,omitempty"`
	Active        bool   `db:"active" json:"active"`
}

// OrderProduct is the projection shown when picking products for an order.
type OrderProduct struct {
	ID            int64  `db:"id" json:"id"`
	Name          string `db:"name" json:"name"`
	UnitPrice     int64  `db:"unit_price" json:"unit_price"`
	StockQuantity int64  `db:"stock_quantity" json:"stock_quantity"`
}
