package domain

// MonthlySales is one (year, month) bucket of paid-order sales.
type MonthlySales struct {
	Year       int     `json:"year"`
	Month      int     `json:"month"`
	TotalSales float64 `json:"total_sales"`
	OrderCount int     `json:"order_count"`
}

// CategorySales is the paid-order sales total for one product category,
// computed by joining order line items to their products. Line items whose
// product has been deleted drop out of the join.
type CategorySales struct {
	Category   string  `json:"category"`
	TotalSales float64 `json:"total_sales"`
	ItemsSold  int     `json:"items_sold"`
}
