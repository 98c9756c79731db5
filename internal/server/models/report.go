package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesTotals aggregates a set of sales.
type SalesTotals struct {
	Count    int64
	Quantity int64
	Revenue  decimal.Decimal
}

// DailyRevenue is the revenue booked on one calendar day.
type DailyRevenue struct {
	Day     time.Time
	Revenue decimal.Decimal
	Count   int64
}

// Dashboard is the landing page summary.
type Dashboard struct {
	TotalProducts int64
	LowStockCount int64
	AllTime       SalesTotals
	Today         SalesTotals
	LastDays      []DailyRevenue
	RecentSales   []*SaleView
}

// ProductSales is one row of a period report.
type ProductSales struct {
	ProductID   *int64
	ProductName string
	Quantity    int64
	Revenue     decimal.Decimal
	Count       int64
}

// Report covers sales in [From, To).
type Report struct {
	From     time.Time
	To       time.Time
	Totals   SalesTotals
	Products []ProductSales
}
