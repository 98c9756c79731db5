// Package models defines server-side data models persisted in the database.
package models

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Stock status labels reported by product detail.
const (
	StockOutOfStock = "OUT_OF_STOCK"
	StockLow        = "LOW_STOCK"
	StockOK         = "OK"
)

// Column limits: stock is an INTEGER, price a NUMERIC(12,2).
const MaxStock = math.MaxInt32

var MaxPrice = decimal.RequireFromString("9999999999.99")

// Product is a sellable item. Stock never goes below zero in a committed state.
type Product struct {
	ID        int64
	Name      string
	Price     decimal.Decimal
	Stock     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StockStatus classifies a stock level: zero is OUT_OF_STOCK, anything
// below lowThreshold is LOW_STOCK.
func StockStatus(stock, lowThreshold int) string {
	switch {
	case stock <= 0:
		return StockOutOfStock
	case stock < lowThreshold:
		return StockLow
	default:
		return StockOK
	}
}

// StockAlert is the human-readable message shown next to a non-OK status.
func StockAlert(status string) string {
	switch status {
	case StockOutOfStock:
		return "Out of stock - restock immediately!"
	case StockLow:
		return "Running low - stock is below the threshold"
	default:
		return ""
	}
}

// ProductDetail is a product together with its sales statistics.
type ProductDetail struct {
	Product      *Product
	TotalSold    int64
	TotalRevenue decimal.Decimal
	StockStatus  string
	StockAlert   string
	RecentSales  []*Sale
}
