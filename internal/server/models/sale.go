package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxSaleTotal is the largest total the NUMERIC(14,2) column holds.
var MaxSaleTotal = decimal.RequireFromString("999999999999.99")

// Sale is an immutable purchase record. ProductID is nil once the product
// it referenced has been deleted.
type Sale struct {
	ID        int64
	ProductID *int64
	Quantity  int
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
	CreatedAt time.Time
}

// SaleView is a sale joined with the current product name and price.
type SaleView struct {
	Sale
	ProductName  string
	ProductPrice decimal.NullDecimal
}

// SaleReceipt is what RecordSale hands back to the caller.
type SaleReceipt struct {
	Sale           *Sale
	ProductName    string
	RemainingStock int
}

// SaleFilter narrows a sales listing. Zero values mean "no filter".
// DateTo is exclusive; callers pass the day after the last included date.
type SaleFilter struct {
	ProductID int64
	DateFrom  time.Time
	DateTo    time.Time
	Search    string
}
