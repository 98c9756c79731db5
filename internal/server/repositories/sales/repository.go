// Package sales declares the repository contract for sale records and the
// aggregate reads built on them.
package sales

import (
	"context"
	"time"

	"github.com/dmitrijs2005/salesdesk/internal/server/models"
	"github.com/shopspring/decimal"
)

type Repository interface {
	// Create inserts a sale and fills in its ID and CreatedAt.
	Create(ctx context.Context, s *models.Sale) (*models.Sale, error)

	// List returns sales matching f, newest first, joined with the current
	// product name and price. limit <= 0 means no limit.
	List(ctx context.Context, f models.SaleFilter, limit int) ([]*models.SaleView, error)

	// Get returns one sale joined like List, or common.ErrorNotFound.
	Get(ctx context.Context, id int64) (*models.SaleView, error)

	// ProductTotals returns units sold and revenue for one product.
	ProductTotals(ctx context.Context, productID int64) (int64, decimal.Decimal, error)

	// RecentByProduct returns the latest sales of one product.
	RecentByProduct(ctx context.Context, productID int64, limit int) ([]*models.Sale, error)

	// Totals aggregates sales created in [from, to). A zero bound is open.
	Totals(ctx context.Context, from, to time.Time) (models.SalesTotals, error)

	// DailyRevenue groups sales created on or after since by UTC day.
	// Days without sales are absent.
	DailyRevenue(ctx context.Context, since time.Time) ([]models.DailyRevenue, error)

	// ProductBreakdown groups sales in [from, to) by product, highest revenue first.
	ProductBreakdown(ctx context.Context, from, to time.Time) ([]models.ProductSales, error)
}
