// Package products declares the repository contract for the product catalogue.
package products

import (
	"context"

	"github.com/dmitrijs2005/salesdesk/internal/server/models"
)

// Repository persists products. Implementations never cache rows between calls.
type Repository interface {
	// List returns products ordered newest first. A non-empty search keeps only
	// products whose name contains it, case-insensitively.
	List(ctx context.Context, search string) ([]*models.Product, error)

	// Get returns a product or common.ErrorNotFound.
	Get(ctx context.Context, id int64) (*models.Product, error)

	// GetForUpdate is Get with a row lock held until the surrounding
	// transaction ends. It must be called on a transaction.
	GetForUpdate(ctx context.Context, id int64) (*models.Product, error)

	Create(ctx context.Context, p *models.Product) (*models.Product, error)

	// Update overwrites name, price and stock. Returns common.ErrorNotFound
	// when the product does not exist.
	Update(ctx context.Context, p *models.Product) (*models.Product, error)

	// Delete removes a product. Returns common.ErrorNotFound when nothing was deleted.
	Delete(ctx context.Context, id int64) error

	// DecrementStock subtracts qty only when enough stock remains and returns
	// the new stock. Returns common.ErrInsufficientStock when the guard fails.
	DecrementStock(ctx context.Context, id int64, qty int) (int, error)

	// SetStock stores an absolute stock value.
	SetStock(ctx context.Context, id int64, stock int) error

	// Count returns the number of products and how many are under lowThreshold.
	Count(ctx context.Context, lowThreshold int) (total int64, low int64, err error)
}
