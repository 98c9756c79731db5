// Package inventorylogs declares the repository contract for the stock movement journal.
package inventorylogs

import (
	"context"

	"github.com/dmitrijs2005/salesdesk/internal/server/models"
)

type Repository interface {
	// Create appends a movement and fills in its ID and CreatedAt.
	Create(ctx context.Context, l *models.InventoryLog) (*models.InventoryLog, error)

	// List returns movements newest first. productID <= 0 lists all products.
	List(ctx context.Context, productID int64, limit int) ([]*models.InventoryLog, error)
}
