package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/salesdesk/internal/common"
	"github.com/dmitrijs2005/salesdesk/internal/dbx"
	"github.com/dmitrijs2005/salesdesk/internal/server/models"
	"github.com/dmitrijs2005/salesdesk/internal/server/notify"
	"github.com/dmitrijs2005/salesdesk/internal/server/repositories/repomanager"
)

const (
	DefaultLogLimit = 50
	MaxLogLimit     = 500
)

// InventoryService applies manual stock corrections and exposes the movement journal.
type InventoryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	lowStock    int
	events      Publisher
}

func NewInventoryService(db *sql.DB, m repomanager.RepositoryManager, lowStock int, events Publisher) *InventoryService {
	if lowStock <= 0 {
		lowStock = common.DefaultLowStockThreshold
	}
	return &InventoryService{db: db, repomanager: m, lowStock: lowStock, events: publisherOrNoop(events)}
}

func validateAdjustment(a models.Adjustment) error {
	if a.ProductID <= 0 {
		return fmt.Errorf("%w: product_id is required", common.ErrorInvalidInput)
	}
	switch a.Kind {
	case models.ChangeIncrease, models.ChangeReturn, models.ChangeDecrease:
		if a.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be a positive integer", common.ErrorInvalidInput)
		}
	case models.ChangeSet:
		if a.Quantity < 0 {
			return fmt.Errorf("%w: quantity must not be negative", common.ErrorInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown adjustment type %q", common.ErrorInvalidInput, a.Kind)
	}
	if a.Quantity > models.MaxStock {
		return fmt.Errorf("%w: quantity must not exceed %d", common.ErrorInvalidInput, models.MaxStock)
	}
	return nil
}

// Adjust changes the stock of one product under a row lock and journals the movement.
func (s *InventoryService) Adjust(ctx context.Context, a models.Adjustment) (*models.AdjustmentResult, error) {
	a.Kind = strings.ToLower(strings.TrimSpace(a.Kind))
	if a.Kind == "adjustment" {
		a.Kind = models.ChangeSet
	}
	if err := validateAdjustment(a); err != nil {
		return nil, err
	}

	var res *models.AdjustmentResult
	err := dbx.WithTx(ctx, s.db, dbx.ReadCommitted(), func(ctx context.Context, tx dbx.DBTX) error {
		products := s.repomanager.Products(tx)

		p, err := products.GetForUpdate(ctx, a.ProductID)
		if err != nil {
			return err
		}

		next := p.Stock
		switch a.Kind {
		case models.ChangeIncrease, models.ChangeReturn:
			if a.Quantity > models.MaxStock-p.Stock {
				return fmt.Errorf("%w: stock would exceed %d", common.ErrorInvalidInput, models.MaxStock)
			}
			next += a.Quantity
		case models.ChangeDecrease:
			if p.Stock < a.Quantity {
				return &common.InsufficientStockError{Available: p.Stock, Requested: a.Quantity}
			}
			next -= a.Quantity
		case models.ChangeSet:
			next = a.Quantity
		}

		if err := products.SetStock(ctx, p.ID, next); err != nil {
			return err
		}

		log, err := s.repomanager.InventoryLogs(tx).Create(ctx, &models.InventoryLog{
			ProductID:        p.ID,
			ChangeType:       a.Kind,
			QuantityChange:   next - p.Stock,
			PreviousQuantity: p.Stock,
			NewQuantity:      next,
			Reason:           strings.TrimSpace(a.Reason),
			UserID:           optionalID(a.UserID),
		})
		if err != nil {
			return err
		}

		prev := p.Stock
		p.Stock = next
		res = &models.AdjustmentResult{Product: p, PreviousQuantity: prev, NewQuantity: next, Log: log}
		return nil
	})
	if err != nil {
		return nil, storageError(err)
	}

	s.events.Publish(notify.Event{
		Type:        notify.TypeInventoryUpdate,
		ProductID:   res.Product.ID,
		ProductName: res.Product.Name,
		Quantity:    res.NewQuantity - res.PreviousQuantity,
		Stock:       res.NewQuantity,
		Message:     fmt.Sprintf("%s stock changed from %d to %d", res.Product.Name, res.PreviousQuantity, res.NewQuantity),
	})
	if res.NewQuantity < s.lowStock {
		s.events.Publish(lowStockEvent(res.Product.Name, res.Product.ID, res.NewQuantity))
	}

	return res, nil
}

// Logs returns recent movements, optionally for a single product.
func (s *InventoryService) Logs(ctx context.Context, productID int64, limit int) ([]*models.InventoryLog, error) {
	switch {
	case limit <= 0:
		limit = DefaultLogLimit
	case limit > MaxLogLimit:
		limit = MaxLogLimit
	}
	items, err := s.repomanager.InventoryLogs(s.db).List(ctx, productID, limit)
	if err != nil {
		return nil, storageError(err)
	}
	return items, nil
}
