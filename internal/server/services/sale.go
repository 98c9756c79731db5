package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/salesdesk/internal/common"
	"github.com/dmitrijs2005/salesdesk/internal/dbx"
	"github.com/dmitrijs2005/salesdesk/internal/server/models"
	"github.com/dmitrijs2005/salesdesk/internal/server/notify"
	"github.com/dmitrijs2005/salesdesk/internal/server/repositories/repomanager"
	"github.com/shopspring/decimal"
)

type SaleService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	lowStock    int
	events      Publisher
}

func NewSaleService(db *sql.DB, m repomanager.RepositoryManager, lowStock int, events Publisher) *SaleService {
	if lowStock <= 0 {
		lowStock = common.DefaultLowStockThreshold
	}
	return &SaleService{db: db, repomanager: m, lowStock: lowStock, events: publisherOrNoop(events)}
}

// RecordSale sells quantity units of a product. The stock check, the sale
// row, the decrement and the journal entry share one transaction; the product
// row stays locked from the check until commit so concurrent sales of the same
// product are serialized. Events go out only after a successful commit.
func (s *SaleService) RecordSale(ctx context.Context, productID int64, quantity int, userID int64) (*models.SaleReceipt, error) {
	if productID <= 0 {
		return nil, fmt.Errorf("%w: product_id is required", common.ErrorInvalidInput)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be a positive integer", common.ErrorInvalidInput)
	}

	var receipt *models.SaleReceipt
	err := dbx.WithTx(ctx, s.db, dbx.ReadCommitted(), func(ctx context.Context, tx dbx.DBTX) error {
		products := s.repomanager.Products(tx)

		p, err := products.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if p.Stock < quantity {
			return &common.InsufficientStockError{Available: p.Stock, Requested: quantity}
		}

		total := p.Price.Mul(decimal.NewFromInt(int64(quantity)))
		if total.GreaterThan(models.MaxSaleTotal) {
			return fmt.Errorf("%w: sale total must not exceed %s", common.ErrorInvalidInput, models.MaxSaleTotal.StringFixed(2))
		}

		sale, err := s.repomanager.Sales(tx).Create(ctx, &models.Sale{
			ProductID: &p.ID,
			Quantity:  quantity,
			UnitPrice: p.Price,
			Total:     total,
		})
		if err != nil {
			return err
		}

		remaining, err := products.DecrementStock(ctx, p.ID, quantity)
		if err != nil {
			if errors.Is(err, common.ErrInsufficientStock) {
				return &common.InsufficientStockError{Available: p.Stock, Requested: quantity}
			}
			return err
		}

		_, err = s.repomanager.InventoryLogs(tx).Create(ctx, &models.InventoryLog{
			ProductID:        p.ID,
			ChangeType:       models.ChangeSale,
			QuantityChange:   -quantity,
			PreviousQuantity: p.Stock,
			NewQuantity:      remaining,
			Reference:        fmt.Sprintf("sale:%d", sale.ID),
			UserID:           optionalID(userID),
		})
		if err != nil {
			return err
		}

		receipt = &models.SaleReceipt{Sale: sale, ProductName: p.Name, RemainingStock: remaining}
		return nil
	})
	if err != nil {
		return nil, storageError(err)
	}

	s.publish(receipt)
	return receipt, nil
}

func (s *SaleService) publish(r *models.SaleReceipt) {
	total := r.Sale.Total
	s.events.Publish(notify.Event{
		Type:        notify.TypeNewSale,
		ProductID:   *r.Sale.ProductID,
		ProductName: r.ProductName,
		Quantity:    r.Sale.Quantity,
		Stock:       r.RemainingStock,
		Total:       &total,
		SaleID:      r.Sale.ID,
		Message:     fmt.Sprintf("New sale: %d x %s", r.Sale.Quantity, r.ProductName),
		At:          r.Sale.CreatedAt,
	})

	if r.RemainingStock < s.lowStock {
		s.events.Publish(lowStockEvent(r.ProductName, *r.Sale.ProductID, r.RemainingStock))
	}
}

// List returns sales matching f, newest first.
func (s *SaleService) List(ctx context.Context, f models.SaleFilter) ([]*models.SaleView, error) {
	if !f.DateFrom.IsZero() && !f.DateTo.IsZero() && !f.DateFrom.Before(f.DateTo) {
		return nil, fmt.Errorf("%w: date_from must not be after date_to", common.ErrorInvalidInput)
	}
	items, err := s.repomanager.Sales(s.db).List(ctx, f, 0)
	if err != nil {
		return nil, storageError(err)
	}
	return items, nil
}

// Get returns one sale with its current product name.
func (s *SaleService) Get(ctx context.Context, id int64) (*models.SaleView, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: id must be a positive integer", common.ErrorInvalidInput)
	}
	v, err := s.repomanager.Sales(s.db).Get(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, ErrSaleNotFound
	}
	if err != nil {
		return nil, storageError(err)
	}
	return v, nil
}
