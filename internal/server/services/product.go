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
	"github.com/shopspring/decimal"
)

// RecentSalesLimit is how many sales a product detail shows.
const RecentSalesLimit = 10

// ProductInput is the writable part of a product.
type ProductInput struct {
	Name  string
	Price decimal.Decimal
	Stock int
}

func (in ProductInput) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: name is required", common.ErrorInvalidInput)
	case in.Price.IsNegative():
		return fmt.Errorf("%w: price must not be negative", common.ErrorInvalidInput)
	case in.Price.Round(2).GreaterThan(models.MaxPrice):
		return fmt.Errorf("%w: price must not exceed %s", common.ErrorInvalidInput, models.MaxPrice.StringFixed(2))
	case in.Stock < 0:
		return fmt.Errorf("%w: stock must not be negative", common.ErrorInvalidInput)
	case in.Stock > models.MaxStock:
		return fmt.Errorf("%w: stock must not exceed %d", common.ErrorInvalidInput, models.MaxStock)
	}
	return nil
}

type ProductService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	lowStock    int
	events      Publisher
}

func NewProductService(db *sql.DB, m repomanager.RepositoryManager, lowStock int, events Publisher) *ProductService {
	if lowStock <= 0 {
		lowStock = common.DefaultLowStockThreshold
	}
	return &ProductService{db: db, repomanager: m, lowStock: lowStock, events: publisherOrNoop(events)}
}

func (s *ProductService) List(ctx context.Context, search string) ([]*models.Product, error) {
	items, err := s.repomanager.Products(s.db).List(ctx, search)
	if err != nil {
		return nil, storageError(err)
	}
	return items, nil
}

func (s *ProductService) Get(ctx context.Context, id int64) (*models.Product, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: product id is required", common.ErrorInvalidInput)
	}
	p, err := s.repomanager.Products(s.db).Get(ctx, id)
	if err != nil {
		return nil, storageError(err)
	}
	return p, nil
}

func (s *ProductService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	p, err := s.repomanager.Products(s.db).Create(ctx, &models.Product{
		Name:  strings.TrimSpace(in.Name),
		Price: in.Price,
		Stock: in.Stock,
	})
	if err != nil {
		return nil, storageError(err)
	}

	s.publishStock(p)
	return p, nil
}

// Update overwrites a product. A stock change is journaled as a "set"
// movement in the same transaction.
func (s *ProductService) Update(ctx context.Context, id int64, in ProductInput, userID int64) (*models.Product, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: product id is required", common.ErrorInvalidInput)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	var updated *models.Product
	err := dbx.WithTx(ctx, s.db, dbx.ReadCommitted(), func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Products(tx)

		current, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		updated, err = repo.Update(ctx, &models.Product{
			ID:    id,
			Name:  strings.TrimSpace(in.Name),
			Price: in.Price,
			Stock: in.Stock,
		})
		if err != nil {
			return err
		}

		if current.Stock == updated.Stock {
			return nil
		}

		_, err = s.repomanager.InventoryLogs(tx).Create(ctx, &models.InventoryLog{
			ProductID:        id,
			ChangeType:       models.ChangeSet,
			QuantityChange:   updated.Stock - current.Stock,
			PreviousQuantity: current.Stock,
			NewQuantity:      updated.Stock,
			Reason:           "product update",
			UserID:           optionalID(userID),
		})
		return err
	})
	if err != nil {
		return nil, storageError(err)
	}

	s.publishStock(updated)
	return updated, nil
}

func (s *ProductService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: product id is required", common.ErrorInvalidInput)
	}
	return storageError(s.repomanager.Products(s.db).Delete(ctx, id))
}

// Detail returns a product with its sales statistics and stock status.
func (s *ProductService) Detail(ctx context.Context, id int64) (*models.ProductDetail, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	salesRepo := s.repomanager.Sales(s.db)

	sold, revenue, err := salesRepo.ProductTotals(ctx, id)
	if err != nil {
		return nil, storageError(err)
	}

	recent, err := salesRepo.RecentByProduct(ctx, id, RecentSalesLimit)
	if err != nil {
		return nil, storageError(err)
	}

	status := models.StockStatus(p.Stock, s.lowStock)
	return &models.ProductDetail{
		Product:      p,
		TotalSold:    sold,
		TotalRevenue: revenue,
		StockStatus:  status,
		StockAlert:   models.StockAlert(status),
		RecentSales:  recent,
	}, nil
}

func (s *ProductService) publishStock(p *models.Product) {
	if p.Stock >= s.lowStock {
		return
	}
	s.events.Publish(notify.Event{
		Type:        notify.TypeStockUpdate,
		ProductID:   p.ID,
		ProductName: p.Name,
		Stock:       p.Stock,
		Message:     models.StockAlert(models.StockStatus(p.Stock, s.lowStock)),
	})
}

func optionalID(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}
