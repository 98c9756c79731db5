package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/salesdesk/internal/common"
	"github.com/dmitrijs2005/salesdesk/internal/server/models"
	"github.com/dmitrijs2005/salesdesk/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/salesdesk/internal/timex"
	"github.com/shopspring/decimal"
)

const (
	DashboardDays        = 7
	DashboardRecentSales = 10
)

// ReportService builds read-only aggregates over sales and products.
type ReportService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	lowStock    int
	archiver    Archiver
	now         func() time.Time
}

func NewReportService(db *sql.DB, m repomanager.RepositoryManager, lowStock int, archiver Archiver) *ReportService {
	if lowStock <= 0 {
		lowStock = common.DefaultLowStockThreshold
	}
	return &ReportService{db: db, repomanager: m, lowStock: lowStock, archiver: archiver, now: time.Now}
}

func (s *ReportService) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	productsRepo := s.repomanager.Products(s.db)
	salesRepo := s.repomanager.Sales(s.db)

	today := timex.StartOfDay(s.now().UTC())
	since := today.AddDate(0, 0, -(DashboardDays - 1))

	d := &models.Dashboard{}

	var err error
	if d.TotalProducts, d.LowStockCount, err = productsRepo.Count(ctx, s.lowStock); err != nil {
		return nil, storageError(err)
	}
	if d.AllTime, err = salesRepo.Totals(ctx, time.Time{}, time.Time{}); err != nil {
		return nil, storageError(err)
	}
	if d.Today, err = salesRepo.Totals(ctx, today, time.Time{}); err != nil {
		return nil, storageError(err)
	}

	daily, err := salesRepo.DailyRevenue(ctx, since)
	if err != nil {
		return nil, storageError(err)
	}
	d.LastDays = fillDays(since, DashboardDays, daily)

	if d.RecentSales, err = salesRepo.List(ctx, models.SaleFilter{}, DashboardRecentSales); err != nil {
		return nil, storageError(err)
	}

	return d, nil
}

// fillDays returns exactly n consecutive days starting at since, taking
// figures from rows where present.
func fillDays(since time.Time, n int, rows []models.DailyRevenue) []models.DailyRevenue {
	byDay := make(map[string]models.DailyRevenue, len(rows))
	for _, r := range rows {
		byDay[r.Day.Format(time.DateOnly)] = r
	}

	out := make([]models.DailyRevenue, n)
	for i := range out {
		day := since.AddDate(0, 0, i)
		r, ok := byDay[day.Format(time.DateOnly)]
		if !ok {
			r = models.DailyRevenue{Revenue: decimal.Zero}
		}
		r.Day = day
		out[i] = r
	}
	return out
}

// Report covers the calendar days start through end inclusive.
func (s *ReportService) Report(ctx context.Context, start, end time.Time) (*models.Report, error) {
	from := timex.StartOfDay(start)
	to := timex.StartOfDay(end).AddDate(0, 0, 1)
	if !from.Before(to) {
		return nil, fmt.Errorf("%w: start must not be after end", common.ErrorInvalidInput)
	}

	salesRepo := s.repomanager.Sales(s.db)

	totals, err := salesRepo.Totals(ctx, from, to)
	if err != nil {
		return nil, storageError(err)
	}
	breakdown, err := salesRepo.ProductBreakdown(ctx, from, to)
	if err != nil {
		return nil, storageError(err)
	}

	return &models.Report{From: from, To: to, Totals: totals, Products: breakdown}, nil
}

// csvText keeps a spreadsheet from evaluating a cell as a formula.
func csvText(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}

var csvHeader = []string{"id", "created_at", "product_id", "product_name", "quantity", "unit_price", "total"}

// ExportSales writes the sales matching f to w as CSV.
func (s *ReportService) ExportSales(ctx context.Context, w io.Writer, f models.SaleFilter) error {
	items, err := s.repomanager.Sales(s.db).List(ctx, f, 0)
	if err != nil {
		return storageError(err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, v := range items {
		productID := ""
		if v.ProductID != nil {
			productID = strconv.FormatInt(*v.ProductID, 10)
		}
		record := []string{
			strconv.FormatInt(v.ID, 10),
			v.CreatedAt.UTC().Format(time.RFC3339),
			productID,
			csvText(v.ProductName),
			strconv.Itoa(v.Quantity),
			v.UnitPrice.StringFixed(2),
			v.Total.StringFixed(2),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var inventoryHeader = []string{"name", "price", "stock", "status", "value"}

// ExportInventory writes every product ordered by name with its stock value
// (price times stock), followed by a TOTAL row.
func (s *ReportService) ExportInventory(ctx context.Context, w io.Writer) error {
	items, err := s.repomanager.Products(s.db).List(ctx, "")
	if err != nil {
		return storageError(err)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})

	cw := csv.NewWriter(w)
	if err := cw.Write(inventoryHeader); err != nil {
		return err
	}

	var units int64
	total := decimal.Zero
	for _, p := range items {
		value := p.Price.Mul(decimal.NewFromInt(int64(p.Stock)))
		units += int64(p.Stock)
		total = total.Add(value)

		record := []string{
			csvText(p.Name),
			p.Price.StringFixed(2),
			strconv.Itoa(p.Stock),
			models.StockStatus(p.Stock, s.lowStock),
			value.StringFixed(2),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	if err := cw.Write([]string{"TOTAL", "", strconv.FormatInt(units, 10), "", total.StringFixed(2)}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// ArchiveSales stores the CSV export through the configured archiver.
func (s *ReportService) ArchiveSales(ctx context.Context, f models.SaleFilter) (*Archive, error) {
	if s.archiver == nil {
		return nil, fmt.Errorf("%w: no archiver configured", common.ErrorInternal)
	}

	var buf bytes.Buffer
	if err := s.ExportSales(ctx, &buf, f); err != nil {
		return nil, err
	}

	return s.archiver.Store(ctx, NewArchiveName(s.now()), buf.Bytes())
}
