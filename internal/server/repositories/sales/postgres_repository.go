package sales

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/salesdesk/internal/common"
	"github.com/dmitrijs2005/salesdesk/internal/dbx"
	"github.com/dmitrijs2005/salesdesk/internal/server/models"
	"github.com/shopspring/decimal"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// conditions collects WHERE clauses with positional placeholders.
type conditions struct {
	clauses []string
	args    []any
}

func (c *conditions) add(clause string, arg any) {
	c.args = append(c.args, arg)
	c.clauses = append(c.clauses, fmt.Sprintf(clause, len(c.args)))
}

func (c *conditions) period(column string, from, to time.Time) {
	if !from.IsZero() {
		c.add(column+" >= $%d", from)
	}
	if !to.IsZero() {
		c.add(column+" < $%d", to)
	}
}

func (c *conditions) String() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.Sale) (*models.Sale, error) {

	query :=
		`INSERT INTO sales (product_id, quantity, unit_price, total)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, s.ProductID, s.Quantity, s.UnitPrice, s.Total).
		Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return s, nil
}

func (r *PostgresRepository) List(ctx context.Context, f models.SaleFilter, limit int) ([]*models.SaleView, error) {

	var where conditions
	if f.ProductID > 0 {
		where.add("s.product_id = $%d", f.ProductID)
	}
	where.period("s.created_at", f.DateFrom, f.DateTo)
	if s := strings.TrimSpace(f.Search); s != "" {
		where.add("p.name ILIKE $%d", "%"+s+"%")
	}

	query :=
		`SELECT s.id, s.product_id, s.quantity, s.unit_price, s.total, s.created_at,
		        COALESCE(p.name, ''), p.price
		 FROM sales s
		 LEFT JOIN products p ON p.id = s.product_id` +
			where.String() +
			` ORDER BY s.created_at DESC, s.id DESC`

	args := where.args
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	items := make([]*models.SaleView, 0)
	for rows.Next() {
		v := &models.SaleView{}
		err := rows.Scan(&v.ID, &v.ProductID, &v.Quantity, &v.UnitPrice, &v.Total, &v.CreatedAt,
			&v.ProductName, &v.ProductPrice)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		items = append(items, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return items, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.SaleView, error) {

	query :=
		`SELECT s.id, s.product_id, s.quantity, s.unit_price, s.total, s.created_at,
		        COALESCE(p.name, ''), p.price
		 FROM sales s
		 LEFT JOIN products p ON p.id = s.product_id
		 WHERE s.id = $1`

	v := &models.SaleView{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&v.ID, &v.ProductID, &v.Quantity, &v.UnitPrice,
		&v.Total, &v.CreatedAt, &v.ProductName, &v.ProductPrice)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return v, nil
}

func (r *PostgresRepository) ProductTotals(ctx context.Context, productID int64) (int64, decimal.Decimal, error) {

	query :=
		`SELECT COALESCE(SUM(quantity), 0), COALESCE(SUM(total), 0)
		 FROM sales WHERE product_id = $1`

	var sold int64
	var revenue decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, productID).Scan(&sold, &revenue); err != nil {
		return 0, decimal.Zero, fmt.Errorf("db error: %w", err)
	}

	return sold, revenue, nil
}

func (r *PostgresRepository) RecentByProduct(ctx context.Context, productID int64, limit int) ([]*models.Sale, error) {

	query :=
		`SELECT id, product_id, quantity, unit_price, total, created_at
		 FROM sales WHERE product_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	items := make([]*models.Sale, 0)
	for rows.Next() {
		s := &models.Sale{}
		if err := rows.Scan(&s.ID, &s.ProductID, &s.Quantity, &s.UnitPrice, &s.Total, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		items = append(items, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return items, nil
}

func (r *PostgresRepository) Totals(ctx context.Context, from, to time.Time) (models.SalesTotals, error) {

	var where conditions
	where.period("created_at", from, to)

	query :=
		`SELECT COUNT(*), COALESCE(SUM(quantity), 0), COALESCE(SUM(total), 0)
		 FROM sales` + where.String()

	var t models.SalesTotals
	if err := r.db.QueryRowContext(ctx, query, where.args...).Scan(&t.Count, &t.Quantity, &t.Revenue); err != nil {
		return models.SalesTotals{}, fmt.Errorf("db error: %w", err)
	}

	return t, nil
}

func (r *PostgresRepository) DailyRevenue(ctx context.Context, since time.Time) ([]models.DailyRevenue, error) {

	query :=
		`SELECT (created_at AT TIME ZONE 'UTC')::date AS day, COALESCE(SUM(total), 0), COUNT(*)
		 FROM sales WHERE created_at >= $1
		 GROUP BY day
		 ORDER BY day`

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	items := make([]models.DailyRevenue, 0)
	for rows.Next() {
		var d models.DailyRevenue
		if err := rows.Scan(&d.Day, &d.Revenue, &d.Count); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		d.Day = d.Day.UTC()
		items = append(items, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return items, nil
}

func (r *PostgresRepository) ProductBreakdown(ctx context.Context, from, to time.Time) ([]models.ProductSales, error) {

	var where conditions
	where.period("s.created_at", from, to)

	query :=
		`SELECT s.product_id, COALESCE(p.name, ''), COALESCE(SUM(s.quantity), 0),
		        COALESCE(SUM(s.total), 0), COUNT(*)
		 FROM sales s
		 LEFT JOIN products p ON p.id = s.product_id` +
			where.String() +
			` GROUP BY s.product_id, p.name
		 ORDER BY 4 DESC, 2`

	rows, err := r.db.QueryContext(ctx, query, where.args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	items := make([]models.ProductSales, 0)
	for rows.Next() {
		var ps models.ProductSales
		if err := rows.Scan(&ps.ProductID, &ps.ProductName, &ps.Quantity, &ps.Revenue, &ps.Count); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		items = append(items, ps)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return items, nil
}
