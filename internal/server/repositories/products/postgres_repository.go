package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/salesdesk/internal/common"
	"github.com/dmitrijs2005/salesdesk/internal/dbx"
	"github.com/dmitrijs2005/salesdesk/internal/server/models"
)

const productColumns = `id, name, price, stock, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*models.Product, error) {
	p := &models.Product{}
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PostgresRepository) List(ctx context.Context, search string) ([]*models.Product, error) {

	query := `SELECT ` + productColumns + ` FROM products`
	args := []any{}

	if s := strings.TrimSpace(search); s != "" {
		query += ` WHERE name ILIKE $1`
		args = append(args, "%"+s+"%")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	items := make([]*models.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		items = append(items, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return items, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, id int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, id int64) (*models.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Product) (*models.Product, error) {

	query :=
		`INSERT INTO products (name, price, stock)
		 VALUES ($1, $2, $3)
		 RETURNING ` + productColumns

	created, err := scanProduct(r.db.QueryRowContext(ctx, query, p.Name, p.Price, p.Stock))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

func (r *PostgresRepository) Update(ctx context.Context, p *models.Product) (*models.Product, error) {

	query :=
		`UPDATE products SET name = $1, price = $2, stock = $3, updated_at = NOW()
		 WHERE id = $4
		 RETURNING ` + productColumns

	updated, err := scanProduct(r.db.QueryRowContext(ctx, query, p.Name, p.Price, p.Stock, p.ID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return updated, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {

	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) DecrementStock(ctx context.Context, id int64, qty int) (int, error) {

	query :=
		`UPDATE products SET stock = stock - $1, updated_at = NOW()
		 WHERE id = $2 AND stock >= $1
		 RETURNING stock`

	var stock int
	if err := r.db.QueryRowContext(ctx, query, qty, id).Scan(&stock); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrInsufficientStock
		}
		return 0, fmt.Errorf("db error: %w", err)
	}

	return stock, nil
}

func (r *PostgresRepository) SetStock(ctx context.Context, id int64, stock int) error {

	query := `UPDATE products SET stock = $1, updated_at = NOW() WHERE id = $2`

	res, err := r.db.ExecContext(ctx, query, stock, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("db error: %w", err)
	} else if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) Count(ctx context.Context, lowThreshold int) (int64, int64, error) {

	query :=
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE stock < $1) FROM products`

	var total, low int64
	if err := r.db.QueryRowContext(ctx, query, lowThreshold).Scan(&total, &low); err != nil {
		return 0, 0, fmt.Errorf("db error: %w", err)
	}

	return total, low, nil
}
