package inventorylogs

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/salesdesk/internal/dbx"
	"github.com/dmitrijs2005/salesdesk/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, l *models.InventoryLog) (*models.InventoryLog, error) {

	query :=
		`INSERT INTO inventory_logs
		   (product_id, change_type, quantity_change, previous_quantity, new_quantity, reason, reference, user_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		l.ProductID, l.ChangeType, l.QuantityChange, l.PreviousQuantity, l.NewQuantity,
		l.Reason, l.Reference, l.UserID).Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return l, nil
}

func (r *PostgresRepository) List(ctx context.Context, productID int64, limit int) ([]*models.InventoryLog, error) {

	query :=
		`SELECT id, product_id, change_type, quantity_change, previous_quantity, new_quantity,
		        reason, reference, user_id, created_at
		 FROM inventory_logs`

	args := []any{}
	if productID > 0 {
		args = append(args, productID)
		query += ` WHERE product_id = $1`
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	items := make([]*models.InventoryLog, 0)
	for rows.Next() {
		l := &models.InventoryLog{}
		err := rows.Scan(&l.ID, &l.ProductID, &l.ChangeType, &l.QuantityChange, &l.PreviousQuantity,
			&l.NewQuantity, &l.Reason, &l.Reference, &l.UserID, &l.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		items = append(items, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return items, nil
}
