package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/salesdesk/internal/common"
	"github.com/dmitrijs2005/salesdesk/internal/dbx"
	"github.com/dmitrijs2005/salesdesk/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, userID int64, token string, validity time.Duration) error {

	query :=
		`INSERT INTO refresh_tokens (user_id, token, expires_at)
         VALUES ($1, $2, $3)
		 `

	_, err := r.db.ExecContext(ctx, query, userID, token, time.Now().Add(validity))

	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Consume(ctx context.Context, token string) (*models.RefreshToken, error) {

	query :=
		`DELETE FROM refresh_tokens
		 WHERE token = $1
		 RETURNING user_id, expires_at
		 `

	return scanToken(r.db.QueryRowContext(ctx, query, token), token)
}

func (r *PostgresRepository) Delete(ctx context.Context, token string) error {

	query :=
		`DELETE FROM refresh_tokens
		 WHERE token = $1
		 `

	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func scanToken(row *sql.Row, token string) (*models.RefreshToken, error) {
	t := &models.RefreshToken{Token: token}
	if err := row.Scan(&t.UserID, &t.Expires); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}
