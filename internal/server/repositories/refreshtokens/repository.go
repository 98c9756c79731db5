// Package refreshtokens declares the server-side repository contract for
// managing refresh tokens in persistent storage.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/salesdesk/internal/server/models"
)

// Repository defines operations for issuing, retrieving, and revoking refresh tokens.
type Repository interface {
	// Create stores a new refresh token for userID with an expiry of now+validity.
	Create(ctx context.Context, userID int64, token string, validity time.Duration) error

	// Consume deletes the token and returns what it held. Two concurrent
	// consumers of the same token cannot both succeed.
	// Returns common.ErrorNotFound when the token is absent.
	Consume(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes a refresh token. Deleting a non-existent token is not an error.
	Delete(ctx context.Context, token string) error
}
