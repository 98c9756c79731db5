// Package common defines shared constants and sentinel errors used across
// the salesdesk server. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorInvalidInput = errors.New("invalid input")

	// Auth errors.
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidToken      = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Inventory errors.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// InsufficientStockError carries the stock level observed inside the
// transaction that refused the write.
type InsufficientStockError struct {
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: only %d left, %d requested", e.Available, e.Requested)
}

// Is lets errors.Is(err, ErrInsufficientStock) match the typed error.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
