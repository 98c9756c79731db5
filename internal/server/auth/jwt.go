// Package auth issues access tokens and implements the bearer-token gate
// every protected request passes through.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/salesdesk/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the registered claims plus the identity of the token owner.
type Claims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// Identity is what a valid token proves about the caller.
type Identity struct {
	UserID   int64  `json:"id"`
	Username string `json:"username"`
}

func GenerateToken(userID int64, username string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		UserID:   userID,
		Username: username,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies the signature and expiry of tokenString.
// Expired tokens yield common.ErrTokenExpired, anything else common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, common.ErrInvalidToken
		}
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == 0 {
		return nil, common.ErrInvalidToken
	}

	return &Identity{UserID: claims.UserID, Username: claims.Username}, nil
}

// Authorize checks an Authorization header value of the form "Bearer <token>".
func Authorize(header string, secretKey []byte) (*Identity, error) {
	if header == "" || !strings.HasPrefix(header, common.BearerPrefix) {
		return nil, common.ErrMissingCredential
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, common.BearerPrefix))
	if token == "" {
		return nil, common.ErrMissingCredential
	}

	return ParseToken(token, secretKey)
}
