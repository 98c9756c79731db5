// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, and issuing/refreshing JWTs
// plus server-stored refresh tokens.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/salesdesk/internal/common"
	"github.com/dmitrijs2005/salesdesk/internal/dbx"
	"github.com/dmitrijs2005/salesdesk/internal/server/auth"
	"github.com/dmitrijs2005/salesdesk/internal/server/config"
	"github.com/dmitrijs2005/salesdesk/internal/server/models"
	"github.com/dmitrijs2005/salesdesk/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// dummyHash is compared against when the user does not exist so that
// unknown usernames cost as much as wrong passwords.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("salesdesk-dummy-password"), bcrypt.DefaultCost)

// hashPassword is a seam for tests that need the hashing step to fail.
var hashPassword = func(password []byte) ([]byte, error) {
	return bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
}

// UserService provides authentication-related operations:
// - Register: create users
// - Login: verify credentials and mint tokens
// - RefreshToken: rotate refresh tokens and mint new access tokens
// - Logout: revoke a refresh token
// - Verify: the bearer-token gate
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// Register creates a new user with a bcrypt hash of password.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrorInvalidInput)
	}

	hash, err := hashPassword([]byte(password))
	if err != nil {
		return nil, fmt.Errorf("%w: hashing password: %v", common.ErrorInternal, err)
	}

	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, &models.User{UserName: username, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, fmt.Errorf("username %w", common.ErrorAlreadyExists)
		}
		return nil, fmt.Errorf("%w: error creating user: %v", common.ErrorInternal, err)
	}
	return u, nil
}

// Login verifies the password against the stored hash and, on success,
// returns a new TokenPair together with the user.
func (s *UserService) Login(ctx context.Context, username, password string) (*TokenPair, *models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, nil, fmt.Errorf("%w: username and password are required", common.ErrorInvalidInput)
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, nil, common.ErrorUnauthorized
		}
		return nil, nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return nil, nil, common.ErrorUnauthorized
	}

	pair, err := s.generateTokenPair(ctx, user, s.db)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// RefreshToken consumes a refresh token and returns a fresh TokenPair in the
// same transaction. Unknown tokens yield ErrorUnauthorized, expired ones
// ErrRefreshTokenExpired. An expired token is still deleted.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh token is required", common.ErrorInvalidInput)
	}

	var pair *TokenPair
	expired := false
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		token, err := s.repomanager.RefreshTokens(tx).Consume(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorUnauthorized
			}
			return fmt.Errorf("%w: error consuming refresh token: %v", common.ErrorInternal, err)
		}
		if token.Expires.Before(time.Now()) {
			expired = true
			return nil
		}

		user, err := s.repomanager.Users(tx).GetByID(ctx, token.UserID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorUnauthorized
			}
			return fmt.Errorf("%w: %v", common.ErrorInternal, err)
		}

		pair, err = s.generateTokenPair(ctx, user, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, common.ErrRefreshTokenExpired
	}
	return pair, nil
}

// Logout revokes a refresh token. Unknown tokens are not an error; access
// tokens stay valid until they expire.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return fmt.Errorf("%w: refresh token is required", common.ErrorInvalidInput)
	}
	if err := s.repomanager.RefreshTokens(s.db).Delete(ctx, refreshToken); err != nil {
		return fmt.Errorf("%w: error revoking refresh token: %v", common.ErrorInternal, err)
	}
	return nil
}

// Verify runs the Authorization header through the bearer-token gate.
func (s *UserService) Verify(header string) (*auth.Identity, error) {
	return auth.Authorize(header, s.jwtSecret)
}

// --- helpers below ---

func (s *UserService) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

func (s *UserService) generateTokenPair(ctx context.Context, user *models.User, tx dbx.DBTX) (*TokenPair, error) {
	access, err := auth.GenerateToken(user.ID, user.UserName, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("%w: error signing access token: %v", common.ErrorInternal, err)
	}
	refresh, err := s.generateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("%w: error generating refresh token: %v", common.ErrorInternal, err)
	}
	refreshRepo := s.repomanager.RefreshTokens(tx)
	if err := refreshRepo.Create(ctx, user.ID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, fmt.Errorf("%w: error storing refresh token: %v", common.ErrorInternal, err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
