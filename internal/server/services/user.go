// Package services contains server-side business logic. This file implements
// UserService: registration and login for local and federated accounts,
// issuing/refreshing JWTs plus server-stored refresh tokens, profile updates,
// and the admin console operations.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"devfolio/internal/common"
	"devfolio/internal/dbx"
	"devfolio/internal/server/auth"
	"devfolio/internal/server/config"
	"devfolio/internal/server/models"
	"devfolio/internal/server/repositories/repomanager"
	"devfolio/internal/server/repositories/users"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// UserService provides account and authentication operations:
// - RegisterLocal: create password-based accounts
// - LoginLocal / LoginFederated: verify credentials and mint tokens
// - RefreshToken: rotate refresh tokens and mint new access tokens
// - profile and admin operations
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	verifier                     auth.IdentityVerifier
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server
// config. verifier may be nil when federated login is not configured.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, verifier auth.IdentityVerifier, cfg *config.Config) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		verifier:                     verifier,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// RegisterLocal creates a password-based account. The username is stored
// lowercased so lookups are case-insensitive.
func (s *UserService) RegisterLocal(ctx context.Context, username, password, firstName, lastName string) (*models.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", common.ErrValidation)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName:    firstName,
		LastName:     lastName,
		Username:     &username,
		PasswordHash: &hash,
		Role:         models.RoleUser,
		Active:       true,
	}

	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, fmt.Errorf("%w: username is taken", common.ErrConflict)
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// LoginLocal verifies a username/password pair and, on success, returns a new
// TokenPair. Unknown usernames and wrong passwords are indistinguishable to
// the caller.
func (s *UserService) LoginLocal(ctx context.Context, username, password string) (*TokenPair, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, common.ErrInternal
	}
	if !user.HasLocalCredential() || !auth.VerifyPassword(*user.PasswordHash, password) {
		return nil, common.ErrUnauthorized
	}
	if !user.Active {
		return nil, common.ErrForbidden
	}
	return s.generateTokenPair(ctx, user, s.db)
}

// LoginFederated validates an OIDC ID token and logs the linked account in,
// creating the account on first sight of the (provider, subject) pair.
func (s *UserService) LoginFederated(ctx context.Context, rawIDToken string) (*TokenPair, error) {
	if s.verifier == nil {
		return nil, common.ErrUnavailable
	}

	identity, err := s.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, common.ErrUnauthorized
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByProvider(ctx, identity.Provider, identity.Subject)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInternal
		}
		user, err = repo.Create(ctx, &models.User{
			FirstName:  identity.FirstName,
			LastName:   identity.LastName,
			Provider:   &identity.Provider,
			ProviderID: &identity.Subject,
			Role:       models.RoleUser,
			Active:     true,
		})
		if err != nil {
			// Lost a race with a concurrent first login; re-read the winner.
			if errors.Is(err, common.ErrConflict) {
				user, err = repo.GetByProvider(ctx, identity.Provider, identity.Subject)
			}
			if err != nil {
				return nil, common.ErrInternal
			}
		}
	}

	if !user.Active {
		return nil, common.ErrForbidden
	}
	return s.generateTokenPair(ctx, user, s.db)
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Expired tokens yield ErrRefreshTokenExpired.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	repo := s.repomanager.RefreshTokens(s.db)

	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expires.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, token.UserID)
	if err != nil {
		return nil, common.ErrInvalidToken
	}
	if !user.Active {
		return nil, common.ErrForbidden
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.RefreshTokens(tx)
		if err := repoTx.Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, user, tx)
		return genErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// GetUser returns a user by id.
func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, id)
}

// UpdateProfile changes the caller's first and last name.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, firstName, lastName string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.FirstName = firstName
	user.LastName = lastName
	if err := repo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SearchUsers runs an admin search with the given filter.
func (s *UserService) SearchUsers(ctx context.Context, f users.Filter) ([]*models.User, error) {
	return s.repomanager.Users(s.db).Search(ctx, f)
}

// SetUserActive enables or disables an account. Disabled accounts cannot log
// in or refresh tokens; existing access tokens expire on their own.
func (s *UserService) SetUserActive(ctx context.Context, id int64, active bool) error {
	return s.repomanager.Users(s.db).SetActive(ctx, id, active)
}

// SetUserRole changes an account's role.
func (s *UserService) SetUserRole(ctx context.Context, id int64, role string) error {
	if role != models.RoleUser && role != models.RoleAdmin {
		return fmt.Errorf("%w: unknown role %q", common.ErrValidation, role)
	}
	return s.repomanager.Users(s.db).SetRole(ctx, id, role)
}

// --- helpers below ---

func (s *UserService) generateAccessToken(user *models.User) (string, error) {
	return auth.GenerateToken(user.ID, user.Role, s.jwtSecret, s.accessTokenValidityDuration)
}

func (s *UserService) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

func (s *UserService) generateTokenPair(ctx context.Context, user *models.User, tx dbx.DBTX) (*TokenPair, error) {
	access, err := s.generateAccessToken(user)
	if err != nil {
		return nil, common.ErrInternal
	}
	refresh, err := s.generateRefreshToken()
	if err != nil {
		return nil, common.ErrInternal
	}
	refreshRepo := s.repomanager.RefreshTokens(tx)
	if err := refreshRepo.Create(ctx, user.ID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
