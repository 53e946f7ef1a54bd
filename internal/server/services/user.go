package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/cvewatch/internal/common"
	"github.com/dmitrijs2005/cvewatch/internal/dbx"
	"github.com/dmitrijs2005/cvewatch/internal/server/auth"
	"github.com/dmitrijs2005/cvewatch/internal/server/config"
	"github.com/dmitrijs2005/cvewatch/internal/server/models"
	"github.com/dmitrijs2005/cvewatch/internal/server/repositories/repomanager"
)

// UserService handles registration, login and the initial admin account.
type UserService struct {
	db                      *sql.DB
	repomanager             repomanager.RepositoryManager
	jwtSecret               []byte
	sessionValidityDuration time.Duration
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                      db,
		repomanager:             m,
		jwtSecret:               []byte(cfg.SecretKey),
		sessionValidityDuration: cfg.SessionValidityDuration,
	}
}

// Register creates a user with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, username, password string, isAdmin bool) (*models.User, error) {
	return s.register(ctx, s.db, username, password, isAdmin)
}

func (s *UserService) register(ctx context.Context, db dbx.DBTX, username, password string, isAdmin bool) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, common.ErrorInvalidLogin
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{UserName: username, PasswordHash: hash, IsAdmin: isAdmin}
	repo := s.repomanager.Users(db)
	u, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Login checks the password and returns a signed session token. Unknown users
// and wrong passwords are both common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", nil, common.ErrorUnauthorized
		}
		return "", nil, common.ErrorInternal
	}

	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return "", nil, common.ErrorInternal
	}
	if !ok {
		return "", nil, common.ErrorUnauthorized
	}

	token, err := auth.GenerateToken(user.UserName, user.IsAdmin, s.jwtSecret, s.sessionValidityDuration)
	if err != nil {
		return "", nil, common.ErrorInternal
	}
	return token, user, nil
}

// Authenticate resolves a session token to its claims.
func (s *UserService) Authenticate(token string) (*auth.Claims, error) {
	return auth.ParseToken(token, s.jwtSecret)
}

// SeedAdmin creates an admin account when the users table is empty. It
// reports whether an account was created.
func (s *UserService) SeedAdmin(ctx context.Context, username, password string) (bool, error) {
	created := false
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := s.repomanager.Users(tx).Count(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		if _, err := s.register(ctx, tx, username, password, true); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}
