// Package services contains server-side business logic. UserService handles
// registration and login; PostService runs the authenticated post operations.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/gopherblog/internal/common"
	"github.com/dmitrijs2005/gopherblog/internal/logging"
	"github.com/dmitrijs2005/gopherblog/internal/server/auth"
	"github.com/dmitrijs2005/gopherblog/internal/server/models"
	"github.com/dmitrijs2005/gopherblog/internal/server/repositories/repomanager"
)

// maxPasswordLen is the bcrypt input limit.
const maxPasswordLen = 72

// PasswordHasher is satisfied by *auth.BcryptHasher.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// TokenIssuer is satisfied by *auth.TokenService.
type TokenIssuer interface {
	Issue(id auth.Identity) (string, error)
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	UserID   string `json:"id"`
	UserName string `json:"username"`
	Token    string `json:"token"`
}

// UserService provides authentication-related operations:
// - Register: create users with a hashed password
// - Login: verify credentials and issue an identity token
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	tokens      TokenIssuer
	logger      logging.Logger

	// dummyHash is compared against when the username is unknown so both
	// login failures cost one bcrypt comparison.
	dummyHash func() (string, error)
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher PasswordHasher, tokens TokenIssuer, logger logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		logger:      logger,
		dummyHash: sync.OnceValues(func() (string, error) {
			return hasher.Hash("gopherblog-dummy-password")
		}),
	}
}

// Register creates a new user. A taken username yields common.ErrDuplicateUsername
// and nothing is written.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", common.ErrorValidation)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", common.ErrorValidation)
	}
	if len(password) > maxPasswordLen {
		return nil, fmt.Errorf("%w: password is longer than %d bytes", common.ErrorValidation, maxPasswordLen)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, &models.User{UserName: username, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateUsername) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", u.ID, "username", u.UserName)
	return u, nil
}

// Login verifies the password and issues a token. Unknown username and wrong
// password both yield common.ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			h, err := s.dummyHash()
			if err != nil {
				s.logger.Error(ctx, "dummy password hash unavailable", "error", err)
			}
			s.hasher.Verify(password, h)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(auth.Identity{UserID: user.ID, UserName: user.UserName})
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return &LoginResult{UserID: user.ID, UserName: user.UserName, Token: token}, nil
}

// Profile echoes the verified identity.
func (s *UserService) Profile(id *auth.Identity) (*auth.Identity, error) {
	if id == nil {
		return nil, common.ErrMissingCredential
	}
	out := *id
	return &out, nil
}
