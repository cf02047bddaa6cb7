package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/vkozak/product-catalog/internal/auth"
	"github.com/vkozak/product-catalog/internal/metrics"
	"github.com/vkozak/product-catalog/internal/model"
	"github.com/vkozak/product-catalog/internal/repository"
)

// ErrInvalidCredentials is returned when login fails for an unknown user or a
// wrong password. The two cases are deliberately indistinguishable.
var ErrInvalidCredentials = errors.New("invalid username or password")

// UserStore is the persistence surface the auth service needs.
type UserStore interface {
	Create(ctx context.Context, resource repository.Resource) (repository.Resource, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
}

// AuthService handles user registration and token-based login.
type AuthService struct {
	users  UserStore
	tokens *auth.Manager
}

func NewAuthService(users UserStore, tokens *auth.Manager) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
	}
}

// Register creates a new user with a bcrypt-hashed password. The plain-text
// password is never persisted.
func (as *AuthService) Register(ctx context.Context, username, password string) (*model.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username: username,
		Password: hash,
	}

	created, err := as.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	createdUser, ok := created.(*model.User)
	if !ok {
		return nil, repository.ErrInvalidType
	}

	metrics.UsersRegistered.Inc()

	return createdUser, nil
}

// Login verifies the credentials and returns a signed token for the user.
func (as *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := as.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if !auth.CheckPassword(user.Password, password) {
		return "", ErrInvalidCredentials
	}

	return as.tokens.GenerateToken(user.ID, user.Username)
}
