package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pulsefeed/pulsefeed/internal/models"
)

var (
	// ErrEmailTaken indicates registration with an already-used email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials indicates a failed login.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// UserRepository defines the storage operations the auth service needs.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Service handles user registration and login.
type Service struct {
	users  UserRepository
	config Config
}

// NewService creates an auth service.
func NewService(users UserRepository, config Config) *Service {
	return &Service{users: users, config: config}
}

// Register creates a new user and returns it with a signed token.
func (s *Service) Register(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", fmt.Errorf("invalid email address")
	}
	if len(password) < 8 {
		return nil, "", fmt.Errorf("password must be at least 8 characters")
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		return nil, "", ErrEmailTaken
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := GenerateToken(user.ID, s.config.JWTSecret, s.config.TokenDuration)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	return &user, token, nil
}

// Login verifies credentials and returns the user with a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("look up user: %w", err)
	}
	if user == nil || !CheckPassword(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := GenerateToken(user.ID, s.config.JWTSecret, s.config.TokenDuration)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	return user, token, nil
}

// CurrentUser loads the user identified by id, or nil when it no longer
// exists.
func (s *Service) CurrentUser(ctx context.Context, id string) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}
