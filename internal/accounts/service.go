package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/cruisemate/cruisemate/internal/auth"
	"github.com/cruisemate/cruisemate/internal/models"
	"github.com/cruisemate/cruisemate/internal/roles"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnknownRole        = errors.New("unknown role")
)

// Service handles account registration and credential checks
type Service struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// RegisterParams are the inputs for creating an account
type RegisterParams struct {
	Email    string
	Username string
	Password string
	Role     roles.Role
}

// NewService creates a new accounts service
func NewService(db *gorm.DB, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger.With().Str("component", "accounts_service").Logger(),
	}
}

// NormalizeEmail trims and lowercases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user. The email is normalized, and a missing username
// defaults to the email's local part with a numeric suffix when taken.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	if !params.Role.Known() {
		return nil, fmt.Errorf("%w %q", ErrUnknownRole, params.Role)
	}

	email := NormalizeEmail(params.Email)
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	username := strings.TrimSpace(params.Username)
	if username == "" {
		username, _, _ = strings.Cut(email, "@")
	}
	username, err := s.uniqueUsername(db, username)
	if err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		Role:         params.Role.Backend(),
	}
	if err := db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Str("role", user.Role).
		Msg("User registered")

	return user, nil
}

// uniqueUsername appends 1, 2, ... to base until no user has it
func (s *Service) uniqueUsername(db *gorm.DB, base string) (string, error) {
	candidate := base
	for n := 1; ; n++ {
		var count int64
		if err := db.Model(&models.User{}).Where("username = ?", candidate).Count(&count).Error; err != nil {
			return "", fmt.Errorf("failed to check username: %w", err)
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, n)
	}
}

// Authenticate returns the user for email when password matches
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := auth.VerifyPassword(password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

// Subject converts a user into the identity embedded in its tokens
func Subject(user *models.User) auth.Subject {
	return auth.Subject{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}
}
