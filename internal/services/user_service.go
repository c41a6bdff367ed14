package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/inviteforge/inviteforge/internal/auth"
	"github.com/inviteforge/inviteforge/internal/models"
)

// UserService manages account registration and credential checks.
type UserService struct {
	db         *gorm.DB
	bcryptCost int
	now        func() time.Time
}

// NewUserService constructs a user service once a database handle is supplied.
func NewUserService(db *gorm.DB, bcryptCost int) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db, bcryptCost: bcryptCost, now: time.Now}, nil
}

func ensuredContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// RegisterInput captures the fields required to create an account.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
}

// Register creates a standard user account with a hashed password.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	if s == nil {
		return nil, errors.New("user service: service not initialised")
	}
	ctx = ensuredContext(ctx)

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, errors.New("user service: valid email is required")
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(input.FullName),
		Role:         models.RoleUser,
		IsActive:     true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmailExists
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// Authenticate verifies email and password, recording the login time on
// success. All failure modes collapse into ErrInvalidLogin so callers cannot
// distinguish unknown accounts from wrong passwords.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	if s == nil {
		return nil, errors.New("user service: service not initialised")
	}
	ctx = ensuredContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidLogin
	}
	if err != nil {
		return nil, err
	}

	if !user.IsActive || !auth.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidLogin
	}

	now := s.now()
	user.LastLoginAt = &now
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

// Get retrieves a user by identifier.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	if s == nil {
		return nil, errors.New("user service: service not initialised")
	}
	ctx = ensuredContext(ctx)

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("user service: id is required")
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
