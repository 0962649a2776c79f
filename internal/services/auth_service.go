package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/justsurfingit/InternConnect/internal/auth"
	"github.com/justsurfingit/InternConnect/internal/dtos"
	"github.com/justsurfingit/InternConnect/internal/logging"
	"github.com/justsurfingit/InternConnect/internal/models"
	"gorm.io/gorm"
)

type AuthService struct {
	DB     *gorm.DB
	Tokens *auth.TokenIssuer
}

func NewAuthService(db *gorm.DB, tokens *auth.TokenIssuer) *AuthService {
	return &AuthService{DB: db, Tokens: tokens}
}

// Session is returned by register and login.
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

// Register creates a student or employer account. Students get an empty profile.
func (s *AuthService) Register(ctx context.Context, req *dtos.RegisterRequest) (*Session, error) {
	role := models.Role(req.Role)
	switch role {
	case models.RoleStudent, models.RoleEmployer:
	case models.RoleAdmin:
		return nil, forbidden("admin accounts cannot be self-registered")
	default:
		return nil, invalid("role must be student or employer")
	}

	user, err := s.createUser(ctx, req.Email, req.Password, req.FullName, role)
	if err != nil {
		return nil, err
	}
	logging.L.Info("User registered", "user_id", user.ID, "role", role)
	return s.session(user)
}

func (s *AuthService) Login(ctx context.Context, req *dtos.LoginRequest) (*Session, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where("email = ?", normalizeEmail(req.Email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &Error{Kind: ErrUnauthorized, Msg: "invalid email or password"}
		}
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, &Error{Kind: ErrUnauthorized, Msg: "invalid email or password"}
	}
	return s.session(user)
}

func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, lookup(err, "user")
	}
	return &user, nil
}

// CreateAdmin bootstraps an admin account from the command line.
func (s *AuthService) CreateAdmin(ctx context.Context, email, password, fullName string) (*models.User, error) {
	if len(password) < 8 {
		return nil, invalid("password must be at least 8 characters")
	}
	if strings.TrimSpace(fullName) == "" {
		fullName = "Administrator"
	}
	user, err := s.createUser(ctx, email, password, fullName, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	logging.L.Info("Admin created", "user_id", user.ID, "email", user.Email)
	return &user, nil
}

func (s *AuthService) createUser(ctx context.Context, email, password, fullName string, role models.Role) (models.User, error) {
	user := models.User{
		Email:    normalizeEmail(email),
		Role:     role,
		FullName: strings.TrimSpace(fullName),
	}
	if user.Email == "" {
		return user, invalid("email is required")
	}

	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return user, err
	}
	if count > 0 {
		return user, conflict("email already registered")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return user, err
	}
	user.PasswordHash = hash

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		if role == models.RoleStudent {
			return tx.Create(&models.StudentProfile{UserID: user.ID, FullName: user.FullName}).Error
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return user, conflict("email already registered")
		}
		return user, err
	}
	return user, nil
}

func (s *AuthService) session(user models.User) (*Session, error) {
	token, expires, err := s.Tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expires, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
