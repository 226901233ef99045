// internal/services/auth_service.go
package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradebridge/ptt-backend/internal/apperrors"
	"github.com/tradebridge/ptt-backend/internal/config"
	"github.com/tradebridge/ptt-backend/internal/models"
	"github.com/tradebridge/ptt-backend/internal/utils"
)

type AuthService struct {
	db  *gorm.DB
	cfg *config.Config
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Email         string      `json:"email" validate:"required,email"`
	Password      string      `json:"password" validate:"required,strong_password"`
	Role          models.Role `json:"role" validate:"required"`
	CompanyName   string      `json:"company_name" validate:"required"`
	ContactPerson string      `json:"contact_person,omitempty"`
	PhoneNumber   string      `json:"phone_number,omitempty"`
	BankName      string      `json:"bank_name,omitempty"`
}

type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"` // in seconds
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{
		db:  db,
		cfg: cfg,
	}
}

func (s *AuthService) Register(req *RegisterRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.InvalidInput("validation failed: %v", err)
	}

	if !req.Role.Valid() {
		return nil, apperrors.InvalidInput("invalid role")
	}

	// Check if user already exists
	var existingUser models.User
	if err := s.db.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
		return nil, apperrors.Conflict("user with this email already exists")
	}

	user := &models.User{
		Email:         req.Email,
		Role:          req.Role,
		CompanyName:   req.CompanyName,
		ContactPerson: req.ContactPerson,
		PhoneNumber:   req.PhoneNumber,
		BankName:      req.BankName,
		Status:        models.UserStatusActive,
	}

	if err := user.SetPassword(req.Password); err != nil {
		return nil, apperrors.Internal("failed to hash password", err)
	}

	if err := s.db.Create(user).Error; err != nil {
		if IsUniqueViolation(err) {
			return nil, apperrors.Conflict("user with this email already exists")
		}
		return nil, apperrors.Internal("failed to create user", err)
	}

	return s.tokenResponse(user)
}

func (s *AuthService) Login(req *LoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.InvalidInput("validation failed: %v", err)
	}

	var user models.User
	if err := s.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Forbidden("invalid email or password")
		}
		return nil, apperrors.Internal("database error", err)
	}

	if user.Status == models.UserStatusSuspended {
		return nil, apperrors.Forbidden("account is suspended")
	}

	if err := user.CheckPassword(req.Password); err != nil {
		return nil, apperrors.Forbidden("invalid email or password")
	}

	now := time.Now()
	user.LastLoginAt = &now
	s.db.Model(&user).Update("last_login_at", now)

	return s.tokenResponse(&user)
}

func (s *AuthService) GetUser(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Internal("database error", err)
	}
	return &user, nil
}

func (s *AuthService) tokenResponse(user *models.User) (*AuthResponse, error) {
	accessToken, err := utils.GenerateJWT(user.ID, string(user.Role), user.CompanyName, s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, apperrors.Internal("failed to generate access token", err)
	}

	refreshToken, err := utils.GenerateRefreshToken(user.ID, s.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, apperrors.Internal("failed to generate refresh token", err)
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.cfg.JWT.AccessTokenTTL * 3600, // hours to seconds
	}, nil
}
