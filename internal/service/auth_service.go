package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"assetms/internal/apperr"
	"assetms/internal/model"
	"assetms/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	accessTokenTTL  = 24 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
)

// DTOs
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Email        string `json:"email"`
	Role         string `json:"role"`
}

// AuthService authenticates employees and manages refresh tokens.
// The verified (employeeID, role) identity it produces is what every other
// service trusts as the acting user.
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*TokenPairResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPairResponse, error)
	Logout(ctx context.Context, refreshToken string) error
}

type authService struct {
	employeeRepo repository.EmployeeRepository
	tokenRepo    repository.RefreshTokenRepository
	jwtSecret    []byte
}

func NewAuthService(
	employeeRepo repository.EmployeeRepository,
	tokenRepo repository.RefreshTokenRepository,
	jwtSecret []byte,
) AuthService {
	return &authService{employeeRepo: employeeRepo, tokenRepo: tokenRepo, jwtSecret: jwtSecret}
}

func (s *authService) generateAccessToken(employee *model.Employee) (string, error) {
	claims := jwt.MapClaims{
		"sub":  employee.ID.String(),
		"role": string(employee.Role),
		"exp":  time.Now().Add(accessTokenTTL).Unix(),
		"iat":  time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *authService) issueTokenPair(ctx context.Context, employee *model.Employee) (*TokenPairResponse, error) {
	accessToken, err := s.generateAccessToken(employee)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh := &model.RefreshToken{
		EmployeeID: employee.ID,
		Token:      uuid.NewString(),
		ExpiresAt:  time.Now().Add(refreshTokenTTL),
	}
	if err := s.tokenRepo.Create(ctx, refresh); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: refresh.Token,
		Email:        employee.Email,
		Role:         string(employee.Role),
	}, nil
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*TokenPairResponse, error) {
	employee, err := s.employeeRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(employee.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperr.Unauthorized("invalid email or password")
	}

	if employee.Status != model.EmployeeActive {
		return nil, apperr.Unauthorized("account is inactive")
	}

	return s.issueTokenPair(ctx, employee)
}

// Refresh rotates the refresh token: the presented token is revoked and a
// new pair is issued.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPairResponse, error) {
	stored, err := s.tokenRepo.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthorized("invalid refresh token")
		}
		return nil, fmt.Errorf("failed to load refresh token: %w", err)
	}

	if time.Now().After(stored.ExpiresAt) {
		_ = s.tokenRepo.Delete(ctx, refreshToken)
		return nil, apperr.Unauthorized("refresh token expired")
	}

	employee, err := s.employeeRepo.FindByID(ctx, stored.EmployeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthorized("employee no longer exists")
		}
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}

	if employee.Status != model.EmployeeActive {
		return nil, apperr.Unauthorized("account is inactive")
	}

	if err := s.tokenRepo.Delete(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return s.issueTokenPair(ctx, employee)
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.tokenRepo.Delete(ctx, refreshToken)
}
