package services

import (
	"errors"
	"fmt"
	"time"

	"retail_pos_backend/internal/models"
	"retail_pos_backend/internal/repositories"
	"retail_pos_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// LoginResponse carries the issued token and the operator it identifies.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *models.User `json:"user"`
}

// AuthService authenticates operators. Deliberately thin: the POS only needs
// an authenticated operator identity for checkout attribution, not a full
// session subsystem.
type AuthService interface {
	Login(creds models.Credentials) (*LoginResponse, error)
	GetUserByID(id int64) (*models.User, error)
}

type authService struct {
	userRepo  repositories.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(ur repositories.UserRepository, jwtSecret string, tokenTTL time.Duration) AuthService {
	return &authService{
		userRepo:  ur,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

func (s *authService) Login(creds models.Credentials) (*LoginResponse, error) {
	user, err := s.userRepo.GetUserByUsername(creds.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	expiresAt := time.Now().Add(s.tokenTTL)
	token, err := utils.GenerateAccessToken(s.jwtSecret, user.ID, user.Username, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	return &LoginResponse{AccessToken: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *authService) GetUserByID(id int64) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
