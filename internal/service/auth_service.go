package service

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/storeplane/internal/domain"
	"github.com/yourorg/storeplane/internal/security/auth"
)

const tokenTTL = 24 * time.Hour

// AuthService handles operator registration and login.
type AuthService struct {
	operators domain.OperatorRepository
	tokens    *auth.TokenManager
	logger    *slog.Logger
}

func NewAuthService(operators domain.OperatorRepository, tokens *auth.TokenManager, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{operators: operators, tokens: tokens, logger: logger}
}

// RegisterResult represents registration response
type RegisterResult struct {
	OperatorID string `json:"operator_id"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	Token      string `json:"token"`
}

// LoginResult represents login response
type LoginResult struct {
	OperatorID string `json:"operator_id"`
	Email      string `json:"email"`
	Token      string `json:"token"`
	ExpiresIn  int    `json:"expires_in"` // seconds
	TokenType  string `json:"token_type"`
}

// Register creates a new operator account.
func (s *AuthService) Register(email, username, password string) (*RegisterResult, error) {
	if email == "" || password == "" || username == "" {
		return nil, errors.New("email, username, and password are required")
	}
	if len(password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}

	if existing, err := s.operators.GetByEmail(email); err == nil && existing != nil {
		return nil, errors.New("email already registered")
	}
	if existing, err := s.operators.GetByUsername(username); err == nil && existing != nil {
		return nil, errors.New("username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, errors.New("failed to register operator")
	}

	operator := &domain.Operator{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.operators.Create(operator); err != nil {
		s.logger.Error("failed to create operator", slog.String("error", err.Error()))
		return nil, errors.New("failed to register operator")
	}

	token, err := s.tokens.GenerateToken(operator.ID, operator.Email, tokenTTL)
	if err != nil {
		s.logger.Error("failed to generate token", slog.String("error", err.Error()))
		return nil, errors.New("failed to register operator")
	}

	return &RegisterResult{
		OperatorID: operator.ID,
		Email:      operator.Email,
		Username:   operator.Username,
		Token:      token,
	}, nil
}

// Login authenticates an operator and returns a JWT token.
func (s *AuthService) Login(email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}

	operator, err := s.operators.GetByEmail(email)
	if err != nil || operator == nil {
		// Same error for unknown email and bad password.
		return nil, errors.New("invalid credentials")
	}
	if !operator.IsActive {
		return nil, errors.New("account is disabled")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(operator.PasswordHash), []byte(password)); err != nil {
		return nil, errors.New("invalid credentials")
	}

	token, err := s.tokens.GenerateToken(operator.ID, operator.Email, tokenTTL)
	if err != nil {
		s.logger.Error("failed to generate token", slog.String("error", err.Error()))
		return nil, errors.New("failed to log in")
	}

	return &LoginResult{
		OperatorID: operator.ID,
		Email:      operator.Email,
		Token:      token,
		ExpiresIn:  int(tokenTTL.Seconds()),
		TokenType:  "Bearer",
	}, nil
}
