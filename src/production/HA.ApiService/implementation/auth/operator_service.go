package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	jwt "github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.ApiService/implementation/jwt"
	api_models "github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.Models/api"
)

// ErrInvalidCredentials is returned when a login attempt fails.
var ErrInvalidCredentials = errors.New("invalid username or password")

// OperatorService authenticates the provisioned operator account and issues
// tokens for it. Operator identity is deliberately a collaborator of the
// control endpoints, not part of the reconciliation core; any other identity
// provider could stand in behind the same token contract.
type OperatorService struct {
	username     string
	passwordHash []byte
	jwtService   *jwt.Service
}

// AdminConfig holds the provisioned operator credentials
type AdminConfig struct {
	Username string
	Password string
}

// NewOperatorService creates an operator service for the configured account.
// The plaintext password from configuration is hashed once here and discarded.
func NewOperatorService(cfg AdminConfig, jwtService *jwt.Service) (*OperatorService, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash operator password: %w", err)
	}

	return &OperatorService{
		username:     cfg.Username,
		passwordHash: hash,
		jwtService:   jwtService,
	}, nil
}

// Login validates the credentials and returns a token pair
func (s *OperatorService) Login(username, password string) (*api_models.TokenPair, error) {
	if username != s.username {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.jwtService.GenerateTokens(username)
}

// Refresh validates a refresh token and returns a fresh token pair
func (s *OperatorService) Refresh(refreshToken string) (*api_models.TokenPair, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, errors.New("invalid refresh token")
	}
	if claims.Username != s.username {
		return nil, errors.New("unknown operator")
	}

	return s.jwtService.GenerateTokens(claims.Username)
}
