package auth

import (
	"fmt"
	"time"

	"donate-and-notify/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

// Service guards the admin endpoints: a single operator password (stored as
// a bcrypt hash, see misc/hash-password) is exchanged for a short-lived JWT.
type Service struct {
	jwtSecret    []byte
	passwordHash []byte
}

func NewService(jwtSecret, passwordHash string) *Service {
	return &Service{
		jwtSecret:    []byte(jwtSecret),
		passwordHash: []byte(passwordHash),
	}
}

// Login checks the operator password and issues a signed token.
func (s *Service) Login(password string) (string, error) {
	if len(s.passwordHash) == 0 {
		// No hash configured means admin access is disabled outright.
		return "", models.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", models.ErrInvalidCredentials
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   "admin",
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("auth.Login: sign token: %w", err)
	}
	return signed, nil
}

// Middleware returns the echo middleware enforcing a valid admin token.
func (s *Service) Middleware() echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey: s.jwtSecret,
	})
}
