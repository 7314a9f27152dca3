package auth

import (
	"errors"
	"testing"

	"donate-and-notify/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	svc := NewService("test-secret", string(hash))

	t.Run("good password issues verifiable token", func(t *testing.T) {
		token, err := svc.Login("correct horse")
		if err != nil {
			t.Fatalf("Login error: %v", err)
		}
		parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(*jwt.Token) (interface{}, error) {
			return []byte("test-secret"), nil
		})
		if err != nil || !parsed.Valid {
			t.Fatalf("token did not verify: %v", err)
		}
		claims := parsed.Claims.(*jwt.RegisteredClaims)
		if claims.Subject != "admin" {
			t.Errorf("Subject = %q; want admin", claims.Subject)
		}
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		if _, err := svc.Login("battery staple"); !errors.Is(err, models.ErrInvalidCredentials) {
			t.Errorf("Login error = %v; want ErrInvalidCredentials", err)
		}
	})

	t.Run("no hash configured rejects everything", func(t *testing.T) {
		disabled := NewService("test-secret", "")
		if _, err := disabled.Login("anything"); !errors.Is(err, models.ErrInvalidCredentials) {
			t.Errorf("Login error = %v; want ErrInvalidCredentials", err)
		}
	})
}
