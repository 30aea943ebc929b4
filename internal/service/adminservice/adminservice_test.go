package adminservice

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tarvale/coinledger/internal/config"
	"github.com/tarvale/coinledger/pkg/auth"
)

func newService(t *testing.T) *Service {
	hashService := &auth.HashService{}
	hash, err := hashService.HashPassword("s3cret")
	assert.NoError(t, err)

	cfg := &config.Config{
		AdminLogin:        "admin",
		AdminPasswordHash: hash,
		JWTSecret:         "test-secret",
	}
	return New(cfg, auth.NewJWTService(cfg.JWTSecret), hashService)
}

func TestLogin(t *testing.T) {
	service := newService(t)

	tests := []struct {
		name          string
		login         string
		password      string
		expectedError error
	}{
		{name: "Valid credentials", login: "admin", password: "s3cret"},
		{name: "Wrong password", login: "admin", password: "wrong", expectedError: ErrInvalidCredentials},
		{name: "Unknown login", login: "root", password: "s3cret", expectedError: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := service.Login(tt.login, tt.password)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, token)
				return
			}
			assert.NoError(t, err)

			claims, err := auth.NewJWTService("test-secret").ValidateToken(token)
			assert.NoError(t, err)
			assert.Equal(t, "admin", claims.Admin)
		})
	}
}
