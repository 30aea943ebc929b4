package adminservice

import (
	"errors"
	"time"

	"github.com/tarvale/coinledger/internal/config"
	"github.com/tarvale/coinledger/pkg/auth"
	"go.uber.org/zap"
)

var ErrInvalidCredentials = errors.New("invalid login or password")

const tokenLifetime = 12 * time.Hour

// Service authenticates the single operator account configured at startup.
type Service struct {
	login        string
	passwordHash string
	jwtService   auth.JWTServiceInterface
	hashService  auth.HashServiceInterface
}

func New(cfg *config.Config, jwtService auth.JWTServiceInterface, hashService auth.HashServiceInterface) *Service {
	return &Service{
		login:        cfg.AdminLogin,
		passwordHash: cfg.AdminPasswordHash,
		jwtService:   jwtService,
		hashService:  hashService,
	}
}

func (s *Service) Login(login, password string) (string, error) {
	if login != s.login || !s.hashService.ComparePassword(s.passwordHash, password) {
		zap.L().Warn("admin login rejected", zap.String("login", login))
		return "", ErrInvalidCredentials
	}
	return s.jwtService.GenerateJWT(login, time.Now().Add(tokenLifetime))
}
