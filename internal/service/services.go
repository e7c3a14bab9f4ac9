package service

import (
	"log/slog"

	"github.com/dmr/account-service/internal/auth"
	"github.com/dmr/account-service/internal/config"
	"github.com/dmr/account-service/internal/repository"
)

type Services struct {
	Auth *AuthService
}

func NewServices(repos *repository.Repositories, hasher *auth.PasswordHasher, cfg *config.Config, log *slog.Logger) *Services {
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTLifetime)
	return &Services{
		Auth: NewAuthService(repos.User, hasher, tokens, log),
	}
}
