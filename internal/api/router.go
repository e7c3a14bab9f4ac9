package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dmr/account-service/internal/api/handlers"
	"github.com/dmr/account-service/internal/api/middleware"
	"github.com/dmr/account-service/internal/config"
	"github.com/dmr/account-service/internal/repository"
	"github.com/dmr/account-service/internal/service"
)

func NewRouter(services *service.Services, repos *repository.Repositories, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth, cfg)
	sampleHandler := handlers.NewSampleHandler(repos.User, cfg)
	proxyHandler := handlers.NewProxyHandler(cfg.ProxyTimeout)

	r.Get("/", sampleHandler.Root)
	r.Get("/health", sampleHandler.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/", sampleHandler.Index)
		r.Get("/test", sampleHandler.Test)
		r.Post("/data", sampleHandler.Data)
		r.Get("/status", sampleHandler.Status)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)

			// Protected auth routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(services.Auth))
				r.Get("/profile", authHandler.Profile)
				r.Post("/logout", authHandler.Logout)
			})
		})
	})

	r.Route("/proxy", func(r chi.Router) {
		r.Get("/", proxyHandler.Index)
		r.Get("/external/{service}", proxyHandler.External)
		r.Post("/external/{service}", proxyHandler.External)
		r.Get("/jsonplaceholder/{endpoint}", proxyHandler.Named("jsonplaceholder"))
		r.Get("/httpbin/{endpoint}", proxyHandler.Named("httpbin"))
	})

	return r
}
