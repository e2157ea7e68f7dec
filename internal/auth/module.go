// Package auth provides the authentication bounded context module.
// This file defines the module that encapsulates all auth setup and route registration.
package auth

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"terratip_backend/internal/auth/handler"
	"terratip_backend/internal/auth/repository"
	"terratip_backend/internal/auth/service"
	apphttp "terratip_backend/internal/http"
	"terratip_backend/platform/config"
	"terratip_backend/platform/logger"
	"terratip_backend/platform/validator"
)

// Module is the auth bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the auth module with all its dependencies.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, cfg config.AuthServiceConfig, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// Service returns the auth service for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Directory returns the user directory other modules depend on.
func (m *Module) Directory() Directory {
	return m.service
}

// EnsureBootstrapManager creates the initial manager account on first boot.
func (m *Module) EnsureBootstrapManager(ctx context.Context) error {
	return m.service.EnsureBootstrapManager(ctx)
}

// RegisterRoutes mounts auth routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Login is rate limited harder than the rest of the API.
	authGroup := ctx.V1.Group("/auth")
	authGroup.Use(ctx.AuthRateLimiter.RateLimit())
	m.handler.RegisterPublicRoutes(authGroup)

	m.handler.RegisterProtectedRoutes(ctx.Protected)
	m.handler.RegisterAdminRoutes(ctx.Admin)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
