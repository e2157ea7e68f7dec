package http

import (
	"context"

	"terratip_backend/internal/events"
	"terratip_backend/platform/config"
	"terratip_backend/platform/logger"
)

// RouterConfig is the slice of configuration the router needs.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker backs the health endpoint; the database pool implements it.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is the assembled application, built in main and handed to the router.
type App struct {
	Config   RouterConfig
	Logger   *logger.Logger
	Health   HealthChecker
	EventBus events.Bus
	Modules  []Module
}
