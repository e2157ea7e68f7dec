// Package leads provides the lead pipeline bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"context"

	"github.com/redis/go-redis/v9"

	"terratip_backend/internal/events"
	apphttp "terratip_backend/internal/http"
	"terratip_backend/internal/leads/cache"
	"terratip_backend/internal/leads/handler"
	"terratip_backend/internal/leads/repository"
	"terratip_backend/internal/leads/resolver"
	"terratip_backend/internal/leads/service"
	"terratip_backend/internal/store"
	"terratip_backend/platform/config"
	"terratip_backend/platform/logger"
	"terratip_backend/platform/validator"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the leads module with all its
// dependencies. rdb, archiver and agents may be nil; the module then runs
// without snapshot caching, import archiving or round-robin assignment.
func NewModule(
	st store.Store,
	rdb *redis.Client,
	bus events.Bus,
	val *validator.Validator,
	archiver service.Archiver,
	agents service.AgentDirectory,
	cfg config.LeadsConfig,
	log *logger.Logger,
) *Module {
	sheet := cfg.GetLeadSheetName()
	repo := repository.New(st, sheet)
	res := resolver.New(st, sheet, log)

	var snapshot *cache.Snapshot
	if rdb != nil {
		snapshot = cache.New(rdb, cfg.GetRefreshInterval())
	}

	svc := service.New(
		repo, res, snapshot, bus, archiver, agents,
		cfg.GetWhatsAppCountryCode(), cfg.GetRefreshInterval(), log,
	)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the lead service for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// EnsureSheet creates the lead sheet on first boot.
func (m *Module) EnsureSheet(ctx context.Context) error {
	return m.repo.EnsureSheet(ctx)
}

// RunRefresh keeps the lead snapshot cache warm until ctx is cancelled.
func (m *Module) RunRefresh(ctx context.Context) error {
	return m.service.RunRefresh(ctx)
}

// RegisterRoutes mounts lead routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// All lead routes require authentication.
	leadsGroup := ctx.Protected.Group("/leads")
	m.handler.RegisterRoutes(leadsGroup)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
