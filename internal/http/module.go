// Package http defines the contract between the router and the domain
// modules that mount routes on it.
package http

import (
	"terratip_backend/platform/config"
	"terratip_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Module is a bounded context that owns a slice of the route tree. The
// router calls RegisterRoutes once per module at startup.
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext bundles the route groups and shared middleware a module
// can mount on.
type RouterContext struct {
	Engine *gin.Engine

	// V1 is /api/v1, unauthenticated.
	V1 *gin.RouterGroup
	// Protected is /api/v1 behind JWT auth.
	Protected *gin.RouterGroup
	// Admin is /api/v1/admin, restricted to managers.
	Admin *gin.RouterGroup

	Config          config.JWTConfig
	AuthMiddleware  gin.HandlerFunc
	AuthRateLimiter *httpkit.AuthRateLimiter
}
