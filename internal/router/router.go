// Package router wires HTTP routes to handlers and attaches the auth and
// rate limit middleware. Role gates are supersets per domain: platform
// routes accept either operator role unless marked super-admin only, and
// tenant gates are user/manager-or-above/admin-only.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/kavehm/workhub/internal/handler"
	"github.com/kavehm/workhub/internal/middleware"
	"github.com/kavehm/workhub/internal/model"
)

// Deps bundles everything route registration needs.
type Deps struct {
	JWTSecret string

	Platform     middleware.PlatformPrincipals
	Tenants      middleware.TenantResolver
	Pools        middleware.PoolRegistry
	LoginLimiter echo.MiddlewareFunc

	PlatformAuth  *handler.PlatformAuthHandler
	TenantAuth    *handler.TenantAuthHandler
	TenantAdmin   *handler.TenantAdminHandler
	Subscriptions *handler.SubscriptionHandler
	TenantUsers   *handler.TenantUserHandler
	Customers     *handler.CustomerHandler
	Projects      *handler.ProjectHandler
}

// Register mounts every route on the Echo instance.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)

	// Platform domain. Login is unauthenticated but rate limited.
	e.POST("/v1/platform/auth/login", d.PlatformAuth.Login, d.LoginLimiter)

	// Endpoints open to both operator roles.
	ops := e.Group("/v1/platform")
	ops.Use(middleware.PlatformAuth(d.JWTSecret, d.Platform, model.RoleSuperAdmin, model.RoleProductOwner))
	ops.GET("/me", d.PlatformAuth.Me)
	ops.GET("/tenants", d.TenantAdmin.List)
	ops.POST("/tenants", d.TenantAdmin.Create)
	ops.GET("/tenants/:id", d.TenantAdmin.Get)
	ops.PATCH("/tenants/:id", d.TenantAdmin.Update)
	ops.GET("/tenants/:id/subscription", d.Subscriptions.Status)
	ops.POST("/tenants/:id/subscription", d.Subscriptions.Upgrade)
	ops.DELETE("/tenants/:id/subscription", d.Subscriptions.Cancel)

	// Super-admin-only endpoints: operator registration, tenant deletion.
	root := e.Group("/v1/platform")
	root.Use(middleware.PlatformAuth(d.JWTSecret, d.Platform, model.RoleSuperAdmin))
	root.POST("/users", d.PlatformAuth.Register)
	root.DELETE("/tenants/:id", d.TenantAdmin.Delete)

	// Tenant domain, scoped by subdomain. Login is unauthenticated but
	// rate limited per tenant.
	e.POST("/v1/t/:subdomain/auth/login", d.TenantAuth.Login, d.LoginLimiter)

	anyRole := e.Group("/v1/t/:subdomain")
	anyRole.Use(middleware.TenantAuth(d.JWTSecret, d.Tenants, d.Pools,
		model.RoleUser, model.RoleManager, model.RoleAdmin))
	anyRole.GET("/me", d.TenantAuth.Me)
	anyRole.GET("/customers", d.Customers.List)
	anyRole.GET("/customers/:id", d.Customers.Get)
	anyRole.GET("/projects", d.Projects.List)
	anyRole.GET("/projects/:id", d.Projects.Get)

	managerUp := e.Group("/v1/t/:subdomain")
	managerUp.Use(middleware.TenantAuth(d.JWTSecret, d.Tenants, d.Pools,
		model.RoleManager, model.RoleAdmin))
	managerUp.POST("/customers", d.Customers.Create)
	managerUp.PATCH("/customers/:id", d.Customers.Update)
	managerUp.POST("/projects", d.Projects.Create)
	managerUp.PATCH("/projects/:id", d.Projects.UpdateStatus)

	adminOnly := e.Group("/v1/t/:subdomain")
	adminOnly.Use(middleware.TenantAuth(d.JWTSecret, d.Tenants, d.Pools,
		model.RoleAdmin))
	adminOnly.POST("/users", d.TenantUsers.Create)
	adminOnly.DELETE("/customers/:id", d.Customers.Delete)
	adminOnly.DELETE("/projects/:id", d.Projects.Delete)
}
