package middleware

// identity.go defines the context keys and typed accessors for the
// per-request bundle attached after successful authorization. Handlers
// consume this bundle to scope their storage queries and must never reach
// a tenant store except through TenantDB.

import (
	"database/sql"

	"github.com/labstack/echo/v4"

	"github.com/kavehm/workhub/internal/model"
)

const (
	ctxPrincipalID = "principal_id"
	ctxRole        = "principal_role"
	ctxDomain      = "auth_domain"
	ctxTenant      = "current_tenant"
	ctxTenantDB    = "tenant_db"
)

// PrincipalID returns the authenticated principal's id, or zero when the
// request carries no authenticated identity.
func PrincipalID(c echo.Context) uint64 {
	if v, ok := c.Get(ctxPrincipalID).(uint64); ok {
		return v
	}
	return 0
}

// Role returns the authenticated principal's role, or "" when absent.
func Role(c echo.Context) string {
	if v, ok := c.Get(ctxRole).(string); ok {
		return v
	}
	return ""
}

// Domain returns the identity domain of the request ("platform" or
// "tenant"), or "" when unauthenticated.
func Domain(c echo.Context) string {
	if v, ok := c.Get(ctxDomain).(string); ok {
		return v
	}
	return ""
}

// CurrentTenant returns the tenant resolved for a tenant-domain request.
func CurrentTenant(c echo.Context) (model.Tenant, bool) {
	v, ok := c.Get(ctxTenant).(model.Tenant)
	return v, ok
}

// TenantDB returns the pooled connection to the resolved tenant's store.
// Only set on tenant-domain requests.
func TenantDB(c echo.Context) *sql.DB {
	if v, ok := c.Get(ctxTenantDB).(*sql.DB); ok {
		return v
	}
	return nil
}
