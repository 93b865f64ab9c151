package middleware

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kavehm/workhub/internal/model"
	"github.com/kavehm/workhub/internal/repository"
	"github.com/kavehm/workhub/internal/utils"
)

// TenantResolver maps the request's subdomain to a tenant record. Lookups
// must read current state; a suspended tenant is rejected on its next
// request. *repository.TenantRepo satisfies it.
type TenantResolver interface {
	GetBySubdomain(ctx context.Context, subdomain string) (model.Tenant, error)
}

// PoolRegistry hands out the pooled connection for a tenant store address.
// *database.Registry satisfies it.
type PoolRegistry interface {
	Get(addr string) (*sql.DB, error)
}

// TenantAuth guards tenant-domain routes. For each request it resolves
// the tenant from the subdomain, requires it active, cross-checks the
// token's tenant claim, obtains the tenant's pooled connection, loads the
// employee from that store, and verifies the employee's owning tenant.
// Either tenant-id mismatch is an authentication failure, not a 404, so
// cross-tenant existence never leaks.
func TenantAuth(secret string, tenants TenantResolver, pools PoolRegistry, roles ...string) echo.MiddlewareFunc {
	allowed := roleSet(roles)
	return requireAuth(secret, CookieTenantSession, utils.DomainTenant, allowed,
		func(c echo.Context, cl *utils.Claims) (string, error) {
			id, err := cl.PrincipalID()
			if err != nil {
				return "", errInvalidToken
			}
			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			t, err := tenants.GetBySubdomain(ctx, Subdomain(c))
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return "", errTenantGone
				}
				return "", errStoreUnavailable
			}
			if t, err = repository.RequireActive(t); err != nil {
				return "", errTenantGone
			}
			if cl.TenantID != t.ID {
				return "", errBadPrincipal
			}

			db, err := pools.Get(t.StoreDSN)
			if err != nil {
				return "", errStoreUnavailable
			}

			u, err := repository.NewTenantUserRepo(db).GetByID(ctx, id)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return "", errBadPrincipal
				}
				return "", errStoreUnavailable
			}
			if !u.IsActive {
				return "", errBadPrincipal
			}
			if u.TenantID != t.ID {
				return "", errBadPrincipal
			}

			c.Set(ctxPrincipalID, u.ID)
			c.Set(ctxTenant, t)
			c.Set(ctxTenantDB, db)
			return u.Role, nil
		})
}

// Subdomain extracts the tenant routing key: the :subdomain route param
// when present, otherwise the first label of the Host header.
func Subdomain(c echo.Context) string {
	if s := c.Param("subdomain"); s != "" {
		return strings.ToLower(s)
	}
	host := c.Request().Host
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	if i := strings.IndexByte(host, '.'); i >= 0 {
		return strings.ToLower(host[:i])
	}
	return ""
}
