package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kavehm/workhub/internal/config"
	"github.com/kavehm/workhub/internal/database"
	"github.com/kavehm/workhub/internal/middleware"
	"github.com/kavehm/workhub/internal/repository"
	"github.com/kavehm/workhub/internal/utils"
)

// TenantAuthHandler serves employee login in the tenant identity domain.
// Login resolves the tenant from the request subdomain, requires it
// active, and authenticates against that tenant's own store only.
type TenantAuthHandler struct {
	Cfg     config.Config
	Tenants *repository.TenantRepo
	Pools   *database.Registry
}

func NewTenantAuthHandler(cfg config.Config, tenants *repository.TenantRepo, pools *database.Registry) *TenantAuthHandler {
	if tenants == nil || pools == nil {
		panic("nil dependency passed to NewTenantAuthHandler")
	}
	return &TenantAuthHandler{Cfg: cfg, Tenants: tenants, Pools: pools}
}

// Login verifies employee credentials within the resolved tenant's store
// and issues a tenant-domain session token carrying the tenant id. An
// unknown tenant and a suspended tenant answer identically, as do an
// unknown email and a wrong password.
func (h *TenantAuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Tenants.GetBySubdomain(ctx, middleware.Subdomain(c))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "tenant not found or inactive"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if t, err = repository.RequireActive(t); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "tenant not found or inactive"})
	}

	db, err := h.Pools.Get(t.StoreDSN)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "service unavailable"})
	}

	u, err := repository.NewTenantUserRepo(db).GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !u.IsActive || u.TenantID != t.ID || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	ttl := time.Duration(h.Cfg.SessionTTLMin) * time.Minute
	tok, err := utils.NewSessionToken(h.Cfg.JWTSecret, utils.DomainTenant, u.ID, u.Role, t.ID, ttl)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}

	return c.JSON(http.StatusOK, sessionResp{
		User:    principalPart{ID: u.ID, Email: u.Email, Role: u.Role},
		Session: tok,
	})
}

// Me returns the authenticated employee's account from the resolved
// tenant connection in the request bundle.
func (h *TenantAuthHandler) Me(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := repository.NewTenantUserRepo(middleware.TenantDB(c)).GetByID(ctx, middleware.PrincipalID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, principalPart{ID: u.ID, Email: u.Email, Role: u.Role})
}
