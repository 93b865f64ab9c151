package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kavehm/workhub/internal/config"
	"github.com/kavehm/workhub/internal/model"
	"github.com/kavehm/workhub/internal/queue"
	"github.com/kavehm/workhub/internal/repository"
	"github.com/kavehm/workhub/internal/service"
)

// TenantAdminHandler serves the platform-domain tenant administration
// endpoints: provisioning, listing, updates, and deletion.
type TenantAdminHandler struct {
	Cfg     config.Config
	Tenants *repository.TenantRepo
}

func NewTenantAdminHandler(cfg config.Config, tenants *repository.TenantRepo) *TenantAdminHandler {
	if tenants == nil {
		panic("nil repository passed to NewTenantAdminHandler")
	}
	return &TenantAdminHandler{Cfg: cfg, Tenants: tenants}
}

// ----- DTOs -----

type createTenantReq struct {
	Name      string `json:"name"`
	Subdomain string `json:"subdomain"`
	StoreDSN  string `json:"store_dsn"`
	MaxSeats  int    `json:"max_seats"`
}

type updateTenantReq struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	MaxSeats int    `json:"max_seats"`
}

type tenantPart struct {
	ID                 uint64     `json:"id"`
	Name               string     `json:"name"`
	Subdomain          string     `json:"subdomain"`
	Status             string     `json:"status"`
	Plan               string     `json:"plan"`
	SubscriptionStatus string     `json:"subscription_status"`
	ExpiresAt          *time.Time `json:"subscription_expires_at,omitempty"`
	MaxSeats           int        `json:"max_seats"`
}

func toTenantPart(t model.Tenant) tenantPart {
	return tenantPart{
		ID:                 t.ID,
		Name:               t.Name,
		Subdomain:          t.Subdomain,
		Status:             t.Status,
		Plan:               t.Plan,
		SubscriptionStatus: t.SubscriptionStatus,
		ExpiresAt:          t.SubscriptionExpiresAt,
		MaxSeats:           t.MaxSeats,
	}
}

// List returns all tenants.
func (h *TenantAdminHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tenants, err := h.Tenants.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]tenantPart, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, toTenantPart(t))
	}
	return c.JSON(http.StatusOK, out)
}

// Create provisions a tenant with free-plan defaults and publishes a
// provisioning event for downstream automation.
func (h *TenantAdminHandler) Create(c echo.Context) error {
	var req createTenantReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Subdomain = strings.ToLower(strings.TrimSpace(req.Subdomain))
	if req.Name == "" || req.Subdomain == "" || req.StoreDSN == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/subdomain/store_dsn required"})
	}
	if req.MaxSeats <= 0 {
		req.MaxSeats = 5
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Tenants.Create(ctx, req.Name, req.Subdomain, req.StoreDSN, req.MaxSeats)
	if err != nil {
		if errors.Is(err, repository.ErrSubdomainExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "subdomain already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create tenant failed"})
	}

	// Best-effort event; provisioning already succeeded.
	_ = service.PublishTenantEvent(ctx, queue.TenantEvent{
		Type:       queue.EventTenantProvisioned,
		TenantID:   id,
		Subdomain:  req.Subdomain,
		Plan:       model.PlanFree,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})

	t, err := h.Tenants.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusCreated, toTenantPart(t))
}

// Get returns one tenant by id.
func (h *TenantAdminHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Tenants.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toTenantPart(t))
}

// Update changes a tenant's name, lifecycle status, or seat limit.
// Setting status to INACTIVE or SUSPENDED blocks that tenant's logins on
// the next request.
func (h *TenantAdminHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateTenantReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	switch status {
	case model.TenantStatusActive, model.TenantStatusInactive, model.TenantStatusSuspended:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}
	if req.Name == "" || req.MaxSeats <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/max_seats required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tenants.Update(ctx, id, req.Name, status, req.MaxSeats); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update tenant failed"})
	}
	t, err := h.Tenants.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toTenantPart(t))
}

// Delete removes a tenant record. Super-admin only, enforced at the route.
func (h *TenantAdminHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Tenants.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Tenants.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete tenant failed"})
	}

	_ = service.PublishTenantEvent(ctx, queue.TenantEvent{
		Type:       queue.EventTenantDeleted,
		TenantID:   t.ID,
		Subdomain:  t.Subdomain,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
	return c.NoContent(http.StatusNoContent)
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}
