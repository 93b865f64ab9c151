package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/kavehm/workhub/internal/service"
)

// SubscriptionHandler exposes the subscription lifecycle endpoints on the
// platform API. The heavy lifting, including the external-before-local
// ordering, lives in the service.
type SubscriptionHandler struct {
	Svc *service.SubscriptionService
}

func NewSubscriptionHandler(svc *service.SubscriptionService) *SubscriptionHandler {
	if svc == nil {
		panic("nil service passed to NewSubscriptionHandler")
	}
	return &SubscriptionHandler{Svc: svc}
}

type upgradeReq struct {
	Plan string `json:"plan"`
}

// Upgrade moves the tenant to the requested plan.
func (h *SubscriptionHandler) Upgrade(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req upgradeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	t, err := h.Svc.Upgrade(c.Request().Context(), id, strings.ToUpper(strings.TrimSpace(req.Plan)))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		case errors.Is(err, service.ErrUnknownPlan):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown plan"})
		default:
			// Billing or store failure; local state is untouched.
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "subscription change failed"})
		}
	}
	return c.JSON(http.StatusOK, toTenantPart(t))
}

// Cancel ends the tenant's subscription. Cancelling an already-cancelled
// tenant succeeds without contacting the billing provider again.
func (h *SubscriptionHandler) Cancel(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	t, err := h.Svc.Cancel(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		}
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "subscription change failed"})
	}
	return c.JSON(http.StatusOK, toTenantPart(t))
}

// Status reports the stored subscription fields without touching the
// billing provider.
func (h *SubscriptionHandler) Status(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	st, err := h.Svc.Status(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, st)
}
