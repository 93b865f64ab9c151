package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kavehm/workhub/internal/config"
	"github.com/kavehm/workhub/internal/middleware"
	"github.com/kavehm/workhub/internal/model"
	"github.com/kavehm/workhub/internal/repository"
)

// TenantUserHandler lets a tenant admin manage employee accounts inside
// the tenant's own store. It always operates on the connection the auth
// middleware resolved for the request, so it cannot touch another
// tenant's users.
type TenantUserHandler struct {
	Cfg config.Config
}

func NewTenantUserHandler(cfg config.Config) *TenantUserHandler {
	return &TenantUserHandler{Cfg: cfg}
}

type createEmployeeReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"` // USER | MANAGER | ADMIN
}

// Create registers an employee, enforcing the tenant's seat limit.
func (h *TenantUserHandler) Create(c echo.Context) error {
	var req createEmployeeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	switch role {
	case model.RoleUser, model.RoleManager, model.RoleAdmin:
	default:
		role = model.RoleUser
	}

	t, ok := middleware.CurrentTenant(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or missing token"})
	}
	users := repository.NewTenantUserRepo(middleware.TenantDB(c))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	seats, err := users.CountActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if t.MaxSeats > 0 && seats >= t.MaxSeats {
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat limit reached"})
	}

	id, err := users.Create(ctx, t.ID, req.Email, req.Password, role, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	return c.JSON(http.StatusCreated, principalPart{ID: id, Email: req.Email, Role: role})
}
