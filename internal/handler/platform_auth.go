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
	"github.com/kavehm/workhub/internal/middleware"
	"github.com/kavehm/workhub/internal/model"
	"github.com/kavehm/workhub/internal/repository"
	"github.com/kavehm/workhub/internal/utils"
)

// PlatformAuthHandler serves operator login and account management in the
// platform identity domain.
type PlatformAuthHandler struct {
	Cfg   config.Config
	Users *repository.PlatformUserRepo
}

func NewPlatformAuthHandler(cfg config.Config, users *repository.PlatformUserRepo) *PlatformAuthHandler {
	if users == nil {
		panic("nil repository passed to NewPlatformAuthHandler")
	}
	return &PlatformAuthHandler{Cfg: cfg, Users: users}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerOperatorReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"` // SUPER_ADMIN | PRODUCT_OWNER
}

type principalPart struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type sessionResp struct {
	User    principalPart      `json:"user"`
	Session utils.SessionToken `json:"session"`
}

// Login verifies operator credentials and issues a platform-domain
// session token. Unknown email and wrong password answer identically.
func (h *PlatformAuthHandler) Login(c echo.Context) error {
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

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	ttl := time.Duration(h.Cfg.SessionTTLMin) * time.Minute
	tok, err := utils.NewSessionToken(h.Cfg.JWTSecret, utils.DomainPlatform, u.ID, u.Role, 0, ttl)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}

	return c.JSON(http.StatusOK, sessionResp{
		User:    principalPart{ID: u.ID, Email: u.Email, Role: u.Role},
		Session: tok,
	})
}

// Register creates a new operator account. The route is gated super-admin
// only; the role itself is validated here.
func (h *PlatformAuthHandler) Register(c echo.Context) error {
	var req registerOperatorReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if role != model.RoleSuperAdmin && role != model.RoleProductOwner {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Users.Create(ctx, req.Email, req.Password, role, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	return c.JSON(http.StatusCreated, principalPart{ID: id, Email: req.Email, Role: role})
}

// Me returns the authenticated operator's account.
func (h *PlatformAuthHandler) Me(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, middleware.PrincipalID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, principalPart{ID: u.ID, Email: u.Email, Role: u.Role})
}
