package middleware

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kavehm/workhub/internal/model"
	"github.com/kavehm/workhub/internal/utils"
)

// PlatformPrincipals loads operator accounts from the platform store.
// *repository.PlatformUserRepo satisfies it.
type PlatformPrincipals interface {
	GetByID(ctx context.Context, id uint64) (model.PlatformUser, error)
}

// PlatformAuth guards platform-domain routes. It verifies the session
// token, loads the operator account fresh from the platform store, and
// requires the operator's role to be in the allowed set.
func PlatformAuth(secret string, users PlatformPrincipals, roles ...string) echo.MiddlewareFunc {
	allowed := roleSet(roles)
	return requireAuth(secret, CookiePlatformSession, utils.DomainPlatform, allowed,
		func(c echo.Context, cl *utils.Claims) (string, error) {
			id, err := cl.PrincipalID()
			if err != nil {
				return "", errInvalidToken
			}
			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			u, err := users.GetByID(ctx, id)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return "", errBadPrincipal
				}
				return "", errStoreUnavailable
			}
			if !u.IsActive {
				return "", errBadPrincipal
			}
			c.Set(ctxPrincipalID, u.ID)
			return u.Role, nil
		})
}
