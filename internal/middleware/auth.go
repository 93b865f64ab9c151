// Package middleware provides request authentication and authorization.
// The platform and tenant identity domains share one verification shape,
// parameterized by cookie name, domain tag, principal loader and allowed
// role set; see platform_auth.go and tenant_auth.go for the two wirings.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/kavehm/workhub/internal/utils"
)

// Session cookie names, one per identity domain. A token is accepted from
// the Authorization header or from the domain's cookie.
const (
	CookiePlatformSession = "platform_session"
	CookieTenantSession   = "tenant_session"
)

// Rejection classes. Clients see deliberately coarse messages: the exact
// failed check is never leaked, so token problems, unknown-vs-suspended
// tenants, and missing-vs-mismatched principals are indistinguishable
// from outside.
var (
	errMissingToken     = errors.New("missing token")
	errInvalidToken     = errors.New("invalid token")
	errTenantGone       = errors.New("tenant not found or inactive")
	errBadPrincipal     = errors.New("invalid or inactive principal")
	errStoreUnavailable = errors.New("store unavailable")
)

// principalLoader resolves the principal for verified claims, attaches the
// request bundle to the context, and returns the principal's role. It
// reports failures using the rejection classes above.
type principalLoader func(c echo.Context, cl *utils.Claims) (role string, err error)

// requireAuth is the shared verification state machine:
// token extraction -> signature/expiry check -> domain check -> principal
// load -> role check. Every rejection is terminal for the request; nothing
// is retried here.
func requireAuth(secret, cookieName, domain string, allowed map[string]bool, load principalLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c, cookieName)
			if raw == "" {
				return reject(c, errMissingToken)
			}
			cl, err := utils.ParseSessionToken(secret, raw)
			if err != nil || cl.Domain != domain {
				return reject(c, errInvalidToken)
			}
			role, err := load(c, cl)
			if err != nil {
				return reject(c, err)
			}
			if !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			c.Set(ctxDomain, domain)
			c.Set(ctxRole, role)
			return next(c)
		}
	}
}

// bearerToken pulls the session token from the Authorization header,
// falling back to the domain cookie. Returns "" when neither is present.
func bearerToken(c echo.Context, cookieName string) string {
	auth := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if ck, err := c.Cookie(cookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	return ""
}

// reject maps a rejection class to the caller-visible outcome exactly
// once, at the boundary of the auth core. Authentication failures are
// 401s; only a store outage surfaces as 503, never as a 500.
func reject(c echo.Context, err error) error {
	switch {
	case errors.Is(err, errMissingToken), errors.Is(err, errInvalidToken):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or missing token"})
	case errors.Is(err, errTenantGone):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "tenant not found or inactive"})
	case errors.Is(err, errBadPrincipal):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or inactive user"})
	default:
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "service unavailable"})
	}
}

// roleSet builds the allowed-role lookup for an endpoint group.
func roleSet(roles []string) map[string]bool {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return allowed
}
