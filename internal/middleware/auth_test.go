package middleware

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kavehm/workhub/internal/model"
	"github.com/kavehm/workhub/internal/utils"
)

const testSecret = "middleware-test-secret"

// ----- stubs -----

type stubPrincipals struct {
	user model.PlatformUser
	err  error
}

func (s stubPrincipals) GetByID(ctx context.Context, id uint64) (model.PlatformUser, error) {
	if s.err != nil {
		return model.PlatformUser{}, s.err
	}
	return s.user, nil
}

type stubResolver struct {
	tenant model.Tenant
	err    error
}

func (s stubResolver) GetBySubdomain(ctx context.Context, subdomain string) (model.Tenant, error) {
	if s.err != nil {
		return model.Tenant{}, s.err
	}
	return s.tenant, nil
}

type stubPools struct {
	db  *sql.DB
	err error
}

func (s stubPools) Get(addr string) (*sql.DB, error) { return s.db, s.err }

// run sends a request through the middleware wrapping a probe handler and
// returns the recorder plus whether the handler ran.
func run(t *testing.T, mw echo.MiddlewareFunc, mutate func(req *http.Request), params map[string]string) (*httptest.ResponseRecorder, bool, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for k, v := range params {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}

	called := false
	h := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec, called, c
}

func platformToken(t *testing.T, id uint64, role string) string {
	t.Helper()
	tok, err := utils.NewSessionToken(testSecret, utils.DomainPlatform, id, role, 0, time.Hour)
	require.NoError(t, err)
	return tok.Token
}

func tenantToken(t *testing.T, id uint64, role string, tenantID uint64) string {
	t.Helper()
	tok, err := utils.NewSessionToken(testSecret, utils.DomainTenant, id, role, tenantID, time.Hour)
	require.NoError(t, err)
	return tok.Token
}

func bearer(token string) func(*http.Request) {
	return func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+token) }
}

// ----- platform domain -----

func TestPlatformAuthAuthorized(t *testing.T) {
	users := stubPrincipals{user: model.PlatformUser{ID: 9, Role: model.RoleSuperAdmin, IsActive: true}}
	mw := PlatformAuth(testSecret, users, model.RoleSuperAdmin, model.RoleProductOwner)

	rec, called, c := run(t, mw, bearer(platformToken(t, 9, model.RoleSuperAdmin)), nil)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(9), PrincipalID(c))
	assert.Equal(t, model.RoleSuperAdmin, Role(c))
	assert.Equal(t, utils.DomainPlatform, Domain(c))
}

func TestPlatformAuthMissingToken(t *testing.T) {
	mw := PlatformAuth(testSecret, stubPrincipals{}, model.RoleSuperAdmin)

	rec, called, _ := run(t, mw, nil, nil)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or missing token")
}

func TestPlatformAuthTamperedToken(t *testing.T) {
	mw := PlatformAuth(testSecret, stubPrincipals{}, model.RoleSuperAdmin)
	raw := platformToken(t, 9, model.RoleSuperAdmin)
	raw = raw[:len(raw)-2] + "xx"

	rec, called, _ := run(t, mw, bearer(raw), nil)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPlatformAuthTenantTokenRejected(t *testing.T) {
	// A tenant-domain token must never authenticate platform routes.
	mw := PlatformAuth(testSecret, stubPrincipals{}, model.RoleSuperAdmin)

	rec, called, _ := run(t, mw, bearer(tenantToken(t, 9, model.RoleAdmin, 3)), nil)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPlatformAuthInactivePrincipal(t *testing.T) {
	users := stubPrincipals{user: model.PlatformUser{ID: 9, Role: model.RoleSuperAdmin, IsActive: false}}
	mw := PlatformAuth(testSecret, users, model.RoleSuperAdmin)

	rec, called, _ := run(t, mw, bearer(platformToken(t, 9, model.RoleSuperAdmin)), nil)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or inactive user")
}

func TestPlatformAuthMissingPrincipal(t *testing.T) {
	mw := PlatformAuth(testSecret, stubPrincipals{err: sql.ErrNoRows}, model.RoleSuperAdmin)

	rec, called, _ := run(t, mw, bearer(platformToken(t, 9, model.RoleSuperAdmin)), nil)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or inactive user")
}

func TestPlatformAuthInsufficientRole(t *testing.T) {
	users := stubPrincipals{user: model.PlatformUser{ID: 9, Role: model.RoleProductOwner, IsActive: true}}
	mw := PlatformAuth(testSecret, users, model.RoleSuperAdmin)

	rec, called, _ := run(t, mw, bearer(platformToken(t, 9, model.RoleProductOwner)), nil)

	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, rec.Code, "identity established, so this is authorization not authentication")
}

func TestPlatformAuthStoreUnavailable(t *testing.T) {
	mw := PlatformAuth(testSecret, stubPrincipals{err: errors.New("dial tcp: refused")}, model.RoleSuperAdmin)

	rec, called, _ := run(t, mw, bearer(platformToken(t, 9, model.RoleSuperAdmin)), nil)

	assert.False(t, called)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// ----- tenant domain -----

func activeTenant(id uint64, subdomain string) model.Tenant {
	return model.Tenant{ID: id, Subdomain: subdomain, StoreDSN: "dsn-" + subdomain, Status: model.TenantStatusActive}
}

const tenantUserQuery = "SELECT id,tenant_id,email,password_hash,role,is_active,created_at,updated_at FROM users WHERE id=? LIMIT 1"

func tenantUserRows(u model.TenantUser) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "tenant_id", "email", "password_hash", "role", "is_active", "created_at", "updated_at"}).
		AddRow(u.ID, u.TenantID, u.Email, u.PasswordHash, u.Role, u.IsActive, time.Now(), time.Now())
}

func TestTenantAuthAuthorized(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery(regexp.QuoteMeta(tenantUserQuery)).
		WithArgs(4).
		WillReturnRows(tenantUserRows(model.TenantUser{ID: 4, TenantID: 7, Email: "e@acme.test", Role: model.RoleManager, IsActive: true}))

	tenant := activeTenant(7, "acme")
	mw := TenantAuth(testSecret, stubResolver{tenant: tenant}, stubPools{db: db},
		model.RoleManager, model.RoleAdmin)

	rec, called, c := run(t, mw, bearer(tenantToken(t, 4, model.RoleManager, 7)),
		map[string]string{"subdomain": "acme"})

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(4), PrincipalID(c))
	got, ok := CurrentTenant(c)
	require.True(t, ok)
	assert.Equal(t, tenant.ID, got.ID)
	assert.Same(t, db, TenantDB(c))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTenantAuthTenantMismatch(t *testing.T) {
	// Token for tenant 5 arriving at the subdomain of tenant 7.
	mw := TenantAuth(testSecret, stubResolver{tenant: activeTenant(7, "acme")}, stubPools{},
		model.RoleUser, model.RoleManager, model.RoleAdmin)

	rec, called, _ := run(t, mw, bearer(tenantToken(t, 4, model.RoleAdmin, 5)),
		map[string]string{"subdomain": "acme"})

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or inactive user")
}

func TestTenantAuthPrincipalOwnedByOtherTenant(t *testing.T) {
	// The loaded employee record claims a different owning tenant than
	// the one resolved from the subdomain.
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery(regexp.QuoteMeta(tenantUserQuery)).
		WithArgs(4).
		WillReturnRows(tenantUserRows(model.TenantUser{ID: 4, TenantID: 5, Role: model.RoleAdmin, IsActive: true}))

	mw := TenantAuth(testSecret, stubResolver{tenant: activeTenant(7, "acme")}, stubPools{db: db},
		model.RoleAdmin)

	rec, called, _ := run(t, mw, bearer(tenantToken(t, 4, model.RoleAdmin, 7)),
		map[string]string{"subdomain": "acme"})

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or inactive user")
}

func TestTenantAuthUnknownTenant(t *testing.T) {
	mw := TenantAuth(testSecret, stubResolver{err: sql.ErrNoRows}, stubPools{}, model.RoleUser)

	rec, called, _ := run(t, mw, bearer(tenantToken(t, 4, model.RoleUser, 7)),
		map[string]string{"subdomain": "ghost"})

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "tenant not found or inactive")
}

func TestTenantAuthSuspendedTenant(t *testing.T) {
	tenant := activeTenant(7, "acme")
	tenant.Status = model.TenantStatusSuspended
	mw := TenantAuth(testSecret, stubResolver{tenant: tenant}, stubPools{}, model.RoleUser)

	rec, called, _ := run(t, mw, bearer(tenantToken(t, 4, model.RoleUser, 7)),
		map[string]string{"subdomain": "acme"})

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	// Suspended answers exactly like unknown so existence never leaks.
	assert.Contains(t, rec.Body.String(), "tenant not found or inactive")
}

func TestTenantAuthPoolFailure(t *testing.T) {
	mw := TenantAuth(testSecret, stubResolver{tenant: activeTenant(7, "acme")},
		stubPools{err: errors.New("store unreachable")}, model.RoleUser)

	rec, called, _ := run(t, mw, bearer(tenantToken(t, 4, model.RoleUser, 7)),
		map[string]string{"subdomain": "acme"})

	assert.False(t, called)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTenantAuthInsufficientRole(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery(regexp.QuoteMeta(tenantUserQuery)).
		WithArgs(4).
		WillReturnRows(tenantUserRows(model.TenantUser{ID: 4, TenantID: 7, Role: model.RoleUser, IsActive: true}))

	mw := TenantAuth(testSecret, stubResolver{tenant: activeTenant(7, "acme")}, stubPools{db: db},
		model.RoleManager, model.RoleAdmin)

	rec, called, _ := run(t, mw, bearer(tenantToken(t, 4, model.RoleUser, 7)),
		map[string]string{"subdomain": "acme"})

	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTenantAuthCookieFallback(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery(regexp.QuoteMeta(tenantUserQuery)).
		WithArgs(4).
		WillReturnRows(tenantUserRows(model.TenantUser{ID: 4, TenantID: 7, Role: model.RoleUser, IsActive: true}))

	mw := TenantAuth(testSecret, stubResolver{tenant: activeTenant(7, "acme")}, stubPools{db: db},
		model.RoleUser)
	token := tenantToken(t, 4, model.RoleUser, 7)

	rec, called, _ := run(t, mw, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: CookieTenantSession, Value: token})
	}, map[string]string{"subdomain": "acme"})

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSubdomainFromHost(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "Acme.workhub.app:8080"
	c := e.NewContext(req, httptest.NewRecorder())

	assert.Equal(t, "acme", Subdomain(c))
}
