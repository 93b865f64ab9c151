package utils // package utils provides credential hashing and session token handling

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity domains carried in a session token. A platform token can never
// authenticate against tenant routes and vice versa.
const (
	DomainPlatform = "platform"
	DomainTenant   = "tenant"
)

// ErrInvalidToken is returned for every verification failure: bad
// signature, malformed token, wrong signing method, expired, or claims
// that do not parse. Callers get no detail about which check failed.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the signed claim set of a session token. Subject carries the
// principal id as a decimal string; TenantID is set only for tenant-domain
// tokens. The claim set is bearer-capability: possession of a validly
// signed, unexpired token is authentication, and revocation is not
// tracked server-side.
type Claims struct {
	Domain   string `json:"dom"`
	Role     string `json:"role"`
	TenantID uint64 `json:"tenant_id,omitempty"`
	jwt.RegisteredClaims
}

// PrincipalID parses the subject claim into a numeric principal id.
func (c *Claims) PrincipalID() (uint64, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// SessionToken is a signed session token together with its expiry, sent to
// the client in the login response.
type SessionToken struct {
	Token string    `json:"token"`
	Exp   time.Time `json:"expires"`
}

// NewSessionToken builds and signs an HS256 session token for a principal.
// domain selects the identity space, tenantID is zero for platform tokens.
func NewSessionToken(secret, domain string, principalID uint64, role string, tenantID uint64, ttl time.Duration) (SessionToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		Domain:   domain,
		Role:     role,
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(principalID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, Exp: exp}, nil
}

// ParseSessionToken verifies signature and expiry and returns the claims.
// Any failure, including a non-HMAC signing method smuggled into the
// header, is reported as ErrInvalidToken.
func ParseSessionToken(secret, raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Domain != DomainPlatform && claims.Domain != DomainTenant {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
