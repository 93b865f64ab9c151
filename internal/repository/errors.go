// Package repository implements data access over the platform store and
// per-tenant stores. Sentinel errors defined here let handlers map
// failure scenarios to HTTP responses without inspecting driver errors.
package repository

import "errors"

// ErrEmailExists is returned when an insert collides with the unique
// email index. Handlers translate it into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrSubdomainExists is returned when tenant provisioning collides with
// the unique subdomain index. Handlers translate it into HTTP 409.
var ErrSubdomainExists = errors.New("subdomain already exists")

// ErrTenantInactive is returned by RequireActive when a tenant exists but
// its status is anything other than ACTIVE. Inactive and suspended are
// deliberately indistinguishable to callers of the authentication path.
var ErrTenantInactive = errors.New("tenant inactive")
