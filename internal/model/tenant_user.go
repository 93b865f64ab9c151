package model

import "time"

// Tenant employee roles in increasing order of privilege. Gates are always
// supersets (manager-or-above, admin-only), never role-specific carve-outs.
const (
	RoleUser    = "USER"
	RoleManager = "MANAGER"
	RoleAdmin   = "ADMIN"
)

// TenantUser represents an employee account stored in a tenant's own
// database (`users` table of that store). TenantID records the owning
// tenant and must match the tenant resolved from the request's subdomain;
// a mismatch is an authentication failure.
type TenantUser struct {
	ID           uint64    // users.id (scoped to the tenant store)
	TenantID     uint64    // users.tenant_id (owning tenant)
	Email        string    // users.email (unique within the store)
	PasswordHash string    // users.password_hash (bcrypt)
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
