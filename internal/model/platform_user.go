package model

import "time"

// Platform roles. The platform identity domain is independent from tenant
// employee roles; an operator account never appears in a tenant store.
const (
	RoleSuperAdmin   = "SUPER_ADMIN"
	RoleProductOwner = "PRODUCT_OWNER"
)

// PlatformUser represents an operator account in the platform database's
// `platform_users` table. Operators administer tenants and subscriptions;
// accounts are deactivated, never hard-deleted.
type PlatformUser struct {
	ID           uint64    // platform_users.id
	Email        string    // platform_users.email (unique)
	PasswordHash string    // platform_users.password_hash (bcrypt)
	Role         string    // platform_users.role
	IsActive     bool      // platform_users.is_active
	CreatedAt    time.Time // platform_users.created_at
	UpdatedAt    time.Time // platform_users.updated_at
}
