package model

import "time"

// Tenant lifecycle statuses stored in `tenants.status`. Any status other
// than ACTIVE blocks tenant-scoped authentication.
const (
	TenantStatusActive    = "ACTIVE"
	TenantStatusInactive  = "INACTIVE"
	TenantStatusSuspended = "SUSPENDED"
)

// Subscription plans stored in `tenants.plan`.
const (
	PlanFree       = "FREE"
	PlanStandard   = "STANDARD"
	PlanEnterprise = "ENTERPRISE"
)

// Subscription statuses stored in `tenants.subscription_status`.
const (
	SubscriptionActive    = "ACTIVE"
	SubscriptionTrial     = "TRIAL"
	SubscriptionCancelled = "CANCELLED"
)

// Tenant represents a registered organization as stored in the platform
// database's `tenants` table. Each tenant owns a dedicated data store
// reached through the StoreDSN connection descriptor; business records for
// one tenant never live in another tenant's store.
//
// BillingCustomerRef and BillingSubscriptionRef hold the external billing
// provider's object identifiers. An empty string means no external object
// exists (stored as NULL).
type Tenant struct {
	ID                     uint64     // tenants.id
	Name                   string     // tenants.name
	Subdomain              string     // tenants.subdomain (routing key, unique)
	StoreDSN               string     // tenants.store_dsn (tenant database address)
	Status                 string     // tenants.status
	Plan                   string     // tenants.plan
	SubscriptionStatus     string     // tenants.subscription_status
	SubscriptionExpiresAt  *time.Time // tenants.subscription_expires_at (nullable)
	BillingCustomerRef     string     // tenants.billing_customer_ref (nullable)
	BillingSubscriptionRef string     // tenants.billing_subscription_ref (nullable)
	MaxSeats               int        // tenants.max_seats
	CreatedAt              time.Time  // tenants.created_at
	UpdatedAt              time.Time  // tenants.updated_at
}

// ValidPlan reports whether p is one of the closed set of plans.
func ValidPlan(p string) bool {
	switch p {
	case PlanFree, PlanStandard, PlanEnterprise:
		return true
	}
	return false
}
