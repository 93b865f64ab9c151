// Package queue defines message payloads exchanged over the message broker
// and the background consumer that records them.
package queue

// Lifecycle event types published to the tenant.events queue.
const (
	EventTenantProvisioned     = "tenant.provisioned"
	EventTenantDeleted         = "tenant.deleted"
	EventSubscriptionUpgraded  = "subscription.upgraded"
	EventSubscriptionCancelled = "subscription.cancelled"
)

// TenantEvent is published when a tenant is provisioned or deleted, or when
// its subscription changes. It carries enough for downstream consumers to
// log or trigger billing reconciliation without querying the platform
// database.
type TenantEvent struct {
	Type               string `json:"type"`
	TenantID           uint64 `json:"tenant_id"`
	Subdomain          string `json:"subdomain"`
	Plan               string `json:"plan,omitempty"`
	SubscriptionStatus string `json:"subscription_status,omitempty"`
	BillingSubRef      string `json:"billing_subscription_ref,omitempty"`
	OccurredAt         string `json:"occurred_at"`
}
