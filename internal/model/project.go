package model

import "time"

// Project statuses stored in `projects.status`.
const (
	ProjectStatusOpen     = "OPEN"
	ProjectStatusOnHold   = "ON_HOLD"
	ProjectStatusClosed   = "CLOSED"
	ProjectStatusArchived = "ARCHIVED"
)

// Project is a unit of work in a tenant's store (`projects` table),
// optionally linked to a customer.
type Project struct {
	ID         uint64    // projects.id
	CustomerID uint64    // projects.customer_id (0 when unlinked)
	Name       string    // projects.name
	Status     string    // projects.status
	CreatedAt  time.Time // projects.created_at
	UpdatedAt  time.Time // projects.updated_at
}
