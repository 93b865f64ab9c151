package model

import "time"

// Customer is a business contact record in a tenant's store (`customers`
// table). Customers are plain CRUD data; the core only routes and
// authorizes access to them.
type Customer struct {
	ID        uint64    // customers.id
	Name      string    // customers.name
	Email     string    // customers.email
	Phone     string    // customers.phone
	Notes     string    // customers.notes
	CreatedAt time.Time // customers.created_at
	UpdatedAt time.Time // customers.updated_at
}
