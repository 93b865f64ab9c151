package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/kavehm/workhub/internal/model"
)

// CustomerRepo provides CRUD over the `customers` table of one tenant
// store. Constructed per request around the resolved tenant connection.
type CustomerRepo struct{ DB *sql.DB }

func NewCustomerRepo(db *sql.DB) *CustomerRepo { return &CustomerRepo{DB: db} }

// Create inserts a customer and returns its ID.
func (r *CustomerRepo) Create(ctx context.Context, name, email, phone, notes string) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO customers (name, email, phone, notes) VALUES (?,?,?,?)",
		name, email, phone, notes)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a customer by id.
func (r *CustomerRepo) GetByID(ctx context.Context, id uint64) (model.Customer, error) {
	var c model.Customer
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,email,phone,notes,created_at,updated_at FROM customers WHERE id=? LIMIT 1",
		id).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// List returns all customers ordered by name.
func (r *CustomerRepo) List(ctx context.Context) ([]model.Customer, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,name,email,phone,notes,created_at,updated_at FROM customers ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Customer
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Update rewrites the mutable fields of a customer.
func (r *CustomerRepo) Update(ctx context.Context, id uint64, name, email, phone, notes string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := r.DB.ExecContext(ctx,
		"UPDATE customers SET name=?, email=?, phone=?, notes=? WHERE id=?",
		name, email, phone, notes, id)
	return err
}

// Delete removes a customer.
func (r *CustomerRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM customers WHERE id=?", id)
	return err
}
