package repository

import (
	"context"
	"database/sql"

	"github.com/kavehm/workhub/internal/model"
)

// ProjectRepo provides CRUD over the `projects` table of one tenant store.
type ProjectRepo struct{ DB *sql.DB }

func NewProjectRepo(db *sql.DB) *ProjectRepo { return &ProjectRepo{DB: db} }

// Create inserts a project and returns its ID. customerID of zero stores
// NULL (project not linked to a customer).
func (r *ProjectRepo) Create(ctx context.Context, customerID uint64, name, status string) (uint64, error) {
	var cust interface{}
	if customerID != 0 {
		cust = customerID
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO projects (customer_id, name, status) VALUES (?,?,?)",
		cust, name, status)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a project by id.
func (r *ProjectRepo) GetByID(ctx context.Context, id uint64) (model.Project, error) {
	var p model.Project
	var cust sql.NullInt64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,customer_id,name,status,created_at,updated_at FROM projects WHERE id=? LIMIT 1",
		id).Scan(&p.ID, &cust, &p.Name, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if cust.Valid {
		p.CustomerID = uint64(cust.Int64)
	}
	return p, err
}

// List returns all projects, newest first.
func (r *ProjectRepo) List(ctx context.Context) ([]model.Project, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,customer_id,name,status,created_at,updated_at FROM projects ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Project
	for rows.Next() {
		var p model.Project
		var cust sql.NullInt64
		if err := rows.Scan(&p.ID, &cust, &p.Name, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if cust.Valid {
			p.CustomerID = uint64(cust.Int64)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateStatus moves a project through its states.
func (r *ProjectRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE projects SET status=? WHERE id=?", status, id)
	return err
}

// Delete removes a project.
func (r *ProjectRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM projects WHERE id=?", id)
	return err
}
