package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/kavehm/workhub/internal/model"
	"github.com/kavehm/workhub/internal/utils"
)

// TenantUserRepo persists employee accounts inside one tenant's own store.
// Unlike the platform repos it is constructed per request around the
// pooled handle the registry resolved for that tenant, so a repo can never
// read another tenant's users.
type TenantUserRepo struct{ DB *sql.DB }

func NewTenantUserRepo(db *sql.DB) *TenantUserRepo { return &TenantUserRepo{DB: db} }

// Create hashes the password and inserts the employee, returning its ID.
// tenantID records the owning tenant inside the tenant store itself; the
// auth path cross-checks it against the tenant resolved from the request.
func (r *TenantUserRepo) Create(ctx context.Context, tenantID uint64, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (tenant_id, email, password_hash, role) VALUES (?,?,?,?)",
		tenantID, email, hash, role)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches an employee by normalized email.
func (r *TenantUserRepo) GetByEmail(ctx context.Context, email string) (model.TenantUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.TenantUser
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,tenant_id,email,password_hash,role,is_active,created_at,updated_at FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.TenantID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByID fetches an employee by id.
func (r *TenantUserRepo) GetByID(ctx context.Context, id uint64) (model.TenantUser, error) {
	var u model.TenantUser
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,tenant_id,email,password_hash,role,is_active,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.TenantID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// CountActive reports active seats for seat-limit enforcement.
func (r *TenantUserRepo) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE is_active=1").Scan(&n)
	return n, err
}
