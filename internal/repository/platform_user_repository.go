package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/kavehm/workhub/internal/model"
	"github.com/kavehm/workhub/internal/utils"
)

// PlatformUserRepo persists operator accounts in the platform store.
type PlatformUserRepo struct{ DB *sql.DB }

func NewPlatformUserRepo(db *sql.DB) *PlatformUserRepo { return &PlatformUserRepo{DB: db} }

// Create hashes the password and inserts the operator, returning its ID.
func (r *PlatformUserRepo) Create(ctx context.Context, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO platform_users (email, password_hash, role) VALUES (?,?,?)",
		email, hash, role)
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

// GetByEmail fetches an operator by normalized email.
func (r *PlatformUserRepo) GetByEmail(ctx context.Context, email string) (model.PlatformUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.PlatformUser
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,role,is_active,created_at,updated_at FROM platform_users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByID fetches an operator by id.
func (r *PlatformUserRepo) GetByID(ctx context.Context, id uint64) (model.PlatformUser, error) {
	var u model.PlatformUser
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,role,is_active,created_at,updated_at FROM platform_users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// SetActive flips the active flag. Operators are deactivated, not deleted.
func (r *PlatformUserRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE platform_users SET is_active=? WHERE id=?", active, id)
	return err
}

// isDuplicateKey detects MySQL error 1062 without importing driver types.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
