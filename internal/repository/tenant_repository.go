package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/kavehm/workhub/internal/model"
)

// TenantRepo persists tenant records in the platform store. It is the
// resolver for the authentication path: lookups read fresh state every
// call so a suspension takes effect on the very next request, and nothing
// here caches tenant metadata across requests.
type TenantRepo struct{ DB *sql.DB }

func NewTenantRepo(db *sql.DB) *TenantRepo { return &TenantRepo{DB: db} }

const tenantColumns = "id,name,subdomain,store_dsn,status,plan,subscription_status,subscription_expires_at,billing_customer_ref,billing_subscription_ref,max_seats,created_at,updated_at"

func scanTenant(row *sql.Row) (model.Tenant, error) {
	var t model.Tenant
	var custRef, subRef sql.NullString
	var expiry sql.NullTime
	err := row.Scan(&t.ID, &t.Name, &t.Subdomain, &t.StoreDSN, &t.Status,
		&t.Plan, &t.SubscriptionStatus, &expiry, &custRef, &subRef,
		&t.MaxSeats, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return model.Tenant{}, err
	}
	t.BillingCustomerRef = custRef.String
	t.BillingSubscriptionRef = subRef.String
	if expiry.Valid {
		e := expiry.Time
		t.SubscriptionExpiresAt = &e
	}
	return t, nil
}

// Create provisions a tenant with free-plan defaults and returns its ID.
func (r *TenantRepo) Create(ctx context.Context, name, subdomain, storeDSN string, maxSeats int) (uint64, error) {
	subdomain = strings.ToLower(strings.TrimSpace(subdomain))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO tenants (name, subdomain, store_dsn, status, plan, subscription_status, max_seats) VALUES (?,?,?,?,?,?,?)",
		name, subdomain, storeDSN, model.TenantStatusActive, model.PlanFree, model.SubscriptionActive, maxSeats)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrSubdomainExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetBySubdomain resolves the routing key to a tenant record.
func (r *TenantRepo) GetBySubdomain(ctx context.Context, subdomain string) (model.Tenant, error) {
	subdomain = strings.ToLower(strings.TrimSpace(subdomain))
	return scanTenant(r.DB.QueryRowContext(ctx,
		"SELECT "+tenantColumns+" FROM tenants WHERE subdomain=? LIMIT 1", subdomain))
}

// GetByID fetches a tenant by id.
func (r *TenantRepo) GetByID(ctx context.Context, id uint64) (model.Tenant, error) {
	return scanTenant(r.DB.QueryRowContext(ctx,
		"SELECT "+tenantColumns+" FROM tenants WHERE id=? LIMIT 1", id))
}

// List returns all tenants for administrative listing.
func (r *TenantRepo) List(ctx context.Context) ([]model.Tenant, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+tenantColumns+" FROM tenants ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Tenant
	for rows.Next() {
		var t model.Tenant
		var custRef, subRef sql.NullString
		var expiry sql.NullTime
		if err := rows.Scan(&t.ID, &t.Name, &t.Subdomain, &t.StoreDSN, &t.Status,
			&t.Plan, &t.SubscriptionStatus, &expiry, &custRef, &subRef,
			&t.MaxSeats, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		t.BillingCustomerRef = custRef.String
		t.BillingSubscriptionRef = subRef.String
		if expiry.Valid {
			e := expiry.Time
			t.SubscriptionExpiresAt = &e
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Update changes administrative fields of a tenant.
func (r *TenantRepo) Update(ctx context.Context, id uint64, name, status string, maxSeats int) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE tenants SET name=?, status=?, max_seats=? WHERE id=?",
		name, status, maxSeats, id)
	return err
}

// Delete removes a tenant record. The tenant's own store is decommissioned
// out of band.
func (r *TenantRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM tenants WHERE id=?", id)
	return err
}

// UpdateSubscription writes the subscription fields in one statement. The
// lifecycle manager calls this only after the external billing call has
// succeeded; empty refs and a nil expiry are stored as NULL.
func (r *TenantRepo) UpdateSubscription(ctx context.Context, id uint64, plan, status, custRef, subRef string, expiresAt *time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE tenants SET plan=?, subscription_status=?, billing_customer_ref=?, billing_subscription_ref=?, subscription_expires_at=? WHERE id=?",
		plan, status, nullString(custRef), nullString(subRef), nullTime(expiresAt), id)
	return err
}

// RequireActive gates authentication on tenant status. Any status other
// than ACTIVE fails identically so callers cannot distinguish suspension
// from deactivation.
func RequireActive(t model.Tenant) (model.Tenant, error) {
	if t.Status != model.TenantStatusActive {
		return model.Tenant{}, ErrTenantInactive
	}
	return t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
