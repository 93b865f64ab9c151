// Package service implements the subscription lifecycle manager and the
// lifecycle event publisher.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kavehm/workhub/internal/billing"
	"github.com/kavehm/workhub/internal/model"
	"github.com/kavehm/workhub/internal/queue"
)

// ErrUnknownPlan is returned for a plan outside the closed set or a paid
// plan with no configured price.
var ErrUnknownPlan = errors.New("unknown or unpriced plan")

// tenantStore is the slice of the tenant repository the lifecycle manager
// needs. *repository.TenantRepo satisfies it; tests use an in-memory fake.
type tenantStore interface {
	GetByID(ctx context.Context, id uint64) (model.Tenant, error)
	UpdateSubscription(ctx context.Context, id uint64, plan, status, custRef, subRef string, expiresAt *time.Time) error
}

// SubscriptionService drives a tenant's subscription between the free
// and paid plans in coordination with the external billing provider. The ordering invariant on every transition: the
// external billing call happens first, and the local write happens only
// after it succeeds. On external failure local state is untouched.
//
// A crash after external success but before the local write leaves the
// provider ahead of the platform store. That gap is detected by comparing
// stored billing refs against the provider's live subscription list; the
// customer metadata tenant_id tag exists for exactly that reconciliation.
type SubscriptionService struct {
	Tenants tenantStore
	Billing billing.Provider
	Prices  billing.PriceTable

	// now and publishEvent are hooks for tests.
	now          func() time.Time
	publishEvent func(ctx context.Context, ev queue.TenantEvent) error
}

// NewSubscriptionService wires the lifecycle manager.
func NewSubscriptionService(tenants tenantStore, provider billing.Provider, prices billing.PriceTable) *SubscriptionService {
	return &SubscriptionService{
		Tenants:      tenants,
		Billing:      provider,
		Prices:       prices,
		now:          func() time.Time { return time.Now().UTC() },
		publishEvent: PublishTenantEvent,
	}
}

// Upgrade moves the tenant to plan. Downgrading to FREE cancels any live
// provider subscription first; moving to a paid plan ensures a billing
// customer exists, creates the provider subscription, and only then
// records the new plan locally with a 30-day expiry.
func (s *SubscriptionService) Upgrade(ctx context.Context, tenantID uint64, plan string) (model.Tenant, error) {
	t, err := s.Tenants.GetByID(ctx, tenantID)
	if err != nil {
		return model.Tenant{}, err
	}
	if !model.ValidPlan(plan) {
		return model.Tenant{}, ErrUnknownPlan
	}

	if plan == model.PlanFree {
		// Downgrade: cancel externally first, no-op when no provider
		// subscription exists.
		if t.BillingSubscriptionRef != "" {
			if _, err := s.Billing.CancelSubscription(ctx, t.BillingSubscriptionRef); err != nil {
				return model.Tenant{}, fmt.Errorf("cancel billing subscription: %w", err)
			}
		}
		if err := s.Tenants.UpdateSubscription(ctx, t.ID, model.PlanFree, model.SubscriptionActive, t.BillingCustomerRef, "", nil); err != nil {
			return model.Tenant{}, err
		}
		t.Plan = model.PlanFree
		t.SubscriptionStatus = model.SubscriptionActive
		t.BillingSubscriptionRef = ""
		t.SubscriptionExpiresAt = nil
		s.publish(ctx, queue.EventSubscriptionUpgraded, t)
		return t, nil
	}

	priceRef, ok := s.Prices.PriceRef(plan)
	if !ok {
		return model.Tenant{}, ErrUnknownPlan
	}

	custRef := t.BillingCustomerRef
	if custRef == "" {
		custRef, err = s.Billing.CreateCustomer(ctx, billingEmail(t), t.Name, map[string]string{
			"tenant_id": strconv.FormatUint(t.ID, 10),
		})
		if err != nil {
			return model.Tenant{}, fmt.Errorf("create billing customer: %w", err)
		}
	}

	// A plan change replaces the provider subscription; cancel the old
	// one first so it cannot keep billing alongside the new one. Both
	// external calls still precede the local write.
	if t.BillingSubscriptionRef != "" {
		if _, err := s.Billing.CancelSubscription(ctx, t.BillingSubscriptionRef); err != nil {
			return model.Tenant{}, fmt.Errorf("cancel billing subscription: %w", err)
		}
	}

	subRef, _, err := s.Billing.CreateSubscription(ctx, custRef, priceRef)
	if err != nil {
		return model.Tenant{}, fmt.Errorf("create billing subscription: %w", err)
	}

	expiry := s.now().Add(30 * 24 * time.Hour)
	if err := s.Tenants.UpdateSubscription(ctx, t.ID, plan, model.SubscriptionActive, custRef, subRef, &expiry); err != nil {
		return model.Tenant{}, err
	}
	t.Plan = plan
	t.SubscriptionStatus = model.SubscriptionActive
	t.BillingCustomerRef = custRef
	t.BillingSubscriptionRef = subRef
	t.SubscriptionExpiresAt = &expiry
	s.publish(ctx, queue.EventSubscriptionUpgraded, t)
	return t, nil
}

// Cancel ends the tenant's subscription. The external cancellation runs
// first; calling Cancel on an already-cancelled tenant skips the provider
// call entirely, so repeated cancels never hit the provider twice.
func (s *SubscriptionService) Cancel(ctx context.Context, tenantID uint64) (model.Tenant, error) {
	t, err := s.Tenants.GetByID(ctx, tenantID)
	if err != nil {
		return model.Tenant{}, err
	}

	if t.BillingSubscriptionRef != "" {
		if _, err := s.Billing.CancelSubscription(ctx, t.BillingSubscriptionRef); err != nil {
			return model.Tenant{}, fmt.Errorf("cancel billing subscription: %w", err)
		}
	}

	if err := s.Tenants.UpdateSubscription(ctx, t.ID, model.PlanFree, model.SubscriptionCancelled, t.BillingCustomerRef, "", nil); err != nil {
		return model.Tenant{}, err
	}
	t.Plan = model.PlanFree
	t.SubscriptionStatus = model.SubscriptionCancelled
	t.BillingSubscriptionRef = ""
	t.SubscriptionExpiresAt = nil
	s.publish(ctx, queue.EventSubscriptionCancelled, t)
	return t, nil
}

// Status is a pure projection of stored subscription fields; it makes no
// external call.
func (s *SubscriptionService) Status(ctx context.Context, tenantID uint64) (SubscriptionStatus, error) {
	t, err := s.Tenants.GetByID(ctx, tenantID)
	if err != nil {
		return SubscriptionStatus{}, err
	}
	return SubscriptionStatus{
		Plan:      t.Plan,
		Status:    t.SubscriptionStatus,
		ExpiresAt: t.SubscriptionExpiresAt,
		Billed:    t.BillingSubscriptionRef != "",
	}, nil
}

// SubscriptionStatus is the read projection returned by Status.
type SubscriptionStatus struct {
	Plan      string     `json:"plan"`
	Status    string     `json:"status"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Billed    bool       `json:"billed"`
}

// publish emits a lifecycle event; failures are logged inside the
// publisher and never fail the transition.
func (s *SubscriptionService) publish(ctx context.Context, typ string, t model.Tenant) {
	_ = s.publishEvent(ctx, queue.TenantEvent{
		Type:               typ,
		TenantID:           t.ID,
		Subdomain:          t.Subdomain,
		Plan:               t.Plan,
		SubscriptionStatus: t.SubscriptionStatus,
		BillingSubRef:      t.BillingSubscriptionRef,
		OccurredAt:         s.now().Format(time.RFC3339),
	})
}

// billingEmail derives the address the provider bills; tenants without a
// dedicated address use a subdomain-scoped alias.
func billingEmail(t model.Tenant) string {
	return "billing@" + t.Subdomain + ".workhub.app"
}
