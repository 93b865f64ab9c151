package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kavehm/workhub/internal/billing"
	"github.com/kavehm/workhub/internal/model"
	"github.com/kavehm/workhub/internal/queue"
)

// fakeTenantStore keeps tenants in memory and records update calls.
type fakeTenantStore struct {
	tenants map[uint64]model.Tenant
	updates int
}

func (f *fakeTenantStore) GetByID(ctx context.Context, id uint64) (model.Tenant, error) {
	t, ok := f.tenants[id]
	if !ok {
		return model.Tenant{}, sql.ErrNoRows
	}
	return t, nil
}

func (f *fakeTenantStore) UpdateSubscription(ctx context.Context, id uint64, plan, status, custRef, subRef string, expiresAt *time.Time) error {
	t := f.tenants[id]
	t.Plan = plan
	t.SubscriptionStatus = status
	t.BillingCustomerRef = custRef
	t.BillingSubscriptionRef = subRef
	t.SubscriptionExpiresAt = expiresAt
	f.tenants[id] = t
	f.updates++
	return nil
}

// stubProvider records billing calls and returns canned refs.
type stubProvider struct {
	customers     int
	subscriptions int
	cancels       int
	lastPrice     string
	lastCancelRef string
	lastMetadata  map[string]string

	subErr    error
	cancelErr error
}

func (p *stubProvider) CreateCustomer(ctx context.Context, email, name string, metadata map[string]string) (string, error) {
	p.customers++
	p.lastMetadata = metadata
	return "cus_1", nil
}

func (p *stubProvider) CreateSubscription(ctx context.Context, customerRef, priceRef string) (string, string, error) {
	p.subscriptions++
	p.lastPrice = priceRef
	if p.subErr != nil {
		return "", "", p.subErr
	}
	return "sub_1", "active", nil
}

func (p *stubProvider) CancelSubscription(ctx context.Context, ref string) (string, error) {
	p.cancels++
	p.lastCancelRef = ref
	if p.cancelErr != nil {
		return "", p.cancelErr
	}
	return "canceled", nil
}

var testPrices = billing.PriceTable{Standard: "price_std", Enterprise: "price_ent"}

func newTestService(store *fakeTenantStore, provider *stubProvider, now time.Time) *SubscriptionService {
	s := NewSubscriptionService(store, provider, testPrices)
	s.now = func() time.Time { return now }
	s.publishEvent = func(ctx context.Context, ev queue.TenantEvent) error { return nil }
	return s
}

func freeTenant(id uint64) model.Tenant {
	return model.Tenant{
		ID:                 id,
		Name:               "Acme Inc",
		Subdomain:          "acme",
		Status:             model.TenantStatusActive,
		Plan:               model.PlanFree,
		SubscriptionStatus: model.SubscriptionActive,
	}
}

func TestUpgradeFreeToStandard(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeTenantStore{tenants: map[uint64]model.Tenant{1: freeTenant(1)}}
	provider := &stubProvider{}
	s := newTestService(store, provider, now)

	got, err := s.Upgrade(context.Background(), 1, model.PlanStandard)
	require.NoError(t, err)

	assert.Equal(t, 1, provider.customers)
	assert.Equal(t, 1, provider.subscriptions)
	assert.Equal(t, "price_std", provider.lastPrice)
	assert.Equal(t, map[string]string{"tenant_id": "1"}, provider.lastMetadata)

	assert.Equal(t, model.PlanStandard, got.Plan)
	assert.Equal(t, model.SubscriptionActive, got.SubscriptionStatus)
	assert.Equal(t, "cus_1", got.BillingCustomerRef)
	assert.Equal(t, "sub_1", got.BillingSubscriptionRef)
	require.NotNil(t, got.SubscriptionExpiresAt)
	assert.Equal(t, now.Add(30*24*time.Hour), *got.SubscriptionExpiresAt)

	// Local state persisted after the external success.
	assert.Equal(t, got.Plan, store.tenants[1].Plan)
	assert.Equal(t, "sub_1", store.tenants[1].BillingSubscriptionRef)
}

func TestUpgradeReusesExistingBillingCustomer(t *testing.T) {
	tenant := freeTenant(1)
	tenant.BillingCustomerRef = "cus_existing"
	store := &fakeTenantStore{tenants: map[uint64]model.Tenant{1: tenant}}
	provider := &stubProvider{}
	s := newTestService(store, provider, time.Now().UTC())

	got, err := s.Upgrade(context.Background(), 1, model.PlanEnterprise)
	require.NoError(t, err)

	assert.Zero(t, provider.customers, "existing customer must not be recreated")
	assert.Equal(t, "price_ent", provider.lastPrice)
	assert.Equal(t, "cus_existing", got.BillingCustomerRef)
}

func TestUpgradePlanChangeReplacesProviderSubscription(t *testing.T) {
	tenant := freeTenant(1)
	tenant.Plan = model.PlanStandard
	tenant.BillingCustomerRef = "cus_1"
	tenant.BillingSubscriptionRef = "sub_old"
	store := &fakeTenantStore{tenants: map[uint64]model.Tenant{1: tenant}}
	provider := &stubProvider{}
	s := newTestService(store, provider, time.Now().UTC())

	got, err := s.Upgrade(context.Background(), 1, model.PlanEnterprise)
	require.NoError(t, err)

	assert.Equal(t, 1, provider.cancels, "old provider subscription must be cancelled")
	assert.Equal(t, "sub_old", provider.lastCancelRef)
	assert.Equal(t, 1, provider.subscriptions)
	assert.Equal(t, "sub_1", got.BillingSubscriptionRef)
	assert.Equal(t, model.PlanEnterprise, got.Plan)
}

func TestUpgradeBillingFailureLeavesStateUntouched(t *testing.T) {
	before := freeTenant(1)
	store := &fakeTenantStore{tenants: map[uint64]model.Tenant{1: before}}
	provider := &stubProvider{subErr: errors.New("billing down")}
	s := newTestService(store, provider, time.Now().UTC())

	_, err := s.Upgrade(context.Background(), 1, model.PlanStandard)
	require.Error(t, err)

	assert.Zero(t, store.updates, "no local mutation on external failure")
	assert.Equal(t, before, store.tenants[1])
}

func TestUpgradeUnknownPlan(t *testing.T) {
	store := &fakeTenantStore{tenants: map[uint64]model.Tenant{1: freeTenant(1)}}
	s := newTestService(store, &stubProvider{}, time.Now().UTC())

	_, err := s.Upgrade(context.Background(), 1, "PLATINUM")
	assert.ErrorIs(t, err, ErrUnknownPlan)
	assert.Zero(t, store.updates)
}

func TestUpgradeToFreeCancelsExternalSubscription(t *testing.T) {
	tenant := freeTenant(1)
	tenant.Plan = model.PlanStandard
	tenant.BillingCustomerRef = "cus_1"
	tenant.BillingSubscriptionRef = "sub_1"
	store := &fakeTenantStore{tenants: map[uint64]model.Tenant{1: tenant}}
	provider := &stubProvider{}
	s := newTestService(store, provider, time.Now().UTC())

	got, err := s.Upgrade(context.Background(), 1, model.PlanFree)
	require.NoError(t, err)

	assert.Equal(t, 1, provider.cancels)
	assert.Equal(t, "sub_1", provider.lastCancelRef)
	assert.Equal(t, model.PlanFree, got.Plan)
	assert.Equal(t, model.SubscriptionActive, got.SubscriptionStatus)
	assert.Empty(t, got.BillingSubscriptionRef)
	assert.Nil(t, got.SubscriptionExpiresAt)
}

func TestCancelActiveSubscription(t *testing.T) {
	tenant := freeTenant(1)
	tenant.Plan = model.PlanStandard
	tenant.BillingCustomerRef = "cus_1"
	tenant.BillingSubscriptionRef = "sub_1"
	store := &fakeTenantStore{tenants: map[uint64]model.Tenant{1: tenant}}
	provider := &stubProvider{}
	s := newTestService(store, provider, time.Now().UTC())

	got, err := s.Cancel(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 1, provider.cancels)
	assert.Equal(t, "sub_1", provider.lastCancelRef)
	assert.Equal(t, model.PlanFree, got.Plan)
	assert.Equal(t, model.SubscriptionCancelled, got.SubscriptionStatus)
	assert.Empty(t, got.BillingSubscriptionRef)
	assert.Equal(t, "cus_1", got.BillingCustomerRef, "customer ref survives cancellation")
}

func TestCancelIsIdempotent(t *testing.T) {
	tenant := freeTenant(1)
	tenant.Plan = model.PlanStandard
	tenant.BillingSubscriptionRef = "sub_1"
	store := &fakeTenantStore{tenants: map[uint64]model.Tenant{1: tenant}}
	provider := &stubProvider{}
	s := newTestService(store, provider, time.Now().UTC())

	_, err := s.Cancel(context.Background(), 1)
	require.NoError(t, err)
	_, err = s.Cancel(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 1, provider.cancels, "second cancel must not hit the provider")
}

func TestCancelExternalFailureLeavesStateUntouched(t *testing.T) {
	tenant := freeTenant(1)
	tenant.Plan = model.PlanStandard
	tenant.BillingSubscriptionRef = "sub_1"
	store := &fakeTenantStore{tenants: map[uint64]model.Tenant{1: tenant}}
	provider := &stubProvider{cancelErr: errors.New("billing down")}
	s := newTestService(store, provider, time.Now().UTC())

	_, err := s.Cancel(context.Background(), 1)
	require.Error(t, err)
	assert.Zero(t, store.updates)
	assert.Equal(t, tenant, store.tenants[1])
}

func TestStatusIsPureProjection(t *testing.T) {
	expiry := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	tenant := freeTenant(1)
	tenant.Plan = model.PlanStandard
	tenant.BillingSubscriptionRef = "sub_1"
	tenant.SubscriptionExpiresAt = &expiry
	store := &fakeTenantStore{tenants: map[uint64]model.Tenant{1: tenant}}
	provider := &stubProvider{}
	s := newTestService(store, provider, time.Now().UTC())

	st, err := s.Status(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, model.PlanStandard, st.Plan)
	assert.True(t, st.Billed)
	assert.Equal(t, &expiry, st.ExpiresAt)
	assert.Zero(t, provider.customers+provider.subscriptions+provider.cancels, "status must make no external call")
}
