// Package billing wraps the external billing provider behind a narrow
// interface. Calls are network RPCs with their own failure modes; callers
// treat any error, including a timeout, as failure and never retry
// mutations internally.
package billing

import "context"

// Provider is the contract the subscription lifecycle manager depends on.
// Implementations must honor ctx deadlines on every call.
type Provider interface {
	// CreateCustomer registers a billing customer and returns its ref.
	// metadata is attached verbatim and is used to tag customers with
	// the owning tenant id for reconciliation.
	CreateCustomer(ctx context.Context, email, name string, metadata map[string]string) (string, error)

	// CreateSubscription starts a recurring subscription on the given
	// price and returns the subscription ref and provider-side status.
	CreateSubscription(ctx context.Context, customerRef, priceRef string) (ref string, status string, err error)

	// CancelSubscription cancels an existing subscription and returns
	// the provider-side status.
	CancelSubscription(ctx context.Context, ref string) (status string, err error)
}
