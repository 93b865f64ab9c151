package billing

import "github.com/kavehm/workhub/internal/model"

// PriceTable maps paid plans to the provider's recurring price refs.
// The free plan has no entry: free tenants carry no provider subscription.
type PriceTable struct {
	Standard   string
	Enterprise string
}

// PriceRef returns the provider price ref for a paid plan. ok is false for
// the free plan and for unknown plan strings.
func (p PriceTable) PriceRef(plan string) (string, bool) {
	switch plan {
	case model.PlanStandard:
		return p.Standard, p.Standard != ""
	case model.PlanEnterprise:
		return p.Enterprise, p.Enterprise != ""
	}
	return "", false
}
