// Package ledger holds the quantity accounting of pre-order fulfillment.
// Everything here is pure: callers load the offers and persist the results.
package ledger

import (
	"github.com/shinyyama/harvest-market-backend/internal/model"
	"github.com/shopspring/decimal"
)

// Allocation is the split of one confirmed offer. Allocated + Surplus always
// equals the offered quantity.
type Allocation struct {
	Allocated decimal.Decimal
	Surplus   decimal.Decimal
}

// ConfirmedTotal sums fulfilled_qty of confirmed offers, capped at requested.
// The cap only affects what is reported; stored offers are left as they are.
func ConfirmedTotal(details []model.OrderDetail, requested decimal.Decimal) decimal.Decimal {
	return ConfirmedTotalExcluding(details, requested, 0)
}

// ConfirmedTotalExcluding is ConfirmedTotal ignoring the offer with excludeID.
func ConfirmedTotalExcluding(details []model.OrderDetail, requested decimal.Decimal, excludeID uint64) decimal.Decimal {
	total := decimal.Zero
	for _, d := range details {
		if d.OfferStatus != model.OfferStatusConfirmed {
			continue
		}
		if excludeID != 0 && d.ID == excludeID {
			continue
		}
		total = total.Add(d.FulfilledQty)
	}
	return decimal.Min(total, requested)
}

// Allocate gives an offer its claim on what is still unmet. Earlier
// confirmations win; whatever does not fit becomes surplus.
func Allocate(offered, alreadyConfirmed, requested decimal.Decimal) Allocation {
	remaining := decimal.Max(decimal.Zero, requested.Sub(alreadyConfirmed))
	allocated := decimal.Min(offered, remaining)
	surplus := decimal.Max(decimal.Zero, offered.Sub(allocated))
	return Allocation{Allocated: allocated, Surplus: surplus}
}

// Satisfied reports whether the pre-order needs nothing more.
func Satisfied(confirmed, requested decimal.Decimal) bool {
	return confirmed.GreaterThanOrEqual(requested)
}

// DeriveStatus maps a confirmed total onto the pre-order lifecycle.
func DeriveStatus(confirmedTotal, requested decimal.Decimal) model.PreOrderStatus {
	switch {
	case !confirmedTotal.IsPositive():
		return model.PreOrderStatusPending
	case confirmedTotal.LessThan(requested):
		return model.PreOrderStatusPartiallyFulfilled
	default:
		return model.PreOrderStatusFulfilled
	}
}
