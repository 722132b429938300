package ledger

import (
	"testing"

	"github.com/shinyyama/harvest-market-backend/internal/model"
	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestAllocate(t *testing.T) {
	tests := []struct {
		name          string
		offered       string
		already       string
		requested     string
		wantAllocated string
		wantSurplus   string
	}{
		{"fits entirely", "60", "0", "100", "60", "0"},
		{"split at remaining", "70", "60", "100", "40", "30"},
		{"already satisfied", "25", "100", "100", "0", "25"},
		{"over confirmed upstream", "10", "120", "100", "0", "10"},
		{"exact fill", "40", "60", "100", "40", "0"},
		{"fractional", "12.5", "90.25", "100", "9.75", "2.75"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Allocate(d(tt.offered), d(tt.already), d(tt.requested))
			if !got.Allocated.Equal(d(tt.wantAllocated)) {
				t.Fatalf("allocated=%s want=%s", got.Allocated, tt.wantAllocated)
			}
			if !got.Surplus.Equal(d(tt.wantSurplus)) {
				t.Fatalf("surplus=%s want=%s", got.Surplus, tt.wantSurplus)
			}
		})
	}
}

func TestConfirmedTotal(t *testing.T) {
	details := []model.OrderDetail{
		{ID: 1, FulfilledQty: d("60"), OfferStatus: model.OfferStatusConfirmed},
		{ID: 2, FulfilledQty: d("70"), OfferStatus: model.OfferStatusAccepted},
		{ID: 3, FulfilledQty: d("30"), OfferStatus: model.OfferStatusConfirmed},
		{ID: 4, FulfilledQty: d("99"), OfferStatus: model.OfferStatusRejected},
	}
	tests := []struct {
		name      string
		requested string
		exclude   uint64
		want      string
	}{
		{"sums confirmed only", "100", 0, "90"},
		{"capped at requested", "80", 0, "80"},
		{"excluding one offer", "100", 3, "60"},
		{"excluding non confirmed is a no-op", "100", 2, "90"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConfirmedTotalExcluding(details, d(tt.requested), tt.exclude)
			if !got.Equal(d(tt.want)) {
				t.Fatalf("got=%s want=%s", got, tt.want)
			}
		})
	}
	if got := ConfirmedTotal(nil, d("10")); !got.IsZero() {
		t.Fatalf("empty set total=%s want 0", got)
	}
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		confirmed string
		requested string
		want      model.PreOrderStatus
	}{
		{"0", "100", model.PreOrderStatusPending},
		{"60", "100", model.PreOrderStatusPartiallyFulfilled},
		{"100", "100", model.PreOrderStatusFulfilled},
		{"130", "100", model.PreOrderStatusFulfilled},
	}
	for _, tt := range tests {
		t.Run(tt.confirmed+"/"+tt.requested, func(t *testing.T) {
			if got := DeriveStatus(d(tt.confirmed), d(tt.requested)); got != tt.want {
				t.Fatalf("got=%s want=%s", got, tt.want)
			}
		})
	}
}

func drawQty(t *rapid.T, label string, min int64) decimal.Decimal {
	cents := rapid.Int64Range(min, 1_000_000).Draw(t, label)
	return decimal.New(cents, -2)
}

func TestProperty_AllocationConservesOfferedQuantity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		offered := drawQty(t, "offered", 1)
		already := drawQty(t, "already", 0)
		requested := drawQty(t, "requested", 1)

		a := Allocate(offered, already, requested)

		if !a.Allocated.Add(a.Surplus).Equal(offered) {
			t.Fatalf("allocated %s + surplus %s != offered %s", a.Allocated, a.Surplus, offered)
		}
		if a.Allocated.IsNegative() || a.Surplus.IsNegative() {
			t.Fatalf("negative split: %+v", a)
		}
		remaining := decimal.Max(decimal.Zero, requested.Sub(already))
		if a.Allocated.GreaterThan(remaining) {
			t.Fatalf("allocated %s exceeds remaining %s", a.Allocated, remaining)
		}
	})
}

func TestProperty_SequentialConfirmationsNeverExceedRequested(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		requested := drawQty(t, "requested", 1)
		n := rapid.IntRange(1, 8).Draw(t, "offers")

		var details []model.OrderDetail
		for i := 0; i < n; i++ {
			offered := drawQty(t, "offer", 1)
			already := ConfirmedTotal(details, requested)
			a := Allocate(offered, already, requested)
			details = append(details, model.OrderDetail{
				ID:           uint64(i + 1),
				FulfilledQty: a.Allocated,
				OfferStatus:  model.OfferStatusConfirmed,
			})
		}

		raw := decimal.Zero
		for _, det := range details {
			raw = raw.Add(det.FulfilledQty)
		}
		if raw.GreaterThan(requested) {
			t.Fatalf("sum of allocations %s exceeds requested %s", raw, requested)
		}
	})
}
