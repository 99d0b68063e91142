package finance

import "github.com/shopspring/decimal"

// Tier is a coarse classification of a budget's utilization.
type Tier string

// Tiers, by increasing severity.
const (
	TierHealthy  Tier = "HEALTHY"
	TierWarning  Tier = "WARNING"
	TierCritical Tier = "CRITICAL"
	TierExceeded Tier = "EXCEEDED"
)

var (
	AllTiers = []Tier{TierHealthy, TierWarning, TierCritical, TierExceeded}

	// lower bounds (inclusive), checked from the most severe tier down
	exceededThreshold = decimal.NewFromInt(100)
	criticalThreshold = decimal.NewFromInt(90)
	warningThreshold  = decimal.NewFromInt(75)

	hundred = decimal.NewFromInt(100)
	half    = decimal.NewFromFloat(.5)
)

// Severity orders tiers: HEALTHY < WARNING < CRITICAL < EXCEEDED.
func (t Tier) Severity() int {
	switch t {
	case TierWarning:
		return 1
	case TierCritical:
		return 2
	case TierExceeded:
		return 3
	default:
		return 0
	}
}

func (t Tier) IsValid() bool {
	for _, tier := range AllTiers {
		if t == tier {
			return true
		}
	}
	return false
}

func tierOf(utilization decimal.Decimal) Tier {
	switch {
	case utilization.GreaterThanOrEqual(exceededThreshold):
		return TierExceeded
	case utilization.GreaterThanOrEqual(criticalThreshold):
		return TierCritical
	case utilization.GreaterThanOrEqual(warningThreshold):
		return TierWarning
	default:
		return TierHealthy
	}
}

// BudgetStatus is recomputed from the allocated and spent amounts on every read.
type BudgetStatus struct {
	Tier                  Tier            `json:"status"`
	UtilizationPercentage decimal.Decimal `json:"utilization_percentage"` // rounded to 2 places
	RemainingAmount       decimal.Decimal `json:"remaining_amount"`       // negative when overspent
	SpentAmount           decimal.Decimal `json:"spent_amount"`
}

// CalculateStatus classifies a budget line.
// A zero (or negative) allocation has a utilization of 0.
func CalculateStatus(allocated, spent decimal.Decimal) BudgetStatus {
	utilization := percentOf(spent, allocated)
	return BudgetStatus{
		Tier:                  tierOf(utilization),
		UtilizationPercentage: round2(utilization),
		RemainingAmount:       allocated.Sub(spent),
		SpentAmount:           spent,
	}
}

// percentOf returns part/whole*100, or 0 when whole <= 0.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

// round2 rounds half up on the hundredths digit (-12.345 -> -12.34).
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Shift(2).Add(half).Floor().Shift(-2)
}
