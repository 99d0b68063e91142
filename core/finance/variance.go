package finance

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

type Variance struct {
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
	IsPositive bool            `json:"is_positive"` // on or under budget
}

func CalculateVariance(allocated, spent decimal.Decimal) Variance {
	amount := allocated.Sub(spent)
	return Variance{
		Amount:     amount,
		Percentage: round2(percentOf(amount, allocated)),
		IsPositive: !amount.IsNegative(),
	}
}

// CalculateBurnRate returns the average spend per day between start and end (default: now).
// The period is at least one day long.
func CalculateBurnRate(spent decimal.Decimal, start time.Time, end ...time.Time) decimal.Decimal {
	endDate := NowFunc()
	if len(end) > 0 {
		endDate = end[0]
	}
	days := int64(math.Ceil(endDate.Sub(start).Hours() / 24))
	if days < 1 {
		days = 1
	}
	return spent.Div(decimal.NewFromInt(days))
}

// projections are capped at a century
var maxDepletionDays = decimal.NewFromInt(100 * 365)

// ProjectDepletionDate returns when the remaining amount runs out at the given burn rate,
// or nil if the budget is already depleted or nothing is being spent.
func ProjectDepletionDate(remaining, burnRate decimal.Decimal) *time.Time {
	if !burnRate.IsPositive() || !remaining.IsPositive() {
		return nil
	}
	days := decimal.Min(remaining.Div(burnRate).Floor(), maxDepletionDays)
	date := NowFunc().AddDate(0, 0, int(days.IntPart()))
	return &date
}
