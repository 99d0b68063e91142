package finance

import (
	"testing"
	"time"
)

func TestCalculateVariance(t *testing.T) {
	tests := []struct {
		name           string
		allocated      string
		spent          string
		wantAmount     string
		wantPercentage string
		wantPositive   bool
	}{
		{name: "under budget", allocated: "1000", spent: "600", wantAmount: "400", wantPercentage: "40", wantPositive: true},
		{name: "on budget", allocated: "1000", spent: "1000", wantAmount: "0", wantPercentage: "0", wantPositive: true},
		{name: "over budget", allocated: "800", spent: "898.76", wantAmount: "-98.76", wantPercentage: "-12.34", wantPositive: false},
		{name: "zero allocation", allocated: "0", spent: "50", wantAmount: "-50", wantPercentage: "0", wantPositive: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateVariance(dec(tt.allocated), dec(tt.spent))
			if !got.Amount.Equal(dec(tt.wantAmount)) {
				t.Errorf("CalculateVariance().Amount = %v, want %v", got.Amount, tt.wantAmount)
			}
			if !got.Percentage.Equal(dec(tt.wantPercentage)) {
				t.Errorf("CalculateVariance().Percentage = %v, want %v", got.Percentage, tt.wantPercentage)
			}
			if got.IsPositive != tt.wantPositive {
				t.Errorf("CalculateVariance().IsPositive = %v, want %v", got.IsPositive, tt.wantPositive)
			}
		})
	}
}

func TestCalculateBurnRate(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		spent string
		end   time.Time
		want  string
	}{
		{name: "same instant", spent: "1000", end: start, want: "1000"},
		{name: "end before start", spent: "1000", end: start.Add(-48 * time.Hour), want: "1000"},
		{name: "partial day rounds up", spent: "1000", end: start.Add(36 * time.Hour), want: "500"},
		{name: "ten days", spent: "1000", end: start.AddDate(0, 0, 10), want: "100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateBurnRate(dec(tt.spent), start, tt.end); !got.Equal(dec(tt.want)) {
				t.Errorf("CalculateBurnRate() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("defaults to now", func(t *testing.T) {
		NowFunc = func() time.Time { return start.AddDate(0, 0, 4) }
		defer func() { NowFunc = time.Now }()

		if got := CalculateBurnRate(dec("1000"), start); !got.Equal(dec("250")) {
			t.Errorf("CalculateBurnRate() = %v, want 250", got)
		}
	})
}

func TestProjectDepletionDate(t *testing.T) {
	today := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	NowFunc = func() time.Time { return today }
	defer func() { NowFunc = time.Now }()

	tests := []struct {
		name      string
		remaining string
		burnRate  string
		want      *time.Time
	}{
		{name: "no spending", remaining: "500", burnRate: "0", want: nil},
		{name: "negative burn rate", remaining: "500", burnRate: "-1", want: nil},
		{name: "depleted", remaining: "0", burnRate: "10", want: nil},
		{name: "overspent", remaining: "-50", burnRate: "10", want: nil},
		{name: "floored days", remaining: "95", burnRate: "10", want: timePtr(today.AddDate(0, 0, 9))},
		{name: "less than a day left", remaining: "5", burnRate: "10", want: timePtr(today)},
		{name: "capped at a century", remaining: "36500", burnRate: "0.01", want: timePtr(today.AddDate(0, 0, 36500))},
		{name: "huge ratio", remaining: "1000000000000000000000000", burnRate: "0.000000001", want: timePtr(today.AddDate(0, 0, 36500))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProjectDepletionDate(dec(tt.remaining), dec(tt.burnRate))
			switch {
			case got == nil && tt.want == nil:
			case got == nil || tt.want == nil:
				t.Errorf("ProjectDepletionDate() = %v, want %v", got, tt.want)
			case !got.Equal(*tt.want):
				t.Errorf("ProjectDepletionDate() = %v, want %v", *got, *tt.want)
			}
		})
	}
}

func timePtr(t time.Time) *time.Time { return &t }
