package finance

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateAlerts(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	NowFunc = func() time.Time { return now }
	defer func() { NowFunc = time.Now }()

	tests := []struct {
		name        string
		status      BudgetStatus
		wantType    AlertType
		wantMessage string
	}{
		{
			name:        "exceeded",
			status:      CalculateStatus(dec("1000"), dec("1250.5")),
			wantType:    AlertCritical,
			wantMessage: "Budget exceeded by 250.50",
		},
		{
			name:        "critical",
			status:      CalculateStatus(dec("1000"), dec("950")),
			wantType:    AlertCritical,
			wantMessage: "Budget utilization at 95.0% - immediate action required",
		},
		{
			name:        "warning",
			status:      CalculateStatus(dec("1000"), dec("801.25")),
			wantType:    AlertWarning,
			wantMessage: "Budget utilization at 80.1% - monitor closely",
		},
		{
			name:        "healthy",
			status:      CalculateStatus(dec("1000"), dec("100")),
			wantType:    AlertInfo,
			wantMessage: "Budget on track with 900.00 remaining",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts := GenerateAlerts(tt.status)
			if len(alerts) != 1 {
				t.Fatalf("GenerateAlerts() returned %d alerts, want 1", len(alerts))
			}
			got := alerts[0]
			if got.Type != tt.wantType {
				t.Errorf("GenerateAlerts().Type = %v, want %v", got.Type, tt.wantType)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("GenerateAlerts().Message = %q, want %q", got.Message, tt.wantMessage)
			}
			if !got.Timestamp.Equal(now) {
				t.Errorf("GenerateAlerts().Timestamp = %v, want %v", got.Timestamp, now)
			}
		})
	}
}

func TestGenerateAlerts_criticalScenario(t *testing.T) {
	status := CalculateStatus(dec("1000"), dec("950"))
	if status.Tier != TierCritical || !status.UtilizationPercentage.Equal(dec("95.00")) || !status.RemainingAmount.Equal(dec("50")) {
		t.Fatalf("CalculateStatus(1000, 950) = %+v", status)
	}
	alerts := GenerateAlerts(status)
	if len(alerts) != 1 || alerts[0].Type != AlertCritical || !strings.Contains(alerts[0].Message, "95.0%") {
		t.Errorf("GenerateAlerts() = %+v, want a single CRITICAL alert mentioning 95.0%%", alerts)
	}
}

func TestRecommendations(t *testing.T) {
	for _, tier := range AllTiers {
		recs := Recommendations(BudgetStatus{Tier: tier})
		if len(recs) < 2 || len(recs) > 3 {
			t.Errorf("Recommendations(%v) returned %d items, want 2 or 3", tier, len(recs))
		}
	}

	// callers cannot alter the canned lists
	recs := Recommendations(BudgetStatus{Tier: TierHealthy})
	recs[0] = "lol"
	if Recommendations(BudgetStatus{Tier: TierHealthy})[0] == "lol" {
		t.Error("Recommendations() returned a shared slice")
	}
}
