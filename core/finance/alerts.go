package finance

import (
	"fmt"
	"time"
)

var NowFunc = time.Now // mockable

type AlertType string

const (
	AlertCritical AlertType = "CRITICAL"
	AlertWarning  AlertType = "WARNING"
	AlertInfo     AlertType = "INFO"
)

type Alert struct {
	Type      AlertType `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// GenerateAlerts returns the alert matching the status' tier.
func GenerateAlerts(status BudgetStatus) []Alert {
	alert := Alert{Timestamp: NowFunc()}

	switch status.Tier {
	case TierExceeded:
		alert.Type = AlertCritical
		alert.Message = fmt.Sprintf("Budget exceeded by %s", status.RemainingAmount.Abs().StringFixed(2))
	case TierCritical:
		alert.Type = AlertCritical
		alert.Message = fmt.Sprintf(
			"Budget utilization at %s%% - immediate action required", status.UtilizationPercentage.StringFixed(1))
	case TierWarning:
		alert.Type = AlertWarning
		alert.Message = fmt.Sprintf(
			"Budget utilization at %s%% - monitor closely", status.UtilizationPercentage.StringFixed(1))
	default:
		alert.Type = AlertInfo
		alert.Message = fmt.Sprintf("Budget on track with %s remaining", status.RemainingAmount.StringFixed(2))
	}
	return []Alert{alert}
}

var recommendations = map[Tier][]string{
	TierExceeded: {
		"Freeze all non-essential spending in this category immediately",
		"Review recent expenses for errors or unauthorized charges",
		"Request a budget reallocation or supplementary funding",
	},
	TierCritical: {
		"Restrict new expenses to essential items only",
		"Review pending expenses before approving them",
		"Prepare a contingency plan for the rest of the period",
	},
	TierWarning: {
		"Monitor spending in this category closely",
		"Prioritize the remaining planned expenses",
	},
	TierHealthy: {
		"Budget is on track",
		"Continue regular monitoring of expenses",
	},
}

// Recommendations returns canned advice for the status' tier.
func Recommendations(status BudgetStatus) []string {
	recs, ok := recommendations[status.Tier]
	if !ok {
		recs = recommendations[TierHealthy]
	}
	return append([]string(nil), recs...)
}
