package finance

import (
	"fmt"

	"github.com/trezcool/shule/core"
)

const budgetAlertTemplate = "budget_alert"

type budgetAlertData struct {
	BudgetID        string
	Category        string
	Subcategory     string
	AcademicYear    string
	Term            string
	Tier            Tier
	Message         string
	Allocated       string
	Spent           string
	Remaining       string
	Utilization     string
	Recommendations []string
}

func (svc *service) notifyBudgetAlert(line BudgetLine) {
	alert := GenerateAlerts(line.Status)[0]
	svc.logger.Warn(
		fmt.Sprintf("budget %s is %s: %s", line.ID, line.Status.Tier, alert.Message),
		map[string]interface{}{
			"budget_id":     line.ID,
			"category":      line.Category,
			"academic_year": line.AcademicYear,
			"utilization":   line.Status.UtilizationPercentage.StringFixed(2),
		},
	)

	if len(svc.conf.FinanceAlertEmails) == 0 {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           svc.conf.FinanceAlertEmails,
		Subject:      fmt.Sprintf("%s budget %s", line.Category, line.Status.Tier),
		TemplateName: budgetAlertTemplate,
		TemplateData: budgetAlertData{
			BudgetID:        line.ID,
			Category:        line.Category,
			Subcategory:     line.Subcategory,
			AcademicYear:    line.AcademicYear,
			Term:            line.Term,
			Tier:            line.Status.Tier,
			Message:         alert.Message,
			Allocated:       line.Amount.StringFixed(2),
			Spent:           line.Status.SpentAmount.StringFixed(2),
			Remaining:       line.Status.RemainingAmount.StringFixed(2),
			Utilization:     line.Status.UtilizationPercentage.StringFixed(2),
			Recommendations: Recommendations(line.Status),
		},
	})
}
