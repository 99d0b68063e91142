package finance

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

var (
	notFutureTag  = "notfuture"
	notFutureText = "{0} cannot be in the future"

	termTag = "term"
)

// InitValidators registers the finance validations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(notFutureTag, notFutureValidation)
	core.RegisterCustomTranslation(validate, translator, notFutureTag, notFutureText)

	validate.RegisterStructValidation(updateBudgetStructValidation, UpdateBudget{})
}

func notFutureValidation(fl validator.FieldLevel) bool {
	if t, ok := fl.Field().Interface().(time.Time); ok {
		return t.IsZero() || !t.After(NowFunc())
	}
	return false
}

// an empty term means the budget covers the whole academic year
func updateBudgetStructValidation(sl validator.StructLevel) {
	ub := sl.Current().Interface().(UpdateBudget)
	if ub.Term != nil && *ub.Term != "" && !core.IsValidTerm(*ub.Term) {
		sl.ReportError(*ub.Term, "term", "Term", termTag, "")
	}
}
