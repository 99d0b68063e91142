package academic

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

var (
	attendanceStatusTag  = "attendance_status"
	attendanceStatusText = "must be one of present, absent, late or excused"

	// only used to cap marks
	lteFieldTag  = "ltefield"
	lteFieldText = "marks cannot be greater than the total marks"
)

// InitValidators registers the academic validations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(attendanceStatusTag, attendanceStatusValidation)
	core.RegisterCustomTranslation(validate, translator, attendanceStatusTag, attendanceStatusText)

	core.RegisterCustomTranslation(validate, translator, lteFieldTag, lteFieldText, true)
}

func attendanceStatusValidation(fl validator.FieldLevel) bool {
	return IsValidAttendanceStatus(fl.Field().String())
}
