package validator

import (
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	models "github.com/oceandrift/fishcrew/internal"
)

type CustomValidator struct {
	validator *validator.Validate
}

func NewCustomValidator() *CustomValidator {
	v := validator.New()
	v.RegisterValidation("time_slot", validateTimeSlot)
	v.RegisterValidation("future_date", validateFutureDate)
	v.RegisterValidation("phone", validatePhone)

	return &CustomValidator{validator: v}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func validateTimeSlot(fl validator.FieldLevel) bool {
	return models.ValidTimeSlot(models.TimeSlot(fl.Field().String()))
}

func validateFutureDate(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	return date.After(time.Now())
}

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 \-]{6,18}$`)

func validatePhone(fl validator.FieldLevel) bool {
	return phonePattern.MatchString(fl.Field().String())
}
