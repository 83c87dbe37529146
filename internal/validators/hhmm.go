package validators

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/NikolajSankovDev/zyron/internal/domain/calendar"
)

// Register installs the custom tags on gin's binding validator.
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return RegisterOn(v)
}

func RegisterOn(v *validator.Validate) error {
	if err := v.RegisterValidation("hhmm", validateHHMM); err != nil {
		return fmt.Errorf("register hhmm: %w", err)
	}
	return nil
}

// hhmm accepts "HH:mm" between 00:00 and 24:00. Empty strings pass; combine
// with required when the field is mandatory.
func validateHHMM(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	if len(s) != len(calendar.ClockLayout) {
		return false
	}
	_, err := calendar.ClockOn(time.Time{}, s)
	return err == nil
}
