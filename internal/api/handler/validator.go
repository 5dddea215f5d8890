package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// echoValidator wraps go-playground/validator so Echo can call c.Validate(req).
type echoValidator struct {
	v   *validator.Validate
	now func() time.Time
}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
// Field errors are reported under their JSON names.
func NewValidator() *echoValidator {
	ev := &echoValidator{v: validator.New(), now: time.Now}

	ev.v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	// pastdate accepts a YYYY-MM-DD string that is strictly before today.
	_ = ev.v.RegisterValidation("pastdate", func(fl validator.FieldLevel) bool {
		d, err := time.Parse(domain.DateLayout, fl.Field().String())
		if err != nil {
			return false
		}
		today := ev.now().UTC().Truncate(24 * time.Hour)
		return d.Before(today)
	})

	return ev
}

// Validate satisfies the echo.Validator interface. Rule violations come back
// as a *domain.ValidationError with one message per field.
func (ev *echoValidator) Validate(i any) error {
	if err := ev.v.Struct(i); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			msgs := make([]string, 0, len(ve))
			for _, fe := range ve {
				msgs = append(msgs, fieldError(fe))
			}
			return domain.NewValidationError(msgs...)
		}
		return err
	}
	return nil
}

// fieldError converts a single ValidationError into a human-readable message.
func fieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "eqfield":
		return "passwords do not match"
	case "datetime":
		return field + " must be a date in YYYY-MM-DD format"
	case "pastdate":
		return field + " must be in the past"
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
