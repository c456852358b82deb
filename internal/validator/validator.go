package validator

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrValidation wraps every rule failure reported by Validate.
var ErrValidation = errors.New("validation failed")

var (
	casePriorities = []string{"low", "medium", "high"}
	caseStatuses   = []string{"open", "in-progress", "closed"}
	userRoles      = []string{"user", "admin"}
)

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterValidation("case_priority", oneOf(casePriorities))
	v.RegisterValidation("case_status", oneOf(caseStatuses))
	v.RegisterValidation("user_role", oneOf(userRoles))
	v.RegisterValidation("file_name", validateFileName)

	return &Validator{validate: v}
}

// Validate checks the struct tags of i. Failures are returned wrapped in
// ErrValidation with one message per failing field.
func (v *Validator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}

// Var validates a single value against tag.
func (v *Validator) Var(field any, tag string) error {
	if err := v.validate.Var(field, tag); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "case_priority":
		return field + " must be one of " + strings.Join(casePriorities, ", ")
	case "case_status":
		return field + " must be one of " + strings.Join(caseStatuses, ", ")
	case "user_role":
		return field + " must be one of " + strings.Join(userRoles, ", ")
	case "file_name":
		return field + " is not a valid file name"
	default:
		return fmt.Sprintf("%s failed on %s", field, fe.Tag())
	}
}

func oneOf(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		for _, a := range allowed {
			if value == a {
				return true
			}
		}
		return false
	}
}

func validateFileName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" || len(name) > 255 {
		return false
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return false
	}
	return name != "." && name != ".." && path.Base(name) == name
}
