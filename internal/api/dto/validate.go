package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/tourism-service/internal/domain"
	apperrors "github.com/spec-kit/tourism-service/pkg/util/errorutil"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks req against its validate tags and reports every failing
// field as a validation error.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewValidationError("Validation failed", nil)
	}
	details := make([]apperrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, apperrors.FieldError{Field: fieldPath(fe), Message: fieldMessage(fe)})
	}
	return apperrors.NewValidationError("Validation failed", details)
}

// fieldPath drops the struct name from the namespace: RegisterRequest.email -> email.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "email":
		return name + " must be a valid email"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "uuid", "uuid4":
		return name + " must be a valid id"
	default:
		return name + " is invalid"
	}
}

// ParseDate accepts an RFC 3339 timestamp or a bare calendar date.
func ParseDate(value string) (time.Time, error) {
	return domain.ParseDate(value)
}
