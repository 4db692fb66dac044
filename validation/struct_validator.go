package validation

import (
	stderrors "errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/tabflow/errors"
)

var (
	validate *validator.Validate
	once     sync.Once
)

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Option structs are decoded with mapstructure, requests with json;
		// report whichever name the caller actually sent.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"mapstructure", "json"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return toSnakeCase(fld.Name)
		})
	})
	return validate
}

// Validate validates a request or configuration struct using its
// `validate` tags. Failures are INVALID_INPUT errors listing every field.
func Validate(s any) error {
	fields, err := check(s)
	if err != nil {
		return errors.Validation("validation failed").WithCause(err)
	}
	if len(fields) == 0 {
		return nil
	}
	return errors.Validation(joinMessages(fields)).WithDetail("fields", fields)
}

// ValidateOptions validates a decoded operation options struct. Failures are
// INVALID_OPTIONS errors listing every field.
func ValidateOptions(s any) error {
	fields, err := check(s)
	if err != nil {
		return errors.InvalidOptions("options validation failed").WithCause(err)
	}
	if len(fields) == 0 {
		return nil
	}
	return errors.InvalidOptions(joinMessages(fields)).WithDetail("fields", fields)
}

func check(s any) ([]FieldError, error) {
	err := getValidator().Struct(s)
	if err == nil {
		return nil, nil
	}

	var validationErrors validator.ValidationErrors
	if !stderrors.As(err, &validationErrors) {
		return nil, err
	}

	fields := make([]FieldError, 0, len(validationErrors))
	for _, e := range validationErrors {
		fields = append(fields, FieldError{
			Field:   fieldPath(e.Namespace()),
			Message: formatValidationError(e),
		})
	}
	return fields, nil
}

// fieldPath drops the root struct name from a validator namespace
// ("AppConfig.scheduler.max_workers" -> "scheduler.max_workers").
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func formatValidationError(e validator.FieldError) string {
	sized := e.Kind() == reflect.Slice || e.Kind() == reflect.Map || e.Kind() == reflect.Array
	switch e.Tag() {
	case "required", "required_if":
		return "is required"
	case "min":
		if sized {
			return "must have at least " + e.Param() + " items"
		}
		if e.Kind() == reflect.String {
			return "must be at least " + e.Param() + " characters"
		}
		return "must be at least " + e.Param()
	case "max":
		if sized {
			return "must have at most " + e.Param() + " items"
		}
		if e.Kind() == reflect.String {
			return "must be at most " + e.Param() + " characters"
		}
		return "must be at most " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "unique":
		return "must not contain duplicates"
	case "hostname_rfc1123", "hostname_port", "ip":
		return "must be a valid host"
	case "url":
		return "must be a valid URL"
	default:
		return "is invalid"
	}
}

func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				result.WriteRune('_')
			}
			r += 'a' - 'A'
		}
		result.WriteRune(r)
	}
	return result.String()
}
