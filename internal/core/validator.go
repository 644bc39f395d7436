package core

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"phoa/internal/types"
)

// ValidationError describes one failed field.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Validator wraps go-playground/validator with the domain tags:
//   - signal_name: a vocabulary signal name
//   - season: a season label, case-insensitive
//   - location_type: a location_type label, case-insensitive
//   - is_timezone: an IANA zone name
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a Validator with the custom tags registered. Field
// names in errors use the json tag.
func NewValidator(logger *slog.Logger) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	custom := map[string]validator.Func{
		"signal_name":   validateSignalName,
		"season":        labelValidator(types.SignalSeason),
		"location_type": labelValidator(types.SignalLocationType),
		"is_timezone":   validateTimezone,
	}
	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// Registration fails only on an empty tag or nil func.
			panic(fmt.Sprintf("core: register %s: %v", tag, err))
		}
	}

	return &Validator{validate: v, logger: logger}
}

// ValidateStruct validates s. Failures become a validation AppError whose
// code is taken from the first failed field and whose details list every
// failed field under "validation_errors".
func (v *Validator) ValidateStruct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		v.logger.Error("struct validation failed unexpectedly", "error", err.Error())
		return types.NewAppError(types.ErrCodeInternalUnexpected, "request validation failed", err)
	}

	out := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   trimNamespace(fe.Namespace()),
			Code:    tagToErrorCode(fe.Tag()),
			Message: fieldMessage(fe),
		})
	}
	return types.NewAppErrorWithDetails(types.ErrorCode(out[0].Code),
		fmt.Sprintf("%s: %s", out[0].Field, out[0].Message), nil,
		map[string]any{"validation_errors": out})
}

func tagToErrorCode(tag string) string {
	switch tag {
	case "required", "required_with", "required_without":
		return string(types.ErrCodeValidationMissingField)
	case "latitude":
		return string(types.ErrCodeValidationInvalidLat)
	case "longitude":
		return string(types.ErrCodeValidationInvalidLon)
	case "is_timezone":
		return string(types.ErrCodeValidationInvalidTimezone)
	case "signal_name", "season", "location_type":
		return string(types.ErrCodeValidationInvalidSignal)
	case "max":
		return string(types.ErrCodeValidationBatchSize)
	default:
		return "validation_invalid_" + tag
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must not exceed " + fe.Param()
	case "signal_name":
		return fmt.Sprintf("%v is not a known signal", fe.Value())
	case "season", "location_type":
		return fmt.Sprintf("%v is not a valid %s", fe.Value(), fe.Tag())
	case "is_timezone":
		return fmt.Sprintf("%v is not an IANA timezone", fe.Value())
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

// trimNamespace drops the root struct name from "evaluateRequest.context.timezone".
func trimNamespace(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func validateSignalName(fl validator.FieldLevel) bool {
	_, ok := types.LookupSignal(fl.Field().String())
	return ok
}

func labelValidator(sig types.Signal) validator.Func {
	meta := types.Vocabulary[sig]
	return func(fl validator.FieldLevel) bool {
		_, ok := meta.CanonicalLabel(fl.Field().String())
		return ok
	}
}

func validateTimezone(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" || strings.EqualFold(name, "local") {
		return false
	}
	_, err := time.LoadLocation(name)
	return err == nil
}
