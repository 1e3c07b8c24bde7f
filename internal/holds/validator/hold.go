package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"circulation/pkg/logger"
	"circulation/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type HoldValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewHoldValidator(log *logger.Logger) *HoldValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("hold_status", validateHoldStatus); err != nil {
		log.Fatal("Failed to register 'hold_status' validator",
			"error", err,
		)
	}

	log.Debug("Hold validator initialized")

	return &HoldValidator{
		validate: v,
		logger:   log,
	}
}

func validateHoldStatus(fl validator.FieldLevel) bool {
	status, ok := fl.Field().Interface().(model.HoldStatus)
	return ok && status.Valid()
}

func (v *HoldValidator) ValidatePlace(req *model.PlaceHoldRequest) error {
	return v.check(req)
}

func (v *HoldValidator) ValidateStatusUpdate(update *model.HoldStatusUpdate) error {
	return v.check(update)
}

func (v *HoldValidator) ValidateHoldID(id string) error {
	if id == "" {
		return ValidationErrors{{Field: "hold_id", Message: "hold_id is required"}}
	}
	return nil
}

func (v *HoldValidator) check(req any) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *HoldValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var result ValidationErrors
	for _, err := range errs {
		field := err.Field()
		var message string

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", field, err.Param())
		case "oneof", "hold_status":
			message = fmt.Sprintf("%s must be one of: pending available fulfilled cancelled expired", field)
		default:
			message = fmt.Sprintf("%s failed validation on '%s'", field, err.Tag())
		}

		result = append(result, ValidationError{
			Field:   field,
			Message: message,
		})
	}
	return result
}
