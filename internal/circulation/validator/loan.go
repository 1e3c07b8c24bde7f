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

// Fields lists the offending field names in order.
func (v ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(v))
	for _, err := range v {
		fields = append(fields, err.Field)
	}
	return fields
}

type LoanValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewLoanValidator(log *logger.Logger) *LoanValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)

	log.Debug("Loan validator initialized")

	return &LoanValidator{
		validate: v,
		logger:   log,
	}
}

func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

func (v *LoanValidator) ValidateCheckout(req *model.CheckoutRequest) error {
	return v.check(req)
}

func (v *LoanValidator) ValidateCheckIn(req *model.CheckInRequest) error {
	return v.check(req)
}

func (v *LoanValidator) ValidateLoanID(id string) error {
	if id == "" {
		return ValidationErrors{{Field: "loan_id", Message: "loan_id is required"}}
	}
	return nil
}

func (v *LoanValidator) check(req any) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *LoanValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var result ValidationErrors
	for _, err := range errs {
		field := err.Field()
		var message string

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "required_without":
			message = fmt.Sprintf("%s is required when %s is not provided", field, strings.ToLower(err.Param()))
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", field, err.Param())
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
