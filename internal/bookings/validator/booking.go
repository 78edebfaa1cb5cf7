package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"stayd/pkg/logger"
	"stayd/pkg/model"
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

type BookingValidator struct {
	validate    *validator.Validate
	logger      *logger.Logger
	maxStayDays int
}

func NewBookingValidator(log *logger.Logger, maxStayDays int) *BookingValidator {
	return &BookingValidator{
		validate:    validator.New(),
		logger:      log,
		maxStayDays: maxStayDays,
	}
}

// Validate checks a booking's fields and its fit against the room it
// targets: the date range must be well formed and the room must carry a
// price for the requested billing cycle.
func (v *BookingValidator) Validate(booking *model.Booking, room *model.Room) error {
	if err := v.validate.Struct(booking); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if !booking.StartDate.Before(booking.EndDate) {
		return ValidationErrors{
			ValidationError{
				Field:   "EndDate",
				Message: "end_date must be after start_date",
			},
		}
	}

	if v.maxStayDays > 0 && booking.StartDate.AddDays(v.maxStayDays).Before(booking.EndDate) {
		return ValidationErrors{
			ValidationError{
				Field:   "EndDate",
				Message: fmt.Sprintf("stay cannot exceed %d days", v.maxStayDays),
			},
		}
	}

	if room != nil {
		if room.PropertyID != booking.PropertyID {
			return ValidationErrors{
				ValidationError{
					Field:   "PropertyID",
					Message: "room does not belong to the given property",
				},
			}
		}
		if room.PriceFor(booking.BillingCycle) == nil {
			return ValidationErrors{
				ValidationError{
					Field:   "BillingCycle",
					Message: fmt.Sprintf("room has no %s price", booking.BillingCycle),
				},
			}
		}
	}

	return nil
}

func (v *BookingValidator) ValidateUpdate(update *model.BookingUpdate) error {
	if err := v.validate.Struct(update); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if update.StartDate != nil && update.EndDate != nil {
		if !update.StartDate.Before(*update.EndDate) {
			return ValidationErrors{
				ValidationError{
					Field:   "EndDate",
					Message: "end_date must be after start_date",
				},
			}
		}
	}

	return nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
