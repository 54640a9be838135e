package dialog

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tripweaver/tripweaver/internal/models"
)

var (
	namePattern = regexp.MustCompile(`^[A-Za-z0-9 ]+$`)
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Validator holds the pure per-step input validation rules. Every rule is a
// function of the raw string only; "today" for date checks is read from the
// injected clock at validation time.
type Validator struct {
	now func() time.Time
}

// NewValidator creates a Validator using the wall clock.
func NewValidator() *Validator {
	return &Validator{now: time.Now}
}

// NewValidatorWithClock creates a Validator with a fixed clock for tests.
func NewValidatorWithClock(now func() time.Time) *Validator {
	return &Validator{now: now}
}

// Validate checks raw input against the rule for step. On success it returns
// the value to collect; on failure a *models.ValidationError carrying the
// step-specific user-facing message.
func (v *Validator) Validate(step models.Step, input string) (string, error) {
	switch step {
	case models.StepName, models.StepTripName, models.StepPointName:
		return validateName(input)
	case models.StepStartDate, models.StepEndDate, models.StepRouteDate:
		return v.validateDate(input)
	case models.StepLatitude:
		return validateCoordinate(input, -90, 90, "latitude")
	case models.StepLongitude:
		return validateCoordinate(input, -180, 180, "longitude")
	case models.StepRating:
		return validateRating(input)
	case models.StepNote:
		return validateNote(input)
	case models.StepLocation:
		return "", models.NewValidationError("Please share your location using the 'Send location' button.")
	default:
		return "", models.NewValidationError("Unexpected input.")
	}
}

func validateName(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", models.NewValidationError("The name cannot be empty.")
	}
	if !namePattern.MatchString(trimmed) {
		return "", models.NewValidationError("The name may only contain Latin letters, digits and spaces.")
	}
	return trimmed, nil
}

func (v *Validator) validateDate(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if !datePattern.MatchString(trimmed) {
		return "", models.NewValidationError("Invalid date format. Use YYYY-MM-DD.")
	}
	date, err := time.Parse(models.DateLayout, trimmed)
	if err != nil {
		return "", models.NewValidationError("Invalid date format. Use YYYY-MM-DD.")
	}
	today := v.today()
	if date.Before(today) {
		return "", models.NewValidationError("Oops! That date has already passed. Time flies :(")
	}
	return trimmed, nil
}

func validateCoordinate(input string, min, max float64, kind string) (string, error) {
	trimmed := strings.TrimSpace(input)
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return "", models.NewValidationError("The %s must be a number between %g and %g.", kind, min, max)
	}
	// ParseFloat accepts "NaN" and "Inf"; neither is a coordinate.
	if math.IsNaN(value) || math.IsInf(value, 0) || value < min || value > max {
		return "", models.NewValidationError("The %s must be between %g and %g degrees.", kind, min, max)
	}
	return trimmed, nil
}

func validateRating(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	rating, err := strconv.Atoi(trimmed)
	if err != nil || rating < 1 || rating > 5 {
		return "", models.NewValidationError("The rating must be a number from 1 to 5.")
	}
	return trimmed, nil
}

func validateNote(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", models.NewValidationError("The note cannot be empty.")
	}
	return trimmed, nil
}

func (v *Validator) today() time.Time {
	now := v.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
