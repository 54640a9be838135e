package dialog

import (
	"errors"
	"testing"
	"time"

	"github.com/tripweaver/tripweaver/internal/models"
)

func fixedClock() time.Time {
	return time.Date(2026, 8, 31, 15, 30, 0, 0, time.UTC)
}

func TestValidateName(t *testing.T) {
	v := NewValidatorWithClock(fixedClock)

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"simple", "Paris 2026", "Paris 2026", false},
		{"trims whitespace", "  Rome  ", "Rome", false},
		{"empty", "   ", "", true},
		{"punctuation rejected", "Paris!", "", true},
		{"non latin rejected", "Париж", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Validate(models.StepName, tt.input)
			if tt.wantErr {
				if !models.IsValidation(err) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateDate(t *testing.T) {
	v := NewValidatorWithClock(fixedClock)

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"today is accepted", "2026-08-31", false},
		{"future is accepted", "2026-12-24", false},
		{"past is rejected", "2026-08-30", true},
		{"wrong format", "31-08-2026", true},
		{"nonexistent day", "2026-02-30", true},
		{"not a date", "tomorrow", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(models.StepStartDate, tt.input)
			if tt.wantErr && !models.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateCoordinates(t *testing.T) {
	v := NewValidatorWithClock(fixedClock)

	if _, err := v.Validate(models.StepLatitude, "48.8566"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := v.Validate(models.StepLatitude, "-90"); err != nil {
		t.Fatalf("boundary latitude rejected: %v", err)
	}
	if _, err := v.Validate(models.StepLatitude, "90.0001"); !models.IsValidation(err) {
		t.Fatalf("expected validation error for out-of-range latitude, got %v", err)
	}
	if _, err := v.Validate(models.StepLongitude, "180"); err != nil {
		t.Fatalf("boundary longitude rejected: %v", err)
	}
	if _, err := v.Validate(models.StepLongitude, "-180.5"); !models.IsValidation(err) {
		t.Fatalf("expected validation error for out-of-range longitude, got %v", err)
	}
	if _, err := v.Validate(models.StepLatitude, "north"); !models.IsValidation(err) {
		t.Fatalf("expected validation error for non-numeric latitude, got %v", err)
	}
	// strconv.ParseFloat accepts these; the validator must not.
	for _, bad := range []string{"NaN", "nan", "+Inf", "-Inf", "Infinity"} {
		if _, err := v.Validate(models.StepLatitude, bad); !models.IsValidation(err) {
			t.Errorf("latitude %q: expected validation error, got %v", bad, err)
		}
		if _, err := v.Validate(models.StepLongitude, bad); !models.IsValidation(err) {
			t.Errorf("longitude %q: expected validation error, got %v", bad, err)
		}
	}
}

func TestValidateRating(t *testing.T) {
	v := NewValidatorWithClock(fixedClock)

	for _, ok := range []string{"1", "3", "5"} {
		if _, err := v.Validate(models.StepRating, ok); err != nil {
			t.Errorf("rating %q rejected: %v", ok, err)
		}
	}
	for _, bad := range []string{"0", "6", "3.5", "five", ""} {
		if _, err := v.Validate(models.StepRating, bad); !models.IsValidation(err) {
			t.Errorf("rating %q: expected validation error, got %v", bad, err)
		}
	}
}

func TestValidateNote(t *testing.T) {
	v := NewValidatorWithClock(fixedClock)

	got, err := v.Validate(models.StepNote, "  great view!  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "great view!" {
		t.Errorf("got %q, want trimmed note", got)
	}
	if _, err := v.Validate(models.StepNote, "   "); !models.IsValidation(err) {
		t.Fatalf("expected validation error for blank note, got %v", err)
	}
}

func TestValidateLocationStepRejectsText(t *testing.T) {
	v := NewValidatorWithClock(fixedClock)

	_, err := v.Validate(models.StepLocation, "48.85 2.35")
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
