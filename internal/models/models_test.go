package models

import (
	"testing"
	"time"
)

func TestTripCoversDate(t *testing.T) {
	trip := Trip{
		StartDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name string
		day  time.Time
		want bool
	}{
		{"before", time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC), false},
		{"first day", time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC), true},
		{"middle", time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC), true},
		{"last day", time.Date(2026, 9, 10, 23, 0, 0, 0, time.UTC), true},
		{"after", time.Date(2026, 9, 11, 0, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := trip.CoversDate(tt.day); got != tt.want {
				t.Errorf("CoversDate(%v) = %v, want %v", tt.day, got, tt.want)
			}
		})
	}
}

func TestTripRated(t *testing.T) {
	if (Trip{}).Rated() {
		t.Error("zero rating must read as not rated")
	}
	if !(Trip{Rating: 3}).Rated() {
		t.Error("rating 3 must read as rated")
	}
}

func TestDialogSessionClone(t *testing.T) {
	session := &DialogSession{
		ChatID:      42,
		Command:     CommandPlanTrip,
		CurrentStep: StepStartDate,
		Data:        map[DataKey]string{DataKeyName: "Paris"},
	}
	clone := session.Clone()
	clone.Data[DataKeyName] = "Rome"
	clone.CurrentStep = StepEndDate

	if session.Data[DataKeyName] != "Paris" || session.CurrentStep != StepStartDate {
		t.Error("clone shares state with the original")
	}
	if (*DialogSession)(nil).Clone() != nil {
		t.Error("cloning nil must return nil")
	}
}
