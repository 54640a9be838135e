// Package models defines the domain entities shared across TripWeaver components.
package models

import "time"

// DateLayout is the wire format for all user-entered dates.
const DateLayout = "2006-01-02"

// TripStatus is the lifecycle stage of a trip. Transitions move forward only:
// PLANNING -> PLANNED -> ONGOING -> FINISHED.
type TripStatus string

const (
	StatusPlanning TripStatus = "PLANNING"
	StatusPlanned  TripStatus = "PLANNED"
	StatusOngoing  TripStatus = "ONGOING"
	StatusFinished TripStatus = "FINISHED"
)

// Location is a last known position reported by a chat.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// User is the per-chat aggregate. Created on first interaction, never deleted.
// Trip membership (planned / current / history) is derived from trip status.
type User struct {
	ChatID        int64     `json:"chat_id"`
	OngoingTripID string    `json:"ongoing_trip_id,omitempty"`
	LastLocation  *Location `json:"last_location,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Trip is a planned or undertaken journey owned by a single chat.
type Trip struct {
	ID        string     `json:"id"`
	ChatID    int64      `json:"chat_id"`
	Name      string     `json:"name"`
	StartDate time.Time  `json:"start_date"`
	EndDate   time.Time  `json:"end_date"`
	Rating    int        `json:"rating,omitempty"` // 1..5, zero means not rated
	Status    TripStatus `json:"status"`
	Notes     []string   `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Rated reports whether a rating has been recorded for the trip.
func (t Trip) Rated() bool { return t.Rating >= 1 && t.Rating <= 5 }

// CoversDate reports whether day falls inside the trip's date range, inclusive.
func (t Trip) CoversDate(day time.Time) bool {
	d := day.Truncate(24 * time.Hour)
	return !t.StartDate.After(d) && !t.EndDate.Before(d)
}

// Point is a waypoint of a trip. The visited flag is monotone: once true it
// never reverts.
type Point struct {
	ID        string   `json:"id"`
	TripID    string   `json:"trip_id"`
	Name      string   `json:"name"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Visited   bool     `json:"visited"`
	Notes     []string `json:"notes,omitempty"`
}

// Route is a scheduled visit window for a point of a trip.
type Route struct {
	ID        string    `json:"id"`
	TripID    string    `json:"trip_id"`
	PointID   string    `json:"point_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}
