package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tripweaver/tripweaver/internal/models"
)

// scanFunc abstracts over sql.Row.Scan and sql.Rows.Scan so the row decoders
// below serve both.
type scanFunc func(dest ...any) error

func scanUser(scan scanFunc) (*models.User, error) {
	var u models.User
	var ongoingTripID sql.NullString
	var lat, lon sql.NullFloat64
	if err := scan(&u.ChatID, &ongoingTripID, &lat, &lon, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.OngoingTripID = ongoingTripID.String
	if lat.Valid && lon.Valid {
		u.LastLocation = &models.Location{Latitude: lat.Float64, Longitude: lon.Float64}
	}
	return &u, nil
}

func scanTrip(scan scanFunc) (*models.Trip, error) {
	var t models.Trip
	var startDate, endDate, notesJSON string
	var rating sql.NullInt64
	var status string
	if err := scan(&t.ID, &t.ChatID, &t.Name, &startDate, &endDate, &rating, &status, &notesJSON, &t.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if t.StartDate, err = time.Parse(models.DateLayout, startDate); err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", startDate, err)
	}
	if t.EndDate, err = time.Parse(models.DateLayout, endDate); err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", endDate, err)
	}
	if rating.Valid {
		t.Rating = int(rating.Int64)
	}
	t.Status = models.TripStatus(status)
	if t.Notes, err = unmarshalNotes(notesJSON); err != nil {
		return nil, err
	}
	return &t, nil
}

func scanPoint(scan scanFunc) (*models.Point, error) {
	var p models.Point
	var notesJSON string
	if err := scan(&p.ID, &p.TripID, &p.Name, &p.Latitude, &p.Longitude, &p.Visited, &notesJSON); err != nil {
		return nil, err
	}
	var err error
	if p.Notes, err = unmarshalNotes(notesJSON); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanRoute(scan scanFunc) (*models.Route, error) {
	var r models.Route
	var startDate, endDate string
	if err := scan(&r.ID, &r.TripID, &r.PointID, &startDate, &endDate); err != nil {
		return nil, err
	}
	var err error
	if r.StartDate, err = time.Parse(models.DateLayout, startDate); err != nil {
		return nil, fmt.Errorf("invalid route start date %q: %w", startDate, err)
	}
	if r.EndDate, err = time.Parse(models.DateLayout, endDate); err != nil {
		return nil, fmt.Errorf("invalid route end date %q: %w", endDate, err)
	}
	return &r, nil
}

// marshalNotes encodes notes as a JSON array for a single text column.
func marshalNotes(notes []string) (string, error) {
	if notes == nil {
		notes = []string{}
	}
	data, err := json.Marshal(notes)
	if err != nil {
		return "", fmt.Errorf("failed to marshal notes: %w", err)
	}
	return string(data), nil
}

func unmarshalNotes(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var notes []string
	if err := json.Unmarshal([]byte(raw), &notes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal notes: %w", err)
	}
	if len(notes) == 0 {
		return nil, nil
	}
	return notes, nil
}

// nilIfZero maps a zero rating to NULL.
func nilIfZero(v int) any {
	if v == 0 {
		return nil
	}
	return v
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}
