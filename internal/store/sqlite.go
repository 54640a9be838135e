// Package store provides storage backends for TripWeaver.
//
// This file implements the SQLite-backed store.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "embed"

	"github.com/tripweaver/tripweaver/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore persists users, trips, points and routes in a SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given options. The DSN
// is a file path; its directory is created when missing.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) GetOrCreateUser(ctx context.Context, chatID int64) (*models.User, error) {
	// INSERT OR IGNORE absorbs the race on first-time registration; the
	// subsequent read always sees the surviving row.
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO users (chat_id) VALUES (?)`, chatID)
	if err != nil {
		slog.Error("SQLiteStore GetOrCreateUser insert failed", "error", err, "chatID", chatID)
		return nil, fmt.Errorf("failed to register user %d: %w", chatID, err)
	}
	user, err := s.GetUser(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %d missing after registration", chatID)
	}
	return user, nil
}

func (s *SQLiteStore) GetUser(ctx context.Context, chatID int64) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT chat_id, ongoing_trip_id, last_latitude, last_longitude, created_at, updated_at
		FROM users WHERE chat_id = ?`, chatID)
	user, err := scanUser(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetUser failed", "error", err, "chatID", chatID)
		return nil, fmt.Errorf("failed to get user %d: %w", chatID, err)
	}
	return user, nil
}

func (s *SQLiteStore) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chat_id, ongoing_trip_id, last_latitude, last_longitude, created_at, updated_at
		FROM users`)
	if err != nil {
		slog.Error("SQLiteStore ListUsers query failed", "error", err)
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user rows: %w", err)
	}
	return users, nil
}

func (s *SQLiteStore) UpdateUserLocation(ctx context.Context, chatID int64, lat, lon float64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET last_latitude = ?, last_longitude = ?, updated_at = CURRENT_TIMESTAMP
		WHERE chat_id = ?`, lat, lon, chatID)
	if err != nil {
		slog.Error("SQLiteStore UpdateUserLocation failed", "error", err, "chatID", chatID)
		return fmt.Errorf("failed to update location for user %d: %w", chatID, err)
	}
	return nil
}

func (s *SQLiteStore) SetOngoingTrip(ctx context.Context, chatID int64, tripID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET ongoing_trip_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE chat_id = ?`, tripID, chatID)
	if err != nil {
		slog.Error("SQLiteStore SetOngoingTrip failed", "error", err, "chatID", chatID, "tripID", tripID)
		return fmt.Errorf("failed to set ongoing trip for user %d: %w", chatID, err)
	}
	return nil
}

func (s *SQLiteStore) CreateTrip(ctx context.Context, trip models.Trip) error {
	notes, err := marshalNotes(trip.Notes)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO trips (id, chat_id, name, start_date, end_date, rating, status, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trip.ID, trip.ChatID, trip.Name,
		trip.StartDate.Format(models.DateLayout), trip.EndDate.Format(models.DateLayout),
		nilIfZero(trip.Rating), string(trip.Status), notes, trip.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore CreateTrip failed", "error", err, "tripID", trip.ID)
		return fmt.Errorf("failed to insert trip %s: %w", trip.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetTrip(ctx context.Context, tripID string) (*models.Trip, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, chat_id, name, start_date, end_date, rating, status, notes, created_at
		FROM trips WHERE id = ?`, tripID)
	trip, err := scanTrip(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetTrip failed", "error", err, "tripID", tripID)
		return nil, fmt.Errorf("failed to get trip %s: %w", tripID, err)
	}
	return trip, nil
}

func (s *SQLiteStore) ListTrips(ctx context.Context, chatID int64, statuses ...models.TripStatus) ([]models.Trip, error) {
	query := `
		SELECT id, chat_id, name, start_date, end_date, rating, status, notes, created_at
		FROM trips WHERE chat_id = ?`
	args := []any{chatID}
	if len(statuses) > 0 {
		query += ` AND status IN (?` + strings.Repeat(",?", len(statuses)-1) + `)`
		for _, st := range statuses {
			args = append(args, string(st))
		}
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Error("SQLiteStore ListTrips query failed", "error", err, "chatID", chatID)
		return nil, fmt.Errorf("failed to query trips for user %d: %w", chatID, err)
	}
	defer rows.Close()

	var trips []models.Trip
	for rows.Next() {
		trip, err := scanTrip(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip row: %w", err)
		}
		trips = append(trips, *trip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trip rows: %w", err)
	}
	return trips, nil
}

func (s *SQLiteStore) SetTripStatus(ctx context.Context, tripID string, to models.TripStatus, from ...models.TripStatus) (bool, error) {
	query := `UPDATE trips SET status = ? WHERE id = ?`
	args := []any{string(to), tripID}
	if len(from) > 0 {
		query += ` AND status IN (?` + strings.Repeat(",?", len(from)-1) + `)`
		for _, st := range from {
			args = append(args, string(st))
		}
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Error("SQLiteStore SetTripStatus failed", "error", err, "tripID", tripID, "to", to)
		return false, fmt.Errorf("failed to set status of trip %s: %w", tripID, err)
	}
	return affected(res)
}

func (s *SQLiteStore) SetTripRating(ctx context.Context, tripID string, rating int) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE trips SET rating = ? WHERE id = ? AND status = ?`,
		rating, tripID, string(models.StatusFinished))
	if err != nil {
		slog.Error("SQLiteStore SetTripRating failed", "error", err, "tripID", tripID)
		return false, fmt.Errorf("failed to rate trip %s: %w", tripID, err)
	}
	return affected(res)
}

func (s *SQLiteStore) AddTripNote(ctx context.Context, tripID string, note string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE trips SET notes = json_insert(notes, '$[#]', ?) WHERE id = ?`, note, tripID)
	if err != nil {
		slog.Error("SQLiteStore AddTripNote failed", "error", err, "tripID", tripID)
		return fmt.Errorf("failed to add note to trip %s: %w", tripID, err)
	}
	return nil
}

func (s *SQLiteStore) DeleteTrip(ctx context.Context, tripID string, from ...models.TripStatus) (bool, error) {
	query := `DELETE FROM trips WHERE id = ?`
	args := []any{tripID}
	if len(from) > 0 {
		query += ` AND status IN (?` + strings.Repeat(",?", len(from)-1) + `)`
		for _, st := range from {
			args = append(args, string(st))
		}
	}
	// One transaction for the trip and its cascades so a failure never
	// leaves orphan point or route rows.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin delete of trip %s: %w", tripID, err)
	}
	defer tx.Rollback()
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Error("SQLiteStore DeleteTrip failed", "error", err, "tripID", tripID)
		return false, fmt.Errorf("failed to delete trip %s: %w", tripID, err)
	}
	deleted, err := affected(res)
	if err != nil || !deleted {
		return deleted, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM points WHERE trip_id = ?`, tripID); err != nil {
		return false, fmt.Errorf("failed to delete points of trip %s: %w", tripID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM routes WHERE trip_id = ?`, tripID); err != nil {
		return false, fmt.Errorf("failed to delete routes of trip %s: %w", tripID, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit delete of trip %s: %w", tripID, err)
	}
	return true, nil
}

func (s *SQLiteStore) CreatePoint(ctx context.Context, point models.Point) error {
	notes, err := marshalNotes(point.Notes)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO points (id, trip_id, name, latitude, longitude, visited, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		point.ID, point.TripID, point.Name, point.Latitude, point.Longitude, point.Visited, notes)
	if err != nil {
		slog.Error("SQLiteStore CreatePoint failed", "error", err, "pointID", point.ID)
		return fmt.Errorf("failed to insert point %s: %w", point.ID, err)
	}
	return nil
}

func (s *SQLiteStore) ListPoints(ctx context.Context, tripID string) ([]models.Point, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trip_id, name, latitude, longitude, visited, notes
		FROM points WHERE trip_id = ? ORDER BY rowid`, tripID)
	if err != nil {
		slog.Error("SQLiteStore ListPoints query failed", "error", err, "tripID", tripID)
		return nil, fmt.Errorf("failed to query points of trip %s: %w", tripID, err)
	}
	defer rows.Close()

	var points []models.Point
	for rows.Next() {
		point, err := scanPoint(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan point row: %w", err)
		}
		points = append(points, *point)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate point rows: %w", err)
	}
	return points, nil
}

func (s *SQLiteStore) MarkPointVisited(ctx context.Context, pointID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE points SET visited = 1 WHERE id = ? AND visited = 0`, pointID)
	if err != nil {
		slog.Error("SQLiteStore MarkPointVisited failed", "error", err, "pointID", pointID)
		return false, fmt.Errorf("failed to mark point %s visited: %w", pointID, err)
	}
	return affected(res)
}

func (s *SQLiteStore) AddPointNote(ctx context.Context, pointID string, note string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE points SET notes = json_insert(notes, '$[#]', ?) WHERE id = ?`, note, pointID)
	if err != nil {
		slog.Error("SQLiteStore AddPointNote failed", "error", err, "pointID", pointID)
		return fmt.Errorf("failed to add note to point %s: %w", pointID, err)
	}
	return nil
}

func (s *SQLiteStore) CreateRoute(ctx context.Context, route models.Route) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO routes (id, trip_id, point_id, start_date, end_date)
		VALUES (?, ?, ?, ?, ?)`,
		route.ID, route.TripID, route.PointID,
		route.StartDate.Format(models.DateLayout), route.EndDate.Format(models.DateLayout))
	if err != nil {
		slog.Error("SQLiteStore CreateRoute failed", "error", err, "routeID", route.ID)
		return fmt.Errorf("failed to insert route %s: %w", route.ID, err)
	}
	return nil
}

func (s *SQLiteStore) ListRoutes(ctx context.Context, tripID string) ([]models.Route, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trip_id, point_id, start_date, end_date
		FROM routes WHERE trip_id = ? ORDER BY rowid`, tripID)
	if err != nil {
		slog.Error("SQLiteStore ListRoutes query failed", "error", err, "tripID", tripID)
		return nil, fmt.Errorf("failed to query routes of trip %s: %w", tripID, err)
	}
	defer rows.Close()

	var routes []models.Route
	for rows.Next() {
		route, err := scanRoute(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan route row: %w", err)
		}
		routes = append(routes, *route)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate route rows: %w", err)
	}
	return routes, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }
