// Package store provides storage backends for TripWeaver.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "embed"

	"github.com/tripweaver/tripweaver/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants.
const (
	DefaultMaxOpenConns    = 25
	DefaultMaxIdleConns    = 25
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore persists users, trips, points and routes in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) GetOrCreateUser(ctx context.Context, chatID int64) (*models.User, error) {
	// ON CONFLICT DO NOTHING absorbs the race on first-time registration.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (chat_id) VALUES ($1) ON CONFLICT (chat_id) DO NOTHING`, chatID)
	if err != nil {
		slog.Error("PostgresStore GetOrCreateUser insert failed", "error", err, "chatID", chatID)
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

func (s *PostgresStore) GetUser(ctx context.Context, chatID int64) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT chat_id, ongoing_trip_id, last_latitude, last_longitude, created_at, updated_at
		FROM users WHERE chat_id = $1`, chatID)
	user, err := scanUser(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetUser failed", "error", err, "chatID", chatID)
		return nil, fmt.Errorf("failed to get user %d: %w", chatID, err)
	}
	return user, nil
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chat_id, ongoing_trip_id, last_latitude, last_longitude, created_at, updated_at
		FROM users`)
	if err != nil {
		slog.Error("PostgresStore ListUsers query failed", "error", err)
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

func (s *PostgresStore) UpdateUserLocation(ctx context.Context, chatID int64, lat, lon float64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET last_latitude = $1, last_longitude = $2, updated_at = now()
		WHERE chat_id = $3`, lat, lon, chatID)
	if err != nil {
		slog.Error("PostgresStore UpdateUserLocation failed", "error", err, "chatID", chatID)
		return fmt.Errorf("failed to update location for user %d: %w", chatID, err)
	}
	return nil
}

func (s *PostgresStore) SetOngoingTrip(ctx context.Context, chatID int64, tripID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET ongoing_trip_id = $1, updated_at = now()
		WHERE chat_id = $2`, tripID, chatID)
	if err != nil {
		slog.Error("PostgresStore SetOngoingTrip failed", "error", err, "chatID", chatID, "tripID", tripID)
		return fmt.Errorf("failed to set ongoing trip for user %d: %w", chatID, err)
	}
	return nil
}

func (s *PostgresStore) CreateTrip(ctx context.Context, trip models.Trip) error {
	notes, err := marshalNotes(trip.Notes)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO trips (id, chat_id, name, start_date, end_date, rating, status, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9)`,
		trip.ID, trip.ChatID, trip.Name,
		trip.StartDate.Format(models.DateLayout), trip.EndDate.Format(models.DateLayout),
		nilIfZero(trip.Rating), string(trip.Status), notes, trip.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore CreateTrip failed", "error", err, "tripID", trip.ID)
		return fmt.Errorf("failed to insert trip %s: %w", trip.ID, err)
	}
	return nil
}

func (s *PostgresStore) GetTrip(ctx context.Context, tripID string) (*models.Trip, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, chat_id, name, start_date, end_date, rating, status, notes::text, created_at
		FROM trips WHERE id = $1`, tripID)
	trip, err := scanTrip(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetTrip failed", "error", err, "tripID", tripID)
		return nil, fmt.Errorf("failed to get trip %s: %w", tripID, err)
	}
	return trip, nil
}

func (s *PostgresStore) ListTrips(ctx context.Context, chatID int64, statuses ...models.TripStatus) ([]models.Trip, error) {
	query := `
		SELECT id, chat_id, name, start_date, end_date, rating, status, notes::text, created_at
		FROM trips WHERE chat_id = $1`
	args := []any{chatID}
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, st := range statuses {
			placeholders[i] = fmt.Sprintf("$%d", i+2)
			args = append(args, string(st))
		}
		query += ` AND status IN (` + strings.Join(placeholders, ",") + `)`
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Error("PostgresStore ListTrips query failed", "error", err, "chatID", chatID)
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

func (s *PostgresStore) SetTripStatus(ctx context.Context, tripID string, to models.TripStatus, from ...models.TripStatus) (bool, error) {
	query := `UPDATE trips SET status = $1 WHERE id = $2`
	args := []any{string(to), tripID}
	if len(from) > 0 {
		placeholders := make([]string, len(from))
		for i, st := range from {
			placeholders[i] = fmt.Sprintf("$%d", i+3)
			args = append(args, string(st))
		}
		query += ` AND status IN (` + strings.Join(placeholders, ",") + `)`
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Error("PostgresStore SetTripStatus failed", "error", err, "tripID", tripID, "to", to)
		return false, fmt.Errorf("failed to set status of trip %s: %w", tripID, err)
	}
	return affected(res)
}

func (s *PostgresStore) SetTripRating(ctx context.Context, tripID string, rating int) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE trips SET rating = $1 WHERE id = $2 AND status = $3`,
		rating, tripID, string(models.StatusFinished))
	if err != nil {
		slog.Error("PostgresStore SetTripRating failed", "error", err, "tripID", tripID)
		return false, fmt.Errorf("failed to rate trip %s: %w", tripID, err)
	}
	return affected(res)
}

func (s *PostgresStore) AddTripNote(ctx context.Context, tripID string, note string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE trips SET notes = notes || to_jsonb($1::text) WHERE id = $2`, note, tripID)
	if err != nil {
		slog.Error("PostgresStore AddTripNote failed", "error", err, "tripID", tripID)
		return fmt.Errorf("failed to add note to trip %s: %w", tripID, err)
	}
	return nil
}

func (s *PostgresStore) DeleteTrip(ctx context.Context, tripID string, from ...models.TripStatus) (bool, error) {
	query := `DELETE FROM trips WHERE id = $1`
	args := []any{tripID}
	if len(from) > 0 {
		placeholders := make([]string, len(from))
		for i, st := range from {
			placeholders[i] = fmt.Sprintf("$%d", i+2)
			args = append(args, string(st))
		}
		query += ` AND status IN (` + strings.Join(placeholders, ",") + `)`
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
		slog.Error("PostgresStore DeleteTrip failed", "error", err, "tripID", tripID)
		return false, fmt.Errorf("failed to delete trip %s: %w", tripID, err)
	}
	deleted, err := affected(res)
	if err != nil || !deleted {
		return deleted, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM points WHERE trip_id = $1`, tripID); err != nil {
		return false, fmt.Errorf("failed to delete points of trip %s: %w", tripID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM routes WHERE trip_id = $1`, tripID); err != nil {
		return false, fmt.Errorf("failed to delete routes of trip %s: %w", tripID, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit delete of trip %s: %w", tripID, err)
	}
	return true, nil
}

func (s *PostgresStore) CreatePoint(ctx context.Context, point models.Point) error {
	notes, err := marshalNotes(point.Notes)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO points (id, trip_id, name, latitude, longitude, visited, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)`,
		point.ID, point.TripID, point.Name, point.Latitude, point.Longitude, point.Visited, notes)
	if err != nil {
		slog.Error("PostgresStore CreatePoint failed", "error", err, "pointID", point.ID)
		return fmt.Errorf("failed to insert point %s: %w", point.ID, err)
	}
	return nil
}

func (s *PostgresStore) ListPoints(ctx context.Context, tripID string) ([]models.Point, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trip_id, name, latitude, longitude, visited, notes::text
		FROM points WHERE trip_id = $1 ORDER BY seq`, tripID)
	if err != nil {
		slog.Error("PostgresStore ListPoints query failed", "error", err, "tripID", tripID)
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

func (s *PostgresStore) MarkPointVisited(ctx context.Context, pointID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE points SET visited = TRUE WHERE id = $1 AND visited = FALSE`, pointID)
	if err != nil {
		slog.Error("PostgresStore MarkPointVisited failed", "error", err, "pointID", pointID)
		return false, fmt.Errorf("failed to mark point %s visited: %w", pointID, err)
	}
	return affected(res)
}

func (s *PostgresStore) AddPointNote(ctx context.Context, pointID string, note string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE points SET notes = notes || to_jsonb($1::text) WHERE id = $2`, note, pointID)
	if err != nil {
		slog.Error("PostgresStore AddPointNote failed", "error", err, "pointID", pointID)
		return fmt.Errorf("failed to add note to point %s: %w", pointID, err)
	}
	return nil
}

func (s *PostgresStore) CreateRoute(ctx context.Context, route models.Route) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO routes (id, trip_id, point_id, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5)`,
		route.ID, route.TripID, route.PointID,
		route.StartDate.Format(models.DateLayout), route.EndDate.Format(models.DateLayout))
	if err != nil {
		slog.Error("PostgresStore CreateRoute failed", "error", err, "routeID", route.ID)
		return fmt.Errorf("failed to insert route %s: %w", route.ID, err)
	}
	return nil
}

func (s *PostgresStore) ListRoutes(ctx context.Context, tripID string) ([]models.Route, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trip_id, point_id, start_date, end_date
		FROM routes WHERE trip_id = $1 ORDER BY seq`, tripID)
	if err != nil {
		slog.Error("PostgresStore ListRoutes query failed", "error", err, "tripID", tripID)
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
func (s *PostgresStore) Close() error { return s.db.Close() }
