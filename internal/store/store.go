// Package store provides storage backends for TripWeaver.
//
// It includes an in-memory store and persistent SQLite and PostgreSQL
// implementations. All mutating operations are single atomic statements so
// concurrent chats never observe torn read-modify-write updates.
package store

import (
	"context"
	"strings"

	"github.com/tripweaver/tripweaver/internal/models"
)

// Opts holds configuration options for store implementations.
type Opts struct {
	// DSN is the database connection string (file path for SQLite).
	DSN string
}

// Option configures store construction.
type Option func(*Opts)

// DetectDSNType classifies a DSN as "postgres" or "sqlite3". URL-style and
// key=value PostgreSQL connection strings are postgres; everything else is
// treated as a SQLite file path.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite3"
}

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// Store is the persistence gateway consumed by the trip lifecycle coordinator
// and the geofence evaluator.
//
// Lookup methods return (nil, nil) when the entity does not exist; callers
// decide whether absence is an error. Conditional mutations report whether a
// row actually changed, which is how name-resolution races surface without
// read-modify-write cycles.
type Store interface {
	// GetOrCreateUser registers the chat on first contact. A concurrent
	// first-time registration is recovered transparently by re-reading the
	// existing record.
	GetOrCreateUser(ctx context.Context, chatID int64) (*models.User, error)
	GetUser(ctx context.Context, chatID int64) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUserLocation(ctx context.Context, chatID int64, lat, lon float64) error
	SetOngoingTrip(ctx context.Context, chatID int64, tripID string) error

	CreateTrip(ctx context.Context, trip models.Trip) error
	GetTrip(ctx context.Context, tripID string) (*models.Trip, error)
	// ListTrips returns the chat's trips restricted to the given statuses.
	// No statuses means all trips. Order is creation order.
	ListTrips(ctx context.Context, chatID int64, statuses ...models.TripStatus) ([]models.Trip, error)
	// SetTripStatus moves a trip to status `to` only if it currently has one
	// of the `from` statuses, and reports whether the transition happened.
	SetTripStatus(ctx context.Context, tripID string, to models.TripStatus, from ...models.TripStatus) (bool, error)
	// SetTripRating records a rating, only while the trip is FINISHED.
	SetTripRating(ctx context.Context, tripID string, rating int) (bool, error)
	AddTripNote(ctx context.Context, tripID string, note string) error
	// DeleteTrip removes the trip (and its points and routes) only while it
	// has one of the `from` statuses.
	DeleteTrip(ctx context.Context, tripID string, from ...models.TripStatus) (bool, error)

	CreatePoint(ctx context.Context, point models.Point) error
	ListPoints(ctx context.Context, tripID string) ([]models.Point, error)
	// MarkPointVisited flips the monotone visited flag and reports whether
	// the point was previously unvisited.
	MarkPointVisited(ctx context.Context, pointID string) (bool, error)
	AddPointNote(ctx context.Context, pointID string, note string) error
	CreateRoute(ctx context.Context, route models.Route) error
	ListRoutes(ctx context.Context, tripID string) ([]models.Route, error)

	Close() error
}
