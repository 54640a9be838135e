package geofence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tripweaver/tripweaver/internal/models"
	"github.com/tripweaver/tripweaver/internal/store"
)

// NotificationSink delivers proximity notifications to a chat. The Telegram
// messaging service satisfies this interface.
type NotificationSink interface {
	SendMessage(ctx context.Context, chatID int64, body string) error
}

// ArrivalMarker records that a point was physically reached. The trip
// lifecycle coordinator satisfies this interface.
type ArrivalMarker interface {
	MarkArrival(ctx context.Context, pointID string) (bool, error)
}

// Evaluator checks reported positions against the unvisited waypoints of a
// chat's ongoing trip, and runs the periodic proximity and upcoming-trip
// sweeps.
type Evaluator struct {
	store    store.Store
	marker   ArrivalMarker
	sink     NotificationSink
	radiusKm float64
	now      func() time.Time
}

// NewEvaluator creates an Evaluator with the given arrival radius in
// kilometers. A non-positive radius falls back to DefaultRadiusKm.
func NewEvaluator(s store.Store, marker ArrivalMarker, sink NotificationSink, radiusKm float64) *Evaluator {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	return &Evaluator{store: s, marker: marker, sink: sink, radiusKm: radiusKm, now: time.Now}
}

// NewEvaluatorWithClock is NewEvaluator with an injectable clock for tests.
func NewEvaluatorWithClock(s store.Store, marker ArrivalMarker, sink NotificationSink, radiusKm float64, now func() time.Time) *Evaluator {
	e := NewEvaluator(s, marker, sink, radiusKm)
	e.now = now
	return e
}

// OnLocation handles a live position report from a chat. If the chat has an
// ongoing trip and the position is within the arrival radius of one or more
// unvisited points, the nearest such point is marked visited and exactly one
// notification is sent. The position is always persisted as the chat's last
// known location.
func (e *Evaluator) OnLocation(ctx context.Context, chatID int64, lat, lon float64) error {
	if err := e.store.UpdateUserLocation(ctx, chatID, lat, lon); err != nil {
		return fmt.Errorf("failed to persist location for chat %d: %w", chatID, err)
	}

	user, err := e.store.GetUser(ctx, chatID)
	if err != nil {
		return fmt.Errorf("failed to load user %d: %w", chatID, err)
	}
	if user == nil || user.OngoingTripID == "" {
		return nil
	}

	point, dist, ok, err := e.nearestUnvisited(ctx, user.OngoingTripID, lat, lon)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	changed, err := e.marker.MarkArrival(ctx, point.ID)
	if err != nil {
		return err
	}
	if !changed {
		// Lost a race with a concurrent report for the same point; the
		// winner already notified.
		return nil
	}
	slog.Info("Evaluator detected arrival", "chatID", chatID, "pointID", point.ID, "distanceKm", dist)
	body := fmt.Sprintf("You have reached %q! The point is marked as visited.", point.Name)
	if err := e.sink.SendMessage(ctx, chatID, body); err != nil {
		return fmt.Errorf("failed to send arrival notification to chat %d: %w", chatID, err)
	}
	return nil
}

// RunNearbySweep notifies every user with an active trip today about
// unvisited points within the arrival radius of their last known location.
// The sweep never marks points visited; only live reports do that. A failure
// for one user is logged and does not stop the sweep.
func (e *Evaluator) RunNearbySweep(ctx context.Context) {
	users, err := e.store.ListUsers(ctx)
	if err != nil {
		slog.Error("Evaluator failed to list users for nearby sweep", "error", err)
		return
	}
	today := e.today()
	for _, user := range users {
		if err := e.sweepUserNearby(ctx, user, today); err != nil {
			slog.Error("Evaluator nearby sweep failed for user", "chatID", user.ChatID, "error", err)
		}
	}
}

func (e *Evaluator) sweepUserNearby(ctx context.Context, user models.User, today time.Time) error {
	if user.LastLocation == nil {
		return nil
	}
	trips, err := e.store.ListTrips(ctx, user.ChatID, models.StatusOngoing)
	if err != nil {
		return fmt.Errorf("failed to list ongoing trips: %w", err)
	}
	for _, trip := range trips {
		if !trip.CoversDate(today) {
			continue
		}
		point, dist, ok, err := e.nearestUnvisited(ctx, trip.ID, user.LastLocation.Latitude, user.LastLocation.Longitude)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		body := fmt.Sprintf("You are close to %q (%.2f km away). Don't miss it!", point.Name, dist)
		if err := e.sink.SendMessage(ctx, user.ChatID, body); err != nil {
			return fmt.Errorf("failed to send nearby notification: %w", err)
		}
	}
	return nil
}

// RunUpcomingSweep notifies every user about planned trips starting tomorrow.
// A failure for one user is logged and does not stop the sweep.
func (e *Evaluator) RunUpcomingSweep(ctx context.Context) {
	users, err := e.store.ListUsers(ctx)
	if err != nil {
		slog.Error("Evaluator failed to list users for upcoming sweep", "error", err)
		return
	}
	tomorrow := e.today().AddDate(0, 0, 1)
	for _, user := range users {
		if err := e.sweepUserUpcoming(ctx, user, tomorrow); err != nil {
			slog.Error("Evaluator upcoming sweep failed for user", "chatID", user.ChatID, "error", err)
		}
	}
}

func (e *Evaluator) sweepUserUpcoming(ctx context.Context, user models.User, tomorrow time.Time) error {
	trips, err := e.store.ListTrips(ctx, user.ChatID, models.StatusPlanned)
	if err != nil {
		return fmt.Errorf("failed to list planned trips: %w", err)
	}
	for _, trip := range trips {
		if !trip.StartDate.Equal(tomorrow) {
			continue
		}
		body := fmt.Sprintf("Your trip %q starts tomorrow. Have a great journey!", trip.Name)
		if err := e.sink.SendMessage(ctx, user.ChatID, body); err != nil {
			return fmt.Errorf("failed to send upcoming notification: %w", err)
		}
	}
	return nil
}

// nearestUnvisited returns the closest unvisited point of the trip within the
// arrival radius. ok is false when no point qualifies.
func (e *Evaluator) nearestUnvisited(ctx context.Context, tripID string, lat, lon float64) (models.Point, float64, bool, error) {
	points, err := e.store.ListPoints(ctx, tripID)
	if err != nil {
		return models.Point{}, 0, false, fmt.Errorf("failed to list points for trip %s: %w", tripID, err)
	}
	var (
		best     models.Point
		bestDist float64
		found    bool
	)
	for _, point := range points {
		if point.Visited {
			continue
		}
		// Positive comparison so a NaN distance never qualifies.
		d := Distance(lat, lon, point.Latitude, point.Longitude)
		if d <= e.radiusKm && (!found || d < bestDist) {
			best, bestDist, found = point, d, true
		}
	}
	return best, bestDist, found, nil
}

func (e *Evaluator) today() time.Time {
	return e.now().Truncate(24 * time.Hour)
}
