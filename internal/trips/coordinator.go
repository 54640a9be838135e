// Package trips implements the trip lifecycle coordinator: it executes
// validated commands as atomic mutations against the store and answers the
// stateless query commands.
package trips

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/tripweaver/tripweaver/internal/models"
	"github.com/tripweaver/tripweaver/internal/store"
)

// Replies for name-resolution failures. These are business outcomes, not
// infrastructure errors, so they come back as ordinary reply text.
const (
	replyNoSuchTrip        = "No such trip! Create one with /plantrip or list your trips with /showplanned."
	replyNoSuchTripForMark = "Oops! No such trip. List your trips with /showplanned."
	replyNoSuchPoint       = "Oops! No such point. Create one with /addpoint."
	replyNoPlannedTrips    = "You have no planned trips. Create one with /plantrip first."
)

// Coordinator executes completed dialog commands and query operations. Every
// mutation is a single conditional store operation; there is no distributed
// transaction to roll back.
type Coordinator struct {
	store store.Store
	now   func() time.Time
}

// NewCoordinator creates a coordinator over the given store.
func NewCoordinator(st store.Store) *Coordinator {
	return &Coordinator{store: st, now: time.Now}
}

// NewCoordinatorWithClock creates a coordinator with a fixed clock for tests.
func NewCoordinatorWithClock(st store.Store, now func() time.Time) *Coordinator {
	return &Coordinator{store: st, now: now}
}

// Execute runs the terminal operation of a completed dialog. The returned
// text is the user-facing result; a non-nil error means a storage failure.
func (c *Coordinator) Execute(ctx context.Context, chatID int64, cmd models.Command, data map[models.DataKey]string) (string, error) {
	slog.Debug("Coordinator Execute", "chatID", chatID, "command", cmd)
	switch cmd {
	case models.CommandPlanTrip:
		return c.createTrip(ctx, chatID, data)
	case models.CommandAddPoint:
		return c.addPoint(ctx, chatID, data)
	case models.CommandAddRoute:
		return c.addRoute(ctx, chatID, data)
	case models.CommandFinishPlanning:
		return c.finishPlanning(ctx, chatID, data[models.DataKeyTripName])
	case models.CommandAddNote:
		return c.addNote(ctx, chatID, data[models.DataKeyTripName], data[models.DataKeyNote])
	case models.CommandMarkPoint:
		return c.markPointVisited(ctx, chatID, data[models.DataKeyTripName], data[models.DataKeyPointName])
	case models.CommandRateFinished:
		return c.rateFinished(ctx, chatID, data)
	case models.CommandDeletePlanned:
		return c.deletePlanned(ctx, chatID, data[models.DataKeyTripName])
	case models.CommandSetOngoing:
		return c.setOngoing(ctx, chatID, data[models.DataKeyTripName])
	default:
		return "", fmt.Errorf("unknown command %q", cmd)
	}
}

func (c *Coordinator) createTrip(ctx context.Context, chatID int64, data map[models.DataKey]string) (string, error) {
	start, err := time.Parse(models.DateLayout, data[models.DataKeyStartDate])
	if err != nil {
		return "", fmt.Errorf("invalid start date: %w", err)
	}
	end, err := time.Parse(models.DateLayout, data[models.DataKeyEndDate])
	if err != nil {
		return "", fmt.Errorf("invalid end date: %w", err)
	}
	// Date order is checked again at execution time, independent of the
	// step-level not-in-the-past check.
	if start.After(end) {
		return "The start date cannot be after the end date.", nil
	}

	if _, err := c.store.GetOrCreateUser(ctx, chatID); err != nil {
		return "", fmt.Errorf("failed to register user: %w", err)
	}
	trip := models.Trip{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Name:      data[models.DataKeyName],
		StartDate: start,
		EndDate:   end,
		Status:    models.StatusPlanned,
		CreatedAt: c.now(),
	}
	if err := c.store.CreateTrip(ctx, trip); err != nil {
		return "", fmt.Errorf("failed to create trip: %w", err)
	}
	slog.Info("Coordinator created trip", "chatID", chatID, "tripID", trip.ID, "name", trip.Name)
	return "Trip created successfully!", nil
}

func (c *Coordinator) addPoint(ctx context.Context, chatID int64, data map[models.DataKey]string) (string, error) {
	trip, err := c.resolvePlannedTrip(ctx, chatID, data[models.DataKeyTripName])
	if errors.Is(err, models.ErrNotFound) {
		return replyNoSuchTrip, nil
	}
	if err != nil {
		return "", err
	}
	lat, err := strconv.ParseFloat(data[models.DataKeyLatitude], 64)
	if err != nil {
		return "", fmt.Errorf("invalid latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(data[models.DataKeyLongitude], 64)
	if err != nil {
		return "", fmt.Errorf("invalid longitude: %w", err)
	}
	point := models.Point{
		ID:        uuid.NewString(),
		TripID:    trip.ID,
		Name:      data[models.DataKeyPointName],
		Latitude:  lat,
		Longitude: lon,
	}
	if err := c.store.CreatePoint(ctx, point); err != nil {
		return "", fmt.Errorf("failed to create point: %w", err)
	}
	slog.Info("Coordinator added point", "chatID", chatID, "tripID", trip.ID, "pointID", point.ID)
	return fmt.Sprintf("Point %q added.", point.Name), nil
}

func (c *Coordinator) addRoute(ctx context.Context, chatID int64, data map[models.DataKey]string) (string, error) {
	trip, err := c.resolvePlannedTrip(ctx, chatID, data[models.DataKeyTripName])
	if errors.Is(err, models.ErrNotFound) {
		return replyNoSuchTrip, nil
	}
	if err != nil {
		return "", err
	}
	point, err := c.resolvePoint(ctx, trip.ID, data[models.DataKeyPointName])
	if errors.Is(err, models.ErrNotFound) {
		return "No point with that name exists in the trip. Create one with /addpoint.", nil
	}
	if err != nil {
		return "", err
	}
	date, err := time.Parse(models.DateLayout, data[models.DataKeyRouteDate])
	if err != nil {
		return "", fmt.Errorf("invalid route date: %w", err)
	}
	route := models.Route{
		ID:        uuid.NewString(),
		TripID:    trip.ID,
		PointID:   point.ID,
		StartDate: date,
		EndDate:   date,
	}
	if err := c.store.CreateRoute(ctx, route); err != nil {
		return "", fmt.Errorf("failed to create route: %w", err)
	}
	slog.Info("Coordinator added route", "chatID", chatID, "tripID", trip.ID, "pointID", point.ID)
	return fmt.Sprintf("Route added for %s.", data[models.DataKeyRouteDate]), nil
}

func (c *Coordinator) finishPlanning(ctx context.Context, chatID int64, tripName string) (string, error) {
	planned, err := c.store.ListTrips(ctx, chatID, models.StatusPlanning, models.StatusPlanned)
	if err != nil {
		return "", fmt.Errorf("failed to list planned trips: %w", err)
	}
	if len(planned) == 0 {
		return replyNoPlannedTrips, nil
	}
	trip := firstByName(planned, tripName)
	if trip == nil {
		return fmt.Sprintf("No trip named %q was found. Check the name and try again.", tripName), nil
	}
	moved, err := c.store.SetTripStatus(ctx, trip.ID, models.StatusFinished, models.StatusPlanning, models.StatusPlanned)
	if err != nil {
		return "", fmt.Errorf("failed to finish planning: %w", err)
	}
	if !moved {
		// Lost a race with a concurrent finish or delete of the same trip.
		return fmt.Sprintf("No trip named %q was found. Check the name and try again.", tripName), nil
	}
	slog.Info("Coordinator finished planning", "chatID", chatID, "tripID", trip.ID)
	return "Glad you had a good trip! If you like, add a note about your journey with /addnote.", nil
}

func (c *Coordinator) addNote(ctx context.Context, chatID int64, tripName, note string) (string, error) {
	trip, err := c.resolveAnyTrip(ctx, chatID, tripName)
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Sprintf("No trip named %q was found.", tripName), nil
	}
	if err != nil {
		return "", err
	}
	if err := c.store.AddTripNote(ctx, trip.ID, note); err != nil {
		return "", fmt.Errorf("failed to add note: %w", err)
	}
	slog.Info("Coordinator added note", "chatID", chatID, "tripID", trip.ID)
	return fmt.Sprintf("Note added to trip %q.", trip.Name), nil
}

func (c *Coordinator) markPointVisited(ctx context.Context, chatID int64, tripName, pointName string) (string, error) {
	trip, err := c.resolveAnyTrip(ctx, chatID, tripName)
	if errors.Is(err, models.ErrNotFound) {
		return replyNoSuchTripForMark, nil
	}
	if err != nil {
		return "", err
	}
	point, err := c.resolvePoint(ctx, trip.ID, pointName)
	if errors.Is(err, models.ErrNotFound) {
		return replyNoSuchPoint, nil
	}
	if err != nil {
		return "", err
	}
	if _, err := c.store.MarkPointVisited(ctx, point.ID); err != nil {
		return "", fmt.Errorf("failed to mark point visited: %w", err)
	}
	slog.Info("Coordinator marked point visited", "chatID", chatID, "tripID", trip.ID, "pointID", point.ID)
	return fmt.Sprintf("Point %q marked as visited.", point.Name), nil
}

// MarkArrival records that the user physically reached a point. It returns
// true only when the point transitioned from unvisited to visited, so callers
// can notify at most once per point.
func (c *Coordinator) MarkArrival(ctx context.Context, pointID string) (bool, error) {
	changed, err := c.store.MarkPointVisited(ctx, pointID)
	if err != nil {
		return false, fmt.Errorf("failed to mark arrival: %w", err)
	}
	return changed, nil
}

func (c *Coordinator) rateFinished(ctx context.Context, chatID int64, data map[models.DataKey]string) (string, error) {
	tripName := data[models.DataKeyTripName]
	rating, err := strconv.Atoi(data[models.DataKeyRating])
	if err != nil {
		return "", fmt.Errorf("invalid rating: %w", err)
	}
	finished, err := c.store.ListTrips(ctx, chatID, models.StatusFinished)
	if err != nil {
		return "", fmt.Errorf("failed to list finished trips: %w", err)
	}
	trip := firstByName(finished, tripName)
	if trip == nil {
		return fmt.Sprintf("Trip %q was not found among your finished trips. Make sure it was finished with /finishplanning.", tripName), nil
	}
	rated, err := c.store.SetTripRating(ctx, trip.ID, rating)
	if err != nil {
		return "", fmt.Errorf("failed to rate trip: %w", err)
	}
	if !rated {
		return fmt.Sprintf("Trip %q was not found among your finished trips. Make sure it was finished with /finishplanning.", tripName), nil
	}
	slog.Info("Coordinator rated trip", "chatID", chatID, "tripID", trip.ID, "rating", rating)
	return fmt.Sprintf("Thanks for the rating! Your trip %q is rated %d ⭐", trip.Name, rating), nil
}

func (c *Coordinator) deletePlanned(ctx context.Context, chatID int64, tripName string) (string, error) {
	trip, err := c.resolvePlannedTrip(ctx, chatID, tripName)
	if errors.Is(err, models.ErrNotFound) {
		return replyNoSuchTrip, nil
	}
	if err != nil {
		return "", err
	}
	deleted, err := c.store.DeleteTrip(ctx, trip.ID, models.StatusPlanning, models.StatusPlanned)
	if err != nil {
		return "", fmt.Errorf("failed to delete trip: %w", err)
	}
	if !deleted {
		return replyNoSuchTrip, nil
	}
	slog.Info("Coordinator deleted planned trip", "chatID", chatID, "tripID", trip.ID)
	return fmt.Sprintf("Trip %q deleted.", trip.Name), nil
}

func (c *Coordinator) setOngoing(ctx context.Context, chatID int64, tripName string) (string, error) {
	trip, err := c.resolvePlannedTrip(ctx, chatID, tripName)
	if errors.Is(err, models.ErrNotFound) {
		return replyNoSuchTrip, nil
	}
	if err != nil {
		return "", err
	}
	moved, err := c.store.SetTripStatus(ctx, trip.ID, models.StatusOngoing, models.StatusPlanning, models.StatusPlanned)
	if err != nil {
		return "", fmt.Errorf("failed to set trip ongoing: %w", err)
	}
	if !moved {
		return replyNoSuchTrip, nil
	}
	if err := c.store.SetOngoingTrip(ctx, chatID, trip.ID); err != nil {
		return "", fmt.Errorf("failed to set ongoing trip ref: %w", err)
	}
	slog.Info("Coordinator set trip ongoing", "chatID", chatID, "tripID", trip.ID)
	return fmt.Sprintf("Trip %q is now active. Keep sharing your location to track your waypoints.", trip.Name), nil
}

// resolvePlannedTrip finds the first planned trip of the chat with the given
// name. Names are not unique; the first match in creation order wins.
func (c *Coordinator) resolvePlannedTrip(ctx context.Context, chatID int64, name string) (*models.Trip, error) {
	trips, err := c.store.ListTrips(ctx, chatID, models.StatusPlanning, models.StatusPlanned)
	if err != nil {
		return nil, fmt.Errorf("failed to list planned trips: %w", err)
	}
	if trip := firstByName(trips, name); trip != nil {
		return trip, nil
	}
	return nil, models.ErrNotFound
}

// resolveAnyTrip searches planned, ongoing and finished trips alike.
func (c *Coordinator) resolveAnyTrip(ctx context.Context, chatID int64, name string) (*models.Trip, error) {
	trips, err := c.store.ListTrips(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	if trip := firstByName(trips, name); trip != nil {
		return trip, nil
	}
	return nil, models.ErrNotFound
}

func (c *Coordinator) resolvePoint(ctx context.Context, tripID, name string) (*models.Point, error) {
	points, err := c.store.ListPoints(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list points: %w", err)
	}
	for i := range points {
		if points[i].Name == name {
			return &points[i], nil
		}
	}
	return nil, models.ErrNotFound
}

func firstByName(trips []models.Trip, name string) *models.Trip {
	for i := range trips {
		if trips[i].Name == name {
			return &trips[i]
		}
	}
	return nil
}
