package trips

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tripweaver/tripweaver/internal/models"
)

const welcomeReply = "Hi! Welcome to TripWeaver ✈️\nSend /help to see the available commands."

const helpReply = "Available commands:\n" +
	"\n📍 Planning:\n" +
	"/showplanned — show planned trips\n" +
	"/plantrip — create a trip\n" +
	"/addpoint — add a point\n" +
	"/addroute — add a route\n" +
	"/finishplanning — finish planning\n" +
	"/deleteplanned — delete a trip\n" +
	"\n🗺 On the road:\n" +
	"/showongoingtrip — current trip\n" +
	"/addnote — add a note to a trip\n" +
	"/markpoint — mark a point as visited\n" +
	"/setongoing — start location tracking\n" +
	"\n📖 History:\n" +
	"/triphistory — finished trips\n" +
	"/finisheddetails — trip details\n" +
	"/ratefinished — rate a trip"

// RegisterUser creates the chat's user record on first contact and returns
// the welcome reply.
func (c *Coordinator) RegisterUser(ctx context.Context, chatID int64) (string, error) {
	if _, err := c.store.GetOrCreateUser(ctx, chatID); err != nil {
		return "", fmt.Errorf("failed to register user: %w", err)
	}
	slog.Info("Coordinator registered user", "chatID", chatID)
	return welcomeReply, nil
}

// Help returns the command listing.
func (c *Coordinator) Help() string { return helpReply }

// ShowPlanned lists the chat's planned trips.
func (c *Coordinator) ShowPlanned(ctx context.Context, chatID int64) (string, error) {
	planned, err := c.store.ListTrips(ctx, chatID, models.StatusPlanning, models.StatusPlanned)
	if err != nil {
		return "", fmt.Errorf("failed to list planned trips: %w", err)
	}
	if len(planned) == 0 {
		return "You have no planned trips.", nil
	}
	return formatTripList("Planned trips:", planned), nil
}

// ShowOngoing lists the chat's trips whose date range covers today.
func (c *Coordinator) ShowOngoing(ctx context.Context, chatID int64) (string, error) {
	trips, err := c.store.ListTrips(ctx, chatID, models.StatusPlanned, models.StatusOngoing)
	if err != nil {
		return "", fmt.Errorf("failed to list trips: %w", err)
	}
	today := c.now()
	var active []models.Trip
	for _, trip := range trips {
		if trip.CoversDate(today) {
			active = append(active, trip)
		}
	}
	if len(active) == 0 {
		return "You have no active trips today.", nil
	}
	return formatTripList("Active trips today:", active), nil
}

// TripHistory lists the chat's finished trips.
func (c *Coordinator) TripHistory(ctx context.Context, chatID int64) (string, error) {
	finished, err := c.store.ListTrips(ctx, chatID, models.StatusFinished)
	if err != nil {
		return "", fmt.Errorf("failed to list finished trips: %w", err)
	}
	if len(finished) == 0 {
		return "You have no finished trips.", nil
	}
	return formatTripList("Finished trips:", finished), nil
}

// FinishedDetails renders the detail view of the named finished trip, or of
// every finished trip when name is empty.
func (c *Coordinator) FinishedDetails(ctx context.Context, chatID int64, name string) (string, error) {
	finished, err := c.store.ListTrips(ctx, chatID, models.StatusFinished)
	if err != nil {
		return "", fmt.Errorf("failed to list finished trips: %w", err)
	}
	if len(finished) == 0 {
		return "You have no finished trips.", nil
	}
	if name != "" {
		trip := firstByName(finished, name)
		if trip == nil {
			return fmt.Sprintf("Trip %q was not found among your finished trips.", name), nil
		}
		finished = []models.Trip{*trip}
	}

	var sb strings.Builder
	sb.WriteString("Details of finished trips:\n")
	for _, trip := range finished {
		points, err := c.store.ListPoints(ctx, trip.ID)
		if err != nil {
			return "", fmt.Errorf("failed to list points: %w", err)
		}
		sb.WriteString("\n")
		formatTripDetails(&sb, trip, points)
	}
	return sb.String(), nil
}
