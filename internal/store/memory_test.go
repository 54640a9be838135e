package store

import (
	"context"
	"testing"
	"time"

	"github.com/tripweaver/tripweaver/internal/models"
)

func memTrip(id string, chatID int64, name string, status models.TripStatus) models.Trip {
	return models.Trip{
		ID:        id,
		ChatID:    chatID,
		Name:      name,
		StartDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		Status:    status,
		CreatedAt: time.Now(),
	}
}

func TestInMemoryUserLifecycle(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	if user, err := s.GetUser(ctx, 42); err != nil || user != nil {
		t.Fatalf("absent user: got (%v, %v), want (nil, nil)", user, err)
	}

	created, err := s.GetOrCreateUser(ctx, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	again, err := s.GetOrCreateUser(ctx, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ChatID != again.ChatID || !created.CreatedAt.Equal(again.CreatedAt) {
		t.Error("second registration should return the existing record")
	}

	if err := s.UpdateUserLocation(ctx, 42, 1.5, 2.5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	user, _ := s.GetUser(ctx, 42)
	if user.LastLocation == nil || user.LastLocation.Latitude != 1.5 {
		t.Errorf("last location = %+v", user.LastLocation)
	}
}

func TestInMemorySetTripStatusConditional(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	if err := s.CreateTrip(ctx, memTrip("t1", 42, "Paris", models.StatusPlanned)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	moved, err := s.SetTripStatus(ctx, "t1", models.StatusOngoing, models.StatusPlanning, models.StatusPlanned)
	if err != nil || !moved {
		t.Fatalf("expected transition, got (%v, %v)", moved, err)
	}
	// Repeating the same guarded transition must fail now.
	moved, err = s.SetTripStatus(ctx, "t1", models.StatusOngoing, models.StatusPlanning, models.StatusPlanned)
	if err != nil || moved {
		t.Fatalf("guarded transition from wrong status: got (%v, %v)", moved, err)
	}
	// An empty guard means unconditional.
	moved, err = s.SetTripStatus(ctx, "t1", models.StatusFinished)
	if err != nil || !moved {
		t.Fatalf("unconditional transition: got (%v, %v)", moved, err)
	}
	moved, _ = s.SetTripStatus(ctx, "missing", models.StatusFinished)
	if moved {
		t.Error("transition of a missing trip must report false")
	}
}

func TestInMemorySetTripRatingRequiresFinished(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	if err := s.CreateTrip(ctx, memTrip("t1", 42, "Paris", models.StatusPlanned)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rated, _ := s.SetTripRating(ctx, "t1", 4); rated {
		t.Error("rating a non-finished trip must report false")
	}
	if _, err := s.SetTripStatus(ctx, "t1", models.StatusFinished); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rated, _ := s.SetTripRating(ctx, "t1", 4); !rated {
		t.Error("rating a finished trip must succeed")
	}
	trip, _ := s.GetTrip(ctx, "t1")
	if trip.Rating != 4 {
		t.Errorf("rating = %d, want 4", trip.Rating)
	}
}

func TestInMemoryMarkPointVisitedIsMonotone(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	if err := s.CreatePoint(ctx, models.Point{ID: "p1", TripID: "t1", Name: "Louvre"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first, err := s.MarkPointVisited(ctx, "p1")
	if err != nil || !first {
		t.Fatalf("first mark: got (%v, %v)", first, err)
	}
	second, err := s.MarkPointVisited(ctx, "p1")
	if err != nil || second {
		t.Fatalf("second mark must report false, got (%v, %v)", second, err)
	}
}

func TestInMemoryDeleteTripCascades(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	if err := s.CreateTrip(ctx, memTrip("t1", 42, "Paris", models.StatusPlanned)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.CreatePoint(ctx, models.Point{ID: "p1", TripID: "t1", Name: "Louvre"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.CreateRoute(ctx, models.Route{ID: "r1", TripID: "t1", PointID: "p1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deleted, err := s.DeleteTrip(ctx, "t1", models.StatusPlanning, models.StatusPlanned)
	if err != nil || !deleted {
		t.Fatalf("expected deletion, got (%v, %v)", deleted, err)
	}
	if points, _ := s.ListPoints(ctx, "t1"); len(points) != 0 {
		t.Error("points not cascaded")
	}
	if routes, _ := s.ListRoutes(ctx, "t1"); len(routes) != 0 {
		t.Error("routes not cascaded")
	}
}

func TestInMemoryListTripsFiltersAndPreservesOrder(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	for _, trip := range []models.Trip{
		memTrip("t1", 42, "First", models.StatusPlanned),
		memTrip("t2", 42, "Second", models.StatusFinished),
		memTrip("t3", 42, "Third", models.StatusPlanned),
		memTrip("t4", 7, "Other", models.StatusPlanned),
	} {
		if err := s.CreateTrip(ctx, trip); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	planned, err := s.ListTrips(ctx, 42, models.StatusPlanned)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(planned) != 2 || planned[0].ID != "t1" || planned[1].ID != "t3" {
		t.Errorf("planned = %+v", planned)
	}
	all, _ := s.ListTrips(ctx, 42)
	if len(all) != 3 {
		t.Errorf("got %d trips for chat 42, want 3", len(all))
	}
}

func TestInMemoryReturnsClones(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	if err := s.CreateTrip(ctx, memTrip("t1", 42, "Paris", models.StatusPlanned)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	trip, _ := s.GetTrip(ctx, "t1")
	trip.Name = "Mutated"
	trip.Notes = append(trip.Notes, "scribble")

	reread, _ := s.GetTrip(ctx, "t1")
	if reread.Name != "Paris" || len(reread.Notes) != 0 {
		t.Errorf("store state leaked through a returned value: %+v", reread)
	}
}
