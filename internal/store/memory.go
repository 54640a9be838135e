package store

import (
	"context"
	"sync"
	"time"

	"github.com/tripweaver/tripweaver/internal/models"
)

// InMemoryStore is a mutex-guarded map-backed store. It backs tests and
// development runs without a database.
type InMemoryStore struct {
	mu     sync.Mutex
	users  map[int64]*models.User
	trips  map[string]*models.Trip
	points map[string]*models.Point
	routes map[string]*models.Route
	// creation order for deterministic listings
	tripOrder  []string
	pointOrder []string
	routeOrder []string
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:  make(map[int64]*models.User),
		trips:  make(map[string]*models.Trip),
		points: make(map[string]*models.Point),
		routes: make(map[string]*models.Route),
	}
}

func (s *InMemoryStore) GetOrCreateUser(ctx context.Context, chatID int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[chatID]; ok {
		return cloneUser(user), nil
	}
	now := time.Now()
	user := &models.User{ChatID: chatID, CreatedAt: now, UpdatedAt: now}
	s.users[chatID] = user
	return cloneUser(user), nil
}

func (s *InMemoryStore) GetUser(ctx context.Context, chatID int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[chatID]
	if !ok {
		return nil, nil
	}
	return cloneUser(user), nil
}

func (s *InMemoryStore) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, *cloneUser(u))
	}
	return users, nil
}

func (s *InMemoryStore) UpdateUserLocation(ctx context.Context, chatID int64, lat, lon float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[chatID]
	if !ok {
		return nil
	}
	user.LastLocation = &models.Location{Latitude: lat, Longitude: lon}
	user.UpdatedAt = time.Now()
	return nil
}

func (s *InMemoryStore) SetOngoingTrip(ctx context.Context, chatID int64, tripID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[chatID]
	if !ok {
		return nil
	}
	user.OngoingTripID = tripID
	user.UpdatedAt = time.Now()
	return nil
}

func (s *InMemoryStore) CreateTrip(ctx context.Context, trip models.Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := trip
	s.trips[trip.ID] = &t
	s.tripOrder = append(s.tripOrder, trip.ID)
	return nil
}

func (s *InMemoryStore) GetTrip(ctx context.Context, tripID string) (*models.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	trip, ok := s.trips[tripID]
	if !ok {
		return nil, nil
	}
	return cloneTrip(trip), nil
}

func (s *InMemoryStore) ListTrips(ctx context.Context, chatID int64, statuses ...models.TripStatus) ([]models.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var trips []models.Trip
	for _, id := range s.tripOrder {
		trip, ok := s.trips[id]
		if !ok || trip.ChatID != chatID {
			continue
		}
		if len(statuses) > 0 && !statusIn(trip.Status, statuses) {
			continue
		}
		trips = append(trips, *cloneTrip(trip))
	}
	return trips, nil
}

func (s *InMemoryStore) SetTripStatus(ctx context.Context, tripID string, to models.TripStatus, from ...models.TripStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	trip, ok := s.trips[tripID]
	if !ok || (len(from) > 0 && !statusIn(trip.Status, from)) {
		return false, nil
	}
	trip.Status = to
	return true, nil
}

func (s *InMemoryStore) SetTripRating(ctx context.Context, tripID string, rating int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	trip, ok := s.trips[tripID]
	if !ok || trip.Status != models.StatusFinished {
		return false, nil
	}
	trip.Rating = rating
	return true, nil
}

func (s *InMemoryStore) AddTripNote(ctx context.Context, tripID string, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	trip, ok := s.trips[tripID]
	if !ok {
		return nil
	}
	trip.Notes = append(trip.Notes, note)
	return nil
}

func (s *InMemoryStore) DeleteTrip(ctx context.Context, tripID string, from ...models.TripStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	trip, ok := s.trips[tripID]
	if !ok || (len(from) > 0 && !statusIn(trip.Status, from)) {
		return false, nil
	}
	delete(s.trips, tripID)
	for id, p := range s.points {
		if p.TripID == tripID {
			delete(s.points, id)
		}
	}
	for id, r := range s.routes {
		if r.TripID == tripID {
			delete(s.routes, id)
		}
	}
	return true, nil
}

func (s *InMemoryStore) CreatePoint(ctx context.Context, point models.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := point
	s.points[point.ID] = &p
	s.pointOrder = append(s.pointOrder, point.ID)
	return nil
}

func (s *InMemoryStore) ListPoints(ctx context.Context, tripID string) ([]models.Point, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var points []models.Point
	for _, id := range s.pointOrder {
		point, ok := s.points[id]
		if !ok || point.TripID != tripID {
			continue
		}
		points = append(points, *clonePoint(point))
	}
	return points, nil
}

func (s *InMemoryStore) MarkPointVisited(ctx context.Context, pointID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	point, ok := s.points[pointID]
	if !ok || point.Visited {
		return false, nil
	}
	point.Visited = true
	return true, nil
}

func (s *InMemoryStore) AddPointNote(ctx context.Context, pointID string, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	point, ok := s.points[pointID]
	if !ok {
		return nil
	}
	point.Notes = append(point.Notes, note)
	return nil
}

func (s *InMemoryStore) CreateRoute(ctx context.Context, route models.Route) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := route
	s.routes[route.ID] = &r
	s.routeOrder = append(s.routeOrder, route.ID)
	return nil
}

func (s *InMemoryStore) ListRoutes(ctx context.Context, tripID string) ([]models.Route, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var routes []models.Route
	for _, id := range s.routeOrder {
		route, ok := s.routes[id]
		if !ok || route.TripID != tripID {
			continue
		}
		r := *route
		routes = append(routes, r)
	}
	return routes, nil
}

func (s *InMemoryStore) Close() error { return nil }

func statusIn(status models.TripStatus, set []models.TripStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

func cloneUser(u *models.User) *models.User {
	clone := *u
	if u.LastLocation != nil {
		loc := *u.LastLocation
		clone.LastLocation = &loc
	}
	return &clone
}

func cloneTrip(t *models.Trip) *models.Trip {
	clone := *t
	clone.Notes = append([]string(nil), t.Notes...)
	return &clone
}

func clonePoint(p *models.Point) *models.Point {
	clone := *p
	clone.Notes = append([]string(nil), p.Notes...)
	return &clone
}
