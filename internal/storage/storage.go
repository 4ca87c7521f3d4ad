package storage

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/ride-share/internal/models"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("email already registered")
)

// OfferFilter is the predicate set the discovery composer builds.
// Origin and Destination are exact-match refinements; empty means
// unfiltered. ExcludeOwner carries the owner != viewer inequality.
type OfferFilter struct {
	Status       string
	ExcludeOwner string
	Origin       string
	Destination  string
}

// RideStore defines persistence operations for ride offers.
//
// ListOffers must return results ordered by owner id ascending and
// then departure time ascending. The inequality predicate in
// OfferFilter requires its field to lead the sort; callers depend on
// that exact order.
type RideStore interface {
	CreateOffer(ctx context.Context, o *models.RideOffer) error
	GetOffer(ctx context.Context, id string) (models.RideOffer, error)
	ListOffers(ctx context.Context, f OfferFilter) ([]models.RideOffer, error)
	// ReplaceRequests overwrites the offer's full request list. It is a
	// plain write, not an atomic append.
	ReplaceRequests(ctx context.Context, offerID string, reqs []models.RideRequest) error
	// UpdateOffer overwrites every mutable field of the offer.
	UpdateOffer(ctx context.Context, o models.RideOffer) error
}

// UserStore defines persistence operations for accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

// MemoryRideStore backs local runs and tests.
type MemoryRideStore struct {
	mu     sync.RWMutex
	offers map[string]models.RideOffer
}

func NewMemoryRideStore() *MemoryRideStore {
	return &MemoryRideStore{offers: make(map[string]models.RideOffer)}
}

func (m *MemoryRideStore) CreateOffer(ctx context.Context, o *models.RideOffer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.CreatedAt = time.Now().UTC()
	m.offers[o.ID] = cloneOffer(*o)
	return nil
}

func (m *MemoryRideStore) GetOffer(ctx context.Context, id string) (models.RideOffer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.offers[id]
	if !ok {
		return models.RideOffer{}, ErrNotFound
	}
	return cloneOffer(o), nil
}

func (m *MemoryRideStore) ListOffers(ctx context.Context, f OfferFilter) ([]models.RideOffer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.RideOffer, 0, len(m.offers))
	for _, o := range m.offers {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.ExcludeOwner != "" && o.OwnerID == f.ExcludeOwner {
			continue
		}
		if f.Origin != "" && o.Origin != f.Origin {
			continue
		}
		if f.Destination != "" && o.Destination != f.Destination {
			continue
		}
		out = append(out, cloneOffer(o))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OwnerID != out[j].OwnerID {
			return out[i].OwnerID < out[j].OwnerID
		}
		return out[i].DepartureAt.Before(out[j].DepartureAt)
	})
	return out, nil
}

func (m *MemoryRideStore) ReplaceRequests(ctx context.Context, offerID string, reqs []models.RideRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.offers[offerID]
	if !ok {
		return ErrNotFound
	}
	o.Requests = append([]models.RideRequest(nil), reqs...)
	m.offers[offerID] = o
	return nil
}

func (m *MemoryRideStore) UpdateOffer(ctx context.Context, o models.RideOffer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.offers[o.ID]; !ok {
		return ErrNotFound
	}
	m.offers[o.ID] = cloneOffer(o)
	return nil
}

func cloneOffer(o models.RideOffer) models.RideOffer {
	o.Requests = append([]models.RideRequest(nil), o.Requests...)
	return o
}

// MemoryUserStore backs local runs and tests.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]models.User)}
}

func (m *MemoryUserStore) CreateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrEmailTaken
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now().UTC()
	m.users[u.ID] = *u
	return nil
}

func (m *MemoryUserStore) GetUser(ctx context.Context, id string) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u, nil
}

func (m *MemoryUserStore) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}
