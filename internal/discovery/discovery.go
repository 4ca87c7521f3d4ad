// Package discovery composes the ride search a passenger sees: every
// active offer except the viewer's own, optionally narrowed to an
// exact origin and destination.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/ride-share/internal/models"
	"github.com/example/ride-share/internal/storage"
)

var ErrUnauthenticated = errors.New("viewer identity required")

// Params narrows the offer listing. Origin and Destination are
// exact-match place names, not substrings.
type Params struct {
	ViewerID    string
	Origin      string
	Destination string
}

type Service struct {
	Store storage.RideStore
}

// ListOpenOffers returns active offers not owned by the viewer,
// ordered by owner id and then departure time. The owner field leads
// the order because it carries the inequality predicate; the store
// contract requires exactly that sort.
func (s *Service) ListOpenOffers(ctx context.Context, p Params) ([]models.RideOffer, error) {
	if strings.TrimSpace(p.ViewerID) == "" {
		return nil, ErrUnauthenticated
	}

	f := storage.OfferFilter{
		Status:       models.OfferActive,
		ExcludeOwner: p.ViewerID,
		Origin:       strings.TrimSpace(p.Origin),
		Destination:  strings.TrimSpace(p.Destination),
	}

	offers, err := s.Store.ListOffers(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	for i := range offers {
		offers[i].DepartureAt = offers[i].DepartureAt.UTC()
	}
	return offers, nil
}
