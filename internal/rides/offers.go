// Package rides owns the write paths of the offer lifecycle:
// publishing an offer, attaching passenger requests, and the driver's
// acceptance step.
package rides

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/example/ride-share/internal/models"
	"github.com/example/ride-share/internal/observability"
	"github.com/example/ride-share/internal/storage"
)

// EventPublisher receives a ride event after a successful write.
// Publishing is best-effort and never fails the originating call.
type EventPublisher interface {
	Publish(ctx context.Context, ev models.RideEvent) error
}

// Notifier pushes a payload to a connected user, if any.
type Notifier interface {
	Notify(userID string, payload any)
}

// PaymentHolder places a manual-capture hold for a seat price.
type PaymentHolder interface {
	Hold(ctx context.Context, amount int64, currency, customerID string) (string, error)
}

type Service struct {
	Store    storage.RideStore
	Events   EventPublisher
	Notify   Notifier
	Payments PaymentHolder
	Logger   *slog.Logger
}

// OfferInput carries raw form values. Seats and Price arrive as
// strings because the client submits them as free text.
type OfferInput struct {
	Origin         string
	Destination    string
	DepartureAt    time.Time
	Seats          string
	Price          string
	AdditionalInfo string
	OriginCoords   *models.Coord
	DestCoords     *models.Coord
}

// CreateOffer validates the form locally and writes a single new
// active document. Validation fully completes before the write is
// issued.
func (s *Service) CreateOffer(ctx context.Context, sess models.Session, in OfferInput) (models.RideOffer, error) {
	origin := strings.TrimSpace(in.Origin)
	destination := strings.TrimSpace(in.Destination)
	if origin == "" || destination == "" || strings.TrimSpace(in.Seats) == "" || strings.TrimSpace(in.Price) == "" {
		return models.RideOffer{}, validationErr(ReasonMissingField)
	}

	seats, err := strconv.Atoi(strings.TrimSpace(in.Seats))
	if err != nil || seats <= 0 {
		return models.RideOffer{}, validationErr(ReasonInvalidSeats)
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(in.Price), 64)
	if err != nil || price < 0 {
		return models.RideOffer{}, validationErr(ReasonInvalidPrice)
	}

	if in.DepartureAt.Before(time.Now()) {
		return models.RideOffer{}, validationErr(ReasonPastDeparture)
	}

	offer := models.RideOffer{
		OwnerID:        sess.UserID,
		OwnerEmail:     sess.Email,
		Origin:         origin,
		Destination:    destination,
		OriginCoords:   in.OriginCoords,
		DestCoords:     in.DestCoords,
		DepartureAt:    in.DepartureAt.UTC(),
		Seats:          seats,
		Price:          price,
		AdditionalInfo: strings.TrimSpace(in.AdditionalInfo),
		Status:         models.OfferActive,
		Requests:       []models.RideRequest{},
	}

	if err := s.Store.CreateOffer(ctx, &offer); err != nil {
		return models.RideOffer{}, fmt.Errorf("create offer: %w", err)
	}
	observability.OffersCreated.Inc()

	s.publish(ctx, models.RideEvent{
		Type:        models.EventOfferCreated,
		OfferID:     offer.ID,
		ActorID:     sess.UserID,
		Origin:      offer.Origin,
		Destination: offer.Destination,
		OccurredAt:  time.Now().UTC(),
	})

	return offer, nil
}

func (s *Service) publish(ctx context.Context, ev models.RideEvent) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, ev); err != nil && s.Logger != nil {
		s.Logger.Warn("ride event publish failed", "type", ev.Type, "offer_id", ev.OfferID, "error", err)
	}
}

func (s *Service) notify(userID string, payload any) {
	if s.Notify == nil {
		return
	}
	s.Notify.Notify(userID, payload)
}
