package rides

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/example/ride-share/internal/models"
	"github.com/example/ride-share/internal/observability"
)

var (
	ErrNotOwner       = errors.New("only the offer owner may act on requests")
	ErrRequestIndex   = errors.New("no such request")
	ErrRequestDecided = errors.New("request already decided")
)

// SubmitRequest appends a pending request to the offer's request
// list. The append is a read of the current list followed by a full
// write-back, not a store-side atomic push; two concurrent
// submissions against the same offer can lose one of them. The
// original product behaves the same way and the shape is kept.
func (s *Service) SubmitRequest(ctx context.Context, sess models.Session, offerID, message string) (models.RideOffer, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return models.RideOffer{}, validationErr(ReasonEmptyMessage)
	}

	offer, err := s.Store.GetOffer(ctx, offerID)
	if err != nil {
		return models.RideOffer{}, fmt.Errorf("load offer: %w", err)
	}

	req := models.RideRequest{
		UserID:    sess.UserID,
		UserEmail: sess.Email,
		Message:   message,
		Status:    models.RequestPending,
		CreatedAt: time.Now().UTC(),
	}
	updated := append(append([]models.RideRequest(nil), offer.Requests...), req)

	if err := s.Store.ReplaceRequests(ctx, offerID, updated); err != nil {
		return models.RideOffer{}, fmt.Errorf("store request: %w", err)
	}
	offer.Requests = updated
	observability.RequestsSubmitted.Inc()

	s.publish(ctx, models.RideEvent{
		Type:        models.EventRequestSubmitted,
		OfferID:     offer.ID,
		ActorID:     sess.UserID,
		Origin:      offer.Origin,
		Destination: offer.Destination,
		OccurredAt:  time.Now().UTC(),
	})
	s.notify(offer.OwnerID, map[string]any{
		"kind":     "ride_request",
		"offer_id": offer.ID,
		"from":     sess.Email,
		"message":  message,
	})

	return offer, nil
}

// AcceptRequest is the driver's side of the flow: the pending request
// flips to accepted, a seat is consumed, and a manual-capture payment
// hold is placed for one seat price. An offer that runs out of seats
// becomes completed.
func (s *Service) AcceptRequest(ctx context.Context, sess models.Session, offerID string, index int) (models.RideOffer, error) {
	offer, err := s.Store.GetOffer(ctx, offerID)
	if err != nil {
		return models.RideOffer{}, fmt.Errorf("load offer: %w", err)
	}
	if offer.OwnerID != sess.UserID {
		return models.RideOffer{}, ErrNotOwner
	}
	if index < 0 || index >= len(offer.Requests) {
		return models.RideOffer{}, ErrRequestIndex
	}
	if offer.Requests[index].Status != models.RequestPending {
		return models.RideOffer{}, ErrRequestDecided
	}

	offer.Requests[index].Status = models.RequestAccepted
	if offer.Seats > 0 {
		offer.Seats--
	}
	if offer.Seats == 0 {
		offer.Status = models.OfferCompleted
	}

	if err := s.Store.UpdateOffer(ctx, offer); err != nil {
		return models.RideOffer{}, fmt.Errorf("update offer: %w", err)
	}

	if s.Payments != nil && offer.Price > 0 {
		amount := int64(math.Round(offer.Price * 100))
		if _, err := s.Payments.Hold(ctx, amount, "usd", offer.Requests[index].UserID); err != nil && s.Logger != nil {
			s.Logger.Warn("payment hold failed", "offer_id", offer.ID, "error", err)
		}
	}

	s.publish(ctx, models.RideEvent{
		Type:        models.EventRequestAccepted,
		OfferID:     offer.ID,
		ActorID:     sess.UserID,
		Origin:      offer.Origin,
		Destination: offer.Destination,
		OccurredAt:  time.Now().UTC(),
	})
	s.notify(offer.Requests[index].UserID, map[string]any{
		"kind":     "request_accepted",
		"offer_id": offer.ID,
	})

	return offer, nil
}
