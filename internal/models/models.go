package models

import (
	"strings"
	"time"
)

// Offer lifecycle states. Discovery only ever reads OfferActive;
// the other values exist so writes stay within a known vocabulary.
const (
	OfferActive    = "active"
	OfferCompleted = "completed"
	OfferCancelled = "cancelled"
)

// Request states within an offer's request list.
const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestDeclined = "declined"
)

type Coord struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lon float64 `json:"lon" bson:"lon"`
}

// RideOffer is a driver-posted trip. Requests are embedded: they have
// no identity of their own outside their parent offer.
type RideOffer struct {
	ID             string        `json:"id" bson:"_id,omitempty"`
	OwnerID        string        `json:"owner_id" bson:"owner_id"`
	OwnerEmail     string        `json:"owner_email" bson:"owner_email"`
	Origin         string        `json:"origin" bson:"origin"`
	Destination    string        `json:"destination" bson:"destination"`
	OriginCoords   *Coord        `json:"origin_coords,omitempty" bson:"origin_coords,omitempty"`
	DestCoords     *Coord        `json:"dest_coords,omitempty" bson:"dest_coords,omitempty"`
	DepartureAt    time.Time     `json:"departure_at" bson:"departure_at"`
	Seats          int           `json:"seats" bson:"seats"`
	Price          float64       `json:"price" bson:"price"`
	AdditionalInfo string        `json:"additional_info,omitempty" bson:"additional_info,omitempty"`
	Status         string        `json:"status" bson:"status"`
	Requests       []RideRequest `json:"requests" bson:"requests"`
	CreatedAt      time.Time     `json:"created_at" bson:"created_at"`
}

// RideRequest is a passenger message attached to an offer, awaiting
// driver action.
type RideRequest struct {
	UserID    string    `json:"user_id" bson:"user_id"`
	UserEmail string    `json:"user_email" bson:"user_email"`
	Message   string    `json:"message" bson:"message"`
	Status    string    `json:"status" bson:"status"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// User is an account record in the users collection. PasswordHash
// never leaves the server.
type User struct {
	ID           string    `json:"id" bson:"_id,omitempty"`
	Email        string    `json:"email" bson:"email"`
	DisplayName  string    `json:"display_name,omitempty" bson:"display_name,omitempty"`
	PasswordHash []byte    `json:"-" bson:"password_hash"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// Session is the current authenticated identity. It is issued by the
// auth service and carried by clients as an opaque token.
type Session struct {
	Token       string    `json:"token"`
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	IssuedAt    time.Time `json:"issued_at"`
}

// DisplayNameFor falls back to the email local-part when the account
// has no explicit display name.
func DisplayNameFor(u User) string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if i := strings.IndexByte(u.Email, '@'); i > 0 {
		return u.Email[:i]
	}
	return u.Email
}

// RideEvent is published to the event stream whenever an offer or
// request changes. Consumers use it for route analytics.
type RideEvent struct {
	Type        string    `json:"type"` // offer_created, request_submitted, request_accepted
	OfferID     string    `json:"offer_id"`
	ActorID     string    `json:"actor_id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	OccurredAt  time.Time `json:"occurred_at"`
}

const (
	EventOfferCreated     = "offer_created"
	EventRequestSubmitted = "request_submitted"
	EventRequestAccepted  = "request_accepted"
)
