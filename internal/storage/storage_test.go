package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/ride-share/internal/models"
)

func TestMemoryRideStoreAssignsIdentity(t *testing.T) {
	st := NewMemoryRideStore()
	o := models.RideOffer{OwnerID: "u1", Origin: "A", Destination: "B", Status: models.OfferActive, DepartureAt: time.Now().Add(time.Hour)}
	if err := st.CreateOffer(context.Background(), &o); err != nil {
		t.Fatalf("create: %v", err)
	}
	if o.ID == "" {
		t.Fatal("no id assigned")
	}
	if o.CreatedAt.IsZero() {
		t.Fatal("no created_at assigned")
	}
}

func TestMemoryRideStoreReplaceRequests(t *testing.T) {
	st := NewMemoryRideStore()
	o := models.RideOffer{OwnerID: "u1", Origin: "A", Destination: "B", Status: models.OfferActive}
	if err := st.CreateOffer(context.Background(), &o); err != nil {
		t.Fatalf("create: %v", err)
	}

	reqs := []models.RideRequest{{UserID: "u2", Message: "hi", Status: models.RequestPending}}
	if err := st.ReplaceRequests(context.Background(), o.ID, reqs); err != nil {
		t.Fatalf("replace: %v", err)
	}

	// Mutating the caller's slice must not leak into the store.
	reqs[0].Message = "mutated"
	got, err := st.GetOffer(context.Background(), o.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Requests) != 1 || got.Requests[0].Message != "hi" {
		t.Fatalf("stored requests aliased caller slice: %+v", got.Requests)
	}

	if err := st.ReplaceRequests(context.Background(), "missing", nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRideStoreUpdateOffer(t *testing.T) {
	st := NewMemoryRideStore()
	o := models.RideOffer{OwnerID: "u1", Origin: "A", Destination: "B", Status: models.OfferActive, Seats: 2}
	if err := st.CreateOffer(context.Background(), &o); err != nil {
		t.Fatalf("create: %v", err)
	}

	o.Seats = 1
	o.Status = models.OfferCompleted
	if err := st.UpdateOffer(context.Background(), o); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := st.GetOffer(context.Background(), o.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Seats != 1 || got.Status != models.OfferCompleted {
		t.Fatalf("overwrite not applied: %+v", got)
	}

	missing := o
	missing.ID = "missing"
	if err := st.UpdateOffer(context.Background(), missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryUserStoreEmailUniqueness(t *testing.T) {
	st := NewMemoryUserStore()
	u := models.User{Email: "rider@example.com"}
	if err := st.CreateUser(context.Background(), &u); err != nil {
		t.Fatalf("create: %v", err)
	}

	dup := models.User{Email: "Rider@Example.COM"}
	if err := st.CreateUser(context.Background(), &dup); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	got, err := st.GetUserByEmail(context.Background(), "RIDER@example.com")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.ID != u.ID {
		t.Fatal("lookup resolved wrong account")
	}
}
