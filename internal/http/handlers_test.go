package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/ride-share/internal/auth"
	"github.com/example/ride-share/internal/discovery"
	"github.com/example/ride-share/internal/geocode"
	"github.com/example/ride-share/internal/models"
	"github.com/example/ride-share/internal/rides"
	"github.com/example/ride-share/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.MemoryRideStore) {
	t.Helper()
	rideStore := storage.NewMemoryRideStore()
	userStore := storage.NewMemoryUserStore()
	logger := slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))

	authSvc := &auth.Service{
		Users:      userStore,
		Sessions:   auth.NewMemorySessionStore(),
		SessionTTL: time.Hour,
		Changes:    auth.NewBroadcaster(),
		Logger:     logger,
	}
	srv := NewServer(Deps{
		Auth:      authSvc,
		Discovery: &discovery.Service{Store: rideStore},
		Rides:     &rides.Service{Store: rideStore, Logger: logger},
		Geocode:   &geocode.Service{},
		Logger:    logger,
	})
	return srv, rideStore
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func signUp(t *testing.T, srv *Server, email string) models.Session {
	t.Helper()
	w := doJSON(t, srv, "POST", "/api/v1/auth/signup", "", map[string]string{
		"email": email, "password": "secret1",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("signup %s: status %d body %s", email, w.Code, w.Body.String())
	}
	var sess models.Session
	if err := json.Unmarshal(w.Body.Bytes(), &sess); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return sess
}

func TestDiscoveryRequiresSession(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doJSON(t, srv, "GET", "/api/v1/rides", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestLoginFailureMessages(t *testing.T) {
	srv, _ := newTestServer(t)
	signUp(t, srv, "driver@example.com")

	w := doJSON(t, srv, "POST", "/api/v1/auth/login", "", map[string]string{
		"email": "driver@example.com", "password": "nope",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	var body errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "Incorrect password. Please try again." {
		t.Fatalf("unexpected message %q", body.Error)
	}
}

func TestCreateRideValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	sess := signUp(t, srv, "driver@example.com")

	w := doJSON(t, srv, "POST", "/api/v1/rides", sess.Token, map[string]any{
		"origin":       "Oslo",
		"destination":  "Bergen",
		"departure_at": time.Now().Add(time.Hour).Format(time.RFC3339),
		"seats":        "0",
		"price":        "10",
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
	var body errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "Available seats must be greater than 0" {
		t.Fatalf("unexpected message %q", body.Error)
	}
	if body.Retryable {
		t.Fatal("validation errors are not retryable")
	}
}

// End to end: a rider discovers another driver's active offer,
// requests it, and the stored offer gains exactly one pending request.
func TestRequestRideEndToEnd(t *testing.T) {
	srv, rideStore := newTestServer(t)
	driver := signUp(t, srv, "driver@example.com")
	rider := signUp(t, srv, "rider@example.com")

	w := doJSON(t, srv, "POST", "/api/v1/rides", driver.Token, map[string]any{
		"origin":       "Oslo",
		"destination":  "Bergen",
		"departure_at": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		"seats":        "2",
		"price":        "15.00",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create ride: status %d body %s", w.Code, w.Body.String())
	}
	var offer models.RideOffer
	if err := json.Unmarshal(w.Body.Bytes(), &offer); err != nil {
		t.Fatalf("decode offer: %v", err)
	}

	// The driver's own offer is invisible to the driver.
	w = doJSON(t, srv, "GET", "/api/v1/rides", driver.Token, nil)
	var ownList struct {
		Rides []models.RideOffer `json:"rides"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &ownList); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(ownList.Rides) != 0 {
		t.Fatalf("driver sees own offer: %+v", ownList.Rides)
	}

	// The rider sees it.
	w = doJSON(t, srv, "GET", "/api/v1/rides", rider.Token, nil)
	var list struct {
		Rides []models.RideOffer `json:"rides"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Rides) != 1 || list.Rides[0].ID != offer.ID {
		t.Fatalf("rider discovery wrong: %+v", list.Rides)
	}

	before := len(list.Rides[0].Requests)
	w = doJSON(t, srv, "POST", fmt.Sprintf("/api/v1/rides/%s/requests", offer.ID), rider.Token, map[string]string{
		"message": "Hi",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("submit request: status %d body %s", w.Code, w.Body.String())
	}

	stored, err := rideStore.GetOffer(context.Background(), offer.ID)
	if err != nil {
		t.Fatalf("get stored offer: %v", err)
	}
	if len(stored.Requests) != before+1 {
		t.Fatalf("expected %d requests, got %d", before+1, len(stored.Requests))
	}
	last := stored.Requests[len(stored.Requests)-1]
	if last.Message != "Hi" || last.Status != models.RequestPending || last.UserEmail != "rider@example.com" {
		t.Fatalf("unexpected stored request: %+v", last)
	}
}

func TestSubmitRequestEmptyMessage(t *testing.T) {
	srv, rideStore := newTestServer(t)
	driver := signUp(t, srv, "driver@example.com")
	rider := signUp(t, srv, "rider@example.com")

	w := doJSON(t, srv, "POST", "/api/v1/rides", driver.Token, map[string]any{
		"origin":       "Oslo",
		"destination":  "Bergen",
		"departure_at": time.Now().Add(time.Hour).Format(time.RFC3339),
		"seats":        "1",
		"price":        "5",
	})
	var offer models.RideOffer
	if err := json.Unmarshal(w.Body.Bytes(), &offer); err != nil {
		t.Fatalf("decode offer: %v", err)
	}

	w = doJSON(t, srv, "POST", fmt.Sprintf("/api/v1/rides/%s/requests", offer.ID), rider.Token, map[string]string{
		"message": "   ",
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}

	stored, err := rideStore.GetOffer(context.Background(), offer.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(stored.Requests) != 0 {
		t.Fatal("blank message reached the store")
	}
}

func TestReverseGeocodeFallback(t *testing.T) {
	srv, _ := newTestServer(t)
	sess := signUp(t, srv, "rider@example.com")

	w := doJSON(t, srv, "POST", "/api/v1/geocode/reverse", sess.Token, map[string]any{
		"lat": 12.3456, "lon": 65.4321, "mode": "origin",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["label"] != "(12.3456, 65.4321)" {
		t.Fatalf("expected coordinate fallback, got %q", body["label"])
	}

	w = doJSON(t, srv, "POST", "/api/v1/geocode/reverse", sess.Token, map[string]any{
		"lat": 1.0, "lon": 2.0, "mode": "sideways",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad mode, got %d", w.Code)
	}
}

func TestPopularRoutesWithoutRedis(t *testing.T) {
	srv, _ := newTestServer(t)
	sess := signUp(t, srv, "rider@example.com")

	w := doJSON(t, srv, "GET", "/api/v1/routes/popular", sess.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestLogoutInvalidatesToken(t *testing.T) {
	srv, _ := newTestServer(t)
	sess := signUp(t, srv, "rider@example.com")

	w := doJSON(t, srv, "POST", "/api/v1/auth/logout", sess.Token, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("logout: %d", w.Code)
	}
	w = doJSON(t, srv, "GET", "/api/v1/rides", sess.Token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", w.Code)
	}
}
