// Package httpapi exposes the ride-share service over HTTP. All
// collaborators are constructed by the caller and passed in; nothing
// here reaches for process-wide state.
package httpapi

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/example/ride-share/internal/auth"
	"github.com/example/ride-share/internal/discovery"
	"github.com/example/ride-share/internal/dispatch"
	"github.com/example/ride-share/internal/geocode"
	"github.com/example/ride-share/internal/models"
	"github.com/example/ride-share/internal/observability"
	"github.com/example/ride-share/internal/rides"
	"github.com/example/ride-share/internal/storage"
)

// Deps carries every collaborator the server needs. Optional fields
// may be nil; the matching endpoints then degrade.
type Deps struct {
	Auth      *auth.Service
	Discovery *discovery.Service
	Rides     *rides.Service
	Geocode   *geocode.Service
	WSReg     *dispatch.WSRegistry
	Changes   *auth.Broadcaster
	Redis     *redis.Client
	Logger    *slog.Logger
}

type Server struct {
	Auth      *auth.Service
	Discovery *discovery.Service
	Rides     *rides.Service
	Geocode   *geocode.Service
	WSReg     *dispatch.WSRegistry
	Redis     *redis.Client

	logger       *slog.Logger
	mux          *mux.Router
	routeClasses map[string]RouteClass
}

func NewServer(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		Auth:         d.Auth,
		Discovery:    d.Discovery,
		Rides:        d.Rides,
		Geocode:      d.Geocode,
		WSReg:        d.WSReg,
		Redis:        d.Redis,
		logger:       logger,
		mux:          mux.NewRouter(),
		routeClasses: make(map[string]RouteClass),
	}
	s.routes()
	s.registerMiddleware()
	if d.Changes != nil && s.WSReg != nil {
		go s.forwardAuthChanges(d.Changes)
	}
	return s
}

func (s *Server) routes() {
	public := func(path string) { s.routeClasses[path] = PublicRoute }

	s.mux.HandleFunc("/api/v1/auth/signup", s.handleSignUp).Methods("POST")
	s.mux.HandleFunc("/api/v1/auth/login", s.handleLogin).Methods("POST")
	s.mux.HandleFunc("/api/v1/auth/logout", s.handleLogout).Methods("POST")
	s.mux.HandleFunc("/api/v1/session", s.handleSession).Methods("GET")

	s.mux.HandleFunc("/api/v1/rides", s.handleListRides).Methods("GET")
	s.mux.HandleFunc("/api/v1/rides", s.handleCreateRide).Methods("POST")
	s.mux.HandleFunc("/api/v1/rides/{id}/requests", s.handleSubmitRequest).Methods("POST")
	s.mux.HandleFunc("/api/v1/rides/{id}/requests/{index}/accept", s.handleAcceptRequest).Methods("POST")

	s.mux.HandleFunc("/api/v1/geocode/reverse", s.handleReverseGeocode).Methods("POST")
	s.mux.HandleFunc("/api/v1/routes/popular", s.handlePopularRoutes).Methods("GET")

	s.mux.HandleFunc("/ws", s.handleWS)
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) }).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())

	public("/api/v1/auth/signup")
	public("/api/v1/auth/login")
	public("/api/v1/session")
	public("/healthz")
	public("/metrics")
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", false)
		return
	}
	sess, err := s.Auth.SignUp(r.Context(), c.Email, c.Password)
	if err != nil {
		s.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", false)
		return
	}
	sess, err := s.Auth.SignIn(r.Context(), c.Email, c.Password)
	if err != nil {
		s.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.Auth.SignOut(r.Context(), bearerToken(r)); err != nil {
		s.logger.Error("logout failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "Sign-out failed. Please try again.", true)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"session": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": auth.SessionView{
		UserID:      sess.UserID,
		Email:       sess.Email,
		DisplayName: sess.DisplayName,
	}})
}

func (s *Server) handleListRides(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())
	observability.DiscoveryQueries.Inc()

	offers, err := s.Discovery.ListOpenOffers(r.Context(), discovery.Params{
		ViewerID:    sess.UserID,
		Origin:      r.URL.Query().Get("origin"),
		Destination: r.URL.Query().Get("destination"),
	})
	if errors.Is(err, discovery.ErrUnauthenticated) {
		writeError(w, http.StatusUnauthorized, "Please sign in to continue.", false)
		return
	}
	if err != nil {
		s.logger.Error("discovery failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "Failed to load available rides", true)
		return
	}
	if offers == nil {
		offers = []models.RideOffer{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"rides": offers})
}

type createRideBody struct {
	Origin         string        `json:"origin"`
	Destination    string        `json:"destination"`
	DepartureAt    time.Time     `json:"departure_at"`
	Seats          string        `json:"seats"`
	Price          string        `json:"price"`
	AdditionalInfo string        `json:"additional_info"`
	OriginCoords   *models.Coord `json:"origin_coords"`
	DestCoords     *models.Coord `json:"dest_coords"`
}

func (s *Server) handleCreateRide(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())
	var body createRideBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", false)
		return
	}

	offer, err := s.Rides.CreateOffer(r.Context(), sess, rides.OfferInput{
		Origin:         body.Origin,
		Destination:    body.Destination,
		DepartureAt:    body.DepartureAt,
		Seats:          body.Seats,
		Price:          body.Price,
		AdditionalInfo: body.AdditionalInfo,
		OriginCoords:   body.OriginCoords,
		DestCoords:     body.DestCoords,
	})
	if err != nil {
		var verr *rides.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusUnprocessableEntity, validationMessage(verr), false)
			return
		}
		s.logger.Error("create ride failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "Failed to publish ride. Please try again.", true)
		return
	}
	writeJSON(w, http.StatusCreated, offer)
}

type submitRequestBody struct {
	Message string `json:"message"`
}

func (s *Server) handleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())
	offerID := mux.Vars(r)["id"]

	var body submitRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", false)
		return
	}

	_, err := s.Rides.SubmitRequest(r.Context(), sess, offerID, body.Message)
	if err != nil {
		var verr *rides.ValidationError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusUnprocessableEntity, "Please enter a message to the driver", false)
		case errors.Is(err, storage.ErrNotFound):
			writeError(w, http.StatusNotFound, "This ride is no longer available", false)
		default:
			s.logger.Error("submit request failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "Failed to send ride request. Please try again.", true)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "sent"})
}

func (s *Server) handleAcceptRequest(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())
	vars := mux.Vars(r)
	index, err := strconv.Atoi(vars["index"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request index", false)
		return
	}

	offer, err := s.Rides.AcceptRequest(r.Context(), sess, vars["id"], index)
	if err != nil {
		switch {
		case errors.Is(err, rides.ErrNotOwner):
			writeError(w, http.StatusForbidden, "Only the ride owner can accept requests", false)
		case errors.Is(err, rides.ErrRequestIndex), errors.Is(err, storage.ErrNotFound):
			writeError(w, http.StatusNotFound, "No such request", false)
		case errors.Is(err, rides.ErrRequestDecided):
			writeError(w, http.StatusConflict, "This request was already decided", false)
		default:
			s.logger.Error("accept request failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "Failed to accept request. Please try again.", true)
		}
		return
	}
	writeJSON(w, http.StatusOK, offer)
}

type reverseGeocodeBody struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Mode string  `json:"mode"` // origin or destination
}

func (s *Server) handleReverseGeocode(w http.ResponseWriter, r *http.Request) {
	var body reverseGeocodeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", false)
		return
	}
	if body.Mode != "origin" && body.Mode != "destination" {
		writeError(w, http.StatusBadRequest, "mode must be origin or destination", false)
		return
	}

	label := s.Geocode.ResolveLabel(r.Context(), models.Coord{Lat: body.Lat, Lon: body.Lon})
	writeJSON(w, http.StatusOK, map[string]string{"mode": body.Mode, "label": label})
}

func (s *Server) handlePopularRoutes(w http.ResponseWriter, r *http.Request) {
	type routeCount struct {
		Route string `json:"route"`
		Count int64  `json:"count"`
	}
	routes := []routeCount{}

	if s.Redis != nil {
		counts, err := s.Redis.HGetAll(r.Context(), "route_counts").Result()
		if err != nil {
			s.logger.Error("route counts lookup failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "Failed to load popular routes", true)
			return
		}
		for route, raw := range counts {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				continue
			}
			routes = append(routes, routeCount{Route: route, Count: n})
		}
		sort.Slice(routes, func(i, j int) bool {
			if routes[i].Count != routes[j].Count {
				return routes[i].Count > routes[j].Count
			}
			return routes[i].Route < routes[j].Route
		})
		if len(routes) > 10 {
			routes = routes[:10]
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"routes": routes})
}

var upgrader = websocket.Upgrader{}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Please sign in to continue.", false)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "upgrade failed", http.StatusBadRequest)
		return
	}
	s.WSReg.Add(sess.UserID, conn)
}

// forwardAuthChanges feeds session transitions to the owning user's
// socket so a signed-in client on another device sees the change.
func (s *Server) forwardAuthChanges(b *auth.Broadcaster) {
	ch, cancel := b.Subscribe()
	defer cancel()
	for change := range ch {
		payload := map[string]any{"kind": "auth_state", "session": change.Session}
		_ = s.WSReg.Send(change.UserID, payload)
	}
}

func validationMessage(verr *rides.ValidationError) string {
	switch verr.Reason {
	case rides.ReasonMissingField:
		return "Please fill in all required fields"
	case rides.ReasonInvalidSeats:
		return "Available seats must be greater than 0"
	case rides.ReasonInvalidPrice:
		return "Price must be zero or more"
	case rides.ReasonPastDeparture:
		return "Departure date/time cannot be in the past"
	default:
		return verr.Error()
	}
}

func newID() string { b := make([]byte, 8); _, _ = rand.Read(b); return hex.EncodeToString(b) }
