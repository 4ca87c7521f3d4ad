package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/ride-share/internal/models"
)

func TestLabelOmitsEmptyComponents(t *testing.T) {
	cases := []struct {
		p    Place
		want string
	}{
		{Place{City: "Oslo", Region: "Oslo", Country: "Norway"}, "Oslo, Oslo, Norway"},
		{Place{Region: "Oslo", Country: "Norway"}, "Oslo, Norway"},
		{Place{City: "Oslo", Country: "Norway"}, "Oslo, Norway"},
		{Place{Country: "Norway"}, "Norway"},
		{Place{}, ""},
	}
	for _, tc := range cases {
		if got := Label(tc.p); got != tc.want {
			t.Errorf("Label(%+v) = %q, want %q", tc.p, got, tc.want)
		}
	}
}

type stubResolver struct {
	p   Place
	err error
	n   int
}

func (s *stubResolver) Reverse(ctx context.Context, c models.Coord) (Place, error) {
	s.n++
	return s.p, s.err
}

func TestResolveLabelFallsBackOnEmptyResult(t *testing.T) {
	s := &Service{Resolver: &stubResolver{}}
	got := s.ResolveLabel(context.Background(), models.Coord{Lat: 12.3456, Lon: 65.4321})
	if got != "(12.3456, 65.4321)" {
		t.Fatalf("expected coordinate fallback, got %q", got)
	}
}

func TestResolveLabelFallsBackOnError(t *testing.T) {
	s := &Service{Resolver: &stubResolver{err: errors.New("geocoder down")}}
	got := s.ResolveLabel(context.Background(), models.Coord{Lat: -1.5, Lon: 3.25})
	if got != "(-1.5000, 3.2500)" {
		t.Fatalf("expected coordinate fallback, got %q", got)
	}
}

func TestResolveLabelCachesHits(t *testing.T) {
	r := &stubResolver{p: Place{City: "Oslo", Country: "Norway"}}
	s := &Service{Resolver: r, Cache: NewCache(time.Minute)}
	c := models.Coord{Lat: 59.91, Lon: 10.75}

	first := s.ResolveLabel(context.Background(), c)
	second := s.ResolveLabel(context.Background(), c)
	if first != "Oslo, Norway" || second != first {
		t.Fatalf("unexpected labels %q / %q", first, second)
	}
	if r.n != 1 {
		t.Fatalf("expected a single resolver call, got %d", r.n)
	}
}

func TestNominatimClientReverse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reverse" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"address":{"town":"Lillehammer","state":"Innlandet","country":"Norway"}}`))
	}))
	defer srv.Close()

	c := NewNominatimClient(srv.URL)
	p, err := c.Reverse(context.Background(), models.Coord{Lat: 61.11, Lon: 10.46})
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}
	if p.City != "Lillehammer" || p.Region != "Innlandet" || p.Country != "Norway" {
		t.Fatalf("unexpected place: %+v", p)
	}
}

func TestNominatimClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewNominatimClient(srv.URL)
	if _, err := c.Reverse(context.Background(), models.Coord{}); err == nil {
		t.Fatal("expected error")
	}
}
