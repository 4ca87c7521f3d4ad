package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/example/ride-share/internal/models"
)

// NominatimClient performs reverse lookups against a Nominatim-style
// HTTP endpoint.
type NominatimClient struct {
	Endpoint string
	Client   *http.Client
}

func NewNominatimClient(endpoint string) *NominatimClient {
	return &NominatimClient{Endpoint: endpoint, Client: &http.Client{Timeout: 2 * time.Second}}
}

// Reverse queries /reverse for the coordinate and maps the address
// record to place components. Town and village stand in for city when
// the coordinate falls outside one.
func (n *NominatimClient) Reverse(ctx context.Context, c models.Coord) (Place, error) {
	url := fmt.Sprintf("%s/reverse?format=jsonv2&lat=%.6f&lon=%.6f", n.Endpoint, c.Lat, c.Lon)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Place{}, err
	}
	resp, err := n.Client.Do(req)
	if err != nil {
		return Place{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Place{}, fmt.Errorf("geocoder status %d", resp.StatusCode)
	}

	var out struct {
		Address struct {
			City    string `json:"city"`
			Town    string `json:"town"`
			Village string `json:"village"`
			State   string `json:"state"`
			Country string `json:"country"`
		} `json:"address"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Place{}, err
	}

	city := out.Address.City
	if city == "" {
		city = out.Address.Town
	}
	if city == "" {
		city = out.Address.Village
	}
	return Place{City: city, Region: out.Address.State, Country: out.Address.Country}, nil
}
