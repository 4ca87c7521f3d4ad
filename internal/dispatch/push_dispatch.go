package dispatch

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"
)

// PushGateway posts JSON to a mobile push endpoint for users without
// a live socket.
type PushGateway struct {
	Endpoint string
	Key      string
	Client   *http.Client
}

func NewPushGateway(endpoint, key string) *PushGateway {
	return &PushGateway{Endpoint: endpoint, Key: key, Client: &http.Client{Timeout: 3 * time.Second}}
}

func (p *PushGateway) Send(userID string, payload any) error {
	body := map[string]any{"user_id": userID, "data": payload}
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, p.Endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.Key != "" {
		req.Header.Set("Authorization", "Bearer "+p.Key)
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Notifier routes a notification to the websocket registry and falls
// back to the push gateway. Delivery is best-effort; failures are
// swallowed after logging inside the registry.
type Notifier struct {
	WS   *WSRegistry
	Push *PushGateway
}

func (n *Notifier) Notify(userID string, payload any) {
	if n.WS != nil {
		if err := n.WS.Send(userID, payload); err == nil {
			return
		}
	}
	if n.Push != nil && n.Push.Endpoint != "" {
		_ = n.Push.Send(userID, payload)
	}
}
