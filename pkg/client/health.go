package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/teslashibe/go-filmmeter/internal/httpc"
)

// Health is the server's /api/health response.
type Health struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Sessions int    `json:"sessions"`
	Camera   bool   `json:"camera"`
	Viewers  int    `json:"viewers"`
}

// CheckHealth queries the health endpoint of the server behind a websocket
// URL such as ws://host:8080/ws/meter.
func CheckHealth(ctx context.Context, wsURL string) (*Health, error) {
	u, err := HealthURL(wsURL)
	if err != nil {
		return nil, err
	}
	var h Health
	if err := httpc.GetJSON(ctx, u, &h); err != nil {
		return nil, fmt.Errorf("client: health: %w", err)
	}
	return &h, nil
}

// HealthURL maps a metering socket URL to the server's health endpoint.
func HealthURL(wsURL string) (string, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return "", fmt.Errorf("client: bad url %q: %w", wsURL, err)
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	case "http", "https":
	default:
		return "", fmt.Errorf("client: unsupported scheme %q", u.Scheme)
	}
	u.Path = "/api/health"
	u.RawQuery = ""
	return u.String(), nil
}
