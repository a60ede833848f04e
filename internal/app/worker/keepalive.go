package worker

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// KeepAlive pings the service's own health endpoint on an interval so
// hosting platforms that idle inactive instances keep it warm.
type KeepAlive struct {
	url      string
	interval time.Duration
	client   *http.Client
	log      *logrus.Entry
}

func NewKeepAlive(backendURL string, interval time.Duration, log *logrus.Entry) *KeepAlive {
	return &KeepAlive{
		url:      strings.TrimRight(backendURL, "/") + "/health",
		interval: interval,
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      log.WithField("worker", "keepalive"),
	}
}

// Start pings once immediately, then every interval until ctx is cancelled.
func (k *KeepAlive) Start(ctx context.Context) {
	k.log.WithField("url", k.url).Info("Keep-alive pinger started")
	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	k.Ping(ctx)
	for {
		select {
		case <-ctx.Done():
			k.log.Info("Keep-alive pinger stopping")
			return
		case <-ticker.C:
			k.Ping(ctx)
		}
	}
}

// Ping requests the health endpoint once and returns the reported status.
func (k *KeepAlive) Ping(ctx context.Context) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.url, nil)
	if err != nil {
		k.log.WithError(err).Error("Failed to build keep-alive request")
		return ""
	}
	resp, err := k.client.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			k.log.WithError(err).Error("Error pinging server")
		}
		return ""
	}
	defer resp.Body.Close()

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || resp.StatusCode != http.StatusOK {
		k.log.WithField("status_code", resp.StatusCode).Warn("Unexpected health response")
		return ""
	}
	k.log.WithField("status", body.Status).Info("Server is alive")
	return body.Status
}
