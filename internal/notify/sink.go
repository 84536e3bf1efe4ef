// Package notify delivers proximity alerts to logs and webhooks.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/vakit-cli/internal/config"
	"github.com/sells-group/vakit-cli/internal/model"
	"github.com/sells-group/vakit-cli/internal/segment"
)

// EventAnchorSoon is the only event type emitted today.
const EventAnchorSoon = "anchor_soon"

// Event is the delivered form of a segment.Alert.
type Event struct {
	ID               string           `json:"id"`
	Type             string           `json:"type"`
	Anchor           model.AnchorName `json:"anchor"`
	Day              string           `json:"day"`
	At               time.Time        `json:"at"`
	RemainingMinutes int              `json:"remaining_minutes"`
	Message          string           `json:"message"`
	Language         string           `json:"language"`
	Timestamp        time.Time        `json:"timestamp"`
}

// NewEvent renders a for delivery.
func NewEvent(a segment.Alert, msgs *Messages, now time.Time) Event {
	return Event{
		ID:               a.ID,
		Type:             EventAnchorSoon,
		Anchor:           a.Anchor,
		Day:              a.Day,
		At:               a.At,
		RemainingMinutes: int((a.Remaining + time.Minute - 1) / time.Minute),
		Message:          msgs.Alert(a),
		Language:         msgs.Language(),
		Timestamp:        now.UTC(),
	}
}

// Sink receives alert events.
type Sink interface {
	Send(ctx context.Context, ev Event) error
}

// LogSink writes events to the global logger.
type LogSink struct{}

func (LogSink) Send(_ context.Context, ev Event) error {
	zap.L().Info("notify: alert",
		zap.String("id", ev.ID),
		zap.String("anchor", string(ev.Anchor)),
		zap.String("day", ev.Day),
		zap.Int("remaining_minutes", ev.RemainingMinutes),
		zap.String("message", ev.Message),
	)
	return nil
}

// WebhookSink posts events as JSON to a URL.
type WebhookSink struct {
	url    string
	client *http.Client
}

// NewWebhook creates a WebhookSink for url.
func NewWebhook(url string) *WebhookSink {
	return &WebhookSink{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *WebhookSink) Send(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return eris.Wrap(err, "notify: marshal event")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "notify: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "notify: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("notify: webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Multi fans an event out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Send(ctx context.Context, ev Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Send(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FromConfig builds the sinks configured in cfg. Logging is always on; the
// webhook is added when enabled with a URL.
func FromConfig(cfg config.NotifyConfig) Sink {
	sinks := Multi{LogSink{}}
	if cfg.Enabled && cfg.WebhookURL != "" {
		sinks = append(sinks, NewWebhook(cfg.WebhookURL))
	}
	return sinks
}
