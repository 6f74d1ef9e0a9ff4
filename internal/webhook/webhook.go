package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	BulkCompleted = "bulk.completed"
	BulkFailed    = "bulk.failed"
)

var defaultBackoff = []time.Duration{
	5 * time.Second,
	30 * time.Second,
	2 * time.Minute,
}

type Event struct {
	EventType string `json:"event_type"`
	EventID   string `json:"event_id"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data"`
}

// Notifier posts signed job events to a single URL. Deliveries run in the
// background and are retried in memory; they are lost on restart.
type Notifier struct {
	URL    string
	Secret string
	Client *http.Client

	backoff []time.Duration
	ctx     context.Context
	cancel  context.CancelFunc

	mu     sync.Mutex // guards closed and wg.Add against Close
	closed bool
	wg     sync.WaitGroup
}

func New(url, secret string) *Notifier {
	ctx, cancel := context.WithCancel(context.Background())
	return &Notifier{
		URL:     url,
		Secret:  secret,
		Client:  &http.Client{Timeout: 10 * time.Second},
		backoff: defaultBackoff,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Notify queues an event. A nil Notifier, an empty URL or a closed
// Notifier does nothing.
func (n *Notifier) Notify(eventType string, data any) {
	if n == nil || n.URL == "" {
		return
	}
	event := Event{
		EventType: eventType,
		EventID:   uuid.New().String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("webhook marshal", "error", err)
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		slog.Warn("webhook dropped after close", "event", eventType)
		return
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.deliver(event, payload)
	}()
}

// Wait blocks until every queued delivery has finished.
func (n *Notifier) Wait() {
	if n != nil {
		n.wg.Wait()
	}
}

// Close abandons pending retries and waits for in-flight posts.
func (n *Notifier) Close() {
	if n == nil {
		return
	}
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()
	n.cancel()
	n.wg.Wait()
}

func (n *Notifier) deliver(event Event, payload []byte) {
	for attempt := 0; ; attempt++ {
		status, err := n.post(n.ctx, payload)
		if err == nil {
			slog.Info("webhook delivered", "url", n.URL, "event", event.EventType, "status", status)
			return
		}
		if attempt >= len(n.backoff) {
			slog.Warn("webhook exhausted", "url", n.URL, "event", event.EventType, "attempts", attempt+1, "error", err)
			return
		}
		wait := n.backoff[attempt]
		slog.Warn("webhook failed, will retry", "url", n.URL, "event", event.EventType,
			"attempt", attempt+1, "retry_in", wait, "error", err)
		select {
		case <-n.ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func (n *Notifier) post(ctx context.Context, payload []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", n.URL, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Certgen-Signature", Sign(n.Secret, payload))

	resp, err := n.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 400 {
		return resp.StatusCode, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

// Sign returns the signature header value for payload, for receivers that
// want to verify deliveries.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
