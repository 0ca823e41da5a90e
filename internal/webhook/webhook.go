// Package webhook implements the Webhook Ingestor (C8): signature
// verification, delivery-id dedup, and discriminated-union event
// decoding for the external tracker's push notifications.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const dedupCapacity = 10000

const signaturePrefix = "sha256="

// EventKind is the known discriminant of a webhook delivery, taken from
// its X-GitHub-Event header. Unknown kinds are decoded as EventUnknown and ACK'd without
// further processing.
type EventKind string

const (
	EventIssues       EventKind = "issues"
	EventInstallation EventKind = "installation"
	EventIssueComment EventKind = "issue_comment"
	EventUnknown      EventKind = "unknown"
)

// Event is the decoded discriminated union handed to the Mirror
// Orchestrator.
type Event struct {
	Kind       EventKind
	Action     string
	DeliveryID string
	Payload    json.RawMessage
}

// Handler hands a decoded event to the Mirror Orchestrator. An error
// causes the ingestor to answer with 5xx so the sender retries; the
// delivery isn't marked seen until the handler succeeds, so the retry
// reaches the handler again instead of being deduped away.
type Handler func(Event) error

// Ingestor verifies, dedups, and decodes inbound webhook deliveries.
type Ingestor struct {
	secret  []byte
	seen    *lru.Cache[string, struct{}]
	handler Handler
}

// New constructs an Ingestor. secret is the shared HMAC secret configured
// for this installation; handler receives every non-duplicate,
// successfully-decoded event.
func New(secret string, handler Handler) (*Ingestor, error) {
	cache, err := lru.New[string, struct{}](dedupCapacity)
	if err != nil {
		return nil, err
	}
	return &Ingestor{secret: []byte(secret), seen: cache, handler: handler}, nil
}

// ServeHTTP implements the single webhook endpoint's handler.
func (in *Ingestor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	if !verifySignature(in.secret, r.Header.Get("X-Hub-Signature-256"), body) {
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	deliveryID := r.Header.Get("X-GitHub-Delivery")
	if deliveryID != "" {
		if _, dup := in.seen.Get(deliveryID); dup {
			w.WriteHeader(http.StatusOK)
			return
		}
	}

	event, err := decodeEvent(r.Header.Get("X-GitHub-Event"), deliveryID, body)
	if err != nil {
		http.Error(w, "malformed payload", http.StatusBadRequest)
		return
	}

	if event.Kind == EventUnknown {
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := in.handler(event); err != nil {
		http.Error(w, "handler failed", http.StatusInternalServerError)
		return
	}

	// only remember the delivery once it has actually been handled, so a
	// failed attempt (answered with a 5xx) is retried rather than silently
	// deduped away on GitHub's retry.
	if deliveryID != "" {
		in.seen.Add(deliveryID, struct{}{})
	}
	w.WriteHeader(http.StatusOK)
}

// verifySignature checks the "sha256=<hex>" header against an HMAC-SHA256
// of body under secret, in constant time. Both the expected and received
// MACs are first hashed to fixed-length SHA-256 digests and those digests
// are compared with hmac.Equal, so neither the comparison time nor a
// length mismatch leaks information about the expected signature.
func verifySignature(secret []byte, header string, body []byte) bool {
	if !strings.HasPrefix(header, signaturePrefix) {
		return false
	}
	received, err := hex.DecodeString(strings.TrimPrefix(header, signaturePrefix))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(body) //nolint:errcheck
	expected := mac.Sum(nil)

	expectedSum := sha256.Sum256(expected)
	receivedSum := sha256.Sum256(received)
	return hmac.Equal(expectedSum[:], receivedSum[:])
}

func decodeEvent(eventType, deliveryID string, body []byte) (Event, error) {
	var envelope struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Event{}, fmt.Errorf("decode envelope: %w", err)
	}

	kind := EventUnknown
	switch eventType {
	case string(EventIssues):
		kind = EventIssues
	case string(EventInstallation):
		kind = EventInstallation
	case string(EventIssueComment):
		kind = EventIssueComment
	}

	return Event{
		Kind:       kind,
		Action:     envelope.Action,
		DeliveryID: deliveryID,
		Payload:    json.RawMessage(body),
	}, nil
}
