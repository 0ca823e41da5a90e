package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body)) //nolint:errcheck
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

func newRequest(secret, eventType, deliveryID, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("X-Hub-Signature-256", sign(secret, body))
	req.Header.Set("X-GitHub-Event", eventType)
	req.Header.Set("X-GitHub-Delivery", deliveryID)
	return req
}

func TestServeHTTPRejectsBadSignature(t *testing.T) {
	in, err := New("secret", func(Event) error { return nil })
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{}`))
	req.Header.Set("X-Hub-Signature-256", "sha256=deadbeef")
	rec := httptest.NewRecorder()

	in.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServeHTTPAcceptsValidSignature(t *testing.T) {
	var received Event
	in, err := New("secret", func(e Event) error {
		received = e
		return nil
	})
	require.NoError(t, err)

	body := `{"action":"opened"}`
	req := newRequest("secret", "issues", "d1", body)
	rec := httptest.NewRecorder()

	in.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, EventIssues, received.Kind)
	assert.Equal(t, "opened", received.Action)
}

func TestServeHTTPDedupsByDeliveryID(t *testing.T) {
	var calls int
	in, err := New("secret", func(Event) error {
		calls++
		return nil
	})
	require.NoError(t, err)

	body := `{"action":"opened"}`
	req1 := newRequest("secret", "issues", "dup-1", body)
	req2 := newRequest("secret", "issues", "dup-1", body)

	in.ServeHTTP(httptest.NewRecorder(), req1)
	in.ServeHTTP(httptest.NewRecorder(), req2)
	assert.Equal(t, 1, calls)
}

func TestServeHTTPUnknownEventIsAckedNotHandled(t *testing.T) {
	var calls int
	in, err := New("secret", func(Event) error {
		calls++
		return nil
	})
	require.NoError(t, err)

	req := newRequest("secret", "pull_request", "d2", `{"action":"opened"}`)
	rec := httptest.NewRecorder()

	in.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, calls)
}

func TestServeHTTPHandlerFailureReturns5xx(t *testing.T) {
	in, err := New("secret", func(Event) error { return assertError{} })
	require.NoError(t, err)

	req := newRequest("secret", "issues", "d3", `{"action":"opened"}`)
	rec := httptest.NewRecorder()

	in.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type assertError struct{}

func (assertError) Error() string { return "downstream failed" }
