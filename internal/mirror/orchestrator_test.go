package mirror

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beadsync/beadsync/internal/store"
	"github.com/beadsync/beadsync/internal/tracker"
	"github.com/beadsync/beadsync/internal/types"
	"github.com/beadsync/beadsync/internal/webhook"
)

func newTestOrchestrator(t *testing.T, handler http.HandlerFunc) (*Orchestrator, string) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	root := t.TempDir()
	client := tracker.NewClient("token", "owner", "repo").WithBaseURL(server.URL)
	st := store.New(root)
	mappings := NewMappingStore(root)

	return New(client, st, mappings, types.DefaultConventions(), StrategyNewestWins), root
}

func TestResolveExternalPullsNewIssue(t *testing.T) {
	now := time.Now().UTC()
	orc, _ := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {})

	gh := &tracker.Issue{Number: 42, Title: "From GitHub", State: "open", UpdatedAt: &now, Body: "body text"}
	stats, err := orc.resolveExternal(context.Background(), gh)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Pulled)
	assert.Equal(t, 1, stats.Created)

	mapping, ok := orc.Mappings.ByExternalNumber(42)
	require.True(t, ok)
	assert.NotEmpty(t, mapping.LocalID)

	issues, _, err := orc.Store.Load()
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "From GitHub", issues[0].Title)
}

func TestResolveExternalNoOpWhenBothUnchanged(t *testing.T) {
	orc, _ := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := orc.Store.Upsert(types.Issue{ID: "todo-1", Title: "x", Status: types.StatusOpen, Type: types.TypeTask, Priority: 2})
	require.NoError(t, err)

	synced := time.Now().UTC().Add(time.Hour) // after both L and E
	require.NoError(t, orc.Mappings.Put(types.IssueMapping{
		LocalID: "todo-1", ExternalNumber: 1,
		LastSyncedAt: synced.Format(time.RFC3339),
	}))

	older := synced.Add(-time.Minute)
	gh := &tracker.Issue{Number: 1, Title: "x", State: "open", UpdatedAt: &older}

	stats, err := orc.resolveExternal(context.Background(), gh)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
}

func TestResolveExternalPushesLocalChange(t *testing.T) {
	synced := time.Now().UTC().Add(-time.Hour)
	var gotBody map[string]interface{}
	orc, _ := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(&tracker.Issue{Number: 1, Title: "local wins"})
	})

	require.NoError(t, orc.Mappings.Put(types.IssueMapping{
		LocalID: "todo-1", ExternalNumber: 1,
		LastSyncedAt: synced.Format(time.RFC3339),
	}))
	_, err := orc.Store.Upsert(types.Issue{ID: "todo-1", Title: "local wins", Status: types.StatusOpen, Type: types.TypeTask, Priority: 2})
	require.NoError(t, err)

	older := synced.Add(-time.Minute)
	gh := &tracker.Issue{Number: 1, Title: "stale", State: "open", UpdatedAt: &older}

	stats, err := orc.resolveExternal(context.Background(), gh)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Pushed)
	assert.Equal(t, "local wins", gotBody["title"])
}

func TestProcessWebhookEventUnknownKindSkipped(t *testing.T) {
	orc, _ := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {})
	stats, err := orc.ProcessWebhookEvent(context.Background(), webhook.Event{Kind: webhook.EventInstallation})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
}

func TestProcessCommentEventAppendsToDescription(t *testing.T) {
	orc, _ := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {})
	require.NoError(t, orc.Mappings.Put(types.IssueMapping{LocalID: "todo-1", ExternalNumber: 9}))
	_, err := orc.Store.Upsert(types.Issue{ID: "todo-1", Title: "x", Description: "original", Status: types.StatusOpen, Type: types.TypeTask, Priority: 2})
	require.NoError(t, err)

	payload, _ := json.Marshal(map[string]interface{}{
		"issue":   map[string]interface{}{"number": 9},
		"comment": map[string]interface{}{"body": "more context", "user": map[string]interface{}{"login": "ada"}},
	})
	stats, err := orc.ProcessWebhookEvent(context.Background(), webhook.Event{Kind: webhook.EventIssueComment, Payload: payload})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Updated)

	issues, _, err := orc.Store.Load()
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Description, "ada commented")
	assert.Contains(t, issues[0].Description, "more context")
}
