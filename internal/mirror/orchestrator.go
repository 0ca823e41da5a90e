// Package mirror implements the Mirror Orchestrator (C9): it maintains
// the IssueMapping table between local issues and their external-tracker
// counterparts, converts between the two representations, and drives
// three-way conflict resolution on both the push (webhook) and pull
// (polling) paths.
package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/beadsync/beadsync/internal/store"
	"github.com/beadsync/beadsync/internal/tracker"
	"github.com/beadsync/beadsync/internal/types"
	"github.com/beadsync/beadsync/internal/webhook"
)

// Strategy selects how a three-way conflict (both sides changed since
// last sync) is resolved.
type Strategy string

const (
	StrategyGitHubWins Strategy = "github-wins"
	StrategyLocalWins  Strategy = "local-wins"
	StrategyNewestWins Strategy = "newest-wins"
)

// Orchestrator binds one installation's tracker client, mapping table,
// and conventions together.
type Orchestrator struct {
	Client      *tracker.Client
	Store       *store.Store
	Mappings    *MappingStore
	Conventions types.Conventions
	Strategy    Strategy
	Log         *slog.Logger

	inFlight sync.Map // local_id -> struct{}, exclusivity per mapping
}

// New constructs an Orchestrator. conventions must already have passed
// ValidatePattern on its regex fields.
func New(client *tracker.Client, st *store.Store, mappings *MappingStore, conventions types.Conventions, strategy Strategy) *Orchestrator {
	return &Orchestrator{
		Client:      client,
		Store:       st,
		Mappings:    mappings,
		Conventions: conventions,
		Strategy:    strategy,
		Log:         slog.Default(),
	}
}

// MappingCount returns the number of known local-to-external mappings, for
// the daemon's /healthz response.
func (o *Orchestrator) MappingCount() int {
	return o.Mappings.Count()
}

// Stats summarizes one ProcessWebhookEvent or Pull run.
type Stats struct {
	Created   int
	Updated   int
	Pushed    int
	Pulled    int
	Skipped   int
	Conflicts []types.SyncConflict
}

// lock acquires per-mapping exclusivity; release must be called exactly
// once. A mapping already in-flight blocks here rather than racing a
// concurrent resolution of the same pair.
func (o *Orchestrator) lock(localID string) func() {
	for {
		if _, loaded := o.inFlight.LoadOrStore(localID, struct{}{}); !loaded {
			return func() { o.inFlight.Delete(localID) }
		}
		time.Sleep(time.Millisecond)
	}
}

// ProcessWebhookEvent applies one decoded webhook event (external →
// local direction).
func (o *Orchestrator) ProcessWebhookEvent(ctx context.Context, event webhook.Event) (Stats, error) {
	switch event.Kind {
	case webhook.EventIssues:
		return o.processIssueEvent(ctx, event)
	case webhook.EventIssueComment:
		return o.processCommentEvent(ctx, event)
	default:
		return Stats{Skipped: 1}, nil
	}
}

type issuesPayload struct {
	Issue tracker.Issue `json:"issue"`
}

func (o *Orchestrator) processIssueEvent(ctx context.Context, event webhook.Event) (Stats, error) {
	var payload issuesPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return Stats{}, fmt.Errorf("decode issues payload: %w", err)
	}
	return o.resolveExternal(ctx, &payload.Issue)
}

type commentPayload struct {
	Action  string          `json:"action"`
	Issue   tracker.Issue   `json:"issue"`
	Comment tracker.Comment `json:"comment"`
}

// processCommentEvent appends the external comment to the mapped local
// issue's description. Comment sync is one-way passthrough only, per the
// spec's documented non-goal for two-way comment sync.
func (o *Orchestrator) processCommentEvent(ctx context.Context, event webhook.Event) (Stats, error) {
	var payload commentPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return Stats{}, fmt.Errorf("decode issue_comment payload: %w", err)
	}

	mapping, ok := o.Mappings.ByExternalNumber(payload.Issue.Number)
	if !ok {
		return Stats{Skipped: 1}, nil
	}

	issues, _, err := o.Store.Load()
	if err != nil {
		return Stats{}, err
	}
	for _, issue := range issues {
		if issue.ID != mapping.LocalID {
			continue
		}
		author := ""
		if payload.Comment.User != nil {
			author = payload.Comment.User.Login
		}
		issue.Description = appendComment(issue.Description, author, payload.Comment.Body)
		if _, err := o.Store.Upsert(issue); err != nil {
			return Stats{}, err
		}
		return Stats{Updated: 1}, nil
	}
	return Stats{Skipped: 1}, nil
}

func appendComment(description, author, body string) string {
	if author == "" {
		author = "unknown"
	}
	return description + fmt.Sprintf("\n\n---\n**%s commented:**\n%s", author, body)
}

// resolveExternal runs the three-way resolution algorithm for one
// external issue against its local counterpart, creating the mapping if
// this is the first time the pair has been seen.
func (o *Orchestrator) resolveExternal(ctx context.Context, gh *tracker.Issue) (Stats, error) {
	local, deps, err := tracker.ToLocal(gh, o.Conventions)
	if err != nil {
		return Stats{}, err
	}

	mapping, known := o.Mappings.ByExternalNumber(gh.Number)
	if !known {
		mapping = types.IssueMapping{
			ExternalNumber: gh.Number,
			ExternalURL:    gh.HTMLURL,
		}
		local.ID = localIDForNew(gh)
		mapping.LocalID = local.ID
	}
	local.ID = mapping.LocalID
	local.DependsOn = deps

	unlock := o.lock(mapping.LocalID)
	defer unlock()

	issues, _, err := o.Store.Load()
	if err != nil {
		return Stats{}, err
	}
	var current *types.Issue
	for i := range issues {
		if issues[i].ID == mapping.LocalID {
			current = &issues[i]
			break
		}
	}

	L, E, S := threeWayTimestamps(current, gh, mapping)

	switch {
	case L.Compare(S) <= 0 && E.Compare(S) <= 0:
		return Stats{Skipped: 1}, nil

	case L.Compare(S) <= 0 && E.Compare(S) > 0:
		wasNew := current == nil
		written, err := o.Store.Upsert(local)
		if err != nil {
			return Stats{}, err
		}
		mapping.LocalUpdatedAt = written.UpdatedAt
		mapping.ExternalUpdatedAt = formatTime(gh.UpdatedAt)
		mapping.LastSyncedAt = nowRFC3339()
		if err := o.Mappings.Put(mapping); err != nil {
			return Stats{}, err
		}
		if wasNew {
			return Stats{Created: 1, Pulled: 1}, nil
		}
		return Stats{Updated: 1, Pulled: 1}, nil

	case L.Compare(S) > 0 && E.Compare(S) <= 0:
		if err := o.pushLocalToExternal(ctx, *current, gh.Number, &mapping); err != nil {
			return Stats{}, err
		}
		return Stats{Pushed: 1}, nil

	default:
		return o.resolveConflict(ctx, current, local, gh, &mapping)
	}
}

// resolveConflict handles the L > S && E > S case per the installation's
// strategy.
func (o *Orchestrator) resolveConflict(ctx context.Context, current *types.Issue, external types.Issue, gh *tracker.Issue, mapping *types.IssueMapping) (Stats, error) {
	switch o.Strategy {
	case StrategyLocalWins:
		if current == nil {
			return Stats{Skipped: 1}, nil
		}
		if err := o.pushLocalToExternal(ctx, *current, gh.Number, mapping); err != nil {
			return Stats{}, err
		}
		return Stats{Pushed: 1, Conflicts: []types.SyncConflict{{IssueID: mapping.LocalID, Resolution: types.ResolutionLocalWins}}}, nil

	case StrategyGitHubWins:
		written, err := o.Store.Upsert(external)
		if err != nil {
			return Stats{}, err
		}
		mapping.LocalUpdatedAt = written.UpdatedAt
		mapping.ExternalUpdatedAt = formatTime(gh.UpdatedAt)
		mapping.LastSyncedAt = nowRFC3339()
		if err := o.Mappings.Put(*mapping); err != nil {
			return Stats{}, err
		}
		return Stats{Pulled: 1, Conflicts: []types.SyncConflict{{IssueID: mapping.LocalID, Resolution: types.ResolutionRemoteWins}}}, nil

	default: // newest-wins
		localTime, lok := parseRFC3339(current.UpdatedAt)
		externalTime := gh.UpdatedAt
		if externalTime != nil && (!lok || externalTime.After(localTime)) {
			written, err := o.Store.Upsert(external)
			if err != nil {
				return Stats{}, err
			}
			mapping.LocalUpdatedAt = written.UpdatedAt
			mapping.ExternalUpdatedAt = formatTime(gh.UpdatedAt)
			mapping.LastSyncedAt = nowRFC3339()
			return Stats{Pulled: 1}, o.Mappings.Put(*mapping)
		}
		if err := o.pushLocalToExternal(ctx, *current, gh.Number, mapping); err != nil {
			return Stats{}, err
		}
		return Stats{Pushed: 1}, nil
	}
}

// pushLocalToExternal writes local onto the external tracker and
// refreshes the mapping's timestamps from the *written* records, never
// from pre-write snapshots — reusing a pre-write timestamp is the
// known-bad pattern that causes re-sync loops.
func (o *Orchestrator) pushLocalToExternal(ctx context.Context, local types.Issue, number int, mapping *types.IssueMapping) error {
	fields := tracker.ToExternal(local, o.Conventions)
	updated, err := o.Client.UpdateIssue(ctx, number, fields)
	if err != nil {
		return err
	}
	mapping.LocalUpdatedAt = local.UpdatedAt
	mapping.ExternalUpdatedAt = formatTime(updated.UpdatedAt)
	mapping.ExternalURL = updated.HTMLURL
	mapping.LastSyncedAt = nowRFC3339()
	return o.Mappings.Put(*mapping)
}

func localIDForNew(gh *tracker.Issue) string {
	return fmt.Sprintf("gh-%d", gh.Number)
}

func nowRFC3339() string { return time.Now().UTC().Format(time.RFC3339) }

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseRFC3339(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// threeWayTimestamps resolves L (local updated_at), E (external
// updated_at) and S (mapping last_synced_at) to comparable time.Time
// values; a missing value compares as the zero time, which sorts before
// every real timestamp and so behaves like "never updated" / "never
// synced".
func threeWayTimestamps(current *types.Issue, gh *tracker.Issue, mapping types.IssueMapping) (L, E, S comparableTime) {
	if current != nil {
		if t, ok := parseRFC3339(current.UpdatedAt); ok {
			L = comparableTime(t)
		}
	}
	if gh.UpdatedAt != nil {
		E = comparableTime(*gh.UpdatedAt)
	}
	if t, ok := parseRFC3339(mapping.LastSyncedAt); ok {
		S = comparableTime(t)
	}
	return
}

type comparableTime time.Time

func (c comparableTime) Compare(other comparableTime) int {
	t, o := time.Time(c), time.Time(other)
	switch {
	case t.Before(o):
		return -1
	case t.After(o):
		return 1
	default:
		return 0
	}
}
