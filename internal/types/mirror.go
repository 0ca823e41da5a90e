package types

// IssueMapping is the three-way bridge the Mirror Orchestrator maintains
// between a local Issue and its external-tracker counterpart.
type IssueMapping struct {
	LocalID           string `json:"local_id"`
	ExternalNumber    int    `json:"external_number"`
	ExternalURL       string `json:"external_url,omitempty"`
	LastSyncedAt      string `json:"last_synced_at"`
	LocalUpdatedAt    string `json:"local_updated_at"`
	ExternalUpdatedAt string `json:"external_updated_at"`
}

// DeliveryRecord marks a single external webhook delivery id as seen, for
// idempotent dedup bookkeeping. The webhook Ingestor's bounded LRU keys on
// the delivery id alone and does not store this record.
type DeliveryRecord struct {
	DeliveryID string `json:"delivery_id"`
	ReceivedAt string `json:"received_at"`
}

// ConflictResolution is how a SyncConflict was or will be resolved.
type ConflictResolution string

const (
	ResolutionLocalWins  ConflictResolution = "local-wins"
	ResolutionRemoteWins ConflictResolution = "remote-wins"
	ResolutionManual     ConflictResolution = "manual"
)

// SyncConflict is a single differing field between the store-side and
// file-side (or local-side and external-side) view of an issue.
type SyncConflict struct {
	IssueID       string             `json:"issue_id"`
	Field         string             `json:"field"`
	LocalValue    string             `json:"local_value"`
	ExternalValue string             `json:"external_value"`
	Resolution    ConflictResolution `json:"resolution"`
}

// Installation binds beadsync to one external-tracker account/repository.
type Installation struct {
	ID               string
	Owner            string
	Repo             string
	Token            string
	Conventions      Conventions
	ConflictStrategy string // github-wins | local-wins | newest-wins
}

// Conventions configures how external labels and body markers map onto
// the canonical Issue fields for one installation.
type Conventions struct {
	LabelsType               map[string]string `json:"labels.type"`
	LabelsPriority           map[string]int    `json:"labels.priority"`
	LabelsStatusInProgress   string            `json:"labels.status.inProgress"`
	LabelsStatusBlocked      string            `json:"labels.status.blocked"`
	DependenciesPattern      string            `json:"dependencies.pattern"`
	DependenciesSeparator    string            `json:"dependencies.separator"`
	EpicsLabelPrefix         string            `json:"epics.labelPrefix"`
	EpicsBodyPattern         string            `json:"epics.bodyPattern"`
}

// Comment is a one-way passthrough of an external issue comment, appended
// to the local issue's description when an issue_comment webhook event
// arrives. Two-way comment sync is out of scope.
type Comment struct {
	ExternalID string `json:"external_id"`
	Author     string `json:"author"`
	Body       string `json:"body"`
	CreatedAt  string `json:"created_at"`
}
