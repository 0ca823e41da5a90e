// Package tracker provides a hand-rolled client and data types for the
// GitHub REST API — only the surface the Mirror Orchestrator needs
// (fetch, create, update, list-with-pagination, label removal, add
// comment), not a general-purpose SDK. There is no call that adds a single
// label; labels are only set as a whole through an issue update.
package tracker

import (
	"net/http"
	"strings"
	"time"
)

// API configuration constants.
const (
	DefaultAPIEndpoint = "https://api.github.com"
	DefaultTimeout     = 30 * time.Second
	MaxPageSize        = 100
	// MaxPages bounds pagination so a malformed Link header can never spin
	// the client forever.
	MaxPages = 1000
)

// Client talks to the GitHub REST API for one owner/repo.
type Client struct {
	Token      string
	Owner      string
	Repo       string
	BaseURL    string
	HTTPClient *http.Client
}

// Issue is an issue as returned by the GitHub REST API.
type Issue struct {
	ID          int        `json:"id"`
	Number      int        `json:"number"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	State       string     `json:"state"`
	CreatedAt   *time.Time `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	Labels      []Label    `json:"labels"`
	Assignee    *User      `json:"assignee,omitempty"`
	Assignees   []User     `json:"assignees,omitempty"`
	User        *User      `json:"user,omitempty"`
	Milestone   *Milestone `json:"milestone,omitempty"`
	HTMLURL     string     `json:"html_url"`
	PullRequest *PullRef   `json:"pull_request,omitempty"`
}

// PullRef is non-nil when an "issue" returned by the API is actually a
// pull request; the tracker filters these out.
type PullRef struct {
	URL string `json:"url,omitempty"`
}

// User is a GitHub account.
type User struct {
	ID        int    `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	HTMLURL   string `json:"html_url,omitempty"`
}

// Label is a GitHub issue label.
type Label struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description,omitempty"`
}

// Milestone is a GitHub milestone. It is decoded from API responses but
// not used by the issue conventions mapping.
type Milestone struct {
	ID          int        `json:"id"`
	Number      int        `json:"number"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	State       string     `json:"state"`
	DueOn       *time.Time `json:"due_on,omitempty"`
}

// Repository is a GitHub repository.
type Repository struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	HTMLURL       string `json:"html_url"`
	DefaultBranch string `json:"default_branch,omitempty"`
	Private       bool   `json:"private"`
	Owner         *User  `json:"owner,omitempty"`
}

// Comment is a GitHub issue comment.
type Comment struct {
	ID        int        `json:"id"`
	Body      string     `json:"body"`
	User      *User      `json:"user,omitempty"`
	CreatedAt *time.Time `json:"created_at"`
}

var validStates = map[string]bool{"open": true, "closed": true}

// IsValidState reports whether state is a recognized GitHub issue state.
func IsValidState(state string) bool { return validStates[state] }

// ParseLabelName splits a scoped label like "priority:high" or
// "priority/high" into its prefix and value. GitHub has no native scoped
// labels, so both separators are supported by convention.
func ParseLabelName(label string) (prefix, value string) {
	if parts := strings.SplitN(label, ":", 2); len(parts) == 2 {
		return parts[0], parts[1]
	}
	if parts := strings.SplitN(label, "/", 2); len(parts) == 2 {
		return parts[0], parts[1]
	}
	return "", label
}

// LabelNames extracts label name strings from a slice of Label structs.
func LabelNames(labels []Label) []string {
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = l.Name
	}
	return names
}
