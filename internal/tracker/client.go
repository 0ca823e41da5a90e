package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/beadsync/beadsync/internal/errs"
)

// NewClient builds a client for one owner/repo, rate-limited proactively
// to stay under GitHub's budget rather than reacting only after a 429.
func NewClient(token, owner, repo string) *Client {
	return &Client{
		Token:   token,
		Owner:   owner,
		Repo:    repo,
		BaseURL: DefaultAPIEndpoint,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	return &Client{Token: c.Token, Owner: c.Owner, Repo: c.Repo, BaseURL: c.BaseURL, HTTPClient: httpClient}
}

func (c *Client) WithBaseURL(baseURL string) *Client {
	return &Client{Token: c.Token, Owner: c.Owner, Repo: c.Repo, BaseURL: baseURL, HTTPClient: c.HTTPClient}
}

func (c *Client) repoPath() string { return c.Owner + "/" + c.Repo }

func (c *Client) buildURL(path string, params map[string]string) string {
	u := c.BaseURL + path
	if len(params) > 0 {
		values := url.Values{}
		for k, v := range params {
			values.Set(k, v)
		}
		u += "?" + values.Encode()
	}
	return u
}

// clientLimiter throttles outbound requests to a conservative fraction of
// GitHub's unauthenticated-adjacent budget; a per-client instance would be
// more precise but this package is used one client per installation, so a
// package-level limiter keeps the budget shared and simple.
var clientLimiter = rate.NewLimiter(rate.Limit(10), 20)

// doRequest performs one authenticated API call, retrying transient
// failures and rate-limit responses with exponential backoff. Retry-After
// is honored exactly when GitHub supplies it.
func (c *Client) doRequest(ctx context.Context, method, urlStr string, body interface{}) ([]byte, http.Header, error) {
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	var respBody []byte
	var respHeader http.Header
	bo := &retryAfterBackOff{inner: backoff.WithContext(backoff.NewExponentialBackOff(), ctx)}

	operation := func() error {
		if err := clientLimiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		var reqBody io.Reader
		if bodyBytes != nil {
			reqBody = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, urlStr, reqBody)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+c.Token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close() //nolint:errcheck

		const maxResponseSize = 50 * 1024 * 1024
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusTooManyRequests ||
			(resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0") {
			delay := time.Duration(0)
			if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
				if seconds, err := strconv.Atoi(retryAfter); err == nil {
					delay = time.Duration(seconds) * time.Second
				}
			}
			bo.pending = delay
			return fmt.Errorf("rate limited")
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return backoff.Permanent(&errs.ExternalAPIError{StatusCode: resp.StatusCode, Message: string(data)})
		}

		respBody = data
		respHeader = resp.Header
		return nil
	}

	limited := backoff.WithMaxRetries(bo, 5)
	if err := backoff.Retry(operation, limited); err != nil {
		return nil, nil, fmt.Errorf("request failed after retries: %w", err)
	}
	return respBody, respHeader, nil
}

// retryAfterBackOff wraps the exponential policy but honors a
// server-dictated Retry-After delay, set by operation as a side effect,
// in place of the exponential curve for that one retry.
type retryAfterBackOff struct {
	inner   backoff.BackOff
	pending time.Duration // > 0 once set by the most recent rate-limited attempt
}

func (b *retryAfterBackOff) NextBackOff() time.Duration {
	if b.pending > 0 {
		delay := b.pending
		b.pending = 0
		return delay
	}
	return b.inner.NextBackOff()
}

func (b *retryAfterBackOff) Reset() { b.inner.Reset() }

var linkNextPattern = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

func hasNextPage(headers http.Header) (string, bool) {
	link := headers.Get("Link")
	if link == "" {
		return "", false
	}
	matches := linkNextPattern.FindStringSubmatch(link)
	if len(matches) < 2 {
		return "", false
	}
	return matches[1], true
}

func (c *Client) fetchIssuesPaged(ctx context.Context, state string, since *time.Time) ([]Issue, error) {
	var allIssues []Issue
	page := 1

	for {
		select {
		case <-ctx.Done():
			return allIssues, ctx.Err()
		default:
		}

		params := map[string]string{
			"per_page": strconv.Itoa(MaxPageSize),
			"page":     strconv.Itoa(page),
		}
		if state != "" && state != "all" {
			params["state"] = state
		} else {
			params["state"] = "all"
		}
		if since != nil {
			params["since"] = since.UTC().Format(time.RFC3339)
		}

		urlStr := c.buildURL("/repos/"+c.repoPath()+"/issues", params)
		respBody, headers, err := c.doRequest(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return nil, fmt.Errorf("fetch issues: %w", err)
		}

		var issues []Issue
		if err := json.Unmarshal(respBody, &issues); err != nil {
			return nil, fmt.Errorf("parse issues response: %w", err)
		}
		for i := range issues {
			if issues[i].PullRequest == nil {
				allIssues = append(allIssues, issues[i])
			}
		}

		if _, ok := hasNextPage(headers); !ok {
			break
		}
		page++
		if page > MaxPages {
			return nil, fmt.Errorf("pagination limit exceeded: stopped after %d pages", MaxPages)
		}
	}

	return allIssues, nil
}

// FetchIssues retrieves every issue (paginated to completion), filtering
// out pull requests which GitHub returns on the same endpoint.
func (c *Client) FetchIssues(ctx context.Context, state string) ([]Issue, error) {
	return c.fetchIssuesPaged(ctx, state, nil)
}

// FetchIssuesSince retrieves issues updated at or after since, paginated
// to completion.
func (c *Client) FetchIssuesSince(ctx context.Context, state string, since time.Time) ([]Issue, error) {
	return c.fetchIssuesPaged(ctx, state, &since)
}

func (c *Client) CreateIssue(ctx context.Context, title, body string, labels []string) (*Issue, error) {
	reqBody := map[string]interface{}{"title": title, "body": body}
	if len(labels) > 0 {
		reqBody["labels"] = labels
	}
	urlStr := c.buildURL("/repos/"+c.repoPath()+"/issues", nil)
	respBody, _, err := c.doRequest(ctx, http.MethodPost, urlStr, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}
	var issue Issue
	if err := json.Unmarshal(respBody, &issue); err != nil {
		return nil, fmt.Errorf("parse create response: %w", err)
	}
	return &issue, nil
}

func (c *Client) UpdateIssue(ctx context.Context, number int, updates map[string]interface{}) (*Issue, error) {
	urlStr := c.buildURL("/repos/"+c.repoPath()+"/issues/"+strconv.Itoa(number), nil)
	respBody, _, err := c.doRequest(ctx, http.MethodPatch, urlStr, updates)
	if err != nil {
		return nil, fmt.Errorf("update issue: %w", err)
	}
	var issue Issue
	if err := json.Unmarshal(respBody, &issue); err != nil {
		return nil, fmt.Errorf("parse update response: %w", err)
	}
	return &issue, nil
}

func (c *Client) FetchIssueByNumber(ctx context.Context, number int) (*Issue, error) {
	urlStr := c.buildURL("/repos/"+c.repoPath()+"/issues/"+strconv.Itoa(number), nil)
	respBody, _, err := c.doRequest(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch issue #%d: %w", number, err)
	}
	var issue Issue
	if err := json.Unmarshal(respBody, &issue); err != nil {
		return nil, fmt.Errorf("parse issue response: %w", err)
	}
	return &issue, nil
}

// RemoveLabel removes a label from an issue. A 404 response is treated as
// success: the label is already gone, which is the outcome the caller
// wanted (spec §4.9 idempotent-removal contract).
func (c *Client) RemoveLabel(ctx context.Context, number int, name string) error {
	urlStr := c.buildURL("/repos/"+c.repoPath()+"/issues/"+strconv.Itoa(number)+"/labels/"+url.PathEscape(name), nil)
	_, _, err := c.doRequest(ctx, http.MethodDelete, urlStr, nil)
	if err != nil {
		var apiErr *errs.ExternalAPIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil
		}
		return fmt.Errorf("remove label: %w", err)
	}
	return nil
}

// AddComment posts a comment on an issue.
func (c *Client) AddComment(ctx context.Context, number int, body string) error {
	urlStr := c.buildURL("/repos/"+c.repoPath()+"/issues/"+strconv.Itoa(number)+"/comments", nil)
	_, _, err := c.doRequest(ctx, http.MethodPost, urlStr, map[string]interface{}{"body": body})
	if err != nil {
		return fmt.Errorf("add comment: %w", err)
	}
	return nil
}

func (c *Client) ListRepositories(ctx context.Context) ([]Repository, error) {
	params := map[string]string{"per_page": "100", "sort": "updated"}
	urlStr := c.buildURL("/user/repos", params)
	respBody, _, err := c.doRequest(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}
	var repos []Repository
	if err := json.Unmarshal(respBody, &repos); err != nil {
		return nil, fmt.Errorf("parse repositories response: %w", err)
	}
	return repos, nil
}
