// Package github is a small, rate-limited client for the GitHub REST calls
// the board uses: creating issues and branches.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bugboard/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var ErrNoToken = errors.New("github token not configured")

// APIError is a non-2xx response from GitHub. Body holds the decoded JSON
// payload when there was one.
type APIError struct {
	StatusCode int
	Body       any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: status %d", e.StatusCode)
}

type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient returns a client for baseURL allowing perSecond requests with a
// small burst. perSecond <= 0 disables limiting.
func NewClient(baseURL string, perSecond float64) *Client {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(limit, 5),
	}
}

type IssueRequest struct {
	Owner     string
	Repo      string
	Title     string
	Body      string
	Labels    []string
	Assignees []string
}

type Issue struct {
	Number  int    `json:"number"`
	HTMLURL string `json:"html_url"`
	Title   string `json:"title"`
	State   string `json:"state"`
}

func (c *Client) CreateIssue(ctx context.Context, token string, req IssueRequest) (*Issue, error) {
	payload := map[string]any{"title": req.Title}
	if req.Body != "" {
		payload["body"] = req.Body
	}
	if len(req.Labels) > 0 {
		payload["labels"] = req.Labels
	}
	if len(req.Assignees) > 0 {
		payload["assignees"] = req.Assignees
	}

	var issue Issue
	if err := c.do(ctx, token, http.MethodPost, repoPath(req.Owner, req.Repo, "issues"), payload, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

type BranchRequest struct {
	Owner  string
	Repo   string
	Branch string
	// Base defaults to the repository's default branch.
	Base string
}

type Branch struct {
	Ref  string `json:"ref"`
	Name string `json:"name"`
	Base string `json:"base"`
	SHA  string `json:"sha"`
	URL  string `json:"url"`
}

func (c *Client) CreateBranch(ctx context.Context, token string, req BranchRequest) (*Branch, error) {
	base := req.Base
	if base == "" {
		var meta struct {
			DefaultBranch string `json:"default_branch"`
		}
		if err := c.do(ctx, token, http.MethodGet, repoPath(req.Owner, req.Repo, ""), nil, &meta); err != nil {
			return nil, err
		}
		base = meta.DefaultBranch
	}

	var ref struct {
		Object struct {
			SHA string `json:"sha"`
		} `json:"object"`
	}
	if err := c.do(ctx, token, http.MethodGet, repoPath(req.Owner, req.Repo, "git/ref/heads/"+escapeRef(base)), nil, &ref); err != nil {
		return nil, err
	}
	if ref.Object.SHA == "" {
		return nil, errors.New("github: could not determine base commit sha")
	}

	var created struct {
		Ref    string `json:"ref"`
		URL    string `json:"url"`
		Object struct {
			SHA string `json:"sha"`
		} `json:"object"`
	}
	payload := map[string]string{"ref": "refs/heads/" + req.Branch, "sha": ref.Object.SHA}
	if err := c.do(ctx, token, http.MethodPost, repoPath(req.Owner, req.Repo, "git/refs"), payload, &created); err != nil {
		return nil, err
	}
	return &Branch{
		Ref:  created.Ref,
		Name: req.Branch,
		Base: base,
		SHA:  created.Object.SHA,
		URL:  created.URL,
	}, nil
}

// escapeRef escapes each segment of a ref name, keeping the slashes of
// names like release/1.2.
func escapeRef(name string) string {
	segments := strings.Split(name, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

func repoPath(owner, repo, rest string) string {
	p := "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo)
	if rest != "" {
		p += "/" + rest
	}
	return p
}

func (c *Client) do(ctx context.Context, token, method, path string, in, out any) error {
	if token == "" {
		return ErrNoToken
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("github %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var decoded any
		if json.Unmarshal(raw, &decoded) == nil {
			apiErr.Body = decoded
		}
		logger.SystemLogger.Warn("github request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return apiErr
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}
