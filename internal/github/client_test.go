package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateIssue(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/repos/acme/web/issues", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"number":42,"html_url":"https://github.com/acme/web/issues/42","title":"Crash","state":"open"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	issue, err := c.CreateIssue(context.Background(), "tok", IssueRequest{Owner: "acme", Repo: "web", Title: "Crash"})
	require.NoError(t, err)
	assert.Equal(t, 42, issue.Number)
	assert.Equal(t, "https://github.com/acme/web/issues/42", issue.HTMLURL)

	assert.Equal(t, "Crash", got["title"])
	_, hasLabels := got["labels"]
	assert.False(t, hasLabels, "empty labels are omitted")
}

func TestCreateIssue_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 0).CreateIssue(context.Background(), "tok", IssueRequest{Owner: "acme", Repo: "nope", Title: "x"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, map[string]any{"message": "Not Found"}, apiErr.Body)
}

func TestCreateIssue_NoToken(t *testing.T) {
	_, err := NewClient("http://127.0.0.1:1", 0).CreateIssue(context.Background(), "", IssueRequest{})
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestCreateBranch_DefaultBase(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch r.URL.Path {
		case "/repos/acme/web":
			_, _ = w.Write([]byte(`{"default_branch":"main"}`))
		case "/repos/acme/web/git/ref/heads/main":
			_, _ = w.Write([]byte(`{"object":{"sha":"abc123"}}`))
		case "/repos/acme/web/git/refs":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "refs/heads/bug-7", body["ref"])
			assert.Equal(t, "abc123", body["sha"])
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"ref":"refs/heads/bug-7","url":"https://api.github.com/repos/acme/web/git/refs/heads/bug-7","object":{"sha":"abc123"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	b, err := NewClient(srv.URL, 0).CreateBranch(context.Background(), "tok", BranchRequest{Owner: "acme", Repo: "web", Branch: "bug-7"})
	require.NoError(t, err)
	assert.Equal(t, "main", b.Base)
	assert.Equal(t, "refs/heads/bug-7", b.Ref)
	assert.Equal(t, "abc123", b.SHA)
	assert.Equal(t, []string{
		"GET /repos/acme/web",
		"GET /repos/acme/web/git/ref/heads/main",
		"POST /repos/acme/web/git/refs",
	}, calls)
}

func TestCreateBranch_ExplicitBaseMissingSHA(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/web/git/ref/heads/develop", r.URL.Path)
		_, _ = w.Write([]byte(`{"object":{}}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 0).CreateBranch(context.Background(), "tok", BranchRequest{Owner: "acme", Repo: "web", Branch: "x", Base: "develop"})
	assert.Error(t, err)
}

func TestCreateBranch_NestedBaseName(t *testing.T) {
	var refPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			refPath = r.URL.EscapedPath()
			_, _ = w.Write([]byte(`{"object":{"sha":"def456"}}`))
		case http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"ref":"refs/heads/hotfix/login","object":{"sha":"def456"}}`))
		}
	}))
	defer srv.Close()

	b, err := NewClient(srv.URL, 0).CreateBranch(context.Background(), "tok", BranchRequest{
		Owner: "acme", Repo: "web", Branch: "hotfix/login", Base: "release/1.2",
	})
	require.NoError(t, err)
	assert.Equal(t, "/repos/acme/web/git/ref/heads/release/1.2", refPath)
	assert.Equal(t, "def456", b.SHA)

	assert.Equal(t, "feature/a%20b", escapeRef("feature/a b"))
}
