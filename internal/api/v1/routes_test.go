package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"bugboard/configs"
	"bugboard/internal/auth"
	"bugboard/internal/board"
	"bugboard/internal/config"
	"bugboard/internal/github"
	"bugboard/internal/models"
	"bugboard/internal/repository/repotest"
	"bugboard/internal/websocket"
	"bugboard/pkg/crypto"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "handler-test-jwt-secret-0123456789"
	testIssuer = "https://project.supabase.co/auth/v1"
	// base64 of 32 bytes 0x00..0x1f
	testEncryptionKey = "AAECAwQFBgcICQoLDA0ODxAREhMUFRYXGBkaGxwdHh8="
)

type testEnv struct {
	t     *testing.T
	app   *fiber.App
	store *repotest.MemoryStore
	cfg   configs.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repotest.NewMemoryStore()
	cfg := configs.Config{
		JWTSecret:     testSecret,
		JWTIssuer:     testIssuer,
		JWTAudience:   "authenticated",
		TokenTTL:      time.Hour,
		SessionCookie: "bugboard_session",
		SessionTTL:    time.Hour,
		EncryptionKey: testEncryptionKey,
		GithubAPIURL:  "http://127.0.0.1:1",
		CORSOrigins:   "*",
		UploadDir:     t.TempDir(),
	}

	config.Cfg = cfg
	config.DB = nil
	config.RedisClient = nil
	config.Store = store
	config.Boards = board.NewResolver(store)
	config.Auth = auth.NewAuthenticator(config.NewVerifier(cfg, nil), store)
	config.Secrets = crypto.NewSecretBox(cfg.EncryptionKey)
	config.GitHub = github.NewClient(cfg.GithubAPIURL, 0)

	hub := websocket.NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	config.Hub = hub

	return &testEnv{t: t, app: NewApp(cfg), store: store, cfg: cfg}
}

func (e *testEnv) token(userID, email string) string {
	e.t.Helper()
	tok, err := auth.IssueToken(testSecret, testIssuer, "authenticated", userID, email, time.Hour)
	require.NoError(e.t, err)
	return tok
}

type response struct {
	Status  int
	Body    map[string]any
	Cookies []*http.Cookie
}

func (r response) data() map[string]any {
	d, _ := r.Body["data"].(map[string]any)
	return d
}

func (r response) list() []any {
	d, _ := r.Body["data"].([]any)
	return d
}

func (e *testEnv) request(method, path string, body any, headers map[string]string) response {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	defer resp.Body.Close()

	out := response{Status: resp.StatusCode, Cookies: resp.Cookies()}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	if len(raw) > 0 {
		require.NoError(e.t, json.Unmarshal(raw, &out.Body), string(raw))
	}
	return out
}

func (e *testEnv) as(token, method, path string, body any) response {
	e.t.Helper()
	return e.request(method, path, body, map[string]string{"Authorization": "Bearer " + token})
}

func TestUnauthorizedIsUniform(t *testing.T) {
	env := newTestEnv(t)

	expired, err := auth.IssueToken(testSecret, testIssuer, "authenticated", "u1", "", -time.Minute)
	require.NoError(t, err)
	foreign, err := auth.IssueToken("some-other-secret", testIssuer, "authenticated", "u1", "", time.Hour)
	require.NoError(t, err)

	cases := map[string]map[string]string{
		"no credentials":   nil,
		"garbage bearer":   {"Authorization": "Bearer not.a.jwt"},
		"expired bearer":   {"Authorization": "Bearer " + expired},
		"foreign secret":   {"Authorization": "Bearer " + foreign},
		"unknown cookie":   {"Cookie": "bugboard_session=nope"},
		"basic auth":       {"Authorization": "Basic dXNlcjpwYXNz"},
		"empty bearer":     {"Authorization": "Bearer "},
		"bad bearer+valid": {"Authorization": "Bearer junk", "Cookie": "bugboard_session=whatever"},
	}
	var first map[string]any
	for name, headers := range cases {
		t.Run(name, func(t *testing.T) {
			res := env.request(http.MethodGet, "/api/v1/tasks", nil, headers)
			assert.Equal(t, http.StatusUnauthorized, res.Status)
			if first == nil {
				first = res.Body
			}
			assert.Equal(t, first, res.Body)
			assert.Equal(t, "Unauthorized", res.Body["message"])
		})
	}
}

func TestBearerFailureIgnoresValidCookie(t *testing.T) {
	env := newTestEnv(t)

	reg := env.request(http.MethodPost, "/api/v1/auth/register", map[string]string{"email": "dana@example.com", "password": "secret123"}, nil)
	require.Equal(t, http.StatusCreated, reg.Status)
	login := env.request(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "dana@example.com", "password": "secret123"}, nil)
	require.Equal(t, http.StatusOK, login.Status)

	var session string
	for _, c := range login.Cookies {
		if c.Name == "bugboard_session" {
			session = c.Value
		}
	}
	require.NotEmpty(t, session)

	ok := env.request(http.MethodGet, "/api/v1/tasks", nil, map[string]string{"Cookie": "bugboard_session=" + session})
	assert.Equal(t, http.StatusOK, ok.Status)

	rejected := env.request(http.MethodGet, "/api/v1/tasks", nil, map[string]string{
		"Authorization": "Bearer junk",
		"Cookie":        "bugboard_session=" + session,
	})
	assert.Equal(t, http.StatusUnauthorized, rejected.Status)
}

func TestRegisterLoginLogout(t *testing.T) {
	env := newTestEnv(t)
	creds := map[string]string{"email": "Eve@Example.com", "password": "secret123"}

	res := env.request(http.MethodPost, "/api/v1/auth/register", creds, nil)
	require.Equal(t, http.StatusCreated, res.Status)
	userID := res.data()["id"].(string)
	assert.Equal(t, "eve@example.com", res.data()["email"])

	dup := env.request(http.MethodPost, "/api/v1/auth/register", creds, nil)
	assert.Equal(t, http.StatusConflict, dup.Status)

	bad := env.request(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "eve@example.com", "password": "wrong-pass"}, nil)
	assert.Equal(t, http.StatusUnauthorized, bad.Status)

	invalid := env.request(http.MethodPost, "/api/v1/auth/register", map[string]string{"email": "nope", "password": "1"}, nil)
	assert.Equal(t, http.StatusBadRequest, invalid.Status)

	login := env.request(http.MethodPost, "/api/v1/auth/login", creds, nil)
	require.Equal(t, http.StatusOK, login.Status)
	token := login.data()["token"].(string)

	profile := env.as(token, http.MethodGet, "/api/v1/profile", nil)
	require.Equal(t, http.StatusOK, profile.Status)
	assert.Equal(t, userID, profile.data()["user_id"])
	assert.Equal(t, false, profile.data()["has_github_token"])

	var session string
	for _, c := range login.Cookies {
		if c.Name == "bugboard_session" {
			session = c.Value
		}
	}
	cookie := map[string]string{"Cookie": "bugboard_session=" + session}
	out := env.request(http.MethodPost, "/api/v1/auth/logout", nil, cookie)
	assert.Equal(t, http.StatusOK, out.Status)
	after := env.request(http.MethodGet, "/api/v1/tasks", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, after.Status)
}

func TestLoginIgnoresEmailCase(t *testing.T) {
	env := newTestEnv(t)

	res := env.request(http.MethodPost, "/api/v1/auth/register", map[string]string{"email": "Bob@X.com", "password": "secret123"}, nil)
	require.Equal(t, http.StatusCreated, res.Status)

	login := env.request(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "bob@x.com", "password": "secret123"}, nil)
	assert.Equal(t, http.StatusOK, login.Status)

	dup := env.request(http.MethodPost, "/api/v1/auth/register", map[string]string{"email": "BOB@x.COM", "password": "secret123"}, nil)
	assert.Equal(t, http.StatusConflict, dup.Status)
}

func TestTaskLifecycle(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token("owner-1", "owner@example.com")

	created := env.as(tok, http.MethodPost, "/api/v1/tasks", map[string]any{"title": "  Fix login  "})
	require.Equal(t, http.StatusCreated, created.Status)
	task := created.data()
	assert.Equal(t, "Fix login", task["title"])
	assert.Equal(t, "BUG-1", task["task_key"])
	assert.Equal(t, models.StatusBacklog, task["status"])
	assert.Equal(t, models.PriorityMedium, task["priority"])
	assert.Equal(t, models.TypeTask, task["type"])
	assert.Equal(t, "owner-1", task["user_id"])
	id := task["id"].(string)

	second := env.as(tok, http.MethodPost, "/api/v1/tasks", map[string]any{"title": "Second", "priority": "high", "labels": []string{"ui"}})
	require.Equal(t, http.StatusCreated, second.Status)
	assert.Equal(t, "BUG-2", second.data()["task_key"])

	invalid := env.as(tok, http.MethodPost, "/api/v1/tasks", map[string]any{"title": "x", "status": "archived"})
	assert.Equal(t, http.StatusBadRequest, invalid.Status)
	missing := env.as(tok, http.MethodPost, "/api/v1/tasks", map[string]any{"title": "   "})
	assert.Equal(t, http.StatusBadRequest, missing.Status)

	list := env.as(tok, http.MethodGet, "/api/v1/tasks", nil)
	require.Equal(t, http.StatusOK, list.Status)
	require.Len(t, list.list(), 2)
	assert.Equal(t, "BUG-2", list.list()[0].(map[string]any)["task_key"], "newest first")

	patched := env.as(tok, http.MethodPatch, "/api/v1/tasks/"+id, map[string]any{"status": "in_progress", "task_key": "BUG-99", "user_id": "someone-else"})
	require.Equal(t, http.StatusOK, patched.Status)
	assert.Equal(t, "in_progress", patched.data()["status"])
	assert.Equal(t, "BUG-1", patched.data()["task_key"])
	assert.Equal(t, "owner-1", patched.data()["user_id"])

	badPatch := env.as(tok, http.MethodPatch, "/api/v1/tasks/"+id, map[string]any{"priority": "urgent"})
	assert.Equal(t, http.StatusBadRequest, badPatch.Status)

	stranger := env.token("stranger", "stranger@example.com")
	assert.Equal(t, http.StatusNotFound, env.as(stranger, http.MethodGet, "/api/v1/tasks/"+id, nil).Status)
	assert.Equal(t, http.StatusNotFound, env.as(stranger, http.MethodDelete, "/api/v1/tasks/"+id, nil).Status)

	assert.Equal(t, http.StatusOK, env.as(tok, http.MethodDelete, "/api/v1/tasks/"+id, nil).Status)
	assert.Equal(t, http.StatusNotFound, env.as(tok, http.MethodGet, "/api/v1/tasks/"+id, nil).Status)
}

func TestComments(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token("owner-1", "owner@example.com")

	created := env.as(tok, http.MethodPost, "/api/v1/tasks", map[string]any{"title": "Discuss"})
	require.Equal(t, http.StatusCreated, created.Status)
	path := "/api/v1/tasks/" + created.data()["id"].(string) + "/comments"

	assert.Equal(t, http.StatusBadRequest, env.as(tok, http.MethodPost, path, map[string]string{"content": "   "}).Status)

	first := env.as(tok, http.MethodPost, path, map[string]string{"content": "  first  "})
	require.Equal(t, http.StatusCreated, first.Status)
	assert.Equal(t, "first", first.data()["content"])
	assert.Equal(t, "owner@example.com", first.data()["user_email"])
	require.Equal(t, http.StatusCreated, env.as(tok, http.MethodPost, path, map[string]string{"content": "second"}).Status)

	list := env.as(tok, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, list.Status)
	require.Len(t, list.list(), 2)
	assert.Equal(t, "first", list.list()[0].(map[string]any)["content"])

	tasks := env.as(tok, http.MethodGet, "/api/v1/tasks", nil)
	assert.Equal(t, float64(2), tasks.list()[0].(map[string]any)["comments_count"])

	stranger := env.token("stranger", "s@example.com")
	assert.Equal(t, http.StatusNotFound, env.as(stranger, http.MethodGet, path, nil).Status)
	assert.Equal(t, http.StatusNotFound, env.as(stranger, http.MethodPost, path, map[string]string{"content": "hi"}).Status)
}

// An invited teammate works on the earliest inviter's board.
func TestInvitedUserSharesEarliestInviterBoard(t *testing.T) {
	env := newTestEnv(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	env.store.SeedProfile(models.Profile{UserID: "user-a", Email: "a@x.com", InviteEmails: []string{"bob@x.com"}, CreatedAt: base})
	env.store.SeedProfile(models.Profile{UserID: "user-b", Email: "b@x.com", InviteEmails: []string{"bob@x.com"}, CreatedAt: base.Add(time.Hour)})

	alice := env.token("user-a", "a@x.com")
	require.Equal(t, http.StatusCreated, env.as(alice, http.MethodPost, "/api/v1/tasks", map[string]any{"title": "A's first"}).Status)

	bob := env.token("user-bob", "Bob@X.com")
	res := env.as(bob, http.MethodPost, "/api/v1/tasks", map[string]any{"title": "Bob's task"})
	require.Equal(t, http.StatusCreated, res.Status)
	assert.Equal(t, "user-a", res.data()["user_id"])
	assert.Equal(t, "BUG-2", res.data()["task_key"])

	board := env.as(alice, http.MethodGet, "/api/v1/tasks", nil)
	assert.Len(t, board.list(), 2)

	// B invited bob too, but B's own list is non-empty so B keeps its own board.
	carol := env.token("user-b", "b@x.com")
	assert.Empty(t, env.as(carol, http.MethodGet, "/api/v1/tasks", nil).list())
}

func TestReportsAndPromotion(t *testing.T) {
	env := newTestEnv(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	env.store.SeedProfile(models.Profile{UserID: "lead", InviteEmails: []string{"qa@x.com"}, CreatedAt: base})
	qa := env.token("qa-user", "qa@x.com")

	invalid := env.as(qa, http.MethodPost, "/api/v1/reports", map[string]any{"title": "No type"})
	assert.Equal(t, http.StatusBadRequest, invalid.Status)

	created := env.as(qa, http.MethodPost, "/api/v1/reports", map[string]any{
		"title": "Checkout crash", "type": "bug", "priority": "critical", "description": "500 on pay",
	})
	require.Equal(t, http.StatusCreated, created.Status)
	report := created.data()
	assert.Equal(t, "qa", report["reporter_name"])
	assert.Equal(t, "open", report["status"])
	id := report["id"].(string)

	noEmail := env.token("anon-user", "")
	anon := env.as(noEmail, http.MethodPost, "/api/v1/reports", map[string]any{"title": "t", "type": "task", "priority": "low"})
	require.Equal(t, http.StatusCreated, anon.Status)
	assert.Equal(t, "Anonymous", anon.data()["reporter_name"])

	assert.Equal(t, http.StatusBadRequest, env.as(qa, http.MethodPatch, "/api/v1/reports/"+id, map[string]any{"status": "promoted"}).Status)
	upd := env.as(qa, http.MethodPatch, "/api/v1/reports/"+id, map[string]any{"status": "reviewing"})
	require.Equal(t, http.StatusOK, upd.Status)
	assert.Equal(t, "reviewing", upd.data()["status"])

	promoted := env.as(qa, http.MethodPost, "/api/v1/reports/"+id+"/promote", nil)
	require.Equal(t, http.StatusCreated, promoted.Status)
	task := promoted.data()["task"].(map[string]any)
	assert.Equal(t, "lead", task["user_id"])
	assert.Equal(t, "BUG-1", task["task_key"])
	assert.Equal(t, "backlog", task["status"])
	assert.Equal(t, "critical", task["priority"])
	assert.Equal(t, id, task["report_id"])

	again := env.as(qa, http.MethodPost, "/api/v1/reports/"+id+"/promote", nil)
	assert.Equal(t, http.StatusBadRequest, again.Status)
	assert.Equal(t, "Report already promoted", again.Body["message"])

	missing := env.as(qa, http.MethodPost, "/api/v1/reports/does-not-exist/promote", nil)
	assert.Equal(t, http.StatusNotFound, missing.Status)

	active := env.as(qa, http.MethodGet, "/api/v1/reports", nil)
	assert.Empty(t, active.list())

	other := env.token("someone", "someone@x.com")
	assert.Equal(t, http.StatusNotFound, env.as(other, http.MethodDelete, "/api/v1/reports/"+anon.data()["id"].(string), nil).Status)
	assert.Equal(t, http.StatusOK, env.as(noEmail, http.MethodDelete, "/api/v1/reports/"+anon.data()["id"].(string), nil).Status)
}

func TestProfileUpdateAndBootstrap(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token("user-p", "p@example.com")

	empty := env.as(tok, http.MethodGet, "/api/v1/profile", nil)
	require.Equal(t, http.StatusOK, empty.Status)
	assert.Nil(t, empty.Body["data"])

	res := env.as(tok, http.MethodPatch, "/api/v1/profile", map[string]any{
		"first_name":    " Pat ",
		"invite_emails": []any{" A@X.com", "a@x.com", "", 42, "b@x.com"},
		"githubToken":   "ghp_secret",
		"user_id":       "ignored",
	})
	require.Equal(t, http.StatusOK, res.Status)
	p := res.data()
	assert.Equal(t, "user-p", p["user_id"])
	assert.Equal(t, "Pat", p["first_name"])
	assert.Equal(t, []any{"a@x.com", "b@x.com"}, p["invite_emails"])
	assert.Equal(t, true, p["has_github_token"])
	_, leaked := p["github_token_enc"]
	assert.False(t, leaked)

	stored, err := env.store.GetProfile(context.Background(), "user-p")
	require.NoError(t, err)
	require.NotNil(t, stored.GithubTokenEnc)
	plain, err := config.Secrets.DecryptSecret(*stored.GithubTokenEnc)
	require.NoError(t, err)
	assert.Equal(t, "ghp_secret", plain)

	cleared := env.as(tok, http.MethodPatch, "/api/v1/profile", map[string]any{"githubToken": ""})
	require.Equal(t, http.StatusOK, cleared.Status)
	assert.Equal(t, false, cleared.data()["has_github_token"])
	assert.Equal(t, "Pat", cleared.data()["first_name"])

	user, err := env.store.CreateUser(context.Background(), "new@example.com", "hash")
	require.NoError(t, err)
	mismatch := env.request(http.MethodPost, "/api/v1/profile/bootstrap", map[string]any{"userId": user.ID, "email": "other@example.com"}, nil)
	assert.Equal(t, http.StatusBadRequest, mismatch.Status)
	unknown := env.request(http.MethodPost, "/api/v1/profile/bootstrap", map[string]any{"userId": "missing", "email": "new@example.com"}, nil)
	assert.Equal(t, http.StatusNotFound, unknown.Status)

	boot := env.request(http.MethodPost, "/api/v1/profile/bootstrap", map[string]any{
		"userId": user.ID, "email": "new@example.com", "company": " Acme ", "inviteEmails": []string{"Team@X.com"},
	}, nil)
	require.Equal(t, http.StatusOK, boot.Status)
	bp, err := env.store.GetProfile(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, bp.Company)
	assert.Equal(t, "Acme", *bp.Company)
	assert.Equal(t, []string{"team@x.com"}, bp.InviteEmails)
}

func TestGithubIssueLinksTask(t *testing.T) {
	env := newTestEnv(t)
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"number":7,"html_url":"https://github.com/acme/web/issues/7","title":"Bug","state":"open"}`))
	}))
	defer srv.Close()
	config.GitHub = github.NewClient(srv.URL, 0)

	tok := env.token("dev", "dev@example.com")
	noToken := env.as(tok, http.MethodPost, "/api/v1/github/create-issue", map[string]any{"owner": "acme", "repo": "web", "title": "Bug"})
	assert.Equal(t, http.StatusBadRequest, noToken.Status)

	require.Equal(t, http.StatusOK, env.as(tok, http.MethodPatch, "/api/v1/profile", map[string]any{"githubToken": "ghp_user"}).Status)
	task := env.as(tok, http.MethodPost, "/api/v1/tasks", map[string]any{"title": "Bug"})
	require.Equal(t, http.StatusCreated, task.Status)
	taskID := task.data()["id"].(string)

	res := env.as(tok, http.MethodPost, "/api/v1/github/create-issue", map[string]any{
		"owner": "acme", "repo": "web", "title": "Bug", "task_id": taskID,
	})
	require.Equal(t, http.StatusCreated, res.Status)
	assert.Equal(t, "Bearer ghp_user", gotAuth)
	linked := res.data()["task"].(map[string]any)
	assert.Equal(t, "acme/web", linked["github_repo"])
	assert.Equal(t, float64(7), linked["github_issue_number"])

	missing := env.as(tok, http.MethodPost, "/api/v1/github/create-issue", map[string]any{"owner": "acme"})
	assert.Equal(t, http.StatusBadRequest, missing.Status)
}

func TestGithubProjects(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token("dev", "dev@example.com")

	assert.Equal(t, http.StatusBadRequest, env.as(tok, http.MethodPost, "/api/v1/github/projects", map[string]any{"owner": "acme"}).Status)
	created := env.as(tok, http.MethodPost, "/api/v1/github/projects", map[string]any{"owner": " acme ", "repo": "web", "display_name": ""})
	require.Equal(t, http.StatusCreated, created.Status)
	assert.Equal(t, "acme", created.data()["owner"])
	assert.Nil(t, created.data()["display_name"])

	list := env.as(tok, http.MethodGet, "/api/v1/github/projects", nil)
	require.Len(t, list.list(), 1)

	del := env.as(tok, http.MethodDelete, "/api/v1/github/projects", map[string]any{"id": created.data()["id"]})
	assert.Equal(t, http.StatusOK, del.Status)
	assert.Empty(t, env.as(tok, http.MethodGet, "/api/v1/github/projects", nil).list())
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	res := env.request(http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, res.Status)
}

func logoUpload(t *testing.T, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var b bytes.Buffer
	writer := multipart.NewWriter(&b)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="logo"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := writer.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &b, writer.FormDataContentType()
}

func TestUploadCompanyLogo(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token("user-logo", "logo@example.com")
	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

	body, ct := logoUpload(t, "Logo.PNG", "image/png", png)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/profile/logo", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	url := result["data"].(map[string]any)["company_logo_url"].(string)
	assert.True(t, strings.HasPrefix(url, "/api/v1/uploads/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	get, err := env.app.Test(httptest.NewRequest(http.MethodGet, url, nil), -1)
	require.NoError(t, err)
	defer get.Body.Close()
	assert.Equal(t, http.StatusOK, get.StatusCode)
	served, err := io.ReadAll(get.Body)
	require.NoError(t, err)
	assert.Equal(t, png, served)

	body, ct = logoUpload(t, "notes.txt", "text/plain", []byte("hello"))
	req = httptest.NewRequest(http.MethodPost, "/api/v1/profile/logo", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer "+tok)
	bad, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)

	missing := env.request(http.MethodGet, "/api/v1/uploads/..%2Fsecret", nil, nil)
	assert.Equal(t, http.StatusNotFound, missing.Status)
}
