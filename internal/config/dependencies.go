package config

import (
	"context"
	"database/sql"

	"bugboard/configs"
	"bugboard/internal/auth"
	"bugboard/internal/board"
	"bugboard/internal/github"
	"bugboard/internal/repository"
	"bugboard/internal/websocket"
	"bugboard/pkg/crypto"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
)

// BoardResolver decides whose board a caller works on.
type BoardResolver interface {
	ResolveBoardOwner(ctx context.Context, id auth.Identity) (string, error)
}

// RequestAuthenticator turns request credentials into a caller.
type RequestAuthenticator interface {
	Authenticate(ctx context.Context, authorization, sessionCookie string) *auth.Identity
}

// Process-wide dependencies shared by handlers and middleware. Tests replace
// them with fakes.
var (
	Cfg         configs.Config
	DB          *sql.DB
	Validate    = validator.New()
	RedisClient *redis.Client

	Store   repository.Store
	Auth    RequestAuthenticator
	Boards  BoardResolver
	Secrets *crypto.SecretBox
	GitHub  *github.Client
	Hub     *websocket.Hub
)

// Setup wires every dependency from cfg. rdb may be nil.
func Setup(cfg configs.Config, db *sql.DB, rdb *redis.Client) {
	Cfg = cfg
	DB = db
	RedisClient = rdb

	store := repository.NewPostgresStore(db)
	Store = store
	Boards = board.NewResolver(store)
	Auth = auth.NewAuthenticator(NewVerifier(cfg, rdb), store)
	Secrets = crypto.NewSecretBox(cfg.EncryptionKey)
	GitHub = github.NewClient(cfg.GithubAPIURL, cfg.GithubRateLimit)
	Hub = websocket.NewHub(rdb)
}

// NewVerifier builds the token verifier: the shared secret first, then the
// issuer's published key set.
func NewVerifier(cfg configs.Config, rdb *redis.Client) *auth.Verifier {
	var keys *auth.KeySetCache
	if url := cfg.JWKSURL(); url != "" {
		keys = auth.NewKeySetCache(url, cfg.JWKSTTL, rdb)
	}
	return auth.NewVerifier(
		auth.NewHMACStrategy(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience),
		auth.NewKeySetStrategy(keys, cfg.JWTIssuer, cfg.JWTAudience),
	)
}
