package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"bugboard/internal/models"
	"bugboard/internal/repository"
	"bugboard/pkg/logger"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MethodBearer = "bearer"
	MethodCookie = "cookie"
)

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Method string `json:"-"`
}

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

type SessionLookup interface {
	GetSession(ctx context.Context, tokenHash string) (*models.Session, error)
}

type Authenticator struct {
	verifier TokenVerifier
	sessions SessionLookup
	now      func() time.Time
}

func NewAuthenticator(verifier TokenVerifier, sessions SessionLookup) *Authenticator {
	return &Authenticator{verifier: verifier, sessions: sessions, now: time.Now}
}

// BearerToken extracts the token from an Authorization header. A header
// without the "Bearer " prefix or with an empty token yields false.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := header[len(prefix):]
	if token == "" {
		return "", false
	}
	return token, true
}

// Authenticate returns the caller, or nil when the request is not
// authenticated. A presented bearer token decides alone: when it fails the
// session cookie is not consulted.
func (a *Authenticator) Authenticate(ctx context.Context, authorization, sessionCookie string) *Identity {
	if token, ok := BearerToken(authorization); ok {
		if a.verifier == nil {
			return nil
		}
		claims, err := a.verifier.Verify(ctx, token)
		if err != nil || claims.Subject == "" {
			return nil
		}
		return &Identity{UserID: claims.Subject, Email: claims.Email, Method: MethodBearer}
	}

	if sessionCookie == "" || a.sessions == nil {
		return nil
	}
	session, err := a.sessions.GetSession(ctx, HashSessionToken(sessionCookie))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.ErrorLogger.Error("session lookup failed", zap.Error(err))
		}
		return nil
	}
	if !a.now().Before(session.ExpiresAt) {
		return nil
	}
	return &Identity{UserID: session.UserID, Email: session.Email, Method: MethodCookie}
}

// HashSessionToken is the form a session token is stored in.
func HashSessionToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// NewSessionToken returns a fresh opaque session token and its hash.
func NewSessionToken() (token, hash string) {
	token = uuid.NewString() + uuid.NewString()
	token = strings.ReplaceAll(token, "-", "")
	return token, HashSessionToken(token)
}

// IssueToken signs an HS256 access token for userID.
func IssueToken(secret, issuer, audience, userID, email string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret not configured")
	}
	now := time.Now()
	claims := Claims{
		Email: email,
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
