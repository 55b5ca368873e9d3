package auth

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"
	"time"

	"bugboard/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

var asymmetricMethods = []string{
	"RS256", "RS384", "RS512",
	"PS256", "PS384", "PS512",
	"ES256", "ES384", "ES512",
}

// minRefetchInterval bounds how often an unknown kid may force a refetch.
const minRefetchInterval = 30 * time.Second

type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
}

// KeySet maps key ids to verification keys.
type KeySet map[string]crypto.PublicKey

// ParseKeySet decodes a JWKS document. Keys that are not for signature use
// or have an unsupported type are skipped.
func ParseKeySet(raw []byte) (KeySet, error) {
	var doc struct {
		Keys []jwk `json:"keys"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode jwks: %w", err)
	}
	set := KeySet{}
	for _, k := range doc.Keys {
		if k.Use != "" && k.Use != "sig" {
			continue
		}
		key, err := k.publicKey()
		if err != nil {
			logger.SecurityLogger.Warn("skipping jwk", zap.String("kid", k.Kid), zap.Error(err))
			continue
		}
		set[k.Kid] = key
	}
	return set, nil
}

func (k jwk) publicKey() (crypto.PublicKey, error) {
	switch k.Kty {
	case "RSA":
		n, err := decodeBigInt(k.N)
		if err != nil {
			return nil, err
		}
		e, err := decodeBigInt(k.E)
		if err != nil {
			return nil, err
		}
		if !e.IsInt64() || e.Int64() > 1<<31-1 {
			return nil, errors.New("rsa exponent out of range")
		}
		return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
	case "EC":
		var curve elliptic.Curve
		switch k.Crv {
		case "P-256":
			curve = elliptic.P256()
		case "P-384":
			curve = elliptic.P384()
		case "P-521":
			curve = elliptic.P521()
		default:
			return nil, fmt.Errorf("unsupported curve %q", k.Crv)
		}
		x, err := decodeBigInt(k.X)
		if err != nil {
			return nil, err
		}
		y, err := decodeBigInt(k.Y)
		if err != nil {
			return nil, err
		}
		if !curve.IsOnCurve(x, y) {
			return nil, errors.New("ec point not on curve")
		}
		return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
	default:
		return nil, fmt.Errorf("unsupported key type %q", k.Kty)
	}
}

func decodeBigInt(s string) (*big.Int, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode jwk field: %w", err)
	}
	if len(b) == 0 {
		return nil, errors.New("empty jwk field")
	}
	return new(big.Int).SetBytes(b), nil
}

// KeySetCache fetches a JWKS document and keeps it for ttl. When a Redis
// client is set the raw document is shared between instances.
type KeySetCache struct {
	url    string
	ttl    time.Duration
	client *http.Client
	redis  *redis.Client

	mu        sync.Mutex
	keys      KeySet
	fetchedAt time.Time
	now       func() time.Time
}

func NewKeySetCache(url string, ttl time.Duration, rdb *redis.Client) *KeySetCache {
	return &KeySetCache{
		url:    url,
		ttl:    ttl,
		client: &http.Client{Timeout: 10 * time.Second},
		redis:  rdb,
		now:    time.Now,
	}
}

func (c *KeySetCache) redisKey() string { return "bugboard:jwks:" + c.url }

// Key returns the key for kid, refetching once if kid is unknown and the
// cached set is older than minRefetchInterval.
func (c *KeySetCache) Key(ctx context.Context, kid string) (crypto.PublicKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.keys == nil || now.Sub(c.fetchedAt) > c.ttl {
		if err := c.load(ctx, false); err != nil {
			return nil, err
		}
	}
	if key, ok := c.keys[kid]; ok {
		return key, nil
	}
	if now.Sub(c.fetchedAt) < minRefetchInterval {
		return nil, fmt.Errorf("unknown kid %q", kid)
	}
	if err := c.load(ctx, true); err != nil {
		return nil, err
	}
	if key, ok := c.keys[kid]; ok {
		return key, nil
	}
	return nil, fmt.Errorf("unknown kid %q", kid)
}

func (c *KeySetCache) load(ctx context.Context, skipShared bool) error {
	if c.redis != nil && !skipShared {
		raw, err := c.redis.Get(ctx, c.redisKey()).Bytes()
		switch {
		case err == nil:
			if keys, perr := ParseKeySet(raw); perr == nil {
				c.keys, c.fetchedAt = keys, c.now()
				return nil
			}
		case !errors.Is(err, redis.Nil):
			logger.ErrorLogger.Error("jwks cache read failed", zap.Error(err))
		}
	}

	raw, err := c.fetch(ctx)
	if err != nil {
		return err
	}
	keys, err := ParseKeySet(raw)
	if err != nil {
		return err
	}
	c.keys, c.fetchedAt = keys, c.now()

	if c.redis != nil {
		if err := c.redis.Set(ctx, c.redisKey(), raw, c.ttl).Err(); err != nil {
			logger.ErrorLogger.Error("jwks cache write failed", zap.Error(err))
		}
	}
	logger.SystemLogger.Info("jwks refreshed", zap.String("url", c.url), zap.Int("keys", len(keys)))
	return nil
}

func (c *KeySetCache) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch jwks: status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}

// KeySetStrategy verifies asymmetric tokens against the issuer's key set.
type KeySetStrategy struct {
	keys     *KeySetCache
	issuer   string
	audience string
}

// NewKeySetStrategy accepts a nil cache, meaning the strategy is not
// configured.
func NewKeySetStrategy(keys *KeySetCache, issuer, audience string) *KeySetStrategy {
	return &KeySetStrategy{keys: keys, issuer: issuer, audience: audience}
}

func (s *KeySetStrategy) Name() string { return "jwks" }

func (s *KeySetStrategy) Verify(ctx context.Context, token string) (*Claims, error) {
	if s.keys == nil {
		return nil, errors.New("key set not configured")
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		return s.keys.Key(ctx, kid)
	}, jwt.WithValidMethods(asymmetricMethods))
	if err != nil {
		return nil, err
	}
	if err := checkClaims(claims, s.issuer, s.audience); err != nil {
		return nil, err
	}
	return claims, nil
}
