package configs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDerivesIssuerFromSupabaseURL(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("SUPABASE_URL", "https://abc.supabase.co/")
	t.Setenv("JWT_ISSUER", "")
	t.Setenv("PORT", "")
	t.Setenv("JWKS_CACHE_TTL", "")

	cfg := LoadConfig()

	assert.Equal(t, "https://abc.supabase.co", cfg.SupabaseURL)
	assert.Equal(t, "https://abc.supabase.co/auth/v1", cfg.JWTIssuer)
	assert.Equal(t, "https://abc.supabase.co/auth/v1/.well-known/jwks.json", cfg.JWKSURL())
	assert.Equal(t, "authenticated", cfg.JWTAudience)
	assert.Equal(t, 3004, cfg.Port)
	assert.Equal(t, 10*time.Minute, cfg.JWKSTTL)
}

func TestLoadConfigExplicitIssuerWins(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("SUPABASE_URL", "https://abc.supabase.co")
	t.Setenv("JWT_ISSUER", "https://issuer.example.com")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")

	cfg := LoadConfig()

	assert.Equal(t, "https://issuer.example.com", cfg.JWTIssuer)
	assert.Equal(t, 15*time.Minute, cfg.TokenTTL)
}

func TestJWKSURLEmptyWithoutIssuer(t *testing.T) {
	assert.Empty(t, Config{}.JWKSURL())
}

func TestMissing(t *testing.T) {
	for _, key := range requiredVars {
		t.Setenv(key, "x")
	}
	t.Setenv("APP_ENCRYPTION_KEY", "")

	missing := Config{}.Missing()

	assert.Equal(t, []string{"APP_ENCRYPTION_KEY"}, missing)
}
