package configs

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          int
	DBHost        string
	DBPort        int
	DBUser        string
	DBPassword    string
	DBName        string
	DBNameTest    string
	DBSSLMode     string
	RedisHost     string
	RedisPort     int
	RedisPassword string

	LogDir    string
	UploadDir string

	// JWT
	SupabaseURL string
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	JWKSTTL     time.Duration
	TokenTTL    time.Duration

	// Session cookie fallback
	SessionCookie string
	SessionTTL    time.Duration

	EncryptionKey string

	GithubToken     string
	GithubAPIURL    string
	GithubRateLimit float64

	CORSOrigins string
	RateLimit   int
}

// requiredVars mirrors the deployment checklist: without these the API cannot
// authenticate anyone or store GitHub credentials.
var requiredVars = []string{
	"DB_HOST",
	"DB_USER",
	"DB_NAME",
	"SUPABASE_JWT_SECRET",
	"APP_ENCRYPTION_KEY",
}

func LoadConfig() Config {
	// Muat file .env
	if err := godotenv.Load(); err != nil {
		// Hanya log jika tidak dalam mode test
		if os.Getenv("GO_ENV") != "test" {
			log.Println("No .env file found, using default values")
		}
	}

	supabaseURL := strings.TrimSuffix(os.Getenv("SUPABASE_URL"), "/")
	issuer := os.Getenv("JWT_ISSUER")
	if issuer == "" && supabaseURL != "" {
		issuer = supabaseURL + "/auth/v1"
	}

	return Config{
		Port:          intEnv("PORT", 3004),
		DBHost:        os.Getenv("DB_HOST"),
		DBPort:        intEnv("DB_PORT", 5432),
		DBUser:        os.Getenv("DB_USER"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBName:        os.Getenv("DB_NAME"),
		DBNameTest:    os.Getenv("DB_NAME_TEST"),
		DBSSLMode:     stringEnv("DB_SSLMODE", "disable"),
		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     intEnv("REDIS_PORT", 6379),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		LogDir:    stringEnv("LOG_DIR", "logs"),
		UploadDir: stringEnv("UPLOAD_DIR", "uploads"),

		SupabaseURL: supabaseURL,
		JWTSecret:   os.Getenv("SUPABASE_JWT_SECRET"),
		JWTIssuer:   issuer,
		JWTAudience: stringEnv("JWT_AUDIENCE", "authenticated"),
		JWKSTTL:     durationEnv("JWKS_CACHE_TTL", 10*time.Minute),
		TokenTTL:    durationEnv("ACCESS_TOKEN_TTL", time.Hour),

		SessionCookie: stringEnv("SESSION_COOKIE", "bugboard_session"),
		SessionTTL:    durationEnv("SESSION_TTL", 7*24*time.Hour),

		EncryptionKey: os.Getenv("APP_ENCRYPTION_KEY"),

		GithubToken:     os.Getenv("GITHUB_TOKEN"),
		GithubAPIURL:    stringEnv("GITHUB_API_URL", "https://api.github.com"),
		GithubRateLimit: floatEnv("GITHUB_RATE_LIMIT", 1),

		CORSOrigins: stringEnv("CORS_ORIGINS", "*"),
		RateLimit:   intEnv("RATE_LIMIT_PER_MINUTE", 100),
	}
}

// JWKSURL is where the issuer publishes its signing keys. Empty when no issuer
// base URL is configured.
func (c Config) JWKSURL() string {
	if c.JWTIssuer == "" {
		return ""
	}
	return strings.TrimSuffix(c.JWTIssuer, "/") + "/.well-known/jwks.json"
}

// Missing returns the required environment variables that are not set.
func (c Config) Missing() []string {
	var missing []string
	for _, key := range requiredVars {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

func stringEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return value
}

func floatEnv(key string, fallback float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return value
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return value
}
