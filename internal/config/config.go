package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
)

// Config holds all runtime configuration.  Signing secrets and token
// lifetimes are required; the server refuses to start without them.
type Config struct {
	Env  string // application environment (dev/test/prod)
	Port string // HTTP port to listen on

	DBUser string
	DBPass string // optional
	DBHost string
	DBPort string
	DBName string

	AccessSecret   string // signs access tokens
	RefreshSecret  string // signs refresh tokens; independent of AccessSecret
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt work factor

	AssetStoreURL    string // base URL of the object-storage API (optional)
	AssetStoreKey    string // bearer key for the object-storage API
	DefaultAvatarURL string // fallback avatar when upload is skipped or fails
}

// Load reads configuration from the environment.  Missing required
// variables are a startup-fatal error.
func Load() Config {
	return Config{
		Env:  must("APP_ENV"),
		Port: must("APP_PORT"),

		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: must("DB_HOST"),
		DBPort: must("DB_PORT"),
		DBName: must("DB_NAME"),

		AccessSecret:   must("ACCESS_TOKEN_SECRET"),
		RefreshSecret:  must("REFRESH_TOKEN_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),

		AssetStoreURL:    os.Getenv("ASSET_STORE_URL"),
		AssetStoreKey:    os.Getenv("ASSET_STORE_KEY"),
		DefaultAvatarURL: envStr("DEFAULT_AVATAR_URL", "https://assets.stockroom.dev/avatars/default.png"),
	}
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must but converts the value to an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
