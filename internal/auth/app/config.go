package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/dashauth/pkg/jwtx"
)

type Config struct {
	AccessTokenSecret  string        // Required: HS256 secret for access tokens
	RefreshTokenSecret string        // Required: HS256 secret for refresh tokens, must differ from the access secret
	AccessTokenExpiry  time.Duration // Optional: access token lifetime (default: 15m)
	RefreshTokenExpiry time.Duration // Optional: refresh token and session lifetime (default: 7d)
	TokenLeeway        time.Duration // Optional: clock skew accepted when checking exp (default: 0)

	MFAIssuer     string // Optional: issuer shown by authenticator apps (default: Dashboard)
	AdminEmail    string // Optional: seeds the first admin when the users table is empty
	AdminPassword string // Optional: password for the seeded admin, generated when empty

	DatabaseFile         string        // Optional: path to SQLite database file (default: ./auth.db)
	PepperFile           string        // Optional: path to file containing pepper for password hashing (default: ./pepper)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

// LoadConfig reads the environment once. Secrets are checked by Validate.
func LoadConfig() Config {
	return Config{
		AccessTokenSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
		AccessTokenExpiry:  getEnvExpiryOrDefault("ACCESS_TOKEN_EXPIRY", jwtx.DefaultAccessTokenTTL),
		RefreshTokenExpiry: getEnvExpiryOrDefault("REFRESH_TOKEN_EXPIRY", jwtx.DefaultRefreshTokenTTL),
		TokenLeeway:        getEnvDurationOrDefault("TOKEN_LEEWAY", 0),

		MFAIssuer:     getEnvOrDefault("DASHAUTH_MFA_ISSUER", "Dashboard"),
		AdminEmail:    os.Getenv("DASHAUTH_ADMIN_EMAIL"),
		AdminPassword: os.Getenv("DASHAUTH_ADMIN_PASSWORD"),

		DatabaseFile:         getEnvOrDefault("DASHAUTH_DATABASE_FILE", "auth.db"),
		PepperFile:           getEnvOrDefault("DASHAUTH_PEPPER_FILE", "pepper"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var errs []error

	if c.AccessTokenSecret == "" {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET is required"))
	}
	if c.RefreshTokenSecret == "" {
		errs = append(errs, errors.New("REFRESH_TOKEN_SECRET is required"))
	}
	if c.AccessTokenSecret != "" && c.AccessTokenSecret == c.RefreshTokenSecret {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ"))
	}
	// Tokens carry exp in whole seconds.
	access := c.AccessTokenExpiry.Truncate(time.Second)
	refresh := c.RefreshTokenExpiry.Truncate(time.Second)
	if access < time.Second || refresh < time.Second {
		errs = append(errs, errors.New("token expiries must be at least one second"))
	} else if refresh <= access {
		errs = append(errs, fmt.Errorf("REFRESH_TOKEN_EXPIRY (%s) must be longer than ACCESS_TOKEN_EXPIRY (%s)",
			c.RefreshTokenExpiry, c.AccessTokenExpiry))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}

	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

// getEnvDurationOrDefault treats a bare integer as minutes.
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if d, ok := parseDuration(os.Getenv(key), time.Minute); ok {
		return d
	}
	return defaultValue
}

// getEnvExpiryOrDefault treats a bare integer as seconds, the way token
// expiries are usually written.
func getEnvExpiryOrDefault(key string, defaultValue time.Duration) time.Duration {
	if d, ok := parseDuration(os.Getenv(key), time.Second); ok {
		return d
	}
	return defaultValue
}

// parseDuration accepts Go durations ("90s", "1h30m"), a leading day count
// ("7d", "1d12h") and bare integers in the given unit.
func parseDuration(value string, unit time.Duration) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * unit, true
	}

	var days time.Duration
	if before, after, ok := strings.Cut(value, "d"); ok {
		n, err := strconv.Atoi(before)
		if err != nil {
			return 0, false
		}
		days = time.Duration(n) * 24 * time.Hour
		value = after
		if value == "" {
			return days, true
		}
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, false
	}
	return days + d, true
}
