package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig
	HTTP     HTTPConfig
	Auth     AuthConfig
	Session  SessionConfig
	Fixture  FixtureConfig
	Device   DeviceConfig
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	DSN string // SQLite DSN; the default is an in-memory shared-cache DB
}

// HTTPConfig contains HTTP server settings.
type HTTPConfig struct {
	Address string // listen address (e.g., ":8080")
}

// AuthConfig contains authentication settings.
//
// The role passwords are the mock shared-role credentials the product
// ships with: one constant for the admin account and one shared by every
// regular account. There is no per-user password.
type AuthConfig struct {
	JWTSecret     string
	AdminPassword string // valid for every admin-role account
	UserPassword  string // valid for every non-admin account
}

// SessionConfig controls where the active session is mirrored on disk.
type SessionConfig struct {
	File string // path of the single-session JSON file
}

// FixtureConfig controls the seeded demo data.
type FixtureConfig struct {
	Seed        int64 // RNG seed; same seed, same fleet
	DeviceCount int
}

// DeviceConfig contains device behavior settings.
type DeviceConfig struct {
	RestartDelay time.Duration // maintenance window during a restart
}

// Load loads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg, err := LoadWithDefaults()
	if err != nil {
		return nil, err
	}
	if os.Getenv("JWT_SECRET") == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set; required for production")
	}
	return cfg, nil
}

// LoadWithDefaults is like Load but uses a safe default for JWT_SECRET in
// development. WARNING: Only use in development! Use Load() in production.
func LoadWithDefaults() (*Config, error) {
	seed, err := getEnvInt64("SEED", 1)
	if err != nil {
		return nil, err
	}
	count, err := getEnvInt("DEVICE_COUNT", 12)
	if err != nil {
		return nil, err
	}
	delayMS, err := getEnvInt("RESTART_DELAY_MS", 2000)
	if err != nil {
		return nil, err
	}

	return &Config{
		Database: DatabaseConfig{
			DSN: getEnv("DB_DSN", "file:fleet?mode=memory&cache=shared"),
		},
		HTTP: HTTPConfig{
			Address: getEnv("HTTP_ADDRESS", ":8080"),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", "dev-secret-change-me"),
			AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),
			UserPassword:  getEnv("USER_PASSWORD", "user123"),
		},
		Session: SessionConfig{
			File: getEnv("SESSION_FILE", "session.json"),
		},
		Fixture: FixtureConfig{
			Seed:        seed,
			DeviceCount: count,
		},
		Device: DeviceConfig{
			RestartDelay: time.Duration(delayMS) * time.Millisecond,
		},
	}, nil
}

// getEnv retrieves an environment variable with a default fallback.
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

// getEnvInt retrieves an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultVal int) (int, error) {
	if value, exists := os.LookupEnv(key); exists {
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
		}
		return intVal, nil
	}
	return defaultVal, nil
}

func getEnvInt64(key string, defaultVal int64) (int64, error) {
	if value, exists := os.LookupEnv(key); exists {
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
		}
		return intVal, nil
	}
	return defaultVal, nil
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	return fmt.Sprintf("Config{DB: %s, HTTP: %s, Session: %s, Auth: *** (masked) ***}",
		c.Database.DSN, c.HTTP.Address, c.Session.File)
}
