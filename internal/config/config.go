package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads the given .env files (default ".env") into the process
// environment without overriding variables that are already set.  Missing
// files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Config holds the client shell's runtime configuration.
type Config struct {
	Env           string        // application environment (dev/test/prod)
	LogLevel      string        // debug | info | warn | error
	APIURL        string        // LMS backend root
	Listen        string        // shell listen address
	HTTPTimeout   time.Duration // timeout of every backend call
	StorageDriver string        // memory | file | redis | sqlite | mysql | postgres
	StoragePath   string        // file/sqlite location
	StorageDSN    string        // mysql/postgres DSN
	NotifyHistory int           // notifications kept in the center
	AMQPURL       string        // broker for notification fan-out; empty disables it
}

// Load reads the shell configuration.  Every value has a default.
func Load() Config {
	driver := envStr("STORAGE_DRIVER", "file")
	return Config{
		Env:           envStr("APP_ENV", "dev"),
		LogLevel:      envStr("LOG_LEVEL", "info"),
		APIURL:        envStr("LMS_API_URL", "http://localhost:8080"),
		Listen:        envStr("LMS_LISTEN", "127.0.0.1:3000"),
		HTTPTimeout:   envDur("LMS_HTTP_TIMEOUT", 15*time.Second),
		StorageDriver: driver,
		StoragePath:   envStr("STORAGE_PATH", defaultStoragePath(driver)),
		StorageDSN:    os.Getenv("STORAGE_DSN"),
		NotifyHistory: envInt("NOTIFY_HISTORY", 50),
		AMQPURL:       amqpURL(),
	}
}

// MockAPIConfig configures the reference backend.
type MockAPIConfig struct {
	Port         string // HTTP port to listen on
	DBDriver     string // sqlite | mysql | postgres
	DBDSN        string // data source name
	JWTSecret    string // secret used to sign JWTs
	AccessTTLMin int    // access token time-to-live in minutes
	BcryptCost   int    // bcrypt cost for password hashing
}

// LoadMockAPI reads the reference backend configuration.  JWT_SECRET is
// required.
func LoadMockAPI() (MockAPIConfig, error) {
	cfg := MockAPIConfig{
		Port:         envStr("MOCK_API_PORT", "8080"),
		DBDriver:     envStr("DB_DRIVER", "sqlite"),
		DBDSN:        envStr("DB_DSN", "lms-mock.db"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		AccessTTLMin: envInt("ACCESS_TOKEN_TTL_MIN", 60),
		BcryptCost:   envInt("BCRYPT_COST", 10),
	}
	if cfg.JWTSecret == "" {
		return cfg, errors.New("missing required env var: JWT_SECRET")
	}
	if cfg.AccessTTLMin < 1 {
		return cfg, fmt.Errorf("invalid ACCESS_TOKEN_TTL_MIN: %d", cfg.AccessTTLMin)
	}
	return cfg, nil
}

func amqpURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}

func defaultStoragePath(driver string) string {
	name := "storage.json"
	if strings.EqualFold(driver, "sqlite") {
		name = "storage.db"
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".lms", name)
	}
	return filepath.Join(home, ".lms", name)
}
