// Package config reads the server configuration from the environment once at
// start-up. A .env file, when present, is loaded first; variables already set
// in the environment win over it.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// Config is immutable after Load.
type Config struct {
	// Server
	Port int

	// Storage
	DataDir         string
	StoreDriver     string
	SQLitePath      string
	BackupRetention int
	BackupInterval  time.Duration

	// Session
	SessionSecret   string
	SessionTTL      time.Duration
	MasterPassword  string
	LoginRatePerMin int
	EphemeralSecret bool // SessionSecret was generated because none was set

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads .env (or the given files) and then the environment.
func Load(envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:            getEnvInt("PORT", 8080),
		DataDir:         getEnvString("DATA_DIR", "data"),
		StoreDriver:     strings.ToLower(getEnvString("STORE_DRIVER", DriverJSON)),
		BackupRetention: getEnvInt("BACKUP_RETENTION", 1000),
		BackupInterval:  getEnvDuration("BACKUP_INTERVAL", 5*time.Minute),
		SessionSecret:   os.Getenv("SESSION_SECRET"),
		SessionTTL:      getEnvDuration("SESSION_TTL", 12*time.Hour),
		MasterPassword:  os.Getenv("MASTER_PASSWORD"),
		LoginRatePerMin: getEnvInt("LOGIN_RATE_PER_MIN", 10),
		LogLevel:        strings.ToLower(getEnvString("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(getEnvString("LOG_FORMAT", "text")),
	}
	cfg.SQLitePath = getEnvString("SQLITE_PATH", filepath.Join(cfg.DataDir, "kanban.db"))

	if cfg.SessionSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.SessionSecret = secret
		cfg.EphemeralSecret = true
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var problems []string
	if c.Port <= 0 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("PORT %d is out of range", c.Port))
	}
	if c.StoreDriver != DriverJSON && c.StoreDriver != DriverSQLite {
		problems = append(problems, fmt.Sprintf("STORE_DRIVER must be %q or %q, got %q", DriverJSON, DriverSQLite, c.StoreDriver))
	}
	if c.BackupRetention < 1 {
		problems = append(problems, "BACKUP_RETENTION must be at least 1")
	}
	if c.BackupInterval <= 0 {
		problems = append(problems, "BACKUP_INTERVAL must be positive")
	}
	if len(c.SessionSecret) < 16 {
		problems = append(problems, "SESSION_SECRET must be at least 16 characters")
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		problems = append(problems, fmt.Sprintf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: loading %s: %w", f, err)
		}
	}
	return nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("config: generating session secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
