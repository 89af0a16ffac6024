package ledger

import (
	"fmt"

	"github.com/ManuelReschke/EduPay/internal/pkg/env"
)

const (
	StoreMemory = "memory"
	StoreMySQL  = "mysql"
)

// Config holds the ledger service settings
type Config struct {
	Host        string
	Port        string
	Store       string // memory or mysql
	SeedFile    string // optional db.json loaded on start
	APIKey      string // shared secret expected from clients, empty disables the check
	LogRequests bool
}

// LoadConfig loads the ledger configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Host:        env.GetEnv("LEDGER_HOST", "localhost"),
		Port:        env.GetEnv("LEDGER_PORT", "4001"),
		Store:       env.GetEnv("LEDGER_STORE", StoreMemory),
		SeedFile:    env.GetEnv("LEDGER_SEED_FILE", ""),
		APIKey:      env.GetEnv("LEDGER_API_KEY", ""),
		LogRequests: env.GetEnvBool("LEDGER_LOG_REQUESTS", true),
	}

	if cfg.Store != StoreMemory && cfg.Store != StoreMySQL {
		return nil, fmt.Errorf("LEDGER_STORE must be %q or %q, got %q", StoreMemory, StoreMySQL, cfg.Store)
	}
	if cfg.Store == StoreMySQL && !env.IsDev() && cfg.APIKey == "" {
		return nil, fmt.Errorf("LEDGER_API_KEY is required outside of dev when the mysql store is used")
	}

	return cfg, nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}
