// Package config loads the service configuration from yaml, a .env file and
// environment overrides. Every tunable of the reconciliation pipeline has a
// documented default here rather than a literal at the call site.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Auth      AuthConfig      `yaml:"auth"`
	Sync      SyncConfig      `yaml:"sync"`
	LLM       LLMConfig       `yaml:"llm"`
	Costing   CostingConfig   `yaml:"costing"`
	Prep      PrepConfig      `yaml:"prep"`
	Pricing   PricingConfig   `yaml:"pricing"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

// ServerConfig holds listener ports
type ServerConfig struct {
	Port        int `yaml:"port"`
	MetricsPort int `yaml:"metrics_port"`
}

// DatabaseConfig selects the flat store backend. Driver "memory" keeps
// everything in process.
type DatabaseConfig struct {
	Driver  string `yaml:"driver"`
	DSN     string `yaml:"dsn"`
	LogMode bool   `yaml:"log_mode"`
}

// LogConfig controls zerolog output
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// AuthConfig enables bearer-token checks on the API when Secret is set
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// SyncConfig points the best-effort backend sync at a remote endpoint.
// An empty endpoint disables syncing.
type SyncConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Token    string        `yaml:"token"`
	Timeout  time.Duration `yaml:"timeout"`
}

// LLMConfig enables suggested talking points when an API key is present
type LLMConfig struct {
	Model  string `yaml:"model"`
	APIKey string `yaml:"api_key"`
}

// CostingConfig holds the costing constants
type CostingConfig struct {
	LaborRatePerHour float64 `yaml:"labor_rate_per_hour"`
	FoodCostTarget   float64 `yaml:"food_cost_target"`
}

// LeadTimeBucket maps a lead time ceiling to a task priority
type LeadTimeBucket struct {
	MaxHours float64 `yaml:"max_hours"`
	Priority int     `yaml:"priority"`
}

// PrepConfig tunes prep plan generation
type PrepConfig struct {
	LeadTimeBuckets     []LeadTimeBucket `yaml:"lead_time_buckets"`
	FallbackPriority    int              `yaml:"fallback_priority"`
	DefaultStation      string           `yaml:"default_station"`
	DefaultHorizonHours float64          `yaml:"default_horizon_hours"`
	MergeUnits          bool             `yaml:"merge_units"`
}

// PricingConfig tunes the price comparator
type PricingConfig struct {
	HistoryCap int `yaml:"history_cap"`
}

// DashboardConfig tunes the reconciler
type DashboardConfig struct {
	Throttle time.Duration `yaml:"throttle"`
}

// Default returns the configuration used when no file is present
func Default() Config {
	return Config{
		Server:   ServerConfig{Port: 8080, MetricsPort: 9090},
		Database: DatabaseConfig{Driver: "sqlite3", DSN: "menuops.db"},
		Log:      LogConfig{Level: "info"},
		Sync:     SyncConfig{Timeout: 10 * time.Second},
		LLM:      LLMConfig{Model: "gpt-4o-mini"},
		Costing:  CostingConfig{LaborRatePerHour: 15, FoodCostTarget: 0.30},
		Prep: PrepConfig{
			LeadTimeBuckets: []LeadTimeBucket{
				{MaxHours: 4, Priority: 5},
				{MaxHours: 8, Priority: 4},
				{MaxHours: 24, Priority: 3},
				{MaxHours: 48, Priority: 2},
			},
			FallbackPriority:    1,
			DefaultStation:      "General",
			DefaultHorizonHours: 24,
		},
		Pricing:   PricingConfig{HistoryCap: 1000},
		Dashboard: DashboardConfig{Throttle: 1500 * time.Millisecond},
	}
}

// Load reads path over the defaults. A missing file is not an error. A .env
// file next to the working directory is loaded first when present, and
// environment variables override the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)
	cfg.fillDefaults()
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("MENUOPS_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("MENUOPS_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("MENUOPS_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("MENUOPS_SYNC_ENDPOINT"); v != "" {
		cfg.Sync.Endpoint = v
	}
	if v := os.Getenv("MENUOPS_SYNC_TOKEN"); v != "" {
		cfg.Sync.Token = v
	}
	if v := os.Getenv("MENUOPS_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("MENUOPS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = v
	}
}

// fillDefaults restores defaults for zero values a partial file left behind
func (c *Config) fillDefaults() {
	d := Default()
	if c.Costing.LaborRatePerHour == 0 {
		c.Costing.LaborRatePerHour = d.Costing.LaborRatePerHour
	}
	if c.Costing.FoodCostTarget == 0 {
		c.Costing.FoodCostTarget = d.Costing.FoodCostTarget
	}
	if len(c.Prep.LeadTimeBuckets) == 0 {
		c.Prep.LeadTimeBuckets = d.Prep.LeadTimeBuckets
	}
	if c.Prep.FallbackPriority == 0 {
		c.Prep.FallbackPriority = d.Prep.FallbackPriority
	}
	if c.Prep.DefaultStation == "" {
		c.Prep.DefaultStation = d.Prep.DefaultStation
	}
	if c.Prep.DefaultHorizonHours == 0 {
		c.Prep.DefaultHorizonHours = d.Prep.DefaultHorizonHours
	}
	if c.Pricing.HistoryCap == 0 {
		c.Pricing.HistoryCap = d.Pricing.HistoryCap
	}
	if c.Dashboard.Throttle == 0 {
		c.Dashboard.Throttle = d.Dashboard.Throttle
	}
	if c.Sync.Timeout == 0 {
		c.Sync.Timeout = d.Sync.Timeout
	}
	if c.LLM.Model == "" {
		c.LLM.Model = d.LLM.Model
	}
}

// Validate rejects settings the pipeline cannot work with
func (c *Config) Validate() error {
	if c.Costing.LaborRatePerHour < 0 {
		return fmt.Errorf("costing.labor_rate_per_hour must not be negative")
	}
	if c.Costing.FoodCostTarget < 0 || c.Costing.FoodCostTarget > 1 {
		return fmt.Errorf("costing.food_cost_target must be between 0 and 1")
	}
	prev := -1.0
	for _, b := range c.Prep.LeadTimeBuckets {
		if b.MaxHours <= prev {
			return fmt.Errorf("prep.lead_time_buckets must be in ascending order")
		}
		prev = b.MaxHours
	}
	if c.Dashboard.Throttle < 0 {
		return fmt.Errorf("dashboard.throttle must not be negative")
	}
	switch c.Database.Driver {
	case "sqlite3", "postgres", "memory":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	return nil
}
