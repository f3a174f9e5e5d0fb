package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Machines    []string          `yaml:"machines"`
	Reservation ReservationConfig `yaml:"reservation"`
	Database    DatabaseConfig    `yaml:"database"`
	Push        PushConfig        `yaml:"push"`
	Chat        ChatConfig        `yaml:"chat"`
	WorkerPool  WorkerPoolConfig  `yaml:"worker_pool"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// ReservationConfig holds the rules of the reservation state machine.
type ReservationConfig struct {
	Timezone            string        `yaml:"timezone"`
	MasterPIN           string        `yaml:"master_pin"`
	ClaimWindowMinutes  int           `yaml:"claim_window_minutes"`
	PollIntervalSeconds int           `yaml:"poll_interval_seconds"`
	ExtendMinutes       int           `yaml:"extend_minutes"`
	ClaimWindow         time.Duration `yaml:"-"` // Ignored by YAML parser
	PollInterval        time.Duration `yaml:"-"`
	ExtendStep          time.Duration `yaml:"-"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// ChatConfig holds the external chat webhook settings.
type ChatConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
	Token      string `yaml:"token"`
	Recipient  string `yaml:"recipient"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if len(cfg.Machines) == 0 {
		return nil, fmt.Errorf("at least one machine must be configured")
	}

	if cfg.Reservation.MasterPIN == "" {
		return nil, fmt.Errorf("reservation.master_pin must be configured")
	}

	if cfg.Reservation.Timezone == "" {
		cfg.Reservation.Timezone = "Asia/Kolkata"
	}

	if cfg.Reservation.ClaimWindowMinutes <= 0 {
		cfg.Reservation.ClaimWindowMinutes = 15
	}
	cfg.Reservation.ClaimWindow = time.Duration(cfg.Reservation.ClaimWindowMinutes) * time.Minute

	if cfg.Reservation.PollIntervalSeconds <= 0 {
		cfg.Reservation.PollIntervalSeconds = 30
	}
	cfg.Reservation.PollInterval = time.Duration(cfg.Reservation.PollIntervalSeconds) * time.Second

	if cfg.Reservation.ExtendMinutes <= 0 {
		cfg.Reservation.ExtendMinutes = 15
	}
	cfg.Reservation.ExtendStep = time.Duration(cfg.Reservation.ExtendMinutes) * time.Minute

	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 5
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	return &cfg, nil
}
