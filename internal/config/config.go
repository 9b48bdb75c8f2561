package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"powerslide/internal/models"
)

// Storage backends for the deck sink
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

type ServerConfig struct {
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port string `env:"PORT" envDefault:"8080"`
}

type TLSConfig struct {
	Enabled    bool   `env:"ENABLED"     envDefault:"false"`
	CertFile   string `env:"CERT_FILE"`
	KeyFile    string `env:"KEY_FILE"`
	MinVersion string `env:"MIN_VERSION" envDefault:"1.2"`
}

type StorageConfig struct {
	Backend       string `env:"STORAGE_BACKEND" envDefault:"sqlite"`
	DataPath      string `env:"DATA_PATH"       envDefault:"./data"`
	DBPath        string `env:"DB_PATH"         envDefault:"./data/powerslide.db"`
	MaxImageBytes int64  `env:"MAX_IMAGE_BYTES" envDefault:"10485760"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL"   envDefault:"info"`
	ToFile bool   `env:"LOG_TO_FILE" envDefault:"false"`
}

// Config holds the server configuration, read from POWERSLIDE_* variables
type Config struct {
	Server  ServerConfig  `envPrefix:"POWERSLIDE_"`
	TLS     TLSConfig     `envPrefix:"POWERSLIDE_TLS_"`
	Storage StorageConfig `envPrefix:"POWERSLIDE_"`
	Log     LogConfig     `envPrefix:"POWERSLIDE_"`
}

// Load parses the environment and validates the result
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite, BackendFile, BackendMemory:
	default:
		return fmt.Errorf("%w: %q", models.ErrUnknownBackend, c.Storage.Backend)
	}
	if c.TLS.Enabled && (c.TLS.CertFile == "" || c.TLS.KeyFile == "") {
		return fmt.Errorf("POWERSLIDE_TLS_CERT_FILE and POWERSLIDE_TLS_KEY_FILE are required when TLS is enabled")
	}
	if c.Storage.MaxImageBytes <= 0 {
		return fmt.Errorf("POWERSLIDE_MAX_IMAGE_BYTES must be positive")
	}
	return nil
}
