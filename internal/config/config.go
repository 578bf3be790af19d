package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// dev server
	Port         int           `env:"PORT" envDefault:"3000"`
	APITarget    string        `env:"API_TARGET" envDefault:"http://localhost:8080"`
	StaticDir    string        `env:"STATIC_DIR" envDefault:"."`
	ProxyTimeout time.Duration `env:"PROXY_TIMEOUT" envDefault:"30s"`

	// storefront client
	Origin         string        `env:"STOREFRONT_ORIGIN" envDefault:"http://localhost:3000"`
	APIURL         string        `env:"API_URL"`
	FallbackAPIURL string        `env:"FALLBACK_API_URL" envDefault:"http://localhost:8080/api"`
	AdminURL       string        `env:"ADMIN_URL" envDefault:"http://localhost:5173"`
	StoreDSN       string        `env:"STOREFRONT_STORE"`
	HTTPTimeout    time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`

	KafkaBrokers     []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopicPrefix string   `env:"KAFKA_TOPIC_PREFIX"`
}

func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// DefaultStorePath keeps the local store in the user's config directory, away
// from any directory the dev server may serve.
func DefaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "momento", "storefront.db")
}

func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}
	return Parse()
}

// Parse reads the process environment without touching .env files.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid PORT %d", cfg.Port)
	}
	if cfg.ProxyTimeout <= 0 {
		return nil, fmt.Errorf("invalid PROXY_TIMEOUT %s", cfg.ProxyTimeout)
	}
	if cfg.StoreDSN == "" {
		cfg.StoreDSN = DefaultStorePath()
	}
	return cfg, nil
}
