// Package config loads the cardadvisor CLI configuration from
// ~/.cardadvisor/config.yaml with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the config file name within the state directory.
const FileName = "config.yaml"

// DefaultBaseURL matches the backend address the original web client
// defaulted to.
const DefaultBaseURL = "http://localhost:8080"

// DefaultTimeout bounds each API request issued by the CLI.
const DefaultTimeout = 30 * time.Second

// Config holds client settings. File values override the defaults and
// environment variables override the file.
type Config struct {
	BaseURL string        `yaml:"base_url" env:"CARDADVISOR_BASE_URL"`
	Timeout time.Duration `yaml:"timeout" env:"CARDADVISOR_TIMEOUT"`
}

// Load reads the config from dir/config.yaml. A missing file yields the
// defaults. A .env file in the working directory is honored if present.
func Load(dir string) (*Config, error) {
	_ = godotenv.Load() // best-effort; absence is the normal case

	cfg := &Config{
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
	}

	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// fall through to env overrides
	case err != nil:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := envdecode.Decode(cfg); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		return nil, fmt.Errorf("decoding environment: %w", err)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return cfg, nil
}

// Save writes the config to dir/config.yaml, creating the directory if
// needed.
func Save(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(filepath.Join(dir, FileName), data, 0o644)
}
