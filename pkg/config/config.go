// Package config loads service configuration from an optional YAML file with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override the config file.
const (
	EnvAddress      = "ACTIVITIES_ADDRESS"
	EnvTeachersFile = "ACTIVITIES_TEACHERS_FILE"
)

// Config holds the complete service configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	Catalog CatalogConfig `yaml:"catalog"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Address string `yaml:"address"`
	// StaticDir, when set, is served under /static/ and / redirects to
	// /static/index.html.
	StaticDir string `yaml:"static_dir"`
}

// Duration is a time.Duration that unmarshals from YAML as either a Go
// duration string ("24h") or a number of seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		if parsed, err := time.ParseDuration(s); err == nil {
			*d = Duration(parsed)
			return nil
		}
	}

	var secs float64
	if err := value.Decode(&secs); err == nil {
		*d = Duration(time.Duration(secs * float64(time.Second)))
		return nil
	}

	return fmt.Errorf("duration %q must be a Go duration string or a number of seconds", value.Value)
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// AuthConfig configures teacher authentication.
type AuthConfig struct {
	// TeachersFile is the path to the JSON credentials document.
	TeachersFile string `yaml:"teachers_file"`
	// SessionTTL bounds server-side session lifetime. It also sets the
	// session cookie's max-age.
	SessionTTL Duration `yaml:"session_ttl"`
	// CookieHashKey is the HMAC key for session cookie signing. When empty
	// a random per-process key is generated; sessions do not survive a
	// restart anyway.
	CookieHashKey string `yaml:"cookie_hash_key"`
}

// CatalogConfig configures the activity catalog.
type CatalogConfig struct {
	// EnforceCapacity makes signups respect max_participants.
	EnforceCapacity bool `yaml:"enforce_capacity"`
	// SeedFile optionally replaces the built-in activity seed.
	SeedFile string `yaml:"seed_file"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Address: ":8080",
		},
		Auth: AuthConfig{
			TeachersFile: "teachers.json",
			SessionTTL:   Duration(24 * time.Hour),
		},
	}
}

// Load reads a YAML config file, fills unset fields with defaults, and
// applies environment overrides. An empty path yields the default config
// (plus overrides).
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvAddress); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv(EnvTeachersFile); v != "" {
		cfg.Auth.TeachersFile = v
	}
}

func (c Config) validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Auth.TeachersFile == "" {
		return fmt.Errorf("auth.teachers_file must not be empty")
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("auth.session_ttl must be positive, got %s", c.Auth.SessionTTL.Std())
	}
	return nil
}
