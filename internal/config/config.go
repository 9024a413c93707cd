package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/flarebyte/amqkill/internal/paths"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTimeoutSeconds = 30
	DefaultVaultBackend   = "keychain"
)

// JolokiaConfig holds transport settings for the broker's management agent.
// The agent address itself is discovered from the broker process.
type JolokiaConfig struct {
	Username           string `yaml:"username,omitempty"`
	Password           string `yaml:"password,omitempty"`
	PasswordSecret     string `yaml:"password_secret,omitempty"` // vault entry holding the password
	TimeoutSeconds     int    `yaml:"timeout_seconds"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

type VaultConfig struct {
	Backend string `yaml:"backend"`
}

type Config struct {
	Jolokia JolokiaConfig `yaml:"jolokia"`
	Vault   VaultConfig   `yaml:"vault"`
}

// Timeout returns the HTTP timeout for management calls.
func (c JolokiaConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultTimeoutSeconds * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func defaults() Config {
	return Config{
		Jolokia: JolokiaConfig{TimeoutSeconds: DefaultTimeoutSeconds},
		Vault:   VaultConfig{Backend: DefaultVaultBackend},
	}
}

// Path returns the expected path to the config.yaml file.
func Path() string {
	return paths.ConfigFile()
}

// Load reads configuration from config.yaml if it exists.
// Missing file is not an error; defaults are returned.
func Load() (Config, error) {
	cfg := defaults()
	b, err := os.ReadFile(Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	var fileCfg Config
	if err := yaml.Unmarshal(b, &fileCfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	// Merge: override defaults with provided values if non-zero
	if fileCfg.Jolokia.Username != "" {
		cfg.Jolokia.Username = fileCfg.Jolokia.Username
	}
	if fileCfg.Jolokia.Password != "" {
		cfg.Jolokia.Password = fileCfg.Jolokia.Password
	}
	if fileCfg.Jolokia.PasswordSecret != "" {
		cfg.Jolokia.PasswordSecret = fileCfg.Jolokia.PasswordSecret
	}
	if fileCfg.Jolokia.TimeoutSeconds != 0 {
		cfg.Jolokia.TimeoutSeconds = fileCfg.Jolokia.TimeoutSeconds
	}
	if fileCfg.Jolokia.InsecureSkipVerify {
		cfg.Jolokia.InsecureSkipVerify = true
	}
	if fileCfg.Vault.Backend != "" {
		cfg.Vault.Backend = fileCfg.Vault.Backend
	}
	return cfg, nil
}

// Save writes cfg to Path(), creating the home directory if needed.
func Save(cfg Config) (string, error) {
	if _, err := paths.EnsureHome(); err != nil {
		return "", err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}
	p := Path()
	if err := os.WriteFile(p, b, 0o600); err != nil {
		return "", err
	}
	return p, nil
}

// Problems reports configuration values that cannot work.
func (c Config) Problems() []string {
	var problems []string
	if c.Jolokia.TimeoutSeconds < 0 {
		problems = append(problems, "jolokia.timeout_seconds must be >= 0")
	}
	if c.Jolokia.Password != "" && c.Jolokia.PasswordSecret != "" {
		problems = append(problems, "jolokia.password and jolokia.password_secret are mutually exclusive")
	}
	if (c.Jolokia.Password != "" || c.Jolokia.PasswordSecret != "") && c.Jolokia.Username == "" {
		problems = append(problems, "jolokia.username is required when a password is configured")
	}
	switch c.Vault.Backend {
	case "", "keychain":
	default:
		problems = append(problems, fmt.Sprintf("vault.backend %q not implemented", c.Vault.Backend))
	}
	return problems
}
