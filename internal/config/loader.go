package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads and parses configuration from a file. ${VAR} references are
// expanded from the environment before parsing. When a .checksums file
// exists next to the config, the file is integrity-verified against it.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}

	if err := verifyIfLocked(absPath); err != nil {
		return nil, err
	}

	expanded := expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR} tokens with environment values. Unset
// variables expand to an empty string so validation catches them.
func expandEnvVars(data []byte) []byte {
	return envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		name := envVarPattern.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(name)))
	})
}

// Default returns a configuration populated with defaults, used when no
// config file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Service.Name == "" {
		cfg.Service.Name = "minibridge"
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = "INFO"
	}
	if cfg.Service.LogFormat == "" {
		cfg.Service.LogFormat = "json"
	}
	if cfg.Service.MethodTimeout <= 0 {
		cfg.Service.MethodTimeout = 30 * time.Second
	}
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = "minibridge.db"
	}
	if cfg.Journal.Retention <= 0 {
		cfg.Journal.Retention = 7 * 24 * time.Hour
	}
	if cfg.Service.LockPath == "" {
		cfg.Service.LockPath = cfg.Journal.Path + ".lock"
	}
	if cfg.API.Listen == "" {
		cfg.API.Listen = "127.0.0.1:8400"
	}
}

func validate(cfg *Config) error {
	if cfg.Service.MethodTimeout < 10*time.Millisecond {
		return fmt.Errorf("service.method_timeout %v is below the 10ms floor", cfg.Service.MethodTimeout)
	}
	if cfg.API.Enabled && cfg.API.Auth.APIKey == "" {
		return fmt.Errorf("api.auth.api_key is required when the API is enabled")
	}
	return nil
}

// verifyIfLocked checks the config file against a sibling .checksums file
// when one exists. A missing .checksums means the config was never locked
// and loads without verification.
func verifyIfLocked(configPath string) error {
	dir := filepath.Dir(configPath)
	manifest, err := LoadChecksums(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	name := filepath.Base(configPath)
	expected, ok := manifest.Hashes[name]
	if !ok {
		return fmt.Errorf("config file %s has no hash in .checksums (run 'minibridge config lock')", name)
	}
	if err := VerifyFileHash(configPath, expected); err != nil {
		return fmt.Errorf("config integrity check failed: %w\n"+
			"If you edited the file intentionally, run: minibridge config lock", err)
	}
	return nil
}
