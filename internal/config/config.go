package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/refgen/internal/foundation/errors"
)

// DefaultPath is the configuration file looked up when --config is not given.
const DefaultPath = "refgen.yaml"

// DefaultWorkspaceDir is where checkouts are placed when the config does not say otherwise.
const DefaultWorkspaceDir = "./tmp"

//go:embed default.yaml
var defaultConfig []byte

// envFiles are loaded (in order) before the configuration is expanded.
var envFiles = []string{".env", ".env.local"}

// Load reads, expands, defaults and validates the configuration at path.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ferrors.ConfigError("configuration file not found").
				WithContext("path", path).
				WithCause(err).
				Build()
		}
		return nil, ferrors.ConfigError("read configuration").WithContext("path", path).WithCause(err).Build()
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, ferrors.ConfigError("parse configuration").WithContext("path", path).WithCause(err).Build()
	}
	return cfg, nil
}

// LoadOrDefault loads path, falling back to the built-in configuration when the
// file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		slog.Info("Configuration file not found, using built-in configuration", slog.String("path", path))
		loadEnvFiles()
		return Default()
	}
	return Load(path)
}

// Default returns the built-in configuration.
func Default() (*Config, error) {
	cfg, err := Parse(defaultConfig)
	if err != nil {
		return nil, ferrors.InternalError("built-in configuration is invalid").WithCause(err).Build()
	}
	return cfg, nil
}

// DefaultYAML returns the raw built-in configuration document.
func DefaultYAML() []byte { return bytes.Clone(defaultConfig) }

// Parse decodes a YAML document, expanding ${VAR} references against the
// environment, then applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Init writes the built-in configuration to path.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return ferrors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).
			Build()
	}
	if err := os.WriteFile(path, defaultConfig, 0o600); err != nil {
		return ferrors.FileSystemError("write configuration").WithContext("path", path).WithCause(err).Build()
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Workspace.Dir == "" {
		cfg.Workspace.Dir = DefaultWorkspaceDir
	}
	for i := range cfg.Repositories {
		repo := &cfg.Repositories[i]
		if repo.Language == "" {
			repo.Language = LanguagePython
		}
		if repo.Auth != nil {
			if t := NormalizeAuthType(string(repo.Auth.Type)); t != "" {
				repo.Auth.Type = t
			}
		}
	}
}

// loadEnvFiles loads .env style files without overriding the process environment.
func loadEnvFiles() {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			slog.Warn("Failed to load environment file", slog.String("path", f), slog.String("error", err.Error()))
			continue
		}
		slog.Debug("Loaded environment variables", slog.String("path", f))
	}
}
