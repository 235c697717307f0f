package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/albertocavalcante/datameta/internal/log"
)

// ConfigFileName is the name of the project-level config file.
const ConfigFileName = "datameta.toml"

// ConfigDirName is the name of the project-level config directory.
const ConfigDirName = ".datameta"

// GlobalConfigDir is the name of the global config directory inside the user's config dir.
const GlobalConfigDir = "datameta"

// Load loads configuration from defaults, the global config and the
// environment. Project config needs a root and is applied by LoadFrom.
func Load() *Config {
	cfg := LoadGlobal()
	applyEnvironmentVariables(cfg)
	return cfg
}

// LoadFrom loads configuration for the given root directory:
// defaults, global config, project config in root, then environment.
func LoadFrom(root string) *Config {
	return LoadOnto(LoadGlobal(), root)
}

// LoadGlobal returns the defaults merged with the global config file.
// The environment is not applied.
func LoadGlobal() *Config {
	cfg := NewConfig()
	if globalCfg := loadGlobalConfig(); globalCfg != nil {
		cfg.Merge(globalCfg)
	}
	return cfg
}

// LoadOnto layers the project config in root and then the environment
// over base, which is modified and returned. Callers that resolve the
// root from the global config use it to read that file only once.
func LoadOnto(base *Config, root string) *Config {
	if projectCfg := loadProjectConfigFrom(root); projectCfg != nil {
		base.Merge(projectCfg)
	}
	applyEnvironmentVariables(base)
	return base
}

// EnvRoot returns DATAMETA_ROOT, trimmed.
func EnvRoot() string {
	return strings.TrimSpace(os.Getenv("DATAMETA_ROOT"))
}

// LoadFile decodes a single explicit config file. Unlike discovered
// files, a missing or malformed explicit file is an error.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &cfg, nil
}

func loadGlobalConfig() *Config {
	path := GetGlobalConfigPath()
	if path == "" {
		return nil
	}
	return loadConfigFile(path)
}

// loadProjectConfigFrom checks .datameta/config.toml first, then datameta.toml.
func loadProjectConfigFrom(dir string) *Config {
	for _, path := range GetProjectConfigPaths(dir) {
		if cfg := loadConfigFile(path); cfg != nil {
			return cfg
		}
	}
	return nil
}

// loadConfigFile returns nil when the file is absent or unreadable.
func loadConfigFile(path string) *Config {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		log.Warn("ignoring malformed config file", "path", path, "error", err)
		return nil
	}

	log.Info("loaded config", "path", path)
	return &cfg
}

// applyEnvironmentVariables applies DATAMETA_* environment variables to the config.
func applyEnvironmentVariables(cfg *Config) {
	applyStringEnv("DATAMETA_ROOT", &cfg.Root)
	applyStringEnv("DATAMETA_DATA_DIR", &cfg.DataDir)
	applyStringEnv("DATAMETA_MANIFEST", &cfg.Manifest)
	applyStringEnv("DATAMETA_PATTERN", &cfg.Pattern)
	applyStringEnv("DATAMETA_DEFAULT_VERSION", &cfg.DefaultVersion)
	applyStringEnv("DATAMETA_TIMESTAMP_FORMAT", &cfg.TimestampFormat)

	if v := os.Getenv("DATAMETA_WATCH_DEBOUNCE_MS"); v != "" {
		if ms, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.Watch.DebounceMS = ms
		} else {
			log.Warn("ignoring DATAMETA_WATCH_DEBOUNCE_MS", "value", v, "error", err)
		}
	}

	applyBoolEnv("DATAMETA_NO_COLOR", &cfg.Output.NoColor)
}

func applyStringEnv(envVar string, target *string) {
	if v := strings.TrimSpace(os.Getenv(envVar)); v != "" {
		*target = v
	}
}

// applyBoolEnv applies a boolean environment variable to a pointer.
func applyBoolEnv(envVar string, target **bool) {
	if v := os.Getenv(envVar); v != "" {
		v = strings.ToLower(v)
		if v == "true" || v == "1" || v == "yes" {
			t := true
			*target = &t
		} else if v == "false" || v == "0" || v == "no" {
			f := false
			*target = &f
		}
	}
}

// GetGlobalConfigPath returns the path to the global config file.
func GetGlobalConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, GlobalConfigDir, "config.toml")
}

// GetProjectConfigPaths returns potential project config paths for a given root.
func GetProjectConfigPaths(dir string) []string {
	return []string{
		filepath.Join(dir, ConfigDirName, "config.toml"),
		filepath.Join(dir, ConfigFileName),
	}
}
