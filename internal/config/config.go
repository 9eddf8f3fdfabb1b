// Package config is a YAML-backed settings object with environment-variable
// overrides and explicit reload semantics, built on gopkg.in/yaml.v3.
//
// Environment lookup itself is injected by the caller (see
// ApplyEnvOverrides) rather than read directly here, keeping os.Getenv-style
// access confined to cmd/dagflow the way the rest of this stack confines it
// to the CLI boundary.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/dagflow/dagflow/internal/artifact"
	"github.com/dagflow/dagflow/internal/task"
)

// envPrefix is prepended to every field's upper-snake-case name to form its
// environment variable override, e.g. DAGFLOW_RESULT_CACHE.
const envPrefix = "DAGFLOW_"

// Lookup resolves an environment variable by name; os.LookupEnv satisfies
// it. Callers outside cmd/dagflow should pass a fake for tests.
type Lookup func(key string) (string, bool)

// Config is the full set of engine-wide settings. Field names are chosen to
// read directly as their YAML keys and their DAGFLOW_* env var names.
type Config struct {
	DefaultExecutor string `yaml:"default_executor"`
	LogLevel        string `yaml:"log_level"`
	MaxDynamicTasks int    `yaml:"max_dynamic_tasks"`

	ArtifactStore      string `yaml:"artifact_store"`
	ArtifactStorePath  string `yaml:"artifact_store_path"`
	ArtifactSerializer string `yaml:"artifact_serializer"`

	ResultCache           string `yaml:"result_cache"`
	ResultCachePath       string `yaml:"result_cache_path"`
	ResultCacheMaxEntries int    `yaml:"result_cache_max_entries"`

	ProcessPoolMaxWorkers int `yaml:"process_pool_max_workers"`
}

// Default returns the configuration used when no file or override is
// present.
func Default() *Config {
	return &Config{
		DefaultExecutor:       "thread",
		LogLevel:              "info",
		MaxDynamicTasks:       10000,
		ArtifactStore:         "memory",
		ArtifactStorePath:     ".dagflow/artifacts",
		ArtifactSerializer:    string(artifact.SerializerGob),
		ResultCache:           "memory",
		ResultCachePath:       ".dagflow/cache",
		ResultCacheMaxEntries: 1000,
		ProcessPoolMaxWorkers: 4,
	}
}

// Load reads path (YAML) over Default()'s baseline. It does not apply any
// environment overrides; call ApplyEnvOverrides afterward.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnvOverrides mutates cfg in place using lookup for every DAGFLOW_*
// variable this package defines.
func ApplyEnvOverrides(cfg *Config, lookup Lookup) {
	overrideString(lookup, &cfg.DefaultExecutor, "DEFAULT_EXECUTOR")
	overrideString(lookup, &cfg.LogLevel, "LOG_LEVEL")
	overrideInt(lookup, &cfg.MaxDynamicTasks, "MAX_DYNAMIC_TASKS")
	overrideString(lookup, &cfg.ArtifactStore, "ARTIFACT_STORE")
	overrideString(lookup, &cfg.ArtifactStorePath, "ARTIFACT_STORE_PATH")
	overrideString(lookup, &cfg.ArtifactSerializer, "ARTIFACT_SERIALIZER")
	overrideString(lookup, &cfg.ResultCache, "RESULT_CACHE")
	overrideString(lookup, &cfg.ResultCachePath, "RESULT_CACHE_PATH")
	overrideInt(lookup, &cfg.ResultCacheMaxEntries, "RESULT_CACHE_MAX_ENTRIES")
	overrideInt(lookup, &cfg.ProcessPoolMaxWorkers, "PROCESS_POOL_MAX_WORKERS")
}

func overrideString(lookup Lookup, dst *string, suffix string) {
	if v, ok := lookup(envPrefix + suffix); ok {
		*dst = v
	}
}

func overrideInt(lookup Lookup, dst *int, suffix string) {
	if v, ok := lookup(envPrefix + suffix); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}

// DefaultExecutorMode parses DefaultExecutor into a task.RunMode, falling
// back to task.Thread on an unrecognized value.
func (c *Config) DefaultExecutorMode() task.RunMode {
	switch c.DefaultExecutor {
	case "async":
		return task.Async
	case "process":
		return task.Process
	default:
		return task.Thread
	}
}

// ArtifactSerializerMode parses ArtifactSerializer into an artifact.Serializer.
func (c *Config) ArtifactSerializerMode() artifact.Serializer {
	if c.ArtifactSerializer == string(artifact.SerializerJSON) {
		return artifact.SerializerJSON
	}
	return artifact.SerializerGob
}

var (
	mu      sync.RWMutex
	current *Config
)

// Active returns the process-wide Config, defaulting to Default() on first
// use.
func Active() *Config {
	mu.RLock()
	c := current
	mu.RUnlock()
	if c != nil {
		return c
	}
	mu.Lock()
	defer mu.Unlock()
	if current == nil {
		current = Default()
	}
	return current
}

// SetActive replaces the process-wide Config, e.g. after cmd/dagflow loads
// and env-overrides one at startup.
func SetActive(cfg *Config) {
	mu.Lock()
	current = cfg
	mu.Unlock()
}
