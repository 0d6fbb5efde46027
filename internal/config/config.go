package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds all application configuration for the indexing service.
type Config struct {
	Roots []string `json:"roots"`
	Store StoreConfig `json:"store"`
	Policy PolicyConfig `json:"policy"`
	Concurrency ConcurrencyConfig `json:"concurrency"`
	Monitor MonitorConfig `json:"monitor"`
	Server ServerConfig `json:"server"`
	Logging LoggingConfig `json:"logging"`
}

// StoreConfig locates the SQLite index file on disk.
type StoreConfig struct {
	Path string `json:"path"`
}

// PolicyConfig configures the exclusion policy, supplementing the
// built-in default sets with operator-provided entries.
type PolicyConfig struct {
	ExtraSystemPaths []string `json:"extra_system_paths"`
	ExtraDevDirectories []string `json:"extra_dev_directories"`
	ExtraVolumeMetadata []string `json:"extra_volume_metadata"`
	DevDirectoryGlobs []string `json:"dev_directory_globs"`
	HiddenFiles bool `json:"hidden_files"`
	DevExtensions bool `json:"dev_extensions"`
}

// ConcurrencyConfig carries the worker/batch tunables.
type ConcurrencyConfig struct {
	FullWorkers int `json:"w_full"`
	ChangeWorkers int `json:"w_changes"`
	RebuildWorkers int `json:"w_rebuild"`
	BatchSize int `json:"batch_size"`
}

// MonitorConfig carries the batching tunables: flush threshold
// B and debounce window D (seconds).
type MonitorConfig struct {
	BatchSize int `json:"batch_size"`
	DebounceSeconds int `json:"debounce_seconds"`
}

// ServerConfig controls the HTTP/WebSocket API surface.
type ServerConfig struct {
	Port int `json:"port"`
	BindAddress string `json:"bind_address"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `json:"level"` // "debug", "info", "warn", "error"
	DebugEnabled bool `json:"debug_enabled"` // Enable debug file logging
	File string `json:"file"` // Debug log file path
	MaxSizeMB int `json:"max_size_mb"` // Max file size before rotation
	MaxBackups int `json:"max_backups"` // Number of backup files to keep
}

func defaultConfig() *Config {
	return &Config{
		Roots: []string{},
		Store: StoreConfig{
			Path: "seek.db",
		},
		Policy: PolicyConfig{
			HiddenFiles: false,
			DevExtensions: false,
		},
		Concurrency: ConcurrencyConfig{
			FullWorkers: 8,
			ChangeWorkers: 6,
			RebuildWorkers: 4,
			BatchSize: 50000,
		},
		Monitor: MonitorConfig{
			BatchSize: 50,
			DebounceSeconds: 2,
		},
		Server: ServerConfig{
			Port: 8080,
			BindAddress: "127.0.0.1",
		},
		Logging: LoggingConfig{
			Level: "info",
			DebugEnabled: true,
			File: "debug.log",
			MaxSizeMB: 10,
			MaxBackups: 3,
		},
	}
}

// Load reads configuration from path, applying defaults for missing
// fields and environment overrides, then validates the result. If path
// does not exist, a default config is written there first.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		var fileCfg Config
		if err := json.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		cfg = &fileCfg

		applyMissingDefaults(cfg)
	} else {
		if err := cfg.Save(path); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyMissingDefaults fills zero-valued fields left out of a loaded
// config file with defaultConfig's values: load file, backfill
// anything absent, so older or hand-edited config files keep working.
func applyMissingDefaults(cfg *Config) {
	d := defaultConfig()

	if cfg.Store.Path == "" {
		cfg.Store.Path = d.Store.Path
	}
	if cfg.Concurrency.FullWorkers == 0 {
		cfg.Concurrency.FullWorkers = d.Concurrency.FullWorkers
	}
	if cfg.Concurrency.ChangeWorkers == 0 {
		cfg.Concurrency.ChangeWorkers = d.Concurrency.ChangeWorkers
	}
	if cfg.Concurrency.RebuildWorkers == 0 {
		cfg.Concurrency.RebuildWorkers = d.Concurrency.RebuildWorkers
	}
	if cfg.Concurrency.BatchSize == 0 {
		cfg.Concurrency.BatchSize = d.Concurrency.BatchSize
	}
	if cfg.Monitor.BatchSize == 0 {
		cfg.Monitor.BatchSize = d.Monitor.BatchSize
	}
	if cfg.Monitor.DebounceSeconds == 0 {
		cfg.Monitor.DebounceSeconds = d.Monitor.DebounceSeconds
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = d.Server.Port
	}
	if cfg.Server.BindAddress == "" {
		cfg.Server.BindAddress = d.Server.BindAddress
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = d.Logging.Level
	}
	if cfg.Logging.File == "" {
		cfg.Logging.File = d.Logging.File
	}
	if cfg.Logging.MaxSizeMB == 0 {
		cfg.Logging.MaxSizeMB = d.Logging.MaxSizeMB
	}
	if cfg.Logging.MaxBackups == 0 {
		cfg.Logging.MaxBackups = d.Logging.MaxBackups
	}
}

// Save writes configuration to file.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", " ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SEEK_STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("SEEK_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SEEK_DEBUG_ENABLED"); v != "" {
		if v == "true" {
			c.Logging.DebugEnabled = true
		} else if v == "false" {
			c.Logging.DebugEnabled = false
		}
	}
	if v := os.Getenv("SEEK_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
	if v := os.Getenv("SEEK_SERVER_PORT"); v != "" {
		fmt.Sscanf(v, "%d", &c.Server.Port)
	}
	if v := os.Getenv("SEEK_SERVER_BIND_ADDRESS"); v != "" {
		c.Server.BindAddress = v
	}
	if v := os.Getenv("SEEK_W_FULL"); v != "" {
		fmt.Sscanf(v, "%d", &c.Concurrency.FullWorkers)
	}
	if v := os.Getenv("SEEK_W_CHANGES"); v != "" {
		fmt.Sscanf(v, "%d", &c.Concurrency.ChangeWorkers)
	}
	if v := os.Getenv("SEEK_W_REBUILD"); v != "" {
		fmt.Sscanf(v, "%d", &c.Concurrency.RebuildWorkers)
	}
	if v := os.Getenv("SEEK_BATCH_SIZE"); v != "" {
		fmt.Sscanf(v, "%d", &c.Concurrency.BatchSize)
	}
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Server.Port < 1024 && os.Geteuid() != 0 {
		return fmt.Errorf("privileged port %d requires root", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	if c.Concurrency.FullWorkers <= 0 {
		return fmt.Errorf("w_full must be positive, got %d", c.Concurrency.FullWorkers)
	}
	if c.Concurrency.ChangeWorkers <= 0 {
		return fmt.Errorf("w_changes must be positive, got %d", c.Concurrency.ChangeWorkers)
	}
	if c.Concurrency.RebuildWorkers <= 0 {
		return fmt.Errorf("w_rebuild must be positive, got %d", c.Concurrency.RebuildWorkers)
	}
	if c.Concurrency.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", c.Concurrency.BatchSize)
	}

	if c.Monitor.BatchSize <= 0 {
		return fmt.Errorf("monitor batch_size must be positive, got %d", c.Monitor.BatchSize)
	}
	if c.Monitor.DebounceSeconds <= 0 {
		return fmt.Errorf("monitor debounce_seconds must be positive, got %d", c.Monitor.DebounceSeconds)
	}

	if c.Store.Path == "" {
		return fmt.Errorf("store path must not be empty")
	}

	return nil
}
