// Package config loads and saves the simulator's TOML configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config represents the simulator's persisted configuration.
type Config struct {
	// Execution settings
	Execution struct {
		MemorySize       uint   `toml:"memory_size"`
		MaxCycles        uint64 `toml:"max_cycles"`
		MaxInstructions  uint64 `toml:"max_instructions"`
		DefaultEntry     uint32 `toml:"default_entry"`
		Pipelined        bool   `toml:"pipelined"`
	} `toml:"execution"`

	// Debugger settings
	Debugger struct {
		HistorySize    int  `toml:"history_size"`
		AutoSaveBreaks bool `toml:"auto_save_breakpoints"`
		StepGranular   bool `toml:"step_granular"` // step one pipeline tick vs. one committed instruction
	} `toml:"debugger"`

	// Display settings
	Display struct {
		NumberFormat  string `toml:"number_format"` // hex, dec
		BytesPerLine  int    `toml:"bytes_per_line"`
		MemoryWindow  int    `toml:"memory_window"` // words shown in a state dump
	} `toml:"display"`

	// Trace settings
	Trace struct {
		Enabled    bool `toml:"enabled"`
		MaxEntries int  `toml:"max_entries"`
	} `toml:"trace"`
}

// DefaultConfig returns a configuration with the simulator's built-in
// defaults (spec.md §6).
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Execution.MemorySize = 128 * 1024
	cfg.Execution.MaxCycles = 100000
	cfg.Execution.MaxInstructions = 20000
	cfg.Execution.DefaultEntry = 0
	cfg.Execution.Pipelined = false

	cfg.Debugger.HistorySize = 1000
	cfg.Debugger.AutoSaveBreaks = true
	cfg.Debugger.StepGranular = false

	cfg.Display.NumberFormat = "hex"
	cfg.Display.BytesPerLine = 16
	cfg.Display.MemoryWindow = 16

	cfg.Trace.Enabled = false
	cfg.Trace.MaxEntries = 4096

	return cfg
}

// GetConfigPath returns the platform-specific config file path,
// `~/.config/riscvsim/config.toml` on macOS/Linux and the AppData
// equivalent on Windows.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "riscvsim")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "riscvsim")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// GetLogPath returns the platform-specific log directory path.
func GetLogPath() string {
	var logDir string

	switch runtime.GOOS {
	case "windows":
		logDir = os.Getenv("APPDATA")
		if logDir == "" {
			logDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		logDir = filepath.Join(logDir, "riscvsim", "logs")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "logs"
		}
		logDir = filepath.Join(homeDir, ".local", "share", "riscvsim", "logs")

	default:
		return "logs"
	}

	if err := os.MkdirAll(logDir, 0750); err != nil {
		return "logs"
	}

	return logDir
}

// Load loads configuration from the default config file path.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from path, returning the defaults if the
// file does not exist. The file is decoded onto the defaults, so values it
// specifies win and fields it omits keep their default values.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file path.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
