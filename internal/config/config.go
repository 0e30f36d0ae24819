package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"drivewatch/internal/logger"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

// Environment keys are derived from the field names under the DRIVEWATCH
// prefix (e.g. DRIVEWATCH_GOOGLE_SPREADSHEET_ID). No envconfig alt names:
// envconfig falls back to an alt name without the prefix, which would let
// ordinary host variables like PATH or PORT override the config.
type Config struct {
	Google  GoogleConfig  `toml:"google"`
	Poll    PollConfig    `toml:"poll"`
	Server  ServerConfig  `toml:"server"`
	Logging LoggingConfig `toml:"logging"`
}

type GoogleConfig struct {
	CredentialsFile string `toml:"credentials_file" split_words:"true"`
	SpreadsheetID   string `toml:"spreadsheet_id" split_words:"true"`
	FolderID        string `toml:"folder_id" split_words:"true"`
	Worksheet       string `toml:"worksheet"`
}

type PollConfig struct {
	Window   Duration `toml:"window"`
	Interval Duration `toml:"interval"`
}

type ServerConfig struct {
	Port            int      `toml:"port"`
	ReadTimeout     Duration `toml:"read_timeout" split_words:"true"`
	WriteTimeout    Duration `toml:"write_timeout" split_words:"true"`
	ShutdownTimeout Duration `toml:"shutdown_timeout" split_words:"true"`
}

type LoggingConfig struct {
	Path  string `toml:"path"`
	Level string `toml:"level"`
}

// LoadConfig loads configuration from the specified config file path, then
// applies DRIVEWATCH_* environment overrides on top.
func LoadConfig(configPath string) (*Config, error) {
	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Create configs directory if it doesn't exist
		configDir := filepath.Dir(configPath)
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}

		defaultConfig := defaultConfig()
		err = SaveConfig(configPath, defaultConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}

		logger.Info("Created default config file", "path", configPath)
		if err := applyEnv(defaultConfig); err != nil {
			return nil, err
		}
		return defaultConfig, nil
	}

	// Load existing config
	var config Config
	_, err := toml.DecodeFile(configPath, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}

	applyDefaults(&config)
	if err := applyEnv(&config); err != nil {
		return nil, err
	}

	logger.Info("Loaded configuration", "path", configPath)
	return &config, nil
}

// SaveConfig saves configuration to the specified config file path
func SaveConfig(configPath string, config *Config) error {
	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	err = encoder.Encode(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	logger.Info("Saved configuration", "path", configPath)
	return nil
}

// Validate checks the fields that have no usable default.
func (c *Config) Validate() error {
	if c.Google.SpreadsheetID == "" {
		return fmt.Errorf("google.spreadsheet_id is required")
	}
	if c.Google.FolderID == "" {
		return fmt.Errorf("google.folder_id is required")
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Google: GoogleConfig{
			CredentialsFile: "service_account.json",
			Worksheet:       "invoice",
		},
		Poll: PollConfig{
			Window:   Duration{5 * time.Minute},
			Interval: Duration{5 * time.Minute},
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration{15 * time.Second},
			WriteTimeout:    Duration{5 * time.Minute},
			ShutdownTimeout: Duration{30 * time.Second},
		},
		Logging: LoggingConfig{
			Path:  "logs/drivewatch.log",
			Level: "info",
		},
	}
}

// applyDefaults fills fields the config file left unset.
func applyDefaults(config *Config) {
	def := defaultConfig()
	if config.Google.CredentialsFile == "" {
		config.Google.CredentialsFile = def.Google.CredentialsFile
	}
	if config.Google.Worksheet == "" {
		config.Google.Worksheet = def.Google.Worksheet
	}
	if config.Poll.Window.Duration == 0 {
		config.Poll.Window = def.Poll.Window
	}
	if config.Poll.Interval.Duration == 0 {
		config.Poll.Interval = def.Poll.Interval
	}
	if config.Server.Port == 0 {
		config.Server.Port = def.Server.Port
	}
	if config.Server.ReadTimeout.Duration == 0 {
		config.Server.ReadTimeout = def.Server.ReadTimeout
	}
	if config.Server.WriteTimeout.Duration == 0 {
		config.Server.WriteTimeout = def.Server.WriteTimeout
	}
	if config.Server.ShutdownTimeout.Duration == 0 {
		config.Server.ShutdownTimeout = def.Server.ShutdownTimeout
	}
	if config.Logging.Path == "" {
		config.Logging.Path = def.Logging.Path
	}
	if config.Logging.Level == "" {
		config.Logging.Level = def.Logging.Level
	}
}

// applyEnv overrides file values from DRIVEWATCH_* environment variables.
// Variables that are not set leave the loaded values alone.
func applyEnv(config *Config) error {
	if err := envconfig.Process("DRIVEWATCH", config); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	return nil
}
