package config

import (
	"fmt"
	"os"

	"portfolio-runner/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyDefaults()

	// 3. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// applyDefaults fills in values the YAML may omit
func (c *Config) applyDefaults() {
	if c.App.Python == "" {
		c.App.Python = "python3"
	}
	if c.App.FlaskEnv == "" {
		c.App.FlaskEnv = "development"
	}
	if c.App.ConfigPath == "" {
		c.App.ConfigPath = "config.json"
	}
	if c.App.TemplatesDir == "" {
		c.App.TemplatesDir = "templates"
	}
	if c.App.RestartDelay <= 0 {
		c.App.RestartDelay = 2
	}
	if c.App.LogBufferSize <= 0 {
		c.App.LogBufferSize = 500
	}
	if c.Bootstrap.VenvDir == "" {
		c.Bootstrap.VenvDir = "venv"
	}
	if c.Bootstrap.MarkerPackage == "" {
		c.Bootstrap.MarkerPackage = "flask"
	}
	if c.Bootstrap.PipRetries <= 0 {
		c.Bootstrap.PipRetries = 3
	}
	if c.Watch.DebounceMs <= 0 {
		c.Watch.DebounceMs = 500
	}
	if c.Journal.RetentionDays <= 0 {
		c.Journal.RetentionDays = 30
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	// Validate App identity (Flattened)
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Validate control server (Flattened)
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	// Validate launch configuration
	if c.App.Entrypoint == "" {
		return fmt.Errorf("app entrypoint cannot be empty")
	}
	if c.App.MaxRestarts < 0 {
		return fmt.Errorf("max restarts cannot be negative")
	}

	// Validate bootstrap configuration
	if c.Bootstrap.Requirements == "" && len(c.Bootstrap.Packages) == 0 {
		return fmt.Errorf("bootstrap needs a requirements file or a package list")
	}

	// Validate journal configuration
	if c.Journal.DBPath == "" {
		return fmt.Errorf("journal database path cannot be empty")
	}

	// Validate watch configuration
	for i, p := range c.Watch.Paths {
		if p == "" {
			return fmt.Errorf("watch path %d cannot be empty", i)
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
