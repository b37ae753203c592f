package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	App          AppConfig           `yaml:"app"`
	Daemon       DaemonConfig        `yaml:"daemon"`
	Integrations []IntegrationConfig `yaml:"integrations"`
	Server       ServerConfig        `yaml:"server"`
}

// AppConfig contains application-level settings
type AppConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// DaemonConfig contains settings for the desktop daemon RPC endpoint
type DaemonConfig struct {
	URL            string `yaml:"url"`
	Token          string `yaml:"token,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// IntegrationConfig describes one AWS SSO integration
type IntegrationConfig struct {
	ID             string `yaml:"id"`
	Alias          string `yaml:"alias"`
	PortalURL      string `yaml:"portal_url"`
	Region         string `yaml:"region"`
	BrowserOpening string `yaml:"browser_opening"`
	SessionName    string `yaml:"session_name,omitempty"`
}

// ServerConfig contains server mode settings
type ServerConfig struct {
	Port            int    `yaml:"port"`
	ScheduleEnabled bool   `yaml:"schedule_enabled"`
	Schedule        string `yaml:"schedule"`
}

// Browser opening modes
const (
	BrowserOpeningInApp    = "In-app"
	BrowserOpeningExternal = "External"
)

// Load loads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	// Substitute environment variables
	configData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(configData), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	return &config, nil
}

// Save writes the configuration to a YAML file
func Save(config *Config, configPath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", configPath, err)
	}

	return nil
}

// FindConfigFile searches for configuration file in common locations
func FindConfigFile() (string, error) {
	locations := []string{
		"./ssoctl.yaml",
		"./ssoctl.yml",
		"~/.config/ssoctl/config.yaml",
		"~/.config/ssoctl/config.yml",
	}

	for _, location := range locations {
		if strings.HasPrefix(location, "~/") {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				continue
			}
			location = strings.Replace(location, "~", homeDir, 1)
		}

		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}

	return "", fmt.Errorf("no configuration file found in any of these locations: %v", locations)
}

// DefaultConfigPath returns the per-user configuration path
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./ssoctl.yaml"
	}
	return filepath.Join(homeDir, ".config", "ssoctl", "config.yaml")
}

// SetDefaults sets default values for configuration
func (c *Config) SetDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}

	if c.App.LogFormat == "" {
		c.App.LogFormat = "plain"
	}

	if c.Daemon.URL == "" {
		c.Daemon.URL = "http://127.0.0.1:50051"
	}

	if c.Daemon.TimeoutSeconds == 0 {
		c.Daemon.TimeoutSeconds = 30
	}

	for i := range c.Integrations {
		c.Integrations[i].SetDefaults()
	}

	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}

	if c.Server.Schedule == "" {
		c.Server.Schedule = "*/30 * * * *" // Every 30 minutes by default
	}
}

// SetDefaults fills in optional integration settings
func (i *IntegrationConfig) SetDefaults() {
	if i.Region == "" {
		i.Region = "us-east-1"
	}
	if i.BrowserOpening == "" {
		i.BrowserOpening = BrowserOpeningInApp
	}
	if i.SessionName == "" {
		i.SessionName = i.PortalURL
	}
}

// AddIntegration appends an integration, rejecting duplicate ids and aliases
func (c *Config) AddIntegration(integration IntegrationConfig) error {
	for _, existing := range c.Integrations {
		if existing.ID == integration.ID {
			return fmt.Errorf("integration id %s already exists", integration.ID)
		}
		if existing.Alias == integration.Alias {
			return fmt.Errorf("integration alias %s already exists", integration.Alias)
		}
	}
	c.Integrations = append(c.Integrations, integration)
	return nil
}
