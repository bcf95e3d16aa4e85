package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration and applies defaults.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// FromEnv builds a configuration from ASKHUB_* variables alone, for
// deployments that ship no config file.
func FromEnv() *AppConfig {
	cfg := AppConfig{}
	cfg.Hub.URL = os.Getenv("ASKHUB_HUB_URL")
	cfg.Hub.APIKey = os.Getenv("ASKHUB_HUB_API_KEY")
	cfg.Hub.Token = os.Getenv("ASKHUB_HUB_TOKEN")
	cfg.Redis.URL = os.Getenv("ASKHUB_REDIS_URL")
	cfg.Logging.Level = os.Getenv("ASKHUB_LOG_LEVEL")
	cfg.Locale.Default = os.Getenv("ASKHUB_LOCALE")

	cfg.applyDefaults()
	return &cfg
}

func (c *AppConfig) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Locale.Default == "" {
		c.Locale.Default = "en"
	}
	c.Hub = c.Hub.WithDefaults()
}
