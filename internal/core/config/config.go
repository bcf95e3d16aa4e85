package config

import (
	"github.com/vietddude/askhub/internal/infra/hub"
	redisclient "github.com/vietddude/askhub/internal/infra/redis"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server  ServerConfig       `yaml:"server"`
	Hub     hub.Config         `yaml:"hub"`
	Redis   redisclient.Config `yaml:"redis"`
	Logging LoggingConfig      `yaml:"logging"`
	Locale  LocaleConfig       `yaml:"locale"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// LocaleConfig selects the spoken strings.
type LocaleConfig struct {
	Default string `yaml:"default"` // fallback language, e.g. "en"
	File    string `yaml:"file"`    // optional catalog overriding the built-in one
}
