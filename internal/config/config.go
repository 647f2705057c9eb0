package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `json:"server"`
	Storage   StorageConfig   `json:"storage"`
	Email     EmailConfig     `json:"email"`
	Catalog   CatalogConfig   `json:"catalog"`
	Converter ConverterConfig `json:"converter"`
	Database  DatabaseConfig  `json:"database"`
	Logging   LoggingConfig   `json:"logging"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

// StorageConfig locates the local file layout and its retention policy
type StorageConfig struct {
	Root          string `json:"root"`
	RetentionDays int    `json:"retention_days"`
}

// EmailConfig carries SMTP settings. It is passed to the mailer at
// construction; nothing reads it through global state.
type EmailConfig struct {
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	FromAddress string `json:"from_address"`
	FromName    string `json:"from_name"`
	SendDelayMS int    `json:"send_delay_ms"`
}

// CatalogConfig points at a remote template catalog; empty base URL means
// the built-in static catalog.
type CatalogConfig struct {
	BaseURL string `json:"base_url"`
}

// ConverterConfig configures the external deck-to-PDF converter
type ConverterConfig struct {
	Binary  string `json:"binary"`
	Workers int    `json:"workers"`
}

// DatabaseConfig - optional batch history store
type DatabaseConfig struct {
	URL string `json:"url"`
}

// LoggingConfig
type LoggingConfig struct {
	Level string `json:"level"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Default config
	config := &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Root:          "data",
			RetentionDays: 14,
		},
		Email: EmailConfig{
			Port:        587,
			SendDelayMS: 1000,
		},
		Converter: ConverterConfig{
			Binary:  "soffice",
			Workers: 2,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}

	// Load from file if exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Override with environment variables
	overrideWithEnv(config)

	return config, nil
}

func overrideWithEnv(config *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if root := os.Getenv("STORAGE_ROOT"); root != "" {
		config.Storage.Root = root
	}
	if days := os.Getenv("STORAGE_RETENTION_DAYS"); days != "" {
		if d, err := strconv.Atoi(days); err == nil {
			config.Storage.RetentionDays = d
		}
	}
	if host := os.Getenv("SMTP_HOST"); host != "" {
		config.Email.Host = host
	}
	if port := os.Getenv("SMTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Email.Port = p
		}
	}
	if user := os.Getenv("SMTP_USERNAME"); user != "" {
		config.Email.Username = user
	}
	if pass := os.Getenv("SMTP_PASSWORD"); pass != "" {
		config.Email.Password = pass
	}
	if from := os.Getenv("SMTP_FROM_ADDRESS"); from != "" {
		config.Email.FromAddress = from
	}
	if name := os.Getenv("SMTP_FROM_NAME"); name != "" {
		config.Email.FromName = name
	}
	if url := os.Getenv("CATALOG_BASE_URL"); url != "" {
		config.Catalog.BaseURL = url
	}
	if bin := os.Getenv("CONVERTER_BINARY"); bin != "" {
		config.Converter.Binary = bin
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// SendDelay returns the inter-message email delay as a duration
func (c *EmailConfig) SendDelay() time.Duration {
	return time.Duration(c.SendDelayMS) * time.Millisecond
}

// Enabled reports whether SMTP delivery is configured
func (c *EmailConfig) Enabled() bool {
	return c.Host != "" && c.FromAddress != ""
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
