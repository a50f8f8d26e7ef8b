package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/schemavault/schemavault/embedding"
)

type Config struct {
	Server    ServerConfig     `yaml:"server"`
	DataDir   string           `yaml:"data_dir"`
	Embedding embedding.Config `yaml:"embedding"`
	Index     IndexConfig      `yaml:"index"`
	Catalog   CatalogConfig    `yaml:"catalog"`
}

type ServerConfig struct {
	Name       string `yaml:"name"`
	Version    string `yaml:"version"`
	HealthAddr string `yaml:"health_addr"`
}

type IndexConfig struct {
	MaxElements int `yaml:"max_elements"`
}

// CatalogConfig configures the external catalog source. Type is one of
// postgres, mysql or sqlite; an empty type disables catalog sync entirely.
type CatalogConfig struct {
	Type             string `yaml:"type"`
	ConnectionString string `yaml:"connection_string,omitempty"`
	File             string `yaml:"file,omitempty"`
	Schemas          string `yaml:"schemas,omitempty"`
	SyncOnStart      bool   `yaml:"sync_on_start"`
}

func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if config.Server.Name == "" {
		config.Server.Name = "schemavault"
	}
	if config.Server.Version == "" {
		config.Server.Version = "0.1.0"
	}
	if config.DataDir == "" {
		config.DataDir = "data"
	}

	return &config, nil
}

// GetConnectionString resolves the DSN for the configured catalog type.
func (c *CatalogConfig) GetConnectionString() (string, error) {
	switch c.Type {
	case "postgres", "mysql":
		if c.ConnectionString == "" {
			return "", fmt.Errorf("connection string is required for %s catalog", c.Type)
		}
		return c.ConnectionString, nil

	case "sqlite":
		if c.File == "" {
			return "", fmt.Errorf("database file is required for sqlite catalog")
		}
		return c.File, nil

	default:
		return "", fmt.Errorf("unsupported catalog type: %s", c.Type)
	}
}
