/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/suparena/modelstore/errors"
)

const (
	// EnvConfigPath names the YAML file to load.
	EnvConfigPath = "MODELSTORE_CONFIG"
	// envDSNPrefix + upper(group) + "_DSN" overrides a group's DSN.
	envDSNPrefix = "MODELSTORE_DB_"
	// EnvCacheAddr overrides the cache address.
	EnvCacheAddr = "MODELSTORE_CACHE_ADDR"

	defaultConfigPath = "./modelstore.yaml"
)

// Database is the connection settings of one config group.
type Database struct {
	// Type selects the driver: sqlite, mysql, postgres or sdb.
	Type     string `yaml:"type"`
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`

	// Key-attribute store settings.
	Region       string `yaml:"region"`
	AccessKey    string `yaml:"access-key"`
	SecretKey    string `yaml:"secret-key"`
	Endpoint     string `yaml:"endpoint"`
	KeyAttribute string `yaml:"key-attribute"`

	PageSize   int           `yaml:"page-size"`
	MaxQueries int           `yaml:"max-queries"`
	TokenTTL   time.Duration `yaml:"token-ttl"`
}

// Cache selects the cache provider.
type Cache struct {
	// Type is "", "none", "memory" or "redis".
	Type     string        `yaml:"type"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// Config is the parsed configuration file.
type Config struct {
	Databases map[string]Database `yaml:"databases"`
	Cache     Cache               `yaml:"cache"`
}

// Provider yields the settings of a config group.
type Provider interface {
	Database(name string) (Database, error)
}

// Database returns the settings of group name.
func (c *Config) Database(name string) (Database, error) {
	if c == nil {
		return Database{}, errors.NewConfigurationError(name, "no configuration loaded", nil)
	}
	db, ok := c.Databases[name]
	if !ok {
		return Database{}, errors.NewConfigurationError(name, "group is not configured", nil)
	}
	if strings.TrimSpace(db.Type) == "" {
		return Database{}, errors.NewConfigurationError(name, "group has no type", nil)
	}
	return db, nil
}

// ResolvePath normalizes the config path and applies the default.
func ResolvePath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = defaultConfigPath
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// Load reads the YAML file at path and applies environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration and applies environment overrides.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
		return nil, fmt.Errorf("parse config file: %w", errUnmarshal)
	}
	if cfg.Databases == nil {
		cfg.Databases = make(map[string]Database)
	}
	cfg.applyEnv()
	return &cfg, nil
}

// LoadFromEnv loads a .env file when present, then the file named by
// MODELSTORE_CONFIG or ./modelstore.yaml.
func LoadFromEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Load(ResolvePath(os.Getenv(EnvConfigPath)))
}

func (c *Config) applyEnv() {
	for name, db := range c.Databases {
		if dsn := strings.TrimSpace(os.Getenv(DSNEnvName(name))); dsn != "" {
			db.DSN = dsn
			c.Databases[name] = db
		}
	}
	if addr := strings.TrimSpace(os.Getenv(EnvCacheAddr)); addr != "" {
		c.Cache.Addr = addr
	}
}

// DSNEnvName returns the variable overriding the DSN of group name.
func DSNEnvName(name string) string {
	upper := strings.ToUpper(name)
	upper = strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, upper)
	return envDSNPrefix + upper + "_DSN"
}

// Address returns host:port, or the host alone when no port is set.
func (d Database) Address() string {
	if d.Port == 0 {
		return d.Host
	}
	return d.Host + ":" + strconv.Itoa(d.Port)
}

// Static is a Provider over an in-memory group map.
type Static map[string]Database

// Database returns the settings of group name.
func (s Static) Database(name string) (Database, error) {
	return (&Config{Databases: s}).Database(name)
}
