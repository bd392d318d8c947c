package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the grocery deal pipeline.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Load    LoadConfig    `mapstructure:"load"`
}

// ServerConfig contains HTTP query API settings.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// StorageConfig groups backing store settings.
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig contains Postgres connection settings.
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("storage.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// DSN builds a Postgres connection string from the configured fields.
func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl)
}

// SeedStore describes a store provisioned by the init-stores command.
type SeedStore struct {
	Name     string `mapstructure:"name"`
	Location string `mapstructure:"location"`
	Website  string `mapstructure:"website"`
}

// LoadConfig contains batch loading behaviour settings.
type LoadConfig struct {
	AutoCreateCategories bool          `mapstructure:"auto_create_categories"`
	Concurrency          int           `mapstructure:"concurrency"`
	RecordTimeout        time.Duration `mapstructure:"record_timeout"`
	Stores               []SeedStore   `mapstructure:"stores"`
}

func (l LoadConfig) Validate() error {
	if l.Concurrency < 1 {
		return fmt.Errorf("load.concurrency must be >= 1")
	}
	if l.RecordTimeout <= 0 {
		return fmt.Errorf("load.record_timeout must be > 0")
	}
	for i, s := range l.Stores {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("load.stores[%d].name must not be empty", i)
		}
	}
	return nil
}

// Load reads config from file and environment (GROCERIES_* overrides).
func Load(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.SetDefault("server.address", ":10010")
	viper.SetDefault("storage.postgres.sslmode", "disable")
	viper.SetDefault("storage.postgres.timeout", "10s")
	viper.SetDefault("load.auto_create_categories", true)
	viper.SetDefault("load.concurrency", 4)
	viper.SetDefault("load.record_timeout", "10s")

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("GROCERIES")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	if err := config.Storage.Postgres.Validate(); err != nil {
		panic(err)
	}
	if err := config.Load.Validate(); err != nil {
		panic(err)
	}
	return &config
}
