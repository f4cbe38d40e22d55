package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Blob store configuration
	BlobStore BlobStoreConfig `mapstructure:"blob_store"`

	// Encryption configuration
	Encryption EncryptionConfig `mapstructure:"encryption"`

	// JWT configuration for caller attestation at the HTTP boundary
	JWT JWTConfig `mapstructure:"jwt"`

	// Registry owner (administrator) subject identifier, hex encoded
	OwnerSubject string `mapstructure:"owner_subject"`

	// Logging configuration
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`
}

// BlobStoreConfig holds content-addressed blob store configuration.
type BlobStoreConfig struct {
	// Path is the leveldb directory. Empty selects the in-memory store.
	Path string `mapstructure:"path"`
}

// EncryptionConfig holds encryption pipeline configuration. The secret is
// loaded once at startup; an absent secret is fatal only at the moment an
// encryption or decryption is attempted.
type EncryptionConfig struct {
	Secret string `mapstructure:"secret"`
}

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	SecretKey string `mapstructure:"secret_key"`
	Issuer    string `mapstructure:"issuer"`
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/blockhealth")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideWithEnv(&config)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30)
	viper.SetDefault("server.write_timeout", 30)
	viper.SetDefault("server.idle_timeout", 120)

	viper.SetDefault("blob_store.path", "data/blobs")

	viper.SetDefault("jwt.issuer", "blockhealth")

	viper.SetDefault("log_level", "info")
}

// overrideWithEnv overrides configuration with environment variables.
func overrideWithEnv(config *Config) {
	if secret := os.Getenv("ENCRYPTION_SECRET"); secret != "" {
		config.Encryption.Secret = secret
	}

	if jwtSecret := os.Getenv("JWT_SECRET_KEY"); jwtSecret != "" {
		config.JWT.SecretKey = jwtSecret
	}

	if owner := os.Getenv("OWNER_SUBJECT"); owner != "" {
		config.OwnerSubject = owner
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.LogLevel = logLevel
	}
}

// validate validates the configuration. The encryption secret is deliberately
// not required here: the pipeline reports the misconfiguration when used.
func validate(config *Config) error {
	if config.JWT.SecretKey == "" {
		return fmt.Errorf("JWT secret key is required")
	}

	if config.OwnerSubject == "" {
		return fmt.Errorf("owner subject is required")
	}

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	return nil
}
