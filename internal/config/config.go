package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Remote   RemoteConfig
	Database DatabaseConfig
	Sync     SyncConfig
	Device   DeviceConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Port string
	Host string
	Env  string
}

type RemoteConfig struct {
	Endpoint       string
	WebSocketURL   string
	AccessToken    string
	RequestTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type SyncConfig struct {
	Interval      time.Duration
	RetryInterval time.Duration
	ProbeTimeout  time.Duration
}

type DeviceConfig struct {
	Name string
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	godotenv.Load()

	requestTimeout, err := time.ParseDuration(getEnv("REMOTE_REQUEST_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid REMOTE_REQUEST_TIMEOUT: %w", err)
	}

	syncInterval, err := time.ParseDuration(getEnv("SYNC_INTERVAL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_INTERVAL: %w", err)
	}

	retryInterval, err := time.ParseDuration(getEnv("SYNC_RETRY_INTERVAL", "1s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_RETRY_INTERVAL: %w", err)
	}

	probeTimeout, err := time.ParseDuration(getEnv("CONNECTIVITY_PROBE_TIMEOUT", "3s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CONNECTIVITY_PROBE_TIMEOUT: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8090"),
			Host: getEnv("HOST", "127.0.0.1"),
			Env:  getEnv("ENV", "development"),
		},
		Remote: RemoteConfig{
			Endpoint:       getEnv("REMOTE_ENDPOINT", "http://localhost:8080/api/v1"),
			WebSocketURL:   getEnv("REMOTE_WS_URL", ""),
			AccessToken:    getEnv("REMOTE_ACCESS_TOKEN", ""),
			RequestTimeout: requestTimeout,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5984"),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "password"),
			Name:     getEnv("DB_NAME", "atlas_local"),
		},
		Sync: SyncConfig{
			Interval:      syncInterval,
			RetryInterval: retryInterval,
			ProbeTimeout:  probeTimeout,
		},
		Device: DeviceConfig{
			Name: getEnv("DEVICE_NAME", "atlas-field-device"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
