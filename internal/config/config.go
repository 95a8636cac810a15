package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Environment string
	LogLevel    string
	LogFormat   string
	Port        int // ops server (health, metrics)

	StoreBackend string // "file" or "postgres"
	DataFile     string
	BackupDir    string
	BackupKeep   int
	SaveInterval time.Duration

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	NetworksFile string
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{
		Environment:  getEnv("ENVIRONMENT", DefaultEnvironment),
		LogLevel:     getEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat:    getEnv("LOG_FORMAT", DefaultLogFormat),
		StoreBackend: getEnv("STORE_BACKEND", DefaultStoreBackend),
		DataFile:     getEnv("DATA_FILE", DefaultDataFile),
		BackupDir:    getEnv("BACKUP_DIR", DefaultBackupDir),
		DBUser:       getEnv("DB_USER", "postgres"),
		DBPassword:   getEnv("DB_PASSWORD", "postgres"),
		DBHost:       getEnv("DB_HOST", "localhost"),
		DBPort:       getEnv("DB_PORT", "5432"),
		DBName:       getEnv("DB_NAME", "duckhunt"),
		NetworksFile: getEnv("NETWORKS_FILE", DefaultNetworksFile),
	}

	portStr := getEnv("PORT", DefaultPort)
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT value: %w", err)
	}
	cfg.Port = port

	keepStr := getEnv("BACKUP_KEEP", strconv.Itoa(DefaultBackupKeep))
	keep, err := strconv.Atoi(keepStr)
	if err != nil {
		return nil, fmt.Errorf("invalid BACKUP_KEEP value: %w", err)
	}
	cfg.BackupKeep = keep

	intervalStr := getEnv("SAVE_INTERVAL", DefaultSaveInterval.String())
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SAVE_INTERVAL value: %w", err)
	}
	cfg.SaveInterval = interval

	if cfg.StoreBackend != StoreBackendFile && cfg.StoreBackend != StoreBackendPostgres {
		return nil, fmt.Errorf("invalid STORE_BACKEND value: %q", cfg.StoreBackend)
	}

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetDBConnString returns the PostgreSQL connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}
