package config

import "time"

// Environment variable defaults
const (
	DefaultLogLevel     = "INFO"
	DefaultLogFormat    = "json"
	DefaultEnvironment  = "production"
	DefaultPort         = "8080"
	DefaultStoreBackend = StoreBackendFile
	DefaultDataFile     = "data/players.json"
	DefaultBackupDir    = "data/backups"
	DefaultNetworksFile = "configs/networks.yaml"
)

// Store backends
const (
	StoreBackendFile     = "file"
	StoreBackendPostgres = "postgres"
)

// Persistence cadence defaults
const (
	DefaultSaveInterval = 2 * time.Minute
	DefaultBackupKeep   = 3
)

// Spawn schedule defaults, applied when the networks file omits a value.
const (
	DefaultMinSpawn     = 8 * time.Minute
	DefaultMaxSpawn     = 30 * time.Minute
	DefaultDespawnAfter = 10 * time.Minute
	DefaultGoldRatio    = 0.08
	DefaultMaxDucks     = 5
	DefaultDuckXP       = 10
	DefaultPrefix       = "!"
)
