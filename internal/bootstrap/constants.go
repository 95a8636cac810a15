package bootstrap

import "time"

// =============================================================================
// File System Permissions
// =============================================================================

const (
	// DirPermission is the standard permission for creating directories
	DirPermission = 0755

	// LogFilePermission is the permission for log files
	LogFilePermission = 0666
)

// =============================================================================
// Logger Configuration
// =============================================================================

const (
	// LogFileTimestampFormat is the timestamp format for log filenames
	LogFileTimestampFormat = "2006-01-02_15-04-05"

	// LogFileNamePattern is the format string for log filenames
	LogFileNamePattern = "session_%s.log"

	// LogFileExtension is the file extension for log files
	LogFileExtension = ".log"

	// LogFileRetentionCount is the number of log files to retain after cleanup
	LogFileRetentionCount = 9
)

// =============================================================================
// Database Pool Configuration
// =============================================================================

const (
	DBMaxConnections  = 10
	DBMaxConnIdleTime = 5 * time.Minute
	DBMaxConnLifetime = time.Hour
)

// =============================================================================
// Scheduler Configuration
// =============================================================================

const (
	// DuckTickInterval is the cadence of the spawn/despawn scheduler pass.
	DuckTickInterval = time.Second

	// WorkerCount and WorkerQueueSize size the shared job pool.
	WorkerCount     = 4
	WorkerQueueSize = 64
)

// =============================================================================
// Log Messages
// =============================================================================

const (
	LogMsgLoggingInitialized  = "Logging initialized"
	LogMsgStartingBot         = "Starting duckhunt bot"
	LogMsgConfigurationLoaded = "Configuration loaded"
	LogMsgPlayersLoaded       = "Player records loaded"
	LogMsgNetworkStarting     = "Starting network"
	LogMsgNetworkStopped      = "Network stopped"
	LogMsgShuttingDown        = "Shutting down..."
	LogMsgFinalSaveFailed     = "Final save failed"
	LogMsgServerForcedStop    = "Ops server forced to shutdown"
	LogMsgStopped             = "Bot stopped"

	LogMsgFailedDeleteOldLog = "Failed to delete old log file %s: %v\n"
)
