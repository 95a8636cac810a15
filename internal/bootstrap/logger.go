// Package bootstrap assembles the application: logging, persistence backend
// selection, and the per-network game engines.
package bootstrap

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mallardworks/duckhunt/internal/config"
	"github.com/mallardworks/duckhunt/internal/logger"
	"github.com/mallardworks/duckhunt/internal/server"
)

// SetupLogger initializes the process logger with stdout and file output.
// It creates the log directory, prunes old session logs, and installs the
// default slog logger. Returns the log file handle; the caller closes it.
func SetupLogger(cfg *config.Config, logDir string) (*os.File, error) {
	if err := os.MkdirAll(logDir, DirPermission); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	cleanupLogs(logDir)

	timestamp := time.Now().Format(LogFileTimestampFormat)
	logFileName := filepath.Join(logDir, fmt.Sprintf(LogFileNamePattern, timestamp))

	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, LogFilePermission) //nolint:gosec // Operator-configured path
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	addSource := cfg.Environment == "dev" || cfg.Environment == "development"
	loggerCfg := logger.NewConfig(
		cfg.LogLevel,
		cfg.LogFormat,
		logger.DefaultServiceName,
		server.Version,
		cfg.Environment,
		addSource,
	)
	logger.InitLoggerWithWriter(loggerCfg, io.MultiWriter(os.Stdout, logFile))

	logger.Info(LogMsgLoggingInitialized, "level", cfg.LogLevel)
	logger.Info(LogMsgStartingBot,
		"environment", cfg.Environment,
		"store_backend", cfg.StoreBackend,
		"version", server.Version)

	return logFile, nil
}

// cleanupLogs keeps the most recent session logs and removes the rest.
func cleanupLogs(logDir string) {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}

	var logFiles []os.DirEntry
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), LogFileExtension) {
			logFiles = append(logFiles, entry)
		}
	}

	if len(logFiles) > LogFileRetentionCount {
		toDelete := len(logFiles) - LogFileRetentionCount
		for i := 0; i < toDelete; i++ {
			if err := os.Remove(filepath.Join(logDir, logFiles[i].Name())); err != nil {
				fmt.Printf(LogMsgFailedDeleteOldLog, logFiles[i].Name(), err)
			}
		}
	}
}
