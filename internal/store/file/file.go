// Package file persists player records as a single JSON document with
// compressed rotating backups.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"

	"github.com/mallardworks/duckhunt/internal/domain"
	"github.com/mallardworks/duckhunt/internal/logger"
)

const (
	backupPrefix    = "players-"
	backupExt       = ".json.zst"
	backupTimestamp = "20060102T150405.000000000"
)

// document is the on-disk shape. Version 0 files predate per-channel stats
// and hold a flat name->stats map instead.
type document struct {
	Version int                             `json:"version"`
	Players map[string]*domain.PlayerRecord `json:"players"`
}

// Store is a file-backed repository.Player implementation.
type Store struct {
	path           string
	backupDir      string
	backupKeep     int
	defaultChannel string
}

// New creates a file store. backupKeep bounds the rotating backup set;
// zero disables backups.
func New(path, backupDir string, backupKeep int, defaultChannel string) *Store {
	return &Store{
		path:           path,
		backupDir:      backupDir,
		backupKeep:     backupKeep,
		defaultChannel: defaultChannel,
	}
}

// LoadAll reads the save file. A missing file is an empty dataset, not an
// error: first boot starts clean.
func (s *Store) LoadAll(ctx context.Context) (map[string]*domain.PlayerRecord, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return make(map[string]*domain.PlayerRecord), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read save file %s: %w", s.path, err)
	}
	return s.parse(ctx, data)
}

func (s *Store) parse(ctx context.Context, data []byte) (map[string]*domain.PlayerRecord, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err == nil && doc.Players != nil {
		return doc.Players, nil
	}

	// Version 0: a flat map of player name to global stats. Wrap each into
	// a single-channel record under the configured default channel.
	var legacy map[string]*domain.ChannelStats
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, fmt.Errorf("failed to parse save file %s: %w", s.path, err)
	}

	logger.FromContext(ctx).Info("Migrating legacy save file",
		"path", s.path, "players", len(legacy), "default_channel", s.defaultChannel)

	records := make(map[string]*domain.PlayerRecord, len(legacy))
	for name, stats := range legacy {
		if stats == nil {
			continue
		}
		records[name] = &domain.PlayerRecord{
			Name:     name,
			Channels: map[string]*domain.ChannelStats{s.defaultChannel: stats},
		}
	}
	return records, nil
}

// SaveAll writes the full dataset atomically (temp file plus rename) and
// rotates a compressed backup.
func (s *Store) SaveAll(ctx context.Context, records map[string]*domain.PlayerRecord) error {
	doc := document{Version: domain.RecordVersion, Players: records}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal save data: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp save file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace save file: %w", err)
	}

	if s.backupKeep > 0 {
		if err := s.writeBackup(data); err != nil {
			// The primary save succeeded; a failed backup is logged, not fatal.
			logger.FromContext(ctx).Warn("Backup rotation failed", "error", err)
		}
	}
	return nil
}

func (s *Store) writeBackup(data []byte) error {
	if err := os.MkdirAll(s.backupDir, 0o750); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := backupPrefix + time.Now().UTC().Format(backupTimestamp) + backupExt
	path := filepath.Join(s.backupDir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600) //nolint:gosec // Path is built from config + timestamp
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}

	enc, err := zstd.NewWriter(f)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	if _, err := enc.Write(data); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return fmt.Errorf("failed to write backup: %w", err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to finish backup: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close backup: %w", err)
	}

	return s.prune()
}

// prune deletes the oldest backups beyond backupKeep. Timestamped names sort
// lexicographically by age.
func (s *Store) prune() error {
	backups, err := s.listBackups()
	if err != nil {
		return err
	}
	for len(backups) > s.backupKeep {
		if err := os.Remove(backups[0]); err != nil {
			return fmt.Errorf("failed to prune backup: %w", err)
		}
		backups = backups[1:]
	}
	return nil
}

func (s *Store) listBackups() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.backupDir, backupPrefix+"*"+backupExt))
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}
	sort.Strings(matches)
	return matches, nil
}

// RestoreLatestBackup loads the newest compressed backup. Used when the
// primary save file is corrupt.
func (s *Store) RestoreLatestBackup(ctx context.Context) (map[string]*domain.PlayerRecord, error) {
	backups, err := s.listBackups()
	if err != nil {
		return nil, err
	}
	if len(backups) == 0 {
		return nil, fmt.Errorf("no backups found in %s", s.backupDir)
	}

	newest := backups[len(backups)-1]
	compressed, err := os.ReadFile(newest) //nolint:gosec // Path comes from our own backup directory
	if err != nil {
		return nil, fmt.Errorf("failed to read backup %s: %w", newest, err)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer dec.Close()

	data, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress backup %s: %w", newest, err)
	}

	logger.FromContext(ctx).Info("Restoring from backup", "path", newest)
	return s.parse(ctx, data)
}

// Ping verifies the data directory is reachable.
func (s *Store) Ping(_ context.Context) error {
	dir := filepath.Dir(s.path)
	if _, err := os.Stat(dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("data directory unavailable: %w", err)
	}
	return nil
}

// Close is a no-op; the store holds no open handles between operations.
func (s *Store) Close() error {
	return nil
}
