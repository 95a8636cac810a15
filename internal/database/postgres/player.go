// Package postgres implements the player repository on PostgreSQL.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mallardworks/duckhunt/internal/database"
	"github.com/mallardworks/duckhunt/internal/domain"
	"github.com/mallardworks/duckhunt/internal/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PlayerRepository implements the player repository for PostgreSQL
type PlayerRepository struct {
	db *pgxpool.Pool
}

// NewPlayerRepository creates a new PlayerRepository
func NewPlayerRepository(db *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// Migrate applies the embedded schema migrations.
func (r *PlayerRepository) Migrate(ctx context.Context) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	goose.SetBaseFS(migrationsFS)

	db := stdlib.OpenDBFromPool(r.db)
	defer func() { _ = db.Close() }()

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// LoadAll reads every player and their per-channel stats.
func (r *PlayerRepository) LoadAll(ctx context.Context) (map[string]*domain.PlayerRecord, error) {
	query := `
		SELECT p.name, p.version, cs.channel, cs.stats
		FROM players p
		LEFT JOIN channel_stats cs ON cs.player_id = p.player_id
		ORDER BY p.name
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	records := make(map[string]*domain.PlayerRecord)
	for rows.Next() {
		var (
			name    string
			version int
			channel *string
			raw     []byte
		)
		if err := rows.Scan(&name, &version, &channel, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan player row: %w", err)
		}

		rec, ok := records[name]
		if !ok {
			rec = &domain.PlayerRecord{
				Name:     name,
				Version:  version,
				Channels: make(map[string]*domain.ChannelStats),
			}
			records[name] = rec
		}

		// Players with no channel rows yet come back with NULLs from the join.
		if channel == nil {
			continue
		}

		var stats domain.ChannelStats
		if err := json.Unmarshal(raw, &stats); err != nil {
			return nil, fmt.Errorf("failed to decode stats for %s/%s: %w", name, *channel, err)
		}
		rec.Channels[*channel] = &stats
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read player rows: %w", err)
	}
	return records, nil
}

// SaveAll writes the full snapshot: each player is upserted and their channel
// rows replaced, all in one transaction.
func (r *PlayerRepository) SaveAll(ctx context.Context, records map[string]*domain.PlayerRecord) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", database.ErrMsgFailedToBeginTransaction, err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			logger.FromContext(ctx).Warn("Failed to rollback transaction", "error", err)
		}
	}()

	for _, rec := range records {
		var playerID string
		upsert := `
			INSERT INTO players (name, version, updated_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (name) DO UPDATE
			SET version = EXCLUDED.version, updated_at = NOW()
			RETURNING player_id
		`
		if err := tx.QueryRow(ctx, upsert, rec.Name, rec.Version).Scan(&playerID); err != nil {
			return fmt.Errorf("failed to upsert player %s: %w", rec.Name, err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM channel_stats WHERE player_id = $1`, playerID); err != nil {
			return fmt.Errorf("failed to clear channel stats for %s: %w", rec.Name, err)
		}

		for channel, stats := range rec.Channels {
			raw, err := json.Marshal(stats)
			if err != nil {
				return fmt.Errorf("failed to encode stats for %s/%s: %w", rec.Name, channel, err)
			}
			insert := `
				INSERT INTO channel_stats (player_id, channel, stats, updated_at)
				VALUES ($1, $2, $3, NOW())
			`
			if _, err := tx.Exec(ctx, insert, playerID, channel, raw); err != nil {
				return fmt.Errorf("failed to insert channel stats for %s/%s: %w", rec.Name, channel, err)
			}
		}
	}

	return tx.Commit(ctx)
}

// Ping checks database connectivity.
func (r *PlayerRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// Close releases the connection pool.
func (r *PlayerRepository) Close() error {
	r.db.Close()
	return nil
}
