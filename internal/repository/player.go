package repository

import (
	"context"

	"github.com/mallardworks/duckhunt/internal/domain"
)

// Player defines the interface for player persistence. Records are keyed by
// normalized player name and carry all per-channel stats for one network.
type Player interface {
	LoadAll(ctx context.Context) (map[string]*domain.PlayerRecord, error)
	SaveAll(ctx context.Context, records map[string]*domain.PlayerRecord) error
	Ping(ctx context.Context) error
	Close() error
}
