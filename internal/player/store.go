package player

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/mallardworks/duckhunt/internal/domain"
	"github.com/mallardworks/duckhunt/internal/progression"
	"github.com/mallardworks/duckhunt/internal/utils"
)

// Store owns the in-memory player->channel stat records for one network.
//
// The map shape is guarded internally. Multi-step mutation of a ChannelStats
// record is serialized by the callers: the dispatcher holds the per-channel
// named lock for the whole command, and the duck scheduler holds it around
// despawn forgiveness. See internal/concurrency.LockManager.
type Store struct {
	mu             sync.RWMutex
	players        map[string]*domain.PlayerRecord // keyed by normalized name
	defaultChannel string
	dirty          atomic.Bool
}

// NewStore creates an empty store. Legacy global stats found at load time are
// migrated into defaultChannel.
func NewStore(defaultChannel string) *Store {
	return &Store{
		players:        make(map[string]*domain.PlayerRecord),
		defaultChannel: utils.NormalizeKey(defaultChannel),
	}
}

// Load installs persisted records, running the one-time migration pass:
// channel keys are normalized, stale derived capacities are recomputed, and
// records are stamped with the current version. Idempotent.
func (s *Store) Load(records map[string]*domain.PlayerRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.players = make(map[string]*domain.PlayerRecord, len(records))
	for name, rec := range records {
		if rec == nil {
			continue
		}
		key := utils.NormalizeKey(name)
		if rec.Name == "" {
			rec.Name = name
		}
		migrateRecord(rec)
		s.players[key] = rec
	}
}

// migrateRecord backfills a record loaded from an older persisted shape.
func migrateRecord(rec *domain.PlayerRecord) {
	if rec.Channels == nil {
		rec.Channels = make(map[string]*domain.ChannelStats)
	}

	normalized := make(map[string]*domain.ChannelStats, len(rec.Channels))
	for ch, stats := range rec.Channels {
		if stats == nil {
			continue
		}
		key := utils.NormalizeKey(ch)
		if existing, ok := normalized[key]; ok {
			// Duplicate channel keys differing only in case: keep the
			// record with more progress.
			if existing.XP >= stats.XP {
				continue
			}
		}
		normalized[key] = stats
	}
	rec.Channels = normalized

	for _, stats := range rec.Channels {
		clampUpgrades(stats)
		ApplyLevelBonuses(stats)
	}
	rec.Version = domain.RecordVersion
}

func clampUpgrades(stats *domain.ChannelStats) {
	if stats.MagUpgradeLevel < 0 {
		stats.MagUpgradeLevel = 0
	}
	if stats.MagUpgradeLevel > domain.MaxUpgradeLevel {
		stats.MagUpgradeLevel = domain.MaxUpgradeLevel
	}
	if stats.MagCapacityLevel < 0 {
		stats.MagCapacityLevel = 0
	}
	if stats.MagCapacityLevel > domain.MaxUpgradeLevel {
		stats.MagCapacityLevel = domain.MaxUpgradeLevel
	}
}

// ApplyLevelBonuses recomputes the derived capacities and penalty fields from
// the current XP and permanent upgrade levels. Must be invoked after any XP
// or upgrade-level change. Idempotent.
func ApplyLevelBonuses(stats *domain.ChannelStats) {
	props := progression.PropertiesFor(stats.XP)

	stats.ClipSize = props.ClipSize + stats.MagUpgradeLevel
	stats.MagazinesMax = props.MagazinesMax + stats.MagCapacityLevel
	stats.MissPenalty = props.MissPenalty
	stats.WildPenalty = props.WildPenalty
	stats.AccidentPenalty = props.AccidentPenalty

	if stats.Ammo > stats.ClipSize {
		stats.Ammo = stats.ClipSize
	}
	if stats.Magazines > stats.MagazinesMax {
		stats.Magazines = stats.MagazinesMax
	}
}

// GetOrCreateChannelStats returns the record for (player, channel), creating
// a zero-valued one with a full weapon and level-seeded capacities on first
// reference.
func (s *Store) GetOrCreateChannelStats(player, channel string) *domain.ChannelStats {
	playerKey := utils.NormalizeKey(player)
	channelKey := utils.NormalizeKey(channel)

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.players[playerKey]
	if !ok {
		rec = &domain.PlayerRecord{
			Name:     player,
			Version:  domain.RecordVersion,
			Channels: make(map[string]*domain.ChannelStats),
		}
		s.players[playerKey] = rec
	}

	stats, ok := rec.Channels[channelKey]
	if !ok {
		stats = newChannelStats()
		rec.Channels[channelKey] = stats
		s.dirty.Store(true)
	}
	return stats
}

func newChannelStats() *domain.ChannelStats {
	stats := &domain.ChannelStats{}
	ApplyLevelBonuses(stats)
	stats.Ammo = stats.ClipSize
	stats.Magazines = stats.MagazinesMax
	return stats
}

// Lookup returns the record for (player, channel) without creating one.
func (s *Store) Lookup(player, channel string) (*domain.ChannelStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.players[utils.NormalizeKey(player)]
	if !ok {
		return nil, false
	}
	stats, ok := rec.Channels[utils.NormalizeKey(channel)]
	return stats, ok
}

// UnconfiscateAll clears the confiscated flag for every player's record in
// the channel. Forgiveness mechanic, runs when a duck despawns or dies.
func (s *Store) UnconfiscateAll(channel string) {
	channelKey := utils.NormalizeKey(channel)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.players {
		if stats, ok := rec.Channels[channelKey]; ok && stats.Confiscated {
			stats.Confiscated = false
			s.dirty.Store(true)
		}
	}
}

// ClearChannel removes every player's stats for the channel. Admin operation.
func (s *Store) ClearChannel(channel string) int {
	channelKey := utils.NormalizeKey(channel)

	s.mu.Lock()
	defer s.mu.Unlock()

	cleared := 0
	for _, rec := range s.players {
		if _, ok := rec.Channels[channelKey]; ok {
			delete(rec.Channels, channelKey)
			cleared++
		}
	}
	if cleared > 0 {
		s.dirty.Store(true)
	}
	return cleared
}

// Snapshot returns a deep copy of all records, suitable for handing to the
// persistence collaborator without holding the store lock during I/O.
func (s *Store) Snapshot() map[string]*domain.PlayerRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*domain.PlayerRecord, len(s.players))
	for name, rec := range s.players {
		cp := &domain.PlayerRecord{
			Name:     rec.Name,
			Version:  rec.Version,
			Channels: make(map[string]*domain.ChannelStats, len(rec.Channels)),
		}
		for ch, stats := range rec.Channels {
			st := *stats
			cp.Channels[ch] = &st
		}
		out[name] = cp
	}
	return out
}

// LeaderboardEntry is one row of a channel leaderboard.
type LeaderboardEntry struct {
	Name  string
	XP    int
	Ducks int
}

// TopPlayers returns the top n players for the channel ordered by XP, or by
// duck kill count when byDucks is set. Ties keep iteration order.
func (s *Store) TopPlayers(channel string, byDucks bool, n int) []LeaderboardEntry {
	channelKey := utils.NormalizeKey(channel)

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]LeaderboardEntry, 0, len(s.players))
	for _, rec := range s.players {
		stats, ok := rec.Channels[channelKey]
		if !ok {
			continue
		}
		entries = append(entries, LeaderboardEntry{
			Name:  rec.Name,
			XP:    stats.XP,
			Ducks: stats.DucksShot + stats.BefriendedDucks,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if byDucks {
			return entries[i].Ducks > entries[j].Ducks
		}
		return entries[i].XP > entries[j].XP
	})

	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// MarkDirty flags the store for persistence.
func (s *Store) MarkDirty() {
	s.dirty.Store(true)
}

// Dirty reports whether unsaved mutations exist.
func (s *Store) Dirty() bool {
	return s.dirty.Load()
}

// ClearDirty resets the dirty flag after a successful flush.
func (s *Store) ClearDirty() {
	s.dirty.Store(false)
}
