package duck

import (
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mallardworks/duckhunt/internal/domain"
	"github.com/mallardworks/duckhunt/internal/utils"
)

// Settings are the resolved per-network spawn parameters.
type Settings struct {
	MinSpawn     time.Duration
	MaxSpawn     time.Duration
	GoldRatio    float64
	MaxDucks     int
	DespawnAfter time.Duration
}

// Occupant tracking bounds: a channel member counts as present for accident
// and detector purposes while they spoke within the TTL.
const (
	occupantCacheSize = 256
	occupantTTL       = 15 * time.Minute
)

// Pre-spawn detector notice lead time.
const preNoticeLead = 60 * time.Second

// Probe deferral window: a status probe on an overdue channel delays the
// spawn by this much instead of triggering it immediately.
const (
	probeDeferMin = 10 * time.Second
	probeDeferMax = 30 * time.Second
)

type schedule struct {
	scheduled  bool
	nextSpawn  time.Time
	preNotice  time.Time
	noticeSent bool
	lastSpawn  time.Time
}

type channelState struct {
	ducks     []*domain.Duck
	sched     schedule
	occupants *expirable.LRU[string, time.Time]
}

// EventType classifies scheduler tick output.
type EventType int

const (
	EventSpawn EventType = iota
	EventDespawn
	EventPreNotice
)

// Event is one observable scheduler occurrence, translated to chat messages
// by the dispatcher.
type Event struct {
	Type    EventType
	Channel string
	Duck    *domain.Duck
	Until   time.Duration // EventPreNotice: time remaining until spawn
}

// Manager owns every channel's duck population and spawn schedule for one
// network. All mutation across all channels serializes on a single mutex:
// capacity check plus append, and oldest-pop plus removal, must be atomic.
type Manager struct {
	mu       sync.Mutex
	settings Settings
	rng      utils.Rand
	clock    func() time.Time
	channels map[string]*channelState
}

// NewManager creates a scheduler for the given settings.
func NewManager(settings Settings, rng utils.Rand) *Manager {
	return &Manager{
		settings: settings,
		rng:      rng,
		clock:    time.Now,
		channels: make(map[string]*channelState),
	}
}

// WithClock substitutes the time source. Test hook.
func (m *Manager) WithClock(clock func() time.Time) *Manager {
	m.clock = clock
	return m
}

// EnsureChannel lazily creates the channel's population and schedule.
// Self-healing per the error taxonomy: probing a channel that has no
// schedule yet creates one instead of erroring.
func (m *Manager) EnsureChannel(channel string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureLocked(utils.NormalizeKey(channel))
}

func (m *Manager) ensureLocked(key string) *channelState {
	ch, ok := m.channels[key]
	if !ok {
		ch = &channelState{
			occupants: expirable.NewLRU[string, time.Time](occupantCacheSize, nil, occupantTTL),
		}
		m.channels[key] = ch
		m.scheduleNextLocked(ch, m.clock(), false)
	}
	return ch
}

// scheduleNextLocked recomputes the channel's next spawn time.
//
// Never spawned: uniform in [now+min, now+max]. Overdue (now past the latest
// admissible time): immediate, unless probe requested a short random
// deferral. Inside the window: uniform in [now, latest]. Before the window:
// uniform in [earliest, latest]. The result keeps
// next_spawn - last_spawn <= MaxSpawn barring deliberate probe deferral.
func (m *Manager) scheduleNextLocked(ch *channelState, now time.Time, probe bool) {
	s := &ch.sched
	var due time.Time

	if s.lastSpawn.IsZero() {
		due = now.Add(m.uniform(m.settings.MinSpawn, m.settings.MaxSpawn))
	} else {
		earliest := s.lastSpawn.Add(m.settings.MinSpawn)
		latest := s.lastSpawn.Add(m.settings.MaxSpawn)
		switch {
		case now.After(latest):
			if probe {
				due = now.Add(m.uniform(probeDeferMin, probeDeferMax))
			} else {
				due = now
			}
		case now.Before(earliest):
			due = earliest.Add(m.uniform(0, latest.Sub(earliest)))
		default:
			due = now.Add(m.uniform(0, latest.Sub(now)))
		}
	}

	s.scheduled = true
	s.nextSpawn = due
	s.preNotice = due.Add(-preNoticeLead)
	if s.preNotice.Before(now) {
		s.preNotice = now
	}
	s.noticeSent = false
}

func (m *Manager) uniform(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(m.rng.Intn(int(max-min)+1))
}

// Spawn places a duck in the channel. golden nil draws the variant from the
// configured gold ratio. Admin-forced spawns do not touch the schedule;
// automatic spawns reschedule the next window.
func (m *Manager) Spawn(channel string, golden *bool, admin bool) (*domain.Duck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.spawnLocked(m.ensureLocked(utils.NormalizeKey(channel)), golden, admin)
}

func (m *Manager) spawnLocked(ch *channelState, golden *bool, admin bool) (*domain.Duck, error) {
	if len(ch.ducks) >= m.settings.MaxDucks {
		return nil, fmt.Errorf("%w: %d ducks", domain.ErrChannelFull, len(ch.ducks))
	}

	isGolden := false
	if golden != nil {
		isGolden = *golden
	} else {
		isGolden = m.rng.Float64() < m.settings.GoldRatio
	}

	now := m.clock()
	d := domain.NewDuck(isGolden, now)
	ch.ducks = append(ch.ducks, d)
	ch.sched.lastSpawn = now
	if !admin {
		m.scheduleNextLocked(ch, now, false)
	}
	return d, nil
}

// Oldest returns the FIFO target duck without removing it.
func (m *Manager) Oldest(channel string) (*domain.Duck, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.channels[utils.NormalizeKey(channel)]
	if !ok || len(ch.ducks) == 0 {
		return nil, false
	}
	return ch.ducks[0], true
}

// RemoveOldest pops the FIFO target after a kill or befriend.
func (m *Manager) RemoveOldest(channel string) (*domain.Duck, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.channels[utils.NormalizeKey(channel)]
	if !ok || len(ch.ducks) == 0 {
		return nil, false
	}
	d := ch.ducks[0]
	ch.ducks = ch.ducks[1:]
	return d, true
}

// Remove deletes the given duck if it is still part of the channel's
// population. Returns false when a concurrent despawn already took it.
func (m *Manager) Remove(channel string, d *domain.Duck) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.channels[utils.NormalizeKey(channel)]
	if !ok {
		return false
	}
	for i, candidate := range ch.ducks {
		if candidate == d {
			ch.ducks = append(ch.ducks[:i], ch.ducks[i+1:]...)
			return true
		}
	}
	return false
}

// Count returns the channel's current duck population.
func (m *Manager) Count(channel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.channels[utils.NormalizeKey(channel)]
	if !ok {
		return 0
	}
	return len(ch.ducks)
}

// NextSpawnIn reports the time remaining until the channel's next spawn.
// An owner probe on an overdue channel defers the spawn by a short random
// delay so the probe itself does not trigger it.
func (m *Manager) NextSpawnIn(channel string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := m.ensureLocked(utils.NormalizeKey(channel))
	now := m.clock()
	if !now.Before(ch.sched.nextSpawn) {
		m.scheduleNextLocked(ch, now, true)
	}
	return ch.sched.nextSpawn.Sub(now), true
}

// LastSpawn reports when the channel last saw a duck appear.
func (m *Manager) LastSpawn(channel string) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.channels[utils.NormalizeKey(channel)]
	if !ok || ch.sched.lastSpawn.IsZero() {
		return time.Time{}, false
	}
	return ch.sched.lastSpawn, true
}

// ClearChannel drops the channel's population, schedule, and occupant cache.
func (m *Manager) ClearChannel(channel string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.channels, utils.NormalizeKey(channel))
}

// TouchOccupant records channel activity for accident-victim and detector
// notice selection.
func (m *Manager) TouchOccupant(channel, nick string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := m.ensureLocked(utils.NormalizeKey(channel))
	ch.occupants.Add(utils.NormalizeKey(nick), m.clock())
}

// Occupants lists recently active channel members.
func (m *Manager) Occupants(channel string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.channels[utils.NormalizeKey(channel)]
	if !ok {
		return nil
	}
	return ch.occupants.Keys()
}

// RandomOtherOccupant picks a random recently active member excluding the
// given nicks (shooter and bot). Used for ricochet and wild-fire accidents.
func (m *Manager) RandomOtherOccupant(channel string, exclude ...string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.channels[utils.NormalizeKey(channel)]
	if !ok {
		return "", false
	}

	excluded := make(map[string]struct{}, len(exclude))
	for _, e := range exclude {
		excluded[utils.NormalizeKey(e)] = struct{}{}
	}

	var candidates []string
	for _, nick := range ch.occupants.Keys() {
		if _, skip := excluded[nick]; !skip {
			candidates = append(candidates, nick)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[m.rng.Intn(len(candidates))], true
}

// Tick advances every channel: expired ducks fly away, due detector notices
// fire once per schedule, and due spawns happen. Invoked on a >=1s cadence
// by the periodic scheduler job.
func (m *Manager) Tick() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock()
	var events []Event

	for name, ch := range m.channels {
		// Despawn: oldest first, FIFO order means expired ducks sit at
		// the front.
		for len(ch.ducks) > 0 && now.Sub(ch.ducks[0].SpawnTime) >= m.settings.DespawnAfter {
			d := ch.ducks[0]
			ch.ducks = ch.ducks[1:]
			ch.sched.lastSpawn = now
			events = append(events, Event{Type: EventDespawn, Channel: name, Duck: d})
		}

		s := &ch.sched
		if !s.scheduled {
			continue
		}

		if !s.noticeSent && !now.Before(s.preNotice) && now.Before(s.nextSpawn) {
			s.noticeSent = true
			events = append(events, Event{
				Type:    EventPreNotice,
				Channel: name,
				Until:   s.nextSpawn.Sub(now),
			})
		}

		if !now.Before(s.nextSpawn) {
			d, err := m.spawnLocked(ch, nil, false)
			if err != nil {
				// Population full; restart the window so the tick loop
				// does not spin on an un-spawnable channel.
				s.lastSpawn = now
				m.scheduleNextLocked(ch, now, false)
				continue
			}
			events = append(events, Event{Type: EventSpawn, Channel: name, Duck: d})
		}
	}

	return events
}
