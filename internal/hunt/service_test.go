package hunt

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mallardworks/duckhunt/internal/domain"
	"github.com/mallardworks/duckhunt/internal/duck"
	"github.com/mallardworks/duckhunt/internal/loot"
	"github.com/mallardworks/duckhunt/internal/player"
)

// seqRand replays scripted rolls. An exhausted float queue yields 0.999 so
// chance-gated side paths (accidents, loot) stay off unless a test arms them;
// an exhausted int queue yields 0 (the minimum of any IntBetween range).
type seqRand struct {
	floats []float64
	ints   []int
}

func (r *seqRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0.999
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func (r *seqRand) Intn(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	return v % n
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type huntEnv struct {
	clock *fakeClock
	rng   *seqRand
	store *player.Store
	ducks *duck.Manager
	svc   *Service
}

const testChannel = "#ducks"

func newEnv() *huntEnv {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	rng := &seqRand{}
	store := player.NewStore(testChannel)
	ducks := duck.NewManager(duck.Settings{
		MinSpawn:     time.Hour,
		MaxSpawn:     2 * time.Hour,
		GoldRatio:    0,
		MaxDucks:     5,
		DespawnAfter: time.Hour,
	}, rand.New(rand.NewSource(1))).WithClock(clock.Now)
	svc := NewService(store, ducks, loot.NewService(rng), rng, 10, "duckbot").WithClock(clock.Now)
	return &huntEnv{clock: clock, rng: rng, store: store, ducks: ducks, svc: svc}
}

func (e *huntEnv) spawn(t *testing.T, golden bool) *domain.Duck {
	t.Helper()
	d, err := e.ducks.Spawn(testChannel, &golden, true)
	require.NoError(t, err)
	return d
}

func TestShootKillsRegularDuck(t *testing.T) {
	env := newEnv()
	env.spawn(t, false)
	env.clock.Advance(3 * time.Second)

	// Fresh player: xp 0, level 1, clip 6, accuracy 55%.
	env.rng.floats = []float64{0.0, 0.54, 0.99} // reliability, accuracy, loot

	res := env.svc.Shoot("alice", testChannel)
	assert.Equal(t, KindKill, res.Kind)
	assert.Equal(t, 10, res.XPGained)
	assert.InDelta(t, 3.0, res.ReactionTime, 0.001)
	assert.True(t, res.BestTime)
	assert.Nil(t, res.Loot)

	stats, ok := env.store.Lookup("alice", testChannel)
	require.True(t, ok)
	assert.Equal(t, 10, stats.XP)
	assert.Equal(t, 1, stats.DucksShot)
	assert.Equal(t, 1, stats.ShotsFired)
	assert.Equal(t, 5, stats.Ammo)
	assert.InDelta(t, 3.0, stats.BestTime, 0.001)
	assert.Equal(t, 0, env.ducks.Count(testChannel))
}

func TestShootNoDuckIsWildFire(t *testing.T) {
	env := newEnv()
	stats := env.store.GetOrCreateChannelStats("alice", testChannel)
	stats.XP = 100
	player.ApplyLevelBonuses(stats)

	env.rng.ints = []int{2}           // IntBetween(1,5) = 3
	env.rng.floats = []float64{0.99}  // no accident

	res := env.svc.Shoot("alice", testChannel)
	assert.Equal(t, KindWildFire, res.Kind)
	assert.Equal(t, -5, res.Penalty) // roll 3 plus flat 2
	assert.True(t, res.Confiscated)
	assert.Equal(t, 95, stats.XP)
	assert.Equal(t, 1, stats.WildFires)
	assert.True(t, stats.Confiscated)

	res = env.svc.Shoot("alice", testChannel)
	assert.Equal(t, KindConfiscated, res.Kind)
}

func TestWildFirePenaltyRange(t *testing.T) {
	// Worst roll 5 plus flat 2 = 7, best roll 1 plus flat 2 = 3.
	for _, tc := range []struct {
		roll    int
		penalty int
	}{{0, -3}, {4, -7}} {
		env := newEnv()
		stats := env.store.GetOrCreateChannelStats("alice", testChannel)
		stats.XP = 100
		env.rng.ints = []int{tc.roll}
		env.rng.floats = []float64{0.99}

		res := env.svc.Shoot("alice", testChannel)
		assert.Equal(t, tc.penalty, res.Penalty)
		assert.Equal(t, 100+tc.penalty, stats.XP)
	}
}

func TestLiabilityInsuranceHalvesWildComponent(t *testing.T) {
	env := newEnv()
	stats := env.store.GetOrCreateChannelStats("alice", testChannel)
	stats.XP = 100
	stats.LiabilityInsuranceUntil = env.clock.Now().Unix() + 3600

	env.rng.ints = []int{0}          // roll 1
	env.rng.floats = []float64{0.99} // no accident

	res := env.svc.Shoot("alice", testChannel)
	assert.Equal(t, -2, res.Penalty) // roll 1 plus halved flat (2/2)
	assert.Equal(t, 98, stats.XP)
}

func TestInfraredDetectorHoldsTrigger(t *testing.T) {
	env := newEnv()
	stats := env.store.GetOrCreateChannelStats("alice", testChannel)
	stats.XP = 100
	stats.InfraredUntil = env.clock.Now().Unix() + 3600
	stats.InfraredUses = 3

	res := env.svc.Shoot("alice", testChannel)
	assert.Equal(t, KindTriggerLocked, res.Kind)
	assert.Equal(t, 2, stats.InfraredUses)
	assert.Equal(t, 100, stats.XP)
	assert.False(t, stats.Confiscated)
	assert.Equal(t, 0, stats.WildFires)
}

func TestReliabilityFailureJamsGun(t *testing.T) {
	env := newEnv()
	env.spawn(t, false)

	env.rng.floats = []float64{0.999} // above 0.85 base reliability

	res := env.svc.Shoot("alice", testChannel)
	assert.Equal(t, KindJam, res.Kind)

	stats, _ := env.store.Lookup("alice", testChannel)
	assert.True(t, stats.Jammed)
	assert.Equal(t, 6, stats.Ammo, "a jam spends no ammo")
	assert.Equal(t, 0, stats.ShotsFired)
	assert.Equal(t, 1, env.ducks.Count(testChannel))

	res = env.svc.Shoot("alice", testChannel)
	assert.Equal(t, KindJammedGun, res.Kind)

	res = env.svc.Reload("alice", testChannel)
	assert.Equal(t, KindUnjammed, res.Kind)
	assert.False(t, stats.Jammed)
}

func TestSoakedShotSpendsTheRound(t *testing.T) {
	env := newEnv()
	env.spawn(t, false)
	stats := env.store.GetOrCreateChannelStats("alice", testChannel)
	stats.SoakedUntil = env.clock.Now().Unix() + 600

	env.rng.floats = []float64{0.0} // reliability passes

	res := env.svc.Shoot("alice", testChannel)
	assert.Equal(t, KindSoaked, res.Kind)
	assert.Equal(t, 5, stats.Ammo)
	assert.Equal(t, 1, stats.ShotsFired)
	assert.Equal(t, 1, env.ducks.Count(testChannel), "the duck is untouched")
}

func TestMissWithRicochetConfiscates(t *testing.T) {
	env := newEnv()
	env.spawn(t, false)
	env.ducks.TouchOccupant(testChannel, "alice")
	env.ducks.TouchOccupant(testChannel, "bob")
	env.ducks.TouchOccupant(testChannel, "duckbot")

	stats := env.store.GetOrCreateChannelStats("alice", testChannel)
	stats.XP = 100
	player.ApplyLevelBonuses(stats)
	require.Equal(t, -4, stats.AccidentPenalty)

	env.rng.floats = []float64{0.0, 0.99, 0.0} // reliability, accuracy miss, ricochet fires
	env.rng.ints = []int{3}                    // miss roll IntBetween(1,5) = 4

	res := env.svc.Shoot("alice", testChannel)
	assert.Equal(t, KindMiss, res.Kind)
	assert.Equal(t, "bob", res.Victim)
	assert.Equal(t, -8, res.Penalty) // miss 4 plus accident 4
	assert.True(t, res.Confiscated)
	assert.Equal(t, 92, stats.XP)
	assert.Equal(t, 1, stats.Misses)
	assert.Equal(t, 1, stats.Accidents)
	assert.True(t, stats.Confiscated)
}

func TestLifeInsuranceKeepsTheGunAfterRicochet(t *testing.T) {
	env := newEnv()
	env.spawn(t, false)
	env.ducks.TouchOccupant(testChannel, "alice")
	env.ducks.TouchOccupant(testChannel, "bob")

	stats := env.store.GetOrCreateChannelStats("alice", testChannel)
	stats.XP = 100
	stats.LifeInsuranceUntil = env.clock.Now().Unix() + 3600
	player.ApplyLevelBonuses(stats)

	env.rng.floats = []float64{0.0, 0.99, 0.0}
	env.rng.ints = []int{0}

	res := env.svc.Shoot("alice", testChannel)
	assert.Equal(t, KindMiss, res.Kind)
	assert.Equal(t, "bob", res.Victim)
	assert.False(t, res.Confiscated)
	assert.False(t, stats.Confiscated)
}

func TestRicochetGlareTaxOnMirroredVictim(t *testing.T) {
	env := newEnv()
	env.spawn(t, false)
	env.ducks.TouchOccupant(testChannel, "alice")
	env.ducks.TouchOccupant(testChannel, "bob")

	victim := env.store.GetOrCreateChannelStats("bob", testChannel)
	victim.MirrorUntil = env.clock.Now().Unix() + 3600

	stats := env.store.GetOrCreateChannelStats("alice", testChannel)
	stats.XP = 100
	player.ApplyLevelBonuses(stats)

	env.rng.floats = []float64{0.0, 0.99, 0.0}
	env.rng.ints = []int{0} // miss roll 1

	res := env.svc.Shoot("alice", testChannel)
	assert.True(t, res.MirrorGlare)
	assert.Equal(t, -6, res.Penalty) // miss 1, accident 4, glare 1
	assert.Equal(t, 94, stats.XP)
}

func TestGoldenDuckRevealThenKill(t *testing.T) {
	env := newEnv()
	d := env.spawn(t, true)
	require.Equal(t, domain.GoldenDuckHealth, d.Health)

	hit := func() Result {
		env.rng.floats = []float64{0.0, 0.0, 0.99}
		return env.svc.Shoot("alice", testChannel)
	}

	res := hit()
	assert.Equal(t, KindReveal, res.Kind)
	assert.True(t, d.Revealed)
	assert.Equal(t, 4, d.Health)

	for i := 0; i < 3; i++ {
		res = hit()
		assert.Equal(t, KindHit, res.Kind)
	}

	res = hit()
	assert.Equal(t, KindKill, res.Kind)
	assert.Equal(t, domain.GoldenDuckXP, res.XPGained)

	stats, _ := env.store.Lookup("alice", testChannel)
	assert.Equal(t, 1, stats.GoldenDucks)
	assert.Equal(t, 1, stats.DucksShot)
	assert.Equal(t, 0, env.ducks.Count(testChannel))
}

func TestExplosiveAmmoDealsDoubleDamage(t *testing.T) {
	env := newEnv()
	d := env.spawn(t, true)
	stats := env.store.GetOrCreateChannelStats("alice", testChannel)
	stats.ExplosiveShots = 2

	env.rng.floats = []float64{0.0, 0.0}
	res := env.svc.Shoot("alice", testChannel)
	assert.Equal(t, KindReveal, res.Kind)
	assert.Equal(t, 3, d.Health)
	assert.Equal(t, 1, stats.ExplosiveShots)

	env.rng.floats = []float64{0.0, 0.0}
	res = env.svc.Shoot("alice", testChannel)
	assert.Equal(t, KindHit, res.Kind)
	assert.Equal(t, 1, d.Health)
	assert.Equal(t, 0, stats.ExplosiveShots)
}

func TestKillForgivesChannelConfiscations(t *testing.T) {
	env := newEnv()
	env.spawn(t, false)

	other := env.store.GetOrCreateChannelStats("bob", testChannel)
	other.Confiscated = true

	env.rng.floats = []float64{0.0, 0.0, 0.99}
	res := env.svc.Shoot("alice", testChannel)
	require.Equal(t, KindKill, res.Kind)
	assert.False(t, other.Confiscated)
}

// raceRand replays scripted rolls like seqRand but runs a hook just before a
// chosen draw, letting a test interleave scheduler work mid-action.
type raceRand struct {
	seqRand
	hookAt int // 1-based Float64 call count
	calls  int
	hook   func()
}

func (r *raceRand) Float64() float64 {
	r.calls++
	if r.hook != nil && r.calls == r.hookAt {
		r.hook()
	}
	return r.seqRand.Float64()
}

// newDespawnRaceEnv builds a service whose rng expires the duck and runs the
// scheduler just before the draw at hookAt, standing in for a tick goroutine
// winning the despawn race while an action resolves.
func newDespawnRaceEnv(t *testing.T, hookAt int, floats []float64) (*Service, *player.Store, *duck.Manager) {
	t.Helper()
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	store := player.NewStore(testChannel)
	ducks := duck.NewManager(duck.Settings{
		MinSpawn:     5 * time.Hour,
		MaxSpawn:     6 * time.Hour,
		GoldRatio:    0,
		MaxDucks:     5,
		DespawnAfter: time.Hour,
	}, rand.New(rand.NewSource(1))).WithClock(clock.Now)

	rng := &raceRand{hookAt: hookAt, hook: func() {
		clock.Advance(2 * time.Hour)
		events := ducks.Tick()
		require.Len(t, events, 1)
		require.Equal(t, duck.EventDespawn, events[0].Type)
	}}
	rng.floats = floats
	svc := NewService(store, ducks, loot.NewService(rng), rng, 10, "duckbot").WithClock(clock.Now)

	golden := false
	_, err := ducks.Spawn(testChannel, &golden, true)
	require.NoError(t, err)
	return svc, store, ducks
}

func TestShootDespawnRaceAwardsNoKill(t *testing.T) {
	// The accuracy roll is the second draw; the duck despawns under it.
	svc, store, ducks := newDespawnRaceEnv(t, 2, []float64{0.0, 0.0})

	bystander := store.GetOrCreateChannelStats("bob", testChannel)
	bystander.Confiscated = true

	res := svc.Shoot("alice", testChannel)
	assert.Equal(t, KindDuckGone, res.Kind)
	assert.Equal(t, 0, res.XPGained)

	stats, ok := store.Lookup("alice", testChannel)
	require.True(t, ok)
	assert.Equal(t, 0, stats.DucksShot)
	assert.Equal(t, 0, stats.XP)
	assert.Equal(t, 1, stats.ShotsFired, "the round was still spent")
	assert.Equal(t, 5, stats.Ammo)
	assert.Equal(t, 0, ducks.Count(testChannel))
	assert.True(t, bystander.Confiscated, "no kill, no forgiveness")
}

func TestBefriendDespawnRaceAwardsNoCredit(t *testing.T) {
	// The befriend accuracy roll is the first draw.
	svc, store, _ := newDespawnRaceEnv(t, 1, []float64{0.0})

	res := svc.Befriend("alice", testChannel)
	assert.Equal(t, KindDuckGone, res.Kind)

	stats, ok := store.Lookup("alice", testChannel)
	require.True(t, ok)
	assert.Equal(t, 0, stats.BefriendedDucks)
	assert.Equal(t, 0, stats.XP)
}

func TestKillMayDropLoot(t *testing.T) {
	env := newEnv()
	env.spawn(t, false)

	// Loot chance roll 0.05 < 0.10; draw roll 0 lands on junk.
	env.rng.floats = []float64{0.0, 0.0, 0.05}
	env.rng.ints = []int{0}

	res := env.svc.Shoot("alice", testChannel)
	require.Equal(t, KindKill, res.Kind)
	require.NotNil(t, res.Loot)
	assert.Equal(t, "junk", res.Loot.Outcome.Key)
}

func TestCloverAddsBonusXP(t *testing.T) {
	env := newEnv()
	env.spawn(t, false)
	stats := env.store.GetOrCreateChannelStats("alice", testChannel)
	stats.CloverUntil = env.clock.Now().Unix() + 3600
	stats.CloverBonus = 7

	env.rng.floats = []float64{0.0, 0.0, 0.99}
	res := env.svc.Shoot("alice", testChannel)
	require.Equal(t, KindKill, res.Kind)
	assert.Equal(t, 17, res.XPGained)
	assert.Equal(t, 17, stats.XP)
}

func TestBefriendNoDuckPenalty(t *testing.T) {
	env := newEnv()
	stats := env.store.GetOrCreateChannelStats("alice", testChannel)
	stats.XP = 100

	env.rng.ints = []int{4} // IntBetween(1,10) = 5

	res := env.svc.Befriend("alice", testChannel)
	assert.Equal(t, KindBefNoDuck, res.Kind)
	assert.Equal(t, -5, res.Penalty)
	assert.Equal(t, 95, stats.XP)
}

func TestBefriendSuccess(t *testing.T) {
	env := newEnv()
	env.spawn(t, false)

	env.rng.floats = []float64{0.0, 0.99} // accuracy hit, no loot

	res := env.svc.Befriend("alice", testChannel)
	assert.Equal(t, KindBefriended, res.Kind)
	assert.Equal(t, 10, res.XPGained)

	stats, _ := env.store.Lookup("alice", testChannel)
	assert.Equal(t, 1, stats.BefriendedDucks)
	assert.Equal(t, 0, stats.DucksShot)
	assert.Equal(t, 0, env.ducks.Count(testChannel))
}

func TestBefriendGoldenNeedsBreadOrPatience(t *testing.T) {
	env := newEnv()
	d := env.spawn(t, true)
	stats := env.store.GetOrCreateChannelStats("alice", testChannel)

	env.rng.floats = []float64{0.0}
	res := env.svc.Befriend("alice", testChannel)
	assert.Equal(t, KindReveal, res.Kind)
	assert.Equal(t, 4, d.Health)

	stats.BreadUses = 2
	env.rng.floats = []float64{0.0}
	res = env.svc.Befriend("alice", testChannel)
	assert.Equal(t, KindHit, res.Kind)
	assert.Equal(t, 2, d.Health, "bread doubles befriend damage on golden ducks")
	assert.Equal(t, 1, stats.BreadUses)

	env.rng.floats = []float64{0.0, 0.99}
	res = env.svc.Befriend("alice", testChannel)
	assert.Equal(t, KindBefriended, res.Kind)
	assert.Equal(t, 0, stats.BreadUses)
}

func TestBefriendWhileSoaked(t *testing.T) {
	env := newEnv()
	env.spawn(t, false)
	stats := env.store.GetOrCreateChannelStats("alice", testChannel)
	stats.SoakedUntil = env.clock.Now().Unix() + 600

	res := env.svc.Befriend("alice", testChannel)
	assert.Equal(t, KindSoaked, res.Kind)
	assert.Equal(t, 1, env.ducks.Count(testChannel))
}

func TestReloadPrecedence(t *testing.T) {
	env := newEnv()
	stats := env.store.GetOrCreateChannelStats("alice", testChannel)

	stats.Confiscated = true
	assert.Equal(t, KindConfiscated, env.svc.Reload("alice", testChannel).Kind)
	stats.Confiscated = false

	stats.Jammed = true
	stats.Sabotaged = true
	assert.Equal(t, KindUnjammed, env.svc.Reload("alice", testChannel).Kind)
	assert.Equal(t, KindUnsabotaged, env.svc.Reload("alice", testChannel).Kind)

	stats.Ammo = 0
	require.Equal(t, 2, stats.Magazines)
	assert.Equal(t, KindReloaded, env.svc.Reload("alice", testChannel).Kind)
	assert.Equal(t, stats.ClipSize, stats.Ammo)
	assert.Equal(t, 1, stats.Magazines)

	stats.Ammo = 0
	stats.Magazines = 0
	assert.Equal(t, KindMagazinesEmpty, env.svc.Reload("alice", testChannel).Kind)

	stats.Ammo = 3
	assert.Equal(t, KindNoReloadNeeded, env.svc.Reload("alice", testChannel).Kind)
}

func TestNoAmmoBlocksShooting(t *testing.T) {
	env := newEnv()
	env.spawn(t, false)
	stats := env.store.GetOrCreateChannelStats("alice", testChannel)
	stats.Ammo = 0

	res := env.svc.Shoot("alice", testChannel)
	assert.Equal(t, KindNoAmmo, res.Kind)
	assert.Equal(t, 1, env.ducks.Count(testChannel))
}

func TestAccuracyModifiers(t *testing.T) {
	env := newEnv()
	now := env.clock.Now().Unix()

	stats := &domain.ChannelStats{XP: 0} // 55% base
	assert.InDelta(t, 0.55, env.svc.Accuracy(stats, ModeShoot, now), 1e-9)

	stats.ExplosiveShots = 5
	assert.InDelta(t, 0.55+0.45*0.25, env.svc.Accuracy(stats, ModeShoot, now), 1e-9)
	stats.ExplosiveShots = 0

	stats.SightNextShot = true
	assert.InDelta(t, 0.55+0.45/3, env.svc.Accuracy(stats, ModeShoot, now), 1e-9)
	assert.False(t, stats.SightNextShot, "the sight is consumed by the computation")

	stats.BreadUses = 3
	assert.InDelta(t, 0.65, env.svc.Accuracy(stats, ModeBefriend, now), 1e-9)
	assert.InDelta(t, 0.55, env.svc.Accuracy(stats, ModeShoot, now), 1e-9,
		"bread only helps befriending")
	stats.BreadUses = 0

	stats.MirrorUntil = now + 3600
	assert.InDelta(t, 0.55*0.75, env.svc.Accuracy(stats, ModeShoot, now), 1e-9)
	stats.SunglassesUntil = now + 3600
	assert.InDelta(t, 0.55, env.svc.Accuracy(stats, ModeShoot, now), 1e-9,
		"sunglasses cancel the mirror")
}

func TestReliabilityModifiers(t *testing.T) {
	env := newEnv()
	now := env.clock.Now().Unix()

	stats := &domain.ChannelStats{XP: 0} // 85% base
	assert.InDelta(t, 0.85, env.svc.Reliability(stats, now), 1e-9)

	stats.GreaseUntil = now + 3600
	assert.InDelta(t, 1-0.15*0.5, env.svc.Reliability(stats, now), 1e-9)
	stats.GreaseUntil = 0

	stats.SandUntil = now + 3600
	assert.InDelta(t, 0.425, env.svc.Reliability(stats, now), 1e-9)
	stats.SandUntil = 0

	stats.BrushUntil = now + 3600
	assert.InDelta(t, 0.85+0.15*0.10, env.svc.Reliability(stats, now), 1e-9)
}
