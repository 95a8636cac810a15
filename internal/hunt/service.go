package hunt

import (
	"time"

	"github.com/mallardworks/duckhunt/internal/domain"
	"github.com/mallardworks/duckhunt/internal/duck"
	"github.com/mallardworks/duckhunt/internal/loot"
	"github.com/mallardworks/duckhunt/internal/player"
	"github.com/mallardworks/duckhunt/internal/progression"
	"github.com/mallardworks/duckhunt/internal/utils"
)

// Accuracy/reliability modifiers. Magnitudes follow the original balance.
const (
	explosiveAccuracyShare = 0.25 // explosive ammo closes 25% of the gap to 1.0
	breadAccuracyBonus     = 0.10
	mirrorAccuracyFactor   = 0.75
	accuracyFloor          = 0.10
	accuracyCeil           = 0.99
	brushReliabilityShare  = 0.10

	wildFireExtraPenalty  = 2 // flat addition on top of the 1..5 roll
	wildAccidentChance    = 0.50
	ricochetChance        = 0.20
	mirrorGlareTax        = 1
)

// Mode selects the accuracy computation variant.
type Mode int

const (
	ModeShoot Mode = iota
	ModeBefriend
)

// Service resolves shoot, befriend, and reload actions. The dispatcher holds
// the per-channel lock around every call.
type Service struct {
	store     *player.Store
	ducks     *duck.Manager
	loot      *loot.Service
	rng       utils.Rand
	defaultXP int
	botNick   string
	clock     func() time.Time
}

// NewService wires the resolver.
func NewService(store *player.Store, ducks *duck.Manager, lootSvc *loot.Service, rng utils.Rand, defaultXP int, botNick string) *Service {
	return &Service{
		store:     store,
		ducks:     ducks,
		loot:      lootSvc,
		rng:       rng,
		defaultXP: defaultXP,
		botNick:   botNick,
		clock:     time.Now,
	}
}

// WithClock substitutes the time source. Test hook.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// Accuracy computes the hit probability for the mode, applying ammo, sight,
// bread, and mirror modifiers. Consumes the one-shot sight flag in shoot
// mode. Clamped to [0.10, 0.99].
func (s *Service) Accuracy(stats *domain.ChannelStats, mode Mode, now int64) float64 {
	base := float64(progression.PropertiesFor(stats.XP).AccuracyPct) / 100

	if mode == ModeShoot && stats.ExplosiveShots > 0 {
		base += (1 - base) * explosiveAccuracyShare
	}
	if mode == ModeShoot && stats.SightNextShot {
		base += (1 - base) / 3
		stats.SightNextShot = false
	}
	if mode == ModeBefriend && stats.BreadUses > 0 {
		base += breadAccuracyBonus
	}
	if domain.Active(stats.MirrorUntil, now) && !domain.Active(stats.SunglassesUntil, now) {
		base *= mirrorAccuracyFactor
	}

	if base < accuracyFloor {
		base = accuracyFloor
	}
	if base > accuracyCeil {
		base = accuracyCeil
	}
	return base
}

// Reliability computes the no-jam probability, applying grease, sand, and
// brush modifiers.
func (s *Service) Reliability(stats *domain.ChannelStats, now int64) float64 {
	base := float64(progression.PropertiesFor(stats.XP).ReliabilityPct) / 100

	if domain.Active(stats.GreaseUntil, now) {
		base = 1 - (1-base)*0.5
	}
	if domain.Active(stats.SandUntil, now) {
		base *= 0.5
	}
	if domain.Active(stats.BrushUntil, now) {
		base += (1 - base) * brushReliabilityShare
	}
	return base
}

// Shoot resolves a !bang from an authenticated player.
func (s *Service) Shoot(shooter, channel string) Result {
	stats := s.store.GetOrCreateChannelStats(shooter, channel)
	now := s.clock().Unix()

	switch {
	case stats.Confiscated:
		return Result{Kind: KindConfiscated}
	case stats.Jammed:
		return Result{Kind: KindJammedGun}
	case stats.Ammo == 0:
		return Result{Kind: KindNoAmmo}
	}

	target, present := s.ducks.Oldest(channel)
	if !present {
		return s.wildFire(stats, shooter, channel, now)
	}

	// Reliability precedes ammo consumption when a duck is present.
	if s.rng.Float64() > s.Reliability(stats, now) {
		stats.Jammed = true
		s.store.MarkDirty()
		return Result{Kind: KindJam}
	}

	stats.Ammo--
	stats.ShotsFired++
	s.store.MarkDirty()

	// Soaked hunters cannot shoot regardless of the roll; the round is
	// spent.
	if domain.Active(stats.SoakedUntil, now) {
		return Result{Kind: KindSoaked}
	}

	reaction := s.clock().Sub(target.SpawnTime).Seconds()

	if s.rng.Float64() > s.Accuracy(stats, ModeShoot, now) {
		return s.miss(stats, shooter, channel, now)
	}

	damage := 1
	if stats.ExplosiveShots > 0 {
		stats.ExplosiveShots--
		damage = 2
	} else if stats.APShots > 0 {
		stats.APShots--
		damage = 2
	}
	target.Health -= damage

	if target.Golden && !target.Revealed {
		// First hit on a golden duck only reveals it; the kill-processing
		// path is skipped entirely.
		target.Revealed = true
		return Result{Kind: KindReveal, Duck: target}
	}

	if target.Health > 0 {
		return Result{Kind: KindHit, Duck: target}
	}

	// The scheduler tick may have despawned the duck between the sighting
	// and this point; the loser of that race gets no kill credit.
	if !s.ducks.Remove(channel, target) {
		return Result{Kind: KindDuckGone}
	}

	res := Result{Kind: KindKill, Duck: target, ReactionTime: reaction}
	stats.DucksShot++
	if target.Golden {
		stats.GoldenDucks++
	}
	if stats.BestTime == 0 || reaction < stats.BestTime {
		stats.BestTime = reaction
		res.BestTime = true
	}
	stats.TotalReactionTime += reaction
	s.processKill(stats, channel, target, now, &res)
	return res
}

// wildFire handles a shot with no duck present.
func (s *Service) wildFire(stats *domain.ChannelStats, shooter, channel string, now int64) Result {
	if domain.Active(stats.InfraredUntil, now) && stats.InfraredUses > 0 {
		stats.InfraredUses--
		s.store.MarkDirty()
		return Result{Kind: KindTriggerLocked}
	}

	res := Result{Kind: KindWildFire}

	wild := wildFireExtraPenalty
	if domain.Active(stats.LiabilityInsuranceUntil, now) {
		wild /= 2
	}
	penalty := -(utils.IntBetween(s.rng, 1, 5) + wild)
	stats.AddXP(penalty)
	res.Penalty = penalty

	stats.Confiscated = true
	stats.WildFires++
	res.Confiscated = true

	s.rollAccident(stats, shooter, channel, wildAccidentChance, now, &res)
	if res.Victim != "" && domain.Active(stats.LifeInsuranceUntil, now) {
		stats.Confiscated = false
		res.Confiscated = false
	}

	player.ApplyLevelBonuses(stats)
	s.store.MarkDirty()
	return res
}

// miss handles a failed accuracy roll, including the ricochet accident.
func (s *Service) miss(stats *domain.ChannelStats, shooter, channel string, now int64) Result {
	res := Result{Kind: KindMiss}

	stats.Misses++
	penalty := -utils.IntBetween(s.rng, 1, 5)
	stats.AddXP(penalty)
	res.Penalty = penalty

	s.rollAccident(stats, shooter, channel, ricochetChance, now, &res)
	if res.Victim != "" {
		if domain.Active(stats.LifeInsuranceUntil, now) {
			res.Confiscated = false
		} else {
			stats.Confiscated = true
			res.Confiscated = true
		}
	}

	player.ApplyLevelBonuses(stats)
	s.store.MarkDirty()
	return res
}

// rollAccident rolls for hitting a random other channel occupant and applies
// the shooter-side fallout.
func (s *Service) rollAccident(stats *domain.ChannelStats, shooter, channel string, chance float64, now int64, res *Result) {
	if s.rng.Float64() >= chance {
		return
	}
	victim, ok := s.ducks.RandomOtherOccupant(channel, shooter, s.botNick)
	if !ok {
		return
	}

	penalty := stats.AccidentPenalty // stored negative
	if domain.Active(stats.LiabilityInsuranceUntil, now) {
		penalty = -((-penalty) / 2)
	}
	stats.AddXP(penalty)
	stats.Accidents++

	res.Victim = victim
	res.Penalty += penalty

	// Shooting a mirrored victim while unshaded costs an extra point.
	if victimStats, ok := s.store.Lookup(victim, channel); ok {
		if domain.Active(victimStats.MirrorUntil, now) && !domain.Active(stats.SunglassesUntil, now) {
			stats.AddXP(-mirrorGlareTax)
			res.Penalty -= mirrorGlareTax
			res.MirrorGlare = true
		}
	}
}

// Befriend resolves a !bef from an authenticated player.
func (s *Service) Befriend(actor, channel string) Result {
	stats := s.store.GetOrCreateChannelStats(actor, channel)
	now := s.clock().Unix()

	if domain.Active(stats.SoakedUntil, now) {
		return Result{Kind: KindSoaked}
	}

	target, present := s.ducks.Oldest(channel)
	if !present {
		penalty := -utils.IntBetween(s.rng, 1, 10)
		stats.AddXP(penalty)
		player.ApplyLevelBonuses(stats)
		s.store.MarkDirty()
		return Result{Kind: KindBefNoDuck, Penalty: penalty}
	}

	reaction := s.clock().Sub(target.SpawnTime).Seconds()

	if s.rng.Float64() > s.Accuracy(stats, ModeBefriend, now) {
		stats.Misses++
		penalty := -utils.IntBetween(s.rng, 1, 10)
		stats.AddXP(penalty)
		player.ApplyLevelBonuses(stats)
		s.store.MarkDirty()
		return Result{Kind: KindBefFail, Penalty: penalty}
	}

	damage := 1
	if target.Golden && stats.BreadUses > 0 {
		stats.BreadUses--
		damage = 2
	}
	target.Health -= damage

	if target.Golden && !target.Revealed {
		target.Revealed = true
		s.store.MarkDirty()
		return Result{Kind: KindReveal, Duck: target}
	}

	if target.Health > 0 {
		s.store.MarkDirty()
		return Result{Kind: KindHit, Duck: target}
	}

	if !s.ducks.Remove(channel, target) {
		s.store.MarkDirty()
		return Result{Kind: KindDuckGone}
	}

	res := Result{Kind: KindBefriended, Duck: target, ReactionTime: reaction}
	stats.BefriendedDucks++
	if target.Golden {
		stats.GoldenDucks++
	}
	s.processKill(stats, channel, target, now, &res)
	return res
}

// processKill forgives confiscations, awards XP, and rolls the loot table.
// The caller has already removed the duck from the channel.
func (s *Service) processKill(stats *domain.ChannelStats, channel string, target *domain.Duck, now int64, res *Result) {
	s.store.UnconfiscateAll(channel)

	xp := s.defaultXP
	if target.Golden {
		xp = domain.GoldenDuckXP
	}
	if domain.Active(stats.CloverUntil, now) {
		xp += stats.CloverBonus
	}
	stats.AddXP(xp)
	res.XPGained = xp

	if s.rng.Float64() < domain.LootChance {
		lootRes := s.loot.Grant(stats, now)
		res.Loot = &lootRes
	}

	player.ApplyLevelBonuses(stats)
	s.store.MarkDirty()
}

// Reload resolves a !reload: jam and sabotage clear first, then an empty
// clip refills from a spare magazine.
func (s *Service) Reload(actor, channel string) Result {
	stats := s.store.GetOrCreateChannelStats(actor, channel)

	switch {
	case stats.Confiscated:
		return Result{Kind: KindConfiscated}
	case stats.Jammed:
		stats.Jammed = false
		s.store.MarkDirty()
		return Result{Kind: KindUnjammed}
	case stats.Sabotaged:
		stats.Sabotaged = false
		s.store.MarkDirty()
		return Result{Kind: KindUnsabotaged}
	case stats.Ammo == 0 && stats.Magazines > 0:
		stats.Ammo = stats.ClipSize
		stats.Magazines--
		s.store.MarkDirty()
		return Result{Kind: KindReloaded}
	case stats.Ammo == 0:
		return Result{Kind: KindMagazinesEmpty}
	default:
		return Result{Kind: KindNoReloadNeeded}
	}
}
