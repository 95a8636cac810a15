package loot

import (
	"github.com/mallardworks/duckhunt/internal/domain"
	"github.com/mallardworks/duckhunt/internal/shop"
	"github.com/mallardworks/duckhunt/internal/utils"
)

// Outcome is one entry of the post-kill loot table. ItemID 0 is junk.
type Outcome struct {
	Key    string
	Weight int
	ItemID int
	Flavor string
}

// table is the post-kill loot distribution. A kill triggers one cumulative
// draw over the summed weights; weights are relative frequencies.
var table = []Outcome{
	{"junk", 15, 0, ""},
	{"bread", 10, shop.ItemBread, "a piece of bread"},
	{"grease", 10, shop.ItemGrease, "a can of grease"},
	{"sight", 8, shop.ItemSight, "a rifle sight"},
	{"clover", 8, shop.ItemClover, "a four-leaf clover"},
	{"sunglasses", 7, shop.ItemSunglasses, "a pair of sunglasses"},
	{"silencer", 7, shop.ItemSilencer, "a silencer"},
	{"ap_ammo", 7, shop.ItemAPAmmo, "a box of AP ammo"},
	{"brush", 6, shop.ItemBrush, "a gun brush"},
	{"explosive_ammo", 5, shop.ItemExplosiveAmmo, "a box of explosive ammo"},
	{"ducks_detector", 5, shop.ItemDucksDetector, "a ducks detector"},
	{"infrared", 5, shop.ItemInfraredDetector, "an infrared detector"},
	{"life_insurance", 4, shop.ItemLifeInsurance, "a life insurance policy"},
	{"liability_insurance", 3, shop.ItemLiabilityInsurance, "a liability insurance policy"},
}

var junkFlavors = []string{
	"an old boot",
	"a rusty tin can",
	"a soggy newspaper",
	"a duck decoy with a hole in it",
	"a handful of wet feathers",
}

var totalWeight = func() int {
	total := 0
	for _, o := range table {
		total += o.Weight
	}
	return total
}()

// Result reports one loot grant.
type Result struct {
	Outcome  Outcome
	Refunded bool // effect already active; shop price refunded as XP
	RefundXP int
	Flavor   string
}

// Service resolves the post-kill loot drop.
type Service struct {
	rng utils.Rand
}

// NewService creates a loot service drawing from rng.
func NewService(rng utils.Rand) *Service {
	return &Service{rng: rng}
}

// Table exposes the distribution for display and tests.
func Table() ([]Outcome, int) {
	return table, totalWeight
}

// Draw picks one outcome with a single cumulative-weight roll.
func (s *Service) Draw() Outcome {
	roll := s.rng.Intn(totalWeight)
	acc := 0
	for _, o := range table {
		acc += o.Weight
		if roll < acc {
			return o
		}
	}
	return table[len(table)-1] // unreachable
}

// Grant draws an outcome and applies it to stats. Buffs already active and
// consumables still charged fall back to refunding the item's shop price.
func (s *Service) Grant(stats *domain.ChannelStats, now int64) Result {
	outcome := s.Draw()

	if outcome.ItemID == 0 {
		return Result{
			Outcome: outcome,
			Flavor:  junkFlavors[s.rng.Intn(len(junkFlavors))],
		}
	}

	if s.apply(stats, outcome.ItemID, now) {
		return Result{Outcome: outcome, Flavor: outcome.Flavor}
	}

	item, _ := shop.ItemByID(outcome.ItemID)
	stats.AddXP(item.Price)
	return Result{
		Outcome:  outcome,
		Refunded: true,
		RefundXP: item.Price,
		Flavor:   outcome.Flavor,
	}
}

// apply grants the effect when it is not already in force.
func (s *Service) apply(stats *domain.ChannelStats, itemID int, now int64) bool {
	grantBuff := func(until *int64) bool {
		if domain.Active(*until, now) {
			return false
		}
		*until = now + int64(domain.BuffDuration.Seconds())
		return true
	}

	switch itemID {
	case shop.ItemBread:
		if stats.BreadUses > 0 {
			return false
		}
		stats.BreadUses = domain.BreadUseCharges
	case shop.ItemGrease:
		return grantBuff(&stats.GreaseUntil)
	case shop.ItemSight:
		if stats.SightNextShot {
			return false
		}
		stats.SightNextShot = true
	case shop.ItemClover:
		if !grantBuff(&stats.CloverUntil) {
			return false
		}
		stats.CloverBonus = utils.IntBetween(s.rng, 1, 10)
	case shop.ItemSunglasses:
		return grantBuff(&stats.SunglassesUntil)
	case shop.ItemSilencer:
		return grantBuff(&stats.SilencerUntil)
	case shop.ItemAPAmmo:
		if stats.APShots > 0 {
			return false
		}
		stats.APShots = domain.APShotCharges
	case shop.ItemBrush:
		return grantBuff(&stats.BrushUntil)
	case shop.ItemExplosiveAmmo:
		if stats.ExplosiveShots > 0 {
			return false
		}
		stats.ExplosiveShots = domain.ExplosiveShotCharges
	case shop.ItemDucksDetector:
		return grantBuff(&stats.DucksDetectorUntil)
	case shop.ItemInfraredDetector:
		if domain.Active(stats.InfraredUntil, now) && stats.InfraredUses > 0 {
			return false
		}
		stats.InfraredUntil = now + int64(domain.BuffDuration.Seconds())
		stats.InfraredUses = domain.InfraredUseCharges
	case shop.ItemLifeInsurance:
		return grantBuff(&stats.LifeInsuranceUntil)
	case shop.ItemLiabilityInsurance:
		return grantBuff(&stats.LiabilityInsuranceUntil)
	default:
		return false
	}
	return true
}
