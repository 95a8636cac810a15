package shop

import (
	"fmt"

	"github.com/mallardworks/duckhunt/internal/domain"
	"github.com/mallardworks/duckhunt/internal/player"
	"github.com/mallardworks/duckhunt/internal/utils"
)

// Result reports the outcome of a purchase.
type Result struct {
	Item     Item
	Price    int
	Refunded bool   // effect was redundant; cost returned
	Message  string // player-facing flavor, formatted by the dispatcher
}

// Service resolves shop purchases against a player's channel record.
type Service struct {
	rng utils.Rand
}

// NewService creates a shop service drawing from rng.
func NewService(rng utils.Rand) *Service {
	return &Service{rng: rng}
}

// Price returns the current cost of an item for the buyer.
func (s *Service) Price(item Item, stats *domain.ChannelStats) int {
	switch item.ID {
	case ItemUpgradeMagazine:
		return UpgradePrice(stats.MagUpgradeLevel)
	case ItemExtraMagCapacity:
		return UpgradePrice(stats.MagCapacityLevel)
	default:
		return item.Price
	}
}

// Buy validates and executes a purchase. The cost is deducted up front; if
// the effect turns out to be redundant (already active, already full) the
// cost is refunded and Result.Refunded is set. target is required for the
// targeted debuff items and ignored otherwise.
//
// The caller holds the channel lock and is responsible for persistence and
// promotion/demotion announcements afterwards.
func (s *Service) Buy(stats *domain.ChannelStats, target *domain.ChannelStats, itemID int, now int64) (Result, error) {
	item, ok := ItemByID(itemID)
	if !ok {
		return Result{}, fmt.Errorf("%w: %d", domain.ErrUnknownItem, itemID)
	}
	if item.NeedsTarget && target == nil {
		return Result{}, fmt.Errorf("%w: %s", domain.ErrTargetRequired, item.Name)
	}

	// Upgrades at the cap abort before any deduction.
	if itemID == ItemUpgradeMagazine && stats.MagUpgradeLevel >= domain.MaxUpgradeLevel {
		return Result{Item: item, Refunded: true, Message: "your magazine is already fully upgraded"}, nil
	}
	if itemID == ItemExtraMagCapacity && stats.MagCapacityLevel >= domain.MaxUpgradeLevel {
		return Result{Item: item, Refunded: true, Message: "you already carry the maximum number of magazines"}, nil
	}

	price := s.Price(item, stats)
	if stats.XP < price {
		return Result{}, fmt.Errorf("%w: %s costs %d xp, you have %d", domain.ErrInsufficientXP, item.Name, price, stats.XP)
	}

	stats.AddXP(-price)
	applied, msg := s.apply(stats, target, item, now)
	if !applied {
		stats.AddXP(price)
	}
	player.ApplyLevelBonuses(stats)
	if target != nil {
		player.ApplyLevelBonuses(target)
	}

	return Result{Item: item, Price: price, Refunded: !applied, Message: msg}, nil
}

// apply mutates stats (or target) for the item and reports whether the
// purchase had any effect.
func (s *Service) apply(stats, target *domain.ChannelStats, item Item, now int64) (bool, string) {
	switch item.ID {
	case ItemExtraBullet:
		if stats.Ammo >= stats.ClipSize {
			return false, "your clip is already full"
		}
		stats.Ammo++
		return true, "you slip an extra bullet into your clip"

	case ItemExtraMagazine:
		if stats.Magazines >= stats.MagazinesMax {
			return false, "you cannot carry more magazines"
		}
		stats.Magazines++
		return true, "you pocket an extra magazine"

	case ItemAPAmmo:
		if stats.APShots > 0 {
			return false, "your AP ammo is not used up yet"
		}
		stats.APShots = domain.APShotCharges
		return true, fmt.Sprintf("you load armor-piercing rounds (%d shots)", domain.APShotCharges)

	case ItemExplosiveAmmo:
		if stats.ExplosiveShots > 0 {
			return false, "your explosive ammo is not used up yet"
		}
		stats.ExplosiveShots = domain.ExplosiveShotCharges
		return true, fmt.Sprintf("you load explosive rounds (%d shots)", domain.ExplosiveShotCharges)

	case ItemRepurchaseGun:
		if !stats.Confiscated {
			return false, "your weapon was not confiscated"
		}
		stats.Confiscated = false
		return true, "you buy your gun back from the authorities"

	case ItemGrease:
		stats.GreaseUntil = domain.ExtendUntil(stats.GreaseUntil, now, domain.BuffDuration)
		return true, "you grease your gun; it will jam less for 24h"

	case ItemSight:
		if stats.SightNextShot {
			return false, "a sight is already mounted"
		}
		stats.SightNextShot = true
		return true, "you mount a sight for your next shot"

	case ItemInfraredDetector:
		if domain.Active(stats.InfraredUntil, now) && stats.InfraredUses > 0 {
			return false, "your infrared detector is still working"
		}
		stats.InfraredUntil = now + int64(domain.BuffDuration.Seconds())
		stats.InfraredUses = domain.InfraredUseCharges
		return true, "infrared detector armed; your trigger locks when no duck is around"

	case ItemSilencer:
		stats.SilencerUntil = domain.ExtendUntil(stats.SilencerUntil, now, domain.BuffDuration)
		return true, "you screw on a silencer; ducks will not be frightened for 24h"

	case ItemClover:
		stats.CloverUntil = domain.ExtendUntil(stats.CloverUntil, now, domain.BuffDuration)
		stats.CloverBonus = utils.IntBetween(s.rng, 1, 10)
		return true, fmt.Sprintf("you found a four-leaf clover; +%d xp per duck for 24h", stats.CloverBonus)

	case ItemSunglasses:
		stats.SunglassesUntil = domain.ExtendUntil(stats.SunglassesUntil, now, domain.BuffDuration)
		return true, "you put on sunglasses; mirror glare cannot dazzle you for 24h"

	case ItemSpareClothes:
		if !domain.Active(stats.SoakedUntil, now) {
			return false, "your clothes are perfectly dry"
		}
		stats.SoakedUntil = 0
		return true, "you change into dry clothes"

	case ItemBrush:
		stats.BrushUntil = domain.ExtendUntil(stats.BrushUntil, now, domain.BuffDuration)
		return true, "you brush out the barrel; reliability improved for 24h"

	case ItemMirror:
		target.MirrorUntil = domain.ExtendUntil(target.MirrorUntil, now, domain.BuffDuration)
		return true, "you dazzle your victim with a mirror; their accuracy suffers for 24h"

	case ItemSand:
		target.SandUntil = domain.ExtendUntil(target.SandUntil, now, domain.BuffDuration)
		return true, "you pour sand into their barrel; their gun will jam more for 24h"

	case ItemWaterBucket:
		target.SoakedUntil = domain.ExtendUntil(target.SoakedUntil, now, domain.SoakedDuration)
		return true, "you soak your victim; they cannot hunt for 1h"

	case ItemSabotage:
		if target.Sabotaged {
			return false, "their gun is already sabotaged"
		}
		target.Sabotaged = true
		return true, "you discreetly sabotage their gun"

	case ItemLifeInsurance:
		stats.LifeInsuranceUntil = domain.ExtendUntil(stats.LifeInsuranceUntil, now, domain.BuffDuration)
		return true, "life insurance signed; accidents will not cost you your gun for 24h"

	case ItemLiabilityInsurance:
		stats.LiabilityInsuranceUntil = domain.ExtendUntil(stats.LiabilityInsuranceUntil, now, domain.BuffDuration)
		return true, "liability insurance signed; penalties halved for 24h"

	case ItemBread:
		if stats.BreadUses > 0 {
			return false, "you still have bread left"
		}
		stats.BreadUses = domain.BreadUseCharges
		return true, fmt.Sprintf("you buy a piece of bread (%d uses)", domain.BreadUseCharges)

	case ItemDucksDetector:
		stats.DucksDetectorUntil = domain.ExtendUntil(stats.DucksDetectorUntil, now, domain.BuffDuration)
		return true, "ducks detector armed; you will be warned before the next duck for 24h"

	case ItemUpgradeMagazine:
		stats.MagUpgradeLevel++
		return true, fmt.Sprintf("magazine upgraded to level %d", stats.MagUpgradeLevel)

	case ItemExtraMagCapacity:
		stats.MagCapacityLevel++
		return true, fmt.Sprintf("magazine pouch upgraded to level %d", stats.MagCapacityLevel)
	}

	return false, "nothing happened"
}
