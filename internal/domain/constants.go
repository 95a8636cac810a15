package domain

import "time"

// Duck variants
const (
	RegularDuckHealth = 1
	GoldenDuckHealth  = 5
	GoldenDuckXP      = 50
)

// Progression caps
const (
	MaxLevel        = 50
	MaxUpgradeLevel = 5
)

// Timed effect durations
const (
	BuffDuration   = 24 * time.Hour
	SoakedDuration = 1 * time.Hour
)

// Consumable charge grants
const (
	APShotCharges        = 20
	ExplosiveShotCharges = 20
	BreadUseCharges      = 20
	InfraredUseCharges   = 6
)

// Loot trigger probability after a kill
const LootChance = 0.10
