package domain

import "time"

// RecordVersion is the current persisted shape of PlayerRecord.
// Version 0 documents carry flat global stats that must be migrated into the
// default channel exactly once at load time.
const RecordVersion = 1

// PlayerRecord holds everything persisted for one player across channels.
type PlayerRecord struct {
	Name     string                   `json:"name"`
	Version  int                      `json:"version"`
	Channels map[string]*ChannelStats `json:"channels"`
}

// ChannelStats is the per-player, per-channel hunting record.
// Timed effects are unix-second expirations; zero means never granted.
type ChannelStats struct {
	XP int `json:"xp"`

	DucksShot       int `json:"ducks_shot"`
	GoldenDucks     int `json:"golden_ducks"`
	Misses          int `json:"misses"`
	Accidents       int `json:"accidents"`
	WildFires       int `json:"wild_fires"`
	ShotsFired      int `json:"shots_fired"`
	BefriendedDucks int `json:"befriended_ducks"`

	BestTime          float64 `json:"best_time"` // seconds; 0 = no kill yet
	TotalReactionTime float64 `json:"total_reaction_time"`

	Ammo         int `json:"ammo"`
	Magazines    int `json:"magazines"`
	ClipSize     int `json:"magazine_capacity"` // derived, see ApplyLevelBonuses
	MagazinesMax int `json:"magazines_max"`     // derived

	Jammed      bool `json:"jammed"`
	Confiscated bool `json:"confiscated"`
	Sabotaged   bool `json:"sabotaged"`

	GreaseUntil             int64 `json:"grease_until"`
	SilencerUntil           int64 `json:"silencer_until"`
	SunglassesUntil         int64 `json:"sunglasses_until"`
	MirrorUntil             int64 `json:"mirror_until"`
	SandUntil               int64 `json:"sand_until"`
	SoakedUntil             int64 `json:"soaked_until"`
	LifeInsuranceUntil      int64 `json:"life_insurance_until"`
	LiabilityInsuranceUntil int64 `json:"liability_insurance_until"`
	BrushUntil              int64 `json:"brush_until"`
	DucksDetectorUntil      int64 `json:"ducks_detector_until"`
	CloverUntil             int64 `json:"clover_until"`
	CloverBonus             int   `json:"clover_bonus"`
	InfraredUntil           int64 `json:"infrared_until"`
	InfraredUses            int   `json:"infrared_uses"`

	APShots        int  `json:"ap_shots"`
	ExplosiveShots int  `json:"explosive_shots"`
	BreadUses      int  `json:"bread_uses"`
	SightNextShot  bool `json:"sight_next_shot"`

	MagUpgradeLevel  int `json:"mag_upgrade_level"`
	MagCapacityLevel int `json:"mag_capacity_level"`

	// Penalty magnitudes for the current level, stored negative.
	MissPenalty     int `json:"miss_penalty"`
	WildPenalty     int `json:"wild_penalty"`
	AccidentPenalty int `json:"accident_penalty"`
}

// Active reports whether a unix-second expiration is still in the future.
func Active(until, now int64) bool {
	return until > now
}

// ExtendUntil refreshes a timed effect: max(current, now+duration).
func ExtendUntil(current, now int64, d time.Duration) int64 {
	candidate := now + int64(d.Seconds())
	if candidate > current {
		return candidate
	}
	return current
}

// AddXP applies a delta and clamps the floor at zero.
func (s *ChannelStats) AddXP(delta int) {
	s.XP += delta
	if s.XP < 0 {
		s.XP = 0
	}
}
