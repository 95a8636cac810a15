package progression

import "github.com/mallardworks/duckhunt/internal/domain"

// Properties are the per-level weapon characteristics.
// Penalty magnitudes are stored negative; callers must not re-negate.
type Properties struct {
	Level           int
	AccuracyPct     int
	ReliabilityPct  int
	ClipSize        int
	MagazinesMax    int
	MissPenalty     int
	WildPenalty     int
	AccidentPenalty int
}

type tier struct {
	Threshold int
	Properties
}

// levelTable maps XP thresholds to weapon properties, ascending by threshold.
// Values match the original game balance exactly.
var levelTable = []tier{
	{-5, Properties{0, 55, 85, 6, 1, -1, -1, -4}},
	{-4, Properties{1, 55, 85, 6, 2, -1, -1, -4}},
	{20, Properties{2, 56, 86, 6, 2, -1, -1, -4}},
	{50, Properties{3, 57, 87, 6, 2, -1, -1, -4}},
	{90, Properties{4, 58, 88, 6, 2, -1, -1, -4}},
	{140, Properties{5, 59, 89, 6, 2, -1, -1, -4}},
	{200, Properties{6, 60, 90, 6, 2, -1, -1, -4}},
	{270, Properties{7, 65, 93, 4, 3, -1, -1, -4}},
	{350, Properties{8, 67, 93, 4, 3, -1, -1, -4}},
	{440, Properties{9, 69, 93, 4, 3, -1, -1, -4}},
	{540, Properties{10, 71, 94, 4, 3, -1, -2, -6}},
	{650, Properties{11, 73, 94, 4, 3, -1, -2, -6}},
	{770, Properties{12, 73, 94, 4, 3, -1, -2, -6}},
	{900, Properties{13, 74, 95, 4, 3, -1, -2, -6}},
	{1040, Properties{14, 74, 95, 4, 3, -1, -2, -6}},
	{1190, Properties{15, 75, 95, 4, 3, -1, -2, -6}},
	{1350, Properties{16, 80, 97, 2, 4, -1, -2, -6}},
	{1520, Properties{17, 81, 97, 2, 4, -1, -2, -6}},
	{1700, Properties{18, 81, 97, 2, 4, -1, -2, -6}},
	{1890, Properties{19, 82, 97, 2, 4, -1, -2, -6}},
	{2090, Properties{20, 82, 97, 2, 4, -3, -5, -10}},
	{2300, Properties{21, 83, 98, 2, 4, -3, -5, -10}},
	{2520, Properties{22, 83, 98, 2, 4, -3, -5, -10}},
	{2750, Properties{23, 84, 98, 2, 4, -3, -5, -10}},
	{2990, Properties{24, 84, 98, 2, 4, -3, -5, -10}},
	{3240, Properties{25, 85, 98, 2, 4, -3, -5, -10}},
	{3500, Properties{26, 90, 99, 1, 5, -3, -5, -10}},
	{3770, Properties{27, 91, 99, 1, 5, -3, -5, -10}},
	{4050, Properties{28, 91, 99, 1, 5, -3, -5, -10}},
	{4340, Properties{29, 92, 99, 1, 5, -3, -5, -10}},
	{4640, Properties{30, 92, 99, 1, 5, -5, -8, -20}},
	{4950, Properties{31, 93, 99, 1, 5, -5, -8, -20}},
	{5270, Properties{32, 93, 99, 1, 5, -5, -8, -20}},
	{5600, Properties{33, 94, 99, 1, 5, -5, -8, -20}},
	{5940, Properties{34, 94, 99, 1, 5, -5, -8, -20}},
	{6290, Properties{35, 95, 99, 1, 5, -5, -8, -20}},
	{6650, Properties{36, 95, 99, 1, 5, -5, -8, -20}},
	{7020, Properties{37, 96, 99, 1, 5, -5, -8, -20}},
	{7400, Properties{38, 96, 99, 1, 5, -5, -8, -20}},
	{7790, Properties{39, 97, 99, 1, 5, -5, -8, -20}},
	{8200, Properties{40, 97, 99, 1, 5, -5, -8, -20}},
}

// PropertiesFor returns the tier for the greatest threshold <= xp.
// XP below the first threshold (including negative values) falls back to the
// lowest tier.
func PropertiesFor(xp int) Properties {
	chosen := levelTable[0].Properties
	for _, t := range levelTable {
		if xp >= t.Threshold {
			chosen = t.Properties
		} else {
			break
		}
	}
	return chosen
}

// Level returns the canonical (table-driven) level for xp.
func Level(xp int) int {
	return PropertiesFor(xp).Level
}

// FormulaLevel is the legacy announcement formula min(50, xp/100+1).
// It disagrees with the table for most XP values; the table-driven level is
// canonical everywhere in this implementation. Kept for reference against
// persisted data produced by older versions.
func FormulaLevel(xp int) int {
	if xp < 0 {
		xp = 0
	}
	lvl := xp/100 + 1
	if lvl > domain.MaxLevel {
		return domain.MaxLevel
	}
	return lvl
}
