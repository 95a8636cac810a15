package shop

// Shop item IDs. Gaps are intentional where the original catalog retired
// entries; ids are part of the player-facing command surface.
const (
	ItemExtraBullet        = 1
	ItemExtraMagazine      = 2
	ItemAPAmmo             = 3
	ItemExplosiveAmmo      = 4
	ItemRepurchaseGun      = 5
	ItemGrease             = 6
	ItemSight              = 7
	ItemInfraredDetector   = 8
	ItemSilencer           = 9
	ItemClover             = 10
	ItemSunglasses         = 11
	ItemSpareClothes       = 12
	ItemBrush              = 13
	ItemMirror             = 14
	ItemSand               = 15
	ItemWaterBucket        = 16
	ItemSabotage           = 17
	ItemLifeInsurance      = 18
	ItemLiabilityInsurance = 19
	ItemBread              = 20
	ItemDucksDetector      = 21
	ItemUpgradeMagazine    = 22
	ItemExtraMagCapacity   = 23
)

// Item describes one shop entry. Price 0 marks dynamic pricing (upgrades).
type Item struct {
	ID          int
	Name        string
	Price       int
	NeedsTarget bool
}

var catalog = []Item{
	{ItemExtraBullet, "Extra bullet", 7, false},
	{ItemExtraMagazine, "Extra magazine", 20, false},
	{ItemAPAmmo, "AP ammo", 15, false},
	{ItemExplosiveAmmo, "Explosive ammo", 25, false},
	{ItemRepurchaseGun, "Repurchase confiscated gun", 40, false},
	{ItemGrease, "Grease", 8, false},
	{ItemSight, "Sight", 6, false},
	{ItemInfraredDetector, "Infrared detector", 15, false},
	{ItemSilencer, "Silencer", 5, false},
	{ItemClover, "Four-leaf clover", 13, false},
	{ItemSunglasses, "Sunglasses", 5, false},
	{ItemSpareClothes, "Spare clothes", 7, false},
	{ItemBrush, "Brush for gun", 7, false},
	{ItemMirror, "Mirror", 7, true},
	{ItemSand, "Handful of sand", 7, true},
	{ItemWaterBucket, "Water bucket", 10, true},
	{ItemSabotage, "Sabotage", 14, true},
	{ItemLifeInsurance, "Life insurance", 10, false},
	{ItemLiabilityInsurance, "Liability insurance", 5, false},
	{ItemBread, "Piece of bread", 50, false},
	{ItemDucksDetector, "Ducks detector", 50, false},
	{ItemUpgradeMagazine, "Upgrade magazine", 0, false},
	{ItemExtraMagCapacity, "Extra magazine capacity", 0, false},
}

var catalogByID = func() map[int]Item {
	m := make(map[int]Item, len(catalog))
	for _, it := range catalog {
		m[it.ID] = it
	}
	return m
}()

// Catalog returns the shop entries in display order.
func Catalog() []Item {
	return catalog
}

// ItemByID looks up a shop entry.
func ItemByID(id int) (Item, bool) {
	it, ok := catalogByID[id]
	return it, ok
}

// UpgradePrice is the dynamic cost of the permanent upgrade items:
// min(1000, 200*(current_level+1)).
func UpgradePrice(currentLevel int) int {
	price := 200 * (currentLevel + 1)
	if price > 1000 {
		price = 1000
	}
	return price
}
