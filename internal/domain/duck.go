package domain

import "time"

// Duck is one member of a channel's FIFO population.
// Golden ducks conceal their nature until the first successful hit or
// befriend attempt reveals them.
type Duck struct {
	Golden    bool
	Health    int
	SpawnTime time.Time
	Revealed  bool
}

// NewDuck creates a duck with health by variant.
func NewDuck(golden bool, spawnTime time.Time) *Duck {
	health := RegularDuckHealth
	if golden {
		health = GoldenDuckHealth
	}
	return &Duck{
		Golden:    golden,
		Health:    health,
		SpawnTime: spawnTime,
	}
}
