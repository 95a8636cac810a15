package utils

import (
	"math/rand"
	"sync"
)

// Rand is the randomness source consumed by game services.
// Satisfied by *math/rand.Rand; tests substitute a scripted source.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// LockedRand is a mutex-guarded math/rand source. Game services and the duck
// scheduler share one instance across goroutines.
type LockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewLockedRand seeds a shareable randomness source.
func NewLockedRand(seed int64) *LockedRand {
	return &LockedRand{r: rand.New(rand.NewSource(seed))} //nolint:gosec // Game logic randomness, not security critical
}

// Float64 returns a random float64 in [0.0, 1.0).
func (l *LockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// Intn returns a random int in [0, n).
func (l *LockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

// IntBetween returns a random integer in [min, max] drawn from r.
func IntBetween(r Rand, min, max int) int {
	if min > max {
		return min
	}
	return r.Intn(max-min+1) + min
}
