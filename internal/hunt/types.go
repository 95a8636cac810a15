package hunt

import (
	"github.com/mallardworks/duckhunt/internal/domain"
	"github.com/mallardworks/duckhunt/internal/loot"
)

// Kind classifies the outcome of a shoot/befriend/reload action.
type Kind int

const (
	// Blocked outcomes: state reported, nothing else changed.
	KindConfiscated Kind = iota
	KindJammedGun
	KindNoAmmo
	KindSoaked

	// Shoot outcomes.
	KindTriggerLocked // infrared detector held the trigger, one use consumed
	KindWildFire      // fired with no duck present
	KindJam           // reliability roll failed, gun now jammed
	KindMiss
	KindReveal   // first successful hit/befriend on a golden duck
	KindHit      // damaged a revealed golden duck, still alive
	KindKill
	KindDuckGone // the duck flew away while the action resolved

	// Befriend outcomes.
	KindBefNoDuck
	KindBefFail
	KindBefriended

	// Reload outcomes.
	KindUnjammed
	KindUnsabotaged
	KindReloaded
	KindMagazinesEmpty
	KindNoReloadNeeded
)

// Result is the structured outcome of one action; the dispatcher renders it.
type Result struct {
	Kind Kind

	Duck         *domain.Duck
	ReactionTime float64 // seconds, kill path only
	BestTime     bool    // this kill set a new channel best

	XPGained int // kill reward, zero otherwise
	Penalty  int // negative XP applied to the actor, zero otherwise

	// Accident fallout (wild fire or ricochet).
	Victim      string
	MirrorGlare bool // extra -1 tax: victim mirrored, shooter unshaded

	Confiscated bool // this action cost the actor their weapon
	Loot        *loot.Result
}
