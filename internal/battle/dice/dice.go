// Package dice implements the roll mechanics for challenge resolution.
//
// The outcome is intentionally stochastic rather than purely level-ordered so
// a weaker attacker keeps genuine upset potential. The attacker's random
// window is twice the defender's, a tuning constant that favors turnover
// over indefinite defense; both bounds are configuration.
package dice

import (
	"errors"
	"math/rand"
	"sync"
)

// Bounds are the inclusive upper limits of the random roll windows.
type Bounds struct {
	AttackerMax int
	DefenderMax int
}

// DefaultBounds are the tuned production values.
var DefaultBounds = Bounds{AttackerMax: 10, DefenderMax: 5}

// ErrInvalidBounds indicates a roll window upper limit below zero.
var ErrInvalidBounds = errors.New("roll bounds must be non-negative")

// Rolls captures one resolved exchange.
//
//	AttackerRoll = attackerLevel + uniform[0, AttackerMax]
//	DefenseRoll  = controlStrength + uniform[0, DefenderMax]
//	Victory      = AttackerRoll > DefenseRoll
type Rolls struct {
	AttackerRoll int
	DefenseRoll  int
	Victory      bool
}

// RollFunc returns a uniform random integer in [0, max]. Production code
// passes a seeded source; tests pass fixed values.
type RollFunc func(max int) int

// Resolve computes one exchange between an attacker of the given level and a
// territory of the given control strength.
func Resolve(attackerLevel, controlStrength int, bounds Bounds, roll RollFunc) (Rolls, error) {
	if bounds.AttackerMax < 0 || bounds.DefenderMax < 0 {
		return Rolls{}, ErrInvalidBounds
	}
	attackerRoll := attackerLevel + roll(bounds.AttackerMax)
	defenseRoll := controlStrength + roll(bounds.DefenderMax)
	return Rolls{
		AttackerRoll: attackerRoll,
		DefenseRoll:  defenseRoll,
		Victory:      attackerRoll > defenseRoll,
	}, nil
}

// Roller is a concurrency-safe RollFunc source over math/rand.
type Roller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRoller seeds a roller. Use NewSeed for production seeds; tests pass
// fixed seeds for reproducible sequences.
func NewRoller(seed int64) *Roller {
	return &Roller{rng: rand.New(rand.NewSource(seed))}
}

// Roll returns a uniform random integer in [0, max].
func (r *Roller) Roll(max int) int {
	if max <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(max + 1)
}
