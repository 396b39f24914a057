package nowcast

import (
	"math/rand"
	"sync"
)

// Jitter supplies the multiplicative noise factor applied to each tick
// advance. It is cosmetic only: it never changes the underlying rates, and
// tests plug in Fixed(1) to remove it entirely.
type Jitter interface {
	Factor() float64
}

type uniformJitter struct {
	mu     sync.Mutex
	rnd    *rand.Rand
	spread float64
}

// NewUniformJitter draws factors uniformly from [1-spread, 1+spread].
func NewUniformJitter(spread float64, seed int64) Jitter {
	if spread <= 0 {
		return Fixed(1)
	}
	return &uniformJitter{
		rnd:    rand.New(rand.NewSource(seed)),
		spread: spread,
	}
}

func (j *uniformJitter) Factor() float64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return 1 - j.spread + 2*j.spread*j.rnd.Float64()
}

// Fixed always returns the same factor. Fixed(1) disables jitter.
type Fixed float64

func (f Fixed) Factor() float64 { return float64(f) }
