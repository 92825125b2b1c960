// Package dice produces the pair-of-dice values that drive a turn.
//
// A Source yields one Roll per call. Turn logic consumes exactly one value
// per roll action, so a fixture built with Sequence fully determines a game.
package dice

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"
)

const Sides = 6

type Roll struct {
	Die1 int `json:"die1"`
	Die2 int `json:"die2"`
}

func (r Roll) Sum() int {
	return r.Die1 + r.Die2
}

func (r Roll) IsDouble() bool {
	return r.Die1 == r.Die2
}

func (r Roll) Valid() bool {
	return r.Die1 >= 1 && r.Die1 <= Sides && r.Die2 >= 1 && r.Die2 <= Sides
}

// Source is anything that can hand out the next roll.
type Source interface {
	Next() Roll
}

// SourceFunc adapts a generator closure to Source.
type SourceFunc func() Roll

func (f SourceFunc) Next() Roll {
	return f()
}

// NewRandom returns an infinite source backed by a seeded PRNG. The same
// seed always yields the same sequence.
func NewRandom(seed int64) SourceFunc {
	var mu sync.Mutex
	rng := rand.New(rand.NewSource(seed))
	return func() Roll {
		mu.Lock()
		defer mu.Unlock()
		return Roll{Die1: rng.Intn(Sides) + 1, Die2: rng.Intn(Sides) + 1}
	}
}

// Sequence returns a source that replays rolls in order and wraps around
// when it reaches the end. It panics if rolls is empty.
func Sequence(rolls ...Roll) SourceFunc {
	if len(rolls) == 0 {
		panic("dice: empty sequence")
	}
	fixture := append([]Roll(nil), rolls...)
	var mu sync.Mutex
	next := 0
	return func() Roll {
		mu.Lock()
		defer mu.Unlock()
		r := fixture[next]
		next = (next + 1) % len(fixture)
		return r
	}
}

// NewSeed reads a seed from crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}
