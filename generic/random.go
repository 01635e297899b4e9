package generic

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	mrand "math/rand"
)

// RandomSource yields uniform values in [0, 1).
// *math/rand.Rand satisfies it; tests pass a seeded one.
type RandomSource interface {
	Float64() float64
}

// NewSeed returns a cryptographically random seed for math/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("generate seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// NewRandom returns a source seeded with seed, or with a fresh random
// seed when seed is 0.
func NewRandom(seed int64) (*mrand.Rand, error) {
	if seed == 0 {
		s, err := NewSeed()
		if err != nil {
			return nil, err
		}
		seed = s
	}
	return mrand.New(mrand.NewSource(seed)), nil
}

var _ RandomSource = (*mrand.Rand)(nil)
