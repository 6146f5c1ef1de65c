package randomutils

import (
	"encoding/binary"
	"math/rand"
)

// ForkRandomProvider returns a child of parent for one invariant campaign. The child is seeded with the next 8 bytes
// of parent read as a little-endian integer, so forking campaigns in a fixed order from the seeded fuzzer provider
// makes every campaign reproducible on its own.
func ForkRandomProvider(parent *rand.Rand) *rand.Rand {
	var seed [8]byte
	// Read on a *rand.Rand always fills the buffer and returns a nil error
	_, _ = parent.Read(seed[:])
	return rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(seed[:]))))
}
