package valuegeneration

import (
	"math/big"
	"math/rand"

	"github.com/crytic/medusa-geth/common"
)

// ShrinkingValueMutator is a ValueMutator which moves values toward simpler ones: integers toward zero, byte
// sequences and strings toward shorter or zeroed ones. Addresses and fixed bytes are left unchanged.
type ShrinkingValueMutator struct {
	// config describes the configuration defining value mutation parameters.
	config *ShrinkingValueMutatorConfig

	// randomProvider offers a source of random data.
	randomProvider *rand.Rand
}

// ShrinkingValueMutatorConfig defines the operating parameters for a ShrinkingValueMutator.
type ShrinkingValueMutatorConfig struct {
	// ShrinkValueProbability is the probability that any shrinkable value will be shrunk when a mutation method is
	// invoked.
	ShrinkValueProbability float64
}

// NewShrinkingValueMutator creates a new ShrinkingValueMutator.
func NewShrinkingValueMutator(config *ShrinkingValueMutatorConfig, randomProvider *rand.Rand) *ShrinkingValueMutator {
	return &ShrinkingValueMutator{
		config:         config,
		randomProvider: randomProvider,
	}
}

// shrink reports whether the next value should be shrunk.
func (g *ShrinkingValueMutator) shrink() bool {
	return g.randomProvider.Float64() < g.config.ShrinkValueProbability
}

// MutateAddress returns addr unchanged.
func (g *ShrinkingValueMutator) MutateAddress(addr common.Address) common.Address {
	return addr
}

// MutateBool shrinks a bool toward false.
func (g *ShrinkingValueMutator) MutateBool(bl bool) bool {
	if g.shrink() {
		return false
	}
	return bl
}

// MutateFixedBytes returns b unchanged.
func (g *ShrinkingValueMutator) MutateFixedBytes(b []byte) []byte {
	return b
}

// bytesShrinkingMethods define methods which take an initial bytes and return a simpler version of it.
var bytesShrinkingMethods = []func(*ShrinkingValueMutator, []byte) []byte{
	// Replace a random index with a zero byte
	func(g *ShrinkingValueMutator, b []byte) []byte {
		if len(b) > 0 {
			b[g.randomProvider.Intn(len(b))] = 0
		}
		return b
	},
	// Remove a random byte
	func(g *ShrinkingValueMutator, b []byte) []byte {
		if len(b) == 0 {
			return b
		}
		i := g.randomProvider.Intn(len(b))
		return append(b[:i], b[i+1:]...)
	},
}

// MutateBytes takes a dynamic-sized byte array input and optionally shrinks it in place.
func (g *ShrinkingValueMutator) MutateBytes(b []byte) []byte {
	if g.shrink() {
		return bytesShrinkingMethods[g.randomProvider.Intn(len(bytesShrinkingMethods))](g, b)
	}
	return b
}

// MutateInteger takes an integer input and optionally moves it toward zero.
// Returns a new integer; the input is not modified.
func (g *ShrinkingValueMutator) MutateInteger(i *big.Int, signed bool, bitLength int) *big.Int {
	if i.Sign() == 0 || !g.shrink() {
		return new(big.Int).Set(i)
	}

	// For unsigned integers or positive signed integers, generate a new integer between [0, i)
	if i.Sign() > 0 {
		return new(big.Int).Rand(g.randomProvider, i)
	}

	// For negative numbers, generate between (i, 0]
	offset := new(big.Int).Rand(g.randomProvider, new(big.Int).Abs(i))
	offset.Add(offset, big.NewInt(1))
	return offset.Add(offset, i)
}

// stringShrinkingMethods define methods which take an initial string and return a simpler version of it.
var stringShrinkingMethods = []func(*ShrinkingValueMutator, string) string{
	// Replace a random character with a NULL char
	func(g *ShrinkingValueMutator, s string) string {
		r := []rune(s)
		if len(r) == 0 {
			return s
		}
		r[g.randomProvider.Intn(len(r))] = 0
		return string(r)
	},
	// Remove a random character
	func(g *ShrinkingValueMutator, s string) string {
		r := []rune(s)
		if len(r) == 0 {
			return s
		}
		i := g.randomProvider.Intn(len(r))
		return string(append(r[:i], r[i+1:]...))
	},
}

// MutateString takes a string input and optionally shrinks it.
func (g *ShrinkingValueMutator) MutateString(s string) string {
	if g.shrink() {
		return stringShrinkingMethods[g.randomProvider.Intn(len(stringShrinkingMethods))](g, s)
	}
	return s
}
