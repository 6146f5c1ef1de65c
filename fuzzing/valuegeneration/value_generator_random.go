package valuegeneration

import (
	"math/big"
	"math/rand"

	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/tenet/utils"
)

// RandomValueGeneratorConfig defines the operating parameters for a RandomValueGenerator.
type RandomValueGeneratorConfig struct {
	// MutationProbability is the probability that a generated integer, address or fixed bytes value is replaced by a
	// boundary-biased mutation of itself.
	MutationProbability float64

	// ValueSetProbability is the probability that a base value is drawn from the ValueSet rather than generated
	// uniformly, when the set holds values of the requested kind.
	ValueSetProbability float64

	// MaxArrayLength is the maximum length of generated dynamic arrays.
	MaxArrayLength int

	// MaxBytesLength is the maximum length of generated dynamic byte arrays.
	MaxBytesLength int

	// MaxStringLength is the maximum length of generated strings.
	MaxStringLength int
}

// DefaultRandomValueGeneratorConfig returns the default generation parameters for the given mutation probability.
func DefaultRandomValueGeneratorConfig(mutationProbability float64) *RandomValueGeneratorConfig {
	return &RandomValueGeneratorConfig{
		MutationProbability: mutationProbability,
		ValueSetProbability: 0.5,
		MaxArrayLength:      8,
		MaxBytesLength:      64,
		MaxStringLength:     64,
	}
}

// RandomValueGenerator generates values from a seeded random stream. Base values are drawn from a ValueSet or
// uniformly over a random bit length, and are then occasionally replaced by a mutation-engine boundary value.
type RandomValueGenerator struct {
	// config describes the generation parameters.
	config *RandomValueGeneratorConfig

	// valueSet holds values of significance which generation is biased toward.
	valueSet *ValueSet

	// randomProvider is the single source of randomness of the generator.
	randomProvider *rand.Rand
}

// NewRandomValueGenerator creates a RandomValueGenerator drawing from valueSet and randomProvider.
func NewRandomValueGenerator(config *RandomValueGeneratorConfig, valueSet *ValueSet, randomProvider *rand.Rand) *RandomValueGenerator {
	return &RandomValueGenerator{
		config:         config,
		valueSet:       valueSet,
		randomProvider: randomProvider,
	}
}

// RandomProvider returns the random provider of the generator.
func (g *RandomValueGenerator) RandomProvider() *rand.Rand {
	return g.randomProvider
}

// mutate reports whether a generated value should be replaced by a mutation.
func (g *RandomValueGenerator) mutate() bool {
	return g.randomProvider.Float64() < g.config.MutationProbability
}

// fromValueSet reports whether a base value should be drawn from a ValueSet collection of the given size.
func (g *RandomValueGenerator) fromValueSet(size int) bool {
	return size > 0 && g.randomProvider.Float64() < g.config.ValueSetProbability
}

// GenerateAddress draws an address from the value set or uniformly, optionally mutated.
func (g *RandomValueGenerator) GenerateAddress() common.Address {
	var addr common.Address
	addresses := g.valueSet.Addresses()
	if g.fromValueSet(len(addresses)) {
		addr = addresses[g.randomProvider.Intn(len(addresses))]
	} else {
		_, _ = g.randomProvider.Read(addr[:])
	}

	if g.mutate() {
		if mutated, ok := MutateAddress(addr, g.randomProvider); ok {
			return mutated
		}
	}
	return addr
}

// GenerateArrayLength draws a length in [0, MaxArrayLength].
func (g *RandomValueGenerator) GenerateArrayLength() int {
	return g.randomProvider.Intn(g.config.MaxArrayLength + 1)
}

// GenerateBool draws a bool uniformly.
func (g *RandomValueGenerator) GenerateBool() bool {
	return g.randomProvider.Intn(2) == 0
}

// GenerateBytes draws a byte sequence from the value set, or of uniform length and content.
func (g *RandomValueGenerator) GenerateBytes() []byte {
	values := g.valueSet.Bytes()
	if g.fromValueSet(len(values)) {
		return append([]byte(nil), values[g.randomProvider.Intn(len(values))]...)
	}
	b := make([]byte, g.randomProvider.Intn(g.config.MaxBytesLength+1))
	_, _ = g.randomProvider.Read(b)
	return b
}

// GenerateFixedBytes draws length uniform bytes, optionally mutated.
func (g *RandomValueGenerator) GenerateFixedBytes(length int) []byte {
	b := make([]byte, length)
	_, _ = g.randomProvider.Read(b)
	if g.mutate() {
		if mutated, ok := MutateFixedBytes(b, g.randomProvider); ok {
			return mutated
		}
	}
	return b
}

// GenerateString draws a string from the value set, or of uniform length over printable ASCII.
func (g *RandomValueGenerator) GenerateString() string {
	values := g.valueSet.Strings()
	if g.fromValueSet(len(values)) {
		return values[g.randomProvider.Intn(len(values))]
	}
	b := make([]byte, g.randomProvider.Intn(g.config.MaxStringLength+1))
	for i := range b {
		b[i] = byte(' ' + g.randomProvider.Intn('~'-' '+1))
	}
	return string(b)
}

// GenerateInteger draws an integer of the given signedness and bit length. The base value is taken from the value
// set (wrapped into range) or drawn uniformly over a random bit length, which biases generation toward small
// magnitudes. With MutationProbability the base value is replaced by its mutation.
func (g *RandomValueGenerator) GenerateInteger(signed bool, bitLength int) *big.Int {
	min, max := utils.GetIntegerConstraints(signed, bitLength)

	var value *big.Int
	integers := g.valueSet.Integers()
	if g.fromValueSet(len(integers)) {
		value = utils.ConstrainIntegerToBounds(integers[g.randomProvider.Intn(len(integers))], min, max)
	} else {
		magnitudeBits := bitLength
		if signed {
			magnitudeBits--
		}
		bits := 1 + g.randomProvider.Intn(magnitudeBits)
		value = new(big.Int).Rand(g.randomProvider, new(big.Int).Lsh(big.NewInt(1), uint(bits)))
		if signed && g.randomProvider.Intn(2) == 0 {
			value.Neg(value)
		}
	}

	if g.mutate() {
		var mutated *big.Int
		var ok bool
		if signed {
			mutated, ok = MutateInt(value, bitLength, g.randomProvider)
		} else {
			mutated, ok = MutateUint(value, bitLength, g.randomProvider)
		}
		if ok {
			return mutated
		}
	}
	return value
}
