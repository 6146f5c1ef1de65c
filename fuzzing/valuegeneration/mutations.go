package valuegeneration

import (
	"encoding/binary"
	"math"
	"math/big"
	"math/rand"

	"github.com/crytic/medusa-geth/common"
)

// IntegerMutation mutates a sized integer of the given bit width. It returns the mutated value and true, or false if
// no valid mutation could be produced.
type IntegerMutation[T SizedInteger[T]] func(value T, width int, randomProvider *rand.Rand) (T, bool)

// integerMutations returns every integer mutation, in a fixed order.
func integerMutations[T SizedInteger[T]]() []IntegerMutation[T] {
	return []IntegerMutation[T]{
		IncrementDecrement[T],
		FlipRandomBit[T],
		MutateInterestingByte[T],
		MutateInterestingWord[T],
		MutateInterestingDword[T],
		MutateGaussianNoise[T],
	}
}

// MutateSizedInteger applies one mutation, chosen uniformly, to value.
func MutateSizedInteger[T SizedInteger[T]](value T, width int, randomProvider *rand.Rand) (T, bool) {
	mutations := integerMutations[T]()
	return mutations[randomProvider.Intn(len(mutations))](value, width, randomProvider)
}

// validWidth indicates whether width is a valid ABI integer width.
func validWidth(width int) bool {
	return width >= 8 && width <= 256 && width%8 == 0
}

// validateMutation returns mutated and true if it differs from original and fits width.
func validateMutation[T SizedInteger[T]](original T, mutated T, width int) (T, bool) {
	if mutated.Equal(original) || !mutated.FitsWidth(width) {
		var zero T
		return zero, false
	}
	return mutated, true
}

// mutateLowBytes applies mutate to the low width/8 bytes of value's big-endian encoding and validates the result.
func mutateLowBytes[T SizedInteger[T]](value T, width int, mutate func([]byte) bool) (T, bool) {
	var zero T
	if !validWidth(width) {
		return zero, false
	}
	b := value.Bytes32()
	if !mutate(b[32-width/8:]) {
		return zero, false
	}
	return validateMutation(value, value.FromBytes32(b), width)
}

// IncrementDecrement adds or subtracts one, chosen uniformly, wrapping at 256 bits.
func IncrementDecrement[T SizedInteger[T]](value T, width int, randomProvider *rand.Rand) (T, bool) {
	if !validWidth(width) {
		var zero T
		return zero, false
	}
	var mutated T
	if randomProvider.Intn(2) == 0 {
		mutated = value.WrappingAddOne()
	} else {
		mutated = value.WrappingSubOne()
	}
	return validateMutation(value, mutated, width)
}

// FlipRandomBit inverts a bit chosen uniformly among the low width bits.
func FlipRandomBit[T SizedInteger[T]](value T, width int, randomProvider *rand.Rand) (T, bool) {
	return mutateLowBytes(value, width, func(b []byte) bool {
		return flipRandomBitInSlice(b, randomProvider)
	})
}

// MutateInterestingByte overwrites a byte among the low width/8 bytes with a value from Interesting8.
func MutateInterestingByte[T SizedInteger[T]](value T, width int, randomProvider *rand.Rand) (T, bool) {
	return mutateLowBytes(value, width, func(b []byte) bool {
		return injectInterestingByte(b, randomProvider)
	})
}

// MutateInterestingWord overwrites a two byte region among the low width/8 bytes with a value from Interesting16.
// No mutation is possible for widths below 16.
func MutateInterestingWord[T SizedInteger[T]](value T, width int, randomProvider *rand.Rand) (T, bool) {
	return mutateLowBytes(value, width, func(b []byte) bool {
		return injectInterestingWord(b, randomProvider)
	})
}

// MutateInterestingDword overwrites a four byte region among the low width/8 bytes with a value from Interesting32.
// No mutation is possible for widths below 32.
func MutateInterestingDword[T SizedInteger[T]](value T, width int, randomProvider *rand.Rand) (T, bool) {
	return mutateLowBytes(value, width, func(b []byte) bool {
		return injectInterestingDword(b, randomProvider)
	})
}

// MutateGaussianNoise scales the low width/8 bytes by a factor drawn from a gaussian-like distribution centered on 1.
func MutateGaussianNoise[T SizedInteger[T]](value T, width int, randomProvider *rand.Rand) (T, bool) {
	return mutateLowBytes(value, width, func(b []byte) bool {
		scale, ok := sampleGaussianScale(randomProvider)
		if !ok {
			return false
		}
		applyScaleToBytes(b, scale)
		return true
	})
}

// MutateUint mutates an unsigned integer of the given width.
func MutateUint(value *big.Int, width int, randomProvider *rand.Rand) (*big.Int, bool) {
	mutated, ok := MutateSizedInteger(UintFromBig(value), width, randomProvider)
	if !ok {
		return nil, false
	}
	return mutated.Big(), true
}

// MutateInt mutates a signed integer of the given width.
func MutateInt(value *big.Int, width int, randomProvider *rand.Rand) (*big.Int, bool) {
	mutated, ok := MutateSizedInteger(IntFromBig(value), width, randomProvider)
	if !ok {
		return nil, false
	}
	return mutated.Big(), true
}

// addressMutations hold the byte slice mutations applicable to addresses and fixed bytes.
var addressMutations = []func([]byte, *rand.Rand) bool{
	flipRandomBitInSlice,
	injectInterestingByte,
	injectInterestingWord,
	injectInterestingDword,
}

// FlipAddressBit inverts one of the 160 bits of addr.
func FlipAddressBit(addr common.Address, randomProvider *rand.Rand) (common.Address, bool) {
	return mutateAddressWith(addr, randomProvider, flipRandomBitInSlice)
}

// MutateAddress applies one address mutation, chosen uniformly, to addr.
func MutateAddress(addr common.Address, randomProvider *rand.Rand) (common.Address, bool) {
	return mutateAddressWith(addr, randomProvider, addressMutations[randomProvider.Intn(len(addressMutations))])
}

// mutateAddressWith applies mutate to a copy of addr, returning it if it changed.
func mutateAddressWith(addr common.Address, randomProvider *rand.Rand, mutate func([]byte, *rand.Rand) bool) (common.Address, bool) {
	mutated := addr
	if !mutate(mutated[:], randomProvider) || mutated == addr {
		return common.Address{}, false
	}
	return mutated, true
}

// MutateFixedBytes applies one mutation, chosen uniformly, to a copy of b. It returns false if the copy is unchanged.
func MutateFixedBytes(b []byte, randomProvider *rand.Rand) ([]byte, bool) {
	mutated := append([]byte(nil), b...)
	if !addressMutations[randomProvider.Intn(len(addressMutations))](mutated, randomProvider) {
		return nil, false
	}
	if string(mutated) == string(b) {
		return nil, false
	}
	return mutated, true
}

// flipRandomBitInSlice inverts a bit chosen uniformly in b.
func flipRandomBitInSlice(b []byte, randomProvider *rand.Rand) bool {
	if len(b) == 0 {
		return false
	}
	bit := randomProvider.Intn(len(b) * 8)
	b[bit/8] ^= 1 << (bit % 8)
	return true
}

// injectInterestingByte overwrites a byte chosen uniformly in b with a value from Interesting8.
func injectInterestingByte(b []byte, randomProvider *rand.Rand) bool {
	if len(b) == 0 {
		return false
	}
	index := randomProvider.Intn(len(b))
	b[index] = byte(Interesting8[randomProvider.Intn(len(Interesting8))])
	return true
}

// injectInterestingWord overwrites a two byte region chosen uniformly in b with a value from Interesting16.
func injectInterestingWord(b []byte, randomProvider *rand.Rand) bool {
	if len(b) < 2 {
		return false
	}
	index := randomProvider.Intn(len(b) - 1)
	binary.BigEndian.PutUint16(b[index:], uint16(Interesting16[randomProvider.Intn(len(Interesting16))]))
	return true
}

// injectInterestingDword overwrites a four byte region chosen uniformly in b with a value from Interesting32.
func injectInterestingDword(b []byte, randomProvider *rand.Rand) bool {
	if len(b) < 4 {
		return false
	}
	index := randomProvider.Intn(len(b) - 3)
	binary.BigEndian.PutUint32(b[index:], uint32(Interesting32[randomProvider.Intn(len(Interesting32))]))
	return true
}

// sampleGaussianScale draws a scale factor centered on 1. The standard normal is approximated with the Irwin-Hall
// method over 8 uniform samples, then scaled by a multiplier chosen from threeSigmaMultipliers. It returns false for
// negative factors and factors indistinguishable from 1.
func sampleGaussianScale(randomProvider *rand.Rand) (float64, bool) {
	const samples = 8
	threeSigma := threeSigmaMultipliers[randomProvider.Intn(len(threeSigmaMultipliers))]

	sum := 0.0
	for i := 0; i < samples; i++ {
		sum += randomProvider.Float64()
	}
	standardNormal := sum - samples/2.0
	scale := (threeSigma/3)*standardNormal + 1

	if !isUsableScale(scale) {
		return 0, false
	}
	return scale, true
}

// float64Epsilon is the difference between 1 and the next representable float64.
var float64Epsilon = math.Nextafter(1, 2) - 1

// isUsableScale reports whether scale is non-negative and distinguishable from 1.
func isUsableScale(scale float64) bool {
	return scale >= 0 && math.Abs(scale-1) >= float64Epsilon
}

// applyScaleToBytes multiplies the big-endian integer in b by scale in place, propagating carries toward the most
// significant byte. Overflow saturates every byte to 0xff.
func applyScaleToBytes(b []byte, scale float64) {
	saturate := func() {
		for i := range b {
			b[i] = 0xff
		}
	}

	carryDown := 0.0
	for i := len(b) - 1; i >= 0; i-- {
		scaled := (float64(b[i]) + carryDown*256) * scale
		if i == 0 && scaled >= 256 {
			saturate()
			return
		}
		b[i] = byte(math.Floor(math.Mod(scaled, 256)))

		carryUp := math.Floor(scaled / 256)
		carryDown = math.Mod(scaled, 1) / scale

		for j := i; carryUp > 0 && j > 0; {
			j--
			next := float64(b[j]) + carryUp
			if j == 0 && next >= 256 {
				saturate()
				return
			}
			b[j] = byte(math.Floor(math.Mod(next, 256)))
			carryUp = math.Floor(next / 256)
		}
	}
}
