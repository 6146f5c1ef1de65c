package utils

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestGetIntegerConstraints checks the bounds computed for common signed and unsigned widths.
func TestGetIntegerConstraints(t *testing.T) {
	min, max := GetIntegerConstraints(false, 8)
	assert.EqualValues(t, 0, min.Int64())
	assert.EqualValues(t, 255, max.Int64())

	min, max = GetIntegerConstraints(true, 8)
	assert.EqualValues(t, -128, min.Int64())
	assert.EqualValues(t, 127, max.Int64())

	min, max = GetIntegerConstraints(true, 256)
	expectedMax := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1))
	assert.EqualValues(t, 0, max.Cmp(expectedMax))
	assert.EqualValues(t, 0, min.Cmp(new(big.Int).Neg(new(big.Int).Add(expectedMax, big.NewInt(1)))))
}

// TestConstrainIntegerToBitLength verifies overflow and underflow wrap around like fixed-width integers.
func TestConstrainIntegerToBitLength(t *testing.T) {
	cases := []struct {
		input    int64
		signed   bool
		bits     int
		expected int64
	}{
		{input: 256, signed: false, bits: 8, expected: 0},
		{input: 257, signed: false, bits: 8, expected: 1},
		{input: -1, signed: false, bits: 8, expected: 255},
		{input: 128, signed: true, bits: 8, expected: -128},
		{input: -129, signed: true, bits: 8, expected: 127},
		{input: 100, signed: true, bits: 8, expected: 100},
		{input: 70000, signed: false, bits: 16, expected: 70000 - 65536},
	}
	for _, c := range cases {
		result := ConstrainIntegerToBitLength(big.NewInt(c.input), c.signed, c.bits)
		assert.EqualValues(t, c.expected, result.Int64(), "input %d (signed=%t, bits=%d)", c.input, c.signed, c.bits)
	}
}

// TestConstrainIntegerDoesNotAlias verifies the returned integer is a copy of the input.
func TestConstrainIntegerDoesNotAlias(t *testing.T) {
	input := big.NewInt(5)
	result := ConstrainIntegerToBitLength(input, false, 8)
	result.SetInt64(9)
	assert.EqualValues(t, 5, input.Int64())
}
