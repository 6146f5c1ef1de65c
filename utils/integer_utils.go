package utils

import (
	"math/big"

	"golang.org/x/exp/constraints"
)

// GetIntegerConstraints returns the inclusive minimum and maximum values of an integer with the given signedness and
// bit length.
func GetIntegerConstraints(signed bool, bitLength int) (*big.Int, *big.Int) {
	if signed {
		// [-(2^(bitLength-1)), 2^(bitLength-1) - 1]
		max := new(big.Int).Lsh(big.NewInt(1), uint(bitLength-1))
		min := new(big.Int).Neg(max)
		max.Sub(max, big.NewInt(1))
		return min, max
	}

	// [0, 2^bitLength - 1]
	max := new(big.Int).Lsh(big.NewInt(1), uint(bitLength))
	max.Sub(max, big.NewInt(1))
	return big.NewInt(0), max
}

// ConstrainIntegerToBounds wraps b into the inclusive range [min, max], simulating overflow and underflow. The input
// is not modified; a new integer is returned.
func ConstrainIntegerToBounds(b *big.Int, min *big.Int, max *big.Int) *big.Int {
	if b.Cmp(min) >= 0 && b.Cmp(max) <= 0 {
		return new(big.Int).Set(b)
	}

	// Reduce the offset from min modulo the range size. Euclidean modulus keeps the result non-negative for underflow.
	size := new(big.Int).Sub(max, min)
	size.Add(size, big.NewInt(1))
	offset := new(big.Int).Sub(b, min)
	offset.Mod(offset, size)
	return offset.Add(offset, min)
}

// ConstrainIntegerToBitLength wraps b into the range of an integer with the given signedness and bit length.
func ConstrainIntegerToBitLength(b *big.Int, signed bool, bitLength int) *big.Int {
	min, max := GetIntegerConstraints(signed, bitLength)
	return ConstrainIntegerToBounds(b, min, max)
}

// Min returns the smaller of two integers.
func Min[T constraints.Integer](x T, y T) T {
	if x < y {
		return x
	}
	return y
}
