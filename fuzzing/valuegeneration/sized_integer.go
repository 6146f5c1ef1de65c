package valuegeneration

import (
	"math/big"

	"github.com/holiman/uint256"
)

// SizedInteger is the capability the integer mutations are written against. Implementations hold a 256-bit value
// and expose it as 32 big-endian bytes, so a mutation can operate on the low width/8 bytes of any representation.
type SizedInteger[T any] interface {
	// Bytes32 returns the value as 32 big-endian bytes.
	Bytes32() [32]byte

	// FromBytes32 returns a value of the same representation decoded from 32 big-endian bytes.
	FromBytes32(b [32]byte) T

	// WrappingAddOne returns the value plus one, wrapping at 256 bits.
	WrappingAddOne() T

	// WrappingSubOne returns the value minus one, wrapping at 256 bits.
	WrappingSubOne() T

	// Equal indicates whether the value equals other.
	Equal(other T) bool

	// FitsWidth indicates whether the value is representable by an integer of the given bit width.
	FitsWidth(width int) bool
}

// Uint is an unsigned 256-bit integer.
type Uint struct {
	value uint256.Int
}

// UintFromBig creates a Uint from b, reduced modulo 2^256.
func UintFromBig(b *big.Int) Uint {
	var u Uint
	u.value.SetFromBig(b)
	return u
}

// Big returns the value as a big.Int.
func (u Uint) Big() *big.Int {
	return u.value.ToBig()
}

// Bytes32 returns the value as 32 big-endian bytes.
func (u Uint) Bytes32() [32]byte {
	return u.value.Bytes32()
}

// FromBytes32 decodes a Uint from 32 big-endian bytes.
func (u Uint) FromBytes32(b [32]byte) Uint {
	var r Uint
	r.value.SetBytes32(b[:])
	return r
}

// WrappingAddOne returns u + 1 modulo 2^256.
func (u Uint) WrappingAddOne() Uint {
	var r Uint
	r.value.AddUint64(&u.value, 1)
	return r
}

// WrappingSubOne returns u - 1 modulo 2^256.
func (u Uint) WrappingSubOne() Uint {
	var r Uint
	r.value.SubUint64(&u.value, 1)
	return r
}

// Equal indicates whether u equals other.
func (u Uint) Equal(other Uint) bool {
	return u.value.Eq(&other.value)
}

// FitsWidth indicates whether u < 2^width. Every value fits a 256-bit width.
func (u Uint) FitsWidth(width int) bool {
	return width >= 256 || u.value.BitLen() <= width
}

// Int is a signed 256-bit integer in two's complement.
type Int struct {
	value uint256.Int
}

// IntFromBig creates an Int from b, reduced to 256-bit two's complement.
func IntFromBig(b *big.Int) Int {
	var i Int
	i.value.SetFromBig(b)
	return i
}

// Big returns the value as a big.Int.
func (i Int) Big() *big.Int {
	b := i.value.ToBig()
	return b.Sub(b, signedOffset(&i.value))
}

// signedOffset returns 2^256 if v encodes a negative value, and zero otherwise.
func signedOffset(v *uint256.Int) *big.Int {
	if v.Sign() < 0 {
		return new(big.Int).Lsh(big.NewInt(1), 256)
	}
	return new(big.Int)
}

// Bytes32 returns the two's complement encoding of the value as 32 big-endian bytes.
func (i Int) Bytes32() [32]byte {
	return i.value.Bytes32()
}

// FromBytes32 decodes an Int from its 32 byte two's complement encoding.
func (i Int) FromBytes32(b [32]byte) Int {
	var r Int
	r.value.SetBytes32(b[:])
	return r
}

// WrappingAddOne returns i + 1, wrapping at 256 bits.
func (i Int) WrappingAddOne() Int {
	var r Int
	r.value.AddUint64(&i.value, 1)
	return r
}

// WrappingSubOne returns i - 1, wrapping at 256 bits.
func (i Int) WrappingSubOne() Int {
	var r Int
	r.value.SubUint64(&i.value, 1)
	return r
}

// Equal indicates whether i equals other.
func (i Int) Equal(other Int) bool {
	return i.value.Eq(&other.value)
}

// FitsWidth indicates whether |i| < 2^(width-1), checked against the positive or negative bound depending on the
// sign. The minimum value of the width is therefore rejected. Every value fits a 256-bit width.
func (i Int) FitsWidth(width int) bool {
	if width >= 256 {
		return true
	}
	abs := new(uint256.Int).Set(&i.value)
	if i.value.Sign() < 0 {
		abs.Neg(abs)
	}
	return abs.BitLen() <= width-1
}
