package valuegeneration

import (
	"hash"
	"math/big"

	"github.com/crytic/medusa-geth/common"
	"golang.org/x/crypto/sha3"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// ValueSet holds values of significance to a campaign (known addresses, constants) that value generation draws from.
// Values are kept in insertion order so that selection from the set is reproducible for a given random stream.
type ValueSet struct {
	// addresses holds the set's addresses, keyed for de-duplication.
	addresses map[common.Address]struct{}
	// addressList holds the set's addresses in insertion order.
	addressList []common.Address

	// integers holds the set's integers, keyed by their decimal string.
	integers map[string]struct{}
	// integerList holds the set's integers in insertion order.
	integerList []*big.Int

	// strings holds the set's strings.
	strings map[string]struct{}
	// stringList holds the set's strings in insertion order.
	stringList []string

	// bytes holds the set's byte sequences, keyed by their hash.
	bytes map[common.Hash]struct{}
	// bytesList holds the set's byte sequences in insertion order.
	bytesList [][]byte

	// hashProvider creates keys for byte sequences.
	hashProvider hash.Hash
}

// NewValueSet creates an empty ValueSet.
func NewValueSet() *ValueSet {
	return &ValueSet{
		addresses:    make(map[common.Address]struct{}),
		integers:     make(map[string]struct{}),
		strings:      make(map[string]struct{}),
		bytes:        make(map[common.Hash]struct{}),
		hashProvider: sha3.NewLegacyKeccak256(),
	}
}

// Clone creates a copy of the ValueSet.
func (vs *ValueSet) Clone() *ValueSet {
	return &ValueSet{
		addresses:    maps.Clone(vs.addresses),
		addressList:  slices.Clone(vs.addressList),
		integers:     maps.Clone(vs.integers),
		integerList:  slices.Clone(vs.integerList),
		strings:      maps.Clone(vs.strings),
		stringList:   slices.Clone(vs.stringList),
		bytes:        maps.Clone(vs.bytes),
		bytesList:    slices.Clone(vs.bytesList),
		hashProvider: sha3.NewLegacyKeccak256(),
	}
}

// Addresses returns the addresses in the set, in insertion order.
func (vs *ValueSet) Addresses() []common.Address {
	return vs.addressList
}

// AddAddress adds an address to the set.
func (vs *ValueSet) AddAddress(a common.Address) {
	if _, ok := vs.addresses[a]; ok {
		return
	}
	vs.addresses[a] = struct{}{}
	vs.addressList = append(vs.addressList, a)
}

// Integers returns the integers in the set, in insertion order.
func (vs *ValueSet) Integers() []*big.Int {
	return vs.integerList
}

// AddInteger adds an integer to the set.
func (vs *ValueSet) AddInteger(b *big.Int) {
	key := b.String()
	if _, ok := vs.integers[key]; ok {
		return
	}
	vs.integers[key] = struct{}{}
	vs.integerList = append(vs.integerList, new(big.Int).Set(b))
}

// Strings returns the strings in the set, in insertion order.
func (vs *ValueSet) Strings() []string {
	return vs.stringList
}

// AddString adds a string to the set.
func (vs *ValueSet) AddString(s string) {
	if _, ok := vs.strings[s]; ok {
		return
	}
	vs.strings[s] = struct{}{}
	vs.stringList = append(vs.stringList, s)
}

// Bytes returns the byte sequences in the set, in insertion order.
func (vs *ValueSet) Bytes() [][]byte {
	return vs.bytesList
}

// AddBytes adds a byte sequence to the set.
func (vs *ValueSet) AddBytes(b []byte) {
	vs.hashProvider.Write(b)
	key := common.BytesToHash(vs.hashProvider.Sum(nil))
	vs.hashProvider.Reset()

	if _, ok := vs.bytes[key]; ok {
		return
	}
	vs.bytes[key] = struct{}{}
	vs.bytesList = append(vs.bytesList, append([]byte(nil), b...))
}
