package simulated

import (
	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/medusa-geth/crypto"
	"github.com/holiman/uint256"
)

// Slot returns the storage slot with the given index.
func Slot(index uint64) common.Hash {
	return common.Hash(uint256.NewInt(index).Bytes32())
}

// MappingSlot returns the slot of key in the mapping stored at slot index, laid out as keccak256(key . index).
func MappingSlot(key common.Hash, index uint64) common.Hash {
	return MappingSlotAt(key, Slot(index))
}

// MappingSlotAt returns the slot of key in the mapping stored at slot, for mappings nested in other mappings.
func MappingSlotAt(key common.Hash, slot common.Hash) common.Hash {
	return crypto.Keccak256Hash(key[:], slot[:])
}

// AddressKey returns addr left-padded to a 32-byte mapping key.
func AddressKey(addr common.Address) common.Hash {
	return common.BytesToHash(addr[:])
}
