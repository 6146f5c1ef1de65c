package simulated

import (
	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/tenet/chain"
	"golang.org/x/exp/maps"
)

// worldState is the persisted state of a Backend.
type worldState struct {
	// contracts maps addresses to the contract deployed at them.
	contracts map[common.Address]*ContractDefinition

	// storage maps addresses to their non-zero storage slots.
	storage map[common.Address]map[common.Hash]common.Hash

	// deployed lists the deployed contracts in deployment order.
	deployed []*chain.DeployedContract

	// nonce is the deployment counter used to derive contract addresses.
	nonce uint64
}

// newWorldState creates an empty worldState.
func newWorldState() *worldState {
	return &worldState{
		contracts: make(map[common.Address]*ContractDefinition),
		storage:   make(map[common.Address]map[common.Hash]common.Hash),
		deployed:  make([]*chain.DeployedContract, 0),
	}
}

// clone returns a deep copy of the state. Contract definitions are immutable once deployed, so they are shared.
func (s *worldState) clone() *worldState {
	storage := make(map[common.Address]map[common.Hash]common.Hash, len(s.storage))
	for addr, slots := range s.storage {
		storage[addr] = maps.Clone(slots)
	}
	return &worldState{
		contracts: maps.Clone(s.contracts),
		storage:   storage,
		deployed:  append([]*chain.DeployedContract(nil), s.deployed...),
		nonce:     s.nonce,
	}
}

// load reads a storage slot. Unset slots read as zero.
func (s *worldState) load(addr common.Address, slot common.Hash) common.Hash {
	return s.storage[addr][slot]
}

// store writes a storage slot. Zero values are not kept.
func (s *worldState) store(addr common.Address, slot common.Hash, value common.Hash) {
	slots, ok := s.storage[addr]
	if !ok {
		if value == (common.Hash{}) {
			return
		}
		slots = make(map[common.Hash]common.Hash)
		s.storage[addr] = slots
	}
	if value == (common.Hash{}) {
		delete(slots, slot)
		return
	}
	slots[slot] = value
}

// overlay buffers the storage writes of one call frame. Writes are applied to the parent frame, or to the world state
// for the outermost frame, only when the frame completes successfully.
type overlay struct {
	// parent is the frame of the calling contract, nil for the outermost frame.
	parent *overlay

	// base is the world state the outermost frame reads from and applies to.
	base *worldState

	// writes holds the buffered writes of this frame.
	writes map[common.Address]map[common.Hash]common.Hash
}

// newOverlay creates the outermost frame over base.
func newOverlay(base *worldState) *overlay {
	return &overlay{
		base:   base,
		writes: make(map[common.Address]map[common.Hash]common.Hash),
	}
}

// child creates a frame for a nested call.
func (o *overlay) child() *overlay {
	return &overlay{
		parent: o,
		base:   o.base,
		writes: make(map[common.Address]map[common.Hash]common.Hash),
	}
}

// load reads a slot through the chain of frames.
func (o *overlay) load(addr common.Address, slot common.Hash) common.Hash {
	if slots, ok := o.writes[addr]; ok {
		if value, ok := slots[slot]; ok {
			return value
		}
	}
	if o.parent != nil {
		return o.parent.load(addr, slot)
	}
	return o.base.load(addr, slot)
}

// store buffers a write in this frame.
func (o *overlay) store(addr common.Address, slot common.Hash, value common.Hash) {
	slots, ok := o.writes[addr]
	if !ok {
		slots = make(map[common.Hash]common.Hash)
		o.writes[addr] = slots
	}
	slots[slot] = value
}

// apply moves the writes of this frame into its parent, or into the world state for the outermost frame.
func (o *overlay) apply() {
	for addr, slots := range o.writes {
		for slot, value := range slots {
			if o.parent != nil {
				o.parent.store(addr, slot, value)
			} else {
				o.base.store(addr, slot, value)
			}
		}
	}
	o.writes = make(map[common.Address]map[common.Hash]common.Hash)
}

// changeset returns a copy of the writes of this frame.
func (o *overlay) changeset() chain.StateChangeset {
	changeset := make(chain.StateChangeset, len(o.writes))
	for addr, slots := range o.writes {
		changeset[addr] = maps.Clone(slots)
	}
	return changeset
}
