package simulated

import (
	"github.com/crytic/medusa-geth/accounts/abi"
	"github.com/crytic/medusa-geth/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// CallContext is the execution context of a single call frame, handed to a MethodHandler.
type CallContext struct {
	// backend is the backend executing the call.
	backend *Backend

	// frame buffers the storage writes of the call.
	frame *overlay

	// meter tracks the gas of the outermost call and everything it invokes.
	meter *gasMeter

	// caller is the address which invoked this frame.
	caller common.Address

	// self is the address of the contract executing in this frame.
	self common.Address

	// depth is the nesting level of this frame, zero for the outermost call.
	depth int
}

// Caller returns the address which invoked the current call, the equivalent of msg.sender.
func (c *CallContext) Caller() common.Address {
	return c.caller
}

// Load reads a storage slot of the executing contract.
func (c *CallContext) Load(slot common.Hash) common.Hash {
	c.meter.consume(gasStorageRead)
	return c.frame.load(c.self, slot)
}

// Store writes a storage slot of the executing contract.
func (c *CallContext) Store(slot common.Hash, value common.Hash) {
	current := c.frame.load(c.self, slot)
	if current == (common.Hash{}) && value != (common.Hash{}) {
		c.meter.consume(gasStorageSet)
	} else {
		c.meter.consume(gasStorageReset)
	}
	c.frame.store(c.self, slot, value)
}

// LoadUint reads a storage slot of the executing contract as an unsigned 256-bit integer.
func (c *CallContext) LoadUint(slot common.Hash) *uint256.Int {
	value := c.Load(slot)
	return new(uint256.Int).SetBytes32(value[:])
}

// StoreUint writes an unsigned 256-bit integer to a storage slot of the executing contract.
func (c *CallContext) StoreUint(slot common.Hash, value *uint256.Int) {
	c.Store(slot, common.Hash(value.Bytes32()))
}

// Call invokes another contract with the given calldata, as the executing contract.
// Returns the return data, a *RevertError if the nested call reverted, or any other error on backend faults.
func (c *CallContext) Call(to common.Address, data []byte) ([]byte, error) {
	c.meter.consume(gasCall)
	return c.backend.execute(c.frame, c.meter, c.self, to, data, c.depth+1)
}

// CallMethod packs a call to method of the contract at to, invokes it, and unpacks its outputs.
func (c *CallContext) CallMethod(to common.Address, contractAbi *abi.ABI, method string, args ...any) ([]any, error) {
	data, err := contractAbi.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "could not pack call to %v", method)
	}
	ret, err := c.Call(to, data)
	if err != nil {
		return nil, err
	}
	return contractAbi.Unpack(method, ret)
}

// Revert returns a *RevertError with the given reason, for handlers to return.
func (c *CallContext) Revert(reason string) error {
	return NewRevertError(reason)
}

// Require returns a *RevertError with the given reason if condition does not hold, and nil otherwise.
func (c *CallContext) Require(condition bool, reason string) error {
	if !condition {
		return NewRevertError(reason)
	}
	return nil
}
