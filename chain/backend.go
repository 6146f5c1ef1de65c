package chain

import (
	"github.com/crytic/medusa-geth/accounts/abi"
	"github.com/crytic/medusa-geth/common"
)

// SnapshotID is an opaque handle to a state captured with Backend.Snapshot.
type SnapshotID uint64

// CallMessage describes a single call to be applied by a Backend.
type CallMessage struct {
	// From is the sender of the call.
	From common.Address

	// To is the receiving contract of the call.
	To common.Address

	// GasLimit is the maximum amount of gas the call may consume, including its intrinsic cost.
	GasLimit uint64

	// Data is the calldata of the call: a four byte selector followed by ABI encoded arguments.
	Data []byte
}

// NewCallMessage creates a CallMessage from the given parameters.
func NewCallMessage(from common.Address, to common.Address, gasLimit uint64, data []byte) *CallMessage {
	return &CallMessage{
		From:     from,
		To:       to,
		GasLimit: gasLimit,
		Data:     data,
	}
}

// CommitResult describes the outcome of a call applied with Backend.CommitCall.
type CommitResult struct {
	// Reverted indicates the call reverted. Its state changes were discarded.
	Reverted bool

	// GasUsed is the total gas consumed by the call, GasStipend included.
	GasUsed uint64

	// GasStipend is the intrinsic cost charged before execution began.
	GasStipend uint64

	// ReturnData is the data returned by the call, or the revert data if it reverted.
	ReturnData []byte
}

// StateChangeset maps every contract to the storage slots a call would have written, with the values it would have
// written to them.
type StateChangeset map[common.Address]map[common.Hash]common.Hash

// ReadResult describes the outcome of a call evaluated with Backend.ReadCall.
type ReadResult struct {
	// Reverted indicates the call reverted.
	Reverted bool

	// ReturnData is the data returned by the call, or the revert data if it reverted.
	ReturnData []byte

	// StateChangeset holds the writes the call attempted. They are never persisted.
	StateChangeset StateChangeset
}

// Backend applies calls against contract state. Errors returned by its methods are faults of the backend itself; a
// reverted call is reported through the result, never as an error.
type Backend interface {
	// CommitCall applies msg and persists its state changes if it did not revert.
	CommitCall(msg *CallMessage) (*CommitResult, error)

	// ReadCall evaluates msg against the current state without persisting anything.
	ReadCall(msg *CallMessage) (*ReadResult, error)

	// Snapshot captures the current state and returns a handle to it.
	Snapshot() SnapshotID

	// Restore resets the state to the one captured by id. A snapshot may be restored any number of times.
	Restore(id SnapshotID) error
}

// CloneableBackend is a Backend which can produce an independent copy of itself, so that campaigns can run in
// parallel without sharing state.
type CloneableBackend interface {
	Backend

	// Clone returns a Backend with a copy of the current state. Changes to either backend are not visible to the
	// other.
	Clone() (CloneableBackend, error)

	// DeployedContracts returns the contracts deployed on the backend, in deployment order.
	DeployedContracts() []*DeployedContract
}

// DeployedContract describes a contract deployed on a Backend.
type DeployedContract struct {
	// Name is the display name of the contract.
	Name string

	// Address is the address the contract is deployed at.
	Address common.Address

	// ABI is the interface of the contract.
	ABI *abi.ABI
}
