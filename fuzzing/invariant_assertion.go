package fuzzing

import (
	"github.com/crytic/medusa-geth/accounts/abi"
	"github.com/crytic/tenet/chain"
	"github.com/crytic/tenet/compilation/abiutils"
	"github.com/crytic/tenet/fuzzing/calls"
)

// invariantChecker asserts the invariants of a contract with read-only calls.
type invariantChecker struct {
	// backend is used for the read-only invariant calls.
	backend chain.Backend

	// contract is the invariant contract.
	contract *chain.DeployedContract

	// invariants are the invariant methods of contract, ordered by name.
	invariants []abi.Method

	// gasLimit is the gas limit of each invariant call.
	gasLimit uint64
}

// names returns the names of the invariants, ordered by name.
func (c *invariantChecker) names() []string {
	names := make([]string, len(c.invariants))
	for i, method := range c.invariants {
		names[i] = method.Name
	}
	return names
}

// check asserts every invariant not yet violated in record against the current state. Each violation is recorded
// with a copy of sequence, the calls which led to the current state. Every pending invariant is evaluated even after
// a violation is found. Returns whether any invariant was violated by this check, or a BackendFatalError.
func (c *invariantChecker) check(record InvariantRecord, sequence calls.CallSequence) (bool, error) {
	violated := false
	for i := range c.invariants {
		method := &c.invariants[i]
		if record.Violated(method.Name) {
			continue
		}

		failure, err := c.assert(method, sequence)
		if err != nil {
			return violated, err
		}
		if failure != nil {
			record[method.Name] = failure
			violated = true
		}
	}
	return violated, nil
}

// assert evaluates a single invariant. Returns an InvariantFailure if the invariant reverted, returned false, or
// returned data that is not a bool, and nil if it held.
func (c *invariantChecker) assert(method *abi.Method, sequence calls.CallSequence) (*InvariantFailure, error) {
	msg := chain.NewCallMessage(DefaultCallerAddress, c.contract.Address, c.gasLimit, method.ID)
	result, err := c.backend.ReadCall(msg)
	if err != nil {
		return nil, &BackendFatalError{Operation: "asserting " + method.Name, Err: err}
	}

	failure := &InvariantFailure{
		Invariant:    method.Name,
		Contract:     c.contract.Address,
		ContractName: c.contract.Name,
		Sequence:     sequence.Clone(),
		ReturnData:   result.ReturnData,
	}
	if result.Reverted {
		failure.Reverted = true
		failure.RevertReason = abiutils.DecodeRevertReason(result.ReturnData, c.contract.ABI)
		return failure, nil
	}

	values, err := method.Outputs.Unpack(result.ReturnData)
	if err != nil || len(values) != 1 {
		return failure, nil
	}
	if held, ok := values[0].(bool); ok && held {
		return nil, nil
	}
	return failure, nil
}
