package fuzzing

import (
	"github.com/crytic/medusa-geth/accounts/abi"
	"github.com/crytic/tenet/chain"
	"github.com/crytic/tenet/fuzzing/calls"
)

// ReplaySequence restores snapshot and executes sequence against backend, asserting the invariants of contract after
// every call that does not revert, the way a campaign run does. Unlike a run, replay does not stop at the first
// violation. The returned record maps each invariant violated at some point to its failure, whose sequence is the
// prefix of sequence through the call after which the violation was first observed.
// Returns a BackendFatalError if the backend faults.
func ReplaySequence(backend chain.Backend, snapshot chain.SnapshotID, contract *chain.DeployedContract, invariants []abi.Method, sequence calls.CallSequence, gasLimit uint64) (InvariantRecord, error) {
	checker := &invariantChecker{
		backend:    backend,
		contract:   contract,
		invariants: invariants,
		gasLimit:   gasLimit,
	}
	return checker.replay(snapshot, sequence)
}

// replay implements ReplaySequence for the invariants of the checker.
func (c *invariantChecker) replay(snapshot chain.SnapshotID, sequence calls.CallSequence) (InvariantRecord, error) {
	if err := c.backend.Restore(snapshot); err != nil {
		return nil, &BackendFatalError{Operation: "restoring the clean state", Err: err}
	}

	record := NewInvariantRecord(c.names())
	for i, element := range sequence {
		result, err := c.backend.CommitCall(element.Message(c.gasLimit))
		if err != nil {
			return nil, &BackendFatalError{Operation: "replaying " + element.String(), Err: err}
		}
		if result.Reverted {
			continue
		}

		if _, err = c.check(record, sequence[:i+1]); err != nil {
			return nil, err
		}
		if record.AllViolated() {
			break
		}
	}
	return record, nil
}
