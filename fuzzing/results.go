package fuzzing

import (
	"fmt"

	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/tenet/chain"
	"github.com/crytic/tenet/fuzzing/calls"
	"github.com/crytic/tenet/logging"
	"github.com/crytic/tenet/logging/colors"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

// InvariantFailure describes the violation of an invariant. It is immutable once recorded.
type InvariantFailure struct {
	// Invariant is the name of the violated invariant method.
	Invariant string

	// Contract is the address of the contract declaring the invariant.
	Contract common.Address

	// ContractName is the display name of the contract declaring the invariant.
	ContractName string

	// Sequence is the call sequence which, executed from the clean state, violates the invariant. It is empty if the
	// invariant did not hold on the clean state.
	Sequence calls.CallSequence

	// Reverted indicates the invariant check reverted, as opposed to returning false.
	Reverted bool

	// ReturnData is the raw data returned by the invariant check.
	ReturnData []byte

	// RevertReason is the human-readable reason decoded from ReturnData, if the check reverted.
	RevertReason string
}

// InvariantRecord maps every invariant checked by a campaign to its failure, or to nil if it was not violated.
type InvariantRecord map[string]*InvariantFailure

// NewInvariantRecord creates an InvariantRecord in which no invariant of names is violated yet.
func NewInvariantRecord(names []string) InvariantRecord {
	record := make(InvariantRecord, len(names))
	for _, name := range names {
		record[name] = nil
	}
	return record
}

// Names returns the invariant names of the record, sorted.
func (r InvariantRecord) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Violated reports whether the invariant name was violated.
func (r InvariantRecord) Violated(name string) bool {
	return r[name] != nil
}

// ViolatedCount returns the number of violated invariants.
func (r InvariantRecord) ViolatedCount() int {
	count := 0
	for _, failure := range r {
		if failure != nil {
			count++
		}
	}
	return count
}

// AllViolated reports whether every invariant of the record was violated.
func (r InvariantRecord) AllViolated() bool {
	return r.ViolatedCount() == len(r)
}

// Failures returns the failures of the record, sorted by invariant name.
func (r InvariantRecord) Failures() []*InvariantFailure {
	failures := make([]*InvariantFailure, 0)
	for _, name := range r.Names() {
		if r[name] != nil {
			failures = append(failures, r[name])
		}
	}
	return failures
}

// RevertFailure describes a reverted call which ended a campaign running with FailOnRevert.
type RevertFailure struct {
	// Sequence is the call sequence up to and including the reverted call.
	Sequence calls.CallSequence

	// ReturnData is the revert data of the call.
	ReturnData []byte

	// RevertReason is the human-readable reason decoded from ReturnData.
	RevertReason string
}

// CampaignResult describes the outcome of the fuzzing campaign of a single invariant contract.
type CampaignResult struct {
	// ID uniquely identifies the campaign.
	ID string

	// Contract is the invariant contract the campaign asserted.
	Contract *chain.DeployedContract

	// Record holds the outcome of every invariant of Contract.
	Record InvariantRecord

	// Cases holds the calls that did not revert.
	Cases *FuzzedCases

	// Runs is the number of runs executed.
	Runs int

	// Calls is the number of calls executed, reverted ones included.
	Calls int

	// Reverts is the number of calls which reverted.
	Reverts int

	// RevertFailure is set if the campaign ended because a call reverted while FailOnRevert was enabled.
	RevertFailure *RevertFailure

	// Warnings describes the target selection accessors that could not be queried or are missing.
	Warnings []TargetSelectionWarning
}

// Failed reports whether an invariant was violated, or the campaign ended on a reverted call.
func (r *CampaignResult) Failed() bool {
	return r.Record.ViolatedCount() > 0 || r.RevertFailure != nil
}

// RevertPercentage returns the share of reverted calls in percent, rounded to two decimal places.
func (r *CampaignResult) RevertPercentage() decimal.Decimal {
	if r.Calls == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(r.Reverts)).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(int64(r.Calls))).Round(2)
}

// Log returns a logging.LogBuffer reporting every invariant as held or failed, the failing sequences, and call
// statistics.
func (r *CampaignResult) Log() *logging.LogBuffer {
	buffer := logging.NewLogBuffer()
	for _, name := range r.Record.Names() {
		failure := r.Record[name]
		if failure == nil {
			buffer.Append(colors.GreenBold, "[PASSED] ", colors.Bold, r.Contract.Name, ".", name, colors.Reset, "\n")
			continue
		}

		buffer.Append(colors.RedBold, "[FAILED] ", colors.Bold, r.Contract.Name, ".", name, colors.Reset, "\n")
		if failure.Reverted {
			buffer.Append(colors.Red, "Reason: ", colors.Reset, failure.RevertReason, "\n")
		} else {
			buffer.Append(colors.Red, "Reason: ", colors.Reset, "the invariant returned false\n")
		}
		if len(failure.Sequence) == 0 {
			buffer.Append("The invariant did not hold before any call was made\n")
		} else {
			buffer.Append(fmt.Sprintf("Call sequence (length %d):\n", len(failure.Sequence)))
			buffer.Append(failure.Sequence.Log().Args()...)
		}
	}

	if r.RevertFailure != nil {
		buffer.Append(colors.RedBold, "[FAILED] ", colors.Bold, r.Contract.Name, " reverted", colors.Reset, "\n")
		buffer.Append(colors.Red, "Reason: ", colors.Reset, r.RevertFailure.RevertReason, "\n")
		buffer.Append(fmt.Sprintf("Call sequence (length %d):\n", len(r.RevertFailure.Sequence)))
		buffer.Append(r.RevertFailure.Sequence.Log().Args()...)
	}

	lowest, _ := r.Cases.Lowest()
	highest, _ := r.Cases.Highest()
	buffer.Append(colors.Bold, "runs: ", colors.Reset, r.Runs,
		colors.Bold, ", calls: ", colors.Reset, r.Calls,
		colors.Bold, ", reverts: ", colors.Reset, fmt.Sprintf("%d (%s%%)", r.Reverts, r.RevertPercentage().StringFixed(2)), "\n")
	buffer.Append(colors.Bold, "gas: ", colors.Reset,
		fmt.Sprintf("median %d, mean %s, lowest %d, highest %d", r.Cases.Median(), r.Cases.MeanDecimal().StringFixed(2), lowest, highest))
	return buffer
}
