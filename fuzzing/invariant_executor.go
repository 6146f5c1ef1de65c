package fuzzing

import (
	"github.com/crytic/tenet/chain"
	"github.com/crytic/tenet/compilation/abiutils"
	"github.com/crytic/tenet/fuzzing/calls"
	"github.com/crytic/tenet/logging"
	"github.com/crytic/tenet/logging/colors"
	"github.com/crytic/tenet/utils"
	"golang.org/x/net/context"
)

// runContext holds the state of a single run: the calls executed so far and whether the run was aborted.
type runContext struct {
	// index is the zero-based index of the run in the campaign.
	index int

	// length is the number of calls the run executes unless it is aborted.
	length int

	// sequence holds the calls executed so far, reverted ones included.
	sequence calls.CallSequence

	// aborted indicates the run ended before executing length calls.
	aborted bool
}

// campaignState holds the state accumulated across the runs of a campaign.
type campaignState struct {
	// cleanSnapshot is the state every run starts from.
	cleanSnapshot chain.SnapshotID

	// result is the result being accumulated.
	result *CampaignResult

	// cases holds the calls which did not revert, in execution order.
	cases []FuzzCase
}

// Run executes the campaign: it asserts the invariants on the clean state, then executes up to Runs call sequences,
// each from the clean state, asserting every unviolated invariant after each call that does not revert. The campaign
// ends early when ctx is cancelled, when every invariant is violated and StopOnAllViolated is set, or when a call
// reverts and FailOnRevert is set. Failing sequences are shrunk if ShrinkSequence is set. The backend is left in the
// clean state.
// Returns the result, or a BackendFatalError or EncodingError which aborts the campaign.
func (c *Campaign) Run(ctx context.Context) (*CampaignResult, error) {
	state := &campaignState{
		cleanSnapshot: c.backend.Snapshot(),
		result: &CampaignResult{
			ID:       c.id,
			Contract: c.contract,
			Record:   NewInvariantRecord(c.checker.names()),
			Warnings: c.selection.Warnings,
		},
	}
	c.logger.Info("Fuzzing ", colors.Bold, c.contract.Name, colors.Reset, " with ", len(c.selection.Targets),
		" target(s) and ", len(c.checker.invariants), " invariant(s)")

	// Invariants must hold before any call is made
	if _, err := c.checker.check(state.result.Record, calls.CallSequence{}); err != nil {
		return nil, err
	}

	for run := 0; run < c.config.Runs; run++ {
		if utils.CheckContextDone(ctx) {
			c.logger.Info("Campaign cancelled after ", run, " run(s)")
			break
		}
		if c.config.StopOnAllViolated && state.result.Record.AllViolated() {
			break
		}
		if state.result.RevertFailure != nil {
			break
		}

		rc := &runContext{index: run}
		if err := c.executeRun(state, rc); err != nil {
			return nil, err
		}
		state.result.Runs++
	}

	if c.config.ShrinkSequence {
		if err := c.shrinkFailures(ctx, state); err != nil {
			return nil, err
		}
	}
	if err := c.backend.Restore(state.cleanSnapshot); err != nil {
		return nil, &BackendFatalError{Operation: "restoring the clean state", Err: err}
	}

	state.result.Cases = NewFuzzedCases(state.cases)
	c.logResult(state.result)
	return state.result, nil
}

// executeRun restores the clean state and executes the calls of a single run.
func (c *Campaign) executeRun(state *campaignState, rc *runContext) error {
	if err := c.backend.Restore(state.cleanSnapshot); err != nil {
		return &BackendFatalError{Operation: "restoring the clean state", Err: err}
	}

	rc.length = c.generator.NextLength()
	for i := 0; i < rc.length && !rc.aborted; i++ {
		if err := c.executeCall(state, rc); err != nil {
			return err
		}
	}
	return nil
}

// executeCall draws the next call of the run, commits it and, if it did not revert, asserts the invariants.
func (c *Campaign) executeCall(state *campaignState, rc *runContext) error {
	element, err := c.generator.NextCall()
	if err != nil {
		return err
	}
	rc.sequence = append(rc.sequence, element)

	result, err := c.backend.CommitCall(element.Message(c.config.TransactionGasLimit))
	if err != nil {
		return &BackendFatalError{Operation: "executing " + element.String(), Err: err}
	}
	state.result.Calls++

	if result.Reverted {
		state.result.Reverts++
		if c.config.FailOnRevert {
			state.result.RevertFailure = &RevertFailure{
				Sequence:     rc.sequence.Clone(),
				ReturnData:   result.ReturnData,
				RevertReason: abiutils.DecodeRevertReason(result.ReturnData, c.targetAbis[element.Target]),
			}
			rc.aborted = true
		}
		return nil
	}

	state.cases = append(state.cases, FuzzCase{
		Calldata:   element.Data,
		GasUsed:    result.GasUsed,
		GasStipend: result.GasStipend,
	})

	violated, err := c.checker.check(state.result.Record, rc.sequence)
	if err != nil {
		return err
	}
	if violated {
		c.logger.Debug("Run ", rc.index, " violated an invariant after ", len(rc.sequence), " call(s)")
		rc.aborted = true
	}
	return nil
}

// logResult reports the campaign result.
func (c *Campaign) logResult(result *CampaignResult) {
	info := logging.StructuredLogInfo{
		"runs":     result.Runs,
		"calls":    result.Calls,
		"reverts":  result.Reverts,
		"violated": result.Record.ViolatedCount(),
	}
	if result.Failed() {
		c.logger.Error(result.Log(), info)
	} else {
		c.logger.Info(result.Log(), info)
	}
}
