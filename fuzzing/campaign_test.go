package fuzzing

import (
	"math/big"
	"testing"

	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/tenet/chain"
	"github.com/crytic/tenet/chain/simulated"
	"github.com/crytic/tenet/chain/simulated/harnesses"
	"github.com/crytic/tenet/fuzzing/calls"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"
)

// TestCampaignCounterViolation runs the counter harness and verifies the bounded counter invariant is violated by a
// short sequence while the trivial invariant holds.
func TestCampaignCounterViolation(t *testing.T) {
	fuzzingConfig := testFuzzingConfig()
	backend := deployHarness(t, "counter", fuzzingConfig)
	campaign := newTestCampaign(t, backend, "CounterInvariants", fuzzingConfig)
	assert.Len(t, campaign.Selection().Targets, 3)

	result, err := campaign.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Failed())
	assert.Nil(t, result.Record["invariant_alwaysTrue"])

	failure := result.Record["invariant_counterBounded"]
	require.NotNil(t, failure)
	assert.NotEmpty(t, failure.Sequence)
	assert.LessOrEqual(t, len(failure.Sequence), 5)
	assert.False(t, failure.Reverted)

	// The trivial invariant never fails, so every run is executed
	assert.Equal(t, fuzzingConfig.Runs, result.Runs)

	// The reported sequence violates the invariant again when replayed from the clean state
	record, err := ReplaySequence(backend, backend.Snapshot(), campaign.Contract(), campaign.Invariants(), failure.Sequence, fuzzingConfig.TransactionGasLimit)
	require.NoError(t, err)
	assert.True(t, record.Violated("invariant_counterBounded"))
	assert.False(t, record.Violated("invariant_alwaysTrue"))
}

// TestCampaignTokenSelfTransfer runs the token harness and verifies the supply invariant is violated by a transfer
// from a sender to itself, sent by one of the targeted senders.
func TestCampaignTokenSelfTransfer(t *testing.T) {
	fuzzingConfig := testFuzzingConfig()
	fuzzingConfig.Runs = 1000
	fuzzingConfig.Depth = 10
	backend := deployHarness(t, "token", fuzzingConfig)
	campaign := newTestCampaign(t, backend, "TokenInvariants", fuzzingConfig)

	result, err := campaign.Run(context.Background())
	require.NoError(t, err)
	assert.Nil(t, result.Record["invariant_supplyConstant"])

	failure := result.Record["invariant_supplyConserved"]
	require.NotNil(t, failure)
	require.NotEmpty(t, failure.Sequence)

	senders := testSenders(t, fuzzingConfig)[:2]
	last := failure.Sequence[len(failure.Sequence)-1]
	assert.Equal(t, "transfer", last.Method.Name)
	assert.Equal(t, last.Sender, last.Args[0])
	assert.Contains(t, senders, last.Sender)
	assert.Positive(t, last.Args[1].(*big.Int).Sign())
}

// TestCampaignDeterminism verifies two campaigns with the same seed produce the same statistics and failures.
func TestCampaignDeterminism(t *testing.T) {
	fuzzingConfig := testFuzzingConfig()
	results := make([]*CampaignResult, 2)
	for i := range results {
		backend := deployHarness(t, "counter", fuzzingConfig)
		result, err := newTestCampaign(t, backend, "CounterInvariants", fuzzingConfig).Run(context.Background())
		require.NoError(t, err)
		results[i] = result
	}

	assert.Equal(t, results[0].Runs, results[1].Runs)
	assert.Equal(t, results[0].Calls, results[1].Calls)
	assert.Equal(t, results[0].Reverts, results[1].Reverts)
	assert.Equal(t, results[0].Cases.Cases(), results[1].Cases.Cases())

	first := results[0].Record["invariant_counterBounded"]
	second := results[1].Record["invariant_counterBounded"]
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first.Sequence.String(), second.Sequence.String())
}

// TestCampaignExclusions verifies generated calls never target the invariant contract, excluded contracts or reserved
// addresses, and are only sent from targeted senders, with functions restricted by targetSelectors.
func TestCampaignExclusions(t *testing.T) {
	fuzzingConfig := testFuzzingConfig()
	backend := deployHarness(t, "token", fuzzingConfig)
	campaign := newTestCampaign(t, backend, "TokenInvariants", fuzzingConfig)

	asserting := findDeployed(t, backend, "TokenInvariants")
	faucet := findDeployed(t, backend, "Faucet")
	token := findDeployed(t, backend, "Token")
	senders := testSenders(t, fuzzingConfig)[:2]

	for i := 0; i < 1000; i++ {
		sequence, err := campaign.generator.NewSequence()
		require.NoError(t, err)
		require.NotEmpty(t, sequence)
		require.LessOrEqual(t, len(sequence), fuzzingConfig.Depth)

		for _, element := range sequence {
			assert.NotEqual(t, asserting.Address, element.Target)
			assert.NotEqual(t, faucet.Address, element.Target)
			assert.NotEqual(t, chain.CheatCodeAddress, element.Target)
			assert.NotEqual(t, chain.ConsoleLogAddress, element.Target)
			assert.Equal(t, token.Address, element.Target)
			assert.Equal(t, "transfer", element.Method.Name)
			assert.Contains(t, senders, element.Sender)
		}
	}
}

// TestCampaignFailOnRevert verifies a reverted call ends the campaign when FailOnRevert is set, with the decoded
// revert reason and the sequence ending with the reverted call.
func TestCampaignFailOnRevert(t *testing.T) {
	fuzzingConfig := testFuzzingConfig()
	fuzzingConfig.FailOnRevert = true
	backend := deployHarness(t, "token", fuzzingConfig)
	campaign := newTestCampaign(t, backend, "TokenInvariants", fuzzingConfig)

	result, err := campaign.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result.RevertFailure)
	assert.True(t, result.Failed())
	assert.Equal(t, "insufficient balance", result.RevertFailure.RevertReason)
	assert.Positive(t, result.Reverts)

	require.NotEmpty(t, result.RevertFailure.Sequence)
	last := result.RevertFailure.Sequence[len(result.RevertFailure.Sequence)-1]
	assert.Equal(t, "transfer", last.Method.Name)
}

// TestCampaignBackendFault verifies a backend error aborts the campaign with a BackendFatalError wrapping it.
func TestCampaignBackendFault(t *testing.T) {
	fuzzingConfig := testFuzzingConfig()
	backend := deployHarness(t, "counter", fuzzingConfig)
	faulty := &faultyBackend{Backend: backend, healthyCommits: 3}

	campaign, err := newCampaignOn(t, backend, faulty, "CounterInvariants", fuzzingConfig)
	require.NoError(t, err)

	result, err := campaign.Run(context.Background())
	assert.Nil(t, result)
	var fatal *BackendFatalError
	require.ErrorAs(t, err, &fatal)
	assert.Contains(t, fatal.Err.Error(), "state database is unavailable")
	assert.Equal(t, 4, faulty.commits)
}

// TestCampaignStatistics verifies the call counters agree with the recorded cases and gas statistics.
func TestCampaignStatistics(t *testing.T) {
	fuzzingConfig := testFuzzingConfig()
	backend := deployHarness(t, "token", fuzzingConfig)
	result, err := newTestCampaign(t, backend, "TokenInvariants", fuzzingConfig).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, result.Calls, result.Reverts+result.Cases.Len())
	assert.Positive(t, result.Calls)

	lowest, lowestCase := result.Cases.Lowest()
	highest, highestCase := result.Cases.Highest()
	if result.Cases.Len() > 0 {
		require.NotNil(t, lowestCase)
		require.NotNil(t, highestCase)
		assert.LessOrEqual(t, lowest, result.Cases.Median())
		assert.LessOrEqual(t, result.Cases.Median(), highest)
		assert.LessOrEqual(t, lowest, result.Cases.Mean())
		assert.LessOrEqual(t, result.Cases.Mean(), highest)
		for _, c := range result.Cases.Cases() {
			assert.GreaterOrEqual(t, c.GasUsed, c.GasStipend)
		}
	}
	assert.Contains(t, result.Log().String(), "runs: ")
}

// TestCampaignCleanStateViolation verifies an invariant which does not hold before any call is reported with an
// empty sequence, and that reverting invariants are reported with their revert reason.
func TestCampaignCleanStateViolation(t *testing.T) {
	fuzzingConfig := testFuzzingConfig()
	backend, err := simulated.NewBackend(fuzzingConfig.BackendVersion)
	require.NoError(t, err)

	target := simulated.NewContractDefinition("Target")
	target.AddMethod("poke", "nonpayable", nil, nil, func(ctx *simulated.CallContext, args []any) ([]any, error) {
		return nil, nil
	})
	_, err = backend.Deploy(target)
	require.NoError(t, err)

	invariants := simulated.NewContractDefinition("BrokenInvariants")
	invariants.AddMethod("invariant_false", "view", nil, simulated.Args("bool"), func(ctx *simulated.CallContext, args []any) ([]any, error) {
		return []any{false}, nil
	})
	invariants.AddMethod("invariant_reverts", "view", nil, simulated.Args("bool"), func(ctx *simulated.CallContext, args []any) ([]any, error) {
		return nil, ctx.Revert("never holds")
	})
	_, err = backend.Deploy(invariants)
	require.NoError(t, err)

	result, err := newTestCampaign(t, backend, "BrokenInvariants", fuzzingConfig).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Runs)
	assert.True(t, result.Record.AllViolated())

	falseFailure := result.Record["invariant_false"]
	require.NotNil(t, falseFailure)
	assert.Empty(t, falseFailure.Sequence)
	assert.False(t, falseFailure.Reverted)

	revertFailure := result.Record["invariant_reverts"]
	require.NotNil(t, revertFailure)
	assert.Empty(t, revertFailure.Sequence)
	assert.True(t, revertFailure.Reverted)
	assert.Equal(t, "never holds", revertFailure.RevertReason)
	assert.Contains(t, result.Log().String(), "did not hold before any call was made")
}

// TestNewCampaignErrors verifies campaigns cannot be created for contracts without usable invariants or targets.
func TestNewCampaignErrors(t *testing.T) {
	fuzzingConfig := testFuzzingConfig()
	backend, err := simulated.NewBackend(fuzzingConfig.BackendVersion)
	require.NoError(t, err)

	noInvariants := simulated.NewContractDefinition("NoInvariants")
	noInvariants.AddMethod("poke", "nonpayable", nil, nil, func(ctx *simulated.CallContext, args []any) ([]any, error) {
		return nil, nil
	})
	_, err = backend.Deploy(noInvariants)
	require.NoError(t, err)

	withInputs := simulated.NewContractDefinition("InputInvariants")
	withInputs.AddMethod("invariant_input", "view", simulated.Args("uint256"), simulated.Args("bool"), func(ctx *simulated.CallContext, args []any) ([]any, error) {
		return []any{true}, nil
	})
	_, err = backend.Deploy(withInputs)
	require.NoError(t, err)

	_, err = newCampaignOn(t, backend, backend, "NoInvariants", fuzzingConfig)
	assert.ErrorContains(t, err, "no invariants found")

	_, err = newCampaignOn(t, backend, backend, "InputInvariants", fuzzingConfig)
	assert.ErrorContains(t, err, "should have no inputs")

	// Nothing but the invariant contract itself is deployed
	lonely, err := simulated.NewBackend(fuzzingConfig.BackendVersion)
	require.NoError(t, err)
	alone := simulated.NewContractDefinition("AloneInvariants")
	alone.AddMethod("invariant_ok", "view", nil, simulated.Args("bool"), func(ctx *simulated.CallContext, args []any) ([]any, error) {
		return []any{true}, nil
	})
	_, err = lonely.Deploy(alone)
	require.NoError(t, err)

	_, err = newCampaignOn(t, lonely, lonely, "AloneInvariants", fuzzingConfig)
	assert.ErrorContains(t, err, "no contracts to fuzz")
}

// TestCampaignCancelled verifies a cancelled context stops the campaign before its first run.
func TestCampaignCancelled(t *testing.T) {
	fuzzingConfig := testFuzzingConfig()
	backend := deployHarness(t, "counter", fuzzingConfig)
	campaign := newTestCampaign(t, backend, "CounterInvariants", fuzzingConfig)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := campaign.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Runs)
	assert.Zero(t, result.Calls)
	assert.False(t, result.Failed())
}

// TestShrinkingRemovesCalls verifies shrinking removes the calls a violation does not depend on and does not grow the
// sequence.
func TestShrinkingRemovesCalls(t *testing.T) {
	fuzzingConfig := testFuzzingConfig()
	backend := deployHarness(t, "counter", fuzzingConfig)
	campaign := newTestCampaign(t, backend, "CounterInvariants", fuzzingConfig)

	counter := findDeployed(t, backend, "Counter")
	registry := findDeployed(t, backend, "Registry")
	toggle := findDeployed(t, backend, "Toggle")
	sender := testSenders(t, fuzzingConfig)[0]

	sequence := []struct {
		contract *chain.DeployedContract
		method   string
		args     []any
	}{
		{toggle, "toggle", nil},
		{registry, "setValue", []any{big.NewInt(5)}},
		{counter, "increment", []any{uint8(4)}},
		{toggle, "setOwner", []any{common.HexToAddress("0x1234")}},
		{counter, "increment", []any{uint8(200)}},
		{toggle, "toggle", nil},
	}
	original := make(calls.CallSequence, 0, len(sequence))
	for _, call := range sequence {
		method := call.contract.ABI.Methods[call.method]
		element, err := calls.NewCallSequenceElement(sender, call.contract.Address, call.contract.Name, &method, call.args)
		require.NoError(t, err)
		original = append(original, element)
	}

	state := &campaignState{
		cleanSnapshot: backend.Snapshot(),
		result:        &CampaignResult{Record: NewInvariantRecord(campaign.checker.names())},
	}
	record, err := campaign.checker.replay(state.cleanSnapshot, original)
	require.NoError(t, err)
	require.NotNil(t, record["invariant_counterBounded"])
	assert.Len(t, record["invariant_counterBounded"].Sequence, 5)
	state.result.Record = record

	require.NoError(t, campaign.shrinkFailures(context.Background(), state))
	shrunk := state.result.Record["invariant_counterBounded"]
	require.Len(t, shrunk.Sequence, 1)
	assert.Equal(t, "increment", shrunk.Sequence[0].Method.Name)
	amount := shrunk.Sequence[0].Args[0].(uint8)
	assert.Greater(t, amount, uint8(harnesses.CounterBound))
	assert.LessOrEqual(t, amount, uint8(200))
	assert.Nil(t, state.result.Record["invariant_alwaysTrue"])
}

// TestBackendFatalErrorUnwrap verifies the campaign error types expose their cause.
func TestBackendFatalErrorUnwrap(t *testing.T) {
	cause := errors.New("cause")
	assert.ErrorIs(t, &BackendFatalError{Operation: "testing", Err: cause}, cause)
	assert.ErrorIs(t, &EncodingError{Method: "f()", Err: cause}, cause)
	assert.Equal(t, "backend fault while testing: cause", (&BackendFatalError{Operation: "testing", Err: cause}).Error())
}
