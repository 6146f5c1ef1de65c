package fuzzing

import (
	"math"
	"testing"

	"github.com/crytic/tenet/chain"
	"github.com/crytic/tenet/fuzzing/calls"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFuzzedCasesEmpty verifies the statistics of an empty FuzzedCases are zero.
func TestFuzzedCasesEmpty(t *testing.T) {
	cases := NewFuzzedCases(nil)
	assert.Zero(t, cases.Len())
	assert.Zero(t, cases.Median())
	assert.Zero(t, cases.Mean())
	assert.True(t, cases.MeanDecimal().IsZero())

	gas, highest := cases.Highest()
	assert.Zero(t, gas)
	assert.Nil(t, highest)
	gas, lowest := cases.Lowest()
	assert.Zero(t, gas)
	assert.Nil(t, lowest)
}

// TestFuzzedCasesStatistics verifies cases are sorted by gas and their median, mean and extremes.
func TestFuzzedCasesStatistics(t *testing.T) {
	cases := NewFuzzedCases([]FuzzCase{
		{Calldata: []byte{1}, GasUsed: 30_000, GasStipend: 21_016},
		{Calldata: []byte{2}, GasUsed: 21_500, GasStipend: 21_016},
		{Calldata: []byte{3}, GasUsed: 50_001, GasStipend: 21_016},
		{Calldata: []byte{4}, GasUsed: 25_000, GasStipend: 21_016},
	})
	require.Equal(t, 4, cases.Len())

	sorted := cases.Cases()
	for i := 1; i < len(sorted); i++ {
		assert.LessOrEqual(t, sorted[i-1].GasUsed, sorted[i].GasUsed)
	}

	// The upper middle case is the median of an even number of cases
	assert.EqualValues(t, 30_000, cases.Median())
	assert.EqualValues(t, 31_625, cases.Mean())
	assert.Equal(t, "31625.25", cases.MeanDecimal().StringFixed(2))

	gas, highest := cases.Highest()
	assert.EqualValues(t, 50_001, gas)
	assert.Equal(t, []byte{3}, highest.Calldata)
	gas, lowest := cases.Lowest()
	assert.EqualValues(t, 21_500, gas)
	assert.Equal(t, []byte{2}, lowest.Calldata)
}

// TestFuzzedCasesMeanOverflow verifies the mean of gas values whose sum exceeds uint64 is exact.
func TestFuzzedCasesMeanOverflow(t *testing.T) {
	cases := NewFuzzedCases([]FuzzCase{
		{GasUsed: math.MaxUint64},
		{GasUsed: math.MaxUint64 - 1},
		{GasUsed: math.MaxUint64},
	})
	assert.EqualValues(t, uint64(math.MaxUint64-1), cases.Mean())
	assert.EqualValues(t, uint64(math.MaxUint64), cases.Median())
}

// TestInvariantRecord verifies the record starts unviolated and reports failures in name order.
func TestInvariantRecord(t *testing.T) {
	record := NewInvariantRecord([]string{"invariant_b", "invariant_a", "invariant_c"})
	assert.Equal(t, []string{"invariant_a", "invariant_b", "invariant_c"}, record.Names())
	assert.Zero(t, record.ViolatedCount())
	assert.False(t, record.AllViolated())
	assert.Empty(t, record.Failures())

	record["invariant_c"] = &InvariantFailure{Invariant: "invariant_c"}
	record["invariant_a"] = &InvariantFailure{Invariant: "invariant_a"}
	assert.True(t, record.Violated("invariant_a"))
	assert.False(t, record.Violated("invariant_b"))
	assert.Equal(t, 2, record.ViolatedCount())
	require.Len(t, record.Failures(), 2)
	assert.Equal(t, "invariant_a", record.Failures()[0].Invariant)
	assert.Equal(t, "invariant_c", record.Failures()[1].Invariant)

	record["invariant_b"] = &InvariantFailure{Invariant: "invariant_b"}
	assert.True(t, record.AllViolated())
}

// TestCampaignResultLog verifies the report lists held and failed invariants and the call statistics.
func TestCampaignResultLog(t *testing.T) {
	result := &CampaignResult{
		Contract: &chain.DeployedContract{Name: "Invariants"},
		Record:   NewInvariantRecord([]string{"invariant_held", "invariant_broken"}),
		Cases:    NewFuzzedCases([]FuzzCase{{GasUsed: 100}, {GasUsed: 300}}),
		Runs:     4,
		Calls:    8,
		Reverts:  3,
	}
	assert.False(t, result.Failed())
	assert.Equal(t, "37.50", result.RevertPercentage().StringFixed(2))

	result.Record["invariant_broken"] = &InvariantFailure{
		Invariant:    "invariant_broken",
		Sequence:     calls.CallSequence{},
		Reverted:     true,
		RevertReason: "overflow",
	}
	assert.True(t, result.Failed())

	text := result.Log().String()
	assert.Contains(t, text, "[PASSED] Invariants.invariant_held")
	assert.Contains(t, text, "[FAILED] Invariants.invariant_broken")
	assert.Contains(t, text, "Reason: overflow")
	assert.Contains(t, text, "runs: 4, calls: 8, reverts: 3 (37.50%)")
	assert.Contains(t, text, "gas: median 300, mean 200.00, lowest 100, highest 300")
}
