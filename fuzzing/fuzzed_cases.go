package fuzzing

import (
	"math/big"
	"sort"

	"github.com/shopspring/decimal"
)

// FuzzCase describes a call which executed without reverting.
type FuzzCase struct {
	// Calldata is the calldata of the call.
	Calldata []byte

	// GasUsed is the total gas the call consumed.
	GasUsed uint64

	// GasStipend is the intrinsic gas charged for the call before it executed.
	GasStipend uint64
}

// FuzzedCases holds the FuzzCase entries of a campaign, sorted ascending by gas used.
type FuzzedCases struct {
	// cases are sorted ascending by GasUsed. Cases with equal gas keep their recording order.
	cases []FuzzCase
}

// NewFuzzedCases creates a FuzzedCases from cases in recording order.
func NewFuzzedCases(cases []FuzzCase) *FuzzedCases {
	sorted := append([]FuzzCase(nil), cases...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].GasUsed < sorted[j].GasUsed
	})
	return &FuzzedCases{cases: sorted}
}

// Cases returns the cases, sorted ascending by gas used.
func (f *FuzzedCases) Cases() []FuzzCase {
	return f.cases
}

// Len returns the number of cases.
func (f *FuzzedCases) Len() int {
	return len(f.cases)
}

// Median returns the gas used by the middle case, or 0 if there are no cases. With an even number of cases, the upper
// of the two middle cases is used.
func (f *FuzzedCases) Median() uint64 {
	if len(f.cases) == 0 {
		return 0
	}
	return f.cases[len(f.cases)/2].GasUsed
}

// Mean returns the average gas used, rounded down, or 0 if there are no cases. The sum is computed without overflow.
func (f *FuzzedCases) Mean() uint64 {
	if len(f.cases) == 0 {
		return 0
	}
	return new(big.Int).Div(f.sum(), big.NewInt(int64(len(f.cases)))).Uint64()
}

// MeanDecimal returns the exact average gas used rounded to two decimal places, or zero if there are no cases.
func (f *FuzzedCases) MeanDecimal() decimal.Decimal {
	if len(f.cases) == 0 {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(f.sum(), 0).Div(decimal.NewFromInt(int64(len(f.cases)))).Round(2)
}

// sum returns the total gas used by every case.
func (f *FuzzedCases) sum() *big.Int {
	total := new(big.Int)
	for _, c := range f.cases {
		total.Add(total, new(big.Int).SetUint64(c.GasUsed))
	}
	return total
}

// Highest returns the gas used by the most expensive case and the case itself, or 0 and nil if there are no cases.
func (f *FuzzedCases) Highest() (uint64, *FuzzCase) {
	if len(f.cases) == 0 {
		return 0, nil
	}
	highest := &f.cases[len(f.cases)-1]
	return highest.GasUsed, highest
}

// Lowest returns the gas used by the cheapest case and the case itself, or 0 and nil if there are no cases.
func (f *FuzzedCases) Lowest() (uint64, *FuzzCase) {
	if len(f.cases) == 0 {
		return 0, nil
	}
	lowest := &f.cases[0]
	return lowest.GasUsed, lowest
}
