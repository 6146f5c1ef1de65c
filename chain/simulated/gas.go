package simulated

import "github.com/crytic/medusa-geth/params"

const (
	// gasStorageRead is charged for every storage read.
	gasStorageRead = params.ColdSloadCostEIP2929

	// gasStorageSet is charged for a write turning a zero slot non-zero.
	gasStorageSet = params.SstoreSetGasEIP2200

	// gasStorageReset is charged for every other storage write.
	gasStorageReset = params.SstoreResetGasEIP2200 - params.ColdSloadCostEIP2929

	// gasCall is charged for a nested call.
	gasCall = params.ColdAccountAccessCostEIP2929

	// maxCallDepth is the maximum depth of nested calls.
	maxCallDepth = int(params.CallCreateDepth)
)

// intrinsicGas computes the cost charged for a call before execution begins: a base cost plus a cost per calldata
// byte, depending on whether it is zero.
func intrinsicGas(data []byte) uint64 {
	gas := params.TxGas
	for _, b := range data {
		if b == 0 {
			gas += params.TxDataZeroGas
		} else {
			gas += params.TxDataNonZeroGasEIP2028
		}
	}
	return gas
}

// gasMeter tracks the execution gas of a call and all its nested calls.
type gasMeter struct {
	// limit is the execution gas available.
	limit uint64

	// used is the execution gas consumed so far. It may exceed limit, in which case the call runs out of gas.
	used uint64
}

// consume charges amount to the meter.
func (g *gasMeter) consume(amount uint64) {
	g.used += amount
}

// exhausted indicates the meter consumed more than its limit.
func (g *gasMeter) exhausted() bool {
	return g.used > g.limit
}
