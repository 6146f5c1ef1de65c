package harnesses

import (
	"math/big"

	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/tenet/chain/simulated"
	"github.com/holiman/uint256"
)

// CounterBound is the largest count the counter invariant accepts.
const CounterBound = 10

func init() {
	register(&Harness{
		Name:        "counter",
		Description: "three targets, one of which can push a counter past its bound",
		deploy:      deployCounter,
	})
}

// deployCounter deploys the counter harness: a counter, two distractor contracts, and an invariant contract asserting
// the counter stays within CounterBound.
func deployCounter(backend *simulated.Backend, senders []common.Address) error {
	counter := simulated.NewContractDefinition("Counter")
	counter.AddMethod("increment", "nonpayable", simulated.Args("uint8"), nil, func(ctx *simulated.CallContext, args []any) ([]any, error) {
		count := ctx.LoadUint(simulated.Slot(0))
		ctx.StoreUint(simulated.Slot(0), count.Add(count, uint256.NewInt(uint64(args[0].(uint8)))))
		return nil, nil
	})
	counter.AddMethod("count", "view", nil, simulated.Args("uint256"), func(ctx *simulated.CallContext, args []any) ([]any, error) {
		return []any{ctx.LoadUint(simulated.Slot(0)).ToBig()}, nil
	})
	counterAddress, err := backend.Deploy(counter)
	if err != nil {
		return err
	}

	store := simulated.NewContractDefinition("Registry")
	store.AddMethod("setValue", "nonpayable", simulated.Args("uint256"), nil, func(ctx *simulated.CallContext, args []any) ([]any, error) {
		ctx.StoreUint(simulated.Slot(0), uint256.MustFromBig(args[0].(*big.Int)))
		return nil, nil
	})
	store.AddMethod("value", "view", nil, simulated.Args("uint256"), func(ctx *simulated.CallContext, args []any) ([]any, error) {
		return []any{ctx.LoadUint(simulated.Slot(0)).ToBig()}, nil
	})
	registryAddress, err := backend.Deploy(store)
	if err != nil {
		return err
	}

	toggle := simulated.NewContractDefinition("Toggle")
	toggle.AddMethod("toggle", "nonpayable", nil, nil, func(ctx *simulated.CallContext, args []any) ([]any, error) {
		state := ctx.LoadUint(simulated.Slot(0))
		ctx.StoreUint(simulated.Slot(0), new(uint256.Int).Xor(state, uint256.NewInt(1)))
		return nil, nil
	})
	toggle.AddMethod("setOwner", "nonpayable", simulated.Args("address"), nil, func(ctx *simulated.CallContext, args []any) ([]any, error) {
		ctx.Store(simulated.Slot(1), simulated.AddressKey(args[0].(common.Address)))
		return nil, nil
	})
	toggleAddress, err := backend.Deploy(toggle)
	if err != nil {
		return err
	}

	invariants := simulated.NewContractDefinition("CounterInvariants")
	invariants.AddMethod("targetContracts", "view", nil, simulated.Args("address[]"), func(ctx *simulated.CallContext, args []any) ([]any, error) {
		return []any{[]common.Address{counterAddress, registryAddress, toggleAddress}}, nil
	})
	invariants.AddMethod("invariant_counterBounded", "view", nil, simulated.Args("bool"), func(ctx *simulated.CallContext, args []any) ([]any, error) {
		out, err := ctx.CallMethod(counterAddress, counter.ABI, "count")
		if err != nil {
			return nil, err
		}
		return []any{out[0].(*big.Int).Cmp(big.NewInt(CounterBound)) <= 0}, nil
	})
	invariants.AddMethod("invariant_alwaysTrue", "view", nil, simulated.Args("bool"), func(ctx *simulated.CallContext, args []any) ([]any, error) {
		return []any{true}, nil
	})
	_, err = backend.Deploy(invariants)
	return err
}
