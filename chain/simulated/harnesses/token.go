package harnesses

import (
	"math/big"

	"github.com/crytic/medusa-geth/accounts/abi"
	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/tenet/chain/simulated"
	"github.com/holiman/uint256"
)

// TokenInitialBalance is the balance every sender is minted when the token harness is deployed.
const TokenInitialBalance = 1000

// Storage layout of the token.
const (
	tokenSupplySlot   = 0
	tokenBalancesSlot = 1
	tokenAllowedSlot  = 2
	tokenHolderCount  = 3
	tokenKnownHolders = 4
	tokenHoldersSlot  = 5
)

func init() {
	register(&Harness{
		Name:        "token",
		Description: "a token whose self-transfers mint balance, breaking supply accounting",
		deploy:      deployToken,
	})
}

// addHolder records addr in the holder list unless it is already present.
func addHolder(ctx *simulated.CallContext, addr common.Address) {
	knownSlot := simulated.MappingSlot(simulated.AddressKey(addr), tokenKnownHolders)
	if !ctx.LoadUint(knownSlot).IsZero() {
		return
	}
	count := ctx.LoadUint(simulated.Slot(tokenHolderCount))
	ctx.Store(simulated.MappingSlot(common.Hash(count.Bytes32()), tokenHoldersSlot), simulated.AddressKey(addr))
	ctx.StoreUint(simulated.Slot(tokenHolderCount), new(uint256.Int).AddUint64(count, 1))
	ctx.StoreUint(knownSlot, uint256.NewInt(1))
}

// fuzzSelector is the element type returned by targetSelectors.
type fuzzSelector struct {
	Addr      common.Address
	Selectors [][4]byte
}

// deployToken deploys the token harness: a token, a faucet excluded from fuzzing, and an invariant contract asserting
// that the balances of every holder add up to the total supply.
func deployToken(backend *simulated.Backend, senders []common.Address) error {
	token := simulated.NewContractDefinition("Token")
	token.Setup = func(ctx *simulated.CallContext) error {
		for _, sender := range senders {
			ctx.StoreUint(simulated.MappingSlot(simulated.AddressKey(sender), tokenBalancesSlot), uint256.NewInt(TokenInitialBalance))
			addHolder(ctx, sender)
		}
		ctx.StoreUint(simulated.Slot(tokenSupplySlot), uint256.NewInt(uint64(TokenInitialBalance*len(senders))))
		return nil
	}
	token.AddMethod("transfer", "nonpayable", simulated.Args("address", "uint256"), simulated.Args("bool"), func(ctx *simulated.CallContext, args []any) ([]any, error) {
		to := args[0].(common.Address)
		amount := uint256.MustFromBig(args[1].(*big.Int))

		fromSlot := simulated.MappingSlot(simulated.AddressKey(ctx.Caller()), tokenBalancesSlot)
		toSlot := simulated.MappingSlot(simulated.AddressKey(to), tokenBalancesSlot)
		fromBalance := ctx.LoadUint(fromSlot)
		toBalance := ctx.LoadUint(toSlot)
		if err := ctx.Require(!fromBalance.Lt(amount), "insufficient balance"); err != nil {
			return nil, err
		}

		// Both balances are read before either is written, so a transfer to oneself credits the amount twice
		ctx.StoreUint(fromSlot, new(uint256.Int).Sub(fromBalance, amount))
		ctx.StoreUint(toSlot, new(uint256.Int).Add(toBalance, amount))
		addHolder(ctx, to)
		return []any{true}, nil
	})
	token.AddMethod("approve", "nonpayable", simulated.Args("address", "uint256"), simulated.Args("bool"), func(ctx *simulated.CallContext, args []any) ([]any, error) {
		ownerSlot := simulated.MappingSlot(simulated.AddressKey(ctx.Caller()), tokenAllowedSlot)
		slot := simulated.MappingSlotAt(simulated.AddressKey(args[0].(common.Address)), ownerSlot)
		ctx.StoreUint(slot, uint256.MustFromBig(args[1].(*big.Int)))
		return []any{true}, nil
	})
	token.AddMethod("balanceOf", "view", simulated.Args("address"), simulated.Args("uint256"), func(ctx *simulated.CallContext, args []any) ([]any, error) {
		slot := simulated.MappingSlot(simulated.AddressKey(args[0].(common.Address)), tokenBalancesSlot)
		return []any{ctx.LoadUint(slot).ToBig()}, nil
	})
	token.AddMethod("holders", "view", nil, simulated.Args("address[]"), func(ctx *simulated.CallContext, args []any) ([]any, error) {
		count := ctx.LoadUint(simulated.Slot(tokenHolderCount)).Uint64()
		holders := make([]common.Address, 0, count)
		for i := uint64(0); i < count; i++ {
			key := common.Hash(uint256.NewInt(i).Bytes32())
			holders = append(holders, common.BytesToAddress(ctx.Load(simulated.MappingSlot(key, tokenHoldersSlot)).Bytes()))
		}
		return []any{holders}, nil
	})
	token.AddMethod("totalSupply", "view", nil, simulated.Args("uint256"), func(ctx *simulated.CallContext, args []any) ([]any, error) {
		return []any{ctx.LoadUint(simulated.Slot(tokenSupplySlot)).ToBig()}, nil
	})
	tokenAddress, err := backend.Deploy(token)
	if err != nil {
		return err
	}

	faucet := simulated.NewContractDefinition("Faucet")
	faucet.AddMethod("drip", "nonpayable", nil, nil, func(ctx *simulated.CallContext, args []any) ([]any, error) {
		drips := ctx.LoadUint(simulated.Slot(0))
		ctx.StoreUint(simulated.Slot(0), drips.AddUint64(drips, 1))
		return nil, nil
	})
	faucetAddress, err := backend.Deploy(faucet)
	if err != nil {
		return err
	}

	selectorsType, err := abi.NewType("tuple[]", "", []abi.ArgumentMarshaling{
		{Name: "addr", Type: "address"},
		{Name: "selectors", Type: "bytes4[]"},
	})
	if err != nil {
		return err
	}
	var transferSelector [4]byte
	copy(transferSelector[:], token.ABI.Methods["transfer"].ID)

	// Calls are sent from the first two senders only, so the third sender's balance never changes
	targetSenders := senders
	if len(targetSenders) > 2 {
		targetSenders = targetSenders[:2]
	}

	invariants := simulated.NewContractDefinition("TokenInvariants")
	invariants.AddMethod("excludeContracts", "view", nil, simulated.Args("address[]"), func(ctx *simulated.CallContext, args []any) ([]any, error) {
		return []any{[]common.Address{faucetAddress}}, nil
	})
	invariants.AddMethod("targetSenders", "view", nil, simulated.Args("address[]"), func(ctx *simulated.CallContext, args []any) ([]any, error) {
		return []any{targetSenders}, nil
	})
	invariants.AddMethod("targetSelectors", "view", nil, abi.Arguments{{Type: selectorsType}}, func(ctx *simulated.CallContext, args []any) ([]any, error) {
		return []any{[]fuzzSelector{{Addr: tokenAddress, Selectors: [][4]byte{transferSelector}}}}, nil
	})
	invariants.AddMethod("invariant_supplyConserved", "view", nil, simulated.Args("bool"), func(ctx *simulated.CallContext, args []any) ([]any, error) {
		out, err := ctx.CallMethod(tokenAddress, token.ABI, "totalSupply")
		if err != nil {
			return nil, err
		}
		supply := out[0].(*big.Int)

		out, err = ctx.CallMethod(tokenAddress, token.ABI, "holders")
		if err != nil {
			return nil, err
		}
		sum := new(big.Int)
		for _, holder := range out[0].([]common.Address) {
			out, err = ctx.CallMethod(tokenAddress, token.ABI, "balanceOf", holder)
			if err != nil {
				return nil, err
			}
			sum.Add(sum, out[0].(*big.Int))
		}
		return []any{sum.Cmp(supply) == 0}, nil
	})
	invariants.AddMethod("invariant_supplyConstant", "view", nil, simulated.Args("bool"), func(ctx *simulated.CallContext, args []any) ([]any, error) {
		out, err := ctx.CallMethod(tokenAddress, token.ABI, "totalSupply")
		if err != nil {
			return nil, err
		}
		return []any{out[0].(*big.Int).Cmp(big.NewInt(int64(TokenInitialBalance*len(senders)))) == 0}, nil
	})
	_, err = backend.Deploy(invariants)
	return err
}
