package harnesses

import (
	"math/big"
	"testing"

	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/tenet/chain"
	"github.com/crytic/tenet/chain/simulated"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSenders = []common.Address{
	common.HexToAddress("0x10000"),
	common.HexToAddress("0x20000"),
	common.HexToAddress("0x30000"),
}

// findContract returns the deployed contract with the given name.
func findContract(t *testing.T, backend *simulated.Backend, name string) *chain.DeployedContract {
	for _, contract := range backend.DeployedContracts() {
		if contract.Name == name {
			return contract
		}
	}
	require.FailNow(t, "contract not deployed", name)
	return nil
}

// call packs and commits or reads a call to a deployed contract.
func call(t *testing.T, backend *simulated.Backend, sender common.Address, contract *chain.DeployedContract, commit bool, method string, args ...any) []any {
	data, err := contract.ABI.Pack(method, args...)
	require.NoError(t, err)
	msg := chain.NewCallMessage(sender, contract.Address, 10_000_000, data)
	if commit {
		result, err := backend.CommitCall(msg)
		require.NoError(t, err)
		require.False(t, result.Reverted)
		return unpack(t, contract, method, result.ReturnData)
	}
	result, err := backend.ReadCall(msg)
	require.NoError(t, err)
	require.False(t, result.Reverted)
	return unpack(t, contract, method, result.ReturnData)
}

// unpack decodes the return data of method, which is empty for methods without outputs.
func unpack(t *testing.T, contract *chain.DeployedContract, method string, returnData []byte) []any {
	if len(contract.ABI.Methods[method].Outputs) == 0 {
		return nil
	}
	out, err := contract.ABI.Unpack(method, returnData)
	require.NoError(t, err)
	return out
}

// TestRegistry verifies the registry lists and resolves harnesses by name.
func TestRegistry(t *testing.T) {
	all := All()
	require.Len(t, all, 2)
	assert.Equal(t, "counter", all[0].Name)
	assert.Equal(t, "token", all[1].Name)

	_, err := Get("missing")
	assert.Error(t, err)
}

// TestCounterInvariant verifies the counter invariant holds initially and fails once the counter exceeds its bound.
func TestCounterInvariant(t *testing.T) {
	backend, err := NewBackend("counter", "1.0.0", testSenders)
	require.NoError(t, err)
	require.Len(t, backend.DeployedContracts(), 4)

	counter := findContract(t, backend, "Counter")
	invariants := findContract(t, backend, "CounterInvariants")

	targets := call(t, backend, testSenders[0], invariants, false, "targetContracts")
	assert.Len(t, targets[0].([]common.Address), 3)

	assert.Equal(t, true, call(t, backend, testSenders[0], invariants, false, "invariant_counterBounded")[0])
	call(t, backend, testSenders[0], counter, true, "increment", uint8(CounterBound))
	assert.Equal(t, true, call(t, backend, testSenders[0], invariants, false, "invariant_counterBounded")[0])
	call(t, backend, testSenders[1], counter, true, "increment", uint8(1))
	assert.Equal(t, false, call(t, backend, testSenders[0], invariants, false, "invariant_counterBounded")[0])
	assert.Equal(t, true, call(t, backend, testSenders[0], invariants, false, "invariant_alwaysTrue")[0])
}

// TestTokenSelfTransfer verifies ordinary transfers conserve supply and a self-transfer breaks it.
func TestTokenSelfTransfer(t *testing.T) {
	backend, err := NewBackend("token", "1.0.0", testSenders)
	require.NoError(t, err)

	token := findContract(t, backend, "Token")
	invariants := findContract(t, backend, "TokenInvariants")

	call(t, backend, testSenders[0], token, true, "transfer", testSenders[1], big.NewInt(250))
	balance := call(t, backend, testSenders[0], token, false, "balanceOf", testSenders[1])
	assert.EqualValues(t, TokenInitialBalance+250, balance[0].(*big.Int).Int64())
	assert.Equal(t, true, call(t, backend, testSenders[0], invariants, false, "invariant_supplyConserved")[0])

	call(t, backend, testSenders[1], token, true, "transfer", testSenders[1], big.NewInt(10))
	assert.Equal(t, false, call(t, backend, testSenders[0], invariants, false, "invariant_supplyConserved")[0])
	assert.Equal(t, true, call(t, backend, testSenders[0], invariants, false, "invariant_supplyConstant")[0])

	senders := call(t, backend, testSenders[0], invariants, false, "targetSenders")
	assert.Equal(t, testSenders[:2], senders[0].([]common.Address))
}

// TestTokenTransferToNewHolder verifies a transfer to an address outside the sender set conserves supply.
func TestTokenTransferToNewHolder(t *testing.T) {
	backend, err := NewBackend("token", "1.0.0", testSenders)
	require.NoError(t, err)

	token := findContract(t, backend, "Token")
	invariants := findContract(t, backend, "TokenInvariants")

	outsider := common.HexToAddress("0x21619c36DD525C8c66571060e97E3f9c892Aa8d3")
	call(t, backend, testSenders[0], token, true, "transfer", outsider, big.NewInt(400))
	call(t, backend, testSenders[1], token, true, "transfer", outsider, big.NewInt(1))

	holders := call(t, backend, testSenders[0], token, false, "holders")
	assert.Equal(t, append(append([]common.Address{}, testSenders...), outsider), holders[0].([]common.Address))
	assert.Equal(t, true, call(t, backend, testSenders[0], invariants, false, "invariant_supplyConserved")[0])

	call(t, backend, outsider, token, true, "transfer", outsider, big.NewInt(5))
	assert.Equal(t, false, call(t, backend, testSenders[0], invariants, false, "invariant_supplyConserved")[0])
}
