package simulated

import (
	"math/big"
	"testing"

	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/tenet/chain"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSender = common.HexToAddress("0x10000")

// newVaultDefinition creates a contract keeping a running total, with methods to revert, fail and call other
// contracts.
func newVaultDefinition() *ContractDefinition {
	vault := NewContractDefinition("Vault")
	vault.AddMethod("deposit", "nonpayable", Args("uint256"), nil, func(ctx *CallContext, args []any) ([]any, error) {
		amount := uint256.MustFromBig(args[0].(*big.Int))
		total := ctx.LoadUint(Slot(0))
		ctx.StoreUint(Slot(0), total.Add(total, amount))
		return nil, nil
	})
	vault.AddMethod("total", "view", nil, Args("uint256"), func(ctx *CallContext, args []any) ([]any, error) {
		return []any{ctx.LoadUint(Slot(0)).ToBig()}, nil
	})
	vault.AddMethod("fail", "nonpayable", nil, nil, func(ctx *CallContext, args []any) ([]any, error) {
		ctx.StoreUint(Slot(0), uint256.NewInt(1000))
		return nil, ctx.Revert("nope")
	})
	vault.AddMethod("boom", "nonpayable", nil, nil, func(ctx *CallContext, args []any) ([]any, error) {
		return nil, errors.New("backend fault")
	})
	vault.AddMethod("forward", "nonpayable", Args("address"), nil, func(ctx *CallContext, args []any) ([]any, error) {
		ctx.StoreUint(Slot(1), uint256.NewInt(7))
		_, err := ctx.CallMethod(args[0].(common.Address), vault.ABI, "fail")
		var revertErr *RevertError
		if !errors.As(err, &revertErr) {
			return nil, errors.New("expected nested revert")
		}
		return nil, nil
	})
	return vault
}

// newVaultBackend creates a Backend with a deployed vault.
func newVaultBackend(t *testing.T) (*Backend, common.Address, *ContractDefinition) {
	backend, err := NewBackend("1.0.0")
	require.NoError(t, err)
	vault := newVaultDefinition()
	address, err := backend.Deploy(vault)
	require.NoError(t, err)
	return backend, address, vault
}

// commit packs and commits a call to the vault.
func commit(t *testing.T, backend *Backend, to common.Address, vault *ContractDefinition, method string, args ...any) *chain.CommitResult {
	data, err := vault.ABI.Pack(method, args...)
	require.NoError(t, err)
	result, err := backend.CommitCall(chain.NewCallMessage(testSender, to, 1_000_000, data))
	require.NoError(t, err)
	return result
}

// readTotal reads the vault total with a read-only call.
func readTotal(t *testing.T, backend *Backend, to common.Address, vault *ContractDefinition) uint64 {
	data, err := vault.ABI.Pack("total")
	require.NoError(t, err)
	result, err := backend.ReadCall(chain.NewCallMessage(testSender, to, 1_000_000, data))
	require.NoError(t, err)
	require.False(t, result.Reverted)
	out, err := vault.ABI.Unpack("total", result.ReturnData)
	require.NoError(t, err)
	return out[0].(*big.Int).Uint64()
}

// TestCommitCall verifies committed writes persist and gas accounting includes the intrinsic cost.
func TestCommitCall(t *testing.T) {
	backend, address, vault := newVaultBackend(t)

	result := commit(t, backend, address, vault, "deposit", big.NewInt(5))
	assert.False(t, result.Reverted)
	data, _ := vault.ABI.Pack("deposit", big.NewInt(5))
	assert.EqualValues(t, intrinsicGas(data), result.GasStipend)
	assert.EqualValues(t, result.GasStipend+gasStorageRead+gasStorageSet, result.GasUsed)

	// A second write to a non-zero slot is charged the reset cost
	result = commit(t, backend, address, vault, "deposit", big.NewInt(5))
	assert.EqualValues(t, result.GasStipend+gasStorageRead+gasStorageReset, result.GasUsed)
	assert.EqualValues(t, 10, readTotal(t, backend, address, vault))
}

// TestRevertDiscardsWrites verifies a reverting call leaves no writes and returns Error(string) data.
func TestRevertDiscardsWrites(t *testing.T) {
	backend, address, vault := newVaultBackend(t)
	commit(t, backend, address, vault, "deposit", big.NewInt(3))

	result := commit(t, backend, address, vault, "fail")
	assert.True(t, result.Reverted)
	assert.Equal(t, errorSelector, result.ReturnData[:4])
	assert.EqualValues(t, 3, readTotal(t, backend, address, vault))
}

// TestNestedRevertIsolation verifies a caught nested revert discards only the nested frame's writes.
func TestNestedRevertIsolation(t *testing.T) {
	backend, address, vault := newVaultBackend(t)

	result := commit(t, backend, address, vault, "forward", address)
	assert.False(t, result.Reverted)
	assert.EqualValues(t, 0, readTotal(t, backend, address, vault))
	assert.Equal(t, common.Hash(uint256.NewInt(7).Bytes32()), backend.state.load(address, Slot(1)))
}

// TestBackendFault verifies handler errors other than reverts are returned as errors.
func TestBackendFault(t *testing.T) {
	backend, address, vault := newVaultBackend(t)
	data, err := vault.ABI.Pack("boom")
	require.NoError(t, err)

	_, err = backend.CommitCall(chain.NewCallMessage(testSender, address, 1_000_000, data))
	assert.Error(t, err)
	_, err = backend.ReadCall(chain.NewCallMessage(testSender, address, 1_000_000, data))
	assert.Error(t, err)
}

// TestReadCallDoesNotPersist verifies read-only calls report their writes without applying them.
func TestReadCallDoesNotPersist(t *testing.T) {
	backend, address, vault := newVaultBackend(t)
	data, err := vault.ABI.Pack("deposit", big.NewInt(9))
	require.NoError(t, err)

	result, err := backend.ReadCall(chain.NewCallMessage(testSender, address, 1_000_000, data))
	require.NoError(t, err)
	assert.False(t, result.Reverted)
	assert.Equal(t, common.Hash(uint256.NewInt(9).Bytes32()), result.StateChangeset[address][Slot(0)])
	assert.EqualValues(t, 0, readTotal(t, backend, address, vault))
}

// TestSnapshotRestore verifies a snapshot can be restored repeatedly.
func TestSnapshotRestore(t *testing.T) {
	backend, address, vault := newVaultBackend(t)
	commit(t, backend, address, vault, "deposit", big.NewInt(1))
	snapshot := backend.Snapshot()

	for i := 0; i < 3; i++ {
		commit(t, backend, address, vault, "deposit", big.NewInt(100))
		assert.EqualValues(t, 101, readTotal(t, backend, address, vault))
		require.NoError(t, backend.Restore(snapshot))
		assert.EqualValues(t, 1, readTotal(t, backend, address, vault))
	}

	assert.Error(t, backend.Restore(snapshot+1))
}

// TestClone verifies cloned backends do not share state.
func TestClone(t *testing.T) {
	backend, address, vault := newVaultBackend(t)
	commit(t, backend, address, vault, "deposit", big.NewInt(2))

	cloned, err := backend.Clone()
	require.NoError(t, err)
	clone := cloned.(*Backend)
	commit(t, clone, address, vault, "deposit", big.NewInt(40))

	assert.EqualValues(t, 2, readTotal(t, backend, address, vault))
	assert.EqualValues(t, 42, readTotal(t, clone, address, vault))
	assert.Len(t, clone.DeployedContracts(), 1)
}

// TestCallsWithoutEffect verifies calls to reserved addresses and empty accounts succeed without effect, and unknown
// selectors revert.
func TestCallsWithoutEffect(t *testing.T) {
	backend, address, vault := newVaultBackend(t)

	for _, to := range []common.Address{chain.CheatCodeAddress, chain.ConsoleLogAddress, common.HexToAddress("0xdead")} {
		result, err := backend.CommitCall(chain.NewCallMessage(testSender, to, 1_000_000, []byte{1, 2, 3, 4}))
		require.NoError(t, err)
		assert.False(t, result.Reverted)
	}

	result, err := backend.CommitCall(chain.NewCallMessage(testSender, address, 1_000_000, []byte{1, 2, 3, 4}))
	require.NoError(t, err)
	assert.True(t, result.Reverted)
	assert.EqualValues(t, 0, readTotal(t, backend, address, vault))
}

// TestOutOfGas verifies a call exceeding its gas limit reverts and is charged the full limit.
func TestOutOfGas(t *testing.T) {
	backend, address, vault := newVaultBackend(t)
	data, err := vault.ABI.Pack("deposit", big.NewInt(5))
	require.NoError(t, err)
	limit := intrinsicGas(data) + 100

	result, err := backend.CommitCall(chain.NewCallMessage(testSender, address, limit, data))
	require.NoError(t, err)
	assert.True(t, result.Reverted)
	assert.EqualValues(t, limit, result.GasUsed)
	assert.EqualValues(t, 0, readTotal(t, backend, address, vault))
}

// TestIntrinsicGas verifies the per-byte calldata costs.
func TestIntrinsicGas(t *testing.T) {
	assert.EqualValues(t, 21000, intrinsicGas(nil))
	assert.EqualValues(t, 21000+4+16, intrinsicGas([]byte{0, 1}))
}

// TestDeployFailure verifies a reverting Setup leaves the backend unchanged.
func TestDeployFailure(t *testing.T) {
	backend, err := NewBackend("1.0.0")
	require.NoError(t, err)

	broken := NewContractDefinition("Broken")
	broken.Setup = func(ctx *CallContext) error {
		return ctx.Revert("constructor failed")
	}
	_, err = backend.Deploy(broken)
	assert.Error(t, err)
	assert.Empty(t, backend.DeployedContracts())

	_, err = NewBackend("bad")
	assert.Error(t, err)
}
