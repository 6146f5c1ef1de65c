package calls

import (
	"math/big"
	"testing"

	"github.com/crytic/medusa-geth/accounts/abi"
	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/tenet/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// transferMethod creates a transfer(address,uint256) method and an ABI exposing it.
func transferMethod(t *testing.T) (*abi.Method, *abi.ABI) {
	addressType, err := abi.NewType("address", "", nil)
	require.NoError(t, err)
	uintType, err := abi.NewType("uint256", "", nil)
	require.NoError(t, err)

	inputs := abi.Arguments{{Name: "to", Type: addressType}, {Name: "amount", Type: uintType}}
	method := abi.NewMethod("transfer", "transfer", abi.Function, "nonpayable", false, false, inputs, nil)
	contractAbi := &abi.ABI{Methods: map[string]abi.Method{"transfer": method}}
	return &method, contractAbi
}

// testSequence creates a two-call sequence of transfers.
func testSequence(t *testing.T) CallSequence {
	method, _ := transferMethod(t)
	sender := common.HexToAddress("0x10000")
	target := common.HexToAddress("0x20000")

	var cs CallSequence
	for i := int64(1); i <= 2; i++ {
		cse, err := NewCallSequenceElement(sender, target, "Token", method, []any{common.HexToAddress("0x30000"), big.NewInt(i)})
		require.NoError(t, err)
		cs = append(cs, cse)
	}
	return cs
}

// TestNewCallSequenceElement verifies calldata is the method selector followed by the packed arguments, and that
// argument count or type mismatches are rejected.
func TestNewCallSequenceElement(t *testing.T) {
	method, _ := transferMethod(t)
	args := []any{common.HexToAddress("0x30000"), big.NewInt(7)}

	cse, err := NewCallSequenceElement(common.Address{}, common.Address{}, "Token", method, args)
	require.NoError(t, err)
	assert.Equal(t, method.ID, cse.Data[:4])
	assert.Len(t, cse.Data, 4+64)

	_, err = NewCallSequenceElement(common.Address{}, common.Address{}, "Token", method, args[:1])
	assert.Error(t, err)

	_, err = NewCallSequenceElement(common.Address{}, common.Address{}, "Token", method, []any{"not an address", big.NewInt(7)})
	assert.Error(t, err)

	_, err = PackCallData(nil, nil)
	assert.Error(t, err)
}

// TestCallSequenceCloneAndPrefix verifies clones and prefixes are independent of the sequence they were taken from.
func TestCallSequenceCloneAndPrefix(t *testing.T) {
	cs := testSequence(t)

	clone := cs.Clone()
	clone[0].Data[0] ^= 0xff
	clone[0].Args[1] = big.NewInt(100)
	assert.NotEqual(t, cs[0].Data[0], clone[0].Data[0])
	assert.Equal(t, 0, cs[0].Args[1].(*big.Int).Cmp(big.NewInt(1)))

	assert.Len(t, cs.Prefix(1), 1)
	assert.Len(t, cs.Prefix(5), 2)
	assert.Len(t, cs.Prefix(-1), 0)

	without := cs.Without(0)
	require.Len(t, without, 1)
	assert.Equal(t, cs[1].Data, without[0].Data)
	assert.Len(t, cs, 2)
}

// TestCallSequenceHash verifies equal sequences hash equally and that changing calldata changes the hash.
func TestCallSequenceHash(t *testing.T) {
	cs := testSequence(t)

	hash, err := cs.Hash()
	require.NoError(t, err)
	cloneHash, err := cs.Clone().Hash()
	require.NoError(t, err)
	assert.Equal(t, hash, cloneHash)

	changed, err := cs[1].WithArgs([]any{common.HexToAddress("0x30000"), big.NewInt(3)})
	require.NoError(t, err)
	changedHash, err := CallSequence{cs[0], changed}.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, hash, changedHash)
}

// TestCallSequenceLog verifies the rendering of empty and non-empty sequences.
func TestCallSequenceLog(t *testing.T) {
	assert.Equal(t, "<none>", CallSequence{}.String())

	cs := testSequence(t)
	text := cs.String()
	assert.Contains(t, text, "1) Token.transfer(0x0000000000000000000000000000000000030000, 1)")
	assert.Contains(t, text, "2) Token.transfer(")

	unresolved := &CallSequenceElement{Data: []byte{1, 2, 3, 4}}
	assert.Contains(t, unresolved.String(), "<unresolved contract>.<unresolved method>(<unresolved args>)")
}

// TestReproducerRoundTrip verifies a sequence survives CBOR encoding and can be resolved back against the ABI of its
// target contract.
func TestReproducerRoundTrip(t *testing.T) {
	cs := testSequence(t)
	_, contractAbi := transferMethod(t)

	encoded, err := EncodeCallSequence(cs)
	require.NoError(t, err)

	decoded, err := DecodeCallSequence(encoded)
	require.NoError(t, err)
	require.Len(t, decoded, len(cs))
	for i := range cs {
		assert.Equal(t, cs[i].Sender, decoded[i].Sender)
		assert.Equal(t, cs[i].Target, decoded[i].Target)
		assert.Equal(t, cs[i].Data, decoded[i].Data)
		assert.Nil(t, decoded[i].Method)
	}

	// Resolution fails without the target contract
	assert.Error(t, decoded.Resolve(nil))

	contracts := []*chain.DeployedContract{{Name: "Token", Address: cs[0].Target, ABI: contractAbi}}
	require.NoError(t, decoded.Resolve(contracts))
	for i := range cs {
		require.NotNil(t, decoded[i].Method)
		assert.Equal(t, "transfer", decoded[i].Method.Name)
		assert.Equal(t, 0, cs[i].Args[1].(*big.Int).Cmp(decoded[i].Args[1].(*big.Int)))
	}

	hash, err := cs.Hash()
	require.NoError(t, err)
	decodedHash, err := decoded.Hash()
	require.NoError(t, err)
	assert.Equal(t, hash, decodedHash)

	_, err = DecodeCallSequence([]byte{0xff, 0x00})
	assert.Error(t, err)
}
