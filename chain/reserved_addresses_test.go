package chain

import (
	"testing"

	"github.com/crytic/medusa-geth/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestReservedAddressesForVersion verifies supported versions resolve to the named reserved addresses and invalid or
// unsupported versions are rejected.
func TestReservedAddressesForVersion(t *testing.T) {
	reserved, err := ReservedAddressesForVersion("1.0.0")
	require.NoError(t, err)
	assert.Equal(t, CheatCodeAddress, reserved.CheatCode)
	assert.Equal(t, ConsoleLogAddress, reserved.ConsoleLog)
	assert.ElementsMatch(t, []common.Address{CheatCodeAddress, ConsoleLogAddress}, reserved.All())
	assert.True(t, reserved.Contains(ConsoleLogAddress))
	assert.False(t, reserved.Contains(common.HexToAddress("0x10000")))

	_, err = ReservedAddressesForVersion("0.0.9")
	assert.Error(t, err)

	_, err = ReservedAddressesForVersion("not-a-version")
	assert.Error(t, err)
}
