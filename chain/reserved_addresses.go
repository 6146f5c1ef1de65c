package chain

import (
	"github.com/Masterminds/semver"
	"github.com/crytic/medusa-geth/common"
	"github.com/pkg/errors"
)

var (
	// CheatCodeAddress is the address of the cheat code pseudo-contract exposed by test backends.
	CheatCodeAddress = common.HexToAddress("0x7109709ECfa91a80626fF3989D68f67F5b1DD12D")

	// ConsoleLogAddress is the address of the console logging pseudo-contract.
	ConsoleLogAddress = common.HexToAddress("0x000000000000000000636F6e736F6c652e6c6f67")
)

// ReservedAddresses describes the pseudo-contract addresses a backend version treats specially. Calls to them are
// intercepted by the backend, so they are never fuzzing targets.
type ReservedAddresses struct {
	// CheatCode is the address of the cheat code pseudo-contract.
	CheatCode common.Address

	// ConsoleLog is the address of the console logging pseudo-contract.
	ConsoleLog common.Address
}

// All returns every reserved address.
func (r *ReservedAddresses) All() []common.Address {
	return []common.Address{r.CheatCode, r.ConsoleLog}
}

// Contains indicates whether addr is a reserved address.
func (r *ReservedAddresses) Contains(addr common.Address) bool {
	return addr == r.CheatCode || addr == r.ConsoleLog
}

// reservedAddressTable maps a backend version range to the addresses it reserves.
var reservedAddressTable = []struct {
	constraint string
	addresses  ReservedAddresses
}{
	{
		constraint: ">= 0.1.0",
		addresses: ReservedAddresses{
			CheatCode:  CheatCodeAddress,
			ConsoleLog: ConsoleLogAddress,
		},
	},
}

// ReservedAddressesForVersion resolves the reserved addresses of the given backend version.
// Returns an error if the version cannot be parsed or no known backend version range matches it.
func ReservedAddressesForVersion(version string) (*ReservedAddresses, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid backend version %q", version)
	}

	for _, entry := range reservedAddressTable {
		constraint, err := semver.NewConstraint(entry.constraint)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if constraint.Check(v) {
			addresses := entry.addresses
			return &addresses, nil
		}
	}
	return nil, errors.Errorf("unsupported backend version %v", v)
}
