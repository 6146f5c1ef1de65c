package utils

import (
	"strings"

	"github.com/crytic/medusa-geth/common"
	"github.com/pkg/errors"
)

// HexStringToAddress parses a 20-byte hex address, with or without the "0x" prefix.
func HexStringToAddress(s string) (common.Address, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(trimmed) != 2*common.AddressLength || !isHex(trimmed) {
		return common.Address{}, errors.Errorf("malformed address '%s'", s)
	}
	return common.HexToAddress(trimmed), nil
}

// HexStringsToAddresses parses a list of hex addresses. The first malformed entry aborts parsing.
func HexStringsToAddresses(addresses []string) ([]common.Address, error) {
	parsed := make([]common.Address, 0, len(addresses))
	for _, s := range addresses {
		address, err := HexStringToAddress(s)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, address)
	}
	return parsed, nil
}

// ContainsAddress reports whether address is in addresses.
func ContainsAddress(addresses []common.Address, address common.Address) bool {
	for _, a := range addresses {
		if a == address {
			return true
		}
	}
	return false
}

func isHex(s string) bool {
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}
