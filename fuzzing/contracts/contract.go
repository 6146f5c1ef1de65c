package contracts

import (
	"sort"

	"github.com/crytic/medusa-geth/accounts/abi"
	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/tenet/chain"
	"github.com/crytic/tenet/utils"
	"github.com/pkg/errors"
)

// Contracts describes an array of target contracts
type Contracts []*TargetContract

// CandidateCount returns the total number of candidate functions across all target contracts.
func (c Contracts) CandidateCount() int {
	count := 0
	for _, contract := range c {
		count += len(contract.candidateFunctions)
	}
	return count
}

// Addresses returns the addresses of the target contracts, in order.
func (c Contracts) Addresses() []common.Address {
	return utils.SliceSelect(c, func(contract *TargetContract) common.Address {
		return contract.address
	})
}

// TargetContract describes a deployed contract whose functions may be called by the fuzzer.
type TargetContract struct {
	// address is the address the contract is deployed at.
	address common.Address

	// name represents the display name of the contract.
	name string

	// abi is the interface of the contract.
	abi *abi.ABI

	// candidateFunctions are the functions that can be called on the contract after selector filtering is performed.
	candidateFunctions []CandidateFunction
}

// NewTargetContract returns a new TargetContract for a deployed contract. Every non-pure, non-view method is a
// candidate function. Candidates are ordered by method name so that selection is deterministic.
func NewTargetContract(deployed *chain.DeployedContract) *TargetContract {
	c := &TargetContract{
		address: deployed.Address,
		name:    deployed.Name,
		abi:     deployed.ABI,
	}

	names := make([]string, 0, len(deployed.ABI.Methods))
	for name, method := range deployed.ABI.Methods {
		if IsMutable(&method) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		c.candidateFunctions = append(c.candidateFunctions, CandidateFunction{
			Contract: c,
			Method:   deployed.ABI.Methods[name],
		})
	}
	return c
}

// WithSelectors restricts the candidate functions of the contract to the methods with the given selectors. Returns
// an error if a selector does not resolve to a candidate function of the contract.
func (c *TargetContract) WithSelectors(selectors [][4]byte) (*TargetContract, error) {
	var candidateFunctions []CandidateFunction
	for _, selector := range selectors {
		found := false
		for _, candidate := range c.candidateFunctions {
			if candidate.Selector() == selector {
				// Duplicated selectors are only added once
				if !containsSelector(candidateFunctions, selector) {
					candidateFunctions = append(candidateFunctions, candidate)
				}
				found = true
				break
			}
		}
		if !found {
			return nil, errors.Errorf("selector %#x does not match a mutable function of %v", selector, c.name)
		}
	}

	restricted := &TargetContract{
		address: c.address,
		name:    c.name,
		abi:     c.abi,
	}
	for _, candidate := range candidateFunctions {
		restricted.candidateFunctions = append(restricted.candidateFunctions, CandidateFunction{
			Contract: restricted,
			Method:   candidate.Method,
		})
	}
	return restricted, nil
}

func containsSelector(candidates []CandidateFunction, selector [4]byte) bool {
	for _, candidate := range candidates {
		if candidate.Selector() == selector {
			return true
		}
	}
	return false
}

// Address returns the address of the contract.
func (c *TargetContract) Address() common.Address {
	return c.address
}

// Name returns the display name of the contract.
func (c *TargetContract) Name() string {
	return c.name
}

// ABI returns the interface of the contract.
func (c *TargetContract) ABI() *abi.ABI {
	return c.abi
}

// CandidateFunctions returns the functions that can be called on the contract.
func (c *TargetContract) CandidateFunctions() []CandidateFunction {
	return c.candidateFunctions
}

// IsMutable reports whether a method may change state, i.e. whether it is neither pure nor view.
func IsMutable(method *abi.Method) bool {
	return method.Type == abi.Function && !method.IsConstant()
}
