package fuzzing

import (
	"reflect"

	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/tenet/chain"
	"github.com/crytic/tenet/fuzzing/contracts"
	"github.com/crytic/tenet/logging"
	"github.com/crytic/tenet/utils"
	"github.com/pkg/errors"
)

// DefaultCallerAddress is the sender of the read-only calls made to invariant contracts: target selection accessors
// and invariant checks.
var DefaultCallerAddress = common.HexToAddress("0x1804c8AB1F12E6bbf3894d4083f33e07309d1f38")

// Names of the target selection accessors an invariant contract may declare.
const (
	targetContractsAccessor  = "targetContracts"
	excludeContractsAccessor = "excludeContracts"
	targetSendersAccessor    = "targetSenders"
	excludeSendersAccessor   = "excludeSenders"
	targetSelectorsAccessor  = "targetSelectors"
)

// TargetSelection describes the contracts and senders a campaign calls.
type TargetSelection struct {
	// Targets are the contracts whose candidate functions are called, in deployment order.
	Targets contracts.Contracts

	// Senders are the addresses calls are sent from.
	Senders []common.Address

	// Warnings describe accessors which could not be queried, and a missing targetContracts accessor.
	Warnings []TargetSelectionWarning
}

// targetSelector queries the target selection accessors of an invariant contract.
type targetSelector struct {
	// backend is used for the read-only accessor calls.
	backend chain.Backend

	// asserting is the invariant contract declaring the accessors.
	asserting *chain.DeployedContract

	// gasLimit is the gas limit of each accessor call.
	gasLimit uint64

	// warnings collects the accessors that could not be queried.
	warnings []TargetSelectionWarning

	// logger describes the logger warnings are reported to.
	logger *logging.Logger
}

// SelectTargets determines the contracts and senders fuzzed for the invariant contract asserting. Candidates are the
// deployed contracts other than asserting and the reserved addresses. The optional accessors of asserting refine the
// selection:
//   - targetContracts() returns (address[]) restricts the candidates to the listed contracts
//   - excludeContracts() returns (address[]) removes the listed contracts
//   - targetSelectors() returns ((address,bytes4[])[]) restricts the functions of the listed contracts
//   - targetSenders() returns (address[]) replaces senders, excludeSenders() returns (address[]) filters them
//
// Contracts without candidate functions are dropped. An accessor that is absent, or that cannot be queried, does not
// restrict the selection. Accessors that cannot be queried and a missing targetContracts are reported as a
// TargetSelectionWarning. A nil reserved defaults to the cheat code and console addresses. A backend fault is returned
// as a BackendFatalError.
func SelectTargets(backend chain.Backend, asserting *chain.DeployedContract, deployed []*chain.DeployedContract, senders []common.Address, reserved *chain.ReservedAddresses, gasLimit uint64, logger *logging.Logger) (*TargetSelection, error) {
	if reserved == nil {
		reserved = &chain.ReservedAddresses{CheatCode: chain.CheatCodeAddress, ConsoleLog: chain.ConsoleLogAddress}
	}
	s := &targetSelector{
		backend:   backend,
		asserting: asserting,
		gasLimit:  gasLimit,
		logger:    logger,
	}

	if _, ok := asserting.ABI.Methods[targetContractsAccessor]; !ok {
		s.record(TargetSelectionWarning{Accessor: targetContractsAccessor, Missing: true})
	}
	allowed, _, err := s.addressList(targetContractsAccessor)
	if err != nil {
		return nil, err
	}
	// An empty allow-list does not restrict the candidates
	hasAllowList := len(allowed) > 0
	excluded, _, err := s.addressList(excludeContractsAccessor)
	if err != nil {
		return nil, err
	}

	var targets contracts.Contracts
	for _, contract := range deployed {
		if !s.isCandidate(contract.Address, reserved) {
			continue
		}
		if hasAllowList && !utils.ContainsAddress(allowed, contract.Address) {
			continue
		}
		if utils.ContainsAddress(excluded, contract.Address) {
			continue
		}
		targets = append(targets, contracts.NewTargetContract(contract))
	}

	targets, err = s.applySelectors(targets, deployed, reserved)
	if err != nil {
		return nil, err
	}

	// Contracts that cannot change state are not worth calling
	targets = utils.SliceWhere(targets, func(target *contracts.TargetContract) bool {
		if len(target.CandidateFunctions()) == 0 {
			logger.Debug("Dropping target ", target.Name(), " as it has no mutable functions")
			return false
		}
		return true
	})
	if len(targets) == 0 {
		return nil, errors.New("no contracts to fuzz")
	}

	selectedSenders, err := s.selectSenders(senders)
	if err != nil {
		return nil, err
	}

	return &TargetSelection{
		Targets:  targets,
		Senders:  selectedSenders,
		Warnings: s.warnings,
	}, nil
}

// isCandidate reports whether a contract at addr may be a target at all.
func (s *targetSelector) isCandidate(addr common.Address, reserved *chain.ReservedAddresses) bool {
	if addr == s.asserting.Address {
		return false
	}
	return !reserved.Contains(addr)
}

// applySelectors restricts the candidate functions of targets to those listed by targetSelectors. A listed contract
// that is not among the targets is added if it was deployed.
func (s *targetSelector) applySelectors(targets contracts.Contracts, deployed []*chain.DeployedContract, reserved *chain.ReservedAddresses) (contracts.Contracts, error) {
	values, found, err := s.query(targetSelectorsAccessor)
	if err != nil || !found {
		return targets, err
	}

	addresses, selectors, ok := decodeSelectorList(values)
	if !ok {
		s.warn(targetSelectorsAccessor, "it does not return a list of (address, bytes4[]) tuples")
		return targets, nil
	}

	for _, addr := range addresses {
		index := -1
		for i, target := range targets {
			if target.Address() == addr {
				index = i
				break
			}
		}

		var target *contracts.TargetContract
		if index >= 0 {
			target = targets[index]
		} else {
			for _, contract := range deployed {
				if contract.Address == addr && s.isCandidate(addr, reserved) {
					target = contracts.NewTargetContract(contract)
					break
				}
			}
			if target == nil {
				return nil, errors.Errorf("[%s] address does not have an associated contract: %v", targetSelectorsAccessor, addr)
			}
		}

		restricted, err := target.WithSelectors(selectors[addr])
		if err != nil {
			return nil, errors.Wrapf(err, "[%s] could not restrict %v", targetSelectorsAccessor, target.Name())
		}
		if index >= 0 {
			targets[index] = restricted
		} else {
			targets = append(targets, restricted)
		}
	}
	return targets, nil
}

// selectSenders applies targetSenders and excludeSenders to the configured senders.
func (s *targetSelector) selectSenders(senders []common.Address) ([]common.Address, error) {
	targeted, _, err := s.addressList(targetSendersAccessor)
	if err != nil {
		return nil, err
	}
	excluded, _, err := s.addressList(excludeSendersAccessor)
	if err != nil {
		return nil, err
	}

	selected := senders
	if len(targeted) > 0 {
		selected = targeted
	}
	selected = utils.SliceWhere(selected, func(sender common.Address) bool {
		return !utils.ContainsAddress(excluded, sender)
	})
	if len(selected) == 0 {
		return nil, errors.New("no senders to fuzz with")
	}
	return selected, nil
}

// addressList queries an accessor returning address[]. It reports whether the accessor exists and could be queried.
func (s *targetSelector) addressList(accessor string) ([]common.Address, bool, error) {
	values, found, err := s.query(accessor)
	if err != nil || !found {
		return nil, false, err
	}

	if len(values) != 1 {
		s.warn(accessor, "it does not return a single address list")
		return nil, false, nil
	}
	addresses, ok := values[0].([]common.Address)
	if !ok {
		s.warn(accessor, "it does not return a single address list")
		return nil, false, nil
	}
	return addresses, true, nil
}

// query calls accessor on the invariant contract with a read-only call and unpacks its outputs. It reports whether
// the accessor exists and could be queried. Only backend faults are returned as errors.
func (s *targetSelector) query(accessor string) ([]any, bool, error) {
	method, ok := s.asserting.ABI.Methods[accessor]
	if !ok {
		return nil, false, nil
	}
	if len(method.Inputs) != 0 {
		s.warn(accessor, "it takes inputs")
		return nil, false, nil
	}

	msg := chain.NewCallMessage(DefaultCallerAddress, s.asserting.Address, s.gasLimit, method.ID)
	result, err := s.backend.ReadCall(msg)
	if err != nil {
		return nil, false, &BackendFatalError{Operation: "querying " + accessor, Err: err}
	}
	if result.Reverted {
		s.warn(accessor, "the call reverted")
		return nil, false, nil
	}

	values, err := method.Outputs.Unpack(result.ReturnData)
	if err != nil {
		s.warn(accessor, err.Error())
		return nil, false, nil
	}
	return values, true, nil
}

// warn records and logs a TargetSelectionWarning for an accessor that could not be queried.
func (s *targetSelector) warn(accessor string, reason string) {
	s.record(TargetSelectionWarning{Accessor: accessor, Reason: reason})
}

// record stores and logs warning.
func (s *targetSelector) record(warning TargetSelectionWarning) {
	s.warnings = append(s.warnings, warning)
	s.logger.Warn(warning.String())
}

// decodeSelectorList reads the (address, bytes4[])[] value returned by targetSelectors. Entries for the same address
// are merged. Addresses are returned in order of first appearance.
func decodeSelectorList(values []any) ([]common.Address, map[common.Address][][4]byte, bool) {
	if len(values) != 1 {
		return nil, nil, false
	}

	list := reflect.ValueOf(values[0])
	if list.Kind() != reflect.Slice {
		return nil, nil, false
	}

	var addresses []common.Address
	selectors := make(map[common.Address][][4]byte)
	for i := 0; i < list.Len(); i++ {
		entry := list.Index(i)
		if entry.Kind() != reflect.Struct || entry.NumField() != 2 {
			return nil, nil, false
		}
		addr, ok := entry.Field(0).Interface().(common.Address)
		if !ok {
			return nil, nil, false
		}
		entrySelectors, ok := entry.Field(1).Interface().([][4]byte)
		if !ok {
			return nil, nil, false
		}

		if _, seen := selectors[addr]; !seen {
			addresses = append(addresses, addr)
		}
		selectors[addr] = append(selectors[addr], entrySelectors...)
	}
	return addresses, selectors, true
}
