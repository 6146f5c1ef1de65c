package simulated

import (
	"math"

	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/medusa-geth/crypto"
	"github.com/crytic/tenet/chain"
	"github.com/crytic/tenet/logging"
	"github.com/crytic/tenet/logging/colors"
	"github.com/pkg/errors"
)

// DefaultDeployerAddress is the address contracts are deployed from.
var DefaultDeployerAddress = common.HexToAddress("0x30000")

// Backend is an in-memory chain.Backend executing contracts implemented natively in Go. Calls are dispatched by
// selector to the handlers of a ContractDefinition, and storage writes are buffered per call frame so that a revert
// discards exactly the writes of the reverting frame.
type Backend struct {
	// state is the current world state.
	state *worldState

	// snapshots maps snapshot identifiers to the states they captured.
	snapshots map[chain.SnapshotID]*worldState

	// nextSnapshotID is the identifier handed out by the next call to Snapshot.
	nextSnapshotID chain.SnapshotID

	// version is the backend version the reserved addresses were resolved for.
	version string

	// reserved holds the pseudo-contract addresses calls to which are no-ops.
	reserved *chain.ReservedAddresses

	// deployer is the address contracts are deployed from.
	deployer common.Address

	// logger describes the Backend's logger.
	logger *logging.Logger
}

// NewBackend creates an empty Backend for the given backend version.
func NewBackend(version string) (*Backend, error) {
	reserved, err := chain.ReservedAddressesForVersion(version)
	if err != nil {
		return nil, err
	}

	return &Backend{
		state:     newWorldState(),
		snapshots: make(map[chain.SnapshotID]*worldState),
		version:   version,
		reserved:  reserved,
		deployer:  DefaultDeployerAddress,
		logger:    logging.GlobalLogger.NewSubLogger("module", logging.BACKEND_SERVICE),
	}, nil
}

// Version returns the backend version.
func (b *Backend) Version() string {
	return b.version
}

// ReservedAddresses returns the pseudo-contract addresses of the backend.
func (b *Backend) ReservedAddresses() *chain.ReservedAddresses {
	return b.reserved
}

// Deploy deploys definition at the next address derived from the deployer and runs its Setup.
// Returns the address of the contract, or an error if its Setup failed or reverted.
func (b *Backend) Deploy(definition *ContractDefinition) (common.Address, error) {
	address := crypto.CreateAddress(b.deployer, b.state.nonce)
	if _, exists := b.state.contracts[address]; exists {
		return common.Address{}, errors.Errorf("could not deploy %v, address %v is in use", definition.Name, address)
	}

	// Deploy into a copy so that a failed setup leaves no trace
	state := b.state.clone()
	state.nonce++
	state.contracts[address] = definition
	state.deployed = append(state.deployed, &chain.DeployedContract{
		Name:    definition.Name,
		Address: address,
		ABI:     definition.ABI,
	})

	if definition.Setup != nil {
		frame := newOverlay(state)
		ctx := &CallContext{
			backend: b,
			frame:   frame,
			meter:   &gasMeter{limit: math.MaxUint64},
			caller:  b.deployer,
			self:    address,
		}
		if err := definition.Setup(ctx); err != nil {
			return common.Address{}, errors.Wrapf(err, "deployment of %v failed", definition.Name)
		}
		frame.apply()
	}

	b.state = state
	b.logger.Debug("Deployed ", colors.Bold, definition.Name, colors.Reset, " at ", address.String())
	return address, nil
}

// DeployedContracts returns the deployed contracts, in deployment order.
func (b *Backend) DeployedContracts() []*chain.DeployedContract {
	return append([]*chain.DeployedContract(nil), b.state.deployed...)
}

// CommitCall applies msg and persists its writes if it did not revert.
func (b *Backend) CommitCall(msg *chain.CallMessage) (*chain.CommitResult, error) {
	ret, stipend, used, frame, reverted, err := b.run(msg)
	if err != nil {
		return nil, err
	}
	if !reverted {
		frame.apply()
	}
	return &chain.CommitResult{
		Reverted:   reverted,
		GasUsed:    used,
		GasStipend: stipend,
		ReturnData: ret,
	}, nil
}

// ReadCall evaluates msg without persisting its writes. The writes it attempted are reported in the changeset.
func (b *Backend) ReadCall(msg *chain.CallMessage) (*chain.ReadResult, error) {
	ret, _, _, frame, reverted, err := b.run(msg)
	if err != nil {
		return nil, err
	}
	changeset := chain.StateChangeset{}
	if !reverted {
		changeset = frame.changeset()
	}
	return &chain.ReadResult{
		Reverted:       reverted,
		ReturnData:     ret,
		StateChangeset: changeset,
	}, nil
}

// run executes msg as an outermost call.
// Returns the return or revert data, the intrinsic gas, the total gas used, the frame holding the writes of the call,
// whether it reverted, and an error on backend faults.
func (b *Backend) run(msg *chain.CallMessage) ([]byte, uint64, uint64, *overlay, bool, error) {
	stipend := intrinsicGas(msg.Data)
	frame := newOverlay(b.state)
	if stipend > msg.GasLimit {
		return NewRevertError("intrinsic gas too low").Data, stipend, msg.GasLimit, frame, true, nil
	}

	meter := &gasMeter{limit: msg.GasLimit - stipend}
	ret, err := b.execute(frame, meter, msg.From, msg.To, msg.Data, 0)

	used := stipend + meter.used
	if used > msg.GasLimit {
		used = msg.GasLimit
	}

	var revertErr *RevertError
	if errors.As(err, &revertErr) {
		return revertErr.Data, stipend, used, frame, true, nil
	} else if err != nil {
		return nil, stipend, used, frame, false, err
	}
	return ret, stipend, used, frame, false, nil
}

// execute runs a call frame from caller to the contract at to. Its writes are buffered in a child of parent, which
// is applied to parent only if the call succeeds.
// Returns the return data, a *RevertError if the call reverted, or any other error on backend faults.
func (b *Backend) execute(parent *overlay, meter *gasMeter, caller common.Address, to common.Address, data []byte, depth int) ([]byte, error) {
	if meter.exhausted() {
		return nil, NewRevertError("out of gas")
	}
	if depth > maxCallDepth {
		return nil, NewRevertError("max call depth exceeded")
	}

	// Calls to reserved addresses and accounts without code succeed without effect
	if b.reserved.Contains(to) {
		return nil, nil
	}
	definition, ok := parent.base.contracts[to]
	if !ok {
		return nil, nil
	}

	if len(data) < 4 {
		return nil, NewRevertError("missing function selector")
	}
	method, err := definition.ABI.MethodById(data[:4])
	if err != nil {
		return nil, NewRevertError("unknown function selector")
	}
	inputs, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, NewRevertError("invalid calldata")
	}

	frame := parent.child()
	ctx := &CallContext{
		backend: b,
		frame:   frame,
		meter:   meter,
		caller:  caller,
		self:    to,
		depth:   depth,
	}
	outputs, err := definition.handlers[method.Name](ctx, inputs)
	if meter.exhausted() {
		return nil, NewRevertError("out of gas")
	}
	if err != nil {
		var revertErr *RevertError
		if errors.As(err, &revertErr) {
			return nil, revertErr
		}
		return nil, errors.Wrapf(err, "%v.%v failed", definition.Name, method.Name)
	}

	ret, err := method.Outputs.Pack(outputs...)
	if err != nil {
		return nil, errors.Wrapf(err, "could not pack outputs of %v.%v", definition.Name, method.Name)
	}
	frame.apply()
	return ret, nil
}

// Snapshot captures the current state.
func (b *Backend) Snapshot() chain.SnapshotID {
	id := b.nextSnapshotID
	b.nextSnapshotID++
	b.snapshots[id] = b.state.clone()
	return id
}

// Restore resets the state to the snapshot id. The snapshot remains valid afterward.
func (b *Backend) Restore(id chain.SnapshotID) error {
	snapshot, ok := b.snapshots[id]
	if !ok {
		return errors.Errorf("unknown snapshot %d", id)
	}
	b.state = snapshot.clone()
	return nil
}

// Clone returns an independent Backend with a copy of the current state and snapshots.
func (b *Backend) Clone() (chain.CloneableBackend, error) {
	snapshots := make(map[chain.SnapshotID]*worldState, len(b.snapshots))
	for id, snapshot := range b.snapshots {
		snapshots[id] = snapshot.clone()
	}
	return &Backend{
		state:          b.state.clone(),
		snapshots:      snapshots,
		nextSnapshotID: b.nextSnapshotID,
		version:        b.version,
		reserved:       b.reserved,
		deployer:       b.deployer,
		logger:         b.logger,
	}, nil
}
