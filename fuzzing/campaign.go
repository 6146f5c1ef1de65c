package fuzzing

import (
	"math/rand"

	"github.com/crytic/medusa-geth/accounts/abi"
	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/tenet/chain"
	"github.com/crytic/tenet/fuzzing/config"
	"github.com/crytic/tenet/fuzzing/contracts"
	"github.com/crytic/tenet/fuzzing/valuegeneration"
	"github.com/crytic/tenet/logging"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// CampaignSetup describes everything a Campaign needs to be constructed.
type CampaignSetup struct {
	// Backend is the backend the campaign executes on. It is used exclusively by the campaign.
	Backend chain.Backend

	// Contract is the invariant contract whose invariants are asserted.
	Contract *chain.DeployedContract

	// Deployed are the contracts deployed on Backend, in deployment order.
	Deployed []*chain.DeployedContract

	// Senders are the configured addresses calls may be sent from.
	Senders []common.Address

	// Reserved are the reserved addresses of Backend, which are never targeted.
	Reserved *chain.ReservedAddresses

	// ValueSet seeds the values generated for call arguments. It may be nil.
	ValueSet *valuegeneration.ValueSet

	// RandomProvider drives every random decision of the campaign.
	RandomProvider *rand.Rand

	// Config describes the campaign options.
	Config config.FuzzingConfig

	// Logger is the parent logger of the campaign. If nil, the global logger is used.
	Logger *logging.Logger
}

// Campaign fuzzes the invariants of a single invariant contract.
type Campaign struct {
	// id uniquely identifies the campaign in logs and results.
	id string

	// config describes the campaign options.
	config config.FuzzingConfig

	// backend is the backend the campaign executes on.
	backend chain.Backend

	// contract is the invariant contract.
	contract *chain.DeployedContract

	// checker asserts the invariants of contract.
	checker *invariantChecker

	// selection describes the targets and senders of the campaign.
	selection *TargetSelection

	// targetAbis maps each target address to its interface, to decode revert reasons.
	targetAbis map[common.Address]*abi.ABI

	// generator draws the call sequences of the campaign.
	generator *CallSequenceGenerator

	// randomProvider drives every random decision of the campaign.
	randomProvider *rand.Rand

	// logger describes the campaign's logger.
	logger *logging.Logger
}

// NewCampaign creates a Campaign: it resolves the invariants of the contract and selects the targets and senders to
// fuzz. Returns an error if the contract has no usable invariant, if an invariant takes inputs, or if nothing is
// left to fuzz.
func NewCampaign(setup CampaignSetup) (*Campaign, error) {
	if setup.RandomProvider == nil {
		return nil, errors.New("a campaign requires a random provider")
	}
	parentLogger := setup.Logger
	if parentLogger == nil {
		parentLogger = logging.GlobalLogger
	}

	id := uuid.NewString()
	logger := parentLogger.NewSubLogger("module", logging.CAMPAIGN_SERVICE).NewSubLogger("campaign", id)

	invariants, warnings, err := contracts.InvariantMethods(setup.Contract.ABI, setup.Config.InvariantPrefixes)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid invariant in %v", setup.Contract.Name)
	}
	for _, warning := range warnings {
		logger.Warn(warning)
	}
	if len(invariants) == 0 {
		return nil, errors.Errorf("no invariants found in %v", setup.Contract.Name)
	}

	selection, err := SelectTargets(setup.Backend, setup.Contract, setup.Deployed, setup.Senders, setup.Reserved, setup.Config.TransactionGasLimit, logger)
	if err != nil {
		return nil, err
	}

	valueSet := setup.ValueSet
	if valueSet == nil {
		valueSet = valuegeneration.NewValueSet()
	}
	valueGenerator := valuegeneration.NewRandomValueGenerator(
		valuegeneration.DefaultRandomValueGeneratorConfig(setup.Config.MutationProbability),
		valueSet,
		setup.RandomProvider,
	)
	generator, err := NewCallSequenceGenerator(selection.Targets, selection.Senders, setup.Config.Depth, valueGenerator)
	if err != nil {
		return nil, err
	}

	targetAbis := make(map[common.Address]*abi.ABI, len(selection.Targets))
	for _, target := range selection.Targets {
		targetAbis[target.Address()] = target.ABI()
	}

	return &Campaign{
		id:       id,
		config:   setup.Config,
		backend:  setup.Backend,
		contract: setup.Contract,
		checker: &invariantChecker{
			backend:    setup.Backend,
			contract:   setup.Contract,
			invariants: invariants,
			gasLimit:   setup.Config.TransactionGasLimit,
		},
		selection:      selection,
		targetAbis:     targetAbis,
		generator:      generator,
		randomProvider: setup.RandomProvider,
		logger:         logger,
	}, nil
}

// ID returns the identifier of the campaign.
func (c *Campaign) ID() string {
	return c.id
}

// Contract returns the invariant contract of the campaign.
func (c *Campaign) Contract() *chain.DeployedContract {
	return c.contract
}

// Invariants returns the invariant methods asserted by the campaign, ordered by name.
func (c *Campaign) Invariants() []abi.Method {
	return c.checker.invariants
}

// Selection returns the targets and senders of the campaign.
func (c *Campaign) Selection() *TargetSelection {
	return c.selection
}
