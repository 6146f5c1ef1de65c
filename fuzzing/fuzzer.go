package fuzzing

import (
	"math/big"
	"math/rand"
	"sync"
	"time"

	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/tenet/chain"
	"github.com/crytic/tenet/fuzzing/config"
	"github.com/crytic/tenet/fuzzing/contracts"
	"github.com/crytic/tenet/fuzzing/valuegeneration"
	"github.com/crytic/tenet/logging"
	"github.com/crytic/tenet/logging/colors"
	"github.com/crytic/tenet/utils"
	"github.com/crytic/tenet/utils/randomutils"
	"github.com/pkg/errors"
	"golang.org/x/net/context"
)

// Fuzzer runs one Campaign per invariant contract deployed on a backend, with a bounded number of campaigns running
// in parallel, each on its own clone of the backend.
type Fuzzer struct {
	// ctx describes the context for the fuzzing run, used to cancel running campaigns.
	ctx context.Context

	// ctxCancelFunc describes a function which can be used to cancel the fuzzing operations ctx tracks.
	ctxCancelFunc context.CancelFunc

	// config describes the project configuration which the fuzzing is targeting.
	config config.ProjectConfig

	// backend is the backend holding the deployed contracts. It is cloned for every campaign and never executed on.
	backend chain.CloneableBackend

	// reserved are the reserved addresses of backend.
	reserved *chain.ReservedAddresses

	// senders describes the set of account addresses used to send calls in fuzzing campaigns.
	senders []common.Address

	// baseValueSet represents a valuegeneration.ValueSet containing input values every campaign starts from.
	baseValueSet *valuegeneration.ValueSet

	// results holds the campaign results of the last Start, in invariant contract deployment order.
	results []*CampaignResult

	// resultsLock guards results.
	resultsLock sync.Mutex

	// Events describes the event system for the Fuzzer.
	Events FuzzerEvents

	// logger describes the Fuzzer's logger.
	logger *logging.Logger
}

// NewFuzzer returns an instance of a new Fuzzer provided a project configuration, the backend the contracts are
// deployed on and its reserved addresses, or an error if the configuration is invalid.
func NewFuzzer(projectConfig config.ProjectConfig, backend chain.CloneableBackend, reserved *chain.ReservedAddresses) (*Fuzzer, error) {
	// Validate our provided config
	err := projectConfig.Validate()
	if err != nil {
		return nil, err
	}
	if backend == nil {
		return nil, errors.New("a fuzzer requires a backend")
	}
	if reserved == nil {
		reserved, err = chain.ReservedAddressesForVersion(projectConfig.Fuzzing.BackendVersion)
		if err != nil {
			return nil, err
		}
	}

	// Parse the senders addresses from our account config.
	senders, err := utils.HexStringsToAddresses(projectConfig.Fuzzing.SenderAddresses)
	if err != nil {
		return nil, err
	}

	fuzzer := &Fuzzer{
		config:       projectConfig,
		backend:      backend,
		reserved:     reserved,
		senders:      senders,
		baseValueSet: valuegeneration.NewValueSet(),
		logger:       logging.GlobalLogger.NewSubLogger("module", logging.FUZZER_SERVICE),
	}

	// Senders and deployed contracts are seeded so they are used as address arguments in campaigns.
	for _, sender := range senders {
		fuzzer.baseValueSet.AddAddress(sender)
	}
	for _, contract := range backend.DeployedContracts() {
		fuzzer.baseValueSet.AddAddress(contract.Address)
	}
	for i := int64(0); i <= 2; i++ {
		fuzzer.baseValueSet.AddInteger(big.NewInt(i))
	}
	return fuzzer, nil
}

// Config exposes the underlying project configuration provided to the Fuzzer.
func (f *Fuzzer) Config() config.ProjectConfig {
	return f.config
}

// Backend exposes the backend campaigns clone their backends from.
func (f *Fuzzer) Backend() chain.CloneableBackend {
	return f.backend
}

// SenderAddresses exposes the account addresses from which calls are sent.
func (f *Fuzzer) SenderAddresses() []common.Address {
	return f.senders
}

// BaseValueSet exposes the value set every campaign starts from.
func (f *Fuzzer) BaseValueSet() *valuegeneration.ValueSet {
	return f.baseValueSet
}

// InvariantContracts returns the deployed contracts declaring at least one invariant, in deployment order.
func (f *Fuzzer) InvariantContracts() []*chain.DeployedContract {
	return utils.SliceWhere(f.backend.DeployedContracts(), func(contract *chain.DeployedContract) bool {
		return !f.reserved.Contains(contract.Address) &&
			contracts.HasInvariants(contract.ABI, f.config.Fuzzing.InvariantPrefixes)
	})
}

// Results returns the results of the campaigns of the last Start which completed, in invariant contract deployment
// order.
func (f *Fuzzer) Results() []*CampaignResult {
	f.resultsLock.Lock()
	defer f.resultsLock.Unlock()
	return utils.SliceWhere(f.results, func(result *CampaignResult) bool {
		return result != nil
	})
}

// Start runs a campaign for every invariant contract and blocks until all of them ended. Its execution can be
// cancelled using the Stop method, in which case campaigns end at their next run boundary and their partial results
// are kept. The first campaign error cancels the remaining campaigns.
// Returns the first error encountered, if any.
func (f *Fuzzer) Start() error {
	f.ctx, f.ctxCancelFunc = context.WithCancel(context.Background())
	defer f.ctxCancelFunc()

	invariantContracts := f.InvariantContracts()
	if len(invariantContracts) == 0 {
		return errors.New("no invariant contracts were found on the backend")
	}

	seed := f.config.Fuzzing.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	f.logger.Info("Fuzzing ", len(invariantContracts), " invariant contract(s) with seed ", colors.Bold, seed, colors.Reset)

	// Random providers are forked in deployment order so each campaign's stream depends only on the seed
	baseRandomProvider := rand.New(rand.NewSource(seed))
	randomProviders := make([]*rand.Rand, len(invariantContracts))
	for i := range randomProviders {
		randomProviders[i] = randomutils.ForkRandomProvider(baseRandomProvider)
	}

	f.resultsLock.Lock()
	f.results = make([]*CampaignResult, len(invariantContracts))
	f.resultsLock.Unlock()

	err := f.Events.FuzzerStarting.Publish(FuzzerStartingEvent{Fuzzer: f, Contracts: invariantContracts})
	if err != nil {
		return err
	}

	err = f.runCampaigns(invariantContracts, randomProviders)

	// Publish a fuzzer stopping event.
	fuzzerStoppingErr := f.Events.FuzzerStopping.Publish(FuzzerStoppingEvent{Fuzzer: f, Err: err})
	if err == nil && fuzzerStoppingErr != nil {
		err = fuzzerStoppingErr
	}
	return err
}

// runCampaigns runs a campaign per invariant contract, using a channel to block when Workers campaigns are running.
// Returns the first error encountered.
func (f *Fuzzer) runCampaigns(invariantContracts []*chain.DeployedContract, randomProviders []*rand.Rand) error {
	threadReserveChannel := make(chan struct{}, utils.Min(f.config.Fuzzing.Workers, len(invariantContracts)))
	var wg sync.WaitGroup
	var errLock sync.Mutex
	var firstErr error

	for i, contract := range invariantContracts {
		// Send an item into our channel to queue up a spot. This will block us if we hit capacity until a
		// campaign slot is freed up.
		threadReserveChannel <- struct{}{}
		if utils.CheckContextDone(f.ctx) {
			<-threadReserveChannel
			break
		}

		wg.Add(1)
		go func(index int, contract *chain.DeployedContract, randomProvider *rand.Rand) {
			defer wg.Done()
			defer func() { <-threadReserveChannel }()

			result, err := f.runCampaign(contract, randomProvider)
			if err != nil {
				errLock.Lock()
				if firstErr == nil {
					firstErr = err
					f.ctxCancelFunc()
				}
				errLock.Unlock()
				return
			}

			f.resultsLock.Lock()
			f.results[index] = result
			f.resultsLock.Unlock()
		}(i, contract, randomProviders[i])
	}

	wg.Wait()
	return firstErr
}

// runCampaign creates and runs the campaign of a single invariant contract on a clone of the backend.
func (f *Fuzzer) runCampaign(contract *chain.DeployedContract, randomProvider *rand.Rand) (*CampaignResult, error) {
	backend, err := f.backend.Clone()
	if err != nil {
		return nil, &BackendFatalError{Operation: "cloning the backend", Err: err}
	}

	campaign, err := NewCampaign(CampaignSetup{
		Backend:        backend,
		Contract:       contract,
		Deployed:       backend.DeployedContracts(),
		Senders:        f.senders,
		Reserved:       f.reserved,
		ValueSet:       f.baseValueSet.Clone(),
		RandomProvider: randomProvider,
		Config:         f.config.Fuzzing,
		Logger:         f.logger,
	})
	if err != nil {
		return nil, err
	}

	if err = f.Events.CampaignStarting.Publish(CampaignStartingEvent{Campaign: campaign}); err != nil {
		return nil, err
	}
	result, err := campaign.Run(f.ctx)
	finishedErr := f.Events.CampaignFinished.Publish(CampaignFinishedEvent{Campaign: campaign, Result: result, Err: err})
	if err == nil {
		err = finishedErr
	}
	return result, err
}

// Stop stops a running operation invoked by the Start method. This method may return before every campaign ended.
func (f *Fuzzer) Stop() {
	// Call the cancel function on our running context to stop all running campaigns
	if f.ctxCancelFunc != nil {
		f.ctxCancelFunc()
	}
}

// Terminate is an alias of Stop.
func (f *Fuzzer) Terminate() {
	f.Stop()
}
