package fuzzing

import (
	"math/rand"
	"testing"

	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/tenet/chain"
	"github.com/crytic/tenet/chain/simulated"
	"github.com/crytic/tenet/chain/simulated/harnesses"
	"github.com/crytic/tenet/fuzzing/config"
	"github.com/crytic/tenet/utils"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// testFuzzingConfig returns the default fuzzing configuration with small run counts and a fixed seed.
func testFuzzingConfig() config.FuzzingConfig {
	fuzzingConfig := config.GetDefaultProjectConfig().Fuzzing
	fuzzingConfig.Runs = 200
	fuzzingConfig.Depth = 5
	fuzzingConfig.Seed = 7
	return fuzzingConfig
}

// testSenders returns the parsed sender addresses of fuzzingConfig.
func testSenders(t *testing.T, fuzzingConfig config.FuzzingConfig) []common.Address {
	senders, err := utils.HexStringsToAddresses(fuzzingConfig.SenderAddresses)
	require.NoError(t, err)
	return senders
}

// deployHarness creates a simulated backend with the named harness deployed for the senders of fuzzingConfig.
func deployHarness(t *testing.T, name string, fuzzingConfig config.FuzzingConfig) *simulated.Backend {
	backend, err := harnesses.NewBackend(name, fuzzingConfig.BackendVersion, testSenders(t, fuzzingConfig))
	require.NoError(t, err)
	return backend
}

// findDeployed returns the contract deployed on backend with the given name.
func findDeployed(t *testing.T, backend chain.CloneableBackend, name string) *chain.DeployedContract {
	for _, contract := range backend.DeployedContracts() {
		if contract.Name == name {
			return contract
		}
	}
	require.FailNow(t, "contract not deployed", name)
	return nil
}

// newTestCampaign creates a campaign for the invariant contract named asserting on backend.
func newTestCampaign(t *testing.T, backend chain.CloneableBackend, asserting string, fuzzingConfig config.FuzzingConfig) *Campaign {
	campaign, err := newCampaignOn(t, backend, backend, asserting, fuzzingConfig)
	require.NoError(t, err)
	return campaign
}

// newCampaignOn creates a campaign for the invariant contract named asserting, deployed on source, executing on
// executor.
func newCampaignOn(t *testing.T, source chain.CloneableBackend, executor chain.Backend, asserting string, fuzzingConfig config.FuzzingConfig) (*Campaign, error) {
	reserved, err := chain.ReservedAddressesForVersion(fuzzingConfig.BackendVersion)
	require.NoError(t, err)

	return NewCampaign(CampaignSetup{
		Backend:        executor,
		Contract:       findDeployed(t, source, asserting),
		Deployed:       source.DeployedContracts(),
		Senders:        testSenders(t, fuzzingConfig),
		Reserved:       reserved,
		RandomProvider: rand.New(rand.NewSource(fuzzingConfig.Seed)),
		Config:         fuzzingConfig,
	})
}

// faultyBackend is a chain.Backend whose commits fail once a number of them succeeded.
type faultyBackend struct {
	chain.Backend

	// healthyCommits is the number of commits which succeed before every following one fails.
	healthyCommits int

	// commits is the number of commits attempted so far.
	commits int
}

// CommitCall fails once healthyCommits commits were made, and delegates to the wrapped backend otherwise.
func (b *faultyBackend) CommitCall(msg *chain.CallMessage) (*chain.CommitResult, error) {
	b.commits++
	if b.commits > b.healthyCommits {
		return nil, errors.New("state database is unavailable")
	}
	return b.Backend.CommitCall(msg)
}
