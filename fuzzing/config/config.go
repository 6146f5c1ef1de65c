package config

import (
	"encoding/json"
	"os"

	"github.com/Masterminds/semver"
	"github.com/crytic/tenet/utils"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ProjectConfig describes the configuration of a fuzzing project.
type ProjectConfig struct {
	// Fuzzing describes the configuration used in fuzzing campaigns.
	Fuzzing FuzzingConfig `json:"fuzzing"`

	// Logging describes the configuration used for logging.
	Logging LoggingConfig `json:"logging"`
}

// FuzzingConfig describes the configuration options used by the fuzzing.Fuzzer.
type FuzzingConfig struct {
	// Harness is the name of the simulated harness deployed on the backend before fuzzing.
	Harness string `json:"harness"`

	// Workers describes the amount of campaigns that may run in parallel.
	Workers int `json:"workers"`

	// Runs describes the number of call sequences executed by each campaign.
	Runs int `json:"runs"`

	// Depth describes the maximum length of a generated call sequence.
	Depth int `json:"depth"`

	// Seed is the seed of the base random provider all campaigns are forked from. Zero selects a seed from the
	// current time.
	Seed int64 `json:"seed"`

	// FailOnRevert describes whether a reverted call to a target contract ends a campaign with a failure.
	FailOnRevert bool `json:"failOnRevert"`

	// ShrinkSequence describes whether failing call sequences are shrunk before they are reported.
	ShrinkSequence bool `json:"shrinkSequence"`

	// ShrinkLimit describes the maximum number of replays a single shrink may perform.
	ShrinkLimit int `json:"shrinkLimit"`

	// MutationProbability describes the probability with which a generated value is replaced by a mutation of it.
	MutationProbability float64 `json:"mutationProbability"`

	// InvariantPrefixes dictates what method name prefixes determine if a contract method is an invariant.
	InvariantPrefixes []string `json:"invariantPrefixes"`

	// SenderAddresses describe a set of account addresses to be used to send calls in fuzzing campaigns.
	SenderAddresses []string `json:"senderAddresses"`

	// TransactionGasLimit describes the maximum amount of gas that will be used by fuzzer generated calls.
	TransactionGasLimit uint64 `json:"transactionGasLimit"`

	// StopOnAllViolated describes whether a campaign ends as soon as every invariant it checks was violated.
	StopOnAllViolated bool `json:"stopOnAllViolated"`

	// BackendVersion describes the version of the execution backend, which determines its reserved addresses.
	BackendVersion string `json:"backendVersion"`

	// ReproducerDirectory describes the directory reproducer files of failing sequences are written to. If empty,
	// no reproducers are written.
	ReproducerDirectory string `json:"reproducerDirectory"`
}

// LoggingConfig describes the configuration options used for logging
type LoggingConfig struct {
	// Level describes whether logs of certain severity levels (eg info, warning, etc.) will be emitted or discarded.
	// Increasing level values represent more severe logs
	Level zerolog.Level `json:"level"`

	// EnableConsoleLogging describes whether console logging is enabled
	EnableConsoleLogging bool `json:"enableConsoleLogging"`

	// LogDirectory describes the directory where structured log _files_ will be outputted. If the string is empty, then
	// no log files are kept
	LogDirectory string `json:"logDirectory"`
}

// ReadProjectConfigFromFile reads a JSON-serialized ProjectConfig from a provided file path. Fields missing from the
// file keep their default values.
// Returns the ProjectConfig if it succeeds, or an error if one occurs.
func ReadProjectConfigFromFile(path string) (*ProjectConfig, error) {
	// Read our project configuration file data
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// Parse the project configuration on top of the defaults
	projectConfig := GetDefaultProjectConfig()
	err = json.Unmarshal(b, projectConfig)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return projectConfig, nil
}

// WriteToFile writes the ProjectConfig to a provided file path in a JSON-serialized format.
// Returns an error if one occurs.
func (p *ProjectConfig) WriteToFile(path string) error {
	// Serialize the configuration
	b, err := json.MarshalIndent(p, "", "\t")
	if err != nil {
		return errors.WithStack(err)
	}

	// Save it to the provided output path and return the result
	err = os.WriteFile(path, b, 0644)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// Validate validates that the ProjectConfig meets certain requirements.
// Returns an error if one occurs.
func (p *ProjectConfig) Validate() error {
	if p.Fuzzing.Workers <= 0 {
		return errors.Errorf("fuzzer worker count must be a positive number")
	}

	if p.Fuzzing.Runs <= 0 {
		return errors.Errorf("run count must be a positive number")
	}

	if p.Fuzzing.Depth <= 0 {
		return errors.Errorf("call sequence depth must be a positive number")
	}

	if p.Fuzzing.ShrinkSequence && p.Fuzzing.ShrinkLimit <= 0 {
		return errors.Errorf("shrink limit must be a positive number when shrinking is enabled")
	}

	if p.Fuzzing.MutationProbability < 0 || p.Fuzzing.MutationProbability > 1 {
		return errors.Errorf("mutation probability must be within [0, 1]")
	}

	if p.Fuzzing.TransactionGasLimit == 0 {
		return errors.Errorf("transaction gas limit cannot be zero")
	}

	// Invariants are found by prefix, so at least one is required
	if len(p.Fuzzing.InvariantPrefixes) == 0 {
		return errors.Errorf("must specify one or more invariant prefixes")
	}
	for _, prefix := range p.Fuzzing.InvariantPrefixes {
		if prefix == "" {
			return errors.Errorf("invariant prefixes cannot be empty")
		}
	}

	// Verify that senders are well-formed addresses
	if len(p.Fuzzing.SenderAddresses) == 0 {
		return errors.Errorf("must specify one or more sender addresses")
	}
	if _, err := utils.HexStringsToAddresses(p.Fuzzing.SenderAddresses); err != nil {
		return errors.Errorf("malformed sender address(es)")
	}

	if _, err := semver.NewVersion(p.Fuzzing.BackendVersion); err != nil {
		return errors.Wrapf(err, "malformed backend version %q", p.Fuzzing.BackendVersion)
	}
	return nil
}
