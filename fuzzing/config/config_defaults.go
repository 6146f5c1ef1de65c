package config

import "github.com/rs/zerolog"

// GetDefaultProjectConfig obtains a default configuration for a project.
func GetDefaultProjectConfig() *ProjectConfig {
	return &ProjectConfig{
		Fuzzing: FuzzingConfig{
			Harness:             "counter",
			Workers:             4,
			Runs:                1000,
			Depth:               20,
			Seed:                0,
			FailOnRevert:        false,
			ShrinkSequence:      true,
			ShrinkLimit:         500,
			MutationProbability: 0.1,
			InvariantPrefixes: []string{
				"invariant_",
			},
			SenderAddresses: []string{
				"0x0000000000000000000000000000000000010000",
				"0x0000000000000000000000000000000000020000",
				"0x0000000000000000000000000000000000030000",
			},
			TransactionGasLimit: 12_500_000,
			StopOnAllViolated:   true,
			BackendVersion:      "1.0.0",
		},
		Logging: LoggingConfig{
			Level:                zerolog.InfoLevel,
			EnableConsoleLogging: true,
			LogDirectory:         "",
		},
	}
}
