package cmd

import (
	"fmt"

	"github.com/crytic/tenet/fuzzing/config"
	"github.com/spf13/cobra"
)

// addFuzzFlags adds the various flags for the fuzz command
func addFuzzFlags() error {
	defaultConfig := config.GetDefaultProjectConfig()

	// Prevent alphabetical sorting of usage message
	fuzzCmd.Flags().SortFlags = false

	// Config file
	fuzzCmd.Flags().String("config", "", "path to config file")

	// Harness
	fuzzCmd.Flags().String("harness", "",
		fmt.Sprintf("harness to deploy and fuzz (unless a config file is provided, default is %q)", defaultConfig.Fuzzing.Harness))

	// Number of workers
	fuzzCmd.Flags().Int("workers", 0,
		fmt.Sprintf("number of campaigns to run in parallel (unless a config file is provided, default is %d)", defaultConfig.Fuzzing.Workers))

	// Runs
	fuzzCmd.Flags().Int("runs", 0,
		fmt.Sprintf("number of call sequences to run per invariant contract (unless a config file is provided, default is %d)", defaultConfig.Fuzzing.Runs))

	// Call sequence depth
	fuzzCmd.Flags().Int("depth", 0,
		fmt.Sprintf("maximum calls to run in sequence (unless a config file is provided, default is %d)", defaultConfig.Fuzzing.Depth))

	// Seed
	fuzzCmd.Flags().Int64("seed", 0, "seed of the random provider. 0 means that a time-based seed is used")

	// Fail on revert
	fuzzCmd.Flags().Bool("fail-on-revert", false,
		fmt.Sprintf("treat a reverting call as a failure (unless a config file is provided, default is %t)", defaultConfig.Fuzzing.FailOnRevert))

	// Shrinking
	fuzzCmd.Flags().Bool("no-shrink", false, "disable shrinking of failing call sequences")

	// Senders
	fuzzCmd.Flags().StringSlice("senders", []string{},
		"account address(es) used to send state-changing calls")

	// Reproducer directory
	fuzzCmd.Flags().String("reproducer-dir", "",
		"directory to write a reproducer for every failing call sequence to")
	return nil
}

// updateProjectConfigWithFuzzFlags will update the given projectConfig with any CLI arguments that were provided to the fuzz command
func updateProjectConfigWithFuzzFlags(cmd *cobra.Command, projectConfig *config.ProjectConfig) error {
	var err error

	// Update the harness
	if cmd.Flags().Changed("harness") {
		projectConfig.Fuzzing.Harness, err = cmd.Flags().GetString("harness")
		if err != nil {
			return err
		}
	}

	// Update number of workers
	if cmd.Flags().Changed("workers") {
		projectConfig.Fuzzing.Workers, err = cmd.Flags().GetInt("workers")
		if err != nil {
			return err
		}
	}

	// Update run count
	if cmd.Flags().Changed("runs") {
		projectConfig.Fuzzing.Runs, err = cmd.Flags().GetInt("runs")
		if err != nil {
			return err
		}
	}

	// Update sequence depth
	if cmd.Flags().Changed("depth") {
		projectConfig.Fuzzing.Depth, err = cmd.Flags().GetInt("depth")
		if err != nil {
			return err
		}
	}

	// Update seed
	if cmd.Flags().Changed("seed") {
		projectConfig.Fuzzing.Seed, err = cmd.Flags().GetInt64("seed")
		if err != nil {
			return err
		}
	}

	// Update revert handling
	if cmd.Flags().Changed("fail-on-revert") {
		projectConfig.Fuzzing.FailOnRevert, err = cmd.Flags().GetBool("fail-on-revert")
		if err != nil {
			return err
		}
	}

	// Disable shrinking
	if cmd.Flags().Changed("no-shrink") {
		noShrink, err := cmd.Flags().GetBool("no-shrink")
		if err != nil {
			return err
		}
		projectConfig.Fuzzing.ShrinkSequence = !noShrink
	}

	// Update senders
	if cmd.Flags().Changed("senders") {
		projectConfig.Fuzzing.SenderAddresses, err = cmd.Flags().GetStringSlice("senders")
		if err != nil {
			return err
		}
	}

	// Update reproducer directory
	if cmd.Flags().Changed("reproducer-dir") {
		projectConfig.Fuzzing.ReproducerDirectory, err = cmd.Flags().GetString("reproducer-dir")
		if err != nil {
			return err
		}
	}
	return nil
}
