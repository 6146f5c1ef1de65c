package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/crytic/tenet/chain/simulated/harnesses"
	"github.com/crytic/tenet/cmd/exitcodes"
	"github.com/crytic/tenet/fuzzing"
	"github.com/crytic/tenet/fuzzing/calls"
	"github.com/crytic/tenet/fuzzing/config"
	"github.com/crytic/tenet/logging/colors"
	"github.com/crytic/tenet/utils"
	"github.com/spf13/cobra"
)

// fuzzCmd represents the command provider for fuzzing
var fuzzCmd = &cobra.Command{
	Use:               "fuzz",
	Short:             "Starts a fuzzing campaign",
	Long:              `Deploys a harness and runs a fuzzing campaign against every invariant contract it contains`,
	Args:              cmdValidateFuzzArgs,
	ValidArgsFunction: cmdValidFuzzArgs,
	RunE:              cmdRunFuzz,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func init() {
	// Add all the flags allowed for the fuzz command
	err := addFuzzFlags()
	if err != nil {
		cmdLogger.Panic("Failed to initialize the fuzz command", err)
	}

	// Add the fuzz command and its associated flags to the root command
	rootCmd.AddCommand(fuzzCmd)
}

// cmdValidFuzzArgs will return which flags and sub-commands are valid for dynamic completion for the fuzz command
func cmdValidFuzzArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return unusedFlags(cmd), cobra.ShellCompDirectiveNoFileComp
}

// cmdValidateFuzzArgs makes sure that there are no positional arguments provided to the fuzz command
func cmdValidateFuzzArgs(cmd *cobra.Command, args []string) error {
	// Make sure we have no positional args
	if err := cobra.NoArgs(cmd, args); err != nil {
		err = fmt.Errorf("fuzz does not accept any positional arguments, only flags and their associated values")
		cmdLogger.Error("Failed to validate args to the fuzz command", err)
		return err
	}
	return nil
}

// cmdRunFuzz executes the CLI fuzz command. The project configuration is resolved by loadProjectConfig and updated with
// the provided flags before the harness is deployed and fuzzed.
func cmdRunFuzz(cmd *cobra.Command, args []string) error {
	projectConfig, err := loadProjectConfig(cmd)
	if err != nil {
		cmdLogger.Error("Failed to run the fuzz command", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeHandledError)
	}

	// Update the project configuration given whatever flags were set using the CLI
	err = updateProjectConfigWithFuzzFlags(cmd, projectConfig)
	if err != nil {
		cmdLogger.Error("Failed to run the fuzz command", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeHandledError)
	}
	if err = projectConfig.Validate(); err != nil {
		cmdLogger.Error("Invalid project configuration", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeHandledError)
	}

	closeLog, err := configureGlobalLogger(projectConfig.Logging)
	if err != nil {
		cmdLogger.Error("Failed to create the log file", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeHandledError)
	}
	defer closeLog()

	fuzzer, err := newHarnessFuzzer(*projectConfig)
	if err != nil {
		cmdLogger.Error("Failed to create the fuzzer", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeHandledError)
	}

	// Stop our fuzzing on keyboard interrupts
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	defer func() {
		signal.Stop(c)
		close(c)
	}()
	go func() {
		if _, ok := <-c; ok {
			fuzzer.Terminate()
		}
	}()

	if err = fuzzer.Start(); err != nil {
		cmdLogger.Error("Fuzzing failed", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeFuzzerError)
	}

	results := fuzzer.Results()
	if projectConfig.Fuzzing.ReproducerDirectory != "" {
		paths, err := writeReproducers(projectConfig.Fuzzing.ReproducerDirectory, results)
		if err != nil {
			cmdLogger.Error("Failed to write reproducers", err)
			return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeHandledError)
		}
		for _, path := range paths {
			cmdLogger.Info("Reproducer written to: ", colors.Bold, path, colors.Reset)
		}
	}

	// If we have failed invariants, we'll want to return a special exit code
	for _, result := range results {
		if result.Failed() {
			return exitcodes.NewErrorWithExitCode(fmt.Errorf("one or more invariants failed"), exitcodes.ExitCodeTestFailed)
		}
	}
	return nil
}

// newHarnessFuzzer deploys the configured harness to a new simulated backend and creates a Fuzzer for it.
func newHarnessFuzzer(projectConfig config.ProjectConfig) (*fuzzing.Fuzzer, error) {
	senders, err := utils.HexStringsToAddresses(projectConfig.Fuzzing.SenderAddresses)
	if err != nil {
		return nil, err
	}
	backend, err := harnesses.NewBackend(projectConfig.Fuzzing.Harness, projectConfig.Fuzzing.BackendVersion, senders)
	if err != nil {
		return nil, err
	}
	return fuzzing.NewFuzzer(projectConfig, backend, backend.ReservedAddresses())
}

// writeReproducers writes a reproducer for the failing call sequence of every violated invariant, and for the
// reverted sequence of every campaign which ended on a revert, to directory.
// Returns the paths of the written files.
func writeReproducers(directory string, results []*fuzzing.CampaignResult) ([]string, error) {
	var paths []string
	write := func(name string, sequence calls.CallSequence) error {
		data, err := calls.EncodeCallSequence(sequence)
		if err != nil {
			return err
		}
		path, err := utils.WriteFileInDirectory(directory, name+DefaultReproducerExtension, data)
		if err != nil {
			return err
		}
		paths = append(paths, path)
		return nil
	}

	for _, result := range results {
		for _, failure := range result.Record.Failures() {
			if err := write(result.Contract.Name+"-"+failure.Invariant, failure.Sequence); err != nil {
				return nil, err
			}
		}
		if result.RevertFailure != nil {
			if err := write(result.Contract.Name+"-revert", result.RevertFailure.Sequence); err != nil {
				return nil, err
			}
		}
	}
	return paths, nil
}
