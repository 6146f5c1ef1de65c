package cmd

import (
	"fmt"
	"os"

	"github.com/crytic/tenet/chain"
	"github.com/crytic/tenet/cmd/exitcodes"
	"github.com/crytic/tenet/fuzzing"
	"github.com/crytic/tenet/fuzzing/calls"
	"github.com/crytic/tenet/fuzzing/config"
	"github.com/crytic/tenet/fuzzing/contracts"
	"github.com/crytic/tenet/logging"
	"github.com/crytic/tenet/logging/colors"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// replayCmd represents the command provider for replaying reproducers
var replayCmd = &cobra.Command{
	Use:               "replay",
	Short:             "Replays a reproducer",
	Long:              `Replays a call sequence written by the fuzz command and asserts the invariants of the harness after every call`,
	Args:              cmdValidateReplayArgs,
	ValidArgsFunction: cmdValidReplayArgs,
	RunE:              cmdRunReplay,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func init() {
	// Add all the flags allowed for the replay command
	err := addReplayFlags()
	if err != nil {
		cmdLogger.Panic("Failed to initialize the replay command", err)
	}

	// Add the replay command and its associated flags to the root command
	rootCmd.AddCommand(replayCmd)
}

// cmdValidReplayArgs will return which flags are valid for dynamic completion for the replay command
func cmdValidReplayArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return unusedFlags(cmd), cobra.ShellCompDirectiveNoFileComp
}

// cmdValidateReplayArgs makes sure that there are no positional arguments provided to the replay command
func cmdValidateReplayArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		err = fmt.Errorf("replay does not accept any positional arguments, only flags and their associated values")
		cmdLogger.Error("Failed to validate args to the replay command", err)
		return err
	}
	return nil
}

// cmdRunReplay executes the CLI replay command. The harness is deployed to a new backend, the reproducer is resolved
// against its contracts and replayed for every invariant contract.
func cmdRunReplay(cmd *cobra.Command, args []string) error {
	projectConfig, err := loadProjectConfig(cmd)
	if err != nil {
		cmdLogger.Error("Failed to run the replay command", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeHandledError)
	}
	if err = updateProjectConfigWithReplayFlags(cmd, projectConfig); err != nil {
		cmdLogger.Error("Failed to run the replay command", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeHandledError)
	}

	path, err := cmd.Flags().GetString("file")
	if err == nil && path == "" {
		err = errors.New("a reproducer must be provided with --file")
	}
	if err != nil {
		cmdLogger.Error("Failed to run the replay command", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeHandledError)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		cmdLogger.Error("Failed to read the reproducer", err)
		return exitcodes.NewErrorWithExitCode(errors.WithStack(err), exitcodes.ExitCodeHandledError)
	}

	closeLog, err := configureGlobalLogger(projectConfig.Logging)
	if err != nil {
		cmdLogger.Error("Failed to create the log file", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeHandledError)
	}
	defer closeLog()

	outcomes, err := replayReproducer(*projectConfig, data)
	if err != nil {
		cmdLogger.Error("Failed to replay the reproducer", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeFuzzerError)
	}

	failed := false
	for _, outcome := range outcomes {
		cmdLogger.Info(outcome.Log())
		failed = failed || outcome.Record.ViolatedCount() > 0
	}
	if failed {
		return exitcodes.NewErrorWithExitCode(fmt.Errorf("the reproducer violates one or more invariants"), exitcodes.ExitCodeTestFailed)
	}
	cmdLogger.Info("The reproducer violates no invariant")
	return nil
}

// replayOutcome describes the invariants of a contract after replaying a reproducer.
type replayOutcome struct {
	// Contract is the invariant contract that was asserted.
	Contract *chain.DeployedContract

	// Record holds the outcome of every invariant of Contract.
	Record fuzzing.InvariantRecord
}

// Log returns a report of the outcome.
func (o *replayOutcome) Log() *logging.LogBuffer {
	buffer := logging.NewLogBuffer()
	for i, name := range o.Record.Names() {
		if i > 0 {
			buffer.Append("\n")
		}
		failure := o.Record[name]
		if failure == nil {
			buffer.Append(colors.GreenBold, "[PASSED] ", colors.Bold, o.Contract.Name, ".", name, colors.Reset)
			continue
		}
		buffer.Append(colors.RedBold, "[FAILED] ", colors.Bold, o.Contract.Name, ".", name, colors.Reset, "\n")
		buffer.Append(fmt.Sprintf("Violated after call %d of the reproducer", len(failure.Sequence)))
	}
	return buffer
}

// replayReproducer deploys the configured harness to a new backend and replays the encoded call sequence against
// every invariant contract it contains, each from the freshly deployed state.
// Returns an outcome per invariant contract, in deployment order.
func replayReproducer(projectConfig config.ProjectConfig, data []byte) ([]*replayOutcome, error) {
	sequence, err := calls.DecodeCallSequence(data)
	if err != nil {
		return nil, err
	}

	fuzzer, err := newHarnessFuzzer(projectConfig)
	if err != nil {
		return nil, err
	}
	backend := fuzzer.Backend()
	if err = sequence.Resolve(backend.DeployedContracts()); err != nil {
		return nil, err
	}

	snapshot := backend.Snapshot()

	var outcomes []*replayOutcome
	for _, contract := range fuzzer.InvariantContracts() {
		invariants, _, err := contracts.InvariantMethods(contract.ABI, projectConfig.Fuzzing.InvariantPrefixes)
		if err != nil {
			return nil, err
		}
		record, err := fuzzing.ReplaySequence(backend, snapshot, contract, invariants, sequence, projectConfig.Fuzzing.TransactionGasLimit)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, &replayOutcome{Contract: contract, Record: record})
	}
	return outcomes, nil
}
