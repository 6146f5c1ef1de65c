package cmd

import (
	"fmt"

	"github.com/crytic/tenet/fuzzing/config"
	"github.com/spf13/cobra"
)

// addReplayFlags adds the various flags for the replay command
func addReplayFlags() error {
	defaultConfig := config.GetDefaultProjectConfig()

	// Prevent alphabetical sorting of usage message
	replayCmd.Flags().SortFlags = false

	// Config file
	replayCmd.Flags().String("config", "", "path to config file")

	// Reproducer file
	replayCmd.Flags().String("file", "", "path to the reproducer to replay")

	// Harness
	replayCmd.Flags().String("harness", "",
		fmt.Sprintf("harness the reproducer was recorded against (unless a config file is provided, default is %q)", defaultConfig.Fuzzing.Harness))
	return nil
}

// updateProjectConfigWithReplayFlags will update the given projectConfig with any CLI arguments that were provided to the replay command
func updateProjectConfigWithReplayFlags(cmd *cobra.Command, projectConfig *config.ProjectConfig) error {
	var err error

	// Update the harness
	if cmd.Flags().Changed("harness") {
		projectConfig.Fuzzing.Harness, err = cmd.Flags().GetString("harness")
		if err != nil {
			return err
		}
	}
	return nil
}
