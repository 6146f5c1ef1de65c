package cmd

import (
	"github.com/crytic/tenet/fuzzing/config"
	"github.com/spf13/cobra"
)

// addInitFlags adds the various flags for the init command
func addInitFlags() error {
	// Output path for configuration
	initCmd.Flags().String("out", "", "output path for the new project configuration file")

	// Harness
	initCmd.Flags().String("harness", "", "harness the project configuration fuzzes")
	return nil
}

// updateProjectConfigWithInitFlags will update the given projectConfig with any CLI arguments that were provided to the init command
func updateProjectConfigWithInitFlags(cmd *cobra.Command, projectConfig *config.ProjectConfig) error {
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
