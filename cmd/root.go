package cmd

import (
	"github.com/crytic/tenet/logging"
	"github.com/crytic/tenet/logging/colors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// cmdLogger is the logger of the cmd package. It writes to the console regardless of the project configuration so
// that argument and configuration errors are always reported.
var cmdLogger = logging.NewLogger(zerolog.InfoLevel, true).NewSubLogger("module", logging.CLI_SERVICE)

var rootCmd = &cobra.Command{
	Use:   "tenet",
	Short: "A stateful invariant fuzzer for smart contract systems",
	Long:  "tenet fuzzes sequences of contract calls and asserts the invariants of each invariant contract after every call",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		noColor, err := cmd.Flags().GetBool("no-color")
		if err != nil {
			return err
		}
		if noColor {
			colors.DisableColor()
		}
		return nil
	},
}

func init() {
	// Logging color
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored terminal output")
}

func Execute() error {
	return rootCmd.Execute()
}
