package cmd

import (
	"fmt"

	"github.com/crytic/tenet/chain/simulated/harnesses"
	"github.com/spf13/cobra"
)

// harnessesCmd lists the harnesses the fuzz and replay commands can deploy.
var harnessesCmd = &cobra.Command{
	Use:   "harnesses",
	Short: "Lists the available harnesses",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, harness := range harnesses.All() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", harness.Name, harness.Description)
		}
	},
}

func init() {
	rootCmd.AddCommand(harnessesCmd)
}
