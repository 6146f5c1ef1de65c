package cmd

import (
	"fmt"

	"github.com/crytic/tenet/version"
	"github.com/spf13/cobra"
)

// versionCmd prints the version of tenet, which is also recorded in the logs of every campaign.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and build information",
	Long: `Print the version of tenet together with the commit it was built from, the commit time
and the Go version. With --short, only the version and commit are printed, in semver form.`,
	Args: cobra.NoArgs,
	RunE: cmdRunVersion,
}

func init() {
	versionCmd.Flags().Bool("short", false, "print only the version and commit")
	rootCmd.AddCommand(versionCmd)
}

// cmdRunVersion writes the build information to the output of cmd.
func cmdRunVersion(cmd *cobra.Command, args []string) error {
	short, err := cmd.Flags().GetBool("short")
	if err != nil {
		return err
	}
	info := version.GetInfo()
	if short {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), info.Short())
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), info.String())
	return err
}
