package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// supportedShells are the shells completion code can be generated for.
var supportedShells = []string{"bash", "zsh", "fish"}

// completionCmd represents the completion command
var completionCmd = &cobra.Command{
	Use:       "completion <shell>",
	Short:     "Generate shell completion code for the specified shell (bash, zsh or fish)",
	ValidArgs: supportedShells,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Long: `To load completions:

Bash:

  $ source <(tenet completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ tenet completion bash > /etc/bash_completion.d/tenet
  # macOS:
  $ tenet completion bash > $(brew --prefix)/etc/bash_completion.d/tenet

Zsh:

  $ tenet completion zsh > "${fpath[1]}/_tenet"

Fish:

  $ tenet completion fish > ~/.config/fish/completions/tenet.fish`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var err error
		switch args[0] {
		case "bash":
			err = cmd.Root().GenBashCompletion(os.Stdout)
		case "zsh":
			err = cmd.Root().GenZshCompletion(os.Stdout)
		case "fish":
			err = cmd.Root().GenFishCompletion(os.Stdout, true)
		}
		if err != nil {
			return fmt.Errorf("unable to generate a %v completion: %w", args[0], err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
