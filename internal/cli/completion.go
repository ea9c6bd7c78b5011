package cli

import (
	"github.com/spf13/cobra"
)

// Extensions offered when completing file arguments.
var (
	dataExtensions   = []string{"csv", "xlsx", "xlsm"}
	layoutExtensions = []string{"json", "toml"}
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for cardforge.

Data arguments complete to .csv, .xlsx and .xlsm files; --config completes
to .json and .toml layout documents.

  $ source <(cardforge completion bash)
  $ cardforge completion zsh > "${fpath[1]}/_cardforge"
  $ cardforge completion fish > ~/.config/fish/completions/cardforge.fish
  PS> cardforge completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}

	return cmd
}

// completeDataFile completes the single data file argument.
func completeDataFile(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return dataExtensions, cobra.ShellCompDirectiveFilterFileExt
}

// completeLayoutFile completes a layout document path.
func completeLayoutFile(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return layoutExtensions, cobra.ShellCompDirectiveFilterFileExt
}

// registerLayoutFlag wires layout completion to the command's --config flag.
func registerLayoutFlag(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("config", completeLayoutFile)
}
