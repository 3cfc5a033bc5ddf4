package cmd

import (
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion",
	Short: "Generate shell completion scripts",
	Long: `To load completions:

Bash:

  $ source <(chattmpl completion bash)

  # To load completions for each session, execute once:
  # Linux:
  #   $ chattmpl completion bash > /etc/bash_completion.d/chattmpl
  # macOS:
  #   $ chattmpl completion bash > /usr/local/etc/bash_completion.d/chattmpl

Zsh:

  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:

  #   $ echo "autoload -Uz compinit" >> ~/.zshrc
  #   $ echo "compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  #   $ chattmpl completion zsh > ~/.zsh/_chattmpl

  # You will need to start a new shell for this setup to take effect.

Fish:

  $ chattmpl completion fish | source

  # To load completions for each session, execute once:
  #   $ chattmpl completion fish > ~/.config/fish/completions/chattmpl.fish

PowerShell:

  PS> chattmpl completion powershell | Out-String | Invoke-Expression
`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)

	completionCmd.AddCommand(&cobra.Command{
		Use:   "bash",
		Short: "Generate the bash completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenBashCompletionV2(cmd.OutOrStdout(), true)
		},
	})

	completionCmd.AddCommand(&cobra.Command{
		Use:   "zsh",
		Short: "Generate the zsh completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenZshCompletion(cmd.OutOrStdout())
		},
	})

	completionCmd.AddCommand(&cobra.Command{
		Use:   "fish",
		Short: "Generate the fish completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
		},
	})

	completionCmd.AddCommand(&cobra.Command{
		Use:   "powershell",
		Short: "Generate the powershell completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
		},
	})
}
