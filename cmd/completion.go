package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion",
	Short: "Generate shell completion code",
}

var bash = &cobra.Command{
	Use:   "bash",
	Short: "Generate bash completion code",
	Long: `This command generates bash CLI completion code.
Add "source <(zizibee completion bash)" to your bash profile.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := RootCmd.GenBashCompletion(cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("Error generating bash completion: %v", err)
		}
		return nil
	},
}

var zsh = &cobra.Command{
	Use:   "zsh",
	Short: "Generate zsh completion code",
	Long: `This command generates zsh CLI completion code.
Add "source <(zizibee completion zsh)" to your zsh profile.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := RootCmd.GenZshCompletion(cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("Error generating zsh completion: %v", err)
		}
		return nil
	},
}

func init() {
	completionCmd.AddCommand(bash, zsh)
}
