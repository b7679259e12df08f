package main

import (
	"github.com/aretw0/tendril/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var describeCmd = &cobra.Command{
	Use:   "describe <component>",
	Short: "Summarize a component definition",
	Long: `Prints a Markdown summary of the component: variables, attribute bindings,
formulas, event bindings and custom handlers. Output is styled on terminals.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStack(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		c, err := loadComponent(cmd, st, args[0])
		if err != nil {
			return err
		}
		return tui.WriteMarkdown(cmd.OutOrStdout(), tui.Describe(c))
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
}
