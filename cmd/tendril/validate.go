package main

import (
	"fmt"

	"github.com/aretw0/tendril/internal/compiler"
	"github.com/aretw0/tendril/internal/validator"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check component definitions",
	Long: `Parses every definition and reports structural errors, unknown handlers and
writes to undeclared variables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStack(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := validator.ValidateAll(cmd.Context(), st.Engine.Loader(), compiler.NewParser(), st.Engine.Registry()); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Definitions are valid!")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
