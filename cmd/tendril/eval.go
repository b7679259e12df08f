package main

import (
	"io"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/internal/compiler"
	"github.com/spf13/cobra"
)

var evalCmd = &cobra.Command{
	Use:   "eval <formula>",
	Short: "Evaluate a formula",
	Long: `Evaluates a formula written in YAML or JSON and prints the result as JSON.
Pass "-" to read the formula from stdin. With --component the formula sees the
component's variables and formulas.`,
	Example: `  tendril eval '{name: add, arguments: [1, 2]}'
  tendril eval --attrs '{"who":"ada"}' '{name: uppercase, arguments: [{path: Attributes.who}]}'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readArg(cmd, args[0])
		if err != nil {
			return err
		}
		f, err := compiler.NewParser().ParseFormula(raw)
		if err != nil {
			return err
		}

		st, err := openStack(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		component, _ := cmd.Flags().GetString("component")
		scope, err := readScope(cmd, component)
		if err != nil {
			return err
		}

		v, err := st.Engine.Evaluate(cmd.Context(), tendril.EvalRequest{Scope: scope, Formula: f})
		if err != nil {
			return err
		}
		return printValue(cmd.OutOrStdout(), v)
	},
}

func readArg(cmd *cobra.Command, arg string) ([]byte, error) {
	if arg != "-" {
		return []byte(arg), nil
	}
	return io.ReadAll(cmd.InOrStdin())
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().String("component", "", "Evaluate within this component")
	addScopeFlags(evalCmd)
}
