package main

import (
	"fmt"
	"sort"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/pkg/value"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render <component>",
	Short: "Render the attribute bindings of a component",
	Long: `Evaluates every attribute binding of the component and prints them as a JSON
object. Failing bindings render as null and are reported on stderr.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStack(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		scope, err := readScope(cmd, args[0])
		if err != nil {
			return err
		}
		res, err := st.Engine.Render(cmd.Context(), tendril.RenderRequest{Scope: scope})
		if err != nil {
			return err
		}

		names := make([]string, 0, len(res.Errors))
		for name := range res.Errors {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(cmd.ErrOrStderr(), "attribute %s: %v\n", name, res.Errors[name])
		}
		return printValue(cmd.OutOrStdout(), value.Object(res.Attributes))
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	addScopeFlags(renderCmd)
}
