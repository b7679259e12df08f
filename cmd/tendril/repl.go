package main

import (
	"fmt"

	"github.com/aretw0/tendril/internal/cli"
	"github.com/aretw0/tendril/internal/presentation/tui"
	"github.com/aretw0/tendril/pkg/runner"
	"github.com/spf13/cobra"
)

var replCmd = &cobra.Command{
	Use:   "repl [component]",
	Short: "Drive a component session interactively",
	Long: `Starts a console bound to one component session. Lines are formulas to
evaluate, or commands such as :render and :trigger <event>. Delayed effects
keep running between lines and print their events as they fire.

With --json the console speaks JSON Lines instead, for host processes that
embed tendril over stdio.`,
	Example: `  tendril repl counter
  echo '{"op":"render"}' | tendril repl counter --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStack(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		component := ""
		if len(args) == 1 {
			component = args[0]
			if _, err := loadComponent(cmd, st, component); err != nil {
				return err
			}
		}
		scope, err := readScope(cmd, component)
		if err != nil {
			return err
		}

		in, out := cmd.InOrStdin(), cmd.OutOrStdout()
		var handler runner.IOHandler
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			handler = runner.NewJSONHandler(in, out)
		} else {
			var opts []runner.TextHandlerOption
			if !tui.IsTerminal(out) {
				opts = append(opts, runner.WithPrompt(""))
			} else {
				fmt.Fprintln(out, "Type :help for commands, :quit to leave.")
			}
			handler = runner.NewTextHandler(in, out, opts...)
		}

		opts := []runner.Option{
			runner.WithLogger(st.Logger),
			runner.WithAttributes(scope.Attributes),
			runner.WithData(scope.Data),
		}
		if scope.SessionID != "" {
			opts = append(opts, runner.WithSessionID(scope.SessionID))
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()
		return runner.New(st.Engine, handler, component, opts...).Run(sigCtx)
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
	addScopeFlags(replCmd)
	replCmd.Flags().Bool("json", false, "Speak JSON Lines instead of text")
}
