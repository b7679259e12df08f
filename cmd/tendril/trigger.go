package main

import (
	"fmt"
	"time"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/internal/cli"
	"github.com/aretw0/tendril/pkg/value"
	"github.com/spf13/cobra"
)

var triggerCmd = &cobra.Command{
	Use:   "trigger <component> <event>",
	Short: "Run the actions bound to a component event",
	Long: `Runs the actions bound to the event and prints every component event they emit,
one per line. With --wait the session stays open so delayed effects (sleep,
interval) can fire before it is torn down.`,
	Example: `  tendril trigger counter click --payload '{"step":2}'
  tendril trigger poller start --wait 5s`,
	Args: cobra.ExactArgs(2),
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
		payload, err := valueFlag(cmd, "payload")
		if err != nil {
			return err
		}
		wait, _ := cmd.Flags().GetDuration("wait")
		if wait > 0 && scope.SessionID == "" {
			scope.SessionID = "cli"
		}

		out := cmd.OutOrStdout()
		emit := func(event string, payload value.Value) {
			text, _ := value.Encode(payload, 0)
			fmt.Fprintf(out, "%s %s\n", event, text)
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		run, err := st.Engine.Trigger(sigCtx, tendril.TriggerRequest{
			Scope:   scope,
			Event:   args[1],
			Payload: payload,
			Emit:    emit,
		})
		if err != nil {
			return err
		}

		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-sigCtx.Done():
				timer.Stop()
				st.Logger.Info("interrupted", "signal", sigCtx.Signal())
			}
			st.Engine.Teardown(scope.SessionID)
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "run %s %s\n", run.ID, run.Status)
		return run.Err
	},
}

func init() {
	rootCmd.AddCommand(triggerCmd)
	addScopeFlags(triggerCmd)
	triggerCmd.Flags().String("payload", "", "Event payload as JSON")
	triggerCmd.Flags().Duration("wait", 0, "Keep the session open this long for delayed effects")
}
