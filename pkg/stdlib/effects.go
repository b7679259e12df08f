package stdlib

import (
	"fmt"
	"math"
	"time"

	"github.com/aretw0/tendril/pkg/execution"
	"github.com/aretw0/tendril/pkg/storage"
	"github.com/aretw0/tendril/pkg/value"
)

func init() {
	action("sleep", sleep)
	action("interval", interval)

	local := func(ctx *execution.Context) *storage.Storage { return ctx.LocalStorage }
	session := func(ctx *execution.Context) *storage.Storage { return ctx.SessionStorage }
	action("saveToLocalStorage", saveTo("saveToLocalStorage", local))
	action("deleteFromLocalStorage", deleteFrom("deleteFromLocalStorage", local))
	action("clearLocalStorage", clearAll("clearLocalStorage", local))
	action("saveToSessionStorage", saveTo("saveToSessionStorage", session))
	action("deleteFromSessionStorage", deleteFrom("deleteFromSessionStorage", session))
	action("clearSessionStorage", clearAll("clearSessionStorage", session))

	action("logToConsole", func(args []value.Value, ctx *execution.Context) error {
		ctx.Log().Info("console",
			"component", ctx.Component,
			"run_id", ctx.RunID,
			"label", value.ToString(arg(args, 0)),
			"data", value.ToString(arg(args, 1)),
		)
		return nil
	})
}

// maxDelayMillis is the longest delay a time.Duration can express.
const maxDelayMillis = float64(math.MaxInt64/int64(time.Millisecond)) - 1

func delayArg(handler string, v value.Value) (time.Duration, error) {
	ms, ok := value.NumberOf(v)
	if !ok || ms < 0 {
		return 0, invalid(handler, "delay must be a non-negative number of milliseconds, got %s", v)
	}
	if ms > maxDelayMillis {
		return 0, invalid(handler, "delay %s exceeds %d milliseconds", v, int64(maxDelayMillis))
	}
	return time.Duration(ms * float64(time.Millisecond)), nil
}

// sleep(delay) raises "tick" once after delay milliseconds unless aborted first.
func sleep(args []value.Value, ctx *execution.Context) error {
	delay, err := delayArg("sleep", arg(args, 0))
	if err != nil {
		return err
	}
	if ctx.Aborted() {
		return nil
	}

	fired := make(chan struct{})
	timer := ctx.ClockOrReal().AfterFunc(delay, func() {
		close(fired)
		ctx.Trigger("tick", value.Null())
	})
	stop := ctx.Signal.OnAbort(func() { timer.Stop() })
	go func() {
		// Release the abort listener once the timer has fired.
		select {
		case <-fired:
			stop()
		case <-ctx.Signal.Done():
		}
	}()
	return nil
}

// interval(every) raises "tick" with a running count every period until aborted.
func interval(args []value.Value, ctx *execution.Context) error {
	every, err := delayArg("interval", arg(args, 0))
	if err != nil {
		return err
	}
	if every <= 0 {
		return invalid("interval", "period must be positive")
	}
	if ctx.Signal == nil {
		return invalid("interval", "requires an abort signal")
	}
	if ctx.Aborted() {
		return nil
	}

	ticker := ctx.ClockOrReal().NewTicker(every)
	go func() {
		defer ticker.Stop()
		count := 0
		for {
			select {
			case <-ctx.Signal.Done():
				return
			case <-ticker.Chan():
				count++
				ctx.Trigger("tick", value.Int(count))
			}
		}
	}()
	return nil
}

func keyArg(handler string, v value.Value) (string, error) {
	key, ok := v.AsString()
	if !ok || key == "" {
		return "", invalid(handler, "key must be a non-empty string, got %s", v)
	}
	return key, nil
}

func saveTo(handler string, pick func(*execution.Context) *storage.Storage) func([]value.Value, *execution.Context) error {
	return func(args []value.Value, ctx *execution.Context) error {
		key, err := keyArg(handler, arg(args, 0))
		if err != nil {
			return err
		}
		if err := pick(ctx).Set(ctx.Signal.Context(), key, arg(args, 1)); err != nil {
			return fmt.Errorf("%s: %w", handler, err)
		}
		return nil
	}
}

func deleteFrom(handler string, pick func(*execution.Context) *storage.Storage) func([]value.Value, *execution.Context) error {
	return func(args []value.Value, ctx *execution.Context) error {
		key, err := keyArg(handler, arg(args, 0))
		if err != nil {
			return err
		}
		if err := pick(ctx).Delete(ctx.Signal.Context(), key); err != nil {
			return fmt.Errorf("%s: %w", handler, err)
		}
		return nil
	}
}

func clearAll(handler string, pick func(*execution.Context) *storage.Storage) func([]value.Value, *execution.Context) error {
	return func(_ []value.Value, ctx *execution.Context) error {
		if err := pick(ctx).Clear(ctx.Signal.Context()); err != nil {
			return fmt.Errorf("%s: %w", handler, err)
		}
		return nil
	}
}
