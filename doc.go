/*
Package tendril evaluates the formulas and runs the actions of declarative UI components.

A component definition binds formulas (pure expressions over a data scope) to its
attributes and action graphs to its events. The engine renders attributes on the
server or the client with the same semantics, and runs actions as cancellable,
event-linked sequences whose delayed effects live in a session scope.

# Concept

Definitions are data: YAML or JSON documents loaded through a DefinitionLoader
(a directory by default). Built-in handlers live in the "@tendril" namespace;
a component may ship its own handlers, written in JavaScript, which are visible
only inside that component's namespace.

# Key Features

  - Graceful rendering: a failing binding renders as null and is reported, never aborting the page.
  - Cancellable effects: timers and subscriptions stop when a run is superseded or its session torn down.
  - Pluggable storage: session and persistent storage over memory, files, Redis or bbolt, with optional encryption.
  - Observability: lifecycle hooks for logging and Prometheus metrics.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/tendril"
		"github.com/aretw0/tendril/pkg/value"
	)

	func main() {
		// Read component definitions from ./components
		eng, err := tendril.New("./components")
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		scope := tendril.Scope{Component: "counter", SessionID: "session-123"}

		// Fire an event, then render with the updated state
		if _, err := eng.Trigger(ctx, tendril.TriggerRequest{Scope: scope, Event: "click"}); err != nil {
			log.Fatal(err)
		}
		res, err := eng.Render(ctx, tendril.RenderRequest{Scope: scope})
		if err != nil {
			log.Fatal(err)
		}
		log.Println(value.ToString(res.Attributes["label"]))

		// Stop pending effects when the user leaves
		eng.Teardown("session-123")
	}
*/
package tendril
