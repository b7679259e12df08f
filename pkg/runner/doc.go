// Package runner drives a component interactively: it reads commands from an
// IOHandler, executes them against one component session and writes the
// results back. Events raised by delayed effects are delivered to the
// handler as they happen, between commands.
//
// Two handlers are provided. TextHandler is a line-oriented console for
// humans. JSONHandler speaks JSON Lines for host processes that embed the
// engine over stdio.
package runner
