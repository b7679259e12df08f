/*
Package execution defines the context threaded through one top-level evaluation:
a render pass or a single triggered event.

The Context bundles the host environment (server request facts or client facts),
the root scope used for cookie reads, the data scope visible to path formulas,
the abort signal observed by long-running actions and the triggerActionEvent side
channel. Capabilities that would otherwise be ambient (equality, clock, storages)
are injected here so evaluation runs headless and under test with fakes.
*/
package execution
