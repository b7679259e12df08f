/*
Package session owns the per-session runtime state of live components: the
abort scopes that cancel pending effects, the mutable variables of each
component instance, and a per-session lock that serializes top-level triggers.

Every session has a root abort scope. Each triggered run gets a child scope,
keyed by the call site that started it. Starting a run with supersede aborts
the in-flight run at the same call site; Teardown aborts every run of the
session. Entries are reference counted and dropped once torn down and released.
*/
package session
