/*
Package domain contains the core model of the Tendril evaluation engine.

It defines formulas (pure expressions evaluated against a data scope), actions
(effectful operations wired together by event edges) and components, the unit of
definition that bundles render bindings, state variables and event handlers.
The package performs no I/O; evaluation lives in pkg/formula and pkg/action.

# Key Entities

  - Formula: an immutable expression tree (value, path, function, switch, and, or).
  - Action: a node of an action graph (custom handler call, sequence, switch, setVariable, triggerEvent).
  - EventBinding: the actions run when a named event fires.
  - Component: a named definition owning variables, attributes, formulas, events and custom handlers.
*/
package domain
