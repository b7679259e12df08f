package domain

import "errors"

var (
	// ErrHandlerNotFound is returned when a formula or action name does not resolve in the registry.
	ErrHandlerNotFound = errors.New("handler not found")

	// ErrDuplicateHandler is returned when a handler key is registered twice.
	ErrDuplicateHandler = errors.New("handler already registered")

	// ErrInvalidArgument is returned by action handlers whose required arguments are unusable.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAborted marks work stopped by its abort signal. It is not a failure.
	ErrAborted = errors.New("aborted")

	// ErrRecursionLimit is returned when component formulas nest deeper than allowed.
	ErrRecursionLimit = errors.New("recursion limit exceeded")

	ErrUnknownFormula = errors.New("unknown formula type")
	ErrUnknownAction  = errors.New("unknown action type")

	// ErrComponentNotFound is returned when a component name is not loaded.
	ErrComponentNotFound = errors.New("component not found")

	// ErrEventNotFound is returned when a component has no binding for the triggered event.
	ErrEventNotFound = errors.New("event not found")

	// ErrInvalidKey is returned by durable storage for an empty key.
	ErrInvalidKey = errors.New("invalid storage key")

	// ErrInvalidDefinition wraps structural problems found by Component.Validate.
	ErrInvalidDefinition = errors.New("invalid definition")
)
