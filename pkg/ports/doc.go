/*
Package ports defines the driven ports (interfaces) of the Tendril engine.

These interfaces decouple evaluation from external implementations, so durable
storage and component definitions can come from memory, the filesystem, Redis or
an embedded bbolt database.

# Key Interfaces

  - Backend: byte-oriented key/value persistence behind pkg/storage.
  - DefinitionLoader: source of raw component definitions (YAML or JSON).
*/
package ports
