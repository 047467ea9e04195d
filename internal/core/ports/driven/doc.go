// Package driven defines the interfaces that core services call OUT to
// infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and adapters implement them.
//
// # Required Interfaces
//
//   - MonitorFactory: Creates git and file monitors from configuration
//   - WebhookIngester: Converts provider payloads into change events
//   - SourceConfigStore: Source configuration storage
//
// # Optional Interfaces
//
// These can be nil - the engine degrades gracefully:
//
//   - CheckpointStore: Persists git heads so restarts resume diffing
//   - EventJournal: Records every broadcast event
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or monitor package
package driven
