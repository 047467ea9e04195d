// Package domain defines the core entities for specsync.
//
// This package is the innermost layer of the hexagonal architecture.
// It has NO external dependencies and defines the fundamental types:
//
//   - ChangeEvent: An immutable record of one detected specification change
//   - SourceConfig: A registered change source (git repository, directory, webhook)
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
