// Package services implements the driving port interfaces.
// Services contain the core monitoring and fan-out logic and
// orchestrate calls to driven ports (adapters).
package services
