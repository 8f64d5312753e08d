// Package cli constructs the trustblock command-line interface, wiring the
// Cobra command hierarchy, configuration loader, credentials store and
// structured logging primitives.
package cli
