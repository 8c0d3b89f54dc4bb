// Package driving provides interfaces for the operations the core exposes
// (primary/inbound ports), consumed by the CLI and by the excluded
// UI/API layer.
package driving
