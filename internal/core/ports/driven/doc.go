// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports). The core services depend only on these
// interfaces, never on concrete stores or model providers.
package driven
