// Package domain contains the core business entities and rules for the
// corpora ingestion pipeline. It has no dependencies on infrastructure.
package domain
