// Package sqlite provides SQLite-backed implementations of the metadata
// store ports. A single database file holds blobs, jobs, chunks, dead
// letters and evaluations; wrapper types expose each port interface.
package sqlite
