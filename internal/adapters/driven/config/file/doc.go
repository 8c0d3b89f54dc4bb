// Package file provides a TOML file-based implementation of the ConfigStore
// port. Configuration lives in ~/.corpora/config.toml by default; nested
// tables are flattened into dot-notation keys on load. Watch reloads the
// store when the file changes on disk.
package file
