// Package mediastore is the hierarchical key-path persistence adapter. The
// orchestration core treats it as an external collaborator; the bundled
// SQLite implementation backs single-node deployments.
package mediastore
