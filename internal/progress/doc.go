// Package progress is the per-entity publish/subscribe hub for processing
// status snapshots, with latest-snapshot replay for late subscribers.
package progress
