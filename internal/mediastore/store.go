package mediastore

import (
	"context"
	"strings"
)

// Store is the hierarchical key-path persistence collaborator. Paths are
// slash-delimited keys into nested records (e.g. "videos/{id}").
//
// Absence is not an error: Get returns ok=false for a missing path and callers
// degrade gracefully rather than failing the operation.
type Store interface {
	// Get returns the JSON document stored at path.
	Get(ctx context.Context, path string) (map[string]any, bool, error)
	// Set replaces the document at path.
	Set(ctx context.Context, path string, value map[string]any) error
	// Update merges the partial document's top-level fields into the existing
	// document at path, creating it when absent. The merge is read-modify-write
	// without transactional guarantees across writers.
	Update(ctx context.Context, path string, partial map[string]any) error
	// Delete removes the document at path. Deleting an absent path is a no-op.
	Delete(ctx context.Context, path string) error
	// Children lists the immediate child key segments under path.
	Children(ctx context.Context, path string) ([]string, error)
}

// CleanPath normalizes a slash-delimited key path.
func CleanPath(path string) string {
	segments := strings.Split(path, "/")
	cleaned := make([]string, 0, len(segments))
	for _, segment := range segments {
		if trimmed := strings.TrimSpace(segment); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return strings.Join(cleaned, "/")
}
