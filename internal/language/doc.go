// Package language normalizes subtitle and dub language codes and resolves
// human-readable display names for API and CLI output.
package language
