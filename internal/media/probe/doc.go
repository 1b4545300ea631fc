// Package probe wraps ffprobe container inspection for duration measurement.
package probe
