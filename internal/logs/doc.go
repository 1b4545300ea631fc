// Package logs reads the daemon's log file incrementally by byte offset, so
// the CLI can tail it over IPC without shipping the whole file.
package logs
