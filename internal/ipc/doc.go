// Package ipc provides JSON-RPC control of the daemon over a Unix domain
// socket, for the CLI and local tooling.
package ipc
