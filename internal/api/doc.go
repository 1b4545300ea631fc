// Package api defines the wire DTOs shared by the HTTP surface, the IPC
// control socket, and the CLI, plus converters from internal types.
package api
