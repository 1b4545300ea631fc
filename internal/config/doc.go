// Package config loads, validates, and normalizes the TOML configuration used
// by the daemon and CLI.
package config
