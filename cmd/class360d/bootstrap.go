package main

import (
	"class360/internal/config"
)

func buildSocketPath(cfg *config.Config) string {
	if cfg == nil {
		return ""
	}
	return cfg.Paths.SocketFile()
}

func logFilePath(cfg *config.Config) string {
	if cfg == nil {
		return ""
	}
	return cfg.Paths.LogFile()
}
