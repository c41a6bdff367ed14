package app

import (
	"github.com/inviteforge/inviteforge/pkg/logger"
)

// ConfigureLogging initialises the global zap logger from the configured level.
func ConfigureLogging(level string) error {
	return logger.Init(level)
}
