package db2023

import (
	"go.uber.org/zap"
)

type config struct {
	repairOnDuplicate  bool
	avoidCallbackAbort bool
	logger             *zap.Logger
}

func defaultConfig() config {
	return config{logger: zap.NewNop()}
}

// Option configures a DB at open time.
type Option func(*config)

// WithRepair opts into the one-shot destructive renumbering pass when a
// scan detects duplicate uids. Without it, duplicates fail the open.
func WithRepair() Option {
	return func(c *config) {
		c.repairOnDuplicate = true
	}
}

// WithAvoidCallbackAbort makes the initial scan ignore the callback's
// return value, so every existing record is delivered.
func WithAvoidCallbackAbort() Option {
	return func(c *config) {
		c.avoidCallbackAbort = true
	}
}

// WithLogger sets the logger. The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}
