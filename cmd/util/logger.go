package util

import (
	"github.com/zizibee/zizibee/config"
	"github.com/zizibee/zizibee/logger"
)

// NewLogger configures the global logger from conf and returns its child for
// the command "ns".
func NewLogger(ns string, conf config.Config) *logger.Logger {
	logger.Configure(conf.Logger)
	return logger.Sub(ns)
}
