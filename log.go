package mpeg2

import (
	"github.com/op/go-logging"
)

const logModule = "mpeg2"

var log = logging.MustGetLogger(logModule)

const debugLevel = logging.DEBUG

func init() {
	// Quiet unless the application configures go-logging itself.
	logging.SetLevel(logging.WARNING, logModule)
}

// SetLogLevel sets the level of the package logger.
func SetLogLevel(level logging.Level) {
	logging.SetLevel(level, logModule)
}
