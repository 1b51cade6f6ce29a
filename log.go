package dico

import (
	"sync"

	"github.com/rs/zerolog"
)

var (
	loggerMu      sync.RWMutex
	currentLogger = zerolog.Nop()
)

// SetLogger replaces the package logger. dico only logs at debug level:
// ignored import keys, rejected exports and ownership conflicts.
func SetLogger(l zerolog.Logger) {
	loggerMu.Lock()
	currentLogger = l
	loggerMu.Unlock()
}

func logger() *zerolog.Logger {
	loggerMu.RLock()
	l := currentLogger
	loggerMu.RUnlock()
	return &l
}
