package serialization

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerLock sync.RWMutex
)

// Logger returns the logger used by the package. It is a no-op logger unless
// SetLogger has been called.
func Logger() *zap.Logger {
	loggerLock.RLock()
	defer loggerLock.RUnlock()

	if logger == nil {
		return zap.NewNop()
	}

	return logger
}

// SetLogger replaces the package logger.
func SetLogger(l *zap.Logger) {
	loggerLock.Lock()
	defer loggerLock.Unlock()

	logger = l
}
