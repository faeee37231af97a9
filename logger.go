package vlist

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the package logger.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the package logger.
// Lists created afterwards pick it up; existing lists keep theirs.
func SetLogger(l *zap.Logger) {
	logger = l
}

// errorFields returns the structured fields for a list error.
func errorFields(err error) []zap.Field {
	fields := []zap.Field{zap.Error(err)}
	var ve *Error
	if errors.As(err, &ve) {
		fields = append(fields, zap.String("kind", string(ve.Kind)))
		switch ve.Kind {
		case KindInvalidIndex, KindMeasurementFailed, KindRenderer:
			if !ve.noIndex {
				fields = append(fields, zap.Int("index", ve.Index))
			}
		}
		if ve.Op != "" {
			fields = append(fields, zap.String("op", ve.Op))
		}
	}
	return fields
}
