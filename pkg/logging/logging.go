// Package logging provides the structured logger the verifier core accepts
// and uses for its own diagnostic output. The verifier takes a *Log; since
// Log only embeds a logr.Logger, any logr.Logger can be wrapped as
// &Log{Logger: l}, so this package's constructors are a convenience, not a
// requirement.
package logging

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log wraps logr.Logger with the leveled Debug/Trace helpers the rest of
// this module uses, mirroring the teacher's own pkg/logger.Log.
type Log struct {
	logr.Logger
}

// New builds a zap-backed logger. In production mode, it uses zap's JSON
// production encoder; otherwise a colorized console encoder suited to
// local development.
func New(name string, production bool) (*Log, error) {
	var zc zap.Config
	if production {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.DisableCaller = true
	zc.DisableStacktrace = true

	z, err := zc.Build()
	if err != nil {
		return nil, err
	}

	return &Log{Logger: zapr.NewLogger(z).WithName(name)}, nil
}

// NewSimple builds a logger against the global zap logger, for tests and
// one-off tools that do not need their own zap.Config.
func NewSimple(name string) *Log {
	return &Log{Logger: zapr.NewLogger(zap.L().Named(name))}
}

// Noop returns a logger that discards everything, for callers that do not
// want verifier diagnostics at all.
func Noop() *Log {
	return &Log{Logger: logr.Discard()}
}

// New creates a named sub-logger.
func (l *Log) New(name string) *Log {
	return &Log{Logger: l.WithName(name)}
}

// Debug logs at verbosity level 1.
func (l *Log) Debug(msg string, keysAndValues ...any) {
	l.Logger.V(1).WithValues(keysAndValues...).Info(msg)
}

// Trace logs at verbosity level 2.
func (l *Log) Trace(msg string, keysAndValues ...any) {
	l.Logger.V(2).WithValues(keysAndValues...).Info(msg)
}
