package firmata

import "go.uber.org/zap"

// std is the package-wide logger, a single global instance in the style
// of a panic-safe logger. Callers that want the library's internal
// diagnostics (frame overflow, malformed or unsupported SysEx replies,
// finder probe outcomes) routed
// somewhere specific should call SetLogger during process startup, before
// opening any Session.
var std = zap.NewNop().Sugar()

// SetLogger installs the *zap.SugaredLogger the engine logs through. Pass
// nil to silence logging again.
func SetLogger(l *zap.SugaredLogger) {
	if l == nil {
		std = zap.NewNop().Sugar()
		return
	}
	std = l
}

// NewProductionLogger builds a reasonable default logger for hosts that
// don't already run zap themselves.
func NewProductionLogger() (*zap.SugaredLogger, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}
