// Package logging constructs the process-wide zap logger. Grounded on
// Cray-HPE-cray-site-init's vendored go.uber.org/zap dependency,
// elevated here from an indirect etcd/viper transitive dependency to a
// direct, explicitly constructed logger passed to the constructors of
// the packages that log (apply, clusterstore, eventbus).
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures logger construction.
type Options struct {
	// Level is one of "debug", "info", "warn", "error". Defaults to "info".
	Level string
	// Development enables human-readable console output instead of JSON.
	Development bool
}

// New builds a *zap.SugaredLogger per opts. Production mode emits JSON
// to stderr; development mode emits zap's human-readable console
// encoding to stderr, matching zap's own NewDevelopment/NewProduction
// presets.
func New(opts Options) (*zap.SugaredLogger, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	var cfg zap.Config
	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// Nop returns a logger that discards everything, for tests and
// call sites that haven't wired a real one yet.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func parseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return 0, err
	}
	return l, nil
}
