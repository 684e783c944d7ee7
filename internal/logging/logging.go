// Package logging builds the zap loggers shared by the CLI, the MCP server
// and the structuring engine.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a sugared logger writing to stderr and to any extra files.
// Verbose mode uses the development encoder at debug level, otherwise
// production JSON at warn level so regular runs stay quiet.
func New(verbose bool, files ...string) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		cfg.Sampling = nil
	}
	cfg.OutputPaths = append([]string{"stderr"}, files...)
	cfg.ErrorOutputPaths = []string{"stderr"}

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// Must is New for main packages.
func Must(verbose bool, files ...string) *zap.SugaredLogger {
	l, err := New(verbose, files...)
	if err != nil {
		panic(err)
	}
	return l
}

// Nop returns a logger that discards everything.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// Method scopes a logger to one method under structuring.
func Method(l *zap.SugaredLogger, file, method string) *zap.SugaredLogger {
	if l == nil {
		return Nop()
	}
	return l.With("file", file, "method", method)
}
