// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures the logger.
type Options struct {
	// Level is debug, info, warn or error.
	Level string
	// Format is "json" or "console".
	Format string

	// File is the rotating log file. Empty disables file output.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Console, if set, receives log output in addition to File. The TUI
	// owns the terminal, so this stays nil there.
	Console io.Writer
}

// DefaultOptions returns info-level JSON logging with no outputs.
func DefaultOptions() Options {
	return Options{
		Level:      "info",
		Format:     "json",
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 28,
	}
}

// =============================================================================
// CONSTRUCTION
// =============================================================================

// New builds a zap logger writing to the configured outputs. With no
// outputs configured it returns a no-op logger.
func New(opts Options) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	switch opts.Format {
	case "", "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	case "console":
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		return nil, fmt.Errorf("invalid log format %q", opts.Format)
	}

	var writers []zapcore.WriteSyncer
	if opts.File != "" {
		writers = append(writers, zapcore.AddSync(fileWriter(opts)))
	}
	if opts.Console != nil {
		writers = append(writers, zapcore.AddSync(opts.Console))
	}
	if len(writers) == 0 {
		return zap.NewNop(), nil
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(writers...), level)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// fileWriter creates a lumberjack writer with rotation.
func fileWriter(opts Options) io.Writer {
	if err := os.MkdirAll(filepath.Dir(opts.File), 0700); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log directory: %v\n", err)
	}
	return &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		LocalTime:  true,
	}
}

// =============================================================================
// GLOBAL LOGGER
// =============================================================================

var (
	globalMu     sync.RWMutex
	globalLogger = zap.NewNop()
)

// InitGlobal builds a logger from opts and installs it as the global one.
func InitGlobal(opts Options) (*zap.Logger, error) {
	log, err := New(opts)
	if err != nil {
		return nil, err
	}
	SetGlobal(log)
	return log, nil
}

// SetGlobal replaces the global logger. A nil logger installs a no-op one.
func SetGlobal(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	globalMu.Lock()
	globalLogger = log
	globalMu.Unlock()
}

// L returns the global logger. It is a no-op logger until InitGlobal runs.
func L() *zap.Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// Sync flushes the global logger.
func Sync() error {
	return L().Sync()
}
