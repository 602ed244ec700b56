/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type (
	levelFilter struct {
		min zapcore.Level
	}
)

var (
	zapLogger    *zap.Logger
	sugar        *zap.SugaredLogger
	DebugEnabled = false
)

// init initializes default loggers (to console)
func init() {
	zapLogger = newConsoleLogger()
	sugar = zapLogger.Sugar()
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "logger",
		CallerKey:        "caller",
		MessageKey:       "msg",
		StacktraceKey:    "stacktrace",
		ConsoleSeparator: " ",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.LowercaseLevelEncoder,
		EncodeTime:       zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000"),
		EncodeDuration:   zapcore.SecondsDurationEncoder,
	}
}

func newConsoleLogger() *zap.Logger {
	return zap.New(
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.AddSync(os.Stdout), levelFilter{min: zapcore.DebugLevel}),
	)
}

func (f levelFilter) Enabled(level zapcore.Level) bool {
	return level >= f.min
}

// SetupWorkerLogger points console output at stderr. A plugin worker
// returns its phase result as JSON on stdout, which must stay free of log
// lines; the parent forwards worker stderr to its own.
func SetupWorkerLogger() {
	zapLogger = zap.New(
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.AddSync(os.Stderr), levelFilter{min: zapcore.DebugLevel}),
	)
	sugar = zapLogger.Sugar()
}

// SetupFileLogger tees log output into rundir/suite.log in addition to the
// console. Called once after the run directory has been created.
func SetupFileLogger(rundir string) error {
	f, err := os.OpenFile(filepath.Join(rundir, "suite.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}

	zapLogger = zap.New(
		zapcore.NewTee(
			zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.AddSync(os.Stdout), levelFilter{min: zapcore.DebugLevel}),
			zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.AddSync(f), levelFilter{min: zapcore.DebugLevel}),
		),
	)
	sugar = zapLogger.Sugar()
	return nil
}

func Debugz(msg string, fields ...zap.Field) {
	if DebugEnabled {
		zapLogger.Debug(msg, fields...)
	}
}
func Infoz(msg string, fields ...zap.Field) {
	zapLogger.Info(msg, fields...)
}
func Warnz(msg string, fields ...zap.Field) {
	zapLogger.Warn(msg, fields...)
}
func Errorz(msg string, fields ...zap.Field) {
	zapLogger.Error(msg, fields...)
}

func Debugf(msg string, args ...interface{}) {
	if DebugEnabled {
		sugar.Debugf(msg, args...)
	}
}
func Infof(msg string, args ...interface{}) {
	sugar.Infof(msg, args...)
}
func Warnf(msg string, args ...interface{}) {
	sugar.Warnf(msg, args...)
}
func Errorf(msg string, args ...interface{}) {
	sugar.Errorf(msg, args...)
}

func IsDebugEnabled() bool {
	return DebugEnabled
}
