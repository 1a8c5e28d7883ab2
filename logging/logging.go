// Package logging builds the process-wide zap logger. It generalizes
// the teacher's setupLogging() (plain log.SetOutput to a MultiWriter)
// into a structured zapcore.Core writing the same two sinks.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.Logger that writes leveled, structured entries to
// both stdout and a timestamped file under dir (created if absent).
// The returned closer flushes buffered entries and closes the file;
// callers should defer it.
func New(dir string) (*zap.Logger, func() error, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logPath := filepath.Join(dir, timestamp+".log")

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)

	core := zapcore.NewTee(
		zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), zapcore.DebugLevel),
		zapcore.NewCore(consoleEncoder, zapcore.AddSync(logFile), zapcore.DebugLevel),
	)

	logger := zap.New(core, zap.AddCaller())
	logger.Info("logging to file", zap.String("path", logPath))

	closer := func() error {
		_ = logger.Sync()
		return logFile.Close()
	}
	return logger, closer, nil
}
