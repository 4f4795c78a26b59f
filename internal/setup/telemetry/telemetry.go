// Package telemetry handles logger construction for the application.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/teampulse/teampulse/internal/setup/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Manager handles the creation of the application's loggers. Each process
// gets a timestamped session log file plus console output.
type Manager struct {
	instanceID string
	logDir     string
	sessionDir string
	level      string
}

// NewManager creates a new telemetry manager for the given component.
func NewManager(logDir string, debugCfg *config.Debug) *Manager {
	return &Manager{
		instanceID: uuid.New().String(),
		logDir:     logDir,
		sessionDir: filepath.Join(logDir, time.Now().UTC().Format("20060102_150405")),
		level:      debugCfg.LogLevel,
	}
}

// GetLoggers returns the main application logger and a database logger.
func (m *Manager) GetLoggers() (*zap.Logger, *zap.Logger, error) {
	mainLogger, err := m.newLogger("main")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create main logger: %w", err)
	}

	dbLogger, err := m.newLogger("database")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create database logger: %w", err)
	}

	return mainLogger, dbLogger, nil
}

// newLogger builds a logger writing to both the session file and stderr.
func (m *Manager) newLogger(name string) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(m.level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	if err := os.MkdirAll(m.sessionDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logPath := filepath.Join(m.sessionDir, name+".log")

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(logFile), level),
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(os.Stderr), level),
	)

	return zap.New(core).With(zap.String("instanceID", m.instanceID)), nil
}
