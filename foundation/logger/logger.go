package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a session-scoped sugared logger writing to
// <logDirectory>/<sessionID>/session.log.
func New(logDirectory string, sessionID string) (*zap.SugaredLogger, error) {
	sessionDirectory := filepath.Join(logDirectory, sessionID)
	logPath := filepath.Join(sessionDirectory, "session.log")

	if _, err := os.Stat(sessionDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(sessionDirectory, os.ModePerm); err != nil {
			return nil, err
		}
	}

	_, err := os.OpenFile(logPath, os.O_CREATE|os.O_RDWR, os.ModePerm)
	if err != nil {
		return nil, err
	}

	config := zap.NewProductionConfig()
	config.OutputPaths = []string{logPath}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.DisableStacktrace = false

	log, err := config.Build()
	if err != nil {
		return nil, err
	}

	return log.Sugar(), nil
}
