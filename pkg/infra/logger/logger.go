package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultDir = "logs"

var serverTypePattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// NewLogger builds the JSON logger of one server: entries go to
// <dir>/<serverType>.log through an async buffered writer and are echoed to
// the console. The returned func flushes and closes both.
func NewLogger(serverType, dir string) (*logrus.Logger, func(), error) {
	if !serverTypePattern.MatchString(serverType) {
		return nil, nil, fmt.Errorf("invalid server type %q", serverType)
	}
	if dir == "" {
		dir = DefaultDir
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "time",
			logrus.FieldKeyMsg:  "msg",
		},
	})
	logger.SetLevel(levelFromEnv())

	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, nil, fmt.Errorf("failed to create logs directory: %w", err)
	}
	logFile := filepath.Join(filepath.Clean(dir), serverType+".log")
	fileWriter, err := NewAsyncFileWriter(logFile, 32*1024)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize async log writer: %w", err)
	}
	logger.SetOutput(fileWriter)

	consoleHook := NewAsyncConsoleHook(1000, os.Stdout)
	logger.AddHook(consoleHook)

	closeFn := func() {
		consoleHook.Close()
		fileWriter.Close()
	}
	return logger, closeFn, nil
}

func levelFromEnv() logrus.Level {
	raw := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if raw == "" {
		return logrus.InfoLevel
	}
	level, err := logrus.ParseLevel(raw)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
