package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger that writes human-readable output to stdout and JSON
// to a dated file under logDir. The returned closer releases the log file.
//
// Level can be one of: debug, info, warn, error, fatal.
func New(level string, logDir string) (zerolog.Logger, func(), error) {
	closer := func() {}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, closer, err
	}

	console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	writer := zerolog.MultiLevelWriter(console)

	if logDir != "" {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return zerolog.Logger{}, closer, fmt.Errorf("create log dir: %w", err)
		}
		logFile := filepath.Join(logDir, fmt.Sprintf("bot_%s.log", time.Now().Format("2006-01-02")))
		f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Logger{}, closer, err
		}
		closer = func() { _ = f.Close() }
		writer = zerolog.MultiLevelWriter(console, f)
	}

	l := zerolog.New(writer).
		With().
		Timestamp().
		Logger().
		Level(lvl)

	return l, closer, nil
}
