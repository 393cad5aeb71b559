package config

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"

	"github.com/sirupsen/logrus"
)

var root = &logrus.Logger{
	Out:       os.Stderr,
	Formatter: &CustomTextFormatter{logrus.TextFormatter{DisableTimestamp: true}},
	Hooks:     make(logrus.LevelHooks),
	Level:     logrus.InfoLevel,
}

// NamedLogger creates a named package logger. All named loggers share the
// level and output set by SetupLogging.
func NamedLogger(name string) *logrus.Entry {
	return root.WithField("logger", name)
}

// SetupLogging sets the level and output of every named logger.
func SetupLogging(level string, out io.Writer) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	root.SetLevel(lvl)
	if out != nil {
		root.Out = out
	}
	return nil
}

// CustomTextFormatter prefixes messages with the calling file and line at
// debug level.
type CustomTextFormatter struct {
	logrus.TextFormatter
}

// Format renders a single log entry.
func (f *CustomTextFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	if entry.Level >= logrus.DebugLevel {
		if _, file, no, ok := runtime.Caller(7); ok {
			entry.Message = fmt.Sprintf("[%-15s:%03d] %s", path.Base(file), no, entry.Message)
		}
	}
	return f.TextFormatter.Format(entry)
}
