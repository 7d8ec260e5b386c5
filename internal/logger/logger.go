// Package logger is the process-wide leveled logger. The resolver uses it
// for fallback diagnostics and best-effort cleanup failures; the CLI
// configures it from the logging section of the config file.
package logger

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	currentLevel = LevelInfo
	logger       = stdlog.New(os.Stderr, "", 0)
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// SetLevel sets the minimum level that gets written. Unknown names keep
// the current level.
func SetLevel(level string) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		currentLevel = LevelDebug
	case "INFO":
		currentLevel = LevelInfo
	case "WARN":
		currentLevel = LevelWarn
	case "ERROR":
		currentLevel = LevelError
	}
}

// SetOutput redirects log output, mainly for tests and the CLI's
// file-output option.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

func write(level Level, format string, v ...any) {
	if level < currentLevel {
		return
	}
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	logger.Println(fmt.Sprintf("[%s] [%s] ", timestamp, level) + fmt.Sprintf(format, v...))
}

func Debug(format string, v ...any) {
	write(LevelDebug, format, v...)
}

func Info(format string, v ...any) {
	write(LevelInfo, format, v...)
}

func Warn(format string, v ...any) {
	write(LevelWarn, format, v...)
}

func Error(format string, v ...any) {
	write(LevelError, format, v...)
}
