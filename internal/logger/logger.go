package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logDir      = "log"
	logFilename = "powerslide.log"
)

// Logger stays silent until Init is called, so packages may log from tests
var Logger = zerolog.Nop()
var logFilePath string

// Init configures the console logger. Unknown level names fall back to info.
func Init(logLevel string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.DateTime,
	}
	setOutput(consoleWriter, ParseLevel(logLevel))
}

// ParseLevel maps a level name to a zerolog level
func ParseLevel(name string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// AddFileLogger tees log output into a rotating file under workdir/log
func AddFileLogger(workdir string) error {
	logFilePath = filepath.Join(workdir, logDir, logFilename)
	if err := os.MkdirAll(filepath.Dir(logFilePath), 0755); err != nil {
		return err
	}
	fileLogger := &lumberjack.Logger{
		Filename:   logFilePath,
		MaxAge:     3,
		MaxBackups: 3,
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.DateTime,
	}
	setOutput(zerolog.MultiLevelWriter(consoleWriter, fileLogger), Logger.GetLevel())
	return nil
}

func setOutput(w io.Writer, level zerolog.Level) {
	Logger = zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()

	if level <= zerolog.DebugLevel {
		Logger = Logger.With().Caller().Logger()
	}
}

func GetLogFilePath() string {
	return logFilePath
}
