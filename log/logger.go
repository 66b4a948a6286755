package log

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levels = []Level{
	LevelTrace,
	LevelDebug,
	LevelInfo,
	LevelWarn,
	LevelError,
	LevelFatal,
}

func NewLevel(l string) (Level, error) {
	for _, level := range levels {
		if level.String() == strings.ToLower(l) {
			return level, nil
		}
	}
	return LevelTrace, errors.Errorf("invalid log level: %s", l)
}

func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	default:
		panic("invalid level")
	}
}

func (l Level) logrus() logrus.Level {
	switch l {
	case LevelTrace:
		return logrus.TraceLevel
	case LevelDebug:
		return logrus.DebugLevel
	case LevelInfo:
		return logrus.InfoLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.FatalLevel
	}
}

const (
	FormatText = "text"
	FormatJSON = "json"
)

var currLevel = LevelInfo

var backend = logrus.New()

var rootLogger = &entryLogger{
	entry: logrus.NewEntry(backend),
}

type Logger interface {
	Trace(string, ...interface{})
	Debug(string, ...interface{})
	Info(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Fatal(string, ...interface{})
	Sub(...interface{}) Logger
}

func SetLevel(level Level) {
	currLevel = level
	backend.SetLevel(level.logrus())
}

func SetFormat(format string) error {
	switch format {
	case FormatText, "":
		backend.SetFormatter(&logrus.TextFormatter{})
	case FormatJSON:
		backend.SetFormatter(&logrus.JSONFormatter{})
	default:
		return errors.Errorf("invalid log format: %s", format)
	}
	return nil
}

func SetOutput(w io.Writer) {
	backend.SetOutput(w)
}

func WithModule(name string) Logger {
	return rootLogger.Sub("module", name)
}

func init() {
	backend.SetOutput(os.Stderr)
	// log everything when running under go test
	if strings.HasSuffix(os.Args[0], ".test") {
		SetLevel(LevelTrace)
	}
}
