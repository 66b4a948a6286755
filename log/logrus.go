package log

import "github.com/sirupsen/logrus"

// entryLogger writes through a logrus entry that carries every field bound
// with Sub.
type entryLogger struct {
	entry *logrus.Entry
}

var _ Logger = (*entryLogger)(nil)

func (l *entryLogger) Trace(msg string, fields ...interface{}) {
	l.log(LevelTrace, msg, fields)
}

func (l *entryLogger) Debug(msg string, fields ...interface{}) {
	l.log(LevelDebug, msg, fields)
}

func (l *entryLogger) Info(msg string, fields ...interface{}) {
	l.log(LevelInfo, msg, fields)
}

func (l *entryLogger) Warn(msg string, fields ...interface{}) {
	l.log(LevelWarn, msg, fields)
}

func (l *entryLogger) Error(msg string, fields ...interface{}) {
	l.log(LevelError, msg, fields)
}

// Fatal exits the process after logging.
func (l *entryLogger) Fatal(msg string, fields ...interface{}) {
	l.log(LevelFatal, msg, fields)
}

func (l *entryLogger) Sub(fields ...interface{}) Logger {
	return &entryLogger{
		entry: l.withFields(fields),
	}
}

func (l *entryLogger) log(level Level, msg string, fields []interface{}) {
	if level < currLevel {
		return
	}
	e := l.withFields(fields)
	if level == LevelFatal {
		e.Fatal(msg)
		return
	}
	e.Log(level.logrus(), msg)
}

// withFields binds alternating key/value pairs. Keys must be strings.
func (l *entryLogger) withFields(kv []interface{}) *logrus.Entry {
	if len(kv) == 0 {
		return l.entry
	}
	if len(kv)%2 != 0 {
		panic("log fields must be key/value pairs")
	}
	fields := make(logrus.Fields, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic("log field keys must be strings")
		}
		fields[key] = kv[i+1]
	}
	return l.entry.WithFields(fields)
}
