// Package logger wires gookit/slog behind the small interface the services
// depend on.
package logger

import (
	"strings"

	"github.com/gookit/slog"
	"github.com/gookit/slog/handler"
)

// Logger is the logging contract injected into every component.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// New builds a JSON console logger for service at the given level name.
// Unknown level names fall back to info.
func New(service, level string) Logger {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		level = "info"
	}
	logLevel := slog.LevelByName(level)

	var levels slog.Levels
	for _, lv := range slog.AllLevels {
		if lv <= logLevel {
			levels = append(levels, lv)
		}
	}

	h := handler.NewConsoleHandler(levels)
	// Extra fields such as service are emitted as top-level keys.
	h.SetFormatter(slog.NewJSONFormatter(func(f *slog.JSONFormatter) {
		f.Fields = []string{
			slog.FieldKeyDatetime,
			slog.FieldKeyLevel,
			slog.FieldKeyMessage,
		}
		f.Aliases = slog.StringMap{
			slog.FieldKeyDatetime: "datetime",
			slog.FieldKeyLevel:    "level",
			slog.FieldKeyMessage:  "message",
		}
		f.TimeFormat = "2006-01-02T15:04:05.000"
	}))

	base := slog.NewWithHandlers(h)
	return &serviceLogger{inner: base, service: service}
}

type serviceLogger struct {
	inner   *slog.Logger
	service string
}

func (l *serviceLogger) record() *slog.Record {
	return l.inner.WithFields(slog.M{"service": l.service})
}

func (l *serviceLogger) Debugf(format string, args ...any) { l.record().Debugf(format, args...) }
func (l *serviceLogger) Infof(format string, args ...any)  { l.record().Infof(format, args...) }
func (l *serviceLogger) Warnf(format string, args ...any)  { l.record().Warnf(format, args...) }
func (l *serviceLogger) Errorf(format string, args ...any) { l.record().Errorf(format, args...) }

// Discard returns a Logger that drops everything. Tests use it.
func Discard() Logger { return discard{} }

type discard struct{}

func (discard) Debugf(string, ...any) {}
func (discard) Infof(string, ...any)  {}
func (discard) Warnf(string, ...any)  {}
func (discard) Errorf(string, ...any) {}
