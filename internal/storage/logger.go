package storage

import (
	"fmt"
	"log/slog"
	"strings"
)

// badgerLogger routes badger's printf-style logging into slog.
type badgerLogger struct {
	log *slog.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.log.Error(l.msg(format, args))
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.log.Warn(l.msg(format, args))
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.log.Info(l.msg(format, args))
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.log.Debug(l.msg(format, args))
}

func (badgerLogger) msg(format string, args []any) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
