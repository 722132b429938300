package logger

import (
	"context"
	"io"
	"os"

	"github.com/shinyyama/harvest-market-backend/internal/reqctx"
	"github.com/sirupsen/logrus"
)

// New builds the process logger. Unknown levels fall back to info.
func New(level, format string) *logrus.Logger {
	l := logrus.New()
	if format == "text" {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	l.SetOutput(os.Stdout)
	return l
}

// Discard returns a logger that drops everything; used by tests and tools.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func LogError(logger logrus.FieldLogger, moduleName, funcName, context string, data any, err error) {
	if logger == nil || err == nil {
		return
	}
	fields := logrus.Fields{
		"module":   moduleName,
		"funcName": funcName,
		"context":  context,
	}
	if data != nil {
		fields["data"] = data
	}
	logger.WithFields(fields).Error(err.Error())
}

// FromContext attaches the request id and user id carried by ctx.
func FromContext(ctx context.Context, l *logrus.Logger) *logrus.Entry {
	fields := logrus.Fields{}
	if rid := reqctx.RID(ctx); rid != "" {
		fields["request_id"] = rid
	}
	if uid := reqctx.UserID(ctx); uid != 0 {
		fields["user_id"] = uid
	}
	return l.WithFields(fields)
}
