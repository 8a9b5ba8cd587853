package logger

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type ctxKey string

const StoreKey ctxKey = "store"

// SlowThreshold is the duration above which Track reports a warning.
var SlowThreshold = 5 * time.Second

func init() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
}

// SetLevel parses a level name ("debug", "info", ...). Unknown names keep info.
func SetLevel(name string) {
	if name == "" {
		return
	}
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		logrus.Warnf("Unknown log level %q, keeping %s", name, logrus.GetLevel())
		return
	}
	logrus.SetLevel(lvl)
}

// For returns a log entry carrying the store name stored in ctx, if any.
func For(ctx context.Context) *logrus.Entry {
	name, ok := ctx.Value(StoreKey).(string)
	if !ok || name == "" {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return logrus.WithField("store", name)
}

func WithStore(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, StoreKey, name)
}

// Track returns a func that logs how long msg took when called.
func Track(ctx context.Context, msg string) func() {
	start := time.Now()
	return func() {
		dur := time.Since(start)
		entry := For(ctx).WithField("duration", dur.String())
		if dur > SlowThreshold {
			entry.Warnf("%s completed (SLOW)", msg)
		} else {
			entry.Debugf("%s completed", msg)
		}
	}
}
