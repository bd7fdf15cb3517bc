package utils

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the shared logger for training and data loading.
var Log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetDebug switches debug output on or off.
func SetDebug(on bool) {
	if on {
		Log.SetLevel(logrus.DebugLevel)
		return
	}
	Log.SetLevel(logrus.InfoLevel)
}

func Debugf(format string, args ...any) {
	Log.Debugf(format, args...)
}
