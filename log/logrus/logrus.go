// Package logrus adapts a logrus entry to respcache.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/respcache"
)

var _ respcache.Logger = Logger{}

type Logger struct{ E *logrus.Entry }

func New(l *logrus.Logger) Logger {
	return Logger{E: l.WithField("component", "respcache")}
}

func (l Logger) Debug(msg string, f respcache.Fields) { l.with(f).Debug(msg) }
func (l Logger) Info(msg string, f respcache.Fields)  { l.with(f).Info(msg) }
func (l Logger) Warn(msg string, f respcache.Fields)  { l.with(f).Warn(msg) }
func (l Logger) Error(msg string, f respcache.Fields) { l.with(f).Error(msg) }

func (l Logger) with(f respcache.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	return l.E.WithFields(logrus.Fields(f))
}
