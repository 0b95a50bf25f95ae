// Package zerolog adapts a zerolog.Logger to respcache.Logger.
package zerolog

import (
	"github.com/rs/zerolog"

	"github.com/unkn0wn-root/respcache"
)

var _ respcache.Logger = Logger{}

type Logger struct{ L zerolog.Logger }

func New(l zerolog.Logger) Logger {
	return Logger{L: l.With().Str("component", "respcache").Logger()}
}

func (z Logger) Debug(msg string, f respcache.Fields) { emit(z.L.Debug(), msg, f) }
func (z Logger) Info(msg string, f respcache.Fields)  { emit(z.L.Info(), msg, f) }
func (z Logger) Warn(msg string, f respcache.Fields)  { emit(z.L.Warn(), msg, f) }
func (z Logger) Error(msg string, f respcache.Fields) { emit(z.L.Error(), msg, f) }

// emit tolerates the nil event zerolog returns for disabled levels.
func emit(e *zerolog.Event, msg string, f respcache.Fields) {
	if e == nil {
		return
	}
	if len(f) > 0 {
		e = e.Fields(map[string]any(f))
	}
	e.Msg(msg)
}
