package slog

import (
	"bytes"
	stdslog "log/slog"
	"strings"
	"testing"

	"github.com/unkn0wn-root/respcache"
)

func TestLoggerSortsFields(t *testing.T) {
	var buf bytes.Buffer
	l := Logger{L: stdslog.New(stdslog.NewTextHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelInfo}))}

	l.Debug("hidden", respcache.Fields{"a": 1})
	l.Warn("backend error", respcache.Fields{"op": "set", "key": "k", "err": "refused"})

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line written: %q", out)
	}
	if !strings.Contains(out, `msg="backend error" err=refused key=k op=set`) {
		t.Fatalf("output = %q", out)
	}
}
