package zerolog

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"

	"github.com/unkn0wn-root/respcache"
)

func TestLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(zerolog.New(&buf).Level(zerolog.InfoLevel))

	l.Debug("dropped", respcache.Fields{"key": "k"}) // below level
	l.Error("policy panic", respcache.Fields{"policy": "forever"})

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("output %q: %v", buf.String(), err)
	}
	if line["level"] != "error" || line["message"] != "policy panic" || line["policy"] != "forever" || line["component"] != "respcache" {
		t.Fatalf("line = %v", line)
	}
}
