package sloghook

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/unkn0wn-root/respcache"
)

func TestHooksRedactAndSample(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := New(l, Options{SelfHealEvery: 2})

	h.BackendError("get", "respcache:/users", errors.New("refused"))
	h.SelfHeal("respcache:/users", "corrupt")
	h.SelfHeal("respcache:/users", "corrupt")
	h.MethodMismatch(respcache.KindForever, "POST")
	h.CacheHit("respcache:/users")

	out := buf.String()
	if strings.Contains(out, "/users") {
		t.Fatalf("key not redacted: %s", out)
	}
	if n := strings.Count(out, "respcache.self_heal"); n != 1 {
		t.Fatalf("self heal logged %d times, want 1 with sampling", n)
	}
	for _, want := range []string{"respcache.backend_error", "err=refused", "respcache.method_mismatch", "policy=forever"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %s", want, out)
		}
	}
	if strings.Contains(out, "hit") {
		t.Fatalf("hits should not be logged: %s", out)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	h := New(nil, Options{})
	h.BackendUnavailable(respcache.EngineRedis, errors.New("down"))
	h.SelfHeal("k", "expired")
}
