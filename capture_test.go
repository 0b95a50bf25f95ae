package respcache

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCaptureBuffersUntilEmit(t *testing.T) {
	rr := httptest.NewRecorder()
	cw := newCapture(rr)
	cw.Header().Set("Content-Type", "text/plain")
	cw.WriteHeader(http.StatusEarlyHints) // informational, ignored
	cw.WriteHeader(http.StatusCreated)
	cw.WriteHeader(http.StatusTeapot) // superfluous, ignored
	_, _ = cw.Write([]byte("hello "))
	_, _ = cw.Write([]byte("world"))

	if rr.Body.Len() != 0 || rr.Flushed {
		t.Fatalf("capture leaked %q before emit", rr.Body.String())
	}

	var seen *response
	calls := 0
	if err := cw.emit(func(res *response) { calls++; seen = res }); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if err := cw.emit(func(*response) { calls++ }); !errors.Is(err, errAlreadyEmitted) {
		t.Fatalf("second emit err = %v", err)
	}
	if calls != 1 {
		t.Fatalf("hook fired %d times", calls)
	}
	if seen.status != http.StatusCreated || string(seen.body) != "hello world" {
		t.Fatalf("hook saw %d %q", seen.status, seen.body)
	}
	if rr.Code != http.StatusCreated || rr.Body.String() != "hello world" || rr.Header().Get("Content-Type") != "text/plain" {
		t.Fatalf("client got %d %q %v", rr.Code, rr.Body.String(), rr.Header())
	}
	if e := seen.entry(); e.ContentType != "text/plain" || e.Status != http.StatusCreated {
		t.Fatalf("entry = %+v", e)
	}
}

func TestCaptureDefaultsToOK(t *testing.T) {
	cw := newDetachedCapture()
	if res := cw.result(); res.status != http.StatusOK || len(res.body) != 0 {
		t.Fatalf("empty capture = %+v", res)
	}
	if err := cw.emit(nil); err != nil {
		t.Fatalf("detached emit: %v", err)
	}
}

func TestWriteResponseCopiesHeaders(t *testing.T) {
	res := &response{status: http.StatusAccepted, header: http.Header{"X-A": {"1"}}, body: []byte("x")}
	rr := httptest.NewRecorder()
	if err := writeResponse(rr, res, true); err != nil {
		t.Fatal(err)
	}
	rr.Header().Add("X-A", "2")
	if len(res.header["X-A"]) != 1 {
		t.Fatalf("replay aliased the source header")
	}
	if rr.Code != http.StatusAccepted || rr.Body.String() != "x" {
		t.Fatalf("replayed %d %q", rr.Code, rr.Body.String())
	}
}

func TestTrackingWriterReportsStart(t *testing.T) {
	tw := &trackingWriter{ResponseWriter: httptest.NewRecorder()}
	if responseStarted(tw) {
		t.Fatalf("fresh writer reported started")
	}
	tw.WriteHeader(http.StatusContinue)
	if responseStarted(tw) {
		t.Fatalf("1xx counted as start")
	}
	tw.Flush()
	if !responseStarted(tw) {
		t.Fatalf("flush not counted as start")
	}
	if responseStarted(httptest.NewRecorder()) {
		t.Fatalf("untracked writer reported started")
	}
}
