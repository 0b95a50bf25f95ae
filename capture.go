package respcache

import (
	"bufio"
	"bytes"
	"errors"
	"net"
	"net/http"
)

// response is a fully buffered downstream response.
type response struct {
	status int
	header http.Header
	body   []byte
}

func (res *response) entry() Entry {
	return Entry{Status: res.status, ContentType: res.header.Get("Content-Type"), Body: res.body}
}

// capture buffers one downstream response so a policy can inspect the final
// body before anything reaches the client. Nothing is written to the
// underlying writer until emit.
type capture struct {
	w           http.ResponseWriter // nil when detached
	header      http.Header
	status      int
	wroteHeader bool
	buf         bytes.Buffer
	emitted     bool
}

func newCapture(w http.ResponseWriter) *capture {
	return &capture{w: w, header: w.Header()}
}

// newDetachedCapture records a response that is not tied to any client; the
// result is replayed to one or more writers with writeResponse.
func newDetachedCapture() *capture {
	return &capture{header: make(http.Header)}
}

func (c *capture) Header() http.Header { return c.header }

func (c *capture) WriteHeader(code int) {
	if c.wroteHeader {
		return
	}
	// 1xx are informational; the final status is still to come
	if code >= 100 && code < 200 {
		return
	}
	c.status = code
	c.wroteHeader = true
}

func (c *capture) Write(p []byte) (int, error) {
	if !c.wroteHeader {
		c.WriteHeader(http.StatusOK)
	}
	return c.buf.Write(p)
}

func (c *capture) result() *response {
	status := c.status
	if status == 0 {
		status = http.StatusOK
	}
	return &response{status: status, header: c.header, body: c.buf.Bytes()}
}

var errAlreadyEmitted = errors.New("respcache: response already emitted")

// emit runs before (if non-nil) on the final response, then writes it to the
// underlying writer. It runs at most once per capture; the returned error is
// the client write error, if any.
func (c *capture) emit(before func(res *response)) error {
	if c.emitted {
		return errAlreadyEmitted
	}
	c.emitted = true
	res := c.result()
	if before != nil {
		before(res)
	}
	if c.w == nil {
		return nil
	}
	// header is shared with c.w
	return writeResponse(c.w, res, false)
}

// writeResponse replays res on w, copying headers when copyHeader is set.
func writeResponse(w http.ResponseWriter, res *response, copyHeader bool) error {
	if copyHeader {
		dst := w.Header()
		for k, vv := range res.header {
			dst[k] = append([]string(nil), vv...)
		}
	}
	w.WriteHeader(res.status)
	if len(res.body) == 0 {
		return nil
	}
	_, err := w.Write(res.body)
	return err
}

// trackingWriter records whether anything reached the client so the default
// error handler knows if a 500 can still be written.
type trackingWriter struct {
	http.ResponseWriter
	started bool
}

func (t *trackingWriter) WriteHeader(code int) {
	if code >= 200 {
		t.started = true
	}
	t.ResponseWriter.WriteHeader(code)
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	t.started = true
	return t.ResponseWriter.Write(p)
}

func (t *trackingWriter) Flush() {
	if f, ok := t.ResponseWriter.(http.Flusher); ok {
		t.started = true
		f.Flush()
	}
}

func (t *trackingWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := t.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	t.started = true
	return h.Hijack()
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (t *trackingWriter) Unwrap() http.ResponseWriter { return t.ResponseWriter }

func responseStarted(w http.ResponseWriter) bool {
	t, ok := w.(*trackingWriter)
	return ok && t.started
}
