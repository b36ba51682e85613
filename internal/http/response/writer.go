package response

import (
	"fmt"
	"strconv"
	"strings"

	"keepalive/internal/http/header"
	"keepalive/internal/http/parser"
)

const (
	defaultVersion = "HTTP/1.1"
	// reason is written for every status; there is no status text table.
	reason = "OK"

	ConnectionClose     = "close"
	ConnectionKeepAlive = "keep-alive"
)

// Output is the connection a response is written to.
type Output interface {
	Write(p []byte) error
	CloseAfterWrite()
	Closed() bool
}

type Middleware interface {
	HandleResponse(h header.Header, body []byte) error
}

// Writer serializes one response for one request. End takes effect once.
type Writer struct {
	out         Output
	version     string
	reqConn     string
	status      int
	header      header.Header
	middlewares []Middleware
	done        bool
}

func New(req *parser.Request, out Output, middlewares ...Middleware) *Writer {
	version := req.Version
	if version == "" {
		version = defaultVersion
	}
	return &Writer{
		out:         out,
		version:     version,
		reqConn:     req.Header.Get("connection"),
		header:      header.New(),
		middlewares: middlewares,
	}
}

func (w *Writer) Header() header.Header {
	return w.header
}

func (w *Writer) SetHeader(key, value string) {
	w.header.Set(key, value)
}

// SetStatus records the status code and merges any extra headers.
func (w *Writer) SetStatus(code int, headers ...header.Header) {
	w.status = code
	for _, h := range headers {
		for key, val := range h {
			w.header.Set(key, val)
		}
	}
}

// Status returns the recorded status, 200 when none was set.
func (w *Writer) Status() int {
	if w.status == 0 {
		return 200
	}
	return w.status
}

func (w *Writer) Written() bool {
	return w.done
}

// End writes the status line, headers and body in a single write. Calls after
// the first one, or after the connection closed, do nothing. When a middleware
// fails nothing is written and the connection is closed, since the next
// pipelined response would otherwise answer this request.
func (w *Writer) End(body []byte) error {
	if w.done || w.out.Closed() {
		return nil
	}
	w.done = true

	for _, mw := range w.middlewares {
		if err := mw.HandleResponse(w.header, body); err != nil {
			w.out.CloseAfterWrite()
			return fmt.Errorf("response middleware: %w", err)
		}
	}

	connection := w.connection()
	w.header.Set("Content-Length", strconv.Itoa(len(body)))
	w.header.Set("Connection", connection)

	if err := w.out.Write(w.serialize(body)); err != nil {
		return err
	}
	if connection == ConnectionClose {
		w.out.CloseAfterWrite()
	}
	return nil
}

// connection applies, in order: a request asking for close, an error
// status, then keep-alive.
func (w *Writer) connection() string {
	if strings.EqualFold(strings.TrimSpace(w.reqConn), ConnectionClose) {
		return ConnectionClose
	}
	if w.Status() >= 400 {
		return ConnectionClose
	}
	return ConnectionKeepAlive
}

func (w *Writer) serialize(body []byte) []byte {
	code := strconv.Itoa(w.Status())
	buf := make([]byte, 0, len(w.version)+len(code)+len(reason)+4+w.header.Size()+len(body))
	buf = append(buf, w.version...)
	buf = append(buf, ' ')
	buf = append(buf, code...)
	buf = append(buf, ' ')
	buf = append(buf, reason...)
	buf = append(buf, '\r', '\n')
	buf = w.header.AppendTo(buf)
	return append(buf, body...)
}
