// Package parser turns a fragmented HTTP/1.1 byte stream into requests.
//
// A Parser owns an append-only receive buffer. Bytes are appended with Feed
// and complete requests are pulled with Next until it reports that more bytes
// are needed. Several requests sitting in the buffer at once (pipelining) are
// returned one per Next call, in stream order.
//
// Parsing is lenient and never fails: a short request line leaves fields
// empty, a header line without ": " is stored with an empty value and a
// missing or non-numeric Content-Length means an empty body. Rejecting such
// requests is left to the caller.
package parser

import (
	"strconv"
	"strings"

	"keepalive/internal/http/header"
)

const (
	initialBufferSize = 4096
	// A drained buffer that grew past this is swapped for a fresh small one.
	maxRetainedBuffer = 64 << 10
)

type State int

const (
	StateRequestLine State = iota
	StateHeaders
	StateBody
)

func (s State) String() string {
	switch s {
	case StateRequestLine:
		return "REQUEST_LINE"
	case StateHeaders:
		return "HEADERS"
	case StateBody:
		return "BODY"
	default:
		return "UNKNOWN"
	}
}

// Request is a fully received message. Nothing in it aliases the parser's
// buffer.
type Request struct {
	Method  string
	Target  string
	Version string
	Header  header.Header
	Body    []byte
}

type Parser struct {
	buf   []byte
	off   int
	state State

	req        *Request
	bodyLength int
	inflight   int
}

func New() *Parser {
	return &Parser{buf: make([]byte, 0, initialBufferSize)}
}

// Feed appends newly arrived bytes to the receive buffer.
func (p *Parser) Feed(data []byte) {
	p.buf = append(p.buf, data...)
}

// Next advances the state machine until a request completes or the buffered
// bytes run out. It returns false when more bytes are needed.
func (p *Parser) Next() (*Request, bool) {
	for {
		req, progressed := p.advance()
		if req != nil {
			p.compact()
			return req, true
		}
		if !progressed {
			p.compact()
			return nil, false
		}
	}
}

// State reports where the in-flight message currently is.
func (p *Parser) State() State {
	return p.state
}

// Buffered is the number of received bytes not consumed yet.
func (p *Parser) Buffered() int {
	return len(p.buf) - p.off
}

// InFlight is the number of bytes already consumed into the request that is
// still being assembled.
func (p *Parser) InFlight() int {
	return p.inflight
}

// Reset drops the buffer and any partially received request.
func (p *Parser) Reset() {
	p.drain()
	p.state = StateRequestLine
	p.req = nil
	p.bodyLength = 0
	p.inflight = 0
}

func (p *Parser) pending() []byte {
	return p.buf[p.off:]
}

func (p *Parser) consume(n int) {
	p.off += n
	p.inflight += n
}

// compact drops the consumed prefix once it is the larger part of the
// buffer, so repeated consumes do not copy the tail every time.
func (p *Parser) compact() {
	if p.off == 0 {
		return
	}
	if p.off == len(p.buf) {
		p.drain()
		return
	}
	if p.off >= len(p.buf)-p.off {
		n := copy(p.buf, p.buf[p.off:])
		p.buf = p.buf[:n]
		p.off = 0
	}
}

func (p *Parser) drain() {
	if cap(p.buf) > maxRetainedBuffer {
		p.buf = make([]byte, 0, initialBufferSize)
	} else {
		p.buf = p.buf[:0]
	}
	p.off = 0
}

func (p *Parser) advance() (*Request, bool) {
	switch p.state {
	case StateRequestLine:
		return nil, p.readRequestLine()
	case StateHeaders:
		return nil, p.readHeaderLine()
	case StateBody:
		return p.readBody()
	}
	return nil, false
}

func (p *Parser) readRequestLine() bool {
	buf := p.pending()
	end := header.FindLineEnd(buf)
	if end == -1 {
		return false
	}
	// Empty lines ahead of a request line are ignored (RFC 9112 §2.2).
	if end == 0 {
		p.consume(2)
		return true
	}

	method, target, version := splitRequestLine(string(buf[:end]))
	p.req = &Request{
		Method:  method,
		Target:  target,
		Version: version,
		Header:  header.New(),
	}
	p.consume(end + 2)
	p.state = StateHeaders
	return true
}

func (p *Parser) readHeaderLine() bool {
	buf := p.pending()
	end := header.FindLineEnd(buf)
	if end == -1 {
		return false
	}

	if end == 0 {
		p.consume(2)
		p.bodyLength = contentLength(p.req.Header.Get("content-length"))
		p.state = StateBody
		return true
	}

	if name, value, ok := header.SplitLine(buf[:end]); ok {
		p.req.Header.Set(name, value)
	} else {
		// A line without ": " is kept as a name with an empty value.
		p.req.Header.Set(string(buf[:end]), "")
	}
	p.consume(end + 2)
	return true
}

func (p *Parser) readBody() (*Request, bool) {
	buf := p.pending()
	if len(buf) < p.bodyLength {
		return nil, false
	}

	req := p.req
	if p.bodyLength > 0 {
		req.Body = make([]byte, p.bodyLength)
		copy(req.Body, buf[:p.bodyLength])
	}
	p.consume(p.bodyLength)

	p.req = nil
	p.bodyLength = 0
	p.inflight = 0
	p.state = StateRequestLine
	return req, true
}

// splitRequestLine splits on single spaces and keeps the first three
// tokens. Missing tokens come back empty.
func splitRequestLine(line string) (method, target, version string) {
	parts := strings.Split(line, " ")
	method = parts[0]
	if len(parts) > 1 {
		target = parts[1]
	}
	if len(parts) > 2 {
		version = parts[2]
	}
	return method, target, version
}

func contentLength(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, strconv.IntSize-1)
	if err != nil {
		return 0
	}
	return int(n)
}
