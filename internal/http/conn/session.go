// Package conn binds one parser and one output to a transport connection.
//
// A Session is driven by a single goroutine: the transport calls Feed for
// every chunk it reads and OnTransportClosed or OnTransportError once the
// connection ends. Handlers run synchronously inside Feed, in the order their
// requests completed.
package conn

import (
	"errors"

	"keepalive/internal/http/parser"
	"keepalive/internal/http/response"

	"go.uber.org/zap"
)

var ErrSessionClosed = errors.New("session closed")

// Sink is the transport side of a connection.
type Sink interface {
	Write(p []byte) error
	CloseAfterWrite()
}

type Handler interface {
	Handle(req *parser.Request, w *response.Writer)
}

type HandlerFunc func(req *parser.Request, w *response.Writer)

func (f HandlerFunc) Handle(req *parser.Request, w *response.Writer) {
	f(req, w)
}

type Session struct {
	id          string
	parser      *parser.Parser
	sink        Sink
	handler     Handler
	middlewares []response.Middleware
	logger      *zap.Logger

	closed bool
	err    error
	served int
}

func New(id string, sink Sink, handler Handler, logger *zap.Logger, middlewares ...response.Middleware) *Session {
	return &Session{
		id:          id,
		parser:      parser.New(),
		sink:        sink,
		handler:     handler,
		middlewares: middlewares,
		logger:      logger.With(zap.String("conn_id", id)),
	}
}

func (s *Session) ID() string { return s.id }

// Closed reports whether the connection is finished. It never resets.
func (s *Session) Closed() bool { return s.closed }

// Err is the transport error that closed the session, if any.
func (s *Session) Err() error { return s.err }

// Served counts requests handed to the handler so far.
func (s *Session) Served() int { return s.served }

// Buffered is the number of received bytes that are not part of a completed
// request yet, including the parsed head of the in-flight request.
func (s *Session) Buffered() int { return s.parser.Buffered() + s.parser.InFlight() }

// Feed appends data and dispatches every request it completes. It returns the
// number of requests dispatched by this call.
func (s *Session) Feed(data []byte) int {
	if s.closed {
		return 0
	}
	s.parser.Feed(data)

	dispatched := 0
	for !s.closed {
		req, ok := s.parser.Next()
		if !ok {
			break
		}
		s.served++
		dispatched++

		out := output{s}
		w := response.New(req, out, s.middlewares...)
		s.handler.Handle(req, w)
		if !w.Written() && !s.closed {
			// Responses go out in request order, so a missing one ends the connection.
			s.logger.Warn("handler returned without ending the response, closing connection",
				zap.String("method", req.Method),
				zap.String("target", req.Target))
			out.CloseAfterWrite()
		}
	}
	return dispatched
}

// OnTransportClosed tears the session down. A partially received request is
// dropped without notice.
func (s *Session) OnTransportClosed() {
	if s.closed {
		return
	}
	s.teardown()
	s.logger.Debug("connection closed", zap.Int("served", s.served))
}

func (s *Session) OnTransportError(err error) {
	if s.closed {
		return
	}
	s.err = err
	s.teardown()
	s.logger.Warn("connection error", zap.Error(err), zap.Int("served", s.served))
}

func (s *Session) teardown() {
	s.closed = true
	s.parser.Reset()
}

// output is the response.Output a session hands to each writer.
type output struct {
	s *Session
}

func (o output) Write(p []byte) error {
	if o.s.closed {
		return ErrSessionClosed
	}
	if err := o.s.sink.Write(p); err != nil {
		o.s.OnTransportError(err)
		return err
	}
	return nil
}

// CloseAfterWrite stops the session so that requests already buffered behind
// this exchange are not served.
func (o output) CloseAfterWrite() {
	if o.s.closed {
		return
	}
	o.s.teardown()
	o.s.sink.CloseAfterWrite()
}

func (o output) Closed() bool {
	return o.s.closed
}
