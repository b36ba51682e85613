package middleware

import (
	"keepalive/internal/http/conn"
	"keepalive/internal/http/header"
	"keepalive/internal/http/parser"
	"keepalive/internal/http/response"
)

type RequestMiddleware interface {
	HandleRequest(req *parser.Request) error
}

type ResponseMiddleware interface {
	HandleResponse(header header.Header, body []byte) error
}

var _ response.Middleware = ResponseMiddleware(nil)

// Chain runs every request middleware before next. The first failure is
// answered with 400 and the error text, which also closes the connection.
func Chain(next conn.Handler, mws ...RequestMiddleware) conn.Handler {
	return conn.HandlerFunc(func(req *parser.Request, w *response.Writer) {
		for _, mw := range mws {
			if err := mw.HandleRequest(req); err != nil {
				w.SetStatus(400, header.Header{"content-type": "text/plain"})
				_ = w.End([]byte(err.Error()))
				return
			}
		}
		next.Handle(req, w)
	})
}
