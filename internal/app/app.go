// Package app is the application handler served by the binary.
package app

import (
	"strings"

	"keepalive/internal/http/parser"
	"keepalive/internal/http/response"

	"go.uber.org/zap"
)

type App struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *App {
	return &App{logger: logger.Named("app")}
}

func (a *App) Handle(req *parser.Request, w *response.Writer) {
	path, _, _ := strings.Cut(req.Target, "?")

	var err error
	switch path {
	case "/ping":
		w.SetHeader("Content-Type", "text/plain")
		err = w.End([]byte("pong"))
	case "/echo":
		contentType := req.Header.Get("content-type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w.SetHeader("Content-Type", contentType)
		err = w.End(req.Body)
	default:
		w.SetStatus(404, map[string]string{"Content-Type": "text/plain"})
		err = w.End([]byte("not found"))
	}

	if err != nil {
		a.logger.Warn("failed to write response",
			zap.String("method", req.Method),
			zap.String("target", req.Target),
			zap.Error(err))
	}
}
