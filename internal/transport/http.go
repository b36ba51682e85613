package transport

import (
	"errors"
	"io"
	"net"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"keepalive/internal/config"
	"keepalive/internal/http/conn"
	"keepalive/internal/http/response"
	"keepalive/internal/registry"

	"go.uber.org/zap"
	"golang.org/x/net/netutil"
)

var ErrBufferLimit = errors.New("receive buffer limit exceeded")

type httpServer struct {
	config      config.Config
	registry    registry.Registry
	handler     conn.Handler
	middlewares []response.Middleware
	logger      *zap.Logger
	nextID      atomic.Uint64
}

func NewHTTPServer(cfg config.Config, reg registry.Registry, handler conn.Handler, logger *zap.Logger, middlewares ...response.Middleware) Transport {
	return &httpServer{
		config:      cfg,
		registry:    reg,
		handler:     handler,
		middlewares: middlewares,
		logger:      logger.Named("http"),
	}
}

func (hs *httpServer) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", net.JoinHostPort(hs.config.Host(), hs.config.HTTPPort()))
	if err != nil {
		return nil, err
	}
	if limit := hs.config.MaxConnections(); limit > 0 {
		ln = netutil.LimitListener(ln, limit)
	}
	return ln, nil
}

func (hs *httpServer) Serve(listener net.Listener) error {
	hs.logger.Info("HTTP server is starting", zap.String("addr", listener.Addr().String()))
	for {
		c, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			hs.logger.Error("error accepting connection", zap.Error(err))
			continue
		}

		go hs.handleConn(c)
	}
}

func (hs *httpServer) handleConn(c net.Conn) {
	id := strconv.FormatUint(hs.nextID.Add(1), 10)
	logger := hs.logger.With(zap.String("remote_addr", c.RemoteAddr().String()))

	hs.registry.Register(id, c)
	defer func() {
		hs.registry.Remove(id)
		hs.closeConnection(c, logger)
	}()

	sess := conn.New(id, newSink(c), hs.handler, logger, hs.middlewares...)
	hs.readLoop(c, sess, logger)
}

// readLoop feeds the session until it closes. Idle timeouts and the buffer
// cap are enforced here, above the session.
func (hs *httpServer) readLoop(c net.Conn, sess *conn.Session, logger *zap.Logger) {
	buf := make([]byte, hs.config.BufferSize())
	idle := hs.config.IdleTimeout()

	for {
		if idle > 0 {
			if err := c.SetReadDeadline(time.Now().Add(idle)); err != nil {
				sess.OnTransportError(err)
				return
			}
		}

		n, err := c.Read(buf)
		if n > 0 {
			sess.Feed(buf[:n])
			if sess.Closed() {
				return
			}
			if sess.Buffered() > hs.config.MaxBufferSize() {
				logger.Warn("closing connection over buffer limit",
					zap.String("conn_id", sess.ID()),
					zap.Int("buffered", sess.Buffered()))
				sess.OnTransportError(ErrBufferLimit)
				return
			}
		}

		if err != nil {
			switch {
			case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
				sess.OnTransportClosed()
			case errors.Is(err, os.ErrDeadlineExceeded):
				logger.Debug("idle timeout", zap.String("conn_id", sess.ID()))
				sess.OnTransportClosed()
			default:
				sess.OnTransportError(err)
			}
			return
		}
	}
}

func (hs *httpServer) closeConnection(c net.Conn, logger *zap.Logger) {
	err := c.Close()
	if err != nil && !errors.Is(err, net.ErrClosed) {
		logger.Warn("error closing connection", zap.Error(err))
	}
}
