package transport

import (
	"net"
)

// connSink writes responses straight to the socket. Writes are synchronous,
// so closing after a write only has to half-close the connection; the read
// loop notices the closed session and releases the socket.
type connSink struct {
	conn net.Conn
}

func newSink(conn net.Conn) *connSink {
	return &connSink{conn: conn}
}

func (s *connSink) Write(p []byte) error {
	_, err := s.conn.Write(p)
	return err
}

func (s *connSink) CloseAfterWrite() {
	if closer, ok := s.conn.(interface{ CloseWrite() error }); ok {
		_ = closer.CloseWrite()
		return
	}
	_ = s.conn.Close()
}
