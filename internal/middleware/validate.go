package middleware

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"keepalive/internal/http/parser"

	"golang.org/x/net/http/httpguts"
)

var ErrMalformedRequest = errors.New("malformed request")

// Validate rejects the requests the lenient parser lets through.
type Validate struct{}

func NewValidate() *Validate {
	return &Validate{}
}

func (v *Validate) HandleRequest(req *parser.Request) error {
	if req.Method == "" {
		return fmt.Errorf("%w: missing method", ErrMalformedRequest)
	}
	if req.Target == "" {
		return fmt.Errorf("%w: missing target", ErrMalformedRequest)
	}
	if !strings.HasPrefix(req.Version, "HTTP/1.") {
		return fmt.Errorf("%w: unsupported version %q", ErrMalformedRequest, req.Version)
	}
	for _, name := range req.Header.Keys() {
		if !httpguts.ValidHeaderFieldName(name) {
			return fmt.Errorf("%w: invalid header name %q", ErrMalformedRequest, name)
		}
	}
	if req.Header.Has("transfer-encoding") {
		return fmt.Errorf("%w: transfer-encoding is not supported", ErrMalformedRequest)
	}
	if raw := req.Header.Get("content-length"); raw != "" {
		// Same rule as the parser: unsigned base 10 only.
		n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, strconv.IntSize-1)
		if err != nil {
			return fmt.Errorf("%w: invalid content-length %q", ErrMalformedRequest, raw)
		}
		if int(n) != len(req.Body) {
			return fmt.Errorf("%w: content-length %d does not match body of %d bytes", ErrMalformedRequest, n, len(req.Body))
		}
	}
	return nil
}
