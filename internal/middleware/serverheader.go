package middleware

import (
	"keepalive/internal/http/header"
)

type ServerHeader struct {
	value string
}

func NewServerHeader(version string) *ServerHeader {
	return &ServerHeader{value: "keepalive/" + version}
}

func (h *ServerHeader) HandleResponse(hdr header.Header, _ []byte) error {
	hdr.Set("Server", h.value)
	return nil
}
