package header

import (
	"net/textproto"
	"sort"
	"strings"
)

// Header maps lower-cased field names to the last value seen for them.
type Header map[string]string

func New() Header {
	return make(Header, 16)
}

func (h Header) Get(key string) string {
	return h[strings.ToLower(key)]
}

func (h Header) Has(key string) bool {
	_, ok := h[strings.ToLower(key)]
	return ok
}

// Set overwrites any previous value stored under the same name.
func (h Header) Set(key string, value string) {
	h[strings.ToLower(key)] = value
}

func (h Header) Del(key string) {
	delete(h, strings.ToLower(key))
}

// Keys returns the stored names in sorted order.
func (h Header) Keys() []string {
	keys := make([]string, 0, len(h))
	for key := range h {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (h Header) Clone() Header {
	c := make(Header, len(h))
	for key, val := range h {
		c[key] = val
	}
	return c
}

// AppendTo writes every field as "Name: value\r\n" in sorted order, followed
// by the blank line that terminates the header block.
func (h Header) AppendTo(buf []byte) []byte {
	for _, key := range h.Keys() {
		buf = append(buf, textproto.CanonicalMIMEHeaderKey(key)...)
		buf = append(buf, ':', ' ')
		buf = append(buf, h[key]...)
		buf = append(buf, '\r', '\n')
	}
	return append(buf, '\r', '\n')
}

// Size is the number of bytes AppendTo will add.
func (h Header) Size() int {
	size := 2
	for key, val := range h {
		size += len(key) + 2 + len(val) + 2
	}
	return size
}
