package header

import (
	"bytes"
	"strings"
)

var (
	crlf      = []byte("\r\n")
	separator = []byte(": ")
)

// FindLineEnd returns the offset of the first CRLF in buf, or -1 when the
// line is not complete yet.
func FindLineEnd(buf []byte) int {
	return bytes.Index(buf, crlf)
}

// SplitLine splits a header line on the first ": ". The name is lower-cased
// and the value is kept as written. ok is false for a line without the
// separator.
func SplitLine(line []byte) (name, value string, ok bool) {
	idx := bytes.Index(line, separator)
	if idx == -1 {
		return "", "", false
	}
	return strings.ToLower(string(line[:idx])), string(line[idx+len(separator):]), true
}
