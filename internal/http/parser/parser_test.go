package parser

import (
	"strconv"
	"strings"
	"testing"

	"keepalive/internal/http/header"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenario = "GET /x HTTP/1.1\r\nHost: h\r\nContent-Length: 5\r\n\r\nhello"

func expectedScenario() *Request {
	return &Request{
		Method:  "GET",
		Target:  "/x",
		Version: "HTTP/1.1",
		Header: header.Header{
			"host":           "h",
			"content-length": "5",
		},
		Body: []byte("hello"),
	}
}

func drain(p *Parser) []*Request {
	var out []*Request
	for {
		req, ok := p.Next()
		if !ok {
			return out
		}
		out = append(out, req)
	}
}

func TestParseSingleFeed(t *testing.T) {
	p := New()
	p.Feed([]byte(scenario))

	reqs := drain(p)
	require.Len(t, reqs, 1)
	assert.Equal(t, expectedScenario(), reqs[0])
	assert.Equal(t, 0, p.Buffered())
	assert.Equal(t, StateRequestLine, p.State())
}

func TestParseFragmentedFeed(t *testing.T) {
	chunks := []string{"GET /x HTTP", "/1.1\r\nHost: h\r\nContent-L", "ength: 5\r\n\r\nhel", "lo"}
	p := New()

	var reqs []*Request
	for i, chunk := range chunks {
		p.Feed([]byte(chunk))
		got := drain(p)
		if i < len(chunks)-1 {
			assert.Empty(t, got, "request emitted early after chunk %d", i)
		}
		reqs = append(reqs, got...)
	}

	require.Len(t, reqs, 1)
	assert.Equal(t, expectedScenario(), reqs[0])
}

func TestParseChunkBoundaryInvariance(t *testing.T) {
	raw := []byte(scenario)
	for split := 0; split <= len(raw); split++ {
		p := New()
		p.Feed(raw[:split])
		reqs := drain(p)
		p.Feed(raw[split:])
		reqs = append(reqs, drain(p)...)

		require.Len(t, reqs, 1, "split at %d", split)
		assert.Equal(t, expectedScenario(), reqs[0], "split at %d", split)
	}
}

func TestParseByteAtATime(t *testing.T) {
	raw := []byte(scenario + scenario)
	p := New()

	var reqs []*Request
	for i := range raw {
		p.Feed(raw[i : i+1])
		reqs = append(reqs, drain(p)...)
	}

	require.Len(t, reqs, 2)
	assert.Equal(t, expectedScenario(), reqs[0])
	assert.Equal(t, expectedScenario(), reqs[1])
}

func TestParsePipelined(t *testing.T) {
	p := New()
	p.Feed([]byte("GET /first HTTP/1.1\r\nHost: a\r\n\r\n" +
		"POST /second HTTP/1.1\r\nContent-Length: 3\r\n\r\nabc" +
		"GET /third HTTP/1.1\r\n"))

	reqs := drain(p)
	require.Len(t, reqs, 2)
	assert.Equal(t, "/first", reqs[0].Target)
	assert.Nil(t, reqs[0].Body)
	assert.Equal(t, "/second", reqs[1].Target)
	assert.Equal(t, []byte("abc"), reqs[1].Body)

	assert.Equal(t, StateHeaders, p.State())
	assert.Equal(t, 0, p.Buffered())

	p.Feed([]byte("\r\n"))
	reqs = drain(p)
	require.Len(t, reqs, 1)
	assert.Equal(t, "/third", reqs[0].Target)
}

func TestParseBodyFraming(t *testing.T) {
	p := New()
	p.Feed([]byte("POST / HTTP/1.1\r\nContent-Length: 4\r\n\r\nbodyGET"))

	req, ok := p.Next()
	require.True(t, ok)
	assert.Equal(t, []byte("body"), req.Body)
	assert.Equal(t, 3, p.Buffered())
	assert.Equal(t, 0, p.InFlight())

	_, ok = p.Next()
	assert.False(t, ok)
	assert.Equal(t, StateRequestLine, p.State())
}

func TestParseWaitsForFullBody(t *testing.T) {
	p := New()
	p.Feed([]byte("POST / HTTP/1.1\r\nContent-Length: 10\r\n\r\n12345"))

	_, ok := p.Next()
	assert.False(t, ok)
	assert.Equal(t, StateBody, p.State())
	assert.Equal(t, 5, p.Buffered())
	assert.Equal(t, len("POST / HTTP/1.1\r\nContent-Length: 10\r\n\r\n"), p.InFlight())

	p.Feed([]byte("67890"))
	req, ok := p.Next()
	require.True(t, ok)
	assert.Equal(t, []byte("1234567890"), req.Body)
}

func TestParseBodyDoesNotAliasBuffer(t *testing.T) {
	p := New()
	p.Feed([]byte("POST / HTTP/1.1\r\nContent-Length: 3\r\n\r\nabc"))
	req, ok := p.Next()
	require.True(t, ok)

	p.Feed([]byte("XYZXYZXYZXYZXYZXYZXYZXYZXYZXYZ"))
	_, _ = p.Next()
	assert.Equal(t, []byte("abc"), req.Body)
}

func TestParseReleasesLargeBuffer(t *testing.T) {
	p := New()
	body := strings.Repeat("x", 256<<10)
	p.Feed([]byte("POST / HTTP/1.1\r\nContent-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body))

	req, ok := p.Next()
	require.True(t, ok)
	assert.Len(t, req.Body, len(body))
	assert.Equal(t, 0, p.Buffered())
	assert.Equal(t, initialBufferSize, cap(p.buf))

	p.Feed([]byte("GET / HTTP/1.1\r\n\r\n"))
	_, ok = p.Next()
	assert.True(t, ok)
}

func TestParseKeepsSmallBuffer(t *testing.T) {
	p := New()
	p.Feed([]byte(scenario))
	_, ok := p.Next()
	require.True(t, ok)

	assert.Equal(t, initialBufferSize, cap(p.buf))
}

func TestParseLenient(t *testing.T) {
	tests := []struct {
		name          string
		data          string
		expectMethod  string
		expectTarget  string
		expectVersion string
		expectHeaders header.Header
		expectBody    []byte
	}{
		{
			name:          "request line missing version",
			data:          "GET /path\r\n\r\n",
			expectMethod:  "GET",
			expectTarget:  "/path",
			expectHeaders: header.Header{},
		},
		{
			name:          "request line with only a method",
			data:          "INVALID\r\n\r\n",
			expectMethod:  "INVALID",
			expectHeaders: header.Header{},
		},
		{
			name:          "extra tokens are dropped",
			data:          "GET / HTTP/1.1 extra\r\n\r\n",
			expectMethod:  "GET",
			expectTarget:  "/",
			expectVersion: "HTTP/1.1",
			expectHeaders: header.Header{},
		},
		{
			name:          "double space yields an empty target",
			data:          "GET  /path HTTP/1.1\r\n\r\n",
			expectMethod:  "GET",
			expectTarget:  "",
			expectVersion: "/path",
			expectHeaders: header.Header{},
		},
		{
			name:          "malformed header line keeps an empty value",
			data:          "GET / HTTP/1.1\r\nMalformedLine\r\nK1: V1\r\n\r\n",
			expectMethod:  "GET",
			expectTarget:  "/",
			expectVersion: "HTTP/1.1",
			expectHeaders: header.Header{"malformedline": "", "k1": "V1"},
		},
		{
			name:          "duplicate header keeps the last value",
			data:          "GET / HTTP/1.1\r\nX-A: one\r\nx-a: two\r\n\r\n",
			expectMethod:  "GET",
			expectTarget:  "/",
			expectVersion: "HTTP/1.1",
			expectHeaders: header.Header{"x-a": "two"},
		},
		{
			name:          "non-numeric content length means no body",
			data:          "POST / HTTP/1.1\r\nContent-Length: abc\r\n\r\n",
			expectMethod:  "POST",
			expectTarget:  "/",
			expectVersion: "HTTP/1.1",
			expectHeaders: header.Header{"content-length": "abc"},
		},
		{
			name:          "negative content length means no body",
			data:          "POST / HTTP/1.1\r\nContent-Length: -4\r\n\r\n",
			expectMethod:  "POST",
			expectTarget:  "/",
			expectVersion: "HTTP/1.1",
			expectHeaders: header.Header{"content-length": "-4"},
		},
		{
			name:          "leading empty lines are skipped",
			data:          "\r\n\r\nGET / HTTP/1.1\r\n\r\n",
			expectMethod:  "GET",
			expectTarget:  "/",
			expectVersion: "HTTP/1.1",
			expectHeaders: header.Header{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			p.Feed([]byte(tt.data))
			reqs := drain(p)

			require.Len(t, reqs, 1)
			req := reqs[0]
			assert.Equal(t, tt.expectMethod, req.Method)
			assert.Equal(t, tt.expectTarget, req.Target)
			assert.Equal(t, tt.expectVersion, req.Version)
			assert.Equal(t, tt.expectHeaders, req.Header)
			assert.Equal(t, tt.expectBody, req.Body)
			assert.Equal(t, 0, p.Buffered())
		})
	}
}

func TestParseStateTransitions(t *testing.T) {
	p := New()
	assert.Equal(t, StateRequestLine, p.State())

	p.Feed([]byte("GET / HTTP/1.1\r\n"))
	_, ok := p.Next()
	assert.False(t, ok)
	assert.Equal(t, StateHeaders, p.State())

	p.Feed([]byte("Content-Length: 2\r\n\r\n"))
	_, ok = p.Next()
	assert.False(t, ok)
	assert.Equal(t, StateBody, p.State())

	p.Feed([]byte("ok"))
	_, ok = p.Next()
	assert.True(t, ok)
	assert.Equal(t, StateRequestLine, p.State())
}

func TestParseReset(t *testing.T) {
	p := New()
	p.Feed([]byte("POST / HTTP/1.1\r\nContent-Length: 10\r\n\r\nabc"))
	_, ok := p.Next()
	require.False(t, ok)

	p.Reset()
	assert.Equal(t, StateRequestLine, p.State())
	assert.LessOrEqual(t, cap(p.buf), maxRetainedBuffer)
	assert.Equal(t, 0, p.Buffered())
	assert.Equal(t, 0, p.InFlight())

	p.Feed([]byte("GET /after HTTP/1.1\r\n\r\n"))
	req, ok := p.Next()
	require.True(t, ok)
	assert.Equal(t, "/after", req.Target)
}

func TestContentLength(t *testing.T) {
	tests := []struct {
		raw    string
		expect int
	}{
		{raw: "", expect: 0},
		{raw: "0", expect: 0},
		{raw: "42", expect: 42},
		{raw: " 7 ", expect: 7},
		{raw: "+3", expect: 0},
		{raw: "-1", expect: 0},
		{raw: "1.5", expect: 0},
		{raw: "99999999999999999999999", expect: 0},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expect, contentLength(tt.raw))
		})
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "REQUEST_LINE", StateRequestLine.String())
	assert.Equal(t, "HEADERS", StateHeaders.String())
	assert.Equal(t, "BODY", StateBody.String())
	assert.Equal(t, "UNKNOWN", State(9).String())
}

func BenchmarkParsePipelined(b *testing.B) {
	raw := []byte(scenario + scenario + scenario + scenario)
	p := New()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		p.Feed(raw)
		for {
			if _, ok := p.Next(); !ok {
				break
			}
		}
	}
}
