package httpserver

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"regexp"
	"strconv"
	"strings"
)

// Protocol limits to prevent DoS attacks.
const (
	// MaxLineLen limits the request line and every header line (8KB).
	MaxLineLen = 8 * 1024

	// MaxHeaders limits the number of header lines.
	MaxHeaders = 100

	// MaxBodyLen limits a POST body (10MB).
	MaxBodyLen = 10 * 1024 * 1024
)

var (
	// ErrMalformedRequest is matched by every error ReadRequest returns.
	ErrMalformedRequest = errors.New("http: malformed request")

	// ErrLimitExceeded additionally marks requests rejected by a limit.
	ErrLimitExceeded = errors.New("http: limit exceeded")
)

// Request methods recognised by the parser.
const (
	MethodGet     = "GET"
	MethodPost    = "POST"
	MethodPut     = "PUT"
	MethodDelete  = "DELETE"
	MethodOptions = "OPTIONS"
	MethodTrace   = "TRACE"
	MethodConnect = "CONNECT"
	MethodHead    = "HEAD"
)

var methods = map[string]bool{
	MethodGet: true, MethodPost: true, MethodPut: true, MethodDelete: true,
	MethodOptions: true, MethodTrace: true, MethodConnect: true, MethodHead: true,
}

// headerSep splits "Key : Value" with optional whitespace around the colon.
var headerSep = regexp.MustCompile(`\s*:\s*`)

// ProtocolError describes why a request could not be parsed.
type ProtocolError struct {
	// Detail is the client-facing description.
	Detail string

	limit bool
	cause error
}

func (e *ProtocolError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%v: %s: %v", ErrMalformedRequest, e.Detail, e.cause)
	}
	return fmt.Sprintf("%v: %s", ErrMalformedRequest, e.Detail)
}

// Is matches ErrMalformedRequest, and ErrLimitExceeded for limit errors.
func (e *ProtocolError) Is(target error) bool {
	return target == ErrMalformedRequest || (e.limit && target == ErrLimitExceeded)
}

// Unwrap returns the I/O error that interrupted parsing, if any.
func (e *ProtocolError) Unwrap() error {
	return e.cause
}

func malformed(format string, args ...any) *ProtocolError {
	return &ProtocolError{Detail: fmt.Sprintf(format, args...)}
}

func limitExceeded(format string, args ...any) *ProtocolError {
	return &ProtocolError{Detail: fmt.Sprintf(format, args...), limit: true}
}

func ioFailure(detail string, err error) *ProtocolError {
	return &ProtocolError{Detail: detail, cause: err}
}

// Request is a parsed HTTP request.
type Request struct {
	Method string
	Path   string

	// Params holds the query parameters merged with the form parameters of
	// a POST body. Body values win over query values of the same key.
	Params map[string]string

	// Headers is keyed by canonical header name.
	Headers map[string]string

	// ID and RemoteAddr are set by the server, not the parser.
	ID         string
	RemoteAddr string
}

// Param returns the parameter with key and whether it was present.
func (r *Request) Param(key string) (string, bool) {
	v, ok := r.Params[key]
	return v, ok
}

// Header returns the value of the header with name, matched
// case-insensitively.
func (r *Request) Header(name string) string {
	return r.Headers[textproto.CanonicalMIMEHeaderKey(name)]
}

// ReadRequest parses one request from r.
//
// The request line must have exactly three whitespace-separated fields and a
// known method. Headers end at the first blank line. For POST requests
// exactly Content-Length body bytes are read and parsed as form parameters.
// Every error matches ErrMalformedRequest.
func ReadRequest(r *bufio.Reader) (*Request, error) {
	line, err := readLine(r, MaxLineLen)
	if errors.Is(err, io.EOF) {
		return nil, malformed("empty request")
	}
	if err != nil {
		return nil, err
	}

	fields := strings.Fields(line)
	if len(fields) != 3 {
		return nil, malformed("request line requires three fields")
	}
	if !methods[fields[0]] {
		return nil, malformed("unrecognized method %s", fields[0])
	}

	req := &Request{
		Method:  fields[0],
		Params:  make(map[string]string),
		Headers: make(map[string]string),
	}

	path, query, _ := strings.Cut(fields[1], "?")
	req.Path = path
	if query != "" {
		if err := parseParams(query, req.Params); err != nil {
			return nil, err
		}
	}

	if err := readHeaders(r, req.Headers); err != nil {
		return nil, err
	}

	contentLength := 0
	if v, ok := req.Headers["Content-Length"]; ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			return nil, malformed("Content-Length header does not hold a valid number")
		}
		contentLength = n
	}

	if req.Method == MethodPost && contentLength > 0 {
		if contentLength > MaxBodyLen {
			return nil, limitExceeded("body length %d exceeds limit %d", contentLength, MaxBodyLen)
		}
		body := make([]byte, contentLength)
		if _, err := io.ReadFull(r, body); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
				return nil, malformed("incorrect value in Content-Length")
			}
			return nil, ioFailure("reading body", err)
		}
		if err := parseParams(string(body), req.Params); err != nil {
			return nil, err
		}
	}

	return req, nil
}

func readHeaders(r *bufio.Reader, headers map[string]string) error {
	for n := 0; ; n++ {
		line, err := readLine(r, MaxLineLen)
		if errors.Is(err, io.EOF) {
			return malformed("unexpected end of stream")
		}
		if err != nil {
			return err
		}
		if line == "" {
			return nil
		}
		if n >= MaxHeaders {
			return limitExceeded("more than %d headers", MaxHeaders)
		}

		parts := dropTrailingEmpty(headerSep.Split(line, -1))
		if len(parts) < 2 {
			return malformed("malformed header: %s", line)
		}
		headers[textproto.CanonicalMIMEHeaderKey(parts[0])] = strings.Join(parts[1:], ":")
	}
}

// parseParams parses "k1=v1&k2=v2" into params. Every pair must split into
// exactly a key and a value; keys and values are trimmed. Empty pairs at the
// end ("uuid=x&") are dropped, empty pairs in between are malformed.
func parseParams(s string, params map[string]string) error {
	for _, pair := range dropTrailingEmpty(strings.Split(s, "&")) {
		kv := dropTrailingEmpty(strings.Split(pair, "="))
		if len(kv) != 2 {
			return malformed("malformed parameter: %s", pair)
		}
		params[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	return nil
}

// dropTrailingEmpty removes empty trailing fields, so "key=" has one field.
func dropTrailingEmpty(parts []string) []string {
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

// readLine reads one line terminated by LF or CRLF, without the terminator.
// A final unterminated line is returned as is; io.EOF is returned only when
// nothing was read.
func readLine(r *bufio.Reader, maxLen int) (string, error) {
	var buf []byte
	for {
		frag, err := r.ReadSlice('\n')
		buf = append(buf, frag...)
		if len(buf) > maxLen+2 {
			return "", limitExceeded("line length exceeds limit %d", maxLen)
		}
		if err == nil {
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if errors.Is(err, io.EOF) && len(buf) > 0 {
			break
		}
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		return "", ioFailure("reading request", err)
	}

	buf = bytes.TrimSuffix(buf, []byte("\n"))
	buf = bytes.TrimSuffix(buf, []byte("\r"))
	return string(buf), nil
}
