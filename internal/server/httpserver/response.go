package httpserver

import (
	"bufio"
	"io"
	"net/textproto"
	"sort"
	"strconv"
)

// Protocol is the version written on every status line.
const Protocol = "HTTP/1.1"

// Status codes produced by the engine.
const (
	StatusOK                  = 200
	StatusCreated             = 201
	StatusBadRequest          = 400
	StatusNotFound            = 404
	StatusMethodNotAllowed    = 405
	StatusInternalServerError = 500
	StatusNotImplemented      = 501
	StatusServiceUnavailable  = 503
)

var statusText = map[int]string{
	StatusOK:                  "OK",
	StatusCreated:             "Created",
	StatusBadRequest:          "Bad Request",
	StatusNotFound:            "Not Found",
	StatusMethodNotAllowed:    "Method Not Allowed",
	StatusInternalServerError: "Internal Server Error",
	StatusNotImplemented:      "Not Implemented",
	StatusServiceUnavailable:  "Service Unavailable",
}

// StatusText returns the reason phrase for code, or "" if unknown.
func StatusText(code int) string {
	return statusText[code]
}

const headerContentLength = "Content-Length"

// Response is an HTTP response ready to be written.
//
// Content-Length is derived from the body when the response is created and
// cannot be overridden.
type Response struct {
	status  int
	headers map[string]string
	body    string
}

// NewResponse creates a response with the given status and body.
// contentType may be empty.
func NewResponse(status int, contentType, body string) *Response {
	r := &Response{
		status: status,
		headers: map[string]string{
			headerContentLength: strconv.Itoa(len(body)),
		},
		body: body,
	}
	if contentType != "" {
		r.headers["Content-Type"] = contentType
	}
	return r
}

// Status returns the status code.
func (r *Response) Status() int {
	return r.status
}

// Body returns the response body.
func (r *Response) Body() string {
	return r.body
}

// Header returns the value of the header with name.
func (r *Response) Header(name string) string {
	return r.headers[textproto.CanonicalMIMEHeaderKey(name)]
}

// SetHeader sets a header. Attempts to set Content-Length are ignored.
func (r *Response) SetHeader(name, value string) {
	name = textproto.CanonicalMIMEHeaderKey(name)
	if name == headerContentLength {
		return
	}
	r.headers[name] = value
}

// WriteTo writes the status line, the headers sorted by name, a blank line
// and the body.
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)

	reason := StatusText(r.status)
	bw.WriteString(Protocol + " " + strconv.Itoa(r.status) + " " + reason + "\r\n")

	keys := make([]string, 0, len(r.headers))
	for k := range r.headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		bw.WriteString(k + ": " + r.headers[k] + "\r\n")
	}

	bw.WriteString("\r\n")
	bw.WriteString(r.body)

	err := bw.Flush()
	return cw.n, err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
