package httpserver

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/docmesh-go/internal/telemetry/logger"
	"github.com/yndnr/docmesh-go/internal/telemetry/metric"
)

type rawResponse struct {
	status  int
	headers map[string]string
	body    string
}

// startServer runs s on a loopback listener until the test ends.
func startServer(t *testing.T, s *Server) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(context.Background(), ln) }()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(ctx); err != nil {
			t.Errorf("Shutdown() error = %v", err)
		}
		select {
		case err := <-errCh:
			if !errors.Is(err, ErrServerClosed) {
				t.Errorf("Serve() error = %v, want ErrServerClosed", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("Serve did not return after Shutdown")
		}
	})
	return ln.Addr().String()
}

// roundTrip writes raw on a fresh connection and parses the response.
func roundTrip(t *testing.T, addr, raw string) rawResponse {
	t.Helper()

	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

	if _, err := io.WriteString(conn, raw); err != nil {
		t.Fatalf("write: %v", err)
	}
	return readRawResponse(t, bufio.NewReader(conn))
}

func readRawResponse(t *testing.T, br *bufio.Reader) rawResponse {
	t.Helper()

	status, err := br.ReadString('\n')
	if err != nil {
		t.Fatalf("read status line: %v", err)
	}
	fields := strings.SplitN(strings.TrimSpace(status), " ", 3)
	if len(fields) < 2 || fields[0] != Protocol {
		t.Fatalf("bad status line %q", status)
	}
	code, _ := strconv.Atoi(fields[1])

	resp := rawResponse{status: code, headers: map[string]string{}}
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			t.Fatalf("read header: %v", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		k, v, _ := strings.Cut(line, ": ")
		resp.headers[k] = v
	}

	n, err := strconv.Atoi(resp.headers["Content-Length"])
	if err != nil {
		t.Fatalf("Content-Length %q: %v", resp.headers["Content-Length"], err)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(br, body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	resp.body = string(body)

	// The server closes after one exchange.
	if extra, err := br.ReadByte(); err == nil {
		t.Fatalf("unexpected byte %q after body", extra)
	}
	return resp
}

func TestServer_EndToEnd(t *testing.T) {
	rt, _ := newTestRouter(t)
	addr := startServer(t, New(&Config{Workers: 4}, rt, nil, nil))

	body := "html=" + "%3Cp%3Eend+to+end%3C%2Fp%3E"
	resp := roundTrip(t, addr, "POST /html HTTP/1.1\r\n"+
		"Content-Type: application/x-www-form-urlencoded\r\n"+
		"Content-Length: "+strconv.Itoa(len(body))+"\r\n\r\n"+body)
	if resp.status != StatusCreated {
		t.Fatalf("POST = %d %q", resp.status, resp.body)
	}
	m := createdID.FindStringSubmatch(resp.body)
	if m == nil {
		t.Fatalf("POST body %q carries no id", resp.body)
	}

	resp = roundTrip(t, addr, "GET /html?uuid="+m[1]+" HTTP/1.1\r\nHost: localhost\r\n\r\n")
	if resp.status != StatusOK || resp.body != "<p>end to end</p>" {
		t.Errorf("GET = %d %q", resp.status, resp.body)
	}
	if resp.headers["Content-Type"] != "text/html;charset=UTF-8" {
		t.Errorf("Content-Type = %q", resp.headers["Content-Type"])
	}
}

func TestServer_MalformedKeepsListening(t *testing.T) {
	rt, _ := newTestRouter(t)
	reg := metric.NewRegistry()
	addr := startServer(t, New(&Config{Workers: 2}, rt, nil, reg))

	malformed := []string{
		"GARBAGE\r\n\r\n",
		"FETCH /html HTTP/1.1\r\n\r\n",
		"GET /html?uuid HTTP/1.1\r\n\r\n",
		"GET /html HTTP/1.1\r\nbroken header\r\n\r\n",
		"POST /html HTTP/1.1\r\nContent-Length: abc\r\n\r\n",
	}
	for _, raw := range malformed {
		resp := roundTrip(t, addr, raw)
		if resp.status != StatusBadRequest {
			t.Errorf("%q: status = %d, want 400", raw, resp.status)
		}
		if !strings.HasPrefix(resp.body, "Malformed HTTP Request: ") {
			t.Errorf("%q: body = %q", raw, resp.body)
		}
	}

	resp := roundTrip(t, addr, "GET /html HTTP/1.1\r\n\r\n")
	if resp.status != StatusOK {
		t.Errorf("GET after malformed requests = %d %q", resp.status, resp.body)
	}

	if got := testutil.ToFloat64(reg.MalformedRequests); got != float64(len(malformed)) {
		t.Errorf("malformed counter = %v, want %d", got, len(malformed))
	}
}

func TestServer_EmptyConnection(t *testing.T) {
	rt, _ := newTestRouter(t)
	addr := startServer(t, New(&Config{Workers: 1}, rt, nil, nil))

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.CloseWrite()
	}

	resp := readRawResponse(t, bufio.NewReader(conn))
	if resp.status != StatusBadRequest || resp.body != "Malformed HTTP Request: empty request" {
		t.Errorf("empty connection = %d %q", resp.status, resp.body)
	}
}

func TestServer_ContentLengthMatchesBody(t *testing.T) {
	rt, _ := newTestRouter(t)
	addr := startServer(t, New(&Config{Workers: 2}, rt, nil, nil))

	requests := []string{
		"GET / HTTP/1.1\r\n\r\n",
		"GET /xml HTTP/1.1\r\n\r\n",
		"GET /nope HTTP/1.1\r\n\r\n",
		"PUT /xsd HTTP/1.1\r\n\r\n",
		"DELETE /xslt HTTP/1.1\r\n\r\n",
		"POST /html HTTP/1.1\r\nContent-Length: 20\r\n\r\nhtml=%C3%B1and%C3%BA",
		"bad\r\n\r\n",
	}
	for _, raw := range requests {
		// readRawResponse reads exactly Content-Length bytes and fails on
		// trailing data, so a mismatch in either direction is caught.
		resp := roundTrip(t, addr, raw)
		if resp.status == 0 {
			t.Errorf("%q: no status", raw)
		}
	}
}

func TestServer_QueueFullRejects(t *testing.T) {
	release := make(chan struct{})
	var once sync.Once
	t.Cleanup(func() { once.Do(func() { close(release) }) })

	entered := make(chan struct{}, 1)
	blocking := HandlerFunc(func(ctx context.Context, req *Request) *Response {
		entered <- struct{}{}
		<-release
		return NewResponse(StatusOK, "", "done")
	})

	reg := metric.NewRegistry()
	addr := startServer(t, New(&Config{Workers: 1, MaxQueue: 1}, blocking, nil, reg))

	// First connection occupies the only worker.
	first, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer first.Close()
	io.WriteString(first, "GET /html HTTP/1.1\r\n\r\n")
	<-entered

	// Second waits in the queue.
	second, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer second.Close()
	io.WriteString(second, "GET /html HTTP/1.1\r\n\r\n")

	// Third finds the queue full.
	waitFor(t, func() bool { return testutil.ToFloat64(reg.QueueDepth) == 1 })
	resp := roundTrip(t, addr, "GET /html HTTP/1.1\r\n\r\n")
	if resp.status != StatusServiceUnavailable {
		t.Errorf("third connection status = %d, want 503", resp.status)
	}
	if got := testutil.ToFloat64(reg.ConnectionsRejected); got != 1 {
		t.Errorf("rejected counter = %v, want 1", got)
	}

	once.Do(func() { close(release) })
	for _, c := range []net.Conn{first, second} {
		_ = c.SetDeadline(time.Now().Add(5 * time.Second))
		resp := readRawResponse(t, bufio.NewReader(c))
		if resp.status != StatusOK {
			t.Errorf("queued connection status = %d, want 200", resp.status)
		}
	}
}

func TestServer_AcceptRate(t *testing.T) {
	rt, _ := newTestRouter(t)
	addr := startServer(t, New(&Config{Workers: 2, AcceptRate: 1000}, rt, nil, nil))

	for i := 0; i < 5; i++ {
		if resp := roundTrip(t, addr, "GET /html HTTP/1.1\r\n\r\n"); resp.status != StatusOK {
			t.Errorf("request %d status = %d", i, resp.status)
		}
	}
}

func TestServer_ShutdownDrainsQueue(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 4)
	slow := HandlerFunc(func(ctx context.Context, req *Request) *Response {
		entered <- struct{}{}
		<-release
		return NewResponse(StatusOK, "", "late")
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := New(&Config{Workers: 1}, slow, nil, nil)
	go s.Serve(context.Background(), ln)

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	io.WriteString(conn, "GET /html HTTP/1.1\r\n\r\n")
	<-entered

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		done <- s.Shutdown(ctx)
	}()

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
	resp := readRawResponse(t, bufio.NewReader(conn))
	if resp.status != StatusOK || resp.body != "late" {
		t.Errorf("in-flight request = %d %q", resp.status, resp.body)
	}

	if _, err := net.DialTimeout("tcp", ln.Addr().String(), time.Second); err == nil {
		t.Error("listener still accepting after Shutdown")
	}
}

func TestServer_RequestIDsAreUnique(t *testing.T) {
	s := New(nil, HandlerFunc(func(context.Context, *Request) *Response { return nil }), nil, nil)

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := s.newRequestID()
		if seen[id] {
			t.Fatalf("duplicate request id %s", id)
		}
		seen[id] = true
	}
}

// lockedBuffer is a bytes.Buffer shared by a worker and the test.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestServer_RequestAttributesReachHandler(t *testing.T) {
	var out lockedBuffer
	log := slog.New(slog.NewJSONHandler(&out, nil))

	seen := make(chan logger.Request, 1)
	h := HandlerFunc(func(ctx context.Context, req *Request) *Response {
		seen <- logger.RequestFromContext(ctx)
		logger.L(ctx).Info("handled", "path", req.Path)
		return NewResponse(StatusOK, "text/plain", "ok")
	})
	addr := startServer(t, New(&Config{Workers: 1}, h, log, nil))

	resp := roundTrip(t, addr, "GET /html HTTP/1.1\r\n\r\n")
	if resp.status != StatusOK {
		t.Fatalf("status = %d", resp.status)
	}

	r := <-seen
	if r.ID == "" {
		t.Fatal("handler context carries no request id")
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err != nil || host != "127.0.0.1" {
		t.Errorf("RemoteAddr = %q, want a 127.0.0.1 address", r.RemoteAddr)
	}
	if !strings.Contains(out.String(), `"request_id":"`+r.ID+`"`) {
		t.Errorf("handler record lacks request_id %s: %q", r.ID, out.String())
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
