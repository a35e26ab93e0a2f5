package httpserver

import (
	"bufio"
	"context"
	"crypto/rand"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/docmesh-go/internal/core/domain"
	"github.com/yndnr/docmesh-go/internal/telemetry/logger"
	"github.com/yndnr/docmesh-go/internal/telemetry/metric"
)

// ErrServerClosed is returned by Serve after Shutdown.
var ErrServerClosed = errors.New("http: server closed")

// Config holds the HTTP engine configuration.
type Config struct {
	// Addr is the listen address.
	Addr string

	// Workers is the number of connections served concurrently.
	Workers int

	// MaxQueue bounds the connections waiting for a worker. When the queue
	// is full new connections get 503. Zero means unbounded.
	MaxQueue int

	// AcceptRate limits accepted connections per second. The acceptor
	// waits rather than rejecting. Zero disables the limit.
	AcceptRate float64

	// ReadTimeout bounds reading a whole request (slowloris protection).
	ReadTimeout time.Duration

	// WriteTimeout bounds writing the response.
	WriteTimeout time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:         "127.0.0.1:8888",
		Workers:      50,
		MaxQueue:     0,
		AcceptRate:   0,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Handler produces the response for a parsed request.
type Handler interface {
	ServeRequest(ctx context.Context, req *Request) *Response
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, req *Request) *Response

// ServeRequest calls f.
func (f HandlerFunc) ServeRequest(ctx context.Context, req *Request) *Response {
	return f(ctx, req)
}

// Server accepts connections on one listener and serves each with a single
// request/response exchange on a fixed pool of workers.
type Server struct {
	cfg     *Config
	handler Handler
	logger  *slog.Logger
	metrics *metric.Registry
	limiter *rate.Limiter

	ln      net.Listener
	lnMu    sync.Mutex
	running atomic.Bool

	queue *connQueue
	wg    sync.WaitGroup

	entropyMu sync.Mutex
	entropy   *ulid.MonotonicEntropy
}

// New creates a server. logger and metrics may be nil.
func New(cfg *Config, handler Handler, logger *slog.Logger, metrics *metric.Registry) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
		metrics: metrics,
		queue:   newConnQueue(cfg.MaxQueue),
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
	if cfg.AcceptRate > 0 {
		burst := int(cfg.AcceptRate)
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.AcceptRate), burst)
	}
	return s
}

// ListenAndServe listens on the configured address and serves until
// Shutdown is called or ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln. It always returns a non-nil error;
// after Shutdown the error is ErrServerClosed.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.lnMu.Lock()
	s.ln = ln
	s.lnMu.Unlock()
	s.running.Store(true)

	workers := s.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx)
	}

	s.logger.Info("http server listening",
		"address", ln.Addr().String(),
		"workers", workers,
		"max_queue", s.cfg.MaxQueue,
		"accept_rate", s.cfg.AcceptRate)

	err := s.acceptLoop(ctx, ln)
	if !s.running.Load() {
		return ErrServerClosed
	}
	return err
}

// Addr returns the listener address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.lnMu.Lock()
	defer s.lnMu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown stops accepting connections, lets the workers finish the queued
// ones and waits for them. If ctx expires first, the queued connections
// are closed unanswered and ctx.Err() is returned.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	var firstErr error
	s.lnMu.Lock()
	if s.ln != nil {
		if err := s.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			firstErr = err
		}
	}
	s.lnMu.Unlock()

	s.queue.close()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		for _, c := range s.queue.drain() {
			c.Close()
		}
		return ctx.Err()
	}

	s.logger.Info("http server stopped")
	return firstErr
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	defer s.queue.close()

	for {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return nil
			}
		}

		c, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				s.logger.Warn("temporary accept error", "error", err)
				time.Sleep(10 * time.Millisecond)
				continue
			}
			return err
		}

		if !s.queue.push(c) {
			s.reject(c)
			continue
		}
		s.metrics.SetQueueDepth(s.queue.len())
	}
}

// reject answers 503 on a connection the queue has no room for.
func (s *Server) reject(c net.Conn) {
	s.metrics.IncRejected()
	s.logger.Warn("connection rejected, queue full",
		"remote_addr", c.RemoteAddr().String(),
		"max_queue", s.cfg.MaxQueue)

	go func() {
		resp := NewResponse(StatusServiceUnavailable, domain.MIMETypeText,
			"Service unavailable: too many pending connections")
		_ = c.SetWriteDeadline(time.Now().Add(s.writeTimeout()))
		_, _ = resp.WriteTo(c)
		lingerClose(c)
	}()
}

func (s *Server) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		c, ok := s.queue.pop()
		if !ok {
			return
		}
		s.metrics.SetQueueDepth(s.queue.len())
		s.serveConn(ctx, c)
	}
}

func (s *Server) serveConn(ctx context.Context, c net.Conn) {
	id := s.newRequestID()
	remote := c.RemoteAddr().String()

	ctx = logger.WithLogger(ctx, logger.Wrap(s.logger))
	ctx = logger.WithRequest(ctx, id, remote)
	log := logger.L(ctx)

	if err := c.SetReadDeadline(time.Now().Add(s.readTimeout())); err != nil {
		c.Close()
		return
	}

	req, err := ReadRequest(bufio.NewReader(c))
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			log.Debug("request read timed out")
		} else {
			log.Warn("malformed request", "error", err)
		}
		s.metrics.IncMalformed()

		resp := malformedResponse(err)
		_ = c.SetWriteDeadline(time.Now().Add(s.writeTimeout()))
		_, _ = resp.WriteTo(c)
		lingerClose(c)
		return
	}
	req.ID = id
	req.RemoteAddr = remote

	resp := s.handler.ServeRequest(ctx, req)
	if resp == nil {
		resp = NewResponse(StatusInternalServerError, domain.MIMETypeText, "Server error: no response")
	}

	if err := c.SetWriteDeadline(time.Now().Add(s.writeTimeout())); err == nil {
		if _, err := resp.WriteTo(c); err != nil {
			log.Debug("writing response failed", "error", err)
		}
	}
	c.Close()
}

func malformedResponse(err error) *Response {
	detail := err.Error()
	var pe *ProtocolError
	if errors.As(err, &pe) {
		detail = pe.Detail
	}
	return NewResponse(StatusBadRequest, domain.MIMETypeText, "Malformed HTTP Request: "+detail)
}

// lingerClose half-closes c and discards what the client still sends, so
// the response is not lost to a reset caused by unread request bytes.
func lingerClose(c net.Conn) {
	if tc, ok := c.(*net.TCPConn); ok {
		_ = tc.CloseWrite()
	}
	_ = c.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _ = io.Copy(io.Discard, io.LimitReader(c, 256*1024))
	c.Close()
}

func (s *Server) newRequestID() string {
	s.entropyMu.Lock()
	defer s.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *Server) readTimeout() time.Duration {
	if s.cfg.ReadTimeout <= 0 {
		return 30 * time.Second
	}
	return s.cfg.ReadTimeout
}

func (s *Server) writeTimeout() time.Duration {
	if s.cfg.WriteTimeout <= 0 {
		return 30 * time.Second
	}
	return s.cfg.WriteTimeout
}

// connQueue is a FIFO of accepted connections, unbounded when max is zero.
type connQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	conns  []net.Conn
	max    int
	closed bool
}

func newConnQueue(max int) *connQueue {
	q := &connQueue{max: max}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push enqueues c. It returns false when the queue is full or closed.
func (q *connQueue) push(c net.Conn) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || (q.max > 0 && len(q.conns) >= q.max) {
		return false
	}
	q.conns = append(q.conns, c)
	q.cond.Signal()
	return true
}

// pop blocks until a connection is available. It returns false once the
// queue is closed and empty.
func (q *connQueue) pop() (net.Conn, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.conns) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.conns) == 0 {
		return nil, false
	}
	c := q.conns[0]
	q.conns[0] = nil
	q.conns = q.conns[1:]
	return c, true
}

func (q *connQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.conns)
}

func (q *connQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// drain removes and returns every queued connection.
func (q *connQueue) drain() []net.Conn {
	q.mu.Lock()
	defer q.mu.Unlock()
	conns := q.conns
	q.conns = nil
	return conns
}
