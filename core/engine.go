package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zlpkhr/hasty-server/core/http"
	"github.com/zlpkhr/hasty-server/core/middleware"
	"github.com/zlpkhr/hasty-server/core/observability"
	"github.com/zlpkhr/hasty-server/core/pools"
	"github.com/zlpkhr/hasty-server/core/router"
	"github.com/zlpkhr/hasty-server/core/sendfile"
	"golang.org/x/net/netutil"
)

// Router is the route table used by the engine
type Router interface {
	Add(method, pattern string, handler any)
	Find(method, path string) (*router.Route, map[string]string, bool)
	Routes() []router.Route
}

// Options configures an Engine. Zero values take the package defaults.
type Options struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxConnections int
	ReadBufferSize int
	ReusePort      bool
	CORS           bool

	Router   Router
	Storage  sendfile.Storage
	Logger   *slog.Logger
	Metrics  *observability.Metrics
	Tracer   *observability.Tracer
	BytePool *pools.BytePool
}

// Engine accepts connections and serves one request per connection
type Engine struct {
	router   Router
	pipeline *middleware.Pipeline
	storage  sendfile.Storage
	logger   *slog.Logger
	metrics  *observability.Metrics
	tracer   *observability.Tracer
	bytePool *pools.BytePool

	readTimeout    time.Duration
	writeTimeout   time.Duration
	maxConnections int
	readBufferSize int
	reusePort      bool

	cors atomic.Bool

	mu        sync.Mutex
	listeners map[net.Listener]struct{}
	addr      net.Addr
	closed    bool
	conns     sync.WaitGroup
}

// NewEngine creates a new engine instance
func NewEngine(opts Options) *Engine {
	e := &Engine{
		router:         opts.Router,
		pipeline:       middleware.NewPipeline(),
		storage:        opts.Storage,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
		tracer:         opts.Tracer,
		bytePool:       opts.BytePool,
		readTimeout:    opts.ReadTimeout,
		writeTimeout:   opts.WriteTimeout,
		maxConnections: opts.MaxConnections,
		readBufferSize: opts.ReadBufferSize,
		reusePort:      opts.ReusePort,
		listeners:      make(map[net.Listener]struct{}),
	}

	if e.router == nil {
		e.router = router.NewRouter()
	}
	if e.storage == nil {
		e.storage = sendfile.NewOSStorage("")
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.bytePool == nil {
		e.bytePool = pools.Default()
	}
	if e.readTimeout == 0 {
		e.readTimeout = DefaultReadTimeout
	}
	if e.writeTimeout == 0 {
		e.writeTimeout = DefaultWriteTimeout
	}
	if e.readBufferSize <= 0 {
		e.readBufferSize = DefaultReadBufferSize
	}
	e.cors.Store(opts.CORS)

	return e
}

// Handle registers handler for method and pattern. Patterns must start
// with '/'; earlier registrations win when several patterns match.
func (e *Engine) Handle(method, pattern string, handler http.HandlerFunc) {
	if handler == nil {
		panic("hasty: nil handler for " + method + " " + pattern)
	}
	e.router.Add(method, pattern, handler)
	e.logger.Info("route registered", "method", method, "pattern", pattern)
}

// GET registers a GET route
func (e *Engine) GET(pattern string, handler http.HandlerFunc) {
	e.Handle("GET", pattern, handler)
}

// POST registers a POST route
func (e *Engine) POST(pattern string, handler http.HandlerFunc) {
	e.Handle("POST", pattern, handler)
}

// PUT registers a PUT route
func (e *Engine) PUT(pattern string, handler http.HandlerFunc) {
	e.Handle("PUT", pattern, handler)
}

// DELETE registers a DELETE route
func (e *Engine) DELETE(pattern string, handler http.HandlerFunc) {
	e.Handle("DELETE", pattern, handler)
}

// PATCH registers a PATCH route
func (e *Engine) PATCH(pattern string, handler http.HandlerFunc) {
	e.Handle("PATCH", pattern, handler)
}

// HEAD registers a HEAD route
func (e *Engine) HEAD(pattern string, handler http.HandlerFunc) {
	e.Handle("HEAD", pattern, handler)
}

// OPTIONS registers an OPTIONS route
func (e *Engine) OPTIONS(pattern string, handler http.HandlerFunc) {
	e.Handle("OPTIONS", pattern, handler)
}

// Use appends a middleware run before route dispatch. Middlewares see
// every parsed request, matched or not.
func (e *Engine) Use(mw http.HandlerFunc) {
	e.pipeline.Use(mw)
}

// CORS enables or disables CORS headers for subsequent requests
func (e *Engine) CORS(enabled bool) {
	e.cors.Store(enabled)
	e.logger.Info("cors updated", "enabled", enabled)
}

// CORSEnabled reports the current CORS setting
func (e *Engine) CORSEnabled() bool {
	return e.cors.Load()
}

// Routes returns a snapshot of the route table
func (e *Engine) Routes() []router.Route {
	return e.router.Routes()
}

// Addr returns the address of the most recent listener, or nil
func (e *Engine) Addr() net.Addr {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.addr
}

// Listen binds addr and serves until Close
func (e *Engine) Listen(addr string) error {
	lc := net.ListenConfig{
		Control:   socketControl(e.reusePort),
		KeepAlive: DefaultKeepAlive,
	}
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return e.Serve(ln)
}

// Serve accepts connections on ln, one goroutine each, until Close. It
// always returns a non-nil error; ErrServerClosed after Close.
func (e *Engine) Serve(ln net.Listener) error {
	if e.maxConnections > 0 {
		ln = netutil.LimitListener(ln, e.maxConnections)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		ln.Close()
		return ErrServerClosed
	}
	e.listeners[ln] = struct{}{}
	e.addr = ln.Addr()
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		delete(e.listeners, ln)
		e.mu.Unlock()
	}()

	e.logger.Info("server listening", "addr", ln.Addr().String(), "max_connections", e.maxConnections)

	var tempDelay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if e.isClosed() {
				return ErrServerClosed
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}

			if tempDelay == 0 {
				tempDelay = 5 * time.Millisecond
			} else {
				tempDelay *= 2
			}
			if tempDelay > time.Second {
				tempDelay = time.Second
			}
			e.logger.Warn("accept error", "error", err, "retry_in", tempDelay)
			time.Sleep(tempDelay)
			continue
		}
		tempDelay = 0

		e.mu.Lock()
		if e.closed {
			e.mu.Unlock()
			conn.Close()
			return ErrServerClosed
		}
		e.conns.Add(1)
		e.mu.Unlock()

		go func() {
			defer e.conns.Done()
			e.ServeConn(conn)
		}()
	}
}

func (e *Engine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Close stops accepting connections and waits for in-flight ones until
// ctx is done
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	var errs []error
	for ln := range e.listeners {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
	}
	e.mu.Unlock()

	e.logger.Warn("server closing")

	done := make(chan struct{})
	go func() {
		e.conns.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("waiting for connections: %w", ctx.Err()))
	}
	return errors.Join(errs...)
}

// ServeConn serves a single request on conn and closes it. Once a request
// was read the response owns conn and closes it exactly once.
func (e *Engine) ServeConn(conn net.Conn) {
	start := time.Now()
	remote := remoteAddr(conn)

	e.metrics.ConnOpened()
	defer e.metrics.ConnClosed()

	e.logger.Debug("connection opened", "remote", remote)
	defer e.logger.Debug("connection closed", "remote", remote)

	if e.readTimeout > 0 {
		_ = conn.SetReadDeadline(start.Add(e.readTimeout))
	}

	buf := e.bytePool.Get(e.readBufferSize)
	defer e.bytePool.Put(buf)

	n, err := conn.Read(buf)
	if n == 0 {
		e.logger.Debug("connection closed before request", "remote", remote, "error", err)
		_ = conn.Close()
		return
	}

	if e.writeTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(e.writeTimeout))
	}

	e.dispatch(conn, buf[:n], remote, start)
}

func (e *Engine) dispatch(conn net.Conn, data []byte, remote string, start time.Time) {
	req, err := http.ParseRequest(data)
	if err != nil {
		kind := "request"
		if errors.Is(err, http.ErrBodyParse) {
			kind = "body"
		}
		e.metrics.ParseError(kind)
		e.logger.Error("parse request", "remote", remote, "kind", kind, "error", err)

		res := http.NewResponse(conn, http.WithLogger(e.logger))
		defer res.Close()
		if serr := res.SendStatus(400); serr != nil {
			e.logger.Debug("send 400", "remote", remote, "error", serr)
		}
		e.metrics.RecordRequest("invalid", 400, time.Since(start))
		return
	}

	method := req.Method.String()
	ctx, span := e.tracer.Start(context.Background(), method, req.Path)
	req.WithContext(ctx)
	req.RemoteAddr = remote

	e.logger.Info("request parsed", "method", method, "path", req.Path, "remote", remote)

	res := http.NewResponse(conn,
		http.WithCORS(e.cors.Load()),
		http.WithStorage(e.storage),
		http.WithLogger(e.logger),
		http.WithBytePool(e.bytePool),
		http.WithContext(ctx),
	)
	defer res.Close()

	var route string
	e.run(req, res, func(req *http.Request, res *http.Response) {
		rt, params, ok := e.router.Find(method, req.Path)
		if !ok {
			e.metrics.RouteMiss()
			e.logger.Warn("no route", "method", method, "path", req.Path)
			_ = res.SendStatus(404)
			return
		}

		route = rt.Pattern
		req.Params = params
		e.logger.Info("route matched", "method", method, "path", req.Path, "pattern", rt.Pattern)

		h, ok := rt.Handler.(http.HandlerFunc)
		if !ok {
			e.logger.Error("bad route handler", "pattern", rt.Pattern, "error", ErrBadHandler)
			_ = res.SendStatus(500)
			return
		}
		h(req, res)
	})

	if !res.Sent() {
		e.logger.Warn("handler returned without sending a response", "method", method, "path", req.Path)
		_ = res.SendStatus(500)
	}

	status := res.StatusCode()
	resErr := res.Err()
	var streamErr *http.StreamError
	if errors.As(resErr, &streamErr) {
		status = streamErr.Status
	}
	if resErr != nil && !errors.Is(resErr, http.ErrFileNotFound) {
		e.logger.Warn("response error", "method", method, "path", req.Path, "status", status, "error", resErr)
	}

	e.metrics.FileBytesSent(res.FileBytesWritten())
	e.metrics.RecordRequest(method, status, time.Since(start))
	observability.Finish(span, route, status, resErr)
}

// run executes the middleware pipeline and final handler, turning a panic
// into a 500 when nothing was sent yet
func (e *Engine) run(req *http.Request, res *http.Response, final http.HandlerFunc) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("handler panic",
				"method", req.Method.String(),
				"path", req.Path,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			if !res.Sent() {
				_ = res.SendStatus(500)
			}
		}
	}()

	e.pipeline.Execute(req, res, final)
}

func remoteAddr(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
