package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zlpkhr/hasty-server/core/http"
)

// Pipeline runs middlewares in order before the final handler. A middleware
// that sends the response stops the chain.
type Pipeline struct {
	handlers []http.HandlerFunc
}

// NewPipeline creates a new middleware pipeline
func NewPipeline() *Pipeline {
	return &Pipeline{
		handlers: make([]http.HandlerFunc, 0, 8),
	}
}

// Use adds a middleware to the pipeline
func (p *Pipeline) Use(handler http.HandlerFunc) *Pipeline {
	p.handlers = append(p.handlers, handler)
	return p
}

// Len returns the number of middlewares
func (p *Pipeline) Len() int {
	return len(p.handlers)
}

// Execute runs the middleware pipeline
func (p *Pipeline) Execute(req *http.Request, res *http.Response, final http.HandlerFunc) {
	for _, h := range p.handlers {
		h(req, res)
		if res.Sent() {
			return
		}
	}

	if final != nil {
		final(req, res)
	}
}

// RequestID assigns a request ID, keeping one sent by the client, and
// echoes it in the X-Request-ID response header
func RequestID() http.HandlerFunc {
	return func(req *http.Request, res *http.Response) {
		id := req.Header(http.HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		req.ID = id
		res.SetHeader(http.HeaderRequestID, id)
	}
}

// RequestLogger logs each request before it is handled
func RequestLogger(logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(req *http.Request, res *http.Response) {
		logger.Info("request",
			"method", req.Method.String(),
			"path", req.Path,
			"id", req.ID,
			"remote", req.RemoteAddr,
		)
	}
}

// Preflight answers CORS preflight requests with 204 when CORS is enabled
func Preflight() http.HandlerFunc {
	return func(req *http.Request, res *http.Response) {
		if req.Method != http.MethodOptions || !res.CORSEnabled() {
			return
		}
		res.ApplyCORS()
		_ = res.SendStatus(204)
	}
}

// RateLimiter rejects requests beyond requestsPerSecond with 503
func RateLimiter(requestsPerSecond int) http.HandlerFunc {
	var (
		tokens     int
		lastRefill time.Time
		mu         sync.Mutex
	)

	tokens = requestsPerSecond
	lastRefill = time.Now()

	return func(req *http.Request, res *http.Response) {
		mu.Lock()

		now := time.Now()
		if now.Sub(lastRefill) > time.Second {
			tokens = requestsPerSecond
			lastRefill = now
		}

		if tokens > 0 {
			tokens--
			mu.Unlock()
			return
		}

		mu.Unlock()

		_ = res.SendStatus(503)
	}
}
