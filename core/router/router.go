package router

import (
	"strings"
	"sync"
)

// Route is a registered route entry
type Route struct {
	Method  string
	Pattern string
	Handler any

	segments []string
}

// Router is a linear route matcher with :param segment support.
//
// Routes are tried in registration order and the first match wins; a
// literal route registered after a parameterized one of the same shape is
// never preferred. Every registered pattern is also kept in a RadixIndex
// for auxiliary lookups (listing, existence checks); dispatch does not use it.
type Router struct {
	mu     sync.RWMutex
	routes []*Route
	index  *RadixIndex
}

// NewRouter creates an empty router
func NewRouter() *Router {
	return &Router{
		index: NewRadixIndex(),
	}
}

// Add registers a route
func (r *Router) Add(method, pattern string, handler any) {
	if pattern == "" || pattern[0] != '/' {
		panic("path must begin with '/'")
	}
	if method == "" {
		panic("method must not be empty")
	}

	route := &Route{
		Method:   method,
		Pattern:  pattern,
		Handler:  handler,
		segments: strings.Split(pattern, "/"),
	}

	r.mu.Lock()
	r.routes = append(r.routes, route)
	r.index.Insert(indexKey(method, pattern))
	r.mu.Unlock()
}

// Find returns the first route matching method and path along with the
// extracted :param bindings. ok is false on a routing miss.
func (r *Router) Find(method, path string) (route *Route, params map[string]string, ok bool) {
	parts := strings.Split(path, "/")

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rt := range r.routes {
		if rt.Method != method || len(rt.segments) != len(parts) {
			continue
		}
		if !matchSegments(rt.segments, parts) {
			continue
		}
		return rt, extractParams(rt.segments, parts), true
	}
	return nil, nil, false
}

// Match reports whether pattern matches path, ignoring the method
func Match(pattern, path string) bool {
	a := strings.Split(pattern, "/")
	b := strings.Split(path, "/")
	return len(a) == len(b) && matchSegments(a, b)
}

// Params extracts :param bindings of pattern from path. It returns nil when
// pattern does not match path.
func Params(pattern, path string) map[string]string {
	a := strings.Split(pattern, "/")
	b := strings.Split(path, "/")
	if len(a) != len(b) || !matchSegments(a, b) {
		return nil
	}
	return extractParams(a, b)
}

func matchSegments(pattern, parts []string) bool {
	for i, seg := range pattern {
		if isParam(seg) {
			if parts[i] == "" {
				return false
			}
			continue
		}
		if seg != parts[i] {
			return false
		}
	}
	return true
}

func extractParams(pattern, parts []string) map[string]string {
	params := make(map[string]string)
	for i, seg := range pattern {
		if isParam(seg) {
			params[seg[1:]] = parts[i]
		}
	}
	return params
}

func isParam(seg string) bool {
	return len(seg) > 0 && seg[0] == ':'
}

// Routes returns a snapshot of the route table in registration order
func (r *Router) Routes() []Route {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Route, len(r.routes))
	for i, rt := range r.routes {
		out[i] = *rt
	}
	return out
}

// Len returns the number of registered routes
func (r *Router) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.routes)
}

// HasPattern reports whether method+pattern was registered, using the radix index
func (r *Router) HasPattern(method, pattern string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index.Search(indexKey(method, pattern))
}

// Patterns returns every registered "METHOD pattern" key in lexical order
func (r *Router) Patterns() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index.Words()
}

// Index returns the radix index of "METHOD pattern" keys. It must not be
// mutated, and is only safe to read once registration is done.
func (r *Router) Index() *RadixIndex {
	return r.index
}

func indexKey(method, pattern string) string {
	return method + " " + pattern
}
