package http

import "context"

// Method is a known HTTP verb
type Method uint8

const (
	MethodUnknown Method = iota
	MethodGet
	MethodPost
	MethodPut
	MethodDelete
	MethodPatch
	MethodHead
	MethodOptions
)

var methodNames = [...]string{
	MethodUnknown: "",
	MethodGet:     "GET",
	MethodPost:    "POST",
	MethodPut:     "PUT",
	MethodDelete:  "DELETE",
	MethodPatch:   "PATCH",
	MethodHead:    "HEAD",
	MethodOptions: "OPTIONS",
}

// ParseMethod maps a request-line token to a Method. Matching is case-sensitive.
func ParseMethod(s string) (Method, bool) {
	switch s {
	case "GET":
		return MethodGet, true
	case "POST":
		return MethodPost, true
	case "PUT":
		return MethodPut, true
	case "DELETE":
		return MethodDelete, true
	case "PATCH":
		return MethodPatch, true
	case "HEAD":
		return MethodHead, true
	case "OPTIONS":
		return MethodOptions, true
	default:
		return MethodUnknown, false
	}
}

func (m Method) String() string {
	if int(m) < len(methodNames) {
		return methodNames[m]
	}
	return ""
}

// HasBody reports whether requests with this method carry a body to decode
func (m Method) HasBody() bool {
	return m == MethodPost || m == MethodPut || m == MethodPatch
}

// Request is a parsed inbound HTTP message
type Request struct {
	Method  Method
	Target  string // path and query as sent
	Path    string // Target without the query string
	Version string

	Headers map[string]string
	Query   map[string]string
	Body    BodyValue

	// Params holds :param bindings, set after a route matched
	Params map[string]string

	// ID is the request ID assigned by middleware, empty if none
	ID         string
	RemoteAddr string

	ctx context.Context
}

// Header gets a request header. Names are matched exactly as sent.
func (r *Request) Header(key string) string {
	if r.Headers == nil {
		return ""
	}
	return r.Headers[key]
}

// Param gets a path parameter
func (r *Request) Param(key string) string {
	if r.Params == nil {
		return ""
	}
	return r.Params[key]
}

// QueryValue gets a query parameter
func (r *Request) QueryValue(key string) string {
	if r.Query == nil {
		return ""
	}
	return r.Query[key]
}

// Context returns the request context, never nil
func (r *Request) Context() context.Context {
	if r.ctx != nil {
		return r.ctx
	}
	return context.Background()
}

// WithContext sets the request context in place and returns r
func (r *Request) WithContext(ctx context.Context) *Request {
	if ctx == nil {
		panic("nil context")
	}
	r.ctx = ctx
	return r
}

// HandlerFunc handles a matched request. It must complete the exchange by
// calling one of the Response send methods.
type HandlerFunc func(req *Request, res *Response)
