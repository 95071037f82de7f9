package http

// HTTP header constants
const (
	HeaderContentType        = "Content-Type"
	HeaderContentLength      = "Content-Length"
	HeaderContentDisposition = "Content-Disposition"
	HeaderHost               = "Host"
	HeaderConnection         = "Connection"
	HeaderRequestID          = "X-Request-ID"

	HeaderAllowOrigin  = "Access-Control-Allow-Origin"
	HeaderAllowMethods = "Access-Control-Allow-Methods"
	HeaderAllowHeaders = "Access-Control-Allow-Headers"
)

// Content types set by the response encoder
const (
	MIMETextPlain = "text/plain"
	MIMETextHTML  = "text/html"
	MIMEJSON      = "application/json"
	MIMEProtobuf  = "application/x-protobuf"
)

// CORS header values applied when CORS is enabled
const (
	CORSAllowOrigin  = "*"
	CORSAllowMethods = "GET, POST, PUT, DELETE, OPTIONS"
	CORSAllowHeaders = "Content-Type, Authorization"
)

// statusTexts is the closed set of status codes a response may carry
var statusTexts = map[int]string{
	200: "OK",
	201: "Created",
	202: "Accepted",
	204: "No Content",
	301: "Moved Permanently",
	302: "Found",
	303: "See Other",
	304: "Not Modified",
	400: "Bad Request",
	401: "Unauthorized",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	406: "Not Acceptable",
	409: "Conflict",
	417: "Expectation Failed",
	500: "Internal Server Error",
	501: "Not Implemented",
	503: "Service Unavailable",
}

// StatusText returns the reason phrase for code, or "" if code is not known
func StatusText(code int) string {
	return statusTexts[code]
}

// ValidStatus reports whether code is in the known status table
func ValidStatus(code int) bool {
	_, ok := statusTexts[code]
	return ok
}
