package http

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/zlpkhr/hasty-server/core/codec"
	"github.com/zlpkhr/hasty-server/core/pools"
	"github.com/zlpkhr/hasty-server/core/sendfile"
	"google.golang.org/protobuf/proto"
)

// copyBufferSize is the chunk size used to stream file bodies
const copyBufferSize = 32 * 1024

// Transport is the connection a response is written to. net.Conn satisfies it.
type Transport interface {
	io.Writer
	Close() error
}

// Response encodes exactly one HTTP/1.1 response onto a transport and then
// closes it.
type Response struct {
	t       Transport
	storage sendfile.Storage
	logger  *slog.Logger
	pool    *pools.BytePool
	ctx     context.Context

	status     int
	headerKeys []string
	headers    map[string]string
	cors       bool

	sent      atomic.Bool
	closeOnce sync.Once
	written   int64
	fromFile  bool
	err       error
}

// ResponseOption configures a Response
type ResponseOption func(*Response)

// WithCORS enables or disables the CORS headers on body-producing sends
func WithCORS(enabled bool) ResponseOption {
	return func(r *Response) {
		r.cors = enabled
	}
}

// WithStorage sets the file source used by SendFile and Download
func WithStorage(s sendfile.Storage) ResponseOption {
	return func(r *Response) {
		if s != nil {
			r.storage = s
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) ResponseOption {
	return func(r *Response) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithBytePool sets the pool copy buffers are taken from
func WithBytePool(p *pools.BytePool) ResponseOption {
	return func(r *Response) {
		if p != nil {
			r.pool = p
		}
	}
}

// WithContext sets the context passed to storage calls
func WithContext(ctx context.Context) ResponseOption {
	return func(r *Response) {
		if ctx != nil {
			r.ctx = ctx
		}
	}
}

// NewResponse creates a response bound to t with status 200
func NewResponse(t Transport, opts ...ResponseOption) *Response {
	r := &Response{
		t:       t,
		storage: sendfile.NewOSStorage(""),
		logger:  slog.Default(),
		pool:    pools.Default(),
		ctx:     context.Background(),
		status:  200,
		headers: make(map[string]string, 8),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Status sets the status code. Codes outside the known table are rejected
// and leave the current status unchanged, as does any call after a send.
func (r *Response) Status(code int) error {
	if !ValidStatus(code) {
		return &InvalidStatusError{Code: code}
	}
	if r.Sent() {
		return ErrResponseSent
	}
	r.status = code
	return nil
}

// StatusCode returns the current status code
func (r *Response) StatusCode() int {
	return r.status
}

// SetHeader sets a response header. Headers are written in the order they
// were first set. CR and LF are removed from key and value. After a send
// it does nothing; Content-Length is always computed by the send itself.
func (r *Response) SetHeader(key, value string) {
	if r.Sent() {
		return
	}
	r.setHeader(key, value)
}

func (r *Response) setHeader(key, value string) {
	key, value = stripCRLF(key), stripCRLF(value)
	if key == "" {
		return
	}
	if _, ok := r.headers[key]; !ok {
		r.headerKeys = append(r.headerKeys, key)
	}
	r.headers[key] = value
}

func (r *Response) delHeader(key string) {
	if _, ok := r.headers[key]; !ok {
		return
	}
	delete(r.headers, key)
	for i, k := range r.headerKeys {
		if k == key {
			r.headerKeys = append(r.headerKeys[:i], r.headerKeys[i+1:]...)
			break
		}
	}
}

var crlfStripper = strings.NewReplacer("\r", "", "\n", "")

func stripCRLF(s string) string {
	if strings.ContainsAny(s, "\r\n") {
		return crlfStripper.Replace(s)
	}
	return s
}

// Header returns a response header previously set
func (r *Response) Header(key string) string {
	return r.headers[key]
}

// CORSEnabled reports whether CORS headers are applied
func (r *Response) CORSEnabled() bool {
	return r.cors
}

// ApplyCORS sets the CORS headers when CORS is enabled
func (r *Response) ApplyCORS() {
	if r.Sent() {
		return
	}
	r.applyCORS()
}

func (r *Response) applyCORS() {
	if !r.cors {
		return
	}
	r.setHeader(HeaderAllowOrigin, CORSAllowOrigin)
	r.setHeader(HeaderAllowMethods, CORSAllowMethods)
	r.setHeader(HeaderAllowHeaders, CORSAllowHeaders)
}

// Sent reports whether a send has started
func (r *Response) Sent() bool {
	return r.sent.Load()
}

// Err returns the error recorded by the send, if any
func (r *Response) Err() error {
	return r.err
}

// BytesWritten returns the number of body bytes written
func (r *Response) BytesWritten() int64 {
	return r.written
}

// FileBytesWritten returns the body bytes streamed from storage
func (r *Response) FileBytesWritten() int64 {
	if !r.fromFile {
		return 0
	}
	return r.written
}

// Send writes a text body. Bodies that look like markup are sent as
// text/html, everything else as text/plain.
func (r *Response) Send(body string) error {
	if !r.claim() {
		return ErrResponseSent
	}

	r.applyCORS()
	contentType := MIMETextPlain
	trimmed := strings.TrimSpace(body)
	if strings.HasPrefix(trimmed, "<") && strings.HasSuffix(trimmed, ">") {
		contentType = MIMETextHTML
	}
	r.setHeader(HeaderContentType, contentType)

	return r.finish(r.writeMessage([]byte(body)))
}

// JSON encodes v and writes it as application/json. Protobuf messages are
// encoded with protojson. An encoding failure sends a 500 without a body.
func (r *Response) JSON(v any) error {
	return r.encode(codec.JSON, v)
}

// Proto writes msg in protobuf wire format
func (r *Response) Proto(msg proto.Message) error {
	return r.encode(codec.Protobuf, msg)
}

func (r *Response) encode(c codec.Codec, v any) error {
	if !r.claim() {
		return ErrResponseSent
	}

	data, err := c.Encode(v)
	if err != nil {
		r.status = 500
		werr := r.writeMessage(nil)
		encErr := fmt.Errorf("encode %s: %w", c.Name(), err)
		if werr != nil {
			encErr = fmt.Errorf("%w (write: %v)", encErr, werr)
		}
		return r.finish(encErr)
	}

	r.applyCORS()
	r.setHeader(HeaderContentType, c.ContentType())
	return r.finish(r.writeMessage(data))
}

// SendStatus writes a status-only response
func (r *Response) SendStatus(code int) error {
	if !ValidStatus(code) {
		return &InvalidStatusError{Code: code}
	}
	if !r.claim() {
		return ErrResponseSent
	}

	r.status = code
	return r.finish(r.writeMessage(nil))
}

// SendFile streams a file from storage with a Content-Type derived from its
// extension. A missing file gets a 404 and a *FileNotFoundError.
func (r *Response) SendFile(path string) error {
	return r.sendFile(path, "")
}

// Download streams a file as an attachment named filename. An empty
// filename uses the base name of path.
func (r *Response) Download(path, filename string) error {
	if filename == "" {
		filename = filepath.Base(path)
	}
	return r.sendFile(path, filename)
}

func (r *Response) sendFile(path, attachment string) error {
	if !r.claim() {
		return ErrResponseSent
	}

	r.applyCORS()

	info, err := r.storage.Stat(r.ctx, path)
	if err != nil {
		return r.finish(r.notFound(path, err))
	}

	body, err := r.storage.Open(r.ctx, path)
	if err != nil {
		return r.finish(r.notFound(path, err))
	}
	defer body.Close()

	r.setHeader(HeaderContentType, sendfile.GetContentType(path))
	r.setHeader(HeaderContentLength, strconv.FormatInt(info.Size, 10))
	if attachment != "" {
		r.setHeader(HeaderContentDisposition, `attachment; filename="`+quoteEscaper.Replace(attachment)+`"`)
	}

	if _, err := r.t.Write(r.appendHead(make([]byte, 0, 256))); err != nil {
		return r.finish(fmt.Errorf("write headers: %w", err))
	}

	buf := r.pool.Get(copyBufferSize)
	defer r.pool.Put(buf)

	// A TCP transport and an *os.File source turn this into sendfile(2)
	n, err := io.CopyBuffer(r.t, io.LimitReader(body, info.Size), buf)
	r.written = n
	r.fromFile = true
	if err == nil && n < info.Size {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		r.logger.Warn("file stream aborted", "path", path, "written", n, "size", info.Size, "error", err)
		return r.finish(&StreamError{Path: path, Status: 500, Written: n, Err: err})
	}

	return r.finish(nil)
}

func (r *Response) notFound(path string, cause error) error {
	r.status = 404
	if err := r.writeMessage(nil); err != nil {
		r.logger.Debug("write 404 failed", "path", path, "error", err)
	}
	return &FileNotFoundError{Path: path, Err: cause}
}

// claim marks the response as sent. Only the first caller wins.
func (r *Response) claim() bool {
	return r.sent.CompareAndSwap(false, true)
}

// finish records err and closes the transport
func (r *Response) finish(err error) error {
	r.err = err
	r.close()
	return err
}

// Close closes the transport unless a send already did. The transport is
// closed at most once however often Close is called.
func (r *Response) Close() {
	r.close()
}

func (r *Response) close() {
	r.closeOnce.Do(func() {
		if err := r.t.Close(); err != nil {
			r.logger.Debug("close transport", "error", err)
		}
	})
}

// writeMessage writes headers and body in a single write. Content-Length is
// the body length, and is omitted for statuses that never carry a body.
func (r *Response) writeMessage(body []byte) error {
	if bodyless(r.status) {
		r.delHeader(HeaderContentLength)
		body = nil
	} else {
		r.setHeader(HeaderContentLength, strconv.Itoa(len(body)))
	}

	buf := r.appendHead(make([]byte, 0, 256+len(body)))
	buf = append(buf, body...)
	if _, err := r.t.Write(buf); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	r.written = int64(len(body))
	return nil
}

func bodyless(status int) bool {
	return status == 204 || status == 304
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func (r *Response) appendHead(b []byte) []byte {
	b = append(b, "HTTP/1.1 "...)
	b = strconv.AppendInt(b, int64(r.status), 10)
	b = append(b, ' ')
	b = append(b, StatusText(r.status)...)
	b = append(b, "\r\n"...)
	for _, k := range r.headerKeys {
		b = append(b, k...)
		b = append(b, ": "...)
		b = append(b, r.headers[k]...)
		b = append(b, "\r\n"...)
	}
	return append(b, "\r\n"...)
}
