package http

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrMalformedRequest = errors.New("malformed HTTP request")
	ErrBodyParse        = errors.New("body parse error")
	ErrInvalidStatus    = errors.New("invalid status code")
	ErrResponseSent     = errors.New("response already sent")
	ErrFileNotFound     = errors.New("file not found")
)

// MalformedRequestError reports an unparseable request line or header block
type MalformedRequestError struct {
	Reason string
}

func (e *MalformedRequestError) Error() string {
	return "malformed HTTP request: " + e.Reason
}

func (e *MalformedRequestError) Is(target error) bool {
	return target == ErrMalformedRequest
}

// BodyParseError reports a body the tokenizer could not make progress on
type BodyParseError struct {
	Offset int
	Reason string
}

func (e *BodyParseError) Error() string {
	return fmt.Sprintf("body parse error at offset %d: %s", e.Offset, e.Reason)
}

func (e *BodyParseError) Is(target error) bool {
	return target == ErrBodyParse
}

// InvalidStatusError is returned when a status code outside the known table is set
type InvalidStatusError struct {
	Code int
}

func (e *InvalidStatusError) Error() string {
	return "invalid status code: " + strconv.Itoa(e.Code)
}

func (e *InvalidStatusError) Is(target error) bool {
	return target == ErrInvalidStatus
}

// FileNotFoundError is returned by SendFile and Download when the file
// cannot be found in storage. A 404 has already been written.
type FileNotFoundError struct {
	Path string
	Err  error
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s: %v", e.Path, e.Err)
}

func (e *FileNotFoundError) Is(target error) bool {
	return target == ErrFileNotFound
}

func (e *FileNotFoundError) Unwrap() error {
	return e.Err
}

// StreamError reports a failure while streaming a file body after the
// headers were committed. Status is the status the exchange should be
// accounted as; it is not written to the wire.
type StreamError struct {
	Path    string
	Status  int
	Written int64
	Err     error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream %s failed after %d bytes: %v", e.Path, e.Written, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}
