package core

import (
	"errors"
	"time"
)

// Engine defaults
const (
	DefaultReadTimeout    = 10 * time.Second
	DefaultWriteTimeout   = 10 * time.Second
	DefaultReadBufferSize = 16384
	DefaultMaxConnections = 10000
	DefaultKeepAlive      = 30 * time.Second
)

// Error definitions
var (
	ErrServerClosed = errors.New("hasty: server closed")
	ErrBadHandler   = errors.New("route handler is not an http.HandlerFunc")
)
