/*
Package hasty is a minimal HTTP/1.1 server toolkit.

Each accepted connection carries exactly one request: the engine reads it,
frames it into a request line, headers and an optional body, matches it
against the route table and lets the handler send a single response before
the connection is closed. There is no keep-alive and no pipelining.

Quick Start

	package main

	import (
	    "context"

	    "github.com/zlpkhr/hasty-server/app"
	    "github.com/zlpkhr/hasty-server/config"
	    "github.com/zlpkhr/hasty-server/core/http"
	)

	func main() {
	    a, err := app.New(config.Default())
	    if err != nil {
	        panic(err)
	    }

	    a.Engine().GET("/users/:id", func(req *http.Request, res *http.Response) {
	        _ = res.JSON(map[string]string{"id": req.Param("id")})
	    })

	    if err := a.Run(context.Background()); err != nil {
	        panic(err)
	    }
	}

Packages

  - app: wiring and graceful shutdown
  - config: defaults, JSON file, environment and live reload
  - core: the connection engine
  - core/http: request framing, query and body parsing, response encoding
  - core/router: radix index and route matching
  - core/middleware: pre-dispatch handlers
  - core/codec: JSON and protobuf body encoders
  - core/sendfile: file storage on disk or S3 and MIME lookup
  - core/pools: tiered byte buffers
  - core/observability: slog, Prometheus metrics and OpenTelemetry spans
  - core/admin: metrics, health and route listing over h2c

The hasty command in cmd/hasty serves a set of demo routes.
*/
package hasty
