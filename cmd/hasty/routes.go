package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/zlpkhr/hasty-server/core"
	"github.com/zlpkhr/hasty-server/core/http"
	"github.com/zlpkhr/hasty-server/core/router"
)

// registrar is the part of *core.Engine the demo routes need
type registrar interface {
	GET(pattern string, handler http.HandlerFunc)
	POST(pattern string, handler http.HandlerFunc)
}

func registerDemoRoutes(e registrar) {
	// Simple text response
	e.GET("/", func(req *http.Request, res *http.Response) {
		_ = res.Send("Welcome to hasty!")
	})

	// JSON response
	e.GET("/api/status", func(req *http.Request, res *http.Response) {
		_ = res.JSON(map[string]any{
			"status":  "ok",
			"version": version,
			"server":  "hasty",
		})
	})

	// Path parameters
	e.GET("/api/users/:id", func(req *http.Request, res *http.Response) {
		_ = res.JSON(map[string]string{
			"user_id": req.Param("id"),
		})
	})

	e.GET("/api/users/:id/posts/:post", func(req *http.Request, res *http.Response) {
		_ = res.JSON(map[string]string{
			"user_id": req.Param("id"),
			"post_id": req.Param("post"),
		})
	})

	// Query parameters
	e.GET("/api/search", func(req *http.Request, res *http.Response) {
		_ = res.JSON(req.Query)
	})

	// Echo the parsed body
	e.POST("/api/users", func(req *http.Request, res *http.Response) {
		if req.Body.Len() == 0 {
			_ = res.SendStatus(400)
			return
		}
		_ = res.Status(201)
		_ = res.JSON(req.Body)
	})

	// Files from the configured storage
	e.GET("/files/:name", func(req *http.Request, res *http.Response) {
		_ = res.SendFile(req.Param("name"))
	})

	e.GET("/download/:name", func(req *http.Request, res *http.Response) {
		_ = res.Download(req.Param("name"), "")
	})
}

func routesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Print the demo route table",
		Run: func(cmd *cobra.Command, args []string) {
			printRoutes(cmd.OutOrStdout())
		},
	}
}

func printRoutes(w io.Writer) {
	table := router.NewRouter()
	e := core.NewEngine(core.Options{
		Router: table,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	registerDemoRoutes(e)

	for _, p := range table.Patterns() {
		fmt.Fprintln(w, p)
	}
}
