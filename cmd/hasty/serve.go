package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zlpkhr/hasty-server/app"
	"github.com/zlpkhr/hasty-server/config"
)

type serveFlags struct {
	configFile string
	port       int
	host       string
	cors       bool
	logLevel   string
	logFormat  string
	staticDir  string
	adminAddr  string
	s3Bucket   string
	s3Prefix   string
	s3Region   string
	s3Endpoint string
	maxConns   int
	reusePort  bool
}

func serveCmd() *cobra.Command {
	var f serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the server with the demo routes",
		Long: `Start the server with the demo routes registered.

Examples:
  hasty serve
  hasty serve --port=3000 --cors
  hasty serve --config=hasty.json --admin-addr=127.0.0.1:9090
  hasty serve --s3-bucket=assets --s3-endpoint=http://localhost:9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, m, err := config.Load(f.configFile, "HASTY")
			if err != nil {
				return err
			}
			applyFlags(cmd, &f, cfg)

			opts := []app.Option{app.WithManager(m)}
			if f.configFile != "" {
				opts = append(opts, app.WithConfigFile(f.configFile))
			}
			a, err := app.New(cfg, opts...)
			if err != nil {
				return err
			}
			registerDemoRoutes(a.Engine())

			if err := a.Run(context.Background()); err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.configFile, "config", "c", "", "JSON config file, watched for changes")
	flags.IntVarP(&f.port, "port", "p", 0, "Port to listen on (default 8080)")
	flags.StringVarP(&f.host, "host", "H", "", "Host to bind to")
	flags.BoolVar(&f.cors, "cors", false, "Send CORS headers")
	flags.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&f.logFormat, "log-format", "", "Log format: text or json")
	flags.StringVar(&f.staticDir, "static-dir", "", "Directory files are served from")
	flags.StringVar(&f.adminAddr, "admin-addr", "", "Address of the metrics and health server")
	flags.StringVar(&f.s3Bucket, "s3-bucket", "", "Serve files from this S3 bucket")
	flags.StringVar(&f.s3Prefix, "s3-prefix", "", "Key prefix inside the S3 bucket")
	flags.StringVar(&f.s3Region, "s3-region", "", "S3 region")
	flags.StringVar(&f.s3Endpoint, "s3-endpoint", "", "S3-compatible endpoint URL")
	flags.IntVar(&f.maxConns, "max-connections", 0, "Maximum concurrent connections")
	flags.BoolVar(&f.reusePort, "reuseport", false, "Set SO_REUSEPORT on the listener")

	return cmd
}

// applyFlags overrides cfg with the flags given on the command line
func applyFlags(cmd *cobra.Command, f *serveFlags, cfg *config.Config) {
	changed := cmd.Flags().Changed

	if changed("port") {
		cfg.Port = f.port
	}
	if changed("host") {
		cfg.Host = f.host
	}
	if changed("cors") {
		cfg.EnableCORS = f.cors
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("log-format") {
		cfg.LogFormat = f.logFormat
	}
	if changed("static-dir") {
		cfg.StaticDir = f.staticDir
	}
	if changed("admin-addr") {
		cfg.AdminAddr = f.adminAddr
	}
	if changed("s3-bucket") {
		cfg.S3Bucket = f.s3Bucket
	}
	if changed("s3-prefix") {
		cfg.S3Prefix = f.s3Prefix
	}
	if changed("s3-region") {
		cfg.S3Region = f.s3Region
	}
	if changed("s3-endpoint") {
		cfg.S3Endpoint = f.s3Endpoint
	}
	if changed("max-connections") {
		cfg.MaxConnections = f.maxConns
	}
	if changed("reuseport") {
		cfg.ReusePort = f.reusePort
	}
}
