package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/timothycrosley/blox/internal/server"
	"github.com/timothycrosley/blox/pkg/render"
	"github.com/timothycrosley/blox/pkg/templates"
)

func serveCmd(a *app) *cobra.Command {
	var (
		port    int
		host    string
		watch   bool
		metrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the preview server",
		Long: `Serve every template at /{name}, its node tree at /_blox/tree/{name}
and an index of templates at /.

With --watch, template changes invalidate the compiled cache and connected
browsers reload. With --metrics, Prometheus metrics are served at /metrics.

Examples:
  blox serve
  blox serve --port=3000 --watch
  blox serve --host=0.0.0.0 --metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("port") {
				a.cfg.Server.Port = port
			}
			if flags.Changed("host") {
				a.cfg.Server.Host = host
			}
			if flags.Changed("watch") {
				a.cfg.Server.Watch = watch
			}
			if flags.Changed("metrics") {
				a.cfg.Metrics.Enabled = metrics
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, a, cmd.ErrOrStderr())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from config)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Reload templates and browsers on change")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "Serve Prometheus metrics at /metrics")

	return cmd
}

func runServe(ctx context.Context, a *app, stderr io.Writer) error {
	var (
		metrics  *render.Metrics
		gatherer prometheus.Gatherer
	)
	if a.cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = render.NewMetrics(
			render.WithRegistry(reg),
			render.WithNamespace(a.cfg.Metrics.Namespace),
		)
		gatherer = reg
	}

	set, err := a.newSet(a.loader(), metrics)
	if err != nil {
		return err
	}

	var watcher *templates.Watcher
	if a.cfg.Server.Watch {
		if a.cfg.UsesS3() {
			a.logger.Warn("watching is not supported for S3 templates", "bucket", a.cfg.Templates.S3.Bucket)
		} else {
			watcher, err = set.Watch(a.cfg.TemplatesPath(), 0)
			if err != nil {
				return err
			}
			defer watcher.Close()
		}
	}

	srv := server.New(server.Options{
		Templates: set,
		Render:    a.rendererConfig(metrics),
		Gatherer:  gatherer,
		Watcher:   watcher,
		Logger:    a.logger,
	})

	success(stderr, "Serving %s at %s", a.cfg.TemplatesPath(), a.cfg.URL())
	return srv.ListenAndServe(ctx, a.cfg.Address())
}
