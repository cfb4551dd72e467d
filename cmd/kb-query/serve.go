package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/DeusData/kb-query/internal/config"
	"github.com/DeusData/kb-query/internal/tools"
	"github.com/DeusData/kb-query/internal/watcher"
)

func serveCmd(cfg *config.Config) *cobra.Command {
	var (
		metricsAddr string
		watch       bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the compiler as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sch, err := loadSchema(ctx, cfg)
			if err != nil {
				return err
			}
			if metricsAddr != "" {
				metricsSrv := newMetricsServer(metricsAddr)
				go func() {
					if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						slog.Error("serve.metrics.err", "addr", metricsAddr, "err", err)
					}
				}()
				defer metricsSrv.Close()
			}

			tools.Version = version
			srv := tools.NewServer(sch, cfg)
			if watch {
				w := watcher.New(watchPaths(cfg), func(ctx context.Context) error {
					next, err := loadSchema(ctx, cfg)
					if err != nil {
						return err
					}
					srv.SetSchema(next)
					slog.Info("serve.schema.reloaded", "classes", len(next.Names()))
					return nil
				})
				go w.Run(ctx)
			}
			slog.Info("serve.start", "classes", len(sch.Names()), "metrics", metricsAddr)
			return srv.MCPServer().Run(ctx, &mcp.StdioTransport{})
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", true, "Reload the schema when its file changes")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Expose Prometheus metrics on this address (e.g. :9090)")
	return cmd
}

func newMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// watchPaths lists the files whose changes should reload the schema. SQLite
// writes land in the WAL before they reach the main file.
func watchPaths(cfg *config.Config) []string {
	if cfg.IsSnapshotDB() {
		return []string{cfg.Schema, cfg.Schema + "-wal"}
	}
	return []string{cfg.Schema}
}
