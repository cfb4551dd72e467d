package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/DeusData/kb-query/internal/config"
	"github.com/DeusData/kb-query/internal/schema"
	"github.com/DeusData/kb-query/internal/store"
)

var version = "dev"

// globalFlags override the values read from .kbqueryconfig.
type globalFlags struct {
	schema   string
	snapshot string
	logLevel string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var flags globalFlags
	cfg := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:           "kb-query",
		Short:         "Compile knowledge-base query requests into parameterized statements",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			*cfg = *loadConfig(flags)
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.EffectiveLogLevel()})))
			return nil
		},
	}
	cmd.SetVersionTemplate("kb-query {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&flags.schema, "schema", "", "Schema file (YAML) or snapshot database (.db)")
	cmd.PersistentFlags().StringVar(&flags.snapshot, "snapshot", "", "Snapshot name inside a .db schema (default kb)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		compileCmd(cfg),
		traverseCmd(cfg),
		keywordCmd(cfg),
		schemaCmd(cfg),
		serveCmd(cfg),
		installCmd(cfg),
		uninstallCmd(),
	)
	return cmd
}

// loadConfig reads .kbqueryconfig from the working directory and applies flags.
func loadConfig(flags globalFlags) *config.Config {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	cfg := config.Load(wd)
	if flags.schema != "" {
		cfg.Schema = flags.schema
	}
	if flags.snapshot != "" {
		cfg.Snapshot = flags.snapshot
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	return cfg
}

// loadSchema opens the configured YAML schema or SQLite snapshot.
func loadSchema(ctx context.Context, cfg *config.Config) (*schema.Schema, error) {
	if cfg.Schema == "" {
		return nil, fmt.Errorf("no schema configured: pass --schema or set 'schema' in %s", config.FileName)
	}
	if !cfg.IsSnapshotDB() {
		sch, err := schema.LoadFile(cfg.Schema)
		if err != nil {
			return nil, err
		}
		slog.Debug("schema.loaded", "path", cfg.Schema, "classes", len(sch.Names()))
		return sch, nil
	}
	st, err := store.OpenPath(cfg.Schema)
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	defer st.Close()
	return st.LoadSchema(ctx, cfg.EffectiveSnapshot())
}
