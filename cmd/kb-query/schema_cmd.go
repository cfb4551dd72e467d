package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/DeusData/kb-query/internal/config"
	"github.com/DeusData/kb-query/internal/schema"
	"github.com/DeusData/kb-query/internal/store"
)

// defaultStoreName is the cache database used when no .db path is given.
const defaultStoreName = "snapshots"

func schemaCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Import, export and list schema snapshots",
	}
	cmd.AddCommand(schemaImportCmd(cfg), schemaExportCmd(cfg), schemaListCmd())
	return cmd
}

func schemaImportCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "import <schema.yaml> [snapshot.db]",
		Short: "Store a YAML schema as a snapshot in a SQLite database",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sch, err := schema.LoadFile(args[0])
			if err != nil {
				return err
			}
			st, err := openStore(args[1:])
			if err != nil {
				return err
			}
			defer st.Close()

			src, err := filepath.Abs(args[0])
			if err != nil {
				src = args[0]
			}
			name := cfg.EffectiveSnapshot()
			if err := st.SaveSchema(name, src, sch); err != nil {
				return fmt.Errorf("save snapshot: %w", err)
			}
			slog.Info("schema.import", "snapshot", name, "db", st.Path(), "classes", len(sch.Names()))
			return nil
		},
	}
}

func schemaExportCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Print the configured schema as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sch, err := loadSchema(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(schema.Describe(sch)); err != nil {
				return fmt.Errorf("encode schema: %w", err)
			}
			return enc.Close()
		},
	}
}

func schemaListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [snapshot.db]",
		Short: "List the snapshots stored in a SQLite database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(args)
			if err != nil {
				return err
			}
			defer st.Close()
			snapshots, err := st.ListSnapshots()
			if err != nil {
				return fmt.Errorf("list snapshots: %w", err)
			}
			for _, sn := range snapshots {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", sn.Name, sn.ImportedAt, sn.SourcePath)
			}
			return nil
		},
	}
}

// openStore opens the database named on the command line, or the shared
// database in the user cache directory when none is given.
func openStore(args []string) (*store.Store, error) {
	if len(args) > 0 {
		return store.OpenPath(args[0])
	}
	return store.Open(defaultStoreName)
}
