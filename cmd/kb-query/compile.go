package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/DeusData/kb-query/internal/config"
	"github.com/DeusData/kb-query/internal/query"
	"github.com/DeusData/kb-query/internal/schema"
)

// compileConcurrency bounds the number of request files compiled at once.
const compileConcurrency = 8

type compileOptions struct {
	class      string
	display    bool
	paramIndex int
}

// compileOutput is one entry of the compile command's JSON output.
type compileOutput struct {
	File   string        `json:"file"`
	Result *query.Result `json:"result,omitempty"`
	Error  string        `json:"error,omitempty"`
}

func compileCmd(cfg *config.Config) *cobra.Command {
	var opt compileOptions
	cmd := &cobra.Command{
		Use:   "compile [request.json...]",
		Short: "Compile JSON request files (or stdin) into statements",
		RunE: func(cmd *cobra.Command, args []string) error {
			sch, err := loadSchema(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("display") {
				opt.display = cfg.EffectiveDisplay()
			}

			var outputs []compileOutput
			if len(args) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				outputs = []compileOutput{compileOne(sch, "-", data, opt)}
			} else if outputs, err = compileFiles(cmd.Context(), sch, args, opt); err != nil {
				return err
			}

			if err := writeJSON(cmd.OutOrStdout(), outputs); err != nil {
				return err
			}
			failed := 0
			for _, o := range outputs {
				if o.Error != "" {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d requests failed to compile", failed, len(outputs))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opt.class, "class", "", "Target class (overrides the request's class)")
	cmd.Flags().BoolVar(&opt.display, "display", false, "Include the statement with parameters substituted")
	cmd.Flags().IntVar(&opt.paramIndex, "param-index", 0, "Number of the first bound parameter")
	return cmd
}

// compileFiles compiles every file concurrently. Results keep argument order;
// compile errors are reported per file, read errors abort the run.
func compileFiles(ctx context.Context, sch *schema.Schema, files []string, opt compileOptions) ([]compileOutput, error) {
	outputs := make([]compileOutput, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(compileConcurrency)
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}
			outputs[i] = compileOne(sch, file, data, opt)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	slog.Info("compile.done", "files", len(files))
	return outputs, nil
}

func compileOne(sch *schema.Schema, file string, data []byte, opt compileOptions) compileOutput {
	out := compileOutput{File: file}
	req, err := query.DecodeRequest(data)
	if err != nil {
		out.Error = fmt.Sprintf("decode request: %v", err)
		return out
	}
	if opt.class != "" {
		req.Class = opt.class
	}
	_, stmt, err := query.CompileRequest(sch, req, opt.paramIndex)
	if err != nil {
		slog.Debug("compile.rejected", "file", file, "err", err)
		out.Error = err.Error()
		return out
	}
	result := stmt.Result(opt.display)
	slog.Debug("compile.ok", "file", file, "fingerprint", result.Fingerprint)
	out.Result = &result
	return out
}

func traverseCmd(cfg *config.Config) *cobra.Command {
	var class string
	cmd := &cobra.Command{
		Use:   "traverse <path>",
		Short: "Resolve a path expression against a class",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sch, err := loadSchema(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			var model *schema.Model
			if class != "" {
				m, ok := sch.Get(class)
				if !ok {
					return fmt.Errorf("unknown class: %s", class)
				}
				model = m
			}
			t, err := query.ParseTraversalString(sch, model, args[0])
			if err != nil {
				return err
			}
			out := map[string]any{"type": t.Type, "text": t.String()}
			if prop := t.TerminalProperty(); prop != nil {
				out["terminal_property"] = prop.Name
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&class, "class", "", "Starting class (default: properties common to every vertex and edge)")
	return cmd
}

func keywordCmd(cfg *config.Config) *cobra.Command {
	var skip int
	cmd := &cobra.Command{
		Use:   "keyword <keyword...>",
		Short: "Build the general keyword search statement",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stmt, err := query.KeywordSearch(args, skip)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), stmt.Result(cfg.EffectiveDisplay()))
		},
	}
	cmd.Flags().IntVar(&skip, "skip", 0, "Number of records to skip")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
