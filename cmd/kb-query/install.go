package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/DeusData/kb-query/internal/config"
)

const mcpServerKey = "kb-query"

// installOptions holds settings for the install/uninstall commands.
type installOptions struct {
	dryRun  bool
	editors []string
	config  string
}

// editorConfigPaths maps editor names to their MCP config file.
func editorConfigPaths() map[string]string {
	home, err := os.UserHomeDir()
	if err != nil {
		return map[string]string{}
	}
	return map[string]string{
		"cursor":   filepath.Join(home, ".cursor", "mcp.json"),
		"windsurf": filepath.Join(home, ".codeium", "windsurf", "mcp_config.json"),
	}
}

// targets resolves the config files to touch: an explicit --config wins over
// --editor names.
func (o installOptions) targets() ([][2]string, error) {
	if o.config != "" {
		return [][2]string{{"custom", o.config}}, nil
	}
	paths := editorConfigPaths()
	var out [][2]string
	for _, name := range o.editors {
		p, ok := paths[name]
		if !ok {
			return nil, fmt.Errorf("unknown editor: %s (known: cursor, windsurf)", name)
		}
		out = append(out, [2]string{name, p})
	}
	return out, nil
}

func installCmd(cfg *config.Config) *cobra.Command {
	var opt installOptions
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Register the kb-query MCP server in editor configs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			binary, err := os.Executable()
			if err != nil {
				return fmt.Errorf("detect binary path: %w", err)
			}
			if resolved, err := filepath.EvalSymlinks(binary); err == nil {
				binary = resolved
			}
			entry, err := serverEntry(binary, cfg)
			if err != nil {
				return err
			}
			targets, err := opt.targets()
			if err != nil {
				return err
			}
			for _, t := range targets {
				if err := installEditorMCP(cmd.OutOrStdout(), t[1], t[0], entry, opt.dryRun); err != nil {
					return err
				}
			}
			return nil
		},
	}
	addInstallFlags(cmd, &opt)
	return cmd
}

func uninstallCmd() *cobra.Command {
	var opt installOptions
	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the kb-query MCP server from editor configs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			targets, err := opt.targets()
			if err != nil {
				return err
			}
			for _, t := range targets {
				if err := removeEditorMCP(cmd.OutOrStdout(), t[1], t[0], opt.dryRun); err != nil {
					return err
				}
			}
			return nil
		},
	}
	addInstallFlags(cmd, &opt)
	return cmd
}

func addInstallFlags(cmd *cobra.Command, opt *installOptions) {
	cmd.Flags().BoolVar(&opt.dryRun, "dry-run", false, "Print what would change without writing")
	cmd.Flags().StringSliceVar(&opt.editors, "editor", []string{"cursor", "windsurf"}, "Editors to configure")
	cmd.Flags().StringVar(&opt.config, "config", "", "Explicit MCP config file (overrides --editor)")
}

// serverEntry builds the mcpServers entry. The schema path is made absolute
// since editors start the server from an arbitrary directory.
func serverEntry(binary string, cfg *config.Config) (map[string]any, error) {
	args := []string{"serve"}
	if cfg.Schema != "" {
		abs, err := filepath.Abs(cfg.Schema)
		if err != nil {
			return nil, fmt.Errorf("resolve schema path: %w", err)
		}
		args = append(args, "--schema", abs)
		if cfg.IsSnapshotDB() {
			args = append(args, "--snapshot", cfg.EffectiveSnapshot())
		}
	}
	return map[string]any{"command": binary, "args": args}, nil
}

// readMCPConfig returns the parsed config, or an empty one when the file is
// missing or not valid JSON.
func readMCPConfig(w io.Writer, path string) map[string]any {
	root := make(map[string]any)
	data, err := os.ReadFile(path)
	if err != nil {
		return root
	}
	if err := json.Unmarshal(data, &root); err != nil {
		fmt.Fprintf(w, "  invalid JSON in %s, overwriting\n", path)
		return make(map[string]any)
	}
	return root
}

func writeMCPConfig(path string, root map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	out, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(out, '\n'), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// installEditorMCP upserts our MCP server entry in an editor's JSON config file.
func installEditorMCP(w io.Writer, path, editor string, entry map[string]any, dryRun bool) error {
	fmt.Fprintf(w, "[%s] MCP config: %s\n", editor, path)
	if dryRun {
		fmt.Fprintf(w, "  [dry-run] would upsert %s\n", mcpServerKey)
		return nil
	}

	root := readMCPConfig(w, path)
	servers, ok := root["mcpServers"].(map[string]any)
	if !ok {
		servers = make(map[string]any)
	}
	servers[mcpServerKey] = entry
	root["mcpServers"] = servers

	if err := writeMCPConfig(path, root); err != nil {
		return err
	}
	fmt.Fprintf(w, "  registered %s\n", mcpServerKey)
	return nil
}

// removeEditorMCP removes our MCP server entry. Missing files and entries are
// not an error.
func removeEditorMCP(w io.Writer, path, editor string, dryRun bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var root map[string]any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil
	}
	servers, ok := root["mcpServers"].(map[string]any)
	if !ok {
		return nil
	}
	if _, exists := servers[mcpServerKey]; !exists {
		return nil
	}

	fmt.Fprintf(w, "[%s] MCP config: %s\n", editor, path)
	if dryRun {
		fmt.Fprintf(w, "  [dry-run] would remove %s\n", mcpServerKey)
		return nil
	}
	delete(servers, mcpServerKey)
	root["mcpServers"] = servers
	if err := writeMCPConfig(path, root); err != nil {
		return err
	}
	fmt.Fprintf(w, "  removed %s\n", mcpServerKey)
	return nil
}
