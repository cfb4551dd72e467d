package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/kb-query/internal/query"
	"github.com/DeusData/kb-query/internal/schema"
)

func (s *Server) handleParseTraversal(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	path := getStringArg(args, "path")
	if path == "" {
		return errResult("missing required 'path' parameter"), nil
	}
	sch := s.Schema()
	var model *schema.Model
	if class := getStringArg(args, "class"); class != "" {
		m, ok := sch.Get(class)
		if !ok {
			return errResult(fmt.Sprintf("unknown class: %s", class)), nil
		}
		model = m
	}

	t, err := query.ParseTraversalString(sch, model, path)
	if err != nil {
		return errResult(fmt.Sprintf("traversal error: %v", err)), nil
	}

	out := map[string]any{
		"type": t.Type,
		"text": t.String(),
	}
	if prop := t.TerminalProperty(); prop != nil {
		out["terminal_property"] = describeProperty(prop)
	}
	return jsonResult(out), nil
}
