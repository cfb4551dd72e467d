package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/kb-query/internal/schema"
)

func (s *Server) handleDescribeSchema(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	class := getStringArg(args, "class")
	if class == "" {
		var vertices, edges []string
		for _, m := range s.Schema().Models() {
			if m.IsEdge {
				edges = append(edges, m.Name)
			} else {
				vertices = append(vertices, m.Name)
			}
		}
		return jsonResult(map[string]any{
			"classes": vertices,
			"edges":   edges,
			"total":   len(vertices) + len(edges),
		}), nil
	}

	m, ok := s.Schema().Get(class)
	if !ok {
		return errResult(fmt.Sprintf("unknown class: %s", class)), nil
	}
	props := m.QueryProperties()
	described := make([]schema.PropertyDoc, 0, len(props))
	for _, name := range schema.PropertyNames(m) {
		described = append(described, describeProperty(props[name]))
	}
	return jsonResult(map[string]any{
		"name":       m.Name,
		"inherits":   m.Inherits,
		"edge":       m.IsEdge,
		"abstract":   m.IsAbstract,
		"properties": described,
	}), nil
}

func describeProperty(p *schema.Property) schema.PropertyDoc {
	return schema.PropertyDoc{
		Name:        p.Name,
		Type:        p.Type,
		Iterable:    p.Iterable,
		LinkedClass: p.LinkedClass,
		Cast:        p.CastName,
		Choices:     p.Choices,
	}
}
