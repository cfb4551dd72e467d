package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/kb-query/internal/config"
	"github.com/DeusData/kb-query/internal/metrics"
	"github.com/DeusData/kb-query/internal/schema"
)

// Version is reported in the MCP implementation info.
var Version = "0.1.0"

// Server wraps the MCP server with tool handlers.
type Server struct {
	mcp *mcp.Server
	cfg *config.Config

	mu     sync.RWMutex
	schema *schema.Schema
}

// NewServer creates a new MCP server with all tools registered.
func NewServer(sch *schema.Schema, cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	srv := &Server{
		schema: sch,
		cfg:    cfg,
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    "kb-query",
				Version: Version,
			},
			nil,
		),
	}
	metrics.SchemaClasses.Set(float64(len(sch.Names())))
	srv.registerTools()
	return srv
}

// Schema returns the schema the tools currently compile against.
func (s *Server) Schema() *schema.Schema {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.schema
}

// SetSchema swaps the schema. Calls already in flight finish on the old one.
func (s *Server) SetSchema(sch *schema.Schema) {
	s.mu.Lock()
	s.schema = sch
	s.mu.Unlock()
	metrics.SchemaClasses.Set(float64(len(sch.Names())))
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// instrument counts every call of the named tool by outcome.
func instrument(name string, h mcp.ToolHandler) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := h(ctx, req)
		status := "ok"
		if err != nil || (res != nil && res.IsError) {
			status = "error"
		}
		metrics.ToolCallsTotal.WithLabelValues(name, status).Inc()
		return res, err
	}
}

func (s *Server) registerTools() {
	// 1. compile_query
	s.mcp.AddTool(&mcp.Tool{
		Name:        "compile_query",
		Description: "Compile a JSON query request against the knowledge-base schema into a parameterized statement. Validates attributes, operators and values, and returns the statement text with its bound parameters. Supports sub-queries as comparison values and neighborhood/ancestors/descendants graph walks.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"class": {
					"type": "string",
					"description": "Class to query (e.g. 'Disease'). Overrides request.class."
				},
				"request": {
					"type": "object",
					"description": "Query request: {class, where, returnProperties, skip, limit, orderBy, orderByDirection, activeOnly, type, edges, depth}"
				},
				"param_index": {
					"type": "integer",
					"description": "Number of the first bound parameter (default 0)"
				},
				"display": {
					"type": "boolean",
					"description": "Also return the statement with parameters substituted (for reading only)"
				}
			},
			"required": ["request"]
		}`),
	}, instrument("compile_query", s.handleCompileQuery))

	// 2. parse_traversal
	s.mcp.AddTool(&mcp.Tool{
		Name:        "parse_traversal",
		Description: "Resolve a path expression such as 'source.name' or 'out(AliasOf).vertex' against a class and return its rendered form and the terminal property.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"class": {
					"type": "string",
					"description": "Starting class. If omitted, only properties common to every vertex and edge are available."
				},
				"path": {
					"type": "string",
					"description": "Path notation, e.g. 'reference1.name', 'inE(ImpliedBy).vertex', 'out().size()'"
				}
			},
			"required": ["path"]
		}`),
	}, instrument("parse_traversal", s.handleParseTraversal))

	// 3. describe_schema
	s.mcp.AddTool(&mcp.Tool{
		Name:        "describe_schema",
		Description: "List the classes of the knowledge-base schema, or the queryable properties (own and inherited) of one class.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"class": {
					"type": "string",
					"description": "Class to describe. If omitted, all class names are listed."
				}
			}
		}`),
	}, instrument("describe_schema", s.handleDescribeSchema))

	// 4. keyword_search
	s.mcp.AddTool(&mcp.Tool{
		Name:        "keyword_search",
		Description: "Build the general keyword search statement: ontology terms whose name or sourceId contain every keyword, the variants built on them, and the statements that reference either.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"keywords": {
					"type": "array",
					"items": {"type": "string"},
					"description": "Keywords that must all match"
				},
				"skip": {
					"type": "integer",
					"description": "Number of records to skip (default 0)"
				}
			},
			"required": ["keywords"]
		}`),
	}, instrument("keyword_search", s.handleKeywordSearch))
}

// jsonResult marshals data to JSON and returns as tool result.
func jsonResult(data any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errResult("json marshal err=" + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}
}

// errResult returns a tool result indicating an error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// parseArgs unmarshals the raw JSON arguments into a map.
func parseArgs(req *mcp.CallToolRequest) (map[string]any, error) {
	if len(req.Params.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &m); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return m, nil
}

// getStringArg extracts a string argument from parsed args.
func getStringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// getIntArg extracts an integer argument with a default value.
func getIntArg(args map[string]any, key string, defaultVal int) int {
	f, ok := args[key].(float64) // JSON numbers decode as float64
	if !ok {
		return defaultVal
	}
	return int(f)
}

// getBoolArg extracts a boolean argument with a default value.
func getBoolArg(args map[string]any, key string, defaultVal bool) bool {
	b, ok := args[key].(bool)
	if !ok {
		return defaultVal
	}
	return b
}

// getStringsArg extracts a list of strings, skipping non-string items.
func getStringsArg(args map[string]any, key string) []string {
	items, _ := args[key].([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
