package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/kb-query/internal/metrics"
	"github.com/DeusData/kb-query/internal/query"
)

func (s *Server) handleCompileQuery(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	raw, ok := args["request"]
	if !ok || raw == nil {
		return errResult("missing required 'request' parameter"), nil
	}
	var body []byte
	if text, isText := raw.(string); isText {
		body = []byte(text)
	} else if body, err = json.Marshal(raw); err != nil {
		return errResult(fmt.Sprintf("encode request: %v", err)), nil
	}
	r, err := query.DecodeRequest(body)
	if err != nil {
		return errResult(fmt.Sprintf("decode request: %v", err)), nil
	}
	if class := getStringArg(args, "class"); class != "" {
		r.Class = class
	}

	start := time.Now()
	q, stmt, err := query.CompileRequest(s.Schema(), r, getIntArg(args, "param_index", 0))
	if err != nil {
		slog.Debug("tool.compile_query.rejected", "class", r.Class, "err", err)
		return errResult(fmt.Sprintf("compile error: %v", err)), nil
	}
	mode := string(q.Mode)
	if mode == "" {
		mode = "select"
	}
	metrics.CompileDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())

	result := stmt.Result(getBoolArg(args, "display", s.cfg.EffectiveDisplay()))
	slog.Info("tool.compile_query", "class", q.ModelName, "mode", mode, "params", len(stmt.Params), "fingerprint", result.Fingerprint)
	return jsonResult(result), nil
}
