package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/kb-query/internal/query"
)

func (s *Server) handleKeywordSearch(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	keywords := getStringsArg(args, "keywords")
	stmt, err := query.KeywordSearch(keywords, getIntArg(args, "skip", 0))
	if err != nil {
		return errResult(fmt.Sprintf("keyword search error: %v", err)), nil
	}
	result := stmt.Result(s.cfg.EffectiveDisplay())
	slog.Info("tool.keyword_search", "keywords", len(keywords), "fingerprint", result.Fingerprint)
	return jsonResult(result), nil
}
