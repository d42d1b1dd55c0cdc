package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"codescope/internal/index"
	"codescope/internal/query"
	"codescope/internal/store"
)

func (s *Server) handleIndexBuild(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	opts := s.opts
	if exts := getStringSliceArg(args, "extensions"); len(exts) > 0 {
		opts.Extensions = exts
	}
	return jsonResult(index.Build(ctx, opts)), nil
}

func (s *Server) handleIndexStatus(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(index.Status(s.opts)), nil
}

func (s *Server) handleListFiles(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.withEngine(func(e *query.Engine) (*mcp.CallToolResult, error) {
		files, err := e.ListFiles()
		if err != nil {
			return errResult(fmt.Sprintf("list files: %v", err)), nil
		}
		out := make([]map[string]any, 0, len(files))
		for _, f := range files {
			out = append(out, map[string]any{
				"path":     f.Path,
				"language": f.Language,
				"hash":     f.Hash,
				"size":     f.Size,
			})
		}
		return jsonResult(map[string]any{"files": out, "count": len(out)}), nil
	})
}

func (s *Server) handleListSymbols(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	filter := store.SymbolFilter{
		Name:     getStringArg(args, "name"),
		Kind:     getStringArg(args, "kind"),
		FilePath: getStringArg(args, "file_path"),
		Limit:    getIntArg(args, "limit", 100),
	}
	return s.withEngine(func(e *query.Engine) (*mcp.CallToolResult, error) {
		symbols, err := e.ListSymbols(filter)
		if err != nil {
			return errResult(fmt.Sprintf("list symbols: %v", err)), nil
		}
		return jsonResult(map[string]any{"symbols": symbols, "count": len(symbols)}), nil
	})
}

func (s *Server) handleSymbolRelations(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	id := getStringArg(args, "symbol_id")
	if id == "" {
		return errResult("symbol_id is required"), nil
	}

	return s.withEngine(func(e *query.Engine) (*mcp.CallToolResult, error) {
		rels, err := e.RelationsForSymbol(id, getStringArg(args, "kind"), getStringArg(args, "direction"))
		if err != nil {
			return errResult(fmt.Sprintf("relations: %v", err)), nil
		}
		return jsonResult(map[string]any{"relations": rels, "count": len(rels)}), nil
	})
}

func (s *Server) handleCallGraph(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	id := getStringArg(args, "symbol_id")
	if id == "" {
		return errResult("symbol_id is required"), nil
	}
	depth := getIntArg(args, "depth", 3)

	return s.withEngine(func(e *query.Engine) (*mcp.CallToolResult, error) {
		g, err := e.CallGraph(id, depth, getStringArg(args, "direction"), "")
		if err != nil {
			return errResult(fmt.Sprintf("call graph: %v", err)), nil
		}
		if g == nil {
			return errResult(fmt.Sprintf("symbol not found: %s", id)), nil
		}
		return jsonResult(g), nil
	})
}

func (s *Server) handleDefinitionSnippet(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	id := getStringArg(args, "symbol_id")
	if id == "" {
		return errResult("symbol_id is required"), nil
	}

	return s.withEngine(func(e *query.Engine) (*mcp.CallToolResult, error) {
		def, err := e.GetDefinitionSnippet(id, getIntArg(args, "context_lines", 0))
		if err != nil {
			return errResult(fmt.Sprintf("definition: %v", err)), nil
		}
		if def == nil {
			return errResult(fmt.Sprintf("symbol not found: %s", id)), nil
		}
		return jsonResult(def), nil
	})
}
