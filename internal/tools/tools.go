// Package tools exposes the index over MCP so coding agents can build and
// query it as a set of tools.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"codescope/internal/config"
	"codescope/internal/index"
	"codescope/internal/query"
	"codescope/internal/store"
)

// Server wraps the MCP server with tool handlers bound to one project.
type Server struct {
	mcp  *mcp.Server
	opts index.Options
}

// NewServer creates an MCP server with all tools registered. opts pins the
// project root and index root every tool operates on.
func NewServer(opts index.Options) *Server {
	srv := &Server{
		opts: opts,
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    "codescope",
				Version: "0.1.0",
			},
			nil,
		),
	}
	srv.registerTools()
	return srv
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Run serves MCP over stdio until the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	// 1. index_build
	s.mcp.AddTool(&mcp.Tool{
		Name:        "index_build",
		Description: "Scan the project and (re)build the symbol index. Extracts functions, methods, classes, and their relations from Go, Python, Java, and JavaScript/TypeScript sources. Incremental: unchanged files are skipped via content hashing.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"extensions": {
					"type": "array",
					"items": {"type": "string"},
					"description": "Extension allow-list override (e.g. [\".go\", \".py\"]). Defaults to all supported extensions."
				}
			}
		}`),
	}, s.handleIndexBuild)

	// 2. index_status
	s.mcp.AddTool(&mcp.Tool{
		Name:        "index_status",
		Description: "Report the index state: lifecycle, file/symbol/relation counts, languages, and the last scan summary.",
		InputSchema: json.RawMessage(`{"type": "object"}`),
	}, s.handleIndexStatus)

	// 3. list_files
	s.mcp.AddTool(&mcp.Tool{
		Name:        "list_files",
		Description: "List every indexed file with its language, size, and content hash.",
		InputSchema: json.RawMessage(`{"type": "object"}`),
	}, s.handleListFiles)

	// 4. list_symbols
	s.mcp.AddTool(&mcp.Tool{
		Name:        "list_symbols",
		Description: "List indexed symbols, optionally filtered by name, kind (function, method, constructor, class, struct, interface, getter, setter), or file path.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"name": {"type": "string", "description": "Exact symbol name filter"},
				"kind": {"type": "string", "description": "Symbol kind filter"},
				"file_path": {"type": "string", "description": "Absolute file path filter"},
				"limit": {"type": "integer", "description": "Maximum results (default 100)"}
			}
		}`),
	}, s.handleListSymbols)

	// 5. symbol_relations
	s.mcp.AddTool(&mcp.Tool{
		Name:        "symbol_relations",
		Description: "Return relations touching a symbol: belongs_to membership and calls edges, filterable by kind and direction.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"symbol_id": {"type": "string", "description": "Symbol id as returned by list_symbols"},
				"kind": {"type": "string", "description": "Relation kind filter (belongs_to, calls)"},
				"direction": {
					"type": "string",
					"enum": ["source", "target", "both"],
					"description": "Which endpoint the symbol occupies (default both)"
				}
			},
			"required": ["symbol_id"]
		}`),
	}, s.handleSymbolRelations)

	// 6. call_graph
	s.mcp.AddTool(&mcp.Tool{
		Name:        "call_graph",
		Description: "Bounded breadth-first call-graph traversal from a symbol. Returns all visited symbols as nodes and traversed calls edges; cycles are represented once.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"symbol_id": {"type": "string", "description": "Starting symbol id"},
				"depth": {"type": "integer", "description": "Maximum traversal depth (default 3)"},
				"direction": {
					"type": "string",
					"enum": ["source", "target", "both"],
					"description": "'source' follows callees, 'target' callers (default both)"
				}
			},
			"required": ["symbol_id"]
		}`),
	}, s.handleCallGraph)

	// 7. definition_snippet
	s.mcp.AddTool(&mcp.Tool{
		Name:        "definition_snippet",
		Description: "Return the current source text of a symbol's declaration, sliced live from disk by its recorded line range, with an optional context-line pad.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"symbol_id": {"type": "string", "description": "Symbol id"},
				"context_lines": {"type": "integer", "description": "Extra lines above and below (default 0)"}
			},
			"required": ["symbol_id"]
		}`),
	}, s.handleDefinitionSnippet)
}

// withEngine opens the index read-only for one tool call, with the project
// ACL applied to every live content read. An unbuilt index is a tool error,
// not a transport error.
func (s *Server) withEngine(fn func(*query.Engine) (*mcp.CallToolResult, error)) (*mcp.CallToolResult, error) {
	cwd := s.opts.Cwd
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return errResult(fmt.Sprintf("resolve cwd: %v", err)), nil
		}
		cwd = wd
	}
	indexRoot := s.opts.IndexRoot
	if indexRoot == "" {
		indexRoot = filepath.Join(cwd, index.DefaultIndexDir)
	}
	dbPath := filepath.Join(indexRoot, store.DBFileName)
	if _, err := os.Stat(dbPath); err != nil {
		return errResult("index not built yet: run index_build first"), nil
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return errResult(fmt.Sprintf("load config: %v", err)), nil
	}
	gate, err := index.NewGate(cfg, cwd, indexRoot)
	if err != nil {
		return errResult(fmt.Sprintf("filesystem policy: %v", err)), nil
	}
	st, err := store.OpenPath(dbPath)
	if err != nil {
		return errResult(fmt.Sprintf("open index: %v", err)), nil
	}
	defer st.Close()
	return fn(query.New(st, gate))
}

// jsonResult marshals data to JSON and returns it as a tool result.
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

func getStringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

func getIntArg(args map[string]any, key string, defaultVal int) int {
	v, ok := args[key]
	if !ok {
		return defaultVal
	}
	f, ok := v.(float64) // JSON numbers decode as float64
	if !ok {
		return defaultVal
	}
	return int(f)
}

func getStringSliceArg(args map[string]any, key string) []string {
	v, ok := args[key]
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
