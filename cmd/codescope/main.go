package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"codescope/internal/index"
	"codescope/internal/tools"
)

var version = "dev"

var (
	flagCwd       string
	flagIndexRoot string
	flagExts      []string
	flagVerbose   bool
)

var rootCmd = &cobra.Command{
	Use:           "codescope",
	Short:         "Local code intelligence indexer with an MCP server",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if flagVerbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func options() index.Options {
	return index.Options{
		Cwd:        flagCwd,
		IndexRoot:  flagIndexRoot,
		Extensions: flagExts,
	}
}

// runIndexCommand prints the command response as JSON and exits with the
// response's exit code, so scripts can rely on $? without parsing output.
func runIndexCommand(command string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		resp := index.Dispatch(cmd.Context(), command, options())
		out, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("encode response: %w", err)
		}
		fmt.Println(string(out))
		if code, ok := resp["exitCode"].(int); ok && code != 0 {
			os.Exit(code)
		}
		return nil
	}
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Scan the project and (re)build the symbol index",
	Args:  cobra.NoArgs,
	RunE:  runIndexCommand("build"),
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report index state, file counts, and the last scan",
	Args:  cobra.NoArgs,
	RunE:  runIndexCommand("status"),
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runIndexCommand("config"),
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop index entries for files deleted from disk",
	Args:  cobra.NoArgs,
	RunE:  runIndexCommand("prune"),
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve index tools over MCP stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return tools.NewServer(options()).Run(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagCwd, "cwd", "", "project root to index (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&flagIndexRoot, "index-root", "", "index directory (default <cwd>/.codescope)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging on stderr")
	buildCmd.Flags().StringSliceVar(&flagExts, "ext", nil, "file extensions to index (default from config)")

	rootCmd.AddCommand(buildCmd, statusCmd, configCmd, pruneCmd, mcpCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "codescope:", err)
		os.Exit(1)
	}
}
