package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"codescope/internal/config"
	"codescope/internal/meta"
	"codescope/internal/store"
)

// Status reports the state of an existing index without mutating it.
func Status(opts Options) Response {
	cwd, err := resolveCwd(opts.Cwd)
	if err != nil {
		return errorResponse(err)
	}
	indexRoot := resolveIndexRoot(cwd, opts.IndexRoot)

	m, err := meta.Load(indexRoot)
	if err != nil {
		return errorResponse(err)
	}
	if m == nil {
		return Response{"status": StatusUninitialized, "exitCode": 0, "indexRoot": indexRoot}
	}

	resp := Response{
		"status":       StatusOK,
		"exitCode":     0,
		"state":        m.State,
		"indexRoot":    indexRoot,
		"createdAt":    m.CreatedAt,
		"updatedAt":    m.UpdatedAt,
		"filesIndexed": m.FilesIndexed,
		"languages":    m.Languages,
		"errors":       len(m.Errors),
	}
	if m.LastScan != nil {
		resp["lastScan"] = m.LastScan
	}

	// Live counts when the database exists; the sidecar alone is enough
	// otherwise.
	dbPath := filepath.Join(indexRoot, store.DBFileName)
	if _, statErr := os.Stat(dbPath); statErr == nil {
		st, openErr := store.OpenPath(dbPath)
		if openErr != nil {
			return errorResponse(openErr)
		}
		defer st.Close()
		if n, cntErr := st.CountFiles(); cntErr == nil {
			resp["fileCount"] = n
		}
		if n, cntErr := st.CountSymbols(); cntErr == nil {
			resp["symbolCount"] = n
		}
		if n, cntErr := st.CountRelations(); cntErr == nil {
			resp["relationCount"] = n
		}
		if n, cntErr := st.CountScans(); cntErr == nil {
			resp["scanCount"] = n
		}
	}
	return resp
}

// Config reports the effective configuration for a project.
func Config(opts Options) Response {
	cwd, err := resolveCwd(opts.Cwd)
	if err != nil {
		return errorResponse(err)
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return errorResponse(err)
	}
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = cfg.Extensions
	}
	return Response{
		"status":     StatusOK,
		"exitCode":   0,
		"cwd":        cwd,
		"indexRoot":  resolveIndexRoot(cwd, opts.IndexRoot),
		"extensions": exts,
		"ignore":     cfg.Ignore,
		"maxWorkers": cfg.MaxWorkers,
		"acl":        cfg.ACL,
	}
}

// Prune removes index rows for files that no longer exist on disk. Builds
// never delete disappeared files themselves, so history stays cheap; prune is
// the explicit reconciliation step.
func Prune(ctx context.Context, opts Options) Response {
	cwd, err := resolveCwd(opts.Cwd)
	if err != nil {
		return errorResponse(err)
	}
	indexRoot := resolveIndexRoot(cwd, opts.IndexRoot)

	m, err := meta.Load(indexRoot)
	if err != nil {
		return errorResponse(err)
	}
	if m == nil {
		return Response{"status": StatusUninitialized, "exitCode": 0, "indexRoot": indexRoot}
	}

	st, err := store.Open(indexRoot)
	if err != nil {
		return errorResponse(err)
	}
	defer st.Close()

	paths, err := st.ListFilePaths()
	if err != nil {
		return errorResponse(err)
	}

	var missing []string
	for _, p := range paths {
		if ctx.Err() != nil {
			return errorResponse(ctx.Err())
		}
		if _, statErr := os.Stat(p); errors.Is(statErr, os.ErrNotExist) {
			missing = append(missing, p)
		}
	}

	if len(missing) > 0 {
		err = st.WithTransaction(func(tx *store.Store) error {
			return tx.DeleteFilesByPaths(missing)
		})
		if err != nil {
			return errorResponse(fmt.Errorf("prune: %w", err))
		}
	}

	if n, cntErr := st.CountFiles(); cntErr == nil {
		m.FilesIndexed = n
	}
	m.RecordCommand("prune", map[string]any{"cwd": cwd})
	if err := m.Save(indexRoot); err != nil {
		slog.Warn("prune.metadata.err", "err", err)
	}

	slog.Info("prune.done", "pruned", len(missing))
	return Response{
		"status":      StatusOK,
		"exitCode":    0,
		"pruned":      len(missing),
		"prunedPaths": missing,
	}
}
