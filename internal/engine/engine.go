// Package engine orchestrates one analysis run: file discovery, parallel
// per-file analysis, dependency-graph analysis, and aggregation.
package engine

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guardlint/guardlint/internal/business"
	"github.com/guardlint/guardlint/internal/config"
	"github.com/guardlint/guardlint/internal/depgraph"
	"github.com/guardlint/guardlint/internal/detect"
	"github.com/guardlint/guardlint/internal/report"
	"github.com/guardlint/guardlint/internal/rules"
	"github.com/guardlint/guardlint/internal/security"
	"github.com/guardlint/guardlint/internal/syntax"
	"github.com/guardlint/guardlint/internal/window"
)

// Engine runs the full analysis. Config and pattern library are read-only
// after construction and shared across workers without locking.
type Engine struct {
	cfg config.Config
	lib *rules.Library
	win *window.Window

	// now stamps the report. Injectable so the report content is fully
	// determined by the analyzed tree when the clock is held fixed.
	now func() time.Time
}

func New(cfg config.Config, lib *rules.Library) *Engine {
	return &Engine{
		cfg: cfg,
		lib: lib,
		win: window.New(cfg.Scan.WindowLines),
		now: time.Now,
	}
}

// Run analyzes every Python file under root. No single file can fail the
// run: unreadable or unparseable files are recorded as skipped and the
// remaining files still produce a report. Cancellation is honored between
// files; the aggregator only ever receives fully-formed per-file results.
func (e *Engine) Run(ctx context.Context, root string) (*report.AnalysisReport, error) {
	started := e.now()
	agg := report.NewAggregator()

	if e.lib.FallbackReason != "" {
		slog.Warn("pattern library fell back to built-in rules", "reason", e.lib.FallbackReason)
	}

	files, err := e.discover(root)
	if err != nil {
		return nil, err
	}
	slog.Info("scan start", "root", root, "files", len(files), "workers", e.cfg.Scan.Workers)

	// Trees for component files are retained for the graph pass; everything
	// else is discarded as soon as the file's checks complete.
	var treeMu sync.Mutex
	componentTrees := map[string][]*syntax.Tree{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Scan.Workers)
	for _, file := range files {
		if gctx.Err() != nil {
			break
		}
		file := file
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			tree, skip := e.analyzeFile(file, agg)
			if tree == nil {
				agg.Skip(file, skip)
				return nil
			}
			if comp := e.componentFor(root, file); comp != "" {
				treeMu.Lock()
				componentTrees[comp] = append(componentTrees[comp], tree)
				treeMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return agg.Build(started), err
	}

	if len(e.cfg.Components) > 0 {
		e.sortTrees(componentTrees)
		graph := depgraph.Build(e.cfg.Components, componentTrees, &e.cfg.Scan)
		agg.AddFailures(graph.Analyze(&e.cfg.Scan))
	}

	rep := agg.Build(started)
	slog.Info("scan done",
		"files", rep.FilesScanned,
		"critical", rep.Summary.Critical,
		"warning", rep.Summary.Warning,
		"info", rep.Summary.Info,
		"elapsed", time.Since(started).Round(time.Millisecond))
	return rep, nil
}

// analyzeFile parses one file and runs every per-file check. Returns the
// tree plus "" on success, or nil plus a skip reason.
func (e *Engine) analyzeFile(path string, agg *report.Aggregator) (*syntax.Tree, string) {
	tree, err := syntax.ParseFile(path)
	if err != nil {
		var perr *syntax.ParseError
		if errors.As(err, &perr) {
			slog.Debug("skipping unparseable file", "file", path, "line", perr.Line)
			return nil, "syntax error: could not analyze"
		}
		slog.Debug("skipping unreadable file", "file", path, "error", err)
		return nil, "unreadable: " + err.Error()
	}

	violations := detect.Run(tree, e.win, &e.cfg.Scan)
	violations = append(violations, business.Verify(tree, e.lib)...)
	violations = append(violations, security.Scan(tree, &e.cfg.Scan)...)
	agg.Add(violations)
	return tree, ""
}

// discover walks root collecting .py files, skipping hidden directories,
// configured excludes, and the tool's own output directory. The list is
// sorted so scheduling order is stable run to run.
func (e *Engine) discover(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if path == root {
				return nil
			}
			if strings.HasPrefix(name, ".") || name == e.cfg.Paths.OutputDir {
				return filepath.SkipDir
			}
			for _, ex := range e.cfg.Scan.ExcludeDirs {
				if name == ex {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if filepath.Ext(name) == ".py" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// componentFor maps a file to the declared component owning it, or "".
func (e *Engine) componentFor(root, file string) string {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return ""
	}
	rel = filepath.ToSlash(rel)
	for _, c := range e.cfg.Components {
		prefix := strings.TrimSuffix(filepath.ToSlash(c.Root), "/") + "/"
		if strings.HasPrefix(rel, prefix) || rel == strings.TrimSuffix(prefix, "/") {
			return c.Name
		}
	}
	return ""
}

// sortTrees orders each component's trees by path; insertion order depends
// on worker scheduling and must not leak into the report.
func (e *Engine) sortTrees(trees map[string][]*syntax.Tree) {
	for _, ts := range trees {
		sort.Slice(ts, func(i, j int) bool { return ts[i].Path < ts[j].Path })
	}
}
