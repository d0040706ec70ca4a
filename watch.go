package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/guardlint/guardlint/internal/config"
	"github.com/guardlint/guardlint/internal/rules"
)

// runWatch re-runs the scan whenever files under target change. Event
// bursts are debounced; changes under the output directory are ignored so
// report writes never retrigger a scan.
func runWatch(ctx context.Context, cfg config.Config, lib *rules.Library, target, format string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: watch init failed: %v\n", err)
		os.Exit(2)
	}
	defer watcher.Close()

	if err := addWatchRecursive(watcher, target, cfg.Paths.OutputDir); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: watch failed: %v\n", err)
		os.Exit(2)
	}

	// Initial scan before waiting for events.
	runScan(ctx, cfg, lib, target, format)

	var timer *time.Timer
	debounce := 300 * time.Millisecond
	trigger := func() {
		runScan(ctx, cfg, lib, target, format)
	}

	outputMarker := string(filepath.Separator) + cfg.Paths.OutputDir + string(filepath.Separator)
	for {
		select {
		case <-ctx.Done():
			slog.Info("watch stopped")
			return
		case ev := <-watcher.Events:
			if strings.Contains(ev.Name, outputMarker) {
				continue
			}
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = watcher.Add(ev.Name)
				}
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, trigger)
		case err := <-watcher.Errors:
			fmt.Fprintf(os.Stderr, "ERROR: watch error: %v\n", err)
		}
	}
}

func addWatchRecursive(w *fsnotify.Watcher, root, outputDir string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			base := filepath.Base(path)
			if path != root && (strings.HasPrefix(base, ".") || base == outputDir) {
				return filepath.SkipDir
			}
			return w.Add(path)
		}
		return nil
	})
}
