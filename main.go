// guardlint - defensive static analysis for Python codebases
//
// Usage:
//
//	guardlint [options] <target-directory>
//
// Options:
//
//	-config <path>    Config file (default: guardlint.yml in the target)
//	-patterns <path>  Business-flow pattern file (default from config)
//	-format <fmt>     Output format: text, json, or both (default: both)
//	-watch            Re-run the scan when files under the target change
//	-version          Print version and exit
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/guardlint/guardlint/internal/config"
	"github.com/guardlint/guardlint/internal/engine"
	"github.com/guardlint/guardlint/internal/rules"
	"github.com/guardlint/guardlint/internal/support"
)

// Version information (set at build time)
var (
	Version   = "1.0.0"
	BuildDate = "unknown"
)

func main() {
	configFlag := flag.String("config", "", "path to guardlint.yml")
	patternsFlag := flag.String("patterns", "", "path to the business-flow pattern file")
	formatFlag := flag.String("format", "both", "output format: text, json, or both")
	watchFlag := flag.Bool("watch", false, "re-run the scan on file changes")
	versionFlag := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("guardlint %s (built %s)\n", Version, BuildDate)
		return
	}

	target := "."
	if args := flag.Args(); len(args) > 0 {
		target = args[0]
	}
	if _, err := os.Stat(target); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: target path not usable: %v\n", err)
		os.Exit(2)
	}

	configPath := *configFlag
	if configPath == "" {
		configPath = filepath.Join(target, "guardlint.yml")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(2)
	}
	setupLogging(cfg.Logging.Level)

	patternsPath := *patternsFlag
	if patternsPath == "" {
		patternsPath = filepath.Join(target, cfg.Paths.PatternsFile)
	}
	lib := rules.Load(patternsPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *watchFlag {
		runWatch(ctx, cfg, lib, target, *formatFlag)
		return
	}
	os.Exit(runScan(ctx, cfg, lib, target, *formatFlag))
}

// runScan performs one full analysis and writes the reports. Returns the
// process exit code: 0 pass, 1 gate failure, 2 operational error.
func runScan(ctx context.Context, cfg config.Config, lib *rules.Library, target, format string) int {
	started := time.Now()
	eng := engine.New(cfg, lib)
	rep, err := eng.Run(ctx, target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: scan aborted: %v\n", err)
		return 2
	}

	outputDir := filepath.Join(target, cfg.Paths.OutputDir)
	gate := evaluateGating(cfg.Gating, rep)

	if format == "json" || format == "both" {
		if err := support.WriteJSONAtomic(filepath.Join(outputDir, "report.json"), rep); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: write report: %v\n", err)
			return 2
		}
		if err := support.WriteJSONAtomic(filepath.Join(outputDir, "gate.json"), gate); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: write gate result: %v\n", err)
			return 2
		}
	}
	if format == "text" || format == "both" {
		fmt.Print(rep.RenderText())
		fmt.Println(gate.Message)
	}

	result := "PASS"
	exitCode := 0
	if !gate.Pass {
		result = "FAIL"
		exitCode = 1
	}
	_ = support.AppendRun(outputDir, support.RunEntry{
		Mode:          "scan",
		FilesScanned:  rep.FilesScanned,
		FilesSkipped:  len(rep.Skipped),
		CriticalCount: rep.Summary.Critical,
		WarningCount:  rep.Summary.Warning,
		InfoCount:     rep.Summary.Info,
		Failures:      len(rep.Failures),
		DurationMs:    time.Since(started).Milliseconds(),
		Result:        result,
	})
	return exitCode
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
