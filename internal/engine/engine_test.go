package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/guardlint/guardlint/internal/config"
	"github.com/guardlint/guardlint/internal/report"
	"github.com/guardlint/guardlint/internal/rules"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func newEngine(cfg config.Config) *Engine {
	return New(cfg, rules.Load(""))
}

func TestRun_SkipsBrokenFilesAndAnalyzesRest(t *testing.T) {
	root := writeTree(t, map[string]string{
		"good.py":  "def handler(data):\n    user = load(data)\n    send(user.name)\n",
		"bad.py":   "def broken(:\n    pass\n",
		"clean.py": "x = 1\n",
	})
	rep, err := newEngine(config.Default()).Run(context.Background(), root)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.FilesScanned != 2 {
		t.Fatalf("filesScanned = %d, want 2", rep.FilesScanned)
	}
	if len(rep.Skipped) != 1 {
		t.Fatalf("skipped = %v, want one entry", rep.Skipped)
	}
	if filepath.Base(rep.Skipped[0].File) != "bad.py" {
		t.Fatalf("skipped file = %s, want bad.py", rep.Skipped[0].File)
	}
	if rep.ByType[report.TypeNullSafety] != 1 {
		t.Fatalf("null_safety count = %d, want 1", rep.ByType[report.TypeNullSafety])
	}
}

func TestRun_ExcludesDirectories(t *testing.T) {
	root := writeTree(t, map[string]string{
		"app.py":                "x = 1\n",
		"venv/lib.py":           "def handler(d):\n    u = load(d)\n    send(u.name)\n",
		".hidden/skip.py":       "y = 2\n",
		".guardlint/old.py":     "z = 3\n",
		"__pycache__/cached.py": "c = 4\n",
	})
	rep, err := newEngine(config.Default()).Run(context.Background(), root)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.FilesScanned != 1 {
		t.Fatalf("filesScanned = %d, want 1 (only app.py)", rep.FilesScanned)
	}
	if rep.Summary.Total != 0 {
		t.Fatalf("findings from excluded dirs leaked: %+v", rep.Summary)
	}
}

func TestRun_ComponentGraph(t *testing.T) {
	root := writeTree(t, map[string]string{
		"gateway/api.py": "import orders\n",
		"orders/api.py":  "import gateway\n",
	})
	cfg := config.Default()
	cfg.Components = []config.ComponentSpec{
		{Name: "gateway", Root: "gateway", Timeout: 10},
		{Name: "orders", Root: "orders", Timeout: 8},
	}
	rep, err := newEngine(cfg).Run(context.Background(), root)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	cycles := 0
	for _, f := range rep.Failures {
		if f.Kind == report.FailureCycle {
			cycles++
		}
	}
	if cycles != 1 {
		t.Fatalf("cycle count = %d, want 1", cycles)
	}
}

func TestRun_RepeatRunsAreIdentical(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.py": "def f(data):\n    u = load(data)\n    send(u.name)\n",
		"b.py": "def g(total, count):\n    return total / count\n",
	})
	fixed := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	run := func() []byte {
		eng := newEngine(config.Default())
		eng.now = func() time.Time { return fixed }
		rep, err := eng.Run(context.Background(), root)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		data, err := json.Marshal(rep)
		if err != nil {
			t.Fatal(err)
		}
		return data
	}
	if !bytes.Equal(run(), run()) {
		t.Fatal("unchanged tree must produce identical reports")
	}
}

func TestRun_Cancellation(t *testing.T) {
	root := writeTree(t, map[string]string{"a.py": "x = 1\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rep, err := newEngine(config.Default()).Run(ctx, root)
	if err == nil {
		t.Fatal("cancelled context must surface an error")
	}
	if rep == nil {
		t.Fatal("partial report must still be returned")
	}
}
