package support

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "report.json")
	if err := WriteFileAtomic(path, []byte("first")); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(path, []byte("second")); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second" {
		t.Fatalf("content = %q, want second", data)
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp.") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestWriteJSONAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := WriteJSONAtomic(path, map[string]int{"total": 3}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(data), "\n") {
		t.Fatal("JSON output must end with a newline")
	}
	var got map[string]int
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if got["total"] != 3 {
		t.Fatalf("total = %d, want 3", got["total"])
	}
}

func TestStripBOM(t *testing.T) {
	withBOM := append([]byte{0xEF, 0xBB, 0xBF}, []byte("schema_version: \"1.0\"")...)
	if got := string(StripBOM(withBOM)); got != "schema_version: \"1.0\"" {
		t.Fatalf("got %q", got)
	}
	plain := []byte("plain")
	if got := string(StripBOM(plain)); got != "plain" {
		t.Fatalf("got %q", got)
	}
}

func TestAppendRun(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 2; i++ {
		err := AppendRun(dir, RunEntry{
			Mode:          "scan",
			FilesScanned:  10,
			CriticalCount: 1,
			Result:        "FAILED",
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	f, err := os.Open(filepath.Join(dir, "history.log"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	lines := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var entry RunEntry
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", lines+1, err)
		}
		if entry.TimestampUtc == "" {
			t.Fatal("timestamp must be stamped on append")
		}
		lines++
	}
	if lines != 2 {
		t.Fatalf("history lines = %d, want 2", lines)
	}
}
