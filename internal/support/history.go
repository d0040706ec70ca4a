package support

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// RunEntry is one line in the append-only scan history log.
type RunEntry struct {
	TimestampUtc  string `json:"timestampUtc"`
	Mode          string `json:"mode"`
	FilesScanned  int    `json:"filesScanned"`
	FilesSkipped  int    `json:"filesSkipped,omitempty"`
	CriticalCount int    `json:"criticalCount"`
	WarningCount  int    `json:"warningCount"`
	InfoCount     int    `json:"infoCount"`
	Failures      int    `json:"failures,omitempty"`
	DurationMs    int64  `json:"durationMs,omitempty"`
	Result        string `json:"result,omitempty"`
}

// AppendRun appends a scan summary to <outputDir>/history.log.
func AppendRun(outputDir string, entry RunEntry) error {
	entry.TimestampUtc = time.Now().UTC().Format(time.RFC3339)
	path := filepath.Join(outputDir, "history.log")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = f.Write(append(data, '\n'))
	return err
}
