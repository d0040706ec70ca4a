package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/guardlint/guardlint/internal/config"
	"github.com/guardlint/guardlint/internal/report"
)

// GateResult is the CI gating verdict for one analysis report.
type GateResult struct {
	Pass          bool     `json:"pass"`
	Message       string   `json:"message"`
	CriticalCount int      `json:"criticalCount"`
	WarningCount  int      `json:"warningCount"`
	InfoCount     int      `json:"infoCount"`
	Reasons       []string `json:"reasons,omitempty"`
	Timestamp     string   `json:"timestamp"`
}

// evaluateGating applies the numeric cap then the boolean rule and returns
// the verdict. The baseline convention is exit 0 iff zero criticals;
// fail_on_critical=false relaxes it, max_warnings tightens it.
func evaluateGating(cfg config.GatingConfig, rep *report.AnalysisReport) *GateResult {
	result := &GateResult{
		Pass:          true,
		CriticalCount: rep.Summary.Critical,
		WarningCount:  rep.Summary.Warning,
		InfoCount:     rep.Summary.Info,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}

	var reasons []string
	if cfg.MaxWarnings != nil && rep.Summary.Warning > *cfg.MaxWarnings {
		result.Pass = false
		reasons = append(reasons, fmt.Sprintf(
			"FAILED: %d warnings exceeded max_warnings (%d)",
			rep.Summary.Warning, *cfg.MaxWarnings))
	}
	if cfg.FailOnCriticalEnabled() && rep.Summary.Critical > 0 {
		result.Pass = false
		reasons = append(reasons, fmt.Sprintf(
			"FAILED: %d critical findings detected", rep.Summary.Critical))
	}
	result.Reasons = reasons

	if result.Pass {
		result.Message = fmt.Sprintf("PASSED: critical=%d, warning=%d, info=%d",
			result.CriticalCount, result.WarningCount, result.InfoCount)
	} else {
		result.Message = strings.Join(reasons, "; ")
	}
	return result
}
