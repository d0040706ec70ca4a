// Package report defines the finding model and the aggregation step that
// merges per-file results into one deterministic analysis report.
package report

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Severity classifies a finding. Ordering: critical > warning > info.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

func severityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	default:
		return 2
	}
}

// Violation type identifiers.
const (
	TypeNullSafety        = "null_safety"
	TypeCollectionSafety  = "collection_safety"
	TypeExternalCall      = "external_call"
	TypeTypeSafety        = "type_safety"
	TypeBoundsSafety      = "bounds_safety"
	TypeExceptionHandling = "exception_handling"
	TypeConcurrency       = "concurrency_safety"
	TypeBusinessLogic     = "business_logic"
	TypeSQLInjection      = "sql_injection"
	TypePIILogging        = "pii_logging"
)

// Violation is a single reported finding. Never mutated after creation.
type Violation struct {
	File        string   `json:"file"`
	Line        int      `json:"line"`
	Type        string   `json:"type"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Snippet     string   `json:"snippet,omitempty"`
	Suggestion  string   `json:"suggestion,omitempty"`
}

// PredictedFailure kinds.
const (
	FailureCycle           = "dependency_cycle"
	FailureTimeoutCascade  = "timeout_cascade"
	FailureNoErrorHandling = "missing_error_handling"
	FailureNoRetry         = "missing_retry"
)

// PredictedFailure is one integration-failure prediction from the
// dependency graph analysis.
type PredictedFailure struct {
	Kind        string   `json:"kind"`
	Source      string   `json:"source"`
	Target      string   `json:"target,omitempty"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Suggestion  string   `json:"suggestion,omitempty"`
}

// SkippedFile records a file that could not be analyzed.
type SkippedFile struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// Summary carries the aggregated counts.
type Summary struct {
	Total    int `json:"total"`
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
	Info     int `json:"info"`
}

// AnalysisReport is the final, immutable output of one run.
type AnalysisReport struct {
	GeneratedAtUtc string             `json:"generatedAtUtc"`
	FilesScanned   int                `json:"filesScanned"`
	Summary        Summary            `json:"summary"`
	ByType         map[string]int     `json:"byType,omitempty"`
	Violations     []Violation        `json:"violations"`
	Failures       []PredictedFailure `json:"predictedFailures"`
	Skipped        []SkippedFile      `json:"skippedFiles,omitempty"`
}

// Aggregator is the single synchronization point of a run: workers hand it
// fully-formed per-file results, it serializes the appends.
type Aggregator struct {
	mu         sync.Mutex
	violations []Violation
	failures   []PredictedFailure
	skipped    []SkippedFile
	files      int
}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Add merges one file's violations.
func (a *Aggregator) Add(vs []Violation) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.files++
	a.violations = append(a.violations, vs...)
}

// AddFailures merges predicted integration failures.
func (a *Aggregator) AddFailures(fs []PredictedFailure) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failures = append(a.failures, fs...)
}

// Skip records a file that could not be parsed or read.
func (a *Aggregator) Skip(file, reason string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.skipped = append(a.skipped, SkippedFile{File: file, Reason: reason})
}

// Build produces the final report. Ordering is (severity desc, file, line,
// type) so repeat runs over an unchanged tree are byte-identical.
func (a *Aggregator) Build(generatedAt time.Time) *AnalysisReport {
	a.mu.Lock()
	defer a.mu.Unlock()

	violations := make([]Violation, len(a.violations))
	copy(violations, a.violations)
	sort.Slice(violations, func(i, j int) bool {
		vi, vj := violations[i], violations[j]
		if severityRank(vi.Severity) != severityRank(vj.Severity) {
			return severityRank(vi.Severity) < severityRank(vj.Severity)
		}
		if vi.File != vj.File {
			return vi.File < vj.File
		}
		if vi.Line != vj.Line {
			return vi.Line < vj.Line
		}
		if vi.Type != vj.Type {
			return vi.Type < vj.Type
		}
		return vi.Description < vj.Description
	})

	failures := make([]PredictedFailure, len(a.failures))
	copy(failures, a.failures)
	sort.Slice(failures, func(i, j int) bool {
		fi, fj := failures[i], failures[j]
		if severityRank(fi.Severity) != severityRank(fj.Severity) {
			return severityRank(fi.Severity) < severityRank(fj.Severity)
		}
		if fi.Source != fj.Source {
			return fi.Source < fj.Source
		}
		if fi.Target != fj.Target {
			return fi.Target < fj.Target
		}
		return fi.Kind < fj.Kind
	})

	skipped := make([]SkippedFile, len(a.skipped))
	copy(skipped, a.skipped)
	sort.Slice(skipped, func(i, j int) bool { return skipped[i].File < skipped[j].File })

	rep := &AnalysisReport{
		GeneratedAtUtc: generatedAt.UTC().Format(time.RFC3339),
		FilesScanned:   a.files,
		ByType:         map[string]int{},
		Violations:     violations,
		Failures:       failures,
		Skipped:        skipped,
	}
	for _, v := range violations {
		rep.bump(v.Severity)
		rep.ByType[v.Type]++
	}
	for _, f := range failures {
		rep.bump(f.Severity)
		rep.ByType[f.Kind]++
	}
	return rep
}

func (r *AnalysisReport) bump(s Severity) {
	r.Summary.Total++
	switch s {
	case SeverityCritical:
		r.Summary.Critical++
	case SeverityWarning:
		r.Summary.Warning++
	default:
		r.Summary.Info++
	}
}

// ExitCode implements the CI convention: zero iff no critical findings.
func (r *AnalysisReport) ExitCode() int {
	if r.Summary.Critical > 0 {
		return 1
	}
	return 0
}

// RenderText renders the human-readable report, grouped by severity then
// file, in the same deterministic order as the JSON output.
func (r *AnalysisReport) RenderText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "guardlint report %s\n", r.GeneratedAtUtc)
	fmt.Fprintf(&b, "files scanned: %d, skipped: %d\n", r.FilesScanned, len(r.Skipped))
	fmt.Fprintf(&b, "findings: %d total (%d critical, %d warning, %d info)\n",
		r.Summary.Total, r.Summary.Critical, r.Summary.Warning, r.Summary.Info)

	for _, sev := range []Severity{SeverityCritical, SeverityWarning, SeverityInfo} {
		group := r.filterSeverity(sev)
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s (%d)\n", strings.ToUpper(string(sev)), len(group))
		lastFile := ""
		for _, v := range group {
			if v.File != lastFile {
				fmt.Fprintf(&b, "  %s\n", v.File)
				lastFile = v.File
			}
			fmt.Fprintf(&b, "    %d: [%s] %s\n", v.Line, v.Type, v.Description)
			if v.Suggestion != "" {
				fmt.Fprintf(&b, "       fix: %s\n", v.Suggestion)
			}
		}
		for _, f := range r.Failures {
			if f.Severity != sev {
				continue
			}
			edge := f.Source
			if f.Target != "" {
				edge = f.Source + " -> " + f.Target
			}
			fmt.Fprintf(&b, "  %s: [%s] %s\n", edge, f.Kind, f.Description)
		}
	}

	if len(r.Skipped) > 0 {
		fmt.Fprintf(&b, "\nSKIPPED (%d)\n", len(r.Skipped))
		for _, s := range r.Skipped {
			fmt.Fprintf(&b, "  %s: %s\n", s.File, s.Reason)
		}
	}
	return b.String()
}

func (r *AnalysisReport) filterSeverity(sev Severity) []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == sev {
			out = append(out, v)
		}
	}
	return out
}
