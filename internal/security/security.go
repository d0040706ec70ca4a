// Package security scans for SQL-injection-prone string construction and
// PII leaking into log statements.
//
// The SQL detection is three independent regex families over raw source
// lines. Every hit is reported whether or not the interpolated value is
// attacker-controlled: precision is deliberately traded for recall, and
// the over-approximation is part of the tool's contract.
package security

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/guardlint/guardlint/internal/config"
	"github.com/guardlint/guardlint/internal/report"
	"github.com/guardlint/guardlint/internal/syntax"
)

type sqlFamily struct {
	name    string
	pattern *regexp.Regexp
}

func sqlFamilies(keywords []string) []sqlFamily {
	kw := strings.Join(keywords, "|")
	return []sqlFamily{
		{
			name:    "f-string interpolation",
			pattern: regexp.MustCompile(`(?i)f["'][^"']*\b(` + kw + `)\b[^"']*\{[^}]*\}`),
		},
		{
			name:    "string concatenation",
			pattern: regexp.MustCompile(`(?i)["'][^"']*\b(` + kw + `)\b[^"']*["']\s*\+|\+\s*["'][^"']*\b(` + kw + `)\b`),
		},
		{
			name:    ".format() call",
			pattern: regexp.MustCompile(`(?i)["'][^"']*\b(` + kw + `)\b[^"']*["']\s*\.\s*format\s*\(`),
		},
	}
}

// Scan runs both security checks over one parsed file.
func Scan(t *syntax.Tree, cfg *config.ScanConfig) []report.Violation {
	out := scanSQL(t, cfg)
	out = append(out, scanPII(t, cfg)...)
	return out
}

func scanSQL(t *syntax.Tree, cfg *config.ScanConfig) []report.Violation {
	var out []report.Violation
	for i, families := 1, sqlFamilies(cfg.SQLKeywords); i <= t.LineCount(); i++ {
		line := t.LineText(i)
		if line == "" {
			continue
		}
		for _, f := range families {
			if !f.pattern.MatchString(line) {
				continue
			}
			out = append(out, report.Violation{
				File:        t.Path,
				Line:        i,
				Type:        report.TypeSQLInjection,
				Severity:    report.SeverityCritical,
				Description: fmt.Sprintf("SQL built via %s", f.name),
				Snippet:     strings.TrimSpace(line),
				Suggestion:  "use parameterized queries (execute(sql, params)) instead of building SQL from values",
			})
			break // one finding per line is enough
		}
	}
	return out
}

// scanPII finds logging calls whose literal source line mentions a
// configured PII keyword. The tree identifies the logging call; the check
// itself is textual so message formatting style does not matter.
func scanPII(t *syntax.Tree, cfg *config.ScanConfig) []report.Violation {
	seen := map[int]bool{}
	var out []report.Violation
	for _, n := range t.NodesOfKind(syntax.KindCall) {
		if !isLoggingCall(n.Name, cfg.LoggingCalls) {
			continue
		}
		if seen[n.StartLine] {
			continue
		}
		line := strings.ToLower(t.LineText(n.StartLine))
		for _, kw := range cfg.PIIKeywords {
			if !strings.Contains(line, strings.ToLower(kw)) {
				continue
			}
			seen[n.StartLine] = true
			out = append(out, report.Violation{
				File:        t.Path,
				Line:        n.StartLine,
				Type:        report.TypePIILogging,
				Severity:    report.SeverityCritical,
				Description: fmt.Sprintf("log statement mentions %q", kw),
				Snippet:     snippetLine(t, n.StartLine),
				Suggestion:  "redact or hash sensitive values before logging",
			})
			break
		}
	}
	return out
}

func isLoggingCall(target string, loggingCalls []string) bool {
	for _, lc := range loggingCalls {
		if target == lc || strings.HasPrefix(target, lc+".") {
			return true
		}
	}
	return false
}

func snippetLine(t *syntax.Tree, line int) string {
	return strings.TrimSpace(t.LineText(line))
}
