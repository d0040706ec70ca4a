// Package business matches functions against named business-flow patterns
// and reports checklist elements that are missing from the implementation.
package business

import (
	"fmt"
	"strings"

	"github.com/guardlint/guardlint/internal/report"
	"github.com/guardlint/guardlint/internal/rules"
	"github.com/guardlint/guardlint/internal/syntax"
)

// Verify checks every function in the tree against the pattern library.
// A function matches a rule when its name or docstring hits the rule's
// detection pattern; each required element with zero keyword hits in the
// function's source yields one violation.
func Verify(t *syntax.Tree, lib *rules.Library) []report.Violation {
	var out []report.Violation
	for _, fn := range t.NodesOfKind(syntax.KindFunctionDef) {
		doc := t.Docstring(fn)
		body := strings.ToLower(fn.Text)
		for i := range lib.Rules {
			rule := &lib.Rules[i]
			if !rule.Matches(fn.Name, doc) {
				continue
			}
			out = append(out, checkElements(t, fn, rule, body)...)
		}
	}
	return out
}

func checkElements(t *syntax.Tree, fn *syntax.Node, rule *rules.Rule, body string) []report.Violation {
	var out []report.Violation
	for _, el := range rule.RequiredElements {
		if hasAnyKeyword(body, el.Keywords) {
			continue
		}
		sev := report.SeverityCritical
		if el.Optional || rule.Severity == "warning" {
			sev = report.SeverityWarning
		}
		out = append(out, report.Violation{
			File:     t.Path,
			Line:     fn.StartLine,
			Type:     report.TypeBusinessLogic,
			Severity: sev,
			Description: fmt.Sprintf("%s flow %q is missing %s",
				rule.ID, fn.Name, el.Name),
			Snippet:    fmt.Sprintf("def %s(...)", fn.Name),
			Suggestion: rule.FixStrategy,
		})
	}
	return out
}

func hasAnyKeyword(body string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(body, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
