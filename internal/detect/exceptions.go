package detect

import (
	"github.com/guardlint/guardlint/internal/config"
	"github.com/guardlint/guardlint/internal/report"
	"github.com/guardlint/guardlint/internal/syntax"
	"github.com/guardlint/guardlint/internal/window"
)

// ExceptionHandling flags catch-all handlers (critical) and handlers whose
// body is a single no-op (warning). A handler that is both only reports the
// catch-all: one finding per handler.
func ExceptionHandling(t *syntax.Tree, w *window.Window, cfg *config.ScanConfig) []report.Violation {
	var out []report.Violation
	for _, n := range t.NodesOfKind(syntax.KindExcept) {
		switch {
		case isCatchAll(n):
			out = append(out, report.Violation{
				File:        t.Path,
				Line:        n.StartLine,
				Type:        report.TypeExceptionHandling,
				Severity:    report.SeverityCritical,
				Description: "catch-all exception handler hides unexpected failures",
				Snippet:     snippet(t, n.StartLine),
				Suggestion:  "catch the specific exception types this block can recover from",
			})
		case isNoopBody(n.Body()):
			out = append(out, report.Violation{
				File:        t.Path,
				Line:        n.StartLine,
				Type:        report.TypeExceptionHandling,
				Severity:    report.SeverityWarning,
				Description: "exception handler silently swallows the error",
				Snippet:     snippet(t, n.StartLine),
				Suggestion:  "log the exception or re-raise instead of passing",
			})
		}
	}
	return out
}

// isCatchAll covers both the bare form and except Exception/BaseException,
// which filter nothing in practice. The aliased form wraps the type in an
// as_pattern node, so unwrap before the identifier test.
func isCatchAll(except *syntax.Node) bool {
	var typ *syntax.Node
	for _, c := range except.Children {
		if c.Kind != syntax.KindBlock {
			typ = c
			break
		}
	}
	if typ == nil {
		return true
	}
	if typ.Raw == "as_pattern" && len(typ.Children) > 0 {
		typ = typ.Children[0]
	}
	return typ.Kind == syntax.KindIdentifier &&
		(typ.Text == "Exception" || typ.Text == "BaseException")
}

func isNoopBody(body *syntax.Node) bool {
	if body == nil || len(body.Children) != 1 {
		return false
	}
	only := body.Children[0]
	if only.Kind == syntax.KindPass {
		return true
	}
	return only.Kind == syntax.KindExprStmt &&
		len(only.Children) == 1 &&
		only.Children[0].Kind == syntax.KindEllipsis
}
