package detect

import (
	"fmt"

	"github.com/guardlint/guardlint/internal/config"
	"github.com/guardlint/guardlint/internal/report"
	"github.com/guardlint/guardlint/internal/syntax"
	"github.com/guardlint/guardlint/internal/window"
)

// Constructors run before the instance is shared; writes there are not
// races.
var constructorNames = map[string]bool{
	"__init__":      true,
	"__new__":       true,
	"__post_init__": true,
}

// ConcurrencySafety flags writes to instance state (self.x = ..., self.x
// += ...) outside a lock-holding with block. Heuristic: the presence of a
// 'with <lock>' ancestor suppresses the finding; whether the instance is
// actually shared across threads is not tracked.
func ConcurrencySafety(t *syntax.Tree, w *window.Window, cfg *config.ScanConfig) []report.Violation {
	var out []report.Violation
	check := func(n *syntax.Node) {
		if len(n.Children) == 0 {
			return
		}
		left := n.Children[0]
		obj := left.Object()
		if left.Kind != syntax.KindAttribute || obj == nil || obj.Text != "self" {
			return
		}
		if fn := enclosingFunction(t, n); fn != nil && constructorNames[fn.Name] {
			return
		}
		if w.InsideGuard(t, n, window.GuardLock) {
			return
		}
		out = append(out, report.Violation{
			File:        t.Path,
			Line:        n.StartLine,
			Type:        report.TypeConcurrency,
			Severity:    report.SeverityWarning,
			Description: fmt.Sprintf("write to self.%s outside a lock-guarded block", left.Name),
			Snippet:     snippet(t, n.StartLine),
			Suggestion:  fmt.Sprintf("hold the instance lock while mutating self.%s", left.Name),
		})
	}

	for _, n := range t.NodesOfKind(syntax.KindAssignment) {
		check(n)
	}
	for _, n := range t.NodesOfKind(syntax.KindAugAssign) {
		check(n)
	}
	return out
}
