package detect

import (
	"fmt"
	"strings"

	"github.com/guardlint/guardlint/internal/config"
	"github.com/guardlint/guardlint/internal/report"
	"github.com/guardlint/guardlint/internal/syntax"
	"github.com/guardlint/guardlint/internal/window"
)

// CollectionSafety flags literal-integer subscripts and unconditional
// .pop() calls that have no bounds or emptiness check in the window.
// A dict-style pop(key, default) is safe and ignored.
func CollectionSafety(t *syntax.Tree, w *window.Window, cfg *config.ScanConfig) []report.Violation {
	var out []report.Violation

	for _, n := range t.NodesOfKind(syntax.KindSubscript) {
		idx := n.Index()
		if idx == nil || idx.Kind != syntax.KindInteger {
			continue
		}
		value := n.Children[0]
		if value.Kind != syntax.KindIdentifier {
			continue
		}
		if w.HasPriorCheck(t, n.StartLine, value.Text, window.BoundsCheck) {
			continue
		}
		out = append(out, report.Violation{
			File:        t.Path,
			Line:        n.StartLine,
			Type:        report.TypeCollectionSafety,
			Severity:    report.SeverityWarning,
			Description: fmt.Sprintf("index %s[%s] without a bounds check", value.Text, idx.Text),
			Snippet:     snippet(t, n.StartLine),
			Suggestion:  fmt.Sprintf("check 'len(%s) > %s' before indexing", value.Text, idx.Text),
		})
	}

	for _, n := range t.NodesOfKind(syntax.KindCall) {
		recv, ok := strings.CutSuffix(n.Name, ".pop")
		if !ok || recv == "" || strings.Contains(recv, ".") {
			continue
		}
		if args := n.Arguments(); args != nil && len(args.Children) >= 2 {
			continue // pop(key, default) never raises
		}
		if w.HasPriorCheck(t, n.StartLine, recv, window.EmptyCheck) {
			continue
		}
		out = append(out, report.Violation{
			File:        t.Path,
			Line:        n.StartLine,
			Type:        report.TypeCollectionSafety,
			Severity:    report.SeverityWarning,
			Description: fmt.Sprintf("%s.pop() without an emptiness check", recv),
			Snippet:     snippet(t, n.StartLine),
			Suggestion:  fmt.Sprintf("check 'if %s:' before popping, or pass a default", recv),
		})
	}
	return out
}
