// Package detect holds the defensive-programming violation detectors.
//
// Each detector is a pure function over one file's syntax tree plus the
// lookback window; no detector mutates shared state, so the set can run in
// any order or in parallel per file. Every detector trades precision for
// recall somewhere; the per-detector notes call out the approximation.
package detect

import (
	"strings"

	"github.com/guardlint/guardlint/internal/config"
	"github.com/guardlint/guardlint/internal/report"
	"github.com/guardlint/guardlint/internal/syntax"
	"github.com/guardlint/guardlint/internal/window"
)

// Detector inspects one parsed file and returns its violations.
type Detector func(t *syntax.Tree, w *window.Window, cfg *config.ScanConfig) []report.Violation

// All returns the full detector set in a fixed order. Order only affects
// pre-aggregation slices; the aggregator re-sorts deterministically.
func All() []Detector {
	return []Detector{
		NullSafety,
		CollectionSafety,
		ExternalCallSafety,
		TypeSafety,
		BoundsSafety,
		ExceptionHandling,
		ConcurrencySafety,
	}
}

// Run executes every detector against one tree.
func Run(t *syntax.Tree, w *window.Window, cfg *config.ScanConfig) []report.Violation {
	var out []report.Violation
	for _, d := range All() {
		out = append(out, d(t, w, cfg)...)
	}
	return out
}

func snippet(t *syntax.Tree, line int) string {
	return strings.TrimSpace(t.LineText(line))
}

func inSet(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// importedNames collects the local names bound by import statements, so
// module references are not mistaken for possibly-None locals.
func importedNames(t *syntax.Tree) map[string]bool {
	names := map[string]bool{}
	add := func(text string) {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		// "pkg.sub" binds "pkg"; "x as y" binds "y".
		if i := strings.Index(text, " as "); i >= 0 {
			text = text[i+4:]
		} else if i := strings.Index(text, "."); i >= 0 {
			text = text[:i]
		}
		names[strings.TrimSpace(text)] = true
	}
	for _, n := range t.Nodes {
		switch n.Kind {
		case syntax.KindImport:
			for _, c := range n.Children {
				add(c.Text)
			}
		case syntax.KindImportFrom:
			// Skip the source module (first child), keep the bound names.
			for i, c := range n.Children {
				if i == 0 {
					continue
				}
				add(c.Text)
			}
		}
	}
	return names
}

// enclosingFunction walks the parent index up to the nearest function
// definition, or nil at module level.
func enclosingFunction(t *syntax.Tree, n *syntax.Node) *syntax.Node {
	for cur := t.Parent(n); cur != nil; cur = t.Parent(cur) {
		if cur.Kind == syntax.KindFunctionDef {
			return cur
		}
	}
	return nil
}
