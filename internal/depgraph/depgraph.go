// Package depgraph builds the component dependency graph and predicts
// integration failures: cycles, timeout cascades, and calls made without
// error handling or retry.
//
// The graph is rebuilt from scratch on every run; no edge survives from a
// previous analysis.
package depgraph

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/guardlint/guardlint/internal/config"
	"github.com/guardlint/guardlint/internal/report"
	"github.com/guardlint/guardlint/internal/syntax"
)

// Ref is one source location in the caller that mentions the callee.
type Ref struct {
	File    string
	Line    int
	Guarded bool
	Retried bool
}

// Edge is a directed caller-to-callee dependency.
type Edge struct {
	From             string
	To               string
	HasErrorHandling bool
	HasRetry         bool
	Refs             []Ref
}

// Graph is the component dependency graph for one run.
type Graph struct {
	Components []config.ComponentSpec
	Edges      []Edge

	adjacency map[string][]string
	byName    map[string]config.ComponentSpec
}

// Build scans each component's parsed trees for references to every other
// component. A reference is an import mentioning the component name or a
// string literal carrying it.
func Build(comps []config.ComponentSpec, trees map[string][]*syntax.Tree, cfg *config.ScanConfig) *Graph {
	g := &Graph{
		Components: comps,
		adjacency:  map[string][]string{},
		byName:     map[string]config.ComponentSpec{},
	}
	for _, c := range comps {
		g.byName[c.Name] = c
	}
	for _, from := range comps {
		for _, to := range comps {
			if from.Name == to.Name {
				continue
			}
			refs := findRefs(trees[from.Name], to.Name, cfg)
			if len(refs) == 0 {
				continue
			}
			edge := Edge{From: from.Name, To: to.Name, Refs: refs}
			for _, r := range refs {
				edge.HasErrorHandling = edge.HasErrorHandling || r.Guarded
				edge.HasRetry = edge.HasRetry || r.Retried
			}
			g.Edges = append(g.Edges, edge)
			g.adjacency[from.Name] = append(g.adjacency[from.Name], to.Name)
		}
	}
	for _, targets := range g.adjacency {
		sort.Strings(targets)
	}
	return g
}

// Analyze runs all graph checks and returns the predicted failures.
func (g *Graph) Analyze(cfg *config.ScanConfig) []report.PredictedFailure {
	var out []report.PredictedFailure
	out = append(out, g.detectCycles()...)
	out = append(out, g.timeoutCascades(cfg.TimeoutOverhead)...)
	out = append(out, g.propagationGaps()...)
	return out
}

// detectCycles runs a DFS with an explicit recursion stack. Each distinct
// cycle is reported once: the path is rotated to start at its smallest
// member so the report does not depend on DFS start order.
func (g *Graph) detectCycles() []report.PredictedFailure {
	names := make([]string, 0, len(g.Components))
	for _, c := range g.Components {
		names = append(names, c.Name)
	}
	sort.Strings(names)

	visited := map[string]bool{}
	onStack := map[string]bool{}
	var stack []string
	seen := map[string]bool{}
	var out []report.PredictedFailure

	var dfs func(node string)
	dfs = func(node string) {
		visited[node] = true
		onStack[node] = true
		stack = append(stack, node)
		for _, next := range g.adjacency[node] {
			if onStack[next] {
				cycle := extractCycle(stack, next)
				key := strings.Join(cycle, ",")
				if !seen[key] {
					seen[key] = true
					out = append(out, report.PredictedFailure{
						Kind:        report.FailureCycle,
						Source:      cycle[0],
						Target:      cycle[len(cycle)-1],
						Severity:    report.SeverityCritical,
						Description: fmt.Sprintf("dependency cycle: %s -> %s", strings.Join(cycle, " -> "), cycle[0]),
						Suggestion:  "break the cycle by extracting the shared contract into its own component",
					})
				}
				continue
			}
			if !visited[next] {
				dfs(next)
			}
		}
		onStack[node] = false
		stack = stack[:len(stack)-1]
	}

	for _, n := range names {
		if !visited[n] {
			dfs(n)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Description < out[j].Description })
	return out
}

// extractCycle returns the stack suffix from the revisited node, rotated
// so the lexicographically smallest component comes first.
func extractCycle(stack []string, start string) []string {
	idx := 0
	for i, n := range stack {
		if n == start {
			idx = i
			break
		}
	}
	cycle := append([]string{}, stack[idx:]...)
	min := 0
	for i, n := range cycle {
		if n < cycle[min] {
			min = i
		}
	}
	return append(cycle[min:], cycle[:min]...)
}

// timeoutCascades warns when a caller cannot outlive its callee by the
// configured overhead. A parent that times out no later than its child
// cuts the child off before the child can report its own failure.
func (g *Graph) timeoutCascades(overhead int) []report.PredictedFailure {
	var out []report.PredictedFailure
	for _, e := range g.Edges {
		from, to := g.byName[e.From], g.byName[e.To]
		if from.Timeout <= 0 || to.Timeout <= 0 {
			continue
		}
		if from.Timeout > to.Timeout+overhead {
			continue
		}
		out = append(out, report.PredictedFailure{
			Kind:     report.FailureTimeoutCascade,
			Source:   e.From,
			Target:   e.To,
			Severity: report.SeverityWarning,
			Description: fmt.Sprintf("%s timeout (%ds) does not exceed %s timeout (%ds) plus %ds overhead",
				e.From, from.Timeout, e.To, to.Timeout, overhead),
			Suggestion: fmt.Sprintf("raise %s timeout above %ds", e.From, to.Timeout+overhead),
		})
	}
	return out
}

func (g *Graph) propagationGaps() []report.PredictedFailure {
	var out []report.PredictedFailure
	for _, e := range g.Edges {
		if !e.HasErrorHandling {
			out = append(out, report.PredictedFailure{
				Kind:     report.FailureNoErrorHandling,
				Source:   e.From,
				Target:   e.To,
				Severity: report.SeverityCritical,
				Description: fmt.Sprintf("%s calls %s with no error handling around the reference",
					e.From, e.To),
				Suggestion: fmt.Sprintf("wrap calls into %s in try/except and degrade gracefully", e.To),
			})
		}
		if !e.HasRetry {
			out = append(out, report.PredictedFailure{
				Kind:     report.FailureNoRetry,
				Source:   e.From,
				Target:   e.To,
				Severity: report.SeverityInfo,
				Description: fmt.Sprintf("%s calls %s without retry or backoff",
					e.From, e.To),
				Suggestion: "add bounded retries with backoff for transient failures",
			})
		}
	}
	return out
}

// findRefs locates mentions of the callee in the caller's trees: import
// statements naming it, or string literals carrying its name.
func findRefs(trees []*syntax.Tree, callee string, cfg *config.ScanConfig) []Ref {
	word := regexp.MustCompile(`\b` + regexp.QuoteMeta(callee) + `\b`)
	var refs []Ref
	for _, t := range trees {
		for _, n := range t.Nodes {
			switch n.Kind {
			case syntax.KindImport, syntax.KindImportFrom, syntax.KindString:
			default:
				continue
			}
			if !word.MatchString(n.Text) {
				continue
			}
			refs = append(refs, Ref{
				File:    t.Path,
				Line:    n.StartLine,
				Guarded: insideTry(t, n),
				Retried: nearRetry(t, n, cfg.RetryKeywords),
			})
		}
	}
	return refs
}

func insideTry(t *syntax.Tree, n *syntax.Node) bool {
	for cur := t.Parent(n); cur != nil; cur = t.Parent(cur) {
		if cur.Kind == syntax.KindTry {
			return true
		}
	}
	return false
}

// nearRetry checks the enclosing function (or the whole module for
// top-level references) for retry vocabulary.
func nearRetry(t *syntax.Tree, n *syntax.Node, keywords []string) bool {
	scope := n
	for cur := t.Parent(n); cur != nil; cur = t.Parent(cur) {
		if cur.Kind == syntax.KindFunctionDef {
			scope = cur
			break
		}
		scope = cur
	}
	text := strings.ToLower(scope.Text)
	for _, kw := range keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
