// Package window implements the lookback heuristic used to suppress
// findings when a safety check already exists a few lines above the flagged
// statement. The heuristic is textual, not semantic. False negatives are
// tolerated; a false "check present" should be rare.
package window

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/guardlint/guardlint/internal/syntax"
)

// CheckKind selects the pattern family HasPriorCheck tests for.
type CheckKind int

const (
	NoneCheck CheckKind = iota
	BoundsCheck
	EmptyCheck
	ZeroCheck
	KeyCheck
)

// GuardKind selects the ancestor InsideGuard walks for.
type GuardKind int

const (
	GuardTry GuardKind = iota
	GuardLock
)

// Window answers heuristic questions about the lines above a target line.
type Window struct {
	lines int
}

// New returns a Window scanning up to n lines above the target. Values
// below 1 fall back to the default of 5.
func New(n int) *Window {
	if n < 1 {
		n = 5
	}
	return &Window{lines: n}
}

// checkTemplates are compiled once at init. %s becomes an identifier
// capture group; a line satisfies a check only when the captured name
// equals the variable under test.
var checkTemplates = map[CheckKind][]string{
	NoneCheck: {
		`\b%s\s+is\s+not\s+None\b`,
		`\b%s\s*!=\s*None\b`,
		`\bif\s+%s\b`,
		`\bif\s+not\s+%s\b`,
		`\bassert\s+%s\b`,
	},
	BoundsCheck: {
		`\blen\s*\(\s*%s\s*\)`,
		`\bif\s+%s\b`,
		`\b%s\s*\[\s*-?\d+\s*:\s*`,
	},
	EmptyCheck: {
		`\blen\s*\(\s*%s\s*\)`,
		`\bif\s+%s\b`,
		`\bif\s+not\s+%s\b`,
		`\b%s\b.*\bis not None\b`,
	},
	ZeroCheck: {
		`\b%s\s*!=\s*0\b`,
		`\b%s\s*>\s*0\b`,
		`\b%s\s*>=\s*1\b`,
		`\bif\s+%s\b`,
		`\bif\s+not\s+%s\b`,
	},
	KeyCheck: {
		`\b%s\b\s+in\s+`,
		`\b%s\s*\.get\s*\(`,
		`\bif\s+%s\b`,
	},
}

var compiledChecks = compileChecks()

func compileChecks() map[CheckKind][]*regexp.Regexp {
	const ident = `([A-Za-z_][A-Za-z0-9_]*)`
	out := make(map[CheckKind][]*regexp.Regexp, len(checkTemplates))
	for kind, templates := range checkTemplates {
		for _, tpl := range templates {
			out[kind] = append(out[kind], regexp.MustCompile(fmt.Sprintf(tpl, ident)))
		}
	}
	return out
}

// HasPriorCheck reports whether a check of the given kind on variable was
// performed within the window above line.
func (w *Window) HasPriorCheck(tree *syntax.Tree, line int, variable string, kind CheckKind) bool {
	patterns := compiledChecks[kind]
	if len(patterns) == 0 || variable == "" {
		return false
	}

	start := line - w.lines
	if start < 1 {
		start = 1
	}
	for i := start; i < line; i++ {
		text := tree.LineText(i)
		if text == "" {
			continue
		}
		for _, p := range patterns {
			for _, m := range p.FindAllStringSubmatch(text, -1) {
				if m[1] == variable {
					return true
				}
			}
		}
	}
	return false
}

// InsideGuard reports whether node sits under a guarding ancestor: a try
// statement for GuardTry, or a with statement holding a lock for GuardLock.
// It walks the parent index upward until a match or the tree root.
func (w *Window) InsideGuard(tree *syntax.Tree, node *syntax.Node, guard GuardKind) bool {
	for cur := tree.Parent(node); cur != nil; cur = tree.Parent(cur) {
		switch guard {
		case GuardTry:
			if cur.Kind == syntax.KindTry {
				return true
			}
		case GuardLock:
			if cur.Kind == syntax.KindWith && mentionsLock(cur) {
				return true
			}
		}
	}
	return false
}

// mentionsLock tests the with-statement header, not its body, so a lock
// acquired inside the block does not count as a guard.
func mentionsLock(with *syntax.Node) bool {
	header := with.Text
	if body := with.Body(); body != nil {
		if idx := strings.Index(header, body.Text); idx > 0 {
			header = header[:idx]
		}
	}
	header = strings.ToLower(header)
	return strings.Contains(header, "lock") ||
		strings.Contains(header, "mutex") ||
		strings.Contains(header, "semaphore")
}
