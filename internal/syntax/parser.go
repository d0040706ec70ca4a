// Package syntax parses Python source files into immutable syntax trees.
//
// The tree-sitter CST is converted into a flat arena of Node values with a
// tagged Kind enum, so detectors never touch the underlying C objects. One
// tree is built per file and discarded after that file's checks complete.
package syntax

import (
	"context"
	"fmt"
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// ParseError marks a file with invalid syntax. Callers skip the file and
// continue the run.
type ParseError struct {
	Path string
	Line int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: syntax error", e.Path, e.Line)
}

// Tree is the parsed representation of one source file.
type Tree struct {
	Path  string
	Lines []string
	Root  *Node
	// Nodes lists every node in preorder.
	Nodes []*Node

	parents map[int]*Node
}

// Parse parses Python source into a Tree. Syntax errors yield a *ParseError.
func Parse(path string, src []byte) (*Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	cst, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer cst.Close()

	root := cst.RootNode()
	if root.HasError() {
		return nil, &ParseError{Path: path, Line: firstErrorLine(root)}
	}

	t := &Tree{
		Path:    path,
		Lines:   strings.Split(string(src), "\n"),
		parents: make(map[int]*Node),
	}
	t.Root = t.convert(root, src)
	return t, nil
}

// ParseFile reads and parses the file at path.
func ParseFile(path string) (*Tree, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, src)
}

// Parent returns the parent of n, or nil at the root. The index is built in
// the same traversal that builds the arena; the native tree only exposes
// downward references once converted.
func (t *Tree) Parent(n *Node) *Node {
	return t.parents[n.ID]
}

// NodesOfKind returns all nodes of the given kind in preorder.
func (t *Tree) NodesOfKind(k Kind) []*Node {
	var out []*Node
	for _, n := range t.Nodes {
		if n.Kind == k {
			out = append(out, n)
		}
	}
	return out
}

// LineText returns the 1-based source line, or "" outside the file range.
func (t *Tree) LineText(line int) string {
	if line < 1 || line > len(t.Lines) {
		return ""
	}
	return t.Lines[line-1]
}

// LineCount reports the number of source lines in the file.
func (t *Tree) LineCount() int {
	return len(t.Lines)
}

// Docstring returns the docstring text of a function or class body, or "".
func (t *Tree) Docstring(n *Node) string {
	body := n.Body()
	if body == nil || len(body.Children) == 0 {
		return ""
	}
	first := body.Children[0]
	if first.Kind != KindExprStmt || len(first.Children) == 0 {
		return ""
	}
	if s := first.Children[0]; s.Kind == KindString {
		return strings.Trim(s.Text, "\"'rbfu \n")
	}
	return ""
}

func (t *Tree) convert(src *sitter.Node, source []byte) *Node {
	n := &Node{
		ID:        len(t.Nodes),
		Raw:       src.Type(),
		Kind:      rawToKind[src.Type()],
		StartLine: int(src.StartPoint().Row) + 1,
		EndLine:   int(src.EndPoint().Row) + 1,
		StartCol:  int(src.StartPoint().Column),
		EndCol:    int(src.EndPoint().Column),
		Text:      src.Content(source),
	}
	t.Nodes = append(t.Nodes, n)

	switch n.Kind {
	case KindFunctionDef, KindClassDef, KindKeywordArg:
		if name := src.ChildByFieldName("name"); name != nil {
			n.Name = name.Content(source)
		}
	case KindAttribute:
		if attr := src.ChildByFieldName("attribute"); attr != nil {
			n.Name = attr.Content(source)
		}
	case KindCall:
		if fn := src.ChildByFieldName("function"); fn != nil {
			n.Name = fn.Content(source)
		}
	case KindBinaryOp, KindAugAssign:
		if op := src.ChildByFieldName("operator"); op != nil {
			n.Operator = op.Content(source)
		}
	}

	count := int(src.NamedChildCount())
	for i := 0; i < count; i++ {
		child := t.convert(src.NamedChild(i), source)
		t.parents[child.ID] = n
		n.Children = append(n.Children, child)
	}
	return n
}

func firstErrorLine(root *sitter.Node) int {
	line := int(root.StartPoint().Row) + 1
	var walk func(n *sitter.Node) bool
	walk = func(n *sitter.Node) bool {
		if n.Type() == "ERROR" || n.IsMissing() {
			line = int(n.StartPoint().Row) + 1
			return true
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			if walk(n.Child(i)) {
				return true
			}
		}
		return false
	}
	walk(root)
	return line
}
