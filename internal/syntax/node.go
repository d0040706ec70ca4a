package syntax

// Kind is the tagged node kind detectors dispatch on. The raw tree-sitter
// grammar name is kept alongside for anything not worth its own variant.
type Kind int

const (
	KindOther Kind = iota
	KindModule
	KindFunctionDef
	KindClassDef
	KindCall
	KindAttribute
	KindSubscript
	KindAssignment
	KindAugAssign
	KindBinaryOp
	KindTry
	KindExcept
	KindFinally
	KindWith
	KindIf
	KindFor
	KindWhile
	KindImport
	KindImportFrom
	KindString
	KindInteger
	KindIdentifier
	KindKeywordArg
	KindArgumentList
	KindBlock
	KindPass
	KindDecorated
	KindRaise
	KindReturn
	KindExprStmt
	KindLambda
	KindEllipsis
)

var kindNames = map[Kind]string{
	KindOther:        "other",
	KindModule:       "module",
	KindFunctionDef:  "function_def",
	KindClassDef:     "class_def",
	KindCall:         "call",
	KindAttribute:    "attribute",
	KindSubscript:    "subscript",
	KindAssignment:   "assignment",
	KindAugAssign:    "augmented_assignment",
	KindBinaryOp:     "binary_op",
	KindTry:          "try",
	KindExcept:       "except",
	KindFinally:      "finally",
	KindWith:         "with",
	KindIf:           "if",
	KindFor:          "for",
	KindWhile:        "while",
	KindImport:       "import",
	KindImportFrom:   "import_from",
	KindString:       "string",
	KindInteger:      "integer",
	KindIdentifier:   "identifier",
	KindKeywordArg:   "keyword_arg",
	KindArgumentList: "argument_list",
	KindBlock:        "block",
	KindPass:         "pass",
	KindDecorated:    "decorated",
	KindRaise:        "raise",
	KindReturn:       "return",
	KindExprStmt:     "expression_statement",
	KindLambda:       "lambda",
	KindEllipsis:     "ellipsis",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "other"
}

var rawToKind = map[string]Kind{
	"module":                KindModule,
	"function_definition":   KindFunctionDef,
	"class_definition":      KindClassDef,
	"call":                  KindCall,
	"attribute":             KindAttribute,
	"subscript":             KindSubscript,
	"assignment":            KindAssignment,
	"augmented_assignment":  KindAugAssign,
	"binary_operator":       KindBinaryOp,
	"try_statement":         KindTry,
	"except_clause":         KindExcept,
	"finally_clause":        KindFinally,
	"with_statement":        KindWith,
	"if_statement":          KindIf,
	"for_statement":         KindFor,
	"while_statement":       KindWhile,
	"import_statement":      KindImport,
	"import_from_statement": KindImportFrom,
	"string":                KindString,
	"integer":               KindInteger,
	"identifier":            KindIdentifier,
	"keyword_argument":      KindKeywordArg,
	"argument_list":         KindArgumentList,
	"block":                 KindBlock,
	"pass_statement":        KindPass,
	"decorated_definition":  KindDecorated,
	"raise_statement":       KindRaise,
	"return_statement":      KindReturn,
	"expression_statement":  KindExprStmt,
	"lambda":                KindLambda,
	"ellipsis":              KindEllipsis,
}

// Node is one syntax tree node. Nodes are owned by the Tree that produced
// them and never mutated after parsing.
type Node struct {
	ID        int
	Kind      Kind
	Raw       string
	StartLine int // 1-based
	EndLine   int
	StartCol  int // 0-based byte column
	EndCol    int
	Text      string
	Children  []*Node

	// Name carries the per-kind identifier payload captured at conversion:
	// function/class name, attribute name, keyword-argument name, or the
	// full dotted call target for calls.
	Name string
	// Operator is set for binary and augmented-assignment operators.
	Operator string
}

// Object returns the receiver node of an attribute access (x in x.y),
// or nil for other kinds.
func (n *Node) Object() *Node {
	if n.Kind != KindAttribute || len(n.Children) == 0 {
		return nil
	}
	return n.Children[0]
}

// Index returns the subscript index node (i in x[i]), or nil.
func (n *Node) Index() *Node {
	if n.Kind != KindSubscript || len(n.Children) < 2 {
		return nil
	}
	return n.Children[len(n.Children)-1]
}

// Arguments returns the argument_list node of a call, or nil.
func (n *Node) Arguments() *Node {
	if n.Kind != KindCall {
		return nil
	}
	for _, c := range n.Children {
		if c.Kind == KindArgumentList {
			return c
		}
	}
	return nil
}

// HasKeywordArg reports whether a call carries keyword=... with the given name.
func (n *Node) HasKeywordArg(name string) bool {
	args := n.Arguments()
	if args == nil {
		return false
	}
	for _, a := range args.Children {
		if a.Kind == KindKeywordArg && a.Name == name {
			return true
		}
	}
	return false
}

// Body returns the block child of a compound statement, or nil.
func (n *Node) Body() *Node {
	for _, c := range n.Children {
		if c.Kind == KindBlock {
			return c
		}
	}
	return nil
}
