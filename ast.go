package mumps

// CmdKind identifies which of the eleven commands a Command node is.
type CmdKind int

const (
	CmdWrite CmdKind = iota
	CmdQuit
	CmdDo
	CmdIf
	CmdElse
	CmdFor
	CmdSet
	CmdNew
	CmdKill
	CmdMerge
	CmdHalt
)

// commandNames is the prefix-match table, walked in
// this exact order so that ambiguous prefixes resolve to the first
// listed variant (e.g. "s" always means set, never select -- select is a
// builtin, not a command, but the ordering rule is the same one that
// would apply if two command names ever shared a prefix).
var commandNames = []struct {
	name string
	kind CmdKind
}{
	{"write", CmdWrite},
	{"quit", CmdQuit},
	{"do", CmdDo},
	{"if", CmdIf},
	{"else", CmdElse},
	{"for", CmdFor},
	{"set", CmdSet},
	{"new", CmdNew},
	{"kill", CmdKill},
	{"merge", CmdMerge},
	{"halt", CmdHalt},
}

// Command is one imperative statement, plus (for do/if/else/for) its
// nested body: either the in-line commands that follow it on the same
// source line (if/else/for), or the indented block that follows it on
// subsequent lines (a bare "do").
type Command struct {
	Kind CmdKind
	Pos  Position
	Post Expr // postconditional (:expr); nil if absent

	WriteArgs []WriteArg

	QuitExpr Expr // nil if quit takes no return expression

	DoCall *CallExpr   // set when `do` is a call statement
	Body   []*Command  // do-block body, or if/else/for in-line body

	IfConds []Expr

	ForVar    string
	ForParams []ForParam // nil means argument-less for

	SetTargets []SetTarget

	NewNames []string

	KillTargets []*VarRef // nil/empty means "kill all locals"

	MergeDst *VarRef
	MergeSrc *VarRef
}

// WriteArgKind distinguishes the four write-argument forms: a plain
// expression, output-reset (#), newline (!), and column-pad (?<expr>).
type WriteArgKind int

const (
	WriteExprArg WriteArgKind = iota
	WriteReset                // #
	WriteNewline              // !
	WritePad                  // ?<expr>
)

// WriteArg is one comma-separated argument to `write`.
type WriteArg struct {
	Kind  WriteArgKind
	Value Expr // used by WriteExprArg and WritePad
}

// ForParam is one colon-separated sweep parameter to `for`: 1, 2, or 3
// expressions meaning start, start:step, or start:step:limit.
type ForParam struct {
	Start Expr
	Step  Expr // nil for the 1-expr form
	Limit Expr // nil for the 1- or 2-expr forms
}

// SetTarget is one comma-separated `target=expr` pair. Exactly one of
// Var or Extract is set.
type SetTarget struct {
	Var     *VarRef
	Extract *ExtractTarget
	Value   Expr
}

// ExtractTarget is a `$E(var, start[, end])` assignment target.
type ExtractTarget struct {
	Var   *VarRef
	Start Expr
	End   Expr // nil for the 2-arg form
	Pos   Position
}

// VarRef is a variable reference: an identifier with an optional
// subscript list, and (only meaningful as a call argument) a leading
// `.` marking it as passed by reference.
type VarRef struct {
	Indirect   bool
	Name       string
	Subscripts []Expr
	Pos        Position
}

// CallKind distinguishes a user tag call from a builtin call.
type CallKind int

const (
	CallTag CallKind = iota
	CallBuiltin
)

// CallExpr is a `$$name(...)`, `do name(...)` (call-as-statement), or
// `$builtin(...)` invocation.
type CallExpr struct {
	Kind       CallKind
	Name       string
	WithReturn bool // true for $$ calls
	Args       []CallArg
	Pos        Position
}

// CallArg is one comma-separated call argument: either a by-reference
// `.name`, or an ordinary expression.
type CallArg struct {
	Indirect bool
	Name     string // set when Indirect
	Value    Expr   // set when !Indirect
	Pos      Position
}

// Expr is any expression node. Because this language evaluates
// operators strictly left to right with no precedence, every expression
// parses into a single Chain: a first operand plus a flat list of
// (operator, operand) pairs, evaluated in order rather than as a nested
// binary tree.
type Expr interface {
	exprPos() Position
}

// NumberLit is a numeric literal.
type NumberLit struct {
	Value float64
	Pos   Position
}

func (n *NumberLit) exprPos() Position { return n.Pos }

// StringLit is a string literal (already unescaped).
type StringLit struct {
	Value string
	Pos   Position
}

func (s *StringLit) exprPos() Position { return s.Pos }

// VarExpr is a variable reference used as a primary expression.
type VarExpr struct {
	Ref *VarRef
}

func (v *VarExpr) exprPos() Position { return v.Ref.Pos }

// ParenExpr is a parenthesized sub-expression; parens are the only thing
// that overrides left-to-right evaluation order.
type ParenExpr struct {
	Inner Expr
	Pos   Position
}

func (p *ParenExpr) exprPos() Position { return p.Pos }

// CallNode is a call used as a primary expression ($$tag(...) or
// $builtin(...)).
type CallNode struct {
	Call *CallExpr
}

func (c *CallNode) exprPos() Position { return c.Call.Pos }

// UnaryExpr is a leading `'` (not), `+`, or `-` applied to an operand.
type UnaryExpr struct {
	Op      TokenKind
	Operand Expr
	Pos     Position
}

func (u *UnaryExpr) exprPos() Position { return u.Pos }

// BinOp is one operator/operand step in a Chain. Negate records a
// leading `'` immediately before the operator, which inverts the result
// of that one comparison.
type BinOp struct {
	Op     TokenKind
	Negate bool
	Rhs    Expr
	Pos    Position
}

// Chain is a left-to-right sequence of operators applied to a first
// operand: `a op1 b op2 c` evaluates as `(a op1 b) op2 c`.
type Chain struct {
	First Expr
	Ops   []BinOp
	Pos   Position
}

func (c *Chain) exprPos() Position { return c.Pos }

// TagInfo describes a callable entry point: the index into TopLevel's
// flat command list where its body begins, and its declared parameters.
type TagInfo struct {
	Index  int
	Params []string
}

// TopLevel is the parser's output: a flat, ordered sequence of top-level
// commands (a tag call runs commands starting at its TagInfo.Index until
// it runs off the end of Children, encounters Quit, or propagates Halt),
// plus the tag name -> TagInfo table.
type TopLevel struct {
	Children []*Command
	Tags     map[string]TagInfo
}
