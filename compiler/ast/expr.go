// Package ast declares the types used to represent syntax trees for RelQ
// queries: the surface expression/statement tier produced by the parser and
// the resolved transform tier produced by semantic analysis, along with the
// fold engine that rewrites both.
package ast

// An Ident names a variable, column, function, or table.  Identity of a
// resolved function call is fixed at call-construction time, so FuncCall.Name
// is not rewritten by folds; every other Ident in the tree is.
type Ident string

// Span marks the source text range a node was parsed from.  The compiler
// core never interprets spans; they ride along through rewrites so that
// passes can attach positions to diagnostics.
type Span struct {
	First int `json:"first"`
	Last  int `json:"last"`
}

func (s Span) Pos() int { return s.First }
func (s Span) End() int { return s.Last }

// Expr is one node of the surface expression tree.  The node's payload
// lives entirely in Kind; a rewrite replaces Kind and keeps Span.
type Expr struct {
	Kind ExprKind `json:"kind"`
	Span `json:"span"`
}

// ExprKind is the closed set of expression variants.  Empty, Literal, and
// Interval are leaves: they carry no child exprs and pass through any fold
// that does not special-case them.
type ExprKind interface {
	exprKind()
}

type (
	ID struct {
		Kind string `json:"kind" unpack:""`
		Name Ident  `json:"name"`
	}
	BinaryExpr struct {
		Kind string `json:"kind" unpack:""`
		Op   string `json:"op"`
		LHS  *Expr  `json:"lhs"`
		RHS  *Expr  `json:"rhs"`
	}
	UnaryExpr struct {
		Kind    string `json:"kind" unpack:""`
		Op      string `json:"op"`
		Operand *Expr  `json:"operand"`
	}
	ListExpr struct {
		Kind  string `json:"kind" unpack:""`
		Elems []Expr `json:"elems"`
	}
	// A Range's bounds are each optional: a nil bound is open.
	Range struct {
		Kind  string `json:"kind" unpack:""`
		Start *Expr  `json:"start"`
		End   *Expr  `json:"end"`
	}
	// A Pipeline is an ordered chain of pipe stages, unresolved: data
	// flows through the stages first to last.  It appears both in
	// expression position and as a top-level statement.
	Pipeline struct {
		Kind  string `json:"kind" unpack:""`
		Exprs []Expr `json:"exprs"`
	}
	// An SString interpolates exprs into a raw SQL snippet.
	SString struct {
		Kind  string            `json:"kind" unpack:""`
		Elems []InterpolateItem `json:"elems"`
	}
	// An FString interpolates exprs into a string value.
	FString struct {
		Kind  string            `json:"kind" unpack:""`
		Elems []InterpolateItem `json:"elems"`
	}
	// A Windowed expression evaluates Expr over a window frame scoped by
	// grouping keys and sort order.
	Windowed struct {
		Kind        string       `json:"kind" unpack:""`
		Expr        *Expr        `json:"expr"`
		Group       []Expr       `json:"group"`
		Sort        []ColumnSort `json:"sort"`
		WindowKind  string       `json:"window_kind"`
		WindowRange Range        `json:"window_range"`
	}
	// A TypeValue wraps a type where the grammar allows one in
	// expression position (e.g. a cast argument).
	TypeValue struct {
		Kind  string `json:"kind" unpack:""`
		Value Ty     `json:"value"`
	}
	// A ResolvedPipeline holds a pipeline that has already been lowered
	// to transforms but still lives in an expression context.
	ResolvedPipeline struct {
		Kind       string      `json:"kind" unpack:""`
		Transforms []Transform `json:"transforms"`
	}
	Empty struct {
		Kind string `json:"kind" unpack:""`
	}
	Literal struct {
		Kind string `json:"kind" unpack:""`
		Type string `json:"type"`
		Text string `json:"text"`
	}
	Interval struct {
		Kind  string `json:"kind" unpack:""`
		Value string `json:"value"`
		Unit  string `json:"unit"`
	}
)

// An InterpolateItem is one piece of an s-string or f-string: either opaque
// literal text or an interpolated expression.
type InterpolateItem interface {
	interpolateItem()
}

type (
	TextItem struct {
		Kind string `json:"kind" unpack:""`
		Text string `json:"text"`
	}
	ExprItem struct {
		Kind string `json:"kind" unpack:""`
		Expr *Expr  `json:"expr"`
	}
)

func (*TextItem) interpolateItem() {}
func (*ExprItem) interpolateItem() {}

type ColumnSort struct {
	Direction string `json:"direction"`
	Column    Expr   `json:"column"`
}

const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

func (*ID) exprKind()               {}
func (*BinaryExpr) exprKind()       {}
func (*UnaryExpr) exprKind()        {}
func (*ListExpr) exprKind()         {}
func (*Range) exprKind()            {}
func (*Pipeline) exprKind()         {}
func (*SString) exprKind()          {}
func (*FString) exprKind()          {}
func (*FuncCall) exprKind()         {}
func (*FuncCurry) exprKind()        {}
func (*Windowed) exprKind()         {}
func (*TypeValue) exprKind()        {}
func (*ResolvedPipeline) exprKind() {}
func (*Empty) exprKind()            {}
func (*Literal) exprKind()          {}
func (*Interval) exprKind()         {}

func NewID(name Ident) *Expr {
	return &Expr{Kind: &ID{Kind: "ID", Name: name}}
}

func NewLiteral(typ, text string) *Expr {
	return &Expr{Kind: &Literal{Kind: "Literal", Type: typ, Text: text}}
}

func NewBinary(op string, lhs, rhs *Expr) *Expr {
	return &Expr{Kind: &BinaryExpr{Kind: "BinaryExpr", Op: op, LHS: lhs, RHS: rhs}}
}
