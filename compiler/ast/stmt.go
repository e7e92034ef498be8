package ast

// Stmt is one top-level declaration of a RelQ program.
type Stmt struct {
	Kind StmtKind `json:"kind"`
	Span `json:"span"`
}

// StmtKind is the closed set of statement variants.  QueryDef is opaque
// configuration and passes through any fold unchanged.  Pipeline does
// double duty as a statement and as an expression variant.
type StmtKind interface {
	stmtKind()
}

// A QueryDef carries query-level configuration such as the language
// version and the SQL dialect targeted by the backend.
type QueryDef struct {
	Kind    string `json:"kind" unpack:""`
	Version string `json:"version,omitempty"`
	Dialect string `json:"dialect,omitempty"`
}

// A FuncDef declares a user function.  Positional parameters are filled by
// application order; named parameters are filled by name and may carry a
// default value.
type FuncDef struct {
	Kind             string      `json:"kind" unpack:""`
	Name             Ident       `json:"name"`
	PositionalParams []FuncParam `json:"positional_params"`
	NamedParams      []FuncParam `json:"named_params"`
	Body             *Expr       `json:"body"`
	ReturnTy         Ty          `json:"return_ty"`
}

type FuncParam struct {
	Name         Ident `json:"name"`
	Ty           Ty    `json:"ty"`
	DefaultValue *Expr `json:"default_value"`
}

// A FuncCall is a saturated invocation.  Name identifies which declared
// function is invoked and is fixed at construction time, so folds rewrite
// only the argument values.
type FuncCall struct {
	Kind      string     `json:"kind" unpack:""`
	Name      Ident      `json:"name"`
	Args      []Expr     `json:"args"`
	NamedArgs []NamedArg `json:"named_args"`
}

// NamedArg associates an argument value with a declared parameter name.
// The list preserves source order.
type NamedArg struct {
	Name Ident `json:"name"`
	Expr Expr  `json:"expr"`
}

// A FuncCurry is a partially-applied invocation.  DefID is a stable
// binding to a FuncDef and is not rewritten.  NamedArgs slots correspond
// positionally to the function's declared named parameters; a nil slot is
// an unfilled parameter awaiting later saturation and stays nil under any
// fold.
type FuncCurry struct {
	Kind      string  `json:"kind" unpack:""`
	DefID     int     `json:"def_id"`
	Args      []Expr  `json:"args"`
	NamedArgs []*Expr `json:"named_args"`
}

// A TableDef names a pipeline so later stages can reference it as a
// relation.  The pipeline is still unresolved here.
type TableDef struct {
	Kind     string `json:"kind" unpack:""`
	ID       int    `json:"id"`
	Name     Ident  `json:"name"`
	Pipeline *Expr  `json:"pipeline"`
}

func (*FuncDef) stmtKind()  {}
func (*TableDef) stmtKind() {}
func (*Pipeline) stmtKind() {}
func (*QueryDef) stmtKind() {}
