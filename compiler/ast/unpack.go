package ast

import (
	"encoding/json"
	"fmt"

	"github.com/relq-lang/relq/pkg/unpack"
)

var unpacker = unpack.New(
	Aggregate{},
	BinaryExpr{},
	Derive{},
	Empty{},
	ExprItem{},
	Filter{},
	From{},
	FString{},
	FuncCall{},
	FuncCurry{},
	FuncDef{},
	Group{},
	ID{},
	Interval{},
	Join{},
	JoinOn{},
	JoinUsing{},
	ListExpr{},
	Literal{},
	Pipeline{},
	QueryDef{},
	Range{},
	ResolvedPipeline{},
	Select{},
	Sort{},
	SString{},
	TableDef{},
	Take{},
	TextItem{},
	TyAnyOf{},
	TyInfer{},
	TyLiteral{},
	TypeValue{},
	TyParameterized{},
	TyTable{},
	UnaryExpr{},
	Unique{},
	Window{},
	Windowed{},
)

// UnmarshalExpr transforms a JSON representation of an expression into an
// Expr.
func UnmarshalExpr(buf []byte) (Expr, error) {
	var e Expr
	if err := unpacker.Unmarshal(buf, &e); err != nil {
		return Expr{}, err
	}
	return e, nil
}

// UnmarshalStmts transforms a JSON representation of a program into a
// statement list.  This is the interchange format the parser emits.
func UnmarshalStmts(buf []byte) ([]Stmt, error) {
	var stmts []Stmt
	if err := unpacker.Unmarshal(buf, &stmts); err != nil {
		return nil, err
	}
	return stmts, nil
}

// UnmarshalQuery transforms a JSON representation of a resolved query
// into a Query.
func UnmarshalQuery(buf []byte) (Query, error) {
	var q Query
	if err := unpacker.Unmarshal(buf, &q); err != nil {
		return Query{}, err
	}
	return q, nil
}

// UnmarshalObject re-types a generically decoded JSON object (e.g. a
// map[string]any from an embedding API) as a statement list.
func UnmarshalObject(anon any) ([]Stmt, error) {
	b, err := json.Marshal(anon)
	if err != nil {
		return nil, fmt.Errorf("internal error: ast.UnmarshalObject: %w", err)
	}
	return UnmarshalStmts(b)
}

// CopyExpr returns a deep copy of e sharing no nodes with the original,
// so the copy can be rewritten under a different parent.
func CopyExpr(e Expr) Expr {
	b, err := json.Marshal(e)
	if err != nil {
		panic(err)
	}
	out, err := UnmarshalExpr(b)
	if err != nil {
		panic(err)
	}
	return out
}

// CopyTransforms returns a deep copy of a resolved pipeline.
func CopyTransforms(transforms []Transform) []Transform {
	b, err := json.Marshal(transforms)
	if err != nil {
		panic(err)
	}
	var out []Transform
	if err := unpacker.Unmarshal(b, &out); err != nil {
		panic(err)
	}
	return out
}

// CopyQuery returns a deep copy of q.
func CopyQuery(q Query) Query {
	b, err := json.Marshal(q)
	if err != nil {
		panic(err)
	}
	out, err := UnmarshalQuery(b)
	if err != nil {
		panic(err)
	}
	return out
}
