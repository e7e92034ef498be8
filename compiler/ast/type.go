package ast

// Ty annotates function signatures and resolved expressions.  TyLiteral
// and the other leaf forms pass through folds unchanged; TyParameterized
// and TyAnyOf are the only composite forms.
type Ty interface {
	tyNode()
}

type (
	TyLiteral struct {
		Kind string `json:"kind" unpack:""`
		Name string `json:"name"`
	}
	// A TyParameterized is a type parameterized by a value expression,
	// e.g. a sized type.
	TyParameterized struct {
		Kind  string `json:"kind" unpack:""`
		Ty    Ty     `json:"ty"`
		Param *Expr  `json:"param"`
	}
	TyAnyOf struct {
		Kind string `json:"kind" unpack:""`
		Tys  []Ty   `json:"tys"`
	}
	// TyTable is the type of a relation-valued expression.
	TyTable struct {
		Kind string `json:"kind" unpack:""`
	}
	// TyInfer stands for a type to be filled in by inference.
	TyInfer struct {
		Kind string `json:"kind" unpack:""`
	}
)

func (*TyLiteral) tyNode()       {}
func (*TyParameterized) tyNode() {}
func (*TyAnyOf) tyNode()         {}
func (*TyTable) tyNode()         {}
func (*TyInfer) tyNode()         {}
