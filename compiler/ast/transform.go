package ast

// The resolved tier: once semantic analysis has lowered a pipeline, every
// stage is a Transform, one relational-algebra operator applied to the
// relation produced by the stage before it.  By the time a TransformKind
// exists, all of its substructure is equally resolved; Group and Window
// nested pipelines hold Transforms, never raw exprs.

type Transform struct {
	Kind TransformKind `json:"kind"`
	Span `json:"span"`
}

// TransformKind is the closed set of relational operators.  Unique is a
// leaf and passes through any fold unchanged.
type TransformKind interface {
	transformKind()
}

type (
	From struct {
		Kind  string   `json:"kind" unpack:""`
		Table TableRef `json:"table"`
	}
	Derive struct {
		Kind    string `json:"kind" unpack:""`
		Assigns []Expr `json:"assigns"`
	}
	Select struct {
		Kind    string `json:"kind" unpack:""`
		Assigns []Expr `json:"assigns"`
	}
	Aggregate struct {
		Kind    string `json:"kind" unpack:""`
		Assigns []Expr `json:"assigns"`
		By      []Expr `json:"by"`
	}
	Filter struct {
		Kind string `json:"kind" unpack:""`
		Expr *Expr  `json:"expr"`
	}
	Sort struct {
		Kind string       `json:"kind" unpack:""`
		By   []ColumnSort `json:"by"`
	}
	Join struct {
		Kind   string     `json:"kind" unpack:""`
		Side   string     `json:"side"`
		With   TableRef   `json:"with"`
		Filter JoinFilter `json:"filter"`
	}
	// A Group scopes a nested pipeline by grouping keys: the nested
	// transforms run per group.
	Group struct {
		Kind     string      `json:"kind" unpack:""`
		By       []Expr      `json:"by"`
		Pipeline []Transform `json:"pipeline"`
	}
	// A Window scopes a nested pipeline by a window frame.
	Window struct {
		Kind       string      `json:"kind" unpack:""`
		WindowKind string      `json:"window_kind"`
		Range      Range       `json:"range"`
		Pipeline   []Transform `json:"pipeline"`
	}
	// A Take limits rows to Range, optionally per partition (By) in a
	// given order (Sort).
	Take struct {
		Kind  string       `json:"kind" unpack:""`
		Range Range        `json:"range"`
		By    []Expr       `json:"by"`
		Sort  []ColumnSort `json:"sort"`
	}
	Unique struct {
		Kind string `json:"kind" unpack:""`
	}
)

func (*From) transformKind()      {}
func (*Derive) transformKind()    {}
func (*Select) transformKind()    {}
func (*Aggregate) transformKind() {}
func (*Filter) transformKind()    {}
func (*Sort) transformKind()      {}
func (*Join) transformKind()      {}
func (*Group) transformKind()     {}
func (*Window) transformKind()    {}
func (*Take) transformKind()      {}
func (*Unique) transformKind()    {}

const (
	JoinInner = "inner"
	JoinLeft  = "left"
	JoinRight = "right"
	JoinFull  = "full"
)

const (
	WindowRows   = "rows"
	WindowRange  = "range"
	WindowGroups = "groups"
)

// A JoinFilter is the join condition: arbitrary expressions over both
// relations (On) or a list of shared column names (Using).
type JoinFilter interface {
	joinFilter()
}

type (
	JoinOn struct {
		Kind  string `json:"kind" unpack:""`
		Exprs []Expr `json:"exprs"`
	}
	JoinUsing struct {
		Kind  string `json:"kind" unpack:""`
		Exprs []Expr `json:"exprs"`
	}
)

func (*JoinOn) joinFilter()    {}
func (*JoinUsing) joinFilter() {}

// A TableRef references a base relation by name.  ID is stable identity
// assigned at resolution; folds rewrite Name and Alias only.  An empty
// Alias means the reference is unaliased.
type TableRef struct {
	Name  Ident `json:"name"`
	Alias Ident `json:"alias,omitempty"`
	ID    int   `json:"id"`
}

// A Query is a complete resolved program: one main pipeline plus the
// named tables it references, each itself resolved.
type Query struct {
	Def          QueryDef    `json:"def"`
	MainPipeline []Transform `json:"main_pipeline"`
	Tables       []Table     `json:"tables"`
}

// A Table is a resolved TableDef.  ID and Name are stable identity, not
// content: folds preserve them and never reorder the table list.
type Table struct {
	ID       int         `json:"id"`
	Name     Ident       `json:"name"`
	Pipeline []Transform `json:"pipeline"`
}
