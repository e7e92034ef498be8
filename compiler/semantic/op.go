package semantic

import (
	"errors"
	"fmt"

	"github.com/relq-lang/relq/compiler/ast"
)

// pipelineExpr lowers a pipeline in expression position (a table body or
// a nested pipeline argument) to transforms, fail-fast.
func (r *resolver) pipelineExpr(e ast.Expr) ([]ast.Transform, error) {
	p, ok := e.Kind.(*ast.Pipeline)
	if !ok {
		return nil, fmt.Errorf("expected a pipeline, got %s", kindName(e.Kind))
	}
	return r.pipelineTransforms(p.Exprs)
}

func (r *resolver) pipelineTransforms(exprs []ast.Expr) ([]ast.Transform, error) {
	var out []ast.Transform
	for _, e := range exprs {
		t, err := r.stage(e)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// stage lowers one pipe stage to a Transform.  A stage is an invocation
// of a built-in transform: a call, or a bare identifier for the zero-arg
// forms.
func (r *resolver) stage(e ast.Expr) (ast.Transform, error) {
	var call ast.FuncCall
	switch kind := e.Kind.(type) {
	case *ast.FuncCall:
		call = *kind
	case *ast.ID:
		call = ast.FuncCall{Kind: "FuncCall", Name: kind.Name}
	default:
		return ast.Transform{}, fmt.Errorf("pipeline stage must be a transform invocation, got %s", kindName(e.Kind))
	}
	kind, err := r.transform(call)
	if err != nil {
		return ast.Transform{}, err
	}
	return ast.Transform{Kind: kind, Span: e.Span}, nil
}

func (r *resolver) transform(call ast.FuncCall) (ast.TransformKind, error) {
	switch call.Name {
	case "from":
		return r.fromTransform(call)
	case "derive":
		assigns, err := r.assigns(call.Args)
		if err != nil {
			return nil, err
		}
		return &ast.Derive{Kind: "Derive", Assigns: assigns}, nil
	case "select":
		assigns, err := r.assigns(call.Args)
		if err != nil {
			return nil, err
		}
		return &ast.Select{Kind: "Select", Assigns: assigns}, nil
	case "filter":
		if len(call.Args) != 1 {
			return nil, errors.New("filter takes exactly one predicate")
		}
		e, err := r.FoldExpr(call.Args[0])
		if err != nil {
			return nil, err
		}
		return &ast.Filter{Kind: "Filter", Expr: &e}, nil
	case "aggregate":
		return r.aggregateTransform(call)
	case "sort":
		by, err := r.sortColumns(call.Args)
		if err != nil {
			return nil, err
		}
		return &ast.Sort{Kind: "Sort", By: by}, nil
	case "take":
		return r.takeTransform(call)
	case "join":
		return r.joinTransform(call)
	case "group":
		return r.groupTransform(call)
	case "window":
		return r.windowTransform(call)
	case "unique":
		if len(call.Args) != 0 {
			return nil, errors.New("unique takes no arguments")
		}
		return &ast.Unique{Kind: "Unique"}, nil
	}
	if _, ok := r.funcIDs[call.Name]; ok {
		return nil, fmt.Errorf("function %q does not produce a relation and cannot be a pipeline stage", call.Name)
	}
	return nil, r.unknownTransform(call.Name)
}

// fromTransform accepts "from table" or "from alias = table".
func (r *resolver) fromTransform(call ast.FuncCall) (ast.TransformKind, error) {
	if len(call.Args) != 1 {
		return nil, errors.New("from takes exactly one table reference")
	}
	ref, err := r.tableRef(call.Args[0])
	if err != nil {
		return nil, err
	}
	return &ast.From{Kind: "From", Table: ref}, nil
}

func (r *resolver) tableRef(e ast.Expr) (ast.TableRef, error) {
	switch kind := e.Kind.(type) {
	case *ast.ID:
		r.refID++
		return ast.TableRef{Name: kind.Name, ID: r.refID}, nil
	case *ast.BinaryExpr:
		alias, aok := kind.LHS.Kind.(*ast.ID)
		name, nok := kind.RHS.Kind.(*ast.ID)
		if kind.Op != "=" || !aok || !nok {
			break
		}
		r.refID++
		return ast.TableRef{Name: name.Name, Alias: alias.Name, ID: r.refID}, nil
	}
	return ast.TableRef{}, fmt.Errorf("expected a table name, got %s", kindName(e.Kind))
}

func (r *resolver) aggregateTransform(call ast.FuncCall) (ast.TransformKind, error) {
	assigns, err := r.assigns(call.Args)
	if err != nil {
		return nil, err
	}
	var by []ast.Expr
	if e := namedArg(call, "by"); e != nil {
		if by, err = r.assigns([]ast.Expr{*e}); err != nil {
			return nil, err
		}
	}
	return &ast.Aggregate{Kind: "Aggregate", Assigns: assigns, By: by}, nil
}

func (r *resolver) takeTransform(call ast.FuncCall) (ast.TransformKind, error) {
	if len(call.Args) != 1 {
		return nil, errors.New("take requires a count or a range")
	}
	arg, err := r.FoldExpr(call.Args[0])
	if err != nil {
		return nil, err
	}
	switch kind := arg.Kind.(type) {
	case *ast.Literal:
		return &ast.Take{Kind: "Take", Range: ast.Range{Kind: "Range", End: &arg}}, nil
	case *ast.Range:
		return &ast.Take{Kind: "Take", Range: *kind}, nil
	default:
		return nil, fmt.Errorf("take requires a count or a range, got %s", kindName(arg.Kind))
	}
}

func (r *resolver) joinTransform(call ast.FuncCall) (ast.TransformKind, error) {
	if len(call.Args) != 1 {
		return nil, errors.New("join takes exactly one table reference")
	}
	with, err := r.tableRef(call.Args[0])
	if err != nil {
		return nil, err
	}
	side := ast.JoinInner
	if e := namedArg(call, "side"); e != nil {
		id, ok := e.Kind.(*ast.ID)
		if !ok {
			return nil, errors.New("join side must be an identifier")
		}
		switch string(id.Name) {
		case ast.JoinInner, ast.JoinLeft, ast.JoinRight, ast.JoinFull:
			side = string(id.Name)
		default:
			return nil, fmt.Errorf("unknown join side %q", id.Name)
		}
	}
	on := namedArg(call, "on")
	using := namedArg(call, "using")
	switch {
	case on != nil && using != nil:
		return nil, errors.New("join accepts on: or using:, not both")
	case on != nil:
		exprs, err := r.assigns([]ast.Expr{*on})
		if err != nil {
			return nil, err
		}
		return &ast.Join{Kind: "Join", Side: side, With: with, Filter: &ast.JoinOn{Kind: "JoinOn", Exprs: exprs}}, nil
	case using != nil:
		exprs, err := r.assigns([]ast.Expr{*using})
		if err != nil {
			return nil, err
		}
		return &ast.Join{Kind: "Join", Side: side, With: with, Filter: &ast.JoinUsing{Kind: "JoinUsing", Exprs: exprs}}, nil
	default:
		return nil, errors.New("join requires an on: or using: condition")
	}
}

func (r *resolver) groupTransform(call ast.FuncCall) (ast.TransformKind, error) {
	if len(call.Args) != 2 {
		return nil, errors.New("group requires grouping keys and a pipeline")
	}
	by, err := r.assigns(call.Args[:1])
	if err != nil {
		return nil, err
	}
	pipeline, err := r.pipelineExpr(call.Args[1])
	if err != nil {
		return nil, err
	}
	return &ast.Group{Kind: "Group", By: by, Pipeline: pipeline}, nil
}

// windowTransform accepts "window rows:0..5 (pipeline)" where the frame
// is given by exactly one of rows:, range:, or groups:.
func (r *resolver) windowTransform(call ast.FuncCall) (ast.TransformKind, error) {
	if len(call.Args) != 1 {
		return nil, errors.New("window requires a pipeline")
	}
	var windowKind string
	var frame ast.Range
	for _, name := range []string{ast.WindowRows, ast.WindowRange, ast.WindowGroups} {
		e := namedArg(call, ast.Ident(name))
		if e == nil {
			continue
		}
		if windowKind != "" {
			return nil, errors.New("window accepts only one frame specification")
		}
		folded, err := r.FoldExpr(*e)
		if err != nil {
			return nil, err
		}
		rng, ok := folded.Kind.(*ast.Range)
		if !ok {
			return nil, fmt.Errorf("window %s: frame must be a range", name)
		}
		windowKind, frame = name, *rng
	}
	if windowKind == "" {
		return nil, errors.New("window requires a rows:, range:, or groups: frame")
	}
	pipeline, err := r.pipelineExpr(call.Args[0])
	if err != nil {
		return nil, err
	}
	return &ast.Window{Kind: "Window", WindowKind: windowKind, Range: frame, Pipeline: pipeline}, nil
}

// assigns resolves a transform's column arguments: a single list argument
// is flattened, anything else is taken as-is.
func (r *resolver) assigns(args []ast.Expr) ([]ast.Expr, error) {
	if len(args) == 1 {
		if list, ok := args[0].Kind.(*ast.ListExpr); ok {
			args = list.Elems
		}
	}
	return ast.FoldExprs(r, args)
}

func (r *resolver) sortColumns(args []ast.Expr) ([]ast.ColumnSort, error) {
	if len(args) == 1 {
		if list, ok := args[0].Kind.(*ast.ListExpr); ok {
			args = list.Elems
		}
	}
	var out []ast.ColumnSort
	for _, arg := range args {
		direction := ast.SortAsc
		if neg, ok := arg.Kind.(*ast.UnaryExpr); ok && neg.Op == "-" {
			direction = ast.SortDesc
			arg = *neg.Operand
		}
		column, err := r.FoldExpr(arg)
		if err != nil {
			return nil, err
		}
		out = append(out, ast.ColumnSort{Direction: direction, Column: column})
	}
	return out, nil
}

func namedArg(call ast.FuncCall, name ast.Ident) *ast.Expr {
	for i, na := range call.NamedArgs {
		if na.Name == name {
			return &call.NamedArgs[i].Expr
		}
	}
	return nil
}

func kindName(kind any) string {
	return fmt.Sprintf("%T", kind)
}
