package semantic

import (
	"fmt"
	"slices"

	"github.com/relq-lang/relq/compiler/ast"
)

// FoldExprKind overrides the default expression recursion for the two
// variants the resolver rewrites: calls to declared functions become
// partial applications (or inlined bodies when saturated), and pipelines
// in expression position become resolved transform sequences.  Everything
// else falls through to the default recursion.
func (r *resolver) FoldExprKind(kind ast.ExprKind) (ast.ExprKind, error) {
	switch kind := kind.(type) {
	case *ast.FuncCall:
		return r.call(*kind)
	case *ast.Pipeline:
		transforms, err := r.pipelineTransforms(kind.Exprs)
		if err != nil {
			return nil, err
		}
		return &ast.ResolvedPipeline{Kind: "ResolvedPipeline", Transforms: transforms}, nil
	}
	return ast.FoldExprKind(r, kind)
}

// call resolves a function call.  Calls to names with no local definition
// (SQL functions, aggregates) keep their shape with arguments resolved;
// the backend owns their meaning.
func (r *resolver) call(call ast.FuncCall) (ast.ExprKind, error) {
	id, ok := r.funcIDs[call.Name]
	if !ok {
		folded, err := ast.FoldFuncCall(r, call)
		if err != nil {
			return nil, err
		}
		return &folded, nil
	}
	def := r.funcs[id]
	if len(call.Args) > len(def.PositionalParams) {
		return nil, fmt.Errorf("function %q takes %d arguments, got %d",
			def.Name, len(def.PositionalParams), len(call.Args))
	}
	args, err := ast.FoldExprs(r, call.Args)
	if err != nil {
		return nil, err
	}
	var named []*ast.Expr
	if len(def.NamedParams) > 0 {
		named = make([]*ast.Expr, len(def.NamedParams))
	}
	for _, na := range call.NamedArgs {
		i := slices.IndexFunc(def.NamedParams, func(p ast.FuncParam) bool {
			return p.Name == na.Name
		})
		if i < 0 {
			return nil, fmt.Errorf("function %q has no named parameter %q", def.Name, na.Name)
		}
		if named[i] != nil {
			return nil, fmt.Errorf("function %q: parameter %q given twice", def.Name, na.Name)
		}
		e, err := r.FoldExpr(na.Expr)
		if err != nil {
			return nil, err
		}
		named[i] = &e
	}
	curry := ast.FuncCurry{Kind: "FuncCurry", DefID: id, Args: args, NamedArgs: named}
	if len(args) == len(def.PositionalParams) {
		return r.inline(def, curry)
	}
	return &curry, nil
}

// inline substitutes a saturated application into a copy of the function
// body.  The body was resolved at declaration time, so the result needs
// no further resolution.
func (r *resolver) inline(def ast.FuncDef, curry ast.FuncCurry) (ast.ExprKind, error) {
	sub := &substitution{bindings: make(map[ast.Ident]ast.Expr)}
	sub.Self = sub
	for i, p := range def.PositionalParams {
		sub.bindings[p.Name] = curry.Args[i]
	}
	for i, p := range def.NamedParams {
		switch {
		case curry.NamedArgs[i] != nil:
			sub.bindings[p.Name] = *curry.NamedArgs[i]
		case p.DefaultValue != nil:
			sub.bindings[p.Name] = *p.DefaultValue
		default:
			return nil, fmt.Errorf("function %q: parameter %q has no value and no default",
				def.Name, p.Name)
		}
	}
	body, err := sub.FoldExpr(ast.CopyExpr(*def.Body))
	if err != nil {
		return nil, err
	}
	return body.Kind, nil
}

// substitution replaces parameter identifiers with argument expressions.
// Each occurrence gets its own copy so no node ends up with two parents.
type substitution struct {
	ast.Base
	bindings map[ast.Ident]ast.Expr
}

func (s *substitution) FoldExprKind(kind ast.ExprKind) (ast.ExprKind, error) {
	if id, ok := kind.(*ast.ID); ok {
		if e, ok := s.bindings[id.Name]; ok {
			return ast.CopyExpr(e).Kind, nil
		}
	}
	return ast.FoldExprKind(s, kind)
}
