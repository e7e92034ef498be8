// Package optimizer rewrites a resolved Query.  Each rewrite is a fold
// pass overriding only the transform-sequence category, so it applies at
// every nesting depth (main pipeline, table pipelines, group and window
// bodies) without its own traversal logic.
package optimizer

import (
	"strconv"

	"github.com/relq-lang/relq/compiler/ast"
)

// Optimize runs the rewrite passes over q and returns the rewritten
// query.  The input is not modified.
func Optimize(q *ast.Query) (*ast.Query, error) {
	passes := []ast.Folder{
		newFuseFilters(),
		newMergeTakes(),
	}
	out := *q
	for _, pass := range passes {
		var err error
		if out, err = pass.FoldQuery(out); err != nil {
			return nil, err
		}
	}
	return &out, nil
}

// fuseFilters combines adjacent Filter transforms into one conjunction so
// the backend emits a single WHERE clause.
type fuseFilters struct {
	ast.Base
}

func newFuseFilters() *fuseFilters {
	f := &fuseFilters{}
	f.Self = f
	return f
}

func (f *fuseFilters) FoldTransforms(transforms []ast.Transform) ([]ast.Transform, error) {
	folded, err := ast.FoldTransforms(f, transforms)
	if err != nil {
		return nil, err
	}
	var out []ast.Transform
	for _, t := range folded {
		filter, ok := t.Kind.(*ast.Filter)
		if ok && len(out) > 0 {
			if prev, ok := out[len(out)-1].Kind.(*ast.Filter); ok {
				combined := ast.NewBinary("and", prev.Expr, filter.Expr)
				out[len(out)-1].Kind = &ast.Filter{Kind: "Filter", Expr: combined}
				continue
			}
		}
		out = append(out, t)
	}
	return out, nil
}

// mergeTakes intersects adjacent Takes whose ranges are literal ints and
// that are not partitioned, so "take 10 | take 3" becomes "take 3".
type mergeTakes struct {
	ast.Base
}

func newMergeTakes() *mergeTakes {
	m := &mergeTakes{}
	m.Self = m
	return m
}

func (m *mergeTakes) FoldTransforms(transforms []ast.Transform) ([]ast.Transform, error) {
	folded, err := ast.FoldTransforms(m, transforms)
	if err != nil {
		return nil, err
	}
	var out []ast.Transform
	for _, t := range folded {
		if len(out) > 0 {
			if merged, ok := mergeTake(out[len(out)-1].Kind, t.Kind); ok {
				out[len(out)-1].Kind = merged
				continue
			}
		}
		out = append(out, t)
	}
	return out, nil
}

func mergeTake(prev, next ast.TransformKind) (ast.TransformKind, bool) {
	a, ok := simpleTake(prev)
	if !ok {
		return nil, false
	}
	b, ok := simpleTake(next)
	if !ok {
		return nil, false
	}
	n := min(a, b)
	end := ast.NewLiteral("int", strconv.Itoa(n))
	return &ast.Take{Kind: "Take", Range: ast.Range{Kind: "Range", End: end}}, true
}

// simpleTake matches an unpartitioned head-style take with an open start
// and a literal int bound.
func simpleTake(kind ast.TransformKind) (int, bool) {
	take, ok := kind.(*ast.Take)
	if !ok || len(take.By) > 0 || len(take.Sort) > 0 || take.Range.Start != nil || take.Range.End == nil {
		return 0, false
	}
	lit, ok := take.Range.End.Kind.(*ast.Literal)
	if !ok || lit.Type != "int" {
		return 0, false
	}
	n, err := strconv.Atoi(lit.Text)
	if err != nil {
		return 0, false
	}
	return n, true
}
