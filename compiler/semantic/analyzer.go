// Package semantic lowers a surface statement list into a resolved Query:
// pipelines become transform sequences, calls to declared functions become
// partial applications or inlined bodies, and table definitions become
// resolved tables.  Every rewrite runs through the ast fold engine; the
// resolver overrides only the expression category and inherits default
// traversal for everything else.
package semantic

import (
	"fmt"

	"github.com/agnivade/levenshtein"
	"github.com/relq-lang/relq/compiler/ast"
	"github.com/relq-lang/relq/compiler/srcfiles"
)

// Resolve performs semantic analysis of stmts, producing a resolved Query
// ready for optimization and code generation.  Errors accumulate per
// declaration and per pipeline stage; the returned error is a
// srcfiles.ErrorList when file is non-nil so each message carries its
// source position.
func Resolve(stmts []ast.Stmt, file *srcfiles.File) (*ast.Query, error) {
	r := newResolver(file)
	q := r.resolve(stmts)
	if len(r.errs) > 0 {
		return nil, r.errs
	}
	return q, nil
}

type resolver struct {
	ast.Base
	file    *srcfiles.File
	errs    srcfiles.ErrorList
	funcs   []ast.FuncDef
	funcIDs map[ast.Ident]int
	refID   int
}

func newResolver(file *srcfiles.File) *resolver {
	r := &resolver{
		file:    file,
		funcIDs: make(map[ast.Ident]int),
	}
	r.Self = r
	return r
}

func (r *resolver) resolve(stmts []ast.Stmt) *ast.Query {
	var q ast.Query
	for _, stmt := range stmts {
		switch kind := stmt.Kind.(type) {
		case *ast.QueryDef:
			q.Def = *kind
		case *ast.FuncDef:
			r.declareFunc(*kind, stmt.Span)
		case *ast.TableDef:
			transforms, err := r.pipelineExpr(*kind.Pipeline)
			if err != nil {
				r.error(stmt.Span, err)
				continue
			}
			q.Tables = append(q.Tables, ast.Table{
				ID:       kind.ID,
				Name:     kind.Name,
				Pipeline: transforms,
			})
		case *ast.Pipeline:
			q.MainPipeline = append(q.MainPipeline, r.mainPipeline(kind.Exprs)...)
		default:
			r.error(stmt.Span, fmt.Errorf("unsupported statement kind %T", kind))
		}
	}
	return &q
}

// declareFunc resolves calls inside the body (so inlining later works on
// an already-resolved tree) and registers the definition under a dense
// DefID.
func (r *resolver) declareFunc(def ast.FuncDef, span ast.Span) {
	resolved, err := ast.FoldFuncDef(r, def)
	if err != nil {
		r.error(span, err)
		return
	}
	if _, ok := r.funcIDs[resolved.Name]; ok {
		r.error(span, fmt.Errorf("function %q redefined", resolved.Name))
		return
	}
	r.funcIDs[resolved.Name] = len(r.funcs)
	r.funcs = append(r.funcs, resolved)
}

// mainPipeline lowers top-level stages with per-stage error accumulation:
// a bad stage is reported and skipped so later stages still get checked.
func (r *resolver) mainPipeline(exprs []ast.Expr) []ast.Transform {
	var out []ast.Transform
	for _, e := range exprs {
		t, err := r.stage(e)
		if err != nil {
			r.error(e.Span, err)
			continue
		}
		out = append(out, t)
	}
	return out
}

func (r *resolver) error(span ast.Span, err error) {
	r.errs.Append(r.file, err.Error(), span.First, span.Last)
}

// transformNames is the built-in transform vocabulary, used for lowering
// and for closest-match suggestions.
var transformNames = []string{
	"aggregate",
	"derive",
	"filter",
	"from",
	"group",
	"join",
	"select",
	"sort",
	"take",
	"unique",
	"window",
}

// suggest returns the closest known transform or function name within
// edit distance 2, or the empty string.
func (r *resolver) suggest(name ast.Ident) string {
	best, bestDist := "", 3
	try := func(cand string) {
		if d := levenshtein.ComputeDistance(string(name), cand); d < bestDist {
			best, bestDist = cand, d
		}
	}
	for _, cand := range transformNames {
		try(cand)
	}
	for cand := range r.funcIDs {
		try(string(cand))
	}
	return best
}

func (r *resolver) unknownTransform(name ast.Ident) error {
	if s := r.suggest(name); s != "" {
		return fmt.Errorf("unknown transform %q (did you mean %q?)", name, s)
	}
	return fmt.Errorf("unknown transform %q", name)
}
