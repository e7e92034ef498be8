package ast_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/kr/pretty"
	"github.com/relq-lang/relq/compiler/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(e ast.Expr) *ast.Expr { return &e }

func id(name string) ast.Expr { return *ast.NewID(ast.Ident(name)) }

func intLit(text string) ast.Expr { return *ast.NewLiteral("int", text) }

func rng(start, end *ast.Expr) ast.Range {
	return ast.Range{Kind: "Range", Start: start, End: end}
}

// coverageStmts builds a statement list containing at least one instance
// of every statement and expression variant.
func coverageStmts() []ast.Stmt {
	ty := &ast.TyParameterized{
		Kind: "TyParameterized",
		Ty: &ast.TyAnyOf{
			Kind: "TyAnyOf",
			Tys:  []ast.Ty{&ast.TyLiteral{Kind: "TyLiteral", Name: "int"}, &ast.TyTable{Kind: "TyTable"}},
		},
		Param: ptr(id("width")),
	}
	kitchenSink := []ast.Expr{
		id("a"),
		*ast.NewBinary("+", ptr(id("b")), ptr(intLit("1"))),
		{Kind: &ast.UnaryExpr{Kind: "UnaryExpr", Op: "-", Operand: ptr(id("c"))}},
		{Kind: &ast.ListExpr{Kind: "ListExpr", Elems: []ast.Expr{id("d"), id("e")}}},
		{Kind: &ast.Range{Kind: "Range", Start: ptr(id("lo")), End: nil}},
		{Kind: &ast.SString{Kind: "SString", Elems: []ast.InterpolateItem{
			&ast.TextItem{Kind: "TextItem", Text: "count("},
			&ast.ExprItem{Kind: "ExprItem", Expr: ptr(id("f"))},
			&ast.TextItem{Kind: "TextItem", Text: ")"},
		}}},
		{Kind: &ast.FString{Kind: "FString", Elems: []ast.InterpolateItem{
			&ast.ExprItem{Kind: "ExprItem", Expr: ptr(id("g"))},
		}}},
		{Kind: &ast.FuncCall{Kind: "FuncCall", Name: "upper", Args: []ast.Expr{id("h")},
			NamedArgs: []ast.NamedArg{{Name: "mode", Expr: id("i")}}}},
		{Kind: &ast.FuncCurry{Kind: "FuncCurry", DefID: 7, Args: []ast.Expr{id("j")},
			NamedArgs: []*ast.Expr{nil, ptr(id("k"))}}},
		{Kind: &ast.Windowed{Kind: "Windowed", Expr: ptr(id("l")),
			Group: []ast.Expr{id("m")},
			Sort:  []ast.ColumnSort{{Direction: ast.SortDesc, Column: id("n")}},
			WindowKind: ast.WindowRows, WindowRange: rng(ptr(intLit("0")), ptr(intLit("5")))}},
		{Kind: &ast.TypeValue{Kind: "TypeValue", Value: ty}},
		{Kind: &ast.ResolvedPipeline{Kind: "ResolvedPipeline", Transforms: []ast.Transform{
			{Kind: &ast.Filter{Kind: "Filter", Expr: ptr(id("o"))}},
		}}},
		{Kind: &ast.Empty{Kind: "Empty"}},
		intLit("42"),
		{Kind: &ast.Interval{Kind: "Interval", Value: "3", Unit: "days"}},
	}
	return []ast.Stmt{
		{Kind: &ast.QueryDef{Kind: "QueryDef", Version: "1", Dialect: "generic"}},
		{Kind: &ast.FuncDef{
			Kind: "FuncDef",
			Name: "add",
			PositionalParams: []ast.FuncParam{{Name: "x"}, {Name: "y"}},
			NamedParams:      []ast.FuncParam{{Name: "scale", DefaultValue: ptr(intLit("1"))}},
			Body:             ast.NewBinary("+", ptr(id("x")), ptr(id("y"))),
		}},
		{Kind: &ast.TableDef{Kind: "TableDef", ID: 1, Name: "recent", Pipeline: ptr(ast.Expr{
			Kind: &ast.Pipeline{Kind: "Pipeline", Exprs: kitchenSink},
		})}},
		{Kind: &ast.Pipeline{Kind: "Pipeline", Exprs: []ast.Expr{id("p")}}},
	}
}

// coverageQuery builds a resolved query containing every transform
// variant, with idents nested inside group and window sub-pipelines.
func coverageQuery() ast.Query {
	return ast.Query{
		Def: ast.QueryDef{Kind: "QueryDef", Version: "1"},
		MainPipeline: []ast.Transform{
			{Kind: &ast.From{Kind: "From", Table: ast.TableRef{Name: "employees", Alias: "e", ID: 1}}},
			{Kind: &ast.Derive{Kind: "Derive", Assigns: []ast.Expr{id("gross")}}},
			{Kind: &ast.Select{Kind: "Select", Assigns: []ast.Expr{id("name"), id("gross")}}},
			{Kind: &ast.Aggregate{Kind: "Aggregate",
				Assigns: []ast.Expr{id("total")}, By: []ast.Expr{id("dept")}}},
			{Kind: &ast.Filter{Kind: "Filter",
				Expr: ptr(*ast.NewBinary(">", ptr(id("age")), ptr(intLit("30"))))}},
			{Kind: &ast.Sort{Kind: "Sort",
				By: []ast.ColumnSort{{Direction: ast.SortAsc, Column: id("name")}}}},
			{Kind: &ast.Join{Kind: "Join", Side: ast.JoinLeft,
				With:   ast.TableRef{Name: "salaries", ID: 2},
				Filter: &ast.JoinOn{Kind: "JoinOn", Exprs: []ast.Expr{id("emp_id")}}}},
			{Kind: &ast.Group{Kind: "Group", By: []ast.Expr{id("dept")},
				Pipeline: []ast.Transform{
					{Kind: &ast.Filter{Kind: "Filter", Expr: ptr(id("grouped"))}},
					{Kind: &ast.Take{Kind: "Take", Range: rng(nil, ptr(intLit("3")))}},
				}}},
			{Kind: &ast.Window{Kind: "Window", WindowKind: ast.WindowRange,
				Range: rng(ptr(id("lo")), ptr(id("hi"))),
				Pipeline: []ast.Transform{
					{Kind: &ast.Sort{Kind: "Sort",
						By: []ast.ColumnSort{{Direction: ast.SortDesc, Column: id("windowed")}}}},
				}}},
			{Kind: &ast.Take{Kind: "Take", Range: rng(ptr(intLit("1")), ptr(intLit("10"))),
				By:   []ast.Expr{id("dept")},
				Sort: []ast.ColumnSort{{Direction: ast.SortAsc, Column: id("age")}}}},
			{Kind: &ast.Unique{Kind: "Unique"}},
		},
		Tables: []ast.Table{
			{ID: 1, Name: "t1", Pipeline: []ast.Transform{
				{Kind: &ast.From{Kind: "From", Table: ast.TableRef{Name: "orders", ID: 3}}},
				{Kind: &ast.Join{Kind: "Join", Side: ast.JoinInner,
					With:   ast.TableRef{Name: "lines", ID: 4},
					Filter: &ast.JoinUsing{Kind: "JoinUsing", Exprs: []ast.Expr{id("order_id")}}}},
			}},
			{ID: 2, Name: "t2", Pipeline: []ast.Transform{
				{Kind: &ast.From{Kind: "From", Table: ast.TableRef{Name: "customers", ID: 5}}},
			}},
		},
	}
}

func TestIdentityFoldStmts(t *testing.T) {
	stmts := coverageStmts()
	folded, err := (&ast.Base{}).FoldStmts(stmts)
	require.NoError(t, err)
	require.Equal(t, stmts, folded, "identity fold changed the tree: %v", pretty.Diff(stmts, folded))
}

func TestIdentityFoldQuery(t *testing.T) {
	q := coverageQuery()
	folded, err := (&ast.Base{}).FoldQuery(q)
	require.NoError(t, err)
	require.Equal(t, q, folded, "identity fold changed the query: %v", pretty.Diff(q, folded))
}

func TestLeafPassThrough(t *testing.T) {
	base := &ast.Base{}
	for _, leaf := range []ast.ExprKind{
		&ast.Empty{Kind: "Empty"},
		&ast.Literal{Kind: "Literal", Type: "int", Text: "42"},
		&ast.Interval{Kind: "Interval", Value: "3", Unit: "days"},
	} {
		folded, err := base.FoldExprKind(leaf)
		require.NoError(t, err)
		assert.Same(t, leaf, folded)
	}
	unique := ast.Transform{Kind: &ast.Unique{Kind: "Unique"}}
	folded, err := base.FoldTransform(unique)
	require.NoError(t, err)
	assert.Same(t, unique.Kind, folded.Kind)
	def := &ast.QueryDef{Kind: "QueryDef", Version: "1"}
	kind, err := ast.FoldStmtKind(base, def)
	require.NoError(t, err)
	assert.Same(t, ast.StmtKind(def), kind)
	lit := &ast.TyLiteral{Kind: "TyLiteral", Name: "int"}
	ty, err := base.FoldType(lit)
	require.NoError(t, err)
	assert.Same(t, ast.Ty(lit), ty)
}

// marker appends "!" to every ident it reaches.
type marker struct {
	ast.Base
}

func (m *marker) FoldIdent(id ast.Ident) (ast.Ident, error) {
	return id + "!", nil
}

// collector records every ident in visitation order.
type collector struct {
	ast.Base
	names []ast.Ident
}

func (c *collector) FoldIdent(id ast.Ident) (ast.Ident, error) {
	c.names = append(c.names, id)
	return id, nil
}

func collectIdents(t *testing.T, stmts []ast.Stmt, q ast.Query) []ast.Ident {
	c := &collector{}
	c.Self = c
	_, err := c.FoldStmts(stmts)
	require.NoError(t, err)
	_, err = c.FoldQuery(q)
	require.NoError(t, err)
	return c.names
}

func TestMarkerReachesEveryIdent(t *testing.T) {
	m := &marker{}
	m.Self = m
	stmts, err := m.FoldStmts(coverageStmts())
	require.NoError(t, err)
	q, err := m.FoldQuery(coverageQuery())
	require.NoError(t, err)

	before := collectIdents(t, coverageStmts(), coverageQuery())
	after := collectIdents(t, stmts, q)
	require.Equal(t, len(before), len(after))
	require.NotEmpty(t, after)
	for _, name := range after {
		assert.True(t, strings.HasSuffix(string(name), "!"), "unmarked ident %q", name)
	}

	// Spot-check the deeply nested spots: group and window sub-pipelines,
	// interpolations, range bounds, and the filled curry slot.
	assert.Contains(t, after, ast.Ident("grouped!"))
	assert.Contains(t, after, ast.Ident("windowed!"))
	assert.Contains(t, after, ast.Ident("f!"))
	assert.Contains(t, after, ast.Ident("g!"))
	assert.Contains(t, after, ast.Ident("lo!"))
	assert.Contains(t, after, ast.Ident("k!"))

	// The unfilled curry slot stays unfilled.
	table := stmts[2].Kind.(*ast.TableDef)
	pipeline := table.Pipeline.Kind.(*ast.Pipeline)
	var curry *ast.FuncCurry
	for _, e := range pipeline.Exprs {
		if c, ok := e.Kind.(*ast.FuncCurry); ok {
			curry = c
		}
	}
	require.NotNil(t, curry)
	require.Len(t, curry.NamedArgs, 2)
	assert.Nil(t, curry.NamedArgs[0])
	require.NotNil(t, curry.NamedArgs[1])
	assert.Equal(t, ast.Ident("k!"), curry.NamedArgs[1].Kind.(*ast.ID).Name)
}

func TestFuncCallNameIsNotFolded(t *testing.T) {
	m := &marker{}
	m.Self = m
	call := ast.FuncCall{Kind: "FuncCall", Name: "upper", Args: []ast.Expr{id("x")}}
	folded, err := m.FoldFuncCall(call)
	require.NoError(t, err)
	assert.Equal(t, ast.Ident("upper"), folded.Name)
	assert.Equal(t, ast.Ident("x!"), folded.Args[0].Kind.(*ast.ID).Name)
}

func TestVisitationOrder(t *testing.T) {
	c := &collector{}
	c.Self = c
	p := ast.Pipeline{Kind: "Pipeline", Exprs: []ast.Expr{id("a"), id("b"), id("c")}}
	_, err := c.FoldPipeline(p)
	require.NoError(t, err)
	assert.Equal(t, []ast.Ident{"a", "b", "c"}, c.names)

	c.names = nil
	_, err = c.FoldExpr(*ast.NewBinary("+", ptr(id("left")), ptr(id("right"))))
	require.NoError(t, err)
	assert.Equal(t, []ast.Ident{"left", "right"}, c.names)
}

// bomb fails on a designated ident and counts expression visits.
type bomb struct {
	ast.Base
	visits int
}

var errBoom = errors.New("boom")

func (b *bomb) FoldExpr(e ast.Expr) (ast.Expr, error) {
	b.visits++
	if id, ok := e.Kind.(*ast.ID); ok && id.Name == "bad" {
		return ast.Expr{}, errBoom
	}
	return ast.FoldExpr(b, e)
}

func TestFailFast(t *testing.T) {
	b := &bomb{}
	b.Self = b
	derive := ast.Transform{Kind: &ast.Derive{Kind: "Derive",
		Assigns: []ast.Expr{id("ok"), id("bad"), id("never")}}}
	_, err := b.FoldTransform(derive)
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, 2, b.visits, "third element must not be visited after a failure")
}

func TestTableIdentityPreserved(t *testing.T) {
	m := &marker{}
	m.Self = m
	q, err := m.FoldQuery(coverageQuery())
	require.NoError(t, err)
	require.Len(t, q.Tables, 2)
	assert.Equal(t, 1, q.Tables[0].ID)
	assert.Equal(t, ast.Ident("t1"), q.Tables[0].Name)
	assert.Equal(t, 2, q.Tables[1].ID)
	assert.Equal(t, ast.Ident("t2"), q.Tables[1].Name)
}

// typeTagger rewrites literal type names through the overridable hook.
type typeTagger struct {
	ast.Base
}

func (tt *typeTagger) FoldType(ty ast.Ty) (ast.Ty, error) {
	if lit, ok := ty.(*ast.TyLiteral); ok {
		return &ast.TyLiteral{Kind: lit.Kind, Name: lit.Name + "64"}, nil
	}
	return ast.FoldType(tt, ty)
}

// A type embedded in an expression is reached through the overridable
// FoldType hook, not a direct call to the default.
func TestTypeHookSeesExpressionTypes(t *testing.T) {
	tt := &typeTagger{}
	tt.Self = tt
	e := ast.Expr{Kind: &ast.TypeValue{Kind: "TypeValue",
		Value: &ast.TyLiteral{Kind: "TyLiteral", Name: "int"}}}
	folded, err := tt.FoldExpr(e)
	require.NoError(t, err)
	lit := folded.Kind.(*ast.TypeValue).Value.(*ast.TyLiteral)
	assert.Equal(t, "int64", lit.Name)
}
