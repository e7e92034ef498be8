// Package sfmt renders exprs, transforms, and queries back to canonical
// RelQ text.  The output is for diagnostics, logging, and tests; it is
// not guaranteed to reparse.
package sfmt

import (
	"fmt"
	"strings"

	"github.com/relq-lang/relq/compiler/ast"
)

func Expr(e ast.Expr) string {
	c := &canon{}
	c.expr(e, "")
	return c.String()
}

func Transforms(transforms []ast.Transform) string {
	c := &canon{}
	c.transforms(transforms)
	return c.String()
}

func Query(q ast.Query) string {
	c := &canon{}
	for _, t := range q.Tables {
		c.write("table %s = (", t.Name)
		c.transforms(t.Pipeline)
		c.write(")\n")
	}
	c.transforms(q.MainPipeline)
	return c.String()
}

type canon struct {
	strings.Builder
}

func (c *canon) write(format string, args ...any) {
	fmt.Fprintf(c, format, args...)
}

func (c *canon) transforms(transforms []ast.Transform) {
	for i, t := range transforms {
		if i > 0 {
			c.write(" | ")
		}
		c.transform(t)
	}
}

func (c *canon) transform(t ast.Transform) {
	switch kind := t.Kind.(type) {
	case *ast.From:
		c.write("from ")
		c.tableRef(kind.Table)
	case *ast.Derive:
		c.write("derive ")
		c.exprList(kind.Assigns)
	case *ast.Select:
		c.write("select ")
		c.exprList(kind.Assigns)
	case *ast.Aggregate:
		c.write("aggregate ")
		c.exprList(kind.Assigns)
		if len(kind.By) > 0 {
			c.write(" by:")
			c.exprList(kind.By)
		}
	case *ast.Filter:
		c.write("filter ")
		c.expr(*kind.Expr, "filter")
	case *ast.Sort:
		c.write("sort ")
		c.columnSorts(kind.By)
	case *ast.Join:
		c.write("join side:%s ", kind.Side)
		c.tableRef(kind.With)
		switch filter := kind.Filter.(type) {
		case *ast.JoinOn:
			c.write(" on:")
			c.exprList(filter.Exprs)
		case *ast.JoinUsing:
			c.write(" using:")
			c.exprList(filter.Exprs)
		}
	case *ast.Group:
		c.write("group ")
		c.exprList(kind.By)
		c.write(" (")
		c.transforms(kind.Pipeline)
		c.write(")")
	case *ast.Window:
		c.write("window %s:", kind.WindowKind)
		c.rangeBounds(kind.Range)
		c.write(" (")
		c.transforms(kind.Pipeline)
		c.write(")")
	case *ast.Take:
		c.write("take ")
		if kind.Range.Start == nil && kind.Range.End != nil {
			c.expr(*kind.Range.End, "take")
		} else {
			c.rangeBounds(kind.Range)
		}
	case *ast.Unique:
		c.write("unique")
	default:
		c.write("<%T>", kind)
	}
}

func (c *canon) tableRef(ref ast.TableRef) {
	if ref.Alias != "" {
		c.write("%s = ", ref.Alias)
	}
	c.write("%s", ref.Name)
}

func (c *canon) expr(e ast.Expr, parent string) {
	switch kind := e.Kind.(type) {
	case *ast.ID:
		c.write("%s", kind.Name)
	case *ast.Literal:
		if kind.Type == "string" {
			c.write("%q", kind.Text)
		} else {
			c.write("%s", kind.Text)
		}
	case *ast.Interval:
		c.write("%s%s", kind.Value, kind.Unit)
	case *ast.BinaryExpr:
		nested := parent == "binary"
		if nested {
			c.write("(")
		}
		c.expr(*kind.LHS, "binary")
		c.write(" %s ", kind.Op)
		c.expr(*kind.RHS, "binary")
		if nested {
			c.write(")")
		}
	case *ast.UnaryExpr:
		c.write("%s", kind.Op)
		c.expr(*kind.Operand, "unary")
	case *ast.ListExpr:
		c.exprList(kind.Elems)
	case *ast.Range:
		c.rangeBounds(*kind)
	case *ast.Pipeline:
		c.write("(")
		for i, stage := range kind.Exprs {
			if i > 0 {
				c.write(" | ")
			}
			c.expr(stage, "pipeline")
		}
		c.write(")")
	case *ast.SString:
		c.write("s")
		c.interpolation(kind.Elems)
	case *ast.FString:
		c.write("f")
		c.interpolation(kind.Elems)
	case *ast.FuncCall:
		c.write("%s", kind.Name)
		for _, arg := range kind.Args {
			c.write(" ")
			c.expr(arg, "call")
		}
		for _, na := range kind.NamedArgs {
			c.write(" %s:", na.Name)
			c.expr(na.Expr, "call")
		}
	case *ast.FuncCurry:
		c.write("curry#%d", kind.DefID)
		for _, arg := range kind.Args {
			c.write(" ")
			c.expr(arg, "call")
		}
		for _, slot := range kind.NamedArgs {
			if slot == nil {
				c.write(" _")
			} else {
				c.write(" ")
				c.expr(*slot, "call")
			}
		}
	case *ast.Windowed:
		c.expr(*kind.Expr, "windowed")
		c.write(" over %s:", kind.WindowKind)
		c.rangeBounds(kind.WindowRange)
	case *ast.TypeValue:
		c.typ(kind.Value)
	case *ast.ResolvedPipeline:
		c.write("(")
		c.transforms(kind.Transforms)
		c.write(")")
	case *ast.Empty:
		c.write("()")
	default:
		c.write("<%T>", kind)
	}
}

func (c *canon) exprList(exprs []ast.Expr) {
	c.write("[")
	for i, e := range exprs {
		if i > 0 {
			c.write(", ")
		}
		c.expr(e, "list")
	}
	c.write("]")
}

func (c *canon) columnSorts(columns []ast.ColumnSort) {
	c.write("[")
	for i, col := range columns {
		if i > 0 {
			c.write(", ")
		}
		if col.Direction == ast.SortDesc {
			c.write("-")
		}
		c.expr(col.Column, "sort")
	}
	c.write("]")
}

func (c *canon) rangeBounds(r ast.Range) {
	if r.Start != nil {
		c.expr(*r.Start, "range")
	}
	c.write("..")
	if r.End != nil {
		c.expr(*r.End, "range")
	}
}

func (c *canon) interpolation(elems []ast.InterpolateItem) {
	c.write(`"`)
	for _, elem := range elems {
		switch elem := elem.(type) {
		case *ast.TextItem:
			c.write("%s", elem.Text)
		case *ast.ExprItem:
			c.write("{")
			c.expr(*elem.Expr, "interpolate")
			c.write("}")
		}
	}
	c.write(`"`)
}

func (c *canon) typ(t ast.Ty) {
	switch t := t.(type) {
	case *ast.TyLiteral:
		c.write("%s", t.Name)
	case *ast.TyParameterized:
		c.typ(t.Ty)
		c.write("<")
		if t.Param != nil {
			c.expr(*t.Param, "type")
		}
		c.write(">")
	case *ast.TyAnyOf:
		for i, member := range t.Tys {
			if i > 0 {
				c.write("|")
			}
			c.typ(member)
		}
	case *ast.TyTable:
		c.write("table")
	case *ast.TyInfer:
		c.write("infer")
	default:
		c.write("<%T>", t)
	}
}
