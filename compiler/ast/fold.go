package ast

// The fold engine rewrites a tree by structural recursion: one overridable
// method per syntactic category, each with a default implementation that
// folds the node's children in declared field order and reassembles the
// parent.  A pass embeds Base, points Base.Self at itself, and overrides
// only the categories it changes; every other category falls back to
// default recursion, so the pass reaches its nodes anywhere in the tree
// without re-deriving traversal order.
//
// The default recursion lives in exported free functions (FoldExprKind,
// FoldTransform, ...) parameterized over Folder rather than inside Base's
// method bodies, so an override can still invoke the default behavior
// explicitly without recursing into itself.
//
// Folds are fail-fast: the first error encountered in visitation order
// aborts the enclosing composite and propagates unchanged.  Every fold
// consumes its node by value and returns a fresh node; the engine holds no
// state of its own.

type Folder interface {
	FoldStmt(Stmt) (Stmt, error)
	FoldStmts([]Stmt) ([]Stmt, error)
	FoldExpr(Expr) (Expr, error)
	FoldExprKind(ExprKind) (ExprKind, error)
	FoldExprs([]Expr) ([]Expr, error)
	FoldIdent(Ident) (Ident, error)
	FoldTableDef(TableDef) (TableDef, error)
	FoldTransform(Transform) (Transform, error)
	FoldTransforms([]Transform) ([]Transform, error)
	FoldPipeline(Pipeline) (Pipeline, error)
	FoldFuncDef(FuncDef) (FuncDef, error)
	FoldFuncCall(FuncCall) (FuncCall, error)
	FoldFuncCurry(FuncCurry) (FuncCurry, error)
	FoldTableRef(TableRef) (TableRef, error)
	FoldInterpolateItem(InterpolateItem) (InterpolateItem, error)
	FoldColumnSort(ColumnSort) (ColumnSort, error)
	FoldColumnSorts([]ColumnSort) ([]ColumnSort, error)
	FoldJoinFilter(JoinFilter) (JoinFilter, error)
	FoldType(Ty) (Ty, error)
	FoldWindowed(Windowed) (Windowed, error)
	FoldQuery(Query) (Query, error)
}

// Base implements Folder with default structural recursion for every
// category.  The zero value is the identity fold.  A pass that overrides
// methods must set Self to the outermost value so that recursion dispatches
// through the overrides at any depth:
//
//	type marker struct{ ast.Base }
//	p := &marker{}
//	p.Self = p
type Base struct {
	Self Folder
}

func (b *Base) folder() Folder {
	if b.Self != nil {
		return b.Self
	}
	return b
}

func (b *Base) FoldStmt(s Stmt) (Stmt, error)           { return FoldStmt(b.folder(), s) }
func (b *Base) FoldStmts(s []Stmt) ([]Stmt, error)      { return FoldStmts(b.folder(), s) }
func (b *Base) FoldExpr(e Expr) (Expr, error)           { return FoldExpr(b.folder(), e) }
func (b *Base) FoldExprKind(k ExprKind) (ExprKind, error) {
	return FoldExprKind(b.folder(), k)
}
func (b *Base) FoldExprs(e []Expr) ([]Expr, error)      { return FoldExprs(b.folder(), e) }
func (b *Base) FoldIdent(id Ident) (Ident, error)       { return id, nil }
func (b *Base) FoldTableDef(t TableDef) (TableDef, error) {
	return FoldTableDef(b.folder(), t)
}
func (b *Base) FoldTransform(t Transform) (Transform, error) {
	return FoldTransform(b.folder(), t)
}
func (b *Base) FoldTransforms(t []Transform) ([]Transform, error) {
	return FoldTransforms(b.folder(), t)
}
func (b *Base) FoldPipeline(p Pipeline) (Pipeline, error) {
	return FoldPipeline(b.folder(), p)
}
func (b *Base) FoldFuncDef(f FuncDef) (FuncDef, error) {
	return FoldFuncDef(b.folder(), f)
}
func (b *Base) FoldFuncCall(c FuncCall) (FuncCall, error) {
	return FoldFuncCall(b.folder(), c)
}
func (b *Base) FoldFuncCurry(c FuncCurry) (FuncCurry, error) {
	return FoldFuncCurry(b.folder(), c)
}
func (b *Base) FoldTableRef(t TableRef) (TableRef, error) {
	return FoldTableRef(b.folder(), t)
}
func (b *Base) FoldInterpolateItem(item InterpolateItem) (InterpolateItem, error) {
	return FoldInterpolateItem(b.folder(), item)
}
func (b *Base) FoldColumnSort(c ColumnSort) (ColumnSort, error) {
	return FoldColumnSort(b.folder(), c)
}
func (b *Base) FoldColumnSorts(c []ColumnSort) ([]ColumnSort, error) {
	return FoldColumnSorts(b.folder(), c)
}
func (b *Base) FoldJoinFilter(f JoinFilter) (JoinFilter, error) {
	return FoldJoinFilter(b.folder(), f)
}
func (b *Base) FoldType(t Ty) (Ty, error)               { return FoldType(b.folder(), t) }
func (b *Base) FoldWindowed(w Windowed) (Windowed, error) {
	return FoldWindowed(b.folder(), w)
}
func (b *Base) FoldQuery(q Query) (Query, error)        { return FoldQuery(b.folder(), q) }

func FoldStmt(f Folder, s Stmt) (Stmt, error) {
	kind, err := FoldStmtKind(f, s.Kind)
	if err != nil {
		return Stmt{}, err
	}
	s.Kind = kind
	return s, nil
}

func FoldStmts(f Folder, stmts []Stmt) ([]Stmt, error) {
	var out []Stmt
	for _, s := range stmts {
		folded, err := f.FoldStmt(s)
		if err != nil {
			return nil, err
		}
		out = append(out, folded)
	}
	return out, nil
}

func FoldStmtKind(f Folder, kind StmtKind) (StmtKind, error) {
	switch kind := kind.(type) {
	case *FuncDef:
		def, err := f.FoldFuncDef(*kind)
		if err != nil {
			return nil, err
		}
		return &def, nil
	case *TableDef:
		t, err := f.FoldTableDef(*kind)
		if err != nil {
			return nil, err
		}
		return &t, nil
	case *Pipeline:
		p, err := f.FoldPipeline(*kind)
		if err != nil {
			return nil, err
		}
		return &p, nil
	}
	// QueryDef and any future leaf: no children, pass through.
	return kind, nil
}

func FoldExpr(f Folder, e Expr) (Expr, error) {
	kind, err := f.FoldExprKind(e.Kind)
	if err != nil {
		return Expr{}, err
	}
	e.Kind = kind
	return e, nil
}

func FoldExprs(f Folder, exprs []Expr) ([]Expr, error) {
	var out []Expr
	for _, e := range exprs {
		folded, err := f.FoldExpr(e)
		if err != nil {
			return nil, err
		}
		out = append(out, folded)
	}
	return out, nil
}

// FoldOptExpr folds an optional child.  A nil child stands for an absent
// value (an open range bound, an unfilled curry slot) and stays nil.
func FoldOptExpr(f Folder, e *Expr) (*Expr, error) {
	if e == nil {
		return nil, nil
	}
	folded, err := f.FoldExpr(*e)
	if err != nil {
		return nil, err
	}
	return &folded, nil
}

func FoldExprKind(f Folder, kind ExprKind) (ExprKind, error) {
	switch kind := kind.(type) {
	case *ID:
		name, err := f.FoldIdent(kind.Name)
		if err != nil {
			return nil, err
		}
		return &ID{Kind: kind.Kind, Name: name}, nil
	case *BinaryExpr:
		lhs, err := f.FoldExpr(*kind.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := f.FoldExpr(*kind.RHS)
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Kind: kind.Kind, Op: kind.Op, LHS: &lhs, RHS: &rhs}, nil
	case *UnaryExpr:
		operand, err := f.FoldExpr(*kind.Operand)
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Kind: kind.Kind, Op: kind.Op, Operand: &operand}, nil
	case *ListExpr:
		elems, err := f.FoldExprs(kind.Elems)
		if err != nil {
			return nil, err
		}
		return &ListExpr{Kind: kind.Kind, Elems: elems}, nil
	case *Range:
		r, err := FoldRange(f, *kind)
		if err != nil {
			return nil, err
		}
		return &r, nil
	case *Pipeline:
		p, err := f.FoldPipeline(*kind)
		if err != nil {
			return nil, err
		}
		return &p, nil
	case *SString:
		elems, err := foldInterpolateItems(f, kind.Elems)
		if err != nil {
			return nil, err
		}
		return &SString{Kind: kind.Kind, Elems: elems}, nil
	case *FString:
		elems, err := foldInterpolateItems(f, kind.Elems)
		if err != nil {
			return nil, err
		}
		return &FString{Kind: kind.Kind, Elems: elems}, nil
	case *FuncCall:
		call, err := f.FoldFuncCall(*kind)
		if err != nil {
			return nil, err
		}
		return &call, nil
	case *FuncCurry:
		curry, err := f.FoldFuncCurry(*kind)
		if err != nil {
			return nil, err
		}
		return &curry, nil
	case *Windowed:
		w, err := f.FoldWindowed(*kind)
		if err != nil {
			return nil, err
		}
		return &w, nil
	case *TypeValue:
		t, err := f.FoldType(kind.Value)
		if err != nil {
			return nil, err
		}
		return &TypeValue{Kind: kind.Kind, Value: t}, nil
	case *ResolvedPipeline:
		transforms, err := f.FoldTransforms(kind.Transforms)
		if err != nil {
			return nil, err
		}
		return &ResolvedPipeline{Kind: kind.Kind, Transforms: transforms}, nil
	}
	// Empty, Literal, Interval, and any future leaf: no children to
	// capture, pass through.
	return kind, nil
}

func foldInterpolateItems(f Folder, items []InterpolateItem) ([]InterpolateItem, error) {
	var out []InterpolateItem
	for _, item := range items {
		folded, err := f.FoldInterpolateItem(item)
		if err != nil {
			return nil, err
		}
		out = append(out, folded)
	}
	return out, nil
}

func FoldInterpolateItem(f Folder, item InterpolateItem) (InterpolateItem, error) {
	switch item := item.(type) {
	case *TextItem:
		// Literal text is opaque.
		return item, nil
	case *ExprItem:
		e, err := f.FoldExpr(*item.Expr)
		if err != nil {
			return nil, err
		}
		return &ExprItem{Kind: item.Kind, Expr: &e}, nil
	}
	return item, nil
}

func FoldPipeline(f Folder, p Pipeline) (Pipeline, error) {
	exprs, err := f.FoldExprs(p.Exprs)
	if err != nil {
		return Pipeline{}, err
	}
	return Pipeline{Kind: p.Kind, Exprs: exprs}, nil
}

func FoldRange(f Folder, r Range) (Range, error) {
	start, err := FoldOptExpr(f, r.Start)
	if err != nil {
		return Range{}, err
	}
	end, err := FoldOptExpr(f, r.End)
	if err != nil {
		return Range{}, err
	}
	return Range{Kind: r.Kind, Start: start, End: end}, nil
}

func FoldWindowed(f Folder, w Windowed) (Windowed, error) {
	e, err := f.FoldExpr(*w.Expr)
	if err != nil {
		return Windowed{}, err
	}
	group, err := f.FoldExprs(w.Group)
	if err != nil {
		return Windowed{}, err
	}
	sort, err := f.FoldColumnSorts(w.Sort)
	if err != nil {
		return Windowed{}, err
	}
	r, err := FoldRange(f, w.WindowRange)
	if err != nil {
		return Windowed{}, err
	}
	return Windowed{
		Kind:        w.Kind,
		Expr:        &e,
		Group:       group,
		Sort:        sort,
		WindowKind:  w.WindowKind,
		WindowRange: r,
	}, nil
}

func FoldColumnSort(f Folder, c ColumnSort) (ColumnSort, error) {
	column, err := f.FoldExpr(c.Column)
	if err != nil {
		return ColumnSort{}, err
	}
	return ColumnSort{Direction: c.Direction, Column: column}, nil
}

func FoldColumnSorts(f Folder, columns []ColumnSort) ([]ColumnSort, error) {
	var out []ColumnSort
	for _, c := range columns {
		folded, err := f.FoldColumnSort(c)
		if err != nil {
			return nil, err
		}
		out = append(out, folded)
	}
	return out, nil
}

// FoldFuncCall folds a call's argument values.  Name is the call's
// identity and is not rewritten.
func FoldFuncCall(f Folder, call FuncCall) (FuncCall, error) {
	args, err := f.FoldExprs(call.Args)
	if err != nil {
		return FuncCall{}, err
	}
	var named []NamedArg
	for _, na := range call.NamedArgs {
		e, err := f.FoldExpr(na.Expr)
		if err != nil {
			return FuncCall{}, err
		}
		named = append(named, NamedArg{Name: na.Name, Expr: e})
	}
	return FuncCall{Kind: call.Kind, Name: call.Name, Args: args, NamedArgs: named}, nil
}

// FoldFuncCurry folds a partial application's filled slots.  DefID is a
// stable binding and is not rewritten; unfilled named slots stay nil so
// the distinction between "deliberately unfilled" and "filled with a
// value" survives every pass.
func FoldFuncCurry(f Folder, curry FuncCurry) (FuncCurry, error) {
	args, err := f.FoldExprs(curry.Args)
	if err != nil {
		return FuncCurry{}, err
	}
	var named []*Expr
	for _, slot := range curry.NamedArgs {
		folded, err := FoldOptExpr(f, slot)
		if err != nil {
			return FuncCurry{}, err
		}
		named = append(named, folded)
	}
	return FuncCurry{Kind: curry.Kind, DefID: curry.DefID, Args: args, NamedArgs: named}, nil
}

func FoldFuncDef(f Folder, def FuncDef) (FuncDef, error) {
	name, err := f.FoldIdent(def.Name)
	if err != nil {
		return FuncDef{}, err
	}
	positional, err := FoldFuncParams(f, def.PositionalParams)
	if err != nil {
		return FuncDef{}, err
	}
	named, err := FoldFuncParams(f, def.NamedParams)
	if err != nil {
		return FuncDef{}, err
	}
	body, err := f.FoldExpr(*def.Body)
	if err != nil {
		return FuncDef{}, err
	}
	return FuncDef{
		Kind:             def.Kind,
		Name:             name,
		PositionalParams: positional,
		NamedParams:      named,
		Body:             &body,
		ReturnTy:         def.ReturnTy,
	}, nil
}

func FoldFuncParams(f Folder, params []FuncParam) ([]FuncParam, error) {
	var out []FuncParam
	for _, p := range params {
		dflt, err := FoldOptExpr(f, p.DefaultValue)
		if err != nil {
			return nil, err
		}
		out = append(out, FuncParam{Name: p.Name, Ty: p.Ty, DefaultValue: dflt})
	}
	return out, nil
}

func FoldTableDef(f Folder, t TableDef) (TableDef, error) {
	name, err := f.FoldIdent(t.Name)
	if err != nil {
		return TableDef{}, err
	}
	pipeline, err := f.FoldExpr(*t.Pipeline)
	if err != nil {
		return TableDef{}, err
	}
	return TableDef{Kind: t.Kind, ID: t.ID, Name: name, Pipeline: &pipeline}, nil
}

// FoldTableRef folds a reference's name and alias; ID and the remaining
// fields are stable identity and copy through.
func FoldTableRef(f Folder, t TableRef) (TableRef, error) {
	name, err := f.FoldIdent(t.Name)
	if err != nil {
		return TableRef{}, err
	}
	alias := t.Alias
	if alias != "" {
		if alias, err = f.FoldIdent(alias); err != nil {
			return TableRef{}, err
		}
	}
	t.Name = name
	t.Alias = alias
	return t, nil
}

func FoldTransform(f Folder, t Transform) (Transform, error) {
	kind, err := foldTransformKind(f, t.Kind)
	if err != nil {
		return Transform{}, err
	}
	t.Kind = kind
	return t, nil
}

func foldTransformKind(f Folder, kind TransformKind) (TransformKind, error) {
	switch kind := kind.(type) {
	case *From:
		table, err := f.FoldTableRef(kind.Table)
		if err != nil {
			return nil, err
		}
		return &From{Kind: kind.Kind, Table: table}, nil
	case *Derive:
		assigns, err := f.FoldExprs(kind.Assigns)
		if err != nil {
			return nil, err
		}
		return &Derive{Kind: kind.Kind, Assigns: assigns}, nil
	case *Select:
		assigns, err := f.FoldExprs(kind.Assigns)
		if err != nil {
			return nil, err
		}
		return &Select{Kind: kind.Kind, Assigns: assigns}, nil
	case *Aggregate:
		assigns, err := f.FoldExprs(kind.Assigns)
		if err != nil {
			return nil, err
		}
		by, err := f.FoldExprs(kind.By)
		if err != nil {
			return nil, err
		}
		return &Aggregate{Kind: kind.Kind, Assigns: assigns, By: by}, nil
	case *Filter:
		e, err := f.FoldExpr(*kind.Expr)
		if err != nil {
			return nil, err
		}
		return &Filter{Kind: kind.Kind, Expr: &e}, nil
	case *Sort:
		by, err := f.FoldColumnSorts(kind.By)
		if err != nil {
			return nil, err
		}
		return &Sort{Kind: kind.Kind, By: by}, nil
	case *Join:
		with, err := f.FoldTableRef(kind.With)
		if err != nil {
			return nil, err
		}
		filter, err := f.FoldJoinFilter(kind.Filter)
		if err != nil {
			return nil, err
		}
		return &Join{Kind: kind.Kind, Side: kind.Side, With: with, Filter: filter}, nil
	case *Group:
		by, err := f.FoldExprs(kind.By)
		if err != nil {
			return nil, err
		}
		pipeline, err := f.FoldTransforms(kind.Pipeline)
		if err != nil {
			return nil, err
		}
		return &Group{Kind: kind.Kind, By: by, Pipeline: pipeline}, nil
	case *Window:
		r, err := FoldRange(f, kind.Range)
		if err != nil {
			return nil, err
		}
		pipeline, err := f.FoldTransforms(kind.Pipeline)
		if err != nil {
			return nil, err
		}
		return &Window{
			Kind:       kind.Kind,
			WindowKind: kind.WindowKind,
			Range:      r,
			Pipeline:   pipeline,
		}, nil
	case *Take:
		r, err := FoldRange(f, kind.Range)
		if err != nil {
			return nil, err
		}
		by, err := f.FoldExprs(kind.By)
		if err != nil {
			return nil, err
		}
		sort, err := f.FoldColumnSorts(kind.Sort)
		if err != nil {
			return nil, err
		}
		return &Take{Kind: kind.Kind, Range: r, By: by, Sort: sort}, nil
	}
	// Unique and any future leaf: pass through.
	return kind, nil
}

func FoldTransforms(f Folder, transforms []Transform) ([]Transform, error) {
	var out []Transform
	for _, t := range transforms {
		folded, err := f.FoldTransform(t)
		if err != nil {
			return nil, err
		}
		out = append(out, folded)
	}
	return out, nil
}

func FoldJoinFilter(f Folder, filter JoinFilter) (JoinFilter, error) {
	switch filter := filter.(type) {
	case *JoinOn:
		exprs, err := f.FoldExprs(filter.Exprs)
		if err != nil {
			return nil, err
		}
		return &JoinOn{Kind: filter.Kind, Exprs: exprs}, nil
	case *JoinUsing:
		exprs, err := f.FoldExprs(filter.Exprs)
		if err != nil {
			return nil, err
		}
		return &JoinUsing{Kind: filter.Kind, Exprs: exprs}, nil
	}
	return filter, nil
}

// FoldType recurses into the composite type forms only.  Member types
// recurse through this function rather than the Folder hook so that an
// overriding FoldType can call here for the default behavior without
// recursing into itself; the value-expression parameter dispatches through
// the interface as usual.
func FoldType(f Folder, t Ty) (Ty, error) {
	switch t := t.(type) {
	case *TyParameterized:
		inner, err := FoldType(f, t.Ty)
		if err != nil {
			return nil, err
		}
		param, err := FoldOptExpr(f, t.Param)
		if err != nil {
			return nil, err
		}
		return &TyParameterized{Kind: t.Kind, Ty: inner, Param: param}, nil
	case *TyAnyOf:
		var tys []Ty
		for _, member := range t.Tys {
			folded, err := FoldType(f, member)
			if err != nil {
				return nil, err
			}
			tys = append(tys, folded)
		}
		return &TyAnyOf{Kind: t.Kind, Tys: tys}, nil
	}
	// TyLiteral and the other leaf forms.
	return t, nil
}

// FoldQuery folds the main pipeline and each table's pipeline.  Table ID
// and Name are stable identity, not content, and the table list is never
// reordered.
func FoldQuery(f Folder, q Query) (Query, error) {
	main, err := f.FoldTransforms(q.MainPipeline)
	if err != nil {
		return Query{}, err
	}
	var tables []Table
	for _, t := range q.Tables {
		pipeline, err := f.FoldTransforms(t.Pipeline)
		if err != nil {
			return Query{}, err
		}
		tables = append(tables, Table{ID: t.ID, Name: t.Name, Pipeline: pipeline})
	}
	return Query{Def: q.Def, MainPipeline: main, Tables: tables}, nil
}
