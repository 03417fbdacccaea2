// © 2026 Polyfront Authors
//
// SPDX-License-Identifier: Apache-2.0

package scala

import (
	"strings"

	"gopkg.polyfront.org/frontend.go/internal/ast"
	"gopkg.polyfront.org/frontend.go/internal/exc"
	"gopkg.polyfront.org/frontend.go/internal/lang"
)

// Lower transforms a Scala-family CST into the Generic AST. Top-level and
// template-member names resolve as globals qualified by the enclosing
// package (and template) path; parameters and block-local definitions
// resolve lexically. Failures are unit-granular.
func Lower(prog *cstProgram, cfg lang.Config) (*ast.Program, exc.Exception) {
	lw := &lowerer{uri: prog.URI, cfg: cfg, pkg: dottedValue(prog.pkg)}
	e := newEnv()
	for _, s := range prog.stmts {
		e = lw.declare(e, s, ast.ResolvedGlobal, lw.pkg)
	}
	out := []ast.Stmt{}
	for _, s := range prog.stmts {
		stmts, next, err := lw.fromStmt(e, s)
		if err != nil {
			return nil, err
		}
		out = append(out, stmts...)
		e = next
	}
	return &ast.Program{URI: prog.URI, Stmts: out}, nil
}

type lowerer struct {
	uri string
	cfg lang.Config
	pkg string
}

// env is the lexical scope, threaded by value so extensions never leak
// upward. Lookup walks most-recent-first.
type env struct {
	bindings []binding
}

type binding struct {
	name      string
	kind      ast.ResolutionKind
	qualifier string
}

func newEnv() env {
	return env{}
}

func (e env) bind(name string, kind ast.ResolutionKind, qualifier string) env {
	next := make([]binding, 0, len(e.bindings)+1)
	next = append(next, binding{name: name, kind: kind, qualifier: qualifier})
	next = append(next, e.bindings...)
	return env{bindings: next}
}

func (e env) lookup(name string) (ast.ResolutionKind, string) {
	for _, b := range e.bindings {
		if b.name == name {
			return b.kind, b.qualifier
		}
	}
	return ast.Unresolved, ""
}

func dottedValue(path []lang.Token) string {
	parts := make([]string, 0, len(path))
	for _, t := range path {
		parts = append(parts, t.Value)
	}
	return strings.Join(parts, ".")
}

func joinQualifier(outer string, name string) string {
	if outer == "" {
		return name
	}
	return outer + "." + name
}

func (lw *lowerer) loc(info lang.Info) exc.Location {
	return exc.Location{
		URI:      lw.uri,
		Location: info.Span.Start,
	}
}

func (lw *lowerer) todo(category string, info lang.Info) exc.Exception {
	return exc.New(lw.loc(info), exc.CodeTodoConstruct, category)
}

func (lw *lowerer) unhandled(category string, info lang.Info) exc.Exception {
	return exc.New(lw.loc(info), exc.CodeUnhandledConstruct, category)
}

// declare pre-binds the name a definition introduces, so that siblings can
// reference each other regardless of order. Scala definitions in a template
// or compilation unit are mutually visible.
func (lw *lowerer) declare(e env, s stmt, kind ast.ResolutionKind, qualifier string) env {
	switch s := s.(type) {
	case *cstTemplate:
		return e.bind(s.name.Value, kind, qualifier)
	case *cstValDef:
		return e.bind(s.name.Value, kind, qualifier)
	case *cstDefDef:
		return e.bind(s.name.Value, kind, qualifier)
	case *cstTypeAlias:
		return e.bind(s.name.Value, kind, qualifier)
	case *cstImport:
		for _, local := range importedLocals(s) {
			e = e.bind(local, ast.ResolvedLocal, "")
		}
		return e
	default:
		return e
	}
}

// importedLocals lists the names an import clause brings into scope. A
// wildcard binds nothing lookup can see; those uses stay NotResolved.
func importedLocals(imp *cstImport) []string {
	if len(imp.selectors) == 0 {
		if imp.wildcard || len(imp.path) == 0 {
			return nil
		}
		return []string{imp.path[len(imp.path)-1].Value}
	}
	out := make([]string, 0, len(imp.selectors))
	for _, sel := range imp.selectors {
		if sel.rename != nil {
			out = append(out, sel.rename.Value)
			continue
		}
		out = append(out, sel.name.Value)
	}
	return out
}

func globalName(t lang.Token, qualifier string) *ast.Name {
	n := ast.NewName(lang.InfoOf(t), t.Value)
	n.Resolution.Kind = ast.ResolvedGlobal
	n.Resolution.Qualifier = qualifier
	return n
}

func (lw *lowerer) fromStmt(e env, s stmt) ([]ast.Stmt, env, exc.Exception) {
	switch s := s.(type) {
	case *cstImport:
		directives := lw.fromImport(s)
		for _, local := range importedLocals(s) {
			e = e.bind(local, ast.ResolvedLocal, "")
		}
		return directives, e, nil
	case *cstTemplate:
		def, extra, err := lw.fromTemplate(e, s)
		if err != nil {
			return nil, e, err
		}
		out := append(extra, &ast.DefStmt{Def: def})
		return out, e, nil
	case *cstValDef:
		def, err := lw.fromValDef(e, s, ast.ResolvedGlobal, lw.pkg)
		if err != nil {
			return nil, e, err
		}
		return []ast.Stmt{&ast.DefStmt{Def: def}}, e, nil
	case *cstDefDef:
		def, err := lw.fromDefDef(e, s, ast.ResolvedGlobal, lw.pkg)
		if err != nil {
			return nil, e, err
		}
		return []ast.Stmt{&ast.DefStmt{Def: def}}, e, nil
	case *cstTypeAlias:
		def := lw.fromTypeAlias(s, ast.ResolvedGlobal, lw.pkg)
		return []ast.Stmt{&ast.DefStmt{Def: def}}, e, nil
	case *cstExprStmt:
		stmts, err := lw.fromExprStmt(e, s)
		if err != nil {
			return nil, e, err
		}
		return stmts, e, nil
	default:
		return nil, e, lw.unhandled("Statement", stmtInfo(s))
	}
}

// fromImport splits an import clause into one directive per introduced
// binding. The dotted prefix becomes the module path.
func (lw *lowerer) fromImport(imp *cstImport) []ast.Stmt {
	out := []ast.Stmt{}
	if len(imp.selectors) == 0 && !imp.wildcard {
		path := dottedValue(imp.path[:len(imp.path)-1])
		last := imp.path[len(imp.path)-1]
		name := ast.NewName(lang.InfoOf(last), last.Value)
		name.Resolution.Kind = ast.ResolvedLocal
		out = append(out, &ast.DirectiveStmt{Directive: &ast.Import{
			Info:     imp.info,
			Path:     path,
			Imported: name,
			Local:    ref(name),
		}})
		return out
	}
	path := dottedValue(imp.path)
	for _, sel := range imp.selectors {
		imported := ast.NewName(lang.InfoOf(sel.name), sel.name.Value)
		imported.Resolution.Kind = ast.ResolvedLocal
		local := imported
		if sel.rename != nil {
			local = ast.NewName(lang.InfoOf(*sel.rename), sel.rename.Value)
			local.Resolution.Kind = ast.ResolvedLocal
		}
		out = append(out, &ast.DirectiveStmt{Directive: &ast.Import{
			Info:     imp.info,
			Path:     path,
			Imported: imported,
			Local:    ref(local),
		}})
	}
	if imp.wildcard {
		out = append(out, &ast.DirectiveStmt{Directive: &ast.ImportAll{
			Info: imp.info,
			Path: path,
		}})
	}
	return out
}

// fromTemplate lowers a class, object, or trait to a ClassDef. Constructor
// parameters become leading fields, statement-position expressions in the
// body collect into a synthetic init function, and imports inside the body
// hoist next to the definition.
func (lw *lowerer) fromTemplate(e env, t *cstTemplate) (*ast.ClassDef, []ast.Stmt, exc.Exception) {
	name := globalName(t.name, lw.pkg)
	memberQualifier := joinQualifier(lw.pkg, t.name.Value)

	out := ast.ClassDef{Name: name}
	for _, parent := range t.parents {
		out.Parents = append(out.Parents, lw.fromTypeRef(&parent))
	}

	inner := e
	for _, param := range t.params {
		inner = inner.bind(param.name.Value, ast.ResolvedParameter, "")
	}
	for _, s := range t.body {
		inner = lw.declare(inner, s, ast.ResolvedGlobal, memberQualifier)
	}

	for _, param := range t.params {
		field := &ast.FieldDef{
			Name: globalName(param.name, memberQualifier),
			Type: lw.fromTypeRef(param.typ),
		}
		if param.def != nil {
			init, err := lw.fromExpr(inner, param.def)
			if err != nil {
				return nil, nil, err
			}
			field.Init = init
		}
		out.Defs = append(out.Defs, field)
	}

	hoisted := []ast.Stmt{}
	initStmts := []ast.Stmt{}
	for _, s := range t.body {
		switch s := s.(type) {
		case *cstImport:
			hoisted = append(hoisted, lw.fromImport(s)...)
		case *cstTemplate:
			saved := lw.pkg
			lw.pkg = memberQualifier
			def, extra, err := lw.fromTemplate(inner, s)
			lw.pkg = saved
			if err != nil {
				return nil, nil, err
			}
			hoisted = append(hoisted, extra...)
			out.Defs = append(out.Defs, def)
		case *cstValDef:
			field, err := lw.fromMemberVal(inner, s, memberQualifier)
			if err != nil {
				return nil, nil, err
			}
			out.Defs = append(out.Defs, field)
		case *cstDefDef:
			def, err := lw.fromDefDef(inner, s, ast.ResolvedGlobal, memberQualifier)
			if err != nil {
				return nil, nil, err
			}
			out.Defs = append(out.Defs, def)
		case *cstTypeAlias:
			out.Defs = append(out.Defs, lw.fromTypeAlias(s, ast.ResolvedGlobal, memberQualifier))
		case *cstExprStmt:
			stmts, err := lw.fromExprStmt(inner, s)
			if err != nil {
				return nil, nil, err
			}
			initStmts = append(initStmts, stmts...)
		default:
			return nil, nil, lw.unhandled("TemplateMember", t.info)
		}
	}
	if len(initStmts) > 0 {
		out.Defs = append(out.Defs, &ast.FnDef{
			Name: ast.SyntheticName("init"),
			Body: &ast.Block{Info: t.info, Stmts: initStmts},
		})
	}
	return &out, hoisted, nil
}

// fromMemberVal lowers a template-level val or var to a field. An abstract
// val has neither initializer nor body statements.
func (lw *lowerer) fromMemberVal(e env, v *cstValDef, qualifier string) (*ast.FieldDef, exc.Exception) {
	field := ast.FieldDef{
		Name: globalName(v.name, qualifier),
		Type: lw.fromTypeRef(v.typ),
	}
	if v.init != nil {
		init, err := lw.fromExpr(e, v.init)
		if err != nil {
			return nil, err
		}
		field.Init = init
	}
	return &field, nil
}

func valVarKind(kind valKind) ast.VarKind {
	if kind == valMutable {
		return ast.VarKindVar
	}
	return ast.VarKindConst
}

func (lw *lowerer) fromValDef(e env, v *cstValDef, res ast.ResolutionKind, qualifier string) (*ast.VarDef, exc.Exception) {
	name := ast.NewName(lang.InfoOf(v.name), v.name.Value)
	name.Resolution.Kind = res
	name.Resolution.Qualifier = qualifier
	out := ast.VarDef{
		Name: name,
		Kind: valVarKind(v.kind),
		Type: lw.fromTypeRef(v.typ),
	}
	if v.init != nil {
		init, err := lw.fromExpr(e, v.init)
		if err != nil {
			return nil, err
		}
		out.Init = init
	}
	return &out, nil
}

// fromDefDef lowers a method. Multiple parameter groups flatten into one
// list in source order; an equals body becomes a block returning the body
// expression; a missing body marks the method abstract with a nil block.
func (lw *lowerer) fromDefDef(e env, d *cstDefDef, res ast.ResolutionKind, qualifier string) (*ast.FnDef, exc.Exception) {
	name := ast.NewName(lang.InfoOf(d.name), d.name.Value)
	name.Resolution.Kind = res
	name.Resolution.Qualifier = qualifier
	out := ast.FnDef{Name: name, Ret: lw.fromTypeRef(d.ret)}

	inner := e
	for _, group := range d.paramLists {
		for _, param := range group {
			p := ast.Param{
				Name: ast.NewName(lang.InfoOf(param.name), param.name.Value),
				Type: lw.fromTypeRef(param.typ),
			}
			p.Name.Resolution.Kind = ast.ResolvedParameter
			if param.def != nil {
				def, err := lw.fromExpr(e, param.def)
				if err != nil {
					return nil, err
				}
				p.Default = def
			}
			out.Params = append(out.Params, &p)
			inner = inner.bind(param.name.Value, ast.ResolvedParameter, "")
		}
	}

	if d.body != nil {
		body, err := lw.fromFnBody(inner, d.body)
		if err != nil {
			return nil, err
		}
		out.Body = body
	}
	return &out, nil
}

func (lw *lowerer) fromTypeAlias(a *cstTypeAlias, res ast.ResolutionKind, qualifier string) *ast.TypeDef {
	name := ast.NewName(lang.InfoOf(a.name), a.name.Value)
	name.Resolution.Kind = res
	name.Resolution.Qualifier = qualifier
	return &ast.TypeDef{Name: name, Body: &ast.AliasType{Type: lw.fromTypeRef(&a.typ)}}
}

func (lw *lowerer) fromTypeRef(t *cstTypeRef) ast.Type {
	if t == nil {
		return nil
	}
	out := ast.TypeName{Name: ast.NewName(t.info, dottedValue(t.path))}
	for _, arg := range t.args {
		out.Args = append(out.Args, lw.fromTypeRef(&arg))
	}
	return &out
}

// fromFnBody lowers a function body expression to a block. A block body
// yields its trailing expression; a bare expression is returned directly;
// loop-shaped bodies produce no value.
func (lw *lowerer) fromFnBody(e env, body expr) (*ast.Block, exc.Exception) {
	switch b := body.(type) {
	case *cstBlock:
		stmts, err := lw.fromBlockStmts(e, b.stmts)
		if err != nil {
			return nil, err
		}
		if n := len(stmts); n > 0 {
			if last, ok := stmts[n-1].(*ast.ExprStmt); ok {
				stmts[n-1] = &ast.Return{Info: b.info, Value: last.Expr}
			}
		}
		return &ast.Block{Info: b.info, Stmts: stmts}, nil
	case *cstWhile:
		stmts, err := lw.fromExprStmt(e, &cstExprStmt{cstNode: b.cstNode, e: b})
		if err != nil {
			return nil, err
		}
		return &ast.Block{Info: b.info, Stmts: stmts}, nil
	default:
		v, err := lw.fromExpr(e, body)
		if err != nil {
			return nil, err
		}
		return &ast.Block{
			Info:  exprInfo(body),
			Stmts: []ast.Stmt{&ast.Return{Info: exprInfo(body), Value: v}},
		}, nil
	}
}

// fromBlockStmts lowers the statements of a block, threading local bindings
// left to right. Definitions inside a block resolve as locals.
func (lw *lowerer) fromBlockStmts(e env, in []stmt) ([]ast.Stmt, exc.Exception) {
	out := []ast.Stmt{}
	for _, s := range in {
		switch s := s.(type) {
		case *cstImport:
			out = append(out, lw.fromImport(s)...)
			for _, local := range importedLocals(s) {
				e = e.bind(local, ast.ResolvedLocal, "")
			}
		case *cstValDef:
			def, err := lw.fromValDef(e, s, ast.ResolvedLocal, "")
			if err != nil {
				return nil, err
			}
			out = append(out, &ast.DefStmt{Def: def})
			e = e.bind(s.name.Value, ast.ResolvedLocal, "")
		case *cstDefDef:
			e = e.bind(s.name.Value, ast.ResolvedLocal, "")
			def, err := lw.fromDefDef(e, s, ast.ResolvedLocal, "")
			if err != nil {
				return nil, err
			}
			out = append(out, &ast.DefStmt{Def: def})
		case *cstTypeAlias:
			out = append(out, &ast.DefStmt{Def: lw.fromTypeAlias(s, ast.ResolvedLocal, "")})
			e = e.bind(s.name.Value, ast.ResolvedLocal, "")
		case *cstTemplate:
			def, extra, err := lw.fromTemplate(e, s)
			if err != nil {
				return nil, err
			}
			out = append(out, extra...)
			out = append(out, &ast.DefStmt{Def: def})
			e = e.bind(s.name.Value, ast.ResolvedLocal, "")
		case *cstExprStmt:
			stmts, err := lw.fromExprStmt(e, s)
			if err != nil {
				return nil, err
			}
			out = append(out, stmts...)
		default:
			return nil, lw.unhandled("BlockStatement", stmtInfo(s))
		}
	}
	return out, nil
}

// fromExprStmt lowers an expression in statement position. Control-flow
// expressions used for effect become the corresponding statement nodes.
func (lw *lowerer) fromExprStmt(e env, s *cstExprStmt) ([]ast.Stmt, exc.Exception) {
	switch inner := s.e.(type) {
	case *cstIf:
		test, err := lw.fromExpr(e, inner.test)
		if err != nil {
			return nil, err
		}
		then, err := lw.fromBranchStmt(e, inner.then)
		if err != nil {
			return nil, err
		}
		out := ast.If{Info: inner.info, Test: test, Then: then}
		if inner.els != nil {
			els, err := lw.fromBranchStmt(e, inner.els)
			if err != nil {
				return nil, err
			}
			out.Else = els
		}
		return []ast.Stmt{&out}, nil
	case *cstWhile:
		test, err := lw.fromExpr(e, inner.test)
		if err != nil {
			return nil, err
		}
		body, err := lw.fromBranchStmt(e, inner.body)
		if err != nil {
			return nil, err
		}
		return []ast.Stmt{&ast.While{Info: inner.info, Test: test, Body: body}}, nil
	default:
		v, err := lw.fromExpr(e, s.e)
		if err != nil {
			return nil, err
		}
		return []ast.Stmt{&ast.ExprStmt{Expr: v}}, nil
	}
}

// fromBranchStmt lowers a branch or loop body expression to a statement.
func (lw *lowerer) fromBranchStmt(e env, body expr) (ast.Stmt, exc.Exception) {
	if b, ok := body.(*cstBlock); ok {
		stmts, err := lw.fromBlockStmts(e, b.stmts)
		if err != nil {
			return nil, err
		}
		return &ast.Block{Info: b.info, Stmts: stmts}, nil
	}
	stmts, err := lw.fromExprStmt(e, &cstExprStmt{cstNode: cstNode{info: exprInfo(body)}, e: body})
	if err != nil {
		return nil, err
	}
	if len(stmts) == 1 {
		return stmts[0], nil
	}
	return &ast.Block{Info: exprInfo(body), Stmts: stmts}, nil
}

func exprInfo(e expr) lang.Info {
	if p, ok := e.(interface{ position() lang.Info }); ok {
		return p.position()
	}
	return lang.Info{}
}

func stmtInfo(s stmt) lang.Info {
	if p, ok := s.(interface{ position() lang.Info }); ok {
		return p.position()
	}
	return lang.Info{}
}

// ref builds a new use occurrence of an established binding. Every
// occurrence owns a distinct resolution cell.
func ref(n *ast.Name) *ast.Name {
	use := ast.NewName(n.Info, n.Value)
	use.Resolution.Kind = n.Resolution.Kind
	use.Resolution.Qualifier = n.Resolution.Qualifier
	return use
}

var scalaLiteralKinds = map[lang.TokenType]ast.LiteralKind{
	lang.TokenTypeIntegerLit:   ast.LiteralInt,
	lang.TokenTypeFloatLit:     ast.LiteralFloat,
	lang.TokenTypeStringLit:    ast.LiteralString,
	lang.TokenTypeCharLit:      ast.LiteralChar,
	lang.TokenTypeKeywordTrue:  ast.LiteralBool,
	lang.TokenTypeKeywordFalse: ast.LiteralBool,
	lang.TokenTypeKeywordNull:  ast.LiteralNull,
}

var scalaBinaryOps = map[lang.TokenType]ast.Op{
	lang.TokenTypePlus:         ast.OpPlus,
	lang.TokenTypeMinus:        ast.OpMinus,
	lang.TokenTypeStar:         ast.OpMult,
	lang.TokenTypeSlash:        ast.OpDiv,
	lang.TokenTypePercent:      ast.OpMod,
	lang.TokenTypeEqEq:         ast.OpEq,
	lang.TokenTypeNotEq:        ast.OpNotEq,
	lang.TokenTypeAngleOpen:    ast.OpLt,
	lang.TokenTypeAngleClose:   ast.OpGt,
	lang.TokenTypeLesserEqual:  ast.OpLtEq,
	lang.TokenTypeGreaterEqual: ast.OpGtEq,
	lang.TokenTypeAmpAmp:       ast.OpAnd,
	lang.TokenTypePipePipe:     ast.OpOr,
	lang.TokenTypeAmpersand:    ast.OpBitAnd,
	lang.TokenTypePipe:         ast.OpBitOr,
	lang.TokenTypeCaret:        ast.OpBitXor,
	lang.TokenTypeShiftLeft:    ast.OpShiftLeft,
	lang.TokenTypeShiftRight:   ast.OpShiftRight,
}

var scalaUnaryOps = map[lang.TokenType]ast.Op{
	lang.TokenTypeBang:  ast.OpNot,
	lang.TokenTypeMinus: ast.OpUnaryMinus,
	lang.TokenTypePlus:  ast.OpUnaryPlus,
	lang.TokenTypeTilde: ast.OpBitNot,
}

func (lw *lowerer) fromExpr(e env, in expr) (ast.Expr, exc.Exception) {
	switch in := in.(type) {
	case *cstIdent:
		kind, qualifier := e.lookup(in.name)
		n := ast.NewName(in.info, in.name)
		if kind == ast.Unresolved {
			n.Resolution.Kind = ast.NotResolved
		} else {
			n.Resolution.Kind = kind
			n.Resolution.Qualifier = qualifier
		}
		return n, nil
	case *cstLit:
		return &ast.Literal{Info: in.info, Kind: scalaLiteralKinds[in.typ], Value: in.value}, nil
	case *cstThis:
		return &ast.Special{Info: in.info, Kind: ast.SpecialThis}, nil
	case *cstSelect:
		obj, err := lw.fromExpr(e, in.obj)
		if err != nil {
			return nil, err
		}
		return &ast.FieldAccess{Info: in.info, Obj: obj, Name: ast.NewName(lang.InfoOf(in.name), in.name.Value)}, nil
	case *cstApply:
		fn, err := lw.fromExpr(e, in.fn)
		if err != nil {
			return nil, err
		}
		args := []ast.Expr{}
		for _, arg := range in.args {
			a, err := lw.fromExpr(e, arg)
			if err != nil {
				return nil, err
			}
			args = append(args, a)
		}
		return &ast.Call{Info: in.info, Fn: fn, Args: args}, nil
	case *cstInfix:
		left, err := lw.fromExpr(e, in.left)
		if err != nil {
			return nil, err
		}
		right, err := lw.fromExpr(e, in.right)
		if err != nil {
			return nil, err
		}
		if in.op.Type == lang.TokenTypeEqual {
			return &ast.Assign{Info: in.info, Target: left, Value: right}, nil
		}
		op, ok := scalaBinaryOps[in.op.Type]
		if !ok {
			return nil, lw.todo("InfixOperator", in.info)
		}
		return &ast.OpCall{Info: in.info, Op: op, Args: []ast.Expr{left, right}}, nil
	case *cstPrefix:
		operand, err := lw.fromExpr(e, in.operand)
		if err != nil {
			return nil, err
		}
		op, ok := scalaUnaryOps[in.op.Type]
		if !ok {
			return nil, lw.todo("PrefixOperator", in.info)
		}
		return &ast.OpCall{Info: in.info, Op: op, Args: []ast.Expr{operand}}, nil
	case *cstIf:
		test, err := lw.fromExpr(e, in.test)
		if err != nil {
			return nil, err
		}
		then, err := lw.fromExpr(e, in.then)
		if err != nil {
			return nil, err
		}
		out := ast.Cond{Info: in.info, Test: test, Then: then}
		if in.els != nil {
			els, err := lw.fromExpr(e, in.els)
			if err != nil {
				return nil, err
			}
			out.Else = els
		} else {
			out.Else = &ast.Literal{Info: in.info, Kind: ast.LiteralNull, Value: "null"}
		}
		return &out, nil
	case *cstWhile:
		stmts, err := lw.fromExprStmt(e, &cstExprStmt{cstNode: in.cstNode, e: in})
		if err != nil {
			return nil, err
		}
		children := make([]ast.Node, 0, len(stmts))
		for _, s := range stmts {
			children = append(children, s)
		}
		return &ast.OtherExpr{Info: in.info, Category: "WhileExpression", Children: children}, nil
	case *cstBlock:
		block, err := lw.fromFnBody(e, in)
		if err != nil {
			return nil, err
		}
		return &ast.OtherExpr{Info: in.info, Category: "BlockExpression", Children: []ast.Node{block}}, nil
	case *cstNew:
		callee := lw.typeRefExpr(&in.typ)
		args := []ast.Expr{callee}
		for _, arg := range in.args {
			a, err := lw.fromExpr(e, arg)
			if err != nil {
				return nil, err
			}
			args = append(args, a)
		}
		return &ast.Call{
			Info: in.info,
			Fn:   &ast.Special{Info: in.info, Kind: ast.SpecialNew},
			Args: args,
		}, nil
	case *cstLambda:
		return lw.fromLambda(e, in)
	case *cstTuple:
		items := []ast.Expr{}
		for _, elem := range in.elems {
			v, err := lw.fromExpr(e, elem)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return &ast.Container{Info: in.info, Kind: ast.ContainerTuple, Items: items}, nil
	case *cstXML:
		out := ast.OtherExpr{Info: in.info, Category: "XmlLiteral"}
		if lw.cfg.KeepXMLLiterals {
			out.Children = []ast.Node{&ast.Literal{
				Info:  in.info,
				Kind:  ast.LiteralString,
				Value: in.raw.Value,
			}}
		}
		return &out, nil
	default:
		return nil, lw.unhandled("Expression", exprInfo(in))
	}
}

// typeRefExpr rebuilds a dotted type reference as a value expression, for
// constructor callees. Type arguments do not survive the crossing.
func (lw *lowerer) typeRefExpr(t *cstTypeRef) ast.Expr {
	var out ast.Expr = ast.NewName(lang.InfoOf(t.path[0]), t.path[0].Value)
	for _, seg := range t.path[1:] {
		out = &ast.FieldAccess{
			Info: lang.InfoOf(seg),
			Obj:  out,
			Name: ast.NewName(lang.InfoOf(seg), seg.Value),
		}
	}
	return out
}

func (lw *lowerer) fromLambda(e env, in *cstLambda) (ast.Expr, exc.Exception) {
	fn := ast.FnDef{Name: ast.SyntheticName(ast.AnonName)}
	inner := e
	for _, param := range in.params {
		p := ast.Param{
			Name: ast.NewName(lang.InfoOf(param.name), param.name.Value),
			Type: lw.fromTypeRef(param.typ),
		}
		p.Name.Resolution.Kind = ast.ResolvedParameter
		fn.Params = append(fn.Params, &p)
		inner = inner.bind(param.name.Value, ast.ResolvedParameter, "")
	}
	body, err := lw.fromFnBody(inner, in.body)
	if err != nil {
		return nil, err
	}
	fn.Body = body
	return &ast.DefExpr{Def: &fn}, nil
}
