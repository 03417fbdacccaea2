// © 2026 Polyfront Authors
//
// SPDX-License-Identifier: Apache-2.0

package js

import (
	"fmt"

	"gopkg.polyfront.org/frontend.go/internal/ast"
	"gopkg.polyfront.org/frontend.go/internal/exc"
	"gopkg.polyfront.org/frontend.go/internal/lang"
)

// Lower transforms a JavaScript/TypeScript CST into the Generic AST,
// performing scope classification and desugaring as it goes. Failures are
// unit-granular: the returned exception describes the first construct that
// could not be lowered.
func Lower(prog *cstProgram, cfg lang.Config) (*ast.Program, exc.Exception) {
	lw := &lowerer{uri: prog.URI, cfg: cfg}
	stmts, _, err := lw.fromStmts(newEnv(), prog.stmts)
	if err != nil {
		return nil, err
	}
	return &ast.Program{URI: prog.URI, Stmts: stmts}, nil
}

type lowerer struct {
	uri  string
	cfg  lang.Config
	tmps int
}

func (lw *lowerer) loc(info lang.Info) exc.Location {
	return exc.Location{
		URI:      lw.uri,
		Location: info.Span.Start,
	}
}

// todo marks a recognized construct this lowering does not support yet.
func (lw *lowerer) todo(category string, info lang.Info) exc.Exception {
	return exc.New(lw.loc(info), exc.CodeTodoConstruct, category)
}

// unhandled marks a construct that is not meaningful where it appeared.
func (lw *lowerer) unhandled(category string, info lang.Info) exc.Exception {
	return exc.New(lw.loc(info), exc.CodeUnhandledConstruct, category)
}

// fresh synthesizes a temporary binding name with a non-source position.
func (lw *lowerer) fresh() *ast.Name {
	lw.tmps = lw.tmps + 1
	name := ast.SyntheticName(fmt.Sprintf("_tmp%d", lw.tmps))
	name.Resolution.Kind = ast.ResolvedLocal
	return name
}

// ref builds a new use occurrence of an established binding. Every
// occurrence owns a distinct resolution cell.
func ref(n *ast.Name) *ast.Name {
	use := ast.NewName(n.Info, n.Value)
	use.Resolution.Kind = n.Resolution.Kind
	use.Resolution.Qualifier = n.Resolution.Qualifier
	return use
}

// ident classifies a bare identifier occurrence: block-scoped bindings and
// parameters first, then function-scoped bindings, then the reserved special
// forms, and otherwise NotResolved. The order is load-bearing: a binding
// named like a special form shadows it.
func (lw *lowerer) ident(e env, name string, info lang.Info) ast.Expr {
	if kind := e.lookup(name); kind != ast.Unresolved {
		n := ast.NewName(info, name)
		n.Resolution.Kind = kind
		return n
	}
	if special, ok := specialForms[name]; ok {
		return &ast.Special{Info: info, Kind: special}
	}
	n := ast.NewName(info, name)
	n.Resolution.Kind = ast.NotResolved
	return n
}

// fromStmts folds the environment left-to-right so that a declaration is
// visible to its later siblings and nothing else.
func (lw *lowerer) fromStmts(e env, in []stmt) ([]ast.Stmt, env, exc.Exception) {
	out := []ast.Stmt{}
	for _, s := range in {
		stmts, next, err := lw.fromStmt(e, s)
		if err != nil {
			return nil, e, err
		}
		out = append(out, stmts...)
		e = next
	}
	return out, e, nil
}

// fromBlock lowers a braced block. Bindings created inside are not visible
// to the caller: the extended environment stops here.
func (lw *lowerer) fromBlock(e env, b *cstBlock) (*ast.Block, exc.Exception) {
	stmts, _, err := lw.fromStmts(e, b.stmts)
	if err != nil {
		return nil, err
	}
	return &ast.Block{Info: b.info, Stmts: stmts}, nil
}

func (lw *lowerer) fromStmt(e env, s stmt) ([]ast.Stmt, env, exc.Exception) {
	switch s := s.(type) {
	case *cstVarDecl:
		return lw.fromVarDecl(e, s)
	case *cstFuncDecl:
		return lw.fromFuncDecl(e, s)
	case *cstClassDecl:
		name := ast.NewName(lang.InfoOf(*s.class.name), s.class.name.Value)
		name.Resolution.Kind = ast.ResolvedLocal
		e.addVar(name.Value)
		def, err := lw.fromClass(e, s.class, name)
		if err != nil {
			return nil, e, err
		}
		return []ast.Stmt{&ast.DefStmt{Def: def}}, e, nil
	case *cstExprStmt:
		return lw.fromExprStmt(e, s)
	case *cstBlock:
		block, err := lw.fromBlock(e, s)
		if err != nil {
			return nil, e, err
		}
		return []ast.Stmt{block}, e, nil
	case *cstEmpty:
		return nil, e, nil
	case *cstIf:
		test, err := lw.fromExpr(e, s.test)
		if err != nil {
			return nil, e, err
		}
		then, err := lw.fromNestedStmt(e, s.then)
		if err != nil {
			return nil, e, err
		}
		var els ast.Stmt
		if s.els != nil {
			els, err = lw.fromNestedStmt(e, s.els)
			if err != nil {
				return nil, e, err
			}
		}
		return []ast.Stmt{&ast.If{Info: s.info, Test: test, Then: then, Else: els}}, e, nil
	case *cstWhile:
		out, err := lw.fromWhile(e, s)
		return out, e, err
	case *cstDoWhile:
		body, err := lw.fromNestedStmt(e, s.body)
		if err != nil {
			return nil, e, err
		}
		test, err := lw.fromExpr(e, s.test)
		if err != nil {
			return nil, e, err
		}
		return []ast.Stmt{&ast.DoWhile{Info: s.info, Body: body, Test: test}}, e, nil
	case *cstForClassic:
		out, err := lw.fromForClassic(e, s, "")
		return out, e, err
	case *cstForOf:
		out, err := lw.fromForOf(e, s, "")
		return out, e, err
	case *cstForIn:
		// No iteration protocol to expand onto; carried as an escape node.
		obj, err := lw.fromExpr(e, s.obj)
		if err != nil {
			return nil, e, err
		}
		body, err := lw.fromNestedStmt(e, s.body)
		if err != nil {
			return nil, e, err
		}
		other := &ast.OtherStmt{Info: s.info, Category: "ForIn", Children: []ast.Node{obj, body}}
		return []ast.Stmt{other}, e, nil
	case *cstReturn:
		var value ast.Expr
		if s.value != nil {
			var err exc.Exception
			value, err = lw.fromExpr(e, s.value)
			if err != nil {
				return nil, e, err
			}
		}
		return []ast.Stmt{&ast.Return{Info: s.info, Value: value}}, e, nil
	case *cstBreak:
		return []ast.Stmt{&ast.Break{Info: s.info, Label: s.label}}, e, nil
	case *cstContinue:
		return []ast.Stmt{&ast.Continue{Info: s.info, Label: s.label}}, e, nil
	case *cstLabeled:
		out, err := lw.fromLabeled(e, s)
		return out, e, err
	case *cstThrow:
		value, err := lw.fromExpr(e, s.value)
		if err != nil {
			return nil, e, err
		}
		return []ast.Stmt{&ast.Throw{Info: s.info, Value: value}}, e, nil
	case *cstTry:
		out, err := lw.fromTry(e, s)
		return out, e, err
	case *cstSwitch:
		out, err := lw.fromSwitch(e, s)
		return out, e, err
	case *cstImport:
		return lw.fromImport(e, s)
	case *cstExportDecl:
		return lw.fromExportDecl(e, s)
	case *cstExportDefault:
		return lw.fromExportDefault(e, s)
	case *cstExportNamed:
		return lw.fromExportNamed(e, s)
	case *cstExportAll:
		d := &ast.OtherDirective{
			Info:     s.info,
			Category: "ExportAll",
			Children: []ast.Node{&ast.Literal{Info: lang.InfoOf(s.from), Kind: ast.LiteralString, Value: s.from.Value}},
		}
		return []ast.Stmt{&ast.DirectiveStmt{Directive: d}}, e, nil
	case *cstOtherStmt:
		return nil, e, lw.todo(s.category, s.info)
	default:
		return nil, e, lw.unhandled(fmt.Sprintf("Stmt(%T)", s), lang.Info{})
	}
}

// fromNestedStmt lowers a single-statement position (loop body, if arm),
// wrapping in a block when desugaring produced several statements.
func (lw *lowerer) fromNestedStmt(e env, s stmt) (ast.Stmt, exc.Exception) {
	stmts, _, err := lw.fromStmt(e, s)
	if err != nil {
		return nil, err
	}
	if len(stmts) == 1 {
		return stmts[0], nil
	}
	return &ast.Block{Stmts: stmts}, nil
}

func (lw *lowerer) fromExprStmt(e env, s *cstExprStmt) ([]ast.Stmt, env, exc.Exception) {
	// A compound assignment target written as a literal pattern desugars
	// the same way a destructuring declaration does, except the derived
	// statements are assignments rather than declarations.
	if assign, ok := s.e.(*cstAssign); ok && assign.op == lang.TokenTypeEqual {
		if pat := literalToPattern(assign.target); pat != nil {
			if _, simple := pat.(*cstIdentPat); !simple {
				init, err := lw.fromExpr(e, assign.value)
				if err != nil {
					return nil, e, err
				}
				stmts, err := lw.fromAssignPattern(e, pat, init)
				if err != nil {
					return nil, e, err
				}
				return stmts, e, nil
			}
		}
	}
	x, err := lw.fromExpr(e, s.e)
	if err != nil {
		return nil, e, err
	}
	return []ast.Stmt{&ast.ExprStmt{Expr: x}}, e, nil
}

func varKindOf(t lang.TokenType) ast.VarKind {
	switch t {
	case lang.TokenTypeKeywordLet:
		return ast.VarKindLet
	case lang.TokenTypeKeywordConst:
		return ast.VarKindConst
	default:
		return ast.VarKindVar
	}
}

func (lw *lowerer) fromVarDecl(e env, d *cstVarDecl) ([]ast.Stmt, env, exc.Exception) {
	kind := varKindOf(d.kind)
	out := []ast.Stmt{}
	for _, decl := range d.decls {
		var init ast.Expr
		if decl.init != nil {
			var err exc.Exception
			init, err = lw.fromExpr(e, decl.init)
			if err != nil {
				return nil, e, err
			}
		}
		stmts, next, err := lw.fromDeclPattern(e, kind, decl.pat, init)
		if err != nil {
			return nil, e, err
		}
		out = append(out, stmts...)
		e = next
	}
	return out, e, nil
}

// bind registers a binding according to its declaration kind and stamps the
// resolution cell of the defining occurrence.
func (lw *lowerer) bind(e env, name *ast.Name, kind ast.VarKind) env {
	if kind == ast.VarKindVar {
		e.addVar(name.Value)
		name.Resolution.Kind = ast.ResolvedLocal
		return e
	}
	name.Resolution.Kind = ast.ResolvedLocal
	return e.withLocal(name.Value, ast.ResolvedLocal)
}

// fromDeclPattern expands one declarator. A compound pattern becomes a
// synthesized temporary bound to the initializer followed by one derived
// simple declaration per pattern element; simple patterns lower directly,
// so re-lowering derived declarations synthesizes nothing further.
func (lw *lowerer) fromDeclPattern(e env, kind ast.VarKind, pat pattern, init ast.Expr) ([]ast.Stmt, env, exc.Exception) {
	switch pat := pat.(type) {
	case *cstIdentPat:
		name := ast.NewName(lang.InfoOf(pat.name), pat.name.Value)
		e = lw.bind(e, name, kind)
		def := &ast.VarDef{Name: name, Kind: kind, Init: init}
		return []ast.Stmt{&ast.DefStmt{Def: def}}, e, nil
	case *cstObjectPat:
		tmp := lw.fresh()
		if kind == ast.VarKindVar {
			e.addVar(tmp.Value)
		} else {
			e = e.withLocal(tmp.Value, ast.ResolvedLocal)
		}
		out := []ast.Stmt{&ast.DefStmt{Def: &ast.VarDef{Name: tmp, Kind: kind, Init: init}}}
		for _, prop := range pat.props {
			access := &ast.FieldAccess{
				Info: lang.InfoOf(prop.key),
				Obj:  ref(tmp),
				Name: ast.NewName(lang.InfoOf(prop.key), prop.key.Value),
			}
			sub := prop.value
			if sub == nil {
				sub = &cstIdentPat{cstNode: prop.cstNode, name: prop.key}
			}
			stmts, next, err := lw.fromDeclPattern(e, kind, sub, access)
			if err != nil {
				return nil, e, err
			}
			out = append(out, stmts...)
			e = next
		}
		return out, e, nil
	case *cstArrayPat:
		tmp := lw.fresh()
		if kind == ast.VarKindVar {
			e.addVar(tmp.Value)
		} else {
			e = e.withLocal(tmp.Value, ast.ResolvedLocal)
		}
		out := []ast.Stmt{&ast.DefStmt{Def: &ast.VarDef{Name: tmp, Kind: kind, Init: init}}}
		for i, elem := range pat.elems {
			if elem == nil {
				continue // elision
			}
			access := &ast.OpCall{
				Info: pat.info,
				Op:   ast.OpArrayAccess,
				Args: []ast.Expr{ref(tmp), &ast.Literal{Info: lang.SyntheticInfo(fmt.Sprintf("%d", i)), Kind: ast.LiteralInt, Value: fmt.Sprintf("%d", i)}},
			}
			stmts, next, err := lw.fromDeclPattern(e, kind, elem, access)
			if err != nil {
				return nil, e, err
			}
			out = append(out, stmts...)
			e = next
		}
		return out, e, nil
	case *cstAssignPat:
		return nil, e, lw.todo("PatternDefault", pat.info)
	case *cstRestPat:
		return nil, e, lw.todo("PatternRest", pat.info)
	case *cstOtherPat:
		return nil, e, lw.todo(pat.category, pat.info)
	default:
		return nil, e, lw.unhandled(fmt.Sprintf("Pattern(%T)", pat), lang.Info{})
	}
}

// fromAssignPattern is the assignment-expression variant of pattern
// expansion: targets must already be bound, so it emits assignments, not
// declarations, after the single synthesized temporary.
func (lw *lowerer) fromAssignPattern(e env, pat pattern, init ast.Expr) ([]ast.Stmt, exc.Exception) {
	switch pat := pat.(type) {
	case *cstIdentPat:
		target := lw.ident(e, pat.name.Value, lang.InfoOf(pat.name))
		assign := &ast.Assign{Info: lang.InfoOf(pat.name), Target: target, Value: init}
		return []ast.Stmt{&ast.ExprStmt{Expr: assign}}, nil
	case *cstObjectPat:
		tmp := lw.fresh()
		out := []ast.Stmt{&ast.DefStmt{Def: &ast.VarDef{Name: tmp, Kind: ast.VarKindConst, Init: init}}}
		for _, prop := range pat.props {
			access := &ast.FieldAccess{
				Info: lang.InfoOf(prop.key),
				Obj:  ref(tmp),
				Name: ast.NewName(lang.InfoOf(prop.key), prop.key.Value),
			}
			sub := prop.value
			if sub == nil {
				sub = &cstIdentPat{cstNode: prop.cstNode, name: prop.key}
			}
			stmts, err := lw.fromAssignPattern(e, sub, access)
			if err != nil {
				return nil, err
			}
			out = append(out, stmts...)
		}
		return out, nil
	case *cstArrayPat:
		tmp := lw.fresh()
		out := []ast.Stmt{&ast.DefStmt{Def: &ast.VarDef{Name: tmp, Kind: ast.VarKindConst, Init: init}}}
		for i, elem := range pat.elems {
			if elem == nil {
				continue
			}
			access := &ast.OpCall{
				Info: pat.info,
				Op:   ast.OpArrayAccess,
				Args: []ast.Expr{ref(tmp), &ast.Literal{Info: lang.SyntheticInfo(fmt.Sprintf("%d", i)), Kind: ast.LiteralInt, Value: fmt.Sprintf("%d", i)}},
			}
			stmts, err := lw.fromAssignPattern(e, elem, access)
			if err != nil {
				return nil, err
			}
			out = append(out, stmts...)
		}
		return out, nil
	default:
		return nil, lw.todo("PatternAssign", lang.Info{})
	}
}

func (lw *lowerer) fromFuncDecl(e env, d *cstFuncDecl) ([]ast.Stmt, env, exc.Exception) {
	name := ast.NewName(lang.InfoOf(*d.fn.name), d.fn.name.Value)
	name.Resolution.Kind = ast.ResolvedLocal
	// function declarations bind function-wide, like var
	e.addVar(name.Value)
	def, err := lw.fromFunc(e, d.fn, name, nil)
	if err != nil {
		return nil, e, err
	}
	return []ast.Stmt{&ast.DefStmt{Def: def}}, e, nil
}

func (lw *lowerer) fromFunc(e env, f cstFunc, name *ast.Name, extra []ast.FnProp) (*ast.FnDef, exc.Exception) {
	params, paramNames, err := lw.fromParams(e, f.params)
	if err != nil {
		return nil, err
	}
	inner := e.enterFunction(paramNames)
	body, err := lw.fromBlock(inner, f.body)
	if err != nil {
		return nil, err
	}
	props := append([]ast.FnProp{}, extra...)
	if f.isAsync {
		props = append(props, ast.FnPropAsync)
	}
	if f.isGenerator {
		props = append(props, ast.FnPropGenerator)
	}
	if name == nil {
		name = ast.SyntheticName(ast.AnonName)
	}
	return &ast.FnDef{Name: name, Params: params, Props: props, Body: body}, nil
}

func (lw *lowerer) fromParams(e env, in []pattern) ([]*ast.Param, []string, exc.Exception) {
	params := make([]*ast.Param, 0, len(in))
	names := make([]string, 0, len(in))
	for _, p := range in {
		switch p := p.(type) {
		case *cstIdentPat:
			name := ast.NewName(lang.InfoOf(p.name), p.name.Value)
			name.Resolution.Kind = ast.ResolvedParameter
			params = append(params, &ast.Param{Name: name})
			names = append(names, name.Value)
		case *cstAssignPat:
			ident, ok := p.pat.(*cstIdentPat)
			if !ok {
				return nil, nil, lw.todo("ParamPattern", p.info)
			}
			def, err := lw.fromExpr(e, p.def)
			if err != nil {
				return nil, nil, err
			}
			name := ast.NewName(lang.InfoOf(ident.name), ident.name.Value)
			name.Resolution.Kind = ast.ResolvedParameter
			params = append(params, &ast.Param{Name: name, Default: def})
			names = append(names, name.Value)
		case *cstRestPat:
			ident, ok := p.pat.(*cstIdentPat)
			if !ok {
				return nil, nil, lw.todo("ParamPattern", p.info)
			}
			name := ast.NewName(lang.InfoOf(ident.name), ident.name.Value)
			name.Resolution.Kind = ast.ResolvedParameter
			params = append(params, &ast.Param{Name: name, Rest: true})
			names = append(names, name.Value)
		default:
			return nil, nil, lw.todo("ParamPattern", lang.Info{})
		}
	}
	return params, names, nil
}

func (lw *lowerer) fromArrow(e env, a *cstArrowFn) (*ast.FnDef, exc.Exception) {
	params, paramNames, err := lw.fromParams(e, a.params)
	if err != nil {
		return nil, err
	}
	inner := e.enterFunction(paramNames)
	var body *ast.Block
	if a.bodyExpr != nil {
		// implicit-return body
		value, err := lw.fromExpr(inner, a.bodyExpr)
		if err != nil {
			return nil, err
		}
		body = &ast.Block{Info: a.info, Stmts: []ast.Stmt{&ast.Return{Info: a.info, Value: value}}}
	} else {
		body, err = lw.fromBlock(inner, a.bodyBlock)
		if err != nil {
			return nil, err
		}
	}
	var props []ast.FnProp
	if a.isAsync {
		props = append(props, ast.FnPropAsync)
	}
	return &ast.FnDef{Name: ast.SyntheticName(ast.AnonName), Params: params, Props: props, Body: body}, nil
}

func (lw *lowerer) fromClass(e env, c cstClass, name *ast.Name) (*ast.ClassDef, exc.Exception) {
	if name == nil {
		name = ast.SyntheticName(ast.AnonName)
	}
	var parents []ast.Type
	if c.superClass != nil {
		if super, ok := c.superClass.(*cstIdent); ok {
			parents = append(parents, &ast.TypeName{Name: ast.NewName(super.info, super.name)})
		} else {
			parent, err := lw.fromExpr(e, c.superClass)
			if err != nil {
				return nil, err
			}
			parents = append(parents, &ast.OtherType{Info: c.info, Category: "ParentExpr", Children: []ast.Node{parent}})
		}
	}
	defs := make([]ast.Def, 0, len(c.members))
	for _, m := range c.members {
		def, err := lw.fromClassMember(e, m)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return &ast.ClassDef{Name: name, Parents: parents, Defs: defs}, nil
}

func (lw *lowerer) fromClassMember(e env, m cstClassMember) (ast.Def, exc.Exception) {
	var props []ast.FnProp
	if m.isStatic {
		props = append(props, ast.FnPropStatic)
	}
	name := ast.NewName(lang.InfoOf(m.name), m.name.Value)
	switch m.kind {
	case classMemberField:
		var init ast.Expr
		if m.init != nil {
			var err exc.Exception
			init, err = lw.fromExpr(e, m.init)
			if err != nil {
				return nil, err
			}
		}
		return &ast.FieldDef{Name: name, Init: init, Props: props}, nil
	case classMemberGetter:
		props = append(props, ast.FnPropGetter)
	case classMemberSetter:
		props = append(props, ast.FnPropSetter)
	}
	return lw.fromFunc(e, *m.fn, name, props)
}

func (lw *lowerer) fromWhile(e env, s *cstWhile) ([]ast.Stmt, exc.Exception) {
	test, err := lw.fromExpr(e, s.test)
	if err != nil {
		return nil, err
	}
	body, err := lw.fromNestedStmt(e, s.body)
	if err != nil {
		return nil, err
	}
	return []ast.Stmt{&ast.While{Info: s.info, Test: test, Body: body}}, nil
}

func (lw *lowerer) fromForClassic(e env, s *cstForClassic, label string) ([]ast.Stmt, exc.Exception) {
	inner := e
	var init ast.Stmt
	if s.init != nil {
		stmts, next, err := lw.fromStmt(inner, s.init)
		if err != nil {
			return nil, err
		}
		inner = next
		if len(stmts) == 1 {
			init = stmts[0]
		} else if len(stmts) > 1 {
			init = &ast.Block{Stmts: stmts}
		}
	}
	var test, post ast.Expr
	var err exc.Exception
	if s.test != nil {
		test, err = lw.fromExpr(inner, s.test)
		if err != nil {
			return nil, err
		}
	}
	if s.post != nil {
		post, err = lw.fromExpr(inner, s.post)
		if err != nil {
			return nil, err
		}
	}
	body, err := lw.fromNestedStmt(inner, s.body)
	if err != nil {
		return nil, err
	}
	var loop ast.Stmt = &ast.For{Info: s.info, Init: init, Test: test, Post: post, Body: body}
	if label != "" {
		loop = &ast.Labeled{Info: s.info, Label: label, Stmt: loop}
	}
	return []ast.Stmt{loop}, nil
}

// fromForOf expands for-each iteration onto the iteration protocol:
//
//	for (const x of e) body
//
// becomes
//
//	const _iter = iterator(e)
//	while (true) {
//	    const _step = _iter.next()
//	    if (_step.done) break
//	    const x = _step.value
//	    body
//	}
//
// This is a transpilation, not a behavior change: break and continue inside
// body still target the loop, and a surrounding label attaches to the while.
func (lw *lowerer) fromForOf(e env, s *cstForOf, label string) ([]ast.Stmt, exc.Exception) {
	iterable, err := lw.fromExpr(e, s.iterable)
	if err != nil {
		return nil, err
	}
	iterName := lw.fresh()
	stepName := lw.fresh()

	iterDef := &ast.DefStmt{Def: &ast.VarDef{
		Name: iterName,
		Kind: ast.VarKindConst,
		Init: &ast.Call{Info: s.info, Fn: &ast.Special{Info: s.info, Kind: ast.SpecialIterator}, Args: []ast.Expr{iterable}},
	}}
	stepDef := &ast.DefStmt{Def: &ast.VarDef{
		Name: stepName,
		Kind: ast.VarKindConst,
		Init: &ast.Call{
			Info: s.info,
			Fn:   &ast.FieldAccess{Info: s.info, Obj: ref(iterName), Name: ast.NewName(lang.SyntheticInfo("next"), "next")},
		},
	}}
	stop := &ast.If{
		Info: s.info,
		Test: &ast.FieldAccess{Info: s.info, Obj: ref(stepName), Name: ast.NewName(lang.SyntheticInfo("done"), "done")},
		Then: &ast.Break{Info: s.info},
	}
	value := &ast.FieldAccess{Info: s.info, Obj: ref(stepName), Name: ast.NewName(lang.SyntheticInfo("value"), "value")}

	inner := e
	var bindStmts []ast.Stmt
	if s.declKind != 0 {
		bindStmts, inner, err = lw.fromDeclPattern(inner, varKindOf(s.declKind), s.left, value)
	} else {
		bindStmts, err = lw.fromAssignPattern(inner, s.left, value)
	}
	if err != nil {
		return nil, err
	}

	bodyStmts, _, err := lw.fromStmts(inner, []stmt{s.body})
	if err != nil {
		return nil, err
	}

	loopBody := []ast.Stmt{stepDef, stop}
	loopBody = append(loopBody, bindStmts...)
	loopBody = append(loopBody, bodyStmts...)
	var loop ast.Stmt = &ast.While{
		Info: s.info,
		Test: &ast.Literal{Info: lang.SyntheticInfo("true"), Kind: ast.LiteralBool, Value: "true"},
		Body: &ast.Block{Info: s.info, Stmts: loopBody},
	}
	if label != "" {
		loop = &ast.Labeled{Info: s.info, Label: label, Stmt: loop}
	}
	return []ast.Stmt{iterDef, loop}, nil
}

func (lw *lowerer) fromLabeled(e env, s *cstLabeled) ([]ast.Stmt, exc.Exception) {
	switch body := s.body.(type) {
	case *cstForOf:
		return lw.fromForOf(e, body, s.label)
	case *cstForClassic:
		return lw.fromForClassic(e, body, s.label)
	default:
		inner, err := lw.fromNestedStmt(e, s.body)
		if err != nil {
			return nil, err
		}
		return []ast.Stmt{&ast.Labeled{Info: s.info, Label: s.label, Stmt: inner}}, nil
	}
}

func (lw *lowerer) fromTry(e env, s *cstTry) ([]ast.Stmt, exc.Exception) {
	body, err := lw.fromBlock(e, s.block)
	if err != nil {
		return nil, err
	}
	out := &ast.Try{Info: s.info, Body: body}
	if s.catch != nil {
		inner := e
		if s.catchParam != nil {
			ident, ok := s.catchParam.(*cstIdentPat)
			if !ok {
				return nil, lw.todo("CatchPattern", s.info)
			}
			param := ast.NewName(lang.InfoOf(ident.name), ident.name.Value)
			param.Resolution.Kind = ast.ResolvedLocal
			out.CatchParam = param
			inner = e.withLocal(param.Value, ast.ResolvedLocal)
		}
		out.Catch, err = lw.fromBlock(inner, s.catch)
		if err != nil {
			return nil, err
		}
	}
	if s.finally != nil {
		out.Finally, err = lw.fromBlock(e, s.finally)
		if err != nil {
			return nil, err
		}
	}
	return []ast.Stmt{out}, nil
}

func (lw *lowerer) fromSwitch(e env, s *cstSwitch) ([]ast.Stmt, exc.Exception) {
	subject, err := lw.fromExpr(e, s.subject)
	if err != nil {
		return nil, err
	}
	out := &ast.Switch{Info: s.info, Subject: subject}
	// all cases of a switch share one block scope
	caseEnv := e
	for _, c := range s.cases {
		var values []ast.Expr
		if c.test != nil {
			value, err := lw.fromExpr(caseEnv, c.test)
			if err != nil {
				return nil, err
			}
			values = []ast.Expr{value}
		}
		body, next, err := lw.fromStmts(caseEnv, c.body)
		if err != nil {
			return nil, err
		}
		caseEnv = next
		out.Cases = append(out.Cases, ast.SwitchCase{Info: c.info, Values: values, Body: body})
	}
	return []ast.Stmt{out}, nil
}

func (lw *lowerer) fromImport(e env, s *cstImport) ([]ast.Stmt, env, exc.Exception) {
	path := s.path.Value
	if len(s.specs) == 0 {
		d := &ast.ImportEffect{Info: s.info, Path: path}
		return []ast.Stmt{&ast.DirectiveStmt{Directive: d}}, e, nil
	}
	out := []ast.Stmt{}
	for _, spec := range s.specs {
		local := ast.NewName(lang.InfoOf(spec.local), spec.local.Value)
		local.Resolution.Kind = ast.ResolvedLocal
		e = e.withLocal(local.Value, ast.ResolvedLocal)
		var d ast.Directive
		switch spec.kind {
		case importSpecDefault:
			d = &ast.Import{Info: s.info, Path: path, Imported: ast.NewName(lang.InfoOf(spec.local), "default"), Local: local}
		case importSpecNamespace:
			d = &ast.ImportAll{Info: s.info, Path: path, Alias: local}
		default:
			d = &ast.Import{Info: s.info, Path: path, Imported: ast.NewName(lang.InfoOf(spec.imported), spec.imported.Value), Local: local}
		}
		out = append(out, &ast.DirectiveStmt{Directive: d})
	}
	return out, e, nil
}

func (lw *lowerer) fromExportDecl(e env, s *cstExportDecl) ([]ast.Stmt, env, exc.Exception) {
	stmts, next, err := lw.fromStmt(e, s.decl)
	if err != nil {
		return nil, e, err
	}
	out := append([]ast.Stmt{}, stmts...)
	for _, lowered := range stmts {
		def, ok := lowered.(*ast.DefStmt)
		if !ok {
			continue
		}
		if name := defName(def.Def); name != nil && !name.Info.Synthetic {
			d := &ast.Export{Info: s.info, Name: ast.NewName(name.Info, name.Value)}
			out = append(out, &ast.DirectiveStmt{Directive: d})
		}
	}
	return out, next, nil
}

func defName(d ast.Def) *ast.Name {
	switch d := d.(type) {
	case *ast.VarDef:
		return d.Name
	case *ast.FnDef:
		return d.Name
	case *ast.ClassDef:
		return d.Name
	case *ast.FieldDef:
		return d.Name
	case *ast.TypeDef:
		return d.Name
	default:
		return nil
	}
}

// fromExportDefault gives an unnamed default-exported definition the
// sentinel binding name required by the target shape; named definitions
// keep their own name.
func (lw *lowerer) fromExportDefault(e env, s *cstExportDefault) ([]ast.Stmt, env, exc.Exception) {
	if s.decl != nil {
		switch decl := s.decl.(type) {
		case *cstFuncDecl:
			var name *ast.Name
			if decl.fn.name != nil {
				name = ast.NewName(lang.InfoOf(*decl.fn.name), decl.fn.name.Value)
				name.Resolution.Kind = ast.ResolvedLocal
				e.addVar(name.Value)
			} else {
				name = ast.SyntheticName(ast.DefaultName)
			}
			def, err := lw.fromFunc(e, decl.fn, name, nil)
			if err != nil {
				return nil, e, err
			}
			export := &ast.Export{Info: s.info, Name: ref(name)}
			return []ast.Stmt{&ast.DefStmt{Def: def}, &ast.DirectiveStmt{Directive: export}}, e, nil
		case *cstClassDecl:
			var name *ast.Name
			if decl.class.name != nil {
				name = ast.NewName(lang.InfoOf(*decl.class.name), decl.class.name.Value)
				name.Resolution.Kind = ast.ResolvedLocal
				e.addVar(name.Value)
			} else {
				name = ast.SyntheticName(ast.DefaultName)
			}
			def, err := lw.fromClass(e, decl.class, name)
			if err != nil {
				return nil, e, err
			}
			export := &ast.Export{Info: s.info, Name: ref(name)}
			return []ast.Stmt{&ast.DefStmt{Def: def}, &ast.DirectiveStmt{Directive: export}}, e, nil
		}
		return nil, e, lw.unhandled("ExportDefaultDecl", s.info)
	}
	value, err := lw.fromExpr(e, s.value)
	if err != nil {
		return nil, e, err
	}
	name := ast.SyntheticName(ast.DefaultName)
	def := &ast.VarDef{Name: name, Kind: ast.VarKindConst, Init: value}
	export := &ast.Export{Info: s.info, Name: ref(name)}
	return []ast.Stmt{&ast.DefStmt{Def: def}, &ast.DirectiveStmt{Directive: export}}, e, nil
}

// fromExportNamed handles local exports and re-exports. A re-export with a
// rename becomes an import into a synthesized temporary plus an export of
// that temporary, which preserves the observable binding without a new
// directive kind.
func (lw *lowerer) fromExportNamed(e env, s *cstExportNamed) ([]ast.Stmt, env, exc.Exception) {
	out := []ast.Stmt{}
	for _, spec := range s.specs {
		exported := ast.NewName(lang.InfoOf(spec.exported), spec.exported.Value)
		if s.from == nil {
			d := &ast.Export{Info: s.info, Name: exported}
			if spec.local.Value != spec.exported.Value {
				d.Local = ast.NewName(lang.InfoOf(spec.local), spec.local.Value)
			}
			out = append(out, &ast.DirectiveStmt{Directive: d})
			continue
		}
		tmp := lw.fresh()
		imp := &ast.Import{
			Info:     s.info,
			Path:     s.from.Value,
			Imported: ast.NewName(lang.InfoOf(spec.local), spec.local.Value),
			Local:    tmp,
		}
		d := &ast.Export{Info: s.info, Name: exported, Local: ref(tmp)}
		out = append(out, &ast.DirectiveStmt{Directive: imp}, &ast.DirectiveStmt{Directive: d})
	}
	return out, e, nil
}

var literalKinds = map[lang.TokenType]ast.LiteralKind{
	lang.TokenTypeIntegerLit:   ast.LiteralInt,
	lang.TokenTypeFloatLit:     ast.LiteralFloat,
	lang.TokenTypeStringLit:    ast.LiteralString,
	lang.TokenTypeCharLit:      ast.LiteralChar,
	lang.TokenTypeRegexpLit:    ast.LiteralRegexp,
	lang.TokenTypeKeywordTrue:  ast.LiteralBool,
	lang.TokenTypeKeywordFalse: ast.LiteralBool,
	lang.TokenTypeKeywordNull:  ast.LiteralNull,
}

var binaryOps = map[lang.TokenType]ast.Op{
	lang.TokenTypePlus:               ast.OpPlus,
	lang.TokenTypeMinus:              ast.OpMinus,
	lang.TokenTypeStar:               ast.OpMult,
	lang.TokenTypeSlash:              ast.OpDiv,
	lang.TokenTypePercent:            ast.OpMod,
	lang.TokenTypeEqEq:               ast.OpEq,
	lang.TokenTypeNotEq:              ast.OpNotEq,
	lang.TokenTypeEqEqEq:             ast.OpPhysEq,
	lang.TokenTypeNotEqEq:            ast.OpNotPhysEq,
	lang.TokenTypeAngleOpen:          ast.OpLt,
	lang.TokenTypeLesserEqual:        ast.OpLtEq,
	lang.TokenTypeAngleClose:         ast.OpGt,
	lang.TokenTypeGreaterEqual:       ast.OpGtEq,
	lang.TokenTypeAmpAmp:             ast.OpAnd,
	lang.TokenTypePipePipe:           ast.OpOr,
	lang.TokenTypeAmpersand:          ast.OpBitAnd,
	lang.TokenTypePipe:               ast.OpBitOr,
	lang.TokenTypeCaret:              ast.OpBitXor,
	lang.TokenTypeShiftLeft:          ast.OpShiftLeft,
	lang.TokenTypeShiftRight:         ast.OpShiftRight,
	lang.TokenTypeShiftRightUnsigned: ast.OpShiftRightUnsigned,
	lang.TokenTypeKeywordIn:          ast.OpIn,
	lang.TokenTypeKeywordInstanceof:  ast.OpInstanceof,
}

var compoundAssignOps = map[lang.TokenType]ast.Op{
	lang.TokenTypePlusEqual:    ast.OpPlus,
	lang.TokenTypeMinusEqual:   ast.OpMinus,
	lang.TokenTypeStarEqual:    ast.OpMult,
	lang.TokenTypeSlashEqual:   ast.OpDiv,
	lang.TokenTypePercentEqual: ast.OpMod,
}

var unaryOps = map[lang.TokenType]ast.Op{
	lang.TokenTypeBang:       ast.OpNot,
	lang.TokenTypeTilde:      ast.OpBitNot,
	lang.TokenTypeMinus:      ast.OpUnaryMinus,
	lang.TokenTypePlus:       ast.OpUnaryPlus,
	lang.TokenTypePlusPlus:   ast.OpIncr,
	lang.TokenTypeMinusMinus: ast.OpDecr,
}

// postfixEscapes are the suffix forms of ++ and --. Their value semantics
// differ from the prefix forms and the shared operator tags cover only the
// prefix reading, so the suffix forms survive as categorized escape nodes.
var postfixEscapes = map[lang.TokenType]string{
	lang.TokenTypePlusPlus:   "PostfixIncrement",
	lang.TokenTypeMinusMinus: "PostfixDecrement",
}

var unarySpecials = map[lang.TokenType]ast.SpecialKind{
	lang.TokenTypeKeywordTypeof: ast.SpecialTypeof,
	lang.TokenTypeKeywordDelete: ast.SpecialDelete,
	lang.TokenTypeKeywordVoid:   ast.SpecialVoid,
	lang.TokenTypeKeywordAwait:  ast.SpecialAwait,
	lang.TokenTypeKeywordYield:  ast.SpecialYield,
}

func (lw *lowerer) fromExpr(e env, x expr) (ast.Expr, exc.Exception) {
	switch x := x.(type) {
	case *cstIdent:
		return lw.ident(e, x.name, x.info), nil
	case *cstLit:
		kind, ok := literalKinds[x.typ]
		if !ok {
			return nil, lw.unhandled(fmt.Sprintf("Literal(%s)", x.typ), x.info)
		}
		return &ast.Literal{Info: x.info, Kind: kind, Value: x.value}, nil
	case *cstThis:
		return &ast.Special{Info: x.info, Kind: ast.SpecialThis}, nil
	case *cstSuper:
		return &ast.Special{Info: x.info, Kind: ast.SpecialSuper}, nil
	case *cstCall:
		callee, err := lw.fromExpr(e, x.callee)
		if err != nil {
			return nil, err
		}
		args, err := lw.fromExprs(e, x.args)
		if err != nil {
			return nil, err
		}
		return &ast.Call{Info: x.info, Fn: callee, Args: args}, nil
	case *cstNew:
		callee, err := lw.fromExpr(e, x.callee)
		if err != nil {
			return nil, err
		}
		args, err := lw.fromExprs(e, x.args)
		if err != nil {
			return nil, err
		}
		return &ast.Call{Info: x.info, Fn: &ast.Special{Info: x.info, Kind: ast.SpecialNew}, Args: append([]ast.Expr{callee}, args...)}, nil
	case *cstDot:
		obj, err := lw.fromExpr(e, x.obj)
		if err != nil {
			return nil, err
		}
		return &ast.FieldAccess{Info: x.info, Obj: obj, Name: ast.NewName(lang.InfoOf(x.name), x.name.Value)}, nil
	case *cstIndex:
		obj, err := lw.fromExpr(e, x.obj)
		if err != nil {
			return nil, err
		}
		index, err := lw.fromExpr(e, x.index)
		if err != nil {
			return nil, err
		}
		return &ast.OpCall{Info: x.info, Op: ast.OpArrayAccess, Args: []ast.Expr{obj, index}}, nil
	case *cstAssign:
		return lw.fromAssign(e, x)
	case *cstBinary:
		left, err := lw.fromExpr(e, x.left)
		if err != nil {
			return nil, err
		}
		right, err := lw.fromExpr(e, x.right)
		if err != nil {
			return nil, err
		}
		op, ok := binaryOps[x.op.Type]
		if !ok {
			return nil, lw.unhandled(fmt.Sprintf("BinaryOp(%s)", x.op.Type), x.info)
		}
		return &ast.OpCall{Info: lang.InfoOf(x.op), Op: op, Args: []ast.Expr{left, right}}, nil
	case *cstUnary:
		operand, err := lw.fromExpr(e, x.operand)
		if err != nil {
			return nil, err
		}
		if special, ok := unarySpecials[x.op.Type]; ok {
			return &ast.Call{Info: lang.InfoOf(x.op), Fn: &ast.Special{Info: lang.InfoOf(x.op), Kind: special}, Args: []ast.Expr{operand}}, nil
		}
		if !x.prefix {
			if category, ok := postfixEscapes[x.op.Type]; ok {
				return &ast.OtherExpr{Info: lang.InfoOf(x.op), Category: category, Children: []ast.Node{operand}}, nil
			}
		}
		op, ok := unaryOps[x.op.Type]
		if !ok {
			return nil, lw.unhandled(fmt.Sprintf("UnaryOp(%s)", x.op.Type), x.info)
		}
		return &ast.OpCall{Info: lang.InfoOf(x.op), Op: op, Args: []ast.Expr{operand}}, nil
	case *cstCondExpr:
		test, err := lw.fromExpr(e, x.test)
		if err != nil {
			return nil, err
		}
		then, err := lw.fromExpr(e, x.then)
		if err != nil {
			return nil, err
		}
		els, err := lw.fromExpr(e, x.els)
		if err != nil {
			return nil, err
		}
		return &ast.Cond{Info: x.info, Test: test, Then: then, Else: els}, nil
	case *cstSeq:
		exprs, err := lw.fromExprs(e, x.exprs)
		if err != nil {
			return nil, err
		}
		children := make([]ast.Node, 0, len(exprs))
		for _, sub := range exprs {
			children = append(children, sub)
		}
		return &ast.OtherExpr{Info: x.info, Category: "Sequence", Children: children}, nil
	case *cstSpread:
		arg, err := lw.fromExpr(e, x.arg)
		if err != nil {
			return nil, err
		}
		return &ast.Call{Info: x.info, Fn: &ast.Special{Info: x.info, Kind: ast.SpecialSpread}, Args: []ast.Expr{arg}}, nil
	case *cstArrayLit:
		items, err := lw.fromExprs(e, x.elems)
		if err != nil {
			return nil, err
		}
		return &ast.Container{Info: x.info, Kind: ast.ContainerList, Items: items}, nil
	case *cstObjectLit:
		items := make([]ast.Expr, 0, len(x.props))
		for _, prop := range x.props {
			var value ast.Expr
			var err exc.Exception
			if prop.shorthand {
				value = lw.ident(e, prop.key.Value, lang.InfoOf(prop.key))
			} else {
				value, err = lw.fromExpr(e, prop.value)
				if err != nil {
					return nil, err
				}
			}
			key := &ast.Literal{Info: lang.InfoOf(prop.key), Kind: ast.LiteralString, Value: prop.key.Value}
			items = append(items, &ast.KeyVal{Info: prop.info, Key: key, Value: value})
		}
		return &ast.Container{Info: x.info, Kind: ast.ContainerDict, Items: items}, nil
	case *cstFunc:
		var name *ast.Name
		if x.name != nil {
			name = ast.NewName(lang.InfoOf(*x.name), x.name.Value)
			name.Resolution.Kind = ast.ResolvedLocal
		}
		def, err := lw.fromFunc(e, *x, name, nil)
		if err != nil {
			return nil, err
		}
		return &ast.DefExpr{Def: def}, nil
	case *cstArrowFn:
		def, err := lw.fromArrow(e, x)
		if err != nil {
			return nil, err
		}
		return &ast.DefExpr{Def: def}, nil
	case *cstClassExpr:
		var name *ast.Name
		if x.class.name != nil {
			name = ast.NewName(lang.InfoOf(*x.class.name), x.class.name.Value)
		}
		def, err := lw.fromClass(e, x.class, name)
		if err != nil {
			return nil, err
		}
		return &ast.DefExpr{Def: def}, nil
	case *cstOtherExpr:
		return nil, lw.todo(x.category, x.info)
	default:
		return nil, lw.unhandled(fmt.Sprintf("Expr(%T)", x), lang.Info{})
	}
}

func (lw *lowerer) fromAssign(e env, x *cstAssign) (ast.Expr, exc.Exception) {
	target, err := lw.fromExpr(e, x.target)
	if err != nil {
		return nil, err
	}
	value, err := lw.fromExpr(e, x.value)
	if err != nil {
		return nil, err
	}
	if x.op == lang.TokenTypeEqual {
		return &ast.Assign{Info: x.info, Target: target, Value: value}, nil
	}
	op, ok := compoundAssignOps[x.op]
	if !ok {
		return nil, lw.unhandled(fmt.Sprintf("AssignOp(%s)", x.op), x.info)
	}
	// x op= v desugars to x = x op v
	combined := &ast.OpCall{Info: x.info, Op: op, Args: []ast.Expr{target, value}}
	retarget, err := lw.fromExpr(e, x.target)
	if err != nil {
		return nil, err
	}
	return &ast.Assign{Info: x.info, Target: retarget, Value: combined}, nil
}

func (lw *lowerer) fromExprs(e env, in []expr) ([]ast.Expr, exc.Exception) {
	out := make([]ast.Expr, 0, len(in))
	for _, x := range in {
		lowered, err := lw.fromExpr(e, x)
		if err != nil {
			return nil, err
		}
		out = append(out, lowered)
	}
	return out, nil
}

// literalToPattern reinterprets an expression written in assignment-target
// position as a binding pattern, or returns nil when it is not one.
func literalToPattern(x expr) pattern {
	switch x := x.(type) {
	case *cstIdent:
		return &cstIdentPat{cstNode: x.cstNode, name: lang.Token{Span: x.info.Span, Type: lang.TokenTypeIdentifier, Value: x.name}}
	case *cstArrayLit:
		pat := &cstArrayPat{cstNode: x.cstNode}
		for _, elem := range x.elems {
			if elem == nil {
				pat.elems = append(pat.elems, nil)
				continue
			}
			sub := literalToPattern(elem)
			if sub == nil {
				return nil
			}
			pat.elems = append(pat.elems, sub)
		}
		return pat
	case *cstObjectLit:
		pat := &cstObjectPat{cstNode: x.cstNode}
		for _, prop := range x.props {
			p := cstObjectPatProp{cstNode: prop.cstNode, key: prop.key}
			if !prop.shorthand {
				sub := literalToPattern(prop.value)
				if sub == nil {
					return nil
				}
				p.value = sub
			}
			pat.props = append(pat.props, p)
		}
		return pat
	default:
		return nil
	}
}
