// © 2026 Polyfront Authors
//
// SPDX-License-Identifier: Apache-2.0

package js

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopkg.polyfront.org/frontend.go/internal/ast"
	"gopkg.polyfront.org/frontend.go/internal/exc"
	"gopkg.polyfront.org/frontend.go/internal/lang"
)

func mustLowerJS(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog := mustParseJS(t, src)
	lowered, err := Lower(prog, lang.Config{})
	require.Nil(t, err)
	return lowered
}

func defOf(t *testing.T, s ast.Stmt) ast.Def {
	t.Helper()
	ds, ok := s.(*ast.DefStmt)
	require.True(t, ok, "expected a definition, got %T", s)
	return ds.Def
}

func varDefOf(t *testing.T, s ast.Stmt) *ast.VarDef {
	t.Helper()
	d, ok := defOf(t, s).(*ast.VarDef)
	require.True(t, ok)
	return d
}

func TestLowerDestructuringExpansion(t *testing.T) {
	t.Parallel()
	lowered := mustLowerJS(t, "var {x, y} = point;")
	require.Len(t, lowered.Stmts, 3)

	tmp := varDefOf(t, lowered.Stmts[0])
	assert.True(t, tmp.Name.Info.Synthetic)
	assert.Equal(t, ast.VarKindVar, tmp.Kind)
	assert.Equal(t, ast.ResolvedLocal, tmp.Name.Resolution.Kind)

	x := varDefOf(t, lowered.Stmts[1])
	assert.Equal(t, "x", x.Name.Value)
	assert.False(t, x.Name.Info.Synthetic)
	assert.Equal(t, ast.VarKindVar, x.Kind)
	access, ok := x.Init.(*ast.FieldAccess)
	require.True(t, ok)
	base, ok := access.Obj.(*ast.Name)
	require.True(t, ok)
	assert.Equal(t, tmp.Name.Value, base.Value)
	assert.Equal(t, "x", access.Name.Value)

	y := varDefOf(t, lowered.Stmts[2])
	assert.Equal(t, "y", y.Name.Value)
	assert.Equal(t, ast.VarKindVar, y.Kind)
}

func TestLowerArrayDestructuring(t *testing.T) {
	t.Parallel()
	lowered := mustLowerJS(t, "const [a, , b] = items;")
	require.Len(t, lowered.Stmts, 3)

	tmp := varDefOf(t, lowered.Stmts[0])
	assert.True(t, tmp.Name.Info.Synthetic)
	assert.Equal(t, ast.VarKindConst, tmp.Kind)

	a := varDefOf(t, lowered.Stmts[1])
	assert.Equal(t, "a", a.Name.Value)
	idx, ok := a.Init.(*ast.OpCall)
	require.True(t, ok)
	assert.Equal(t, ast.OpArrayAccess, idx.Op)
	assert.Equal(t, "0", idx.Args[1].(*ast.Literal).Value)

	b := varDefOf(t, lowered.Stmts[2])
	assert.Equal(t, "b", b.Name.Value)
	idx = b.Init.(*ast.OpCall)
	assert.Equal(t, "2", idx.Args[1].(*ast.Literal).Value)
}

func TestLowerScopeShadowing(t *testing.T) {
	t.Parallel()
	lowered := mustLowerJS(t, "let point = 1; function f(point) { return point; } use(point);")
	require.Len(t, lowered.Stmts, 3)

	fn := defOf(t, lowered.Stmts[1]).(*ast.FnDef)
	ret := fn.Body.Stmts[0].(*ast.Return)
	inner := ret.Value.(*ast.Name)
	assert.Equal(t, ast.ResolvedParameter, inner.Resolution.Kind)

	call := lowered.Stmts[2].(*ast.ExprStmt).Expr.(*ast.Call)
	outer := call.Args[0].(*ast.Name)
	assert.Equal(t, ast.ResolvedLocal, outer.Resolution.Kind)
}

func TestLowerSpecialForms(t *testing.T) {
	t.Parallel()
	lowered := mustLowerJS(t, "require('m'); module.exports = 1;")

	call := lowered.Stmts[0].(*ast.ExprStmt).Expr.(*ast.Call)
	special, ok := call.Fn.(*ast.Special)
	require.True(t, ok)
	assert.Equal(t, ast.SpecialRequire, special.Kind)

	assign := lowered.Stmts[1].(*ast.ExprStmt).Expr.(*ast.Assign)
	access := assign.Target.(*ast.FieldAccess)
	special, ok = access.Obj.(*ast.Special)
	require.True(t, ok)
	assert.Equal(t, ast.SpecialModule, special.Kind)
}

func TestLowerSpecialFormShadowedByBinding(t *testing.T) {
	t.Parallel()
	lowered := mustLowerJS(t, "function f(require) { return require('m'); }")

	fn := defOf(t, lowered.Stmts[0]).(*ast.FnDef)
	ret := fn.Body.Stmts[0].(*ast.Return)
	call := ret.Value.(*ast.Call)
	name, ok := call.Fn.(*ast.Name)
	require.True(t, ok, "shadowed special form must stay an identifier")
	assert.Equal(t, ast.ResolvedParameter, name.Resolution.Kind)
}

func TestLowerUnresolvedIdentifier(t *testing.T) {
	t.Parallel()
	lowered := mustLowerJS(t, "frobnicate(1);")
	call := lowered.Stmts[0].(*ast.ExprStmt).Expr.(*ast.Call)
	name := call.Fn.(*ast.Name)
	assert.Equal(t, ast.NotResolved, name.Resolution.Kind)
}

func TestLowerBlockScopeDoesNotLeak(t *testing.T) {
	t.Parallel()
	lowered := mustLowerJS(t, "{ let hidden = 1; } use(hidden);")
	call := lowered.Stmts[1].(*ast.ExprStmt).Expr.(*ast.Call)
	name := call.Args[0].(*ast.Name)
	assert.Equal(t, ast.NotResolved, name.Resolution.Kind)
}

func TestLowerVarEscapesBlock(t *testing.T) {
	t.Parallel()
	lowered := mustLowerJS(t, "{ var hoisted = 1; } use(hoisted);")
	call := lowered.Stmts[1].(*ast.ExprStmt).Expr.(*ast.Call)
	name := call.Args[0].(*ast.Name)
	assert.Equal(t, ast.ResolvedLocal, name.Resolution.Kind)
}

func TestLowerArrowImplicitReturn(t *testing.T) {
	t.Parallel()
	lowered := mustLowerJS(t, "const f = a => a + 1;")
	def := varDefOf(t, lowered.Stmts[0])
	fn := def.Init.(*ast.DefExpr).Def.(*ast.FnDef)
	assert.Equal(t, ast.AnonName, fn.Name.Value)
	require.Len(t, fn.Body.Stmts, 1)
	ret, ok := fn.Body.Stmts[0].(*ast.Return)
	require.True(t, ok, "implicit-return body must become an explicit return")
	op := ret.Value.(*ast.OpCall)
	assert.Equal(t, ast.OpPlus, op.Op)
	param := op.Args[0].(*ast.Name)
	assert.Equal(t, ast.ResolvedParameter, param.Resolution.Kind)
}

func TestLowerForOfExpansion(t *testing.T) {
	t.Parallel()
	lowered := mustLowerJS(t, "for (const x of xs) { use(x); }")
	require.Len(t, lowered.Stmts, 2)

	iterDef := varDefOf(t, lowered.Stmts[0])
	assert.True(t, iterDef.Name.Info.Synthetic)
	iterCall := iterDef.Init.(*ast.Call)
	special := iterCall.Fn.(*ast.Special)
	assert.Equal(t, ast.SpecialIterator, special.Kind)

	loop := lowered.Stmts[1].(*ast.While)
	test := loop.Test.(*ast.Literal)
	assert.Equal(t, ast.LiteralBool, test.Kind)

	body := loop.Body.(*ast.Block)
	require.GreaterOrEqual(t, len(body.Stmts), 4)

	stepDef := varDefOf(t, body.Stmts[0])
	assert.True(t, stepDef.Name.Info.Synthetic)
	next := stepDef.Init.(*ast.Call)
	nextAccess := next.Fn.(*ast.FieldAccess)
	assert.Equal(t, "next", nextAccess.Name.Value)

	stop := body.Stmts[1].(*ast.If)
	done := stop.Test.(*ast.FieldAccess)
	assert.Equal(t, "done", done.Name.Value)
	assert.IsType(t, &ast.Break{}, stop.Then)

	x := varDefOf(t, body.Stmts[2])
	assert.Equal(t, "x", x.Name.Value)
	value := x.Init.(*ast.FieldAccess)
	assert.Equal(t, "value", value.Name.Value)

	use := body.Stmts[3].(*ast.Block).Stmts[0].(*ast.ExprStmt).Expr.(*ast.Call)
	arg := use.Args[0].(*ast.Name)
	assert.Equal(t, ast.ResolvedLocal, arg.Resolution.Kind)
}

func TestLowerForOfKeepsLabel(t *testing.T) {
	t.Parallel()
	lowered := mustLowerJS(t, "outer: for (const x of xs) { continue outer; }")
	require.Len(t, lowered.Stmts, 2)
	labeled := lowered.Stmts[1].(*ast.Labeled)
	assert.Equal(t, "outer", labeled.Label)
	assert.IsType(t, &ast.While{}, labeled.Stmt)
}

func TestLowerImportForms(t *testing.T) {
	t.Parallel()
	lowered := mustLowerJS(t, "import 'effect'; import def from 'm'; import { a as b } from 'm'; import * as ns from 'm';")
	require.Len(t, lowered.Stmts, 4)

	effect := lowered.Stmts[0].(*ast.DirectiveStmt).Directive.(*ast.ImportEffect)
	assert.Equal(t, "effect", effect.Path)

	deflt := lowered.Stmts[1].(*ast.DirectiveStmt).Directive.(*ast.Import)
	assert.Equal(t, "default", deflt.Imported.Value)
	assert.Equal(t, "def", deflt.Local.Value)

	named := lowered.Stmts[2].(*ast.DirectiveStmt).Directive.(*ast.Import)
	assert.Equal(t, "a", named.Imported.Value)
	assert.Equal(t, "b", named.Local.Value)

	all := lowered.Stmts[3].(*ast.DirectiveStmt).Directive.(*ast.ImportAll)
	assert.Equal(t, "ns", all.Alias.Value)
}

func TestLowerImportBindsLocalName(t *testing.T) {
	t.Parallel()
	lowered := mustLowerJS(t, "import { a as b } from 'm'; use(b);")
	call := lowered.Stmts[1].(*ast.ExprStmt).Expr.(*ast.Call)
	name := call.Args[0].(*ast.Name)
	assert.Equal(t, ast.ResolvedLocal, name.Resolution.Kind)
}

func TestLowerExportForms(t *testing.T) {
	t.Parallel()
	lowered := mustLowerJS(t, "export const x = 1; export { x as y };")
	require.Len(t, lowered.Stmts, 3)

	def := varDefOf(t, lowered.Stmts[0])
	assert.Equal(t, "x", def.Name.Value)
	export := lowered.Stmts[1].(*ast.DirectiveStmt).Directive.(*ast.Export)
	assert.Equal(t, "x", export.Name.Value)
	assert.Nil(t, export.Local)

	renamed := lowered.Stmts[2].(*ast.DirectiveStmt).Directive.(*ast.Export)
	assert.Equal(t, "y", renamed.Name.Value)
	require.NotNil(t, renamed.Local)
	assert.Equal(t, "x", renamed.Local.Value)
}

func TestLowerReExportRename(t *testing.T) {
	t.Parallel()
	lowered := mustLowerJS(t, "export { a as b } from 'm';")
	require.Len(t, lowered.Stmts, 2)

	imp := lowered.Stmts[0].(*ast.DirectiveStmt).Directive.(*ast.Import)
	assert.Equal(t, "m", imp.Path)
	assert.Equal(t, "a", imp.Imported.Value)
	assert.True(t, imp.Local.Info.Synthetic)

	export := lowered.Stmts[1].(*ast.DirectiveStmt).Directive.(*ast.Export)
	assert.Equal(t, "b", export.Name.Value)
	require.NotNil(t, export.Local)
	assert.Equal(t, imp.Local.Value, export.Local.Value)
}

func TestLowerExportDefaultAnonymous(t *testing.T) {
	t.Parallel()
	lowered := mustLowerJS(t, "export default function () { return 1; }")
	require.Len(t, lowered.Stmts, 2)

	fn := defOf(t, lowered.Stmts[0]).(*ast.FnDef)
	assert.Equal(t, ast.DefaultName, fn.Name.Value)
	export := lowered.Stmts[1].(*ast.DirectiveStmt).Directive.(*ast.Export)
	assert.Equal(t, ast.DefaultName, export.Name.Value)
}

func TestLowerExportDefaultNamed(t *testing.T) {
	t.Parallel()
	lowered := mustLowerJS(t, "export default function main() { return 1; }")
	fn := defOf(t, lowered.Stmts[0]).(*ast.FnDef)
	assert.Equal(t, "main", fn.Name.Value)
	export := lowered.Stmts[1].(*ast.DirectiveStmt).Directive.(*ast.Export)
	assert.Equal(t, "main", export.Name.Value)
}

func TestLowerAnonymousFunctionExpr(t *testing.T) {
	t.Parallel()
	lowered := mustLowerJS(t, "use(function () { return 1; });")
	call := lowered.Stmts[0].(*ast.ExprStmt).Expr.(*ast.Call)
	fn := call.Args[0].(*ast.DefExpr).Def.(*ast.FnDef)
	assert.Equal(t, ast.AnonName, fn.Name.Value)
}

func TestLowerPrefixAndPostfixIncrementDiffer(t *testing.T) {
	t.Parallel()
	lowered := mustLowerJS(t, "let n = 0; ++n; n++;")

	pre := lowered.Stmts[1].(*ast.ExprStmt).Expr.(*ast.OpCall)
	assert.Equal(t, ast.OpIncr, pre.Op)

	post := lowered.Stmts[2].(*ast.ExprStmt).Expr.(*ast.OtherExpr)
	assert.Equal(t, "PostfixIncrement", post.Category)
	require.Len(t, post.Children, 1)
	assert.Equal(t, "n", post.Children[0].(*ast.Name).Value)
	assert.Equal(t, ast.ResolvedLocal, post.Children[0].(*ast.Name).Resolution.Kind)
}

func TestLowerCompoundAssignment(t *testing.T) {
	t.Parallel()
	lowered := mustLowerJS(t, "let a = 1; a += 2;")
	assign := lowered.Stmts[1].(*ast.ExprStmt).Expr.(*ast.Assign)
	combined := assign.Value.(*ast.OpCall)
	assert.Equal(t, ast.OpPlus, combined.Op)
}

func TestLowerNewExpression(t *testing.T) {
	t.Parallel()
	lowered := mustLowerJS(t, "const p = new Point(1, 2);")
	def := varDefOf(t, lowered.Stmts[0])
	call := def.Init.(*ast.Call)
	special := call.Fn.(*ast.Special)
	assert.Equal(t, ast.SpecialNew, special.Kind)
	require.Len(t, call.Args, 3)
	ctor := call.Args[0].(*ast.Name)
	assert.Equal(t, "Point", ctor.Value)
}

func TestLowerClass(t *testing.T) {
	t.Parallel()
	lowered := mustLowerJS(t, "class Point extends Base { constructor(x) { this.x = x; } get x() { return 1; } static of(v) { return new Point(v); } }")
	class := defOf(t, lowered.Stmts[0]).(*ast.ClassDef)
	assert.Equal(t, "Point", class.Name.Value)
	require.Len(t, class.Parents, 1)
	parent := class.Parents[0].(*ast.TypeName)
	assert.Equal(t, "Base", parent.Name.Value)
	require.Len(t, class.Defs, 3)

	getter := class.Defs[1].(*ast.FnDef)
	assert.Contains(t, getter.Props, ast.FnPropGetter)
	static := class.Defs[2].(*ast.FnDef)
	assert.Contains(t, static.Props, ast.FnPropStatic)
}

func TestLowerTypeScriptConstructRaisesTodo(t *testing.T) {
	t.Parallel()
	prog, r := parseJSSource(t, "interface Shape { area(): number; }", lang.FileKindTypescript)
	require.NotNil(t, prog)
	require.Empty(t, r.Reported())

	lowered, err := Lower(prog, lang.Config{})
	assert.Nil(t, lowered)
	require.NotNil(t, err)
	assert.Equal(t, exc.CodeTodoConstruct, err.Code())
	assert.Equal(t, "TSInterface", err.Message())
}

func TestLowerPatternAssignmentStatement(t *testing.T) {
	t.Parallel()
	lowered := mustLowerJS(t, "let x = 0, y = 0; ({x, y} = point);")
	require.Len(t, lowered.Stmts, 5)

	tmp := varDefOf(t, lowered.Stmts[2])
	assert.True(t, tmp.Name.Info.Synthetic)

	assignX := lowered.Stmts[3].(*ast.ExprStmt).Expr.(*ast.Assign)
	target := assignX.Target.(*ast.Name)
	assert.Equal(t, "x", target.Value)
	assert.Equal(t, ast.ResolvedLocal, target.Resolution.Kind)
}

func TestLowerSyntheticNamesNeverCollideWithSource(t *testing.T) {
	t.Parallel()
	lowered := mustLowerJS(t, "var {a} = x; var {b} = y;")
	first := varDefOf(t, lowered.Stmts[0])
	second := varDefOf(t, lowered.Stmts[2])
	assert.NotEqual(t, first.Name.Value, second.Name.Value)
	assert.True(t, first.Name.Info.Synthetic)
	assert.True(t, second.Name.Info.Synthetic)
}
