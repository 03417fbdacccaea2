// © 2026 Polyfront Authors
//
// SPDX-License-Identifier: Apache-2.0

package c

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopkg.polyfront.org/frontend.go/internal/ast"
	"gopkg.polyfront.org/frontend.go/internal/lang"
)

func ctok(typ lang.TokenType, value string) lang.Token {
	return *lang.NewTokenLineSpan(1, 1, 0, int32(len(value)), typ, value)
}

func cident(name string) lang.Token {
	return ctok(lang.TokenTypeIdentifier, name)
}

func intLit(value string) *Lit {
	return &Lit{Type: lang.TokenTypeIntegerLit, Value: value}
}

func mustLowerC(t *testing.T, decls ...Decl) *ast.Program {
	t.Helper()
	prog, err := Lower(&Program{URI: "/test/fixture.c", Decls: decls}, lang.Config{})
	require.Nil(t, err, "lowering failed: %v", err)
	return prog
}

func typeDefOf(t *testing.T, s ast.Stmt) *ast.TypeDef {
	t.Helper()
	def, ok := s.(*ast.DefStmt).Def.(*ast.TypeDef)
	require.True(t, ok, "expected a type definition")
	return def
}

func TestLowerStructBecomesProduct(t *testing.T) {
	t.Parallel()
	name := cident("point")
	prog := mustLowerC(t, &RecordDecl{
		Kind: RecordStruct,
		Name: &name,
		Fields: []Field{
			{Name: cident("x"), Type: &NamedType{Name: "int"}},
			{Name: cident("y"), Type: &NamedType{Name: "int"}},
		},
	})
	def := typeDefOf(t, prog.Stmts[0])
	assert.Equal(t, "point", def.Name.Value)
	body := def.Body.(*ast.AndType)
	require.Len(t, body.Fields, 2)
	assert.Equal(t, "x", body.Fields[0].Name.Value)
	assert.Equal(t, "int", body.Fields[0].Type.(*ast.TypeName).Name.Value)
}

func TestLowerUnionBecomesSum(t *testing.T) {
	t.Parallel()
	name := cident("value")
	prog := mustLowerC(t, &RecordDecl{
		Kind: RecordUnion,
		Name: &name,
		Fields: []Field{
			{Name: cident("i"), Type: &NamedType{Name: "int"}},
			{Name: cident("f"), Type: &NamedType{Name: "float"}},
		},
	})
	body := typeDefOf(t, prog.Stmts[0]).Body.(*ast.OrType)
	require.Len(t, body.Variants, 2)
	assert.Equal(t, "i", body.Variants[0].Name.Value)
	assert.Equal(t, "int", body.Variants[0].Type.(*ast.TypeName).Name.Value)
	assert.Nil(t, body.Variants[0].Value)
}

func TestLowerEnumBecomesConstantSum(t *testing.T) {
	t.Parallel()
	name := cident("color")
	prog := mustLowerC(t, &EnumDecl{
		Name: &name,
		Enumerators: []Enumerator{
			{Name: cident("RED"), Value: intLit("1")},
			{Name: cident("GREEN")},
		},
	})
	body := typeDefOf(t, prog.Stmts[0]).Body.(*ast.OrType)
	require.Len(t, body.Variants, 2)
	assert.Equal(t, "1", body.Variants[0].Value.(*ast.Literal).Value)
	assert.Nil(t, body.Variants[0].Type)
	assert.Nil(t, body.Variants[1].Value)
}

func TestLowerAnonymousRecordGetsSentinelName(t *testing.T) {
	t.Parallel()
	prog := mustLowerC(t,
		&RecordDecl{Kind: RecordStruct, Fields: []Field{{Name: cident("x"), Type: &NamedType{Name: "int"}}}},
		&EnumDecl{Enumerators: []Enumerator{{Name: cident("A")}}},
	)
	for _, s := range prog.Stmts {
		def := typeDefOf(t, s)
		assert.Equal(t, ast.AnonName, def.Name.Value)
		assert.True(t, def.Name.Info.Synthetic)
	}
}

func TestLowerTypedefAlias(t *testing.T) {
	t.Parallel()
	prog := mustLowerC(t, &TypedefDecl{
		Name: cident("length_t"),
		Type: &NamedType{Name: "unsigned long"},
	})
	def := typeDefOf(t, prog.Stmts[0])
	alias := def.Body.(*ast.AliasType)
	assert.Equal(t, "unsigned long", alias.Type.(*ast.TypeName).Name.Value)
}

func TestLowerFunctionAndPrototype(t *testing.T) {
	t.Parallel()
	paramName := cident("v")
	prog := mustLowerC(t,
		&FuncDecl{
			Name:   cident("scale"),
			Ret:    &NamedType{Name: "int"},
			Params: []Param{{Name: &paramName, Type: &NamedType{Name: "int"}}},
			Body: []Stmt{
				&Return{Value: &Binary{Op: lang.TokenTypeStar, Left: &Ident{Name: "v"}, Right: intLit("2")}},
			},
		},
		&FuncDecl{
			Name:   cident("declared"),
			Ret:    &NamedType{Name: "void"},
			Params: []Param{{Type: &NamedType{Name: "int"}}},
		},
	)

	fn := prog.Stmts[0].(*ast.DefStmt).Def.(*ast.FnDef)
	require.NotNil(t, fn.Body)
	ret := fn.Body.Stmts[0].(*ast.Return)
	assert.Equal(t, ast.OpMult, ret.Value.(*ast.OpCall).Op)

	proto := prog.Stmts[1].(*ast.DefStmt).Def.(*ast.FnDef)
	assert.Nil(t, proto.Body)
	assert.Equal(t, ast.AnonName, proto.Params[0].Name.Value)
}

// Each operator token translates to exactly one shared tag, so the table
// must be injective.
func TestLowerOperatorTableIsOneToOne(t *testing.T) {
	t.Parallel()
	seen := map[ast.Op]lang.TokenType{}
	for token, op := range binaryOps {
		prior, dup := seen[op]
		require.False(t, dup, "tokens %s and %s share operator %s", prior, token, op)
		seen[op] = token
	}
}

func TestLowerBinaryAndUnaryOperators(t *testing.T) {
	t.Parallel()
	prog := mustLowerC(t, &VarDecl{
		Name: cident("x"),
		Type: &NamedType{Name: "int"},
		Init: &Binary{
			Op:    lang.TokenTypeAmpAmp,
			Left:  &Unary{Op: lang.TokenTypeBang, Operand: &Ident{Name: "a"}},
			Right: &Binary{Op: lang.TokenTypeLesserEqual, Left: &Ident{Name: "b"}, Right: intLit("3")},
		},
	})
	init := prog.Stmts[0].(*ast.DefStmt).Def.(*ast.VarDef).Init.(*ast.OpCall)
	assert.Equal(t, ast.OpAnd, init.Op)
	assert.Equal(t, ast.OpNot, init.Args[0].(*ast.OpCall).Op)
	assert.Equal(t, ast.OpLtEq, init.Args[1].(*ast.OpCall).Op)
}

func TestLowerPrefixAndPostfixIncrementDiffer(t *testing.T) {
	t.Parallel()
	lowerIncr := func(postfix bool) ast.Expr {
		prog := mustLowerC(t, &FuncDecl{
			Name: cident("step"),
			Ret:  &NamedType{Name: "void"},
			Body: []Stmt{
				&ExprStmt{Expr: &Unary{Op: lang.TokenTypePlusPlus, Postfix: postfix, Operand: &Ident{Name: "n"}}},
			},
		})
		fn := prog.Stmts[0].(*ast.DefStmt).Def.(*ast.FnDef)
		return fn.Body.Stmts[0].(*ast.ExprStmt).Expr
	}

	pre := lowerIncr(false).(*ast.OpCall)
	assert.Equal(t, ast.OpIncr, pre.Op)

	post := lowerIncr(true).(*ast.OtherExpr)
	assert.Equal(t, "PostfixIncrement", post.Category)
	require.Len(t, post.Children, 1)
	assert.Equal(t, "n", post.Children[0].(*ast.Name).Value)
}

func TestLowerCompoundAssignmentExpands(t *testing.T) {
	t.Parallel()
	prog := mustLowerC(t, &FuncDecl{
		Name: cident("bump"),
		Ret:  &NamedType{Name: "void"},
		Body: []Stmt{
			&ExprStmt{Expr: &Assign{
				Op:     lang.TokenTypePlusEqual,
				Target: &Ident{Name: "total"},
				Value:  intLit("2"),
			}},
		},
	})
	fn := prog.Stmts[0].(*ast.DefStmt).Def.(*ast.FnDef)
	assign := fn.Body.Stmts[0].(*ast.ExprStmt).Expr.(*ast.Assign)
	op := assign.Value.(*ast.OpCall)
	assert.Equal(t, ast.OpPlus, op.Op)
	// the target occurrence on the right-hand side is a distinct node
	assert.NotSame(t, assign.Target, op.Args[0])
	assert.Equal(t, "total", op.Args[0].(*ast.Name).Value)
}

func TestLowerPointerOperatorsEscape(t *testing.T) {
	t.Parallel()
	prog := mustLowerC(t, &VarDecl{
		Name: cident("v"),
		Type: &NamedType{Name: "int"},
		Init: &Unary{Op: lang.TokenTypeStar, Operand: &Ident{Name: "p"}},
	})
	deref := prog.Stmts[0].(*ast.DefStmt).Def.(*ast.VarDef).Init.(*ast.OtherExpr)
	assert.Equal(t, "Deref", deref.Category)
	require.Len(t, deref.Children, 1)
}

func TestLowerArrowMemberDereferences(t *testing.T) {
	t.Parallel()
	prog := mustLowerC(t, &VarDecl{
		Name: cident("x"),
		Type: &NamedType{Name: "int"},
		Init: &Member{Obj: &Ident{Name: "node"}, Name: cident("next"), Arrow: true},
	})
	access := prog.Stmts[0].(*ast.DefStmt).Def.(*ast.VarDef).Init.(*ast.FieldAccess)
	assert.Equal(t, "next", access.Name.Value)
	obj := access.Obj.(*ast.OtherExpr)
	assert.Equal(t, "Deref", obj.Category)
}

func TestLowerControlFlow(t *testing.T) {
	t.Parallel()
	loopVar := &VarDecl{Name: cident("i"), Type: &NamedType{Name: "int"}, Init: intLit("0")}
	prog := mustLowerC(t, &FuncDecl{
		Name: cident("walk"),
		Ret:  &NamedType{Name: "void"},
		Body: []Stmt{
			&For{
				Init: &DeclStmt{Decl: loopVar},
				Test: &Binary{Op: lang.TokenTypeAngleOpen, Left: &Ident{Name: "i"}, Right: intLit("10")},
				Post: &Unary{Op: lang.TokenTypePlusPlus, Postfix: true, Operand: &Ident{Name: "i"}},
				Body: &Block{Stmts: []Stmt{
					&If{
						Test: &Ident{Name: "skip"},
						Then: &Continue{},
					},
					&ExprStmt{Expr: &Call{Fn: &Ident{Name: "visit"}, Args: []Expr{&Ident{Name: "i"}}}},
				}},
			},
		},
	})
	fn := prog.Stmts[0].(*ast.DefStmt).Def.(*ast.FnDef)
	loop := fn.Body.Stmts[0].(*ast.For)
	assert.IsType(t, &ast.DefStmt{}, loop.Init)
	assert.Equal(t, ast.OpLt, loop.Test.(*ast.OpCall).Op)
	assert.Equal(t, "PostfixIncrement", loop.Post.(*ast.OtherExpr).Category)
	block := loop.Body.(*ast.Block)
	require.Len(t, block.Stmts, 2)
	assert.IsType(t, &ast.Continue{}, block.Stmts[0].(*ast.If).Then)
}

func TestLowerSwitch(t *testing.T) {
	t.Parallel()
	prog := mustLowerC(t, &FuncDecl{
		Name: cident("pick"),
		Ret:  &NamedType{Name: "int"},
		Body: []Stmt{
			&Switch{
				Subject: &Ident{Name: "mode"},
				Cases: []SwitchCase{
					{Values: []Expr{intLit("1")}, Body: []Stmt{&Return{Value: intLit("10")}}},
					{Body: []Stmt{&Return{Value: intLit("0")}}},
				},
			},
		},
	})
	fn := prog.Stmts[0].(*ast.DefStmt).Def.(*ast.FnDef)
	sw := fn.Body.Stmts[0].(*ast.Switch)
	require.Len(t, sw.Cases, 2)
	assert.Len(t, sw.Cases[0].Values, 1)
	assert.Empty(t, sw.Cases[1].Values, "default case carries no values")
}

// No scope classification happens here: names come out with their
// resolution cells untouched.
func TestLowerNamesStayUnresolved(t *testing.T) {
	t.Parallel()
	prog := mustLowerC(t, &VarDecl{
		Name: cident("x"),
		Type: &NamedType{Name: "int"},
		Init: &Ident{Name: "other"},
	})
	use := prog.Stmts[0].(*ast.DefStmt).Def.(*ast.VarDef).Init.(*ast.Name)
	assert.Equal(t, ast.Unresolved, use.Resolution.Kind)
}

func TestLowerPointerAndArrayTypes(t *testing.T) {
	t.Parallel()
	prog := mustLowerC(t, &VarDecl{
		Name: cident("grid"),
		Type: &ArrayType{
			Elem: &PointerType{Elem: &RecordRef{Kind: RecordStruct, Name: cident("cell")}},
			Size: intLit("8"),
		},
	})
	def := prog.Stmts[0].(*ast.DefStmt).Def.(*ast.VarDef)
	arr := def.Type.(*ast.ArrayType)
	assert.Equal(t, "8", arr.Size.(*ast.Literal).Value)
	ptr := arr.Elem.(*ast.PointerType)
	assert.Equal(t, "cell", ptr.Elem.(*ast.TypeName).Name.Value)
}
