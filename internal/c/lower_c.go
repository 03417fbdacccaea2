// © 2026 Polyfront Authors
//
// SPDX-License-Identifier: Apache-2.0

package c

import (
	"fmt"

	"gopkg.polyfront.org/frontend.go/internal/ast"
	"gopkg.polyfront.org/frontend.go/internal/exc"
	"gopkg.polyfront.org/frontend.go/internal/lang"
)

// Lower transforms a C-family CST into the Generic AST through fixed
// translation tables. Unlike the js and scala lowerings it performs no scope
// classification: resolution cells stay Unresolved, since C-family names
// bind lexically without this pipeline's help.
func Lower(prog *Program, cfg lang.Config) (*ast.Program, exc.Exception) {
	lw := &lowerer{uri: prog.URI, cfg: cfg}
	out := []ast.Stmt{}
	for _, d := range prog.Decls {
		def, err := lw.fromDecl(d)
		if err != nil {
			return nil, err
		}
		out = append(out, &ast.DefStmt{Def: def})
	}
	return &ast.Program{URI: prog.URI, Stmts: out}, nil
}

type lowerer struct {
	uri string
	cfg lang.Config
}

func (lw *lowerer) loc(info lang.Info) exc.Location {
	return exc.Location{
		URI:      lw.uri,
		Location: info.Span.Start,
	}
}

func (lw *lowerer) unhandled(category string, info lang.Info) exc.Exception {
	return exc.New(lw.loc(info), exc.CodeUnhandledConstruct, category)
}

// recordName yields the definition's stable identifier, substituting the
// sentinel for anonymous records and enums.
func recordName(name *lang.Token) *ast.Name {
	if name == nil {
		return ast.SyntheticName(ast.AnonName)
	}
	return ast.NewName(lang.InfoOf(*name), name.Value)
}

func (lw *lowerer) fromDecl(d Decl) (ast.Def, exc.Exception) {
	switch d := d.(type) {
	case *RecordDecl:
		return lw.fromRecord(d)
	case *EnumDecl:
		return lw.fromEnum(d)
	case *TypedefDecl:
		return &ast.TypeDef{
			Name: ast.NewName(lang.InfoOf(d.Name), d.Name.Value),
			Body: &ast.AliasType{Type: lw.fromType(d.Type)},
		}, nil
	case *VarDecl:
		out := ast.VarDef{
			Name: ast.NewName(lang.InfoOf(d.Name), d.Name.Value),
			Kind: ast.VarKindVar,
			Type: lw.fromType(d.Type),
		}
		if d.Init != nil {
			init, err := lw.fromExpr(d.Init)
			if err != nil {
				return nil, err
			}
			out.Init = init
		}
		return &out, nil
	case *FuncDecl:
		return lw.fromFunc(d)
	default:
		return nil, lw.unhandled(fmt.Sprintf("Declaration(%T)", d), lang.Info{})
	}
}

// fromRecord lowers struct to a product of fields and union to a sum of
// value-carrying variants.
func (lw *lowerer) fromRecord(d *RecordDecl) (ast.Def, exc.Exception) {
	if d.Kind == RecordStruct {
		body := ast.AndType{Info: d.Info}
		for _, f := range d.Fields {
			body.Fields = append(body.Fields, &ast.FieldDef{
				Name: ast.NewName(lang.InfoOf(f.Name), f.Name.Value),
				Type: lw.fromType(f.Type),
			})
		}
		return &ast.TypeDef{Name: recordName(d.Name), Body: &body}, nil
	}
	body := ast.OrType{Info: d.Info}
	for _, f := range d.Fields {
		body.Variants = append(body.Variants, &ast.Variant{
			Name: ast.NewName(lang.InfoOf(f.Name), f.Name.Value),
			Type: lw.fromType(f.Type),
		})
	}
	return &ast.TypeDef{Name: recordName(d.Name), Body: &body}, nil
}

// fromEnum lowers an enum to a sum of constant variants.
func (lw *lowerer) fromEnum(d *EnumDecl) (ast.Def, exc.Exception) {
	body := ast.OrType{Info: d.Info}
	for _, en := range d.Enumerators {
		variant := ast.Variant{Name: ast.NewName(lang.InfoOf(en.Name), en.Name.Value)}
		if en.Value != nil {
			value, err := lw.fromExpr(en.Value)
			if err != nil {
				return nil, err
			}
			variant.Value = value
		}
		body.Variants = append(body.Variants, &variant)
	}
	return &ast.TypeDef{Name: recordName(d.Name), Body: &body}, nil
}

func (lw *lowerer) fromFunc(d *FuncDecl) (*ast.FnDef, exc.Exception) {
	out := ast.FnDef{
		Name: ast.NewName(lang.InfoOf(d.Name), d.Name.Value),
		Ret:  lw.fromType(d.Ret),
	}
	for _, param := range d.Params {
		p := ast.Param{Type: lw.fromType(param.Type)}
		if param.Name != nil {
			p.Name = ast.NewName(lang.InfoOf(*param.Name), param.Name.Value)
		} else {
			p.Name = ast.SyntheticName(ast.AnonName)
		}
		out.Params = append(out.Params, &p)
	}
	if d.Body != nil {
		stmts, err := lw.fromStmts(d.Body)
		if err != nil {
			return nil, err
		}
		out.Body = &ast.Block{Info: d.Info, Stmts: stmts}
	}
	return &out, nil
}

func (lw *lowerer) fromType(t TypeExpr) ast.Type {
	switch t := t.(type) {
	case nil:
		return nil
	case *NamedType:
		return &ast.TypeName{Name: ast.NewName(t.Info, t.Name)}
	case *PointerType:
		return &ast.PointerType{Info: t.Info, Elem: lw.fromType(t.Elem)}
	case *ArrayType:
		out := ast.ArrayType{Info: t.Info, Elem: lw.fromType(t.Elem)}
		if t.Size != nil {
			// array sizes are constant expressions; a size that fails to
			// lower degrades to an unsized array rather than failing the
			// declaration
			if size, err := lw.fromExpr(t.Size); err == nil {
				out.Size = size
			}
		}
		return &out
	case *RecordRef:
		return &ast.TypeName{Name: ast.NewName(lang.InfoOf(t.Name), t.Name.Value)}
	case *EnumRef:
		return &ast.TypeName{Name: ast.NewName(lang.InfoOf(t.Name), t.Name.Value)}
	default:
		return &ast.OtherType{Category: fmt.Sprintf("Type(%T)", t)}
	}
}

func (lw *lowerer) fromStmts(in []Stmt) ([]ast.Stmt, exc.Exception) {
	out := []ast.Stmt{}
	for _, s := range in {
		stmt, err := lw.fromStmt(s)
		if err != nil {
			return nil, err
		}
		out = append(out, stmt)
	}
	return out, nil
}

func (lw *lowerer) fromStmt(s Stmt) (ast.Stmt, exc.Exception) {
	switch s := s.(type) {
	case *DeclStmt:
		def, err := lw.fromDecl(s.Decl)
		if err != nil {
			return nil, err
		}
		return &ast.DefStmt{Def: def}, nil
	case *ExprStmt:
		v, err := lw.fromExpr(s.Expr)
		if err != nil {
			return nil, err
		}
		return &ast.ExprStmt{Expr: v}, nil
	case *Block:
		stmts, err := lw.fromStmts(s.Stmts)
		if err != nil {
			return nil, err
		}
		return &ast.Block{Info: s.Info, Stmts: stmts}, nil
	case *If:
		test, err := lw.fromExpr(s.Test)
		if err != nil {
			return nil, err
		}
		then, err := lw.fromStmt(s.Then)
		if err != nil {
			return nil, err
		}
		out := ast.If{Info: s.Info, Test: test, Then: then}
		if s.Else != nil {
			els, err := lw.fromStmt(s.Else)
			if err != nil {
				return nil, err
			}
			out.Else = els
		}
		return &out, nil
	case *While:
		test, err := lw.fromExpr(s.Test)
		if err != nil {
			return nil, err
		}
		body, err := lw.fromStmt(s.Body)
		if err != nil {
			return nil, err
		}
		return &ast.While{Info: s.Info, Test: test, Body: body}, nil
	case *DoWhile:
		body, err := lw.fromStmt(s.Body)
		if err != nil {
			return nil, err
		}
		test, err := lw.fromExpr(s.Test)
		if err != nil {
			return nil, err
		}
		return &ast.DoWhile{Info: s.Info, Body: body, Test: test}, nil
	case *For:
		out := ast.For{Info: s.Info}
		if s.Init != nil {
			init, err := lw.fromStmt(s.Init)
			if err != nil {
				return nil, err
			}
			out.Init = init
		}
		if s.Test != nil {
			test, err := lw.fromExpr(s.Test)
			if err != nil {
				return nil, err
			}
			out.Test = test
		}
		if s.Post != nil {
			post, err := lw.fromExpr(s.Post)
			if err != nil {
				return nil, err
			}
			out.Post = post
		}
		body, err := lw.fromStmt(s.Body)
		if err != nil {
			return nil, err
		}
		out.Body = body
		return &out, nil
	case *Return:
		out := ast.Return{Info: s.Info}
		if s.Value != nil {
			value, err := lw.fromExpr(s.Value)
			if err != nil {
				return nil, err
			}
			out.Value = value
		}
		return &out, nil
	case *Break:
		return &ast.Break{Info: s.Info}, nil
	case *Continue:
		return &ast.Continue{Info: s.Info}, nil
	case *Switch:
		subject, err := lw.fromExpr(s.Subject)
		if err != nil {
			return nil, err
		}
		out := ast.Switch{Info: s.Info, Subject: subject}
		for _, cs := range s.Cases {
			values := []ast.Expr{}
			for _, v := range cs.Values {
				value, err := lw.fromExpr(v)
				if err != nil {
					return nil, err
				}
				values = append(values, value)
			}
			body, err := lw.fromStmts(cs.Body)
			if err != nil {
				return nil, err
			}
			out.Cases = append(out.Cases, ast.SwitchCase{Info: cs.Info, Values: values, Body: body})
		}
		return &out, nil
	case *OtherStmt:
		return &ast.OtherStmt{Info: s.Info, Category: s.Category}, nil
	default:
		return nil, lw.unhandled(fmt.Sprintf("Statement(%T)", s), lang.Info{})
	}
}

var binaryOps = map[lang.TokenType]ast.Op{
	lang.TokenTypePlus:         ast.OpPlus,
	lang.TokenTypeMinus:        ast.OpMinus,
	lang.TokenTypeStar:         ast.OpMult,
	lang.TokenTypeSlash:        ast.OpDiv,
	lang.TokenTypePercent:      ast.OpMod,
	lang.TokenTypeEqEq:         ast.OpEq,
	lang.TokenTypeNotEq:        ast.OpNotEq,
	lang.TokenTypeAngleOpen:    ast.OpLt,
	lang.TokenTypeLesserEqual:  ast.OpLtEq,
	lang.TokenTypeAngleClose:   ast.OpGt,
	lang.TokenTypeGreaterEqual: ast.OpGtEq,
	lang.TokenTypeAmpAmp:       ast.OpAnd,
	lang.TokenTypePipePipe:     ast.OpOr,
	lang.TokenTypeAmpersand:    ast.OpBitAnd,
	lang.TokenTypePipe:         ast.OpBitOr,
	lang.TokenTypeCaret:        ast.OpBitXor,
	lang.TokenTypeShiftLeft:    ast.OpShiftLeft,
	lang.TokenTypeShiftRight:   ast.OpShiftRight,
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

// unaryEscapes are the pointer operators, which have no shared operator
// tag; they survive as categorized escape nodes.
var unaryEscapes = map[lang.TokenType]string{
	lang.TokenTypeStar:      "Deref",
	lang.TokenTypeAmpersand: "AddrOf",
}

// postfixEscapes are the suffix forms of ++ and --. Their value semantics
// differ from the prefix forms and the shared operator tags cover only the
// prefix reading, so the suffix forms survive as categorized escape nodes.
var postfixEscapes = map[lang.TokenType]string{
	lang.TokenTypePlusPlus:   "PostfixIncrement",
	lang.TokenTypeMinusMinus: "PostfixDecrement",
}

var literalKinds = map[lang.TokenType]ast.LiteralKind{
	lang.TokenTypeIntegerLit: ast.LiteralInt,
	lang.TokenTypeFloatLit:   ast.LiteralFloat,
	lang.TokenTypeStringLit:  ast.LiteralString,
	lang.TokenTypeCharLit:    ast.LiteralChar,
}

func (lw *lowerer) fromExpr(x Expr) (ast.Expr, exc.Exception) {
	switch x := x.(type) {
	case *Ident:
		return ast.NewName(x.Info, x.Name), nil
	case *Lit:
		kind, ok := literalKinds[x.Type]
		if !ok {
			return nil, lw.unhandled(fmt.Sprintf("Literal(%s)", x.Type), x.Info)
		}
		return &ast.Literal{Info: x.Info, Kind: kind, Value: x.Value}, nil
	case *Unary:
		operand, err := lw.fromExpr(x.Operand)
		if err != nil {
			return nil, err
		}
		if category, ok := unaryEscapes[x.Op]; ok && !x.Postfix {
			return &ast.OtherExpr{Info: x.Info, Category: category, Children: []ast.Node{operand}}, nil
		}
		if x.Postfix {
			if category, ok := postfixEscapes[x.Op]; ok {
				return &ast.OtherExpr{Info: x.Info, Category: category, Children: []ast.Node{operand}}, nil
			}
		}
		op, ok := unaryOps[x.Op]
		if !ok {
			return nil, lw.unhandled(fmt.Sprintf("UnaryOp(%s)", x.Op), x.Info)
		}
		return &ast.OpCall{Info: x.Info, Op: op, Args: []ast.Expr{operand}}, nil
	case *Binary:
		left, err := lw.fromExpr(x.Left)
		if err != nil {
			return nil, err
		}
		right, err := lw.fromExpr(x.Right)
		if err != nil {
			return nil, err
		}
		op, ok := binaryOps[x.Op]
		if !ok {
			return nil, lw.unhandled(fmt.Sprintf("BinaryOp(%s)", x.Op), x.Info)
		}
		return &ast.OpCall{Info: x.Info, Op: op, Args: []ast.Expr{left, right}}, nil
	case *Assign:
		target, err := lw.fromExpr(x.Target)
		if err != nil {
			return nil, err
		}
		value, err := lw.fromExpr(x.Value)
		if err != nil {
			return nil, err
		}
		if x.Op == lang.TokenTypeEqual {
			return &ast.Assign{Info: x.Info, Target: target, Value: value}, nil
		}
		op, ok := compoundAssignOps[x.Op]
		if !ok {
			return nil, lw.unhandled(fmt.Sprintf("AssignOp(%s)", x.Op), x.Info)
		}
		return &ast.Assign{
			Info:   x.Info,
			Target: target,
			Value:  &ast.OpCall{Info: x.Info, Op: op, Args: []ast.Expr{cloneTarget(target), value}},
		}, nil
	case *Cond:
		test, err := lw.fromExpr(x.Test)
		if err != nil {
			return nil, err
		}
		then, err := lw.fromExpr(x.Then)
		if err != nil {
			return nil, err
		}
		els, err := lw.fromExpr(x.Else)
		if err != nil {
			return nil, err
		}
		return &ast.Cond{Info: x.Info, Test: test, Then: then, Else: els}, nil
	case *Call:
		fn, err := lw.fromExpr(x.Fn)
		if err != nil {
			return nil, err
		}
		args := []ast.Expr{}
		for _, arg := range x.Args {
			a, err := lw.fromExpr(arg)
			if err != nil {
				return nil, err
			}
			args = append(args, a)
		}
		return &ast.Call{Info: x.Info, Fn: fn, Args: args}, nil
	case *Index:
		obj, err := lw.fromExpr(x.Obj)
		if err != nil {
			return nil, err
		}
		key, err := lw.fromExpr(x.Key)
		if err != nil {
			return nil, err
		}
		return &ast.OpCall{Info: x.Info, Op: ast.OpArrayAccess, Args: []ast.Expr{obj, key}}, nil
	case *Member:
		obj, err := lw.fromExpr(x.Obj)
		if err != nil {
			return nil, err
		}
		if x.Arrow {
			obj = &ast.OtherExpr{Info: x.Info, Category: "Deref", Children: []ast.Node{obj}}
		}
		return &ast.FieldAccess{Info: x.Info, Obj: obj, Name: ast.NewName(lang.InfoOf(x.Name), x.Name.Value)}, nil
	case *Cast:
		operand, err := lw.fromExpr(x.Operand)
		if err != nil {
			return nil, err
		}
		return &ast.OtherExpr{
			Info:     x.Info,
			Category: "Cast",
			Children: []ast.Node{lw.fromType(x.Type), operand},
		}, nil
	case *Sizeof:
		out := ast.OtherExpr{Info: x.Info, Category: "Sizeof"}
		if x.Type != nil {
			out.Children = append(out.Children, lw.fromType(x.Type))
		}
		if x.Operand != nil {
			operand, err := lw.fromExpr(x.Operand)
			if err != nil {
				return nil, err
			}
			out.Children = append(out.Children, operand)
		}
		return &out, nil
	case *OtherExpr:
		return &ast.OtherExpr{Info: x.Info, Category: x.Category}, nil
	default:
		return nil, lw.unhandled(fmt.Sprintf("Expression(%T)", x), lang.Info{})
	}
}

// cloneTarget rebuilds the target expression for the expanded right-hand
// side of a compound assignment, so the two occurrences do not share nodes.
func cloneTarget(x ast.Expr) ast.Expr {
	switch x := x.(type) {
	case *ast.Name:
		return ast.NewName(x.Info, x.Value)
	case *ast.FieldAccess:
		return &ast.FieldAccess{Info: x.Info, Obj: cloneTarget(x.Obj), Name: ast.NewName(x.Name.Info, x.Name.Value)}
	case *ast.OpCall:
		args := make([]ast.Expr, 0, len(x.Args))
		for _, a := range x.Args {
			args = append(args, cloneTarget(a))
		}
		return &ast.OpCall{Info: x.Info, Op: x.Op, Args: args}
	case *ast.OtherExpr:
		return &ast.OtherExpr{Info: x.Info, Category: x.Category, Children: x.Children}
	default:
		return x
	}
}
