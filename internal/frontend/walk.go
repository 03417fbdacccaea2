// © 2026 Polyfront Authors
//
// SPDX-License-Identifier: Apache-2.0

package frontend

import (
	"gopkg.polyfront.org/frontend.go/internal/ast"
)

// Walk visits n and every node beneath it in depth-first source order,
// calling f once per node. Passes that annotate resolution slots or collect
// positions are built on this.
func Walk(n ast.Node, f func(ast.Node)) {
	if n == nil {
		return
	}
	f(n)
	for _, c := range children(n) {
		Walk(c, f)
	}
}

// children returns the direct child nodes of n in source order. Absent
// optional fields are skipped rather than surfacing as nil entries.
func children(n ast.Node) []ast.Node {
	var out []ast.Node
	add := func(c ast.Node) {
		out = append(out, c)
	}
	addStmts := func(ss []ast.Stmt) {
		for _, s := range ss {
			add(s)
		}
	}
	addExprs := func(es []ast.Expr) {
		for _, e := range es {
			add(e)
		}
	}
	addTypes := func(ts []ast.Type) {
		for _, t := range ts {
			add(t)
		}
	}

	switch v := n.(type) {
	case *ast.Program:
		addStmts(v.Stmts)
	case *ast.OpCall:
		addExprs(v.Args)
	case *ast.Call:
		add(v.Fn)
		addExprs(v.Args)
	case *ast.FieldAccess:
		add(v.Obj)
		add(v.Name)
	case *ast.Assign:
		add(v.Target)
		add(v.Value)
	case *ast.Cond:
		add(v.Test)
		add(v.Then)
		if v.Else != nil {
			add(v.Else)
		}
	case *ast.Container:
		addExprs(v.Items)
	case *ast.KeyVal:
		add(v.Key)
		add(v.Value)
	case *ast.DefExpr:
		add(v.Def)
	case *ast.OtherExpr:
		out = append(out, v.Children...)
	case *ast.ExprStmt:
		add(v.Expr)
	case *ast.Block:
		addStmts(v.Stmts)
	case *ast.If:
		add(v.Test)
		add(v.Then)
		if v.Else != nil {
			add(v.Else)
		}
	case *ast.While:
		add(v.Test)
		add(v.Body)
	case *ast.DoWhile:
		add(v.Body)
		add(v.Test)
	case *ast.For:
		if v.Init != nil {
			add(v.Init)
		}
		if v.Test != nil {
			add(v.Test)
		}
		if v.Post != nil {
			add(v.Post)
		}
		add(v.Body)
	case *ast.Return:
		if v.Value != nil {
			add(v.Value)
		}
	case *ast.Labeled:
		add(v.Stmt)
	case *ast.Throw:
		add(v.Value)
	case *ast.Try:
		add(v.Body)
		if v.CatchParam != nil {
			add(v.CatchParam)
		}
		if v.Catch != nil {
			add(v.Catch)
		}
		if v.Finally != nil {
			add(v.Finally)
		}
	case *ast.Switch:
		add(v.Subject)
		for _, c := range v.Cases {
			addExprs(c.Values)
			addStmts(c.Body)
		}
	case *ast.DefStmt:
		add(v.Def)
	case *ast.DirectiveStmt:
		add(v.Directive)
	case *ast.OtherStmt:
		out = append(out, v.Children...)
	case *ast.VarDef:
		add(v.Name)
		if v.Type != nil {
			add(v.Type)
		}
		if v.Init != nil {
			add(v.Init)
		}
	case *ast.Param:
		add(v.Name)
		if v.Type != nil {
			add(v.Type)
		}
		if v.Default != nil {
			add(v.Default)
		}
	case *ast.FnDef:
		add(v.Name)
		for _, p := range v.Params {
			add(p)
		}
		if v.Ret != nil {
			add(v.Ret)
		}
		if v.Body != nil {
			add(v.Body)
		}
	case *ast.FieldDef:
		add(v.Name)
		if v.Type != nil {
			add(v.Type)
		}
		if v.Init != nil {
			add(v.Init)
		}
	case *ast.ClassDef:
		add(v.Name)
		addTypes(v.Parents)
		for _, d := range v.Defs {
			add(d)
		}
	case *ast.TypeDef:
		add(v.Name)
		add(v.Body)
	case *ast.AndType:
		for _, fd := range v.Fields {
			add(fd)
		}
	case *ast.OrType:
		for _, variant := range v.Variants {
			add(variant)
		}
	case *ast.Variant:
		add(v.Name)
		if v.Type != nil {
			add(v.Type)
		}
		if v.Value != nil {
			add(v.Value)
		}
	case *ast.AliasType:
		add(v.Type)
	case *ast.TypeName:
		add(v.Name)
		addTypes(v.Args)
	case *ast.PointerType:
		add(v.Elem)
	case *ast.ArrayType:
		add(v.Elem)
		if v.Size != nil {
			add(v.Size)
		}
	case *ast.FnType:
		addTypes(v.Params)
		if v.Ret != nil {
			add(v.Ret)
		}
	case *ast.OtherType:
		out = append(out, v.Children...)
	case *ast.Import:
		if v.Imported != nil {
			add(v.Imported)
		}
		// Local aliases Imported when the import carries no rename.
		if v.Local != nil && v.Local != v.Imported {
			add(v.Local)
		}
	case *ast.ImportAll:
		// Alias is nil for wildcard imports with no namespace binding.
		if v.Alias != nil {
			add(v.Alias)
		}
	case *ast.Export:
		add(v.Name)
		if v.Local != nil {
			add(v.Local)
		}
	case *ast.OtherDirective:
		out = append(out, v.Children...)
	}
	return out
}
