// © 2026 Polyfront Authors
//
// SPDX-License-Identifier: Apache-2.0

package frontend

import (
	"fmt"
	"strings"

	"gopkg.polyfront.org/frontend.go/internal/ast"
)

// Sprint renders a lowered unit as an indented tree, one node per line.
// This is the --dump-tree output format.
func Sprint(prog *ast.Program) string {
	var b strings.Builder
	printNode(&b, prog, 0)
	return strings.TrimRight(b.String(), "\n")
}

func printNode(b *strings.Builder, n ast.Node, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(label(n))
	b.WriteString("\n")
	for _, c := range children(n) {
		printNode(b, c, depth+1)
	}
}

func label(n ast.Node) string {
	switch v := n.(type) {
	case *ast.Program:
		return fmt.Sprintf("Program %s", v.URI)
	case *ast.Name:
		if v.Resolution.Kind == ast.ResolvedGlobal && v.Resolution.Qualifier != "" {
			return fmt.Sprintf("Name %s (%s %s)", v.Value, v.Resolution.Kind, v.Resolution.Qualifier)
		}
		return fmt.Sprintf("Name %s (%s)", v.Value, v.Resolution.Kind)
	case *ast.Literal:
		return fmt.Sprintf("Literal %s", v.Value)
	case *ast.Special:
		return fmt.Sprintf("Special %s", v.Kind)
	case *ast.OpCall:
		return fmt.Sprintf("OpCall %s", v.Op)
	case *ast.Call:
		return "Call"
	case *ast.FieldAccess:
		return "FieldAccess"
	case *ast.Assign:
		return "Assign"
	case *ast.Cond:
		return "Cond"
	case *ast.Container:
		switch v.Kind {
		case ast.ContainerTuple:
			return "Container tuple"
		case ast.ContainerDict:
			return "Container dict"
		default:
			return "Container list"
		}
	case *ast.KeyVal:
		return "KeyVal"
	case *ast.DefExpr:
		return "DefExpr"
	case *ast.OtherExpr:
		return fmt.Sprintf("OtherExpr %s", v.Category)
	case *ast.ExprStmt:
		return "ExprStmt"
	case *ast.Block:
		return "Block"
	case *ast.If:
		return "If"
	case *ast.While:
		return "While"
	case *ast.DoWhile:
		return "DoWhile"
	case *ast.For:
		return "For"
	case *ast.Return:
		return "Return"
	case *ast.Break:
		if v.Label != "" {
			return fmt.Sprintf("Break %s", v.Label)
		}
		return "Break"
	case *ast.Continue:
		if v.Label != "" {
			return fmt.Sprintf("Continue %s", v.Label)
		}
		return "Continue"
	case *ast.Labeled:
		return fmt.Sprintf("Labeled %s", v.Label)
	case *ast.Throw:
		return "Throw"
	case *ast.Try:
		return "Try"
	case *ast.Switch:
		return "Switch"
	case *ast.DefStmt:
		return "DefStmt"
	case *ast.DirectiveStmt:
		return "DirectiveStmt"
	case *ast.OtherStmt:
		return fmt.Sprintf("OtherStmt %s", v.Category)
	case *ast.VarDef:
		return fmt.Sprintf("VarDef %s", v.Kind)
	case *ast.Param:
		if v.Rest {
			return "Param rest"
		}
		return "Param"
	case *ast.FnDef:
		if len(v.Props) > 0 {
			props := make([]string, 0, len(v.Props))
			for _, p := range v.Props {
				props = append(props, p.String())
			}
			return fmt.Sprintf("FnDef %s", strings.Join(props, " "))
		}
		return "FnDef"
	case *ast.FieldDef:
		return "FieldDef"
	case *ast.ClassDef:
		return "ClassDef"
	case *ast.TypeDef:
		return "TypeDef"
	case *ast.AndType:
		return "AndType"
	case *ast.OrType:
		return "OrType"
	case *ast.Variant:
		return "Variant"
	case *ast.AliasType:
		return "AliasType"
	case *ast.TypeName:
		return "TypeName"
	case *ast.PointerType:
		return "PointerType"
	case *ast.ArrayType:
		return "ArrayType"
	case *ast.FnType:
		return "FnType"
	case *ast.OtherType:
		return fmt.Sprintf("OtherType %s", v.Category)
	case *ast.Import:
		return fmt.Sprintf("Import %s", v.Path)
	case *ast.ImportAll:
		return fmt.Sprintf("ImportAll %s", v.Path)
	case *ast.ImportEffect:
		return fmt.Sprintf("ImportEffect %s", v.Path)
	case *ast.Export:
		return "Export"
	case *ast.OtherDirective:
		return fmt.Sprintf("OtherDirective %s", v.Category)
	default:
		return fmt.Sprintf("%T", n)
	}
}
