// © 2026 Polyfront Authors
//
// SPDX-License-Identifier: Apache-2.0

package frontend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopkg.polyfront.org/frontend.go/internal/ast"
	"gopkg.polyfront.org/frontend.go/internal/exc"
	"gopkg.polyfront.org/frontend.go/internal/js"
	"gopkg.polyfront.org/frontend.go/internal/lang"
	"gopkg.polyfront.org/frontend.go/internal/scala"
)

func lowerJSSource(t *testing.T, src string) *ast.Program {
	t.Helper()
	file := tokensJSONFile(t, "/walk.tokens.json", "javascript", src)
	tf, err := decodeTokenStream(context.Background(), file)
	require.NoError(t, err)
	reporter := exc.NewReporter(nil)
	prog, err := js.Parse(context.Background(), reporter, tf, lang.Config{})
	require.NoError(t, err)
	require.NotNil(t, prog, "fixture failed to lower: %v", reporter.Reported())
	return prog
}

func lowerScalaSource(t *testing.T, src string) *ast.Program {
	t.Helper()
	file := tokensJSONFile(t, "/walk.tokens.json", "scala", src)
	tf, err := decodeTokenStream(context.Background(), file)
	require.NoError(t, err)
	reporter := exc.NewReporter(nil)
	prog, err := scala.Parse(context.Background(), reporter, tf, lang.Config{})
	require.NoError(t, err)
	require.NotNil(t, prog, "fixture failed to lower: %v", reporter.Reported())
	return prog
}

// A wildcard import has no namespace binding, so its directive carries no
// alias name. Walking and printing it must skip the absent field instead of
// visiting a nil node.
func TestWalkWildcardImportHasNoAlias(t *testing.T) {
	prog := lowerScalaSource(t, "import scala.collection._\n")

	visited := 0
	Walk(prog, func(n ast.Node) {
		require.NotNil(t, n)
		if all, ok := n.(*ast.ImportAll); ok {
			assert.Equal(t, "scala.collection", all.Path)
			assert.Nil(t, all.Alias)
			visited = visited + 1
		}
	})
	require.Equal(t, 1, visited)

	out := Sprint(prog)
	assert.Contains(t, out, "ImportAll scala.collection")
}

// Every name that claims a source position must point back at the exact
// bytes it was lexed from, no matter how much desugaring ran in between.
func TestWalkPositionFidelity(t *testing.T) {
	src := "function area(w, h) {\n" +
		"  let result = w * h;\n" +
		"  return result;\n" +
		"}\n" +
		"var {x, y} = point;\n"
	prog := lowerJSSource(t, src)

	checked := 0
	Walk(prog, func(n ast.Node) {
		name, ok := n.(*ast.Name)
		if !ok || name.Info.Synthetic {
			return
		}
		start := name.Info.Span.Start.Offset
		end := name.Info.Span.End.Offset
		require.GreaterOrEqual(t, start, int64(0))
		require.Less(t, end, int64(len(src)))
		assert.Equal(t, src[start:end+1], name.Info.Text, "name %q", name.Value)
		checked = checked + 1
	})
	assert.Greater(t, checked, 5)
}

func TestWalkVisitsEveryResolutionSlot(t *testing.T) {
	prog := lowerJSSource(t, "let a = 1;\nfunction f(b) { return a + b; }\n")

	slots := map[*ast.Resolution]bool{}
	unresolved := 0
	Walk(prog, func(n ast.Node) {
		name, ok := n.(*ast.Name)
		if !ok {
			return
		}
		require.NotNil(t, name.Resolution, "name %q has no resolution slot", name.Value)
		slots[name.Resolution] = true
		if name.Resolution.Kind == ast.Unresolved {
			unresolved = unresolved + 1
		}
	})
	// Every occurrence owns a distinct cell, and lowering left none of them
	// in the initial state.
	assert.Equal(t, 0, unresolved)
	assert.GreaterOrEqual(t, len(slots), 5)
}

func TestWalkOrderAndCoverage(t *testing.T) {
	init := &ast.VarDef{
		Name: ast.SyntheticName("n"),
		Kind: ast.VarKindLet,
		Init: &ast.Literal{Kind: ast.LiteralInt, Value: "0"},
	}
	tree := &ast.Program{
		URI: "/synthetic",
		Stmts: []ast.Stmt{
			&ast.DefStmt{Def: init},
			&ast.If{
				Test: &ast.OpCall{Op: ast.OpLt, Args: []ast.Expr{
					ast.SyntheticName("n"),
					&ast.Literal{Kind: ast.LiteralInt, Value: "10"},
				}},
				Then: &ast.Block{Stmts: []ast.Stmt{
					&ast.Return{Value: ast.SyntheticName("n")},
				}},
			},
		},
	}

	var order []string
	Walk(tree, func(n ast.Node) {
		switch v := n.(type) {
		case *ast.Program:
			order = append(order, "program")
		case *ast.DefStmt:
			order = append(order, "defstmt")
		case *ast.VarDef:
			order = append(order, "vardef")
		case *ast.Name:
			order = append(order, "name:"+v.Value)
		case *ast.Literal:
			order = append(order, "lit:"+v.Value)
		case *ast.If:
			order = append(order, "if")
		case *ast.OpCall:
			order = append(order, "opcall")
		case *ast.Block:
			order = append(order, "block")
		case *ast.Return:
			order = append(order, "return")
		}
	})

	assert.Equal(t, []string{
		"program",
		"defstmt", "vardef", "name:n", "lit:0",
		"if", "opcall", "name:n", "lit:10",
		"block", "return", "name:n",
	}, order)
}

func TestWalkSkipsAbsentFields(t *testing.T) {
	fn := &ast.FnDef{
		Name:   ast.SyntheticName("later"),
		Params: []*ast.Param{{Name: ast.SyntheticName("x")}},
		// Abstract: no body, no return type.
	}
	count := 0
	Walk(&ast.DefStmt{Def: fn}, func(n ast.Node) {
		require.NotNil(t, n)
		count = count + 1
	})
	// DefStmt, FnDef, its name, the param, the param's name.
	assert.Equal(t, 5, count)
}
