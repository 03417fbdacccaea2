// © 2026 Polyfront Authors
//
// SPDX-License-Identifier: Apache-2.0

package frontend

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopkg.polyfront.org/frontend.go/internal/ast"
	"gopkg.polyfront.org/frontend.go/internal/exc"
	"gopkg.polyfront.org/frontend.go/internal/fs"
	"gopkg.polyfront.org/frontend.go/internal/lang"
)

var testPunct3 = map[string]lang.TokenType{
	"===": lang.TokenTypeEqEqEq,
	"!==": lang.TokenTypeNotEqEq,
	"...": lang.TokenTypeEllipsis,
}

var testPunct2 = map[string]lang.TokenType{
	"==": lang.TokenTypeEqEq,
	"!=": lang.TokenTypeNotEq,
	"<=": lang.TokenTypeLesserEqual,
	">=": lang.TokenTypeGreaterEqual,
	"&&": lang.TokenTypeAmpAmp,
	"||": lang.TokenTypePipePipe,
	"=>": lang.TokenTypeArrow,
	"+=": lang.TokenTypePlusEqual,
}

var testPunct1 = map[byte]lang.TokenType{
	'(': lang.TokenTypeParenOpen,
	')': lang.TokenTypeParenClose,
	'{': lang.TokenTypeCurlyOpen,
	'}': lang.TokenTypeCurlyClose,
	'[': lang.TokenTypeSquareOpen,
	']': lang.TokenTypeSquareClose,
	',': lang.TokenTypeComma,
	';': lang.TokenTypeSemicolon,
	':': lang.TokenTypeColon,
	'.': lang.TokenTypeDot,
	'=': lang.TokenTypeEqual,
	'+': lang.TokenTypePlus,
	'-': lang.TokenTypeMinus,
	'*': lang.TokenTypeStar,
	'/': lang.TokenTypeSlash,
	'<': lang.TokenTypeAngleOpen,
	'>': lang.TokenTypeAngleClose,
	'!': lang.TokenTypeBang,
}

func isWordByte(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// scanTokens is a minimal fixture lexer shared by the batch tests. It
// classifies keywords with the full shared table, so fixture sources must
// avoid words that are keywords in a language other than their own.
func scanTokens(t *testing.T, src string) []*lang.Token {
	t.Helper()
	tokens := []*lang.Token{}
	line := int32(1)
	col := int32(1)
	i := 0

	emit := func(typ lang.TokenType, value string, width int) {
		start := lang.Location{Line: line, Column: col, Offset: int64(i)}
		end := lang.Location{Line: line, Column: col + int32(width) - 1, Offset: int64(i + width - 1)}
		tokens = append(tokens, lang.NewToken(start, end, typ, value))
		col = col + int32(width)
		i = i + width
	}

	for i < len(src) {
		c := src[i]
		switch {
		case c == '\n':
			emit(lang.TokenTypeNewline, "\n", 1)
			line = line + 1
			col = 1
		case c == ' ' || c == '\t':
			emit(lang.TokenTypeWhitespace, string(c), 1)
		case c == '"':
			j := i + 1
			for j < len(src) && src[j] != c {
				j = j + 1
			}
			require.Less(t, j, len(src), "unterminated string in test fixture")
			emit(lang.TokenTypeStringLit, src[i+1:j], j-i+1)
		case c >= '0' && c <= '9':
			j := i
			for j < len(src) && src[j] >= '0' && src[j] <= '9' {
				j = j + 1
			}
			emit(lang.TokenTypeIntegerLit, src[i:j], j-i)
		case isWordByte(c):
			j := i
			for j < len(src) && isWordByte(src[j]) {
				j = j + 1
			}
			word := src[i:j]
			if word == "_" {
				emit(lang.TokenTypeUnderscore, word, 1)
			} else if typ, ok := lang.Keywords[word]; ok {
				emit(typ, word, j-i)
			} else {
				emit(lang.TokenTypeIdentifier, word, j-i)
			}
		default:
			if i+3 <= len(src) {
				if typ, ok := testPunct3[src[i:i+3]]; ok {
					emit(typ, src[i:i+3], 3)
					continue
				}
			}
			if i+2 <= len(src) {
				if typ, ok := testPunct2[src[i:i+2]]; ok {
					emit(typ, src[i:i+2], 2)
					continue
				}
			}
			typ, ok := testPunct1[c]
			require.True(t, ok, "test fixture contains unlexable byte %q", string(c))
			emit(typ, string(c), 1)
		}
	}
	emit(lang.TokenTypeEOF, "", 0)
	return tokens
}

// tokensJSON serializes a scanned token stream into the document form the
// pipeline accepts for pre-lexed input.
func tokensJSON(t *testing.T, language string, src string) string {
	t.Helper()
	doc := tokenStreamDoc{Language: language}
	for _, tok := range scanTokens(t, src) {
		doc.Tokens = append(doc.Tokens, tokenStreamToken{
			Type:   tok.Type.String(),
			Value:  tok.Value,
			Line:   tok.Span.End.Line,
			Col:    tok.Span.End.Column,
			Offset: tok.Span.End.Offset,
			Length: int32(tok.Span.End.Offset - tok.Span.Start.Offset + 1),
		})
	}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	return string(raw)
}

func tokensJSONFile(t *testing.T, path string, language string, src string) lang.File {
	return fs.NewFileString(path, tokensJSON(t, language, src), lang.FileKindTokenStream)
}

// memFS serves fixed files by URI.
type memFS map[string]lang.File

func (m memFS) Open(ctx context.Context, uri string) ([]lang.File, error) {
	if f, ok := m[uri]; ok {
		return []lang.File{f}, nil
	}
	return nil, exc.New(exc.Location{URI: uri}, exc.CodeFileNotFound, "not found")
}

func (m memFS) Write(ctx context.Context, uri string, content string) error {
	return exc.New(exc.Location{URI: uri}, exc.CodeUnsupportedFileSystemOperation, "read-only")
}

func newTestFrontend(t *testing.T, files memFS) *Frontend {
	t.Helper()
	f, err := New(OptionWithFS(files), OptionWithMaxConcurrency(2))
	require.NoError(t, err)
	return f
}

func collectNames(prog *ast.Program) map[string]int {
	names := map[string]int{}
	Walk(prog, func(n ast.Node) {
		if name, ok := n.(*ast.Name); ok {
			names[name.Value] = names[name.Value] + 1
		}
	})
	return names
}

func TestParseEndToEndDestructuring(t *testing.T) {
	ctx := context.Background()
	f := newTestFrontend(t, memFS{
		"/point.tokens.json": tokensJSONFile(t, "/point.tokens.json", "javascript", "var {x, y} = point;\n"),
	})

	resp, err := f.Parse(ctx, lang.ParseRequest{Files: []string{"/point.tokens.json"}})
	require.NoError(t, err)
	require.Len(t, resp.Units, 1)
	assert.Equal(t, 1, resp.Stats.Files)
	assert.Equal(t, 0, resp.Stats.FailedFiles)

	prog, ok := resp.Units[0].Program.(*ast.Program)
	require.True(t, ok)
	names := collectNames(prog)
	assert.Contains(t, names, "x")
	assert.Contains(t, names, "y")
	assert.Contains(t, names, "point")

	// The destructuring expands to one binding per pattern element.
	defs := 0
	Walk(prog, func(n ast.Node) {
		if _, ok := n.(*ast.VarDef); ok {
			defs = defs + 1
		}
	})
	assert.GreaterOrEqual(t, defs, 2)
}

func TestParseRecoveryContainment(t *testing.T) {
	ctx := context.Background()
	f := newTestFrontend(t, memFS{
		"/a.tokens.json": tokensJSONFile(t, "/a.tokens.json", "javascript", "var a = 1;\n"),
		"/b.tokens.json": tokensJSONFile(t, "/b.tokens.json", "javascript", "var = ;\nvar broken\n"),
		"/c.tokens.json": tokensJSONFile(t, "/c.tokens.json", "javascript", "var c = 3;\n"),
	})

	resp, err := f.Parse(ctx, lang.ParseRequest{
		Files:  []string{"/a.tokens.json", "/b.tokens.json", "/c.tokens.json"},
		Config: lang.Config{Recover: true},
	})
	require.NotNil(t, resp)
	require.Error(t, err)
	var me MultiException
	require.ErrorAs(t, err, &me)
	require.NotEmpty(t, me)

	// The broken unit is contained: its neighbors still lower.
	assert.Len(t, resp.Units, 2)
	assert.Equal(t, 3, resp.Stats.Files)
	assert.Equal(t, 1, resp.Stats.FailedFiles)
	assert.Equal(t, 4, resp.Stats.TotalLines)
	assert.Equal(t, 2, resp.Stats.FailedLines)
	assert.InDelta(t, 0.5, resp.Stats.FailedLineFraction(), 0.001)
}

func TestParseWithoutRecoveryFailsBatch(t *testing.T) {
	ctx := context.Background()
	f := newTestFrontend(t, memFS{
		"/a.tokens.json": tokensJSONFile(t, "/a.tokens.json", "javascript", "var a = 1;\n"),
		"/b.tokens.json": tokensJSONFile(t, "/b.tokens.json", "javascript", "var = ;\n"),
	})

	resp, err := f.Parse(ctx, lang.ParseRequest{
		Files: []string{"/a.tokens.json", "/b.tokens.json"},
	})
	require.Error(t, err)
	assert.Nil(t, resp)
}

func TestParseDeduplicatesTargets(t *testing.T) {
	ctx := context.Background()
	f := newTestFrontend(t, memFS{
		"/a.tokens.json": tokensJSONFile(t, "/a.tokens.json", "javascript", "var a = 1;\n"),
	})

	resp, err := f.Parse(ctx, lang.ParseRequest{
		Files: []string{"/a.tokens.json", "/a.tokens.json"},
	})
	require.NoError(t, err)
	assert.Len(t, resp.Units, 1)
	assert.Equal(t, 1, resp.Stats.Files)
}

func TestParseUnsupportedFormat(t *testing.T) {
	ctx := context.Background()
	f := newTestFrontend(t, memFS{
		"/native.c": fs.NewFileString("/native.c", "int main() { return 0; }\n", lang.FileKindC),
	})

	resp, err := f.Parse(ctx, lang.ParseRequest{Files: []string{"/native.c"}})
	require.Error(t, err)
	assert.Nil(t, resp)
	e, ok := err.(exc.Exception)
	require.True(t, ok)
	assert.Equal(t, exc.CodeUnsupportedFileFormat, e.Code())
}

func TestParseScalaTokenStream(t *testing.T) {
	ctx := context.Background()
	src := "package demo\nval answer = 42\ndef twice(n: Int): Int = n + n\n"
	f := newTestFrontend(t, memFS{
		"/demo.tokens.json": tokensJSONFile(t, "/demo.tokens.json", "scala", src),
	})

	resp, err := f.Parse(ctx, lang.ParseRequest{Files: []string{"/demo.tokens.json"}})
	require.NoError(t, err)
	require.Len(t, resp.Units, 1)
	assert.Equal(t, 3, resp.Stats.TotalLines)

	prog := resp.Units[0].Program.(*ast.Program)
	names := collectNames(prog)
	assert.Contains(t, names, "answer")
	assert.Contains(t, names, "twice")
}

func TestParseProtobufSource(t *testing.T) {
	ctx := context.Background()
	src := "syntax = \"proto3\";\npackage demo;\nmessage Widget {\n  string name = 1;\n}\n"
	f := newTestFrontend(t, memFS{
		"/demo.proto": fs.NewFileString("/demo.proto", src, lang.FileKindProtobuf),
	})

	resp, err := f.Parse(ctx, lang.ParseRequest{Files: []string{"/demo.proto"}})
	require.NoError(t, err)
	require.Len(t, resp.Units, 1)
	assert.Equal(t, 5, resp.Stats.TotalLines)

	prog := resp.Units[0].Program.(*ast.Program)
	names := collectNames(prog)
	assert.Contains(t, names, "Widget")
}

func TestParseMixedBatch(t *testing.T) {
	ctx := context.Background()
	f := newTestFrontend(t, memFS{
		"/a.tokens.json": tokensJSONFile(t, "/a.tokens.json", "javascript", "var a = 1;\n"),
		"/b.tokens.json": tokensJSONFile(t, "/b.tokens.json", "scala", "val b = 2\n"),
		"/c.proto":       fs.NewFileString("/c.proto", "syntax = \"proto3\";\nmessage C {}\n", lang.FileKindProtobuf),
	})

	resp, err := f.Parse(ctx, lang.ParseRequest{
		Files: []string{"/a.tokens.json", "/b.tokens.json", "/c.proto"},
	})
	require.NoError(t, err)
	assert.Len(t, resp.Units, 3)
	assert.Equal(t, 3, resp.Stats.Files)
	assert.Equal(t, 0, resp.Stats.FailedFiles)
	assert.Equal(t, float64(0), resp.Stats.FailedLineFraction())
}

func TestSprintRendersTree(t *testing.T) {
	ctx := context.Background()
	f := newTestFrontend(t, memFS{
		"/a.tokens.json": tokensJSONFile(t, "/a.tokens.json", "javascript", "let total = 1 + 2;\n"),
	})
	resp, err := f.Parse(ctx, lang.ParseRequest{Files: []string{"/a.tokens.json"}})
	require.NoError(t, err)
	require.Len(t, resp.Units, 1)

	out := Sprint(resp.Units[0].Program.(*ast.Program))
	assert.Contains(t, out, "Program /a.tokens.json")
	assert.Contains(t, out, "VarDef let")
	assert.Contains(t, out, "OpCall +")
	assert.Contains(t, out, fmt.Sprintf("Name total (%s)", ast.ResolvedLocal))
}
