// © 2026 Polyfront Authors
//
// SPDX-License-Identifier: Apache-2.0

package js

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopkg.polyfront.org/frontend.go/internal/exc"
	"gopkg.polyfront.org/frontend.go/internal/iter"
	"gopkg.polyfront.org/frontend.go/internal/lang"
)

// jsKeywordWords is the keyword surface of the JavaScript dialect. The test
// scanner classifies only these; everything else identifier-shaped stays an
// identifier, the way a real JS lexer would treat words like "type".
var jsKeywordWords = []string{
	"var", "let", "const", "function", "class", "extends", "return",
	"if", "else", "while", "do", "for", "of", "in",
	"new", "typeof", "instanceof", "delete", "void",
	"this", "super", "null", "true", "false",
	"import", "export", "from", "as", "default",
	"async", "await", "yield", "get", "set", "static",
	"break", "continue", "switch", "case",
	"try", "catch", "finally", "throw",
}

var jsTestKeywords = func() map[string]lang.TokenType {
	m := make(map[string]lang.TokenType, len(jsKeywordWords))
	for _, w := range jsKeywordWords {
		m[w] = lang.Keywords[w]
	}
	return m
}()

var testPunct3 = map[string]lang.TokenType{
	"===": lang.TokenTypeEqEqEq,
	"!==": lang.TokenTypeNotEqEq,
	">>>": lang.TokenTypeShiftRightUnsigned,
	"...": lang.TokenTypeEllipsis,
}

var testPunct2 = map[string]lang.TokenType{
	"==": lang.TokenTypeEqEq,
	"!=": lang.TokenTypeNotEq,
	"<=": lang.TokenTypeLesserEqual,
	">=": lang.TokenTypeGreaterEqual,
	"&&": lang.TokenTypeAmpAmp,
	"||": lang.TokenTypePipePipe,
	"++": lang.TokenTypePlusPlus,
	"--": lang.TokenTypeMinusMinus,
	"+=": lang.TokenTypePlusEqual,
	"-=": lang.TokenTypeMinusEqual,
	"*=": lang.TokenTypeStarEqual,
	"/=": lang.TokenTypeSlashEqual,
	"%=": lang.TokenTypePercentEqual,
	"<<": lang.TokenTypeShiftLeft,
	">>": lang.TokenTypeShiftRight,
	"=>": lang.TokenTypeArrow,
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
	'%': lang.TokenTypePercent,
	'<': lang.TokenTypeAngleOpen,
	'>': lang.TokenTypeAngleClose,
	'!': lang.TokenTypeBang,
	'&': lang.TokenTypeAmpersand,
	'|': lang.TokenTypePipe,
	'^': lang.TokenTypeCaret,
	'~': lang.TokenTypeTilde,
	'?': lang.TokenTypeQuestion,
}

func isWordByte(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// scanJS is a minimal fixture lexer: it produces the pre-classified token
// stream that a production front-end would receive from an external lexer.
func scanJS(t *testing.T, src string) []*lang.Token {
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
		case c == ' ' || c == '\t' || c == '\r':
			emit(lang.TokenTypeWhitespace, string(c), 1)
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			j := i
			for j < len(src) && src[j] != '\n' {
				j = j + 1
			}
			emit(lang.TokenTypeComment, src[i:j], j-i)
		case c == '"' || c == '\'':
			j := i + 1
			for j < len(src) && src[j] != c {
				j = j + 1
			}
			require.Less(t, j, len(src), "unterminated string in test fixture")
			emit(lang.TokenTypeStringLit, src[i+1:j], j-i+1)
		case c >= '0' && c <= '9':
			j := i
			typ := lang.TokenTypeIntegerLit
			for j < len(src) && ((src[j] >= '0' && src[j] <= '9') || src[j] == '.') {
				if src[j] == '.' {
					typ = lang.TokenTypeFloatLit
				}
				j = j + 1
			}
			emit(typ, src[i:j], j-i)
		case isWordByte(c):
			j := i
			for j < len(src) && isWordByte(src[j]) {
				j = j + 1
			}
			word := src[i:j]
			if typ, ok := jsTestKeywords[word]; ok {
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

// memoryTokenFile feeds a scanned token slice through the TokenFile
// interface the parsers consume.
type memoryTokenFile struct {
	uri    string
	kind   lang.FileKind
	tokens []*lang.Token
}

func (f *memoryTokenFile) Path(ctx context.Context) string {
	return f.uri
}

func (f *memoryTokenFile) Kind(ctx context.Context) lang.FileKind {
	return f.kind
}

func (f *memoryTokenFile) Body(ctx context.Context) (lang.FileBody, error) {
	return nil, exc.New(exc.Location{URI: f.uri}, exc.CodeUnsupportedFileSystemOperation, "token files have no body")
}

func (f *memoryTokenFile) Tokens(ctx context.Context) (lang.Iterator[*lang.Token], error) {
	return iter.NewSlice(f.tokens), nil
}

func parseJSSource(t *testing.T, src string, kind lang.FileKind) (*cstProgram, exc.Reporter) {
	t.Helper()
	ctx := context.Background()
	r := exc.NewReporter(nil)
	parser := NewParserJS(r)
	file := &memoryTokenFile{uri: "/test/fixture.js", kind: kind, tokens: scanJS(t, src)}
	p, err := parser.PrepareParse(ctx, file)
	require.NoError(t, err)
	return p.parse(), r
}

func mustParseJS(t *testing.T, src string) *cstProgram {
	t.Helper()
	prog, r := parseJSSource(t, src, lang.FileKindJavascript)
	require.NotNil(t, prog, "parse failed: %v", r.Reported())
	require.Empty(t, r.Reported())
	return prog
}

func TestParserJSStatements(t *testing.T) {
	t.Parallel()
	sources := []string{
		"var x = 1;",
		"let x = 1, y = 2;",
		"const {x, y} = point;",
		"const [a, , b] = items;",
		"function add(a, b) { return a + b; }",
		"async function go() { await task(); }",
		"function* gen() { yield 1; }",
		"class Point extends Base { constructor(x) { super(); this.x = x; } get x() { return 1; } static of(v) { return new Point(v); } }",
		"if (a) { b(); } else if (c) { d(); } else { e(); }",
		"while (a < 10) { a++; }",
		"do { a--; } while (a > 0);",
		"for (let i = 0; i < n; i++) { sum += i; }",
		"for (;;) { break; }",
		"for (const x of xs) { use(x); }",
		"for (var k in obj) { use(k); }",
		"for (x of xs) { use(x); }",
		"outer: for (const x of xs) { continue outer; }",
		"try { risky(); } catch (err) { report(err); } finally { done(); }",
		"switch (v) { case 1: one(); break; default: other(); }",
		"throw new Error('boom');",
		"import 'side-effect';",
		"import def from 'm';",
		"import def, { a, b as c } from 'm';",
		"import * as ns from 'm';",
		"export { a, b as c };",
		"export { a as b } from 'm';",
		"export * from 'm';",
		"export const x = 1;",
		"export default function () { return 1; }",
		"export default class Widget { }",
		"export default 42;",
		"const f = (a, b) => a + b;",
		"const g = x => ({ value: x });",
		"const h = async () => { await g(1); };",
		"const obj = { a: 1, b, c() { return 2; }, 'd': 4 };",
		"labelled: { break labelled; }",
		"a = b = c;",
		"x.y.z[0](1, ...rest);",
		"const n = a === b ? -1 : +2;",
		"delete obj.key; void 0; typeof x;",
		"({x, y} = point);",
	}
	for _, src := range sources {
		src := src
		t.Run(src, func(t *testing.T) {
			t.Parallel()
			mustParseJS(t, src)
		})
	}
}

func TestParserJSReportsUnexpectedToken(t *testing.T) {
	t.Parallel()
	prog, r := parseJSSource(t, "var = 1;", lang.FileKindJavascript)
	assert.Nil(t, prog)
	reported := r.Reported()
	require.NotEmpty(t, reported)
	assert.Equal(t, exc.CodeUnexpectedToken, reported[0].Code())
}

func TestParserJSReportsUnexpectedEOF(t *testing.T) {
	t.Parallel()
	prog, r := parseJSSource(t, "function f() {", lang.FileKindJavascript)
	assert.Nil(t, prog)
	reported := r.Reported()
	require.NotEmpty(t, reported)
	assert.Equal(t, exc.CodeUnexpectedEOF, reported[0].Code())
}

func TestParserJSForHeaderDisambiguation(t *testing.T) {
	t.Parallel()
	prog := mustParseJS(t, "for (let i = 0; i in obj; i++) { } for (const k in obj) { } for (const v of vs) { }")
	require.Len(t, prog.stmts, 3)
	assert.IsType(t, &cstForClassic{}, prog.stmts[0])
	assert.IsType(t, &cstForIn{}, prog.stmts[1])
	assert.IsType(t, &cstForOf{}, prog.stmts[2])
}

func TestParserJSArrowReinterpretation(t *testing.T) {
	t.Parallel()
	prog := mustParseJS(t, "const f = (a, {b}, ...rest) => a; const paren = (a, b);")
	require.Len(t, prog.stmts, 2)

	decl := prog.stmts[0].(*cstVarDecl)
	arrow := decl.decls[0].init.(*cstArrowFn)
	require.Len(t, arrow.params, 3)
	assert.IsType(t, &cstIdentPat{}, arrow.params[0])
	assert.IsType(t, &cstObjectPat{}, arrow.params[1])
	assert.IsType(t, &cstRestPat{}, arrow.params[2])

	decl = prog.stmts[1].(*cstVarDecl)
	assert.IsType(t, &cstSeq{}, decl.decls[0].init)
}

func TestParserJSTypeScriptSurface(t *testing.T) {
	t.Parallel()
	src := "interface Shape { area(): number; } type Alias = string; let x: number = 1; function f(a: string, b: Alias[]): void { }"
	prog, r := parseJSSource(t, src, lang.FileKindTypescript)
	require.NotNil(t, prog, "parse failed: %v", r.Reported())
	require.Empty(t, r.Reported())

	require.GreaterOrEqual(t, len(prog.stmts), 4)
	assert.Equal(t, "TSInterface", prog.stmts[0].(*cstOtherStmt).category)
	assert.Equal(t, "TSTypeAlias", prog.stmts[1].(*cstOtherStmt).category)
	assert.IsType(t, &cstVarDecl{}, prog.stmts[2])
}
