// © 2026 Polyfront Authors
//
// SPDX-License-Identifier: Apache-2.0

package js

import (
	"context"
	"fmt"

	"gopkg.polyfront.org/frontend.go/internal/exc"
	"gopkg.polyfront.org/frontend.go/internal/iter"
	"gopkg.polyfront.org/frontend.go/internal/lang"
)

type ParserJS struct {
	reporter exc.Reporter
}

func NewParserJS(reporter exc.Reporter) *ParserJS {
	return &ParserJS{reporter: reporter}
}

// PrepareParse wraps a pre-lexed token stream in a parsing cursor. The JS
// grammar is not newline-sensitive, so layout tokens are filtered out here
// along with whitespace and comments; semicolons are kept because the
// classic for-statement needs them as clause separators.
func (self *ParserJS) PrepareParse(ctx context.Context, f lang.TokenFile) (*parserJSTokens, error) {
	ft, err := f.Tokens(ctx)
	if err != nil {
		return nil, err
	}

	filtered := iter.NewFilter(ft, lang.Filter[*lang.Token](iter.FilterFunc[*lang.Token](func(ctx context.Context, t *lang.Token) bool {
		switch t.Type {
		case lang.TokenTypeWhitespace, lang.TokenTypeComment, lang.TokenTypeNewline, lang.TokenTypeNewlines, lang.TokenTypeEOF:
			return false
		default:
			return true
		}
	})))

	tokens := iter.NewLookahead(filtered, 8)

	return &parserJSTokens{
		reporter: self.reporter,
		ctx:      ctx,
		tokens:   tokens,
		uri:      f.Path(ctx),
		ts:       f.Kind(ctx) == lang.FileKindTypescript,
	}, nil
}

type parserJSTokens struct {
	reporter exc.Reporter
	ctx      context.Context
	uri      string
	// ts enables the TypeScript surface: type annotations are consumed and
	// discarded, and type-only declarations become escape nodes.
	ts bool
	// noIn suppresses the `in` binary operator while parsing the init
	// clause of a for-statement, where it would swallow the for-in header.
	noIn bool
	// loc is the .Span.End of the last consumed token, used to position
	// unexpected-EOF errors.
	loc    lang.Location
	tokens lang.Lookahead[*lang.Token]
	// fatal is the first exception the reporter refused to absorb. It stays
	// nil when every reported code is registered non-fatal.
	fatal exc.Exception
}

func (p *parserJSTokens) report(code string, message string) {
	e := p.reporter.Report(exc.New(exc.Location{
		URI:      p.uri,
		Location: p.loc,
	}, code, message))
	if e != nil && p.fatal == nil {
		p.fatal = e
	}
}

func (p *parserJSTokens) advance() {
	maybeToken := p.tokens.Lookahead(p.ctx, 0)
	if maybeToken.IsPresent() {
		p.loc = maybeToken.Value().Span.End
	}
	_ = p.tokens.Next(p.ctx)
}

func (p *parserJSTokens) peek() *lang.Token {
	return p.peekN(0)
}

func (p *parserJSTokens) peekN(n uint8) *lang.Token {
	maybeToken := p.tokens.Lookahead(p.ctx, n)
	if !maybeToken.IsPresent() {
		return nil
	}
	return maybeToken.Value()
}

// reports an error if there is no current token, or the current token isn't
// of the expected type; advances on success
func (p *parserJSTokens) expectOne(expectedType lang.TokenType) *lang.Token {
	return p.expectOneOf([]lang.TokenType{expectedType})
}

func (p *parserJSTokens) expectOneOf(expectedTypes []lang.TokenType) *lang.Token {
	maybeToken := p.peek()
	if maybeToken == nil {
		p.report(exc.CodeUnexpectedEOF, fmt.Sprintf("unexpected EOF (expecting %v)", expectedTypes))
		return nil
	}
	for _, expectedType := range expectedTypes {
		if maybeToken.Type == expectedType {
			p.advance()
			return maybeToken
		}
	}
	p.report(exc.CodeUnexpectedToken, fmt.Sprintf("unexpected %s (expecting %v)", maybeToken.Value, expectedTypes))
	return nil
}

// maybeOne advances over a token of the given type if it is next, without
// reporting anything when it isn't.
func (p *parserJSTokens) maybeOne(expectedType lang.TokenType) *lang.Token {
	maybeToken := p.peek()
	if maybeToken != nil && maybeToken.Type == expectedType {
		p.advance()
		return maybeToken
	}
	return nil
}

// contextualKeywords are words with grammatical meaning in some positions
// that remain usable as plain identifiers everywhere else.
var contextualKeywords = map[lang.TokenType]bool{
	lang.TokenTypeKeywordOf:     true,
	lang.TokenTypeKeywordGet:    true,
	lang.TokenTypeKeywordSet:    true,
	lang.TokenTypeKeywordStatic: true,
	lang.TokenTypeKeywordFrom:   true,
	lang.TokenTypeKeywordAs:     true,
	lang.TokenTypeKeywordAsync:  true,
}

func isIdentLike(t *lang.Token) bool {
	if t == nil {
		return false
	}
	return t.Type == lang.TokenTypeIdentifier || contextualKeywords[t.Type]
}

// expectIdentLike accepts an identifier or a contextual keyword used as one.
func (p *parserJSTokens) expectIdentLike() *lang.Token {
	maybeToken := p.peek()
	if maybeToken == nil {
		p.report(exc.CodeUnexpectedEOF, "unexpected EOF (expecting an identifier)")
		return nil
	}
	if !isIdentLike(maybeToken) {
		p.report(exc.CodeUnexpectedToken, fmt.Sprintf("unexpected %s (expecting an identifier)", maybeToken.Value))
		return nil
	}
	p.advance()
	return maybeToken
}

// endStmt consumes an optional statement terminator.
func (p *parserJSTokens) endStmt() {
	p.maybeOne(lang.TokenTypeSemicolon)
}

func (p *parserJSTokens) info(t *lang.Token) cstNode {
	return cstNode{info: lang.InfoOf(*t)}
}

// Program = { Statement }
func (p *parserJSTokens) parse() *cstProgram {
	prog := cstProgram{URI: p.uri}
	for {
		maybeToken := p.peek()
		if maybeToken == nil {
			break
		}
		s := p.parseStmt()
		if s == nil {
			return nil
		}
		prog.stmts = append(prog.stmts, s)
	}
	return &prog
}

func (p *parserJSTokens) parseStmt() stmt {
	maybeToken := p.peek()
	if maybeToken == nil {
		p.report(exc.CodeUnexpectedEOF, "unexpected EOF (expecting a statement)")
		return nil
	}
	switch maybeToken.Type {
	case lang.TokenTypeSemicolon:
		p.advance()
		return &cstEmpty{cstNode: p.info(maybeToken)}
	case lang.TokenTypeCurlyOpen:
		return p.parseBlock()
	case lang.TokenTypeKeywordVar, lang.TokenTypeKeywordLet, lang.TokenTypeKeywordConst:
		d := p.parseVarDecl()
		if d == nil {
			return nil
		}
		p.endStmt()
		return d
	case lang.TokenTypeKeywordFunction:
		return p.parseFuncDecl(false)
	case lang.TokenTypeKeywordAsync:
		if next := p.peekN(1); next != nil && next.Type == lang.TokenTypeKeywordFunction {
			p.advance()
			return p.parseFuncDecl(true)
		}
		return p.parseExprStmt()
	case lang.TokenTypeKeywordClass:
		return p.parseClassDecl()
	case lang.TokenTypeKeywordIf:
		return p.parseIf()
	case lang.TokenTypeKeywordWhile:
		return p.parseWhile()
	case lang.TokenTypeKeywordDo:
		return p.parseDoWhile()
	case lang.TokenTypeKeywordFor:
		return p.parseFor()
	case lang.TokenTypeKeywordReturn:
		p.advance()
		out := &cstReturn{cstNode: p.info(maybeToken)}
		if next := p.peek(); next != nil && next.Type != lang.TokenTypeSemicolon && next.Type != lang.TokenTypeCurlyClose {
			out.value = p.parseExpr()
			if out.value == nil {
				return nil
			}
		}
		p.endStmt()
		return out
	case lang.TokenTypeKeywordBreak:
		p.advance()
		out := &cstBreak{cstNode: p.info(maybeToken)}
		if isIdentLike(p.peek()) {
			out.label = p.peek().Value
			p.advance()
		}
		p.endStmt()
		return out
	case lang.TokenTypeKeywordContinue:
		p.advance()
		out := &cstContinue{cstNode: p.info(maybeToken)}
		if isIdentLike(p.peek()) {
			out.label = p.peek().Value
			p.advance()
		}
		p.endStmt()
		return out
	case lang.TokenTypeKeywordThrow:
		p.advance()
		value := p.parseExpr()
		if value == nil {
			return nil
		}
		p.endStmt()
		return &cstThrow{cstNode: p.info(maybeToken), value: value}
	case lang.TokenTypeKeywordTry:
		return p.parseTry()
	case lang.TokenTypeKeywordSwitch:
		return p.parseSwitch()
	case lang.TokenTypeKeywordImport:
		return p.parseImport()
	case lang.TokenTypeKeywordExport:
		return p.parseExport()
	case lang.TokenTypeIdentifier:
		if next := p.peekN(1); next != nil && next.Type == lang.TokenTypeColon {
			label := maybeToken.Value
			p.advance()
			p.advance()
			body := p.parseStmt()
			if body == nil {
				return nil
			}
			return &cstLabeled{cstNode: p.info(maybeToken), label: label, body: body}
		}
		if p.ts {
			if s := p.parseTypeScriptDecl(maybeToken); s != nil {
				return s
			}
		}
		return p.parseExprStmt()
	default:
		return p.parseExprStmt()
	}
}

// parseTypeScriptDecl recognizes the type-only declaration forms of the
// TypeScript dialect and carries them as opaque statements. Returns nil when
// the identifier does not start one, in which case the caller falls back to
// an expression statement.
func (p *parserJSTokens) parseTypeScriptDecl(t *lang.Token) stmt {
	if t.Value != "interface" && t.Value != "type" && t.Value != "declare" && t.Value != "namespace" {
		return nil
	}
	if !isIdentLike(p.peekN(1)) {
		return nil
	}
	category := map[string]string{
		"interface": "TSInterface",
		"type":      "TSTypeAlias",
		"declare":   "TSDeclare",
		"namespace": "TSNamespace",
	}[t.Value]
	p.advance()
	p.skipToDeclEnd()
	return &cstOtherStmt{cstNode: p.info(t), category: category}
}

// skipToDeclEnd consumes tokens through the end of an opaque declaration:
// either a balanced braced body or a terminating semicolon.
func (p *parserJSTokens) skipToDeclEnd() {
	depth := 0
	for {
		maybeToken := p.peek()
		if maybeToken == nil {
			return
		}
		switch maybeToken.Type {
		case lang.TokenTypeCurlyOpen:
			depth = depth + 1
		case lang.TokenTypeCurlyClose:
			p.advance()
			depth = depth - 1
			if depth <= 0 {
				return
			}
			continue
		case lang.TokenTypeSemicolon:
			if depth == 0 {
				p.advance()
				return
			}
		}
		p.advance()
	}
}

// skipTypeAnnotation consumes a `: Type` suffix in the TypeScript dialect.
// The type itself is discarded: one dotted reference with optional balanced
// argument lists and array suffixes, possibly joined by union or
// intersection operators.
func (p *parserJSTokens) skipTypeAnnotation() {
	if !p.ts {
		return
	}
	if p.maybeOne(lang.TokenTypeColon) == nil {
		return
	}
	for {
		p.skipTypeRef()
		if p.maybeOne(lang.TokenTypePipe) == nil && p.maybeOne(lang.TokenTypeAmpersand) == nil {
			return
		}
	}
}

func (p *parserJSTokens) skipTypeRef() {
	maybeToken := p.peek()
	if maybeToken == nil {
		return
	}
	switch {
	case isIdentLike(maybeToken) || maybeToken.Type == lang.TokenTypeKeywordNull || maybeToken.Type == lang.TokenTypeKeywordVoid || maybeToken.Type == lang.TokenTypeStringLit:
		p.advance()
		for p.maybeOne(lang.TokenTypeDot) != nil {
			p.advance()
		}
		if p.peek() != nil && p.peek().Type == lang.TokenTypeAngleOpen {
			p.skipBalanced(lang.TokenTypeAngleOpen, lang.TokenTypeAngleClose)
		}
	case maybeToken.Type == lang.TokenTypeCurlyOpen:
		p.skipBalanced(lang.TokenTypeCurlyOpen, lang.TokenTypeCurlyClose)
	case maybeToken.Type == lang.TokenTypeParenOpen:
		p.skipBalanced(lang.TokenTypeParenOpen, lang.TokenTypeParenClose)
	default:
		return
	}
	for p.peek() != nil && p.peek().Type == lang.TokenTypeSquareOpen {
		p.skipBalanced(lang.TokenTypeSquareOpen, lang.TokenTypeSquareClose)
	}
}

func (p *parserJSTokens) skipBalanced(open lang.TokenType, close lang.TokenType) {
	depth := 0
	for {
		maybeToken := p.peek()
		if maybeToken == nil {
			return
		}
		p.advance()
		switch maybeToken.Type {
		case open:
			depth = depth + 1
		case close:
			depth = depth - 1
			if depth == 0 {
				return
			}
		}
	}
}

// Block = "{" { Statement } "}"
func (p *parserJSTokens) parseBlock() *cstBlock {
	open := p.expectOne(lang.TokenTypeCurlyOpen)
	if open == nil {
		return nil
	}
	out := cstBlock{cstNode: p.info(open)}
	for {
		maybeToken := p.peek()
		if maybeToken == nil {
			p.report(exc.CodeUnexpectedEOF, "unexpected EOF (expecting } to close a block)")
			return nil
		}
		if maybeToken.Type == lang.TokenTypeCurlyClose {
			p.advance()
			return &out
		}
		s := p.parseStmt()
		if s == nil {
			return nil
		}
		out.stmts = append(out.stmts, s)
	}
}

// VarDecl = ("var" | "let" | "const") Declarator { "," Declarator }
func (p *parserJSTokens) parseVarDecl() *cstVarDecl {
	kind := p.expectOneOf([]lang.TokenType{lang.TokenTypeKeywordVar, lang.TokenTypeKeywordLet, lang.TokenTypeKeywordConst})
	if kind == nil {
		return nil
	}
	out := cstVarDecl{cstNode: p.info(kind), kind: kind.Type}
	for {
		d := p.parseDeclarator()
		if d == nil {
			return nil
		}
		out.decls = append(out.decls, *d)
		if p.maybeOne(lang.TokenTypeComma) == nil {
			return &out
		}
	}
}

// Declarator = Pattern [":" Type] ["=" AssignExpr]
func (p *parserJSTokens) parseDeclarator() *cstDeclarator {
	pat := p.parsePattern()
	if pat == nil {
		return nil
	}
	out := cstDeclarator{pat: pat}
	p.skipTypeAnnotation()
	if p.maybeOne(lang.TokenTypeEqual) != nil {
		out.init = p.parseAssign()
		if out.init == nil {
			return nil
		}
	}
	return &out
}

// Pattern = identifier | ArrayPattern | ObjectPattern
func (p *parserJSTokens) parsePattern() pattern {
	maybeToken := p.peek()
	if maybeToken == nil {
		p.report(exc.CodeUnexpectedEOF, "unexpected EOF (expecting a binding pattern)")
		return nil
	}
	switch {
	case isIdentLike(maybeToken):
		p.advance()
		return &cstIdentPat{cstNode: p.info(maybeToken), name: *maybeToken}
	case maybeToken.Type == lang.TokenTypeSquareOpen:
		return p.parseArrayPattern()
	case maybeToken.Type == lang.TokenTypeCurlyOpen:
		return p.parseObjectPattern()
	default:
		p.report(exc.CodeUnexpectedToken, fmt.Sprintf("unexpected %s (expecting a binding pattern)", maybeToken.Value))
		return nil
	}
}

// ArrayPattern = "[" [PatternElement] { "," [PatternElement] } "]"
func (p *parserJSTokens) parseArrayPattern() pattern {
	open := p.expectOne(lang.TokenTypeSquareOpen)
	if open == nil {
		return nil
	}
	out := cstArrayPat{cstNode: p.info(open)}
	for {
		maybeToken := p.peek()
		if maybeToken == nil {
			p.report(exc.CodeUnexpectedEOF, "unexpected EOF (expecting ] to close a pattern)")
			return nil
		}
		switch maybeToken.Type {
		case lang.TokenTypeSquareClose:
			p.advance()
			return &out
		case lang.TokenTypeComma:
			p.advance()
			out.elems = append(out.elems, nil) // elision
			continue
		}
		elem := p.parsePatternElement()
		if elem == nil {
			return nil
		}
		out.elems = append(out.elems, elem)
		if p.maybeOne(lang.TokenTypeComma) == nil {
			if p.expectOne(lang.TokenTypeSquareClose) == nil {
				return nil
			}
			return &out
		}
	}
}

// PatternElement = ["..."] Pattern ["=" AssignExpr]
func (p *parserJSTokens) parsePatternElement() pattern {
	if rest := p.maybeOne(lang.TokenTypeEllipsis); rest != nil {
		inner := p.parsePattern()
		if inner == nil {
			return nil
		}
		return &cstRestPat{cstNode: p.info(rest), pat: inner}
	}
	pat := p.parsePattern()
	if pat == nil {
		return nil
	}
	if eq := p.maybeOne(lang.TokenTypeEqual); eq != nil {
		def := p.parseAssign()
		if def == nil {
			return nil
		}
		return &cstAssignPat{cstNode: p.info(eq), pat: pat, def: def}
	}
	return pat
}

// ObjectPattern = "{" [PatternProp] { "," [PatternProp] } "}"
func (p *parserJSTokens) parseObjectPattern() pattern {
	open := p.expectOne(lang.TokenTypeCurlyOpen)
	if open == nil {
		return nil
	}
	out := cstObjectPat{cstNode: p.info(open)}
	for {
		maybeToken := p.peek()
		if maybeToken == nil {
			p.report(exc.CodeUnexpectedEOF, "unexpected EOF (expecting } to close a pattern)")
			return nil
		}
		if maybeToken.Type == lang.TokenTypeCurlyClose {
			p.advance()
			return &out
		}
		key := p.expectIdentLike()
		if key == nil {
			return nil
		}
		prop := cstObjectPatProp{cstNode: p.info(key), key: *key}
		if p.maybeOne(lang.TokenTypeColon) != nil {
			prop.value = p.parsePattern()
			if prop.value == nil {
				return nil
			}
		}
		if eq := p.maybeOne(lang.TokenTypeEqual); eq != nil {
			inner := prop.value
			if inner == nil {
				inner = &cstIdentPat{cstNode: p.info(key), name: *key}
			}
			def := p.parseAssign()
			if def == nil {
				return nil
			}
			prop.value = &cstAssignPat{cstNode: p.info(eq), pat: inner, def: def}
		}
		out.props = append(out.props, prop)
		if p.maybeOne(lang.TokenTypeComma) == nil {
			if p.expectOne(lang.TokenTypeCurlyClose) == nil {
				return nil
			}
			return &out
		}
	}
}

// FuncDecl = ["async"] "function" ["*"] identifier Params Block
func (p *parserJSTokens) parseFuncDecl(isAsync bool) stmt {
	kw := p.expectOne(lang.TokenTypeKeywordFunction)
	if kw == nil {
		return nil
	}
	fn := p.parseFuncRest(kw, isAsync, true)
	if fn == nil {
		return nil
	}
	return &cstFuncDecl{cstNode: p.info(kw), fn: *fn}
}

// parseFuncRest parses everything after the function keyword. named
// requires a function name; expressions may omit it.
func (p *parserJSTokens) parseFuncRest(kw *lang.Token, isAsync bool, named bool) *cstFunc {
	out := cstFunc{cstNode: p.info(kw), isAsync: isAsync}
	if p.maybeOne(lang.TokenTypeStar) != nil {
		out.isGenerator = true
	}
	if isIdentLike(p.peek()) {
		name := p.peek()
		p.advance()
		out.name = name
	} else if named {
		p.report(exc.CodeUnexpectedToken, "expecting a function name")
		return nil
	}
	out.params = p.parseParams()
	if out.params == nil {
		return nil
	}
	p.skipTypeAnnotation()
	out.body = p.parseBlock()
	if out.body == nil {
		return nil
	}
	return &out
}

// Params = "(" [Param] { "," Param } ")"
func (p *parserJSTokens) parseParams() []pattern {
	if p.expectOne(lang.TokenTypeParenOpen) == nil {
		return nil
	}
	params := []pattern{}
	for {
		maybeToken := p.peek()
		if maybeToken == nil {
			p.report(exc.CodeUnexpectedEOF, "unexpected EOF (expecting ) to close a parameter list)")
			return nil
		}
		if maybeToken.Type == lang.TokenTypeParenClose {
			p.advance()
			return params
		}
		param := p.parsePatternElement()
		if param == nil {
			return nil
		}
		p.skipTypeAnnotation()
		if eq := p.maybeOne(lang.TokenTypeEqual); eq != nil {
			// TypeScript order: name, annotation, default
			def := p.parseAssign()
			if def == nil {
				return nil
			}
			param = &cstAssignPat{cstNode: p.info(eq), pat: param, def: def}
		}
		params = append(params, param)
		if p.maybeOne(lang.TokenTypeComma) == nil {
			if p.expectOne(lang.TokenTypeParenClose) == nil {
				return nil
			}
			return params
		}
	}
}

// ClassDecl = "class" identifier ["extends" LeftHandSideExpr] ClassBody
func (p *parserJSTokens) parseClassDecl() stmt {
	kw := p.peek()
	class := p.parseClass(true)
	if class == nil {
		return nil
	}
	return &cstClassDecl{cstNode: p.info(kw), class: *class}
}

func (p *parserJSTokens) parseClass(named bool) *cstClass {
	kw := p.expectOne(lang.TokenTypeKeywordClass)
	if kw == nil {
		return nil
	}
	out := cstClass{cstNode: p.info(kw)}
	if isIdentLike(p.peek()) {
		name := p.peek()
		p.advance()
		out.name = name
	} else if named {
		p.report(exc.CodeUnexpectedToken, "expecting a class name")
		return nil
	}
	if p.maybeOne(lang.TokenTypeKeywordExtends) != nil {
		out.superClass = p.parseCallChain(nil)
		if out.superClass == nil {
			return nil
		}
	}
	if p.expectOne(lang.TokenTypeCurlyOpen) == nil {
		return nil
	}
	for {
		maybeToken := p.peek()
		if maybeToken == nil {
			p.report(exc.CodeUnexpectedEOF, "unexpected EOF (expecting } to close a class body)")
			return nil
		}
		if maybeToken.Type == lang.TokenTypeCurlyClose {
			p.advance()
			return &out
		}
		if maybeToken.Type == lang.TokenTypeSemicolon {
			p.advance()
			continue
		}
		member := p.parseClassMember()
		if member == nil {
			return nil
		}
		out.members = append(out.members, *member)
	}
}

// ClassMember = ["static"] ["get" | "set" | "async"] ["*"] Name
//
//	( Params Block | [":" Type] ["=" AssignExpr] [";"] )
func (p *parserJSTokens) parseClassMember() *cstClassMember {
	out := cstClassMember{}
	start := p.peek()
	if start == nil {
		p.report(exc.CodeUnexpectedEOF, "unexpected EOF (expecting a class member)")
		return nil
	}
	out.cstNode = p.info(start)

	if t := p.peek(); t != nil && t.Type == lang.TokenTypeKeywordStatic && p.memberNameFollows(1) {
		out.isStatic = true
		p.advance()
	}
	kind := classMemberMethod
	isAsync := false
	isGenerator := false
	switch t := p.peek(); {
	case t != nil && t.Type == lang.TokenTypeKeywordGet && p.memberNameFollows(1):
		kind = classMemberGetter
		p.advance()
	case t != nil && t.Type == lang.TokenTypeKeywordSet && p.memberNameFollows(1):
		kind = classMemberSetter
		p.advance()
	case t != nil && t.Type == lang.TokenTypeKeywordAsync && p.memberNameFollows(1):
		isAsync = true
		p.advance()
	}
	if p.maybeOne(lang.TokenTypeStar) != nil {
		isGenerator = true
	}
	name := p.expectIdentLike()
	if name == nil {
		return nil
	}
	out.name = *name

	if t := p.peek(); t != nil && t.Type == lang.TokenTypeParenOpen {
		out.kind = kind
		fn := cstFunc{cstNode: p.info(name), isAsync: isAsync, isGenerator: isGenerator}
		fn.params = p.parseParams()
		if fn.params == nil {
			return nil
		}
		p.skipTypeAnnotation()
		fn.body = p.parseBlock()
		if fn.body == nil {
			return nil
		}
		out.fn = &fn
		return &out
	}

	out.kind = classMemberField
	p.skipTypeAnnotation()
	if p.maybeOne(lang.TokenTypeEqual) != nil {
		out.init = p.parseAssign()
		if out.init == nil {
			return nil
		}
	}
	p.endStmt()
	return &out
}

// memberNameFollows distinguishes a member-kind prefix (static, get, set,
// async) from a member that is simply named with one of those words.
func (p *parserJSTokens) memberNameFollows(n uint8) bool {
	t := p.peekN(n)
	return isIdentLike(t) || (t != nil && t.Type == lang.TokenTypeStar)
}

// If = "if" "(" Expr ")" Statement ["else" Statement]
func (p *parserJSTokens) parseIf() stmt {
	kw := p.expectOne(lang.TokenTypeKeywordIf)
	if kw == nil {
		return nil
	}
	if p.expectOne(lang.TokenTypeParenOpen) == nil {
		return nil
	}
	test := p.parseExpr()
	if test == nil {
		return nil
	}
	if p.expectOne(lang.TokenTypeParenClose) == nil {
		return nil
	}
	then := p.parseStmt()
	if then == nil {
		return nil
	}
	out := cstIf{cstNode: p.info(kw), test: test, then: then}
	if p.maybeOne(lang.TokenTypeKeywordElse) != nil {
		out.els = p.parseStmt()
		if out.els == nil {
			return nil
		}
	}
	return &out
}

// While = "while" "(" Expr ")" Statement
func (p *parserJSTokens) parseWhile() stmt {
	kw := p.expectOne(lang.TokenTypeKeywordWhile)
	if kw == nil {
		return nil
	}
	if p.expectOne(lang.TokenTypeParenOpen) == nil {
		return nil
	}
	test := p.parseExpr()
	if test == nil {
		return nil
	}
	if p.expectOne(lang.TokenTypeParenClose) == nil {
		return nil
	}
	body := p.parseStmt()
	if body == nil {
		return nil
	}
	return &cstWhile{cstNode: p.info(kw), test: test, body: body}
}

// DoWhile = "do" Statement "while" "(" Expr ")"
func (p *parserJSTokens) parseDoWhile() stmt {
	kw := p.expectOne(lang.TokenTypeKeywordDo)
	if kw == nil {
		return nil
	}
	body := p.parseStmt()
	if body == nil {
		return nil
	}
	if p.expectOne(lang.TokenTypeKeywordWhile) == nil {
		return nil
	}
	if p.expectOne(lang.TokenTypeParenOpen) == nil {
		return nil
	}
	test := p.parseExpr()
	if test == nil {
		return nil
	}
	if p.expectOne(lang.TokenTypeParenClose) == nil {
		return nil
	}
	p.endStmt()
	return &cstDoWhile{cstNode: p.info(kw), body: body, test: test}
}

// For = "for" "(" ForHeader ")" Statement
//
// The header is one of the classic three-clause form, for-in, or for-of;
// which one is not known until the token after the first clause.
func (p *parserJSTokens) parseFor() stmt {
	kw := p.expectOne(lang.TokenTypeKeywordFor)
	if kw == nil {
		return nil
	}
	if p.expectOne(lang.TokenTypeParenOpen) == nil {
		return nil
	}

	maybeToken := p.peek()
	if maybeToken == nil {
		p.report(exc.CodeUnexpectedEOF, "unexpected EOF (expecting a for header)")
		return nil
	}

	switch maybeToken.Type {
	case lang.TokenTypeSemicolon:
		p.advance()
		return p.parseForClassicRest(kw, nil)
	case lang.TokenTypeKeywordVar, lang.TokenTypeKeywordLet, lang.TokenTypeKeywordConst:
		declKind := maybeToken.Type
		p.advance()
		pat := p.parsePattern()
		if pat == nil {
			return nil
		}
		next := p.peek()
		if next != nil && next.Type == lang.TokenTypeKeywordOf {
			p.advance()
			return p.parseForEachRest(kw, declKind, pat, true)
		}
		if next != nil && next.Type == lang.TokenTypeKeywordIn {
			p.advance()
			return p.parseForEachRest(kw, declKind, pat, false)
		}
		// classic: finish the first declarator, then any further ones
		init := &cstVarDecl{cstNode: p.info(maybeToken), kind: declKind}
		d := cstDeclarator{pat: pat}
		p.skipTypeAnnotation()
		if p.maybeOne(lang.TokenTypeEqual) != nil {
			p.noIn = true
			d.init = p.parseAssign()
			p.noIn = false
			if d.init == nil {
				return nil
			}
		}
		init.decls = append(init.decls, d)
		for p.maybeOne(lang.TokenTypeComma) != nil {
			p.noIn = true
			more := p.parseDeclarator()
			p.noIn = false
			if more == nil {
				return nil
			}
			init.decls = append(init.decls, *more)
		}
		if p.expectOne(lang.TokenTypeSemicolon) == nil {
			return nil
		}
		return p.parseForClassicRest(kw, init)
	default:
		p.noIn = true
		first := p.parseExpr()
		p.noIn = false
		if first == nil {
			return nil
		}
		next := p.peek()
		if next != nil && (next.Type == lang.TokenTypeKeywordOf || next.Type == lang.TokenTypeKeywordIn) {
			pat := exprToPattern(first)
			if pat == nil {
				p.report(exc.CodeUnexpectedToken, "for loop target is not assignable")
				return nil
			}
			p.advance()
			return p.parseForEachRest(kw, 0, pat, next.Type == lang.TokenTypeKeywordOf)
		}
		if p.expectOne(lang.TokenTypeSemicolon) == nil {
			return nil
		}
		return p.parseForClassicRest(kw, &cstExprStmt{cstNode: p.info(kw), e: first})
	}
}

func (p *parserJSTokens) parseForClassicRest(kw *lang.Token, init stmt) stmt {
	out := cstForClassic{cstNode: p.info(kw), init: init}
	if t := p.peek(); t != nil && t.Type != lang.TokenTypeSemicolon {
		out.test = p.parseExpr()
		if out.test == nil {
			return nil
		}
	}
	if p.expectOne(lang.TokenTypeSemicolon) == nil {
		return nil
	}
	if t := p.peek(); t != nil && t.Type != lang.TokenTypeParenClose {
		out.post = p.parseExpr()
		if out.post == nil {
			return nil
		}
	}
	if p.expectOne(lang.TokenTypeParenClose) == nil {
		return nil
	}
	out.body = p.parseStmt()
	if out.body == nil {
		return nil
	}
	return &out
}

func (p *parserJSTokens) parseForEachRest(kw *lang.Token, declKind lang.TokenType, pat pattern, isOf bool) stmt {
	subject := p.parseAssign()
	if subject == nil {
		return nil
	}
	if p.expectOne(lang.TokenTypeParenClose) == nil {
		return nil
	}
	body := p.parseStmt()
	if body == nil {
		return nil
	}
	if isOf {
		return &cstForOf{cstNode: p.info(kw), declKind: declKind, left: pat, iterable: subject, body: body}
	}
	return &cstForIn{cstNode: p.info(kw), declKind: declKind, left: pat, obj: subject, body: body}
}

// Try = "try" Block ["catch" ["(" Pattern ")"] Block] ["finally" Block]
func (p *parserJSTokens) parseTry() stmt {
	kw := p.expectOne(lang.TokenTypeKeywordTry)
	if kw == nil {
		return nil
	}
	out := cstTry{cstNode: p.info(kw)}
	out.block = p.parseBlock()
	if out.block == nil {
		return nil
	}
	if p.maybeOne(lang.TokenTypeKeywordCatch) != nil {
		if p.maybeOne(lang.TokenTypeParenOpen) != nil {
			out.catchParam = p.parsePattern()
			if out.catchParam == nil {
				return nil
			}
			p.skipTypeAnnotation()
			if p.expectOne(lang.TokenTypeParenClose) == nil {
				return nil
			}
		}
		out.catch = p.parseBlock()
		if out.catch == nil {
			return nil
		}
	}
	if p.maybeOne(lang.TokenTypeKeywordFinally) != nil {
		out.finally = p.parseBlock()
		if out.finally == nil {
			return nil
		}
	}
	if out.catch == nil && out.finally == nil {
		p.report(exc.CodeUnexpectedToken, "try statement requires a catch or finally clause")
		return nil
	}
	return &out
}

// Switch = "switch" "(" Expr ")" "{" { CaseClause } "}"
func (p *parserJSTokens) parseSwitch() stmt {
	kw := p.expectOne(lang.TokenTypeKeywordSwitch)
	if kw == nil {
		return nil
	}
	if p.expectOne(lang.TokenTypeParenOpen) == nil {
		return nil
	}
	subject := p.parseExpr()
	if subject == nil {
		return nil
	}
	if p.expectOne(lang.TokenTypeParenClose) == nil {
		return nil
	}
	if p.expectOne(lang.TokenTypeCurlyOpen) == nil {
		return nil
	}
	out := cstSwitch{cstNode: p.info(kw), subject: subject}
	for {
		maybeToken := p.peek()
		if maybeToken == nil {
			p.report(exc.CodeUnexpectedEOF, "unexpected EOF (expecting } to close a switch)")
			return nil
		}
		if maybeToken.Type == lang.TokenTypeCurlyClose {
			p.advance()
			return &out
		}
		c := cstSwitchCase{cstNode: p.info(maybeToken)}
		switch maybeToken.Type {
		case lang.TokenTypeKeywordCase:
			p.advance()
			c.test = p.parseExpr()
			if c.test == nil {
				return nil
			}
		case lang.TokenTypeKeywordDefault:
			p.advance()
		default:
			p.report(exc.CodeUnexpectedToken, fmt.Sprintf("unexpected %s (expecting case or default)", maybeToken.Value))
			return nil
		}
		if p.expectOne(lang.TokenTypeColon) == nil {
			return nil
		}
		for {
			t := p.peek()
			if t == nil || t.Type == lang.TokenTypeKeywordCase || t.Type == lang.TokenTypeKeywordDefault || t.Type == lang.TokenTypeCurlyClose {
				break
			}
			s := p.parseStmt()
			if s == nil {
				return nil
			}
			c.body = append(c.body, s)
		}
		out.cases = append(out.cases, c)
	}
}

// Import = "import" string
//
//	| "import" ImportClause "from" string
//
// ImportClause = identifier ["," NamedOrNamespace] | NamedOrNamespace
func (p *parserJSTokens) parseImport() stmt {
	kw := p.expectOne(lang.TokenTypeKeywordImport)
	if kw == nil {
		return nil
	}
	out := cstImport{cstNode: p.info(kw)}

	if path := p.maybeOne(lang.TokenTypeStringLit); path != nil {
		out.path = *path
		p.endStmt()
		return &out
	}

	maybeToken := p.peek()
	if maybeToken == nil {
		p.report(exc.CodeUnexpectedEOF, "unexpected EOF (expecting an import clause)")
		return nil
	}
	if isIdentLike(maybeToken) {
		p.advance()
		out.specs = append(out.specs, cstImportSpec{cstNode: p.info(maybeToken), kind: importSpecDefault, local: *maybeToken})
		if p.maybeOne(lang.TokenTypeComma) == nil {
			return p.parseImportTail(&out)
		}
	}

	maybeToken = p.peek()
	if maybeToken == nil {
		p.report(exc.CodeUnexpectedEOF, "unexpected EOF (expecting an import clause)")
		return nil
	}
	switch maybeToken.Type {
	case lang.TokenTypeStar:
		p.advance()
		if p.expectOne(lang.TokenTypeKeywordAs) == nil {
			return nil
		}
		local := p.expectIdentLike()
		if local == nil {
			return nil
		}
		out.specs = append(out.specs, cstImportSpec{cstNode: p.info(maybeToken), kind: importSpecNamespace, local: *local})
	case lang.TokenTypeCurlyOpen:
		specs := p.parseImportSpecs()
		if specs == nil {
			return nil
		}
		out.specs = append(out.specs, specs...)
	default:
		p.report(exc.CodeUnexpectedToken, fmt.Sprintf("unexpected %s (expecting an import clause)", maybeToken.Value))
		return nil
	}
	return p.parseImportTail(&out)
}

func (p *parserJSTokens) parseImportTail(out *cstImport) stmt {
	if p.expectOne(lang.TokenTypeKeywordFrom) == nil {
		return nil
	}
	path := p.expectOne(lang.TokenTypeStringLit)
	if path == nil {
		return nil
	}
	out.path = *path
	p.endStmt()
	return out
}

// ImportSpecs = "{" [ImportSpec] { "," ImportSpec } "}"
// ImportSpec = identifier ["as" identifier]
func (p *parserJSTokens) parseImportSpecs() []cstImportSpec {
	if p.expectOne(lang.TokenTypeCurlyOpen) == nil {
		return nil
	}
	specs := []cstImportSpec{}
	for {
		maybeToken := p.peek()
		if maybeToken == nil {
			p.report(exc.CodeUnexpectedEOF, "unexpected EOF (expecting } to close an import clause)")
			return nil
		}
		if maybeToken.Type == lang.TokenTypeCurlyClose {
			p.advance()
			return specs
		}
		imported := p.expectIdentLike()
		if imported == nil {
			return nil
		}
		spec := cstImportSpec{cstNode: p.info(imported), kind: importSpecNamed, imported: *imported, local: *imported}
		if p.maybeOne(lang.TokenTypeKeywordAs) != nil {
			local := p.expectIdentLike()
			if local == nil {
				return nil
			}
			spec.local = *local
		}
		specs = append(specs, spec)
		if p.maybeOne(lang.TokenTypeComma) == nil {
			if p.expectOne(lang.TokenTypeCurlyClose) == nil {
				return nil
			}
			return specs
		}
	}
}

// Export = "export" "default" (FuncDecl | ClassDecl | AssignExpr)
//
//	| "export" "*" "from" string
//	| "export" ExportSpecs ["from" string]
//	| "export" Declaration
func (p *parserJSTokens) parseExport() stmt {
	kw := p.expectOne(lang.TokenTypeKeywordExport)
	if kw == nil {
		return nil
	}
	maybeToken := p.peek()
	if maybeToken == nil {
		p.report(exc.CodeUnexpectedEOF, "unexpected EOF (expecting an export clause)")
		return nil
	}
	switch maybeToken.Type {
	case lang.TokenTypeKeywordDefault:
		p.advance()
		return p.parseExportDefault(kw)
	case lang.TokenTypeStar:
		p.advance()
		if p.expectOne(lang.TokenTypeKeywordFrom) == nil {
			return nil
		}
		path := p.expectOne(lang.TokenTypeStringLit)
		if path == nil {
			return nil
		}
		p.endStmt()
		return &cstExportAll{cstNode: p.info(kw), from: *path}
	case lang.TokenTypeCurlyOpen:
		out := cstExportNamed{cstNode: p.info(kw)}
		if p.expectOne(lang.TokenTypeCurlyOpen) == nil {
			return nil
		}
		for {
			t := p.peek()
			if t == nil {
				p.report(exc.CodeUnexpectedEOF, "unexpected EOF (expecting } to close an export clause)")
				return nil
			}
			if t.Type == lang.TokenTypeCurlyClose {
				p.advance()
				break
			}
			local := p.expectIdentLike()
			if local == nil {
				return nil
			}
			spec := cstExportSpec{cstNode: p.info(local), local: *local, exported: *local}
			if p.maybeOne(lang.TokenTypeKeywordAs) != nil {
				exported := p.expectIdentLike()
				if exported == nil {
					return nil
				}
				spec.exported = *exported
			}
			out.specs = append(out.specs, spec)
			if p.maybeOne(lang.TokenTypeComma) == nil {
				if p.expectOne(lang.TokenTypeCurlyClose) == nil {
					return nil
				}
				break
			}
		}
		if p.maybeOne(lang.TokenTypeKeywordFrom) != nil {
			path := p.expectOne(lang.TokenTypeStringLit)
			if path == nil {
				return nil
			}
			out.from = path
		}
		p.endStmt()
		return &out
	case lang.TokenTypeKeywordVar, lang.TokenTypeKeywordLet, lang.TokenTypeKeywordConst,
		lang.TokenTypeKeywordFunction, lang.TokenTypeKeywordClass, lang.TokenTypeKeywordAsync:
		decl := p.parseStmt()
		if decl == nil {
			return nil
		}
		return &cstExportDecl{cstNode: p.info(kw), decl: decl}
	default:
		p.report(exc.CodeUnexpectedToken, fmt.Sprintf("unexpected %s (expecting an export clause)", maybeToken.Value))
		return nil
	}
}

func (p *parserJSTokens) parseExportDefault(kw *lang.Token) stmt {
	maybeToken := p.peek()
	if maybeToken == nil {
		p.report(exc.CodeUnexpectedEOF, "unexpected EOF (expecting a default export)")
		return nil
	}
	out := cstExportDefault{cstNode: p.info(kw)}
	switch maybeToken.Type {
	case lang.TokenTypeKeywordFunction:
		fn := p.parseExportableFunc(maybeToken, false)
		if fn == nil {
			return nil
		}
		out.decl = fn
		return &out
	case lang.TokenTypeKeywordAsync:
		if next := p.peekN(1); next != nil && next.Type == lang.TokenTypeKeywordFunction {
			p.advance()
			t := p.peek()
			fn := p.parseExportableFunc(t, true)
			if fn == nil {
				return nil
			}
			out.decl = fn
			return &out
		}
	case lang.TokenTypeKeywordClass:
		class := p.parseClass(false)
		if class == nil {
			return nil
		}
		out.decl = &cstClassDecl{cstNode: p.info(maybeToken), class: *class}
		return &out
	}
	out.value = p.parseAssign()
	if out.value == nil {
		return nil
	}
	p.endStmt()
	return &out
}

// parseExportableFunc parses a function whose name may be omitted because
// the default-export position provides one.
func (p *parserJSTokens) parseExportableFunc(kw *lang.Token, isAsync bool) stmt {
	if p.expectOne(lang.TokenTypeKeywordFunction) == nil {
		return nil
	}
	fn := p.parseFuncRest(kw, isAsync, false)
	if fn == nil {
		return nil
	}
	return &cstFuncDecl{cstNode: p.info(kw), fn: *fn}
}

func (p *parserJSTokens) parseExprStmt() stmt {
	start := p.peek()
	e := p.parseExpr()
	if e == nil {
		return nil
	}
	p.endStmt()
	return &cstExprStmt{cstNode: p.info(start), e: e}
}

// Expr = AssignExpr { "," AssignExpr }
func (p *parserJSTokens) parseExpr() expr {
	first := p.parseAssign()
	if first == nil {
		return nil
	}
	if t := p.peek(); t == nil || t.Type != lang.TokenTypeComma {
		return first
	}
	out := cstSeq{cstNode: cstNode{info: firstInfo(first)}, exprs: []expr{first}}
	for p.maybeOne(lang.TokenTypeComma) != nil {
		next := p.parseAssign()
		if next == nil {
			return nil
		}
		out.exprs = append(out.exprs, next)
	}
	return &out
}

func firstInfo(x expr) lang.Info {
	type positioned interface{ position() lang.Info }
	if px, ok := x.(positioned); ok {
		return px.position()
	}
	return lang.Info{}
}

var assignOps = []lang.TokenType{
	lang.TokenTypeEqual,
	lang.TokenTypePlusEqual,
	lang.TokenTypeMinusEqual,
	lang.TokenTypeStarEqual,
	lang.TokenTypeSlashEqual,
	lang.TokenTypePercentEqual,
}

// AssignExpr = CondExpr [AssignOp AssignExpr]
func (p *parserJSTokens) parseAssign() expr {
	left := p.parseConditional()
	if left == nil {
		return nil
	}
	t := p.peek()
	if t == nil {
		return left
	}
	for _, op := range assignOps {
		if t.Type == op {
			p.advance()
			value := p.parseAssign()
			if value == nil {
				return nil
			}
			return &cstAssign{cstNode: p.info(t), target: left, op: t.Type, value: value}
		}
	}
	return left
}

// CondExpr = BinaryExpr ["?" AssignExpr ":" AssignExpr]
func (p *parserJSTokens) parseConditional() expr {
	test := p.parseBinary(1)
	if test == nil {
		return nil
	}
	q := p.maybeOne(lang.TokenTypeQuestion)
	if q == nil {
		return test
	}
	then := p.parseAssign()
	if then == nil {
		return nil
	}
	if p.expectOne(lang.TokenTypeColon) == nil {
		return nil
	}
	els := p.parseAssign()
	if els == nil {
		return nil
	}
	return &cstCondExpr{cstNode: p.info(q), test: test, then: then, els: els}
}

var binaryPrecedence = map[lang.TokenType]int{
	lang.TokenTypePipePipe:           1,
	lang.TokenTypeAmpAmp:             2,
	lang.TokenTypePipe:               3,
	lang.TokenTypeCaret:              4,
	lang.TokenTypeAmpersand:          5,
	lang.TokenTypeEqEq:               6,
	lang.TokenTypeNotEq:              6,
	lang.TokenTypeEqEqEq:             6,
	lang.TokenTypeNotEqEq:            6,
	lang.TokenTypeAngleOpen:          7,
	lang.TokenTypeAngleClose:         7,
	lang.TokenTypeLesserEqual:        7,
	lang.TokenTypeGreaterEqual:       7,
	lang.TokenTypeKeywordIn:          7,
	lang.TokenTypeKeywordInstanceof:  7,
	lang.TokenTypeShiftLeft:          8,
	lang.TokenTypeShiftRight:         8,
	lang.TokenTypeShiftRightUnsigned: 8,
	lang.TokenTypePlus:               9,
	lang.TokenTypeMinus:              9,
	lang.TokenTypeStar:               10,
	lang.TokenTypeSlash:              10,
	lang.TokenTypePercent:            10,
}

// BinaryExpr is parsed by precedence climbing; all binary operators in the
// table are left-associative.
func (p *parserJSTokens) parseBinary(minPrecedence int) expr {
	left := p.parseUnary()
	if left == nil {
		return nil
	}
	for {
		t := p.peek()
		if t == nil {
			return left
		}
		if t.Type == lang.TokenTypeKeywordIn && p.noIn {
			return left
		}
		precedence, ok := binaryPrecedence[t.Type]
		if !ok || precedence < minPrecedence {
			return left
		}
		p.advance()
		right := p.parseBinary(precedence + 1)
		if right == nil {
			return nil
		}
		left = &cstBinary{cstNode: p.info(t), left: left, op: *t, right: right}
	}
}

var prefixOps = map[lang.TokenType]bool{
	lang.TokenTypeBang:          true,
	lang.TokenTypeTilde:         true,
	lang.TokenTypePlus:          true,
	lang.TokenTypeMinus:         true,
	lang.TokenTypePlusPlus:      true,
	lang.TokenTypeMinusMinus:    true,
	lang.TokenTypeKeywordTypeof: true,
	lang.TokenTypeKeywordDelete: true,
	lang.TokenTypeKeywordVoid:   true,
	lang.TokenTypeKeywordAwait:  true,
	lang.TokenTypeKeywordYield:  true,
}

// UnaryExpr = PrefixOp UnaryExpr | PostfixExpr
func (p *parserJSTokens) parseUnary() expr {
	t := p.peek()
	if t != nil && prefixOps[t.Type] {
		p.advance()
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		return &cstUnary{cstNode: p.info(t), op: *t, operand: operand, prefix: true}
	}
	return p.parsePostfix()
}

// PostfixExpr = CallChain ["++" | "--"]
func (p *parserJSTokens) parsePostfix() expr {
	out := p.parseCallChain(nil)
	if out == nil {
		return nil
	}
	if t := p.peek(); t != nil && (t.Type == lang.TokenTypePlusPlus || t.Type == lang.TokenTypeMinusMinus) {
		p.advance()
		return &cstUnary{cstNode: p.info(t), op: *t, operand: out, prefix: false}
	}
	return out
}

// CallChain = Primary { "." Name | "[" Expr "]" | "(" Args ")" }
//
// base is non-nil when the caller has already parsed the head, as the
// new-expression does.
func (p *parserJSTokens) parseCallChain(base expr) expr {
	if base == nil {
		base = p.parsePrimary()
		if base == nil {
			return nil
		}
	}
	for {
		t := p.peek()
		if t == nil {
			return base
		}
		switch t.Type {
		case lang.TokenTypeDot:
			p.advance()
			name := p.expectIdentLike()
			if name == nil {
				return nil
			}
			base = &cstDot{cstNode: p.info(t), obj: base, name: *name}
		case lang.TokenTypeSquareOpen:
			p.advance()
			index := p.parseExpr()
			if index == nil {
				return nil
			}
			if p.expectOne(lang.TokenTypeSquareClose) == nil {
				return nil
			}
			base = &cstIndex{cstNode: p.info(t), obj: base, index: index}
		case lang.TokenTypeParenOpen:
			args := p.parseArgs()
			if args == nil {
				return nil
			}
			base = &cstCall{cstNode: p.info(t), callee: base, args: args}
		default:
			return base
		}
	}
}

// Args = "(" [AssignExpr] { "," AssignExpr } ")"
//
// The empty argument list is returned as an empty non-nil slice so that
// callers can distinguish it from a parse failure.
func (p *parserJSTokens) parseArgs() []expr {
	if p.expectOne(lang.TokenTypeParenOpen) == nil {
		return nil
	}
	args := []expr{}
	for {
		t := p.peek()
		if t == nil {
			p.report(exc.CodeUnexpectedEOF, "unexpected EOF (expecting ) to close an argument list)")
			return nil
		}
		if t.Type == lang.TokenTypeParenClose {
			p.advance()
			return args
		}
		var arg expr
		if spread := p.maybeOne(lang.TokenTypeEllipsis); spread != nil {
			inner := p.parseAssign()
			if inner == nil {
				return nil
			}
			arg = &cstSpread{cstNode: p.info(spread), arg: inner}
		} else {
			arg = p.parseAssign()
			if arg == nil {
				return nil
			}
		}
		args = append(args, arg)
		if p.maybeOne(lang.TokenTypeComma) == nil {
			if p.expectOne(lang.TokenTypeParenClose) == nil {
				return nil
			}
			return args
		}
	}
}

var literalTokens = map[lang.TokenType]bool{
	lang.TokenTypeIntegerLit:   true,
	lang.TokenTypeFloatLit:     true,
	lang.TokenTypeStringLit:    true,
	lang.TokenTypeCharLit:      true,
	lang.TokenTypeRegexpLit:    true,
	lang.TokenTypeKeywordTrue:  true,
	lang.TokenTypeKeywordFalse: true,
	lang.TokenTypeKeywordNull:  true,
}

func (p *parserJSTokens) parsePrimary() expr {
	t := p.peek()
	if t == nil {
		p.report(exc.CodeUnexpectedEOF, "unexpected EOF (expecting an expression)")
		return nil
	}
	switch {
	case literalTokens[t.Type]:
		p.advance()
		return &cstLit{cstNode: p.info(t), typ: t.Type, value: t.Value}
	case t.Type == lang.TokenTypeKeywordThis:
		p.advance()
		return &cstThis{cstNode: p.info(t)}
	case t.Type == lang.TokenTypeKeywordSuper:
		p.advance()
		return &cstSuper{cstNode: p.info(t)}
	case t.Type == lang.TokenTypeKeywordNew:
		p.advance()
		return p.parseNew(t)
	case t.Type == lang.TokenTypeKeywordFunction:
		p.advance()
		fn := p.parseFuncRest(t, false, false)
		if fn == nil {
			return nil
		}
		return fn
	case t.Type == lang.TokenTypeKeywordClass:
		class := p.parseClass(false)
		if class == nil {
			return nil
		}
		return &cstClassExpr{cstNode: class.cstNode, class: *class}
	case t.Type == lang.TokenTypeKeywordAsync:
		if next := p.peekN(1); next != nil {
			switch {
			case next.Type == lang.TokenTypeKeywordFunction:
				p.advance()
				p.advance()
				fn := p.parseFuncRest(t, true, false)
				if fn == nil {
					return nil
				}
				return fn
			case isIdentLike(next) && p.arrowFollows(2):
				p.advance()
				return p.parseSingleParamArrow(true)
			case next.Type == lang.TokenTypeParenOpen:
				p.advance()
				return p.parseParenOrArrow(true)
			}
		}
		p.advance()
		return &cstIdent{cstNode: p.info(t), name: t.Value}
	case isIdentLike(t):
		if p.arrowFollows(1) {
			return p.parseSingleParamArrow(false)
		}
		p.advance()
		return &cstIdent{cstNode: p.info(t), name: t.Value}
	case t.Type == lang.TokenTypeParenOpen:
		return p.parseParenOrArrow(false)
	case t.Type == lang.TokenTypeSquareOpen:
		return p.parseArrayLit()
	case t.Type == lang.TokenTypeCurlyOpen:
		return p.parseObjectLit()
	default:
		p.report(exc.CodeUnexpectedToken, fmt.Sprintf("unexpected %s (expecting an expression)", t.Value))
		return nil
	}
}

func (p *parserJSTokens) arrowFollows(n uint8) bool {
	t := p.peekN(n)
	return t != nil && t.Type == lang.TokenTypeArrow
}

// NewExpr = "new" MemberChain [Args]
//
// The member chain binds tighter than the argument list: new a.b.C(x)
// constructs a.b.C.
func (p *parserJSTokens) parseNew(kw *lang.Token) expr {
	callee := p.parsePrimary()
	if callee == nil {
		return nil
	}
	for {
		t := p.peek()
		if t == nil {
			break
		}
		if t.Type == lang.TokenTypeDot {
			p.advance()
			name := p.expectIdentLike()
			if name == nil {
				return nil
			}
			callee = &cstDot{cstNode: p.info(t), obj: callee, name: *name}
			continue
		}
		if t.Type == lang.TokenTypeSquareOpen {
			p.advance()
			index := p.parseExpr()
			if index == nil {
				return nil
			}
			if p.expectOne(lang.TokenTypeSquareClose) == nil {
				return nil
			}
			callee = &cstIndex{cstNode: p.info(t), obj: callee, index: index}
			continue
		}
		break
	}
	out := cstNew{cstNode: p.info(kw), callee: callee}
	if t := p.peek(); t != nil && t.Type == lang.TokenTypeParenOpen {
		out.args = p.parseArgs()
		if out.args == nil {
			return nil
		}
	}
	return p.parseCallChain(&out)
}

func (p *parserJSTokens) parseSingleParamArrow(isAsync bool) expr {
	name := p.expectIdentLike()
	if name == nil {
		return nil
	}
	arrow := p.expectOne(lang.TokenTypeArrow)
	if arrow == nil {
		return nil
	}
	out := cstArrowFn{cstNode: p.info(name), isAsync: isAsync}
	out.params = []pattern{&cstIdentPat{cstNode: p.info(name), name: *name}}
	return p.parseArrowBody(&out)
}

func (p *parserJSTokens) parseArrowBody(out *cstArrowFn) expr {
	if t := p.peek(); t != nil && t.Type == lang.TokenTypeCurlyOpen {
		out.bodyBlock = p.parseBlock()
		if out.bodyBlock == nil {
			return nil
		}
		return out
	}
	out.bodyExpr = p.parseAssign()
	if out.bodyExpr == nil {
		return nil
	}
	return out
}

// parseParenOrArrow resolves the ambiguity between a parenthesized
// expression and an arrow-function parameter list. The contents are parsed
// as expressions first; if the closing paren is followed by an arrow they
// are reinterpreted as binding patterns.
func (p *parserJSTokens) parseParenOrArrow(isAsync bool) expr {
	open := p.expectOne(lang.TokenTypeParenOpen)
	if open == nil {
		return nil
	}

	if p.maybeOne(lang.TokenTypeParenClose) != nil {
		if p.expectOne(lang.TokenTypeArrow) == nil {
			return nil
		}
		out := cstArrowFn{cstNode: p.info(open), isAsync: isAsync}
		out.params = []pattern{}
		return p.parseArrowBody(&out)
	}

	items := []expr{}
	sawRest := false
	for {
		if spread := p.maybeOne(lang.TokenTypeEllipsis); spread != nil {
			inner := p.parseAssign()
			if inner == nil {
				return nil
			}
			items = append(items, &cstSpread{cstNode: p.info(spread), arg: inner})
			sawRest = true
		} else {
			item := p.parseAssign()
			if item == nil {
				return nil
			}
			items = append(items, item)
		}
		p.skipTypeAnnotation()
		if p.maybeOne(lang.TokenTypeComma) == nil {
			break
		}
	}
	if p.expectOne(lang.TokenTypeParenClose) == nil {
		return nil
	}

	if t := p.peek(); t != nil && t.Type == lang.TokenTypeArrow {
		p.advance()
		out := cstArrowFn{cstNode: p.info(open), isAsync: isAsync}
		out.params = make([]pattern, 0, len(items))
		for _, item := range items {
			pat := exprToPattern(item)
			if pat == nil {
				p.report(exc.CodeUnexpectedToken, "arrow parameter is not a binding pattern")
				return nil
			}
			out.params = append(out.params, pat)
		}
		return p.parseArrowBody(&out)
	}

	if sawRest {
		p.report(exc.CodeUnexpectedToken, "rest element outside a parameter list")
		return nil
	}
	if len(items) == 1 {
		return items[0]
	}
	return &cstSeq{cstNode: p.info(open), exprs: items}
}

// exprToPattern reinterprets an expression parsed in a cover position as a
// binding pattern, or returns nil when it is not one.
func exprToPattern(x expr) pattern {
	switch x := x.(type) {
	case *cstIdent:
		return &cstIdentPat{
			cstNode: x.cstNode,
			name:    lang.Token{Span: x.info.Span, Type: lang.TokenTypeIdentifier, Value: x.name},
		}
	case *cstSpread:
		inner := exprToPattern(x.arg)
		if inner == nil {
			return nil
		}
		return &cstRestPat{cstNode: x.cstNode, pat: inner}
	case *cstAssign:
		if x.op != lang.TokenTypeEqual {
			return nil
		}
		inner := exprToPattern(x.target)
		if inner == nil {
			return nil
		}
		return &cstAssignPat{cstNode: x.cstNode, pat: inner, def: x.value}
	case *cstArrayLit:
		out := cstArrayPat{cstNode: x.cstNode}
		for _, elem := range x.elems {
			if elem == nil {
				out.elems = append(out.elems, nil)
				continue
			}
			inner := exprToPattern(elem)
			if inner == nil {
				return nil
			}
			out.elems = append(out.elems, inner)
		}
		return &out
	case *cstObjectLit:
		out := cstObjectPat{cstNode: x.cstNode}
		for _, prop := range x.props {
			pp := cstObjectPatProp{cstNode: prop.cstNode, key: prop.key}
			if !prop.shorthand {
				inner := exprToPattern(prop.value)
				if inner == nil {
					return nil
				}
				pp.value = inner
			}
			out.props = append(out.props, pp)
		}
		return &out
	default:
		return nil
	}
}

// ArrayLit = "[" [Element] { "," [Element] } "]"
func (p *parserJSTokens) parseArrayLit() expr {
	open := p.expectOne(lang.TokenTypeSquareOpen)
	if open == nil {
		return nil
	}
	out := cstArrayLit{cstNode: p.info(open)}
	for {
		t := p.peek()
		if t == nil {
			p.report(exc.CodeUnexpectedEOF, "unexpected EOF (expecting ] to close an array literal)")
			return nil
		}
		switch t.Type {
		case lang.TokenTypeSquareClose:
			p.advance()
			return &out
		case lang.TokenTypeComma:
			p.advance()
			out.elems = append(out.elems, nil) // elision
			continue
		}
		var elem expr
		if spread := p.maybeOne(lang.TokenTypeEllipsis); spread != nil {
			inner := p.parseAssign()
			if inner == nil {
				return nil
			}
			elem = &cstSpread{cstNode: p.info(spread), arg: inner}
		} else {
			elem = p.parseAssign()
			if elem == nil {
				return nil
			}
		}
		out.elems = append(out.elems, elem)
		if p.maybeOne(lang.TokenTypeComma) == nil {
			if p.expectOne(lang.TokenTypeSquareClose) == nil {
				return nil
			}
			return &out
		}
	}
}

// ObjectLit = "{" [Prop] { "," Prop } "}"
// Prop = Key ":" AssignExpr | Key Params Block | Key
func (p *parserJSTokens) parseObjectLit() expr {
	open := p.expectOne(lang.TokenTypeCurlyOpen)
	if open == nil {
		return nil
	}
	out := cstObjectLit{cstNode: p.info(open)}
	for {
		t := p.peek()
		if t == nil {
			p.report(exc.CodeUnexpectedEOF, "unexpected EOF (expecting } to close an object literal)")
			return nil
		}
		if t.Type == lang.TokenTypeCurlyClose {
			p.advance()
			return &out
		}
		key := p.peek()
		if !isIdentLike(key) && key.Type != lang.TokenTypeStringLit && key.Type != lang.TokenTypeIntegerLit {
			p.report(exc.CodeUnexpectedToken, fmt.Sprintf("unexpected %s (expecting a property key)", key.Value))
			return nil
		}
		p.advance()
		prop := cstObjectProp{cstNode: p.info(key), key: *key}
		switch next := p.peek(); {
		case next != nil && next.Type == lang.TokenTypeColon:
			p.advance()
			prop.value = p.parseAssign()
			if prop.value == nil {
				return nil
			}
		case next != nil && next.Type == lang.TokenTypeParenOpen:
			// method shorthand
			fn := cstFunc{cstNode: p.info(key)}
			fn.params = p.parseParams()
			if fn.params == nil {
				return nil
			}
			fn.body = p.parseBlock()
			if fn.body == nil {
				return nil
			}
			prop.value = &fn
		default:
			prop.shorthand = true
		}
		out.props = append(out.props, prop)
		if p.maybeOne(lang.TokenTypeComma) == nil {
			if p.expectOne(lang.TokenTypeCurlyClose) == nil {
				return nil
			}
			return &out
		}
	}
}
