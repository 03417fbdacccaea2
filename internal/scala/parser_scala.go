// © 2026 Polyfront Authors
//
// SPDX-License-Identifier: Apache-2.0

package scala

import (
	"context"
	"fmt"

	"gopkg.polyfront.org/frontend.go/internal/exc"
	"gopkg.polyfront.org/frontend.go/internal/iter"
	"gopkg.polyfront.org/frontend.go/internal/lang"
	"gopkg.polyfront.org/frontend.go/internal/optional"
)

type ParserScala struct {
	reporter exc.Reporter
}

func NewParserScala(reporter exc.Reporter) *ParserScala {
	return &ParserScala{reporter: reporter}
}

// PrepareParse wraps a pre-lexed token stream in a parsing cursor. This
// grammar is newline-sensitive: layout tokens survive filtering, and runs of
// newline tokens are coalesced into a single Newlines token so that "is a
// continuation token next" is always answerable with bounded lookahead.
func (self *ParserScala) PrepareParse(ctx context.Context, f lang.TokenFile) (*parserScalaTokens, error) {
	ft, err := f.Tokens(ctx)
	if err != nil {
		return nil, err
	}

	filtered := iter.NewFilter(ft, lang.Filter[*lang.Token](iter.FilterFunc[*lang.Token](func(ctx context.Context, t *lang.Token) bool {
		switch t.Type {
		case lang.TokenTypeWhitespace, lang.TokenTypeComment, lang.TokenTypeEOF:
			return false
		default:
			return true
		}
	})))

	var pending *lang.Token
	coalesced := iter.NewMapper(filtered, func(ctx context.Context, v optional.Optional[*lang.Token]) []*lang.Token {
		if !v.IsPresent() {
			if pending != nil {
				out := pending
				pending = nil
				return []*lang.Token{out}
			}
			return nil
		}
		t := v.Value()
		if t.Type == lang.TokenTypeNewline || t.Type == lang.TokenTypeNewlines {
			if pending == nil {
				pending = &lang.Token{Span: t.Span, Type: lang.TokenTypeNewlines, Value: "\n"}
			} else {
				pending.Span.End = t.Span.End
			}
			return nil
		}
		if pending != nil {
			out := pending
			pending = nil
			return []*lang.Token{out, t}
		}
		return []*lang.Token{t}
	})

	tokens := iter.NewLookahead(coalesced, 8)

	return &parserScalaTokens{
		reporter: self.reporter,
		ctx:      ctx,
		tokens:   tokens,
		uri:      f.Path(ctx),
	}, nil
}

type parserScalaTokens struct {
	reporter exc.Reporter
	ctx      context.Context
	uri      string
	loc      lang.Location
	tokens   lang.Lookahead[*lang.Token]
	// fatal is the first exception the reporter refused to absorb. It stays
	// nil when every reported code is registered non-fatal.
	fatal exc.Exception
}

func (p *parserScalaTokens) report(code string, message string) {
	e := p.reporter.Report(exc.New(exc.Location{
		URI:      p.uri,
		Location: p.loc,
	}, code, message))
	if e != nil && p.fatal == nil {
		p.fatal = e
	}
}

// todo reports a grammar production this parser does not implement. The
// whole unit is abandoned; whether the batch continues is the caller's
// recovery policy.
func (p *parserScalaTokens) todo(category string) {
	p.report(exc.CodeTodoConstruct, category)
}

func (p *parserScalaTokens) advance() {
	maybeToken := p.tokens.Lookahead(p.ctx, 0)
	if maybeToken.IsPresent() {
		p.loc = maybeToken.Value().Span.End
	}
	_ = p.tokens.Next(p.ctx)
}

func (p *parserScalaTokens) peek() *lang.Token {
	return p.peekN(0)
}

func (p *parserScalaTokens) peekN(n uint8) *lang.Token {
	maybeToken := p.tokens.Lookahead(p.ctx, n)
	if !maybeToken.IsPresent() {
		return nil
	}
	return maybeToken.Value()
}

func (p *parserScalaTokens) expectOne(expectedType lang.TokenType) *lang.Token {
	maybeToken := p.peek()
	if maybeToken == nil {
		p.report(exc.CodeUnexpectedEOF, fmt.Sprintf("unexpected EOF (expecting %s)", expectedType))
		return nil
	}
	if maybeToken.Type != expectedType {
		p.report(exc.CodeUnexpectedToken, fmt.Sprintf("unexpected %s (expecting %s)", maybeToken.Value, expectedType))
		return nil
	}
	p.advance()
	return maybeToken
}

func (p *parserScalaTokens) maybeOne(expectedType lang.TokenType) *lang.Token {
	maybeToken := p.peek()
	if maybeToken != nil && maybeToken.Type == expectedType {
		p.advance()
		return maybeToken
	}
	return nil
}

func (p *parserScalaTokens) expectIdent() *lang.Token {
	maybeToken := p.peek()
	if maybeToken == nil {
		p.report(exc.CodeUnexpectedEOF, "unexpected EOF (expecting an identifier)")
		return nil
	}
	if maybeToken.Type != lang.TokenTypeIdentifier {
		p.report(exc.CodeUnexpectedToken, fmt.Sprintf("unexpected %s (expecting an identifier)", maybeToken.Value))
		return nil
	}
	p.advance()
	return maybeToken
}

// skipNewlines discards layout at positions where the grammar treats
// newlines as insignificant, such as after an opening brace.
func (p *parserScalaTokens) skipNewlines() {
	for {
		if p.maybeOne(lang.TokenTypeNewlines) == nil {
			return
		}
	}
}

// atSeqEnd reports whether the cursor sits at a legal end of a statement
// sequence: a closing brace or the end of the stream.
func (p *parserScalaTokens) atSeqEnd() bool {
	t := p.peek()
	return t == nil || t.Type == lang.TokenTypeCurlyClose
}

// acceptStatSep consumes a statement separator: a semicolon or one run of
// newline tokens. At a legal sequence end nothing is demanded, so a final
// statement needs no trailing separator.
func (p *parserScalaTokens) acceptStatSep() bool {
	if p.atSeqEnd() {
		return true
	}
	t := p.peek()
	if t.Type != lang.TokenTypeSemicolon && t.Type != lang.TokenTypeNewlines {
		p.report(exc.CodeUnexpectedToken, fmt.Sprintf("unexpected %s (expecting a statement separator)", t.Value))
		return false
	}
	for {
		t = p.peek()
		if t == nil || (t.Type != lang.TokenTypeSemicolon && t.Type != lang.TokenTypeNewlines) {
			return true
		}
		p.advance()
	}
}

func (p *parserScalaTokens) info(t *lang.Token) cstNode {
	return cstNode{info: lang.InfoOf(*t)}
}

// CompilationUnit = {PackageClause StatSep} {TopStat StatSep}
func (p *parserScalaTokens) parse() *cstProgram {
	prog := cstProgram{URI: p.uri}
	p.skipNewlines()

	for {
		t := p.peek()
		if t == nil || t.Type != lang.TokenTypeKeywordPackage {
			break
		}
		if next := p.peekN(1); next != nil && next.Type == lang.TokenTypeKeywordObject {
			p.todo("PackageObject")
			return nil
		}
		p.advance()
		path := p.parseDottedPath()
		if path == nil {
			return nil
		}
		prog.pkg = append(prog.pkg, path...)
		if !p.acceptStatSep() {
			return nil
		}
	}

	for {
		p.skipNewlines()
		if p.peek() == nil {
			return &prog
		}
		s := p.parseTopStat()
		if s == nil {
			return nil
		}
		prog.stmts = append(prog.stmts, s)
		if !p.acceptStatSep() {
			return nil
		}
	}
}

func (p *parserScalaTokens) parseDottedPath() []lang.Token {
	first := p.expectIdent()
	if first == nil {
		return nil
	}
	path := []lang.Token{*first}
	for {
		if t := p.peek(); t == nil || t.Type != lang.TokenTypeDot {
			return path
		}
		p.advance()
		next := p.expectIdent()
		if next == nil {
			return nil
		}
		path = append(path, *next)
	}
}

// TopStat = Import | {Annotation} {Modifier} (TmplDef | Def)
func (p *parserScalaTokens) parseTopStat() stmt {
	t := p.peek()
	if t != nil && t.Type == lang.TokenTypeKeywordImport {
		return p.parseImport()
	}

	mods, annotations, ok := p.parseModifiers()
	if !ok {
		return nil
	}
	t = p.peek()
	if t == nil {
		p.report(exc.CodeUnexpectedEOF, "unexpected EOF (expecting a definition)")
		return nil
	}
	switch t.Type {
	case lang.TokenTypeKeywordClass:
		return p.parseTemplate(templateClass, mods, annotations)
	case lang.TokenTypeKeywordObject:
		return p.parseTemplate(templateObject, mods, annotations)
	case lang.TokenTypeKeywordTrait:
		return p.parseTemplate(templateTrait, mods, annotations)
	case lang.TokenTypeKeywordVal, lang.TokenTypeKeywordVar:
		return p.parseValDef(mods, annotations)
	case lang.TokenTypeKeywordDef:
		return p.parseDefDef(mods, annotations)
	case lang.TokenTypeKeywordType:
		return p.parseTypeAlias(mods)
	case lang.TokenTypeKeywordCase:
		p.todo("CaseDefinition")
		return nil
	default:
		p.report(exc.CodeUnexpectedToken, fmt.Sprintf("unexpected %s (expecting a definition)", t.Value))
		return nil
	}
}

var scalaModifiers = map[lang.TokenType]bool{
	lang.TokenTypeKeywordPrivate:   true,
	lang.TokenTypeKeywordProtected: true,
	lang.TokenTypeKeywordFinal:     true,
	lang.TokenTypeKeywordSealed:    true,
	lang.TokenTypeKeywordAbstract:  true,
	lang.TokenTypeKeywordImplicit:  true,
	lang.TokenTypeKeywordLazy:      true,
	lang.TokenTypeKeywordOverride:  true,
}

// parseModifiers accumulates the annotation and modifier prefix of a
// definition, in source order, until a non-prefix token appears.
func (p *parserScalaTokens) parseModifiers() ([]cstModifier, []cstAnnotation, bool) {
	mods := []cstModifier{}
	annotations := []cstAnnotation{}
	for {
		t := p.peek()
		if t == nil {
			return mods, annotations, true
		}
		switch {
		case t.Type == lang.TokenTypeAt:
			a := p.parseAnnotation()
			if a == nil {
				return nil, nil, false
			}
			annotations = append(annotations, *a)
			p.skipNewlines()
		case scalaModifiers[t.Type]:
			p.advance()
			mod := cstModifier{kind: t.Type}
			if t.Type == lang.TokenTypeKeywordPrivate || t.Type == lang.TokenTypeKeywordProtected {
				if p.maybeOne(lang.TokenTypeSquareOpen) != nil {
					qualifier := p.expectIdent()
					if qualifier == nil {
						return nil, nil, false
					}
					if p.expectOne(lang.TokenTypeSquareClose) == nil {
						return nil, nil, false
					}
					mod.qualifier = qualifier
				}
			}
			mods = append(mods, mod)
		default:
			return mods, annotations, true
		}
	}
}

// Annotation = "@" identifier ["(" [Expr {"," Expr}] ")"]
func (p *parserScalaTokens) parseAnnotation() *cstAnnotation {
	at := p.expectOne(lang.TokenTypeAt)
	if at == nil {
		return nil
	}
	name := p.expectIdent()
	if name == nil {
		return nil
	}
	out := cstAnnotation{cstNode: p.info(at), name: *name}
	if p.peek() != nil && p.peek().Type == lang.TokenTypeParenOpen {
		args := p.parseArgs()
		if args == nil {
			return nil
		}
		out.args = args
	}
	return &out
}

// Import = "import" Path ["." ("_" | ImportSelectors)]
func (p *parserScalaTokens) parseImport() stmt {
	kw := p.expectOne(lang.TokenTypeKeywordImport)
	if kw == nil {
		return nil
	}
	out := cstImport{cstNode: p.info(kw)}
	first := p.expectIdent()
	if first == nil {
		return nil
	}
	out.path = []lang.Token{*first}
	for {
		if p.maybeOne(lang.TokenTypeDot) == nil {
			return &out
		}
		t := p.peek()
		if t == nil {
			p.report(exc.CodeUnexpectedEOF, "unexpected EOF (expecting an import selector)")
			return nil
		}
		switch t.Type {
		case lang.TokenTypeUnderscore:
			p.advance()
			out.wildcard = true
			return &out
		case lang.TokenTypeCurlyOpen:
			selectors := p.parseImportSelectors(&out)
			if selectors == nil {
				return nil
			}
			out.selectors = selectors
			return &out
		case lang.TokenTypeIdentifier:
			p.advance()
			out.path = append(out.path, *t)
		default:
			p.report(exc.CodeUnexpectedToken, fmt.Sprintf("unexpected %s (expecting an import selector)", t.Value))
			return nil
		}
	}
}

// ImportSelectors = "{" ImportSelector {"," ImportSelector} "}"
// ImportSelector = identifier ["=>" identifier] | "_"
func (p *parserScalaTokens) parseImportSelectors(out *cstImport) []importSelector {
	if p.expectOne(lang.TokenTypeCurlyOpen) == nil {
		return nil
	}
	selectors := []importSelector{}
	for {
		t := p.peek()
		if t == nil {
			p.report(exc.CodeUnexpectedEOF, "unexpected EOF (expecting } to close an import selector list)")
			return nil
		}
		if t.Type == lang.TokenTypeUnderscore {
			p.advance()
			out.wildcard = true
		} else {
			name := p.expectIdent()
			if name == nil {
				return nil
			}
			sel := importSelector{name: *name}
			if p.maybeOne(lang.TokenTypeArrow) != nil {
				rename := p.expectIdent()
				if rename == nil {
					return nil
				}
				sel.rename = rename
			}
			selectors = append(selectors, sel)
		}
		if p.maybeOne(lang.TokenTypeComma) == nil {
			if p.expectOne(lang.TokenTypeCurlyClose) == nil {
				return nil
			}
			return selectors
		}
	}
}

// TmplDef = ("class" | "object" | "trait") identifier [ClassParams]
//
//	["extends" TypeRef {"with" TypeRef}] [TemplateBody]
func (p *parserScalaTokens) parseTemplate(kind templateKind, mods []cstModifier, annotations []cstAnnotation) stmt {
	kw := p.peek()
	p.advance()
	name := p.expectIdent()
	if name == nil {
		return nil
	}
	out := cstTemplate{cstNode: p.info(kw), kind: kind, mods: mods, annotations: annotations, name: *name}

	if t := p.peek(); t != nil && t.Type == lang.TokenTypeSquareOpen {
		p.todo("TypeParameters")
		return nil
	}
	if t := p.peek(); t != nil && t.Type == lang.TokenTypeParenOpen {
		if kind != templateClass {
			p.report(exc.CodeUnexpectedToken, "only classes take constructor parameters")
			return nil
		}
		params := p.parseParamList()
		if params == nil {
			return nil
		}
		out.params = params
	}
	if p.maybeOne(lang.TokenTypeKeywordExtends) != nil {
		for {
			parent := p.parseTypeRef()
			if parent == nil {
				return nil
			}
			out.parents = append(out.parents, *parent)
			if p.maybeOne(lang.TokenTypeKeywordWith) == nil {
				break
			}
		}
	}
	if t := p.peek(); t != nil && t.Type == lang.TokenTypeCurlyOpen {
		body := p.parseTemplateBody()
		if body == nil {
			return nil
		}
		out.body = body
		out.hasBody = true
	}
	return &out
}

// TemplateBody = "{" {TemplateStat StatSep} "}"
func (p *parserScalaTokens) parseTemplateBody() []stmt {
	if p.expectOne(lang.TokenTypeCurlyOpen) == nil {
		return nil
	}
	body := []stmt{}
	for {
		p.skipNewlines()
		for p.maybeOne(lang.TokenTypeSemicolon) != nil {
			p.skipNewlines()
		}
		t := p.peek()
		if t == nil {
			p.report(exc.CodeUnexpectedEOF, "unexpected EOF (expecting } to close a template body)")
			return nil
		}
		if t.Type == lang.TokenTypeCurlyClose {
			p.advance()
			return body
		}
		s := p.parseTemplateStat()
		if s == nil {
			return nil
		}
		body = append(body, s)
		if !p.acceptStatSep() {
			return nil
		}
	}
}

// TemplateStat = Import | {Annotation} {Modifier} (TmplDef | Def) | Expr
func (p *parserScalaTokens) parseTemplateStat() stmt {
	t := p.peek()
	if t != nil && t.Type == lang.TokenTypeKeywordImport {
		return p.parseImport()
	}
	mods, annotations, ok := p.parseModifiers()
	if !ok {
		return nil
	}
	t = p.peek()
	if t == nil {
		p.report(exc.CodeUnexpectedEOF, "unexpected EOF (expecting a template statement)")
		return nil
	}
	switch t.Type {
	case lang.TokenTypeKeywordClass:
		return p.parseTemplate(templateClass, mods, annotations)
	case lang.TokenTypeKeywordObject:
		return p.parseTemplate(templateObject, mods, annotations)
	case lang.TokenTypeKeywordTrait:
		return p.parseTemplate(templateTrait, mods, annotations)
	case lang.TokenTypeKeywordVal, lang.TokenTypeKeywordVar:
		return p.parseValDef(mods, annotations)
	case lang.TokenTypeKeywordDef:
		return p.parseDefDef(mods, annotations)
	case lang.TokenTypeKeywordType:
		return p.parseTypeAlias(mods)
	case lang.TokenTypeKeywordCase:
		p.todo("CaseDefinition")
		return nil
	}
	if len(mods) > 0 || len(annotations) > 0 {
		p.report(exc.CodeUnexpectedToken, fmt.Sprintf("unexpected %s (modifiers require a definition)", t.Value))
		return nil
	}
	e := p.parseExpr()
	if e == nil {
		return nil
	}
	return &cstExprStmt{cstNode: p.info(t), e: e}
}

// ValDef = ("val" | "var") identifier [":" TypeRef] ["=" Expr]
func (p *parserScalaTokens) parseValDef(mods []cstModifier, annotations []cstAnnotation) stmt {
	kw := p.peek()
	p.advance()
	kind := valImmutable
	if kw.Type == lang.TokenTypeKeywordVar {
		kind = valMutable
	}
	if t := p.peek(); t != nil && t.Type == lang.TokenTypeParenOpen {
		p.todo("PatternDefinition")
		return nil
	}
	name := p.expectIdent()
	if name == nil {
		return nil
	}
	out := cstValDef{cstNode: p.info(kw), mods: mods, annotations: annotations, kind: kind, name: *name}
	if p.maybeOne(lang.TokenTypeColon) != nil {
		out.typ = p.parseTypeRef()
		if out.typ == nil {
			return nil
		}
	}
	if p.maybeOne(lang.TokenTypeEqual) != nil {
		p.skipNewlines()
		out.init = p.parseExpr()
		if out.init == nil {
			return nil
		}
	}
	return &out
}

// DefDef = "def" identifier {ParamList} [":" TypeRef] ["=" Expr | Block]
func (p *parserScalaTokens) parseDefDef(mods []cstModifier, annotations []cstAnnotation) stmt {
	kw := p.expectOne(lang.TokenTypeKeywordDef)
	if kw == nil {
		return nil
	}
	t := p.peek()
	if t == nil {
		p.report(exc.CodeUnexpectedEOF, "unexpected EOF (expecting a method name)")
		return nil
	}
	if t.Type != lang.TokenTypeIdentifier {
		p.todo("SymbolicMethodName")
		return nil
	}
	p.advance()
	out := cstDefDef{cstNode: p.info(kw), mods: mods, annotations: annotations, name: *t}

	if next := p.peek(); next != nil && next.Type == lang.TokenTypeSquareOpen {
		p.todo("TypeParameters")
		return nil
	}
	for {
		next := p.peek()
		if next == nil || next.Type != lang.TokenTypeParenOpen {
			break
		}
		params := p.parseParamList()
		if params == nil {
			return nil
		}
		out.paramLists = append(out.paramLists, params)
	}
	if p.maybeOne(lang.TokenTypeColon) != nil {
		out.ret = p.parseTypeRef()
		if out.ret == nil {
			return nil
		}
	}
	switch next := p.peek(); {
	case next != nil && next.Type == lang.TokenTypeEqual:
		p.advance()
		p.skipNewlines()
		out.body = p.parseExpr()
		if out.body == nil {
			return nil
		}
	case next != nil && next.Type == lang.TokenTypeCurlyOpen:
		// procedure syntax
		out.body = p.parseBlockExpr()
		if out.body == nil {
			return nil
		}
	}
	return &out
}

// ParamList = "(" ["implicit"] [Param {"," Param}] ")"
// Param = identifier ":" TypeRef ["=" Expr]
func (p *parserScalaTokens) parseParamList() []cstParam {
	if p.expectOne(lang.TokenTypeParenOpen) == nil {
		return nil
	}
	p.maybeOne(lang.TokenTypeKeywordImplicit)
	params := []cstParam{}
	for {
		t := p.peek()
		if t == nil {
			p.report(exc.CodeUnexpectedEOF, "unexpected EOF (expecting ) to close a parameter list)")
			return nil
		}
		if t.Type == lang.TokenTypeParenClose {
			p.advance()
			return params
		}
		name := p.expectIdent()
		if name == nil {
			return nil
		}
		param := cstParam{cstNode: p.info(name), name: *name}
		if p.expectOne(lang.TokenTypeColon) == nil {
			return nil
		}
		param.typ = p.parseTypeRef()
		if param.typ == nil {
			return nil
		}
		if p.maybeOne(lang.TokenTypeEqual) != nil {
			param.def = p.parseExpr()
			if param.def == nil {
				return nil
			}
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

// TypeAlias = "type" identifier "=" TypeRef
func (p *parserScalaTokens) parseTypeAlias(mods []cstModifier) stmt {
	kw := p.expectOne(lang.TokenTypeKeywordType)
	if kw == nil {
		return nil
	}
	name := p.expectIdent()
	if name == nil {
		return nil
	}
	if p.expectOne(lang.TokenTypeEqual) == nil {
		return nil
	}
	typ := p.parseTypeRef()
	if typ == nil {
		return nil
	}
	return &cstTypeAlias{cstNode: p.info(kw), mods: mods, name: *name, typ: *typ}
}

// TypeRef = Path ["[" TypeRef {"," TypeRef} "]"]
func (p *parserScalaTokens) parseTypeRef() *cstTypeRef {
	t := p.peek()
	if t == nil {
		p.report(exc.CodeUnexpectedEOF, "unexpected EOF (expecting a type)")
		return nil
	}
	if t.Type == lang.TokenTypeParenOpen {
		p.todo("FunctionOrTupleType")
		return nil
	}
	path := p.parseDottedPath()
	if path == nil {
		return nil
	}
	out := cstTypeRef{cstNode: cstNode{info: lang.InfoOf(path[0])}, path: path}
	if next := p.peek(); next != nil && next.Type == lang.TokenTypeSquareOpen {
		p.advance()
		for {
			arg := p.parseTypeRef()
			if arg == nil {
				return nil
			}
			out.args = append(out.args, *arg)
			if p.maybeOne(lang.TokenTypeComma) == nil {
				if p.expectOne(lang.TokenTypeSquareClose) == nil {
					return nil
				}
				break
			}
		}
	}
	return &out
}

var scalaLiterals = map[lang.TokenType]bool{
	lang.TokenTypeIntegerLit:   true,
	lang.TokenTypeFloatLit:     true,
	lang.TokenTypeStringLit:    true,
	lang.TokenTypeCharLit:      true,
	lang.TokenTypeKeywordTrue:  true,
	lang.TokenTypeKeywordFalse: true,
	lang.TokenTypeKeywordNull:  true,
}

var scalaInfixPrecedence = map[lang.TokenType]int{
	lang.TokenTypePipePipe:     1,
	lang.TokenTypeAmpAmp:       2,
	lang.TokenTypePipe:         3,
	lang.TokenTypeCaret:        4,
	lang.TokenTypeAmpersand:    5,
	lang.TokenTypeEqEq:         6,
	lang.TokenTypeNotEq:        6,
	lang.TokenTypeAngleOpen:    7,
	lang.TokenTypeAngleClose:   7,
	lang.TokenTypeLesserEqual:  7,
	lang.TokenTypeGreaterEqual: 7,
	lang.TokenTypeShiftLeft:    8,
	lang.TokenTypeShiftRight:   8,
	lang.TokenTypePlus:         9,
	lang.TokenTypeMinus:        9,
	lang.TokenTypeStar:         10,
	lang.TokenTypeSlash:        10,
	lang.TokenTypePercent:      10,
}

// Expr = If | While | Assign | InfixExpr
func (p *parserScalaTokens) parseExpr() expr {
	t := p.peek()
	if t == nil {
		p.report(exc.CodeUnexpectedEOF, "unexpected EOF (expecting an expression)")
		return nil
	}
	switch t.Type {
	case lang.TokenTypeKeywordIf:
		return p.parseIf()
	case lang.TokenTypeKeywordWhile:
		return p.parseWhile()
	case lang.TokenTypeKeywordFor, lang.TokenTypeKeywordMatch, lang.TokenTypeKeywordThrow, lang.TokenTypeKeywordTry:
		p.todo(fmt.Sprintf("Expression(%s)", t.Value))
		return nil
	}
	left := p.parseInfix(1)
	if left == nil {
		return nil
	}
	if eq := p.peek(); eq != nil && eq.Type == lang.TokenTypeEqual {
		p.advance()
		p.skipNewlines()
		value := p.parseExpr()
		if value == nil {
			return nil
		}
		return &cstInfix{cstNode: p.info(eq), left: left, op: *eq, right: value}
	}
	return left
}

// If = "if" "(" Expr ")" Expr ["else" Expr]
//
// An else on the next line belongs to this if: a newline run directly
// followed by the else keyword is not a statement separator.
func (p *parserScalaTokens) parseIf() expr {
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
	p.skipNewlines()
	then := p.parseExpr()
	if then == nil {
		return nil
	}
	out := cstIf{cstNode: p.info(kw), test: test, then: then}
	if t := p.peek(); t != nil && t.Type == lang.TokenTypeNewlines {
		if next := p.peekN(1); next != nil && next.Type == lang.TokenTypeKeywordElse {
			p.advance()
		}
	}
	if p.maybeOne(lang.TokenTypeKeywordElse) != nil {
		p.skipNewlines()
		out.els = p.parseExpr()
		if out.els == nil {
			return nil
		}
	}
	return &out
}

// While = "while" "(" Expr ")" Expr
func (p *parserScalaTokens) parseWhile() expr {
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
	p.skipNewlines()
	body := p.parseExpr()
	if body == nil {
		return nil
	}
	return &cstWhile{cstNode: p.info(kw), test: test, body: body}
}

// InfixExpr climbs the fixed operator-precedence table. An operator at the
// end of a line continues the expression onto the next line.
func (p *parserScalaTokens) parseInfix(minPrecedence int) expr {
	left := p.parsePrefix()
	if left == nil {
		return nil
	}
	for {
		t := p.peek()
		if t == nil {
			return left
		}
		precedence, ok := scalaInfixPrecedence[t.Type]
		if !ok || precedence < minPrecedence {
			return left
		}
		p.advance()
		p.skipNewlines()
		right := p.parseInfix(precedence + 1)
		if right == nil {
			return nil
		}
		left = &cstInfix{cstNode: p.info(t), left: left, op: *t, right: right}
	}
}

var scalaPrefixOps = map[lang.TokenType]bool{
	lang.TokenTypeBang:  true,
	lang.TokenTypeMinus: true,
	lang.TokenTypePlus:  true,
	lang.TokenTypeTilde: true,
}

func (p *parserScalaTokens) parsePrefix() expr {
	t := p.peek()
	if t != nil && scalaPrefixOps[t.Type] {
		p.advance()
		operand := p.parsePrefix()
		if operand == nil {
			return nil
		}
		return &cstPrefix{cstNode: p.info(t), op: *t, operand: operand}
	}
	return p.parsePostfix()
}

// PostfixExpr = Primary {"." identifier | Args}
//
// A newline run followed by a dot continues the member chain.
func (p *parserScalaTokens) parsePostfix() expr {
	base := p.parsePrimary()
	if base == nil {
		return nil
	}
	for {
		t := p.peek()
		if t == nil {
			return base
		}
		switch t.Type {
		case lang.TokenTypeNewlines:
			if next := p.peekN(1); next != nil && next.Type == lang.TokenTypeDot {
				p.advance()
				continue
			}
			return base
		case lang.TokenTypeDot:
			p.advance()
			name := p.expectIdent()
			if name == nil {
				return nil
			}
			base = &cstSelect{cstNode: p.info(t), obj: base, name: *name}
		case lang.TokenTypeParenOpen:
			args := p.parseArgs()
			if args == nil {
				return nil
			}
			base = &cstApply{cstNode: p.info(t), fn: base, args: args}
		case lang.TokenTypeKeywordMatch:
			p.todo("MatchExpression")
			return nil
		default:
			return base
		}
	}
}

// Args = "(" [Expr {"," Expr}] ")"
func (p *parserScalaTokens) parseArgs() []expr {
	if p.expectOne(lang.TokenTypeParenOpen) == nil {
		return nil
	}
	p.skipNewlines()
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
		arg := p.parseExpr()
		if arg == nil {
			return nil
		}
		args = append(args, arg)
		if p.maybeOne(lang.TokenTypeComma) == nil {
			p.skipNewlines()
			if p.expectOne(lang.TokenTypeParenClose) == nil {
				return nil
			}
			return args
		}
		p.skipNewlines()
	}
}

func (p *parserScalaTokens) parsePrimary() expr {
	t := p.peek()
	if t == nil {
		p.report(exc.CodeUnexpectedEOF, "unexpected EOF (expecting an expression)")
		return nil
	}
	switch {
	case scalaLiterals[t.Type]:
		p.advance()
		return &cstLit{cstNode: p.info(t), typ: t.Type, value: t.Value}
	case t.Type == lang.TokenTypeXMLLit:
		p.advance()
		return &cstXML{cstNode: p.info(t), raw: *t}
	case t.Type == lang.TokenTypeKeywordThis:
		p.advance()
		return &cstThis{cstNode: p.info(t)}
	case t.Type == lang.TokenTypeIdentifier:
		if next := p.peekN(1); next != nil && next.Type == lang.TokenTypeArrow {
			p.advance()
			p.advance()
			p.skipNewlines()
			body := p.parseExpr()
			if body == nil {
				return nil
			}
			return &cstLambda{
				cstNode: p.info(t),
				params:  []cstParam{{cstNode: p.info(t), name: *t}},
				body:    body,
			}
		}
		p.advance()
		return &cstIdent{cstNode: p.info(t), name: t.Value}
	case t.Type == lang.TokenTypeKeywordNew:
		p.advance()
		typ := p.parseTypeRef()
		if typ == nil {
			return nil
		}
		out := cstNew{cstNode: p.info(t), typ: *typ}
		if next := p.peek(); next != nil && next.Type == lang.TokenTypeParenOpen {
			out.args = p.parseArgs()
			if out.args == nil {
				return nil
			}
		}
		return &out
	case t.Type == lang.TokenTypeCurlyOpen:
		return p.parseBlockExpr()
	case t.Type == lang.TokenTypeParenOpen:
		return p.parseParenExpr()
	case t.Type == lang.TokenTypeUnderscore:
		p.todo("PlaceholderExpression")
		return nil
	default:
		p.report(exc.CodeUnexpectedToken, fmt.Sprintf("unexpected %s (expecting an expression)", t.Value))
		return nil
	}
}

// ParenExpr = "(" Expr {"," Expr} ")" ["=>" Expr]
//           | "(" Param {"," Param} ")" "=>" Expr
//
// A typed first element (identifier followed by a colon) commits to a
// lambda parameter list; otherwise the contents parse as expressions and a
// trailing arrow reinterprets identifiers as parameters.
func (p *parserScalaTokens) parseParenExpr() expr {
	open := p.expectOne(lang.TokenTypeParenOpen)
	if open == nil {
		return nil
	}

	if t := p.peek(); t != nil && t.Type == lang.TokenTypeIdentifier {
		if next := p.peekN(1); next != nil && next.Type == lang.TokenTypeColon {
			params := []cstParam{}
			for {
				name := p.expectIdent()
				if name == nil {
					return nil
				}
				if p.expectOne(lang.TokenTypeColon) == nil {
					return nil
				}
				typ := p.parseTypeRef()
				if typ == nil {
					return nil
				}
				params = append(params, cstParam{cstNode: p.info(name), name: *name, typ: typ})
				if p.maybeOne(lang.TokenTypeComma) == nil {
					break
				}
			}
			if p.expectOne(lang.TokenTypeParenClose) == nil {
				return nil
			}
			if p.expectOne(lang.TokenTypeArrow) == nil {
				return nil
			}
			p.skipNewlines()
			body := p.parseExpr()
			if body == nil {
				return nil
			}
			return &cstLambda{cstNode: p.info(open), params: params, body: body}
		}
	}

	items := []expr{}
	for {
		item := p.parseExpr()
		if item == nil {
			return nil
		}
		items = append(items, item)
		if p.maybeOne(lang.TokenTypeComma) == nil {
			break
		}
	}
	if p.expectOne(lang.TokenTypeParenClose) == nil {
		return nil
	}

	if t := p.peek(); t != nil && t.Type == lang.TokenTypeArrow {
		p.advance()
		params := make([]cstParam, 0, len(items))
		for _, item := range items {
			ident, ok := item.(*cstIdent)
			if !ok {
				p.report(exc.CodeUnexpectedToken, "lambda parameter is not an identifier")
				return nil
			}
			params = append(params, cstParam{
				cstNode: ident.cstNode,
				name:    lang.Token{Span: ident.info.Span, Type: lang.TokenTypeIdentifier, Value: ident.name},
			})
		}
		p.skipNewlines()
		body := p.parseExpr()
		if body == nil {
			return nil
		}
		return &cstLambda{cstNode: p.info(open), params: params, body: body}
	}

	if len(items) == 1 {
		return items[0]
	}
	return &cstTuple{cstNode: p.info(open), elems: items}
}

// BlockExpr = "{" {BlockStat StatSep} "}"
func (p *parserScalaTokens) parseBlockExpr() expr {
	open := p.expectOne(lang.TokenTypeCurlyOpen)
	if open == nil {
		return nil
	}
	out := cstBlock{cstNode: p.info(open)}
	for {
		p.skipNewlines()
		for p.maybeOne(lang.TokenTypeSemicolon) != nil {
			p.skipNewlines()
		}
		t := p.peek()
		if t == nil {
			p.report(exc.CodeUnexpectedEOF, "unexpected EOF (expecting } to close a block)")
			return nil
		}
		if t.Type == lang.TokenTypeCurlyClose {
			p.advance()
			return &out
		}
		s := p.parseBlockStat()
		if s == nil {
			return nil
		}
		out.stmts = append(out.stmts, s)
		if !p.acceptStatSep() {
			return nil
		}
	}
}

// BlockStat = Import | Def | Expr
func (p *parserScalaTokens) parseBlockStat() stmt {
	t := p.peek()
	if t == nil {
		p.report(exc.CodeUnexpectedEOF, "unexpected EOF (expecting a statement)")
		return nil
	}
	switch t.Type {
	case lang.TokenTypeKeywordImport:
		return p.parseImport()
	case lang.TokenTypeKeywordVal, lang.TokenTypeKeywordVar:
		return p.parseValDef(nil, nil)
	case lang.TokenTypeKeywordDef:
		return p.parseDefDef(nil, nil)
	case lang.TokenTypeKeywordType:
		return p.parseTypeAlias(nil)
	}
	e := p.parseExpr()
	if e == nil {
		return nil
	}
	return &cstExprStmt{cstNode: p.info(t), e: e}
}
