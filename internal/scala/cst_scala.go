// © 2026 Polyfront Authors
//
// SPDX-License-Identifier: Apache-2.0

package scala

import (
	"gopkg.polyfront.org/frontend.go/internal/lang"
)

// The Scala-family CST. Like the other per-language trees it is private to
// its package: only the lowered Generic AST crosses package boundaries.

type node interface {
	node()
}

type expr interface {
	node
	expr()
}

type stmt interface {
	node
	stmt()
}

type cstNode struct {
	info lang.Info
}

func (n cstNode) position() lang.Info {
	return n.info
}

type cstProgram struct {
	URI string
	// pkg is the accumulated package path, one token per segment; empty for
	// the default package.
	pkg   []lang.Token
	stmts []stmt
}

// importSelector is one name brought in by an import clause, optionally
// renamed: {c, d => e}.
type importSelector struct {
	name   lang.Token
	rename *lang.Token
}

type cstImport struct {
	cstNode
	// path is the dotted prefix, excluding the selector part.
	path []lang.Token
	// selectors is empty for a single-name import, where the final path
	// segment is the imported name.
	selectors []importSelector
	wildcard  bool
}

// cstModifier is one definition modifier, in source order. The optional
// qualifier is the bracketed scope of access modifiers: private[core].
type cstModifier struct {
	kind      lang.TokenType
	qualifier *lang.Token
}

type cstAnnotation struct {
	cstNode
	name lang.Token
	args []expr
}

type templateKind uint8

const (
	templateClass templateKind = iota
	templateObject
	templateTrait
)

// cstTemplate is a class, object, or trait definition together with its
// optional constructor parameters, parents, and body statements.
type cstTemplate struct {
	cstNode
	kind        templateKind
	mods        []cstModifier
	annotations []cstAnnotation
	name        lang.Token
	params      []cstParam
	parents     []cstTypeRef
	// body is nil when the definition has no braces at all; an empty
	// non-nil slice is an empty body.
	body    []stmt
	hasBody bool
}

type valKind uint8

const (
	valImmutable valKind = iota
	valMutable
)

type cstValDef struct {
	cstNode
	mods        []cstModifier
	annotations []cstAnnotation
	kind        valKind
	name        lang.Token
	typ         *cstTypeRef
	// init is nil for an abstract val
	init expr
}

type cstDefDef struct {
	cstNode
	mods        []cstModifier
	annotations []cstAnnotation
	name        lang.Token
	// paramLists holds each parenthesized parameter group in order.
	paramLists [][]cstParam
	ret        *cstTypeRef
	// body is nil for an abstract def
	body expr
}

type cstTypeAlias struct {
	cstNode
	mods []cstModifier
	name lang.Token
	typ  cstTypeRef
}

type cstParam struct {
	cstNode
	name lang.Token
	typ  *cstTypeRef
	def  expr
}

// cstTypeRef is a dotted type reference with optional type arguments.
type cstTypeRef struct {
	cstNode
	path []lang.Token
	args []cstTypeRef
}

type cstExprStmt struct {
	cstNode
	e expr
}

type cstIdent struct {
	cstNode
	name string
}

type cstLit struct {
	cstNode
	typ   lang.TokenType
	value string
}

type cstThis struct {
	cstNode
}

type cstSelect struct {
	cstNode
	obj  expr
	name lang.Token
}

type cstApply struct {
	cstNode
	fn   expr
	args []expr
}

// cstInfix is a binary application. Operator tokens map onto the shared
// operator enum during lowering; identifier operators become method calls.
type cstInfix struct {
	cstNode
	left  expr
	op    lang.Token
	right expr
}

type cstPrefix struct {
	cstNode
	op      lang.Token
	operand expr
}

type cstIf struct {
	cstNode
	test expr
	then expr
	// els is nil when the else branch is absent
	els expr
}

type cstWhile struct {
	cstNode
	test expr
	body expr
}

type cstBlock struct {
	cstNode
	stmts []stmt
}

type cstNew struct {
	cstNode
	typ  cstTypeRef
	args []expr
}

type cstLambda struct {
	cstNode
	params []cstParam
	body   expr
}

type cstTuple struct {
	cstNode
	elems []expr
}

// cstXML is an XML literal carried as an opaque leaf; lowering decides
// whether the raw text survives.
type cstXML struct {
	cstNode
	raw lang.Token
}

func (cstProgram) node()   {}
func (cstImport) node()    {}
func (cstTemplate) node()  {}
func (cstValDef) node()    {}
func (cstDefDef) node()    {}
func (cstTypeAlias) node() {}
func (cstParam) node()     {}
func (cstTypeRef) node()   {}
func (cstExprStmt) node()  {}
func (cstIdent) node()     {}
func (cstLit) node()       {}
func (cstThis) node()      {}
func (cstSelect) node()    {}
func (cstApply) node()     {}
func (cstInfix) node()     {}
func (cstPrefix) node()    {}
func (cstIf) node()        {}
func (cstWhile) node()     {}
func (cstBlock) node()     {}
func (cstNew) node()       {}
func (cstLambda) node()    {}
func (cstTuple) node()     {}
func (cstXML) node()       {}

func (*cstIdent) expr()  {}
func (*cstLit) expr()    {}
func (*cstThis) expr()   {}
func (*cstSelect) expr() {}
func (*cstApply) expr()  {}
func (*cstInfix) expr()  {}
func (*cstPrefix) expr() {}
func (*cstIf) expr()     {}
func (*cstWhile) expr()  {}
func (*cstBlock) expr()  {}
func (*cstNew) expr()    {}
func (*cstLambda) expr() {}
func (*cstTuple) expr()  {}
func (*cstXML) expr()    {}

func (*cstImport) stmt()    {}
func (*cstTemplate) stmt()  {}
func (*cstValDef) stmt()    {}
func (*cstDefDef) stmt()    {}
func (*cstTypeAlias) stmt() {}
func (*cstExprStmt) stmt()  {}
