// © 2026 Polyfront Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package js implements the JavaScript/TypeScript-family front end: a
// concrete syntax tree for the source grammar, a recursive-descent parser
// producing it from a pre-lexed token stream, and the scope-aware lowering
// from the CST to the Generic AST.
package js

import (
	"gopkg.polyfront.org/frontend.go/internal/lang"
)

// interface for all CST nodes
type node interface {
	node()
}

// interface for all expression nodes
type expr interface {
	node
	expr()
}

// interface for all statement nodes
type stmt interface {
	node
	stmt()
}

// interface for all binding-pattern nodes
type pattern interface {
	node
	pattern()
}

type cstNode struct {
	info lang.Info
}

func (n cstNode) position() lang.Info {
	return n.info
}

type cstProgram struct {
	URI   string
	stmts []stmt
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

type cstSuper struct {
	cstNode
}

type cstCall struct {
	cstNode
	callee expr
	args   []expr
}

type cstNew struct {
	cstNode
	callee expr
	args   []expr
}

type cstDot struct {
	cstNode
	obj  expr
	name lang.Token
}

type cstIndex struct {
	cstNode
	obj   expr
	index expr
}

type cstAssign struct {
	cstNode
	target expr
	op     lang.TokenType
	value  expr
}

type cstBinary struct {
	cstNode
	left  expr
	op    lang.Token
	right expr
}

type cstUnary struct {
	cstNode
	op      lang.Token
	operand expr
	prefix  bool
}

type cstCondExpr struct {
	cstNode
	test expr
	then expr
	els  expr
}

type cstSeq struct {
	cstNode
	exprs []expr
}

type cstSpread struct {
	cstNode
	arg expr
}

type cstArrayLit struct {
	cstNode
	elems []expr
}

type cstObjectProp struct {
	cstNode
	key       lang.Token
	value     expr
	shorthand bool
}

type cstObjectLit struct {
	cstNode
	props []cstObjectProp
}

type cstFunc struct {
	cstNode
	// name is nil for anonymous function expressions.
	name        *lang.Token
	params      []pattern
	body        *cstBlock
	isAsync     bool
	isGenerator bool
}

type cstArrowFn struct {
	cstNode
	params []pattern
	// exactly one of bodyExpr (implicit return) and bodyBlock is set
	bodyExpr  expr
	bodyBlock *cstBlock
	isAsync   bool
}

type classMemberKind uint8

const (
	classMemberMethod classMemberKind = iota
	classMemberGetter
	classMemberSetter
	classMemberField
)

type cstClassMember struct {
	cstNode
	kind     classMemberKind
	name     lang.Token
	isStatic bool
	// fn is set for methods and accessors
	fn *cstFunc
	// init is set for fields
	init expr
}

type cstClass struct {
	cstNode
	name       *lang.Token
	superClass expr
	members    []cstClassMember
}

type cstClassExpr struct {
	cstNode
	class cstClass
}

type cstOtherExpr struct {
	cstNode
	category string
}

type cstIdentPat struct {
	cstNode
	name lang.Token
}

type cstArrayPat struct {
	cstNode
	elems []pattern
}

type cstObjectPatProp struct {
	cstNode
	key lang.Token
	// value is nil for shorthand properties ({a} binds a to field a)
	value pattern
}

type cstObjectPat struct {
	cstNode
	props []cstObjectPatProp
}

// cstAssignPat is a pattern with a default value.
type cstAssignPat struct {
	cstNode
	pat pattern
	def expr
}

type cstRestPat struct {
	cstNode
	pat pattern
}

type cstOtherPat struct {
	cstNode
	category string
}

type cstDeclarator struct {
	cstNode
	pat  pattern
	init expr
}

type cstVarDecl struct {
	cstNode
	// kind is the declaring keyword token type: var, let, or const.
	kind  lang.TokenType
	decls []cstDeclarator
}

type cstFuncDecl struct {
	cstNode
	fn cstFunc
}

type cstClassDecl struct {
	cstNode
	class cstClass
}

type cstExprStmt struct {
	cstNode
	e expr
}

type cstBlock struct {
	cstNode
	stmts []stmt
}

type cstEmpty struct {
	cstNode
}

type cstIf struct {
	cstNode
	test expr
	then stmt
	els  stmt
}

type cstWhile struct {
	cstNode
	test expr
	body stmt
}

type cstDoWhile struct {
	cstNode
	body stmt
	test expr
}

type cstForClassic struct {
	cstNode
	// init is nil, a *cstVarDecl, or a *cstExprStmt
	init stmt
	test expr
	post expr
	body stmt
}

type cstForIn struct {
	cstNode
	// declKind is zero when left is a plain assignment target
	declKind lang.TokenType
	left     pattern
	obj      expr
	body     stmt
}

type cstForOf struct {
	cstNode
	declKind lang.TokenType
	left     pattern
	iterable expr
	body     stmt
}

type cstReturn struct {
	cstNode
	// value is nil for a bare return
	value expr
}

type cstBreak struct {
	cstNode
	label string
}

type cstContinue struct {
	cstNode
	label string
}

type cstLabeled struct {
	cstNode
	label string
	body  stmt
}

type cstThrow struct {
	cstNode
	value expr
}

type cstTry struct {
	cstNode
	block      *cstBlock
	catchParam pattern
	catch      *cstBlock
	finally    *cstBlock
}

type cstSwitchCase struct {
	cstNode
	// test is nil for the default case
	test expr
	body []stmt
}

type cstSwitch struct {
	cstNode
	subject expr
	cases   []cstSwitchCase
}

type importSpecKind uint8

const (
	importSpecDefault importSpecKind = iota
	importSpecNamed
	importSpecNamespace
)

type cstImportSpec struct {
	cstNode
	kind importSpecKind
	// imported is the exported name in the source module (named specs only)
	imported lang.Token
	local    lang.Token
}

type cstImport struct {
	cstNode
	// specs is empty for a side-effect-only import
	specs []cstImportSpec
	path  lang.Token
}

type cstExportSpec struct {
	cstNode
	local    lang.Token
	exported lang.Token
}

type cstExportNamed struct {
	cstNode
	specs []cstExportSpec
	// from is nil unless this is a re-export
	from *lang.Token
}

type cstExportAll struct {
	cstNode
	from lang.Token
}

type cstExportDecl struct {
	cstNode
	decl stmt
}

type cstExportDefault struct {
	cstNode
	// decl is set for `export default function/class`, value otherwise
	decl  stmt
	value expr
}

// cstOtherStmt carries recognized-but-unmapped statements, such as the
// type-only declarations of the TypeScript dialect.
type cstOtherStmt struct {
	cstNode
	category string
}

func (cstProgram) node()       {}
func (cstIdent) node()         {}
func (cstLit) node()           {}
func (cstThis) node()          {}
func (cstSuper) node()         {}
func (cstCall) node()          {}
func (cstNew) node()           {}
func (cstDot) node()           {}
func (cstIndex) node()         {}
func (cstAssign) node()        {}
func (cstBinary) node()        {}
func (cstUnary) node()         {}
func (cstCondExpr) node()      {}
func (cstSeq) node()           {}
func (cstSpread) node()        {}
func (cstArrayLit) node()      {}
func (cstObjectProp) node()    {}
func (cstObjectLit) node()     {}
func (cstFunc) node()          {}
func (cstArrowFn) node()       {}
func (cstClassMember) node()   {}
func (cstClass) node()         {}
func (cstClassExpr) node()     {}
func (cstOtherExpr) node()     {}
func (cstIdentPat) node()      {}
func (cstArrayPat) node()      {}
func (cstObjectPatProp) node() {}
func (cstObjectPat) node()     {}
func (cstAssignPat) node()     {}
func (cstRestPat) node()       {}
func (cstOtherPat) node()      {}
func (cstDeclarator) node()    {}
func (cstVarDecl) node()       {}
func (cstFuncDecl) node()      {}
func (cstClassDecl) node()     {}
func (cstExprStmt) node()      {}
func (cstBlock) node()         {}
func (cstEmpty) node()         {}
func (cstIf) node()            {}
func (cstWhile) node()         {}
func (cstDoWhile) node()       {}
func (cstForClassic) node()    {}
func (cstForIn) node()         {}
func (cstForOf) node()         {}
func (cstReturn) node()        {}
func (cstBreak) node()         {}
func (cstContinue) node()      {}
func (cstLabeled) node()       {}
func (cstThrow) node()         {}
func (cstTry) node()           {}
func (cstSwitchCase) node()    {}
func (cstSwitch) node()        {}
func (cstImportSpec) node()    {}
func (cstImport) node()        {}
func (cstExportSpec) node()    {}
func (cstExportNamed) node()   {}
func (cstExportAll) node()     {}
func (cstExportDecl) node()    {}
func (cstExportDefault) node() {}
func (cstOtherStmt) node()     {}

func (cstIdent) expr()     {}
func (cstLit) expr()       {}
func (cstThis) expr()      {}
func (cstSuper) expr()     {}
func (cstCall) expr()      {}
func (cstNew) expr()       {}
func (cstDot) expr()       {}
func (cstIndex) expr()     {}
func (cstAssign) expr()    {}
func (cstBinary) expr()    {}
func (cstUnary) expr()     {}
func (cstCondExpr) expr()  {}
func (cstSeq) expr()       {}
func (cstSpread) expr()    {}
func (cstArrayLit) expr()  {}
func (cstObjectLit) expr() {}
func (cstFunc) expr()      {}
func (cstArrowFn) expr()   {}
func (cstClassExpr) expr() {}
func (cstOtherExpr) expr() {}

func (cstIdentPat) pattern()  {}
func (cstArrayPat) pattern()  {}
func (cstObjectPat) pattern() {}
func (cstAssignPat) pattern() {}
func (cstRestPat) pattern()   {}
func (cstOtherPat) pattern()  {}

func (cstVarDecl) stmt()       {}
func (cstFuncDecl) stmt()      {}
func (cstClassDecl) stmt()     {}
func (cstExprStmt) stmt()      {}
func (cstBlock) stmt()         {}
func (cstEmpty) stmt()         {}
func (cstIf) stmt()            {}
func (cstWhile) stmt()         {}
func (cstDoWhile) stmt()       {}
func (cstForClassic) stmt()    {}
func (cstForIn) stmt()         {}
func (cstForOf) stmt()         {}
func (cstReturn) stmt()        {}
func (cstBreak) stmt()         {}
func (cstContinue) stmt()      {}
func (cstLabeled) stmt()       {}
func (cstThrow) stmt()         {}
func (cstTry) stmt()           {}
func (cstSwitch) stmt()        {}
func (cstImport) stmt()        {}
func (cstExportNamed) stmt()   {}
func (cstExportAll) stmt()     {}
func (cstExportDecl) stmt()    {}
func (cstExportDefault) stmt() {}
func (cstOtherStmt) stmt()     {}
