// © 2026 Polyfront Authors
//
// SPDX-License-Identifier: Apache-2.0

package c

import (
	"gopkg.polyfront.org/frontend.go/internal/lang"
)

// The C-family CST. Unlike the scala and js trees this one is an input
// contract: no parser lives here, so the constructors are exported for
// callers that receive C syntax from an external front-end.

type Node interface {
	node()
}

type Decl interface {
	Node
	decl()
}

type Stmt interface {
	Node
	stmt()
}

type Expr interface {
	Node
	expr()
}

type TypeExpr interface {
	Node
	typeExpr()
}

type Program struct {
	URI   string
	Decls []Decl
}

type RecordKind uint8

const (
	RecordStruct RecordKind = iota
	RecordUnion
)

// RecordDecl is a struct or union definition. Name is nil for an anonymous
// definition.
type RecordDecl struct {
	Info   lang.Info
	Kind   RecordKind
	Name   *lang.Token
	Fields []Field
}

type Field struct {
	Info lang.Info
	Name lang.Token
	Type TypeExpr
}

// EnumDecl is an enum definition. Enumerator values are optional.
type EnumDecl struct {
	Info        lang.Info
	Name        *lang.Token
	Enumerators []Enumerator
}

type Enumerator struct {
	Info  lang.Info
	Name  lang.Token
	Value Expr
}

type TypedefDecl struct {
	Info lang.Info
	Name lang.Token
	Type TypeExpr
}

// VarDecl covers file-scope and block-scope object declarations.
type VarDecl struct {
	Info lang.Info
	Name lang.Token
	Type TypeExpr
	Init Expr
}

// FuncDecl is a function definition, or a prototype when Body is nil.
type FuncDecl struct {
	Info   lang.Info
	Name   lang.Token
	Ret    TypeExpr
	Params []Param
	Body   []Stmt
}

type Param struct {
	Info lang.Info
	// Name is nil in prototypes that omit parameter names.
	Name *lang.Token
	Type TypeExpr
}

// NamedType is a (possibly multi-word) type name: "int", "unsigned long".
type NamedType struct {
	Info lang.Info
	Name string
}

type PointerType struct {
	Info lang.Info
	Elem TypeExpr
}

type ArrayType struct {
	Info lang.Info
	Elem TypeExpr
	// Size is nil for unsized arrays.
	Size Expr
}

// RecordRef is a reference to a tagged record type: "struct point".
type RecordRef struct {
	Info lang.Info
	Kind RecordKind
	Name lang.Token
}

type EnumRef struct {
	Info lang.Info
	Name lang.Token
}

type DeclStmt struct {
	Info lang.Info
	Decl Decl
}

type ExprStmt struct {
	Info lang.Info
	Expr Expr
}

type Block struct {
	Info  lang.Info
	Stmts []Stmt
}

type If struct {
	Info lang.Info
	Test Expr
	Then Stmt
	Else Stmt
}

type While struct {
	Info lang.Info
	Test Expr
	Body Stmt
}

type DoWhile struct {
	Info lang.Info
	Body Stmt
	Test Expr
}

type For struct {
	Info lang.Info
	Init Stmt
	Test Expr
	Post Expr
	Body Stmt
}

type Return struct {
	Info  lang.Info
	Value Expr
}

type Break struct {
	Info lang.Info
}

type Continue struct {
	Info lang.Info
}

type SwitchCase struct {
	Info lang.Info
	// Values is empty for the default label.
	Values []Expr
	Body   []Stmt
}

type Switch struct {
	Info    lang.Info
	Subject Expr
	Cases   []SwitchCase
}

// OtherStmt carries statements outside the supported subset (goto, inline
// assembly) without losing their position.
type OtherStmt struct {
	Info     lang.Info
	Category string
}

type Ident struct {
	Info lang.Info
	Name string
}

type Lit struct {
	Info  lang.Info
	Type  lang.TokenType
	Value string
}

type Unary struct {
	Info lang.Info
	Op   lang.TokenType
	// Postfix marks the suffix forms of ++ and --.
	Postfix bool
	Operand Expr
}

type Binary struct {
	Info  lang.Info
	Op    lang.TokenType
	Left  Expr
	Right Expr
}

// Assign covers plain and compound assignment; Op is TokenTypeEqual for the
// plain form.
type Assign struct {
	Info   lang.Info
	Op     lang.TokenType
	Target Expr
	Value  Expr
}

type Cond struct {
	Info lang.Info
	Test Expr
	Then Expr
	Else Expr
}

type Call struct {
	Info lang.Info
	Fn   Expr
	Args []Expr
}

type Index struct {
	Info lang.Info
	Obj  Expr
	Key  Expr
}

// Member is field selection; Arrow marks the pointer form a->b.
type Member struct {
	Info  lang.Info
	Obj   Expr
	Name  lang.Token
	Arrow bool
}

type Cast struct {
	Info    lang.Info
	Type    TypeExpr
	Operand Expr
}

// Sizeof takes either a type or an expression operand.
type Sizeof struct {
	Info    lang.Info
	Type    TypeExpr
	Operand Expr
}

type OtherExpr struct {
	Info     lang.Info
	Category string
}

func (*Program) node()     {}
func (*RecordDecl) node()  {}
func (*EnumDecl) node()    {}
func (*TypedefDecl) node() {}
func (*VarDecl) node()     {}
func (*FuncDecl) node()    {}
func (*NamedType) node()   {}
func (*PointerType) node() {}
func (*ArrayType) node()   {}
func (*RecordRef) node()   {}
func (*EnumRef) node()     {}
func (*DeclStmt) node()    {}
func (*ExprStmt) node()    {}
func (*Block) node()       {}
func (*If) node()          {}
func (*While) node()       {}
func (*DoWhile) node()     {}
func (*For) node()         {}
func (*Return) node()      {}
func (*Break) node()       {}
func (*Continue) node()    {}
func (*Switch) node()      {}
func (*OtherStmt) node()   {}
func (*Ident) node()       {}
func (*Lit) node()         {}
func (*Unary) node()       {}
func (*Binary) node()      {}
func (*Assign) node()      {}
func (*Cond) node()        {}
func (*Call) node()        {}
func (*Index) node()       {}
func (*Member) node()      {}
func (*Cast) node()        {}
func (*Sizeof) node()      {}
func (*OtherExpr) node()   {}

func (*RecordDecl) decl()  {}
func (*EnumDecl) decl()    {}
func (*TypedefDecl) decl() {}
func (*VarDecl) decl()     {}
func (*FuncDecl) decl()    {}

func (*NamedType) typeExpr()   {}
func (*PointerType) typeExpr() {}
func (*ArrayType) typeExpr()   {}
func (*RecordRef) typeExpr()   {}
func (*EnumRef) typeExpr()     {}

func (*DeclStmt) stmt()  {}
func (*ExprStmt) stmt()  {}
func (*Block) stmt()     {}
func (*If) stmt()        {}
func (*While) stmt()     {}
func (*DoWhile) stmt()   {}
func (*For) stmt()       {}
func (*Return) stmt()    {}
func (*Break) stmt()     {}
func (*Continue) stmt()  {}
func (*Switch) stmt()    {}
func (*OtherStmt) stmt() {}

func (*Ident) expr()     {}
func (*Lit) expr()       {}
func (*Unary) expr()     {}
func (*Binary) expr()    {}
func (*Assign) expr()    {}
func (*Cond) expr()      {}
func (*Call) expr()      {}
func (*Index) expr()     {}
func (*Member) expr()    {}
func (*Cast) expr()      {}
func (*Sizeof) expr()    {}
func (*OtherExpr) expr() {}
