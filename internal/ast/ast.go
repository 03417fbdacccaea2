// © 2026 Polyfront Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package ast defines the Generic AST: the shared, reduced tree vocabulary
// that every per-language lowering targets and that downstream tooling
// consumes. The node set is a wire contract; changing a node's shape is a
// breaking change for every consumer.
package ast

import (
	"gopkg.polyfront.org/frontend.go/internal/lang"
)

// interface for all nodes
type Node interface {
	node()
}

// interface for all expression nodes
type Expr interface {
	Node
	expr()
}

// interface for all statement nodes
type Stmt interface {
	Node
	stmt()
}

// interface for all entity definitions
type Def interface {
	Node
	def()
}

// interface for all type expressions
type Type interface {
	Node
	typeExpr()
}

// interface for type definition bodies
type TypeBody interface {
	Node
	typeBody()
}

// interface for module-level directives
type Directive interface {
	Node
	directive()
}

// Sentinel names used when a definition has no source name but the target
// shape requires one.
const (
	AnonName    = "__anon__"
	DefaultName = "__default__"
)

// Program is one lowered compilation unit.
type Program struct {
	URI   string
	Stmts []Stmt
}

// ResolutionKind classifies how an identifier occurrence was bound, as
// decided by lowering-time scope lookup. Downstream consumers rely on this
// instead of re-deriving scope.
type ResolutionKind uint8

const (
	// Unresolved is the initial state of every resolution slot.
	Unresolved ResolutionKind = iota
	// ResolvedLocal is a block-scoped or function-scoped binding in the
	// enclosing function.
	ResolvedLocal
	// ResolvedParameter is a parameter of the enclosing function.
	ResolvedParameter
	// ResolvedGlobal is a top-level binding, optionally qualified by an
	// enclosing package or module path.
	ResolvedGlobal
	// NotResolved means lookup ran to completion without finding a binding.
	// Distinct from Unresolved: the question was asked and had no answer.
	NotResolved
)

func (k ResolutionKind) String() string {
	switch k {
	case ResolvedLocal:
		return "local"
	case ResolvedParameter:
		return "parameter"
	case ResolvedGlobal:
		return "global"
	case NotResolved:
		return "not-resolved"
	default:
		return "unresolved"
	}
}

// Resolution is the mutable resolution cell owned by a Name. A later pass
// may overwrite it without re-walking the tree; two components must never
// race on the same cell (units are processed single-owner, see the pipeline
// driver).
type Resolution struct {
	Kind      ResolutionKind
	Qualifier string
}

// Name is an identifier occurrence with its resolution slot. Every Name owns
// a distinct cell, including synthesized ones.
type Name struct {
	Info       lang.Info
	Value      string
	Resolution *Resolution
}

func NewName(info lang.Info, value string) *Name {
	return &Name{Info: info, Value: value, Resolution: &Resolution{}}
}

// SyntheticName builds a name with a synthetic position, for bindings
// introduced by lowering with no source counterpart.
func SyntheticName(value string) *Name {
	return NewName(lang.SyntheticInfo(value), value)
}

type LiteralKind uint8

const (
	LiteralNull LiteralKind = iota
	LiteralBool
	LiteralInt
	LiteralFloat
	LiteralString
	LiteralChar
	LiteralRegexp
)

type Literal struct {
	Info  lang.Info
	Kind  LiteralKind
	Value string
}

// SpecialKind enumerates host-environment pseudo-identifiers and implicit
// operations that surface syntax does not spell as ordinary calls.
type SpecialKind uint8

const (
	SpecialThis SpecialKind = iota
	SpecialSuper
	SpecialNew
	SpecialArguments
	SpecialRequire
	SpecialExports
	SpecialModule
	SpecialEval
	SpecialSpread
	SpecialTypeof
	SpecialDelete
	SpecialVoid
	SpecialAwait
	SpecialYield
	// SpecialIterator obtains the iteration-protocol handle of a value; it
	// is the hook for-each loops are expanded onto.
	SpecialIterator
)

var specialNames = map[SpecialKind]string{
	SpecialThis:      "this",
	SpecialSuper:     "super",
	SpecialNew:       "new",
	SpecialArguments: "arguments",
	SpecialRequire:   "require",
	SpecialExports:   "exports",
	SpecialModule:    "module",
	SpecialEval:      "eval",
	SpecialSpread:    "spread",
	SpecialTypeof:    "typeof",
	SpecialDelete:    "delete",
	SpecialVoid:      "void",
	SpecialAwait:     "await",
	SpecialYield:     "yield",
	SpecialIterator:  "iterator",
}

func (k SpecialKind) String() string {
	return specialNames[k]
}

type Special struct {
	Info lang.Info
	Kind SpecialKind
}

// Op is the closed operator vocabulary. Each source operator token maps to
// exactly one Op; languages with richer operator sets go through OtherExpr.
type Op uint8

const (
	OpPlus Op = iota
	OpMinus
	OpMult
	OpDiv
	OpMod
	OpEq
	OpNotEq
	OpPhysEq
	OpNotPhysEq
	OpLt
	OpLtEq
	OpGt
	OpGtEq
	OpAnd
	OpOr
	OpNot
	OpBitAnd
	OpBitOr
	OpBitXor
	OpBitNot
	OpShiftLeft
	OpShiftRight
	OpShiftRightUnsigned
	OpUnaryMinus
	OpUnaryPlus
	OpIncr
	OpDecr
	OpIn
	OpInstanceof
	// OpArrayAccess is indexing: Args[0] is the container, Args[1] the key.
	OpArrayAccess
)

var opNames = map[Op]string{
	OpPlus:               "+",
	OpMinus:              "-",
	OpMult:               "*",
	OpDiv:                "/",
	OpMod:                "%",
	OpEq:                 "==",
	OpNotEq:              "!=",
	OpPhysEq:             "===",
	OpNotPhysEq:          "!==",
	OpLt:                 "<",
	OpLtEq:               "<=",
	OpGt:                 ">",
	OpGtEq:               ">=",
	OpAnd:                "&&",
	OpOr:                 "||",
	OpNot:                "!",
	OpBitAnd:             "&",
	OpBitOr:              "|",
	OpBitXor:             "^",
	OpBitNot:             "~",
	OpShiftLeft:          "<<",
	OpShiftRight:         ">>",
	OpShiftRightUnsigned: ">>>",
	OpUnaryMinus:         "-",
	OpUnaryPlus:          "+",
	OpIncr:               "++",
	OpDecr:               "--",
	OpIn:                 "in",
	OpInstanceof:         "instanceof",
	OpArrayAccess:        "[]",
}

func (o Op) String() string {
	return opNames[o]
}

// OpCall applies an operator to its operands. Binary and unary surface
// operators lower to this rather than to dedicated node kinds.
type OpCall struct {
	Info lang.Info
	Op   Op
	Args []Expr
}

type Call struct {
	Info lang.Info
	Fn   Expr
	Args []Expr
}

type FieldAccess struct {
	Info lang.Info
	Obj  Expr
	Name *Name
}

type Assign struct {
	Info   lang.Info
	Target Expr
	Value  Expr
}

type Cond struct {
	Info lang.Info
	Test Expr
	Then Expr
	Else Expr
}

type ContainerKind uint8

const (
	ContainerList ContainerKind = iota
	ContainerTuple
	ContainerDict
)

type Container struct {
	Info  lang.Info
	Kind  ContainerKind
	Items []Expr
}

// KeyVal is a dict/record entry inside a Container of kind ContainerDict.
type KeyVal struct {
	Info  lang.Info
	Key   Expr
	Value Expr
}

// DefExpr lets a definition (an anonymous function, usually) appear in
// expression position.
type DefExpr struct {
	Def Def
}

// OtherExpr is the catch-all for constructs with no clean mapping. Category
// is free text naming what was seen; Children carries whatever fragments
// were salvageable.
type OtherExpr struct {
	Info     lang.Info
	Category string
	Children []Node
}

type ExprStmt struct {
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
	Info  lang.Info
	Label string
}

type Continue struct {
	Info  lang.Info
	Label string
}

type Labeled struct {
	Info  lang.Info
	Label string
	Stmt  Stmt
}

type Throw struct {
	Info  lang.Info
	Value Expr
}

type Try struct {
	Info       lang.Info
	Body       *Block
	CatchParam *Name
	Catch      *Block
	Finally    *Block
}

type SwitchCase struct {
	Info lang.Info
	// Values is empty for the default case.
	Values []Expr
	Body   []Stmt
}

type Switch struct {
	Info    lang.Info
	Subject Expr
	Cases   []SwitchCase
}

type DefStmt struct {
	Def Def
}

type DirectiveStmt struct {
	Directive Directive
}

type OtherStmt struct {
	Info     lang.Info
	Category string
	Children []Node
}

// VarKind distinguishes binding disciplines that survive into the shared
// tree: block-scoped versus function-scoped versus single-assignment.
type VarKind uint8

const (
	VarKindVar VarKind = iota
	VarKindLet
	VarKindConst
)

func (k VarKind) String() string {
	switch k {
	case VarKindLet:
		return "let"
	case VarKindConst:
		return "const"
	default:
		return "var"
	}
}

type VarDef struct {
	Name *Name
	Kind VarKind
	Type Type
	Init Expr
}

// FnProp markers carried by functions and fields in source order. Keeping
// these as a property list instead of separate node kinds keeps the node set
// small; consumers interpret the list.
type FnProp uint8

const (
	FnPropGetter FnProp = iota
	FnPropSetter
	FnPropStatic
	FnPropAsync
	FnPropGenerator
)

func (p FnProp) String() string {
	switch p {
	case FnPropGetter:
		return "getter"
	case FnPropSetter:
		return "setter"
	case FnPropStatic:
		return "static"
	case FnPropAsync:
		return "async"
	case FnPropGenerator:
		return "generator"
	default:
		return "unknown"
	}
}

type Param struct {
	Name    *Name
	Type    Type
	Default Expr
	// Rest marks a variadic trailing parameter.
	Rest bool
}

type FnDef struct {
	Name   *Name
	Params []*Param
	Ret    Type
	Props  []FnProp
	Body   *Block
}

type FieldDef struct {
	Name  *Name
	Type  Type
	Init  Expr
	Props []FnProp
}

type ClassDef struct {
	Name    *Name
	Parents []Type
	Defs    []Def
}

type TypeDef struct {
	Name *Name
	Body TypeBody
}

// AndType is a product of fields (struct, record).
type AndType struct {
	Info   lang.Info
	Fields []*FieldDef
}

// OrType is a sum of alternatives (union, enum).
type OrType struct {
	Info     lang.Info
	Variants []*Variant
}

type Variant struct {
	Name *Name
	// Type is set for value-carrying alternatives (union members), Value
	// for constant alternatives (enumerators with explicit values).
	Type  Type
	Value Expr
}

// AliasType names another type.
type AliasType struct {
	Type Type
}

type TypeName struct {
	Name *Name
	Args []Type
}

type PointerType struct {
	Info lang.Info
	Elem Type
}

type ArrayType struct {
	Info lang.Info
	Elem Type
	// Size is nil for unsized arrays.
	Size Expr
}

type FnType struct {
	Info   lang.Info
	Params []Type
	Ret    Type
}

type OtherType struct {
	Info     lang.Info
	Category string
	Children []Node
}

// Import binds one name from another module, optionally renamed. Default
// imports are Imports of DefaultName.
type Import struct {
	Info lang.Info
	Path string
	// Imported is the name as exported by the source module.
	Imported *Name
	// Local is the binding introduced here; equal to Imported when there is
	// no rename.
	Local *Name
}

// ImportAll binds a whole module under a namespace alias.
type ImportAll struct {
	Info  lang.Info
	Path  string
	Alias *Name
}

// ImportEffect imports a module for its side effects only.
type ImportEffect struct {
	Info lang.Info
	Path string
}

// Export re-exports a binding. Local is set when the exported name differs
// from the local binding being exported.
type Export struct {
	Info  lang.Info
	Name  *Name
	Local *Name
}

type OtherDirective struct {
	Info     lang.Info
	Category string
	Children []Node
}

func (*Program) node()        {}
func (*Name) node()           {}
func (*Literal) node()        {}
func (*Special) node()        {}
func (*OpCall) node()         {}
func (*Call) node()           {}
func (*FieldAccess) node()    {}
func (*Assign) node()         {}
func (*Cond) node()           {}
func (*Container) node()      {}
func (*KeyVal) node()         {}
func (*DefExpr) node()        {}
func (*OtherExpr) node()      {}
func (*ExprStmt) node()       {}
func (*Block) node()          {}
func (*If) node()             {}
func (*While) node()          {}
func (*DoWhile) node()        {}
func (*For) node()            {}
func (*Return) node()         {}
func (*Break) node()          {}
func (*Continue) node()       {}
func (*Labeled) node()        {}
func (*Throw) node()          {}
func (*Try) node()            {}
func (*Switch) node()         {}
func (*DefStmt) node()        {}
func (*DirectiveStmt) node()  {}
func (*OtherStmt) node()      {}
func (*VarDef) node()         {}
func (*Param) node()          {}
func (*FnDef) node()          {}
func (*FieldDef) node()       {}
func (*ClassDef) node()       {}
func (*TypeDef) node()        {}
func (*AndType) node()        {}
func (*OrType) node()         {}
func (*Variant) node()        {}
func (*AliasType) node()      {}
func (*TypeName) node()       {}
func (*PointerType) node()    {}
func (*ArrayType) node()      {}
func (*FnType) node()         {}
func (*OtherType) node()      {}
func (*Import) node()         {}
func (*ImportAll) node()      {}
func (*ImportEffect) node()   {}
func (*Export) node()         {}
func (*OtherDirective) node() {}

func (*Name) expr()        {}
func (*Literal) expr()     {}
func (*Special) expr()     {}
func (*OpCall) expr()      {}
func (*Call) expr()        {}
func (*FieldAccess) expr() {}
func (*Assign) expr()      {}
func (*Cond) expr()        {}
func (*Container) expr()   {}
func (*KeyVal) expr()      {}
func (*DefExpr) expr()     {}
func (*OtherExpr) expr()   {}

func (*ExprStmt) stmt()      {}
func (*Block) stmt()         {}
func (*If) stmt()            {}
func (*While) stmt()         {}
func (*DoWhile) stmt()       {}
func (*For) stmt()           {}
func (*Return) stmt()        {}
func (*Break) stmt()         {}
func (*Continue) stmt()      {}
func (*Labeled) stmt()       {}
func (*Throw) stmt()         {}
func (*Try) stmt()           {}
func (*Switch) stmt()        {}
func (*DefStmt) stmt()       {}
func (*DirectiveStmt) stmt() {}
func (*OtherStmt) stmt()     {}

func (*VarDef) def()   {}
func (*FnDef) def()    {}
func (*FieldDef) def() {}
func (*ClassDef) def() {}
func (*TypeDef) def()  {}

func (*AliasType) typeExpr()   {}
func (*TypeName) typeExpr()    {}
func (*PointerType) typeExpr() {}
func (*ArrayType) typeExpr()   {}
func (*FnType) typeExpr()      {}
func (*OtherType) typeExpr()   {}

func (*AndType) typeBody()   {}
func (*OrType) typeBody()    {}
func (*AliasType) typeBody() {}

func (*Import) directive()         {}
func (*ImportAll) directive()      {}
func (*ImportEffect) directive()   {}
func (*Export) directive()         {}
func (*OtherDirective) directive() {}
