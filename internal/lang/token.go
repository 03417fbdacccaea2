// © 2026 Polyfront Authors
//
// SPDX-License-Identifier: Apache-2.0

package lang

import "fmt"

type Location struct {
	Line   int32
	Column int32
	Offset int64
}

type Span struct {
	Start Location
	End   Location
}

// Info is the source-position handle attached to every token and,
// transitively, to every leaf of the CSTs and the Generic AST. Synthetic
// marks positions invented during lowering (for example a synthesized
// temporary identifier) so that they are never mistaken for source.
type Info struct {
	Span      Span
	Text      string
	Synthetic bool
}

// InfoOf derives a position handle from a source token.
func InfoOf(t Token) Info {
	return Info{Span: t.Span, Text: t.Value}
}

// SyntheticInfo builds a position handle for a node that has no source
// counterpart.
func SyntheticInfo(text string) Info {
	return Info{Text: text, Synthetic: true}
}

// Token is one element of a pre-lexed, classified token stream. Streams are
// terminated by exactly one EOF token. Layout tokens (Newline, Newlines) are
// preserved by the lexer; each grammar decides their significance.
type Token struct {
	Span  Span
	Type  TokenType
	Value string
}

func NewToken(start Location, end Location, typ TokenType, value string) *Token {
	return &Token{
		Span:  Span{Start: start, End: end},
		Type:  typ,
		Value: value,
	}
}

// NewTokenLineSpan builds a token that begins and ends on a single line,
// where col/offset address the final character of the token.
func NewTokenLineSpan(line int32, col int32, offset int64, length int32, typ TokenType, value string) *Token {
	return NewToken(
		Location{Line: line, Column: col - length + 1, Offset: offset - int64(length) + 1},
		Location{Line: line, Column: col, Offset: offset},
		typ,
		value,
	)
}

type TokenType uint16

const (
	TokenTypeUnknown TokenType = iota
	TokenTypeEOF

	// Layout. Newline is a single line break; Newlines is a blank-line run.
	TokenTypeWhitespace
	TokenTypeNewline
	TokenTypeNewlines
	TokenTypeComment

	// Literals and identifiers.
	TokenTypeIdentifier
	TokenTypeIntegerLit
	TokenTypeFloatLit
	TokenTypeStringLit
	TokenTypeCharLit
	TokenTypeRegexpLit
	TokenTypeXMLLit

	// Punctuation.
	TokenTypeCurlyOpen
	TokenTypeCurlyClose
	TokenTypeSquareOpen
	TokenTypeSquareClose
	TokenTypeParenOpen
	TokenTypeParenClose
	TokenTypeComma
	TokenTypeSemicolon
	TokenTypeColon
	TokenTypeDot
	TokenTypeEllipsis
	TokenTypeArrow
	TokenTypeEqual
	TokenTypePlus
	TokenTypeMinus
	TokenTypeStar
	TokenTypeSlash
	TokenTypePercent
	TokenTypePlusPlus
	TokenTypeMinusMinus
	TokenTypePlusEqual
	TokenTypeMinusEqual
	TokenTypeStarEqual
	TokenTypeSlashEqual
	TokenTypePercentEqual
	TokenTypeEqEq
	TokenTypeEqEqEq
	TokenTypeNotEq
	TokenTypeNotEqEq
	TokenTypeAngleOpen
	TokenTypeLesserEqual
	TokenTypeAngleClose
	TokenTypeGreaterEqual
	TokenTypeAmpAmp
	TokenTypePipePipe
	TokenTypeBang
	TokenTypeAmpersand
	TokenTypePipe
	TokenTypeCaret
	TokenTypeTilde
	TokenTypeShiftLeft
	TokenTypeShiftRight
	TokenTypeShiftRightUnsigned
	TokenTypeQuestion
	TokenTypeAt
	TokenTypeUnderscore

	// Keywords shared across grammars or specific to one of them.
	TokenTypeKeywordVar
	TokenTypeKeywordLet
	TokenTypeKeywordConst
	TokenTypeKeywordFunction
	TokenTypeKeywordClass
	TokenTypeKeywordExtends
	TokenTypeKeywordReturn
	TokenTypeKeywordIf
	TokenTypeKeywordElse
	TokenTypeKeywordWhile
	TokenTypeKeywordDo
	TokenTypeKeywordFor
	TokenTypeKeywordOf
	TokenTypeKeywordIn
	TokenTypeKeywordNew
	TokenTypeKeywordTypeof
	TokenTypeKeywordInstanceof
	TokenTypeKeywordDelete
	TokenTypeKeywordVoid
	TokenTypeKeywordThis
	TokenTypeKeywordSuper
	TokenTypeKeywordNull
	TokenTypeKeywordTrue
	TokenTypeKeywordFalse
	TokenTypeKeywordImport
	TokenTypeKeywordExport
	TokenTypeKeywordFrom
	TokenTypeKeywordAs
	TokenTypeKeywordDefault
	TokenTypeKeywordAsync
	TokenTypeKeywordAwait
	TokenTypeKeywordYield
	TokenTypeKeywordGet
	TokenTypeKeywordSet
	TokenTypeKeywordStatic
	TokenTypeKeywordBreak
	TokenTypeKeywordContinue
	TokenTypeKeywordSwitch
	TokenTypeKeywordCase
	TokenTypeKeywordTry
	TokenTypeKeywordCatch
	TokenTypeKeywordFinally
	TokenTypeKeywordThrow

	TokenTypeKeywordPackage
	TokenTypeKeywordObject
	TokenTypeKeywordTrait
	TokenTypeKeywordDef
	TokenTypeKeywordVal
	TokenTypeKeywordType
	TokenTypeKeywordImplicit
	TokenTypeKeywordLazy
	TokenTypeKeywordFinal
	TokenTypeKeywordSealed
	TokenTypeKeywordAbstract
	TokenTypeKeywordOverride
	TokenTypeKeywordPrivate
	TokenTypeKeywordProtected
	TokenTypeKeywordWith
	TokenTypeKeywordMatch

	TokenTypeKeywordTypedef
	TokenTypeKeywordStruct
	TokenTypeKeywordUnion
	TokenTypeKeywordEnum
	TokenTypeKeywordExtern
	TokenTypeKeywordUnsigned
	TokenTypeKeywordSigned
	TokenTypeKeywordInt
	TokenTypeKeywordChar
	TokenTypeKeywordLong
	TokenTypeKeywordShort
	TokenTypeKeywordFloat
	TokenTypeKeywordDouble
	TokenTypeKeywordSizeof
	TokenTypeKeywordGoto
)

var tokenTypeNames = map[TokenType]string{
	TokenTypeUnknown:            "Unknown",
	TokenTypeEOF:                "EOF",
	TokenTypeWhitespace:         "Whitespace",
	TokenTypeNewline:            "Newline",
	TokenTypeNewlines:           "Newlines",
	TokenTypeComment:            "Comment",
	TokenTypeIdentifier:         "Identifier",
	TokenTypeIntegerLit:         "IntegerLit",
	TokenTypeFloatLit:           "FloatLit",
	TokenTypeStringLit:          "StringLit",
	TokenTypeCharLit:            "CharLit",
	TokenTypeRegexpLit:          "RegexpLit",
	TokenTypeXMLLit:             "XMLLit",
	TokenTypeCurlyOpen:          "{",
	TokenTypeCurlyClose:         "}",
	TokenTypeSquareOpen:         "[",
	TokenTypeSquareClose:        "]",
	TokenTypeParenOpen:          "(",
	TokenTypeParenClose:         ")",
	TokenTypeComma:              ",",
	TokenTypeSemicolon:          ";",
	TokenTypeColon:              ":",
	TokenTypeDot:                ".",
	TokenTypeEllipsis:           "...",
	TokenTypeArrow:              "=>",
	TokenTypeEqual:              "=",
	TokenTypePlus:               "+",
	TokenTypeMinus:              "-",
	TokenTypeStar:               "*",
	TokenTypeSlash:              "/",
	TokenTypePercent:            "%",
	TokenTypePlusPlus:           "++",
	TokenTypeMinusMinus:         "--",
	TokenTypePlusEqual:          "+=",
	TokenTypeMinusEqual:         "-=",
	TokenTypeStarEqual:          "*=",
	TokenTypeSlashEqual:         "/=",
	TokenTypePercentEqual:       "%=",
	TokenTypeEqEq:               "==",
	TokenTypeEqEqEq:             "===",
	TokenTypeNotEq:              "!=",
	TokenTypeNotEqEq:            "!==",
	TokenTypeAngleOpen:          "<",
	TokenTypeLesserEqual:        "<=",
	TokenTypeAngleClose:         ">",
	TokenTypeGreaterEqual:       ">=",
	TokenTypeAmpAmp:             "&&",
	TokenTypePipePipe:           "||",
	TokenTypeBang:               "!",
	TokenTypeAmpersand:          "&",
	TokenTypePipe:               "|",
	TokenTypeCaret:              "^",
	TokenTypeTilde:              "~",
	TokenTypeShiftLeft:          "<<",
	TokenTypeShiftRight:         ">>",
	TokenTypeShiftRightUnsigned: ">>>",
	TokenTypeQuestion:           "?",
	TokenTypeAt:                 "@",
	TokenTypeUnderscore:         "_",
}

func (t TokenType) String() string {
	if name, ok := tokenTypeNames[t]; ok {
		return name
	}
	if kw, ok := keywordNames[t]; ok {
		return "Keyword(" + kw + ")"
	}
	return fmt.Sprintf("TokenType(%d)", t)
}

// Keywords is the shared keyword classification table. External lexers are
// expected to classify keyword tokens with it; the token-stream decoder and
// test fixtures use it as well.
var Keywords = map[string]TokenType{
	"var":        TokenTypeKeywordVar,
	"let":        TokenTypeKeywordLet,
	"const":      TokenTypeKeywordConst,
	"function":   TokenTypeKeywordFunction,
	"class":      TokenTypeKeywordClass,
	"extends":    TokenTypeKeywordExtends,
	"return":     TokenTypeKeywordReturn,
	"if":         TokenTypeKeywordIf,
	"else":       TokenTypeKeywordElse,
	"while":      TokenTypeKeywordWhile,
	"do":         TokenTypeKeywordDo,
	"for":        TokenTypeKeywordFor,
	"of":         TokenTypeKeywordOf,
	"in":         TokenTypeKeywordIn,
	"new":        TokenTypeKeywordNew,
	"typeof":     TokenTypeKeywordTypeof,
	"instanceof": TokenTypeKeywordInstanceof,
	"delete":     TokenTypeKeywordDelete,
	"void":       TokenTypeKeywordVoid,
	"this":       TokenTypeKeywordThis,
	"super":      TokenTypeKeywordSuper,
	"null":       TokenTypeKeywordNull,
	"true":       TokenTypeKeywordTrue,
	"false":      TokenTypeKeywordFalse,
	"import":     TokenTypeKeywordImport,
	"export":     TokenTypeKeywordExport,
	"from":       TokenTypeKeywordFrom,
	"as":         TokenTypeKeywordAs,
	"default":    TokenTypeKeywordDefault,
	"async":      TokenTypeKeywordAsync,
	"await":      TokenTypeKeywordAwait,
	"yield":      TokenTypeKeywordYield,
	"get":        TokenTypeKeywordGet,
	"set":        TokenTypeKeywordSet,
	"static":     TokenTypeKeywordStatic,
	"break":      TokenTypeKeywordBreak,
	"continue":   TokenTypeKeywordContinue,
	"switch":     TokenTypeKeywordSwitch,
	"case":       TokenTypeKeywordCase,
	"try":        TokenTypeKeywordTry,
	"catch":      TokenTypeKeywordCatch,
	"finally":    TokenTypeKeywordFinally,
	"throw":      TokenTypeKeywordThrow,
	"package":    TokenTypeKeywordPackage,
	"object":     TokenTypeKeywordObject,
	"trait":      TokenTypeKeywordTrait,
	"def":        TokenTypeKeywordDef,
	"val":        TokenTypeKeywordVal,
	"type":       TokenTypeKeywordType,
	"implicit":   TokenTypeKeywordImplicit,
	"lazy":       TokenTypeKeywordLazy,
	"final":      TokenTypeKeywordFinal,
	"sealed":     TokenTypeKeywordSealed,
	"abstract":   TokenTypeKeywordAbstract,
	"override":   TokenTypeKeywordOverride,
	"private":    TokenTypeKeywordPrivate,
	"protected":  TokenTypeKeywordProtected,
	"with":       TokenTypeKeywordWith,
	"match":      TokenTypeKeywordMatch,
	"typedef":    TokenTypeKeywordTypedef,
	"struct":     TokenTypeKeywordStruct,
	"union":      TokenTypeKeywordUnion,
	"enum":       TokenTypeKeywordEnum,
	"extern":     TokenTypeKeywordExtern,
	"unsigned":   TokenTypeKeywordUnsigned,
	"signed":     TokenTypeKeywordSigned,
	"int":        TokenTypeKeywordInt,
	"char":       TokenTypeKeywordChar,
	"long":       TokenTypeKeywordLong,
	"short":      TokenTypeKeywordShort,
	"float":      TokenTypeKeywordFloat,
	"double":     TokenTypeKeywordDouble,
	"sizeof":     TokenTypeKeywordSizeof,
	"goto":       TokenTypeKeywordGoto,
}

var keywordNames = func() map[TokenType]string {
	names := make(map[TokenType]string, len(Keywords))
	for word, typ := range Keywords {
		names[typ] = word
	}
	return names
}()

var tokenTypesByName = func() map[string]TokenType {
	types := make(map[string]TokenType, len(tokenTypeNames)+2*len(Keywords))
	for typ, name := range tokenTypeNames {
		types[name] = typ
	}
	for word, typ := range Keywords {
		// Accept both the bare word and the String() rendering.
		types[word] = typ
		types["Keyword("+word+")"] = typ
	}
	return types
}()

// TokenTypeByName is the inverse of TokenType.String, used by the
// token-stream decoder to reconstruct classified tokens from their
// serialized form. Keyword types are accepted both as the bare word and as
// the Keyword(word) rendering.
func TokenTypeByName(name string) (TokenType, bool) {
	typ, ok := tokenTypesByName[name]
	return typ, ok
}
