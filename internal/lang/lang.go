// © 2026 Polyfront Authors
//
// SPDX-License-Identifier: Apache-2.0

package lang

import (
	"context"
	"fmt"

	"gopkg.polyfront.org/frontend.go/internal/optional"
)

type Closer interface {
	Close(ctx context.Context) error
}

type Iterator[T any] interface {
	Next(ctx context.Context) optional.Optional[T]
	Closer
}

type Lookahead[T any] interface {
	Iterator[T]
	Lookahead(ctx context.Context, n uint8) optional.Optional[T]
}

type Filter[T any] interface {
	Keep(ctx context.Context, v T) bool
}

type Reader interface {
	Read(ctx context.Context, size int32) ([]byte, error)
}

type FileBody interface {
	Reader
	Closer
}

// FileKind identifies the source language of an input, which selects the
// front-end responsible for producing its Generic AST.
type FileKind uint32

const (
	FileKindNone FileKind = iota
	FileKindScala
	FileKindJavascript
	FileKindTypescript
	FileKindC
	FileKindProtobuf
	FileKindTokenStream
)

func (k FileKind) String() string {
	switch k {
	case FileKindScala:
		return "scala"
	case FileKindJavascript:
		return "javascript"
	case FileKindTypescript:
		return "typescript"
	case FileKindC:
		return "c"
	case FileKindProtobuf:
		return "protobuf"
	case FileKindTokenStream:
		return "token-stream"
	case FileKindNone:
		return "none"
	default:
		return fmt.Sprintf("unknown-%d", k)
	}
}

type File interface {
	Path(ctx context.Context) string
	Kind(ctx context.Context) FileKind
	Body(ctx context.Context) (FileBody, error)
}

type FileSystem interface {
	Open(ctx context.Context, uri string) ([]File, error)
	Write(ctx context.Context, uri string, content string) error
}

// TokenFile is an input whose token stream has already been produced by an
// external lexer. All parsers in this repository consume this interface; none
// of them reads source text directly.
type TokenFile interface {
	File
	Tokens(ctx context.Context) (Iterator[*Token], error)
}

// Config is the process-wide configuration surface. It is captured when a
// pipeline is constructed and must not change during a run.
type Config struct {
	// Recover enables unit-granular error recovery: a grammar violation
	// abandons the current file instead of failing the whole batch.
	Recover bool
	// KeepXMLLiterals preserves XML literal tokens as opaque leaves instead
	// of desugaring them during lowering.
	KeepXMLLiterals bool
	// DumpTokens traces the token stream as it is consumed.
	DumpTokens bool
	// DumpTree prints each unit's Generic AST after lowering.
	DumpTree bool
}

type ParseRequest struct {
	Files  []string
	Config Config
}

type ParseResponse struct {
	Units []*Unit
	Stats Stats
}

// Unit is one lowered compilation unit: the Generic AST for one input file.
// The concrete program type lives in internal/ast; it is held here as an
// opaque value so that lang does not depend on the tree package.
type Unit struct {
	URI     string
	Program any
}

// Stats reports parse coverage for a batch run. A batch with failures is a
// partial success, not an error: callers decide what failure fraction is
// acceptable.
type Stats struct {
	Files       int
	FailedFiles int
	TotalLines  int
	FailedLines int
}

func (s Stats) FailedLineFraction() float64 {
	if s.TotalLines == 0 {
		return 0
	}
	return float64(s.FailedLines) / float64(s.TotalLines)
}
