// © 2026 Polyfront Authors
//
// SPDX-License-Identifier: Apache-2.0

package frontend

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.polyfront.org/frontend.go/internal/ast"
	"gopkg.polyfront.org/frontend.go/internal/exc"
	"gopkg.polyfront.org/frontend.go/internal/js"
	"gopkg.polyfront.org/frontend.go/internal/lang"
	"gopkg.polyfront.org/frontend.go/internal/protobuf"
	"gopkg.polyfront.org/frontend.go/internal/scala"
)

// FrontEnd parses one input file into a Generic AST program. The returned
// line count covers the whole source unit and is reported even when the
// parse fails, so that batch coverage statistics stay meaningful. A nil
// program with a nil error means the unit failed with all of its errors
// recorded as non-fatal.
type FrontEnd interface {
	ParseFile(ctx context.Context, r exc.Reporter, file lang.File, cfg lang.Config) (*ast.Program, int, error)
}

func DefaultFrontEnds() map[lang.FileKind]FrontEnd {
	fejs := &FrontEndJS{}
	fes := map[lang.FileKind]FrontEnd{
		lang.FileKindScala:      &FrontEndScala{},
		lang.FileKindJavascript: fejs,
		lang.FileKindTypescript: fejs,
		lang.FileKindProtobuf:   &FrontEndProtobuf{},
	}
	fes[lang.FileKindTokenStream] = &FrontEndTokenStream{FrontEnds: fes}
	return fes
}

type FrontEndScala struct{}

func (self *FrontEndScala) ParseFile(ctx context.Context, r exc.Reporter, file lang.File, cfg lang.Config) (*ast.Program, int, error) {
	tf, err := requireTokens(ctx, r, file)
	if err != nil {
		return nil, 0, err
	}
	lines, err := tokenLines(ctx, tf)
	if err != nil {
		return nil, 0, err
	}
	if cfg.DumpTokens {
		if err := dumpTokens(ctx, tf); err != nil {
			return nil, lines, err
		}
	}
	prog, err := scala.Parse(ctx, r, tf, cfg)
	return prog, lines, err
}

type FrontEndJS struct{}

func (self *FrontEndJS) ParseFile(ctx context.Context, r exc.Reporter, file lang.File, cfg lang.Config) (*ast.Program, int, error) {
	tf, err := requireTokens(ctx, r, file)
	if err != nil {
		return nil, 0, err
	}
	lines, err := tokenLines(ctx, tf)
	if err != nil {
		return nil, 0, err
	}
	if cfg.DumpTokens {
		if err := dumpTokens(ctx, tf); err != nil {
			return nil, lines, err
		}
	}
	prog, err := js.Parse(ctx, r, tf, cfg)
	return prog, lines, err
}

type FrontEndProtobuf struct{}

func (self *FrontEndProtobuf) ParseFile(ctx context.Context, r exc.Reporter, file lang.File, cfg lang.Config) (*ast.Program, int, error) {
	lines, err := countLines(ctx, file)
	if err != nil {
		return nil, 0, err
	}
	prog, err := protobuf.Parse(ctx, r, file)
	if err != nil {
		return nil, lines, err
	}
	return prog, lines, nil
}

// FrontEndTokenStream decodes a serialized token-stream document and hands
// the resulting pre-lexed unit to the front-end for its declared language.
type FrontEndTokenStream struct {
	FrontEnds map[lang.FileKind]FrontEnd
}

func (self *FrontEndTokenStream) ParseFile(ctx context.Context, r exc.Reporter, file lang.File, cfg lang.Config) (*ast.Program, int, error) {
	tf, err := decodeTokenStream(ctx, file)
	if err != nil {
		if e, ok := err.(exc.Exception); ok {
			return nil, 0, r.Report(e)
		}
		return nil, 0, err
	}
	fe := self.FrontEnds[tf.Kind(ctx)]
	if fe == nil || tf.Kind(ctx) == lang.FileKindTokenStream {
		e := exc.New(exc.Location{URI: file.Path(ctx)}, exc.CodeUnsupportedFileFormat, fmt.Sprintf("no front-end accepts %s token streams", tf.Kind(ctx)))
		return nil, 0, r.Report(e)
	}
	return fe.ParseFile(ctx, r, tf, cfg)
}

// requireTokens enforces the input contract of the token-driven grammars:
// their sources arrive pre-lexed, never as raw text.
func requireTokens(ctx context.Context, r exc.Reporter, file lang.File) (lang.TokenFile, error) {
	tf, ok := file.(lang.TokenFile)
	if !ok {
		e := exc.New(exc.Location{URI: file.Path(ctx)}, exc.CodeUnsupportedFileFormat, fmt.Sprintf("%s input must arrive as a pre-lexed token stream", file.Kind(ctx)))
		return nil, r.Report(e)
	}
	return tf, nil
}

// tokenLines reports the line count of a pre-lexed unit as the last line
// any of its tokens touches.
func tokenLines(ctx context.Context, file lang.TokenFile) (int, error) {
	stream, err := file.Tokens(ctx)
	if err != nil {
		return 0, err
	}
	defer stream.Close(ctx)
	lines := 0
	for tok := stream.Next(ctx); tok.IsPresent(); tok = stream.Next(ctx) {
		if tok.Value().Type == lang.TokenTypeEOF {
			continue
		}
		if end := int(tok.Value().Span.End.Line); end > lines {
			lines = end
		}
	}
	return lines, nil
}

func dumpTokens(ctx context.Context, file lang.TokenFile) error {
	stream, err := file.Tokens(ctx)
	if err != nil {
		return err
	}
	defer stream.Close(ctx)
	for tok := stream.Next(ctx); tok.IsPresent(); tok = stream.Next(ctx) {
		token := tok.Value()
		fmt.Printf("%-24s", token.Type)
		if token.Type != lang.TokenTypeNewline && token.Type != lang.TokenTypeNewlines {
			fmt.Printf("'%s'", token.Value)
		}
		fmt.Println()
	}
	return nil
}

// countLines counts source lines by scanning the file body. A trailing
// fragment without a final newline still counts as a line.
func countLines(ctx context.Context, file lang.File) (int, error) {
	body, err := file.Body(ctx)
	if err != nil {
		return 0, err
	}
	defer body.Close(ctx)
	lines := 0
	pending := false
	for {
		b, err := body.Read(ctx, 4096)
		for _, c := range b {
			if c == '\n' {
				lines = lines + 1
				pending = false
			} else {
				pending = true
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, err
		}
		if len(b) == 0 {
			break
		}
	}
	if pending {
		lines = lines + 1
	}
	return lines, nil
}
