// © 2026 Polyfront Authors
//
// SPDX-License-Identifier: Apache-2.0

package protobuf

import (
	"context"
	"errors"
	"io"

	"github.com/bufbuild/protocompile/options"
	"github.com/bufbuild/protocompile/parser"
	"github.com/bufbuild/protocompile/reporter"

	"gopkg.polyfront.org/frontend.go/internal/ast"
	"gopkg.polyfront.org/frontend.go/internal/exc"
	"gopkg.polyfront.org/frontend.go/internal/lang"
)

// Parse runs protocompile over a .proto file and lowers the resulting file
// descriptor to the Generic AST. This is the "external parser supplies the
// CST" path: no parser of ours is involved, only the descriptor lowering.
func Parse(ctx context.Context, r exc.Reporter, file lang.File) (*ast.Program, error) {
	b, err := file.Body(ctx)
	if err != nil {
		return nil, r.Report(exc.WrapUnknown(exc.Location{URI: file.Path(ctx)}, err))
	}
	defer b.Close(ctx)

	h := reporter.NewHandler(&protoReporter{Reporter: r})
	node, err := parser.Parse(file.Path(ctx), &fileBodyIO{ctx: ctx, body: b}, h)
	if err != nil {
		return nil, err
	}
	result, err := parser.ResultFromAST(node, true, h)
	if err != nil {
		return nil, err
	}
	_, err = options.InterpretUnlinkedOptions(result)
	if err != nil {
		return nil, err
	}
	return FromFileDescriptorProto(file.Path(ctx), result.FileDescriptorProto())
}

// protoReporter adapts protocompile's diagnostics onto the exception
// accumulator.
type protoReporter struct {
	Reporter exc.Reporter
}

func (self *protoReporter) Error(e reporter.ErrorWithPos) error {
	pos := e.GetPosition()
	loc := exc.Location{
		URI: pos.Filename,
		Location: lang.Location{
			Line:   int32(pos.Line),
			Column: int32(pos.Col),
			Offset: int64(pos.Offset),
		},
	}
	return self.Reporter.Report(exc.Wrap(loc, exc.CodeProtobufParseError, e))
}

func (self *protoReporter) Warning(e reporter.ErrorWithPos) {
	_ = self.Error(e)
}

// fileBodyIO adapts a context-threaded FileBody onto io.Reader for
// protocompile.
type fileBodyIO struct {
	ctx  context.Context
	body lang.FileBody
}

func (self *fileBodyIO) Read(p []byte) (int, error) {
	b, err := self.body.Read(self.ctx, int32(len(p)))
	if err != nil && !errors.Is(err, io.EOF) {
		return len(b), err
	}
	copy(p, b)
	if errors.Is(err, io.EOF) {
		return len(b), io.EOF
	}
	return len(b), nil
}

func (self *fileBodyIO) Close() error {
	return self.body.Close(self.ctx)
}
