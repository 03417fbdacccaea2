// © 2026 Polyfront Authors
//
// SPDX-License-Identifier: Apache-2.0

package js

import (
	"context"

	"gopkg.polyfront.org/frontend.go/internal/ast"
	"gopkg.polyfront.org/frontend.go/internal/exc"
	"gopkg.polyfront.org/frontend.go/internal/lang"
)

// Parse runs the full JavaScript/TypeScript front-end for one pre-lexed
// unit: cursor construction, parsing, and lowering to the Generic AST.
// Grammar and lowering violations go through r; a nil program with a nil
// error means the unit failed but its errors were recorded as non-fatal.
func Parse(ctx context.Context, r exc.Reporter, file lang.TokenFile, cfg lang.Config) (*ast.Program, error) {
	parser := NewParserJS(r)
	cursor, err := parser.PrepareParse(ctx, file)
	if err != nil {
		return nil, err
	}
	cst := cursor.parse()
	if cst == nil {
		if cursor.fatal != nil {
			return nil, cursor.fatal
		}
		return nil, nil
	}
	prog, e := Lower(cst, cfg)
	if e != nil {
		if fatal := r.Report(e); fatal != nil {
			return nil, fatal
		}
		return nil, nil
	}
	return prog, nil
}
