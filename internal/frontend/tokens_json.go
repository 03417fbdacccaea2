// © 2026 Polyfront Authors
//
// SPDX-License-Identifier: Apache-2.0

package frontend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.polyfront.org/frontend.go/internal/exc"
	"gopkg.polyfront.org/frontend.go/internal/iter"
	"gopkg.polyfront.org/frontend.go/internal/lang"
)

// tokenStreamLanguages maps the language field of a token-stream document
// to the front-end that consumes it. Only the token-driven grammars appear
// here; languages whose front-ends take other input forms are rejected.
var tokenStreamLanguages = map[string]lang.FileKind{
	"scala":      lang.FileKindScala,
	"javascript": lang.FileKindJavascript,
	"js":         lang.FileKindJavascript,
	"typescript": lang.FileKindTypescript,
	"ts":         lang.FileKindTypescript,
}

type tokenStreamDoc struct {
	Language string             `json:"language"`
	Tokens   []tokenStreamToken `json:"tokens"`
}

// tokenStreamToken is one classified token. Line, col, and offset address
// the token's final character; length defaults to the value's byte length
// when omitted.
type tokenStreamToken struct {
	Type   string `json:"type"`
	Value  string `json:"value"`
	Line   int32  `json:"line"`
	Col    int32  `json:"col"`
	Offset int64  `json:"offset"`
	Length int32  `json:"length,omitempty"`
}

// decodeTokenStream reconstructs a pre-lexed unit from its serialized form.
// Violations of the document contract come back as CodeInvalidTokenStream
// exceptions.
func decodeTokenStream(ctx context.Context, file lang.File) (lang.TokenFile, error) {
	path := file.Path(ctx)
	body, err := file.Body(ctx)
	if err != nil {
		return nil, err
	}
	defer body.Close(ctx)
	raw, err := readAll(ctx, body)
	if err != nil {
		return nil, err
	}

	var doc tokenStreamDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, exc.Wrap(exc.Location{URI: path}, exc.CodeInvalidTokenStream, err)
	}
	kind, ok := tokenStreamLanguages[doc.Language]
	if !ok {
		return nil, exc.New(exc.Location{URI: path}, exc.CodeInvalidTokenStream, fmt.Sprintf("unknown token stream language %q", doc.Language))
	}

	tokens := make([]*lang.Token, 0, len(doc.Tokens))
	for x, entry := range doc.Tokens {
		typ, ok := lang.TokenTypeByName(entry.Type)
		if !ok {
			return nil, exc.New(exc.Location{
				URI:      path,
				Location: lang.Location{Line: entry.Line, Column: entry.Col, Offset: entry.Offset},
			}, exc.CodeInvalidTokenStream, fmt.Sprintf("unknown token type %q at index %d", entry.Type, x))
		}
		length := entry.Length
		if length == 0 {
			length = int32(len(entry.Value))
		}
		tokens = append(tokens, lang.NewTokenLineSpan(entry.Line, entry.Col, entry.Offset, length, typ, entry.Value))
	}

	return &tokenFile{
		path:   path,
		kind:   kind,
		tokens: tokens,
	}, nil
}

// tokenFile is a decoded pre-lexed unit. It has no source body; every
// consumer of this kind of file goes through Tokens.
type tokenFile struct {
	path   string
	kind   lang.FileKind
	tokens []*lang.Token
}

func (f *tokenFile) Path(ctx context.Context) string {
	return f.path
}

func (f *tokenFile) Kind(ctx context.Context) lang.FileKind {
	return f.kind
}

func (f *tokenFile) Body(ctx context.Context) (lang.FileBody, error) {
	return nil, exc.New(exc.Location{URI: f.path}, exc.CodeUnsupportedFileSystemOperation, "a decoded token stream has no source body")
}

func (f *tokenFile) Tokens(ctx context.Context) (lang.Iterator[*lang.Token], error) {
	return iter.NewSlice(f.tokens), nil
}

func readAll(ctx context.Context, body lang.FileBody) ([]byte, error) {
	var out []byte
	for {
		b, err := body.Read(ctx, 4096)
		out = append(out, b...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, err
		}
		if len(b) == 0 {
			return out, nil
		}
	}
}
