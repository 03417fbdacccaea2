// © 2026 Polyfront Authors
//
// SPDX-License-Identifier: Apache-2.0

package frontend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopkg.polyfront.org/frontend.go/internal/exc"
	"gopkg.polyfront.org/frontend.go/internal/fs"
	"gopkg.polyfront.org/frontend.go/internal/lang"
)

func decodeDoc(t *testing.T, doc string) (lang.TokenFile, error) {
	t.Helper()
	file := fs.NewFileString("/in.tokens.json", doc, lang.FileKindTokenStream)
	return decodeTokenStream(context.Background(), file)
}

func TestDecodeTokenStream(t *testing.T) {
	doc := `{
		"language": "javascript",
		"tokens": [
			{"type": "Keyword(var)", "value": "var", "line": 1, "col": 3, "offset": 2},
			{"type": "Whitespace", "value": " ", "line": 1, "col": 4, "offset": 3},
			{"type": "Identifier", "value": "x", "line": 1, "col": 5, "offset": 4},
			{"type": ";", "value": ";", "line": 1, "col": 6, "offset": 5},
			{"type": "EOF", "value": "", "line": 1, "col": 6, "offset": 5}
		]
	}`
	tf, err := decodeDoc(t, doc)
	require.NoError(t, err)
	assert.Equal(t, lang.FileKindJavascript, tf.Kind(context.Background()))

	stream, err := tf.Tokens(context.Background())
	require.NoError(t, err)
	var types []lang.TokenType
	var values []string
	for tok := stream.Next(context.Background()); tok.IsPresent(); tok = stream.Next(context.Background()) {
		types = append(types, tok.Value().Type)
		values = append(values, tok.Value().Value)
	}
	assert.Equal(t, []lang.TokenType{
		lang.TokenTypeKeywordVar,
		lang.TokenTypeWhitespace,
		lang.TokenTypeIdentifier,
		lang.TokenTypeSemicolon,
		lang.TokenTypeEOF,
	}, types)
	assert.Equal(t, []string{"var", " ", "x", ";", ""}, values)
}

func TestDecodeTokenStreamSpans(t *testing.T) {
	doc := `{
		"language": "scala",
		"tokens": [
			{"type": "Identifier", "value": "answer", "line": 2, "col": 6, "offset": 18}
		]
	}`
	tf, err := decodeDoc(t, doc)
	require.NoError(t, err)

	stream, err := tf.Tokens(context.Background())
	require.NoError(t, err)
	tok := stream.Next(context.Background())
	require.True(t, tok.IsPresent())
	assert.Equal(t, lang.Location{Line: 2, Column: 1, Offset: 13}, tok.Value().Span.Start)
	assert.Equal(t, lang.Location{Line: 2, Column: 6, Offset: 18}, tok.Value().Span.End)
}

func TestDecodeTokenStreamKeywordForms(t *testing.T) {
	// Producers may spell keyword types either way.
	for _, form := range []string{"Keyword(val)", "val"} {
		doc := `{"language": "scala", "tokens": [{"type": "` + form + `", "value": "val", "line": 1, "col": 3, "offset": 2}]}`
		tf, err := decodeDoc(t, doc)
		require.NoError(t, err, form)
		stream, err := tf.Tokens(context.Background())
		require.NoError(t, err)
		tok := stream.Next(context.Background())
		require.True(t, tok.IsPresent())
		assert.Equal(t, lang.TokenTypeKeywordVal, tok.Value().Type, form)
	}
}

func TestDecodeTokenStreamRejectsUnknownLanguage(t *testing.T) {
	_, err := decodeDoc(t, `{"language": "cobol", "tokens": []}`)
	require.Error(t, err)
	e, ok := err.(exc.Exception)
	require.True(t, ok)
	assert.Equal(t, exc.CodeInvalidTokenStream, e.Code())
}

func TestDecodeTokenStreamRejectsUnknownTokenType(t *testing.T) {
	doc := `{"language": "javascript", "tokens": [{"type": "Mystery", "value": "?", "line": 1, "col": 1, "offset": 0}]}`
	_, err := decodeDoc(t, doc)
	require.Error(t, err)
	e, ok := err.(exc.Exception)
	require.True(t, ok)
	assert.Equal(t, exc.CodeInvalidTokenStream, e.Code())
}

func TestDecodeTokenStreamRejectsMalformedJSON(t *testing.T) {
	_, err := decodeDoc(t, `{"language": "javascript"`)
	require.Error(t, err)
	e, ok := err.(exc.Exception)
	require.True(t, ok)
	assert.Equal(t, exc.CodeInvalidTokenStream, e.Code())
}

func TestDecodedTokenFileHasNoBody(t *testing.T) {
	tf, err := decodeDoc(t, `{"language": "javascript", "tokens": []}`)
	require.NoError(t, err)
	_, err = tf.Body(context.Background())
	require.Error(t, err)
	e, ok := err.(exc.Exception)
	require.True(t, ok)
	assert.Equal(t, exc.CodeUnsupportedFileSystemOperation, e.Code())
}
