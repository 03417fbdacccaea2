// © 2026 Polyfront Authors
//
// SPDX-License-Identifier: Apache-2.0

package protobuf

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"gopkg.polyfront.org/frontend.go/internal/ast"
	"gopkg.polyfront.org/frontend.go/internal/exc"
	"gopkg.polyfront.org/frontend.go/internal/lang"
)

func typeDefOf(t *testing.T, s ast.Stmt) *ast.TypeDef {
	t.Helper()
	def, ok := s.(*ast.DefStmt).Def.(*ast.TypeDef)
	require.True(t, ok, "expected a type definition")
	return def
}

func TestDescriptorMessageBecomesProduct(t *testing.T) {
	t.Parallel()
	fd := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("widget.proto"),
		Package: proto.String("shop.v1"),
		MessageType: []*descriptorpb.DescriptorProto{{
			Name: proto.String("Widget"),
			Field: []*descriptorpb.FieldDescriptorProto{
				{
					Name: proto.String("id"),
					Type: descriptorpb.FieldDescriptorProto_TYPE_INT64.Enum(),
				},
				{
					Name: proto.String("tags"),
					Type: descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum(),
					Label: descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum(),
				},
				{
					Name:     proto.String("parent"),
					Type:     descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum(),
					TypeName: proto.String(".shop.v1.Widget"),
				},
			},
		}},
	}
	prog, err := FromFileDescriptorProto("/test/widget.proto", fd)
	require.NoError(t, err)
	require.Len(t, prog.Stmts, 1)

	def := typeDefOf(t, prog.Stmts[0])
	assert.Equal(t, "Widget", def.Name.Value)
	assert.Equal(t, ast.ResolvedGlobal, def.Name.Resolution.Kind)
	assert.Equal(t, "shop.v1", def.Name.Resolution.Qualifier)
	assert.True(t, def.Name.Info.Synthetic)

	body := def.Body.(*ast.AndType)
	require.Len(t, body.Fields, 3)
	assert.Equal(t, "int64", body.Fields[0].Type.(*ast.TypeName).Name.Value)
	repeated := body.Fields[1].Type.(*ast.ArrayType)
	assert.Equal(t, "string", repeated.Elem.(*ast.TypeName).Name.Value)
	assert.Equal(t, "shop.v1.Widget", body.Fields[2].Type.(*ast.TypeName).Name.Value)
}

func TestDescriptorEnumBecomesConstantSum(t *testing.T) {
	t.Parallel()
	fd := &descriptorpb.FileDescriptorProto{
		Name: proto.String("state.proto"),
		EnumType: []*descriptorpb.EnumDescriptorProto{{
			Name: proto.String("State"),
			Value: []*descriptorpb.EnumValueDescriptorProto{
				{Name: proto.String("STATE_UNSPECIFIED"), Number: proto.Int32(0)},
				{Name: proto.String("STATE_ACTIVE"), Number: proto.Int32(1)},
			},
		}},
	}
	prog, err := FromFileDescriptorProto("/test/state.proto", fd)
	require.NoError(t, err)

	body := typeDefOf(t, prog.Stmts[0]).Body.(*ast.OrType)
	require.Len(t, body.Variants, 2)
	assert.Equal(t, "STATE_ACTIVE", body.Variants[1].Name.Value)
	assert.Equal(t, "1", body.Variants[1].Value.(*ast.Literal).Value)
}

func TestDescriptorNestedTypesPromote(t *testing.T) {
	t.Parallel()
	fd := &descriptorpb.FileDescriptorProto{
		Name: proto.String("outer.proto"),
		MessageType: []*descriptorpb.DescriptorProto{{
			Name: proto.String("Outer"),
			NestedType: []*descriptorpb.DescriptorProto{{
				Name: proto.String("Inner"),
				EnumType: []*descriptorpb.EnumDescriptorProto{{
					Name:  proto.String("Mode"),
					Value: []*descriptorpb.EnumValueDescriptorProto{{Name: proto.String("MODE_A"), Number: proto.Int32(0)}},
				}},
			}},
		}},
	}
	prog, err := FromFileDescriptorProto("/test/outer.proto", fd)
	require.NoError(t, err)

	names := []string{}
	for _, s := range prog.Stmts {
		names = append(names, typeDefOf(t, s).Name.Value)
	}
	assert.Equal(t, []string{"Outer", "Outer_Inner", "Outer_Inner_Mode"}, names)
}

func TestDescriptorServiceBecomesAbstractClass(t *testing.T) {
	t.Parallel()
	fd := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("api.proto"),
		Package: proto.String("shop.v1"),
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String("Widgets"),
			Method: []*descriptorpb.MethodDescriptorProto{{
				Name:       proto.String("Get"),
				InputType:  proto.String(".shop.v1.GetRequest"),
				OutputType: proto.String(".shop.v1.GetResponse"),
			}},
		}},
	}
	prog, err := FromFileDescriptorProto("/test/api.proto", fd)
	require.NoError(t, err)

	class := prog.Stmts[0].(*ast.DefStmt).Def.(*ast.ClassDef)
	assert.Equal(t, "Widgets", class.Name.Value)
	require.Len(t, class.Defs, 1)
	method := class.Defs[0].(*ast.FnDef)
	assert.Equal(t, "Get", method.Name.Value)
	assert.Nil(t, method.Body, "service methods are signatures only")
	require.Len(t, method.Params, 1)
	assert.Equal(t, "shop.v1.GetRequest", method.Params[0].Type.(*ast.TypeName).Name.Value)
	assert.Equal(t, "shop.v1.GetResponse", method.Ret.(*ast.TypeName).Name.Value)
}

// memoryFile serves a source string through the File interface, for
// exercising the protocompile path end to end.
type memoryFile struct {
	uri  string
	body string
}

func (f *memoryFile) Path(ctx context.Context) string {
	return f.uri
}

func (f *memoryFile) Kind(ctx context.Context) lang.FileKind {
	return lang.FileKindProtobuf
}

func (f *memoryFile) Body(ctx context.Context) (lang.FileBody, error) {
	return &memoryBody{remaining: []byte(f.body)}, nil
}

type memoryBody struct {
	remaining []byte
}

func (b *memoryBody) Read(ctx context.Context, size int32) ([]byte, error) {
	if len(b.remaining) == 0 {
		return nil, io.EOF
	}
	n := int(size)
	if n > len(b.remaining) {
		n = len(b.remaining)
	}
	out := b.remaining[:n]
	b.remaining = b.remaining[n:]
	return out, nil
}

func (b *memoryBody) Close(ctx context.Context) error {
	return nil
}

func TestParseProtoSource(t *testing.T) {
	t.Parallel()
	src := `syntax = "proto3";
package shop.v1;

message Widget {
  int64 id = 1;
  repeated string tags = 2;
}

enum State {
  STATE_UNSPECIFIED = 0;
  STATE_ACTIVE = 1;
}
`
	r := exc.NewReporter(nil)
	prog, err := Parse(context.Background(), r, &memoryFile{uri: "/test/widget.proto", body: src})
	require.NoError(t, err)
	require.Empty(t, r.Reported())
	require.Len(t, prog.Stmts, 2)

	widget := typeDefOf(t, prog.Stmts[0])
	assert.Equal(t, "Widget", widget.Name.Value)
	assert.Equal(t, "shop.v1", widget.Name.Resolution.Qualifier)
	assert.Len(t, widget.Body.(*ast.AndType).Fields, 2)

	state := typeDefOf(t, prog.Stmts[1])
	assert.Len(t, state.Body.(*ast.OrType).Variants, 2)
}

func TestParseReportsSyntaxError(t *testing.T) {
	t.Parallel()
	r := exc.NewReporter([]string{exc.CodeProtobufParseError})
	_, err := Parse(context.Background(), r, &memoryFile{uri: "/test/broken.proto", body: "message {"})
	assert.Error(t, err)
	require.NotEmpty(t, r.Reported())
	assert.Equal(t, exc.CodeProtobufParseError, r.Reported()[0].Code())
}
