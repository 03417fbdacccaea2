// © 2026 Polyfront Authors
//
// SPDX-License-Identifier: Apache-2.0

package protobuf

import (
	"strconv"
	"strings"

	"google.golang.org/protobuf/types/descriptorpb"

	"gopkg.polyfront.org/frontend.go/internal/ast"
)

// FromFileDescriptorProto lowers a protobuf file descriptor to Generic AST
// type definitions: message → product type, enum → sum of constants,
// service → class of abstract method signatures. Nested message and enum
// types are promoted to the top level under an underscore-joined prefix.
// Descriptors carry no source positions, so every name is synthetic.
func FromFileDescriptorProto(uri string, fd *descriptorpb.FileDescriptorProto) (*ast.Program, error) {
	lw := descriptorLowerer{pkg: fd.GetPackage()}
	out := []ast.Stmt{}

	for _, message := range fd.GetMessageType() {
		out = append(out, &ast.DefStmt{Def: lw.fromMessage("", message)})
	}
	for _, enum := range fd.GetEnumType() {
		out = append(out, &ast.DefStmt{Def: lw.fromEnum("", enum)})
	}
	for _, message := range fd.GetMessageType() {
		out = lw.promoteNested(out, message.GetName()+"_", message)
	}
	for _, service := range fd.GetService() {
		out = append(out, &ast.DefStmt{Def: lw.fromService(service)})
	}
	return &ast.Program{URI: uri, Stmts: out}, nil
}

type descriptorLowerer struct {
	pkg string
}

func (lw descriptorLowerer) globalName(name string) *ast.Name {
	n := ast.SyntheticName(name)
	n.Resolution.Kind = ast.ResolvedGlobal
	n.Resolution.Qualifier = lw.pkg
	return n
}

func (lw descriptorLowerer) promoteNested(out []ast.Stmt, prefix string, message *descriptorpb.DescriptorProto) []ast.Stmt {
	for _, nested := range message.GetNestedType() {
		out = append(out, &ast.DefStmt{Def: lw.fromMessage(prefix, nested)})
	}
	for _, enum := range message.GetEnumType() {
		out = append(out, &ast.DefStmt{Def: lw.fromEnum(prefix, enum)})
	}
	for _, nested := range message.GetNestedType() {
		out = lw.promoteNested(out, prefix+nested.GetName()+"_", nested)
	}
	return out
}

func (lw descriptorLowerer) fromMessage(prefix string, message *descriptorpb.DescriptorProto) ast.Def {
	body := ast.AndType{}
	for _, field := range message.GetField() {
		body.Fields = append(body.Fields, &ast.FieldDef{
			Name: ast.SyntheticName(field.GetName()),
			Type: lw.fromFieldType(field),
		})
	}
	return &ast.TypeDef{Name: lw.globalName(prefix + message.GetName()), Body: &body}
}

func (lw descriptorLowerer) fromEnum(prefix string, enum *descriptorpb.EnumDescriptorProto) ast.Def {
	body := ast.OrType{}
	for _, value := range enum.GetValue() {
		body.Variants = append(body.Variants, &ast.Variant{
			Name: ast.SyntheticName(value.GetName()),
			Value: &ast.Literal{
				Kind:  ast.LiteralInt,
				Value: strconv.FormatInt(int64(value.GetNumber()), 10),
			},
		})
	}
	return &ast.TypeDef{Name: lw.globalName(prefix + enum.GetName()), Body: &body}
}

// fromService lowers a service to a class of abstract methods: one request
// parameter, the response as return type, no bodies.
func (lw descriptorLowerer) fromService(service *descriptorpb.ServiceDescriptorProto) ast.Def {
	out := ast.ClassDef{Name: lw.globalName(service.GetName())}
	for _, method := range service.GetMethod() {
		param := ast.Param{
			Name: ast.SyntheticName("request"),
			Type: messageTypeName(method.GetInputType()),
		}
		param.Name.Resolution.Kind = ast.ResolvedParameter
		out.Defs = append(out.Defs, &ast.FnDef{
			Name:   lw.globalName(method.GetName()),
			Params: []*ast.Param{&param},
			Ret:    messageTypeName(method.GetOutputType()),
		})
	}
	return &out
}

var scalarTypeNames = map[descriptorpb.FieldDescriptorProto_Type]string{
	descriptorpb.FieldDescriptorProto_TYPE_DOUBLE:   "double",
	descriptorpb.FieldDescriptorProto_TYPE_FLOAT:    "float",
	descriptorpb.FieldDescriptorProto_TYPE_INT64:    "int64",
	descriptorpb.FieldDescriptorProto_TYPE_UINT64:   "uint64",
	descriptorpb.FieldDescriptorProto_TYPE_INT32:    "int32",
	descriptorpb.FieldDescriptorProto_TYPE_FIXED64:  "fixed64",
	descriptorpb.FieldDescriptorProto_TYPE_FIXED32:  "fixed32",
	descriptorpb.FieldDescriptorProto_TYPE_BOOL:     "bool",
	descriptorpb.FieldDescriptorProto_TYPE_STRING:   "string",
	descriptorpb.FieldDescriptorProto_TYPE_BYTES:    "bytes",
	descriptorpb.FieldDescriptorProto_TYPE_UINT32:   "uint32",
	descriptorpb.FieldDescriptorProto_TYPE_SFIXED32: "sfixed32",
	descriptorpb.FieldDescriptorProto_TYPE_SFIXED64: "sfixed64",
	descriptorpb.FieldDescriptorProto_TYPE_SINT32:   "sint32",
	descriptorpb.FieldDescriptorProto_TYPE_SINT64:   "sint64",
}

func (lw descriptorLowerer) fromFieldType(field *descriptorpb.FieldDescriptorProto) ast.Type {
	var elem ast.Type
	switch field.GetType() {
	case descriptorpb.FieldDescriptorProto_TYPE_MESSAGE,
		descriptorpb.FieldDescriptorProto_TYPE_ENUM,
		descriptorpb.FieldDescriptorProto_TYPE_GROUP:
		elem = messageTypeName(field.GetTypeName())
	default:
		name, ok := scalarTypeNames[field.GetType()]
		if !ok {
			return &ast.OtherType{Category: field.GetType().String()}
		}
		elem = &ast.TypeName{Name: ast.SyntheticName(name)}
	}
	if field.GetLabel() == descriptorpb.FieldDescriptorProto_LABEL_REPEATED {
		return &ast.ArrayType{Elem: elem}
	}
	return elem
}

// messageTypeName maps a descriptor type reference (".pkg.Message") to a
// plain dotted type name.
func messageTypeName(ref string) ast.Type {
	return &ast.TypeName{Name: ast.SyntheticName(strings.TrimPrefix(ref, "."))}
}
