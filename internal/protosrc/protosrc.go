// Package protosrc turns protobuf oneofs into sum types. Each oneof becomes
// an enum with one single-field tuple variant per choice, typed the way prost
// generates Rust code for it.
package protosrc

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"go.uber.org/zap"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/funvibe/sumshape/internal/subject"
	"github.com/funvibe/sumshape/internal/typesystem"
)

// Oneof is the check requested for one oneof, keyed by its fully qualified
// name ("geo.Shape.kind").
type Oneof struct {
	Pattern string
	Derives []subject.DeriveSpec
}

// Loader parses .proto files and extracts the requested oneofs.
type Loader struct {
	ImportPaths []string
	Logger      *zap.Logger
}

// Load parses files and returns one definition per requested oneof, in
// file then declaration order. Requesting a oneof that does not exist, or a
// synthetic one backing a proto3 'optional' field, is an error.
func (l *Loader) Load(files []string, oneofs map[string]Oneof) ([]*subject.Definition, error) {
	logger := l.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("protosrc")

	parser := protoparse.Parser{
		ImportPaths:           l.ImportPaths,
		IncludeSourceCodeInfo: true,
	}
	fds, err := parser.ParseFiles(files...)
	if err != nil {
		return nil, fmt.Errorf("parsing proto: %w", err)
	}

	found := make(map[string]bool, len(oneofs))
	var defs []*subject.Definition
	for _, fd := range fds {
		for _, md := range allMessages(fd.GetMessageTypes()) {
			for _, oo := range md.GetOneOfs() {
				name := oo.GetFullyQualifiedName()
				spec, ok := oneofs[name]
				if !ok || oo.IsSynthetic() {
					continue
				}
				found[name] = true
				defs = append(defs, definition(fd, md, oo, spec))
				logger.Debug("oneof loaded",
					zap.String("oneof", name),
					zap.Int("choices", len(oo.GetChoices())))
			}
		}
	}

	var missing []string
	for name := range oneofs {
		if !found[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("oneof not found in %s: %s", strings.Join(files, ", "), strings.Join(missing, ", "))
	}
	return defs, nil
}

func definition(fd *desc.FileDescriptor, md *desc.MessageDescriptor, oo *desc.OneOfDescriptor, spec Oneof) *subject.Definition {
	enum := &subject.Enum{
		Name:   camel(oo.GetName()),
		Module: snake(md.GetName()),
	}
	for _, choice := range oo.GetChoices() {
		enum.Variants = append(enum.Variants, subject.Tuple(camel(choice.GetName()), rustType(choice)))
	}

	def := &subject.Definition{
		Enum:    enum,
		Pattern: spec.Pattern,
		Derives: spec.Derives,
		Origin:  "proto",
		File:    fd.GetName(),
	}
	if loc := oo.GetSourceInfo(); loc != nil && len(loc.GetSpan()) > 0 {
		def.Line = int(loc.GetSpan()[0]) + 1
	}
	return def
}

func allMessages(mds []*desc.MessageDescriptor) []*desc.MessageDescriptor {
	var out []*desc.MessageDescriptor
	for _, md := range mds {
		out = append(out, md)
		out = append(out, allMessages(md.GetNestedMessageTypes())...)
	}
	return out
}

// rustType maps a field to the type prost generates for it. Enum fields are
// carried as i32.
func rustType(fd *desc.FieldDescriptor) typesystem.Type {
	switch fd.GetType() {
	case descriptorpb.FieldDescriptorProto_TYPE_DOUBLE:
		return typesystem.Named("f64")
	case descriptorpb.FieldDescriptorProto_TYPE_FLOAT:
		return typesystem.Named("f32")
	case descriptorpb.FieldDescriptorProto_TYPE_INT32,
		descriptorpb.FieldDescriptorProto_TYPE_SINT32,
		descriptorpb.FieldDescriptorProto_TYPE_SFIXED32,
		descriptorpb.FieldDescriptorProto_TYPE_ENUM:
		return typesystem.Named("i32")
	case descriptorpb.FieldDescriptorProto_TYPE_INT64,
		descriptorpb.FieldDescriptorProto_TYPE_SINT64,
		descriptorpb.FieldDescriptorProto_TYPE_SFIXED64:
		return typesystem.Named("i64")
	case descriptorpb.FieldDescriptorProto_TYPE_UINT32,
		descriptorpb.FieldDescriptorProto_TYPE_FIXED32:
		return typesystem.Named("u32")
	case descriptorpb.FieldDescriptorProto_TYPE_UINT64,
		descriptorpb.FieldDescriptorProto_TYPE_FIXED64:
		return typesystem.Named("u64")
	case descriptorpb.FieldDescriptorProto_TYPE_BOOL:
		return typesystem.Named("bool")
	case descriptorpb.FieldDescriptorProto_TYPE_STRING:
		return typesystem.Named("String")
	case descriptorpb.FieldDescriptorProto_TYPE_BYTES:
		return typesystem.App("Vec", typesystem.Named("u8"))
	default:
		return typesystem.Named(fd.GetMessageType().GetName())
	}
}

// camel converts snake_case to UpperCamelCase.
func camel(s string) string {
	var b strings.Builder
	upper := true
	for _, r := range s {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			b.WriteString(strings.ToUpper(string(r)))
			upper = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// snake converts UpperCamelCase to snake_case.
func snake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
