// Package rustsrc reads sum types and trait definitions from Rust source
// with tree-sitter. An enum is checked when it carries a shape attribute:
//
//	#[penum((T) | () where T: ^Trait)]
//	enum Foo { A(i32), B }
//
// Trait impls and '#[derive(...)]' attributes on non-generic types become
// capability facts; 'impl Default for X' also gives X a constructor.
//
// Expression derivations are requested with '#[penum::to_string]',
// '#[penum::fmt]', '#[penum::into(T)]', '#[penum::deref(T)]' and
// '#[penum::static_str]'; the variant discriminants are the expressions.
package rustsrc

import (
	"context"
	"fmt"
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
	"go.uber.org/zap"

	"github.com/funvibe/sumshape/internal/config"
	"github.com/funvibe/sumshape/internal/oracle"
	"github.com/funvibe/sumshape/internal/parser"
	"github.com/funvibe/sumshape/internal/subject"
	"github.com/funvibe/sumshape/internal/traits"
	"github.com/funvibe/sumshape/internal/typesystem"
)

// deriveAttrs maps derivation attribute names to derive kinds.
var deriveAttrs = map[string]string{
	"to_string":  "ToString",
	"fmt":        "Display",
	"into":       "Into",
	"deref":      "Deref",
	"static_str": "StaticStr",
}

// File is what one Rust source file contributes.
type File struct {
	Definitions []*subject.Definition
	Traits      []*traits.Blueprint
	Facts       *oracle.Facts
}

// ParseFile reads and parses a Rust source file.
func ParseFile(ctx context.Context, path string, logger *zap.Logger) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(ctx, path, content, logger)
}

// Parse extracts shape-annotated enums and all traits from content.
func Parse(ctx context.Context, path string, content []byte, logger *zap.Logger) (*File, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := sitter.NewParser()
	p.SetLanguage(rust.GetLanguage())

	tree, err := p.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	defer tree.Close()

	w := &walker{path: path, content: content, out: &File{Facts: oracle.NewFacts()}}
	if err := w.walk(tree.RootNode(), ""); err != nil {
		return nil, err
	}
	logger.Named("rustsrc").Debug("file parsed",
		zap.String("path", path),
		zap.Int("enums", len(w.out.Definitions)),
		zap.Int("traits", len(w.out.Traits)),
		zap.Int("fact_types", len(w.out.Facts.Types())),
		zap.Int("skipped_impls", w.skipped))
	return w.out, nil
}

type walker struct {
	path    string
	content []byte
	out     *File
	skipped int
}

func (w *walker) text(n *sitter.Node) string {
	return string(w.content[n.StartByte():n.EndByte()])
}

func (w *walker) errorf(n *sitter.Node, format string, args ...any) error {
	return fmt.Errorf("%s:%d: %s", w.path, n.StartPoint().Row+1, fmt.Sprintf(format, args...))
}

// walk visits the items of a source file or module body. Attributes are
// siblings preceding the item they annotate.
func (w *walker) walk(node *sitter.Node, module string) error {
	var attrs []*sitter.Node
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "attribute_item":
			attrs = append(attrs, child)
			continue
		case "line_comment", "block_comment":
			continue
		case "enum_item":
			if err := w.derives(child, attrs); err != nil {
				return err
			}
			if err := w.enum(child, attrs, module); err != nil {
				return err
			}
		case "struct_item":
			if err := w.derives(child, attrs); err != nil {
				return err
			}
		case "impl_item":
			w.impl(child)
		case "trait_item":
			bp, err := parser.ParseTrait(w.text(child))
			if err != nil {
				return w.errorf(child, "%v", err)
			}
			if module != "" {
				bp.Path = module + "::" + bp.Name
			}
			w.out.Traits = append(w.out.Traits, bp)
		case "mod_item":
			if body := child.ChildByFieldName("body"); body != nil {
				name := w.text(child.ChildByFieldName("name"))
				if module != "" {
					name = module + "::" + name
				}
				if err := w.walk(body, name); err != nil {
					return err
				}
			}
		}
		attrs = nil
	}
	return nil
}

func (w *walker) enum(node *sitter.Node, attrs []*sitter.Node, module string) error {
	def := &subject.Definition{Origin: "rust", File: w.path, Line: int(node.StartPoint().Row) + 1}
	shaped := false
	for _, a := range attrs {
		name, args := splitAttribute(w.text(a))
		name = strings.TrimPrefix(name, "penum::")
		switch {
		case isShapeAttribute(name):
			def.Pattern = args
			shaped = true
		case deriveAttrs[name] != "":
			def.Derives = append(def.Derives, subject.DeriveSpec{Trait: deriveAttrs[name], Target: args})
		}
	}
	if !shaped {
		return nil
	}

	enum := &subject.Enum{Name: w.text(node.ChildByFieldName("name")), Module: module}
	if params := node.ChildByFieldName("type_parameters"); params != nil {
		enum.Generics = w.typeParams(params)
	}
	body := node.ChildByFieldName("body")
	for i := 0; body != nil && i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		if child.Type() != "enum_variant" {
			continue
		}
		v, err := w.variant(child)
		if err != nil {
			return err
		}
		enum.Variants = append(enum.Variants, v)
	}
	def.Enum = enum
	w.out.Definitions = append(w.out.Definitions, def)
	return nil
}

// derives records the traits named in '#[derive(...)]' for a type without
// generic parameters.
func (w *walker) derives(node *sitter.Node, attrs []*sitter.Node) error {
	if node.ChildByFieldName("type_parameters") != nil {
		return nil
	}
	t := typesystem.Named(w.text(node.ChildByFieldName("name")))
	for _, a := range attrs {
		name, args := splitAttribute(w.text(a))
		if name != "derive" {
			continue
		}
		for _, part := range strings.Split(args, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			b, err := parser.ParseBound(part)
			if err != nil {
				return w.errorf(a, "derive %q: %v", part, err)
			}
			w.record(t, b)
		}
	}
	return nil
}

// impl records 'impl Trait for Type'. Inherent, negative and generic impls
// are ignored, and so are impls whose header does not parse.
func (w *walker) impl(node *sitter.Node) {
	trait := node.ChildByFieldName("trait")
	if trait == nil {
		return
	}
	if node.ChildByFieldName("type_parameters") != nil {
		w.skipped++
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == "!" {
			return
		}
	}
	t, err := parser.ParseType(w.text(node.ChildByFieldName("type")))
	if err != nil {
		w.skipped++
		return
	}
	b, err := parser.ParseBound(w.text(trait))
	if err != nil {
		w.skipped++
		return
	}
	body := node.ChildByFieldName("body")
	for i := 0; body != nil && i < int(body.NamedChildCount()); i++ {
		item := body.NamedChild(i)
		if item.Type() != "type_item" {
			continue
		}
		at, err := parser.ParseType(w.text(item.ChildByFieldName("type")))
		if err != nil {
			w.skipped++
			return
		}
		b.Assoc = append(b.Assoc, typesystem.AssocBinding{Name: w.text(item.ChildByFieldName("name")), Type: at})
	}
	w.record(t, b)
}

func (w *walker) record(t typesystem.Type, b typesystem.Bound) {
	w.out.Facts.Implement(t, b)
	trait := b.Trait
	if i := strings.LastIndex(trait, "::"); i >= 0 {
		trait = trait[i+2:]
	}
	if trait == config.DefaultTraitName {
		w.out.Facts.Construct(t, oracle.Constructor{Expr: config.DefaultCallExpr, Capability: config.DefaultTraitName})
	}
}

func (w *walker) typeParams(node *sitter.Node) []string {
	var names []string
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "type_identifier":
			names = append(names, w.text(child))
		case "constrained_type_parameter", "optional_type_parameter":
			left := child.ChildByFieldName("left")
			if left == nil {
				left = child.ChildByFieldName("name")
			}
			if left != nil && left.Type() == "type_identifier" {
				names = append(names, w.text(left))
			}
		}
	}
	return names
}

func (w *walker) variant(node *sitter.Node) (subject.Variant, error) {
	name := w.text(node.ChildByFieldName("name"))
	var v subject.Variant
	body := node.ChildByFieldName("body")
	switch {
	case body == nil:
		v = subject.Unit(name)
	case body.Type() == "ordered_field_declaration_list":
		var types []typesystem.Type
		for i := 0; i < int(body.NamedChildCount()); i++ {
			child := body.NamedChild(i)
			switch child.Type() {
			case "visibility_modifier", "attribute_item", "line_comment", "block_comment":
				continue
			}
			t, err := parser.ParseType(w.text(child))
			if err != nil {
				return subject.Variant{}, w.errorf(child, "variant %s: %v", name, err)
			}
			types = append(types, t)
		}
		v = subject.Tuple(name, types...)
	default:
		var fields []subject.Field
		for i := 0; i < int(body.NamedChildCount()); i++ {
			child := body.NamedChild(i)
			if child.Type() != "field_declaration" {
				continue
			}
			fname := w.text(child.ChildByFieldName("name"))
			t, err := parser.ParseType(w.text(child.ChildByFieldName("type")))
			if err != nil {
				return subject.Variant{}, w.errorf(child, "variant %s: field %s: %v", name, fname, err)
			}
			fields = append(fields, subject.Field{Name: fname, Type: t})
		}
		v = subject.Struct(name, fields...)
	}
	if value := node.ChildByFieldName("value"); value != nil {
		v = v.WithDiscriminant(w.text(value))
	}
	return v, nil
}

func isShapeAttribute(name string) bool {
	for _, n := range config.RustAttributeNames {
		if name == n {
			return true
		}
	}
	return false
}

// splitAttribute splits '#[name(args)]' (or '[args]', '{args}') into its
// name and argument text.
func splitAttribute(src string) (string, string) {
	src = strings.TrimSpace(src)
	src = strings.TrimPrefix(src, "#")
	src = strings.TrimSpace(src)
	src = strings.TrimSuffix(strings.TrimPrefix(src, "["), "]")
	i := strings.IndexAny(src, "([{")
	if i < 0 {
		return strings.TrimSpace(src), ""
	}
	name := strings.TrimSpace(src[:i])
	args := strings.TrimSpace(src[i:])
	if len(args) >= 2 {
		args = args[1 : len(args)-1]
	}
	return name, strings.TrimSpace(args)
}
