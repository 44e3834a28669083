package render

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/funvibe/sumshape/internal/derive"
	"github.com/funvibe/sumshape/internal/dispatch"
	"github.com/funvibe/sumshape/internal/shape"
	"github.com/funvibe/sumshape/internal/subject"
	"github.com/funvibe/sumshape/internal/typesystem"
	"github.com/funvibe/sumshape/internal/verify"
)

const rustTemplate = `// Code generated by sumshape. DO NOT EDIT.
{{- range .}}
{{- if .Enum}}

{{.Enum}}
{{- end}}
{{- range .Checks}}

{{.}}
{{- end}}
{{- range .Blocks}}

{{.}}
{{- end}}
{{- end}}
`

type rustItem struct {
	Enum   string
	Checks []string
	Blocks []string
}

// Rust renders items as Rust source.
func Rust(items []Item) (string, error) {
	data := make([]rustItem, 0, len(items))
	for _, it := range items {
		ri := rustItem{}
		asserts := uniqueAssertions(it.Assertions)
		if it.EmitEnum {
			ri.Enum = rustEnum(enumForOutput(it), asserts)
		} else {
			for _, a := range asserts {
				ri.Checks = append(ri.Checks, rustAssertion(a))
			}
		}
		for _, impl := range it.Impls {
			ri.Blocks = append(ri.Blocks, rustImpl(impl))
		}
		for _, d := range it.Derivations {
			blocks, err := rustDerivation(d)
			if err != nil {
				return "", err
			}
			ri.Blocks = append(ri.Blocks, blocks...)
		}
		data = append(data, ri)
	}

	tmpl, err := template.New("rust").Parse(rustTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

// enumForOutput prefers the enum a derivation stripped of its fallback
// variant and expressions.
func enumForOutput(it Item) *subject.Enum {
	for _, d := range it.Derivations {
		return d.Enum
	}
	return it.Enum
}

func rustEnum(e *subject.Enum, asserts []verify.Assertion) string {
	var b strings.Builder
	fmt.Fprintf(&b, "pub enum %s%s", e.Name, rustGenerics(e))
	if len(asserts) > 0 {
		b.WriteString("\nwhere")
		for _, a := range asserts {
			fmt.Fprintf(&b, "\n    %s,", a)
		}
		b.WriteString("\n{")
	} else {
		b.WriteString(" {")
	}
	for _, v := range e.Variants {
		b.WriteString("\n    ")
		b.WriteString(rustVariantDecl(v))
		b.WriteString(",")
	}
	b.WriteString("\n}")
	return b.String()
}

func rustVariantDecl(v subject.Variant) string {
	switch v.Kind() {
	case shape.Tuple:
		parts := make([]string, v.Arity())
		for i, f := range v.Fields() {
			parts[i] = f.Type.String()
		}
		return v.Name() + "(" + strings.Join(parts, ", ") + ")"
	case shape.Struct:
		parts := make([]string, v.Arity())
		for i, f := range v.Fields() {
			parts[i] = f.Name + ": " + f.Type.String()
		}
		return v.Name() + " { " + strings.Join(parts, ", ") + " }"
	default:
		if v.Discriminant() != "" {
			return v.Name() + " = " + v.Discriminant()
		}
		return v.Name()
	}
}

func rustAssertion(a verify.Assertion) string {
	return fmt.Sprintf("const _: fn() = || {\n    fn assert_bound<T: ?Sized + %s>() {}\n    assert_bound::<%s>();\n};", a.Bound, a.Type)
}

func rustGenerics(e *subject.Enum) string {
	if len(e.Generics) == 0 {
		return ""
	}
	return "<" + strings.Join(e.Generics, ", ") + ">"
}

func rustImplHeader(e *subject.Enum, trait string) string {
	g := rustGenerics(e)
	return fmt.Sprintf("impl%s %s for %s%s", g, trait, e.Name, g)
}

func rustImpl(impl *dispatch.Impl) string {
	var b strings.Builder
	// Associated types go into the body, not the header.
	trait := typesystem.Bound{Trait: impl.Bound.Trait, Args: impl.Bound.Args}
	b.WriteString(rustImplHeader(impl.Enum, trait.String()))
	b.WriteString(" {")
	for _, a := range impl.Instance.Assoc {
		fmt.Fprintf(&b, "\n    type %s = %s;", a.Name, a.Type)
	}
	for _, m := range impl.Methods {
		b.WriteString("\n\n    ")
		b.WriteString(m.Signature())
		b.WriteString(" {\n        match self {")
		for _, arm := range m.Arms {
			fmt.Fprintf(&b, "\n            %s => %s,", rustArmPattern(impl.Enum.Name, arm), rustArmBody(m, arm))
		}
		b.WriteString("\n        }\n    }")
	}
	b.WriteString("\n}")
	return b.String()
}

// rustArmPattern binds the forwarded field as 'val' and ignores the rest.
func rustArmPattern(enum string, arm dispatch.Plan) string {
	v := arm.Variant
	path := enum + "::" + v.Name()
	if arm.Kind != dispatch.Forward {
		return rustWildcardPattern(enum, v)
	}
	if v.Kind() == shape.Struct {
		if v.Arity() > 1 {
			return fmt.Sprintf("%s { %s: val, .. }", path, arm.FieldName)
		}
		return fmt.Sprintf("%s { %s: val }", path, arm.FieldName)
	}
	parts := make([]string, 0, arm.Field+2)
	for i := 0; i < arm.Field; i++ {
		parts = append(parts, "_")
	}
	parts = append(parts, "val")
	if arm.Field < v.Arity()-1 {
		parts = append(parts, "..")
	}
	return path + "(" + strings.Join(parts, ", ") + ")"
}

func rustWildcardPattern(enum string, v subject.Variant) string {
	path := enum + "::" + v.Name()
	switch v.Kind() {
	case shape.Tuple:
		return path + "(..)"
	case shape.Struct:
		return path + " { .. }"
	default:
		return path
	}
}

func rustArmBody(m dispatch.Method, arm dispatch.Plan) string {
	if arm.Kind == dispatch.Forward {
		return fmt.Sprintf("val.%s(%s)", m.Name, paramNames(m))
	}
	return arm.Value.String()
}

func rustDerivation(d *derive.Derivation) ([]string, error) {
	e := d.Enum
	var header, sig, wrap string
	switch d.Kind {
	case derive.ToString:
		header, sig, wrap = rustImplHeader(e, "std::string::ToString"), "fn to_string(&self) -> String", "format!(%s)"
	case derive.Display:
		header, sig, wrap = rustImplHeader(e, "std::fmt::Display"), "fn fmt(&self, f: &mut std::fmt::Formatter<'_>) -> std::fmt::Result", "write!(f, %s)"
	case derive.Into:
		header, sig, wrap = rustImplHeader(e, "Into<"+d.Target.String()+">"), "fn into(self) -> "+d.Target.String(), "%s"
	case derive.Deref, derive.StaticStr:
		header, sig, wrap = rustImplHeader(e, "std::ops::Deref"), "fn deref(&self) -> &Self::Target", "%s"
	default:
		return nil, unsupported("rust", d.Kind)
	}

	var b strings.Builder
	b.WriteString(header + " {")
	if d.Kind == derive.Deref || d.Kind == derive.StaticStr {
		fmt.Fprintf(&b, "\n    type Target = %s;\n", d.Target)
	}
	fmt.Fprintf(&b, "\n    %s {\n        match self {", sig)
	for _, arm := range d.Arms {
		fmt.Fprintf(&b, "\n            %s => %s,", rustWildcardPattern(e.Name, arm.Variant), fmt.Sprintf(wrap, arm.Expr))
	}
	if !d.Exhaustive() {
		fmt.Fprintf(&b, "\n            _ => %s,", fmt.Sprintf(wrap, d.Fallback))
	}
	b.WriteString("\n        }\n    }\n}")
	blocks := []string{b.String()}

	if d.Kind == derive.StaticStr {
		g := rustGenerics(e)
		blocks = append(blocks,
			rustImplHeader(e, "AsRef<str>")+" {\n    fn as_ref(&self) -> &str {\n        &**self\n    }\n}",
			fmt.Sprintf("impl%s %s%s {\n    pub fn as_str(&self) -> &str {\n        &**self\n    }\n\n    pub fn static_str(&self) -> &str {\n        &**self\n    }\n}", g, e.Name, g),
		)
	}
	return blocks, nil
}
