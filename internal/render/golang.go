package render

import (
	"fmt"
	"go/format"
	"path"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/funvibe/sumshape/internal/defaults"
	"github.com/funvibe/sumshape/internal/derive"
	"github.com/funvibe/sumshape/internal/dispatch"
	"github.com/funvibe/sumshape/internal/oracle"
	"github.com/funvibe/sumshape/internal/subject"
	"github.com/funvibe/sumshape/internal/typesystem"
)

const goTemplate = `// Code generated by sumshape. DO NOT EDIT.

package {{.Package}}
{{- if .Imports}}

import (
{{- range .Imports}}
	"{{.}}"
{{- end}}
)
{{- end}}
{{- range .Decls}}

{{.}}
{{- end}}
`

// goFile collects declarations and the imports they need.
type goFile struct {
	pkgPath string
	imports map[string]bool
	decls   []string
}

// Go renders items as a Go source file in package pkg. Sum types are
// interfaces and variants the types implementing them, so each trait
// method becomes a function '<Enum><Method>(self Enum, ...)' that switches on
// the dynamic type. Results are named: a variant that does not forward
// returns its constructor, or the zero values when it has none.
func Go(pkg, pkgPath string, items []Item) (string, error) {
	f := &goFile{pkgPath: pkgPath, imports: make(map[string]bool)}
	for _, it := range items {
		if it.EmitEnum {
			f.decls = append(f.decls, f.enumDecl(it.Enum)...)
		}
		for _, impl := range it.Impls {
			for _, m := range impl.Methods {
				f.decls = append(f.decls, f.methodFunc(it, impl, m))
			}
		}
		for _, d := range it.Derivations {
			decl, err := f.derivation(it, d)
			if err != nil {
				return "", err
			}
			f.decls = append(f.decls, decl)
		}
	}

	imports := make([]string, 0, len(f.imports))
	for p := range f.imports {
		imports = append(imports, p)
	}
	sort.Strings(imports)

	tmpl, err := template.New("go").Parse(goTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}
	var buf strings.Builder
	err = tmpl.Execute(&buf, struct {
		Package string
		Imports []string
		Decls   []string
	}{pkg, imports, f.decls})
	if err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}

	src, err := format.Source([]byte(buf.String()))
	if err != nil {
		return "", fmt.Errorf("formatting generated code: %w\n%s", err, buf.String())
	}
	return string(src), nil
}

func (f *goFile) enumDecl(e *subject.Enum) []string {
	marker := "is" + e.Name
	decls := []string{fmt.Sprintf("type %s interface {\n%s()\n}", e.Name, marker)}
	for _, v := range e.Variants {
		var fields []string
		for i, fd := range v.Fields() {
			fields = append(fields, goFieldName(fd.Name, i)+" "+f.typeString(fd.Type))
		}
		body := "struct{}"
		if len(fields) > 0 {
			body = "struct {\n" + strings.Join(fields, "\n") + "\n}"
		}
		decls = append(decls,
			fmt.Sprintf("type %s %s", v.Name(), body),
			fmt.Sprintf("func (%s) %s() {}", v.Name(), marker))
	}
	return decls
}

func goFieldName(name string, idx int) string {
	if name != "" {
		return name
	}
	return "F" + strconv.Itoa(idx)
}

// cases lists the dynamic types a variant can have inside the interface.
func (f *goFile) cases(it Item, v subject.Variant) []string {
	name := f.typeString(typesystem.TCon{Name: v.Name(), Module: it.Enum.Module})
	if it.PointerVariants[v.Name()] {
		return []string{"*" + name}
	}
	return []string{name, "*" + name}
}

func (f *goFile) methodFunc(it Item, impl *dispatch.Impl, m dispatch.Method) string {
	enum := impl.Enum.Name
	params := []string{"self " + f.typeString(typesystem.TCon{Name: enum, Module: impl.Enum.Module})}
	for _, p := range m.Params {
		params = append(params, p.Name+" "+f.typeString(p.Type))
	}

	var results []string
	switch ret := m.Resolved.(type) {
	case typesystem.TTuple:
		for i, t := range ret.Elements {
			results = append(results, fmt.Sprintf("r%d %s", i, f.typeString(t)))
		}
	default:
		results = append(results, "r0 "+f.typeString(ret))
	}

	forwards := false
	for _, arm := range m.Arms {
		if arm.Kind == dispatch.Forward {
			forwards = true
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "// %s%s dispatches %s.%s.\n", enum, m.Name, impl.Bound.Trait, m.Name)
	fmt.Fprintf(&b, "func %s%s(%s)", enum, m.Name, strings.Join(params, ", "))
	if len(results) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(results, ", "))
	}
	b.WriteString(" {\n")
	if len(m.Arms) > 0 {
		if forwards {
			b.WriteString("switch arm := self.(type) {\n")
		} else {
			b.WriteString("switch self.(type) {\n")
		}
		for _, arm := range m.Arms {
			switch arm.Kind {
			case dispatch.Forward:
				call := fmt.Sprintf("arm.%s.%s(%s)", goFieldName(arm.FieldName, arm.Field), m.Name, paramNames(m))
				// One case per type so 'arm' is typed.
				for _, c := range f.cases(it, arm.Variant) {
					fmt.Fprintf(&b, "case %s:\n%s\n", c, goReturn(call, len(results)))
				}
			case dispatch.Default:
				fmt.Fprintf(&b, "case %s:\n%s\n", strings.Join(f.cases(it, arm.Variant), ", "), goDefault(arm.Value, len(results)))
			}
		}
		b.WriteString("}\n")
	}
	b.WriteString("return\n}")
	return b.String()
}

// goDefault returns the statement of a default arm. Constructors are
// returned explicitly. Any other default is the zero value the named results
// already hold.
func goDefault(v defaults.Expr, results int) string {
	if results == 0 {
		return "return"
	}
	values := []defaults.Expr{v}
	if v.Kind == defaults.TupleValue && len(v.Elems) == results {
		values = v.Elems
	}
	out := make([]string, results)
	explicit := false
	for i := range out {
		out[i] = "r" + strconv.Itoa(i)
		if i < len(values) && values[i].Kind == defaults.CtorCall && values[i].Ctor.Capability != oracle.ZeroCapability {
			out[i] = values[i].Ctor.Expr
			explicit = true
		}
	}
	if !explicit {
		return "return"
	}
	return "return " + strings.Join(out, ", ")
}

func goReturn(call string, results int) string {
	if results == 0 {
		return call + "\nreturn"
	}
	return "return " + call
}

func (f *goFile) derivation(it Item, d *derive.Derivation) (string, error) {
	if d.Kind != derive.ToString && d.Kind != derive.Display {
		return "", unsupported("go", d.Kind)
	}
	enum := d.Enum.Name
	var b strings.Builder
	fmt.Fprintf(&b, "// %sString returns the text of each %s variant.\n", enum, enum)
	fmt.Fprintf(&b, "func %sString(self %s) string {\n", enum, f.typeString(typesystem.TCon{Name: enum, Module: d.Enum.Module}))
	if len(d.Arms) > 0 {
		b.WriteString("switch self.(type) {\n")
		for _, arm := range d.Arms {
			fmt.Fprintf(&b, "case %s:\nreturn %s\n", strings.Join(f.cases(it, arm.Variant), ", "), arm.Expr)
		}
		b.WriteString("}\n")
	}
	fmt.Fprintf(&b, "return %s\n}", d.Fallback)
	return b.String(), nil
}

// typeString prints t in Go syntax, recording the imports it needs.
func (f *goFile) typeString(t typesystem.Type) string {
	switch typ := t.(type) {
	case nil:
		return ""
	case typesystem.TCon:
		if typ.Module == "" || typ.Module == f.pkgPath {
			return typ.Name
		}
		f.imports[typ.Module] = true
		return path.Base(typ.Module) + "." + typ.Name
	case typesystem.TRef:
		return "*" + f.typeString(typ.Elem)
	case typesystem.TSlice:
		return "[]" + f.typeString(typ.Elem)
	case typesystem.TArray:
		return "[" + strconv.FormatInt(typ.Len, 10) + "]" + f.typeString(typ.Elem)
	case typesystem.TApp:
		args := make([]string, len(typ.Args))
		for i, a := range typ.Args {
			args[i] = f.typeString(a)
		}
		switch typesystem.HeadName(typ) {
		case "map":
			if len(args) == 2 {
				return "map[" + args[0] + "]" + args[1]
			}
		case "chan":
			if len(args) == 1 {
				return "chan " + args[0]
			}
		}
		return f.typeString(typ.Constructor) + "[" + strings.Join(args, ", ") + "]"
	case typesystem.TTuple:
		if len(typ.Elements) == 0 {
			return "struct{}"
		}
		parts := make([]string, len(typ.Elements))
		for i, e := range typ.Elements {
			parts[i] = f.typeString(e)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		return t.String()
	}
}
