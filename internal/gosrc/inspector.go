// Package gosrc discovers sum types in Go packages: interfaces carrying a
// '//sumshape:shape' directive, with the named types implementing them as
// variants. It also exposes the loaded interfaces as trait blueprints and
// answers capability questions with go/types.
package gosrc

import (
	"context"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"

	"github.com/funvibe/sumshape/internal/config"
	"github.com/funvibe/sumshape/internal/subject"
	"github.com/funvibe/sumshape/internal/traits"
)

// Directive verbs following config.DirectivePrefix.
const (
	verbShape  = "shape"  // on an interface: the pattern its variants must satisfy
	verbDerive = "derive" // on an interface: 'derive ToString' / 'derive Into u8'
	verbExpr   = "expr"   // on a variant: its expression for derivations
)

// Inspector loads Go packages and extracts sum types from them.
type Inspector struct {
	dir    string
	logger *zap.Logger

	roots  []*packages.Package
	byPath map[string]*packages.Package
	paths  []string // keys of byPath, sorted
}

func NewInspector(dir string, logger *zap.Logger) *Inspector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inspector{
		dir:    dir,
		logger: logger.Named("gosrc"),
		byPath: make(map[string]*packages.Package),
	}
}

// Load loads the packages matching patterns, relative to the inspector's
// directory. Package errors are collected and returned together.
func (ins *Inspector) Load(ctx context.Context, patterns ...string) error {
	cfg := &packages.Config{
		Context: ctx,
		Mode: packages.NeedName |
			packages.NeedFiles |
			packages.NeedTypes |
			packages.NeedTypesInfo |
			packages.NeedSyntax |
			packages.NeedImports |
			packages.NeedDeps,
		Dir: ins.dir,
		Env: append(os.Environ(), "GOWORK=off"),
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return fmt.Errorf("loading packages: %w", err)
	}

	var errs []string
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, fmt.Sprintf("%s: %s", pkg.PkgPath, e.Msg))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("package errors:\n  %s", strings.Join(errs, "\n  "))
	}

	ins.roots = append(ins.roots, pkgs...)
	packages.Visit(pkgs, nil, func(p *packages.Package) {
		if _, ok := ins.byPath[p.PkgPath]; !ok {
			ins.paths = append(ins.paths, p.PkgPath)
		}
		ins.byPath[p.PkgPath] = p
	})
	sort.Strings(ins.paths)
	ins.logger.Debug("packages loaded",
		zap.Strings("patterns", patterns),
		zap.Int("roots", len(pkgs)),
		zap.Int("total", len(ins.byPath)))
	return nil
}

// Files lists the Go files of the loaded packages.
func (ins *Inspector) Files() []string {
	var files []string
	for _, pkg := range ins.roots {
		files = append(files, pkg.GoFiles...)
	}
	return files
}

// SumTypes returns one definition per directive-marked interface, in
// package then source order.
func (ins *Inspector) SumTypes() ([]*subject.Definition, error) {
	var defs []*subject.Definition
	for _, pkg := range ins.roots {
		for _, file := range pkg.Syntax {
			for _, decl := range file.Decls {
				gd, ok := decl.(*ast.GenDecl)
				if !ok || gd.Tok != token.TYPE {
					continue
				}
				for _, spec := range gd.Specs {
					ts := spec.(*ast.TypeSpec)
					dirs := directives(docOf(gd, ts))
					if _, ok := dirs[verbShape]; !ok {
						continue
					}
					def, err := ins.sumType(pkg, ts, dirs)
					if err != nil {
						return nil, err
					}
					defs = append(defs, def)
				}
			}
		}
	}
	return defs, nil
}

func (ins *Inspector) sumType(pkg *packages.Package, ts *ast.TypeSpec, dirs map[string][]string) (*subject.Definition, error) {
	pos := pkg.Fset.Position(ts.Pos())
	obj, ok := pkg.TypesInfo.Defs[ts.Name].(*types.TypeName)
	if !ok {
		return nil, fmt.Errorf("%s: %s is not a type", pos, ts.Name.Name)
	}
	named, ok := obj.Type().(*types.Named)
	if !ok {
		return nil, fmt.Errorf("%s: %s is an alias", pos, obj.Name())
	}
	iface, ok := named.Underlying().(*types.Interface)
	if !ok {
		return nil, fmt.Errorf("%s: %s: shape directive on a non-interface type", pos, obj.Name())
	}
	if named.TypeParams().Len() > 0 {
		return nil, fmt.Errorf("%s: %s: generic sum types are not supported", pos, obj.Name())
	}
	if iface.NumMethods() == 0 {
		return nil, fmt.Errorf("%s: %s: a sum type interface needs at least one method", pos, obj.Name())
	}

	def := &subject.Definition{
		Enum:            &subject.Enum{Name: obj.Name(), Module: pkg.PkgPath},
		Pattern:         dirs[verbShape][0],
		Origin:          "go",
		File:            pos.Filename,
		Line:            pos.Line,
		PointerVariants: make(map[string]bool),
	}
	for _, d := range dirs[verbDerive] {
		trait, target, _ := strings.Cut(d, " ")
		def.Derives = append(def.Derives, subject.DeriveSpec{Trait: trait, Target: strings.TrimSpace(target)})
	}

	for _, file := range pkg.Syntax {
		for _, decl := range file.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok || gd.Tok != token.TYPE {
				continue
			}
			for _, spec := range gd.Specs {
				vs := spec.(*ast.TypeSpec)
				v, pointer, ok := ins.variant(pkg, vs, named, iface)
				if !ok {
					continue
				}
				if exprs := directives(docOf(gd, vs))[verbExpr]; len(exprs) > 0 {
					v = v.WithDiscriminant(exprs[0])
				}
				def.Enum.Variants = append(def.Enum.Variants, v)
				if pointer {
					def.PointerVariants[v.Name()] = true
				}
			}
		}
	}

	ins.logger.Debug("sum type found",
		zap.String("enum", obj.Name()),
		zap.String("package", pkg.PkgPath),
		zap.Int("variants", len(def.Enum.Variants)))
	return def, nil
}

// variant reports whether ts declares a variant of the sum type, and whether
// only its pointer implements it.
func (ins *Inspector) variant(pkg *packages.Package, ts *ast.TypeSpec, sum *types.Named, iface *types.Interface) (subject.Variant, bool, bool) {
	obj, ok := pkg.TypesInfo.Defs[ts.Name].(*types.TypeName)
	if !ok || obj.IsAlias() {
		return subject.Variant{}, false, false
	}
	named, ok := obj.Type().(*types.Named)
	if !ok || named == sum || named.TypeParams().Len() > 0 {
		return subject.Variant{}, false, false
	}
	if _, isIface := named.Underlying().(*types.Interface); isIface {
		return subject.Variant{}, false, false
	}

	pointer := false
	switch {
	case types.Implements(named, iface):
	case types.Implements(types.NewPointer(named), iface):
		pointer = true
	default:
		return subject.Variant{}, false, false
	}

	st, ok := named.Underlying().(*types.Struct)
	if !ok {
		ins.logger.Debug("skipping non-struct implementation",
			zap.String("type", obj.Name()),
			zap.String("sum", sum.Obj().Name()))
		return subject.Variant{}, false, false
	}
	if st.NumFields() == 0 {
		return subject.Unit(obj.Name()), pointer, true
	}
	fields := make([]subject.Field, st.NumFields())
	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		fields[i] = subject.Field{Name: f.Name(), Type: toType(f.Type())}
	}
	return subject.Struct(obj.Name(), fields...), pointer, true
}

// Blueprints converts the interfaces of the loaded packages and of their
// direct imports into trait blueprints. Unexported interfaces are only
// taken from the loaded packages themselves.
func (ins *Inspector) Blueprints() []*traits.Blueprint {
	seen := make(map[string]bool)
	var out []*traits.Blueprint
	add := func(pkg *types.Package, exportedOnly bool) {
		if seen[pkg.Path()] {
			return
		}
		seen[pkg.Path()] = true
		scope := pkg.Scope()
		for _, name := range scope.Names() {
			obj, ok := scope.Lookup(name).(*types.TypeName)
			if !ok || (exportedOnly && !obj.Exported()) {
				continue
			}
			if bp, ok := ins.blueprint(pkg, obj); ok {
				out = append(out, bp)
			}
		}
	}

	for _, pkg := range ins.roots {
		add(pkg.Types, false)
	}
	for _, pkg := range ins.roots {
		imports := make([]string, 0, len(pkg.Imports))
		for p := range pkg.Imports {
			imports = append(imports, p)
		}
		sort.Strings(imports)
		for _, p := range imports {
			add(pkg.Imports[p].Types, true)
		}
	}
	return out
}

func (ins *Inspector) blueprint(pkg *types.Package, obj *types.TypeName) (*traits.Blueprint, bool) {
	named, ok := obj.Type().(*types.Named)
	if !ok || named.TypeParams().Len() > 0 {
		return nil, false
	}
	iface, ok := named.Underlying().(*types.Interface)
	if !ok || iface.NumMethods() == 0 {
		return nil, false
	}

	bp := &traits.Blueprint{Name: obj.Name(), Path: pkg.Name() + "." + obj.Name()}
	for i := 0; i < iface.NumMethods(); i++ {
		fn := iface.Method(i)
		sig := fn.Type().(*types.Signature)
		if sig.Variadic() {
			ins.logger.Debug("skipping interface with variadic method",
				zap.String("interface", bp.Path),
				zap.String("method", fn.Name()))
			return nil, false
		}
		bp.Methods = append(bp.Methods, method(fn.Name(), sig))
	}
	return bp, true
}

func method(name string, sig *types.Signature) traits.Method {
	m := traits.Method{Name: name, Receiver: traits.ByRef}
	params := sig.Params()
	for i := 0; i < params.Len(); i++ {
		p := params.At(i)
		pname := p.Name()
		if pname == "" || pname == "_" {
			pname = fmt.Sprintf("p%d", i)
		}
		m.Params = append(m.Params, traits.Param{Name: pname, Type: toType(p.Type())})
	}
	m.Return = results(sig.Results())
	return m
}

func docOf(gd *ast.GenDecl, ts *ast.TypeSpec) *ast.CommentGroup {
	if ts.Doc != nil {
		return ts.Doc
	}
	if len(gd.Specs) == 1 {
		return gd.Doc
	}
	return nil
}

// directives groups '//sumshape:<verb> <rest>' lines by verb.
func directives(doc *ast.CommentGroup) map[string][]string {
	out := make(map[string][]string)
	if doc == nil {
		return out
	}
	for _, c := range doc.List {
		rest, ok := strings.CutPrefix(c.Text, config.DirectivePrefix)
		if !ok {
			continue
		}
		verb, arg, _ := strings.Cut(rest, " ")
		out[verb] = append(out[verb], strings.TrimSpace(arg))
	}
	return out
}
