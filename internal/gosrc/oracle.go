package gosrc

import (
	"go/types"
	"path"
	"strings"
	"sync"

	"github.com/funvibe/sumshape/internal/oracle"
	"github.com/funvibe/sumshape/internal/typesystem"
)

// Oracle answers capability questions from the loaded packages: a type
// satisfies an interface bound when it or its pointer implements it, and
// every Go type has a zero value.
type Oracle struct {
	ins *Inspector
	// go/types instantiation is lazy; serialize queries.
	mu sync.Mutex
}

var _ oracle.Oracle = (*Oracle)(nil)

func (ins *Inspector) Oracle() *Oracle {
	return &Oracle{ins: ins}
}

func (o *Oracle) Satisfies(t typesystem.Type, b typesystem.Bound) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	typ, err := o.ins.lookupType(t)
	if err != nil {
		return false
	}
	iface, err := o.ins.lookupInterface(b)
	if err != nil {
		return false
	}
	if types.Implements(typ, iface) {
		return true
	}
	if _, isPtr := typ.(*types.Pointer); isPtr || types.IsInterface(typ) {
		return false
	}
	return types.Implements(types.NewPointer(typ), iface)
}

func (o *Oracle) DefaultConstructor(t typesystem.Type) (oracle.Constructor, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	typ, err := o.ins.lookupType(t)
	if err != nil {
		return oracle.Constructor{}, false
	}
	return oracle.Constructor{Expr: zeroValue(typ), Capability: oracle.ZeroCapability}, true
}

// lookupType resolves a checker type against the loaded packages and the
// universe scope.
func (ins *Inspector) lookupType(t typesystem.Type) (types.Type, error) {
	switch typ := t.(type) {
	case typesystem.TCon:
		obj := ins.lookupName(typ.Module, typ.Name)
		if tn, ok := obj.(*types.TypeName); ok {
			return tn.Type(), nil
		}
		return nil, typesystem.NewUnknownTypeError(typ.String())
	case typesystem.TRef:
		elem, err := ins.lookupType(typ.Elem)
		if err != nil {
			return nil, err
		}
		return types.NewPointer(elem), nil
	case typesystem.TSlice:
		elem, err := ins.lookupType(typ.Elem)
		if err != nil {
			return nil, err
		}
		return types.NewSlice(elem), nil
	case typesystem.TArray:
		elem, err := ins.lookupType(typ.Elem)
		if err != nil {
			return nil, err
		}
		return types.NewArray(elem, typ.Len), nil
	case typesystem.TApp:
		args := make([]types.Type, len(typ.Args))
		for i, a := range typ.Args {
			arg, err := ins.lookupType(a)
			if err != nil {
				return nil, err
			}
			args[i] = arg
		}
		switch typesystem.HeadName(typ) {
		case "map":
			if len(args) == 2 {
				return types.NewMap(args[0], args[1]), nil
			}
		case "chan":
			if len(args) == 1 {
				return types.NewChan(types.SendRecv, args[0]), nil
			}
		}
		head, err := ins.lookupType(typ.Constructor)
		if err != nil {
			return nil, err
		}
		inst, err := types.Instantiate(nil, head, args, true)
		if err != nil {
			return nil, err
		}
		return inst, nil
	}
	return nil, typesystem.NewUnknownTypeError(t.String())
}

// lookupInterface resolves a bound such as 'fmt.Stringer' or 'Shape' to an
// interface, instantiating generic interfaces with the bound's arguments.
func (ins *Inspector) lookupInterface(b typesystem.Bound) (*types.Interface, error) {
	qual, name := "", b.Trait
	if i := strings.LastIndex(name, "."); i >= 0 {
		qual, name = name[:i], name[i+1:]
	}
	if strings.Contains(name, "::") {
		return nil, typesystem.NewUnknownTypeError(b.Trait)
	}
	var head typesystem.Type = typesystem.TCon{Name: name, Module: qual}
	if len(b.Args) > 0 {
		head = typesystem.TApp{Constructor: head, Args: b.Args}
	}
	typ, err := ins.lookupType(head)
	if err != nil {
		return nil, err
	}
	iface, ok := typ.Underlying().(*types.Interface)
	if !ok {
		return nil, typesystem.NewUnknownTypeError(b.Trait)
	}
	return iface, nil
}

// lookupName finds name in the package whose path (or last path element)
// is module, or in the universe and then the loaded packages when module
// is empty.
func (ins *Inspector) lookupName(module, name string) types.Object {
	if module == "" {
		if obj := types.Universe.Lookup(name); obj != nil {
			return obj
		}
		for _, pkg := range ins.roots {
			if obj := pkg.Types.Scope().Lookup(name); obj != nil {
				return obj
			}
		}
		return nil
	}
	if pkg, ok := ins.byPath[module]; ok {
		return pkg.Types.Scope().Lookup(name)
	}
	for _, p := range ins.paths {
		pkg := ins.byPath[p]
		if pkg.Name == module || path.Base(pkg.PkgPath) == module {
			if obj := pkg.Types.Scope().Lookup(name); obj != nil {
				return obj
			}
		}
	}
	return nil
}

// zeroValue spells the zero value of t as a Go expression.
func zeroValue(t types.Type) string {
	switch u := t.Underlying().(type) {
	case *types.Basic:
		switch {
		case u.Info()&types.IsBoolean != 0:
			return "false"
		case u.Info()&types.IsString != 0:
			return `""`
		case u.Info()&types.IsNumeric != 0:
			return "0"
		}
		return "nil"
	case *types.Struct, *types.Array:
		return types.TypeString(t, qualifyByName) + "{}"
	}
	return "nil"
}
