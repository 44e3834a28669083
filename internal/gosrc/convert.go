package gosrc

import (
	"go/types"

	"github.com/funvibe/sumshape/internal/typesystem"
)

// toType converts a go/types type to the checker's representation. Types
// with no direct counterpart keep their Go spelling as a plain name.
func toType(t types.Type) typesystem.Type {
	switch typ := types.Unalias(t).(type) {
	case *types.Basic:
		return typesystem.Named(typ.Name())
	case *types.Named:
		obj := typ.Obj()
		con := typesystem.TCon{Name: obj.Name()}
		if obj.Pkg() != nil {
			con.Module = obj.Pkg().Path()
		}
		targs := typ.TypeArgs()
		if targs.Len() == 0 {
			return con
		}
		args := make([]typesystem.Type, targs.Len())
		for i := 0; i < targs.Len(); i++ {
			args[i] = toType(targs.At(i))
		}
		return typesystem.TApp{Constructor: con, Args: args}
	case *types.Pointer:
		return typesystem.TRef{Elem: toType(typ.Elem())}
	case *types.Slice:
		return typesystem.TSlice{Elem: toType(typ.Elem())}
	case *types.Array:
		return typesystem.TArray{Elem: toType(typ.Elem()), Len: typ.Len()}
	case *types.Map:
		return typesystem.App("map", toType(typ.Key()), toType(typ.Elem()))
	case *types.Chan:
		return typesystem.App("chan", toType(typ.Elem()))
	case *types.TypeParam:
		return typesystem.Named(typ.Obj().Name())
	default:
		return typesystem.Named(types.TypeString(t, qualifyByName))
	}
}

func results(tup *types.Tuple) typesystem.Type {
	switch tup.Len() {
	case 0:
		return typesystem.Unit
	case 1:
		return toType(tup.At(0).Type())
	}
	elems := make([]typesystem.Type, tup.Len())
	for i := 0; i < tup.Len(); i++ {
		elems[i] = toType(tup.At(i).Type())
	}
	return typesystem.TTuple{Elements: elems}
}

func qualifyByName(p *types.Package) string {
	return p.Name()
}
