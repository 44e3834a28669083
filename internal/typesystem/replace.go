package typesystem

// Transform rebuilds t bottom-up, offering every node to f. When f returns
// true its result replaces the node and the replacement is not revisited.
func Transform(t Type, f func(Type) (Type, bool)) Type {
	if t == nil {
		return nil
	}
	if r, ok := f(t); ok {
		return r
	}
	switch typ := t.(type) {
	case TApp:
		newArgs := make([]Type, len(typ.Args))
		for i, arg := range typ.Args {
			newArgs[i] = Transform(arg, f)
		}
		return TApp{Constructor: Transform(typ.Constructor, f), Args: newArgs}
	case TRef:
		return TRef{Elem: Transform(typ.Elem, f), Mutable: typ.Mutable}
	case TSlice:
		return TSlice{Elem: Transform(typ.Elem, f)}
	case TArray:
		return TArray{Elem: Transform(typ.Elem, f), Len: typ.Len}
	case TTuple:
		if len(typ.Elements) == 0 {
			return typ
		}
		newElements := make([]Type, len(typ.Elements))
		for i, e := range typ.Elements {
			newElements[i] = Transform(e, f)
		}
		return TTuple{Elements: newElements}
	case TAssoc:
		return TAssoc{Base: Transform(typ.Base, f), Name: typ.Name}
	case TDyn:
		bounds := make([]Bound, len(typ.Bounds))
		for i, b := range typ.Bounds {
			bounds[i] = TransformBound(b, f)
		}
		return TDyn{Bounds: bounds, Opaque: typ.Opaque}
	default:
		return t
	}
}

// TransformBound applies Transform to every type inside b.
func TransformBound(b Bound, f func(Type) (Type, bool)) Bound {
	out := Bound{Trait: b.Trait, Dispatch: b.Dispatch}
	if len(b.Args) > 0 {
		out.Args = make([]Type, len(b.Args))
		for i, a := range b.Args {
			out.Args[i] = Transform(a, f)
		}
	}
	if len(b.Assoc) > 0 {
		out.Assoc = make([]AssocBinding, len(b.Assoc))
		for i, a := range b.Assoc {
			out.Assoc[i] = AssocBinding{Name: a.Name, Type: Transform(a.Type, f)}
		}
	}
	return out
}

// ReplaceTCon replaces all occurrences of the TCon with the given name.
// Used to substitute trait type parameters and 'Self' in blueprints.
func ReplaceTCon(t Type, name string, replacement Type) Type {
	return Transform(t, func(n Type) (Type, bool) {
		if c, ok := n.(TCon); ok && c.Module == "" && c.Name == name {
			return replacement, true
		}
		return nil, false
	})
}

// ReplaceAssoc resolves 'Self::Name' projections from the given bindings.
// Projections without a binding are kept as they are.
func ReplaceAssoc(t Type, bindings []AssocBinding) Type {
	return Transform(t, func(n Type) (Type, bool) {
		a, ok := n.(TAssoc)
		if !ok {
			return nil, false
		}
		if base, ok := a.Base.(TCon); !ok || base.Name != "Self" {
			return nil, false
		}
		for _, b := range bindings {
			if b.Name == a.Name {
				return b.Type, true
			}
		}
		return nil, false
	})
}
