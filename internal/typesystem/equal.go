package typesystem

import "path"

// Equal reports structural equality. Types are compared exactly: no
// unification is performed and generic symbols are never resolved here.
func Equal(t1, t2 Type) bool {
	if t1 == nil || t2 == nil {
		return t1 == nil && t2 == nil
	}

	switch a := t1.(type) {
	case TCon:
		b, ok := t2.(TCon)
		return ok && a.Name == b.Name && sameModule(a.Module, b.Module)
	case TApp:
		b, ok := t2.(TApp)
		return ok && Equal(a.Constructor, b.Constructor) && equalAll(a.Args, b.Args)
	case TRef:
		b, ok := t2.(TRef)
		return ok && a.Mutable == b.Mutable && Equal(a.Elem, b.Elem)
	case TSlice:
		b, ok := t2.(TSlice)
		return ok && Equal(a.Elem, b.Elem)
	case TArray:
		b, ok := t2.(TArray)
		return ok && a.Len == b.Len && Equal(a.Elem, b.Elem)
	case TTuple:
		b, ok := t2.(TTuple)
		return ok && equalAll(a.Elements, b.Elements)
	case TAssoc:
		b, ok := t2.(TAssoc)
		return ok && a.Name == b.Name && Equal(a.Base, b.Base)
	case TDyn:
		b, ok := t2.(TDyn)
		if !ok || a.Opaque != b.Opaque || len(a.Bounds) != len(b.Bounds) {
			return false
		}
		for i := range a.Bounds {
			if !BoundsEqual(a.Bounds[i], b.Bounds[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Expect returns a *MismatchError when found is not exactly expected.
func Expect(expected, found Type) error {
	if Equal(expected, found) {
		return nil
	}
	return NewMismatchError(expected, found)
}

// sameModule accepts a package name against a full import path, since
// patterns can only spell the qualifier ('model.User').
func sameModule(a, b string) bool {
	if a == b {
		return true
	}
	if a == "" || b == "" {
		return false
	}
	return path.Base(a) == path.Base(b)
}

func equalAll(as, bs []Type) bool {
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if !Equal(as[i], bs[i]) {
			return false
		}
	}
	return true
}
