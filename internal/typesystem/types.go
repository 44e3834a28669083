package typesystem

import (
	"path"
	"strconv"
	"strings"
)

// Type is the interface for all field, parameter and return types the
// checker reasons about. Values are immutable once built.
type Type interface {
	String() string
	isType()
}

// TCon is a named type without arguments (e.g. 'i32', 'String',
// 'std::fmt::Error'). Module holds the Go import path for Go types.
type TCon struct {
	Name   string
	Module string
}

func (t TCon) String() string {
	if t.Module == "" {
		return t.Name
	}
	return path.Base(t.Module) + "." + t.Name
}

func (TCon) isType() {}

// TApp is a generic application (e.g. 'Option<T>', 'HashMap<K, V>').
type TApp struct {
	Constructor Type
	Args        []Type
}

func (t TApp) String() string {
	return t.Constructor.String() + "<" + joinTypes(t.Args) + ">"
}

func (TApp) isType() {}

// TRef is a reference '&T' / '&mut T'. Go pointers map here as well.
type TRef struct {
	Elem    Type
	Mutable bool
}

func (t TRef) String() string {
	if t.Mutable {
		return "&mut " + t.Elem.String()
	}
	return "&" + t.Elem.String()
}

func (TRef) isType() {}

// TSlice is an unsized slice '[T]'. Go slices map here as well.
type TSlice struct {
	Elem Type
}

func (t TSlice) String() string {
	return "[" + t.Elem.String() + "]"
}

func (TSlice) isType() {}

// TArray is a fixed-size array '[T; N]'.
type TArray struct {
	Elem Type
	Len  int64
}

func (t TArray) String() string {
	return "[" + t.Elem.String() + "; " + strconv.FormatInt(t.Len, 10) + "]"
}

func (TArray) isType() {}

// TTuple is a tuple type. The empty tuple is unit.
type TTuple struct {
	Elements []Type
}

func (t TTuple) String() string {
	if len(t.Elements) == 1 {
		return "(" + t.Elements[0].String() + ",)"
	}
	return "(" + joinTypes(t.Elements) + ")"
}

func (TTuple) isType() {}

// TAssoc is an associated type projection such as 'Self::Output'.
type TAssoc struct {
	Base Type
	Name string
}

func (t TAssoc) String() string {
	return t.Base.String() + "::" + t.Name
}

func (TAssoc) isType() {}

// TDyn is a trait object or opaque type: 'dyn A + B' / 'impl A'.
type TDyn struct {
	Bounds []Bound
	Opaque bool // 'impl' rather than 'dyn'
}

func (t TDyn) String() string {
	kw := "dyn "
	if t.Opaque {
		kw = "impl "
	}
	parts := make([]string, len(t.Bounds))
	for i, b := range t.Bounds {
		parts[i] = b.String()
	}
	return kw + strings.Join(parts, " + ")
}

func (TDyn) isType() {}

// Unit is the empty tuple.
var Unit Type = TTuple{}

// Named builds a TCon for a plain type name.
func Named(name string) TCon {
	return TCon{Name: name}
}

// App builds a generic application of a named constructor.
func App(name string, args ...Type) TApp {
	return TApp{Constructor: TCon{Name: name}, Args: args}
}

// IsUnit reports whether t is nil or the empty tuple.
func IsUnit(t Type) bool {
	if t == nil {
		return true
	}
	tup, ok := t.(TTuple)
	return ok && len(tup.Elements) == 0
}

// HeadName returns the last path segment of the outermost named constructor
// of t, or "" for structural types.
// "std::collections::HashMap<K, V>" -> "HashMap".
func HeadName(t Type) string {
	switch typ := t.(type) {
	case TCon:
		return lastSegment(typ.Name)
	case TApp:
		return HeadName(typ.Constructor)
	default:
		return ""
	}
}

// Key renders t with every Go type spelled by its full import path, so
// 'a/model.User' and 'b/model.User' stay distinct. String shortens both to
// 'model.User'.
func Key(t Type) string {
	if t == nil {
		return ""
	}
	return Transform(t, qualify).String()
}

// BoundKey is Key for the argument types of a bound.
func BoundKey(b Bound) string {
	return TransformBound(b, qualify).String()
}

func qualify(t Type) (Type, bool) {
	con, ok := t.(TCon)
	if !ok || con.Module == "" {
		return nil, false
	}
	return TCon{Name: con.Module + "." + con.Name}, true
}

func lastSegment(name string) string {
	if i := strings.LastIndex(name, "::"); i >= 0 {
		return name[i+2:]
	}
	return name
}

func joinTypes(ts []Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		if t == nil {
			parts[i] = "?"
			continue
		}
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
