package oracle

import (
	"sync"

	"github.com/funvibe/sumshape/internal/typesystem"
)

var (
	signedInts   = []string{"i8", "i16", "i32", "i64", "i128", "isize"}
	unsignedInts = []string{"u8", "u16", "u32", "u64", "u128", "usize"}
	floats       = []string{"f32", "f64"}
)

// Std returns facts for the primitive and string types. Shared read-only.
var Std = sync.OnceValue(func() *Facts {
	f := NewFacts()

	common := []string{"Clone", "Default", "Debug", "Display", "ToString", "PartialEq"}
	for _, group := range [][]string{signedInts, unsignedInts, floats} {
		for _, name := range group {
			t := typesystem.Named(name)
			f.Implement(t, bounds(common...)...)
			f.Implement(t, typesystem.Bound{Trait: "Copy"})
			for _, op := range []string{"Add", "Sub", "Mul", "Div", "Rem"} {
				f.Implement(t, typesystem.Bound{Trait: op, Args: []typesystem.Type{t}, Assoc: []typesystem.AssocBinding{{Name: "Output", Type: t}}})
			}
		}
	}
	for _, group := range [][]string{signedInts, unsignedInts} {
		for _, name := range group {
			f.Implement(typesystem.Named(name), bounds("Eq", "Hash", "Ord")...)
		}
	}
	for _, group := range [][]string{signedInts, floats} {
		for _, name := range group {
			t := typesystem.Named(name)
			f.Implement(t, typesystem.Bound{Trait: "Neg", Assoc: []typesystem.AssocBinding{{Name: "Output", Type: t}}})
		}
	}

	for _, name := range []string{"bool", "char"} {
		t := typesystem.Named(name)
		f.Implement(t, bounds(common...)...)
		f.Implement(t, bounds("Copy", "Eq", "Hash", "Ord")...)
	}

	str := typesystem.Named("str")
	strRef := typesystem.TRef{Elem: str}
	bytes := typesystem.TSlice{Elem: typesystem.Named("u8")}

	f.Implement(typesystem.Named("String"), bounds(common...)...)
	f.Implement(typesystem.Named("String"), bounds("Eq", "Hash", "Ord")...)
	f.Implement(typesystem.Named("String"),
		typesystem.Bound{Trait: "AsRef", Args: []typesystem.Type{str}},
		typesystem.Bound{Trait: "AsRef", Args: []typesystem.Type{bytes}},
		typesystem.Bound{Trait: "Deref", Assoc: []typesystem.AssocBinding{{Name: "Target", Type: str}}},
	)

	f.Implement(strRef, bounds("Copy", "Clone", "Default", "Debug", "Display", "ToString", "PartialEq", "Eq", "Hash", "Ord")...)
	f.Implement(strRef,
		typesystem.Bound{Trait: "AsRef", Args: []typesystem.Type{str}},
		typesystem.Bound{Trait: "AsRef", Args: []typesystem.Type{bytes}},
	)
	return f
})

func bounds(names ...string) []typesystem.Bound {
	out := make([]typesystem.Bound, len(names))
	for i, n := range names {
		out[i] = typesystem.Bound{Trait: n}
	}
	return out
}
